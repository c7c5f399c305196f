package engine

import (
	"fmt"

	"github.com/mbuendia/CiudadViva/server/internal/domain/citizen"
	"github.com/mbuendia/CiudadViva/server/internal/events"
	"github.com/mbuendia/CiudadViva/server/internal/platform/logger"
	"github.com/mbuendia/CiudadViva/server/internal/world"
)

// MovementSystem completes the trips the router schedules. A moving
// citizen counts down its travel ticks and lands at its committed target,
// respawning as a live agent.
type MovementSystem struct {
	eventLog *events.EventLog
	logger   *logger.Logger
	world    *world.World

	day int
}

// NewMovementSystem creates the arrival processor.
func NewMovementSystem(eventLog *events.EventLog, log *logger.Logger, w *world.World) *MovementSystem {
	return &MovementSystem{
		eventLog: eventLog,
		logger:   log,
		world:    w,
	}
}

// OnTimeTick advances every trip by one tick and lands due arrivals.
func (ms *MovementSystem) OnTimeTick(event events.CityEvent) {
	payload, ok := event.Payload.(TimeTickPayload)
	if !ok {
		return
	}
	ms.day = payload.GameDay

	ms.world.ForEachCitizen(func(c *citizen.Citizen) {
		if c.Location != citizen.LocationMoving {
			return
		}
		c.TravelTicksLeft--
		if c.TravelTicksLeft > 0 {
			return
		}
		ms.arrive(c)
	})
}

// arrive settles a citizen at its move target.
func (ms *MovementSystem) arrive(c *citizen.Citizen) {
	target := c.MoveTarget
	c.Vehicle = 0
	c.TravelTicksLeft = 0
	c.MoveTarget = 0
	c.Instance = uint16(c.ID) // respawn as a live agent

	if target == 0 || ms.world.Building(target) == nil {
		// Destination vanished mid-trip; go home.
		c.SetVisitplace(0)
		c.Location = citizen.LocationHome
		return
	}

	switch target {
	case c.HomeBuilding:
		c.SetVisitplace(0)
		c.Location = citizen.LocationHome
	case c.WorkBuilding:
		c.Location = citizen.LocationWork
	default:
		c.SetVisitplace(target)
		c.Location = citizen.LocationVisit
	}

	ms.eventLog.Append(events.CityEvent{
		ID:       events.NewID(),
		Type:     events.EventTypeMoveCompleted,
		ActorID:  fmt.Sprintf("citizen-%d", c.ID),
		TargetID: fmt.Sprintf("building-%d", target),
		Payload: map[string]interface{}{
			"location": c.Location.String(),
		},
		GameDay: ms.day,
	})
}
