package engine

import (
	"fmt"

	"github.com/mbuendia/CiudadViva/server/internal/domain/building"
	"github.com/mbuendia/CiudadViva/server/internal/domain/citizen"
	"github.com/mbuendia/CiudadViva/server/internal/events"
	"github.com/mbuendia/CiudadViva/server/internal/platform/logger"
	"github.com/mbuendia/CiudadViva/server/internal/world"
)

// defaultArrestTicks is how long a citizen is held at the station.
const defaultArrestTicks = 16

// ArrestSystem holds arrested citizens at a police station for a fixed
// term. When the term expires the visit association is cleared; the visit
// resolver then lifts the arrest flag on its next pass.
type ArrestSystem struct {
	eventLog *events.EventLog
	logger   *logger.Logger
	world    *world.World

	held map[citizen.ID]int
	day  int
}

// NewArrestSystem creates the custody manager.
func NewArrestSystem(eventLog *events.EventLog, log *logger.Logger, w *world.World) *ArrestSystem {
	return &ArrestSystem{
		eventLog: eventLog,
		logger:   log,
		world:    w,
		held:     make(map[citizen.ID]int),
	}
}

// Arrest books a citizen into the given police station.
func (as *ArrestSystem) Arrest(c *citizen.Citizen, station building.ID) {
	if c == nil || c.Dead() || c.Arrested() {
		return
	}
	b := as.world.Building(station)
	if b == nil || b.Service != building.ServicePoliceDepartment {
		return
	}

	c.SetFlag(citizen.FlagArrested, true)
	c.SetVisitplace(station)
	c.Location = citizen.LocationVisit
	as.held[c.ID] = defaultArrestTicks

	as.logger.Info("Citizen %d arrested, held at building %d", c.ID, station)
	as.eventLog.Append(events.CityEvent{
		ID:       events.NewID(),
		Type:     events.EventTypeCitizenArrested,
		ActorID:  fmt.Sprintf("citizen-%d", c.ID),
		TargetID: fmt.Sprintf("building-%d", station),
		GameDay:  as.day,
	})
}

// OnTimeTick counts down custody terms. An expired term clears the visit
// association; the arrest flag itself is the visit resolver's to lift.
func (as *ArrestSystem) OnTimeTick(event events.CityEvent) {
	payload, ok := event.Payload.(TimeTickPayload)
	if !ok {
		return
	}
	as.day = payload.GameDay

	for id, left := range as.held {
		c := as.world.Citizen(id)
		if c == nil || c.Dead() {
			delete(as.held, id)
			continue
		}
		left--
		if left > 0 {
			as.held[id] = left
			continue
		}
		delete(as.held, id)
		c.SetVisitplace(0)
	}
}
