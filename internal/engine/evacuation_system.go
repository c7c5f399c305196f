package engine

import (
	"fmt"

	"github.com/mbuendia/CiudadViva/server/internal/domain/building"
	"github.com/mbuendia/CiudadViva/server/internal/domain/citizen"
	"github.com/mbuendia/CiudadViva/server/internal/events"
	"github.com/mbuendia/CiudadViva/server/internal/platform/logger"
	"github.com/mbuendia/CiudadViva/server/internal/world"
)

// drillTicks is how long a building stays under evacuation before the
// all-clear, and standDownTicks how long shelters keep their doors open
// afterwards so visitors can leave.
const (
	drillTicks     = 12
	standDownTicks = 6
)

// EvacuationSystem runs evacuation drills: it raises the Evacuating flag
// on target buildings, lets the visit resolver route people to shelters,
// and later stands the shelters down so everyone heads home.
type EvacuationSystem struct {
	eventLog *events.EventLog
	logger   *logger.Logger
	world    *world.World

	evacuating map[building.ID]int
	standDown  map[building.ID]int
	day        int
}

// NewEvacuationSystem creates the drill manager.
func NewEvacuationSystem(eventLog *events.EventLog, log *logger.Logger, w *world.World) *EvacuationSystem {
	return &EvacuationSystem{
		eventLog:   eventLog,
		logger:     log,
		world:      w,
		evacuating: make(map[building.ID]int),
		standDown:  make(map[building.ID]int),
	}
}

// OnDrillTriggered starts a drill on the building named by the event.
// Payload parsing tolerates both typed and JSON-decoded map forms, since
// drills can arrive from observer commands.
func (es *EvacuationSystem) OnDrillTriggered(event events.CityEvent) {
	id := buildingIDFromPayload(event.Payload)
	if id == 0 {
		es.logger.Warn("Drill command without a valid building id")
		return
	}
	es.StartDrill(id)
}

// StartDrill flags a building as evacuating. Citizens visiting it are
// routed to shelters by the visit resolver on subsequent ticks.
func (es *EvacuationSystem) StartDrill(id building.ID) {
	b := es.world.Building(id)
	if b == nil || b.Evacuating() {
		return
	}
	b.SetFlag(building.FlagEvacuating, true)
	es.evacuating[id] = drillTicks

	es.world.ForEachCitizen(func(c *citizen.Citizen) {
		if c.HomeBuilding == id || c.WorkBuilding == id || c.VisitBuilding == id {
			c.SetFlag(citizen.FlagEvacuating, true)
		}
	})

	es.logger.Warn("Evacuation started for building %d", id)
	es.eventLog.Append(events.CityEvent{
		ID:       events.NewID(),
		Type:     events.EventTypeEvacuationStart,
		ActorID:  "evacuation-system",
		TargetID: fmt.Sprintf("building-%d", id),
		GameDay:  es.day,
	})
}

// OnTimeTick counts down drills and shelter stand-downs.
func (es *EvacuationSystem) OnTimeTick(event events.CityEvent) {
	payload, ok := event.Payload.(TimeTickPayload)
	if !ok {
		return
	}
	es.day = payload.GameDay

	for id, left := range es.evacuating {
		left--
		if left > 0 {
			es.evacuating[id] = left
			continue
		}
		delete(es.evacuating, id)
		es.endDrill(id)
	}

	for id, left := range es.standDown {
		left--
		if left > 0 {
			es.standDown[id] = left
			continue
		}
		delete(es.standDown, id)
		if b := es.world.Building(id); b != nil {
			b.SetFlag(building.FlagDowngrading, false)
		}
	}
}

// endDrill clears the evacuation and marks shelters as standing down,
// which is the signal the visit resolver uses to release their visitors.
func (es *EvacuationSystem) endDrill(id building.ID) {
	b := es.world.Building(id)
	if b != nil {
		b.SetFlag(building.FlagEvacuating, false)
	}

	es.world.ForEachBuilding(func(s *building.Building) {
		if s.Service != building.ServiceDisaster {
			return
		}
		s.SetFlag(building.FlagDowngrading, true)
		es.standDown[s.ID] = standDownTicks
	})

	es.logger.Info("Evacuation ended for building %d", id)
	es.eventLog.Append(events.CityEvent{
		ID:       events.NewID(),
		Type:     events.EventTypeEvacuationEnd,
		ActorID:  "evacuation-system",
		TargetID: fmt.Sprintf("building-%d", id),
		GameDay:  es.day,
	})
}

// buildingIDFromPayload extracts a building id from a typed or
// JSON-decoded payload.
func buildingIDFromPayload(payload interface{}) building.ID {
	switch p := payload.(type) {
	case building.ID:
		return p
	case map[string]interface{}:
		if v, ok := p["building_id"].(float64); ok {
			return building.ID(v)
		}
	}
	return 0
}
