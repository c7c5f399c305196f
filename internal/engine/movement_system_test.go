package engine

import (
	"testing"

	"github.com/mbuendia/CiudadViva/server/internal/domain/building"
	"github.com/mbuendia/CiudadViva/server/internal/domain/citizen"
	"github.com/mbuendia/CiudadViva/server/internal/events"
	"github.com/mbuendia/CiudadViva/server/internal/platform/logger"
	"github.com/mbuendia/CiudadViva/server/internal/world"
)

func tickEvent(day, hour int) events.CityEvent {
	return events.CityEvent{
		Type:    events.EventTypeTimeTick,
		Payload: TimeTickPayload{GameDay: day, GameHour: hour},
		GameDay: day,
	}
}

func newMover(w *world.World, id citizen.ID, home, work, target building.ID, ticks int) *citizen.Citizen {
	c := citizen.New(id, "Mover", home)
	c.SetWorkplace(work)
	c.Location = citizen.LocationMoving
	c.Vehicle = 1
	c.Instance = 0
	c.MoveTarget = target
	c.TravelTicksLeft = ticks
	w.AddCitizen(c)
	return c
}

func TestMovementCountsDownBeforeArrival(t *testing.T) {
	w := world.New()
	w.AddBuilding(&building.Building{ID: 2, Service: building.ServiceResidential})
	ms := NewMovementSystem(events.NewEventLog(nil), logger.NewLogger(), w)

	c := newMover(w, 1, 2, 0, 2, 2)

	ms.OnTimeTick(tickEvent(1, 7))
	if c.Location != citizen.LocationMoving || c.TravelTicksLeft != 1 {
		t.Errorf("after one tick: location %v ticks %d, want Moving/1", c.Location, c.TravelTicksLeft)
	}
	if c.Vehicle == 0 {
		t.Error("the vehicle handle must survive until arrival")
	}
}

func TestArrivalAtHome(t *testing.T) {
	w := world.New()
	w.AddBuilding(&building.Building{ID: 2, Service: building.ServiceResidential})
	el := events.NewEventLog(nil)
	ms := NewMovementSystem(el, logger.NewLogger(), w)

	c := newMover(w, 1, 2, 0, 2, 1)
	c.SetVisitplace(9)

	ms.OnTimeTick(tickEvent(1, 7))

	if c.Location != citizen.LocationHome {
		t.Errorf("arrival at home: location %v, want Home", c.Location)
	}
	if c.Vehicle != 0 || c.MoveTarget != 0 || c.TravelTicksLeft != 0 {
		t.Errorf("arrival must clear trip bookkeeping: vehicle=%d target=%d ticks=%d", c.Vehicle, c.MoveTarget, c.TravelTicksLeft)
	}
	if c.VisitBuilding != 0 {
		t.Error("arriving home clears the visit target")
	}
	if c.Instance != uint16(c.ID) {
		t.Error("arrival respawns the citizen as a live agent")
	}
	if got := len(el.GetByType(events.EventTypeMoveCompleted)); got != 1 {
		t.Errorf("expected 1 arrival event, got %d", got)
	}
}

func TestArrivalAtWork(t *testing.T) {
	w := world.New()
	w.AddBuilding(&building.Building{ID: 7, Service: building.ServiceOffice})
	ms := NewMovementSystem(events.NewEventLog(nil), logger.NewLogger(), w)

	c := newMover(w, 1, 2, 7, 7, 1)

	ms.OnTimeTick(tickEvent(1, 8))
	if c.Location != citizen.LocationWork {
		t.Errorf("arrival at work: location %v, want Work", c.Location)
	}
}

func TestArrivalAtVisitTarget(t *testing.T) {
	w := world.New()
	w.AddBuilding(&building.Building{ID: 3, Service: building.ServiceCommercial})
	ms := NewMovementSystem(events.NewEventLog(nil), logger.NewLogger(), w)

	c := newMover(w, 1, 2, 7, 3, 1)

	ms.OnTimeTick(tickEvent(1, 8))
	if c.Location != citizen.LocationVisit || c.VisitBuilding != 3 {
		t.Errorf("arrival at a visit target: location %v visit %d, want Visit/3", c.Location, c.VisitBuilding)
	}
}

func TestArrivalAtVanishedBuilding(t *testing.T) {
	w := world.New()
	ms := NewMovementSystem(events.NewEventLog(nil), logger.NewLogger(), w)

	c := newMover(w, 1, 2, 0, 99, 1)
	c.SetVisitplace(99)

	ms.OnTimeTick(tickEvent(1, 8))
	if c.Location != citizen.LocationHome || c.VisitBuilding != 0 {
		t.Errorf("vanished destination should land the citizen at home, got %v visit %d", c.Location, c.VisitBuilding)
	}
}
