package engine

import (
	"testing"

	"github.com/mbuendia/CiudadViva/server/internal/domain/building"
	"github.com/mbuendia/CiudadViva/server/internal/events"
	"github.com/mbuendia/CiudadViva/server/internal/platform/logger"
	"github.com/mbuendia/CiudadViva/server/internal/world"
)

type cityEventFixture struct {
	world  *world.World
	log    *events.EventLog
	system *CityEventSystem
}

func newCityEventFixture() *cityEventFixture {
	w := world.New()
	el := events.NewEventLog(nil)
	return &cityEventFixture{
		world:  w,
		log:    el,
		system: NewCityEventSystem(el, logger.NewLogger(), w),
	}
}

func (f *cityEventFixture) addVenue(id building.ID) *building.Building {
	return f.world.AddBuilding(&building.Building{ID: id, Service: building.ServiceMonument})
}

func phaseEvents(el *events.EventLog) []string {
	var phases []string
	for _, ev := range el.GetByType(events.EventTypeCityEventPhase) {
		if p, ok := ev.Payload.(map[string]interface{}); ok {
			if phase, ok := p["phase"].(string); ok {
				phases = append(phases, phase)
			}
		}
	}
	return phases
}

func TestScheduleEventAttachesToBuilding(t *testing.T) {
	f := newCityEventFixture()
	venue := f.addVenue(3)

	handle := f.system.ScheduleEvent(3, 2, 10, 2)
	if handle == 0 {
		t.Fatal("scheduling at a free venue should succeed")
	}
	if venue.EventID != handle {
		t.Errorf("venue should carry event handle %d, got %d", handle, venue.EventID)
	}
	if phases := phaseEvents(f.log); len(phases) != 1 || phases[0] != "SCHEDULED" {
		t.Errorf("expected a single SCHEDULED phase event, got %v", phases)
	}
}

func TestScheduleEventRejectsDoubleBooking(t *testing.T) {
	f := newCityEventFixture()
	f.addVenue(3)

	if f.system.ScheduleEvent(3, 2, 10, 2) == 0 {
		t.Fatal("first booking should succeed")
	}
	if f.system.ScheduleEvent(3, 3, 10, 2) != 0 {
		t.Error("a venue already hosting an event must refuse a second booking")
	}
}

func TestScheduleEventRejectsBadRequests(t *testing.T) {
	f := newCityEventFixture()
	f.addVenue(3)

	if f.system.ScheduleEvent(99, 2, 10, 2) != 0 {
		t.Error("unknown building should be refused")
	}
	if f.system.ScheduleEvent(3, 2, 10, 0) != 0 {
		t.Error("zero-duration event should be refused")
	}
}

func TestEventPhaseLifecycle(t *testing.T) {
	f := newCityEventFixture()
	venue := f.addVenue(3)

	// Two hours on day 2, starting at 10:00.
	f.system.ScheduleEvent(3, 2, 10, 2)

	f.system.OnTimeTick(tickEvent(2, 7))
	if venue.EventState != building.EventNone {
		t.Errorf("at 07:00 the event should still be pending, got %v", venue.EventState)
	}

	f.system.OnTimeTick(tickEvent(2, 8))
	if venue.EventState != building.EventPreparing {
		t.Errorf("two hours before start the event should be preparing, got %v", venue.EventState)
	}

	f.system.OnTimeTick(tickEvent(2, 10))
	if venue.EventState != building.EventActive {
		t.Errorf("at start the event should be active, got %v", venue.EventState)
	}
	if !venue.EventState.Live() {
		t.Error("an active event must count as live")
	}

	f.system.OnTimeTick(tickEvent(2, 12))
	if venue.EventState != building.EventReady {
		t.Errorf("just past the end the event should linger as ready, got %v", venue.EventState)
	}

	f.system.OnTimeTick(tickEvent(2, 13))
	if venue.EventID != 0 || venue.EventState != building.EventNone {
		t.Error("a finished event must detach from its venue")
	}

	want := []string{"SCHEDULED", "PREPARING", "ACTIVE", "READY", "FINISHED"}
	got := phaseEvents(f.log)
	if len(got) != len(want) {
		t.Fatalf("expected phases %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected phases %v, got %v", want, got)
		}
	}
}

func TestFinishedEventFreesVenueForRebooking(t *testing.T) {
	f := newCityEventFixture()
	f.addVenue(3)

	first := f.system.ScheduleEvent(3, 1, 10, 1)
	f.system.OnTimeTick(tickEvent(1, 13))

	second := f.system.ScheduleEvent(3, 2, 10, 1)
	if second == 0 {
		t.Fatal("a venue should be bookable again once its event finishes")
	}
	if second == first {
		t.Error("handles must not be reused back to back")
	}
}

func TestOnEventScheduledParsesObserverPayload(t *testing.T) {
	f := newCityEventFixture()
	venue := f.addVenue(3)

	f.system.OnEventScheduled(events.CityEvent{
		Type:    events.EventTypeEventScheduled,
		ActorID: "observer:alice",
		Payload: map[string]interface{}{
			"building_id":    float64(3),
			"start_day":      float64(4),
			"start_hour":     float64(18),
			"duration_hours": float64(3),
		},
	})

	if venue.EventID == 0 {
		t.Error("a well-formed observer command should book the event")
	}
}
