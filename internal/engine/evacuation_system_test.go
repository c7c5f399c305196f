package engine

import (
	"testing"

	"github.com/mbuendia/CiudadViva/server/internal/domain/building"
	"github.com/mbuendia/CiudadViva/server/internal/domain/citizen"
	"github.com/mbuendia/CiudadViva/server/internal/events"
	"github.com/mbuendia/CiudadViva/server/internal/platform/logger"
	"github.com/mbuendia/CiudadViva/server/internal/world"
)

func newEvacFixture() (*EvacuationSystem, *world.World, *events.EventLog) {
	w := world.New()
	el := events.NewEventLog(nil)
	return NewEvacuationSystem(el, logger.NewLogger(), w), w, el
}

func TestDrillFlagsBuildingAndOccupants(t *testing.T) {
	es, w, el := newEvacFixture()
	office := &building.Building{ID: 7, Service: building.ServiceOffice}
	w.AddBuilding(office)

	worker := citizen.New(1, "Ana", 2)
	worker.SetWorkplace(7)
	w.AddCitizen(worker)
	bystander := citizen.New(2, "Luis", 3)
	w.AddCitizen(bystander)

	es.OnDrillTriggered(events.CityEvent{
		Type:    events.EventTypeDrillTriggered,
		Payload: map[string]interface{}{"building_id": float64(7)},
	})

	if !office.Evacuating() {
		t.Error("the drill should flag the building as evacuating")
	}
	if !worker.Evacuating() {
		t.Error("people attached to the building evacuate")
	}
	if bystander.Evacuating() {
		t.Error("unrelated citizens are not evacuated")
	}
	if got := len(el.GetByType(events.EventTypeEvacuationStart)); got != 1 {
		t.Errorf("expected 1 start event, got %d", got)
	}
}

func TestDrillIgnoresUnknownBuilding(t *testing.T) {
	es, _, el := newEvacFixture()

	es.OnDrillTriggered(events.CityEvent{
		Type:    events.EventTypeDrillTriggered,
		Payload: map[string]interface{}{"building_id": float64(42)},
	})

	if got := len(el.GetByType(events.EventTypeEvacuationStart)); got != 0 {
		t.Errorf("unknown building should start nothing, got %d events", got)
	}
}

func TestDrillStandsDownShelters(t *testing.T) {
	es, w, el := newEvacFixture()
	office := &building.Building{ID: 7, Service: building.ServiceOffice}
	shelter := &building.Building{ID: 6, Service: building.ServiceDisaster}
	w.AddBuilding(office)
	w.AddBuilding(shelter)

	es.StartDrill(7)
	for i := 0; i < drillTicks; i++ {
		es.OnTimeTick(tickEvent(1, 7))
	}

	if office.Evacuating() {
		t.Error("the drill should end after its countdown")
	}
	if !shelter.Downgrading() {
		t.Error("shelters stand down once the drill ends")
	}
	if got := len(el.GetByType(events.EventTypeEvacuationEnd)); got != 1 {
		t.Errorf("expected 1 end event, got %d", got)
	}

	for i := 0; i < standDownTicks; i++ {
		es.OnTimeTick(tickEvent(1, 8))
	}
	if shelter.Downgrading() {
		t.Error("the stand-down window should close")
	}
}
