package engine

import (
	"testing"

	"github.com/mbuendia/CiudadViva/server/internal/domain/building"
	"github.com/mbuendia/CiudadViva/server/internal/events"
	"github.com/mbuendia/CiudadViva/server/internal/platform/config"
	"github.com/mbuendia/CiudadViva/server/internal/platform/logger"
	"github.com/mbuendia/CiudadViva/server/internal/schedule"
	"github.com/mbuendia/CiudadViva/server/internal/world"
)

type staffingFixture struct {
	world  *world.World
	log    *events.EventLog
	system *StaffingSystem
}

// newStaffingFixture wires a Manager whose draws always lose, so every
// eligible building classifies into plain day shifts.
func newStaffingFixture() *staffingFixture {
	w := world.New()
	el := events.NewEventLog(nil)
	mgr := schedule.NewManager(nil, config.Default(), &fixedSource{value: 90}, el)
	mgr.Open()
	return &staffingFixture{
		world:  w,
		log:    el,
		system: NewStaffingSystem(el, logger.NewLogger(), w, mgr),
	}
}

func (f *staffingFixture) addBuilding(id building.ID, service building.Service) *building.Building {
	return f.world.AddBuilding(&building.Building{ID: id, Service: service, Level: building.Level1})
}

func lastStaffingReport(t *testing.T, el *events.EventLog) map[string]interface{} {
	t.Helper()
	reports := el.GetByType(events.EventTypeStaffingReport)
	if len(reports) == 0 {
		t.Fatal("expected at least one staffing report")
	}
	payload, ok := reports[len(reports)-1].Payload.(map[string]interface{})
	if !ok {
		t.Fatal("staffing report payload should be a map")
	}
	return payload
}

func TestStaffingOpensAndClosesBuildings(t *testing.T) {
	f := newStaffingFixture()
	office := f.addBuilding(1, building.ServiceOffice)

	f.system.OnTimeTick(tickEvent(1, 10))
	if !office.Active() {
		t.Error("an office should be open mid-morning")
	}
	report := lastStaffingReport(t, f.log)
	if report["open"] != 1 || report["closed"] != 0 {
		t.Errorf("expected 1 open / 0 closed, got %v / %v", report["open"], report["closed"])
	}

	f.system.OnTimeTick(tickEvent(2, 3))
	if office.Active() {
		t.Error("an office should be closed in the middle of the night")
	}
	report = lastStaffingReport(t, f.log)
	if report["open"] != 0 || report["closed"] != 1 {
		t.Errorf("expected 0 open / 1 closed, got %v / %v", report["open"], report["closed"])
	}
}

func TestStaffingClosesOfficesOnWeekends(t *testing.T) {
	f := newStaffingFixture()
	office := f.addBuilding(1, building.ServiceOffice)

	// Saturday, and 10:00 would otherwise be within the shift.
	f.system.OnTimeTick(events.CityEvent{
		Type:    events.EventTypeTimeTick,
		Payload: TimeTickPayload{GameDay: 6, GameHour: 10, Weekday: 5, IsWeekend: true},
		GameDay: 6,
	})
	if office.Active() {
		t.Error("a weekday-only office should be closed on Saturday")
	}
	report := lastStaffingReport(t, f.log)
	if report["weekend"] != true {
		t.Error("the report should carry the weekend flag")
	}
}

func TestDwellingsAreAlwaysOpen(t *testing.T) {
	f := newStaffingFixture()
	home := f.addBuilding(2, building.ServiceResidential)
	home.SetFlag(building.FlagActive, false)

	f.system.OnTimeTick(tickEvent(1, 3))
	if !home.Active() {
		t.Error("dwellings never close, regardless of the hour")
	}
	report := lastStaffingReport(t, f.log)
	if report["open"] != 0 || report["closed"] != 0 {
		t.Errorf("dwellings should not be counted, got %v open / %v closed", report["open"], report["closed"])
	}
}

func TestStaffingReportsOncePerHour(t *testing.T) {
	f := newStaffingFixture()
	f.addBuilding(1, building.ServiceOffice)

	f.system.OnTimeTick(tickEvent(1, 10))
	f.system.OnTimeTick(tickEvent(1, 10))
	f.system.OnTimeTick(tickEvent(1, 11))

	if got := len(f.log.GetByType(events.EventTypeStaffingReport)); got != 2 {
		t.Errorf("expected 2 reports for 2 distinct hours, got %d", got)
	}
}
