package engine

import (
	"testing"

	"github.com/mbuendia/CiudadViva/server/internal/domain/building"
	"github.com/mbuendia/CiudadViva/server/internal/domain/citizen"
	"github.com/mbuendia/CiudadViva/server/internal/events"
	"github.com/mbuendia/CiudadViva/server/internal/platform/config"
	"github.com/mbuendia/CiudadViva/server/internal/platform/logger"
	"github.com/mbuendia/CiudadViva/server/internal/world"
)

// queuedSource replays draws in order, then repeats the last one.
type queuedSource struct {
	draws []int32
	next  int
}

func (q *queuedSource) Int32(bound uint32) int32 {
	if q.next >= len(q.draws) {
		q.next++
		return q.draws[len(q.draws)-1]
	}
	v := q.draws[q.next]
	q.next++
	return v
}

func newHealthFixture(draws ...int32) (*HealthSystem, *world.World, *events.EventLog) {
	w := world.New()
	el := events.NewEventLog(nil)
	hs := NewHealthSystem(el, logger.NewLogger(), w, &queuedSource{draws: draws}, config.Default())
	return hs, w, el
}

func TestSicknessDraw(t *testing.T) {
	// Default sickness chance is 2%: a draw of 1 falls sick, 99 stays well.
	hs, w, el := newHealthFixture(1)
	c := citizen.New(1, "Ana", 2)
	w.AddCitizen(c)

	hs.OnTimeTick(tickEvent(1, 7))

	if !c.Sick() {
		t.Error("a winning sickness draw should set the sick flag")
	}
	if got := len(el.GetByType(events.EventTypeCitizenSick)); got != 1 {
		t.Errorf("expected 1 sickness event, got %d", got)
	}

	hs, w, _ = newHealthFixture(99)
	c = citizen.New(1, "Ana", 2)
	w.AddCitizen(c)
	hs.OnTimeTick(tickEvent(1, 7))
	if c.Sick() {
		t.Error("a losing draw must not set the sick flag")
	}
}

func TestHealthDrawsAreHourlyGated(t *testing.T) {
	hs, w, _ := newHealthFixture(99)
	c := citizen.New(1, "Ana", 2)
	w.AddCitizen(c)

	src := hs.rng.(*queuedSource)
	hs.OnTimeTick(tickEvent(1, 7))
	consumed := src.next
	// Same hour again: no new draws.
	hs.OnTimeTick(tickEvent(1, 7))
	if src.next != consumed {
		t.Error("repeated ticks within one hour must not roll new draws")
	}
	hs.OnTimeTick(tickEvent(1, 8))
	if src.next == consumed {
		t.Error("a new hour should roll new draws")
	}
}

func TestUntreatedSicknessCanKill(t *testing.T) {
	// Draws: recovery 99 (lose at 25%), death 1 (win at 5%).
	hs, w, el := newHealthFixture(99, 1)
	c := citizen.New(1, "Ana", 2)
	c.SetFlag(citizen.FlagSick, true)
	w.AddCitizen(c)

	hs.OnTimeTick(tickEvent(1, 7))

	if !c.Dead() {
		t.Error("a winning death draw should kill the untreated citizen")
	}
	if c.Sick() {
		t.Error("death clears the sick flag")
	}
	if got := len(el.GetByType(events.EventTypeCitizenDied)); got != 1 {
		t.Errorf("expected 1 death event, got %d", got)
	}
}

func TestTreatedSicknessNeverKills(t *testing.T) {
	hs, w, _ := newHealthFixture(99, 1, 1)
	hospital := &building.Building{ID: 4, Service: building.ServiceHealthCare}
	w.AddBuilding(hospital)

	c := citizen.New(1, "Ana", 2)
	c.SetFlag(citizen.FlagSick, true)
	c.Location = citizen.LocationVisit
	c.SetVisitplace(4)
	w.AddCitizen(c)

	hs.OnTimeTick(tickEvent(1, 7))

	if c.Dead() {
		t.Error("a citizen in care must not roll the death draw")
	}
	if !c.Sick() {
		// Recovery draw of 99 loses even at the doubled 50% chance.
		t.Error("a losing recovery draw keeps the citizen sick")
	}
}

func TestRecoveryClearsSickness(t *testing.T) {
	hs, w, el := newHealthFixture(10)
	c := citizen.New(1, "Ana", 2)
	c.SetFlag(citizen.FlagSick, true)
	w.AddCitizen(c)

	hs.OnTimeTick(tickEvent(1, 7))

	if c.Sick() {
		t.Error("a winning recovery draw should clear the sickness")
	}
	if got := len(el.GetByType(events.EventTypeCitizenRecovered)); got != 1 {
		t.Errorf("expected 1 recovery event, got %d", got)
	}
}

func TestCollapseRunsItsCourse(t *testing.T) {
	// Draws: recovery 99, death 99, collapse 0 (win at 1%), then losses.
	hs, w, el := newHealthFixture(99, 99, 0, 99)
	c := citizen.New(1, "Ana", 2)
	c.SetFlag(citizen.FlagSick, true)
	w.AddCitizen(c)

	hs.OnTimeTick(tickEvent(1, 7))
	if !c.Collapsed() {
		t.Fatal("a winning collapse draw should set the collapsed flag")
	}
	if got := len(el.GetByType(events.EventTypeCitizenCollapsed)); got != 1 {
		t.Errorf("expected 1 collapse event, got %d", got)
	}

	// The countdown runs on every tick; collapsed citizens skip new draws.
	for i := 0; i < collapseTicks; i++ {
		hs.OnTimeTick(tickEvent(1, 8+i))
	}
	if c.Collapsed() {
		t.Error("collapse should expire after its countdown")
	}
	if !c.Sick() {
		t.Error("standing back up leaves the citizen still sick")
	}
}
