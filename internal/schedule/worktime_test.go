package schedule

import (
	"testing"

	"github.com/mbuendia/CiudadViva/server/internal/domain/building"
	"github.com/mbuendia/CiudadViva/server/internal/domain/district"
	"github.com/mbuendia/CiudadViva/server/internal/events"
	"github.com/mbuendia/CiudadViva/server/internal/platform/config"
)

// scriptedSource replays a fixed sequence of draw outcomes.
type scriptedSource struct {
	draws []int32
	next  int
}

func (s *scriptedSource) Int32(bound uint32) int32 {
	v := s.draws[s.next%len(s.draws)]
	s.next++
	return v
}

// stubDistricts maps every park building to one fixed district.
type stubDistricts struct {
	d *district.District
}

func (s *stubDistricts) ParkOf(b *building.Building) *district.District {
	if b.Park == 0 {
		return nil
	}
	return s.d
}

func newTestManager(src *scriptedSource, districts DistrictLookup) *Manager {
	m := NewManager(districts, config.Default(), src, events.NewEventLog(nil))
	m.Open()
	return m
}

func TestCreateIsIdempotent(t *testing.T) {
	// Draws below 50 win every default quota.
	src := &scriptedSource{draws: []int32{10, 10, 10, 10, 10, 10}}
	m := newTestManager(src, nil)

	shop := &building.Building{ID: 7, Service: building.ServiceCommercial, SubService: building.SubServiceCommercialLow}

	first := m.Create(shop)
	consumed := src.next
	second := m.Create(shop)

	if first != second {
		t.Errorf("second Create changed the profile: %+v vs %+v", first, second)
	}
	if src.next != consumed {
		t.Errorf("second Create consumed %d extra draws", src.next-consumed)
	}
	if !first.HasExtendedWorkShift {
		t.Error("winning extended draw should set the extended shift")
	}
	if first.HasContinuousWorkShift {
		t.Error("extended shift must exclude the continuous shift")
	}
	if !first.WorkAtNight || !first.WorkAtWeekends {
		t.Errorf("winning night and weekend draws should open the shop: %+v", first)
	}
}

func TestGetUsesCachedEntry(t *testing.T) {
	src := &scriptedSource{draws: []int32{90, 90, 90, 90}}
	m := newTestManager(src, nil)

	shop := &building.Building{ID: 3, Service: building.ServiceCommercial, SubService: building.SubServiceCommercialLow}

	first := m.Get(shop)
	consumed := src.next
	second := m.Get(shop)

	if first != second {
		t.Errorf("cached lookup changed the profile: %+v vs %+v", first, second)
	}
	if src.next != consumed {
		t.Error("cache hit should not consume draws")
	}
	// Losing every draw: day-only corner shop with a continuous-draw miss.
	if first.WorkAtNight || first.WorkAtWeekends || first.HasExtendedWorkShift || first.HasContinuousWorkShift {
		t.Errorf("losing draws should leave a plain day profile: %+v", first)
	}
	if first.WorkShifts != 1 {
		t.Errorf("plain corner shop should run one shift, got %d", first.WorkShifts)
	}
}

func TestDwellingsNeverGetSchedules(t *testing.T) {
	src := &scriptedSource{draws: []int32{10}}
	m := newTestManager(src, nil)

	home := &building.Building{ID: 1, Service: building.ServiceResidential}
	dorm := &building.Building{ID: 2, Service: building.ServiceEducation, DormStyle: true}

	if wt := m.Get(home); wt != (WorkTime{}) {
		t.Errorf("residential building got a profile: %+v", wt)
	}
	if wt := m.Get(dorm); wt != (WorkTime{}) {
		t.Errorf("dorm-style building got a profile: %+v", wt)
	}
	if m.Has(1) || m.Has(2) {
		t.Error("ineligible buildings must not leave cache entries")
	}
	if src.next != 0 {
		t.Error("ineligible buildings must not consume draws")
	}
}

func TestHotelOverride(t *testing.T) {
	src := &scriptedSource{draws: []int32{90}}
	m := newTestManager(src, nil)

	hotel := &building.Building{ID: 11, Service: building.ServiceHotel}
	wt := m.Get(hotel)

	if !wt.WorkAtNight || !wt.WorkAtWeekends {
		t.Errorf("hotels keep reception staffed around the clock: %+v", wt)
	}
}

func TestNightToursOverride(t *testing.T) {
	park := &building.Building{ID: 12, Service: building.ServiceBeautification, SubService: building.SubServiceBeautificationParks, Park: 1}

	quiet := district.New(1, "Quiet Park")
	src := &scriptedSource{draws: []int32{90}}
	m := newTestManager(src, &stubDistricts{d: quiet})
	if wt := m.Get(park); wt.WorkAtNight {
		t.Errorf("park without night tours should close at night: %+v", wt)
	}

	touring := district.New(1, "Touring Park")
	touring.SetPolicy(district.PolicyNightTours, true)
	src = &scriptedSource{draws: []int32{90}}
	m = newTestManager(src, &stubDistricts{d: touring})
	wt := m.Get(park)
	if !wt.WorkAtNight {
		t.Errorf("night tours should keep the park open after dark: %+v", wt)
	}
	if !wt.WorkAtWeekends {
		t.Errorf("parks open on weekends regardless of policy: %+v", wt)
	}
}

func TestClosedManagerReturnsZero(t *testing.T) {
	src := &scriptedSource{draws: []int32{10}}
	m := NewManager(nil, config.Default(), src, nil)

	shop := &building.Building{ID: 4, Service: building.ServiceCommercial, SubService: building.SubServiceCommercialLow}
	if wt := m.Get(shop); wt != (WorkTime{}) {
		t.Errorf("closed manager should return the zero profile, got %+v", wt)
	}

	m.Open()
	m.Get(shop)
	m.Close()
	if wt := m.Get(shop); wt != (WorkTime{}) {
		t.Errorf("profile survived Close: %+v", wt)
	}
}

func TestRemoveAllowsReclassification(t *testing.T) {
	src := &scriptedSource{draws: []int32{10, 10, 10, 90, 90, 90}}
	m := newTestManager(src, nil)

	shop := &building.Building{ID: 5, Service: building.ServiceCommercial, SubService: building.SubServiceCommercialLow}

	first := m.Get(shop)
	m.Remove(shop.ID)
	if m.Has(shop.ID) {
		t.Fatal("Remove left a cache entry behind")
	}
	second := m.Get(shop)

	if first == second {
		t.Error("reclassification after Remove should consume fresh draws")
	}
}

func TestOnDutyShifts(t *testing.T) {
	threeShift := WorkTime{WorkAtNight: true, WorkShifts: 3}
	twoShift := WorkTime{WorkShifts: 2}
	oneShift := WorkTime{WorkShifts: 1}
	extended := WorkTime{HasExtendedWorkShift: true, WorkShifts: 1}
	continuous := WorkTime{HasContinuousWorkShift: true, WorkAtNight: true, WorkShifts: 2}
	dayContinuous := WorkTime{HasContinuousWorkShift: true, WorkShifts: 2}
	weekendOpen := WorkTime{WorkAtWeekends: true, WorkShifts: 1}

	cases := []struct {
		name    string
		wt      WorkTime
		hour    int
		weekend bool
		want    int
	}{
		{"no shifts", WorkTime{}, 12, false, 0},
		{"weekday morning", oneShift, 9, false, 1},
		{"one shift closes at 14", oneShift, 15, false, 0},
		{"two shifts run evening", twoShift, 18, false, 1},
		{"two shifts stop at night", twoShift, 23, false, 0},
		{"three shifts cover night", threeShift, 2, false, 1},
		{"extended opens at 4", extended, 5, false, 1},
		{"standard closed at 5", oneShift, 5, false, 0},
		{"continuous day half", continuous, 12, false, 1},
		{"continuous night half", continuous, 23, false, 1},
		{"day-only continuous closed at night", dayContinuous, 23, false, 0},
		{"weekend closed", oneShift, 9, true, 0},
		{"weekend open", weekendOpen, 9, true, 1},
	}
	for _, tc := range cases {
		if got := OnDutyShifts(tc.wt, tc.hour, tc.weekend); got != tc.want {
			t.Errorf("%s: OnDutyShifts(hour=%d, weekend=%v) = %d, want %d", tc.name, tc.hour, tc.weekend, got, tc.want)
		}
	}
}

func TestExtendedShiftDrawIsAFixedCoinFlip(t *testing.T) {
	// The extended-shift chance is a hard 50%, independent of the
	// configurable commercial quotas.
	cfg := config.Default()
	cfg.OpenCommercialAtNightQuota = 0
	cfg.OpenCommercialAtWeekendsQuota = 0

	shop := &building.Building{ID: 7, Service: building.ServiceCommercial, SubService: building.SubServiceCommercialHigh}

	win := NewManager(nil, cfg, &scriptedSource{draws: []int32{49}}, events.NewEventLog(nil))
	win.Open()
	if wt := win.Create(shop); !wt.HasExtendedWorkShift {
		t.Errorf("a draw of 49 wins the extended-shift flip: %+v", wt)
	}

	lose := NewManager(nil, cfg, &scriptedSource{draws: []int32{50}}, events.NewEventLog(nil))
	lose.Open()
	if wt := lose.Create(shop); wt.HasExtendedWorkShift {
		t.Errorf("a draw of 50 loses the extended-shift flip: %+v", wt)
	}
}
