package engine

import (
	"testing"

	"github.com/mbuendia/CiudadViva/server/internal/domain/building"
	"github.com/mbuendia/CiudadViva/server/internal/domain/district"
	"github.com/mbuendia/CiudadViva/server/internal/events"
	"github.com/mbuendia/CiudadViva/server/internal/platform/config"
	"github.com/mbuendia/CiudadViva/server/internal/platform/logger"
	"github.com/mbuendia/CiudadViva/server/internal/schedule"
	"github.com/mbuendia/CiudadViva/server/internal/world"
)

func newPolicyFixture() (*PolicySystem, *world.World, *schedule.Manager, *events.EventLog) {
	w := world.New()
	el := events.NewEventLog(nil)
	m := schedule.NewManager(w, config.Default(), &fixedSource{value: 90}, el)
	m.Open()
	ps := NewPolicySystem(el, logger.NewLogger(), w, m)
	return ps, w, m, el
}

func policyCommand(districtID float64, policy string, enabled bool) events.CityEvent {
	return events.CityEvent{
		Type: events.EventTypePolicyChanged,
		Payload: map[string]interface{}{
			"district_id": districtID,
			"policy":      policy,
			"enabled":     enabled,
		},
	}
}

func TestNightToursReclassifiesDistrictParks(t *testing.T) {
	ps, w, m, _ := newPolicyFixture()
	w.AddDistrict(district.New(1, "Riverside"))

	park := &building.Building{ID: 3, Service: building.ServiceBeautification, SubService: building.SubServiceBeautificationParks, Park: 1}
	w.AddBuilding(park)

	if before := m.Get(park); before.WorkAtNight {
		t.Fatalf("a park without night tours must not open at night: %+v", before)
	}

	ps.OnPolicyChanged(policyCommand(1, "night_tours", true))

	if m.Has(3) {
		t.Error("the policy change should have evicted the park's frozen profile")
	}
	after := m.Get(park)
	if !after.WorkAtNight {
		t.Errorf("a reclassified park honors night tours: %+v", after)
	}
}

func TestNightToursEvictionSparesOtherBuildings(t *testing.T) {
	ps, w, m, _ := newPolicyFixture()
	w.AddDistrict(district.New(1, "Riverside"))
	w.AddDistrict(district.New(2, "Hillside"))

	inside := &building.Building{ID: 3, Service: building.ServiceBeautification, SubService: building.SubServiceBeautificationParks, Park: 1}
	outside := &building.Building{ID: 4, Service: building.ServiceBeautification, SubService: building.SubServiceBeautificationParks, Park: 2}
	office := &building.Building{ID: 5, Service: building.ServiceOffice}
	for _, b := range []*building.Building{inside, outside, office} {
		w.AddBuilding(b)
		m.Get(b)
	}

	ps.OnPolicyChanged(policyCommand(1, "night_tours", true))

	if m.Has(3) {
		t.Error("the district's own park should be evicted")
	}
	if !m.Has(4) {
		t.Error("parks of other districts keep their profile")
	}
	if !m.Has(5) {
		t.Error("non-park buildings keep their profile")
	}
}

func TestDisablingNightToursAlsoReclassifies(t *testing.T) {
	ps, w, m, _ := newPolicyFixture()
	d := w.AddDistrict(district.New(1, "Riverside"))
	d.SetPolicy(district.PolicyNightTours, true)

	park := &building.Building{ID: 3, Service: building.ServiceBeautification, SubService: building.SubServiceBeautificationParks, Park: 1}
	w.AddBuilding(park)

	if before := m.Get(park); !before.WorkAtNight {
		t.Fatalf("night tours should open the park at night: %+v", before)
	}

	ps.OnPolicyChanged(policyCommand(1, "night_tours", false))

	after := m.Get(park)
	if after.WorkAtNight {
		t.Errorf("dropping night tours closes the park at night again: %+v", after)
	}
}

func TestPolicyCommandForUnknownDistrictIsIgnored(t *testing.T) {
	ps, _, _, el := newPolicyFixture()

	ps.OnPolicyChanged(policyCommand(9, "night_tours", true))

	if got := len(el.GetByType(events.EventTypePolicyChanged)); got != 0 {
		t.Errorf("unknown district must not confirm a policy change, got %d events", got)
	}
}
