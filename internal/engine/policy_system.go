package engine

import (
	"fmt"

	"github.com/mbuendia/CiudadViva/server/internal/domain/building"
	"github.com/mbuendia/CiudadViva/server/internal/domain/district"
	"github.com/mbuendia/CiudadViva/server/internal/events"
	"github.com/mbuendia/CiudadViva/server/internal/platform/logger"
	"github.com/mbuendia/CiudadViva/server/internal/schedule"
	"github.com/mbuendia/CiudadViva/server/internal/world"
)

// PolicySystem applies park-district policy changes. A NightTours toggle
// evicts the cached operating profiles of the district's parks so their
// next query reclassifies under the new policy.
type PolicySystem struct {
	eventLog  *events.EventLog
	logger    *logger.Logger
	world     *world.World
	schedules *schedule.Manager

	day int
}

// NewPolicySystem creates the policy manager.
func NewPolicySystem(eventLog *events.EventLog, log *logger.Logger, w *world.World, schedules *schedule.Manager) *PolicySystem {
	return &PolicySystem{
		eventLog:  eventLog,
		logger:    log,
		world:     w,
		schedules: schedules,
	}
}

// OnTimeTick only tracks the day for event stamping.
func (ps *PolicySystem) OnTimeTick(event events.CityEvent) {
	if payload, ok := event.Payload.(TimeTickPayload); ok {
		ps.day = payload.GameDay
	}
}

// OnPolicyChanged applies an observer's policy command to a district.
func (ps *PolicySystem) OnPolicyChanged(event events.CityEvent) {
	p, ok := event.Payload.(map[string]interface{})
	if !ok {
		return
	}
	idVal, _ := p["district_id"].(float64)
	name, _ := p["policy"].(string)
	enabled, _ := p["enabled"].(bool)

	d := ps.world.District(district.ID(idVal))
	if d == nil {
		ps.logger.Warn("Policy command for unknown district %d", int(idVal))
		return
	}

	var policy district.ParkPolicies
	switch name {
	case "night_tours":
		policy = district.PolicyNightTours
	default:
		ps.logger.Warn("Unknown policy %q", name)
		return
	}

	d.SetPolicy(policy, enabled)
	ps.logger.Info("District %d policy %s set to %t", d.ID, name, enabled)

	if policy == district.PolicyNightTours {
		ps.evictParkSchedules(d)
	}
	ps.eventLog.Append(events.CityEvent{
		ID:       events.NewID(),
		Type:     events.EventTypePolicyChanged,
		ActorID:  "policy-system",
		TargetID: fmt.Sprintf("district-%d", d.ID),
		Payload: map[string]interface{}{
			"policy":  name,
			"enabled": enabled,
		},
		GameDay: ps.day,
	})
}

// evictParkSchedules drops the frozen profiles of every park in the
// district. Profiles are permanent for a building's lifetime otherwise, so
// this is the one host-side invalidation the cache relies on.
func (ps *PolicySystem) evictParkSchedules(d *district.District) {
	evicted := 0
	ps.world.ForEachBuilding(func(b *building.Building) {
		if b.SubService != building.SubServiceBeautificationParks {
			return
		}
		if district.ID(b.Park) != d.ID {
			return
		}
		ps.schedules.Remove(b.ID)
		evicted++
	})
	if evicted > 0 {
		ps.logger.Info("Evicted %d park profiles in district %d for reclassification", evicted, d.ID)
	}
}
