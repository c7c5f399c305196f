package engine

import (
	"fmt"

	"github.com/mbuendia/CiudadViva/server/internal/domain/building"
	"github.com/mbuendia/CiudadViva/server/internal/domain/citizen"
	"github.com/mbuendia/CiudadViva/server/internal/events"
	"github.com/mbuendia/CiudadViva/server/internal/platform/config"
	"github.com/mbuendia/CiudadViva/server/internal/platform/logger"
	"github.com/mbuendia/CiudadViva/server/internal/platform/random"
	"github.com/mbuendia/CiudadViva/server/internal/world"
)

// collapseTicks is how long a collapsed citizen stays down before the
// collapse turns into ordinary sickness.
const collapseTicks = 8

// HealthSystem manages sickness, recovery, collapse and death. The visit
// resolver only reacts to the flags this system sets.
type HealthSystem struct {
	eventLog *events.EventLog
	logger   *logger.Logger
	world    *world.World
	rng      random.Source
	cfg      *config.Config

	collapsed map[citizen.ID]int
	lastHour  int
	day       int
}

// NewHealthSystem creates a health manager over the given city.
func NewHealthSystem(eventLog *events.EventLog, log *logger.Logger, w *world.World, rng random.Source, cfg *config.Config) *HealthSystem {
	return &HealthSystem{
		eventLog:  eventLog,
		logger:    log,
		world:     w,
		rng:       rng,
		cfg:       cfg,
		collapsed: make(map[citizen.ID]int),
		lastHour:  -1,
	}
}

// OnTimeTick advances collapse timers every tick and rolls health draws
// once per in-game hour.
func (hs *HealthSystem) OnTimeTick(event events.CityEvent) {
	payload, ok := event.Payload.(TimeTickPayload)
	if !ok {
		return
	}
	hs.day = payload.GameDay

	hs.tickCollapsed()

	if payload.GameHour == hs.lastHour {
		return
	}
	hs.lastHour = payload.GameHour

	hs.world.ForEachCitizen(func(c *citizen.Citizen) {
		if c.Dead() || c.Collapsed() {
			return
		}

		if c.Sick() {
			hs.tickSick(c)
			return
		}

		if random.ShouldOccur(hs.rng, hs.cfg.SicknessChancePercent) {
			c.SetFlag(citizen.FlagSick, true)
			hs.emit(events.EventTypeCitizenSick, c)
			hs.logger.Info("Citizen %d fell sick at %s", c.ID, c.Location)
		}
	})
}

// tickSick rolls recovery for treated citizens and death/collapse for
// untreated ones.
func (hs *HealthSystem) tickSick(c *citizen.Citizen) {
	inCare := c.Location == citizen.LocationVisit &&
		hs.world.ServiceOf(c.VisitBuilding) == building.ServiceHealthCare

	recoveryChance := hs.cfg.RecoveryChancePercent
	if inCare {
		// Treatment doubles the odds.
		recoveryChance *= 2
	}
	if random.ShouldOccur(hs.rng, recoveryChance) {
		c.SetFlag(citizen.FlagSick, false)
		hs.emit(events.EventTypeCitizenRecovered, c)
		return
	}

	if inCare {
		return
	}

	if random.ShouldOccur(hs.rng, hs.cfg.UntreatedDeathPercent) {
		c.SetFlag(citizen.FlagSick, false)
		c.SetFlag(citizen.FlagDead, true)
		hs.emit(events.EventTypeCitizenDied, c)
		hs.logger.Warn("Citizen %d died untreated", c.ID)
		return
	}

	if random.ShouldOccur(hs.rng, hs.cfg.CollapseChancePercent) {
		c.SetFlag(citizen.FlagCollapsed, true)
		hs.collapsed[c.ID] = collapseTicks
		hs.emit(events.EventTypeCitizenCollapsed, c)
	}
}

// tickCollapsed counts down collapse durations. A citizen standing back
// up is still sick and will seek care through the visit resolver.
func (hs *HealthSystem) tickCollapsed() {
	for id, left := range hs.collapsed {
		c := hs.world.Citizen(id)
		if c == nil || c.Dead() {
			delete(hs.collapsed, id)
			continue
		}
		left--
		if left > 0 {
			hs.collapsed[id] = left
			continue
		}
		delete(hs.collapsed, id)
		c.SetFlag(citizen.FlagCollapsed, false)
	}
}

func (hs *HealthSystem) emit(t events.EventType, c *citizen.Citizen) {
	hs.eventLog.Append(events.CityEvent{
		ID:      events.NewID(),
		Type:    t,
		ActorID: fmt.Sprintf("citizen-%d", c.ID),
		GameDay: hs.day,
	})
}
