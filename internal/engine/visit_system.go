package engine

import (
	"fmt"

	"github.com/mbuendia/CiudadViva/server/internal/domain/building"
	"github.com/mbuendia/CiudadViva/server/internal/domain/citizen"
	"github.com/mbuendia/CiudadViva/server/internal/events"
	"github.com/mbuendia/CiudadViva/server/internal/platform/config"
	"github.com/mbuendia/CiudadViva/server/internal/platform/logger"
	"github.com/mbuendia/CiudadViva/server/internal/platform/metrics"
	"github.com/mbuendia/CiudadViva/server/internal/platform/random"
	"github.com/mbuendia/CiudadViva/server/internal/world"
)

// Movement is the routing surface the visit resolver depends on. The
// production implementation is routing.Router; tests substitute a fake.
type Movement interface {
	FindHospital(c *citizen.Citizen, from building.ID, reason building.TransferReason) bool
	FindEvacuationPlace(c *citizen.Citizen, from building.ID, reason building.TransferReason) bool
	GetEvacuationReason(from building.ID) building.TransferReason
	StartMoving(c *citizen.Citizen, from, to building.ID)
}

// Departure draw: a uniform draw in [0, departureDrawBound) below
// departureThreshold ends a non-essential visit, roughly a 25% chance per
// eligible tick.
const (
	departureDrawBound = 40
	departureThreshold = 10
)

// maxLiveInstances caps how many spawned citizen agents may generate
// random movement. Despawned citizens above this load stay put.
const maxLiveInstances = 4096

// VisitSystem resolves the visiting state of every citizen each tick.
//
// The resolver is a priority-ordered rule chain: dead, arrested,
// collapsed, sick, then dispatch on the visited building's service class.
// The first rule whose guard matches runs its transition and evaluation
// stops, which keeps the precedence auditable per rule.
type VisitSystem struct {
	eventLog *events.EventLog
	logger   *logger.Logger
	world    *world.World
	router   Movement
	rng      random.Source
	cfg      *config.Config

	rules []visitRule
	day   int

	// liveCount caches the number of spawned agents for one resolver pass;
	// counting per citizen would be quadratic in the population.
	liveCount   int
	liveCounted bool
}

type visitRule struct {
	name    string
	applies func(c *citizen.Citizen) bool
	run     func(s *VisitSystem, c *citizen.Citizen) bool
}

// NewVisitSystem creates the visit resolver over the given city.
func NewVisitSystem(eventLog *events.EventLog, log *logger.Logger, w *world.World, router Movement, rng random.Source, cfg *config.Config) *VisitSystem {
	s := &VisitSystem{
		eventLog: eventLog,
		logger:   log,
		world:    w,
		router:   router,
		rng:      rng,
		cfg:      cfg,
	}
	s.rules = []visitRule{
		{"dead", func(c *citizen.Citizen) bool { return c.Dead() }, (*VisitSystem).resolveDead},
		{"arrested", func(c *citizen.Citizen) bool { return c.Arrested() }, (*VisitSystem).resolveArrested},
		{"collapsed", func(c *citizen.Citizen) bool { return c.Collapsed() }, (*VisitSystem).resolveCollapsed},
		{"sick", func(c *citizen.Citizen) bool { return c.Sick() }, (*VisitSystem).resolveSick},
		{"category", func(c *citizen.Citizen) bool { return true }, (*VisitSystem).resolveByCategory},
	}
	return s
}

// OnTimeTick runs the resolver over every visiting citizen.
func (s *VisitSystem) OnTimeTick(event events.CityEvent) {
	payload, ok := event.Payload.(TimeTickPayload)
	if !ok {
		return
	}
	s.day = payload.GameDay
	s.liveCounted = false

	s.world.ForEachCitizen(func(c *citizen.Citizen) {
		if c.Location != citizen.LocationVisit {
			return
		}
		finished := s.ResolveVisit(c)
		metrics.Get().RecordVisit(finished)
	})
}

// ResolveVisit decides one citizen's visit outcome for this tick. Returns
// true when visit processing for the citizen is finished and no further
// state-machine steps should run this tick; false when the citizen simply
// remains where it is.
func (s *VisitSystem) ResolveVisit(c *citizen.Citizen) bool {
	for _, r := range s.rules {
		if r.applies(c) {
			return r.run(s, c)
		}
	}
	return false
}

// resolveDead releases citizens that died with no visit target and routes
// bodies at other buildings to healthcare. A body already mid-transit or
// at a healthcare building waits for pickup.
func (s *VisitSystem) resolveDead(c *citizen.Citizen) bool {
	if c.VisitBuilding == 0 {
		s.world.ReleaseCitizen(c.ID)
		s.emit(events.EventTypeCitizenReleased, c, "")
		return true
	}

	if c.HomeBuilding != 0 {
		c.SetHome(0)
	}
	if c.WorkBuilding != 0 {
		c.SetWorkplace(0)
	}
	if c.MidTransit() {
		return false
	}
	if s.world.ServiceOf(c.VisitBuilding) == building.ServiceHealthCare {
		return false
	}
	if s.router.FindHospital(c, c.VisitBuilding, building.TransferDead) {
		return false
	}
	// No hospital reachable; the body stays where it is.
	return true
}

// resolveArrested clears the arrest once the authorities are done with a
// citizen that has nowhere to visit. No movement is ever issued here.
func (s *VisitSystem) resolveArrested(c *citizen.Citizen) bool {
	if c.VisitBuilding == 0 {
		c.SetFlag(citizen.FlagArrested, false)
		s.emit(events.EventTypeCitizenReleased, c, "")
	}
	return false
}

// resolveCollapsed takes no action; collapse duration is handled by the
// health system.
func (s *VisitSystem) resolveCollapsed(c *citizen.Citizen) bool {
	return false
}

// resolveSick routes a sick citizen to healthcare unless it is already in
// care, sheltering, or mid-transit. With no hospital available the
// sickness resolves on its own and the visit ends.
func (s *VisitSystem) resolveSick(c *citizen.Citizen) bool {
	if c.VisitBuilding == 0 {
		c.Location = citizen.LocationHome
		return false
	}
	if c.MidTransit() {
		return false
	}

	switch s.world.ServiceOf(c.VisitBuilding) {
	case building.ServiceHealthCare, building.ServiceDisaster:
		return false
	}

	if s.router.FindHospital(c, c.VisitBuilding, building.TransferSick) {
		return false
	}
	return true
}

// resolveByCategory handles healthy citizens, dispatching on the visited
// building's service class.
func (s *VisitSystem) resolveByCategory(c *citizen.Citizen) bool {
	var b *building.Building
	service := building.ServiceNone
	if c.VisitBuilding != 0 {
		b = s.world.Building(c.VisitBuilding)
		if b != nil {
			service = b.Service
		}
	}

	switch service {
	case building.ServiceHealthCare, building.ServicePoliceDepartment:
		// Discharged or released citizens head straight home.
		if c.HomeBuilding != 0 && !c.MidTransit() {
			s.departHome(c)
		}
		return false

	case building.ServiceDisaster:
		// Shelter visitors leave only once the shelter stands down.
		if b.Downgrading() && c.HomeBuilding != 0 && !c.MidTransit() {
			s.departHome(c)
		}
		return false

	default:
		s.resolvePlainVisit(c, b)
		return false
	}
}

// resolvePlainVisit covers ordinary visits: shopping, leisure and events.
func (s *VisitSystem) resolvePlainVisit(c *citizen.Citizen, b *building.Building) {
	if c.VisitBuilding == 0 || b == nil {
		c.Location = citizen.LocationHome
		return
	}

	if b.Evacuating() {
		if !c.MidTransit() {
			s.router.FindEvacuationPlace(c, c.VisitBuilding, s.router.GetEvacuationReason(c.VisitBuilding))
		}
		return
	}

	if c.NeedsGoods() {
		delta := -s.cfg.GoodsPerPurchase
		s.world.ModifyGoods(c.VisitBuilding, building.TransferShopping, &delta)
		if delta != 0 {
			c.Goods -= delta
			c.SetFlag(citizen.FlagNeedGoods, false)
			s.emit(events.EventTypeGoodsPurchased, c, fmt.Sprintf("building-%d", c.VisitBuilding))
		}
		return
	}

	if b.EventID != 0 {
		// The citizen waits out a live event; once it goes dormant,
		// head home.
		if !b.EventState.Live() && c.HomeBuilding != 0 && !c.MidTransit() {
			s.departHome(c)
		}
		return
	}

	if c.Instance == 0 && !s.shouldDoRandomMove() {
		return
	}

	if s.rng.Int32(departureDrawBound) < departureThreshold && c.HomeBuilding != 0 && !c.MidTransit() {
		s.departHome(c)
	}
}

// departHome ends the visit and schedules the trip home.
func (s *VisitSystem) departHome(c *citizen.Citizen) {
	from := c.VisitBuilding
	c.SetFlag(citizen.FlagEvacuating, false)
	s.router.StartMoving(c, from, c.HomeBuilding)
	c.SetVisitplace(0)
	s.emit(events.EventTypeVisitEnded, c, fmt.Sprintf("building-%d", from))
}

// shouldDoRandomMove gates despawned citizens from generating movement
// while the world is saturated with live agents. The count is taken once
// per tick and reused for the rest of the pass.
func (s *VisitSystem) shouldDoRandomMove() bool {
	if !s.liveCounted {
		live := 0
		s.world.ForEachCitizen(func(c *citizen.Citizen) {
			if c.Instance != 0 {
				live++
			}
		})
		s.liveCount = live
		s.liveCounted = true
	}
	return s.liveCount < maxLiveInstances
}

func (s *VisitSystem) emit(t events.EventType, c *citizen.Citizen, target string) {
	if s.eventLog == nil {
		return
	}
	s.eventLog.Append(events.CityEvent{
		ID:       events.NewID(),
		Type:     t,
		ActorID:  fmt.Sprintf("citizen-%d", c.ID),
		TargetID: target,
		GameDay:  s.day,
	})
}
