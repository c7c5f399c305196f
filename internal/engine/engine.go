package engine

import (
	"context"
	"time"

	"github.com/mbuendia/CiudadViva/server/internal/domain/building"
	"github.com/mbuendia/CiudadViva/server/internal/domain/citizen"
	"github.com/mbuendia/CiudadViva/server/internal/domain/district"
	"github.com/mbuendia/CiudadViva/server/internal/events"
	"github.com/mbuendia/CiudadViva/server/internal/platform/config"
	"github.com/mbuendia/CiudadViva/server/internal/platform/logger"
	"github.com/mbuendia/CiudadViva/server/internal/platform/metrics"
	"github.com/mbuendia/CiudadViva/server/internal/platform/random"
	"github.com/mbuendia/CiudadViva/server/internal/routing"
	"github.com/mbuendia/CiudadViva/server/internal/schedule"
	"github.com/mbuendia/CiudadViva/server/internal/world"
)

// Engine is the central orchestrator wiring the event log to the city
// subsystems. All simulation state mutation happens on its event
// processing goroutine.
type Engine struct {
	eventLog *events.EventLog
	logger   *logger.Logger
	cfg      *config.Config
	ticker   *Ticker
	world    *world.World
	rng      random.Source

	schedules *schedule.Manager
	router    *routing.Router

	// Sub-systems
	movementSystem   *MovementSystem
	healthSystem     *HealthSystem
	evacuationSystem *EvacuationSystem
	cityEventSystem  *CityEventSystem
	goodsSystem      *GoodsSystem
	visitSystem      *VisitSystem
	arrestSystem     *ArrestSystem
	staffingSystem   *StaffingSystem
	policySystem     *PolicySystem

	// State
	lastProcessedEvent int

	// snapshotReq serializes observer snapshots onto the event processing
	// goroutine, which is the only goroutine allowed to touch citizens.
	snapshotReq chan chan []citizen.Citizen
}

// NewEngine initializes the simulation systems and dependencies.
func NewEngine(eventLog *events.EventLog, log *logger.Logger, cfg *config.Config) *Engine {
	w := world.New()
	rng := random.NewLocked(cfg.Seed)
	router := routing.NewRouter(w, cfg, eventLog, log)
	schedules := schedule.NewManager(w, cfg, rng, eventLog)
	schedules.Open()

	e := &Engine{
		eventLog:  eventLog,
		logger:    log,
		cfg:       cfg,
		ticker:    NewTicker(eventLog, log, cfg),
		world:     w,
		rng:       rng,
		schedules: schedules,
		router:    router,

		movementSystem:   NewMovementSystem(eventLog, log, w),
		healthSystem:     NewHealthSystem(eventLog, log, w, rng, cfg),
		evacuationSystem: NewEvacuationSystem(eventLog, log, w),
		cityEventSystem:  NewCityEventSystem(eventLog, log, w),
		goodsSystem:      NewGoodsSystem(eventLog, log, w, router, rng, cfg),
		visitSystem:      NewVisitSystem(eventLog, log, w, router, rng, cfg),
		arrestSystem:     NewArrestSystem(eventLog, log, w),
		staffingSystem:   NewStaffingSystem(eventLog, log, w, schedules),
		policySystem:     NewPolicySystem(eventLog, log, w, schedules),

		snapshotReq: make(chan chan []citizen.Citizen),
	}

	return e
}

// Start spawns the Ticker and the event processing loop.
func (e *Engine) Start(ctx context.Context) {
	e.logger.Info("Starting simulation engine...")

	go e.ticker.Start(ctx)
	go e.processEvents(ctx)
}

// Shutdown closes the schedule cache. Must be called after the context
// driving Start is cancelled.
func (e *Engine) Shutdown() {
	e.schedules.Close()
	e.logger.Info("Simulation engine stopped")
}

// OverrideTime allows bootstrapping commands to set the clock directly.
func (e *Engine) OverrideTime(day, hour int, tickNumber int64) {
	e.ticker.SetTime(day, hour, tickNumber)
}

// World exposes the city state. Mutate only from the simulation goroutine.
func (e *Engine) World() *world.World {
	return e.world
}

// Schedules exposes the operating-profile cache.
func (e *Engine) Schedules() *schedule.Manager {
	return e.schedules
}

// Router exposes the movement scheduler.
func (e *Engine) Router() *routing.Router {
	return e.router
}

// ArrestSystem exposes custody booking for operator tooling.
func (e *Engine) ArrestSystem() *ArrestSystem {
	return e.arrestSystem
}

// CityEventSystem exposes event scheduling for operator tooling.
func (e *Engine) CityEventSystem() *CityEventSystem {
	return e.cityEventSystem
}

// Ticker exposes the clock, mainly so headless runners can drive it.
func (e *Engine) Ticker() *Ticker {
	return e.ticker
}

// GetEventLog exposes the event log for observer command injection.
func (e *Engine) GetEventLog() *events.EventLog {
	return e.eventLog
}

// GetCurrentTime returns the current in-game day and hour.
func (e *Engine) GetCurrentTime() (int, int) {
	return e.ticker.GetCurrentTime()
}

// processEvents polls the EventLog and dispatches new items to subsystems.
func (e *Engine) processEvents(ctx context.Context) {
	pollInterval := time.NewTicker(100 * time.Millisecond)
	defer pollInterval.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Event processor stopped")
			return
		case <-pollInterval.C:
			e.DrainEvents()
		case reply := <-e.snapshotReq:
			reply <- e.copyCitizens()
		}
	}
}

// CitizenSnapshot returns value copies of every citizen, taken on the
// event processing goroutine so the copy never races a tick. Blocks until
// the engine services the request or the context ends.
func (e *Engine) CitizenSnapshot(ctx context.Context) []citizen.Citizen {
	reply := make(chan []citizen.Citizen, 1)
	select {
	case e.snapshotReq <- reply:
		return <-reply
	case <-ctx.Done():
		return nil
	}
}

func (e *Engine) copyCitizens() []citizen.Citizen {
	out := make([]citizen.Citizen, 0, e.world.CitizenCount())
	e.world.ForEachCitizen(func(c *citizen.Citizen) {
		out = append(out, *c)
	})
	return out
}

// DrainEvents dispatches every unprocessed event. Exported so headless
// runners can pump the engine deterministically between manual ticks.
func (e *Engine) DrainEvents() {
	allEvents := e.eventLog.Replay()
	if len(allEvents) <= e.lastProcessedEvent {
		return
	}
	newEvents := allEvents[e.lastProcessedEvent:]
	e.lastProcessedEvent = len(allEvents)
	for _, event := range newEvents {
		e.dispatch(event)
	}
}

// dispatch routes an event to the subsystems that react to it. Order
// matters on ticks: arrivals land before new decisions are made, health
// flags are set before the visit resolver reads them.
func (e *Engine) dispatch(event events.CityEvent) {
	switch event.Type {
	case events.EventTypeTimeTick:
		start := time.Now()
		if payload, ok := event.Payload.(TimeTickPayload); ok {
			e.schedules.SetDay(payload.GameDay)
			e.router.SetDay(payload.GameDay)
		}

		e.movementSystem.OnTimeTick(event)
		e.healthSystem.OnTimeTick(event)
		e.evacuationSystem.OnTimeTick(event)
		e.cityEventSystem.OnTimeTick(event)
		e.goodsSystem.OnTimeTick(event)
		e.visitSystem.OnTimeTick(event)
		e.arrestSystem.OnTimeTick(event)
		e.staffingSystem.OnTimeTick(event)
		e.policySystem.OnTimeTick(event)
		metrics.Get().RecordTick(time.Since(start))

	case events.EventTypeDrillTriggered:
		e.evacuationSystem.OnDrillTriggered(event)

	case events.EventTypePolicyChanged:
		// Observer command form carries a map payload; the system's own
		// confirmations are ignored on redelivery.
		if _, ok := event.Payload.(map[string]interface{}); ok && event.ActorID != "policy-system" {
			e.policySystem.OnPolicyChanged(event)
		}

	case events.EventTypeEventScheduled:
		e.cityEventSystem.OnEventScheduled(event)

	case events.EventTypeBuildingRemoved:
		if id := buildingIDFromPayload(event.Payload); id != 0 {
			e.world.RemoveBuilding(id)
			e.schedules.Remove(id)
		}
	}
}

// AddBuilding registers a building with the city and logs it.
func (e *Engine) AddBuilding(b *building.Building) *building.Building {
	b = e.world.AddBuilding(b)
	day, _ := e.GetCurrentTime()
	e.eventLog.Append(events.CityEvent{
		ID:       events.NewID(),
		Type:     events.EventTypeBuildingAdded,
		ActorID:  "engine",
		TargetID: b.Name,
		Payload:  map[string]interface{}{"building_id": int(b.ID)},
		GameDay:  day,
	})
	return b
}

// SpawnCitizen registers a new citizen with the city and logs it.
func (e *Engine) SpawnCitizen(name string, home building.ID) *citizen.Citizen {
	c := e.world.SpawnCitizen(name, home)
	c.Instance = uint16(c.ID)
	day, _ := e.GetCurrentTime()
	e.eventLog.Append(events.CityEvent{
		ID:      events.NewID(),
		Type:    events.EventTypeCitizenSpawned,
		ActorID: name,
		Payload: map[string]interface{}{"citizen_id": int(c.ID)},
		GameDay: day,
	})
	return c
}

// AddDistrict registers a park district.
func (e *Engine) AddDistrict(d *district.District) *district.District {
	return e.world.AddDistrict(d)
}
