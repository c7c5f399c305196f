// Package test - scenario.go
// Headless scenario: "La Primera Semana"
// Drives the simulation through a full in-game week without transport or
// persistence, and checks the city's core guarantees along the way.
package test

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mbuendia/CiudadViva/server/internal/domain/building"
	"github.com/mbuendia/CiudadViva/server/internal/domain/citizen"
	"github.com/mbuendia/CiudadViva/server/internal/engine"
	"github.com/mbuendia/CiudadViva/server/internal/events"
	"github.com/mbuendia/CiudadViva/server/internal/platform/config"
	"github.com/mbuendia/CiudadViva/server/internal/platform/logger"
	"github.com/mbuendia/CiudadViva/server/internal/schedule"
)

// FirstWeekScenario runs seven in-game days against a seeded city.
type FirstWeekScenario struct {
	eventLog *events.EventLog
	engine   *engine.Engine
	logger   *logger.Logger
	results  []ScenarioResult
}

// ScenarioResult captures the outcome of each checked guarantee.
type ScenarioResult struct {
	ScenarioName string
	Expected     string
	Actual       string
	Passed       bool
	Reason       string
}

// NewFirstWeekScenario creates the headless scenario harness.
func NewFirstWeekScenario() *FirstWeekScenario {
	log := logger.NewLogger()
	el := events.NewEventLog(nil)

	cfg := config.Default()
	cfg.Seed = 42
	// Drive a full hour per tick so a week fits in 168 steps.
	cfg.TicksPerHour = 1

	return &FirstWeekScenario{
		eventLog: el,
		engine:   engine.NewEngine(el, log, cfg),
		logger:   log,
		results:  make([]ScenarioResult, 0),
	}
}

// seedCity lays out a minimal city with every service the week exercises.
func (s *FirstWeekScenario) seedCity() {
	layout := []*building.Building{
		{ID: 1, Name: "Casa Uno", Service: building.ServiceResidential, Position: building.Position{X: 0, Z: 0}},
		{ID: 2, Name: "Casa Dos", Service: building.ServiceResidential, Position: building.Position{X: 2, Z: 0}},
		{ID: 3, Name: "Tienda de la Esquina", Service: building.ServiceCommercial, SubService: building.SubServiceCommercialLow, Goods: 400, Position: building.Position{X: 5, Z: 3}},
		{ID: 4, Name: "Hospital", Service: building.ServiceHealthCare, Position: building.Position{X: 8, Z: 4}},
		{ID: 5, Name: "Comisaría", Service: building.ServicePoliceDepartment, Position: building.Position{X: 9, Z: 5}},
		{ID: 6, Name: "Refugio", Service: building.ServiceDisaster, Position: building.Position{X: 4, Z: 8}},
		{ID: 7, Name: "Oficinas", Service: building.ServiceOffice, Position: building.Position{X: 12, Z: 2}},
	}
	for _, b := range layout {
		b.SetFlag(building.FlagActive, true)
		s.engine.AddBuilding(b)
	}

	names := []string{"Marina", "Óscar", "Lucía", "Pablo"}
	for i, name := range names {
		home := building.ID(1 + i%2)
		c := s.engine.SpawnCitizen(name, home)
		c.SetWorkplace(7)
	}
}

// step advances the clock one tick and drains the resulting events.
func (s *FirstWeekScenario) step() {
	s.engine.Ticker().Tick()
	s.engine.DrainEvents()
}

// RunScenario executes the first-week scenario.
func (s *FirstWeekScenario) RunScenario(ctx context.Context) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("ESCENARIO: LA PRIMERA SEMANA")
	fmt.Println(strings.Repeat("=", 60))

	s.seedCity()
	s.engine.Schedules().SetDay(1)

	// Days 1-2: let the city settle.
	for i := 0; i < 48; i++ {
		s.step()
	}

	s.checkTransitIntegrity()
	s.checkStaffingReports()

	// Day 3: an observer triggers a drill at the office block.
	day, _ := s.engine.GetCurrentTime()
	s.eventLog.Append(events.CityEvent{
		ID:        events.NewID(),
		Timestamp: time.Now(),
		Type:      events.EventTypeDrillTriggered,
		ActorID:   "observer:scenario",
		Payload:   map[string]interface{}{"building_id": float64(7)},
		GameDay:   day,
	})
	for i := 0; i < 24; i++ {
		s.step()
	}

	s.checkDrillLifecycle()

	// Rest of the week.
	for i := 0; i < 96; i++ {
		s.step()
	}

	s.checkScheduleStability()
	s.checkGoodsCycle()

	s.printVerdict()
}

// checkTransitIntegrity verifies no citizen with a vehicle handle had its
// destination bookkeeping cleared mid-move.
func (s *FirstWeekScenario) checkTransitIntegrity() {
	violations := 0
	s.engine.World().ForEachCitizen(func(c *citizen.Citizen) {
		if c.MidTransit() && c.MoveTarget == 0 {
			violations++
		}
		if c.MidTransit() && c.Instance != 0 {
			violations++
		}
	})

	s.record(ScenarioResult{
		ScenarioName: "Integridad del tránsito",
		Expected:     "0 violations",
		Actual:       fmt.Sprintf("%d violations", violations),
		Passed:       violations == 0,
		Reason:       "Mid-transit citizens keep their committed destination and stay despawned",
	})
}

// checkStaffingReports verifies the staffing system reported every hour.
func (s *FirstWeekScenario) checkStaffingReports() {
	reports := len(s.eventLog.GetByType(events.EventTypeStaffingReport))

	s.record(ScenarioResult{
		ScenarioName: "Informes de personal",
		Expected:     ">= 24 reports after two days",
		Actual:       fmt.Sprintf("%d reports", reports),
		Passed:       reports >= 24,
		Reason:       "One staffing report per simulated hour",
	})
}

// checkDrillLifecycle verifies the drill opened and closed.
func (s *FirstWeekScenario) checkDrillLifecycle() {
	started := len(s.eventLog.GetByType(events.EventTypeEvacuationStart))
	ended := len(s.eventLog.GetByType(events.EventTypeEvacuationEnd))
	office := s.engine.World().Building(7)

	passed := started >= 1 && ended >= 1 && office != nil && !office.Evacuating()
	s.record(ScenarioResult{
		ScenarioName: "Ciclo del simulacro",
		Expected:     "drill started, ended, building back to normal",
		Actual:       fmt.Sprintf("started=%d ended=%d evacuating=%v", started, ended, office != nil && office.Evacuating()),
		Passed:       passed,
		Reason:       "A triggered drill must run its course and stand down",
	})
}

// checkScheduleStability verifies classifications were drawn once and reused.
func (s *FirstWeekScenario) checkScheduleStability() {
	assigned := len(s.eventLog.GetByType(events.EventTypeScheduleAssigned))
	eligible := 0
	s.engine.World().ForEachBuilding(func(b *building.Building) {
		if schedule.Eligible(b) {
			eligible++
		}
	})

	s.record(ScenarioResult{
		ScenarioName: "Estabilidad de horarios",
		Expected:     fmt.Sprintf("%d assignments, one per eligible building", eligible),
		Actual:       fmt.Sprintf("%d assignments", assigned),
		Passed:       assigned == eligible,
		Reason:       "A building's operating profile is drawn once and never redrawn",
	})
}

// checkGoodsCycle verifies households shopped and shops restocked.
func (s *FirstWeekScenario) checkGoodsCycle() {
	purchases := len(s.eventLog.GetByType(events.EventTypeGoodsPurchased))
	shop := s.engine.World().Building(3)

	passed := shop != nil && shop.Goods >= 0
	s.record(ScenarioResult{
		ScenarioName: "Ciclo de mercancías",
		Expected:     "non-negative shop stock",
		Actual:       fmt.Sprintf("purchases=%d stock=%d", purchases, shop.Goods),
		Passed:       passed,
		Reason:       "Purchases debit the shop but stock never goes negative",
	})
}

func (s *FirstWeekScenario) record(r ScenarioResult) {
	s.results = append(s.results, r)
	status := "FAIL"
	if r.Passed {
		status = "OK"
	}
	fmt.Printf("   [%s] %s: %s (expected %s)\n", status, r.ScenarioName, r.Actual, r.Expected)
}

func (s *FirstWeekScenario) printVerdict() {
	passed := 0
	for _, r := range s.results {
		if r.Passed {
			passed++
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	if passed == len(s.results) {
		fmt.Println("ESCENARIO SUPERADO: la ciudad sobrevivió su primera semana")
	} else {
		fmt.Printf("ESCENARIO FALLIDO: %d de %d comprobaciones fallaron\n", len(s.results)-passed, len(s.results))
	}
	fmt.Println(strings.Repeat("=", 60))
}

// GetResults returns all scenario results.
func (s *FirstWeekScenario) GetResults() []ScenarioResult {
	return s.results
}
