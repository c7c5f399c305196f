// Package main is the entry point for the CiudadViva simulation server.
// It only handles dependency injection and server initialization.
// NO business logic belongs here.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/mbuendia/CiudadViva/server/internal/domain/building"
	"github.com/mbuendia/CiudadViva/server/internal/domain/district"
	"github.com/mbuendia/CiudadViva/server/internal/engine"
	"github.com/mbuendia/CiudadViva/server/internal/events"
	"github.com/mbuendia/CiudadViva/server/internal/infra/cache"
	"github.com/mbuendia/CiudadViva/server/internal/infra/storage"
	"github.com/mbuendia/CiudadViva/server/internal/network"
	"github.com/mbuendia/CiudadViva/server/internal/platform/config"
	"github.com/mbuendia/CiudadViva/server/internal/platform/logger"
	"github.com/mbuendia/CiudadViva/server/internal/platform/metrics"
	"github.com/mbuendia/CiudadViva/server/internal/platform/optimization"
)

const cityID = "CITY_1"

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the YAML config file")
	flag.Parse()

	log.Println("[CITY-SERVER] Initializing 'CiudadViva' Authoritative Server...")

	appLogger := logger.NewLogger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			appLogger.Warn("Config file %s not found, using defaults", *configPath)
			cfg = config.Default()
		} else {
			appLogger.Error("Failed to load config: %v", err)
			os.Exit(1)
		}
	}

	appLogger.Info("Initializing SQLite database %s...", cfg.DBPath)
	db, err := storage.InitSQLite(cfg.DBPath)
	if err != nil {
		appLogger.Error("Failed to initialize SQLite: %v", err)
		os.Exit(1)
	}
	defer db.Close()

	tuning := optimization.DefaultConfig()
	db.SetMaxOpenConns(tuning.DBMaxOpenConns)
	db.SetMaxIdleConns(tuning.DBMaxIdleConns)

	eventRepo := storage.NewSQLiteEventRepository(db)
	citizenRepo := storage.NewSQLiteCitizenRepository(db)
	worktimeRepo := storage.NewSQLiteWorkTimeRepository(db)
	clockRepo := storage.NewSQLiteClockRepository(db)

	// The PostgreSQL archive is an optional secondary ledger.
	var archive storage.EventRepository
	if cfg.PostgresDSN != "" {
		pgdb, err := sqlx.Connect("postgres", cfg.PostgresDSN)
		if err != nil {
			appLogger.Warn("PostgreSQL archive unavailable: %v", err)
		} else {
			defer pgdb.Close()
			archive = storage.NewPostgresEventRepository(pgdb)
			appLogger.Info("PostgreSQL event archive connected")
		}
	}

	appLogger.Info("Bootstrapping EventLog...")
	persister := storage.NewPersister(cityID, eventRepo, archive)
	eventLog := events.NewEventLog(persister)

	appLogger.Info("Bootstrapping Engine Subsystems...")
	cityEngine := engine.NewEngine(eventLog, appLogger, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Buildings and districts are authored here, not persisted. Citizens,
	// schedules and the clock come back from the database.
	bootstrapCity(cityEngine, appLogger)

	reconstructor := storage.NewReconstructor(eventRepo, citizenRepo, worktimeRepo, clockRepo)
	clock, err := reconstructor.Restore(ctx, cityID, cityEngine.World(), cityEngine.Schedules())
	if err != nil {
		appLogger.Error("State reconstruction failed: %v", err)
		os.Exit(1)
	}
	if clock != nil {
		cityEngine.OverrideTime(clock.GameDay, clock.GameHour, clock.TickNumber)
		appLogger.Info("Restored city clock: day %d hour %d", clock.GameDay, clock.GameHour)
	}
	if cityEngine.World().CitizenCount() == 0 {
		seedCitizens(cityEngine, appLogger)
	}

	cityEngine.Start(ctx)

	memClient := cache.NewMemoryClient()
	cityCache := cache.NewCityCache(memClient)

	// Automated state backup and cache sync routine.
	go runBackupLoop(ctx, cityEngine, citizenRepo, worktimeRepo, clockRepo, cityCache, appLogger)

	appLogger.Info("Bootstrapping WebSocket Hub...")
	hub := network.NewHub(cityEngine, appLogger)
	go hub.Run(ctx)
	hub.StartEventPoller(ctx, eventLog)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(hub, w, r, appLogger)
	})

	observerBridge := network.NewObserverBridge(cityID, cityEngine, eventLog, cityCache, hub, appLogger)
	observerBridge.RegisterRoutes(mux)

	replayHandler := network.NewReplayHandler(cityID, eventLog, appLogger)
	replayHandler.RegisterRoutes(mux)

	mux.HandleFunc("/metrics", metrics.Handler())
	mux.HandleFunc("/metrics/prometheus", metrics.PrometheusHandler())
	mux.HandleFunc("/metrics/recommendations", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(optimization.Analyze(metrics.Get().Snapshot()))
	})

	server := &http.Server{Addr: cfg.ListenAddr, Handler: mux}
	go func() {
		log.Printf("[CITY-SERVER] HTTP API & WS Server listening on %s", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	log.Println("[CITY-SERVER] Server running. Press Ctrl+C to exit.")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[CITY-SERVER] Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)
	cancel()
	cityEngine.Shutdown()
}

// bootstrapCity lays out the fixed districts and buildings. IDs are
// assigned explicitly so citizen snapshots stay valid across restarts.
func bootstrapCity(eng *engine.Engine, appLogger *logger.Logger) {
	appLogger.Info("Laying out city districts and buildings...")

	riverside := district.New(1, "Riverside Park")
	eng.AddDistrict(riverside)

	layout := []*building.Building{
		{ID: 1, Name: "Calle Sol 1", Service: building.ServiceResidential, Position: building.Position{X: 10, Z: 10}},
		{ID: 2, Name: "Calle Sol 2", Service: building.ServiceResidential, Position: building.Position{X: 12, Z: 10}},
		{ID: 3, Name: "Calle Luna 3", Service: building.ServiceResidential, Position: building.Position{X: 14, Z: 12}},
		{ID: 4, Name: "Mercado Central", Service: building.ServiceCommercial, SubService: building.SubServiceCommercialLow, Goods: 400, Position: building.Position{X: 20, Z: 15}},
		{ID: 5, Name: "Panadería del Barrio", Service: building.ServiceCommercial, SubService: building.SubServiceCommercialLow, Goods: 400, Position: building.Position{X: 22, Z: 16}},
		{ID: 6, Name: "Torre Norte Oficinas", Service: building.ServiceOffice, Position: building.Position{X: 30, Z: 20}},
		{ID: 7, Name: "Fábrica del Río", Service: building.ServiceIndustrial, Position: building.Position{X: 40, Z: 8}},
		{ID: 8, Name: "Hospital General", Service: building.ServiceHealthCare, Position: building.Position{X: 25, Z: 25}},
		{ID: 9, Name: "Comisaría Centro", Service: building.ServicePoliceDepartment, Position: building.Position{X: 28, Z: 24}},
		{ID: 10, Name: "Refugio Civil", Service: building.ServiceDisaster, Position: building.Position{X: 18, Z: 28}},
		{ID: 11, Name: "Hotel Mirador", Service: building.ServiceHotel, Position: building.Position{X: 32, Z: 14}},
		{ID: 12, Name: "Jardines del Río", Service: building.ServiceBeautification, SubService: building.SubServiceBeautificationParks, Park: 1, Position: building.Position{X: 15, Z: 30}},
	}
	for _, b := range layout {
		b.SetFlag(building.FlagActive, true)
		eng.AddBuilding(b)
	}
}

// seedCitizens populates a fresh database with the starter households.
func seedCitizens(eng *engine.Engine, appLogger *logger.Logger) {
	appLogger.Info("Database empty. Seeding initial citizens...")

	starters := []struct {
		name string
		home building.ID
		work building.ID
	}{
		{"Marina", 1, 4},
		{"Óscar", 1, 6},
		{"Lucía", 2, 7},
		{"Pablo", 2, 8},
		{"Carmen", 3, 9},
		{"Diego", 3, 5},
	}
	for _, s := range starters {
		c := eng.SpawnCitizen(s.name, s.home)
		c.SetWorkplace(s.work)
	}
}

// runBackupLoop snapshots citizens, schedules and the clock every few
// seconds, and refreshes the observer cache in the same pass.
func runBackupLoop(ctx context.Context, eng *engine.Engine, citizenRepo storage.CitizenRepository, worktimeRepo storage.WorkTimeRepository, clockRepo storage.ClockRepository, cityCache *cache.CityCache, appLogger *logger.Logger) {
	backupTicker := time.NewTicker(5 * time.Second)
	defer backupTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-backupTicker.C:
			// The copy is taken on the engine's dispatch goroutine; the
			// loop below only sees detached values.
			states := make(map[uint32]cache.CitizenState)
			for _, c := range eng.CitizenSnapshot(ctx) {
				snap := storage.CitizenSnapshot{
					CitizenID:     uint32(c.ID),
					CityID:        cityID,
					Name:          c.Name,
					Flags:         uint16(c.Flags),
					Location:      uint8(c.Location),
					HomeBuilding:  uint16(c.HomeBuilding),
					WorkBuilding:  uint16(c.WorkBuilding),
					VisitBuilding: uint16(c.VisitBuilding),
					Goods:         c.Goods,
					LastUpdated:   time.Now(),
				}
				if err := citizenRepo.Upsert(ctx, snap); err != nil {
					appLogger.Warn("Citizen snapshot failed: %v", err)
				}
				states[uint32(c.ID)] = cache.CitizenState{
					CitizenID:     uint32(c.ID),
					Name:          c.Name,
					Location:      c.Location.String(),
					HomeBuilding:  uint16(c.HomeBuilding),
					WorkBuilding:  uint16(c.WorkBuilding),
					VisitBuilding: uint16(c.VisitBuilding),
					Sick:          c.Sick(),
					Dead:          c.Dead(),
					Arrested:      c.Arrested(),
					Evacuating:    c.Evacuating(),
					Goods:         c.Goods,
					LastSync:      time.Now().Unix(),
				}
			}
			if err := cityCache.SetCityState(ctx, cityID, states); err != nil {
				appLogger.Warn("Cache sync failed: %v", err)
			}

			for id, wt := range eng.Schedules().Entries() {
				record := storage.WorkTimeRecord{
					BuildingID:             uint16(id),
					CityID:                 cityID,
					WorkAtNight:            wt.WorkAtNight,
					WorkAtWeekends:         wt.WorkAtWeekends,
					HasExtendedWorkShift:   wt.HasExtendedWorkShift,
					HasContinuousWorkShift: wt.HasContinuousWorkShift,
					WorkShifts:             wt.WorkShifts,
				}
				if err := worktimeRepo.Upsert(ctx, record); err != nil {
					appLogger.Warn("Schedule snapshot failed: %v", err)
				}
			}

			day, hour := eng.GetCurrentTime()
			state := storage.ClockState{
				CityID:     cityID,
				GameDay:    day,
				GameHour:   hour,
				TickNumber: eng.Ticker().TickNumber(),
				UpdatedAt:  time.Now(),
			}
			if err := clockRepo.Save(ctx, state); err != nil {
				appLogger.Warn("Clock snapshot failed: %v", err)
			}
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow cross-origin requests for the dashboard dev server
	},
}

// serveWs handles websocket requests from observers.
func serveWs(hub *network.Hub, w http.ResponseWriter, r *http.Request, log *logger.Logger) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("Failed to upgrade websocket connection")
		return
	}

	client := network.NewClient(hub, conn)
	client.Register()

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.WritePump()
	go client.ReadPump()
}
