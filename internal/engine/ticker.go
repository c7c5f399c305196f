// Package engine contains the simulation loop and the city subsystems.
//
// ARCHITECTURAL RULE: the Ticker does NOT mutate city state directly.
// It emits TimeTick events to the EventLog; subsystems react to those on
// the single simulation goroutine.
package engine

import (
	"context"
	"time"

	"github.com/mbuendia/CiudadViva/server/internal/events"
	"github.com/mbuendia/CiudadViva/server/internal/platform/config"
	"github.com/mbuendia/CiudadViva/server/internal/platform/logger"
)

// Weekday indices. Day 1 is a Monday; day 6 and 7 of each week are the
// weekend.
const (
	daysPerWeek     = 7
	firstWeekendDay = 5 // Saturday, zero-based index
)

// TimeTickPayload is the data attached to each TimeTick event.
type TimeTickPayload struct {
	GameDay     int   `json:"game_day"`
	GameHour    int   `json:"game_hour"` // 0-23 in-game
	Weekday     int   `json:"weekday"`   // 0 = Monday
	TickNumber  int64 `json:"tick_number"`
	IsNightTime bool  `json:"is_night_time"`
	IsWeekend   bool  `json:"is_weekend"`
}

// Ticker manages the simulation heartbeat. It does not know about
// citizens or buildings, only time progression.
type Ticker struct {
	eventLog   *events.EventLog
	logger     *logger.Logger
	cfg        *config.Config
	tickNumber int64
	gameDay    int
	gameHour   int
	hourTicks  int
	stopChan   chan struct{}
}

// NewTicker creates a new simulation ticker starting at 06:00 on day 1.
func NewTicker(eventLog *events.EventLog, log *logger.Logger, cfg *config.Config) *Ticker {
	return &Ticker{
		eventLog: eventLog,
		logger:   log,
		cfg:      cfg,
		gameDay:  1,
		gameHour: 6,
		stopChan: make(chan struct{}),
	}
}

// Start begins the simulation loop. Call in a goroutine.
func (t *Ticker) Start(ctx context.Context) {
	t.logger.Info("Simulation ticker started")

	ticker := time.NewTicker(time.Duration(t.cfg.TickSeconds) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("Simulation ticker stopped by context")
			return
		case <-t.stopChan:
			t.logger.Info("Simulation ticker stopped manually")
			return
		case <-ticker.C:
			t.Tick()
		}
	}
}

// Stop gracefully stops the ticker.
func (t *Ticker) Stop() {
	close(t.stopChan)
}

// Tick processes a single simulation tick, emitting a TimeTick event.
// Exported so headless runners can drive the clock without real time.
func (t *Ticker) Tick() {
	t.tickNumber++
	t.advanceTime()

	payload := TimeTickPayload{
		GameDay:     t.gameDay,
		GameHour:    t.gameHour,
		Weekday:     t.weekday(),
		TickNumber:  t.tickNumber,
		IsNightTime: t.isNight(),
		IsWeekend:   t.weekday() >= firstWeekendDay,
	}

	t.eventLog.Append(events.CityEvent{
		ID:        events.NewID(),
		Timestamp: time.Now(),
		Type:      events.EventTypeTimeTick,
		ActorID:   "SYSTEM_CLOCK",
		Payload:   payload,
		GameDay:   t.gameDay,
	})
}

// advanceTime moves the in-game clock forward by one tick.
func (t *Ticker) advanceTime() {
	t.hourTicks++
	if t.hourTicks < t.cfg.TicksPerHour {
		return
	}
	t.hourTicks = 0
	t.gameHour++
	if t.gameHour >= 24 {
		t.gameHour = 0
		t.gameDay++
	}
}

func (t *Ticker) weekday() int {
	return (t.gameDay - 1) % daysPerWeek
}

func (t *Ticker) isNight() bool {
	begin, end := t.cfg.NightBeginsAt, t.cfg.NightEndsAt
	if begin > end {
		return t.gameHour >= begin || t.gameHour < end
	}
	return t.gameHour >= begin && t.gameHour < end
}

// SetTime allows bootstrapping commands to set the internal clock directly.
func (t *Ticker) SetTime(day, hour int, tickNumber int64) {
	t.gameDay = day
	t.gameHour = hour
	t.tickNumber = tickNumber
	t.hourTicks = 0
}

// GetCurrentTime returns the current in-game time.
func (t *Ticker) GetCurrentTime() (day int, hour int) {
	return t.gameDay, t.gameHour
}

// TickNumber returns the total number of ticks emitted so far.
func (t *Ticker) TickNumber() int64 {
	return t.tickNumber
}
