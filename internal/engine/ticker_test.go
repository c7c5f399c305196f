package engine

import (
	"testing"

	"github.com/mbuendia/CiudadViva/server/internal/events"
	"github.com/mbuendia/CiudadViva/server/internal/platform/config"
	"github.com/mbuendia/CiudadViva/server/internal/platform/logger"
)

func newTestTicker(ticksPerHour int) (*Ticker, *events.EventLog) {
	cfg := config.Default()
	cfg.TicksPerHour = ticksPerHour
	el := events.NewEventLog(nil)
	return NewTicker(el, logger.NewLogger(), cfg), el
}

func TestTickerAdvancesHours(t *testing.T) {
	ticker, el := newTestTicker(1)

	for i := 0; i < 3; i++ {
		ticker.Tick()
	}

	day, hour := ticker.GetCurrentTime()
	if day != 1 || hour != 9 {
		t.Errorf("after 3 hourly ticks: day %d hour %d, want day 1 hour 9", day, hour)
	}
	if got := len(el.GetByType(events.EventTypeTimeTick)); got != 3 {
		t.Errorf("expected 3 tick events, got %d", got)
	}
}

func TestTickerRollsOverMidnight(t *testing.T) {
	ticker, _ := newTestTicker(1)
	ticker.SetTime(1, 23, 0)

	ticker.Tick()

	day, hour := ticker.GetCurrentTime()
	if day != 2 || hour != 0 {
		t.Errorf("midnight rollover: day %d hour %d, want day 2 hour 0", day, hour)
	}
}

func TestTickerSubdividesHours(t *testing.T) {
	ticker, _ := newTestTicker(4)

	for i := 0; i < 3; i++ {
		ticker.Tick()
	}
	if _, hour := ticker.GetCurrentTime(); hour != 6 {
		t.Errorf("hour advanced early: got %d, want 6", hour)
	}

	ticker.Tick()
	if _, hour := ticker.GetCurrentTime(); hour != 7 {
		t.Errorf("hour should advance on the 4th tick: got %d, want 7", hour)
	}
}

func TestTickerPayloadFlags(t *testing.T) {
	ticker, el := newTestTicker(1)

	// 23:00 on day 6, a Saturday night.
	ticker.SetTime(6, 22, 0)
	ticker.Tick()

	ticks := el.GetByType(events.EventTypeTimeTick)
	if len(ticks) != 1 {
		t.Fatalf("expected 1 tick event, got %d", len(ticks))
	}
	payload, ok := ticks[0].Payload.(TimeTickPayload)
	if !ok {
		t.Fatalf("unexpected payload type %T", ticks[0].Payload)
	}

	if !payload.IsNightTime {
		t.Error("23:00 should be night time")
	}
	if !payload.IsWeekend {
		t.Error("day 6 should be a weekend")
	}
	if payload.Weekday != 5 {
		t.Errorf("day 6 weekday index: got %d, want 5", payload.Weekday)
	}
}

func TestTickerWeekdayCycle(t *testing.T) {
	ticker, el := newTestTicker(1)

	// Day 8 is a Monday again.
	ticker.SetTime(8, 10, 0)
	ticker.Tick()

	ticks := el.GetByType(events.EventTypeTimeTick)
	payload := ticks[len(ticks)-1].Payload.(TimeTickPayload)
	if payload.Weekday != 0 {
		t.Errorf("day 8 weekday index: got %d, want 0", payload.Weekday)
	}
	if payload.IsWeekend {
		t.Error("day 8 is a weekday")
	}
	if payload.IsNightTime {
		t.Error("11:00 is not night time")
	}
}
