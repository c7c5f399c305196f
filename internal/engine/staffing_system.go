package engine

import (
	"github.com/mbuendia/CiudadViva/server/internal/domain/building"
	"github.com/mbuendia/CiudadViva/server/internal/events"
	"github.com/mbuendia/CiudadViva/server/internal/platform/logger"
	"github.com/mbuendia/CiudadViva/server/internal/schedule"
	"github.com/mbuendia/CiudadViva/server/internal/world"
)

// StaffingSystem derives which buildings are open each hour from their
// cached operating profiles, flipping the Active flag and publishing an
// hourly staffing report.
type StaffingSystem struct {
	eventLog  *events.EventLog
	logger    *logger.Logger
	world     *world.World
	schedules *schedule.Manager

	lastHour int
	day      int
}

// NewStaffingSystem creates the staffing manager.
func NewStaffingSystem(eventLog *events.EventLog, log *logger.Logger, w *world.World, m *schedule.Manager) *StaffingSystem {
	return &StaffingSystem{
		eventLog:  eventLog,
		logger:    log,
		world:     w,
		schedules: m,
		lastHour:  -1,
	}
}

// OnTimeTick re-evaluates opening hours once per in-game hour. Querying
// the schedule manager here is what classifies newly placed buildings.
func (ss *StaffingSystem) OnTimeTick(event events.CityEvent) {
	payload, ok := event.Payload.(TimeTickPayload)
	if !ok {
		return
	}
	ss.day = payload.GameDay
	if payload.GameHour == ss.lastHour {
		return
	}
	ss.lastHour = payload.GameHour

	open, closed := 0, 0
	ss.world.ForEachBuilding(func(b *building.Building) {
		if !schedule.Eligible(b) {
			// Dwellings are always "open".
			b.SetFlag(building.FlagActive, true)
			return
		}

		wt := ss.schedules.Get(b)
		onDuty := schedule.OnDutyShifts(wt, payload.GameHour, payload.IsWeekend)
		if onDuty > 0 {
			b.SetFlag(building.FlagActive, true)
			open++
		} else {
			b.SetFlag(building.FlagActive, false)
			closed++
		}
	})

	ss.eventLog.Append(events.CityEvent{
		ID:      events.NewID(),
		Type:    events.EventTypeStaffingReport,
		ActorID: "staffing-system",
		Payload: map[string]interface{}{
			"hour":    payload.GameHour,
			"weekend": payload.IsWeekend,
			"open":    open,
			"closed":  closed,
		},
		GameDay: ss.day,
	})
}
