package engine

import (
	"fmt"

	"github.com/mbuendia/CiudadViva/server/internal/domain/building"
	"github.com/mbuendia/CiudadViva/server/internal/events"
	"github.com/mbuendia/CiudadViva/server/internal/platform/logger"
	"github.com/mbuendia/CiudadViva/server/internal/world"
)

// Event phase windows, in in-game hours.
const (
	eventPrepareHours = 2
	eventLingerHours  = 1
)

// cityEvent is one scheduled happening at a building.
type cityEvent struct {
	handle   uint16
	building building.ID
	startDay int
	startHr  int
	duration int
	state    building.EventFlags
}

// CityEventSystem schedules concerts, fairs and similar happenings at
// buildings and drives their phase transitions. While an event is live
// (preparing, active or ready), visitors wait it out instead of drifting
// home.
type CityEventSystem struct {
	eventLog *events.EventLog
	logger   *logger.Logger
	world    *world.World

	eventsByHandle map[uint16]*cityEvent
	nextHandle     uint16
	day            int
}

// NewCityEventSystem creates the happenings manager.
func NewCityEventSystem(eventLog *events.EventLog, log *logger.Logger, w *world.World) *CityEventSystem {
	return &CityEventSystem{
		eventLog:       eventLog,
		logger:         log,
		world:          w,
		eventsByHandle: make(map[uint16]*cityEvent),
	}
}

// ScheduleEvent books a happening at a building. Returns the event handle,
// or 0 when the building is unknown or already hosting one.
func (cs *CityEventSystem) ScheduleEvent(id building.ID, startDay, startHour, durationHours int) uint16 {
	b := cs.world.Building(id)
	if b == nil || b.EventID != 0 || durationHours <= 0 {
		return 0
	}

	cs.nextHandle++
	if cs.nextHandle == 0 {
		cs.nextHandle = 1
	}
	ev := &cityEvent{
		handle:   cs.nextHandle,
		building: id,
		startDay: startDay,
		startHr:  startHour,
		duration: durationHours,
	}
	cs.eventsByHandle[ev.handle] = ev
	b.EventID = ev.handle
	b.EventState = 0

	cs.logger.Info("Event %d scheduled at building %d for day %d %02d:00", ev.handle, id, startDay, startHour)
	cs.emitPhase(ev, "SCHEDULED")
	return ev.handle
}

// OnEventScheduled handles an observer's schedule command.
func (cs *CityEventSystem) OnEventScheduled(event events.CityEvent) {
	p, ok := event.Payload.(map[string]interface{})
	if !ok {
		return
	}
	id, _ := p["building_id"].(float64)
	day, _ := p["start_day"].(float64)
	hour, _ := p["start_hour"].(float64)
	dur, _ := p["duration_hours"].(float64)
	cs.ScheduleEvent(building.ID(id), int(day), int(hour), int(dur))
}

// OnTimeTick advances every event's phase against the city clock.
func (cs *CityEventSystem) OnTimeTick(event events.CityEvent) {
	payload, ok := event.Payload.(TimeTickPayload)
	if !ok {
		return
	}
	cs.day = payload.GameDay
	now := payload.GameDay*24 + payload.GameHour

	for handle, ev := range cs.eventsByHandle {
		b := cs.world.Building(ev.building)
		if b == nil {
			delete(cs.eventsByHandle, handle)
			continue
		}

		start := ev.startDay*24 + ev.startHr
		end := start + ev.duration

		var next building.EventFlags
		switch {
		case now < start-eventPrepareHours:
			next = 0
		case now < start:
			next = building.EventPreparing
		case now < end:
			next = building.EventActive
		case now < end+eventLingerHours:
			next = building.EventReady
		default:
			// Over; detach from the building.
			b.EventID = 0
			b.EventState = 0
			delete(cs.eventsByHandle, handle)
			cs.emitPhase(ev, "FINISHED")
			continue
		}

		if next != ev.state {
			ev.state = next
			b.EventState = next
			cs.emitPhase(ev, phaseName(next))
		}
	}
}

func (cs *CityEventSystem) emitPhase(ev *cityEvent, phase string) {
	cs.eventLog.Append(events.CityEvent{
		ID:       events.NewID(),
		Type:     events.EventTypeCityEventPhase,
		ActorID:  "cityevent-system",
		TargetID: fmt.Sprintf("building-%d", ev.building),
		Payload: map[string]interface{}{
			"event_handle": int(ev.handle),
			"phase":        phase,
		},
		GameDay: cs.day,
	})
}

func phaseName(f building.EventFlags) string {
	switch f {
	case building.EventPreparing:
		return "PREPARING"
	case building.EventActive:
		return "ACTIVE"
	case building.EventReady:
		return "READY"
	default:
		return "PENDING"
	}
}
