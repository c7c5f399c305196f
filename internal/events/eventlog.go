// Package events provides the event sourcing system for the city.
// Every state change the simulation applies is recorded here as an
// immutable event, from which the city can be reconstructed.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType defines the category of a city event.
type EventType string

const (
	EventTypeTimeTick         EventType = "TIME_TICK"
	EventTypeCitizenSpawned   EventType = "CITIZEN_SPAWNED"
	EventTypeCitizenReleased  EventType = "CITIZEN_RELEASED"
	EventTypeCitizenSick      EventType = "CITIZEN_SICK"
	EventTypeCitizenRecovered EventType = "CITIZEN_RECOVERED"
	EventTypeCitizenDied      EventType = "CITIZEN_DIED"
	EventTypeCitizenArrested  EventType = "CITIZEN_ARRESTED"
	EventTypeCitizenCollapsed EventType = "CITIZEN_COLLAPSED"
	EventTypeVisitEnded       EventType = "VISIT_ENDED"
	EventTypeMoveStarted      EventType = "MOVE_STARTED"
	EventTypeMoveCompleted    EventType = "MOVE_COMPLETED"
	EventTypeEvacuationStart  EventType = "EVACUATION_STARTED"
	EventTypeEvacuationEnd    EventType = "EVACUATION_ENDED"
	EventTypeGoodsPurchased   EventType = "GOODS_PURCHASED"
	EventTypeGoodsRestocked   EventType = "GOODS_RESTOCKED"
	EventTypeCityEventPhase   EventType = "CITY_EVENT_PHASE"
	EventTypeEventScheduled   EventType = "EVENT_SCHEDULED"
	EventTypeScheduleAssigned EventType = "SCHEDULE_ASSIGNED"
	EventTypeScheduleRemoved  EventType = "SCHEDULE_REMOVED"
	EventTypePolicyChanged    EventType = "POLICY_CHANGED"
	EventTypeStaffingReport   EventType = "STAFFING_REPORT"
	EventTypeDrillTriggered   EventType = "DRILL_TRIGGERED"
	EventTypeBuildingAdded    EventType = "BUILDING_ADDED"
	EventTypeBuildingRemoved  EventType = "BUILDING_REMOVED"
)

// CityEvent represents an immutable record of a change in the city.
type CityEvent struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	Type      EventType   `json:"type"`
	ActorID   string      `json:"actor_id"`  // Who or what caused the change
	TargetID  string      `json:"target_id"` // Who was affected (optional)
	Payload   interface{} `json:"payload"`   // Event-specific data
	GameDay   int         `json:"game_day"`
}

// EventPersister defines how an event is durably stored.
type EventPersister interface {
	Append(event CityEvent) error
}

// EventLog is the in-memory append-only log of city events, optionally
// written through to persistent storage.
type EventLog struct {
	mu        sync.RWMutex
	events    []CityEvent
	persister EventPersister
}

// NewEventLog creates a new event log with an optional persister.
func NewEventLog(persister EventPersister) *EventLog {
	return &EventLog{
		events:    make([]CityEvent, 0),
		persister: persister,
	}
}

// Append adds a new event to the log. Events are immutable once appended.
func (el *EventLog) Append(event CityEvent) {
	el.mu.Lock()
	defer el.mu.Unlock()
	el.events = append(el.events, event)

	if el.persister != nil {
		// Write through to persistent storage. Ordering within the
		// database is by timestamp, so async writes are acceptable.
		go func(e CityEvent) {
			_ = el.persister.Append(e)
		}(event)
	}
}

// GetByActor returns all events caused by a specific actor.
func (el *EventLog) GetByActor(actorID string) []CityEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []CityEvent
	for _, e := range el.events {
		if e.ActorID == actorID {
			result = append(result, e)
		}
	}
	return result
}

// GetByDay returns all events that occurred on a specific game day.
func (el *EventLog) GetByDay(day int) []CityEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []CityEvent
	for _, e := range el.events {
		if e.GameDay == day {
			result = append(result, e)
		}
	}
	return result
}

// GetByType returns all events of a given type.
func (el *EventLog) GetByType(t EventType) []CityEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []CityEvent
	for _, e := range el.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// Replay returns the full history of events for state reconstruction.
func (el *EventLog) Replay() []CityEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()
	out := make([]CityEvent, len(el.events))
	copy(out, el.events)
	return out
}

// Len returns the number of events in the log.
func (el *EventLog) Len() int {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return len(el.events)
}

// NewID creates a unique event identifier.
func NewID() string {
	return uuid.NewString()
}
