// Package storage provides the persistence layer for the city server.
// This package implements the repository pattern to keep the domain pure.
package storage

import (
	"context"
	"time"
)

// CityEventRecord mirrors the domain event structure for persistence.
// The domain package should NOT import this; use interfaces instead.
type CityEventRecord struct {
	ID        string                 `json:"id" db:"id"`
	CityID    string                 `json:"city_id" db:"city_id"`
	Timestamp time.Time              `json:"timestamp" db:"timestamp"`
	EventType string                 `json:"event_type" db:"event_type"`
	ActorID   string                 `json:"actor_id" db:"actor_id"`
	TargetID  string                 `json:"target_id" db:"target_id"`
	Payload   map[string]interface{} `json:"payload" db:"-"`
	GameDay   int                    `json:"game_day" db:"game_day"`
}

// EventRepository defines the interface for event persistence.
type EventRepository interface {
	// Append adds a new event to the immutable ledger.
	Append(ctx context.Context, event CityEventRecord) error

	// GetByCityID retrieves all events for a city (for replay).
	GetByCityID(ctx context.Context, cityID string) ([]CityEventRecord, error)

	// GetByActorID retrieves all events caused by an actor.
	GetByActorID(ctx context.Context, cityID, actorID string) ([]CityEventRecord, error)

	// GetByGameDay retrieves all events from a specific in-game day.
	GetByGameDay(ctx context.Context, cityID string, day int) ([]CityEventRecord, error)

	// GetByEventType retrieves all events of a specific type.
	GetByEventType(ctx context.Context, cityID string, eventType string) ([]CityEventRecord, error)
}

// CitizenSnapshot is the persisted state of one citizen for quick reads
// and reconstruction at load.
type CitizenSnapshot struct {
	CitizenID     uint32    `json:"citizen_id" db:"citizen_id"`
	CityID        string    `json:"city_id" db:"city_id"`
	Name          string    `json:"name" db:"name"`
	Flags         uint16    `json:"flags" db:"flags"`
	Location      uint8     `json:"location" db:"location"`
	HomeBuilding  uint16    `json:"home_building" db:"home_building"`
	WorkBuilding  uint16    `json:"work_building" db:"work_building"`
	VisitBuilding uint16    `json:"visit_building" db:"visit_building"`
	Goods         int       `json:"goods" db:"goods"`
	LastUpdated   time.Time `json:"last_updated" db:"last_updated"`
}

// CitizenRepository persists citizen snapshots.
type CitizenRepository interface {
	Upsert(ctx context.Context, snapshot CitizenSnapshot) error
	Delete(ctx context.Context, cityID string, citizenID uint32) error
	GetByCityID(ctx context.Context, cityID string) ([]CitizenSnapshot, error)
}

// WorkTimeRecord is a persisted operating profile. Profiles are frozen at
// classification, so persisting them keeps draws stable across restarts.
type WorkTimeRecord struct {
	BuildingID             uint16 `json:"building_id" db:"building_id"`
	CityID                 string `json:"city_id" db:"city_id"`
	WorkAtNight            bool   `json:"work_at_night" db:"work_at_night"`
	WorkAtWeekends         bool   `json:"work_at_weekends" db:"work_at_weekends"`
	HasExtendedWorkShift   bool   `json:"has_extended_work_shift" db:"has_extended_work_shift"`
	HasContinuousWorkShift bool   `json:"has_continuous_work_shift" db:"has_continuous_work_shift"`
	WorkShifts             int    `json:"work_shifts" db:"work_shifts"`
}

// WorkTimeRepository persists frozen operating profiles.
type WorkTimeRepository interface {
	Upsert(ctx context.Context, record WorkTimeRecord) error
	Delete(ctx context.Context, cityID string, buildingID uint16) error
	GetByCityID(ctx context.Context, cityID string) ([]WorkTimeRecord, error)
}

// ClockState is the persisted simulation clock.
type ClockState struct {
	CityID     string    `json:"city_id" db:"city_id"`
	GameDay    int       `json:"game_day" db:"game_day"`
	GameHour   int       `json:"game_hour" db:"game_hour"`
	TickNumber int64     `json:"tick_number" db:"tick_number"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// ClockRepository persists the simulation clock.
type ClockRepository interface {
	Save(ctx context.Context, state ClockState) error
	Load(ctx context.Context, cityID string) (*ClockState, error)
}
