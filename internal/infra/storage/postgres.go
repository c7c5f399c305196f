// PostgreSQL implementation of EventRepository, used as the external
// long-term event archive when a DSN is configured.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// PostgresEventRepository implements EventRepository using PostgreSQL.
type PostgresEventRepository struct {
	db *sqlx.DB
}

// NewPostgresEventRepository creates a new PostgreSQL event repository.
func NewPostgresEventRepository(db *sqlx.DB) *PostgresEventRepository {
	return &PostgresEventRepository{db: db}
}

// Append inserts a new event into the immutable ledger.
func (r *PostgresEventRepository) Append(ctx context.Context, event CityEventRecord) error {
	payloadJSON, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	query := `
		INSERT INTO event_log (id, city_id, timestamp, event_type, actor_id, target_id, payload, game_day)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = r.db.ExecContext(ctx, query,
		event.ID,
		event.CityID,
		event.Timestamp,
		event.EventType,
		event.ActorID,
		event.TargetID,
		payloadJSON,
		event.GameDay,
	)

	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}

	return nil
}

// GetByCityID retrieves all events for a city (the full replay).
func (r *PostgresEventRepository) GetByCityID(ctx context.Context, cityID string) ([]CityEventRecord, error) {
	query := `
		SELECT id, city_id, timestamp, event_type, actor_id, target_id, payload, game_day
		FROM event_log
		WHERE city_id = $1
		ORDER BY timestamp ASC
	`

	return r.queryEvents(ctx, query, cityID)
}

// GetByActorID retrieves all events caused by an actor.
func (r *PostgresEventRepository) GetByActorID(ctx context.Context, cityID, actorID string) ([]CityEventRecord, error) {
	query := `
		SELECT id, city_id, timestamp, event_type, actor_id, target_id, payload, game_day
		FROM event_log
		WHERE city_id = $1 AND actor_id = $2
		ORDER BY timestamp ASC
	`

	return r.queryEvents(ctx, query, cityID, actorID)
}

// GetByGameDay retrieves all events from a specific in-game day.
func (r *PostgresEventRepository) GetByGameDay(ctx context.Context, cityID string, day int) ([]CityEventRecord, error) {
	query := `
		SELECT id, city_id, timestamp, event_type, actor_id, target_id, payload, game_day
		FROM event_log
		WHERE city_id = $1 AND game_day = $2
		ORDER BY timestamp ASC
	`

	return r.queryEvents(ctx, query, cityID, day)
}

// GetByEventType retrieves all events of a specific type.
func (r *PostgresEventRepository) GetByEventType(ctx context.Context, cityID string, eventType string) ([]CityEventRecord, error) {
	query := `
		SELECT id, city_id, timestamp, event_type, actor_id, target_id, payload, game_day
		FROM event_log
		WHERE city_id = $1 AND event_type = $2
		ORDER BY timestamp ASC
	`

	return r.queryEvents(ctx, query, cityID, eventType)
}

// queryEvents is a helper to execute queries and scan results.
func (r *PostgresEventRepository) queryEvents(ctx context.Context, query string, args ...interface{}) ([]CityEventRecord, error) {
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []CityEventRecord
	for rows.Next() {
		var e CityEventRecord
		var payloadJSON []byte
		var targetID sql.NullString

		err := rows.Scan(
			&e.ID,
			&e.CityID,
			&e.Timestamp,
			&e.EventType,
			&e.ActorID,
			&targetID,
			&payloadJSON,
			&e.GameDay,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}

		if targetID.Valid {
			e.TargetID = targetID.String
		}

		if err := json.Unmarshal(payloadJSON, &e.Payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
		}

		events = append(events, e)
	}

	return events, nil
}

// Ensure PostgresEventRepository implements EventRepository
var _ EventRepository = (*PostgresEventRepository)(nil)
