package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// SQLiteEventRepository implements EventRepository for SQLite.
type SQLiteEventRepository struct {
	db *sqlx.DB
}

func NewSQLiteEventRepository(db *sqlx.DB) *SQLiteEventRepository {
	return &SQLiteEventRepository{db: db}
}

func (r *SQLiteEventRepository) Append(ctx context.Context, event CityEventRecord) error {
	payloadBytes, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	query := `
		INSERT INTO events (id, city_id, timestamp, event_type, actor_id, target_id, payload, game_day)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		event.ID, event.CityID, event.Timestamp, event.EventType, event.ActorID,
		event.TargetID, string(payloadBytes), event.GameDay,
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

func (r *SQLiteEventRepository) getMany(ctx context.Context, query string, args ...interface{}) ([]CityEventRecord, error) {
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []CityEventRecord
	for rows.Next() {
		var e CityEventRecord
		var payloadStr string
		err := rows.Scan(
			&e.ID, &e.CityID, &e.Timestamp, &e.EventType, &e.ActorID,
			&e.TargetID, &payloadStr, &e.GameDay,
		)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(payloadStr), &e.Payload); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

const sqliteEventColumns = `id, city_id, timestamp, event_type, actor_id, target_id, payload, game_day`

func (r *SQLiteEventRepository) GetByCityID(ctx context.Context, cityID string) ([]CityEventRecord, error) {
	query := `SELECT ` + sqliteEventColumns + ` FROM events WHERE city_id = ? ORDER BY timestamp ASC`
	return r.getMany(ctx, query, cityID)
}

func (r *SQLiteEventRepository) GetByActorID(ctx context.Context, cityID, actorID string) ([]CityEventRecord, error) {
	query := `SELECT ` + sqliteEventColumns + ` FROM events WHERE city_id = ? AND actor_id = ? ORDER BY timestamp ASC`
	return r.getMany(ctx, query, cityID, actorID)
}

func (r *SQLiteEventRepository) GetByGameDay(ctx context.Context, cityID string, day int) ([]CityEventRecord, error) {
	query := `SELECT ` + sqliteEventColumns + ` FROM events WHERE city_id = ? AND game_day = ? ORDER BY timestamp ASC`
	return r.getMany(ctx, query, cityID, day)
}

func (r *SQLiteEventRepository) GetByEventType(ctx context.Context, cityID string, eventType string) ([]CityEventRecord, error) {
	query := `SELECT ` + sqliteEventColumns + ` FROM events WHERE city_id = ? AND event_type = ? ORDER BY timestamp ASC`
	return r.getMany(ctx, query, cityID, eventType)
}

var _ EventRepository = (*SQLiteEventRepository)(nil)

// ---------------------------------------------------------
// SQLiteCitizenRepository
// ---------------------------------------------------------

type SQLiteCitizenRepository struct {
	db *sqlx.DB
}

func NewSQLiteCitizenRepository(db *sqlx.DB) *SQLiteCitizenRepository {
	return &SQLiteCitizenRepository{db: db}
}

func (r *SQLiteCitizenRepository) Upsert(ctx context.Context, snapshot CitizenSnapshot) error {
	snapshot.LastUpdated = time.Now()
	query := `
		INSERT INTO citizens (citizen_id, city_id, name, flags, location, home_building, work_building, visit_building, goods, last_updated)
		VALUES (:citizen_id, :city_id, :name, :flags, :location, :home_building, :work_building, :visit_building, :goods, :last_updated)
		ON CONFLICT(city_id, citizen_id) DO UPDATE SET
			name=excluded.name,
			flags=excluded.flags,
			location=excluded.location,
			home_building=excluded.home_building,
			work_building=excluded.work_building,
			visit_building=excluded.visit_building,
			goods=excluded.goods,
			last_updated=excluded.last_updated
	`
	_, err := r.db.NamedExecContext(ctx, query, snapshot)
	return err
}

func (r *SQLiteCitizenRepository) Delete(ctx context.Context, cityID string, citizenID uint32) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM citizens WHERE city_id = ? AND citizen_id = ?`, cityID, citizenID)
	return err
}

func (r *SQLiteCitizenRepository) GetByCityID(ctx context.Context, cityID string) ([]CitizenSnapshot, error) {
	var snaps []CitizenSnapshot
	err := r.db.SelectContext(ctx, &snaps,
		`SELECT citizen_id, city_id, name, flags, location, home_building, work_building, visit_building, goods, last_updated
		 FROM citizens WHERE city_id = ? ORDER BY citizen_id ASC`, cityID)
	return snaps, err
}

var _ CitizenRepository = (*SQLiteCitizenRepository)(nil)

// ---------------------------------------------------------
// SQLiteWorkTimeRepository
// ---------------------------------------------------------

type SQLiteWorkTimeRepository struct {
	db *sqlx.DB
}

func NewSQLiteWorkTimeRepository(db *sqlx.DB) *SQLiteWorkTimeRepository {
	return &SQLiteWorkTimeRepository{db: db}
}

func (r *SQLiteWorkTimeRepository) Upsert(ctx context.Context, record WorkTimeRecord) error {
	query := `
		INSERT INTO worktimes (building_id, city_id, work_at_night, work_at_weekends, has_extended_work_shift, has_continuous_work_shift, work_shifts)
		VALUES (:building_id, :city_id, :work_at_night, :work_at_weekends, :has_extended_work_shift, :has_continuous_work_shift, :work_shifts)
		ON CONFLICT(city_id, building_id) DO UPDATE SET
			work_at_night=excluded.work_at_night,
			work_at_weekends=excluded.work_at_weekends,
			has_extended_work_shift=excluded.has_extended_work_shift,
			has_continuous_work_shift=excluded.has_continuous_work_shift,
			work_shifts=excluded.work_shifts
	`
	_, err := r.db.NamedExecContext(ctx, query, record)
	return err
}

func (r *SQLiteWorkTimeRepository) Delete(ctx context.Context, cityID string, buildingID uint16) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM worktimes WHERE city_id = ? AND building_id = ?`, cityID, buildingID)
	return err
}

func (r *SQLiteWorkTimeRepository) GetByCityID(ctx context.Context, cityID string) ([]WorkTimeRecord, error) {
	var records []WorkTimeRecord
	err := r.db.SelectContext(ctx, &records,
		`SELECT building_id, city_id, work_at_night, work_at_weekends, has_extended_work_shift, has_continuous_work_shift, work_shifts
		 FROM worktimes WHERE city_id = ? ORDER BY building_id ASC`, cityID)
	return records, err
}

var _ WorkTimeRepository = (*SQLiteWorkTimeRepository)(nil)

// ---------------------------------------------------------
// SQLiteClockRepository
// ---------------------------------------------------------

type SQLiteClockRepository struct {
	db *sqlx.DB
}

func NewSQLiteClockRepository(db *sqlx.DB) *SQLiteClockRepository {
	return &SQLiteClockRepository{db: db}
}

func (r *SQLiteClockRepository) Save(ctx context.Context, state ClockState) error {
	state.UpdatedAt = time.Now()
	query := `
		INSERT INTO city_clock (city_id, game_day, game_hour, tick_number, updated_at)
		VALUES (:city_id, :game_day, :game_hour, :tick_number, :updated_at)
		ON CONFLICT(city_id) DO UPDATE SET
			game_day=excluded.game_day,
			game_hour=excluded.game_hour,
			tick_number=excluded.tick_number,
			updated_at=excluded.updated_at
	`
	_, err := r.db.NamedExecContext(ctx, query, state)
	return err
}

func (r *SQLiteClockRepository) Load(ctx context.Context, cityID string) (*ClockState, error) {
	var state ClockState
	err := r.db.GetContext(ctx, &state,
		`SELECT city_id, game_day, game_hour, tick_number, updated_at FROM city_clock WHERE city_id = ?`, cityID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &state, nil
}

var _ ClockRepository = (*SQLiteClockRepository)(nil)
