package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// InitSQLite initializes the local SQLite database and creates the schemas
// for the event ledger, citizen snapshots, frozen operating profiles and
// the simulation clock.
func InitSQLite(dbPath string) (*sqlx.DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	if err := createSchemas(db); err != nil {
		return nil, fmt.Errorf("failed to create schemas: %w", err)
	}

	return db, nil
}

func createSchemas(db *sqlx.DB) error {
	schemas := []string{
		`CREATE TABLE IF NOT EXISTS city_clock (
			city_id TEXT PRIMARY KEY,
			game_day INTEGER NOT NULL DEFAULT 1,
			game_hour INTEGER NOT NULL DEFAULT 6,
			tick_number INTEGER NOT NULL DEFAULT 0,
			updated_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS citizens (
			citizen_id INTEGER NOT NULL,
			city_id TEXT NOT NULL,
			name TEXT,
			flags INTEGER NOT NULL DEFAULT 0,
			location INTEGER NOT NULL DEFAULT 0,
			home_building INTEGER NOT NULL DEFAULT 0,
			work_building INTEGER NOT NULL DEFAULT 0,
			visit_building INTEGER NOT NULL DEFAULT 0,
			goods INTEGER NOT NULL DEFAULT 0,
			last_updated DATETIME NOT NULL,
			PRIMARY KEY (city_id, citizen_id)
		);`,
		`CREATE TABLE IF NOT EXISTS worktimes (
			building_id INTEGER NOT NULL,
			city_id TEXT NOT NULL,
			work_at_night BOOLEAN NOT NULL DEFAULT 0,
			work_at_weekends BOOLEAN NOT NULL DEFAULT 0,
			has_extended_work_shift BOOLEAN NOT NULL DEFAULT 0,
			has_continuous_work_shift BOOLEAN NOT NULL DEFAULT 0,
			work_shifts INTEGER NOT NULL DEFAULT 1,
			PRIMARY KEY (city_id, building_id)
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			city_id TEXT NOT NULL,
			timestamp DATETIME NOT NULL,
			event_type TEXT NOT NULL,
			actor_id TEXT NOT NULL,
			target_id TEXT NOT NULL,
			payload TEXT NOT NULL,
			game_day INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_city_id ON events(city_id);`,
		`CREATE INDEX IF NOT EXISTS idx_events_actor_id ON events(actor_id);`,
		`CREATE INDEX IF NOT EXISTS idx_events_game_day ON events(game_day);`,
		`CREATE INDEX IF NOT EXISTS idx_events_event_type ON events(event_type);`,
	}

	for _, query := range schemas {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}
