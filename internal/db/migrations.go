package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`CREATE TABLE IF NOT EXISTS plates (
		id              BIGSERIAL PRIMARY KEY,
		number          TEXT NOT NULL,
		normalized      TEXT NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_plates_normalized ON plates(normalized);`,
	`CREATE TABLE IF NOT EXISTS recognition_events (
		id               BIGSERIAL PRIMARY KEY,
		plate_id         BIGINT REFERENCES plates(id),
		raw_text         TEXT NOT NULL,
		normalized_plate TEXT NOT NULL,
		formatted_plate  TEXT NOT NULL,
		vehicle_class    TEXT,
		confidence       NUMERIC(5,2),
		source           TEXT NOT NULL,
		event_time       TIMESTAMPTZ NOT NULL,
		raw_payload      JSONB,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_recognition_events_plate_id ON recognition_events(plate_id);`,
	`CREATE INDEX IF NOT EXISTS idx_recognition_events_event_time ON recognition_events(event_time);`,
	`CREATE INDEX IF NOT EXISTS idx_recognition_events_normalized ON recognition_events(normalized_plate);`,
}

func RunMigrations(database *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := database.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration statement %d failed: %w", i, err)
		}
	}
	return nil
}
