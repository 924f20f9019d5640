package db

import (
	"context"
	"fmt"
)

// schemaStatements create the PostGIS schema used by the workout and heatmap
// gateways. Every statement is idempotent.
var schemaStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS postgis`,
	`CREATE TABLE IF NOT EXISTS workouts (
		id               UUID PRIMARY KEY,
		owner_id         TEXT NOT NULL,
		name             VARCHAR(300) NOT NULL CHECK (char_length(name) >= 3),
		activity_type    VARCHAR(50) NOT NULL DEFAULT 'other' CHECK (char_length(activity_type) >= 3),
		start_date       TIMESTAMPTZ NOT NULL,
		distance_meters  BIGINT NOT NULL CHECK (distance_meters >= 0),
		duration_seconds BIGINT CHECK (duration_seconds >= 0),
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS workouts_owner_start_idx ON workouts (owner_id, start_date DESC)`,
	`CREATE TABLE IF NOT EXISTS track_points (
		workout_id      UUID NOT NULL REFERENCES workouts (id) ON DELETE CASCADE,
		sequence_number INTEGER NOT NULL CHECK (sequence_number >= 0),
		location        GEOGRAPHY(POINT, 4326) NOT NULL,
		elevation       DOUBLE PRECISION,
		recorded_at     TIMESTAMPTZ,
		PRIMARY KEY (workout_id, sequence_number)
	)`,
	`CREATE INDEX IF NOT EXISTS track_points_location_idx ON track_points USING GIST ((location::geometry))`,
}

// Migrate applies the schema. It is safe to run on every start.
func Migrate(ctx context.Context, q Querier) error {
	for i, stmt := range schemaStatements {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
