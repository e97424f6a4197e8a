package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-admin-api/pkg/database"
)

// schemaStatements create the timetable tables when missing. Every statement is idempotent.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS terms (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(64) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS terms_name_key ON terms (LOWER(name))`,
	`CREATE TABLE IF NOT EXISTS academic_calendars (
		id BIGSERIAL PRIMARY KEY,
		term_id BIGINT NOT NULL REFERENCES terms(id),
		school_year VARCHAR(9) NOT NULL,
		start_date DATE NOT NULL,
		end_date DATE NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT academic_calendars_dates_check CHECK (start_date < end_date),
		CONSTRAINT academic_calendars_term_year_key UNIQUE (term_id, school_year),
		CONSTRAINT academic_calendars_dates_key UNIQUE (start_date, end_date)
	)`,
	`CREATE TABLE IF NOT EXISTS rooms (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(64) NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS lecturers (
		id BIGSERIAL PRIMARY KEY,
		title VARCHAR(32) NOT NULL DEFAULT '',
		fname VARCHAR(64) NOT NULL,
		lname VARCHAR(64) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS groups (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(64) NOT NULL,
		prog_code VARCHAR(16) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS program_subjects (
		id BIGSERIAL PRIMARY KEY,
		prog_subj_code VARCHAR(32) NOT NULL UNIQUE,
		prog_code VARCHAR(16) NOT NULL,
		subj_id BIGINT NOT NULL,
		year_level SMALLINT NOT NULL,
		term_id BIGINT NOT NULL REFERENCES terms(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE SEQUENCE IF NOT EXISTS lecturer_schedule_batch_no_seq`,
	`CREATE TABLE IF NOT EXISTS lecturer_schedules (
		id BIGSERIAL PRIMARY KEY,
		lecturer_id BIGINT NOT NULL REFERENCES lecturers(id),
		prog_subj_id BIGINT NOT NULL REFERENCES program_subjects(id),
		room_code VARCHAR(64) NOT NULL REFERENCES rooms(name) ON UPDATE CASCADE,
		day VARCHAR(9) NOT NULL,
		start_time TIME NOT NULL,
		end_time TIME NOT NULL,
		class_id BIGINT NOT NULL REFERENCES groups(id),
		sy_term_id BIGINT NOT NULL REFERENCES academic_calendars(id),
		batch_no BIGINT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT lecturer_schedules_time_check CHECK (start_time < end_time),
		CONSTRAINT lecturer_schedules_day_check CHECK (day IN ('Monday','Tuesday','Wednesday','Thursday','Friday','Saturday','Sunday'))
	)`,
	`CREATE INDEX IF NOT EXISTS lecturer_schedules_room_day_idx ON lecturer_schedules (room_code, day)`,
	`CREATE INDEX IF NOT EXISTS lecturer_schedules_lecturer_day_idx ON lecturer_schedules (lecturer_id, day)`,
	`CREATE INDEX IF NOT EXISTS lecturer_schedules_class_day_idx ON lecturer_schedules (class_id, day)`,
	`CREATE INDEX IF NOT EXISTS lecturer_schedules_batch_idx ON lecturer_schedules (batch_no) WHERE batch_no IS NOT NULL`,
}

// EnsureSchema creates missing tables, indexes and the batch sequence in one transaction.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	return database.WithTx(ctx, db, nil, func(tx *sqlx.Tx) error {
		for i, stmt := range schemaStatements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("schema statement %d: %w", i+1, err)
			}
		}
		return nil
	})
}
