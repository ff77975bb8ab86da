package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS patients (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		name          TEXT NOT NULL,
		phone         TEXT NOT NULL DEFAULT '',
		photo         TEXT NOT NULL DEFAULT '',
		gender        TEXT NOT NULL DEFAULT '',
		blood_group   TEXT NOT NULL DEFAULT '',
		role          TEXT NOT NULL DEFAULT 'patient',
		created_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS doctors (
		id             TEXT PRIMARY KEY,
		email          TEXT NOT NULL UNIQUE,
		password_hash  TEXT NOT NULL,
		name           TEXT NOT NULL,
		phone          TEXT NOT NULL DEFAULT '',
		photo          TEXT NOT NULL DEFAULT '',
		gender         TEXT NOT NULL DEFAULT '',
		ticket_price   DOUBLE PRECISION NOT NULL DEFAULT 500 CHECK (ticket_price >= 0),
		specialization TEXT NOT NULL DEFAULT '',
		qualifications JSONB NOT NULL DEFAULT '[]',
		experiences    JSONB NOT NULL DEFAULT '[]',
		bio            TEXT NOT NULL DEFAULT '',
		about          TEXT NOT NULL DEFAULT '',
		time_slots     JSONB NOT NULL DEFAULT '[]',
		reviews        JSONB NOT NULL DEFAULT '[]',
		average_rating DOUBLE PRECISION NOT NULL DEFAULT 0,
		total_rating   INTEGER NOT NULL DEFAULT 0,
		is_approved    TEXT NOT NULL DEFAULT 'pending',
		created_at     TIMESTAMPTZ NOT NULL,
		updated_at     TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id               TEXT PRIMARY KEY,
		doctor_id        TEXT NOT NULL,
		patient_id       TEXT NOT NULL,
		ticket_price     DOUBLE PRECISION NOT NULL,
		appointment_date TIMESTAMPTZ NOT NULL,
		status           TEXT NOT NULL DEFAULT 'pending',
		is_paid          BOOLEAN NOT NULL DEFAULT FALSE,
		session          TEXT NOT NULL DEFAULT '',
		created_at       TIMESTAMPTZ NOT NULL,
		updated_at       TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_patient ON bookings (patient_id, appointment_date)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_doctor ON bookings (doctor_id, appointment_date)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_session ON bookings (session) WHERE session <> ''`,
}

// Migrate creates the schema in a single transaction. It is idempotent.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	base := NewBaseRepository(db)
	return base.WithTx(ctx, func(tx *sqlx.Tx) error {
		for i, stmt := range schema {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to apply schema statement %d: %w", i, err)
			}
		}
		return nil
	})
}
