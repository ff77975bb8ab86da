package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/medibook-api/internal/repository"
)

type patientRepository struct {
	db *sqlx.DB
}

type doctorRepository struct {
	db *sqlx.DB
}

type bookingRepository struct {
	db *sqlx.DB
}

func NewPatientRepository(db *sqlx.DB) repository.PatientRepository {
	return &patientRepository{db: db}
}

func NewDoctorRepository(db *sqlx.DB) repository.DoctorRepository {
	return &doctorRepository{db: db}
}

func NewBookingRepository(db *sqlx.DB) repository.BookingRepository {
	return &bookingRepository{db: db}
}

// NewStore wires the repositories over one connection pool.
func NewStore(db *sqlx.DB) *repository.Store {
	return &repository.Store{
		Patients: NewPatientRepository(db),
		Doctors:  NewDoctorRepository(db),
		Bookings: NewBookingRepository(db),
		Health:   pinger{db: db},
		Close:    func(context.Context) error { return db.Close() },
	}
}

type pinger struct {
	db *sqlx.DB
}

func (p pinger) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}
