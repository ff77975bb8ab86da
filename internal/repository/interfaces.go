package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jwalitptl/medibook-api/internal/model"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrConflict means a conditional write lost to a concurrent update.
	ErrConflict = errors.New("concurrent modification")
)

// All repository interfaces in one file
type (
	// PatientRepository stores patient and admin accounts. Emails are
	// stored normalized; GetByEmail expects a normalized email.
	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id string) (*model.Patient, error)
		GetByEmail(ctx context.Context, email string) (*model.Patient, error)
		GetMany(ctx context.Context, ids []string) (map[string]*model.Patient, error)
		Update(ctx context.Context, patient *model.Patient) error
		Delete(ctx context.Context, id string) error
		List(ctx context.Context) ([]*model.Patient, error)
		Count(ctx context.Context) (int64, error)
	}

	DoctorRepository interface {
		Create(ctx context.Context, doctor *model.Doctor) error
		Get(ctx context.Context, id string) (*model.Doctor, error)
		GetByEmail(ctx context.Context, email string) (*model.Doctor, error)
		GetMany(ctx context.Context, ids []string) (map[string]*model.Doctor, error)
		// Update writes profile fields only; reviews and ratings are
		// written through UpdateReviews.
		Update(ctx context.Context, doctor *model.Doctor) error
		// UpdateReviews replaces the review list and aggregate rating only
		// if the stored totalRating still equals expectedTotal. It returns
		// ErrConflict otherwise.
		UpdateReviews(ctx context.Context, doctor *model.Doctor, expectedTotal int) error
		SetApproval(ctx context.Context, id string, status model.ApprovalStatus) error
		Delete(ctx context.Context, id string) error
		List(ctx context.Context, filter model.DoctorFilter) ([]*model.Doctor, error)
		Count(ctx context.Context) (int64, error)
	}

	BookingRepository interface {
		Create(ctx context.Context, booking *model.Booking) error
		Get(ctx context.Context, id string) (*model.Booking, error)
		UpdateStatus(ctx context.Context, id string, status model.BookingStatus) (*model.Booking, error)
		// MarkPaidBySession flags the booking created for a payment
		// session as paid.
		MarkPaidBySession(ctx context.Context, session string) (*model.Booking, error)
		// ListByPatient and ListByDoctor return bookings ascending by
		// appointment date.
		ListByPatient(ctx context.Context, patientID string) ([]*model.Booking, error)
		ListByDoctor(ctx context.Context, doctorID string) ([]*model.Booking, error)
		// ListAll returns bookings descending by appointment date.
		ListAll(ctx context.Context) ([]*model.Booking, error)
		DeleteByPatient(ctx context.Context, patientID string) (int64, error)
		DeleteByDoctor(ctx context.Context, doctorID string) (int64, error)
		Count(ctx context.Context) (int64, error)
		CountByStatus(ctx context.Context) (map[model.BookingStatus]int64, error)
	}

	// SessionStore records revoked token subjects.
	SessionStore interface {
		Revoke(ctx context.Context, subjectID string, ttl time.Duration) error
		IsRevoked(ctx context.Context, subjectID string) (bool, error)
	}

	// Pinger reports store health for readiness checks.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)

// Store groups the repositories of one storage backend.
type Store struct {
	Patients PatientRepository
	Doctors  DoctorRepository
	Bookings BookingRepository
	Health   Pinger
	Close    func(ctx context.Context) error
}
