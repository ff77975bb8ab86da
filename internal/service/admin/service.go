package admin

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/medibook-api/internal/model"
	"github.com/jwalitptl/medibook-api/internal/repository"
	apperrors "github.com/jwalitptl/medibook-api/pkg/errors"
	"github.com/jwalitptl/medibook-api/pkg/security"
)

// Appointments is the part of the appointment service admins drive.
type Appointments interface {
	ListAll(ctx context.Context) ([]*model.BookingView, error)
	UpdateStatus(ctx context.Context, id, status string) (*model.BookingView, error)
}

type Accounts interface {
	DeletePatient(ctx context.Context, id string) error
	DeleteDoctor(ctx context.Context, id string) error
}

type Service struct {
	patients     repository.PatientRepository
	doctors      repository.DoctorRepository
	bookings     repository.BookingRepository
	appointments Appointments
	accounts     Accounts
	hasher       security.PasswordHasher
}

func NewService(patients repository.PatientRepository, doctors repository.DoctorRepository, bookings repository.BookingRepository,
	appointments Appointments, accounts Accounts, hasher security.PasswordHasher) *Service {
	return &Service{
		patients:     patients,
		doctors:      doctors,
		bookings:     bookings,
		appointments: appointments,
		accounts:     accounts,
		hasher:       hasher,
	}
}

func (s *Service) Stats(ctx context.Context) (*model.DashboardStats, error) {
	patients, err := s.patients.Count(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	doctors, err := s.doctors.Count(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	total, err := s.bookings.Count(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	byStatus, err := s.bookings.CountByStatus(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return &model.DashboardStats{
		TotalPatients:         patients,
		TotalDoctors:          doctors,
		TotalAppointments:     total,
		PendingAppointments:   byStatus[model.BookingPending],
		CompletedAppointments: byStatus[model.BookingCompleted],
		CancelledAppointments: byStatus[model.BookingCancelled],
	}, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]*model.Patient, error) {
	users, err := s.patients.List(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return users, nil
}

func (s *Service) ListDoctors(ctx context.Context) ([]*model.Doctor, error) {
	doctors, err := s.doctors.List(ctx, model.DoctorFilter{})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return doctors, nil
}

func (s *Service) ListAppointments(ctx context.Context) ([]*model.BookingView, error) {
	return s.appointments.ListAll(ctx)
}

func (s *Service) DeleteUser(ctx context.Context, id string) error {
	return s.accounts.DeletePatient(ctx, id)
}

func (s *Service) DeleteDoctor(ctx context.Context, id string) error {
	return s.accounts.DeleteDoctor(ctx, id)
}

func (s *Service) UpdateAppointmentStatus(ctx context.Context, id, status string) (*model.BookingView, error) {
	return s.appointments.UpdateStatus(ctx, id, status)
}

func (s *Service) SetDoctorApproval(ctx context.Context, id, status string) (*model.Doctor, error) {
	approval := model.ApprovalStatus(status)
	if !approval.Valid() {
		return nil, apperrors.BadRequest("Invalid approval status. Must be pending, approved, or cancelled", nil)
	}
	if err := s.doctors.SetApproval(ctx, id, approval); err != nil {
		return nil, lookupError("Doctor", err)
	}
	doctor, err := s.doctors.Get(ctx, id)
	if err != nil {
		return nil, lookupError("Doctor", err)
	}

	log.Info().Str("doctor_id", id).Str("approval", status).Msg("doctor approval changed")
	return doctor, nil
}

// CreateAdmin adds an administrator to the patient namespace.
func (s *Service) CreateAdmin(ctx context.Context, email, password, name string) (*model.Patient, error) {
	email = model.NormalizeEmail(email)
	if email == "" || password == "" || name == "" {
		return nil, apperrors.MissingField("email", "password", "name")
	}

	if _, err := s.patients.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.New(apperrors.ErrDuplicateEmail, "User with this email already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal(err)
	}

	hash, err := s.hasher.Hash(password)
	if errors.Is(err, security.ErrPasswordTooShort) {
		return nil, apperrors.BadRequest("Password must be at least 6 characters", err)
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	admin := &model.Patient{
		Base:         model.NewBase(time.Now()),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         model.RoleAdmin,
	}
	if err := s.patients.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, apperrors.New(apperrors.ErrDuplicateEmail, "User with this email already exists")
		}
		return nil, apperrors.Internal(err)
	}
	return admin, nil
}

func lookupError(resource string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound(resource, err)
	}
	return apperrors.Internal(err)
}
