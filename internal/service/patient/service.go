package patient

import (
	"context"
	"errors"
	"mime/multipart"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/medibook-api/internal/model"
	"github.com/jwalitptl/medibook-api/internal/repository"
	"github.com/jwalitptl/medibook-api/internal/storage"
	apperrors "github.com/jwalitptl/medibook-api/pkg/errors"
)

// AppointmentLister returns a patient's joined bookings.
type AppointmentLister interface {
	ListForPatient(ctx context.Context, patientID string) ([]*model.BookingView, error)
}

type AccountDeleter interface {
	DeletePatient(ctx context.Context, id string) error
}

type Service struct {
	repo         repository.PatientRepository
	appointments AppointmentLister
	accounts     AccountDeleter
	photos       storage.PhotoStore
}

func NewService(repo repository.PatientRepository, appointments AppointmentLister, accounts AccountDeleter, photos storage.PhotoStore) *Service {
	return &Service{
		repo:         repo,
		appointments: appointments,
		accounts:     accounts,
		photos:       photos,
	}
}

func (s *Service) Get(ctx context.Context, actor model.Session, id string) (*model.Patient, error) {
	if !actor.Is(id) {
		return nil, apperrors.Forbidden("You can only view your own profile")
	}
	return s.get(ctx, id)
}

func (s *Service) get(ctx context.Context, id string) (*model.Patient, error) {
	patient, err := s.repo.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("User", err)
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return patient, nil
}

// Profile returns the patient with their bookings.
func (s *Service) Profile(ctx context.Context, id string) (*model.PatientProfile, error) {
	patient, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	appointments, err := s.appointments.ListForPatient(ctx, id)
	if err != nil {
		return nil, err
	}
	return &model.PatientProfile{Patient: patient, Appointments: appointments}, nil
}

// Update merges the whitelisted fields. A new photo upload replaces the
// stored one; the old file is removed once the record is saved.
func (s *Service) Update(ctx context.Context, actor model.Session, id string, update model.PatientUpdate, photo *multipart.FileHeader) (*model.Patient, error) {
	if !actor.Is(id) {
		return nil, apperrors.Forbidden("You can only update your own profile")
	}
	if err := update.Validate(); err != nil {
		return nil, err
	}

	patient, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	oldPhoto := patient.Photo

	var uploaded string
	if photo != nil {
		if uploaded, err = s.photos.Save(ctx, photo); err != nil {
			return nil, photoError(err)
		}
		update.Photo = &uploaded
	}

	patient.Apply(update)
	if err := s.repo.Update(ctx, patient); err != nil {
		if uploaded != "" {
			s.removePhoto(ctx, id, uploaded)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("User", err)
		}
		return nil, apperrors.Internal(err)
	}

	if oldPhoto != "" && oldPhoto != patient.Photo {
		s.removePhoto(ctx, id, oldPhoto)
	}
	return patient, nil
}

func (s *Service) Delete(ctx context.Context, actor model.Session, id string) error {
	if !actor.Is(id) {
		return apperrors.Forbidden("You can only delete your own account")
	}
	return s.accounts.DeletePatient(ctx, id)
}

func (s *Service) removePhoto(ctx context.Context, id, url string) {
	if s.photos == nil {
		return
	}
	if err := s.photos.Remove(ctx, url); err != nil {
		log.Warn().Err(err).Str("user_id", id).Str("photo", url).Msg("failed to remove photo")
	}
}

func photoError(err error) error {
	if storage.IsRejected(err) {
		return apperrors.BadRequest("Invalid photo", err)
	}
	return apperrors.Internal(err)
}
