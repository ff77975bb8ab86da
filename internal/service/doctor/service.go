package doctor

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

// AppointmentLister returns a doctor's joined bookings.
type AppointmentLister interface {
	ListForDoctor(ctx context.Context, doctorID string) ([]*model.BookingView, error)
}

type AccountDeleter interface {
	DeleteDoctor(ctx context.Context, id string) error
}

type Service struct {
	repo         repository.DoctorRepository
	appointments AppointmentLister
	accounts     AccountDeleter
	photos       storage.PhotoStore
}

func NewService(repo repository.DoctorRepository, appointments AppointmentLister, accounts AccountDeleter, photos storage.PhotoStore) *Service {
	return &Service{
		repo:         repo,
		appointments: appointments,
		accounts:     accounts,
		photos:       photos,
	}
}

// List returns doctors whose name or specialization contains query,
// ignoring case. An empty query lists everyone.
func (s *Service) List(ctx context.Context, query string) ([]*model.Doctor, error) {
	doctors, err := s.repo.List(ctx, model.DoctorFilter{Query: query})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return doctors, nil
}

func (s *Service) Get(ctx context.Context, id string) (*model.Doctor, error) {
	doctor, err := s.repo.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("Doctor", err)
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return doctor, nil
}

func (s *Service) Profile(ctx context.Context, id string) (*model.DoctorProfile, error) {
	doctor, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	appointments, err := s.appointments.ListForDoctor(ctx, id)
	if err != nil {
		return nil, err
	}
	return &model.DoctorProfile{Doctor: doctor, Appointments: appointments}, nil
}

func (s *Service) Appointments(ctx context.Context, id string) ([]*model.BookingView, error) {
	return s.appointments.ListForDoctor(ctx, id)
}

// Update merges the whitelisted profile fields. Reviews, ratings, approval,
// email and password never change here.
func (s *Service) Update(ctx context.Context, actor model.Session, id string, update model.DoctorUpdate, photo *multipart.FileHeader) (*model.Doctor, error) {
	if !actor.Is(id) {
		return nil, apperrors.Forbidden("You can only update your own profile")
	}
	if err := update.Validate(); err != nil {
		return nil, err
	}

	doctor, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	oldPhoto := doctor.Photo

	var uploaded string
	if photo != nil {
		if uploaded, err = s.photos.Save(ctx, photo); err != nil {
			if storage.IsRejected(err) {
				return nil, apperrors.BadRequest("Invalid photo", err)
			}
			return nil, apperrors.Internal(err)
		}
		update.Photo = &uploaded
	}

	doctor.Apply(update)
	if err := s.repo.Update(ctx, doctor); err != nil {
		if uploaded != "" {
			s.removePhoto(ctx, id, uploaded)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Doctor", err)
		}
		return nil, apperrors.Internal(err)
	}

	if oldPhoto != "" && oldPhoto != doctor.Photo {
		s.removePhoto(ctx, id, oldPhoto)
	}
	return doctor, nil
}

func (s *Service) Delete(ctx context.Context, actor model.Session, id string) error {
	if !actor.Is(id) {
		return apperrors.Forbidden("You can only delete your own account")
	}
	return s.accounts.DeleteDoctor(ctx, id)
}

func (s *Service) removePhoto(ctx context.Context, id, url string) {
	if s.photos == nil {
		return
	}
	if err := s.photos.Remove(ctx, url); err != nil {
		log.Warn().Err(err).Str("doctor_id", id).Str("photo", url).Msg("failed to remove photo")
	}
}
