package account

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/medibook-api/internal/model"
	"github.com/jwalitptl/medibook-api/internal/repository"
	"github.com/jwalitptl/medibook-api/internal/storage"
	apperrors "github.com/jwalitptl/medibook-api/pkg/errors"
	"github.com/jwalitptl/medibook-api/pkg/metrics"
)

// Service removes accounts together with everything that hangs off them:
// their bookings, their live sessions and their photo.
type Service struct {
	patients repository.PatientRepository
	doctors  repository.DoctorRepository
	bookings repository.BookingRepository
	sessions repository.SessionStore
	photos   storage.PhotoStore
	tokenTTL time.Duration
	metrics  *metrics.Metrics
}

func NewService(patients repository.PatientRepository, doctors repository.DoctorRepository,
	bookings repository.BookingRepository, sessions repository.SessionStore, photos storage.PhotoStore,
	tokenTTL time.Duration, m *metrics.Metrics) *Service {
	if m == nil {
		m = metrics.NewNop()
	}
	return &Service{
		patients: patients,
		doctors:  doctors,
		bookings: bookings,
		sessions: sessions,
		photos:   photos,
		tokenTTL: tokenTTL,
		metrics:  m,
	}
}

func (s *Service) DeletePatient(ctx context.Context, id string) error {
	patient, err := s.patients.Get(ctx, id)
	if err != nil {
		return lookupError("User", err)
	}

	removed, err := s.bookings.DeleteByPatient(ctx, id)
	if err != nil {
		return apperrors.Internal(err)
	}
	if err := s.patients.Delete(ctx, id); err != nil {
		return lookupError("User", err)
	}

	s.cleanup(ctx, id, patient.Photo)
	s.metrics.AccountsDeleted.WithLabelValues(string(patient.Role)).Inc()
	log.Info().Str("user_id", id).Int64("bookings_removed", removed).Msg("patient account deleted")
	return nil
}

func (s *Service) DeleteDoctor(ctx context.Context, id string) error {
	doctor, err := s.doctors.Get(ctx, id)
	if err != nil {
		return lookupError("Doctor", err)
	}

	removed, err := s.bookings.DeleteByDoctor(ctx, id)
	if err != nil {
		return apperrors.Internal(err)
	}
	if err := s.doctors.Delete(ctx, id); err != nil {
		return lookupError("Doctor", err)
	}

	s.cleanup(ctx, id, doctor.Photo)
	s.metrics.AccountsDeleted.WithLabelValues(string(model.RoleDoctor)).Inc()
	log.Info().Str("doctor_id", id).Int64("bookings_removed", removed).Msg("doctor account deleted")
	return nil
}

// cleanup revokes sessions and removes the photo. The account is already
// gone, so failures here are only logged.
func (s *Service) cleanup(ctx context.Context, id, photo string) {
	if s.sessions != nil {
		if err := s.sessions.Revoke(ctx, id, s.tokenTTL); err != nil {
			log.Warn().Err(err).Str("subject_id", id).Msg("failed to revoke sessions")
		}
	}
	if s.photos != nil && photo != "" {
		if err := s.photos.Remove(ctx, photo); err != nil {
			log.Warn().Err(err).Str("subject_id", id).Str("photo", photo).Msg("failed to remove photo")
		}
	}
}

func lookupError(resource string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound(resource, err)
	}
	return apperrors.Internal(err)
}
