package review

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/medibook-api/internal/model"
	"github.com/jwalitptl/medibook-api/internal/repository"
	apperrors "github.com/jwalitptl/medibook-api/pkg/errors"
	"github.com/jwalitptl/medibook-api/pkg/metrics"
)

// A write only loses to another review landing on the same doctor, so
// every writer succeeds as long as fewer than maxAttempts reviews race it.
const (
	maxAttempts  = 10
	retryBackoff = 5 * time.Millisecond
)

type AddInput struct {
	DoctorID   string
	PatientID  string
	Rating     *int
	ReviewText string
}

type Service struct {
	doctors  repository.DoctorRepository
	patients repository.PatientRepository
	metrics  *metrics.Metrics
	now      func() time.Time
	backoff  func(attempt int) time.Duration
}

func NewService(doctors repository.DoctorRepository, patients repository.PatientRepository, m *metrics.Metrics) *Service {
	if m == nil {
		m = metrics.NewNop()
	}
	return &Service{
		doctors:  doctors,
		patients: patients,
		metrics:  m,
		now:      time.Now,
		backoff:  jitteredBackoff,
	}
}

// jitteredBackoff spreads retries out so losers of one round do not
// collide again on the next.
func jitteredBackoff(attempt int) time.Duration {
	return time.Duration(attempt)*retryBackoff + time.Duration(rand.Int63n(int64(retryBackoff)))
}

// Add appends a review and recomputes the doctor's rating. The write only
// lands if no other review was added since the doctor was read.
func (s *Service) Add(ctx context.Context, in AddInput) (*model.Review, error) {
	text := strings.TrimSpace(in.ReviewText)
	if in.Rating == nil || text == "" {
		return nil, apperrors.New(apperrors.ErrMissingField, "Rating and review text are required")
	}
	if !model.ValidRating(*in.Rating) {
		return nil, apperrors.InvalidRating()
	}

	patient, err := s.patients.Get(ctx, in.PatientID)
	if err != nil {
		return nil, lookupError("User", err)
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		doctor, err := s.doctors.Get(ctx, in.DoctorID)
		if err != nil {
			return nil, lookupError("Doctor", err)
		}
		if doctor.HasReviewFrom(patient.ID) {
			return nil, apperrors.DuplicateReview()
		}

		review := model.Review{
			ID:         uuid.NewString(),
			UserID:     patient.ID,
			UserName:   patient.Name,
			UserPhoto:  patient.Photo,
			Rating:     *in.Rating,
			ReviewText: text,
			CreatedAt:  s.now(),
		}
		expected := doctor.TotalRating
		doctor.AddReview(review)

		err = s.doctors.UpdateReviews(ctx, doctor, expected)
		switch {
		case err == nil:
			s.metrics.ReviewsAdded.Inc()
			log.Info().
				Str("doctor_id", doctor.ID).
				Str("user_id", patient.ID).
				Float64("average_rating", doctor.AverageRating).
				Msg("review added")
			return &review, nil
		case errors.Is(err, repository.ErrConflict):
			s.metrics.ReviewWriteConflicts.Inc()
			log.Debug().Str("doctor_id", doctor.ID).Int("attempt", attempt).Msg("review write lost a race, retrying")
			if attempt < maxAttempts {
				if err := sleep(ctx, s.backoff(attempt)); err != nil {
					return nil, apperrors.Internal(err)
				}
			}
		default:
			return nil, lookupError("Doctor", err)
		}
	}

	return nil, apperrors.Conflict("Doctor was modified concurrently, please retry", repository.ErrConflict)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *Service) Get(ctx context.Context, doctorID string) (*model.ReviewSummary, error) {
	doctor, err := s.doctors.Get(ctx, doctorID)
	if err != nil {
		return nil, lookupError("Doctor", err)
	}
	return doctor.ReviewSummary(), nil
}

func lookupError(resource string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound(resource, err)
	}
	return apperrors.Internal(err)
}
