package payment

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/medibook-api/internal/model"
	"github.com/jwalitptl/medibook-api/internal/repository"
	"github.com/jwalitptl/medibook-api/pkg/circuitbreaker"
	apperrors "github.com/jwalitptl/medibook-api/pkg/errors"
	"github.com/jwalitptl/medibook-api/pkg/metrics"
	provider "github.com/jwalitptl/medibook-api/pkg/payment"
)

const defaultCurrency = "INR"

// Ledger is the part of the appointment service checkout needs.
type Ledger interface {
	Join(ctx context.Context, bookings []*model.Booking) ([]*model.BookingView, error)
	MarkPaid(ctx context.Context, session string) (*model.BookingView, error)
}

type Service struct {
	gateway  provider.Gateway
	doctors  repository.DoctorRepository
	patients repository.PatientRepository
	bookings repository.BookingRepository
	ledger   Ledger
	currency string
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewService(gateway provider.Gateway, doctors repository.DoctorRepository, patients repository.PatientRepository,
	bookings repository.BookingRepository, ledger Ledger, currency string, m *metrics.Metrics) *Service {
	if currency == "" {
		currency = defaultCurrency
	}
	if m == nil {
		m = metrics.NewNop()
	}
	return &Service{
		gateway:  gateway,
		doctors:  doctors,
		patients: patients,
		bookings: bookings,
		ledger:   ledger,
		currency: currency,
		metrics:  m,
		now:      time.Now,
	}
}

// MinorUnits converts a ticket price to the provider's smallest currency unit.
func MinorUnits(price float64) int64 {
	return int64(math.Round(price * 100))
}

// CreateSession opens a provider order for the doctor's ticket price and
// records an unpaid booking keyed by the order id. The booking is dated
// now because checkout does not carry an appointment date.
func (s *Service) CreateSession(ctx context.Context, doctorID, payerID string) (*model.CheckoutSession, error) {
	if s.gateway == nil {
		return nil, apperrors.Unavailable("Payments are not configured", nil)
	}

	doctor, err := s.doctors.Get(ctx, doctorID)
	if err != nil {
		return nil, lookupError("Doctor", err)
	}
	payer, err := s.patients.Get(ctx, payerID)
	if err != nil {
		return nil, lookupError("User", err)
	}

	now := s.now()
	booking := &model.Booking{
		Base:            model.NewBase(now),
		DoctorID:        doctor.ID,
		PatientID:       payer.ID,
		TicketPrice:     doctor.TicketPrice,
		AppointmentDate: now,
		Status:          model.BookingPending,
	}

	amount := MinorUnits(doctor.TicketPrice)
	order, err := s.gateway.CreateOrder(ctx, amount, s.currency, booking.ID, map[string]string{
		"doctorId": doctor.ID,
		"userId":   payer.ID,
		"email":    payer.Email,
	})
	if err != nil {
		s.metrics.PaymentSessions.WithLabelValues("failed").Inc()
		if circuitbreaker.IsOpen(err) {
			return nil, apperrors.Unavailable("Payment provider unavailable, please try again later", err)
		}
		return nil, apperrors.Internal(err)
	}

	booking.Session = order.ID
	if err := s.bookings.Create(ctx, booking); err != nil {
		s.metrics.PaymentSessions.WithLabelValues("failed").Inc()
		return nil, apperrors.Internal(err)
	}
	s.metrics.PaymentSessions.WithLabelValues("created").Inc()
	s.metrics.BookingsCreated.Inc()

	views, err := s.ledger.Join(ctx, []*model.Booking{booking})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("booking_id", booking.ID).
		Str("order_id", order.ID).
		Int64("amount", amount).
		Msg("checkout session created")

	return &model.CheckoutSession{
		SessionID: order.ID,
		Amount:    amount,
		Currency:  s.currency,
		KeyID:     s.gateway.KeyID(),
		Booking:   views[0],
	}, nil
}

// HandleWebhook verifies a provider callback and marks the matching booking
// paid. Events that do not settle an order are acknowledged and ignored.
func (s *Service) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if s.gateway == nil {
		return apperrors.Unavailable("Payments are not configured", nil)
	}
	if !s.gateway.VerifyWebhook(body, signature) {
		return apperrors.Unauthorized("Invalid webhook signature", nil)
	}

	event, err := provider.ParseWebhookEvent(body)
	if err != nil {
		return apperrors.BadRequest("Invalid webhook payload", err)
	}
	if !event.Settles() || event.OrderID == "" {
		log.Debug().Str("event", event.Event).Msg("ignoring payment webhook")
		return nil
	}

	view, err := s.ledger.MarkPaid(ctx, event.OrderID)
	if apperrors.HasCode(err, apperrors.ErrNotFound) {
		log.Warn().Str("order_id", event.OrderID).Msg("payment for unknown order")
		return nil
	}
	if err != nil {
		return err
	}

	s.metrics.PaymentSessions.WithLabelValues("paid").Inc()
	log.Info().Str("booking_id", view.ID).Str("order_id", event.OrderID).Msg("booking paid")
	return nil
}

func lookupError(resource string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound(resource, err)
	}
	return apperrors.Internal(err)
}
