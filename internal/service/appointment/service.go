package appointment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/medibook-api/internal/model"
	"github.com/jwalitptl/medibook-api/internal/repository"
	apperrors "github.com/jwalitptl/medibook-api/pkg/errors"
	"github.com/jwalitptl/medibook-api/pkg/metrics"
)

const dateOnly = "2006-01-02"

// Notifier receives booking events. Implementations must not block.
type Notifier interface {
	BookingCreated(to model.Recipient, view *model.BookingView)
	BookingStatusChanged(to model.Recipient, view *model.BookingView)
	BookingPaid(to model.Recipient, view *model.BookingView)
}

type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the zone used to decide what "today" is.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

type Service struct {
	bookings repository.BookingRepository
	doctors  repository.DoctorRepository
	patients repository.PatientRepository
	notifier Notifier
	metrics  *metrics.Metrics
	loc      *time.Location
	now      func() time.Time
}

func NewService(bookings repository.BookingRepository, doctors repository.DoctorRepository,
	patients repository.PatientRepository, notifier Notifier, m *metrics.Metrics, opts ...Option) *Service {
	if m == nil {
		m = metrics.NewNop()
	}
	s := &Service{
		bookings: bookings,
		doctors:  doctors,
		patients: patients,
		notifier: notifier,
		metrics:  m,
		loc:      time.UTC,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create books an appointment. The ticket price is copied from the doctor
// and the booking starts pending and unpaid.
func (s *Service) Create(ctx context.Context, in model.CreateBookingInput) (*model.BookingView, error) {
	var missing []string
	if in.DoctorID == "" {
		missing = append(missing, "doctorId")
	}
	if strings.TrimSpace(in.AppointmentDate) == "" {
		missing = append(missing, "appointmentDate")
	}
	if strings.TrimSpace(in.TimeSlot) == "" {
		missing = append(missing, "timeSlot")
	}
	if len(missing) > 0 {
		return nil, apperrors.MissingField(missing...)
	}

	date, err := s.ParseDate(in.AppointmentDate)
	if err != nil {
		return nil, apperrors.InvalidDate(err)
	}

	doctor, err := s.doctors.Get(ctx, in.DoctorID)
	if err != nil {
		return nil, notFound("Doctor", err)
	}
	patient, err := s.patients.Get(ctx, in.PatientID)
	if err != nil {
		return nil, notFound("User", err)
	}

	if s.midnight(date).Before(s.midnight(s.now())) {
		return nil, apperrors.PastDate()
	}

	booking := &model.Booking{
		Base:            model.NewBase(s.now()),
		DoctorID:        doctor.ID,
		PatientID:       patient.ID,
		TicketPrice:     doctor.TicketPrice,
		AppointmentDate: date,
		Status:          model.BookingPending,
		Session:         strings.TrimSpace(in.TimeSlot),
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, apperrors.Internal(err)
	}
	s.metrics.BookingsCreated.Inc()

	view := &model.BookingView{Booking: booking, Doctor: doctor.Summary(), User: patient.Summary()}
	if s.notifier != nil {
		s.notifier.BookingCreated(recipient(patient), view)
	}

	log.Info().
		Str("booking_id", booking.ID).
		Str("doctor_id", doctor.ID).
		Str("patient_id", patient.ID).
		Msg("booking created")

	return view, nil
}

// ParseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates. Plain
// dates are read in the service time zone.
func (s *Service) ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.ParseInLocation(dateOnly, value, s.loc)
}

func (s *Service) midnight(t time.Time) time.Time {
	t = t.In(s.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.loc)
}

func (s *Service) ListForPatient(ctx context.Context, patientID string) ([]*model.BookingView, error) {
	bookings, err := s.bookings.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return s.Join(ctx, bookings)
}

func (s *Service) ListForDoctor(ctx context.Context, doctorID string) ([]*model.BookingView, error) {
	bookings, err := s.bookings.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return s.Join(ctx, bookings)
}

// ListAll returns every booking, latest appointment first.
func (s *Service) ListAll(ctx context.Context) ([]*model.BookingView, error) {
	bookings, err := s.bookings.ListAll(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return s.Join(ctx, bookings)
}

func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*model.BookingView, error) {
	next := model.BookingStatus(status)
	if !next.Valid() {
		return nil, apperrors.InvalidStatus(status)
	}

	booking, err := s.bookings.UpdateStatus(ctx, id, next)
	if err != nil {
		return nil, notFound("Appointment", err)
	}
	s.metrics.BookingStatusUpdates.WithLabelValues(string(next)).Inc()

	views, err := s.Join(ctx, []*model.Booking{booking})
	if err != nil {
		return nil, err
	}
	view := views[0]
	s.notify(ctx, booking.PatientID, view, Notifier.BookingStatusChanged)
	return view, nil
}

// MarkPaid flags the booking opened for a payment session as paid.
func (s *Service) MarkPaid(ctx context.Context, session string) (*model.BookingView, error) {
	booking, err := s.bookings.MarkPaidBySession(ctx, session)
	if err != nil {
		return nil, notFound("Booking", err)
	}
	views, err := s.Join(ctx, []*model.Booking{booking})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, booking.PatientID, views[0], Notifier.BookingPaid)
	return views[0], nil
}

func (s *Service) notify(ctx context.Context, patientID string, view *model.BookingView, event func(Notifier, model.Recipient, *model.BookingView)) {
	if s.notifier == nil {
		return
	}
	patient, err := s.patients.Get(ctx, patientID)
	if err != nil {
		log.Warn().Err(err).Str("patient_id", patientID).Msg("skipping notification, patient lookup failed")
		return
	}
	event(s.notifier, recipient(patient), view)
}

// Join attaches doctor and patient display fields. A party that no longer
// exists is left nil.
func (s *Service) Join(ctx context.Context, bookings []*model.Booking) ([]*model.BookingView, error) {
	views := make([]*model.BookingView, 0, len(bookings))
	if len(bookings) == 0 {
		return views, nil
	}

	doctorIDs := make([]string, 0, len(bookings))
	patientIDs := make([]string, 0, len(bookings))
	for _, b := range bookings {
		doctorIDs = append(doctorIDs, b.DoctorID)
		patientIDs = append(patientIDs, b.PatientID)
	}

	doctors, err := s.doctors.GetMany(ctx, unique(doctorIDs))
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	patients, err := s.patients.GetMany(ctx, unique(patientIDs))
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	for _, b := range bookings {
		view := &model.BookingView{Booking: b}
		if d, ok := doctors[b.DoctorID]; ok {
			view.Doctor = d.Summary()
		}
		if p, ok := patients[b.PatientID]; ok {
			view.User = p.Summary()
		}
		views = append(views, view)
	}
	return views, nil
}

func unique(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func recipient(p *model.Patient) model.Recipient {
	return model.Recipient{ID: p.ID, Name: p.Name, Email: p.Email, Phone: p.Phone}
}

func notFound(resource string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound(resource, err)
	}
	return apperrors.Internal(err)
}
