package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/medibook-api/internal/email"
	"github.com/jwalitptl/medibook-api/internal/model"
	"github.com/jwalitptl/medibook-api/internal/sms"
	"github.com/jwalitptl/medibook-api/pkg/messaging"
	"github.com/jwalitptl/medibook-api/pkg/metrics"
)

const defaultTimeout = 10 * time.Second

const dateLayout = "Mon, 02 Jan 2006"

// Service delivers booking notifications in the background. Any channel
// left nil is skipped. Delivery failures are logged and never returned.
type Service struct {
	emailSvc email.Service
	smsSvc   sms.Service
	broker   messaging.Broker
	metrics  *metrics.Metrics
	timeout  time.Duration
	now      func() time.Time
	wg       sync.WaitGroup
}

func NewService(emailSvc email.Service, smsSvc sms.Service, broker messaging.Broker, m *metrics.Metrics, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if m == nil {
		m = metrics.NewNop()
	}
	return &Service{
		emailSvc: emailSvc,
		smsSvc:   smsSvc,
		broker:   broker,
		metrics:  m,
		timeout:  timeout,
		now:      time.Now,
	}
}

func (s *Service) BookingCreated(to model.Recipient, view *model.BookingView) {
	subject := "Your appointment is booked"
	content := fmt.Sprintf("Hi %s, your appointment%s on %s is booked and pending confirmation.",
		to.Name, withDoctor(view), view.AppointmentDate.Format(dateLayout))
	s.dispatch(model.NotificationBookingCreated, to, subject, content, view)
}

func (s *Service) BookingStatusChanged(to model.Recipient, view *model.BookingView) {
	subject := "Your appointment was updated"
	content := fmt.Sprintf("Hi %s, your appointment%s on %s is now %s.",
		to.Name, withDoctor(view), view.AppointmentDate.Format(dateLayout), view.Status)
	s.dispatch(model.NotificationBookingStatus, to, subject, content, view)
}

func (s *Service) BookingPaid(to model.Recipient, view *model.BookingView) {
	subject := "Payment received"
	content := fmt.Sprintf("Hi %s, we received your payment of %.2f for your appointment%s.",
		to.Name, view.TicketPrice, withDoctor(view))
	s.dispatch(model.NotificationBookingPaid, to, subject, content, view)
}

// Wait blocks until every in-flight delivery has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

func withDoctor(view *model.BookingView) string {
	if view.Doctor == nil || view.Doctor.Name == "" {
		return ""
	}
	return " with " + view.Doctor.Name
}

func (s *Service) dispatch(typ string, to model.Recipient, subject, content string, view *model.BookingView) {
	now := s.now()
	notifications := []*model.Notification{
		{Type: typ, UserID: to.ID, Channel: model.ChannelEmail, Recipient: to.Email, Subject: subject, Content: content, CreatedAt: now},
		{Type: typ, UserID: to.ID, Channel: model.ChannelSMS, Recipient: to.Phone, Subject: subject, Content: content, CreatedAt: now},
		{Type: typ, UserID: to.ID, Channel: model.ChannelInApp, Recipient: to.ID, Subject: subject, Content: content, CreatedAt: now},
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		for _, n := range notifications {
			s.send(ctx, n, view)
		}
	}()
}

func (s *Service) send(ctx context.Context, n *model.Notification, view *model.BookingView) {
	status, err := s.deliver(ctx, n, view)
	if err != nil {
		log.Warn().
			Err(err).
			Str("type", n.Type).
			Str("channel", n.Channel).
			Str("user_id", n.UserID).
			Msg("notification failed")
	}
	s.metrics.NotificationsSent.WithLabelValues(n.Channel, string(status)).Inc()
}

func (s *Service) deliver(ctx context.Context, n *model.Notification, view *model.BookingView) (model.NotificationStatus, error) {
	if n.Recipient == "" {
		return model.NotificationStatusSkipped, nil
	}

	var err error
	switch n.Channel {
	case model.ChannelEmail:
		if s.emailSvc == nil {
			return model.NotificationStatusSkipped, nil
		}
		err = s.emailSvc.Send(ctx, n.Recipient, n.Subject, n.Content)
	case model.ChannelSMS:
		if s.smsSvc == nil {
			return model.NotificationStatusSkipped, nil
		}
		err = s.smsSvc.Send(ctx, n.Recipient, n.Content)
	case model.ChannelInApp:
		if s.broker == nil {
			return model.NotificationStatusSkipped, nil
		}
		err = s.broker.Publish(ctx, messaging.UserChannel(n.UserID), &messaging.Message{
			Type:      n.Type,
			UserID:    n.UserID,
			Payload:   view,
			CreatedAt: n.CreatedAt,
		})
	default:
		err = fmt.Errorf("unsupported channel: %s", n.Channel)
	}

	if err != nil {
		return model.NotificationStatusFailed, err
	}
	return model.NotificationStatusSent, nil
}
