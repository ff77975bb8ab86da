package sms

import (
	"context"
	"fmt"
	"time"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/jwalitptl/medibook-api/pkg/circuitbreaker"
)

type Service interface {
	Send(ctx context.Context, to, body string) error
}

type Config struct {
	AccountSID string
	AuthToken  string
	From       string
}

func (c Config) Enabled() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.From != ""
}

type twilioService struct {
	client *twilio.RestClient
	from   string
	cb     *circuitbreaker.CircuitBreaker
}

func NewTwilioService(cfg Config) Service {
	return &twilioService{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.AccountSID,
			Password: cfg.AuthToken,
		}),
		from: cfg.From,
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "twilio",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
		}),
	}
}

func (s *twilioService) Send(ctx context.Context, to, body string) error {
	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	err := s.cb.Execute(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, err := s.client.Api.CreateMessage(params)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to send sms: %w", err)
	}
	return nil
}
