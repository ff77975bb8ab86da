package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"

	"github.com/jwalitptl/medibook-api/pkg/circuitbreaker"
)

var ErrMissingOrderID = errors.New("payment provider returned no order id")

// Order is a provider-side checkout order.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type Gateway interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*Order, error)
	VerifyWebhook(body []byte, signature string) bool
	KeyID() string
}

type Config struct {
	KeyID         string
	KeySecret     string
	WebhookSecret string
}

type razorpayGateway struct {
	client        *razorpay.Client
	keyID         string
	webhookSecret string
	cb            *circuitbreaker.CircuitBreaker
}

func NewRazorpayGateway(cfg Config) Gateway {
	return &razorpayGateway{
		client:        razorpay.NewClient(cfg.KeyID, cfg.KeySecret),
		keyID:         cfg.KeyID,
		webhookSecret: cfg.WebhookSecret,
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:             "razorpay",
			MaxRequests:      1,
			Interval:         time.Minute,
			Timeout:          30 * time.Second,
			FailureThreshold: 3,
		}),
	}
}

func (g *razorpayGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*Order, error) {
	data := map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
	}
	if len(notes) > 0 {
		data["notes"] = notes
	}

	var body map[string]interface{}
	err := g.cb.Execute(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		var err error
		body, err = g.client.Order.Create(data, nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create razorpay order: %w", err)
	}

	id, _ := body["id"].(string)
	if id == "" {
		return nil, ErrMissingOrderID
	}
	return &Order{ID: id, Amount: amount, Currency: currency, Receipt: receipt}, nil
}

func (g *razorpayGateway) VerifyWebhook(body []byte, signature string) bool {
	if g.webhookSecret == "" || signature == "" {
		return false
	}
	return utils.VerifyWebhookSignature(string(body), signature, g.webhookSecret)
}

func (g *razorpayGateway) KeyID() string {
	return g.keyID
}

// Webhook event names that settle an order.
const (
	EventOrderPaid       = "order.paid"
	EventPaymentCaptured = "payment.captured"
)

// WebhookEvent is the subset of a provider webhook the booking flow needs.
type WebhookEvent struct {
	Event   string
	OrderID string
}

// Settles reports whether the event means the order was paid.
func (e *WebhookEvent) Settles() bool {
	return e.Event == EventOrderPaid || e.Event == EventPaymentCaptured
}

type webhookBody struct {
	Event   string `json:"event"`
	Payload struct {
		Order struct {
			Entity struct {
				ID string `json:"id"`
			} `json:"entity"`
		} `json:"order"`
		Payment struct {
			Entity struct {
				OrderID string `json:"order_id"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

func ParseWebhookEvent(body []byte) (*WebhookEvent, error) {
	var wb webhookBody
	if err := json.Unmarshal(body, &wb); err != nil {
		return nil, fmt.Errorf("failed to decode webhook: %w", err)
	}

	orderID := wb.Payload.Order.Entity.ID
	if orderID == "" {
		orderID = wb.Payload.Payment.Entity.OrderID
	}
	return &WebhookEvent{Event: wb.Event, OrderID: orderID}, nil
}
