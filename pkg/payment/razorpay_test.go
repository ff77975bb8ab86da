package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhook(t *testing.T) {
	g := NewRazorpayGateway(Config{KeyID: "rzp_test", KeySecret: "s", WebhookSecret: "whsec"})
	body := []byte(`{"event":"order.paid"}`)

	assert.True(t, g.VerifyWebhook(body, sign(body, "whsec")))
	assert.False(t, g.VerifyWebhook(body, sign(body, "other")))
	assert.False(t, g.VerifyWebhook(body, ""))
	assert.Equal(t, "rzp_test", g.KeyID())
}

func TestVerifyWebhookWithoutSecret(t *testing.T) {
	g := NewRazorpayGateway(Config{KeyID: "rzp_test", KeySecret: "s"})
	body := []byte(`{}`)

	assert.False(t, g.VerifyWebhook(body, sign(body, "")))
}

func TestParseWebhookEvent(t *testing.T) {
	ev, err := ParseWebhookEvent([]byte(`{"event":"order.paid","payload":{"order":{"entity":{"id":"order_1"}}}}`))
	require.NoError(t, err)
	assert.Equal(t, "order_1", ev.OrderID)
	assert.True(t, ev.Settles())

	ev, err = ParseWebhookEvent([]byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"order_id":"order_2"}}}}`))
	require.NoError(t, err)
	assert.Equal(t, "order_2", ev.OrderID)
	assert.True(t, ev.Settles())

	ev, err = ParseWebhookEvent([]byte(`{"event":"refund.created","payload":{}}`))
	require.NoError(t, err)
	assert.False(t, ev.Settles())

	_, err = ParseWebhookEvent([]byte(`not json`))
	assert.Error(t, err)
}
