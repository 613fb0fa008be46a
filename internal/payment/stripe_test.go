package payment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"
)

const testWebhookSecret = "whsec_test"

func signed(t *testing.T, payload, secret string) *webhook.SignedPayload {
	t.Helper()
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    secret,
		Timestamp: time.Now(),
	})
}

const completedEvent = `{
	"id": "evt_1",
	"object": "event",
	"type": "checkout.session.completed",
	"data": {"object": {"id": "cs_1", "object": "checkout.session", "payment_status": "paid"}}
}`

func TestParseWebhookEventDecodesCompletedCheckout(t *testing.T) {
	p := NewStripeProvider("sk_test", testWebhookSecret)
	sp := signed(t, completedEvent, testWebhookSecret)

	ev, err := p.ParseWebhookEvent(sp.Payload, sp.Header)
	require.NoError(t, err)
	assert.Equal(t, EventCheckoutCompleted, ev.Type)
	assert.Equal(t, "cs_1", ev.SessionID)
}

func TestParseWebhookEventIgnoresOtherTypes(t *testing.T) {
	p := NewStripeProvider("sk_test", testWebhookSecret)
	sp := signed(t, `{"id":"evt_2","object":"event","type":"charge.refunded","data":{"object":{"id":"ch_1","object":"charge"}}}`, testWebhookSecret)

	ev, err := p.ParseWebhookEvent(sp.Payload, sp.Header)
	require.NoError(t, err)
	assert.Equal(t, "charge.refunded", ev.Type)
	assert.Empty(t, ev.SessionID)
}

func TestParseWebhookEventRejectsBadSignatures(t *testing.T) {
	p := NewStripeProvider("sk_test", testWebhookSecret)

	// Signed with another secret
	sp := signed(t, completedEvent, "whsec_other")
	_, err := p.ParseWebhookEvent(sp.Payload, sp.Header)
	assert.Error(t, err)

	// Body altered after signing
	sp = signed(t, completedEvent, testWebhookSecret)
	tampered := []byte(`{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_forged"}}}`)
	_, err = p.ParseWebhookEvent(tampered, sp.Header)
	assert.Error(t, err)

	// No header at all
	_, err = p.ParseWebhookEvent(sp.Payload, "")
	assert.Error(t, err)
}

func TestParseWebhookEventWithoutSecretIsDisabled(t *testing.T) {
	p := NewStripeProvider("sk_test", "")
	sp := signed(t, completedEvent, testWebhookSecret)
	_, err := p.ParseWebhookEvent(sp.Payload, sp.Header)
	assert.ErrorIs(t, err, ErrWebhookDisabled)
}
