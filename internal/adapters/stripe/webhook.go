package stripe

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	stripego "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"hotel_booking/internal/domain"
)

var (
	ErrMissingSecret  = errors.New("webhook secret is not configured")
	ErrMalformedEvent = errors.New("event payload is not a valid event object")
)

// Webhook verifies Stripe-Signature headers with stripe-go and reduces the
// event to what fulfillment needs.
type Webhook struct {
	secret    string
	tolerance time.Duration
}

func NewWebhook(secret string) *Webhook {
	return &Webhook{secret: secret, tolerance: webhook.DefaultTolerance}
}

// ConstructEvent fails with one of the webhook package errors (ErrNotSigned,
// ErrInvalidHeader, ErrNoValidSignature, ErrTooOld) on a bad signature.
// Endpoints may be pinned to a different API version than the SDK, so the
// version check is skipped; only the object id is read from the payload.
func (w *Webhook) ConstructEvent(payload []byte, header string) (domain.GatewayEvent, error) {
	if w.secret == "" {
		return domain.GatewayEvent{}, ErrMissingSecret
	}
	ev, err := webhook.ConstructEventWithOptions(payload, header, w.secret, webhook.ConstructEventOptions{
		Tolerance:                w.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return domain.GatewayEvent{}, err
	}
	if ev.Type == "" || ev.Data == nil {
		return domain.GatewayEvent{}, ErrMalformedEvent
	}

	out := domain.GatewayEvent{ID: ev.ID, Type: string(ev.Type)}
	if strings.HasPrefix(out.Type, "checkout.session.") {
		var cs stripego.CheckoutSession
		if err := json.Unmarshal(ev.Data.Raw, &cs); err != nil {
			return domain.GatewayEvent{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		out.ObjectID = cs.ID
	} else {
		out.ObjectID = ev.GetObjectValue("id")
	}
	return out, nil
}

// SignatureHeader builds a valid header for payload; used by tests and local tooling.
func SignatureHeader(secret string, payload []byte, at time.Time) string {
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: at,
	}).Header
}
