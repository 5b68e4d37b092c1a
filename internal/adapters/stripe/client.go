package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	stripego "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"

	"hotel_booking/internal/adapters/outbound"
	"hotel_booking/internal/domain"
)

// Client is the Checkout Sessions gateway on top of stripe-go. The backend is
// private to the client so tests and the live service never share globals.
type Client struct {
	sessions session.Client
}

// New builds a client against base (STRIPE_BASE_URL). stripe-go owns retries;
// the outbound transport adds the rate limit and the external-call metrics.
func New(base, secretKey string, rps int) (*Client, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("secret key is required")
	}
	if base == "" {
		base = stripego.APIURL
	}
	backend := stripego.GetBackendWithConfig(stripego.APIBackend, &stripego.BackendConfig{
		URL: stripego.String(strings.TrimRight(base, "/")),
		HTTPClient: &http.Client{
			Timeout:   20 * time.Second,
			Transport: outbound.NewTransport("stripe", rps, nil, endpoint),
		},
		LeveledLogger:     zlogger{},
		MaxNetworkRetries: stripego.Int64(2),
	})
	return &Client{sessions: session.Client{B: backend, Key: secretKey}}, nil
}

func endpoint(r *http.Request) string {
	if r.Method == http.MethodPost {
		return "checkout.sessions.create"
	}
	return "checkout.sessions.retrieve"
}

func toDomain(s *stripego.CheckoutSession) domain.CheckoutSession {
	email := s.CustomerEmail
	if email == "" && s.CustomerDetails != nil {
		email = s.CustomerDetails.Email
	}
	return domain.CheckoutSession{
		ID:            s.ID,
		ClientSecret:  s.ClientSecret,
		Status:        string(s.Status),
		PaymentStatus: string(s.PaymentStatus),
		CustomerEmail: email,
		URL:           s.URL,
		Metadata:      s.Metadata,
	}
}

func (c *Client) CreateCheckoutSession(ctx context.Context, in domain.CheckoutRequest) (domain.CheckoutSession, error) {
	p := CheckoutParams(in)
	p.Context = ctx
	// same key on every retry so a replayed create is deduplicated upstream
	p.SetIdempotencyKey(uuid.NewString())
	s, err := c.sessions.New(p)
	if err != nil {
		return domain.CheckoutSession{}, fmt.Errorf("create checkout session: %w", err)
	}
	return toDomain(s), nil
}

func (c *Client) RetrieveCheckoutSession(ctx context.Context, id string, expandLineItems bool) (domain.CheckoutSession, error) {
	p := &stripego.CheckoutSessionParams{}
	p.Context = ctx
	if expandLineItems {
		p.AddExpand("line_items")
	}
	s, err := c.sessions.Get(id, p)
	if err != nil {
		var se *stripego.Error
		if errors.As(err, &se) && (se.HTTPStatusCode == http.StatusNotFound || se.Code == stripego.ErrorCodeResourceMissing) {
			return domain.CheckoutSession{}, domain.NotFound("Checkout session not found")
		}
		return domain.CheckoutSession{}, fmt.Errorf("retrieve checkout session: %w", err)
	}
	return toDomain(s), nil
}

// CheckoutParams maps a checkout request onto an embedded, card-only payment
// session. A line with a PriceID uses it instead of ad-hoc price data.
func CheckoutParams(in domain.CheckoutRequest) *stripego.CheckoutSessionParams {
	p := &stripego.CheckoutSessionParams{
		UIMode:             stripego.String(string(stripego.CheckoutSessionUIModeEmbedded)),
		Mode:               stripego.String(string(stripego.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripego.StringSlice([]string{"card"}),
		ReturnURL:          stripego.String(in.ReturnURL),
	}
	if in.CustomerEmail != "" {
		p.CustomerEmail = stripego.String(in.CustomerEmail)
	}
	for _, li := range in.LineItems {
		item := &stripego.CheckoutSessionLineItemParams{Quantity: stripego.Int64(int64(li.Quantity))}
		if li.PriceID != "" {
			item.Price = stripego.String(li.PriceID)
		} else {
			product := &stripego.CheckoutSessionLineItemPriceDataProductDataParams{Name: stripego.String(li.ProductName)}
			if li.Description != "" {
				product.Description = stripego.String(li.Description)
			}
			if len(li.Images) > 0 {
				product.Images = stripego.StringSlice(li.Images)
			}
			item.PriceData = &stripego.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripego.String(li.Currency),
				UnitAmount:  stripego.Int64(li.UnitAmount),
				ProductData: product,
			}
		}
		p.LineItems = append(p.LineItems, item)
	}
	for k, v := range in.Metadata {
		p.AddMetadata(k, v)
	}
	return p
}
