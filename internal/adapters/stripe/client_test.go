package stripe_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/form"

	"hotel_booking/internal/adapters/stripe"
	"hotel_booking/internal/domain"
)

func encode(in domain.CheckoutRequest) url.Values {
	v := &form.Values{}
	form.AppendTo(v, stripe.CheckoutParams(in))
	return v.ToValues()
}

func TestCheckoutParams_PriceData(t *testing.T) {
	v := encode(domain.CheckoutRequest{
		ReturnURL:     "http://app/booking/complete?session_id={CHECKOUT_SESSION_ID}",
		CustomerEmail: "guest@example.com",
		Metadata:      map[string]string{"bookingId": "b1"},
		LineItems: []domain.LineItem{{
			Quantity:    3,
			Currency:    "usd",
			ProductName: "Grand",
			Description: "Deluxe | 3 nights",
			Images:      []string{"https://img/1.jpg"},
			UnitAmount:  12050,
		}},
	})

	assert.Equal(t, "embedded", v.Get("ui_mode"))
	assert.Equal(t, "payment", v.Get("mode"))
	assert.Equal(t, "card", v.Get("payment_method_types[0]"))
	assert.Equal(t, "guest@example.com", v.Get("customer_email"))
	assert.Equal(t, "3", v.Get("line_items[0][quantity]"))
	assert.Equal(t, "usd", v.Get("line_items[0][price_data][currency]"))
	assert.Equal(t, "12050", v.Get("line_items[0][price_data][unit_amount]"))
	assert.Equal(t, "Grand", v.Get("line_items[0][price_data][product_data][name]"))
	assert.Equal(t, "https://img/1.jpg", v.Get("line_items[0][price_data][product_data][images][0]"))
	assert.Equal(t, "b1", v.Get("metadata[bookingId]"))
	assert.Empty(t, v.Get("line_items[0][price]"))
}

func TestCheckoutParams_PriceID(t *testing.T) {
	v := encode(domain.CheckoutRequest{
		LineItems: []domain.LineItem{{PriceID: "price_123", Quantity: 2}},
	})
	assert.Equal(t, "price_123", v.Get("line_items[0][price]"))
	assert.Equal(t, "2", v.Get("line_items[0][quantity]"))
	assert.Empty(t, v.Get("line_items[0][price_data][currency]"))
	assert.Empty(t, v.Get("customer_email"))
}

func TestClient_CreateAndRetrieve(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("Authorization") != "Bearer sk_test" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"bad key"}}`))
			return
		}
		assert.NotEmpty(t, r.Header.Get("Stripe-Version"))
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/checkout/sessions":
			require.NoError(t, r.ParseForm())
			assert.NotEmpty(t, r.Header.Get("Idempotency-Key"))
			assert.Equal(t, "b1", r.PostForm.Get("metadata[bookingId]"))
			assert.Equal(t, "price_1", r.PostForm.Get("line_items[0][price]"))
			_, _ = w.Write([]byte(`{"id":"cs_1","object":"checkout.session","client_secret":"cs_1_secret","status":"open","payment_status":"unpaid"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/v1/checkout/sessions/cs_1":
			assert.Equal(t, "line_items", r.URL.Query().Get("expand[0]"))
			_, _ = w.Write([]byte(`{"id":"cs_1","object":"checkout.session","status":"complete","payment_status":"paid",
				"customer_details":{"email":"guest@example.com"},"metadata":{"bookingId":"b1"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","code":"resource_missing","message":"No such checkout.session"}}`))
		}
	}))
	defer ts.Close()

	c, err := stripe.New(ts.URL, "sk_test", 100)
	require.NoError(t, err)
	ctx := context.Background()

	s, err := c.CreateCheckoutSession(ctx, domain.CheckoutRequest{
		ReturnURL: "http://app/return",
		Metadata:  map[string]string{"bookingId": "b1"},
		LineItems: []domain.LineItem{{PriceID: "price_1", Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_1", s.ID)
	assert.Equal(t, "cs_1_secret", s.ClientSecret)
	assert.Equal(t, "open", s.Status)

	s, err = c.RetrieveCheckoutSession(ctx, "cs_1", true)
	require.NoError(t, err)
	assert.True(t, s.Paid())
	assert.Equal(t, "guest@example.com", s.CustomerEmail)
	assert.Equal(t, "b1", s.Metadata["bookingId"])

	_, err = c.RetrieveCheckoutSession(ctx, "cs_missing", false)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestClient_BadKeyIsNotNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"Invalid API Key provided"}}`))
	}))
	defer ts.Close()

	c, err := stripe.New(ts.URL, "sk_wrong", 100)
	require.NoError(t, err)
	_, err = c.RetrieveCheckoutSession(context.Background(), "cs_1", false)
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrNotFound))
}

func TestNew_RequiresKey(t *testing.T) {
	_, err := stripe.New("http://x", "", 1)
	assert.Error(t, err)
}
