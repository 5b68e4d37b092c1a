package outbound

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"hotel_booking/internal/adapters/observability"
)

// Transport applies the same client-side rate limit and external-call metrics
// as Caller to clients that bring their own request loop (SDK backends).
// Retries stay with the SDK.
type Transport struct {
	service string
	base    http.RoundTripper
	rl      *rate.Limiter
	label   func(*http.Request) string
}

// NewTransport wraps base (http.DefaultTransport when nil). label names the
// endpoint for metrics; it must not return ids.
func NewTransport(service string, rps int, base http.RoundTripper, label func(*http.Request) string) *Transport {
	if rps <= 0 {
		rps = 5
	}
	if base == nil {
		base = http.DefaultTransport
	}
	if label == nil {
		label = func(r *http.Request) string { return r.Method }
	}
	return &Transport{service: service, base: base, rl: rate.NewLimiter(rate.Limit(rps), rps), label: label}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.rl.Wait(req.Context()); err != nil {
		return nil, err
	}
	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	observability.ObserveExternal(t.service, t.label(req), status, time.Since(start))
	return resp, err
}
