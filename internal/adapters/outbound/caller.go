package outbound

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"hotel_booking/internal/adapters/observability"
)

var (
	ErrNotFound     = errors.New("outbound: not found")
	ErrUnauthorized = errors.New("outbound: unauthorized")
	ErrForbidden    = errors.New("outbound: forbidden")
)

// StatusError is a non-retryable remote failure with a snippet of the body.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bad status %d: %s", e.Code, e.Body)
}

// Caller is a rate-limited JSON HTTP client shared by the gateway adapters.
type Caller struct {
	service  string
	hc       *http.Client
	rl       *rate.Limiter
	decorate func(*http.Request)
	attempts int
}

type Option func(*Caller)

// WithHeaders sets a hook that decorates every outgoing request (auth, versioning).
func WithHeaders(fn func(*http.Request)) Option { return func(c *Caller) { c.decorate = fn } }

func WithTimeout(d time.Duration) Option { return func(c *Caller) { c.hc.Timeout = d } }

func New(service string, rps int, opts ...Option) *Caller {
	if rps <= 0 {
		rps = 5
	}
	c := &Caller{
		service:  service,
		hc:       &http.Client{Timeout: 20 * time.Second},
		rl:       rate.NewLimiter(rate.Limit(rps), rps),
		attempts: 4,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Request describes one logical call. Endpoint is the metrics label, not the URL,
// so ids in paths do not explode label cardinality.
type Request struct {
	Method      string
	URL         string
	Endpoint    string
	Body        []byte
	ContentType string
	Header      http.Header
}

// JSON builds a request with a JSON-encoded body.
func JSON(method, url, endpoint string, body any) (Request, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return Request{}, err
	}
	return Request{Method: method, URL: url, Endpoint: endpoint, Body: b, ContentType: "application/json"}, nil
}

// Do performs r with client-side rate limiting, retries, and JSON decode into out.
// Retries on 429 and transient 5xx, honoring Retry-After when provided.
func (c *Caller) Do(ctx context.Context, r Request, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}
	if r.Method == "" {
		r.Method = http.MethodGet
	}

	var lastErr error
	last := c.attempts - 1
	for i := 0; i < c.attempts; i++ {
		req, err := c.build(ctx, r)
		if err != nil {
			return err
		}

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal(c.service, r.Endpoint, 0, time.Since(start))
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < last && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal(c.service, r.Endpoint, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK, http.StatusCreated, http.StatusAccepted:
			var err error
			if out != nil {
				err = json.NewDecoder(resp.Body).Decode(out)
			}
			resp.Body.Close()
			return err

		case http.StatusNoContent:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil

		case http.StatusNotFound:
			resp.Body.Close()
			return ErrNotFound

		case http.StatusUnauthorized:
			resp.Body.Close()
			return ErrUnauthorized

		case http.StatusForbidden:
			resp.Body.Close()
			return ErrForbidden

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("%s: remote %d", c.service, resp.StatusCode)
			if i < last && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
		}
	}

	return lastErr
}

// build makes a fresh request each attempt; the body reader is single-use.
func (c *Caller) build(ctx context.Context, r Request) (*http.Request, error) {
	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, body)
	if err != nil {
		return nil, err
	}
	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if r.ContentType != "" {
		req.Header.Set("Content-Type", r.ContentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "hotel-booking/1.0")
	if c.decorate != nil {
		c.decorate(req)
	}
	return req, nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles from 200ms per attempt with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
