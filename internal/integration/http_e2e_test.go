//go:build integration || !unit

package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	server "hotel_booking/internal/adapters/http_server"
	"hotel_booking/internal/adapters/identity"
	redisad "hotel_booking/internal/adapters/redis"
	"hotel_booking/internal/adapters/stripe"
	"hotel_booking/internal/app"
	"hotel_booking/internal/domain"
	mysqlrepo "hotel_booking/internal/storage/mysql"
	"hotel_booking/migrations"
)

const (
	jwtSecret = "e2e-secret"
	whsec     = "whsec_e2e"
)

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=hotels",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/hotels?parseTime=true&charset=utf8mb4,utf8&loc=UTC",
		resource.GetPort("3306/tcp"))

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrations.Apply(context.Background(), db))
	return db
}

// keywordEmbedder puts "beach" texts and everything else on orthogonal axes.
type keywordEmbedder struct{}

func (keywordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if strings.Contains(strings.ToLower(text), "beach") {
		return []float32{1, 0, 0}, nil
	}
	return []float32{0, 1, 0}, nil
}

type downEmbedder struct{}

func (downEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("embedding provider unavailable")
}

type fakeGateway struct {
	mu       sync.Mutex
	sessions map[string]domain.CheckoutSession
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, req domain.CheckoutRequest) (domain.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sessions == nil {
		g.sessions = map[string]domain.CheckoutSession{}
	}
	id := "cs_e2e_" + strconv.Itoa(len(g.sessions)+1)
	s := domain.CheckoutSession{ID: id, ClientSecret: id + "_secret", Status: "open", PaymentStatus: "unpaid", Metadata: req.Metadata}
	g.sessions[id] = s
	return s, nil
}

func (g *fakeGateway) RetrieveCheckoutSession(_ context.Context, id string, _ bool) (domain.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sessions[id]
	if !ok {
		return domain.CheckoutSession{}, domain.NotFound("Checkout session not found")
	}
	return s, nil
}

func (g *fakeGateway) complete(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := g.sessions[id]
	s.Status, s.PaymentStatus = "complete", domain.GatewayPaid
	g.sessions[id] = s
}

type client struct {
	t    *testing.T
	base string
}

func (c client) do(method, path, token string, body any) (int, []byte) {
	c.t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case []byte:
		rd = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(c.t, err)
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, c.base+path, rd)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer res.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(res.Body)
	require.NoError(c.t, err)
	return res.StatusCode, buf.Bytes()
}

func (c client) webhook(payload []byte, header string) int {
	c.t.Helper()
	req, err := http.NewRequest(http.MethodPost, c.base+"/api/stripe/webhook", bytes.NewReader(payload))
	require.NoError(c.t, err)
	req.Header.Set("Stripe-Signature", header)
	res, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	_ = res.Body.Close()
	return res.StatusCode
}

func token(t *testing.T, user, role string) string {
	t.Helper()
	tok, err := identity.IssueHS256(jwtSecret, "", user, role, time.Hour)
	require.NoError(t, err)
	return tok
}

func newServer(t *testing.T, repo *mysqlrepo.Repo, emb domain.Embedder, gw *fakeGateway) client {
	t.Helper()
	mr := miniredis.RunT(t)
	cache := redisad.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = cache.Close() })

	hotels := app.NewHotelService(repo, repo, emb, cache, time.Minute)
	h := &server.Handlers{
		Hotels:    hotels,
		Bookings:  app.NewBookingService(repo, repo),
		Payments:  app.NewPaymentService(repo, repo, gw, stripe.NewWebhook(whsec), app.PaymentOptions{FrontendURL: "http://localhost:5173"}),
		Reviews:   app.NewReviewService(repo, repo, cache),
		Locations: app.NewLocationService(repo),
		Assistant: app.NewAssistantService(hotels, nil),
		Verifier:  identity.NewHMAC(jwtSecret, ""),
	}
	s := server.New(server.Options{AllowedOrigins: []string{"http://localhost:5173"}})
	s.MountHandlers(h)
	ts := httptest.NewServer(s.Mux())
	t.Cleanup(ts.Close)
	return client{t: t, base: ts.URL}
}

func TestHTTP_EndToEnd_BookAndPay(t *testing.T) {
	repo := mysqlrepo.New(startMySQL(t))
	gw := &fakeGateway{}
	c := newServer(t, repo, keywordEmbedder{}, gw)
	admin, ana := token(t, "admin_1", "admin"), token(t, "user_ana", "")

	newHotel := func(name, desc string, price float64) string {
		code, body := c.do(http.MethodPost, "/api/hotels", admin, map[string]any{
			"name": name, "location": "Galle", "city": "Galle", "description": desc,
			"price": price, "stars": 4, "images": []string{"https://img.example/1.jpg"},
		})
		require.Equal(t, http.StatusCreated, code, string(body))
		var h map[string]any
		require.NoError(t, json.Unmarshal(body, &h))
		return h["_id"].(string)
	}
	beach := newHotel("Ocean Breeze", "Rooms right on the beach", 120)
	_ = newHotel("Fort View", "Colonial rooms inside the old fort", 90)

	code, body := c.do(http.MethodGet, "/api/hotels/check-embeddings", admin, nil)
	require.Equal(t, http.StatusOK, code, string(body))
	var status map[string]any
	require.NoError(t, json.Unmarshal(body, &status))
	assert.Equal(t, 0.0, status["withoutEmbeddings"])

	code, body = c.do(http.MethodGet, "/api/hotels/search?query=beach", "", nil)
	require.Equal(t, http.StatusOK, code, string(body))
	var hits []map[string]any
	require.NoError(t, json.Unmarshal(body, &hits))
	require.NotEmpty(t, hits)
	assert.Equal(t, beach, hits[0]["_id"])
	assert.InDelta(t, 1.0, hits[0]["score"], 1e-6)

	code, body = c.do(http.MethodPost, "/api/bookings/add", ana, map[string]any{
		"hotelId":        beach,
		"checkInDate":    "2030-01-08",
		"checkOutDate":   "2030-01-10",
		"numberOfGuests": 2,
		"totalAmount":    240,
		"guestDetails":   map[string]string{"name": "Ana", "email": "ana@example.com", "phone": "123"},
	})
	require.Equal(t, http.StatusCreated, code, string(body))
	var created struct {
		Data struct {
			ID string `json:"_id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &created))
	bookingID := created.Data.ID
	require.NotEmpty(t, bookingID)

	code, body = c.do(http.MethodPost, "/api/payments/create-checkout-session", ana, map[string]string{"bookingId": bookingID})
	require.Equal(t, http.StatusOK, code, string(body))
	var checkout map[string]any
	require.NoError(t, json.Unmarshal(body, &checkout))
	sessionID := checkout["sessionId"].(string)

	gw.complete(sessionID)
	payload := []byte(`{"id":"evt_e2e","type":"checkout.session.completed","data":{"object":{"id":"` + sessionID + `"}}}`)
	assert.Equal(t, http.StatusBadRequest, c.webhook(payload, "t=1,v1=00"))
	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, c.webhook(payload, stripe.SignatureHeader(whsec, payload, time.Now())))
	}

	b, err := repo.GetBooking(context.Background(), bookingID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, b.PaymentStatus)
	assert.Equal(t, sessionID, b.PaymentReference)

	code, body = c.do(http.MethodPatch, "/api/bookings/"+bookingID+"/cancel", ana, map[string]string{"userId": "user_ana"})
	require.Equal(t, http.StatusOK, code, string(body))
	b, err = repo.GetBooking(context.Background(), bookingID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, b.PaymentStatus)

	code, body = c.do(http.MethodPost, "/api/reviews", ana, map[string]any{"hotelId": beach, "rating": 5, "comment": "Lovely"})
	require.Equal(t, http.StatusCreated, code, string(body))
	code, body = c.do(http.MethodGet, "/api/hotels/"+beach, ana, nil)
	require.Equal(t, http.StatusOK, code, string(body))
	var hotel map[string]any
	require.NoError(t, json.Unmarshal(body, &hotel))
	assert.Equal(t, 1.0, hotel["reviews"], "review invalidates the cached hotel")
}

func TestHTTP_EndToEnd_SearchFallsBackToText(t *testing.T) {
	repo := mysqlrepo.New(startMySQL(t))
	c := newServer(t, repo, downEmbedder{}, &fakeGateway{})
	admin := token(t, "admin_1", "admin")

	code, body := c.do(http.MethodPost, "/api/hotels", admin, map[string]any{
		"name": "Hill Top", "location": "Ella", "city": "Ella", "description": "Tea country views",
		"price": 70, "stars": 3, "images": []string{"https://img.example/2.jpg"},
	})
	require.Equal(t, http.StatusCreated, code, string(body))

	code, body = c.do(http.MethodGet, "/api/hotels/search?query=TEA", "", nil)
	require.Equal(t, http.StatusOK, code, string(body))
	var hits []map[string]any
	require.NoError(t, json.Unmarshal(body, &hits))
	require.Len(t, hits, 1)
	assert.Equal(t, "Hill Top", hits[0]["name"])

	code, body = c.do(http.MethodGet, "/api/hotels/check-embeddings", admin, nil)
	require.Equal(t, http.StatusOK, code, string(body))
	var status map[string]any
	require.NoError(t, json.Unmarshal(body, &status))
	assert.Equal(t, 1.0, status["withoutEmbeddings"])
}
