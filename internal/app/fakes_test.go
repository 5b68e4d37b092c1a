package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"hotel_booking/internal/domain"
)

// ---- fakes ----

type memStore struct {
	mu        sync.Mutex
	seq       int
	hotels    map[string]domain.Hotel
	bookings  map[string]domain.Booking
	reviews   []domain.Review
	locations map[string]domain.Location

	transitions int // successful status writes
	listErr     error
}

func newStore() *memStore {
	return &memStore{
		hotels:    map[string]domain.Hotel{},
		bookings:  map[string]domain.Booking{},
		locations: map[string]domain.Location{},
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return prefix + strconv.Itoa(m.seq)
}

func (m *memStore) CreateHotel(ctx context.Context, h *domain.Hotel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h.ID = m.nextID("h")
	m.hotels[h.ID] = *h
	return nil
}

func (m *memStore) UpdateHotel(ctx context.Context, h domain.Hotel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.hotels[h.ID]; !ok {
		return domain.ErrNotFound
	}
	m.hotels[h.ID] = h
	return nil
}

func (m *memStore) UpdateHotelPrice(ctx context.Context, id string, price float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hotels[id]
	if !ok {
		return domain.ErrNotFound
	}
	h.Price = price
	m.hotels[id] = h
	return nil
}

func (m *memStore) SetHotelEmbedding(ctx context.Context, id string, v []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hotels[id]
	if !ok {
		return domain.ErrNotFound
	}
	h.Embedding = v
	m.hotels[id] = h
	return nil
}

func (m *memStore) DeleteHotel(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.hotels[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.hotels, id)
	return nil
}

func (m *memStore) GetHotel(ctx context.Context, id string) (domain.Hotel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hotels[id]
	if !ok {
		return domain.Hotel{}, domain.ErrNotFound
	}
	return h, nil
}

func (m *memStore) ListHotels(ctx context.Context) ([]domain.Hotel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]domain.Hotel, 0, len(m.hotels))
	for _, h := range m.hotels {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) SearchHotelsText(ctx context.Context, q string, limit int) ([]domain.Hotel, error) {
	hs, _ := m.ListHotels(ctx)
	q = strings.ToLower(q)
	var out []domain.Hotel
	for _, h := range hs {
		if strings.Contains(strings.ToLower(h.Name+"\x00"+h.Location+"\x00"+h.Description), q) {
			out = append(out, h)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memStore) CreateBooking(ctx context.Context, b *domain.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = m.nextID("b")
	b.CreatedAt = time.Now()
	m.bookings[b.ID] = *b
	return nil
}

func (m *memStore) GetBooking(ctx context.Context, id string) (domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return domain.Booking{}, domain.ErrNotFound
	}
	return b, nil
}

func (m *memStore) filter(q domain.BookingQuery) []domain.Booking {
	var out []domain.Booking
	for _, b := range m.bookings {
		if b.UserID == q.UserID && (q.Status == "" || b.PaymentStatus == q.Status) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (m *memStore) ListBookings(ctx context.Context, q domain.BookingQuery) ([]domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.filter(q)
	if q.Offset() >= len(all) {
		return nil, nil
	}
	end := q.Offset() + q.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[q.Offset():end], nil
}

func (m *memStore) CountBookings(ctx context.Context, q domain.BookingQuery) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.filter(q))), nil
}

func (m *memStore) StatusTotals(ctx context.Context, userID string) ([]domain.StatusTotal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	by := map[domain.PaymentStatus]*domain.StatusTotal{}
	for _, b := range m.filter(domain.BookingQuery{UserID: userID}) {
		t, ok := by[b.PaymentStatus]
		if !ok {
			t = &domain.StatusTotal{Status: b.PaymentStatus}
			by[b.PaymentStatus] = t
		}
		t.Count++
		t.Amount += b.TotalAmount
	}
	var out []domain.StatusTotal
	for _, t := range by {
		out = append(out, *t)
	}
	return out, nil
}

func (m *memStore) BookingStats(ctx context.Context, userID string, now time.Time) (domain.BookingStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var st domain.BookingStats
	for _, b := range m.filter(domain.BookingQuery{UserID: userID}) {
		st.TotalBookings++
		if b.PaymentStatus != domain.StatusPaid {
			continue
		}
		st.TotalSpent += b.TotalAmount
		if !b.CheckInDate.Before(now) {
			st.UpcomingBookings++
		}
		if b.CheckOutDate.Before(now) {
			st.CompletedBookings++
		}
	}
	return st, nil
}

func (m *memStore) TransitionStatus(ctx context.Context, id string, from, to domain.PaymentStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if b.PaymentStatus != from {
		return false, nil
	}
	b.PaymentStatus = to
	m.bookings[id] = b
	m.transitions++
	return true, nil
}

func (m *memStore) SetPaymentReference(ctx context.Context, id, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return domain.ErrNotFound
	}
	b.PaymentReference = ref
	m.bookings[id] = b
	return nil
}

func (m *memStore) CreateReview(ctx context.Context, r *domain.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = m.nextID("r")
	r.CreatedAt = time.Now()
	m.reviews = append(m.reviews, *r)
	h := m.hotels[r.HotelID]
	h.ReviewCount++
	m.hotels[r.HotelID] = h
	return nil
}

func (m *memStore) ListReviews(ctx context.Context, hotelID string) ([]domain.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Review
	for i := len(m.reviews) - 1; i >= 0; i-- {
		if m.reviews[i].HotelID == hotelID {
			out = append(out, m.reviews[i])
		}
	}
	return out, nil
}

func (m *memStore) CreateLocation(ctx context.Context, l *domain.Location) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.ID = m.nextID("l")
	m.locations[l.ID] = *l
	return nil
}

func (m *memStore) GetLocation(ctx context.Context, id string) (domain.Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locations[id]
	if !ok {
		return domain.Location{}, domain.ErrNotFound
	}
	return l, nil
}

func (m *memStore) ListLocations(ctx context.Context) ([]domain.Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Location
	for _, l := range m.locations {
		out = append(out, l)
	}
	return out, nil
}

func (m *memStore) UpdateLocation(ctx context.Context, l domain.Location) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.locations[l.ID]; !ok {
		return domain.ErrNotFound
	}
	m.locations[l.ID] = l
	return nil
}

func (m *memStore) DeleteLocation(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.locations[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.locations, id)
	return nil
}

// fakeCache round-trips through JSON like the real adapter does.
type fakeCache struct {
	mu    sync.Mutex
	store map[string][]byte
	dels  []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	c.dels = append(c.dels, key)
	return nil
}

type fakeEmbedder struct {
	mu    sync.Mutex
	calls int
	err   error
	fail  map[string]bool // texts that fail
}

func (e *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	if e.fail[text] {
		return nil, errors.New("embedding rejected")
	}
	return []float32{1, 0, 0}, nil
}

type fakeVector struct {
	out []domain.ScoredHotel
	err error

	gotCandidates, gotLimit int
}

func (v *fakeVector) SearchHotelsVector(ctx context.Context, vec []float32, numCandidates, limit int) ([]domain.ScoredHotel, error) {
	v.gotCandidates, v.gotLimit = numCandidates, limit
	return v.out, v.err
}

type fakeChat struct {
	out            string
	err            error
	system, prompt string
}

func (c *fakeChat) Complete(ctx context.Context, system, user string) (string, error) {
	c.system, c.prompt = system, user
	return c.out, c.err
}

type fakeGateway struct {
	mu       sync.Mutex
	created  []domain.CheckoutRequest
	sessions map[string]domain.CheckoutSession
	err      error
}

func (g *fakeGateway) CreateCheckoutSession(ctx context.Context, req domain.CheckoutRequest) (domain.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return domain.CheckoutSession{}, g.err
	}
	g.created = append(g.created, req)
	id := "cs_" + strconv.Itoa(len(g.created))
	s := domain.CheckoutSession{ID: id, ClientSecret: id + "_secret", Status: "open", PaymentStatus: "unpaid", Metadata: req.Metadata}
	if g.sessions == nil {
		g.sessions = map[string]domain.CheckoutSession{}
	}
	g.sessions[id] = s
	return s, nil
}

func (g *fakeGateway) RetrieveCheckoutSession(ctx context.Context, id string, expand bool) (domain.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sessions[id]
	if !ok {
		return domain.CheckoutSession{}, domain.NotFound("Checkout session not found")
	}
	return s, nil
}

func (g *fakeGateway) pay(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := g.sessions[id]
	s.Status, s.PaymentStatus = "complete", domain.GatewayPaid
	g.sessions[id] = s
}

func ptr[T any](v T) *T { return &v }
