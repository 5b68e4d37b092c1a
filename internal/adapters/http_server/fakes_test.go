package httpserver_test

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"hotel_booking/internal/domain"
)

// store is an in-memory implementation of every repository port.
type store struct {
	mu        sync.Mutex
	seq       int
	hotels    map[string]domain.Hotel
	bookings  map[string]domain.Booking
	reviews   []domain.Review
	locations map[string]domain.Location

	paidWrites int
}

func newStore() *store {
	return &store{
		hotels:    map[string]domain.Hotel{},
		bookings:  map[string]domain.Booking{},
		locations: map[string]domain.Location{},
	}
}

func (s *store) id(prefix string) string {
	s.seq++
	return prefix + strconv.Itoa(s.seq)
}

func (s *store) CreateHotel(_ context.Context, h *domain.Hotel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h.ID = s.id("h")
	s.hotels[h.ID] = *h
	return nil
}

func (s *store) UpdateHotel(_ context.Context, h domain.Hotel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hotels[h.ID]; !ok {
		return domain.ErrNotFound
	}
	s.hotels[h.ID] = h
	return nil
}

func (s *store) UpdateHotelPrice(_ context.Context, id string, price float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hotels[id]
	if !ok {
		return domain.ErrNotFound
	}
	h.Price = price
	s.hotels[id] = h
	return nil
}

func (s *store) SetHotelEmbedding(_ context.Context, id string, v []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hotels[id]
	if !ok {
		return domain.ErrNotFound
	}
	h.Embedding = v
	s.hotels[id] = h
	return nil
}

func (s *store) DeleteHotel(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hotels[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.hotels, id)
	return nil
}

func (s *store) GetHotel(_ context.Context, id string) (domain.Hotel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hotels[id]
	if !ok {
		return domain.Hotel{}, domain.ErrNotFound
	}
	return h, nil
}

func (s *store) ListHotels(_ context.Context) ([]domain.Hotel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Hotel, 0, len(s.hotels))
	for _, h := range s.hotels {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *store) SearchHotelsText(ctx context.Context, q string, limit int) ([]domain.Hotel, error) {
	hs, _ := s.ListHotels(ctx)
	q = strings.ToLower(q)
	var out []domain.Hotel
	for _, h := range hs {
		if strings.Contains(strings.ToLower(h.Name+" "+h.Location+" "+h.Description), q) && len(out) < limit {
			out = append(out, h)
		}
	}
	return out, nil
}

func (s *store) CreateBooking(_ context.Context, b *domain.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = s.id("b")
	b.CreatedAt = time.Now().UTC()
	s.bookings[b.ID] = *b
	return nil
}

func (s *store) GetBooking(_ context.Context, id string) (domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return domain.Booking{}, domain.ErrNotFound
	}
	return b, nil
}

func (s *store) mine(q domain.BookingQuery) []domain.Booking {
	var out []domain.Booking
	for _, b := range s.bookings {
		if b.UserID == q.UserID && (q.Status == "" || b.PaymentStatus == q.Status) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s *store) ListBookings(_ context.Context, q domain.BookingQuery) ([]domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.mine(q)
	if q.Offset() >= len(all) {
		return nil, nil
	}
	end := min(q.Offset()+q.Limit, len(all))
	return all[q.Offset():end], nil
}

func (s *store) CountBookings(_ context.Context, q domain.BookingQuery) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.mine(q))), nil
}

func (s *store) StatusTotals(_ context.Context, userID string) ([]domain.StatusTotal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	by := map[domain.PaymentStatus]domain.StatusTotal{}
	for _, b := range s.mine(domain.BookingQuery{UserID: userID}) {
		t := by[b.PaymentStatus]
		t.Status = b.PaymentStatus
		t.Count++
		t.Amount += b.TotalAmount
		by[b.PaymentStatus] = t
	}
	var out []domain.StatusTotal
	for _, t := range by {
		out = append(out, t)
	}
	return out, nil
}

func (s *store) BookingStats(_ context.Context, userID string, _ time.Time) (domain.BookingStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.BookingStats{TotalBookings: int64(len(s.mine(domain.BookingQuery{UserID: userID})))}, nil
}

func (s *store) TransitionStatus(_ context.Context, id string, from, to domain.PaymentStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if b.PaymentStatus != from {
		return false, nil
	}
	b.PaymentStatus = to
	s.bookings[id] = b
	if to == domain.StatusPaid {
		s.paidWrites++
	}
	return true, nil
}

func (s *store) SetPaymentReference(_ context.Context, id, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return domain.ErrNotFound
	}
	b.PaymentReference = ref
	s.bookings[id] = b
	return nil
}

func (s *store) CreateReview(_ context.Context, r *domain.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.id("r")
	s.reviews = append(s.reviews, *r)
	h := s.hotels[r.HotelID]
	h.ReviewCount++
	s.hotels[r.HotelID] = h
	return nil
}

func (s *store) ListReviews(_ context.Context, hotelID string) ([]domain.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Review
	for _, r := range s.reviews {
		if r.HotelID == hotelID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *store) CreateLocation(_ context.Context, l *domain.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.ID = s.id("l")
	s.locations[l.ID] = *l
	return nil
}

func (s *store) GetLocation(_ context.Context, id string) (domain.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locations[id]
	if !ok {
		return domain.Location{}, domain.ErrNotFound
	}
	return l, nil
}

func (s *store) ListLocations(_ context.Context) ([]domain.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Location
	for _, l := range s.locations {
		out = append(out, l)
	}
	return out, nil
}

func (s *store) UpdateLocation(_ context.Context, l domain.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.locations[l.ID]; !ok {
		return domain.ErrNotFound
	}
	s.locations[l.ID] = l
	return nil
}

func (s *store) DeleteLocation(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.locations[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.locations, id)
	return nil
}

// brokenVector simulates a missing vector index.
type brokenVector struct{}

func (brokenVector) SearchHotelsVector(context.Context, []float32, int, int) ([]domain.ScoredHotel, error) {
	return nil, errors.New("index hotel_vector_index not found")
}

type staticEmbedder struct{}

func (staticEmbedder) Embed(context.Context, string) ([]float32, error) { return []float32{1, 0}, nil }

type gateway struct {
	mu       sync.Mutex
	sessions map[string]domain.CheckoutSession
}

func (g *gateway) CreateCheckoutSession(_ context.Context, req domain.CheckoutRequest) (domain.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sessions == nil {
		g.sessions = map[string]domain.CheckoutSession{}
	}
	id := "cs_test_" + strconv.Itoa(len(g.sessions)+1)
	s := domain.CheckoutSession{ID: id, ClientSecret: id + "_secret", Status: "open", PaymentStatus: "unpaid", Metadata: req.Metadata}
	g.sessions[id] = s
	return s, nil
}

func (g *gateway) RetrieveCheckoutSession(_ context.Context, id string, _ bool) (domain.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sessions[id]
	if !ok {
		return domain.CheckoutSession{}, domain.NotFound("Checkout session not found")
	}
	return s, nil
}

func (g *gateway) complete(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := g.sessions[id]
	s.Status, s.PaymentStatus = "complete", domain.GatewayPaid
	g.sessions[id] = s
}
