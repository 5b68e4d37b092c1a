package domain

import (
	"context"
	"time"
)

type HotelRepository interface {
	// Write paths
	CreateHotel(ctx context.Context, h *Hotel) error
	UpdateHotel(ctx context.Context, h Hotel) error
	UpdateHotelPrice(ctx context.Context, id string, price float64) error
	SetHotelEmbedding(ctx context.Context, id string, embedding []float32) error
	DeleteHotel(ctx context.Context, id string) error

	// Read paths
	GetHotel(ctx context.Context, id string) (Hotel, error)
	ListHotels(ctx context.Context) ([]Hotel, error)
	SearchHotelsText(ctx context.Context, query string, limit int) ([]Hotel, error)
}

// VectorSearcher ranks hotels by similarity of their embedding to vec.
type VectorSearcher interface {
	SearchHotelsVector(ctx context.Context, vec []float32, numCandidates, limit int) ([]ScoredHotel, error)
}

type BookingRepository interface {
	CreateBooking(ctx context.Context, b *Booking) error
	GetBooking(ctx context.Context, id string) (Booking, error)
	ListBookings(ctx context.Context, q BookingQuery) ([]Booking, error)
	CountBookings(ctx context.Context, q BookingQuery) (int64, error)
	StatusTotals(ctx context.Context, userID string) ([]StatusTotal, error)
	BookingStats(ctx context.Context, userID string, now time.Time) (BookingStats, error)
	// TransitionStatus moves the booking from -> to only if it is still in from.
	// changed is false when another writer got there first.
	TransitionStatus(ctx context.Context, id string, from, to PaymentStatus) (changed bool, err error)
	SetPaymentReference(ctx context.Context, id, ref string) error
}

type ReviewRepository interface {
	// CreateReview stores r and bumps the hotel's review count.
	CreateReview(ctx context.Context, r *Review) error
	ListReviews(ctx context.Context, hotelID string) ([]Review, error)
}

type LocationRepository interface {
	CreateLocation(ctx context.Context, l *Location) error
	GetLocation(ctx context.Context, id string) (Location, error)
	ListLocations(ctx context.Context) ([]Location, error)
	UpdateLocation(ctx context.Context, l Location) error
	DeleteLocation(ctx context.Context, id string) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type ChatModel interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (CheckoutSession, error)
	RetrieveCheckoutSession(ctx context.Context, id string, expandLineItems bool) (CheckoutSession, error)
}

type WebhookVerifier interface {
	ConstructEvent(payload []byte, signatureHeader string) (GatewayEvent, error)
}

type TokenVerifier interface {
	Verify(ctx context.Context, token string) (Principal, error)
}
