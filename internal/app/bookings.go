package app

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"hotel_booking/internal/adapters/observability"
	"hotel_booking/internal/domain"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100

	// keeps (page-1)*limit far from int overflow on any platform
	maxPage = 1_000_000
)

type BookingService struct {
	bookings domain.BookingRepository
	hotels   domain.HotelRepository
	now      func() time.Time
}

func NewBookingService(b domain.BookingRepository, h domain.HotelRepository) *BookingService {
	return &BookingService{bookings: b, hotels: h, now: time.Now}
}

// WithClock pins "now" for cancellation and statistics; tests only.
func (s *BookingService) WithClock(now func() time.Time) *BookingService {
	s.now = now
	return s
}

func (s *BookingService) Create(ctx context.Context, userID string, b domain.Booking) (domain.Booking, error) {
	if userID == "" {
		return domain.Booking{}, domain.Unauthorized("Unauthorized: User not logged in")
	}
	h, err := s.hotels.GetHotel(ctx, b.HotelID)
	if err != nil {
		return domain.Booking{}, hotelErr(err)
	}

	b.ID = ""
	b.UserID = userID
	b.PaymentStatus = domain.StatusPending
	b.PaymentReference = ""
	b.Normalize()
	if err := b.Validate(); err != nil {
		return domain.Booking{}, err
	}
	if err := s.bookings.CreateBooking(ctx, &b); err != nil {
		return domain.Booking{}, err
	}
	sum := h.Summary()
	b.Hotel = &sum
	log.Info().Str("booking_id", b.ID).Str("hotel_id", b.HotelID).Msg("booking created")
	return b, nil
}

type Pagination struct {
	Current       int   `json:"current"`
	Total         int   `json:"total"`
	TotalBookings int64 `json:"totalBookings"`
	Limit         int   `json:"limit"`
}

type BookingStatistics struct {
	Total      int64   `json:"total"`
	Paid       int64   `json:"paid"`
	Pending    int64   `json:"pending"`
	TotalSpent float64 `json:"totalSpent"`
}

type BookingPage struct {
	Bookings   []domain.Booking  `json:"bookings"`
	Pagination Pagination        `json:"pagination"`
	Statistics BookingStatistics `json:"statistics"`
}

// normalizeQuery clamps paging and resolves the sort field. Status "ALL" means no filter.
func normalizeQuery(q domain.BookingQuery) (domain.BookingQuery, error) {
	switch {
	case q.Page < 1:
		q.Page = 1
	case q.Page > maxPage:
		q.Page = maxPage
	}
	switch {
	case q.Limit < 1:
		q.Limit = defaultPageSize
	case q.Limit > maxPageSize:
		q.Limit = maxPageSize
	}
	if q.SortBy == "" {
		q.SortBy = "createdAt"
	}
	f, ok := domain.SortFields[q.SortBy]
	if !ok {
		return q, domain.InvalidFields("Invalid query", map[string]string{"sortBy": "unsupported sort field"})
	}
	q.SortBy = f
	if q.Status == "ALL" {
		q.Status = ""
	}
	if q.Status != "" && !q.Status.Valid() {
		return q, domain.InvalidFields("Invalid query", map[string]string{"status": "unknown payment status"})
	}
	return q, nil
}

func authorize(subject, userID string) error {
	if subject == "" || subject != userID {
		return domain.Forbidden("Unauthorized access")
	}
	return nil
}

func (s *BookingService) ListForUser(ctx context.Context, subject string, q domain.BookingQuery) (BookingPage, error) {
	if err := authorize(subject, q.UserID); err != nil {
		return BookingPage{}, err
	}
	q, err := normalizeQuery(q)
	if err != nil {
		return BookingPage{}, err
	}

	var (
		items  []domain.Booking
		total  int64
		totals []domain.StatusTotal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { items, err = s.bookings.ListBookings(gctx, q); return })
	g.Go(func() (err error) { total, err = s.bookings.CountBookings(gctx, q); return })
	g.Go(func() (err error) { totals, err = s.bookings.StatusTotals(gctx, q.UserID); return })
	if err := g.Wait(); err != nil {
		return BookingPage{}, err
	}

	if items == nil {
		items = []domain.Booking{}
	}
	page := BookingPage{
		Bookings: items,
		Pagination: Pagination{
			Current:       q.Page,
			Total:         int(math.Ceil(float64(total) / float64(q.Limit))),
			TotalBookings: total,
			Limit:         q.Limit,
		},
		Statistics: BookingStatistics{Total: total},
	}
	for _, t := range totals {
		switch t.Status {
		case domain.StatusPaid:
			page.Statistics.Paid = t.Count
			page.Statistics.TotalSpent = t.Amount
		case domain.StatusPending:
			page.Statistics.Pending = t.Count
		}
	}
	return page, nil
}

// Get returns the booking only if it belongs to userID.
func (s *BookingService) Get(ctx context.Context, subject, bookingID, userID string) (domain.Booking, error) {
	if err := authorize(subject, userID); err != nil {
		return domain.Booking{}, err
	}
	return s.owned(ctx, bookingID, userID)
}

func (s *BookingService) owned(ctx context.Context, bookingID, userID string) (domain.Booking, error) {
	b, err := s.bookings.GetBooking(ctx, bookingID)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && b.UserID != userID) {
		return domain.Booking{}, domain.NotFound("Booking not found")
	}
	if err != nil {
		return domain.Booking{}, err
	}
	return b, nil
}

func (s *BookingService) Cancel(ctx context.Context, subject, bookingID, userID string) (domain.Booking, error) {
	if err := authorize(subject, userID); err != nil {
		return domain.Booking{}, err
	}
	b, err := s.owned(ctx, bookingID, userID)
	if err != nil {
		return domain.Booking{}, err
	}
	switch b.PaymentStatus {
	case domain.StatusCancelled:
		return domain.Booking{}, domain.Invalid("Booking is already cancelled")
	case domain.StatusRefunded:
		return domain.Booking{}, domain.Invalid("Booking has been refunded")
	}
	if !s.now().Before(b.CheckInDate) {
		return domain.Booking{}, domain.Invalid("Cannot cancel booking after check-in date")
	}

	changed, err := s.bookings.TransitionStatus(ctx, b.ID, b.PaymentStatus, domain.StatusCancelled)
	if err != nil {
		return domain.Booking{}, err
	}
	if !changed {
		// someone else moved the booking since we read it
		return domain.Booking{}, domain.Conflict("Booking status changed, please retry")
	}
	observability.ObservePaymentTransition("guest", string(domain.StatusCancelled))
	log.Info().Str("booking_id", b.ID).Str("from", string(b.PaymentStatus)).Msg("booking cancelled")

	b.PaymentStatus = domain.StatusCancelled
	b.UpdatedAt = s.now().UTC()
	return b, nil
}

func (s *BookingService) Stats(ctx context.Context, subject, userID string) (domain.BookingStats, error) {
	if err := authorize(subject, userID); err != nil {
		return domain.BookingStats{}, err
	}
	return s.bookings.BookingStats(ctx, userID, s.now())
}
