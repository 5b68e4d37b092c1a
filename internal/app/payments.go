package app

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"hotel_booking/internal/adapters/observability"
	"hotel_booking/internal/domain"
)

type PaymentService struct {
	bookings    domain.BookingRepository
	hotels      domain.HotelRepository
	gateway     domain.PaymentGateway
	verifier    domain.WebhookVerifier
	frontendURL string
	pollWrites  bool
}

type PaymentOptions struct {
	FrontendURL string
	// PollWrites lets the session-status poll mark bookings paid. When false
	// only the webhook writes PAID.
	PollWrites bool
}

func NewPaymentService(b domain.BookingRepository, h domain.HotelRepository, g domain.PaymentGateway, v domain.WebhookVerifier, opt PaymentOptions) *PaymentService {
	return &PaymentService{
		bookings:    b,
		hotels:      h,
		gateway:     g,
		verifier:    v,
		frontendURL: opt.FrontendURL,
		pollWrites:  opt.PollWrites,
	}
}

type CheckoutResult struct {
	ClientSecret string `json:"clientSecret"`
	SessionID    string `json:"sessionId"`
}

func (s *PaymentService) CreateCheckoutSession(ctx context.Context, subject, bookingID string) (CheckoutResult, error) {
	if bookingID == "" {
		return CheckoutResult{}, domain.InvalidFields("Invalid checkout request", map[string]string{"bookingId": "bookingId is required"})
	}
	b, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return CheckoutResult{}, bookingErr(err)
	}
	if b.UserID != subject {
		return CheckoutResult{}, domain.Forbidden("Unauthorized access")
	}
	if b.PaymentStatus != domain.StatusPending {
		return CheckoutResult{}, domain.Conflict(fmt.Sprintf("Booking is %s and cannot be paid", b.PaymentStatus))
	}
	h, err := s.hotels.GetHotel(ctx, b.HotelID)
	if err != nil {
		return CheckoutResult{}, hotelErr(err)
	}

	sess, err := s.gateway.CreateCheckoutSession(ctx, domain.CheckoutRequest{
		LineItems:     []domain.LineItem{LineItemFor(h, b)},
		ReturnURL:     s.frontendURL + "/booking/complete?session_id={CHECKOUT_SESSION_ID}",
		CustomerEmail: b.Guest.Email,
		Metadata: map[string]string{
			"bookingId":  b.ID,
			"hotelId":    h.ID,
			"guestEmail": b.Guest.Email,
			"guestName":  b.Guest.Name,
		},
	})
	if err != nil {
		return CheckoutResult{}, err
	}
	if err := s.bookings.SetPaymentReference(ctx, b.ID, sess.ID); err != nil {
		// the session is usable without the reference; the webhook finds the booking via metadata
		log.Warn().Err(err).Str("booking_id", b.ID).Str("session_id", sess.ID).Msg("could not store payment reference")
	}
	log.Info().Str("booking_id", b.ID).Str("session_id", sess.ID).Int("nights", b.Nights()).Msg("checkout session created")
	return CheckoutResult{ClientSecret: sess.ClientSecret, SessionID: sess.ID}, nil
}

// LineItemFor prices a stay: the hotel's gateway price when it has one,
// otherwise ad-hoc price data at the nightly rate. Quantity is nights.
func LineItemFor(h domain.Hotel, b domain.Booking) domain.LineItem {
	nights := b.Nights()
	if h.StripePriceID != "" {
		return domain.LineItem{PriceID: h.StripePriceID, Quantity: nights}
	}
	suffix := ""
	if nights > 1 {
		suffix = "s"
	}
	li := domain.LineItem{
		Quantity:    nights,
		Currency:    "usd",
		ProductName: h.Name,
		Description: fmt.Sprintf("%s | %d night%s", b.RoomNumber, nights, suffix),
		UnitAmount:  int64(math.Round(h.Price * 100)),
	}
	if len(h.Images) > 0 {
		li.Images = []string{h.Images[0]}
	}
	return li
}

type SessionStatus struct {
	BookingID     string               `json:"bookingId"`
	Booking       domain.Booking       `json:"booking"`
	Hotel         domain.Hotel         `json:"hotel"`
	Status        string               `json:"status"`
	CustomerEmail string               `json:"customer_email"`
	PaymentStatus domain.PaymentStatus `json:"paymentStatus"`
}

func (s *PaymentService) SessionStatus(ctx context.Context, sessionID string) (SessionStatus, error) {
	if sessionID == "" {
		return SessionStatus{}, domain.Invalid("Session ID is required")
	}
	sess, err := s.gateway.RetrieveCheckoutSession(ctx, sessionID, false)
	if err != nil {
		return SessionStatus{}, err
	}
	b, err := s.bookings.GetBooking(ctx, sess.Metadata["bookingId"])
	if err != nil {
		return SessionStatus{}, bookingErr(err)
	}
	h, err := s.hotels.GetHotel(ctx, b.HotelID)
	if err != nil {
		return SessionStatus{}, hotelErr(err)
	}

	if sess.Paid() && b.PaymentStatus == domain.StatusPending && s.pollWrites {
		if _, err := s.markPaid(ctx, b.ID, "poll"); err != nil {
			return SessionStatus{}, err
		}
		// re-read so the response reflects whichever writer won
		if b, err = s.bookings.GetBooking(ctx, b.ID); err != nil {
			return SessionStatus{}, bookingErr(err)
		}
	}

	return SessionStatus{
		BookingID:     b.ID,
		Booking:       b,
		Hotel:         h,
		Status:        sess.Status,
		CustomerEmail: sess.CustomerEmail,
		PaymentStatus: b.PaymentStatus,
	}, nil
}

// HandleWebhook verifies and dispatches a gateway notification. Signature
// problems are validation errors; fulfillment problems are returned as-is so
// the gateway redelivers.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	ev, err := s.verifier.ConstructEvent(payload, signature)
	if err != nil {
		observability.ObserveWebhook("unknown", "rejected")
		log.Warn().Err(err).Msg("webhook signature rejected")
		return domain.Invalid("Webhook Error: " + err.Error())
	}
	l := log.With().Str("event_id", ev.ID).Str("event_type", ev.Type).Logger()

	switch ev.Type {
	case domain.EventCheckoutCompleted, domain.EventAsyncPaymentSucceeded:
		if err := s.Fulfill(ctx, ev.ObjectID); err != nil {
			observability.ObserveWebhook(ev.Type, "failed")
			l.Error().Err(err).Str("session_id", ev.ObjectID).Msg("fulfillment failed")
			return err
		}
		observability.ObserveWebhook(ev.Type, "fulfilled")
		l.Info().Str("session_id", ev.ObjectID).Msg("webhook processed")
	default:
		observability.ObserveWebhook(ev.Type, "ignored")
		l.Debug().Msg("webhook event acknowledged")
	}
	return nil
}

// Fulfill marks the session's booking paid when the gateway reports payment.
// Bookings no longer PENDING are left alone.
func (s *PaymentService) Fulfill(ctx context.Context, sessionID string) error {
	sess, err := s.gateway.RetrieveCheckoutSession(ctx, sessionID, true)
	if err != nil {
		return fmt.Errorf("retrieve session %s: %w", sessionID, err)
	}
	id := sess.Metadata["bookingId"]
	if id == "" {
		return fmt.Errorf("session %s has no booking metadata", sessionID)
	}
	b, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		return fmt.Errorf("booking %s: %w", id, err)
	}
	if b.PaymentStatus != domain.StatusPending {
		log.Info().Str("booking_id", b.ID).Str("status", string(b.PaymentStatus)).Msg("booking already processed, skipping")
		return nil
	}
	if !sess.Paid() {
		log.Info().Str("booking_id", b.ID).Str("payment_status", sess.PaymentStatus).Msg("session not paid yet")
		return nil
	}
	_, err = s.markPaid(ctx, b.ID, "webhook")
	return err
}

// markPaid is the only writer of PAID. The repository applies it as a
// compare-and-set from PENDING, so concurrent callers see changed=false.
func (s *PaymentService) markPaid(ctx context.Context, bookingID, source string) (bool, error) {
	changed, err := s.bookings.TransitionStatus(ctx, bookingID, domain.StatusPending, domain.StatusPaid)
	if err != nil {
		return false, fmt.Errorf("mark booking %s paid: %w", bookingID, err)
	}
	if changed {
		observability.ObservePaymentTransition(source, string(domain.StatusPaid))
		log.Info().Str("booking_id", bookingID).Str("source", source).Msg("booking marked PAID")
	}
	return changed, nil
}

func bookingErr(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NotFound("Booking not found")
	}
	return err
}
