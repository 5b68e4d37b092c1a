package httpserver

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"hotel_booking/internal/app"
	"hotel_booking/internal/domain"
)

type Handlers struct {
	Hotels    *app.HotelService
	Bookings  *app.BookingService
	Payments  *app.PaymentService
	Reviews   *app.ReviewService
	Locations *app.LocationService
	Assistant *app.AssistantService
	Verifier  domain.TokenVerifier
}

func (h *Handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "Server running"})
}

// ---- hotels ----

func (h *Handlers) listHotels(w http.ResponseWriter, r *http.Request) {
	hs, err := h.Hotels.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hs)
}

func (h *Handlers) searchHotels(w http.ResponseWriter, r *http.Request) {
	hs, err := h.Hotels.Search(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hs)
}

func (h *Handlers) askAssistant(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	out, err := h.Assistant.Ask(r.Context(), req.Query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"response": out})
}

func (h *Handlers) checkEmbeddings(w http.ResponseWriter, r *http.Request) {
	st, err := h.Hotels.EmbeddingStatus(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handlers) createHotel(w http.ResponseWriter, r *http.Request) {
	var req createHotelRequest
	if err := decodeAs(w, r, &req, "Invalid hotel data"); err != nil {
		writeError(w, err)
		return
	}
	created, err := h.Hotels.Create(r.Context(), req.toDomain())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handlers) getHotel(w http.ResponseWriter, r *http.Request) {
	hotel, err := h.Hotels.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hotel)
}

func (h *Handlers) updateHotel(w http.ResponseWriter, r *http.Request) {
	var req updateHotelRequest
	if err := decodeAs(w, r, &req, "Invalid hotel data"); err != nil {
		writeError(w, err)
		return
	}
	updated, err := h.Hotels.Update(r.Context(), chi.URLParam(r, "id"), req.toUpdate())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handlers) patchHotel(w http.ResponseWriter, r *http.Request) {
	var req patchHotelRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.Hotels.PatchPrice(r.Context(), chi.URLParam(r, "id"), req.Price); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) deleteHotel(w http.ResponseWriter, r *http.Request) {
	if err := h.Hotels.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// ---- bookings ----

func (h *Handlers) createBooking(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if err := decodeAs(w, r, &req, "Invalid booking data"); err != nil {
		writeError(w, err)
		return
	}
	b, err := h.Bookings.Create(r.Context(), subject(r), req.toDomain())
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, "Booking created successfully", b)
}

func atoiOr(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func (h *Handlers) listUserBookings(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	q := domain.BookingQuery{
		UserID: chi.URLParam(r, "userId"),
		Status: domain.PaymentStatus(qs.Get("status")),
		Page:   atoiOr(qs.Get("page"), 1),
		Limit:  atoiOr(qs.Get("limit"), 0),
		SortBy: qs.Get("sortBy"),
	}
	page, err := h.Bookings.ListForUser(r.Context(), subject(r), q)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", page)
}

func (h *Handlers) bookingStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.Bookings.Stats(r.Context(), subject(r), chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", st)
}

func (h *Handlers) getBooking(w http.ResponseWriter, r *http.Request) {
	b, err := h.Bookings.Get(r.Context(), subject(r), chi.URLParam(r, "bookingId"), r.URL.Query().Get("userId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", b)
}

func (h *Handlers) cancelBooking(w http.ResponseWriter, r *http.Request) {
	var req cancelBookingRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	b, err := h.Bookings.Cancel(r.Context(), subject(r), chi.URLParam(r, "bookingId"), req.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "Booking cancelled successfully", b)
}

// ---- reviews ----

func (h *Handlers) createReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	rv, err := h.Reviews.Create(r.Context(), subject(r), domain.Review{HotelID: req.HotelID, Rating: req.Rating, Comment: req.Comment})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rv)
}

func (h *Handlers) listHotelReviews(w http.ResponseWriter, r *http.Request) {
	rs, err := h.Reviews.ListForHotel(r.Context(), chi.URLParam(r, "hotelId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rs)
}

// ---- locations ----

func (h *Handlers) listLocations(w http.ResponseWriter, r *http.Request) {
	ls, err := h.Locations.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ls)
}

func (h *Handlers) getLocation(w http.ResponseWriter, r *http.Request) {
	l, err := h.Locations.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *Handlers) createLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	l, err := h.Locations.Create(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

func (h *Handlers) renameLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	l, err := h.Locations.Rename(r.Context(), chi.URLParam(r, "id"), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *Handlers) deleteLocation(w http.ResponseWriter, r *http.Request) {
	if err := h.Locations.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// ---- payments ----

var errPaymentsDisabled = errors.New("payments are not configured")

func (h *Handlers) paymentsEnabled(w http.ResponseWriter) bool {
	if h.Payments == nil {
		log.Error().Err(errPaymentsDisabled).Msg("payment route called")
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Message: "Payments are not available"})
		return false
	}
	return true
}

func (h *Handlers) createCheckoutSession(w http.ResponseWriter, r *http.Request) {
	if !h.paymentsEnabled(w) {
		return
	}
	var req checkoutRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	out, err := h.Payments.CreateCheckoutSession(r.Context(), subject(r), req.BookingID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) sessionStatus(w http.ResponseWriter, r *http.Request) {
	if !h.paymentsEnabled(w) {
		return
	}
	st, err := h.Payments.SessionStatus(r.Context(), r.URL.Query().Get("session_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// stripeWebhook needs the body byte-for-byte as sent; the signature covers it.
// Signature failures answer 400 as plain text, fulfillment failures 500 so the
// gateway retries.
func (h *Handlers) stripeWebhook(w http.ResponseWriter, r *http.Request) {
	if !h.paymentsEnabled(w) {
		return
	}
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		http.Error(w, "Webhook Error: unreadable body", http.StatusBadRequest)
		return
	}
	err = h.Payments.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	switch {
	case err == nil:
		w.WriteHeader(http.StatusOK)
	case errors.Is(err, domain.ErrValidation):
		http.Error(w, domain.Message(err), http.StatusBadRequest)
	default:
		http.Error(w, "Webhook Error: fulfillment failed", http.StatusInternalServerError)
	}
}
