package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

type Server struct{ mux *chi.Mux }

type Options struct {
	AllowedOrigins []string
	Timeout        time.Duration
}

func New(opt Options) *Server {
	if opt.Timeout <= 0 {
		opt.Timeout = 15 * time.Second
	}
	m := chi.NewRouter()

	// all middlewares go here, before any routes are added
	m.Use(chimw.RealIP)
	m.Use(chimw.RequestID)
	m.Use(chimw.Recoverer)
	m.Use(CORS(opt.AllowedOrigins))
	m.Use(Timeout(opt.Timeout))
	m.Use(AccessLog(log.Logger))

	return &Server{mux: m}
}

func (s *Server) Mux() http.Handler { return s.mux }

// Mount attaches any extra handler (e.g., /metrics) to the router.
func (s *Server) Mount(path string, h http.Handler) {
	s.mux.Handle(path, h)
}

// MountHandlers registers the API under /api. Routes that need a caller
// identity sit behind RequireAuth; hotel mutations also need the admin role.
func (s *Server) MountHandlers(h *Handlers) {
	auth := RequireAuth(h.Verifier)
	admin := RequireRole("admin")

	s.mux.Get("/api/health", h.health)

	s.mux.Route("/api/hotels", func(r chi.Router) {
		r.Get("/", h.listHotels)
		r.Get("/search", h.searchHotels)
		r.Post("/ai", h.askAssistant)
		r.With(auth, admin).Post("/", h.createHotel)
		r.With(auth, admin).Get("/check-embeddings", h.checkEmbeddings)
		r.With(auth).Get("/{id}", h.getHotel)
		r.With(auth, admin).Put("/{id}", h.updateHotel)
		r.With(auth, admin).Patch("/{id}", h.patchHotel)
		r.With(auth, admin).Delete("/{id}", h.deleteHotel)
	})

	s.mux.Route("/api/bookings", func(r chi.Router) {
		r.Use(auth)
		r.Post("/add", h.createBooking)
		r.Get("/user/{userId}", h.listUserBookings)
		r.Get("/user/{userId}/stats", h.bookingStats)
		r.Get("/{bookingId}", h.getBooking)
		r.Patch("/{bookingId}/cancel", h.cancelBooking)
	})

	s.mux.Route("/api/reviews", func(r chi.Router) {
		r.Use(auth)
		r.Post("/", h.createReview)
		r.Get("/hotel/{hotelId}", h.listHotelReviews)
	})

	s.mux.Route("/api/locations", func(r chi.Router) {
		r.Get("/", h.listLocations)
		r.Get("/{id}", h.getLocation)
		r.With(auth).Post("/", h.createLocation)
		r.With(auth).Put("/{id}", h.renameLocation)
		r.With(auth).Patch("/{id}", h.renameLocation)
		r.With(auth).Delete("/{id}", h.deleteLocation)
	})

	s.mux.Route("/api/payments", func(r chi.Router) {
		r.Use(auth)
		r.Post("/create-checkout-session", h.createCheckoutSession)
		r.Get("/session-status", h.sessionStatus)
	})

	s.mux.Post("/api/stripe/webhook", h.stripeWebhook)
}
