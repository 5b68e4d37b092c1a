package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	server "hotel_booking/internal/adapters/http_server"
	"hotel_booking/internal/adapters/identity"
	"hotel_booking/internal/adapters/observability"
	"hotel_booking/internal/adapters/openai"
	redisad "hotel_booking/internal/adapters/redis"
	"hotel_booking/internal/adapters/stripe"
	"hotel_booking/internal/app"
	"hotel_booking/internal/domain"
	"hotel_booking/internal/shared"
	"hotel_booking/internal/storage"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger("hotel-api", cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// db
	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	repo, closeDB, err := storage.Open(dbCtx, cfg)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StorageDriver).Msg("database connection failed")
	}
	defer closeDB()
	log.Info().Str("driver", cfg.StorageDriver).Msg("database connection ok")

	// cache; the API keeps working without it
	var cache domain.Cache = app.NopCache{}
	rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	if err := rc.Ping(pingCtx); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, caching disabled")
		_ = rc.Close()
	} else {
		cache = rc
		defer rc.Close()
	}
	cancel()

	// embeddings + chat
	var (
		embedder domain.Embedder
		chat     domain.ChatModel
	)
	if cfg.OpenAIKey != "" {
		oc, err := openai.New(cfg.OpenAIBase, cfg.OpenAIKey, cfg.OpenAIEmbedModel, cfg.OpenAIChatModel, cfg.OpenAIRPS)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize OpenAI client")
		}
		embedder, chat = oc, oc
	}

	// identity
	var verifier domain.TokenVerifier
	v, err := identity.FromConfig(cfg.JWTSecret, cfg.JWTPublicKey, cfg.JWTIssuer)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize token verifier")
	}
	if v != nil {
		verifier = v
	}

	hotels := app.NewHotelService(repo, repo, embedder, cache, cfg.CacheTTL)
	h := &server.Handlers{
		Hotels:    hotels,
		Bookings:  app.NewBookingService(repo, repo),
		Reviews:   app.NewReviewService(repo, repo, cache),
		Locations: app.NewLocationService(repo),
		Assistant: app.NewAssistantService(hotels, chat),
		Verifier:  verifier,
	}

	// payments
	if cfg.StripeKey != "" {
		sc, err := stripe.New(cfg.StripeBase, cfg.StripeKey, cfg.StripeRPS)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize Stripe client")
		}
		h.Payments = app.NewPaymentService(repo, repo, sc, stripe.NewWebhook(cfg.StripeWebhookSecret), app.PaymentOptions{
			FrontendURL: cfg.FrontendURL,
			PollWrites:  cfg.PaymentPollWrites,
		})
	}

	// http
	srv := server.New(server.Options{AllowedOrigins: append(cfg.AllowedOrigins, cfg.FrontendURL)})
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(h)

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
