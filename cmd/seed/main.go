package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"hotel_booking/internal/adapters/observability"
	"hotel_booking/internal/adapters/openai"
	redisad "hotel_booking/internal/adapters/redis"
	"hotel_booking/internal/app"
	"hotel_booking/internal/domain"
	"hotel_booking/internal/shared"
	"hotel_booking/internal/storage"
)

func main() {
	cfg := shared.Load()

	// initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger("hotel-seed", cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	raw := shared.SeedFixture
	if cfg.SeedFile != "" {
		b, err := os.ReadFile(cfg.SeedFile)
		if err != nil {
			log.Fatal().Err(err).Str("file", cfg.SeedFile).Msg("read seed file failed")
		}
		raw = b
	}
	fx, err := app.ParseFixture(raw)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid seed fixture")
	}

	log.Info().
		Str("driver", cfg.StorageDriver).
		Int("hotels", len(fx.Hotels)).
		Int("locations", len(fx.Locations)).
		Int("workers", cfg.EmbedWorkers).
		Msg("seed starting")

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	repo, closeDB, err := storage.Open(dbCtx, cfg)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer closeDB()

	// without a key hotels are stored unembedded; cmd/embedder fills them in later
	var embedder domain.Embedder
	if cfg.OpenAIKey != "" {
		oc, err := openai.New(cfg.OpenAIBase, cfg.OpenAIKey, cfg.OpenAIEmbedModel, cfg.OpenAIChatModel, cfg.OpenAIRPS)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize OpenAI client")
		}
		embedder = oc
	}

	var cache domain.Cache = app.NopCache{}
	rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err := rc.Ping(ctx); err == nil {
		cache = rc
	}
	defer rc.Close()

	seed := app.NewSeedService(
		app.NewHotelService(repo, repo, embedder, cache, cfg.CacheTTL),
		app.NewLocationService(repo),
	)
	res, err := seed.Seed(ctx, fx, cfg.EmbedWorkers)
	ev := log.Info()
	if err != nil || res.Failed > 0 {
		ev = log.Warn().Err(err)
	}
	ev.Int("locations", res.Locations).
		Int64("hotels", res.Hotels).
		Int64("skipped", res.Skipped).
		Int64("failed", res.Failed).
		Msg("seed completed")
}
