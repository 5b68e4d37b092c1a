package main

import (
	"context"
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
	log.Logger = observability.NewLogger("hotel-embedder", cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("driver", cfg.StorageDriver).
		Str("model", cfg.OpenAIEmbedModel).
		Int("workers", cfg.EmbedWorkers).
		Msg("embedder starting")

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	repo, closeDB, err := storage.Open(dbCtx, cfg)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer closeDB()

	client, err := openai.New(cfg.OpenAIBase, cfg.OpenAIKey, cfg.OpenAIEmbedModel, cfg.OpenAIChatModel, cfg.OpenAIRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize OpenAI client")
	}

	// stale hotel lists are dropped from the API cache when it is reachable
	var cache domain.Cache = app.NopCache{}
	rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err := rc.Ping(ctx); err == nil {
		cache = rc
	}
	defer rc.Close()

	res, err := app.NewEmbeddingService(repo, client, cache).Backfill(ctx, cfg.EmbedWorkers)
	ev := log.Info()
	if err != nil || res.Failed > 0 {
		ev = log.Warn().Err(err)
	}
	ev.Int("pending", res.Pending).
		Int64("embedded", res.Embedded).
		Int64("failed", res.Failed).
		Msg("embedding backfill completed")
}
