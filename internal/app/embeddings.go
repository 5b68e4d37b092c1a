package app

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"hotel_booking/internal/adapters/observability"
	"hotel_booking/internal/domain"
)

type EmbeddingService struct {
	repo  domain.HotelRepository
	embed domain.Embedder
	cache domain.Cache
}

func NewEmbeddingService(r domain.HotelRepository, e domain.Embedder, c domain.Cache) *EmbeddingService {
	if c == nil {
		c = NopCache{}
	}
	return &EmbeddingService{repo: r, embed: e, cache: c}
}

type BackfillResult struct {
	Pending  int
	Embedded int64
	Failed   int64
}

// Backfill generates vectors for hotels stored without one. A failure on one
// hotel is logged and counted; it never stops the run.
func (s *EmbeddingService) Backfill(ctx context.Context, workers int) (BackfillResult, error) {
	if workers < 1 {
		workers = 1
	}
	hs, err := s.repo.ListHotels(ctx)
	if err != nil {
		return BackfillResult{}, err
	}

	var res BackfillResult
	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup

	for _, h := range hs {
		if h.HasEmbedding() {
			continue
		}
		res.Pending++

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			break // ctx cancelled
		}
		wg.Add(1)
		go func(h domain.Hotel) {
			defer wg.Done()
			defer sem.Release(1)

			if err := s.embedOne(ctx, h); err != nil {
				atomic.AddInt64(&res.Failed, 1)
				log.Warn().Str("hotel_id", h.ID).Err(err).Msg("embedding failed")
				return
			}
			atomic.AddInt64(&res.Embedded, 1)
			log.Info().Str("hotel_id", h.ID).Str("name", h.Name).Msg("embedding stored")
		}(h)
	}

	wg.Wait()
	if res.Embedded > 0 {
		_ = s.cache.Del(ctx, keyAllHotels)
	}
	return res, ctx.Err()
}

func (s *EmbeddingService) embedOne(ctx context.Context, h domain.Hotel) error {
	v, err := s.embed.Embed(ctx, h.EmbeddingText())
	observability.ObserveEmbedding(err)
	if err != nil {
		return err
	}
	if err := s.repo.SetHotelEmbedding(ctx, h.ID, v); err != nil {
		return err
	}
	_ = s.cache.Del(ctx, hotelKey(h.ID))
	return nil
}
