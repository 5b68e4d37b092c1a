package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"hotel_booking/internal/domain"
)

// Fixture is a sample catalogue: location names plus full hotel records.
type Fixture struct {
	Locations []string       `json:"locations"`
	Hotels    []domain.Hotel `json:"hotels"`
}

// ParseFixture decodes and checks a fixture. Every hotel needs a name, a
// location and a positive price.
func ParseFixture(b []byte) (Fixture, error) {
	var fx Fixture
	if err := json.Unmarshal(b, &fx); err != nil {
		return Fixture{}, fmt.Errorf("decode fixture: %w", err)
	}
	for i, h := range fx.Hotels {
		if strings.TrimSpace(h.Name) == "" || strings.TrimSpace(h.Location) == "" || h.Price <= 0 {
			return Fixture{}, fmt.Errorf("fixture hotel %d: name, location and a positive price are required", i)
		}
	}
	return fx, nil
}

type SeedResult struct {
	Locations int
	Hotels    int64
	Skipped   int64
	Failed    int64
}

type SeedService struct {
	hotels    *HotelService
	locations *LocationService
}

func NewSeedService(h *HotelService, l *LocationService) *SeedService {
	return &SeedService{hotels: h, locations: l}
}

// Seed creates the fixture's locations, then its hotels through the normal
// create path so each one is embedded. Names already present are skipped
// (case-insensitive), so re-running is safe.
func (s *SeedService) Seed(ctx context.Context, fx Fixture, workers int) (SeedResult, error) {
	if workers < 1 {
		workers = 1
	}
	var res SeedResult

	ls, err := s.locations.List(ctx)
	if err != nil {
		return res, fmt.Errorf("list locations: %w", err)
	}
	seen := make(map[string]bool, len(ls))
	for _, l := range ls {
		seen[strings.ToLower(l.Name)] = true
	}
	for _, name := range fx.Locations {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" || seen[key] {
			continue
		}
		if _, err := s.locations.Create(ctx, name); err != nil {
			return res, fmt.Errorf("create location %q: %w", name, err)
		}
		seen[key] = true
		res.Locations++
	}

	hs, err := s.hotels.List(ctx)
	if err != nil {
		return res, fmt.Errorf("list hotels: %w", err)
	}
	existing := make(map[string]bool, len(hs))
	for _, h := range hs {
		existing[strings.ToLower(h.Name)] = true
	}

	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup
	for _, h := range fx.Hotels {
		key := strings.ToLower(strings.TrimSpace(h.Name))
		if existing[key] {
			res.Skipped++
			continue
		}
		existing[key] = true

		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(h domain.Hotel) {
			defer wg.Done()
			defer sem.Release(1)

			created, err := s.hotels.Create(ctx, h)
			if err != nil {
				atomic.AddInt64(&res.Failed, 1)
				log.Warn().Str("name", h.Name).Err(err).Msg("seed hotel failed")
				return
			}
			atomic.AddInt64(&res.Hotels, 1)
			log.Info().Str("hotel_id", created.ID).Str("name", created.Name).Bool("embedded", created.HasEmbedding()).Msg("seed hotel stored")
		}(h)
	}
	wg.Wait()
	return res, ctx.Err()
}
