package app

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"hotel_booking/internal/adapters/observability"
	"hotel_booking/internal/domain"
)

const (
	keyAllHotels = "hotels:all"

	vectorCandidates = 25
	vectorLimit      = 4
	textLimit        = 10
)

func hotelKey(id string) string { return "hotel:" + id }

func embedKey(q string) string {
	sum := sha1.Sum([]byte(q))
	return "embed:" + hex.EncodeToString(sum[:])
}

type HotelService struct {
	repo     domain.HotelRepository
	vec      domain.VectorSearcher
	embed    domain.Embedder
	cache    domain.Cache
	cacheTTL time.Duration
}

// NewHotelService wires the hotel read/write paths. embed may be nil, in which
// case hotels are stored without vectors and search always uses text match.
func NewHotelService(r domain.HotelRepository, v domain.VectorSearcher, e domain.Embedder, c domain.Cache, ttl time.Duration) *HotelService {
	if c == nil {
		c = NopCache{}
	}
	return &HotelService{repo: r, vec: v, embed: e, cache: c, cacheTTL: ttl}
}

func (s *HotelService) ttl() int { return int(s.cacheTTL.Seconds()) }

func (s *HotelService) List(ctx context.Context) ([]domain.Hotel, error) {
	var hs []domain.Hotel
	if ok, _ := s.cache.Get(ctx, keyAllHotels, &hs); ok {
		return hs, nil
	}
	hs, err := s.repo.ListHotels(ctx)
	if err != nil {
		return nil, err
	}
	if hs == nil {
		hs = []domain.Hotel{}
	}
	_ = s.cache.Set(ctx, keyAllHotels, hs, s.ttl())
	return hs, nil
}

func (s *HotelService) Get(ctx context.Context, id string) (domain.Hotel, error) {
	var h domain.Hotel
	if ok, _ := s.cache.Get(ctx, hotelKey(id), &h); ok {
		return h, nil
	}
	h, err := s.repo.GetHotel(ctx, id)
	if err != nil {
		return domain.Hotel{}, hotelErr(err)
	}
	_ = s.cache.Set(ctx, hotelKey(id), h, s.ttl())
	return h, nil
}

func (s *HotelService) Create(ctx context.Context, h domain.Hotel) (domain.Hotel, error) {
	h.ID = ""
	h.Embedding = s.vectorFor(ctx, h)
	if err := s.repo.CreateHotel(ctx, &h); err != nil {
		return domain.Hotel{}, err
	}
	s.invalidate(ctx, "")
	log.Info().Str("hotel_id", h.ID).Bool("embedded", h.HasEmbedding()).Msg("hotel created")
	return h, nil
}

// HotelUpdate is a full replace of the required fields; nil optionals keep
// their stored value.
type HotelUpdate struct {
	Name        string
	Location    string
	Description string
	Price       float64

	City          *string
	Stars         *int
	Rating        *float64
	Featured      *bool
	Amenities     []string
	Images        []string
	RoomTypes     []domain.RoomType
	StripePriceID *string
}

func (u HotelUpdate) apply(h *domain.Hotel) {
	h.Name, h.Location, h.Description, h.Price = u.Name, u.Location, u.Description, u.Price
	if u.City != nil {
		h.City = *u.City
	}
	if u.Stars != nil {
		h.Stars = *u.Stars
	}
	if u.Rating != nil {
		h.Rating = *u.Rating
	}
	if u.Featured != nil {
		h.Featured = *u.Featured
	}
	if u.Amenities != nil {
		h.Amenities = u.Amenities
	}
	if u.Images != nil {
		h.Images = u.Images
	}
	if u.RoomTypes != nil {
		h.RoomTypes = u.RoomTypes
	}
	if u.StripePriceID != nil {
		h.StripePriceID = *u.StripePriceID
	}
}

func (s *HotelService) Update(ctx context.Context, id string, u HotelUpdate) (domain.Hotel, error) {
	h, err := s.repo.GetHotel(ctx, id)
	if err != nil {
		return domain.Hotel{}, hotelErr(err)
	}
	before := h.EmbeddingText()
	u.apply(&h)
	if changed := h.EmbeddingText() != before; changed || !h.HasEmbedding() {
		v := s.vectorFor(ctx, h)
		switch {
		case v != nil:
			h.Embedding = v
		case changed:
			// a vector of the old text would rank the hotel wrongly; leave it to the backfill
			h.Embedding = nil
		}
	}
	if err := s.repo.UpdateHotel(ctx, h); err != nil {
		return domain.Hotel{}, hotelErr(err)
	}
	s.invalidate(ctx, id)
	return h, nil
}

func (s *HotelService) PatchPrice(ctx context.Context, id string, price float64) error {
	if price <= 0 {
		return domain.Invalid("Price is required")
	}
	if err := s.repo.UpdateHotelPrice(ctx, id, price); err != nil {
		return hotelErr(err)
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *HotelService) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteHotel(ctx, id); err != nil {
		return hotelErr(err)
	}
	s.invalidate(ctx, id)
	log.Info().Str("hotel_id", id).Msg("hotel deleted")
	return nil
}

// Search ranks hotels by semantic similarity to query. Any failure on that
// path falls back to a case-insensitive substring match. The result is never nil.
func (s *HotelService) Search(ctx context.Context, query string) ([]domain.ScoredHotel, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.InvalidFields("Invalid search query", map[string]string{"query": "query is required"})
	}

	out, reason, err := s.searchVector(ctx, query)
	if err == nil {
		observability.ObserveSearch("vector")
		return out, nil
	}
	observability.ObserveSearchFallback(reason)
	log.Warn().Err(err).Str("reason", reason).Msg("vector search failed, falling back to text search")

	hs, err := s.repo.SearchHotelsText(ctx, query, textLimit)
	if err != nil {
		return nil, err
	}
	observability.ObserveSearch("text")
	out = make([]domain.ScoredHotel, 0, len(hs))
	for _, h := range hs {
		out = append(out, domain.ScoredHotel{Hotel: h})
	}
	return out, nil
}

func (s *HotelService) searchVector(ctx context.Context, query string) ([]domain.ScoredHotel, string, error) {
	if s.embed == nil || s.vec == nil {
		return nil, "disabled", errors.New("vector search not configured")
	}
	var vec []float32
	if ok, _ := s.cache.Get(ctx, embedKey(query), &vec); !ok || len(vec) == 0 {
		v, err := s.embed.Embed(ctx, query)
		if err != nil {
			return nil, "embed", err
		}
		vec = v
		_ = s.cache.Set(ctx, embedKey(query), vec, s.ttl())
	}
	out, err := s.vec.SearchHotelsVector(ctx, vec, vectorCandidates, vectorLimit)
	if err != nil {
		return nil, "vector", err
	}
	if out == nil {
		out = []domain.ScoredHotel{}
	}
	return out, "", nil
}

func (s *HotelService) EmbeddingStatus(ctx context.Context) (domain.EmbeddingStatus, error) {
	hs, err := s.repo.ListHotels(ctx)
	if err != nil {
		return domain.EmbeddingStatus{}, err
	}
	st := domain.EmbeddingStatus{Total: len(hs), HotelsWithoutEmbeddings: []domain.HotelPointer{}}
	for _, h := range hs {
		if h.HasEmbedding() {
			st.WithEmbeddings++
			continue
		}
		st.HotelsWithoutEmbeddings = append(st.HotelsWithoutEmbeddings, domain.HotelPointer{ID: h.ID, Name: h.Name})
	}
	st.WithoutEmbeddings = len(st.HotelsWithoutEmbeddings)
	return st, nil
}

// vectorFor is best-effort: the backfill job picks up hotels stored without one.
func (s *HotelService) vectorFor(ctx context.Context, h domain.Hotel) []float32 {
	if s.embed == nil {
		return nil
	}
	v, err := s.embed.Embed(ctx, h.EmbeddingText())
	observability.ObserveEmbedding(err)
	if err != nil {
		log.Warn().Err(err).Str("hotel", h.Name).Msg("embedding generation failed; storing hotel without one")
		return nil
	}
	return v
}

func (s *HotelService) invalidate(ctx context.Context, id string) {
	_ = s.cache.Del(ctx, keyAllHotels)
	if id != "" {
		_ = s.cache.Del(ctx, hotelKey(id))
	}
}

func hotelErr(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NotFound("Hotel not found")
	}
	return err
}

// NopCache is used when no cache backend is reachable.
type NopCache struct{}

func (NopCache) Get(context.Context, string, any) (bool, error) { return false, nil }
func (NopCache) Set(context.Context, string, any, int) error    { return nil }
func (NopCache) Del(context.Context, string) error              { return nil }
