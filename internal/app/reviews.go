package app

import (
	"context"
	"strings"

	"hotel_booking/internal/domain"
)

type ReviewService struct {
	reviews domain.ReviewRepository
	hotels  domain.HotelRepository
	cache   domain.Cache
}

func NewReviewService(r domain.ReviewRepository, h domain.HotelRepository, c domain.Cache) *ReviewService {
	if c == nil {
		c = NopCache{}
	}
	return &ReviewService{reviews: r, hotels: h, cache: c}
}

func (s *ReviewService) Create(ctx context.Context, userID string, r domain.Review) (domain.Review, error) {
	r.Comment = strings.TrimSpace(r.Comment)
	if r.Rating == 0 || r.Comment == "" || r.HotelID == "" {
		return domain.Review{}, domain.Invalid("Rating, comment, and hotelId are required")
	}
	if r.Rating < 1 || r.Rating > 5 {
		return domain.Review{}, domain.InvalidFields("Invalid review", map[string]string{"rating": "rating must be between 1 and 5"})
	}
	if _, err := s.hotels.GetHotel(ctx, r.HotelID); err != nil {
		return domain.Review{}, hotelErr(err)
	}
	r.ID = ""
	r.UserID = userID
	if err := s.reviews.CreateReview(ctx, &r); err != nil {
		return domain.Review{}, err
	}
	// the cached hotel carries the review count
	_ = s.cache.Del(ctx, hotelKey(r.HotelID))
	_ = s.cache.Del(ctx, keyAllHotels)
	return r, nil
}

func (s *ReviewService) ListForHotel(ctx context.Context, hotelID string) ([]domain.Review, error) {
	if _, err := s.hotels.GetHotel(ctx, hotelID); err != nil {
		return nil, hotelErr(err)
	}
	rs, err := s.reviews.ListReviews(ctx, hotelID)
	if err != nil {
		return nil, err
	}
	if rs == nil {
		rs = []domain.Review{}
	}
	return rs, nil
}
