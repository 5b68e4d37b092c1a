package domain

import (
	"fmt"
	"time"
)

type RoomType struct {
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Available int     `json:"available"`
}

type Hotel struct {
	ID            string     `json:"_id"`
	Name          string     `json:"name"`
	Location      string     `json:"location"`
	City          string     `json:"city"`
	Description   string     `json:"description"`
	Price         float64    `json:"price"`
	Stars         int        `json:"stars"`
	Rating        float64    `json:"rating"`
	ReviewCount   int        `json:"reviews"`
	Featured      bool       `json:"featured"`
	Amenities     []string   `json:"amenities"`
	Images        []string   `json:"images"`
	RoomTypes     []RoomType `json:"roomTypes"`
	StripePriceID string     `json:"stripePriceId,omitempty"`
	Embedding     []float32  `json:"-"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func (h Hotel) HasEmbedding() bool { return len(h.Embedding) > 0 }

// EmbeddingText is the text a hotel's vector is generated from.
func (h Hotel) EmbeddingText() string {
	return fmt.Sprintf("%s %s %s %v", h.Name, h.Description, h.Location, h.Price)
}

func (h Hotel) Summary() HotelSummary {
	return HotelSummary{
		ID:        h.ID,
		Name:      h.Name,
		Location:  h.Location,
		City:      h.City,
		Images:    h.Images,
		Rating:    h.Rating,
		Amenities: h.Amenities,
		Price:     h.Price,
	}
}

// HotelSummary is the slice of a hotel shown next to a booking.
type HotelSummary struct {
	ID        string   `json:"_id"`
	Name      string   `json:"name"`
	Location  string   `json:"location"`
	City      string   `json:"city"`
	Images    []string `json:"images"`
	Rating    float64  `json:"rating"`
	Amenities []string `json:"amenities"`
	Price     float64  `json:"price"`
}

type ScoredHotel struct {
	Hotel
	Score float64 `json:"score"`
}

type EmbeddingStatus struct {
	Total                   int            `json:"total"`
	WithEmbeddings          int            `json:"withEmbeddings"`
	WithoutEmbeddings       int            `json:"withoutEmbeddings"`
	HotelsWithoutEmbeddings []HotelPointer `json:"hotelsWithoutEmbeddings"`
}

type HotelPointer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
