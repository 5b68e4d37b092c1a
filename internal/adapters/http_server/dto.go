package httpserver

import (
	"encoding/json"
	"fmt"
	"time"

	"hotel_booking/internal/app"
	"hotel_booking/internal/domain"
)

// date accepts RFC 3339 timestamps, bare YYYY-MM-DD dates and zoneless
// date-times, which are read as UTC.
type date struct{ time.Time }

func (d *date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02", "2006-01-02T15:04:05.999999999"} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("invalid date %q", s)
}

type roomTypeRequest struct {
	Name      string  `json:"name" validate:"required"`
	Price     float64 `json:"price" validate:"gte=0"`
	Available int     `json:"available" validate:"gte=0"`
}

func roomTypes(in []roomTypeRequest) []domain.RoomType {
	if in == nil {
		return nil
	}
	out := make([]domain.RoomType, 0, len(in))
	for _, rt := range in {
		out = append(out, domain.RoomType(rt))
	}
	return out
}

type createHotelRequest struct {
	Name          string            `json:"name" validate:"required"`
	Location      string            `json:"location" validate:"required"`
	City          string            `json:"city" validate:"required"`
	Description   string            `json:"description" validate:"required"`
	Price         *float64          `json:"price" validate:"required,gte=0"`
	Stars         int               `json:"stars" validate:"required,min=1,max=5"`
	Rating        *float64          `json:"rating" validate:"omitempty,min=0,max=5"`
	Featured      bool              `json:"featured"`
	Amenities     []string          `json:"amenities"`
	Images        []string          `json:"images" validate:"required,min=1"`
	RoomTypes     []roomTypeRequest `json:"roomTypes" validate:"dive"`
	StripePriceID string            `json:"stripePriceId"`
}

func (r createHotelRequest) toDomain() domain.Hotel {
	h := domain.Hotel{
		Name:          r.Name,
		Location:      r.Location,
		City:          r.City,
		Description:   r.Description,
		Price:         *r.Price,
		Stars:         r.Stars,
		Featured:      r.Featured,
		Amenities:     r.Amenities,
		Images:        r.Images,
		RoomTypes:     roomTypes(r.RoomTypes),
		StripePriceID: r.StripePriceID,
	}
	if r.Rating != nil {
		h.Rating = *r.Rating
	}
	return h
}

// updateHotelRequest is a PUT: the four required fields replace, the rest
// keep their stored value when absent.
type updateHotelRequest struct {
	Name          string            `json:"name" validate:"required"`
	Location      string            `json:"location" validate:"required"`
	Description   string            `json:"description" validate:"required"`
	Price         float64           `json:"price" validate:"gt=0"`
	City          *string           `json:"city"`
	Stars         *int              `json:"stars" validate:"omitempty,min=1,max=5"`
	Rating        *float64          `json:"rating" validate:"omitempty,min=0,max=5"`
	Featured      *bool             `json:"featured"`
	Amenities     []string          `json:"amenities"`
	Images        []string          `json:"images"`
	RoomTypes     []roomTypeRequest `json:"roomTypes" validate:"dive"`
	StripePriceID *string           `json:"stripePriceId"`
}

func (r updateHotelRequest) toUpdate() app.HotelUpdate {
	return app.HotelUpdate{
		Name:          r.Name,
		Location:      r.Location,
		Description:   r.Description,
		Price:         r.Price,
		City:          r.City,
		Stars:         r.Stars,
		Rating:        r.Rating,
		Featured:      r.Featured,
		Amenities:     r.Amenities,
		Images:        r.Images,
		RoomTypes:     roomTypes(r.RoomTypes),
		StripePriceID: r.StripePriceID,
	}
}

type patchHotelRequest struct {
	Price float64 `json:"price"`
}

type queryRequest struct {
	Query string `json:"query"`
}

type guestRequest struct {
	Name  string `json:"name"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone"`
}

// createBookingRequest carries only shape checks; field rules live on
// domain.Booking so every entry point shares them.
type createBookingRequest struct {
	HotelID         string       `json:"hotelId" validate:"required"`
	RoomNumber      string       `json:"roomNumber"`
	CheckInDate     date         `json:"checkInDate"`
	CheckOutDate    date         `json:"checkOutDate"`
	NumberOfGuests  int          `json:"numberOfGuests"`
	NumberOfRooms   int          `json:"numberOfRooms"`
	TotalAmount     float64      `json:"totalAmount"`
	SpecialRequests string       `json:"specialRequests"`
	Guest           guestRequest `json:"guestDetails"`
}

func (r createBookingRequest) toDomain() domain.Booking {
	return domain.Booking{
		HotelID:         r.HotelID,
		RoomNumber:      r.RoomNumber,
		CheckInDate:     r.CheckInDate.Time,
		CheckOutDate:    r.CheckOutDate.Time,
		NumberOfGuests:  r.NumberOfGuests,
		NumberOfRooms:   r.NumberOfRooms,
		TotalAmount:     r.TotalAmount,
		SpecialRequests: r.SpecialRequests,
		Guest:           domain.GuestDetails(r.Guest),
	}
}

type cancelBookingRequest struct {
	UserID string `json:"userId" validate:"required"`
}

type reviewRequest struct {
	HotelID string `json:"hotelId"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type locationRequest struct {
	Name string `json:"name"`
}

type checkoutRequest struct {
	BookingID string `json:"bookingId" validate:"required"`
}
