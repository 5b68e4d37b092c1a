package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"hotel_booking/internal/domain"
)

// Documents keep the field names the hotels collection has always used, so an
// existing Atlas vector index on "embedding" keeps working.

type roomTypeDoc struct {
	Name      string  `bson:"name"`
	Price     float64 `bson:"price"`
	Available int     `bson:"available"`
}

type hotelDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Name          string             `bson:"name"`
	Location      string             `bson:"location"`
	City          string             `bson:"city"`
	Description   string             `bson:"description"`
	Price         float64            `bson:"price"`
	Stars         int                `bson:"stars"`
	Rating        float64            `bson:"rating"`
	ReviewCount   int                `bson:"reviewCount"`
	Featured      bool               `bson:"featured"`
	Amenities     []string           `bson:"amenities"`
	Images        []string           `bson:"images"`
	RoomTypes     []roomTypeDoc      `bson:"roomTypes"`
	StripePriceID string             `bson:"stripePriceId,omitempty"`
	// stored as doubles; float32 decoding rejects values written by other clients
	Embedding []float64 `bson:"embedding,omitempty"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func toHotelDoc(h domain.Hotel) hotelDoc {
	d := hotelDoc{
		Name:          h.Name,
		Location:      h.Location,
		City:          h.City,
		Description:   h.Description,
		Price:         h.Price,
		Stars:         h.Stars,
		Rating:        h.Rating,
		ReviewCount:   h.ReviewCount,
		Featured:      h.Featured,
		Amenities:     nonNil(h.Amenities),
		Images:        nonNil(h.Images),
		RoomTypes:     []roomTypeDoc{},
		StripePriceID: h.StripePriceID,
		Embedding:     widen(h.Embedding),
		CreatedAt:     h.CreatedAt,
		UpdatedAt:     h.UpdatedAt,
	}
	for _, rt := range h.RoomTypes {
		d.RoomTypes = append(d.RoomTypes, roomTypeDoc(rt))
	}
	return d
}

func (d hotelDoc) toDomain() domain.Hotel {
	h := domain.Hotel{
		ID:            d.ID.Hex(),
		Name:          d.Name,
		Location:      d.Location,
		City:          d.City,
		Description:   d.Description,
		Price:         d.Price,
		Stars:         d.Stars,
		Rating:        d.Rating,
		ReviewCount:   d.ReviewCount,
		Featured:      d.Featured,
		Amenities:     nonNil(d.Amenities),
		Images:        nonNil(d.Images),
		RoomTypes:     []domain.RoomType{},
		StripePriceID: d.StripePriceID,
		Embedding:     narrow(d.Embedding),
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
	for _, rt := range d.RoomTypes {
		h.RoomTypes = append(h.RoomTypes, domain.RoomType(rt))
	}
	return h
}

type scoredHotelDoc struct {
	Doc   hotelDoc `bson:",inline"`
	Score float64  `bson:"score"`
}

type guestDoc struct {
	Name  string `bson:"name"`
	Email string `bson:"email"`
	Phone string `bson:"phone"`
}

type bookingDoc struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	UserID           string             `bson:"userId"`
	HotelID          primitive.ObjectID `bson:"hotelId"`
	RoomNumber       string             `bson:"roomNumber"`
	CheckInDate      time.Time          `bson:"checkInDate"`
	CheckOutDate     time.Time          `bson:"checkOutDate"`
	NumberOfGuests   int                `bson:"numberOfGuests"`
	NumberOfRooms    int                `bson:"numberOfRooms"`
	TotalAmount      float64            `bson:"totalAmount"`
	PaymentStatus    string             `bson:"paymentStatus"`
	PaymentReference string             `bson:"paymentIntentId,omitempty"`
	SpecialRequests  string             `bson:"specialRequests"`
	Guest            guestDoc           `bson:"guestDetails"`
	CreatedAt        time.Time          `bson:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt"`

	// populated by $lookup, never stored
	Hotel *hotelDoc `bson:"hotel,omitempty"`
}

func toBookingDoc(b domain.Booking, hotelID primitive.ObjectID) bookingDoc {
	return bookingDoc{
		UserID:           b.UserID,
		HotelID:          hotelID,
		RoomNumber:       b.RoomNumber,
		CheckInDate:      b.CheckInDate.UTC(),
		CheckOutDate:     b.CheckOutDate.UTC(),
		NumberOfGuests:   b.NumberOfGuests,
		NumberOfRooms:    b.NumberOfRooms,
		TotalAmount:      b.TotalAmount,
		PaymentStatus:    string(b.PaymentStatus),
		PaymentReference: b.PaymentReference,
		SpecialRequests:  b.SpecialRequests,
		Guest:            guestDoc(b.Guest),
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
}

func (d bookingDoc) toDomain() domain.Booking {
	b := domain.Booking{
		ID:               d.ID.Hex(),
		UserID:           d.UserID,
		HotelID:          d.HotelID.Hex(),
		RoomNumber:       d.RoomNumber,
		CheckInDate:      d.CheckInDate,
		CheckOutDate:     d.CheckOutDate,
		NumberOfGuests:   d.NumberOfGuests,
		NumberOfRooms:    d.NumberOfRooms,
		TotalAmount:      d.TotalAmount,
		PaymentStatus:    domain.PaymentStatus(d.PaymentStatus),
		PaymentReference: d.PaymentReference,
		SpecialRequests:  d.SpecialRequests,
		Guest:            domain.GuestDetails(d.Guest),
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
	if d.Hotel != nil {
		sum := d.Hotel.toDomain().Summary()
		b.Hotel = &sum
	}
	return b
}

type reviewDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	HotelID   primitive.ObjectID `bson:"hotelId"`
	UserID    string             `bson:"userId"`
	Rating    int                `bson:"rating"`
	Comment   string             `bson:"comment"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d reviewDoc) toDomain() domain.Review {
	return domain.Review{
		ID:        d.ID.Hex(),
		HotelID:   d.HotelID.Hex(),
		UserID:    d.UserID,
		Rating:    d.Rating,
		Comment:   d.Comment,
		CreatedAt: d.CreatedAt,
	}
}

type locationDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d locationDoc) toDomain() domain.Location {
	return domain.Location{ID: d.ID.Hex(), Name: d.Name, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func widen(v []float32) []float64 {
	if len(v) == 0 {
		return nil
	}
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

func narrow(v []float64) []float32 {
	if len(v) == 0 {
		return nil
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
