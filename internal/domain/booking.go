package domain

import (
	"encoding/json"
	"math"
	"strings"
	"time"
)

type PaymentStatus string

const (
	StatusPending   PaymentStatus = "PENDING"
	StatusPaid      PaymentStatus = "PAID"
	StatusCancelled PaymentStatus = "CANCELLED"
	StatusRefunded  PaymentStatus = "REFUNDED"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

var transitions = map[PaymentStatus][]PaymentStatus{
	StatusPending: {StatusPaid, StatusCancelled},
	StatusPaid:    {StatusCancelled, StatusRefunded},
}

// CanTransition reports whether a booking may move from one payment status to another.
// CANCELLED and REFUNDED are terminal.
func CanTransition(from, to PaymentStatus) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Phase is where a booking sits on the calendar, derived from status and dates.
type Phase string

const (
	PhaseCancelled Phase = "CANCELLED"
	PhaseUpcoming  Phase = "UPCOMING"
	PhaseActive    Phase = "ACTIVE"
	PhaseCompleted Phase = "COMPLETED"
)

type GuestDetails struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type Booking struct {
	ID               string        `json:"_id"`
	UserID           string        `json:"userId"`
	HotelID          string        `json:"hotelId"`
	RoomNumber       string        `json:"roomNumber,omitempty"`
	CheckInDate      time.Time     `json:"checkInDate"`
	CheckOutDate     time.Time     `json:"checkOutDate"`
	NumberOfGuests   int           `json:"numberOfGuests"`
	NumberOfRooms    int           `json:"numberOfRooms"`
	TotalAmount      float64       `json:"totalAmount"`
	PaymentStatus    PaymentStatus `json:"paymentStatus"`
	PaymentReference string        `json:"paymentIntentId,omitempty"`
	SpecialRequests  string        `json:"specialRequests,omitempty"`
	Guest            GuestDetails  `json:"guestDetails"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`

	Hotel *HotelSummary `json:"hotel,omitempty"`
}

const (
	MaxGuests          = 10
	MaxSpecialRequests = 500
)

// Normalize applies the defaults and canonical forms a stored booking carries.
func (b *Booking) Normalize() {
	if b.NumberOfRooms == 0 {
		b.NumberOfRooms = 1
	}
	if b.PaymentStatus == "" {
		b.PaymentStatus = StatusPending
	}
	b.Guest.Email = strings.ToLower(strings.TrimSpace(b.Guest.Email))
}

func (b Booking) Validate() error {
	fields := map[string]string{}
	if b.UserID == "" {
		fields["userId"] = "User ID is required"
	}
	if b.HotelID == "" {
		fields["hotelId"] = "Hotel ID is required"
	}
	if b.CheckInDate.IsZero() {
		fields["checkInDate"] = "Check-in date is required"
	}
	if b.CheckOutDate.IsZero() {
		fields["checkOutDate"] = "Check-out date is required"
	}
	if b.NumberOfGuests < 1 {
		fields["numberOfGuests"] = "At least 1 guest is required"
	} else if b.NumberOfGuests > MaxGuests {
		fields["numberOfGuests"] = "Maximum 10 guests allowed"
	}
	if b.NumberOfRooms < 1 {
		fields["numberOfRooms"] = "At least 1 room is required"
	}
	if b.TotalAmount < 0 {
		fields["totalAmount"] = "Amount cannot be negative"
	}
	if !b.PaymentStatus.Valid() {
		fields["paymentStatus"] = "Unknown payment status"
	}
	if len(b.SpecialRequests) > MaxSpecialRequests {
		fields["specialRequests"] = "Special requests cannot exceed 500 characters"
	}
	if b.Guest.Name == "" {
		fields["guestDetails.name"] = "Guest name is required"
	}
	if b.Guest.Email == "" {
		fields["guestDetails.email"] = "Guest email is required"
	}
	if b.Guest.Phone == "" {
		fields["guestDetails.phone"] = "Guest phone is required"
	}
	if len(fields) > 0 {
		return InvalidFields("Invalid booking data", fields)
	}
	if !b.CheckOutDate.After(b.CheckInDate) {
		return Invalid("Check-out date must be after check-in date")
	}
	return nil
}

// Nights is the number of started 24h periods between check-in and check-out.
func (b Booking) Nights() int {
	d := b.CheckOutDate.Sub(b.CheckInDate)
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Hours() / 24))
}

func (b Booking) DurationDays() int {
	d := b.CheckOutDate.Sub(b.CheckInDate)
	if d < 0 {
		d = -d
	}
	return int(math.Ceil(d.Hours() / 24))
}

func (b Booking) Phase(now time.Time) Phase {
	switch {
	case b.PaymentStatus == StatusCancelled || b.PaymentStatus == StatusRefunded:
		return PhaseCancelled
	case now.Before(b.CheckInDate):
		return PhaseUpcoming
	case !now.After(b.CheckOutDate):
		return PhaseActive
	default:
		return PhaseCompleted
	}
}

// MarshalJSON adds the derived durationDays and bookingStatus fields.
func (b Booking) MarshalJSON() ([]byte, error) {
	type plain Booking
	return json.Marshal(struct {
		plain
		DurationDays  int   `json:"durationDays"`
		BookingStatus Phase `json:"bookingStatus"`
	}{plain(b), b.DurationDays(), b.Phase(time.Now())})
}

type BookingQuery struct {
	UserID string
	Status PaymentStatus // empty means all
	Page   int
	Limit  int
	SortBy string
}

// Offset saturates at math.MaxInt instead of wrapping negative.
func (q BookingQuery) Offset() int {
	if q.Page < 1 || q.Limit < 1 {
		return 0
	}
	if q.Page-1 > math.MaxInt/q.Limit {
		return math.MaxInt
	}
	return (q.Page - 1) * q.Limit
}

// SortFields maps accepted sortBy values to their canonical names.
var SortFields = map[string]string{
	"createdAt":    "createdAt",
	"checkInDate":  "checkInDate",
	"checkOutDate": "checkOutDate",
	"totalAmount":  "totalAmount",
}

type StatusTotal struct {
	Status PaymentStatus
	Count  int64
	Amount float64
}

type BookingStats struct {
	TotalBookings     int64   `json:"totalBookings"`
	TotalSpent        float64 `json:"totalSpent"`
	UpcomingBookings  int64   `json:"upcomingBookings"`
	CompletedBookings int64   `json:"completedBookings"`
}
