package domain_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel_booking/internal/domain"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func validBooking() domain.Booking {
	b := domain.Booking{
		UserID:         "user_1",
		HotelID:        "h1",
		CheckInDate:    day("2025-01-08"),
		CheckOutDate:   day("2025-01-10"),
		NumberOfGuests: 2,
		TotalAmount:    300,
		Guest:          domain.GuestDetails{Name: "Ana", Email: "  Ana@Example.COM ", Phone: "123"},
	}
	b.Normalize()
	return b
}

func TestBookingValidate_CheckOutBeforeCheckIn(t *testing.T) {
	b := validBooking()
	b.CheckInDate = day("2025-01-10")
	b.CheckOutDate = day("2025-01-08")

	err := b.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.Equal(t, "Check-out date must be after check-in date", domain.Message(err))
}

func TestBookingValidate_SameDayRejected(t *testing.T) {
	b := validBooking()
	b.CheckOutDate = b.CheckInDate
	assert.ErrorIs(t, b.Validate(), domain.ErrValidation)
}

func TestBookingValidate_FieldRanges(t *testing.T) {
	b := validBooking()
	b.NumberOfGuests = 11
	b.TotalAmount = -1

	err := b.Validate()
	var de *domain.Error
	require.ErrorAs(t, err, &de)
	assert.Contains(t, de.Fields, "numberOfGuests")
	assert.Contains(t, de.Fields, "totalAmount")
}

func TestBookingNormalize(t *testing.T) {
	b := validBooking()
	assert.Equal(t, "ana@example.com", b.Guest.Email)
	assert.Equal(t, 1, b.NumberOfRooms)
	assert.Equal(t, domain.StatusPending, b.PaymentStatus)
	assert.NoError(t, b.Validate())
}

func TestBookingNightsAndPhase(t *testing.T) {
	b := validBooking()
	assert.Equal(t, 2, b.Nights())
	assert.Equal(t, 2, b.DurationDays())

	assert.Equal(t, domain.PhaseUpcoming, b.Phase(day("2025-01-01")))
	assert.Equal(t, domain.PhaseActive, b.Phase(day("2025-01-09")))
	assert.Equal(t, domain.PhaseCompleted, b.Phase(day("2025-02-01")))

	b.PaymentStatus = domain.StatusCancelled
	assert.Equal(t, domain.PhaseCancelled, b.Phase(day("2025-01-01")))
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to domain.PaymentStatus
		ok       bool
	}{
		{domain.StatusPending, domain.StatusPaid, true},
		{domain.StatusPending, domain.StatusCancelled, true},
		{domain.StatusPaid, domain.StatusCancelled, true},
		{domain.StatusPaid, domain.StatusPaid, false},
		{domain.StatusCancelled, domain.StatusPaid, false},
		{domain.StatusRefunded, domain.StatusCancelled, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.ok, domain.CanTransition(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}

func TestBookingJSONIncludesDerivedFields(t *testing.T) {
	b := validBooking()
	raw, err := json.Marshal(b)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, float64(2), out["durationDays"])
	assert.Equal(t, "COMPLETED", out["bookingStatus"])
	assert.Equal(t, "PENDING", out["paymentStatus"])
}

func TestBookingQueryOffset(t *testing.T) {
	assert.Equal(t, 0, domain.BookingQuery{Page: 0, Limit: 10}.Offset())
	assert.Equal(t, 20, domain.BookingQuery{Page: 3, Limit: 10}.Offset())
	assert.Equal(t, math.MaxInt, domain.BookingQuery{Page: math.MaxInt, Limit: 100}.Offset())
}
