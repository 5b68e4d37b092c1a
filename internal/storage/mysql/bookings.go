package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"hotel_booking/internal/domain"
)

func scanBooking(s scanner) (domain.Booking, error) {
	var (
		b          domain.Booking
		status     string
		reference  sql.NullString
		hID        sql.NullString
		hName      sql.NullString
		hLocation  sql.NullString
		hCity      sql.NullString
		hImages    []byte
		hRating    sql.NullFloat64
		hAmenities []byte
		hPrice     sql.NullFloat64
	)
	if err := s.Scan(
		&b.ID, &b.UserID, &b.HotelID, &b.RoomNumber, &b.CheckInDate, &b.CheckOutDate,
		&b.NumberOfGuests, &b.NumberOfRooms, &b.TotalAmount, &status,
		&reference, &b.SpecialRequests, &b.Guest.Name, &b.Guest.Email, &b.Guest.Phone,
		&b.CreatedAt, &b.UpdatedAt,
		&hID, &hName, &hLocation, &hCity, &hImages, &hRating, &hAmenities, &hPrice,
	); err != nil {
		return domain.Booking{}, err
	}
	b.PaymentStatus = domain.PaymentStatus(status)
	b.PaymentReference = reference.String
	if hID.Valid {
		sum := domain.HotelSummary{
			ID:       hID.String,
			Name:     hName.String,
			Location: hLocation.String,
			City:     hCity.String,
			Rating:   hRating.Float64,
			Price:    hPrice.Float64,
		}
		_ = json.Unmarshal(hImages, &sum.Images)
		_ = json.Unmarshal(hAmenities, &sum.Amenities)
		b.Hotel = &sum
	}
	return b, nil
}

func (r *Repo) CreateBooking(ctx context.Context, b *domain.Booking) error {
	b.ID = uuid.NewString()
	b.CreatedAt = now()
	b.UpdatedAt = b.CreatedAt
	_, err := r.db.ExecContext(ctx, insertBookingSQL,
		b.ID, b.UserID, b.HotelID, b.RoomNumber, b.CheckInDate.UTC(), b.CheckOutDate.UTC(),
		b.NumberOfGuests, b.NumberOfRooms, b.TotalAmount, string(b.PaymentStatus),
		valStr(b.PaymentReference), b.SpecialRequests, b.Guest.Name, b.Guest.Email, b.Guest.Phone,
		b.CreatedAt, b.UpdatedAt,
	)
	return err
}

func (r *Repo) GetBooking(ctx context.Context, id string) (domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx, getBookingSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Booking{}, domain.ErrNotFound
	}
	return b, err
}

func bookingFilter(q domain.BookingQuery) (string, []any) {
	where := []string{"b.user_id = ?"}
	args := []any{q.UserID}
	if q.Status != "" {
		where = append(where, "b.payment_status = ?")
		args = append(args, string(q.Status))
	}
	return "WHERE " + strings.Join(where, " AND "), args
}

func (r *Repo) ListBookings(ctx context.Context, q domain.BookingQuery) ([]domain.Booking, error) {
	col, ok := sortColumns[q.SortBy]
	if !ok {
		col = sortColumns["createdAt"]
	}
	where, args := bookingFilter(q)
	stmt := fmt.Sprintf("%s%s\nORDER BY %s DESC, b.id DESC\nLIMIT ? OFFSET ?", listBookingsPrefix, where, col)
	args = append(args, q.Limit, q.Offset())

	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repo) CountBookings(ctx context.Context, q domain.BookingQuery) (int64, error) {
	where, args := bookingFilter(q)
	var n int64
	err := r.db.QueryRowContext(ctx, countBookingsPrefix+where, args...).Scan(&n)
	return n, err
}

func (r *Repo) StatusTotals(ctx context.Context, userID string) ([]domain.StatusTotal, error) {
	rows, err := r.db.QueryContext(ctx, statusTotalsSQL, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.StatusTotal
	for rows.Next() {
		var (
			t      domain.StatusTotal
			status string
		)
		if err := rows.Scan(&status, &t.Count, &t.Amount); err != nil {
			return nil, err
		}
		t.Status = domain.PaymentStatus(status)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repo) BookingStats(ctx context.Context, userID string, at time.Time) (domain.BookingStats, error) {
	var st domain.BookingStats
	at = at.UTC()
	err := r.db.QueryRowContext(ctx, bookingStatsSQL, at, at, userID).
		Scan(&st.TotalBookings, &st.TotalSpent, &st.UpcomingBookings, &st.CompletedBookings)
	return st, err
}

func (r *Repo) TransitionStatus(ctx context.Context, id string, from, to domain.PaymentStatus) (bool, error) {
	if !domain.CanTransition(from, to) {
		return false, fmt.Errorf("illegal transition %s -> %s", from, to)
	}
	res, err := r.db.ExecContext(ctx, transitionStatusSQL, string(to), now(), id, string(from))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 1 {
		return true, nil
	}
	// lost the race, or the booking does not exist
	return false, r.exists(ctx, bookingExistsSQL, id)
}

func (r *Repo) SetPaymentReference(ctx context.Context, id, ref string) error {
	res, err := r.db.ExecContext(ctx, setPaymentReferenceSQL, valStr(ref), now(), id)
	return r.affected(ctx, res, err, bookingExistsSQL, id)
}
