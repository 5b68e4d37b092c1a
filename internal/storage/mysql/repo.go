package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"hotel_booking/internal/domain"
)

func valStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func valJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if string(b) == "null" {
		return "[]", nil
	}
	return string(b), nil
}

func now() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanHotel(s scanner) (domain.Hotel, error) {
	var (
		h                 domain.Hotel
		amen, imgs, rooms []byte
		priceID           sql.NullString
		embedding         []byte
	)
	if err := s.Scan(
		&h.ID, &h.Name, &h.Location, &h.City, &h.Description, &h.Price, &h.Stars, &h.Rating,
		&h.ReviewCount, &h.Featured, &amen, &imgs, &rooms,
		&priceID, &embedding, &h.CreatedAt, &h.UpdatedAt,
	); err != nil {
		return domain.Hotel{}, err
	}
	_ = json.Unmarshal(amen, &h.Amenities)
	_ = json.Unmarshal(imgs, &h.Images)
	_ = json.Unmarshal(rooms, &h.RoomTypes)
	if h.Amenities == nil {
		h.Amenities = []string{}
	}
	if h.Images == nil {
		h.Images = []string{}
	}
	if h.RoomTypes == nil {
		h.RoomTypes = []domain.RoomType{}
	}
	h.StripePriceID = priceID.String
	h.Embedding = blobToFloat32(embedding)
	return h, nil
}

func hotelArgs(h domain.Hotel) (amen, imgs, rooms string, err error) {
	if amen, err = valJSON(h.Amenities); err != nil {
		return
	}
	if imgs, err = valJSON(h.Images); err != nil {
		return
	}
	rooms, err = valJSON(h.RoomTypes)
	return
}

func (r *Repo) CreateHotel(ctx context.Context, h *domain.Hotel) error {
	amen, imgs, rooms, err := hotelArgs(*h)
	if err != nil {
		return err
	}
	h.ID = uuid.NewString()
	h.CreatedAt = now()
	h.UpdatedAt = h.CreatedAt
	_, err = r.db.ExecContext(ctx, insertHotelSQL,
		h.ID, h.Name, h.Location, h.City, h.Description, h.Price, h.Stars, h.Rating, h.ReviewCount,
		h.Featured, amen, imgs, rooms, valStr(h.StripePriceID), float32ToBlob(h.Embedding),
		h.CreatedAt, h.UpdatedAt,
	)
	return err
}

func (r *Repo) UpdateHotel(ctx context.Context, h domain.Hotel) error {
	amen, imgs, rooms, err := hotelArgs(h)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, updateHotelSQL,
		h.Name, h.Location, h.City, h.Description, h.Price, h.Stars, h.Rating, h.Featured,
		amen, imgs, rooms, valStr(h.StripePriceID), float32ToBlob(h.Embedding), now(),
		h.ID,
	)
	return r.affected(ctx, res, err, existsHotelSQL, h.ID)
}

func (r *Repo) UpdateHotelPrice(ctx context.Context, id string, price float64) error {
	res, err := r.db.ExecContext(ctx, updateHotelPriceSQL, price, now(), id)
	return r.affected(ctx, res, err, existsHotelSQL, id)
}

func (r *Repo) SetHotelEmbedding(ctx context.Context, id string, v []float32) error {
	res, err := r.db.ExecContext(ctx, setHotelEmbeddingSQL, float32ToBlob(v), id)
	return r.affected(ctx, res, err, existsHotelSQL, id)
}

func (r *Repo) DeleteHotel(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, deleteHotelSQL, id)
	return r.affected(ctx, res, err, existsHotelSQL, id)
}

func (r *Repo) GetHotel(ctx context.Context, id string) (domain.Hotel, error) {
	h, err := scanHotel(r.db.QueryRowContext(ctx, getHotelSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Hotel{}, domain.ErrNotFound
	}
	return h, err
}

func (r *Repo) ListHotels(ctx context.Context) ([]domain.Hotel, error) {
	return r.queryHotels(ctx, listHotelsSQL)
}

func (r *Repo) SearchHotelsText(ctx context.Context, query string, limit int) ([]domain.Hotel, error) {
	p := "%" + escapeLike(query) + "%"
	return r.queryHotels(ctx, searchHotelsTextSQL, p, p, p, limit)
}

func (r *Repo) queryHotels(ctx context.Context, q string, args ...any) ([]domain.Hotel, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Hotel{}
	for rows.Next() {
		h, err := scanHotel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// affected maps "no row changed" to domain.ErrNotFound. MySQL reports changed
// rather than matched rows, so a zero count is confirmed with existsQuery
// before it is treated as missing.
func (r *Repo) affected(ctx context.Context, res sql.Result, err error, existsQuery, id string) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	return r.exists(ctx, existsQuery, id)
}

func (r *Repo) exists(ctx context.Context, existsQuery, id string) error {
	var one int
	err := r.db.QueryRowContext(ctx, existsQuery, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}
