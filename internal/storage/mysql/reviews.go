package mysql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"hotel_booking/internal/domain"
)

// CreateReview inserts the review and bumps the hotel's counter in one transaction.
func (r *Repo) CreateReview(ctx context.Context, rv *domain.Review) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	rv.ID = uuid.NewString()
	rv.CreatedAt = now()
	if _, err = tx.ExecContext(ctx, insertReviewSQL, rv.ID, rv.HotelID, rv.UserID, rv.Rating, rv.Comment, rv.CreatedAt); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, bumpReviewCountSQL, rv.HotelID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = domain.ErrNotFound
		return err
	}
	return tx.Commit()
}

func (r *Repo) ListReviews(ctx context.Context, hotelID string) ([]domain.Review, error) {
	rows, err := r.db.QueryContext(ctx, listReviewsSQL, hotelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Review{}
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(&rv.ID, &rv.HotelID, &rv.UserID, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

func (r *Repo) CreateLocation(ctx context.Context, l *domain.Location) error {
	l.ID = uuid.NewString()
	l.CreatedAt = now()
	l.UpdatedAt = l.CreatedAt
	_, err := r.db.ExecContext(ctx, insertLocationSQL, l.ID, l.Name, l.CreatedAt, l.UpdatedAt)
	return err
}

func (r *Repo) GetLocation(ctx context.Context, id string) (domain.Location, error) {
	var l domain.Location
	err := r.db.QueryRowContext(ctx, getLocationSQL, id).Scan(&l.ID, &l.Name, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Location{}, domain.ErrNotFound
	}
	return l, err
}

func (r *Repo) ListLocations(ctx context.Context) ([]domain.Location, error) {
	rows, err := r.db.QueryContext(ctx, listLocationsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Location{}
	for rows.Next() {
		var l domain.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *Repo) UpdateLocation(ctx context.Context, l domain.Location) error {
	res, err := r.db.ExecContext(ctx, updateLocationSQL, l.Name, now(), l.ID)
	return r.affected(ctx, res, err, existsLocationSQL, l.ID)
}

func (r *Repo) DeleteLocation(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, deleteLocationSQL, id)
	return r.affected(ctx, res, err, existsLocationSQL, id)
}
