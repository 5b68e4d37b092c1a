package mongo

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"hotel_booking/internal/domain"
)

// CreateReview inserts the review and then bumps the hotel's counter. The two
// writes are not transactional so standalone servers work; a crash between
// them leaves the counter one short.
func (r *Repo) CreateReview(ctx context.Context, rv *domain.Review) error {
	hotelID, err := objectID(rv.HotelID)
	if err != nil {
		return err
	}
	res, err := r.hotels().UpdateByID(ctx, hotelID, bson.M{"$inc": bson.M{"reviewCount": 1}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}

	rv.CreatedAt = now()
	doc := reviewDoc{
		ID:        primitive.NewObjectID(),
		HotelID:   hotelID,
		UserID:    rv.UserID,
		Rating:    rv.Rating,
		Comment:   rv.Comment,
		CreatedAt: rv.CreatedAt,
	}
	if _, err := r.reviews().InsertOne(ctx, doc); err != nil {
		// undo the bump so the counter matches the stored reviews
		_, _ = r.hotels().UpdateByID(ctx, hotelID, bson.M{"$inc": bson.M{"reviewCount": -1}})
		return err
	}
	rv.ID = doc.ID.Hex()
	return nil
}

func (r *Repo) ListReviews(ctx context.Context, hotelID string) ([]domain.Review, error) {
	oid, err := objectID(hotelID)
	if err != nil {
		return []domain.Review{}, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.reviews().Find(ctx, bson.M{"hotelId": oid}, opts)
	if err != nil {
		return nil, err
	}
	var docs []reviewDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.Review, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

// ---- locations ----

func (r *Repo) CreateLocation(ctx context.Context, l *domain.Location) error {
	l.Name = strings.TrimSpace(l.Name)
	l.CreatedAt = now()
	l.UpdatedAt = l.CreatedAt
	doc := locationDoc{ID: primitive.NewObjectID(), Name: l.Name, CreatedAt: l.CreatedAt, UpdatedAt: l.UpdatedAt}
	if _, err := r.locations().InsertOne(ctx, doc); err != nil {
		return err
	}
	l.ID = doc.ID.Hex()
	return nil
}

func (r *Repo) GetLocation(ctx context.Context, id string) (domain.Location, error) {
	oid, err := objectID(id)
	if err != nil {
		return domain.Location{}, err
	}
	var d locationDoc
	if err := r.locations().FindOne(ctx, bson.M{"_id": oid}).Decode(&d); err != nil {
		return domain.Location{}, notFound(err)
	}
	return d.toDomain(), nil
}

func (r *Repo) ListLocations(ctx context.Context) ([]domain.Location, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.locations().Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	var docs []locationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.Location, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *Repo) UpdateLocation(ctx context.Context, l domain.Location) error {
	oid, err := objectID(l.ID)
	if err != nil {
		return err
	}
	return matched(r.locations().UpdateByID(ctx, oid, bson.M{"$set": bson.M{"name": strings.TrimSpace(l.Name), "updatedAt": now()}}))
}

func (r *Repo) DeleteLocation(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := r.locations().DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
