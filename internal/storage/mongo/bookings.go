package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"hotel_booking/internal/domain"
)

// hotelLookup joins the booked hotel without its embedding.
var hotelLookup = mongo.Pipeline{
	{{Key: "$lookup", Value: bson.M{
		"from":         hotelsColl,
		"localField":   "hotelId",
		"foreignField": "_id",
		"as":           "hotel",
	}}},
	{{Key: "$unwind", Value: bson.M{"path": "$hotel", "preserveNullAndEmptyArrays": true}}},
	{{Key: "$project", Value: bson.M{"hotel.embedding": 0}}},
}

func (r *Repo) CreateBooking(ctx context.Context, b *domain.Booking) error {
	hotelID, err := objectID(b.HotelID)
	if err != nil {
		return err
	}
	b.CreatedAt = now()
	b.UpdatedAt = b.CreatedAt
	doc := toBookingDoc(*b, hotelID)
	doc.ID = primitive.NewObjectID()
	if _, err := r.bookings().InsertOne(ctx, doc); err != nil {
		return err
	}
	b.ID = doc.ID.Hex()
	return nil
}

func (r *Repo) GetBooking(ctx context.Context, id string) (domain.Booking, error) {
	oid, err := objectID(id)
	if err != nil {
		return domain.Booking{}, err
	}
	pipeline := append(mongo.Pipeline{{{Key: "$match", Value: bson.M{"_id": oid}}}}, hotelLookup...)
	out, err := r.aggregateBookings(ctx, pipeline)
	if err != nil {
		return domain.Booking{}, err
	}
	if len(out) == 0 {
		return domain.Booking{}, domain.ErrNotFound
	}
	return out[0], nil
}

func bookingFilter(q domain.BookingQuery) bson.M {
	f := bson.M{"userId": q.UserID}
	if q.Status != "" {
		f["paymentStatus"] = string(q.Status)
	}
	return f
}

func (r *Repo) ListBookings(ctx context.Context, q domain.BookingQuery) ([]domain.Booking, error) {
	field, ok := domain.SortFields[q.SortBy]
	if !ok {
		field = "createdAt"
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bookingFilter(q)}},
		{{Key: "$sort", Value: bson.D{{Key: field, Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$skip", Value: int64(q.Offset())}},
		{{Key: "$limit", Value: int64(q.Limit)}},
	}
	return r.aggregateBookings(ctx, append(pipeline, hotelLookup...))
}

func (r *Repo) aggregateBookings(ctx context.Context, pipeline mongo.Pipeline) ([]domain.Booking, error) {
	cur, err := r.bookings().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var docs []bookingDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.Booking, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *Repo) CountBookings(ctx context.Context, q domain.BookingQuery) (int64, error) {
	return r.bookings().CountDocuments(ctx, bookingFilter(q))
}

func (r *Repo) StatusTotals(ctx context.Context, userID string) ([]domain.StatusTotal, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"userId": userID}}},
		{{Key: "$group", Value: bson.M{
			"_id":    "$paymentStatus",
			"count":  bson.M{"$sum": 1},
			"amount": bson.M{"$sum": "$totalAmount"},
		}}},
	}
	cur, err := r.bookings().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		Status string  `bson:"_id"`
		Count  int64   `bson:"count"`
		Amount float64 `bson:"amount"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make([]domain.StatusTotal, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.StatusTotal{Status: domain.PaymentStatus(row.Status), Count: row.Count, Amount: row.Amount})
	}
	return out, nil
}

func (r *Repo) BookingStats(ctx context.Context, userID string, at time.Time) (domain.BookingStats, error) {
	at = at.UTC()
	paid := bson.M{"$eq": bson.A{"$paymentStatus", string(domain.StatusPaid)}}
	countIf := func(cond bson.M) bson.M {
		return bson.M{"$sum": bson.M{"$cond": bson.A{cond, 1, 0}}}
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"userId": userID}}},
		{{Key: "$group", Value: bson.M{
			"_id":           nil,
			"totalBookings": bson.M{"$sum": 1},
			"totalSpent":    bson.M{"$sum": bson.M{"$cond": bson.A{paid, "$totalAmount", 0}}},
			"upcomingBookings": countIf(bson.M{"$and": bson.A{
				paid, bson.M{"$gte": bson.A{"$checkInDate", at}},
			}}),
			"completedBookings": countIf(bson.M{"$and": bson.A{
				paid, bson.M{"$lt": bson.A{"$checkOutDate", at}},
			}}),
		}}},
	}
	cur, err := r.bookings().Aggregate(ctx, pipeline)
	if err != nil {
		return domain.BookingStats{}, err
	}
	var rows []struct {
		TotalBookings     int64   `bson:"totalBookings"`
		TotalSpent        float64 `bson:"totalSpent"`
		UpcomingBookings  int64   `bson:"upcomingBookings"`
		CompletedBookings int64   `bson:"completedBookings"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return domain.BookingStats{}, err
	}
	if len(rows) == 0 {
		return domain.BookingStats{}, nil
	}
	return domain.BookingStats(rows[0]), nil
}

func (r *Repo) TransitionStatus(ctx context.Context, id string, from, to domain.PaymentStatus) (bool, error) {
	if !domain.CanTransition(from, to) {
		return false, fmt.Errorf("illegal transition %s -> %s", from, to)
	}
	oid, err := objectID(id)
	if err != nil {
		return false, err
	}
	res, err := r.bookings().UpdateOne(ctx,
		bson.M{"_id": oid, "paymentStatus": string(from)},
		bson.M{"$set": bson.M{"paymentStatus": string(to), "updatedAt": now()}},
	)
	if err != nil {
		return false, err
	}
	if res.ModifiedCount == 1 {
		return true, nil
	}
	// lost the race, or the booking does not exist
	n, err := r.bookings().CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, domain.ErrNotFound
	}
	return false, nil
}

func (r *Repo) SetPaymentReference(ctx context.Context, id, ref string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	return matched(r.bookings().UpdateByID(ctx, oid, bson.M{"$set": bson.M{"paymentIntentId": ref, "updatedAt": now()}}))
}
