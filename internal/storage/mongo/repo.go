// Package mongo stores hotels, bookings, reviews and locations in MongoDB and
// serves similarity search through an Atlas $vectorSearch index.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"hotel_booking/internal/domain"
)

const (
	hotelsColl    = "hotels"
	bookingsColl  = "bookings"
	reviewsColl   = "reviews"
	locationsColl = "locations"
)

type Repo struct {
	client      *mongo.Client
	db          *mongo.Database
	vectorIndex string
}

// Connect dials uri and pings the primary before returning.
func Connect(ctx context.Context, uri, database, vectorIndex string) (*Repo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return New(client, database, vectorIndex), nil
}

func New(client *mongo.Client, database, vectorIndex string) *Repo {
	return &Repo{client: client, db: client.Database(database), vectorIndex: vectorIndex}
}

func (r *Repo) Close(ctx context.Context) error { return r.client.Disconnect(ctx) }

// EnsureIndexes creates the secondary indexes the queries rely on. The vector
// index is managed in Atlas and is not created here.
func (r *Repo) EnsureIndexes(ctx context.Context) error {
	models := map[string][]mongo.IndexModel{
		bookingsColl: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "paymentStatus", Value: 1}}},
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		reviewsColl: {
			{Keys: bson.D{{Key: "hotelId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		locationsColl: {
			{Keys: bson.D{{Key: "name", Value: 1}}},
		},
	}
	for coll, m := range models {
		if _, err := r.db.Collection(coll).Indexes().CreateMany(ctx, m); err != nil {
			return fmt.Errorf("indexes %s: %w", coll, err)
		}
	}
	return nil
}

func now() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }

// objectID parses a hex id. Ids that cannot exist are reported as not found.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, domain.ErrNotFound
	}
	return oid, nil
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.ErrNotFound
	}
	return err
}

func matched(res *mongo.UpdateResult, err error) error {
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) hotels() *mongo.Collection    { return r.db.Collection(hotelsColl) }
func (r *Repo) bookings() *mongo.Collection  { return r.db.Collection(bookingsColl) }
func (r *Repo) reviews() *mongo.Collection   { return r.db.Collection(reviewsColl) }
func (r *Repo) locations() *mongo.Collection { return r.db.Collection(locationsColl) }

// ---- hotels ----

func (r *Repo) CreateHotel(ctx context.Context, h *domain.Hotel) error {
	h.CreatedAt = now()
	h.UpdatedAt = h.CreatedAt
	doc := toHotelDoc(*h)
	doc.ID = primitive.NewObjectID()
	if _, err := r.hotels().InsertOne(ctx, doc); err != nil {
		return err
	}
	h.ID = doc.ID.Hex()
	return nil
}

func (r *Repo) UpdateHotel(ctx context.Context, h domain.Hotel) error {
	oid, err := objectID(h.ID)
	if err != nil {
		return err
	}
	doc := toHotelDoc(h)
	set := bson.M{
		"name":        doc.Name,
		"location":    doc.Location,
		"city":        doc.City,
		"description": doc.Description,
		"price":       doc.Price,
		"stars":       doc.Stars,
		"rating":      doc.Rating,
		"featured":    doc.Featured,
		"amenities":   doc.Amenities,
		"images":      doc.Images,
		"roomTypes":   doc.RoomTypes,
		"updatedAt":   now(),
	}
	update := bson.M{"$set": set}
	unset := bson.M{}
	if doc.StripePriceID != "" {
		set["stripePriceId"] = doc.StripePriceID
	} else {
		unset["stripePriceId"] = ""
	}
	if len(doc.Embedding) > 0 {
		set["embedding"] = doc.Embedding
	} else {
		unset["embedding"] = ""
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return matched(r.hotels().UpdateByID(ctx, oid, update))
}

func (r *Repo) UpdateHotelPrice(ctx context.Context, id string, price float64) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	return matched(r.hotels().UpdateByID(ctx, oid, bson.M{"$set": bson.M{"price": price, "updatedAt": now()}}))
}

func (r *Repo) SetHotelEmbedding(ctx context.Context, id string, v []float32) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	return matched(r.hotels().UpdateByID(ctx, oid, bson.M{"$set": bson.M{"embedding": widen(v)}}))
}

// DeleteHotel removes the hotel and its reviews. Bookings keep their hotelId
// and come back without a hotel summary.
func (r *Repo) DeleteHotel(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := r.hotels().DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	_, err = r.reviews().DeleteMany(ctx, bson.M{"hotelId": oid})
	return err
}

func (r *Repo) GetHotel(ctx context.Context, id string) (domain.Hotel, error) {
	oid, err := objectID(id)
	if err != nil {
		return domain.Hotel{}, err
	}
	var d hotelDoc
	if err := r.hotels().FindOne(ctx, bson.M{"_id": oid}).Decode(&d); err != nil {
		return domain.Hotel{}, notFound(err)
	}
	return d.toDomain(), nil
}

func (r *Repo) ListHotels(ctx context.Context) ([]domain.Hotel, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	return r.findHotels(ctx, bson.M{}, opts)
}

// SearchHotelsText matches query as a literal, case-insensitive substring of
// name, location or description.
func (r *Repo) SearchHotelsText(ctx context.Context, query string, limit int) ([]domain.Hotel, error) {
	re := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	filter := bson.M{"$or": bson.A{
		bson.M{"name": re},
		bson.M{"location": re},
		bson.M{"description": re},
	}}
	opts := options.Find().
		SetSort(bson.D{{Key: "rating", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit))
	return r.findHotels(ctx, filter, opts)
}

func (r *Repo) findHotels(ctx context.Context, filter any, opts *options.FindOptions) ([]domain.Hotel, error) {
	cur, err := r.hotels().Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []hotelDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.Hotel, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

// SearchHotelsVector runs an approximate nearest-neighbour query against the
// Atlas index. It fails on deployments without Atlas Search, which callers
// treat as a reason to fall back to text search.
func (r *Repo) SearchHotelsVector(ctx context.Context, vec []float32, numCandidates, limit int) ([]domain.ScoredHotel, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$vectorSearch", Value: bson.M{
			"index":         r.vectorIndex,
			"path":          "embedding",
			"queryVector":   widen(vec),
			"numCandidates": numCandidates,
			"limit":         limit,
		}}},
		{{Key: "$addFields", Value: bson.M{"score": bson.M{"$meta": "vectorSearchScore"}}}},
		{{Key: "$project", Value: bson.M{"embedding": 0}}},
	}
	cur, err := r.hotels().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var docs []scoredHotelDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.ScoredHotel, 0, len(docs))
	for _, d := range docs {
		out = append(out, domain.ScoredHotel{Hotel: d.Doc.toDomain(), Score: d.Score})
	}
	return out, nil
}
