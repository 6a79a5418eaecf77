package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "villabay/internal/domain/booking"
	domainreview "villabay/internal/domain/review"
	"villabay/internal/domain/shared/fault"
	domainvilla "villabay/internal/domain/villa"
)

type ReviewRepository struct {
	col *mongo.Collection
}

func NewReviewRepository(db *mongo.Database) *ReviewRepository {
	col := db.Collection("agg_review")
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "booking_uid", Value: 1}, {Key: "direction", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &ReviewRepository{col: col}
}

func (r *ReviewRepository) ByBookingAndDirection(ctx context.Context, bookingID domainbooking.ID, direction domainreview.Direction) (*domainreview.Review, error) {
	var doc reviewDocument
	filter := bson.M{"booking_uid": string(bookingID), "direction": string(direction)}
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domainreview.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ReviewRepository) ListByVilla(ctx context.Context, villaID domainvilla.ID, limit, offset int) ([]*domainreview.Review, error) {
	filter := bson.M{"villa_uid": string(villaID), "direction": string(domainreview.GuestOnVilla)}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetSkip(int64(offset))
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var result []*domainreview.Review
	for cursor.Next(ctx) {
		var doc reviewDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		result = append(result, doc.toAggregate())
	}
	return result, cursor.Err()
}

func (r *ReviewRepository) Save(ctx context.Context, rev *domainreview.Review) error {
	doc := newReviewDocument(rev)
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fault.New(fault.KindConflict, "mongo: review already exists for booking and direction")
		}
		return err
	}
	return nil
}

type reviewDocument struct {
	ID        string `bson:"_id"`
	BookingID string `bson:"booking_uid"`
	VillaID   string `bson:"villa_uid"`
	Direction string `bson:"direction"`
	AuthorID  string `bson:"author_uid"`
	SubjectID string `bson:"subject_uid"`
	Rating    int    `bson:"rating"`
	Text      string `bson:"text,omitempty"`
	CreatedAt int64  `bson:"created_at"`
}

func newReviewDocument(rev *domainreview.Review) reviewDocument {
	return reviewDocument{
		ID:        rev.ID,
		BookingID: string(rev.BookingID),
		VillaID:   string(rev.VillaID),
		Direction: string(rev.Direction),
		AuthorID:  rev.AuthorID,
		SubjectID: rev.SubjectID,
		Rating:    rev.Rating,
		Text:      rev.Text,
		CreatedAt: rev.CreatedAt.UnixMilli(),
	}
}

func (d reviewDocument) toAggregate() *domainreview.Review {
	return &domainreview.Review{
		ID:        d.ID,
		BookingID: domainbooking.ID(d.BookingID),
		VillaID:   domainvilla.ID(d.VillaID),
		Direction: domainreview.Direction(d.Direction),
		AuthorID:  d.AuthorID,
		SubjectID: d.SubjectID,
		Rating:    d.Rating,
		Text:      d.Text,
		CreatedAt: timestampToTime(d.CreatedAt),
	}
}
