package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	domainbooking "villabay/internal/domain/booking"
	domainpayout "villabay/internal/domain/payout"
	"villabay/internal/domain/shared/fault"
)

// PayoutRepository keys payouts by booking, which also gives the
// one-payout-per-booking guarantee for free.
type PayoutRepository struct {
	col *mongo.Collection
}

func NewPayoutRepository(db *mongo.Database) *PayoutRepository {
	return &PayoutRepository{col: db.Collection("agg_payout")}
}

func (r *PayoutRepository) ByBooking(ctx context.Context, bookingID domainbooking.ID) (*domainpayout.Payout, error) {
	var doc payoutDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(bookingID)}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fault.New(fault.KindNotFound, "mongo: payout not found")
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *PayoutRepository) Save(ctx context.Context, p *domainpayout.Payout) error {
	doc := payoutDocument{
		ID:        string(p.BookingID),
		PayoutID:  p.ID,
		HostID:    p.HostID,
		Amount:    newMoneyDocument(p.Amount),
		Status:    string(p.Status),
		CreatedAt: p.CreatedAt.UnixMilli(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainpayout.ErrDuplicate
		}
		return err
	}
	return nil
}

type payoutDocument struct {
	ID        string        `bson:"_id"`
	PayoutID  string        `bson:"payout_uid"`
	HostID    string        `bson:"host_uid"`
	Amount    moneyDocument `bson:"amount"`
	Status    string        `bson:"status"`
	CreatedAt int64         `bson:"created_at"`
}

func (d payoutDocument) toAggregate() *domainpayout.Payout {
	return &domainpayout.Payout{
		ID:        d.PayoutID,
		HostID:    d.HostID,
		BookingID: domainbooking.ID(d.ID),
		Amount:    d.Amount.toMoney(),
		Status:    domainpayout.Status(d.Status),
		CreatedAt: timestampToTime(d.CreatedAt),
	}
}
