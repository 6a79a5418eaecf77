package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "villabay/internal/domain/booking"
	domainrange "villabay/internal/domain/shared/daterange"
	"villabay/internal/domain/shared/money"
	domainvilla "villabay/internal/domain/villa"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection("agg_booking")}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.ID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domainbooking.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) ActiveOverlapping(ctx context.Context, villaID domainvilla.ID, dr domainrange.DateRange) ([]*domainbooking.Booking, error) {
	filter := bson.M{
		"villa_uid":       string(villaID),
		"status":          bson.M{"$in": activeStatuses()},
		"range.check_in":  bson.M{"$lt": dr.CheckOut.UnixMilli()},
		"range.check_out": bson.M{"$gt": dr.CheckIn.UnixMilli()},
	}
	return r.find(ctx, filter, nil)
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.find(ctx, bson.M{"guest_uid": guestID}, opts)
}

func (r *BookingRepository) ListDueForCompletion(ctx context.Context, now time.Time) ([]*domainbooking.Booking, error) {
	filter := bson.M{
		"status":          string(domainbooking.StatusPaid),
		"range.check_out": bson.M{"$lte": now.UTC().UnixMilli()},
	}
	opts := options.Find().SetSort(bson.D{{Key: "range.check_out", Value: 1}})
	return r.find(ctx, filter, opts)
}

func (r *BookingRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domainbooking.Booking, error) {
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var result []*domainbooking.Booking
	for cursor.Next(ctx) {
		var doc bookingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		result = append(result, doc.toAggregate())
	}
	return result, cursor.Err()
}

func activeStatuses() []string {
	return []string{
		string(domainbooking.StatusPending),
		string(domainbooking.StatusConfirmed),
		string(domainbooking.StatusPaid),
	}
}

type bookingDocument struct {
	ID                 string            `bson:"_id"`
	VillaID            string            `bson:"villa_uid"`
	GuestID            string            `bson:"guest_uid"`
	HostID             string            `bson:"host_uid"`
	Range              rangeDocument     `bson:"range"`
	Guests             int               `bson:"guests"`
	Status             string            `bson:"status"`
	InstantBook        bool              `bson:"instant_book"`
	Price              priceDocument     `bson:"price"`
	PayoutAmount       moneyDocument     `bson:"payout_amount"`
	Payments           []paymentDocument `bson:"payments"`
	CreatedAt          int64             `bson:"created_at"`
	UpdatedAt          int64             `bson:"updated_at"`
	CancelledAt        *int64            `bson:"cancelled_at,omitempty"`
	CancellationReason string            `bson:"cancellation_reason,omitempty"`
	ReviewPrompted     bool              `bson:"review_prompted"`
	Version            int64             `bson:"version"`
}

type rangeDocument struct {
	CheckIn  int64 `bson:"check_in"`
	CheckOut int64 `bson:"check_out"`
}

type moneyDocument struct {
	Amount   int64  `bson:"amount"`
	Currency string `bson:"currency"`
}

type priceDocument struct {
	Nights          int           `bson:"nights"`
	NightlySubtotal moneyDocument `bson:"nightly_subtotal"`
	CleaningFee     moneyDocument `bson:"cleaning_fee"`
	ServiceFee      moneyDocument `bson:"service_fee"`
	TaxFee          moneyDocument `bson:"tax_fee"`
	Total           moneyDocument `bson:"total"`
}

type paymentDocument struct {
	ID            string        `bson:"_id"`
	Method        string        `bson:"payment_method"`
	Status        string        `bson:"payment_status"`
	Total         moneyDocument `bson:"total"`
	TransactionID string        `bson:"transaction_id,omitempty"`
	PaidAt        *int64        `bson:"paid_at,omitempty"`
	RefundedAt    *int64        `bson:"refunded_at,omitempty"`
	CreatedAt     int64         `bson:"created_at"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	doc := bookingDocument{
		ID:                 string(b.ID),
		VillaID:            string(b.VillaID),
		GuestID:            b.GuestID,
		HostID:             b.HostID,
		Range:              rangeDocument{CheckIn: b.Range.CheckIn.UnixMilli(), CheckOut: b.Range.CheckOut.UnixMilli()},
		Guests:             b.Guests,
		Status:             string(b.Status),
		InstantBook:        b.InstantBook,
		Price:              newPriceDocument(b.Price),
		PayoutAmount:       newMoneyDocument(b.PayoutAmount),
		Payments:           newPaymentDocuments(b),
		CreatedAt:          b.CreatedAt.UnixMilli(),
		UpdatedAt:          b.UpdatedAt.UnixMilli(),
		CancellationReason: b.CancellationReason,
		ReviewPrompted:     b.ReviewPrompted,
		Version:            b.Version,
	}
	if b.CancelledAt != nil {
		at := b.CancelledAt.UnixMilli()
		doc.CancelledAt = &at
	}
	return doc
}

func newPriceDocument(p domainbooking.PriceBreakdown) priceDocument {
	return priceDocument{
		Nights:          p.Nights,
		NightlySubtotal: newMoneyDocument(p.NightlySubtotal),
		CleaningFee:     newMoneyDocument(p.CleaningFee),
		ServiceFee:      newMoneyDocument(p.ServiceFee),
		TaxFee:          newMoneyDocument(p.TaxFee),
		Total:           newMoneyDocument(p.Total),
	}
}

func newMoneyDocument(m money.Money) moneyDocument {
	return moneyDocument{Amount: m.Amount, Currency: m.Currency}
}

func newPaymentDocuments(b *domainbooking.Booking) []paymentDocument {
	docs := make([]paymentDocument, 0, len(b.Payments))
	for _, p := range b.Payments {
		doc := paymentDocument{
			ID:            p.ID,
			Method:        p.Method,
			Status:        string(p.Status),
			Total:         newMoneyDocument(p.Total),
			TransactionID: p.TransactionID,
			CreatedAt:     p.CreatedAt.UnixMilli(),
		}
		if p.PaidAt != nil {
			at := p.PaidAt.UnixMilli()
			doc.PaidAt = &at
		}
		if p.RefundedAt != nil {
			at := p.RefundedAt.UnixMilli()
			doc.RefundedAt = &at
		}
		docs = append(docs, doc)
	}
	return docs
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	b := &domainbooking.Booking{
		ID:      domainbooking.ID(d.ID),
		VillaID: domainvilla.ID(d.VillaID),
		GuestID: d.GuestID,
		HostID:  d.HostID,
		Range: domainrange.DateRange{
			CheckIn:  timestampToTime(d.Range.CheckIn),
			CheckOut: timestampToTime(d.Range.CheckOut),
		},
		Guests:             d.Guests,
		Status:             domainbooking.Status(d.Status),
		InstantBook:        d.InstantBook,
		Price:              d.Price.toBreakdown(),
		PayoutAmount:       d.PayoutAmount.toMoney(),
		CreatedAt:          timestampToTime(d.CreatedAt),
		UpdatedAt:          timestampToTime(d.UpdatedAt),
		CancellationReason: d.CancellationReason,
		ReviewPrompted:     d.ReviewPrompted,
		Version:            d.Version,
	}
	if d.CancelledAt != nil {
		at := timestampToTime(*d.CancelledAt)
		b.CancelledAt = &at
	}
	for _, p := range d.Payments {
		record := domainbooking.PaymentRecord{
			ID:            p.ID,
			BookingID:     b.ID,
			Method:        p.Method,
			Status:        domainbooking.PaymentStatus(p.Status),
			Total:         p.Total.toMoney(),
			TransactionID: p.TransactionID,
			CreatedAt:     timestampToTime(p.CreatedAt),
		}
		if p.PaidAt != nil {
			at := timestampToTime(*p.PaidAt)
			record.PaidAt = &at
		}
		if p.RefundedAt != nil {
			at := timestampToTime(*p.RefundedAt)
			record.RefundedAt = &at
		}
		b.Payments = append(b.Payments, record)
	}
	return b
}

func (d priceDocument) toBreakdown() domainbooking.PriceBreakdown {
	return domainbooking.PriceBreakdown{
		Nights:          d.Nights,
		NightlySubtotal: d.NightlySubtotal.toMoney(),
		CleaningFee:     d.CleaningFee.toMoney(),
		ServiceFee:      d.ServiceFee.toMoney(),
		TaxFee:          d.TaxFee.toMoney(),
		Total:           d.Total.toMoney(),
	}
}

func (d moneyDocument) toMoney() money.Money {
	return money.Money{Amount: d.Amount, Currency: d.Currency}
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
