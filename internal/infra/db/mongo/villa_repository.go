package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainvilla "villabay/internal/domain/villa"
)

type VillaRepository struct {
	col *mongo.Collection
}

func NewVillaRepository(db *mongo.Database) *VillaRepository {
	return &VillaRepository{col: db.Collection("agg_villa")}
}

func (r *VillaRepository) ByID(ctx context.Context, id domainvilla.ID) (*domainvilla.Villa, error) {
	var doc villaDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domainvilla.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *VillaRepository) Save(ctx context.Context, v *domainvilla.Villa) error {
	doc := newVillaDocument(v)
	_, err := r.col.UpdateByID(ctx, doc.ID, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	return err
}

type villaDocument struct {
	ID            string        `bson:"_id"`
	HostID        string        `bson:"host_uid"`
	Status        string        `bson:"status"`
	Name          string        `bson:"name"`
	GuestLimit    int           `bson:"guest_limit"`
	MinStayNights int           `bson:"min_stay_nights"`
	MaxStayNights int           `bson:"max_stay_nights"`
	InstantBook   bool          `bson:"instant_book"`
	NightlyRate   moneyDocument `bson:"nightly_rate"`
	CleaningFee   moneyDocument `bson:"cleaning_fee"`
}

func newVillaDocument(v *domainvilla.Villa) villaDocument {
	return villaDocument{
		ID:            string(v.ID),
		HostID:        v.HostID,
		Status:        string(v.Status),
		Name:          v.Name,
		GuestLimit:    v.GuestLimit,
		MinStayNights: v.MinStayNights,
		MaxStayNights: v.MaxStayNights,
		InstantBook:   v.InstantBook,
		NightlyRate:   newMoneyDocument(v.NightlyRate),
		CleaningFee:   newMoneyDocument(v.CleaningFee),
	}
}

func (d villaDocument) toAggregate() *domainvilla.Villa {
	return &domainvilla.Villa{
		ID:            domainvilla.ID(d.ID),
		HostID:        d.HostID,
		Status:        domainvilla.Status(d.Status),
		Name:          d.Name,
		GuestLimit:    d.GuestLimit,
		MinStayNights: d.MinStayNights,
		MaxStayNights: d.MaxStayNights,
		InstantBook:   d.InstantBook,
		NightlyRate:   d.NightlyRate.toMoney(),
		CleaningFee:   d.CleaningFee.toMoney(),
	}
}
