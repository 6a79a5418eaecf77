package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainavailability "villabay/internal/domain/availability"
	domainrange "villabay/internal/domain/shared/daterange"
	domainvilla "villabay/internal/domain/villa"
)

// CalendarRepository persists one document per villa calendar.
type CalendarRepository struct {
	col *mongo.Collection
}

func NewCalendarRepository(db *mongo.Database) *CalendarRepository {
	return &CalendarRepository{col: db.Collection("agg_calendar")}
}

// Calendar loads the villa calendar, returning an empty one when no
// document exists yet.
func (r *CalendarRepository) Calendar(ctx context.Context, id domainvilla.ID) (*domainavailability.Calendar, error) {
	var doc calendarDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return domainavailability.NewCalendar(id), nil
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *CalendarRepository) Save(ctx context.Context, cal *domainavailability.Calendar) error {
	doc := newCalendarDocument(cal)
	filter := bson.M{"_id": doc.ID, "version": cal.Version}
	doc.Version = cal.Version + 1
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	cal.Version = doc.Version
	return nil
}

type calendarDocument struct {
	ID      string          `bson:"_id"`
	Entries []entryDocument `bson:"entries"`
	Rules   []ruleDocument  `bson:"rules"`
	Version int64           `bson:"version"`
}

type entryDocument struct {
	Date      int64  `bson:"date"`
	Available bool   `bson:"available"`
	Source    string `bson:"source"`
	Reference string `bson:"reference,omitempty"`
	UpdatedAt int64  `bson:"updated_at"`
}

type ruleDocument struct {
	ID          string        `bson:"_id"`
	Range       rangeDocument `bson:"range"`
	NightlyRate moneyDocument `bson:"nightly_rate"`
	Notes       string        `bson:"notes,omitempty"`
	CreatedAt   int64         `bson:"created_at"`
}

func newCalendarDocument(cal *domainavailability.Calendar) calendarDocument {
	doc := calendarDocument{
		ID:      string(cal.VillaID),
		Entries: make([]entryDocument, 0, len(cal.Entries)),
		Rules:   make([]ruleDocument, 0, len(cal.Rules)),
		Version: cal.Version,
	}
	for _, e := range cal.Entries {
		doc.Entries = append(doc.Entries, entryDocument{
			Date:      e.Date.UnixMilli(),
			Available: e.Available,
			Source:    string(e.Source),
			Reference: e.Reference,
			UpdatedAt: e.UpdatedAt.UnixMilli(),
		})
	}
	for _, rule := range cal.Rules {
		doc.Rules = append(doc.Rules, ruleDocument{
			ID:          rule.ID,
			Range:       rangeDocument{CheckIn: rule.Range.CheckIn.UnixMilli(), CheckOut: rule.Range.CheckOut.UnixMilli()},
			NightlyRate: newMoneyDocument(rule.NightlyRate),
			Notes:       rule.Notes,
			CreatedAt:   rule.CreatedAt.UnixMilli(),
		})
	}
	return doc
}

func (d calendarDocument) toAggregate() *domainavailability.Calendar {
	cal := domainavailability.NewCalendar(domainvilla.ID(d.ID))
	cal.Version = d.Version
	for _, e := range d.Entries {
		entry := domainavailability.Entry{
			Date:      timestampToTime(e.Date),
			Available: e.Available,
			Source:    domainavailability.Source(e.Source),
			Reference: e.Reference,
			UpdatedAt: timestampToTime(e.UpdatedAt),
		}
		cal.Entries[entry.Date.Format("2006-01-02")] = entry
	}
	for _, rule := range d.Rules {
		cal.Rules = append(cal.Rules, domainavailability.PricingRule{
			ID: rule.ID,
			Range: domainrange.DateRange{
				CheckIn:  timestampToTime(rule.Range.CheckIn),
				CheckOut: timestampToTime(rule.Range.CheckOut),
			},
			NightlyRate: rule.NightlyRate.toMoney(),
			Notes:       rule.Notes,
			CreatedAt:   timestampToTime(rule.CreatedAt),
		})
	}
	return cal
}
