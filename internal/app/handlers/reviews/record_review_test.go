package reviews

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"villabay/internal/app/actor"
	domainbooking "villabay/internal/domain/booking"
	domainreview "villabay/internal/domain/review"
	"villabay/internal/domain/shared/daterange"
	"villabay/internal/domain/shared/money"
	domainvilla "villabay/internal/domain/villa"
	"villabay/internal/infra/storage/memory"
)

type fixture struct {
	factory memory.Factory
	outbox  *memory.Outbox
	booking *domainbooking.Booking
}

// newFixture seeds one booking between guest-1 and host-1, completed
// unless told otherwise.
func newFixture(t *testing.T, completed bool) *fixture {
	t.Helper()
	f := &fixture{factory: memory.NewFactory(), outbox: memory.NewOutbox()}

	now := daterange.Day(time.Now().UTC())
	dr, err := daterange.New(now.AddDate(0, 0, -5), now.AddDate(0, 0, -2))
	require.NoError(t, err)
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:      domainbooking.ID("bk-1"),
		VillaID: domainvilla.ID("villa-1"),
		GuestID: "guest-1",
		HostID:  "host-1",
		Range:   dr,
		Guests:  2,
		Price: domainbooking.PriceBreakdown{
			Nights:          3,
			NightlySubtotal: money.Must(90_000, "USD"),
			CleaningFee:     money.Must(10_000, "USD"),
			ServiceFee:      money.Must(10_800, "USD"),
			TaxFee:          money.Must(7_200, "USD"),
		},
		CreatedAt: dr.CheckIn.AddDate(0, 0, -7),
	})
	require.NoError(t, err)
	require.NoError(t, b.Confirm(b.CreatedAt))
	paidAt := b.CreatedAt.Add(time.Hour)
	require.NoError(t, b.MarkPaid(domainbooking.PaymentRecord{
		ID: "pay-1", BookingID: b.ID, Method: "card",
		Status: domainbooking.PaymentPaid, Total: b.Price.Total,
		TransactionID: "tx-1", PaidAt: &paidAt, CreatedAt: paidAt,
	}, paidAt))
	if completed {
		require.NoError(t, b.Complete(now))
		require.NoError(t, b.PromptReview(now))
	}
	b.ClearEvents()
	require.NoError(t, f.factory.BookingRepo.Save(context.Background(), b))
	f.booking = b
	return f
}

func (f *fixture) recordHandler() *RecordReviewHandler {
	return &RecordReviewHandler{UoWFactory: f.factory, Outbox: f.outbox}
}

func guest() actor.Actor {
	return actor.Actor{UserUID: "guest-1", Type: actor.TypeGuest, EmailVerified: true}
}

func host() actor.Actor {
	return actor.Actor{UserUID: "host-1", Type: actor.TypeHost, EmailVerified: true}
}

func TestRecordReviewBothDirections(t *testing.T) {
	f := newFixture(t, true)
	h := f.recordHandler()

	guestReview, err := h.Handle(context.Background(), RecordReviewCommand{
		BookingID: "bk-1", Direction: domainreview.GuestOnVilla, Rating: 5, Text: "great stay", Actor: guest(),
	})
	require.NoError(t, err)
	assert.Equal(t, "guest-1", guestReview.AuthorID)
	assert.Equal(t, "host-1", guestReview.SubjectID)
	assert.Equal(t, 5, guestReview.Rating)

	hostReview, err := h.Handle(context.Background(), RecordReviewCommand{
		BookingID: "bk-1", Direction: domainreview.HostOnGuest, Rating: 4, Text: "tidy guests", Actor: host(),
	})
	require.NoError(t, err)
	assert.Equal(t, "host-1", hostReview.AuthorID)
	assert.Equal(t, "guest-1", hostReview.SubjectID)

	records := f.outbox.Pending()
	require.Len(t, records, 2)
	assert.Equal(t, "review.submitted", records[0].Name)
}

func TestRecordReviewBeforeCompletion(t *testing.T) {
	f := newFixture(t, false)
	_, err := f.recordHandler().Handle(context.Background(), RecordReviewCommand{
		BookingID: "bk-1", Direction: domainreview.GuestOnVilla, Rating: 5, Actor: guest(),
	})
	assert.ErrorIs(t, err, ErrBookingNotCompleted)
}

func TestRecordReviewDuplicateDirection(t *testing.T) {
	f := newFixture(t, true)
	h := f.recordHandler()

	_, err := h.Handle(context.Background(), RecordReviewCommand{
		BookingID: "bk-1", Direction: domainreview.GuestOnVilla, Rating: 5, Actor: guest(),
	})
	require.NoError(t, err)

	_, err = h.Handle(context.Background(), RecordReviewCommand{
		BookingID: "bk-1", Direction: domainreview.GuestOnVilla, Rating: 3, Actor: guest(),
	})
	assert.ErrorIs(t, err, ErrAlreadyReviewed)
}

func TestRecordReviewWrongAuthor(t *testing.T) {
	f := newFixture(t, true)
	// The host cannot write the guest-side review.
	_, err := f.recordHandler().Handle(context.Background(), RecordReviewCommand{
		BookingID: "bk-1", Direction: domainreview.GuestOnVilla, Rating: 5, Actor: host(),
	})
	assert.ErrorIs(t, err, ErrWrongAuthor)
}

func TestRecordReviewRatingBounds(t *testing.T) {
	f := newFixture(t, true)
	h := f.recordHandler()

	_, err := h.Handle(context.Background(), RecordReviewCommand{
		BookingID: "bk-1", Direction: domainreview.GuestOnVilla, Rating: 0, Actor: guest(),
	})
	assert.ErrorIs(t, err, domainreview.ErrInvalidRating)

	_, err = h.Handle(context.Background(), RecordReviewCommand{
		BookingID: "bk-1", Direction: domainreview.GuestOnVilla, Rating: 6, Actor: guest(),
	})
	assert.ErrorIs(t, err, domainreview.ErrInvalidRating)
}

func TestRecordReviewBadDirection(t *testing.T) {
	f := newFixture(t, true)
	_, err := f.recordHandler().Handle(context.Background(), RecordReviewCommand{
		BookingID: "bk-1", Direction: domainreview.Direction("sideways"), Rating: 5, Actor: guest(),
	})
	assert.ErrorIs(t, err, domainreview.ErrBadDirection)
}

func TestEligibilityReasons(t *testing.T) {
	f := newFixture(t, false)
	h := &ReviewEligibilityHandler{UoWFactory: f.factory}

	out, err := h.Handle(context.Background(), ReviewEligibilityQuery{
		BookingID: "bk-1", Direction: domainreview.GuestOnVilla, Actor: guest(),
	})
	require.NoError(t, err)
	assert.False(t, out.CanReview)
	assert.Equal(t, "booking is not completed", out.Reason)

	out, err = h.Handle(context.Background(), ReviewEligibilityQuery{
		BookingID: "bk-1", Direction: domainreview.GuestOnVilla, Actor: host(),
	})
	require.NoError(t, err)
	assert.False(t, out.CanReview)
	assert.Equal(t, "actor is not the author for this direction", out.Reason)
}

func TestEligibilityAfterCompletion(t *testing.T) {
	f := newFixture(t, true)
	h := &ReviewEligibilityHandler{UoWFactory: f.factory}

	out, err := h.Handle(context.Background(), ReviewEligibilityQuery{
		BookingID: "bk-1", Direction: domainreview.GuestOnVilla, Actor: guest(),
	})
	require.NoError(t, err)
	assert.True(t, out.CanReview)

	_, err = f.recordHandler().Handle(context.Background(), RecordReviewCommand{
		BookingID: "bk-1", Direction: domainreview.GuestOnVilla, Rating: 5, Actor: guest(),
	})
	require.NoError(t, err)

	out, err = h.Handle(context.Background(), ReviewEligibilityQuery{
		BookingID: "bk-1", Direction: domainreview.GuestOnVilla, Actor: guest(),
	})
	require.NoError(t, err)
	assert.False(t, out.CanReview)
	assert.Equal(t, "direction already reviewed for booking", out.Reason)
}

func TestEligibilityStrangerForbidden(t *testing.T) {
	f := newFixture(t, true)
	h := &ReviewEligibilityHandler{UoWFactory: f.factory}

	_, err := h.Handle(context.Background(), ReviewEligibilityQuery{
		BookingID: "bk-1", Direction: domainreview.GuestOnVilla,
		Actor: actor.Actor{UserUID: "stranger", Type: actor.TypeGuest},
	})
	assert.ErrorIs(t, err, actor.ErrForbidden)
}
