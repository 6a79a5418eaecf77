package reviews

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"villabay/internal/app/actor"
	"villabay/internal/app/commands"
	"villabay/internal/app/dto"
	"villabay/internal/app/outbox"
	"villabay/internal/app/uow"
	domainbooking "villabay/internal/domain/booking"
	domainreview "villabay/internal/domain/review"
	"villabay/internal/domain/shared/fault"
)

const recordReviewKey = "review.record"

var (
	ErrBookingNotCompleted = fault.New(fault.KindState, "review: booking is not completed")
	ErrAlreadyReviewed     = fault.New(fault.KindConflict, "review: direction already reviewed for booking")
	ErrWrongAuthor         = fault.New(fault.KindPermission, "review: actor is not the author for this direction")
)

type RecordReviewCommand struct {
	BookingID string
	Direction domainreview.Direction
	Rating    int
	Text      string
	Actor     actor.Actor
}

func (c RecordReviewCommand) Key() string { return recordReviewKey }

// RecordReviewHandler enforces the one-review-per-direction rule: the
// booking must be completed, the author must be the party the
// direction names, and a second submission for the same pair is a
// conflict.
type RecordReviewHandler struct {
	UoWFactory uow.Factory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *RecordReviewHandler) Handle(ctx context.Context, cmd RecordReviewCommand) (*dto.Review, error) {
	if !cmd.Direction.Valid() {
		return nil, domainreview.ErrBadDirection
	}

	ctx, unit, managed, err := uow.Require(ctx, h.UoWFactory, uow.TxOptions{})
	if err != nil {
		return nil, err
	}
	committed := false
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	b, err := unit.Bookings().ByID(ctx, domainbooking.ID(cmd.BookingID))
	if err != nil {
		return nil, err
	}
	authorID, subjectID, err := reviewParties(b, cmd.Direction)
	if err != nil {
		return nil, err
	}
	if cmd.Actor.UserUID != authorID {
		return nil, ErrWrongAuthor
	}
	if b.Status != domainbooking.StatusCompleted {
		return nil, ErrBookingNotCompleted
	}

	existing, err := unit.Reviews().ByBookingAndDirection(ctx, b.ID, cmd.Direction)
	if err != nil && !fault.IsKind(err, fault.KindNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyReviewed
	}

	r, err := domainreview.Submit(domainreview.SubmitParams{
		ID:        uuid.NewString(),
		BookingID: b.ID,
		VillaID:   b.VillaID,
		Direction: cmd.Direction,
		AuthorID:  authorID,
		SubjectID: subjectID,
		Rating:    cmd.Rating,
		Text:      cmd.Text,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Reviews().Save(ctx, r); err != nil {
		return nil, err
	}
	if err := outbox.Drain(ctx, h.Outbox, h.Encoder, &r.EventRecorder); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}
	if h.Logger != nil {
		h.Logger.Info("review recorded", "booking_id", b.ID, "direction", cmd.Direction, "rating", cmd.Rating)
	}
	result := dto.MapReview(r)
	return &result, nil
}

// reviewParties maps a direction to who writes and who is written
// about.
func reviewParties(b *domainbooking.Booking, d domainreview.Direction) (author, subject string, err error) {
	switch d {
	case domainreview.GuestOnVilla:
		return b.GuestID, b.HostID, nil
	case domainreview.HostOnGuest:
		return b.HostID, b.GuestID, nil
	}
	return "", "", domainreview.ErrBadDirection
}

var _ commands.Handler[RecordReviewCommand, *dto.Review] = (*RecordReviewHandler)(nil)
