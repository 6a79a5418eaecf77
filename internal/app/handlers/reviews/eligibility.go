package reviews

import (
	"context"

	"villabay/internal/app/actor"
	"villabay/internal/app/dto"
	"villabay/internal/app/queries"
	"villabay/internal/app/uow"
	domainbooking "villabay/internal/domain/booking"
	domainreview "villabay/internal/domain/review"
	"villabay/internal/domain/shared/fault"
)

const reviewEligibilityKey = "review.eligibility"

type ReviewEligibilityQuery struct {
	BookingID string
	Direction domainreview.Direction
	Actor     actor.Actor
}

func (q ReviewEligibilityQuery) Key() string { return reviewEligibilityKey }

// ReviewEligibilityHandler answers "may this review be written right
// now" without writing anything, so clients can gate their UI on it.
type ReviewEligibilityHandler struct {
	UoWFactory uow.Factory
}

func (h *ReviewEligibilityHandler) Handle(ctx context.Context, q ReviewEligibilityQuery) (dto.Eligibility, error) {
	out := dto.Eligibility{BookingID: q.BookingID, Direction: string(q.Direction)}
	if !q.Direction.Valid() {
		return out, domainreview.ErrBadDirection
	}

	ctx, unit, managed, err := uow.Require(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return out, err
	}
	if managed {
		defer func() { _ = unit.Rollback(ctx) }()
	}

	b, err := unit.Bookings().ByID(ctx, domainbooking.ID(q.BookingID))
	if err != nil {
		return out, err
	}
	authorID, _, err := reviewParties(b, q.Direction)
	if err != nil {
		return out, err
	}
	if q.Actor.UserUID != b.GuestID && q.Actor.UserUID != b.HostID && !q.Actor.IsAdmin() {
		return out, actor.ErrForbidden
	}

	switch {
	case q.Actor.UserUID != authorID && !q.Actor.IsAdmin():
		out.Reason = "actor is not the author for this direction"
	case b.Status != domainbooking.StatusCompleted:
		out.Reason = "booking is not completed"
	default:
		existing, err := unit.Reviews().ByBookingAndDirection(ctx, b.ID, q.Direction)
		if err != nil && !fault.IsKind(err, fault.KindNotFound) {
			return out, err
		}
		if existing != nil {
			out.Reason = "direction already reviewed for booking"
		} else {
			out.CanReview = true
		}
	}
	return out, nil
}

var _ queries.Handler[ReviewEligibilityQuery, dto.Eligibility] = (*ReviewEligibilityHandler)(nil)
