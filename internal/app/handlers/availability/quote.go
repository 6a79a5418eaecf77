package availability

import (
	"context"
	"time"

	"villabay/internal/app/dto"
	"villabay/internal/app/policies"
	"villabay/internal/app/queries"
	"villabay/internal/app/uow"
	"villabay/internal/domain/booking"
	"villabay/internal/domain/shared/daterange"
	"villabay/internal/domain/shared/fault"
	domainvilla "villabay/internal/domain/villa"
)

const quoteStayKey = "availability.quote"

// QuoteStayQuery prices a prospective stay without reserving anything.
// It is a public read: no actor, no side effects.
type QuoteStayQuery struct {
	VillaID  string
	CheckIn  time.Time
	CheckOut time.Time
}

func (q QuoteStayQuery) Key() string { return quoteStayKey }

type QuoteStayHandler struct {
	UoWFactory uow.Factory
	Fees       policies.FeePolicy
}

func (h *QuoteStayHandler) Handle(ctx context.Context, q QuoteStayQuery) (*dto.Quote, error) {
	dr, err := daterange.New(q.CheckIn, q.CheckOut)
	if err != nil {
		return nil, fault.Wrap(fault.KindValidation, err)
	}

	ctx, unit, managed, err := uow.Require(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	if managed {
		defer func() { _ = unit.Rollback(ctx) }()
	}

	v, err := unit.Villas().ByID(ctx, domainvilla.ID(q.VillaID))
	if err != nil {
		return nil, err
	}
	cal, err := unit.Availability().Calendar(ctx, v.ID)
	if err != nil {
		return nil, err
	}

	available := v.Bookable() == nil && cal.CanReserve(dr)
	if available {
		overlapping, err := unit.Bookings().ActiveOverlapping(ctx, v.ID, dr)
		if err != nil {
			return nil, err
		}
		available = len(overlapping) == 0
	}

	quote, err := cal.Quote(dr, v.NightlyRate)
	if err != nil {
		return nil, err
	}
	serviceFee := h.Fees.ServiceFee(quote.Subtotal)
	taxFee := h.Fees.TaxFee(quote.Subtotal)
	price := booking.PriceBreakdown{
		Nights:          dr.Nights(),
		NightlySubtotal: quote.Subtotal,
		CleaningFee:     v.CleaningFee,
		ServiceFee:      serviceFee,
		TaxFee:          taxFee,
	}
	if err := price.RecalculateTotal(); err != nil {
		return nil, err
	}

	return &dto.Quote{
		VillaID:     string(v.ID),
		CheckIn:     dr.CheckIn,
		CheckOut:    dr.CheckOut,
		Available:   available,
		Nights:      dto.MapNights(quote.Nights),
		Subtotal:    dto.MapMoney(quote.Subtotal),
		CleaningFee: dto.MapMoney(v.CleaningFee),
		ServiceFee:  dto.MapMoney(serviceFee),
		TaxFee:      dto.MapMoney(taxFee),
		Total:       dto.MapMoney(price.Total),
	}, nil
}

var _ queries.Handler[QuoteStayQuery, *dto.Quote] = (*QuoteStayHandler)(nil)
