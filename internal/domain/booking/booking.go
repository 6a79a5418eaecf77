package booking

import (
	"context"
	"time"

	"villabay/internal/domain/shared/daterange"
	"villabay/internal/domain/shared/events"
	"villabay/internal/domain/shared/fault"
	"villabay/internal/domain/shared/money"
	"villabay/internal/domain/villa"
)

var (
	ErrNotFound        = fault.New(fault.KindNotFound, "booking: not found")
	ErrInvalidGuests   = fault.New(fault.KindValidation, "booking: guest count must be positive")
	ErrInvalidState    = fault.New(fault.KindState, "booking: invalid state transition")
	ErrAlreadyPaid     = fault.New(fault.KindState, "booking: already has a paid payment record")
	ErrStayInProgress  = fault.New(fault.KindState, "booking: checkout date has not passed")
	ErrPaymentMissing  = fault.New(fault.KindState, "booking: cannot complete without a paid payment")
	ErrAlreadyPrompted = fault.New(fault.KindState, "booking: review already prompted")
)

type ID string

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusPaid      Status = "paid"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusRejected  Status = "rejected"
)

// Active reports whether the status still holds calendar dates.
func (s Status) Active() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusPaid:
		return true
	}
	return false
}

// PriceBreakdown carries the money fields of a booking. NightlySubtotal
// is the sum of the quoted per-night rates; fees are snapshotted at
// creation and never accepted as direct input afterwards.
type PriceBreakdown struct {
	Nights          int
	NightlySubtotal money.Money
	CleaningFee     money.Money
	ServiceFee      money.Money
	TaxFee          money.Money
	Total           money.Money
}

// RecalculateTotal derives Total from the components.
func (p *PriceBreakdown) RecalculateTotal() error {
	if p.Nights <= 0 {
		return fault.New(fault.KindValidation, "booking: nights must be positive")
	}
	total := p.NightlySubtotal
	for _, fee := range []money.Money{p.CleaningFee, p.ServiceFee, p.TaxFee} {
		if fee.Amount < 0 {
			return fault.New(fault.KindValidation, "booking: fees cannot be negative")
		}
		sum, err := total.Add(fee)
		if err != nil {
			return fault.Wrap(fault.KindValidation, err)
		}
		total = sum
	}
	p.Total = total
	return nil
}

// NightlyAverage is the effective per-night rate, for display only.
func (p PriceBreakdown) NightlyAverage() money.Money {
	if p.Nights == 0 {
		return money.Money{Currency: p.NightlySubtotal.Currency}
	}
	return money.Money{Amount: p.NightlySubtotal.Amount / int64(p.Nights), Currency: p.NightlySubtotal.Currency}
}

// Booking is one ledger entry per accepted reservation. Entries are
// never deleted, only transitioned; timestamps keep the audit trail.
type Booking struct {
	ID                 ID
	VillaID            villa.ID
	GuestID            string
	HostID             string
	Range              daterange.DateRange
	Guests             int
	Status             Status
	InstantBook        bool
	Price              PriceBreakdown
	PayoutAmount       money.Money
	Payments           []PaymentRecord
	CreatedAt          time.Time
	UpdatedAt          time.Time
	CancelledAt        *time.Time
	CancellationReason string
	ReviewPrompted     bool
	Version            int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Booking, error)
	Save(ctx context.Context, b *Booking) error
	// ActiveOverlapping returns non-cancelled, non-rejected, non-completed
	// bookings for the villa whose ranges overlap r.
	ActiveOverlapping(ctx context.Context, villaID villa.ID, r daterange.DateRange) ([]*Booking, error)
	ListByGuest(ctx context.Context, guestID string) ([]*Booking, error)
	// ListDueForCompletion returns paid bookings with check_out <= now.
	ListDueForCompletion(ctx context.Context, now time.Time) ([]*Booking, error)
}

type CreateParams struct {
	ID          ID
	VillaID     villa.ID
	GuestID     string
	HostID      string
	Range       daterange.DateRange
	Guests      int
	InstantBook bool
	Price       PriceBreakdown
	CreatedAt   time.Time
}

// NewBooking opens a ledger entry in pending state. Instant-book
// villas advance it immediately via Confirm at the call site.
func NewBooking(params CreateParams) (*Booking, error) {
	if params.Guests <= 0 {
		return nil, ErrInvalidGuests
	}
	if params.GuestID == "" {
		return nil, fault.New(fault.KindValidation, "booking: guest id required")
	}
	if err := params.Range.Validate(); err != nil {
		return nil, fault.Wrap(fault.KindValidation, err)
	}
	if err := params.Price.RecalculateTotal(); err != nil {
		return nil, err
	}
	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:          params.ID,
		VillaID:     params.VillaID,
		GuestID:     params.GuestID,
		HostID:      params.HostID,
		Range:       params.Range,
		Guests:      params.Guests,
		Status:      StatusPending,
		InstantBook: params.InstantBook,
		Price:       params.Price,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	b.Record(Requested{BookingID: b.ID, VillaID: b.VillaID, GuestID: b.GuestID, Range: b.Range, Guests: b.Guests, Total: b.Price.Total, At: now})
	return b, nil
}

// Confirm moves pending to confirmed and fixes the payout amount:
// nightly subtotal plus cleaning fee minus the platform service fee.
// The payout is derived here and nowhere else.
func (b *Booking) Confirm(now time.Time) error {
	if b.Status != StatusPending {
		return ErrInvalidState
	}
	payout, err := b.Price.NightlySubtotal.Add(b.Price.CleaningFee)
	if err != nil {
		return err
	}
	payout, err = payout.Sub(b.Price.ServiceFee)
	if err != nil {
		return err
	}
	b.PayoutAmount = payout
	b.Status = StatusConfirmed
	b.UpdatedAt = now.UTC()
	b.Record(Confirmed{BookingID: b.ID, VillaID: b.VillaID, Range: b.Range, Total: b.Price.Total, At: b.UpdatedAt})
	return nil
}

// Reject is the terminal host decline of a pending request.
func (b *Booking) Reject(reason string, now time.Time) error {
	if b.Status != StatusPending {
		return ErrInvalidState
	}
	b.Status = StatusRejected
	b.CancellationReason = reason
	b.UpdatedAt = now.UTC()
	b.Record(Rejected{BookingID: b.ID, VillaID: b.VillaID, Reason: reason, At: b.UpdatedAt})
	return nil
}

// Cancel is reachable from pending, confirmed and paid. Completed
// stays cannot be cancelled.
func (b *Booking) Cancel(reason string, now time.Time) error {
	switch b.Status {
	case StatusPending, StatusConfirmed, StatusPaid:
	default:
		return ErrInvalidState
	}
	at := now.UTC()
	b.Status = StatusCancelled
	b.CancelledAt = &at
	b.CancellationReason = reason
	b.UpdatedAt = at
	b.Record(Cancelled{BookingID: b.ID, VillaID: b.VillaID, Reason: reason, At: at})
	return nil
}

// MarkPaid attaches a paid payment record and advances to paid.
// A second paid record is refused regardless of status.
func (b *Booking) MarkPaid(payment PaymentRecord, now time.Time) error {
	if b.PaidPayment() != nil {
		return ErrAlreadyPaid
	}
	if b.Status != StatusConfirmed {
		return ErrInvalidState
	}
	if payment.Status != PaymentPaid {
		return fault.New(fault.KindValidation, "booking: payment record must be paid")
	}
	b.Payments = append(b.Payments, payment)
	b.Status = StatusPaid
	b.UpdatedAt = now.UTC()
	b.Record(Paid{BookingID: b.ID, VillaID: b.VillaID, PaymentID: payment.ID, Total: payment.Total, At: b.UpdatedAt})
	return nil
}

// RecordPaymentAttempt keeps failed and ambiguous attempts on the
// ledger without touching the booking status.
func (b *Booking) RecordPaymentAttempt(payment PaymentRecord, now time.Time) {
	b.Payments = append(b.Payments, payment)
	b.UpdatedAt = now.UTC()
}

// ResolvePayment updates a previously ambiguous (pending) record after
// reconciliation against the settlement processor.
func (b *Booking) ResolvePayment(paymentID string, status PaymentStatus, transactionID string, now time.Time) error {
	for i := range b.Payments {
		if b.Payments[i].ID != paymentID {
			continue
		}
		if b.Payments[i].Status != PaymentPending {
			return ErrInvalidState
		}
		b.Payments[i].Status = status
		if transactionID != "" {
			b.Payments[i].TransactionID = transactionID
		}
		if status == PaymentPaid {
			at := now.UTC()
			b.Payments[i].PaidAt = &at
			if b.Status != StatusConfirmed {
				return ErrInvalidState
			}
			b.Status = StatusPaid
			b.UpdatedAt = at
			b.Record(Paid{BookingID: b.ID, VillaID: b.VillaID, PaymentID: paymentID, Total: b.Payments[i].Total, At: at})
		}
		return nil
	}
	return fault.New(fault.KindNotFound, "booking: payment record not found")
}

// MarkRefunded flips the paid record to refunded after the settlement
// adapter accepts the refund.
func (b *Booking) MarkRefunded(now time.Time) error {
	paid := b.PaidPayment()
	if paid == nil {
		return ErrPaymentMissing
	}
	at := now.UTC()
	paid.Status = PaymentRefunded
	paid.RefundedAt = &at
	b.UpdatedAt = at
	return nil
}

// Complete closes the stay once the checkout date has passed. Only paid
// bookings complete; payment state is the single source of truth here.
func (b *Booking) Complete(now time.Time) error {
	if b.Status != StatusPaid {
		return ErrInvalidState
	}
	if b.Range.CheckOut.After(now.UTC()) {
		return ErrStayInProgress
	}
	if p := b.PaidPayment(); p == nil {
		return ErrPaymentMissing
	}
	b.Status = StatusCompleted
	b.UpdatedAt = now.UTC()
	b.Record(Completed{BookingID: b.ID, VillaID: b.VillaID, HostID: b.HostID, Payout: b.PayoutAmount, At: b.UpdatedAt})
	return nil
}

// PromptReview flips review_prompted exactly once, after completion.
func (b *Booking) PromptReview(now time.Time) error {
	if b.Status != StatusCompleted {
		return ErrInvalidState
	}
	if b.ReviewPrompted {
		return ErrAlreadyPrompted
	}
	b.ReviewPrompted = true
	b.UpdatedAt = now.UTC()
	return nil
}

// PaidPayment returns the paid record, if any. At most one exists.
func (b *Booking) PaidPayment() *PaymentRecord {
	for i := range b.Payments {
		if b.Payments[i].Status == PaymentPaid {
			return &b.Payments[i]
		}
	}
	return nil
}

// PendingPayment returns an unresolved (ambiguous) record, if any.
func (b *Booking) PendingPayment() *PaymentRecord {
	for i := range b.Payments {
		if b.Payments[i].Status == PaymentPending {
			return &b.Payments[i]
		}
	}
	return nil
}
