package booking

import (
	"time"

	"villabay/internal/domain/shared/money"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// PaymentRecord is one settlement attempt against a booking. Failed
// attempts stay on the ledger; a pending record marks an ambiguous
// adapter response awaiting reconciliation.
type PaymentRecord struct {
	ID            string
	BookingID     ID
	Method        string
	Status        PaymentStatus
	Total         money.Money
	TransactionID string
	PaidAt        *time.Time
	RefundedAt    *time.Time
	CreatedAt     time.Time
}
