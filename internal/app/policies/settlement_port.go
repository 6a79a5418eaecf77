package policies

import (
	"context"

	"villabay/internal/domain/shared/money"
)

// SettlementStatus is the processor's answer to a charge or refund.
type SettlementStatus string

const (
	SettlementSucceeded SettlementStatus = "succeeded"
	SettlementFailed    SettlementStatus = "failed"
	// SettlementUnknown means the processor could not say either way
	// (timeout, ambiguous response); the caller must reconcile before
	// trusting success.
	SettlementUnknown SettlementStatus = "unknown"
)

type ChargeResult struct {
	Status        SettlementStatus
	TransactionID string
}

type RefundResult struct {
	Status SettlementStatus
}

// SettlementPort is the external payment-processor boundary. Calls may
// be slow and fallible; the engine never retries them on its own and
// must leave booking state untouched when a call errors out.
type SettlementPort interface {
	Charge(ctx context.Context, bookingID, method string, amount money.Money) (ChargeResult, error)
	Refund(ctx context.Context, transactionID string, amount money.Money) (RefundResult, error)
	// Lookup polls the processor for the outcome of an earlier charge;
	// used by the explicit reconciliation step.
	Lookup(ctx context.Context, bookingID string) (ChargeResult, error)
}
