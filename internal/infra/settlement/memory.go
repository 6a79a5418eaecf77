package settlement

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"villabay/internal/app/policies"
	"villabay/internal/domain/shared/money"
)

// MemoryAdapter is the in-process processor used by the default wiring
// and tests. Outcomes can be scripted per booking; unscripted charges
// succeed.
type MemoryAdapter struct {
	mu       sync.Mutex
	outcomes map[string]policies.ChargeResult
	results  map[string]policies.ChargeResult
	charges  map[string]int
	refunds  map[string]int
}

func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{
		outcomes: make(map[string]policies.ChargeResult),
		results:  make(map[string]policies.ChargeResult),
		charges:  make(map[string]int),
		refunds:  make(map[string]int),
	}
}

// ScriptOutcome fixes the result of the next charge for a booking.
func (a *MemoryAdapter) ScriptOutcome(bookingID string, result policies.ChargeResult) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.outcomes[bookingID] = result
}

// ResolveAs sets what Lookup reports for a booking, emulating the
// processor settling an ambiguous charge out of band.
func (a *MemoryAdapter) ResolveAs(bookingID string, result policies.ChargeResult) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.results[bookingID] = result
}

// ChargeCount reports how many times Charge ran for a booking.
func (a *MemoryAdapter) ChargeCount(bookingID string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.charges[bookingID]
}

func (a *MemoryAdapter) Charge(ctx context.Context, bookingID, method string, amount money.Money) (policies.ChargeResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.charges[bookingID]++
	if result, ok := a.outcomes[bookingID]; ok {
		delete(a.outcomes, bookingID)
		if result.Status == policies.SettlementSucceeded && result.TransactionID == "" {
			result.TransactionID = uuid.NewString()
		}
		a.results[bookingID] = result
		return result, nil
	}
	result := policies.ChargeResult{Status: policies.SettlementSucceeded, TransactionID: uuid.NewString()}
	a.results[bookingID] = result
	return result, nil
}

func (a *MemoryAdapter) Refund(ctx context.Context, transactionID string, amount money.Money) (policies.RefundResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.refunds[transactionID]++
	return policies.RefundResult{Status: policies.SettlementSucceeded}, nil
}

// RefundCount reports how many times Refund ran for a transaction.
func (a *MemoryAdapter) RefundCount(transactionID string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.refunds[transactionID]
}

func (a *MemoryAdapter) Lookup(ctx context.Context, bookingID string) (policies.ChargeResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if result, ok := a.results[bookingID]; ok {
		return result, nil
	}
	return policies.ChargeResult{Status: policies.SettlementUnknown}, nil
}

var _ policies.SettlementPort = (*MemoryAdapter)(nil)
