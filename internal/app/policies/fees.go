package policies

import "villabay/internal/domain/shared/money"

// FeePolicy computes the platform's guest-side fee lines from the
// pre-fee stay subtotal. The service fee is also the platform take
// deducted from the host payout.
type FeePolicy struct {
	ServiceFeePercent int
	TaxPercent        int
}

func (f FeePolicy) ServiceFee(subtotal money.Money) money.Money {
	return subtotal.Percent(f.ServiceFeePercent)
}

func (f FeePolicy) TaxFee(subtotal money.Money) money.Money {
	return subtotal.Percent(f.TaxPercent)
}
