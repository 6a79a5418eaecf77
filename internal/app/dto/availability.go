package dto

import (
	"time"

	domainavailability "villabay/internal/domain/availability"
)

type NightRateDTO struct {
	Date time.Time `json:"date"`
	Rate MoneyDTO  `json:"rate"`
}

// Quote is the full price picture for a prospective stay: per-night
// rates plus the fee lines callers add on top of the subtotal.
type Quote struct {
	VillaID     string         `json:"villa_id"`
	CheckIn     time.Time      `json:"check_in"`
	CheckOut    time.Time      `json:"check_out"`
	Available   bool           `json:"available"`
	Nights      []NightRateDTO `json:"nights,omitempty"`
	Subtotal    MoneyDTO       `json:"subtotal"`
	CleaningFee MoneyDTO       `json:"cleaning_fee"`
	ServiceFee  MoneyDTO       `json:"service_fee"`
	TaxFee      MoneyDTO       `json:"tax_fee"`
	Total       MoneyDTO       `json:"total"`
}

func MapNights(nights []domainavailability.NightRate) []NightRateDTO {
	out := make([]NightRateDTO, 0, len(nights))
	for _, n := range nights {
		out = append(out, NightRateDTO{Date: n.Date, Rate: MapMoney(n.Rate)})
	}
	return out
}
