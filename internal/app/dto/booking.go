package dto

import (
	"time"

	domainbooking "villabay/internal/domain/booking"
	"villabay/internal/domain/shared/money"
)

type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func MapMoney(m money.Money) MoneyDTO {
	return MoneyDTO{Amount: m.Amount, Currency: m.Currency}
}

type PaymentDTO struct {
	ID            string     `json:"id"`
	Method        string     `json:"method"`
	Status        string     `json:"status"`
	Total         MoneyDTO   `json:"total"`
	TransactionID string     `json:"transaction_id,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	RefundedAt    *time.Time `json:"refunded_at,omitempty"`
}

type Booking struct {
	ID                 string       `json:"id"`
	VillaID            string       `json:"villa_id"`
	GuestID            string       `json:"guest_id"`
	HostID             string       `json:"host_id"`
	CheckIn            time.Time    `json:"check_in"`
	CheckOut           time.Time    `json:"check_out"`
	Guests             int          `json:"guests"`
	Status             string       `json:"status"`
	InstantBook        bool         `json:"instant_book"`
	PriceNightly       MoneyDTO     `json:"price_nightly"`
	CleaningFee        MoneyDTO     `json:"cleaning_fee"`
	ServiceFee         MoneyDTO     `json:"service_fee"`
	TaxFee             MoneyDTO     `json:"tax_fee"`
	Total              MoneyDTO     `json:"total"`
	PayoutAmount       MoneyDTO     `json:"payout_amount"`
	Payments           []PaymentDTO `json:"payments,omitempty"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
	CancelledAt        *time.Time   `json:"cancelled_at,omitempty"`
	CancellationReason string       `json:"cancellation_reason,omitempty"`
	ReviewPrompted     bool         `json:"review_prompted"`
}

func MapBooking(b *domainbooking.Booking) Booking {
	out := Booking{
		ID:                 string(b.ID),
		VillaID:            string(b.VillaID),
		GuestID:            b.GuestID,
		HostID:             b.HostID,
		CheckIn:            b.Range.CheckIn,
		CheckOut:           b.Range.CheckOut,
		Guests:             b.Guests,
		Status:             string(b.Status),
		InstantBook:        b.InstantBook,
		PriceNightly:       MapMoney(b.Price.NightlyAverage()),
		CleaningFee:        MapMoney(b.Price.CleaningFee),
		ServiceFee:         MapMoney(b.Price.ServiceFee),
		TaxFee:             MapMoney(b.Price.TaxFee),
		Total:              MapMoney(b.Price.Total),
		PayoutAmount:       MapMoney(b.PayoutAmount),
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
		CancelledAt:        b.CancelledAt,
		CancellationReason: b.CancellationReason,
		ReviewPrompted:     b.ReviewPrompted,
	}
	for _, p := range b.Payments {
		out.Payments = append(out.Payments, PaymentDTO{
			ID:            p.ID,
			Method:        p.Method,
			Status:        string(p.Status),
			Total:         MapMoney(p.Total),
			TransactionID: p.TransactionID,
			PaidAt:        p.PaidAt,
			RefundedAt:    p.RefundedAt,
		})
	}
	return out
}

type BookingCollection struct {
	Items []Booking `json:"items"`
}

func MapBookingCollection(list []*domainbooking.Booking) BookingCollection {
	out := BookingCollection{Items: make([]Booking, 0, len(list))}
	for _, b := range list {
		out.Items = append(out.Items, MapBooking(b))
	}
	return out
}
