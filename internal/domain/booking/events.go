package booking

import (
	"time"

	"villabay/internal/domain/shared/daterange"
	"villabay/internal/domain/shared/money"
	"villabay/internal/domain/villa"
)

type Requested struct {
	BookingID ID
	VillaID   villa.ID
	GuestID   string
	Range     daterange.DateRange
	Guests    int
	Total     money.Money
	At        time.Time
}

func (e Requested) EventName() string     { return "booking.requested" }
func (e Requested) AggregateID() string   { return string(e.BookingID) }
func (e Requested) OccurredAt() time.Time { return e.At }

type Confirmed struct {
	BookingID ID
	VillaID   villa.ID
	Range     daterange.DateRange
	Total     money.Money
	At        time.Time
}

func (e Confirmed) EventName() string     { return "booking.confirmed" }
func (e Confirmed) AggregateID() string   { return string(e.BookingID) }
func (e Confirmed) OccurredAt() time.Time { return e.At }

type Rejected struct {
	BookingID ID
	VillaID   villa.ID
	Reason    string
	At        time.Time
}

func (e Rejected) EventName() string     { return "booking.rejected" }
func (e Rejected) AggregateID() string   { return string(e.BookingID) }
func (e Rejected) OccurredAt() time.Time { return e.At }

type Cancelled struct {
	BookingID ID
	VillaID   villa.ID
	Reason    string
	At        time.Time
}

func (e Cancelled) EventName() string     { return "booking.cancelled" }
func (e Cancelled) AggregateID() string   { return string(e.BookingID) }
func (e Cancelled) OccurredAt() time.Time { return e.At }

type Paid struct {
	BookingID ID
	VillaID   villa.ID
	PaymentID string
	Total     money.Money
	At        time.Time
}

func (e Paid) EventName() string     { return "booking.paid" }
func (e Paid) AggregateID() string   { return string(e.BookingID) }
func (e Paid) OccurredAt() time.Time { return e.At }

type Completed struct {
	BookingID ID
	VillaID   villa.ID
	HostID    string
	Payout    money.Money
	At        time.Time
}

func (e Completed) EventName() string     { return "booking.completed" }
func (e Completed) AggregateID() string   { return string(e.BookingID) }
func (e Completed) OccurredAt() time.Time { return e.At }
