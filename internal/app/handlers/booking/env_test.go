package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"villabay/internal/app/actor"
	"villabay/internal/app/coordinator"
	"villabay/internal/app/policies"
	domainbooking "villabay/internal/domain/booking"
	"villabay/internal/domain/shared/daterange"
	"villabay/internal/domain/shared/money"
	domainvilla "villabay/internal/domain/villa"
	"villabay/internal/infra/settlement"
	"villabay/internal/infra/storage/memory"
)

// env wires the in-memory stack the way main does, minus the bus.
type env struct {
	factory    memory.Factory
	locks      *coordinator.VillaLocks
	outbox     *memory.Outbox
	settlement *settlement.MemoryAdapter
	fees       policies.FeePolicy
}

func newEnv() *env {
	return &env{
		factory:    memory.NewFactory(),
		locks:      coordinator.NewVillaLocks(),
		outbox:     memory.NewOutbox(),
		settlement: settlement.NewMemoryAdapter(),
		fees:       policies.FeePolicy{ServiceFeePercent: 12, TaxPercent: 8},
	}
}

func (e *env) seedVilla(t *testing.T, mutate func(v *domainvilla.Villa)) *domainvilla.Villa {
	t.Helper()
	v := &domainvilla.Villa{
		ID:            domainvilla.ID("villa-1"),
		HostID:        "host-1",
		Status:        domainvilla.StatusLive,
		Name:          "Cliffside Villa",
		GuestLimit:    4,
		MinStayNights: 1,
		NightlyRate:   money.Must(30_000, "USD"),
		CleaningFee:   money.Must(10_000, "USD"),
	}
	if mutate != nil {
		mutate(v)
	}
	require.NoError(t, e.factory.VillaRepo.Save(context.Background(), v))
	return v
}

// seedConfirmedBooking plants a confirmed, not yet paid booking.
func (e *env) seedConfirmedBooking(t *testing.T, id string, v *domainvilla.Villa, checkIn, checkOut time.Time) *domainbooking.Booking {
	t.Helper()
	dr, err := daterange.New(checkIn, checkOut)
	require.NoError(t, err)
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:      domainbooking.ID(id),
		VillaID: v.ID,
		GuestID: "guest-1",
		HostID:  v.HostID,
		Range:   dr,
		Guests:  2,
		Price: domainbooking.PriceBreakdown{
			Nights:          dr.Nights(),
			NightlySubtotal: money.Must(int64(dr.Nights())*30_000, "USD"),
			CleaningFee:     money.Must(10_000, "USD"),
			ServiceFee:      money.Must(3_600, "USD"),
			TaxFee:          money.Must(2_400, "USD"),
		},
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	require.NoError(t, b.Confirm(b.CreatedAt))
	b.ClearEvents()
	require.NoError(t, e.factory.BookingRepo.Save(context.Background(), b))
	return b
}

// seedPaidBooking plants a paid booking directly in the repository,
// bypassing the create path, so completion and cancellation flows can
// start from arbitrary dates.
func (e *env) seedPaidBooking(t *testing.T, id string, v *domainvilla.Villa, checkIn, checkOut time.Time) *domainbooking.Booking {
	t.Helper()
	dr, err := daterange.New(checkIn, checkOut)
	require.NoError(t, err)
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:      domainbooking.ID(id),
		VillaID: v.ID,
		GuestID: "guest-1",
		HostID:  v.HostID,
		Range:   dr,
		Guests:  2,
		Price: domainbooking.PriceBreakdown{
			Nights:          dr.Nights(),
			NightlySubtotal: money.Must(int64(dr.Nights())*30_000, "USD"),
			CleaningFee:     money.Must(10_000, "USD"),
			ServiceFee:      money.Must(3_600, "USD"),
			TaxFee:          money.Must(2_400, "USD"),
		},
		CreatedAt: checkIn.AddDate(0, 0, -7),
	})
	require.NoError(t, err)
	require.NoError(t, b.Confirm(b.CreatedAt))
	paidAt := b.CreatedAt.Add(time.Hour)
	require.NoError(t, b.MarkPaid(domainbooking.PaymentRecord{
		ID:            "pay-" + id,
		BookingID:     b.ID,
		Method:        "card",
		Status:        domainbooking.PaymentPaid,
		Total:         b.Price.Total,
		TransactionID: "tx-" + id,
		PaidAt:        &paidAt,
		CreatedAt:     paidAt,
	}, paidAt))
	b.ClearEvents()
	require.NoError(t, e.factory.BookingRepo.Save(context.Background(), b))
	return b
}

func guestActor() actor.Actor {
	return actor.Actor{UserUID: "guest-1", Type: actor.TypeGuest, EmailVerified: true}
}

func hostActor() actor.Actor {
	return actor.Actor{UserUID: "host-1", Type: actor.TypeHost, EmailVerified: true}
}

// futureStay returns a check-in/check-out pair n nights long, one month
// out, so the past-date guard never trips.
func futureStay(nights int) (time.Time, time.Time) {
	checkIn := daterange.Day(time.Now().UTC()).AddDate(0, 1, 0)
	return checkIn, checkIn.AddDate(0, 0, nights)
}
