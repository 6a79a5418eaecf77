package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	domainavailability "villabay/internal/domain/availability"
	domainbooking "villabay/internal/domain/booking"
	domainpayout "villabay/internal/domain/payout"
	domainreview "villabay/internal/domain/review"
	"villabay/internal/domain/shared/daterange"
	"villabay/internal/domain/shared/fault"
	domainvilla "villabay/internal/domain/villa"
)

// VillaRepository is an in-memory implementation for the default
// wiring and tests.
type VillaRepository struct {
	mu    sync.RWMutex
	items map[domainvilla.ID]*domainvilla.Villa
}

// NewVillaRepository builds an empty repository.
func NewVillaRepository() *VillaRepository {
	return &VillaRepository{items: make(map[domainvilla.ID]*domainvilla.Villa)}
}

// ByID returns a villa or villa.ErrNotFound.
func (r *VillaRepository) ByID(ctx context.Context, id domainvilla.ID) (*domainvilla.Villa, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.items[id]
	if !ok {
		return nil, domainvilla.ErrNotFound
	}
	return v, nil
}

// Save stores/updates a villa entry.
func (r *VillaRepository) Save(ctx context.Context, v *domainvilla.Villa) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[v.ID] = v
	return nil
}

// AvailabilityRepository keeps availability calendars in memory.
type AvailabilityRepository struct {
	mu        sync.RWMutex
	calendars map[domainvilla.ID]*domainavailability.Calendar
}

// NewAvailabilityRepository returns a repository initialized with empty calendars.
func NewAvailabilityRepository() *AvailabilityRepository {
	return &AvailabilityRepository{calendars: make(map[domainvilla.ID]*domainavailability.Calendar)}
}

// Calendar retrieves an availability calendar, lazily creating it.
func (r *AvailabilityRepository) Calendar(ctx context.Context, id domainvilla.ID) (*domainavailability.Calendar, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cal, ok := r.calendars[id]; ok {
		return cal, nil
	}
	cal := domainavailability.NewCalendar(id)
	r.calendars[id] = cal
	return cal, nil
}

// Save persists a calendar snapshot.
func (r *AvailabilityRepository) Save(ctx context.Context, cal *domainavailability.Calendar) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cal.Version++
	r.calendars[cal.VillaID] = cal
	return nil
}

// BookingRepository stores bookings in memory.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.ID]*domainbooking.Booking
}

// NewBookingRepository builds an empty booking repo.
func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.ID]*domainbooking.Booking)}
}

// ByID fetches a booking.
func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.ID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrNotFound
	}
	return b, nil
}

// Save stores the current booking state.
func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b.Version++
	r.items[b.ID] = b
	return nil
}

// ActiveOverlapping returns active bookings whose date ranges overlap r.
func (r *BookingRepository) ActiveOverlapping(ctx context.Context, villaID domainvilla.ID, dr daterange.DateRange) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0)
	for _, b := range r.items {
		if b.VillaID != villaID || !b.Status.Active() {
			continue
		}
		if b.Range.Overlaps(dr) {
			matches = append(matches, b)
		}
	}
	return matches, nil
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id := strings.TrimSpace(guestID)
	if id == "" {
		return nil, fault.New(fault.KindValidation, "memory: guest id required")
	}
	matches := make([]*domainbooking.Booking, 0)
	for _, b := range r.items {
		if b.GuestID == id {
			matches = append(matches, b)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

// ListDueForCompletion returns paid bookings whose checkout has passed.
func (r *BookingRepository) ListDueForCompletion(ctx context.Context, now time.Time) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0)
	for _, b := range r.items {
		if b.Status != domainbooking.StatusPaid {
			continue
		}
		if !b.Range.CheckOut.After(now.UTC()) {
			matches = append(matches, b)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Range.CheckOut.Before(matches[j].Range.CheckOut)
	})
	return matches, nil
}

// ReviewRepository is a lightweight in-memory review store keyed by
// booking and direction.
type ReviewRepository struct {
	mu    sync.RWMutex
	items map[string]*domainreview.Review
}

// NewReviewRepository builds an empty reviews store.
func NewReviewRepository() *ReviewRepository {
	return &ReviewRepository{items: make(map[string]*domainreview.Review)}
}

func (r *ReviewRepository) ByBookingAndDirection(ctx context.Context, bookingID domainbooking.ID, direction domainreview.Direction) (*domainreview.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if rev, ok := r.items[reviewKey(bookingID, direction)]; ok {
		return rev, nil
	}
	return nil, domainreview.ErrNotFound
}

func (r *ReviewRepository) ListByVilla(ctx context.Context, villaID domainvilla.ID, limit, offset int) ([]*domainreview.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainreview.Review, 0)
	for _, rev := range r.items {
		if rev.VillaID == villaID && rev.Direction == domainreview.GuestOnVilla {
			matches = append(matches, rev)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	total := len(matches)
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return matches[offset:end], nil
}

func (r *ReviewRepository) Save(ctx context.Context, rev *domainreview.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := reviewKey(rev.BookingID, rev.Direction)
	if _, exists := r.items[key]; exists {
		return fault.New(fault.KindConflict, "memory: review already exists for booking and direction")
	}
	r.items[key] = rev
	return nil
}

func reviewKey(bookingID domainbooking.ID, direction domainreview.Direction) string {
	return string(bookingID) + ":" + string(direction)
}

// PayoutRepository keeps scheduled payouts in memory.
type PayoutRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.ID]*domainpayout.Payout
}

// NewPayoutRepository builds an empty payout store.
func NewPayoutRepository() *PayoutRepository {
	return &PayoutRepository{items: make(map[domainbooking.ID]*domainpayout.Payout)}
}

func (r *PayoutRepository) ByBooking(ctx context.Context, bookingID domainbooking.ID) (*domainpayout.Payout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[bookingID]
	if !ok {
		return nil, fault.New(fault.KindNotFound, "memory: payout not found")
	}
	return p, nil
}

func (r *PayoutRepository) Save(ctx context.Context, p *domainpayout.Payout) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[p.BookingID]; exists {
		return domainpayout.ErrDuplicate
	}
	r.items[p.BookingID] = p
	return nil
}
