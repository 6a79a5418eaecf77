package coordinator

import (
	"sync"

	"villabay/internal/domain/villa"
)

// VillaLocks serializes booking-affecting work per villa. Creation,
// approval, cancellation, payment and completion all funnel through
// the same villa lock, so a check-then-act against the calendar and
// ledger runs as one atomic unit. Requests for different villas
// proceed fully in parallel.
type VillaLocks struct {
	mu    sync.Mutex
	locks map[villa.ID]*sync.Mutex
}

func NewVillaLocks() *VillaLocks {
	return &VillaLocks{locks: make(map[villa.ID]*sync.Mutex)}
}

func (l *VillaLocks) lockFor(id villa.ID) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	return m
}

// Do runs fn while holding the villa's exclusive section. The lock is
// released on return, error or not.
func (l *VillaLocks) Do(id villa.ID, fn func() error) error {
	m := l.lockFor(id)
	m.Lock()
	defer m.Unlock()
	return fn()
}
