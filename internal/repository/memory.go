package repository

import (
	"context"
	"sync"
	"time"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// MemoryLedger is an in-memory reservation store with the same
// contract as ReservationRepo.  It backs the test suite and local
// development without a MySQL server.  Records are copied on the way
// in and out so callers never share memory with the store.
type MemoryLedger struct {
	mu    sync.RWMutex
	seq   uint64
	items map[uint64]model.Reservation
}

// NewMemoryLedger returns an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{items: make(map[uint64]model.Reservation)}
}

// Insert assigns the next identity and stores a copy of the record.
func (l *MemoryLedger) Insert(_ context.Context, res *model.Reservation) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	res.ID = l.seq
	now := time.Now().UTC()
	res.CreatedAt = now
	res.UpdatedAt = now
	l.items[res.ID] = *res
	return nil
}

// GetByID returns a copy of the stored reservation or
// ErrReservationNotFound.
func (l *MemoryLedger) GetByID(_ context.Context, id uint64) (*model.Reservation, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	res, ok := l.items[id]
	if !ok {
		return nil, ErrReservationNotFound
	}
	return &res, nil
}

// ListAll returns every reservation in unspecified order.
func (l *MemoryLedger) ListAll(_ context.Context) ([]model.Reservation, error) {
	return l.filter(func(model.Reservation) bool { return true }), nil
}

// ListByDate returns the reservations for a calendar date.
func (l *MemoryLedger) ListByDate(_ context.Context, date time.Time) ([]model.Reservation, error) {
	day := date.Format(model.DateLayout)
	return l.filter(func(r model.Reservation) bool {
		return r.Date.Format(model.DateLayout) == day
	}), nil
}

// ListByUser returns the reservations owned by the given user.
func (l *MemoryLedger) ListByUser(_ context.Context, userID uint64) ([]model.Reservation, error) {
	return l.filter(func(r model.Reservation) bool { return r.UserID == userID }), nil
}

// ListByStatus returns the reservations in the given state.
func (l *MemoryLedger) ListByStatus(_ context.Context, status model.ReservationStatus) ([]model.Reservation, error) {
	return l.filter(func(r model.Reservation) bool { return r.Status == status }), nil
}

// ListByDateAndStatus returns the reservations for a date in a given
// state.
func (l *MemoryLedger) ListByDateAndStatus(_ context.Context, date time.Time, status model.ReservationStatus) ([]model.Reservation, error) {
	day := date.Format(model.DateLayout)
	return l.filter(func(r model.Reservation) bool {
		return r.Status == status && r.Date.Format(model.DateLayout) == day
	}), nil
}

func (l *MemoryLedger) filter(keep func(model.Reservation) bool) []model.Reservation {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]model.Reservation, 0)
	for _, r := range l.items {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// Update overwrites an existing reservation or returns
// ErrReservationNotFound.
func (l *MemoryLedger) Update(_ context.Context, res *model.Reservation) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	stored, ok := l.items[res.ID]
	if !ok {
		return ErrReservationNotFound
	}
	res.CreatedAt = stored.CreatedAt
	res.UpdatedAt = time.Now().UTC()
	l.items[res.ID] = *res
	return nil
}

// DeleteByID removes a reservation unconditionally.
func (l *MemoryLedger) DeleteByID(_ context.Context, id uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.items[id]; !ok {
		return ErrReservationNotFound
	}
	delete(l.items, id)
	return nil
}

// activeCountForTable reports how many ACTIVE reservations reference
// the table.  Used by MemoryRegistry to guard deletes.
func (l *MemoryLedger) activeCountForTable(tableID uint64) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for _, r := range l.items {
		if r.TableID == tableID && r.Status == model.StatusActive {
			n++
		}
	}
	return n
}

// MemoryRegistry is the in-memory counterpart of TableRepo.  It
// shares referential-integrity checks with a MemoryLedger so a table
// referenced by an ACTIVE reservation cannot be deleted.
type MemoryRegistry struct {
	mu     sync.RWMutex
	seq    uint64
	items  map[uint64]model.Table
	ledger *MemoryLedger
}

// NewMemoryRegistry returns an empty registry.  The ledger may be nil
// when reservation integrity checks are not needed.
func NewMemoryRegistry(ledger *MemoryLedger) *MemoryRegistry {
	return &MemoryRegistry{items: make(map[uint64]model.Table), ledger: ledger}
}

// Create assigns the next identity and stores a copy of the record.
func (g *MemoryRegistry) Create(_ context.Context, t *model.Table) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	t.ID = g.seq
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	g.items[t.ID] = *t
	return nil
}

// GetByID returns a copy of the stored table or ErrTableNotFound.
func (g *MemoryRegistry) GetByID(_ context.Context, id uint64) (*model.Table, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	t, ok := g.items[id]
	if !ok {
		return nil, ErrTableNotFound
	}
	return &t, nil
}

// ListAll returns every table.
func (g *MemoryRegistry) ListAll(_ context.Context) ([]model.Table, error) {
	return g.filter(func(model.Table) bool { return true }), nil
}

// ListAvailable returns the tables whose available flag is set.
func (g *MemoryRegistry) ListAvailable(_ context.Context) ([]model.Table, error) {
	return g.filter(func(t model.Table) bool { return t.Available }), nil
}

// ListWithCapacityAtLeast returns the tables seating at least n.
func (g *MemoryRegistry) ListWithCapacityAtLeast(_ context.Context, n uint32) ([]model.Table, error) {
	return g.filter(func(t model.Table) bool { return t.Capacity >= n }), nil
}

func (g *MemoryRegistry) filter(keep func(model.Table) bool) []model.Table {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]model.Table, 0)
	for _, t := range g.items {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

// Update overwrites an existing table or returns ErrTableNotFound.
func (g *MemoryRegistry) Update(_ context.Context, t *model.Table) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	stored, ok := g.items[t.ID]
	if !ok {
		return ErrTableNotFound
	}
	t.CreatedAt = stored.CreatedAt
	t.UpdatedAt = time.Now().UTC()
	g.items[t.ID] = *t
	return nil
}

// Delete removes a table unless an ACTIVE reservation still
// references it, in which case ErrConflict is returned.
func (g *MemoryRegistry) Delete(_ context.Context, id uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.items[id]; !ok {
		return ErrTableNotFound
	}
	if g.ledger != nil && g.ledger.activeCountForTable(id) > 0 {
		return ErrConflict
	}
	delete(g.items, id)
	return nil
}
