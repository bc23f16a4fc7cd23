package service

import "sync"

// slotLocks serializes work per slot key so that the availability
// check and the insert of a reservation form one critical section for
// any given (table, date, time).  Entries are reference counted and
// removed once the last holder releases them, keeping the map bounded
// by the number of in-flight requests.
type slotLocks struct {
	mu   sync.Mutex
	held map[string]*slotEntry
}

type slotEntry struct {
	mu   sync.Mutex
	refs int
}

func newSlotLocks() *slotLocks {
	return &slotLocks{held: make(map[string]*slotEntry)}
}

// lock blocks until the caller owns the critical section for key.
func (l *slotLocks) lock(key string) {
	l.mu.Lock()
	e, ok := l.held[key]
	if !ok {
		e = &slotEntry{}
		l.held[key] = e
	}
	e.refs++
	l.mu.Unlock()
	e.mu.Lock()
}

// unlock releases the critical section for key.  It must only be
// called by the current holder.
func (l *slotLocks) unlock(key string) {
	l.mu.Lock()
	e := l.held[key]
	e.refs--
	if e.refs == 0 {
		delete(l.held, key)
	}
	l.mu.Unlock()
	e.mu.Unlock()
}
