package network

import (
	"sync"
	"time"
)

// UniqueIPEntry records the first sighting of one remote address and
// how often it has been accepted or denied since, per spec.md §3's
// "(addr, service, first_seen, accept_count, deny_count)" record.
type UniqueIPEntry struct {
	Addr        string
	Service     Tag
	FirstSeen   time.Time
	AcceptCount uint64
	DenyCount   uint64
}

// UniqueIPSet is a map-backed replacement for the teacher's intrusive
// linked set of unique source addresses (spec.md §9 DESIGN NOTES).
type UniqueIPSet struct {
	mu      sync.Mutex
	entries map[string]*UniqueIPEntry
}

// NewUniqueIPSet builds an empty set.
func NewUniqueIPSet() *UniqueIPSet {
	return &UniqueIPSet{entries: make(map[string]*UniqueIPEntry)}
}

func entryKey(addr string, tag Tag) string {
	return tag.String() + "|" + addr
}

// Accept records an accepted connection from addr on the given
// service, creating the entry on first sight.
func (u *UniqueIPSet) Accept(addr string, tag Tag, now time.Time) *UniqueIPEntry {
	u.mu.Lock()
	defer u.mu.Unlock()

	key := entryKey(addr, tag)
	e, ok := u.entries[key]
	if !ok {
		e = &UniqueIPEntry{Addr: addr, Service: tag, FirstSeen: now}
		u.entries[key] = e
	}
	e.AcceptCount++
	return e
}

// Deny records a deny-list rejection from addr on the given service.
func (u *UniqueIPSet) Deny(addr string, tag Tag, now time.Time) *UniqueIPEntry {
	u.mu.Lock()
	defer u.mu.Unlock()

	key := entryKey(addr, tag)
	e, ok := u.entries[key]
	if !ok {
		e = &UniqueIPEntry{Addr: addr, Service: tag, FirstSeen: now}
		u.entries[key] = e
	}
	e.DenyCount++
	return e
}

// Len reports the number of distinct (addr, service) pairs seen.
func (u *UniqueIPSet) Len() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.entries)
}
