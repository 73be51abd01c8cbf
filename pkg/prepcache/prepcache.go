// Package prepcache maps a query's fingerprint (text plus formal parameter
// types) to the prepared statement handle the server returned from
// sp_cursorprepexec, so a repeated execution of the same parameterized
// query can skip straight to sp_cursorexecute.
package prepcache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// Fingerprint identifies a preparable query independent of bound values.
type Fingerprint struct {
	Query           string
	FormalParameters string
}

// Cache stores prepared statement handles keyed by Fingerprint. Handles are
// scoped to one connection: a Cache is never shared across connections.
type Cache interface {
	// Get returns the cached handle and true, or (0, false) on a miss.
	Get(fp Fingerprint) (int32, bool)
	// Put records the handle the server returned for fp. A cache with a
	// bounded capacity may evict another entry; the evicted handle's
	// sp_unprepare is the caller's responsibility (see the onEvict callback of
	// NewLRU) because only the caller holds the connection's RPC channel.
	Put(fp Fingerprint, handle int32)
	// Remove drops fp, e.g. after a prepare-retry invalidates it.
	Remove(fp Fingerprint)
}

// unbounded never evicts: every distinct query seen on the connection keeps
// its prepared handle until the connection closes.
type unbounded struct {
	entries map[Fingerprint]int32
}

// NewUnbounded returns a Cache with no eviction, the default when the
// caller sets no prepared statement cache size limit.
func NewUnbounded() Cache {
	return &unbounded{entries: make(map[Fingerprint]int32)}
}

func (u *unbounded) Get(fp Fingerprint) (int32, bool) {
	h, ok := u.entries[fp]
	return h, ok
}

func (u *unbounded) Put(fp Fingerprint, handle int32) {
	u.entries[fp] = handle
}

func (u *unbounded) Remove(fp Fingerprint) {
	delete(u.entries, fp)
}

// lruCache bounds the number of distinct prepared statements kept per
// connection, evicting the least recently used fingerprint once full.
type lruCache struct {
	inner   *lru.Cache[Fingerprint, int32]
	onEvict func(Fingerprint, int32)
}

// NewLRU returns a Cache holding at most size prepared statements.
// onEvict, if non-nil, is invoked synchronously with the evicted
// fingerprint and handle so the caller can issue sp_unprepare for it.
func NewLRU(size int, onEvict func(fp Fingerprint, handle int32)) (Cache, error) {
	c := &lruCache{onEvict: onEvict}
	inner, err := lru.NewWithEvict[Fingerprint, int32](size, func(fp Fingerprint, handle int32) {
		if c.onEvict != nil {
			c.onEvict(fp, handle)
		}
	})
	if err != nil {
		return nil, err
	}
	c.inner = inner
	return c, nil
}

func (c *lruCache) Get(fp Fingerprint) (int32, bool) {
	return c.inner.Get(fp)
}

func (c *lruCache) Put(fp Fingerprint, handle int32) {
	c.inner.Add(fp, handle)
}

func (c *lruCache) Remove(fp Fingerprint) {
	c.inner.Remove(fp)
}

// none never caches: every query is re-prepared (or never prepared at all,
// for the direct sp_executesql path). Used when the caller disables the
// prepared statement cache outright.
type none struct{}

// NewNone returns a Cache that never stores anything; every Get is a miss.
func NewNone() Cache { return none{} }

func (none) Get(Fingerprint) (int32, bool) { return 0, false }
func (none) Put(Fingerprint, int32)        {}
func (none) Remove(Fingerprint)            {}
