// Package cache fronts the remote analysis call with a bounded,
// time-expiring memo.
//
// # Overview
//
// Identical text is re-observed constantly: every scroll, focus change
// and timer tick re-reads the same surfaces. The cache keys on
// (scope, exact text) and shares one underlying provider call per key
// per TTL window, including between callers that race during the same
// cycle — the pending outcome is stored before the request is issued,
// so concurrent callers block on it rather than duplicating it.
//
// Eviction is least-recently-used with a hard capacity bound, plus a
// fixed TTL regardless of access pattern: the analysis configuration
// (dictionary, enabled rules) can change without signaling this cache,
// so no settled result may outlive the TTL. Pending entries are exempt
// from both expiry and eviction until they settle — removing one would
// let a racing caller issue a second request for the same key.
// State-mutating host actions clear the whole cache for the same
// reason.
//
// Used by: pipeline (per-target fetches), engine (Clear on host actions)
package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/billie-coop/redpen/internal/lint"
)

const (
	// DefaultCapacity bounds the number of retained entries.
	DefaultCapacity = 500

	// DefaultTTL is how long a settled result stays reusable.
	DefaultTTL = 10 * time.Second
)

// keySep joins scope and text in cache keys. Unit separator cannot
// appear in either part.
const keySep = "\x1f"

// entry is one (key → in-flight-or-completed result) mapping.
// done is closed exactly once, when the outcome settles; created is
// stamped at settle time, so the TTL window starts when the result
// arrives, not when the request was issued.
type entry struct {
	key      string
	elem     *list.Element
	created  time.Time
	done     chan struct{}
	findings []lint.Finding
	err      error
}

func (e *entry) settled() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

// Cache deduplicates and memoizes provider calls.
type Cache struct {
	provider lint.Provider
	capacity int
	ttl      time.Duration
	now      func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
	order   *list.List // front = most recently used
}

// Option configures a Cache.
type Option func(*Cache)

// WithCapacity sets the maximum number of retained entries.
func WithCapacity(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithTTL sets the fixed time-to-live for entries.
func WithTTL(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.ttl = d
		}
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// New creates a cache in front of provider.
func New(provider lint.Provider, opts ...Option) *Cache {
	c := &Cache{
		provider: provider,
		capacity: DefaultCapacity,
		ttl:      DefaultTTL,
		now:      time.Now,
		entries:  make(map[string]*entry),
		order:    list.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lint returns findings for text under scope, reusing a live entry when
// one exists. A miss issues exactly one provider call; callers that
// arrive while it is in flight wait for the same outcome. Failed calls
// are not retained, so the next miss retries fresh.
func (c *Cache) Lint(ctx context.Context, text, scope string) ([]lint.Finding, error) {
	key := scope + keySep + text

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		// A pending entry never expires: reusing it is what upholds the
		// at-most-one-in-flight-request-per-key invariant, however slow
		// the provider is.
		if !e.settled() || c.now().Sub(e.created) < c.ttl {
			c.order.MoveToFront(e.elem)
			c.mu.Unlock()
			return c.await(ctx, e)
		}
		// Expired in place; replace below. Waiters on the old entry
		// still settle against it.
		c.removeLocked(e)
	}

	e := &entry{
		key:     key,
		created: c.now(),
		done:    make(chan struct{}),
	}
	e.elem = c.order.PushFront(e)
	c.entries[key] = e
	c.evictLocked()
	c.mu.Unlock()

	findings, err := c.provider.Analyze(ctx, text, scope)
	e.findings, e.err = findings, err
	c.mu.Lock()
	e.created = c.now()
	c.mu.Unlock()
	close(e.done)

	if err != nil {
		c.mu.Lock()
		// The entry may already have been evicted or cleared.
		if cur, ok := c.entries[key]; ok && cur == e {
			c.removeLocked(e)
		}
		c.mu.Unlock()
		return nil, err
	}

	return findings, nil
}

// Clear drops every entry. Call after any action that invalidates prior
// findings (dictionary edits, rule changes, ignored findings).
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
	c.order.Init()
}

// Len returns the current entry count.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// await blocks until e settles or ctx is canceled.
func (c *Cache) await(ctx context.Context, e *entry) ([]lint.Finding, error) {
	select {
	case <-e.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if e.err != nil {
		return nil, e.err
	}
	return e.findings, nil
}

// evictLocked enforces the capacity bound on settled entries, scanning
// from the least-recently-used end. An unsettled entry is never
// evicted: it is the single in-flight request for its key, and dropping
// it would let a racing caller issue a duplicate. The cache may
// therefore exceed capacity transiently while requests are in flight.
func (c *Cache) evictLocked() {
	for len(c.entries) > c.capacity {
		var victim *entry
		for el := c.order.Back(); el != nil; el = el.Prev() {
			if e := el.Value.(*entry); e.settled() {
				victim = e
				break
			}
		}
		if victim == nil {
			return
		}
		c.removeLocked(victim)
	}
}

// removeLocked unlinks e from both indexes. Caller must hold c.mu.
func (c *Cache) removeLocked(e *entry) {
	delete(c.entries, e.key)
	c.order.Remove(e.elem)
}
