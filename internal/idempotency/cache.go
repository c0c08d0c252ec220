// Copyright (c) 2025 PawHaven
// SPDX-License-Identifier: MIT

// Package idempotency suppresses duplicate execution of semantically
// identical operations within a validity window. An operation's
// fingerprint (name + canonicalized params) maps to the first result
// produced; concurrent callers sharing a fingerprint join one in-flight
// execution rather than triggering a second.
package idempotency

import (
	"context"
	"sync"
	"time"

	"github.com/pawhaven/pawcore/internal/log"
	"github.com/pawhaven/pawcore/internal/metrics"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is the record lifetime used when a caller passes a zero ttl.
const DefaultTTL = 30 * time.Minute

// Operation is the unit of work guarded by the cache.
type Operation func(ctx context.Context) (any, error)

// record is one cached execution outcome.
type record struct {
	key           string
	correlationID string
	result        any
	err           error
	createdAt     time.Time
	expiresAt     time.Time
}

func (r *record) expired(now time.Time) bool {
	return now.After(r.expiresAt)
}

// Stats partitions the current record set by expiry.
type Stats struct {
	TotalRecords   int `json:"totalRecords"`
	ActiveRecords  int `json:"activeRecords"`
	ExpiredRecords int `json:"expiredRecords"`
}

// clock abstracts time for expiry tests.
type clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Cache is the idempotency record store. Construct one per process and
// share it; it is safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	records map[string]*record
	group   singleflight.Group
	clock   clock
	logger  zerolog.Logger
	janitor *janitor
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock injects a clock for tests.
func WithClock(c clock) Option {
	return func(ca *Cache) { ca.clock = c }
}

// WithSweepInterval starts a background janitor that evicts expired
// records every interval. Zero disables the janitor; expired records are
// then only dropped lazily on lookup.
func WithSweepInterval(interval time.Duration) Option {
	return func(ca *Cache) {
		if interval > 0 {
			ca.janitor = &janitor{interval: interval, stop: make(chan struct{})}
		}
	}
}

// NewCache creates an empty idempotency cache.
func NewCache(opts ...Option) *Cache {
	c := &Cache{
		records: make(map[string]*record),
		clock:   realClock{},
		logger:  log.WithComponent("idempotency"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.janitor != nil {
		go c.janitor.run(c)
	}
	return c
}

// Execute runs op at most once per live fingerprint. A live cached
// record short-circuits the call; concurrent callers with the same key
// share a single in-flight execution via singleflight. The first
// execution's outcome, success or error, is what every caller observes
// until the record expires.
func (c *Cache) Execute(ctx context.Context, operation string, params map[string]any, ttl time.Duration, op Operation) (any, error) {
	key := Fingerprint(operation, params)
	return c.ExecuteKeyed(ctx, key, operation, ttl, op)
}

// ExecuteKeyed is Execute with a precomputed fingerprint. The
// transaction coordinator uses it so that a retried attempt reuses the
// fingerprint minted for the first attempt.
func (c *Cache) ExecuteKeyed(ctx context.Context, key, operation string, ttl time.Duration, op Operation) (any, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	if rec, ok := c.lookup(key); ok {
		metrics.IncIdempotencyLookup("hit")
		c.logger.Debug().
			Str(log.FieldOperation, operation).
			Str(log.FieldIdempotencyKey, key).
			Msg("returning cached result")
		return rec.result, rec.err
	}
	metrics.IncIdempotencyLookup("miss")

	result, err, shared := c.group.Do(key, func() (any, error) {
		// Re-check under the flight: a racing caller may have stored a
		// record between our lookup and this execution.
		if rec, ok := c.lookup(key); ok {
			return rec.result, rec.err
		}

		res, opErr := op(ctx)

		now := c.clock.Now()
		c.mu.Lock()
		c.records[key] = &record{
			key:           key,
			correlationID: log.CorrelationIDFromContext(ctx),
			result:        res,
			err:           opErr,
			createdAt:     now,
			expiresAt:     now.Add(ttl),
		}
		c.mu.Unlock()
		return res, opErr
	})
	if shared {
		metrics.IncIdempotencyLookup("shared")
	}
	return result, err
}

// lookup returns the live record for key, dropping it lazily if expired.
func (c *Cache) lookup(key string) (*record, bool) {
	c.mu.RLock()
	rec, ok := c.records[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if rec.expired(c.clock.Now()) {
		c.mu.Lock()
		// Guard against a concurrent replacement.
		if cur, still := c.records[key]; still && cur == rec {
			delete(c.records, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return rec, true
}

// Stats returns diagnostic counts over the current record set.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	now := c.clock.Now()
	s := Stats{TotalRecords: len(c.records)}
	for _, rec := range c.records {
		if rec.expired(now) {
			s.ExpiredRecords++
		} else {
			s.ActiveRecords++
		}
	}
	return s
}

// deleteExpired removes all expired records, returning the count.
func (c *Cache) deleteExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clock.Now()
	count := 0
	for key, rec := range c.records {
		if rec.expired(now) {
			delete(c.records, key)
			count++
		}
	}
	return count
}

// Stop terminates the background janitor, if one is running.
func (c *Cache) Stop() {
	if c.janitor != nil {
		close(c.janitor.stop)
	}
}

// janitor periodically evicts expired records.
type janitor struct {
	interval time.Duration
	stop     chan struct{}
}

func (j *janitor) run(c *Cache) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-j.stop:
			return
		}
	}
}
