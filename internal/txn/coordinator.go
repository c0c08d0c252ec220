// Copyright (c) 2025 PawHaven
// SPDX-License-Identifier: MIT

// Package txn executes typed units of asynchronous work with retry,
// status tracking, correlation tagging and best-effort persistence of a
// whitelisted record subset.
package txn

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pawhaven/pawcore/internal/idempotency"
	"github.com/pawhaven/pawcore/internal/log"
	"github.com/pawhaven/pawcore/internal/metrics"
	"github.com/pawhaven/pawcore/internal/store"
	"github.com/rs/zerolog"
)

// DefaultMaxTracked bounds the in-memory active and completed sets.
const DefaultMaxTracked = 100

// ErrUnknownTransaction is returned by UpdateStatus for an id the
// coordinator is not tracking.
var ErrUnknownTransaction = errors.New("txn: unknown transaction")

// ErrStatusNotAllowed is returned by UpdateStatus for a status only the
// coordinator itself may set.
var ErrStatusNotAllowed = errors.New("txn: status not allowed from outside")

// Operation is the caller-supplied unit of work.
type Operation func(ctx context.Context) (any, error)

type clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// sleepFn waits for d or until ctx is done.
type sleepFn func(ctx context.Context, d time.Duration) error

func defaultSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Coordinator orchestrates transaction execution. Construct one per
// process at the composition root and share it; it is safe for
// concurrent use.
type Coordinator struct {
	mu         sync.Mutex
	active     map[string]*Transaction
	completed  []*Transaction
	policy     Policy
	maxTracked int

	cache     *idempotency.Cache
	persister *persister
	clock     clock
	sleep     sleepFn
	logger    zerolog.Logger
}

// Options configures a Coordinator.
type Options struct {
	// Policy bounds retries; zero fields take defaults.
	Policy Policy
	// KV is the durable surface transaction records are written to.
	// Nil disables persistence.
	KV store.KV
	// Cache handles idempotent execution. Nil constructs a private one.
	Cache *idempotency.Cache
	// MaxTracked bounds the active and completed sets.
	MaxTracked int
	// PersistQueueLen bounds the background write queue.
	PersistQueueLen int

	// test seams
	Clock clock
	Sleep sleepFn
}

// NewCoordinator creates a Coordinator from opts.
func NewCoordinator(opts Options) *Coordinator {
	c := &Coordinator{
		active:     make(map[string]*Transaction),
		policy:     opts.Policy.normalize(),
		maxTracked: opts.MaxTracked,
		cache:      opts.Cache,
		clock:      opts.Clock,
		sleep:      opts.Sleep,
		logger:     log.WithComponent("txn"),
	}
	if c.maxTracked <= 0 {
		c.maxTracked = DefaultMaxTracked
	}
	if c.cache == nil {
		c.cache = idempotency.NewCache()
	}
	if c.clock == nil {
		c.clock = realClock{}
	}
	if c.sleep == nil {
		c.sleep = defaultSleep
	}
	if opts.KV != nil {
		c.persister = newPersister(opts.KV, opts.PersistQueueLen, log.WithComponent("txn.persist"))
	}
	return c
}

// Close stops the background persistence worker after draining its
// queue. The coordinator must not be used afterwards.
func (c *Coordinator) Close() {
	if c.persister != nil {
		c.persister.close()
	}
}

// Execute runs op as a tracked transaction of the given type. Transient
// failures are retried with exponential backoff within the policy's
// attempt budget; an exhausted budget surfaces the operation's final
// error to the caller. The transaction record (whitelisted fields only)
// is scheduled for background persistence on every terminal transition.
func (c *Coordinator) Execute(ctx context.Context, typ Type, op Operation, params map[string]any) (any, error) {
	correlationID := log.CorrelationIDFromContext(ctx)
	idemKey := ""
	if params != nil {
		idemKey = idempotency.Fingerprint(string(typ), params)
	}

	t := c.obtain(typ, correlationID, idemKey)
	ctx = log.ContextWithTransactionID(ctx, t.ID)
	logger := log.WithContext(ctx, c.logger).With().Str(log.FieldTxnType, string(typ)).Logger()

	c.transition(t.ID, StatusProcessing)

	var lastErr error
	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			c.finish(t.ID, StatusCompleted)
			metrics.IncTransaction(string(typ), "completed")
			logger.Debug().
				Int(log.FieldAttempt, attempt).
				Msg("transaction completed")
			return result, nil
		}
		lastErr = err

		if attempt == c.policy.MaxAttempts {
			break
		}

		c.transition(t.ID, StatusRetrying)
		metrics.IncRetry(string(typ))
		delay := c.policy.Delay(attempt)
		logger.Warn().
			Err(err).
			Int(log.FieldAttempt, attempt).
			Dur("backoff", delay).
			Msg("transaction attempt failed, retrying")

		if serr := c.sleep(ctx, delay); serr != nil {
			// Caller gave up while we were backing off.
			c.finish(t.ID, StatusFailed)
			metrics.IncTransaction(string(typ), "failed")
			return nil, serr
		}
		c.transition(t.ID, StatusProcessing)
	}

	c.finish(t.ID, StatusFailed)
	metrics.IncTransaction(string(typ), "failed")
	logger.Error().
		Err(lastErr).
		Int("attempts", c.policy.MaxAttempts).
		Msg("transaction failed, retry budget exhausted")
	return nil, lastErr
}

// ExecuteIdempotent delegates to the idempotency cache, tagging the call
// with the current correlation id for observability. While the cache
// record is live, the same operation/params pair returns the first
// result without re-execution. A retried transaction attempt reuses the
// fingerprint minted for its first attempt, so retries never cause a
// second side effect.
func (c *Coordinator) ExecuteIdempotent(ctx context.Context, operation string, op Operation, params map[string]any, ttl time.Duration) (any, error) {
	logger := log.WithContext(ctx, c.logger)
	logger.Debug().
		Str(log.FieldOperation, operation).
		Msg("idempotent execution requested")
	return c.cache.Execute(ctx, operation, params, ttl, idempotency.Operation(op))
}

// IdempotencyStats exposes the delegated cache's record counts.
func (c *Coordinator) IdempotencyStats() idempotency.Stats {
	return c.cache.Stats()
}

// Active returns a snapshot of non-terminal transactions.
func (c *Coordinator) Active() []*Transaction {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Transaction, 0, len(c.active))
	for _, t := range c.active {
		out = append(out, t.clone())
	}
	return out
}

// Completed returns a snapshot of terminal transactions, oldest first.
func (c *Coordinator) Completed() []*Transaction {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Transaction, 0, len(c.completed))
	for _, t := range c.completed {
		out = append(out, t.clone())
	}
	return out
}

// UpdateStatus lets error-boundary collaborators mark a transaction
// failed or retrying when they intercept a failure the coordinator could
// not observe. All other statuses are reserved for the coordinator.
func (c *Coordinator) UpdateStatus(id string, status Status) error {
	if status != StatusFailed && status != StatusRetrying {
		return ErrStatusNotAllowed
	}
	c.mu.Lock()
	t, ok := c.active[id]
	c.mu.Unlock()
	if !ok {
		return ErrUnknownTransaction
	}

	if status == StatusFailed {
		c.finish(id, StatusFailed)
		metrics.IncTransaction(string(t.Type), "failed")
	} else {
		c.transition(id, StatusRetrying)
	}
	return nil
}

// obtain reuses an existing non-terminal transaction with the same
// correlation id and idempotency key, or creates a fresh one.
func (c *Coordinator) obtain(typ Type, correlationID, idemKey string) *Transaction {
	c.mu.Lock()
	defer c.mu.Unlock()

	if idemKey != "" {
		for _, t := range c.active {
			if t.CorrelationID == correlationID && t.IdempotencyKey == idemKey {
				return t.clone()
			}
		}
	}

	now := c.clock.Now()
	t := &Transaction{
		ID:             uuid.NewString(),
		CorrelationID:  correlationID,
		IdempotencyKey: idemKey,
		Type:           typ,
		Status:         StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	c.active[t.ID] = t
	c.trimActiveLocked()
	metrics.SetActiveTransactions(len(c.active))
	return t.clone()
}

// transition applies a non-terminal status change in place.
func (c *Coordinator) transition(id string, status Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.active[id]
	if !ok {
		return
	}
	if status == StatusProcessing && t.Status == StatusRetrying {
		t.RetryCount++
	}
	t.Status = status
	t.UpdatedAt = c.clock.Now()
}

// finish moves a transaction to a terminal status, into the completed
// set, and schedules its record for background persistence.
func (c *Coordinator) finish(id string, status Status) {
	c.mu.Lock()
	t, ok := c.active[id]
	if !ok {
		c.mu.Unlock()
		return
	}
	delete(c.active, id)
	t.Status = status
	t.UpdatedAt = c.clock.Now()
	c.completed = append(c.completed, t)
	if len(c.completed) > c.maxTracked {
		c.completed = c.completed[len(c.completed)-c.maxTracked:]
	}
	metrics.SetActiveTransactions(len(c.active))
	rec := newPersistedRecord(t, c.clock.Now())
	c.mu.Unlock()

	if c.persister != nil {
		c.persister.enqueue(rec)
	}
}

// trimActiveLocked drops the oldest active entries over the bound.
// Requires c.mu held.
func (c *Coordinator) trimActiveLocked() {
	for len(c.active) > c.maxTracked {
		oldestID := ""
		var oldest time.Time
		for id, t := range c.active {
			if oldestID == "" || t.CreatedAt.Before(oldest) {
				oldestID = id
				oldest = t.CreatedAt
			}
		}
		delete(c.active, oldestID)
	}
}
