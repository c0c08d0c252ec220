// Copyright (c) 2025 PawHaven
// SPDX-License-Identifier: MIT

// Package correlation mints and stores causally linked request
// identifiers. A context tags every piece of work caused by one logical
// user action; contexts derived from the same browsing session share a
// session id. Parent links are recorded verbatim and never validated, so
// the stored contexts form a forest that may contain dangling parent
// references.
package correlation

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/pawhaven/pawcore/internal/log"
	"github.com/pawhaven/pawcore/internal/metrics"
	"github.com/rs/zerolog"
)

// Propagation header names attached to outbound requests.
const (
	HeaderCorrelationID = "X-Correlation-ID"
	HeaderSessionID     = "X-Session-ID"
	HeaderTimestamp     = "X-Timestamp"
	HeaderUserID        = "X-User-ID"
	HeaderParentID      = "X-Parent-Correlation-ID"
)

// DefaultRetention is how long a context survives without updates before
// a cleanup sweep evicts it.
const DefaultRetention = time.Hour

// ErrNotFound is returned when propagation headers are requested for an
// unknown correlation id. Lookups elsewhere default silently; the network
// boundary is the one place where absent correlation must fail loudly.
var ErrNotFound = errors.New("correlation: context not found")

// Context is one node in the correlation forest.
type Context struct {
	CorrelationID       string         `json:"correlationId"`
	SessionID           string         `json:"sessionId"`
	UserID              string         `json:"userId,omitempty"`
	ParentCorrelationID string         `json:"parentCorrelationId,omitempty"`
	Timestamp           time.Time      `json:"timestamp"`
	Metadata            map[string]any `json:"metadata,omitempty"`
}

// Patch carries the fields Update may shallow-merge into a stored
// context. Nil pointers leave the stored value untouched.
type Patch struct {
	UserID   *string
	Metadata map[string]any
}

// clock abstracts time for cleanup tests.
type clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Store holds correlation contexts keyed by correlation id. Construct
// one per process at the composition root; it is safe for concurrent
// use.
type Store struct {
	mu        sync.RWMutex
	contexts  map[string]*Context
	retention time.Duration
	clock     clock
	logger    zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithRetention overrides the eviction window used by Cleanup.
func WithRetention(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.retention = d
		}
	}
}

// WithClock injects a clock, used by tests to simulate aged contexts.
func WithClock(c clock) Option {
	return func(s *Store) { s.clock = c }
}

// NewStore creates an empty correlation store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		contexts:  make(map[string]*Context),
		retention: DefaultRetention,
		clock:     realClock{},
		logger:    log.WithComponent("correlation"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewContext mints and stores a fresh context. When parentID resolves to
// a stored context the child inherits its session id; otherwise a new
// session id is generated and the (possibly dangling) parent id is still
// recorded verbatim.
func (s *Store) NewContext(userID, parentID string) *Context {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessionID := ""
	if parentID != "" {
		if parent, ok := s.contexts[parentID]; ok {
			sessionID = parent.SessionID
		}
	}
	if sessionID == "" {
		sessionID = NewSessionID()
	}

	c := &Context{
		CorrelationID:       NewCorrelationID(),
		SessionID:           sessionID,
		UserID:              userID,
		ParentCorrelationID: parentID,
		Timestamp:           s.clock.Now(),
	}
	s.contexts[c.CorrelationID] = c
	metrics.SetCorrelationContexts(len(s.contexts))

	s.logger.Debug().
		Str(log.FieldCorrelationID, c.CorrelationID).
		Str(log.FieldSessionID, c.SessionID).
		Str(log.FieldParentID, parentID).
		Msg("context created")
	return c.clone()
}

// Get returns a snapshot of the stored context, if any.
func (s *Store) Get(correlationID string) (*Context, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contexts[correlationID]
	if !ok {
		return nil, false
	}
	return c.clone(), true
}

// Update shallow-merges patch into the stored context and refreshes its
// timestamp. Unknown ids are a silent no-op.
func (s *Store) Update(correlationID string, patch Patch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contexts[correlationID]
	if !ok {
		return
	}
	if patch.UserID != nil {
		c.UserID = *patch.UserID
	}
	if len(patch.Metadata) > 0 {
		if c.Metadata == nil {
			c.Metadata = make(map[string]any, len(patch.Metadata))
		}
		for k, v := range patch.Metadata {
			c.Metadata[k] = v
		}
	}
	c.Timestamp = s.clock.Now()
}

// RequestHeaders computes the outbound propagation headers for the given
// context. This is the only lookup that validates existence: silently
// propagating absent correlation is worse than failing at the boundary.
func (s *Store) RequestHeaders(correlationID string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contexts[correlationID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, correlationID)
	}

	headers := map[string]string{
		HeaderCorrelationID: c.CorrelationID,
		HeaderSessionID:     c.SessionID,
		HeaderTimestamp:     strconv.FormatInt(c.Timestamp.UnixMilli(), 10),
	}
	if c.UserID != "" {
		headers[HeaderUserID] = c.UserID
	}
	if c.ParentCorrelationID != "" {
		headers[HeaderParentID] = c.ParentCorrelationID
	}
	return headers, nil
}

// Cleanup evicts every context older than the retention window and
// returns the number removed. Safe to call on an empty store.
func (s *Store) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.clock.Now().Add(-s.retention)
	removed := 0
	for id, c := range s.contexts {
		if c.Timestamp.Before(cutoff) {
			delete(s.contexts, id)
			removed++
		}
	}
	if removed > 0 {
		metrics.AddCorrelationEvictions(removed)
		metrics.SetCorrelationContexts(len(s.contexts))
		s.logger.Debug().
			Int("evicted", removed).
			Int("remaining", len(s.contexts)).
			Msg("cleanup sweep")
	}
	return removed
}

// Len returns the number of stored contexts.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.contexts)
}

func (c *Context) clone() *Context {
	out := *c
	if c.Metadata != nil {
		out.Metadata = make(map[string]any, len(c.Metadata))
		for k, v := range c.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}
