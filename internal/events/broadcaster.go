// Copyright (c) 2025 PawHaven
// SPDX-License-Identifier: MIT

// Package events provides a broadcast hub with all-settled semantics:
// every subscriber of an event runs independently and one handler's
// failure never prevents the others from running or being reported.
package events

import (
	"context"
	"sync"

	"github.com/pawhaven/pawcore/internal/log"
	"github.com/rs/zerolog"
)

// Handler consumes one event payload.
type Handler func(ctx context.Context, payload any) error

// Result is one subscriber's settled outcome.
type Result struct {
	Handler string // registration name
	Err     error  // nil on success
}

// OK reports whether the handler fulfilled.
func (r Result) OK() bool { return r.Err == nil }

// Broadcaster dispatches events to dynamically registered handlers.
// Safe for concurrent use.
type Broadcaster struct {
	mu       sync.RWMutex
	handlers map[string][]namedHandler
	logger   zerolog.Logger
}

type namedHandler struct {
	name string
	fn   Handler
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		handlers: make(map[string][]namedHandler),
		logger:   log.WithComponent("events"),
	}
}

// Subscribe registers fn for the given event under name. Names are
// diagnostic only; duplicates are allowed.
func (b *Broadcaster) Subscribe(event, name string, fn Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = append(b.handlers[event], namedHandler{name: name, fn: fn})
}

// Emit invokes every handler registered for event and collects each
// outcome. Handler failures are logged and reported per subscriber,
// never short-circuited. The returned slice preserves registration
// order.
func (b *Broadcaster) Emit(ctx context.Context, event string, payload any) []Result {
	b.mu.RLock()
	subs := make([]namedHandler, len(b.handlers[event]))
	copy(subs, b.handlers[event])
	b.mu.RUnlock()

	results := make([]Result, len(subs))
	var wg sync.WaitGroup
	for i, sub := range subs {
		wg.Add(1)
		go func(i int, sub namedHandler) {
			defer wg.Done()
			err := sub.fn(ctx, payload)
			if err != nil {
				logger := log.WithContext(ctx, b.logger)
				logger.Warn().
					Err(err).
					Str(log.FieldEvent, event).
					Str("handler", sub.name).
					Msg("event handler failed")
			}
			results[i] = Result{Handler: sub.name, Err: err}
		}(i, sub)
	}
	wg.Wait()
	return results
}
