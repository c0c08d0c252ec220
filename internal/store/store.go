// Copyright (c) 2025 PawHaven
// SPDX-License-Identifier: MIT

// Package store provides the durable key-value surface pawcore persists
// transaction records to. Values are opaque JSON blobs; callers own the
// key namespace.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the key has no live value.
var ErrNotFound = errors.New("store: key not found")

// KV is the persistence surface consumed by the transaction coordinator.
// Implementations must treat a zero ttl as "no expiry".
type KV interface {
	// Get returns the raw value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Keys returns all live keys with the given prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
	// Close releases backend resources.
	Close() error
}
