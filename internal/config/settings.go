// Copyright (c) 2025 PawHaven
// SPDX-License-Identifier: MIT

package config

import "time"

// Settings holds the resolved pawcore runtime configuration.
type Settings struct {
	// Correlation
	ContextRetention time.Duration // eviction window for correlation contexts

	// Retry policy
	RetryMaxAttempts int
	RetryBaseDelay   time.Duration
	RetryMultiplier  int
	RetryMaxDelay    time.Duration

	// Idempotency
	IdempotencyTTL     time.Duration // default record lifetime
	IdempotencySweep   time.Duration // janitor interval, 0 disables
	TrackingSetMaxSize int           // bound on active/completed transaction sets

	// Persistence
	StoreBackend string // "badger", "redis" or "memory"
	StorePath    string // badger data directory
	RedisAddr    string
	RedisDB      int

	// Diagnostics API
	ListenAddr     string
	MetricsEnabled bool
}

// Load resolves Settings from PAWCORE_* environment variables, falling
// back to defaults for anything unset or malformed.
func Load() Settings {
	return Settings{
		ContextRetention: ParseDuration("PAWCORE_CONTEXT_RETENTION", time.Hour),

		RetryMaxAttempts: ParseInt("PAWCORE_RETRY_MAX_ATTEMPTS", 3),
		RetryBaseDelay:   ParseDuration("PAWCORE_RETRY_BASE_DELAY", 100*time.Millisecond),
		RetryMultiplier:  ParseInt("PAWCORE_RETRY_MULTIPLIER", 2),
		RetryMaxDelay:    ParseDuration("PAWCORE_RETRY_MAX_DELAY", 5*time.Second),

		IdempotencyTTL:     ParseDuration("PAWCORE_IDEMPOTENCY_TTL", 30*time.Minute),
		IdempotencySweep:   ParseDuration("PAWCORE_IDEMPOTENCY_SWEEP", 5*time.Minute),
		TrackingSetMaxSize: ParseInt("PAWCORE_TRACKING_MAX", 100),

		StoreBackend: ParseString("PAWCORE_STORE_BACKEND", "badger"),
		StorePath:    ParseString("PAWCORE_STORE_PATH", "/var/lib/pawcore"),
		RedisAddr:    ParseString("PAWCORE_REDIS_ADDR", "localhost:6379"),
		RedisDB:      ParseInt("PAWCORE_REDIS_DB", 0),

		ListenAddr:     ParseString("PAWCORE_LISTEN", ":8090"),
		MetricsEnabled: ParseBool("PAWCORE_METRICS", true),
	}
}
