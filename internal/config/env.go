// Copyright (c) 2025 PawHaven
// SPDX-License-Identifier: MIT

// Package config reads pawcore settings from PAWCORE_* environment
// variables. Every parser is defensive: malformed, oversized or hostile
// values fall back to the caller's default with a logged warning and are
// never surfaced as errors.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pawhaven/pawcore/internal/log"
	"github.com/rs/zerolog"
)

// maxEnvValueLen caps accepted environment values. Anything longer is
// treated as hostile input and rejected.
const maxEnvValueLen = 1024

// blockedEnvChars are characters that never appear in a legitimate
// pawcore setting but do appear in injection payloads.
const blockedEnvChars = "<>\"'`$(){}[]\\;|&*?~^"

// truthy and falsy hold the accepted boolean spellings, lowercase.
var (
	truthy = map[string]struct{}{"true": {}, "1": {}, "yes": {}, "on": {}, "enabled": {}}
	falsy  = map[string]struct{}{"false": {}, "0": {}, "no": {}, "off": {}, "disabled": {}, "": {}}
)

// sanitizeEnvValue trims the raw value and reports whether it is safe to
// parse. Rejected values are logged by the caller.
func sanitizeEnvValue(raw string) (string, bool) {
	if len(raw) > maxEnvValueLen {
		return "", false
	}
	v := strings.TrimSpace(raw)
	if strings.ContainsAny(v, blockedEnvChars) {
		return "", false
	}
	return v, true
}

// ParseString reads a string from an environment variable or returns the
// default. Oversized or blocked-character values are rejected.
func ParseString(key, defaultValue string) string {
	return parseStringWithLogger(log.WithComponent("config"), key, defaultValue)
}

func parseStringWithLogger(logger zerolog.Logger, key, defaultValue string) string {
	raw, exists := os.LookupEnv(key)
	if !exists {
		logger.Debug().
			Str("key", key).
			Str("default", defaultValue).
			Str("source", "default").
			Msg("using default value")
		return defaultValue
	}
	v, ok := sanitizeEnvValue(raw)
	if !ok {
		logger.Warn().
			Str("key", key).
			Int("length", len(raw)).
			Msg("rejected environment value, using default")
		return defaultValue
	}
	if v == "" {
		logger.Debug().
			Str("key", key).
			Str("default", defaultValue).
			Str("source", "default").
			Msg("using default value (environment variable is empty)")
		return defaultValue
	}
	logger.Debug().
		Str("key", key).
		Str("value", v).
		Str("source", "environment").
		Msg("using environment variable")
	return v
}

// ParseBool reads a boolean from an environment variable or returns the
// default. Accepted spellings: true/1/yes/on/enabled and
// false/0/no/off/disabled (case-insensitive, whitespace-trimmed). An
// empty value means false only when explicitly set to one of the falsy
// spellings; an unset variable always yields the default.
func ParseBool(key string, defaultValue bool) bool {
	logger := log.WithComponent("config")
	raw, exists := os.LookupEnv(key)
	if !exists {
		logger.Debug().
			Str("key", key).
			Bool("default", defaultValue).
			Str("source", "default").
			Msg("using default value")
		return defaultValue
	}
	return ParseBoolValue(raw, defaultValue, logger.With().Str("key", key).Logger())
}

// ParseBoolValue parses a raw boolean value with the same validation rules
// as ParseBool. It is exported for callers that receive values from
// sources other than the process environment.
func ParseBoolValue(raw string, defaultValue bool, logger zerolog.Logger) bool {
	v, ok := sanitizeEnvValue(raw)
	if !ok {
		logger.Warn().
			Int("length", len(raw)).
			Bool("default", defaultValue).
			Msg("rejected boolean value, using default")
		return defaultValue
	}
	lower := strings.ToLower(v)
	if _, ok := truthy[lower]; ok {
		return true
	}
	if _, ok := falsy[lower]; ok {
		return false
	}
	logger.Warn().
		Str("value", v).
		Bool("default", defaultValue).
		Msg("invalid boolean value, using default")
	return defaultValue
}

// ParseInt reads an integer from an environment variable or returns the
// default on parse errors.
func ParseInt(key string, defaultValue int) int {
	logger := log.WithComponent("config")
	raw, exists := os.LookupEnv(key)
	if !exists {
		logger.Debug().
			Str("key", key).
			Int("default", defaultValue).
			Str("source", "default").
			Msg("using default value")
		return defaultValue
	}
	v, ok := sanitizeEnvValue(raw)
	if !ok || v == "" {
		logger.Warn().
			Str("key", key).
			Int("default", defaultValue).
			Msg("rejected integer value, using default")
		return defaultValue
	}
	if i, err := strconv.Atoi(v); err == nil {
		logger.Debug().
			Str("key", key).
			Int("value", i).
			Str("source", "environment").
			Msg("using environment variable")
		return i
	}
	logger.Warn().
		Str("key", key).
		Str("value", v).
		Int("default", defaultValue).
		Msg("invalid integer in environment variable, using default")
	return defaultValue
}

// ParseDuration reads a duration in Go duration format (e.g. "5s") or
// returns the default on parse errors.
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	logger := log.WithComponent("config")
	raw, exists := os.LookupEnv(key)
	if !exists {
		logger.Debug().
			Str("key", key).
			Dur("default", defaultValue).
			Str("source", "default").
			Msg("using default value")
		return defaultValue
	}
	v, ok := sanitizeEnvValue(raw)
	if !ok || v == "" {
		logger.Warn().
			Str("key", key).
			Dur("default", defaultValue).
			Msg("rejected duration value, using default")
		return defaultValue
	}
	if d, err := time.ParseDuration(v); err == nil {
		logger.Debug().
			Str("key", key).
			Dur("value", d).
			Str("source", "environment").
			Msg("using environment variable")
		return d
	}
	logger.Warn().
		Str("key", key).
		Str("value", v).
		Dur("default", defaultValue).
		Msg("invalid duration in environment variable, using default")
	return defaultValue
}
