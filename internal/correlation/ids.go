// Copyright (c) 2025 PawHaven
// SPDX-License-Identifier: MIT

package correlation

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// ID prefixes keep the two token namespaces visually distinct: a
// correlation id can never be mistaken for a session id.
const (
	correlationPrefix = "corr-"
	sessionPrefix     = "sess-"

	idByteLen = 16
)

func randomHex() string {
	buf := make([]byte, idByteLen)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the process is unusable.
		panic(fmt.Sprintf("correlation: random source unavailable: %v", err))
	}
	return hex.EncodeToString(buf)
}

// NewCorrelationID mints a fresh correlation id: "corr-" plus 32
// lowercase hex characters from a cryptographically strong source.
func NewCorrelationID() string {
	return correlationPrefix + randomHex()
}

// NewSessionID mints a fresh session id: "sess-" plus 32 lowercase hex
// characters.
func NewSessionID() string {
	return sessionPrefix + randomHex()
}
