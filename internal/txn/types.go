// Copyright (c) 2025 PawHaven
// SPDX-License-Identifier: MIT

package txn

import "time"

// Type is the closed set of business operation kinds a transaction can
// carry. Unrecognized operations fall back to the generic kinds.
type Type string

const (
	TypeAdoption      Type = "adoption"
	TypeFavorite      Type = "favorite"
	TypeBooking       Type = "booking"
	TypeRSVP          Type = "rsvp"
	TypeSocial        Type = "social"
	TypeProfileUpdate Type = "profile_update"
	TypeMutation      Type = "mutation" // generic fallback for writes
	TypeQuery         Type = "query"    // generic fallback for reads
)

// Status is the transaction state machine:
//
//	pending -> processing -> {completed | failed}
//
// with retrying entered from processing on a transient error, looping
// back to processing. Terminal states are completed and a failed that
// has exhausted the retry budget.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusRetrying   Status = "retrying"
)

// Terminal reports whether the status permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Transaction is one tracked attempt to execute a typed unit of
// asynchronous work. It is unrelated to database ACID transactions.
type Transaction struct {
	ID             string    `json:"id"`
	CorrelationID  string    `json:"correlationId"`
	IdempotencyKey string    `json:"idempotencyKey"`
	Type           Type      `json:"type"`
	Status         Status    `json:"status"`
	RetryCount     int       `json:"retryCount"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (t *Transaction) clone() *Transaction {
	out := *t
	return &out
}
