// Copyright (c) 2025 PawHaven
// SPDX-License-Identifier: MIT

package txn

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pawhaven/pawcore/internal/log"
	"github.com/pawhaven/pawcore/internal/metrics"
	"github.com/pawhaven/pawcore/internal/store"
	"github.com/rs/zerolog"
)

// KeyPrefix namespaces transaction records in the shared key-value
// surface.
const KeyPrefix = "pawcore_transaction_"

// recordVersion tags the persisted schema so future readers can migrate.
const recordVersion = 1

// persistedRecord is the explicit allow-list of fields ever written to
// durable storage. Operation params never appear here: whatever payload
// a caller passed stays in memory.
type persistedRecord struct {
	ID             string `json:"id"`
	CorrelationID  string `json:"correlationId"`
	IdempotencyKey string `json:"idempotencyKey"`
	Type           Type   `json:"type"`
	Status         Status `json:"status"`
	RetryCount     int    `json:"retryCount"`
	CreatedAtMs    int64  `json:"createdAtMs"`
	UpdatedAtMs    int64  `json:"updatedAtMs"`
	PersistedAt    int64  `json:"_persistedAt"`
	Version        int    `json:"_version"`
}

func newPersistedRecord(t *Transaction, now time.Time) persistedRecord {
	return persistedRecord{
		ID:             t.ID,
		CorrelationID:  t.CorrelationID,
		IdempotencyKey: t.IdempotencyKey,
		Type:           t.Type,
		Status:         t.Status,
		RetryCount:     t.RetryCount,
		CreatedAtMs:    t.CreatedAt.UnixMilli(),
		UpdatedAtMs:    t.UpdatedAt.UnixMilli(),
		PersistedAt:    now.UnixMilli(),
		Version:        recordVersion,
	}
}

// RecordKey returns the storage key for a transaction id.
func RecordKey(id string) string {
	return KeyPrefix + id
}

// persister writes transaction records to the KV surface off the
// caller's execution path. Writes are best-effort: a full queue drops
// the record, a failing backend logs a warning, and neither ever fails
// the transaction itself.
type persister struct {
	kv     store.KV
	queue  chan persistedRecord
	done   chan struct{}
	logger zerolog.Logger
}

func newPersister(kv store.KV, queueLen int, logger zerolog.Logger) *persister {
	if queueLen <= 0 {
		queueLen = 64
	}
	p := &persister{
		kv:     kv,
		queue:  make(chan persistedRecord, queueLen),
		done:   make(chan struct{}),
		logger: logger,
	}
	go p.run()
	return p
}

// enqueue schedules a record write without blocking the caller.
func (p *persister) enqueue(rec persistedRecord) {
	select {
	case p.queue <- rec:
	default:
		metrics.IncPersistWrite("dropped")
		p.logger.Warn().
			Str(log.FieldTransactionID, rec.ID).
			Msg("persistence queue full, dropping record")
	}
}

func (p *persister) run() {
	defer close(p.done)
	for rec := range p.queue {
		p.write(rec)
	}
}

func (p *persister) write(rec persistedRecord) {
	buf, err := json.Marshal(rec)
	if err != nil {
		metrics.IncPersistWrite("failure")
		p.logger.Warn().
			Err(err).
			Str(log.FieldTransactionID, rec.ID).
			Msg("transaction record marshal failed")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := p.kv.Set(ctx, RecordKey(rec.ID), buf, 0); err != nil {
		metrics.IncPersistWrite("failure")
		p.logger.Warn().
			Err(err).
			Str(log.FieldTransactionID, rec.ID).
			Str(log.FieldStoreKey, RecordKey(rec.ID)).
			Msg("transaction record write failed")
		return
	}
	metrics.IncPersistWrite("success")
}

// close drains the queue and stops the worker.
func (p *persister) close() {
	close(p.queue)
	<-p.done
}
