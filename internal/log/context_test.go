package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestContextWithCorrelationID(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		id   string
		want string
	}{
		{
			name: "nil context",
			ctx:  nil,
			id:   "corr-abc123",
			want: "corr-abc123",
		},
		{
			name: "background context",
			ctx:  context.Background(),
			id:   "corr-def456",
			want: "corr-def456",
		},
		{
			name: "empty correlation ID",
			ctx:  context.Background(),
			id:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := ContextWithCorrelationID(tt.ctx, tt.id)
			got := CorrelationIDFromContext(ctx)
			if got != tt.want {
				t.Errorf("CorrelationIDFromContext() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContextWithSessionID(t *testing.T) {
	ctx := ContextWithSessionID(context.Background(), "sess-123")
	if got := SessionIDFromContext(ctx); got != "sess-123" {
		t.Errorf("SessionIDFromContext() = %v, want sess-123", got)
	}
	if got := SessionIDFromContext(context.Background()); got != "" {
		t.Errorf("SessionIDFromContext() on empty context = %v, want empty", got)
	}
}

func TestContextWithTransactionID(t *testing.T) {
	ctx := ContextWithTransactionID(nil, "txn-1") //nolint:staticcheck
	if got := TransactionIDFromContext(ctx); got != "txn-1" {
		t.Errorf("TransactionIDFromContext() = %v, want txn-1", got)
	}
}

func TestWithContextAddsFields(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	ctx := ContextWithCorrelationID(context.Background(), "corr-x")
	ctx = ContextWithSessionID(ctx, "sess-y")

	enriched := WithContext(ctx, logger)
	enriched.Info().Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log entry: %v", err)
	}
	if entry[FieldCorrelationID] != "corr-x" {
		t.Errorf("expected correlation_id corr-x, got %v", entry[FieldCorrelationID])
	}
	if entry[FieldSessionID] != "sess-y" {
		t.Errorf("expected session_id sess-y, got %v", entry[FieldSessionID])
	}
}

func TestWithContextNoFields(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	enriched := WithContext(context.Background(), logger)
	enriched.Info().Msg("plain")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log entry: %v", err)
	}
	if _, ok := entry[FieldCorrelationID]; ok {
		t.Error("expected no correlation_id field on plain context")
	}
}
