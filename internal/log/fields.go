package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldCorrelationID  = "correlation_id"
	FieldSessionID      = "session_id"
	FieldParentID       = "parent_correlation_id"
	FieldTransactionID  = "transaction_id"
	FieldIdempotencyKey = "idempotency_key"
	FieldUserID         = "user_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldOperation = "operation"
	FieldAttempt   = "attempt"

	// State fields
	FieldOldStatus = "old_status"
	FieldNewStatus = "new_status"
	FieldTxnType   = "txn_type"

	// Storage fields
	FieldStoreKey     = "store_key"
	FieldStoreBackend = "store_backend"
)
