package domain

import (
	"encoding/json"
	"time"
)

// WebhookEventType enumerates outbound webhook events.
type WebhookEventType string

const (
	// EventNewConflict tells a lender a new submission conflicts with their contract.
	EventNewConflict WebhookEventType = "NEW_CONFLICT"
	// EventConflictResolved tells a lender the conflicting contract was cancelled.
	EventConflictResolved WebhookEventType = "CONFLICT_RESOLVED"
	// EventConflictContractFunded tells a lender the conflicting contract was funded.
	EventConflictContractFunded WebhookEventType = "CONFLICT_CONTRACT_FUNDED"
)

// WebhookLog is one delivery attempt, success or not (maps to
// lsp_webhook_log). Rows are append-only and exist for audit and manual
// replay; they are never mutated after insert.
type WebhookLog struct {
	LogID        string           `db:"log_id"` // UUID, PRIMARY KEY
	LenderID     string           `db:"lender_id"`
	EventType    WebhookEventType `db:"event_type"`
	Payload      json.RawMessage  `db:"payload"`       // exact signed body
	ResponseCode *int             `db:"response_code"` // nil on transport error
	ResponseBody string           `db:"response_body"` // body or error text, capped at 1000 chars
	Attempt      int              `db:"attempt"`
	CreatedAt    time.Time        `db:"created_at"`
}
