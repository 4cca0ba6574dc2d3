package repository

import (
	"context"
	"time"

	"lsp-conflicts/internal/domain"
)

// WebhookLogsRepository is the append-only audit trail of webhook
// delivery attempts. Entries are written once and never mutated.
type WebhookLogsRepository interface {
	// RecordAttempt inserts one delivery attempt and returns its id.
	RecordAttempt(ctx context.Context, log *domain.WebhookLog) (string, error)

	// ListForLender returns a page of a lender's delivery attempts created
	// at or after since (zero time = no lower bound), newest first, plus
	// the total count. Supports manual reconciliation and replay.
	ListForLender(ctx context.Context, lenderID string, since time.Time, page, size int) ([]*domain.WebhookLog, int, error)
}
