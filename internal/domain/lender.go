package domain

import "time"

// LenderStatusActive / LenderStatusInactive are the two states of the
// is_active soft flag. Lenders are never deleted, only deactivated.
const (
	LenderStatusActive   = true
	LenderStatusInactive = false
)

// Lender is a finance provider submitting contracts (maps to lsp_lenders).
// APIKey doubles as the HMAC-SHA256 signing secret for outbound webhooks.
type Lender struct {
	LenderID   string    `db:"lender_id"`   // UUID, PRIMARY KEY
	Name       string    `db:"name"`        // VARCHAR(255), NOT NULL
	APIKey     string    `db:"api_key"`     // VARCHAR(255), UNIQUE, NOT NULL
	WebhookURL string    `db:"webhook_url"` // VARCHAR(500), nullable ("" = not configured)
	IsActive   bool      `db:"is_active"`   // BOOLEAN, DEFAULT TRUE
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// CanReceiveWebhooks reports whether the lender has a usable endpoint.
func (l *Lender) CanReceiveWebhooks() bool {
	return l.IsActive && l.WebhookURL != ""
}
