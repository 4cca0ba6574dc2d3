package repository

import (
	"context"

	"lsp-conflicts/internal/domain"
)

// LendersRepository is the data-access surface for lenders.
type LendersRepository interface {
	// GetLender fetches a lender by id, active or not. The notifier needs
	// inactive lenders too, so it can record a skip instead of erroring.
	GetLender(ctx context.Context, lenderID string) (*domain.Lender, error)

	// GetLenderByAPIKey resolves a credential to an ACTIVE lender.
	// Inactive lenders are indistinguishable from unknown keys (ErrNotFound).
	GetLenderByAPIKey(ctx context.Context, apiKey string) (*domain.Lender, error)

	// ListLenders returns a page of lenders plus the total count.
	ListLenders(ctx context.Context, page, size int) ([]*domain.Lender, int, error)

	// CreateLender inserts a new lender and returns its id.
	CreateLender(ctx context.Context, lender *domain.Lender) (string, error)

	// DeactivateLender soft-disables a lender. Rows are never deleted.
	DeactivateLender(ctx context.Context, lenderID string) error
}
