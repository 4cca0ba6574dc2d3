package repository

import (
	"context"

	"lsp-conflicts/internal/domain"
)

// ConflictsRepository is the read surface over the conflict ledger.
// Writes happen inside the contract lifecycle transactions (see
// ContractsRepository), never here.
type ConflictsRepository interface {
	// FindOpenConflictsFor returns every OPEN conflict where either side
	// equals contractID. Empty slice when none exist.
	FindOpenConflictsFor(ctx context.Context, contractID string) ([]*domain.Conflict, error)
}
