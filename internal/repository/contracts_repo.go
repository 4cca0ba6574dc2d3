package repository

import (
	"context"
	"time"

	"lsp-conflicts/internal/domain"
)

// ConflictQuery carries the normalized identity fields of a submission.
// Empty optional fields (APN/Email/Phone) drop the corresponding clause;
// the street+zip clause is always present, even for empty strings.
type ConflictQuery struct {
	LenderID      string // submitting lender, excluded from candidates
	APN           string
	AddressStreet string
	AddressZip    string
	Email         string
	Phone         string
	SignedAfter   time.Time // window lower bound, strictly exclusive
}

// ConflictingContract is a match candidate plus the denormalized lender
// name needed for response summaries and webhook payloads.
type ConflictingContract struct {
	Contract   domain.Contract
	LenderName string
}

// ContractsRepository is the data-access surface for contracts, including
// the two transactional lifecycle writes. Conflict rows are created and
// resolved inside the same transaction as the contract row they reference,
// so partial failure never leaves orphaned conflicts.
type ContractsRepository interface {
	// GetContract fetches a contract by id regardless of owner.
	GetContract(ctx context.Context, contractID string) (*domain.Contract, error)

	// GetContractForLender fetches a contract only when lenderID owns it;
	// a foreign-owned contract is ErrNotFound, same as a missing one.
	GetContractForLender(ctx context.Context, contractID, lenderID string) (*domain.Contract, error)

	// FindConflicting returns ACTIVE contracts from other lenders, signed
	// within the window, sharing at least one identity field with q.
	// Reads committed state only.
	FindConflicting(ctx context.Context, q ConflictQuery) ([]*ConflictingContract, error)

	// CreateWithConflicts persists a new contract and its conflict rows in
	// one transaction. conflicts may be empty.
	CreateWithConflicts(ctx context.Context, contract *domain.Contract, conflicts []*domain.Conflict) error

	// UpdateStatusAndResolveConflicts applies a terminal status to a
	// contract owned by lenderID and resolves every OPEN conflict
	// referencing it, all in one transaction. Returns the updated contract
	// and the resolved conflicts (empty slice when none were open).
	// Fails with ErrNotFound on missing/foreign contracts and
	// ErrInvalidTransition when the contract is no longer ACTIVE.
	UpdateStatusAndResolveConflicts(ctx context.Context, lenderID, contractID string, status domain.ContractStatus, statusDate time.Time) (*domain.Contract, []*domain.Conflict, error)
}
