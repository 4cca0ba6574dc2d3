package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"lsp-conflicts/internal/domain"
)

// MemoryContractsRepo is an in-memory ContractsRepository. It shares the
// lenders repo (for denormalized lender names) and the conflicts repo (so
// the lifecycle writes stay coupled the way the Postgres transactions
// couple them).
type MemoryContractsRepo struct {
	mu        sync.RWMutex
	contracts map[string]*domain.Contract
	lenders   *MemoryLendersRepo
	conflicts *MemoryConflictsRepo
}

func NewMemoryContractsRepo(lenders *MemoryLendersRepo, conflicts *MemoryConflictsRepo) *MemoryContractsRepo {
	return &MemoryContractsRepo{
		contracts: map[string]*domain.Contract{},
		lenders:   lenders,
		conflicts: conflicts,
	}
}

var _ ContractsRepository = (*MemoryContractsRepo)(nil)

func (r *MemoryContractsRepo) GetContract(ctx context.Context, contractID string) (*domain.Contract, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.contracts[contractID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *MemoryContractsRepo) GetContractForLender(ctx context.Context, contractID, lenderID string) (*domain.Contract, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.contracts[contractID]
	if !ok || c.LenderID != lenderID {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *MemoryContractsRepo) FindConflicting(ctx context.Context, q ConflictQuery) ([]*ConflictingContract, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matches := []*ConflictingContract{}
	for _, c := range r.contracts {
		if c.Status != domain.ContractStatusActive {
			continue
		}
		if c.LenderID == q.LenderID {
			continue
		}
		if !c.SignedDate.After(q.SignedAfter) {
			continue
		}
		// Same predicate as the SQL implementation, including the
		// unguarded street+zip clause.
		hit := c.AddressStreet == q.AddressStreet && c.AddressZip == q.AddressZip
		if !hit && q.APN != "" && c.APN == q.APN {
			hit = true
		}
		if !hit && q.Email != "" && c.Email == q.Email {
			hit = true
		}
		if !hit && q.Phone != "" && c.Phone == q.Phone {
			hit = true
		}
		if !hit {
			continue
		}

		m := &ConflictingContract{Contract: *c}
		if lender, err := r.lenders.GetLender(ctx, c.LenderID); err == nil {
			m.LenderName = lender.Name
		}
		matches = append(matches, m)
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Contract.SignedDate.Before(matches[j].Contract.SignedDate)
	})
	return matches, nil
}

func (r *MemoryContractsRepo) CreateWithConflicts(ctx context.Context, contract *domain.Contract, conflicts []*domain.Conflict) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *contract
	now := time.Now().UTC()
	cp.CreatedAt = now
	cp.UpdatedAt = now
	r.contracts[cp.ContractID] = &cp

	for _, conflict := range conflicts {
		r.conflicts.add(conflict)
	}
	return nil
}

func (r *MemoryContractsRepo) UpdateStatusAndResolveConflicts(ctx context.Context, lenderID, contractID string, status domain.ContractStatus, statusDate time.Time) (*domain.Contract, []*domain.Conflict, error) {
	if !status.Terminal() {
		return nil, nil, ErrInvalidTransition
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.contracts[contractID]
	if !ok || c.LenderID != lenderID {
		return nil, nil, ErrNotFound
	}
	if !c.Status.CanTransitionTo(status) {
		return nil, nil, ErrInvalidTransition
	}

	c.Status = status
	date := statusDate
	if status == domain.ContractStatusFunded {
		c.FundedDate = &date
	} else {
		c.CancelledDate = &date
	}
	c.UpdatedAt = time.Now().UTC()

	resolved := r.conflicts.resolveAllFor(contractID, time.Now().UTC())

	cp := *c
	return &cp, resolved, nil
}
