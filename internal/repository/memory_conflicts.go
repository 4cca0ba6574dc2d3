package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"lsp-conflicts/internal/domain"
)

// MemoryConflictsRepo is an in-memory ConflictsRepository. Writes come in
// through MemoryContractsRepo to mirror the transactional coupling of the
// Postgres implementation.
type MemoryConflictsRepo struct {
	mu        sync.RWMutex
	conflicts map[string]*domain.Conflict
}

func NewMemoryConflictsRepo() *MemoryConflictsRepo {
	return &MemoryConflictsRepo{conflicts: map[string]*domain.Conflict{}}
}

var _ ConflictsRepository = (*MemoryConflictsRepo)(nil)

func (r *MemoryConflictsRepo) FindOpenConflictsFor(ctx context.Context, contractID string) ([]*domain.Conflict, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	open := []*domain.Conflict{}
	for _, c := range r.conflicts {
		if c.Status != domain.ConflictStatusOpen {
			continue
		}
		if c.ContractAID == contractID || c.ContractBID == contractID {
			cp := *c
			open = append(open, &cp)
		}
	}
	sort.Slice(open, func(i, j int) bool { return open[i].CreatedAt.Before(open[j].CreatedAt) })
	return open, nil
}

// add records a new conflict. Called by MemoryContractsRepo only.
func (r *MemoryConflictsRepo) add(conflict *domain.Conflict) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *conflict
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	r.conflicts[cp.ConflictID] = &cp
}

// resolveAllFor marks every OPEN conflict touching contractID RESOLVED and
// returns the resolved set. Called by MemoryContractsRepo only.
func (r *MemoryConflictsRepo) resolveAllFor(contractID string, at time.Time) []*domain.Conflict {
	r.mu.Lock()
	defer r.mu.Unlock()

	resolved := []*domain.Conflict{}
	for _, c := range r.conflicts {
		if c.Status != domain.ConflictStatusOpen {
			continue
		}
		if c.ContractAID != contractID && c.ContractBID != contractID {
			continue
		}
		c.Status = domain.ConflictStatusResolved
		resolvedAt := at
		c.ResolvedAt = &resolvedAt
		cp := *c
		resolved = append(resolved, &cp)
	}
	sort.Slice(resolved, func(i, j int) bool { return resolved[i].CreatedAt.Before(resolved[j].CreatedAt) })
	return resolved
}
