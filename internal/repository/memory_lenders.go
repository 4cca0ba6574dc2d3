package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"lsp-conflicts/internal/domain"

	"github.com/google/uuid"
)

// MemoryLendersRepo is an in-memory LendersRepository for DB-less
// development and service tests.
type MemoryLendersRepo struct {
	mu      sync.RWMutex
	lenders map[string]*domain.Lender
}

func NewMemoryLendersRepo() *MemoryLendersRepo {
	return &MemoryLendersRepo{lenders: map[string]*domain.Lender{}}
}

var _ LendersRepository = (*MemoryLendersRepo)(nil)

func (r *MemoryLendersRepo) GetLender(ctx context.Context, lenderID string) (*domain.Lender, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.lenders[lenderID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *MemoryLendersRepo) GetLenderByAPIKey(ctx context.Context, apiKey string) (*domain.Lender, error) {
	if apiKey == "" {
		return nil, ErrNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, l := range r.lenders {
		if l.APIKey == apiKey && l.IsActive {
			cp := *l
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryLendersRepo) ListLenders(ctx context.Context, page, size int) ([]*domain.Lender, int, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 50
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*domain.Lender, 0, len(r.lenders))
	for _, l := range r.lenders {
		cp := *l
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })

	total := len(all)
	start := (page - 1) * size
	if start >= total {
		return []*domain.Lender{}, total, nil
	}
	end := start + size
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (r *MemoryLendersRepo) CreateLender(ctx context.Context, lender *domain.Lender) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *lender
	if cp.LenderID == "" {
		cp.LenderID = uuid.NewString()
	}
	now := time.Now().UTC()
	cp.CreatedAt = now
	cp.UpdatedAt = now
	cp.IsActive = true
	r.lenders[cp.LenderID] = &cp
	return cp.LenderID, nil
}

func (r *MemoryLendersRepo) DeactivateLender(ctx context.Context, lenderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.lenders[lenderID]
	if !ok {
		return ErrNotFound
	}
	l.IsActive = false
	l.UpdatedAt = time.Now().UTC()
	return nil
}
