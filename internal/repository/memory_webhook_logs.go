package repository

import (
	"context"
	"sync"
	"time"

	"lsp-conflicts/internal/domain"

	"github.com/google/uuid"
)

// MemoryWebhookLogsRepo is an in-memory WebhookLogsRepository.
type MemoryWebhookLogsRepo struct {
	mu   sync.RWMutex
	logs []*domain.WebhookLog
}

func NewMemoryWebhookLogsRepo() *MemoryWebhookLogsRepo {
	return &MemoryWebhookLogsRepo{}
}

var _ WebhookLogsRepository = (*MemoryWebhookLogsRepo)(nil)

func (r *MemoryWebhookLogsRepo) RecordAttempt(ctx context.Context, log *domain.WebhookLog) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *log
	if cp.LogID == "" {
		cp.LogID = uuid.NewString()
	}
	if cp.Attempt <= 0 {
		cp.Attempt = 1
	}
	cp.CreatedAt = time.Now().UTC()
	r.logs = append(r.logs, &cp)
	return cp.LogID, nil
}

func (r *MemoryWebhookLogsRepo) ListForLender(ctx context.Context, lenderID string, since time.Time, page, size int) ([]*domain.WebhookLog, int, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 50
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := []*domain.WebhookLog{}
	// Newest first, matching the Postgres implementation.
	for i := len(r.logs) - 1; i >= 0; i-- {
		l := r.logs[i]
		if l.LenderID != lenderID {
			continue
		}
		if !since.IsZero() && l.CreatedAt.Before(since) {
			continue
		}
		cp := *l
		matched = append(matched, &cp)
	}

	total := len(matched)
	start := (page - 1) * size
	if start >= total {
		return []*domain.WebhookLog{}, total, nil
	}
	end := start + size
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}
