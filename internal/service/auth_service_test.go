package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"lsp-conflicts/internal/domain"
	"lsp-conflicts/internal/repository"
	"lsp-conflicts/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mapKV is a store.KV over a plain map, TTL ignored.
type mapKV struct {
	mu   sync.Mutex
	data map[string]string
}

func newMapKV() *mapKV { return &mapKV{data: map[string]string{}} }

func (m *mapKV) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", store.ErrMiss
	}
	return v, nil
}

func (m *mapKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mapKV) Del(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func setupAuthTest(t *testing.T, cache store.KV) (*repository.MemoryLendersRepo, *AuthService) {
	t.Helper()
	lenders := repository.NewMemoryLendersRepo()
	svc := NewAuthService(lenders, cache, time.Minute, zap.NewNop())
	return lenders, svc
}

func TestResolveAPIKey_Valid(t *testing.T) {
	lenders, svc := setupAuthTest(t, nil)
	id, err := lenders.CreateLender(context.Background(), &domain.Lender{
		Name:   "Acme Solar",
		APIKey: "lsp_valid_key",
	})
	require.NoError(t, err)

	lender, err := svc.ResolveAPIKey(context.Background(), "lsp_valid_key")
	require.NoError(t, err)
	assert.Equal(t, id, lender.LenderID)
	assert.Equal(t, "Acme Solar", lender.Name)
}

func TestResolveAPIKey_InvalidOrEmpty(t *testing.T) {
	_, svc := setupAuthTest(t, nil)

	_, err := svc.ResolveAPIKey(context.Background(), "lsp_unknown")
	assert.ErrorIs(t, err, ErrInvalidAPIKey)

	_, err = svc.ResolveAPIKey(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidAPIKey)
}

func TestResolveAPIKey_InactiveLenderRejected(t *testing.T) {
	lenders, svc := setupAuthTest(t, nil)
	id, err := lenders.CreateLender(context.Background(), &domain.Lender{
		Name:   "Former Partner",
		APIKey: "lsp_revoked",
	})
	require.NoError(t, err)
	require.NoError(t, lenders.DeactivateLender(context.Background(), id))

	_, err = svc.ResolveAPIKey(context.Background(), "lsp_revoked")
	assert.ErrorIs(t, err, ErrInvalidAPIKey)
}

func TestResolveAPIKey_CachesLender(t *testing.T) {
	cache := newMapKV()
	lenders, svc := setupAuthTest(t, cache)
	id, err := lenders.CreateLender(context.Background(), &domain.Lender{
		Name:   "Cached Corp",
		APIKey: "lsp_cached",
	})
	require.NoError(t, err)

	_, err = svc.ResolveAPIKey(context.Background(), "lsp_cached")
	require.NoError(t, err)
	assert.Len(t, cache.data, 1)

	// Deactivated in the DB but still cached: resolution keeps working
	// until the entry expires or is invalidated.
	require.NoError(t, lenders.DeactivateLender(context.Background(), id))

	lender, err := svc.ResolveAPIKey(context.Background(), "lsp_cached")
	require.NoError(t, err)
	assert.Equal(t, id, lender.LenderID)

	svc.InvalidateAPIKey(context.Background(), "lsp_cached")
	_, err = svc.ResolveAPIKey(context.Background(), "lsp_cached")
	assert.ErrorIs(t, err, ErrInvalidAPIKey)
}

func TestResolveAPIKey_NoRawKeysInCache(t *testing.T) {
	cache := newMapKV()
	lenders, svc := setupAuthTest(t, cache)
	_, err := lenders.CreateLender(context.Background(), &domain.Lender{
		Name:   "Hashed Inc",
		APIKey: "lsp_plaintext_secret",
	})
	require.NoError(t, err)

	_, err = svc.ResolveAPIKey(context.Background(), "lsp_plaintext_secret")
	require.NoError(t, err)

	for key := range cache.data {
		assert.NotContains(t, key, "lsp_plaintext_secret")
	}
}
