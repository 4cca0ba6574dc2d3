package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"lsp-conflicts/internal/domain"
	"lsp-conflicts/internal/repository"
	"lsp-conflicts/internal/store"

	"go.uber.org/zap"
)

// ErrInvalidAPIKey is returned for unknown and inactive credentials alike.
var ErrInvalidAPIKey = errors.New("invalid or inactive API key")

// AuthService resolves API keys to active lenders, with an optional KV
// cache in front of the database. The cache key is the SHA-256 of the
// credential so raw API keys never appear in Redis.
type AuthService struct {
	lenders repository.LendersRepository
	cache   store.KV // nil disables caching
	ttl     time.Duration
	logger  *zap.Logger
}

func NewAuthService(lenders repository.LendersRepository, cache store.KV, ttl time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		lenders: lenders,
		cache:   cache,
		ttl:     ttl,
		logger:  logger,
	}
}

func authCacheKey(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return "lsp:auth:" + hex.EncodeToString(sum[:])
}

// ResolveAPIKey maps a credential to its active lender or fails with
// ErrInvalidAPIKey. Cache problems degrade to DB lookups, never to
// auth failures.
func (s *AuthService) ResolveAPIKey(ctx context.Context, apiKey string) (*domain.Lender, error) {
	if apiKey == "" {
		return nil, ErrInvalidAPIKey
	}

	key := authCacheKey(apiKey)
	if s.cache != nil && s.ttl > 0 {
		raw, err := s.cache.Get(ctx, key)
		if err == nil {
			var lender domain.Lender
			if jsonErr := json.Unmarshal([]byte(raw), &lender); jsonErr == nil {
				return &lender, nil
			}
		} else if !errors.Is(err, store.ErrMiss) {
			s.logger.Warn("credential cache read failed", zap.Error(err))
		}
	}

	lender, err := s.lenders.GetLenderByAPIKey(ctx, apiKey)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidAPIKey
		}
		return nil, err
	}

	if s.cache != nil && s.ttl > 0 {
		if raw, jsonErr := json.Marshal(lender); jsonErr == nil {
			if err := s.cache.Set(ctx, key, string(raw), s.ttl); err != nil {
				s.logger.Warn("credential cache write failed", zap.Error(err))
			}
		}
	}

	return lender, nil
}

// InvalidateAPIKey drops a credential from the cache. Called on lender
// deactivation so the revoked key stops resolving within the TTL.
func (s *AuthService) InvalidateAPIKey(ctx context.Context, apiKey string) {
	if s.cache == nil || apiKey == "" {
		return
	}
	if err := s.cache.Del(ctx, authCacheKey(apiKey)); err != nil {
		s.logger.Warn("credential cache invalidation failed", zap.Error(err))
	}
}
