package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"lsp-conflicts/internal/domain"
	"lsp-conflicts/internal/repository"

	"go.uber.org/zap"
)

// LenderService covers admin lender management: onboarding with a fresh
// API key, listing, and soft deactivation.
type LenderService struct {
	lenders repository.LendersRepository
	auth    *AuthService
	logger  *zap.Logger
}

func NewLenderService(lenders repository.LendersRepository, auth *AuthService, logger *zap.Logger) *LenderService {
	return &LenderService{
		lenders: lenders,
		auth:    auth,
		logger:  logger,
	}
}

// generateAPIKey produces an "lsp_"-prefixed URL-safe credential with 256
// bits of entropy.
func generateAPIKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate API key: %w", err)
	}
	return "lsp_" + base64.RawURLEncoding.EncodeToString(buf), nil
}

// CreateLender registers a lender and returns it including the generated
// API key. This is the only time the key is handed out.
func (s *LenderService) CreateLender(ctx context.Context, name, webhookURL string) (*domain.Lender, error) {
	apiKey, err := generateAPIKey()
	if err != nil {
		return nil, err
	}

	lender := &domain.Lender{
		Name:       name,
		APIKey:     apiKey,
		WebhookURL: webhookURL,
		IsActive:   true,
	}
	lenderID, err := s.lenders.CreateLender(ctx, lender)
	if err != nil {
		return nil, err
	}
	lender.LenderID = lenderID
	lender.CreatedAt = time.Now().UTC()

	s.logger.Info("lender created",
		zap.String("lender_id", lenderID),
		zap.String("name", name),
	)
	return lender, nil
}

func (s *LenderService) GetLender(ctx context.Context, lenderID string) (*domain.Lender, error) {
	return s.lenders.GetLender(ctx, lenderID)
}

func (s *LenderService) ListLenders(ctx context.Context, page, size int) ([]*domain.Lender, int, error) {
	return s.lenders.ListLenders(ctx, page, size)
}

// DeactivateLender revokes API access (soft flag) and evicts the
// credential from the auth cache so revocation takes effect immediately.
func (s *LenderService) DeactivateLender(ctx context.Context, lenderID string) error {
	lender, err := s.lenders.GetLender(ctx, lenderID)
	if err != nil {
		return err
	}
	if err := s.lenders.DeactivateLender(ctx, lenderID); err != nil {
		return err
	}
	if s.auth != nil {
		s.auth.InvalidateAPIKey(ctx, lender.APIKey)
	}

	s.logger.Info("lender deactivated", zap.String("lender_id", lenderID))
	return nil
}
