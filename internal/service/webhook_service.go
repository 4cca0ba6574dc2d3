package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lsp-conflicts/internal/domain"
	"lsp-conflicts/internal/repository"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// SignatureHeader carries the hex HMAC-SHA256 of the request body, keyed
// by the recipient lender's API key.
const SignatureHeader = "X-LSP-Signature"

// maxLoggedBody caps response bodies and transport error text in the
// audit log.
const maxLoggedBody = 1000

// webhookEnvelope is the wire format of every outbound event.
type webhookEnvelope struct {
	Event     string         `json:"event"`
	Timestamp string         `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

// WebhookService delivers signed event notifications to lender endpoints.
// One attempt per event: failures are logged to the audit trail for manual
// replay, never retried automatically.
type WebhookService struct {
	lenders repository.LendersRepository
	logs    repository.WebhookLogsRepository
	client  *resty.Client
	logger  *zap.Logger
}

func NewWebhookService(lenders repository.LendersRepository, logs repository.WebhookLogsRepository, timeout time.Duration, logger *zap.Logger) *WebhookService {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	return &WebhookService{
		lenders: lenders,
		logs:    logs,
		client:  client,
		logger:  logger,
	}
}

// Deliver sends one event to one lender. Returns true only on a 2xx
// response. A missing or unconfigured endpoint is a skip, not an error;
// transport failures and non-2xx responses are logged and reported as not
// delivered. The error return covers only failures to build or address
// the payload.
func (s *WebhookService) Deliver(ctx context.Context, lenderID string, event domain.WebhookEventType, data map[string]any) (bool, error) {
	lender, err := s.lenders.GetLender(ctx, lenderID)
	if err != nil {
		return false, fmt.Errorf("failed to load webhook target: %w", err)
	}
	if !lender.CanReceiveWebhooks() {
		s.logger.Info("webhook skipped: no active endpoint",
			zap.String("lender_id", lenderID),
			zap.String("event", string(event)),
		)
		return false, nil
	}

	payload, err := json.Marshal(webhookEnvelope{
		Event:     string(event),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      data,
	})
	if err != nil {
		return false, fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	signature := SignWebhookPayload(lender.APIKey, payload)

	logEntry := &domain.WebhookLog{
		LenderID:  lenderID,
		EventType: event,
		Payload:   payload,
		Attempt:   1,
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader(SignatureHeader, signature).
		SetBody(payload).
		Post(lender.WebhookURL)
	if err != nil {
		logEntry.ResponseBody = truncate(err.Error(), maxLoggedBody)
		s.logger.Error("webhook delivery failed",
			zap.String("lender_id", lenderID),
			zap.String("event", string(event)),
			zap.Error(err),
		)
	} else {
		code := resp.StatusCode()
		logEntry.ResponseCode = &code
		logEntry.ResponseBody = truncate(resp.String(), maxLoggedBody)
		s.logger.Info("webhook delivered",
			zap.String("lender_id", lenderID),
			zap.String("event", string(event)),
			zap.Int("status", code),
		)
	}

	if _, logErr := s.logs.RecordAttempt(ctx, logEntry); logErr != nil {
		s.logger.Error("failed to record webhook attempt",
			zap.String("lender_id", lenderID),
			zap.Error(logErr),
		)
	}

	delivered := logEntry.ResponseCode != nil && *logEntry.ResponseCode >= 200 && *logEntry.ResponseCode < 300
	return delivered, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
