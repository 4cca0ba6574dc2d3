package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"lsp-conflicts/internal/domain"
	"lsp-conflicts/internal/repository"
	"lsp-conflicts/internal/service"

	"go.uber.org/zap"
)

// AdminHandler serves lender management and the webhook audit trail.
// These endpoints sit behind the operator's network boundary, not behind
// lender API keys.
type AdminHandler struct {
	lenders *service.LenderService
	logs    repository.WebhookLogsRepository
	logger  *zap.Logger
}

func NewAdminHandler(lenders *service.LenderService, logs repository.WebhookLogsRepository, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{lenders: lenders, logs: logs, logger: logger}
}

type createLenderBody struct {
	Name       string `json:"name"`
	WebhookURL string `json:"webhook_url"`
}

type lenderResponse struct {
	LenderID   string    `json:"lender_id"`
	Name       string    `json:"name"`
	APIKey     string    `json:"api_key"`
	WebhookURL string    `json:"webhook_url,omitempty"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

func toLenderResponse(l *domain.Lender) lenderResponse {
	return lenderResponse{
		LenderID:   l.LenderID,
		Name:       l.Name,
		APIKey:     l.APIKey,
		WebhookURL: l.WebhookURL,
		IsActive:   l.IsActive,
		CreatedAt:  l.CreatedAt,
	}
}

// CreateLender handles POST /admin/api/v1/lenders.
func (h *AdminHandler) CreateLender(w http.ResponseWriter, r *http.Request) {
	var body createLenderBody
	if err := readBodyJSON(r, 1<<20, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	lender, err := h.lenders.CreateLender(r.Context(), body.Name, body.WebhookURL)
	if err != nil {
		h.logger.Error("lender creation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, toLenderResponse(lender))
}

// ListLenders handles GET /admin/api/v1/lenders.
func (h *AdminHandler) ListLenders(w http.ResponseWriter, r *http.Request) {
	page := parseIntQuery(r.URL.Query().Get("page"), 1)
	size := parseIntQuery(r.URL.Query().Get("size"), 50)

	lenders, total, err := h.lenders.ListLenders(r.Context(), page, size)
	if err != nil {
		h.logger.Error("lender listing failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]lenderResponse, 0, len(lenders))
	for _, l := range lenders {
		out = append(out, toLenderResponse(l))
	}
	writeJSON(w, http.StatusOK, map[string]any{"lenders": out, "total": total})
}

// GetLender handles GET /admin/api/v1/lenders/{id}.
func (h *AdminHandler) GetLender(w http.ResponseWriter, r *http.Request, lenderID string) {
	lender, err := h.lenders.GetLender(r.Context(), lenderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "lender not found")
			return
		}
		h.logger.Error("lender lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, toLenderResponse(lender))
}

// DeactivateLender handles PATCH /admin/api/v1/lenders/{id}/deactivate.
func (h *AdminHandler) DeactivateLender(w http.ResponseWriter, r *http.Request, lenderID string) {
	if err := h.lenders.DeactivateLender(r.Context(), lenderID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "lender not found")
			return
		}
		h.logger.Error("lender deactivation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "lender deactivated"})
}

type webhookLogResponse struct {
	LogID        string          `json:"log_id"`
	EventType    string          `json:"event_type"`
	Payload      json.RawMessage `json:"payload"`
	ResponseCode *int            `json:"response_code"`
	ResponseBody string          `json:"response_body,omitempty"`
	Attempt      int             `json:"attempt"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ListWebhookLogs handles GET /admin/api/v1/lenders/{id}/webhook-logs.
// Optional ?since=RFC3339 bounds the window for manual reconciliation.
func (h *AdminHandler) ListWebhookLogs(w http.ResponseWriter, r *http.Request, lenderID string) {
	var since time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be RFC3339")
			return
		}
		since = t
	}
	page := parseIntQuery(r.URL.Query().Get("page"), 1)
	size := parseIntQuery(r.URL.Query().Get("size"), 50)

	logs, total, err := h.logs.ListForLender(r.Context(), lenderID, since, page, size)
	if err != nil {
		h.logger.Error("webhook log listing failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]webhookLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, webhookLogResponse{
			LogID:        l.LogID,
			EventType:    string(l.EventType),
			Payload:      l.Payload,
			ResponseCode: l.ResponseCode,
			ResponseBody: l.ResponseBody,
			Attempt:      l.Attempt,
			CreatedAt:    l.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": out, "total": total})
}
