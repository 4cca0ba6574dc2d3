package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"lsp-conflicts/internal/domain"
	"lsp-conflicts/internal/repository"
	"lsp-conflicts/internal/service"

	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// ContractHandler serves the lender-facing contract endpoints.
type ContractHandler struct {
	contracts *service.ContractService
	logger    *zap.Logger
}

func NewContractHandler(contracts *service.ContractService, logger *zap.Logger) *ContractHandler {
	return &ContractHandler{contracts: contracts, logger: logger}
}

type submitContractBody struct {
	ExternalID    string `json:"external_id"`
	AddressStreet string `json:"address_street"`
	AddressCity   string `json:"address_city"`
	AddressState  string `json:"address_state"`
	AddressZip    string `json:"address_zip"`
	APN           string `json:"apn"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	SignedDate    string `json:"signed_date"`
}

// Submit handles POST /lsp/api/v1/contracts.
func (h *ContractHandler) Submit(w http.ResponseWriter, r *http.Request, lender *domain.Lender) {
	var body submitContractBody
	if err := readBodyJSON(r, 1<<20, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	switch {
	case body.ExternalID == "":
		writeError(w, http.StatusBadRequest, "external_id is required")
		return
	case body.AddressStreet == "":
		writeError(w, http.StatusBadRequest, "address_street is required")
		return
	case body.AddressCity == "":
		writeError(w, http.StatusBadRequest, "address_city is required")
		return
	case len(strings.TrimSpace(body.AddressState)) != 2:
		writeError(w, http.StatusBadRequest, "address_state must be a 2-letter code")
		return
	case body.AddressZip == "":
		writeError(w, http.StatusBadRequest, "address_zip is required")
		return
	}

	signedDate, err := time.Parse(dateLayout, body.SignedDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "signed_date must be YYYY-MM-DD")
		return
	}

	result, err := h.contracts.SubmitContract(r.Context(), lender, service.SubmitContractRequest{
		ExternalID:    body.ExternalID,
		AddressStreet: body.AddressStreet,
		AddressCity:   body.AddressCity,
		AddressState:  body.AddressState,
		AddressZip:    body.AddressZip,
		APN:           body.APN,
		Email:         body.Email,
		Phone:         body.Phone,
		SignedDate:    signedDate,
	})
	if err != nil {
		h.logger.Error("contract submission failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

type updateContractBody struct {
	Status        string `json:"status"`
	FundedDate    string `json:"funded_date"`
	CancelledDate string `json:"cancelled_date"`
}

// Update handles PUT /lsp/api/v1/contracts/{id}.
func (h *ContractHandler) Update(w http.ResponseWriter, r *http.Request, lender *domain.Lender, contractID string) {
	var body updateContractBody
	if err := readBodyJSON(r, 1<<20, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	status := domain.ContractStatus(body.Status)
	if !status.Terminal() {
		writeError(w, http.StatusBadRequest, "status must be FUNDED or CANCELLED")
		return
	}

	var statusDate *time.Time
	rawDate := body.FundedDate
	if status == domain.ContractStatusCancelled {
		rawDate = body.CancelledDate
	}
	if rawDate != "" {
		d, err := time.Parse(dateLayout, rawDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "status date must be YYYY-MM-DD")
			return
		}
		statusDate = &d
	}

	result, err := h.contracts.UpdateContract(r.Context(), lender, contractID, service.UpdateContractRequest{
		Status:     status,
		StatusDate: statusDate,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "contract not found")
		case errors.Is(err, repository.ErrInvalidTransition):
			writeError(w, http.StatusConflict, "contract is no longer ACTIVE")
		default:
			h.logger.Error("contract update failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type conflictResponse struct {
	ConflictID   string               `json:"conflict_id"`
	ContractAID  string               `json:"contract_a_id"`
	ContractBID  string               `json:"contract_b_id"`
	MatchReasons []domain.MatchReason `json:"match_reasons"`
	Status       string               `json:"status"`
	CreatedAt    time.Time            `json:"created_at"`
}

// ListConflicts handles GET /lsp/api/v1/contracts/{id}/conflicts.
func (h *ContractHandler) ListConflicts(w http.ResponseWriter, r *http.Request, lender *domain.Lender, contractID string) {
	conflicts, err := h.contracts.ListOpenConflicts(r.Context(), lender, contractID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "contract not found")
			return
		}
		h.logger.Error("conflict listing failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]conflictResponse, 0, len(conflicts))
	for _, c := range conflicts {
		out = append(out, conflictResponse{
			ConflictID:   c.ConflictID,
			ContractAID:  c.ContractAID,
			ContractBID:  c.ContractBID,
			MatchReasons: c.MatchReasons,
			Status:       string(c.Status),
			CreatedAt:    c.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"conflicts": out})
}
