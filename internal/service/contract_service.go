package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lsp-conflicts/internal/domain"
	"lsp-conflicts/internal/normalize"
	"lsp-conflicts/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// conflictWindowDays is the trailing match window: only contracts signed
// strictly after today minus this many days can conflict.
const conflictWindowDays = 90

// Submission verdicts.
const (
	VerdictNoHit            = "NO_HIT"
	VerdictExistingContract = "EXISTING_CONTRACT"
)

const dateLayout = "2006-01-02"

// SubmitContractRequest is a validated, raw (not yet normalized)
// submission from a lender.
type SubmitContractRequest struct {
	ExternalID    string
	AddressStreet string
	AddressCity   string
	AddressState  string
	AddressZip    string
	APN           string
	Email         string
	Phone         string
	SignedDate    time.Time
}

// ConflictInfo summarizes one conflicting contract for the submitter.
// It names the other lender but never exposes the other side's external id.
type ConflictInfo struct {
	Lender          string               `json:"lender"`
	SignedDate      string               `json:"signed_date"`
	MatchReasons    []domain.MatchReason `json:"match_reasons"`
	DaysSinceSigned int                  `json:"days_since_signed"`
}

// SubmitContractResult is the submission verdict.
type SubmitContractResult struct {
	Status     string         `json:"status"`
	ContractID string         `json:"contract_id"`
	Conflicts  []ConflictInfo `json:"conflicts,omitempty"`
}

// UpdateContractRequest asks for a terminal status transition.
type UpdateContractRequest struct {
	Status     domain.ContractStatus
	StatusDate *time.Time // funded/cancelled date; nil defaults to today
}

// UpdateContractResult reports the applied transition.
type UpdateContractResult struct {
	ContractID        string                `json:"contract_id"`
	Status            domain.ContractStatus `json:"status"`
	ConflictsResolved int                   `json:"conflicts_resolved"`
}

// ContractService orchestrates the two contract workflows: submission
// (normalize, match, persist, record conflicts, notify) and status update
// (validate ownership, transition, resolve conflicts, notify).
type ContractService struct {
	contracts repository.ContractsRepository
	conflicts repository.ConflictsRepository
	webhooks  *WebhookService
	logger    *zap.Logger
}

func NewContractService(contracts repository.ContractsRepository, conflicts repository.ConflictsRepository, webhooks *WebhookService, logger *zap.Logger) *ContractService {
	return &ContractService{
		contracts: contracts,
		conflicts: conflicts,
		webhooks:  webhooks,
		logger:    logger,
	}
}

// normalizedSubmission holds the canonical identity fields of a submission.
type normalizedSubmission struct {
	street string
	city   string
	state  string
	zip    string
	apn    string
	email  string
	phone  string
}

func normalizeSubmission(req SubmitContractRequest) normalizedSubmission {
	return normalizedSubmission{
		street: normalize.Address(req.AddressStreet),
		city:   strings.ToUpper(req.AddressCity),
		state:  normalize.State(req.AddressState),
		zip:    normalize.Zip(req.AddressZip),
		apn:    strings.ToUpper(req.APN),
		email:  normalize.Email(req.Email),
		phone:  normalize.Phone(req.Phone),
	}
}

// matchReasons recomputes which identity fields link a candidate to the
// submission. Pure and side-effect free; order is fixed: apn, address,
// email, phone.
func matchReasons(candidate *domain.Contract, norm normalizedSubmission) []domain.MatchReason {
	reasons := []domain.MatchReason{}
	if candidate.APN != "" && norm.apn != "" && candidate.APN == norm.apn {
		reasons = append(reasons, domain.MatchReasonAPN)
	}
	if candidate.AddressStreet == norm.street && candidate.AddressZip == norm.zip {
		reasons = append(reasons, domain.MatchReasonAddress)
	}
	if candidate.Email != "" && norm.email != "" && candidate.Email == norm.email {
		reasons = append(reasons, domain.MatchReasonEmail)
	}
	if candidate.Phone != "" && norm.phone != "" && candidate.Phone == norm.phone {
		reasons = append(reasons, domain.MatchReasonPhone)
	}
	return reasons
}

func todayUTC() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// SubmitContract runs the submission workflow. The contract is always
// persisted, conflicts or not; conflicts never block submission. Webhook
// notifications to the other lenders go out after the transaction commits
// and their failures are invisible to the submitter.
func (s *ContractService) SubmitContract(ctx context.Context, lender *domain.Lender, req SubmitContractRequest) (*SubmitContractResult, error) {
	norm := normalizeSubmission(req)
	today := todayUTC()

	matches, err := s.contracts.FindConflicting(ctx, repository.ConflictQuery{
		LenderID:      lender.LenderID,
		APN:           norm.apn,
		AddressStreet: norm.street,
		AddressZip:    norm.zip,
		Email:         norm.email,
		Phone:         norm.phone,
		SignedAfter:   today.AddDate(0, 0, -conflictWindowDays),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to match contract: %w", err)
	}

	contract := &domain.Contract{
		ContractID:    uuid.NewString(),
		LenderID:      lender.LenderID,
		ExternalID:    req.ExternalID,
		AddressStreet: norm.street,
		AddressCity:   norm.city,
		AddressState:  norm.state,
		AddressZip:    norm.zip,
		APN:           norm.apn,
		Email:         norm.email,
		Phone:         norm.phone,
		SignedDate:    req.SignedDate,
		Status:        domain.ContractStatusActive,
	}

	// One OPEN conflict row per match, existing contract on the A side.
	conflictRows := make([]*domain.Conflict, 0, len(matches))
	infos := make([]ConflictInfo, 0, len(matches))
	for _, m := range matches {
		reasons := matchReasons(&m.Contract, norm)
		conflictRows = append(conflictRows, &domain.Conflict{
			ConflictID:   uuid.NewString(),
			ContractAID:  m.Contract.ContractID,
			ContractBID:  contract.ContractID,
			MatchReasons: reasons,
			Status:       domain.ConflictStatusOpen,
		})
		infos = append(infos, ConflictInfo{
			Lender:          m.LenderName,
			SignedDate:      m.Contract.SignedDate.Format(dateLayout),
			MatchReasons:    reasons,
			DaysSinceSigned: int(today.Sub(m.Contract.SignedDate).Hours() / 24),
		})
	}

	if err := s.contracts.CreateWithConflicts(ctx, contract, conflictRows); err != nil {
		return nil, fmt.Errorf("failed to persist contract: %w", err)
	}

	s.logger.Info("contract created",
		zap.String("contract_id", contract.ContractID),
		zap.String("lender_id", lender.LenderID),
		zap.Int("conflicts", len(conflictRows)),
	)

	// Notify the existing contracts' lenders. Each payload carries the
	// recipient's own external id, never the submitter's.
	for i, m := range matches {
		_, err := s.webhooks.Deliver(ctx, m.Contract.LenderID, domain.EventNewConflict, map[string]any{
			"their_contract_id":  m.Contract.ExternalID,
			"conflicting_lender": lender.Name,
			"match_reasons":      conflictRows[i].MatchReasons,
			"signed_date":        contract.SignedDate.Format(dateLayout),
		})
		if err != nil {
			s.logger.Error("conflict notification failed",
				zap.String("lender_id", m.Contract.LenderID),
				zap.Error(err),
			)
		}
	}

	result := &SubmitContractResult{
		Status:     VerdictNoHit,
		ContractID: contract.ContractID,
	}
	if len(infos) > 0 {
		result.Status = VerdictExistingContract
		result.Conflicts = infos
	}
	return result, nil
}

// UpdateContract runs the status-update workflow: ownership-checked
// terminal transition, bulk conflict resolution in the same transaction,
// then one webhook per resolved conflict to the other side's lender.
func (s *ContractService) UpdateContract(ctx context.Context, lender *domain.Lender, contractID string, req UpdateContractRequest) (*UpdateContractResult, error) {
	statusDate := todayUTC()
	if req.StatusDate != nil {
		statusDate = *req.StatusDate
	}

	updated, resolved, err := s.contracts.UpdateStatusAndResolveConflicts(ctx, lender.LenderID, contractID, req.Status, statusDate)
	if err != nil {
		return nil, err
	}

	s.logger.Info("contract updated",
		zap.String("contract_id", contractID),
		zap.String("status", string(req.Status)),
		zap.Int("conflicts_resolved", len(resolved)),
	)

	for _, conflict := range resolved {
		otherID := conflict.OtherContractID(contractID)
		other, err := s.contracts.GetContract(ctx, otherID)
		if err != nil {
			s.logger.Error("failed to load counter-party contract",
				zap.String("contract_id", otherID),
				zap.Error(err),
			)
			continue
		}

		var event domain.WebhookEventType
		var data map[string]any
		if req.Status == domain.ContractStatusFunded {
			event = domain.EventConflictContractFunded
			fundedDate := ""
			if updated.FundedDate != nil {
				fundedDate = updated.FundedDate.Format(dateLayout)
			}
			data = map[string]any{
				"your_contract_id": other.ExternalID,
				"funded_by":        lender.Name,
				"funded_date":      fundedDate,
			}
		} else {
			event = domain.EventConflictResolved
			data = map[string]any{
				"your_contract_id": other.ExternalID,
				"cancelled_by":     lender.Name,
			}
		}

		if _, err := s.webhooks.Deliver(ctx, other.LenderID, event, data); err != nil {
			s.logger.Error("resolution notification failed",
				zap.String("lender_id", other.LenderID),
				zap.Error(err),
			)
		}
	}

	return &UpdateContractResult{
		ContractID:        contractID,
		Status:            updated.Status,
		ConflictsResolved: len(resolved),
	}, nil
}

// ListOpenConflicts returns the OPEN conflicts touching a contract the
// caller owns. Foreign or missing contracts are ErrNotFound either way.
func (s *ContractService) ListOpenConflicts(ctx context.Context, lender *domain.Lender, contractID string) ([]*domain.Conflict, error) {
	if _, err := s.contracts.GetContractForLender(ctx, contractID, lender.LenderID); err != nil {
		return nil, err
	}
	return s.conflicts.FindOpenConflictsFor(ctx, contractID)
}
