package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"lsp-conflicts/internal/domain"
)

// PostgresContractsRepository implements ContractsRepository over
// lsp_contracts and lsp_conflicts.
type PostgresContractsRepository struct {
	db *sql.DB
}

func NewPostgresContractsRepository(db *sql.DB) *PostgresContractsRepository {
	return &PostgresContractsRepository{db: db}
}

var _ ContractsRepository = (*PostgresContractsRepository)(nil)

const contractColumns = `
	c.contract_id::text,
	c.lender_id::text,
	c.external_id,
	c.address_street,
	c.address_city,
	c.address_state,
	c.address_zip,
	COALESCE(c.apn, '') as apn,
	COALESCE(c.email, '') as email,
	COALESCE(c.phone, '') as phone,
	c.signed_date,
	c.funded_date,
	c.cancelled_date,
	c.status,
	c.created_at,
	c.updated_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContract(row rowScanner, c *domain.Contract) error {
	return row.Scan(
		&c.ContractID,
		&c.LenderID,
		&c.ExternalID,
		&c.AddressStreet,
		&c.AddressCity,
		&c.AddressState,
		&c.AddressZip,
		&c.APN,
		&c.Email,
		&c.Phone,
		&c.SignedDate,
		&c.FundedDate,
		&c.CancelledDate,
		&c.Status,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
}

func (r *PostgresContractsRepository) GetContract(ctx context.Context, contractID string) (*domain.Contract, error) {
	if contractID == "" {
		return nil, fmt.Errorf("contract_id is required")
	}

	query := `SELECT ` + contractColumns + ` FROM lsp_contracts c WHERE c.contract_id = $1::uuid`
	var c domain.Contract
	if err := scanContract(r.db.QueryRowContext(ctx, query, contractID), &c); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get contract: %w", err)
	}
	return &c, nil
}

func (r *PostgresContractsRepository) GetContractForLender(ctx context.Context, contractID, lenderID string) (*domain.Contract, error) {
	if contractID == "" || lenderID == "" {
		return nil, fmt.Errorf("contract_id and lender_id are required")
	}

	query := `SELECT ` + contractColumns + ` FROM lsp_contracts c
		WHERE c.contract_id = $1::uuid AND c.lender_id = $2::uuid`
	var c domain.Contract
	if err := scanContract(r.db.QueryRowContext(ctx, query, contractID, lenderID), &c); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get contract: %w", err)
	}
	return &c, nil
}

// FindConflicting builds the match predicate dynamically: the address
// clause is unconditional, the APN/email/phone clauses only apply when the
// submission carries the field. Optional columns are NULL when absent, so
// equality against them can never fire spuriously.
func (r *PostgresContractsRepository) FindConflicting(ctx context.Context, q ConflictQuery) ([]*ConflictingContract, error) {
	if q.LenderID == "" {
		return nil, fmt.Errorf("lender_id is required")
	}

	args := []any{q.LenderID, q.SignedAfter, q.AddressStreet, q.AddressZip}
	conds := []string{"(c.address_street = $3 AND c.address_zip = $4)"}
	argIdx := 5

	if q.APN != "" {
		conds = append(conds, fmt.Sprintf("c.apn = $%d", argIdx))
		args = append(args, q.APN)
		argIdx++
	}
	if q.Email != "" {
		conds = append(conds, fmt.Sprintf("c.email = $%d", argIdx))
		args = append(args, q.Email)
		argIdx++
	}
	if q.Phone != "" {
		conds = append(conds, fmt.Sprintf("c.phone = $%d", argIdx))
		args = append(args, q.Phone)
		argIdx++
	}

	query := `SELECT ` + contractColumns + `, l.name as lender_name
		FROM lsp_contracts c
		JOIN lsp_lenders l ON l.lender_id = c.lender_id
		WHERE c.status = 'ACTIVE'
		  AND c.lender_id <> $1::uuid
		  AND c.signed_date > $2
		  AND (` + strings.Join(conds, " OR ") + `)
		ORDER BY c.signed_date`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find conflicting contracts: %w", err)
	}
	defer rows.Close()

	matches := []*ConflictingContract{}
	for rows.Next() {
		var m ConflictingContract
		if err := rows.Scan(
			&m.Contract.ContractID,
			&m.Contract.LenderID,
			&m.Contract.ExternalID,
			&m.Contract.AddressStreet,
			&m.Contract.AddressCity,
			&m.Contract.AddressState,
			&m.Contract.AddressZip,
			&m.Contract.APN,
			&m.Contract.Email,
			&m.Contract.Phone,
			&m.Contract.SignedDate,
			&m.Contract.FundedDate,
			&m.Contract.CancelledDate,
			&m.Contract.Status,
			&m.Contract.CreatedAt,
			&m.Contract.UpdatedAt,
			&m.LenderName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan conflicting contract: %w", err)
		}
		matches = append(matches, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conflicting contracts: %w", err)
	}

	return matches, nil
}

func (r *PostgresContractsRepository) CreateWithConflicts(ctx context.Context, contract *domain.Contract, conflicts []*domain.Conflict) error {
	if contract == nil {
		return fmt.Errorf("contract is required")
	}
	if contract.ContractID == "" || contract.LenderID == "" {
		return fmt.Errorf("contract_id and lender_id are required")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO lsp_contracts (
			contract_id, lender_id, external_id,
			address_street, address_city, address_state, address_zip,
			apn, email, phone,
			signed_date, status
		) VALUES (
			$1::uuid, $2::uuid, $3,
			$4, $5, $6, $7,
			NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''),
			$11, $12
		)`,
		contract.ContractID,
		contract.LenderID,
		contract.ExternalID,
		contract.AddressStreet,
		contract.AddressCity,
		contract.AddressState,
		contract.AddressZip,
		contract.APN,
		contract.Email,
		contract.Phone,
		contract.SignedDate,
		string(contract.Status),
	)
	if err != nil {
		return fmt.Errorf("failed to insert contract: %w", err)
	}

	for _, conflict := range conflicts {
		reasons, err := json.Marshal(conflict.MatchReasons)
		if err != nil {
			return fmt.Errorf("failed to marshal match reasons: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO lsp_conflicts (conflict_id, contract_a_id, contract_b_id, match_reasons, status)
			 VALUES ($1::uuid, $2::uuid, $3::uuid, $4::jsonb, $5)`,
			conflict.ConflictID,
			conflict.ContractAID,
			conflict.ContractBID,
			string(reasons),
			string(conflict.Status),
		)
		if err != nil {
			return fmt.Errorf("failed to insert conflict: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit contract submission: %w", err)
	}
	return nil
}

func (r *PostgresContractsRepository) UpdateStatusAndResolveConflicts(ctx context.Context, lenderID, contractID string, status domain.ContractStatus, statusDate time.Time) (*domain.Contract, []*domain.Conflict, error) {
	if contractID == "" || lenderID == "" {
		return nil, nil, fmt.Errorf("contract_id and lender_id are required")
	}
	if !status.Terminal() {
		return nil, nil, ErrInvalidTransition
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Lock the contract row for the duration of the transition so two
	// concurrent updates cannot both observe ACTIVE.
	query := `SELECT ` + contractColumns + ` FROM lsp_contracts c
		WHERE c.contract_id = $1::uuid AND c.lender_id = $2::uuid
		FOR UPDATE`
	var c domain.Contract
	if err := scanContract(tx.QueryRowContext(ctx, query, contractID, lenderID), &c); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to load contract for update: %w", err)
	}

	if !c.Status.CanTransitionTo(status) {
		return nil, nil, ErrInvalidTransition
	}

	dateColumn := "funded_date"
	if status == domain.ContractStatusCancelled {
		dateColumn = "cancelled_date"
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE lsp_contracts SET status = $2, `+dateColumn+` = $3, updated_at = NOW()
		 WHERE contract_id = $1::uuid`,
		contractID, string(status), statusDate,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to update contract status: %w", err)
	}

	now := time.Now().UTC()
	rows, err := tx.QueryContext(ctx,
		`UPDATE lsp_conflicts
		 SET status = 'RESOLVED', resolved_at = $2
		 WHERE (contract_a_id = $1::uuid OR contract_b_id = $1::uuid)
		   AND status = 'OPEN'
		 RETURNING conflict_id::text, contract_a_id::text, contract_b_id::text, match_reasons, created_at`,
		contractID, now,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve conflicts: %w", err)
	}
	defer rows.Close()

	resolved := []*domain.Conflict{}
	for rows.Next() {
		var conflict domain.Conflict
		var reasonsRaw []byte
		if err := rows.Scan(
			&conflict.ConflictID,
			&conflict.ContractAID,
			&conflict.ContractBID,
			&reasonsRaw,
			&conflict.CreatedAt,
		); err != nil {
			return nil, nil, fmt.Errorf("failed to scan resolved conflict: %w", err)
		}
		if err := json.Unmarshal(reasonsRaw, &conflict.MatchReasons); err != nil {
			return nil, nil, fmt.Errorf("failed to unmarshal match reasons: %w", err)
		}
		conflict.Status = domain.ConflictStatusResolved
		resolvedAt := now
		conflict.ResolvedAt = &resolvedAt
		resolved = append(resolved, &conflict)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to iterate resolved conflicts: %w", err)
	}
	rows.Close()

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit contract update: %w", err)
	}

	c.Status = status
	if status == domain.ContractStatusFunded {
		c.FundedDate = &statusDate
	} else {
		c.CancelledDate = &statusDate
	}
	return &c, resolved, nil
}
