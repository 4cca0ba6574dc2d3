package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"lsp-conflicts/internal/domain"
)

// PostgresConflictsRepository implements ConflictsRepository over lsp_conflicts.
type PostgresConflictsRepository struct {
	db *sql.DB
}

func NewPostgresConflictsRepository(db *sql.DB) *PostgresConflictsRepository {
	return &PostgresConflictsRepository{db: db}
}

var _ ConflictsRepository = (*PostgresConflictsRepository)(nil)

func (r *PostgresConflictsRepository) FindOpenConflictsFor(ctx context.Context, contractID string) ([]*domain.Conflict, error) {
	if contractID == "" {
		return nil, fmt.Errorf("contract_id is required")
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT conflict_id::text, contract_a_id::text, contract_b_id::text, match_reasons, status, created_at, resolved_at
		 FROM lsp_conflicts
		 WHERE (contract_a_id = $1::uuid OR contract_b_id = $1::uuid)
		   AND status = 'OPEN'
		 ORDER BY created_at`,
		contractID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find open conflicts: %w", err)
	}
	defer rows.Close()

	conflicts := []*domain.Conflict{}
	for rows.Next() {
		var c domain.Conflict
		var reasonsRaw []byte
		if err := rows.Scan(
			&c.ConflictID,
			&c.ContractAID,
			&c.ContractBID,
			&reasonsRaw,
			&c.Status,
			&c.CreatedAt,
			&c.ResolvedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan conflict: %w", err)
		}
		if err := json.Unmarshal(reasonsRaw, &c.MatchReasons); err != nil {
			return nil, fmt.Errorf("failed to unmarshal match reasons: %w", err)
		}
		conflicts = append(conflicts, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conflicts: %w", err)
	}

	return conflicts, nil
}
