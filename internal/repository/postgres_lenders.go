package repository

import (
	"context"
	"database/sql"
	"fmt"

	"lsp-conflicts/internal/domain"
)

// PostgresLendersRepository implements LendersRepository over lsp_lenders.
type PostgresLendersRepository struct {
	db *sql.DB
}

func NewPostgresLendersRepository(db *sql.DB) *PostgresLendersRepository {
	return &PostgresLendersRepository{db: db}
}

var _ LendersRepository = (*PostgresLendersRepository)(nil)

const lenderColumns = `
	lender_id::text,
	name,
	api_key,
	COALESCE(webhook_url, '') as webhook_url,
	is_active,
	created_at,
	updated_at
`

func scanLender(row *sql.Row) (*domain.Lender, error) {
	var l domain.Lender
	err := row.Scan(
		&l.LenderID,
		&l.Name,
		&l.APIKey,
		&l.WebhookURL,
		&l.IsActive,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan lender: %w", err)
	}
	return &l, nil
}

func (r *PostgresLendersRepository) GetLender(ctx context.Context, lenderID string) (*domain.Lender, error) {
	if lenderID == "" {
		return nil, fmt.Errorf("lender_id is required")
	}

	query := `SELECT ` + lenderColumns + ` FROM lsp_lenders WHERE lender_id = $1::uuid`
	return scanLender(r.db.QueryRowContext(ctx, query, lenderID))
}

func (r *PostgresLendersRepository) GetLenderByAPIKey(ctx context.Context, apiKey string) (*domain.Lender, error) {
	if apiKey == "" {
		return nil, ErrNotFound
	}

	query := `SELECT ` + lenderColumns + ` FROM lsp_lenders WHERE api_key = $1 AND is_active = TRUE`
	return scanLender(r.db.QueryRowContext(ctx, query, apiKey))
}

func (r *PostgresLendersRepository) ListLenders(ctx context.Context, page, size int) ([]*domain.Lender, int, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 50
	}
	offset := (page - 1) * size

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM lsp_lenders`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count lenders: %w", err)
	}

	query := `SELECT ` + lenderColumns + ` FROM lsp_lenders ORDER BY created_at LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, size, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list lenders: %w", err)
	}
	defer rows.Close()

	lenders := []*domain.Lender{}
	for rows.Next() {
		var l domain.Lender
		if err := rows.Scan(
			&l.LenderID,
			&l.Name,
			&l.APIKey,
			&l.WebhookURL,
			&l.IsActive,
			&l.CreatedAt,
			&l.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan lender: %w", err)
		}
		lenders = append(lenders, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate lenders: %w", err)
	}

	return lenders, total, nil
}

func (r *PostgresLendersRepository) CreateLender(ctx context.Context, lender *domain.Lender) (string, error) {
	if lender == nil {
		return "", fmt.Errorf("lender is required")
	}
	if lender.Name == "" {
		return "", fmt.Errorf("name is required")
	}
	if lender.APIKey == "" {
		return "", fmt.Errorf("api_key is required")
	}

	var lenderID string
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO lsp_lenders (name, api_key, webhook_url, is_active)
		 VALUES ($1, $2, NULLIF($3, ''), TRUE)
		 RETURNING lender_id::text`,
		lender.Name,
		lender.APIKey,
		lender.WebhookURL,
	).Scan(&lenderID)
	if err != nil {
		return "", fmt.Errorf("failed to create lender: %w", err)
	}

	return lenderID, nil
}

func (r *PostgresLendersRepository) DeactivateLender(ctx context.Context, lenderID string) error {
	if lenderID == "" {
		return fmt.Errorf("lender_id is required")
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE lsp_lenders SET is_active = FALSE, updated_at = NOW() WHERE lender_id = $1::uuid`,
		lenderID,
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate lender: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
