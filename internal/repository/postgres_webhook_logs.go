package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"lsp-conflicts/internal/domain"

	"github.com/google/uuid"
)

// PostgresWebhookLogsRepository implements WebhookLogsRepository over
// lsp_webhook_log.
type PostgresWebhookLogsRepository struct {
	db *sql.DB
}

func NewPostgresWebhookLogsRepository(db *sql.DB) *PostgresWebhookLogsRepository {
	return &PostgresWebhookLogsRepository{db: db}
}

var _ WebhookLogsRepository = (*PostgresWebhookLogsRepository)(nil)

func (r *PostgresWebhookLogsRepository) RecordAttempt(ctx context.Context, log *domain.WebhookLog) (string, error) {
	if log == nil {
		return "", fmt.Errorf("log is required")
	}
	if log.LenderID == "" {
		return "", fmt.Errorf("lender_id is required")
	}

	logID := log.LogID
	if logID == "" {
		logID = uuid.NewString()
	}
	attempt := log.Attempt
	if attempt <= 0 {
		attempt = 1
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO lsp_webhook_log (log_id, lender_id, event_type, payload, response_code, response_body, attempt)
		 VALUES ($1::uuid, $2::uuid, $3, $4::jsonb, $5, $6, $7)`,
		logID,
		log.LenderID,
		string(log.EventType),
		string(log.Payload),
		log.ResponseCode,
		log.ResponseBody,
		attempt,
	)
	if err != nil {
		return "", fmt.Errorf("failed to record webhook attempt: %w", err)
	}

	return logID, nil
}

func (r *PostgresWebhookLogsRepository) ListForLender(ctx context.Context, lenderID string, since time.Time, page, size int) ([]*domain.WebhookLog, int, error) {
	if lenderID == "" {
		return nil, 0, fmt.Errorf("lender_id is required")
	}
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 50
	}
	offset := (page - 1) * size

	where := []string{"lender_id = $1::uuid"}
	args := []any{lenderID}
	argIdx := 2

	if !since.IsZero() {
		where = append(where, fmt.Sprintf("created_at >= $%d", argIdx))
		args = append(args, since)
		argIdx++
	}

	whereClause := "WHERE " + strings.Join(where, " AND ")

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM lsp_webhook_log %s`, whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count webhook logs: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT log_id::text, lender_id::text, event_type, payload, response_code, COALESCE(response_body, '') as response_body, attempt, created_at
		FROM lsp_webhook_log
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argIdx, argIdx+1)
	args = append(args, size, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list webhook logs: %w", err)
	}
	defer rows.Close()

	logs := []*domain.WebhookLog{}
	for rows.Next() {
		var l domain.WebhookLog
		var payload []byte
		if err := rows.Scan(
			&l.LogID,
			&l.LenderID,
			&l.EventType,
			&payload,
			&l.ResponseCode,
			&l.ResponseBody,
			&l.Attempt,
			&l.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan webhook log: %w", err)
		}
		l.Payload = payload
		logs = append(logs, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate webhook logs: %w", err)
	}

	return logs, total, nil
}
