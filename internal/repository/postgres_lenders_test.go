package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"lsp-conflicts/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock
}

var lenderTestColumns = []string{"lender_id", "name", "api_key", "webhook_url", "is_active", "created_at", "updated_at"}

func TestGetLenderByAPIKey_Success(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresLendersRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows(lenderTestColumns).
		AddRow("11111111-1111-1111-1111-111111111111", "Acme Solar", "lsp_acme", "https://acme.example/hooks", true, now, now)

	mock.ExpectQuery(`SELECT .* FROM lsp_lenders WHERE api_key`).
		WithArgs("lsp_acme").
		WillReturnRows(rows)

	lender, err := repo.GetLenderByAPIKey(context.Background(), "lsp_acme")
	require.NoError(t, err)
	assert.Equal(t, "11111111-1111-1111-1111-111111111111", lender.LenderID)
	assert.Equal(t, "Acme Solar", lender.Name)
	assert.True(t, lender.CanReceiveWebhooks())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLenderByAPIKey_Unknown(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresLendersRepository(db)

	mock.ExpectQuery(`SELECT .* FROM lsp_lenders WHERE api_key`).
		WithArgs("lsp_nope").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetLenderByAPIKey(context.Background(), "lsp_nope")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLenderByAPIKey_EmptyKeyShortCircuits(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresLendersRepository(db)

	// No query expected.
	_, err := repo.GetLenderByAPIKey(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateLender_Success(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresLendersRepository(db)

	mock.ExpectQuery(`INSERT INTO lsp_lenders`).
		WithArgs("Beta Finance", "lsp_beta", "https://beta.example/hooks").
		WillReturnRows(sqlmock.NewRows([]string{"lender_id"}).AddRow("22222222-2222-2222-2222-222222222222"))

	id, err := repo.CreateLender(context.Background(), &domain.Lender{
		Name:       "Beta Finance",
		APIKey:     "lsp_beta",
		WebhookURL: "https://beta.example/hooks",
	})
	require.NoError(t, err)
	assert.Equal(t, "22222222-2222-2222-2222-222222222222", id)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateLender_RequiresNameAndKey(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresLendersRepository(db)

	_, err := repo.CreateLender(context.Background(), &domain.Lender{APIKey: "lsp_x"})
	assert.Error(t, err)

	_, err = repo.CreateLender(context.Background(), &domain.Lender{Name: "No Key"})
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeactivateLender_Success(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresLendersRepository(db)

	mock.ExpectExec(`UPDATE lsp_lenders SET is_active = FALSE`).
		WithArgs("33333333-3333-3333-3333-333333333333").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.DeactivateLender(context.Background(), "33333333-3333-3333-3333-333333333333")
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeactivateLender_Missing(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresLendersRepository(db)

	mock.ExpectExec(`UPDATE lsp_lenders SET is_active = FALSE`).
		WithArgs("33333333-3333-3333-3333-333333333333").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeactivateLender(context.Background(), "33333333-3333-3333-3333-333333333333")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListLenders_Pagination(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresLendersRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM lsp_lenders`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery(`SELECT .* FROM lsp_lenders ORDER BY created_at`).
		WithArgs(5, 5).
		WillReturnRows(sqlmock.NewRows(lenderTestColumns).
			AddRow("a", "Lender A", "lsp_a", "", true, now, now).
			AddRow("b", "Lender B", "lsp_b", "https://b.example", false, now, now))

	lenders, total, err := repo.ListLenders(context.Background(), 2, 5)
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	require.Len(t, lenders, 2)
	assert.Equal(t, "Lender A", lenders[0].Name)
	assert.False(t, lenders[1].IsActive)

	assert.NoError(t, mock.ExpectationsWereMet())
}
