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

var contractTestColumns = []string{
	"contract_id", "lender_id", "external_id",
	"address_street", "address_city", "address_state", "address_zip",
	"apn", "email", "phone",
	"signed_date", "funded_date", "cancelled_date",
	"status", "created_at", "updated_at",
}

func contractRow(columns []string, id, lenderID, externalID string, signed time.Time) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(columns).AddRow(
		id, lenderID, externalID,
		"123 MAIN ST", "FRESNO", "CA", "93701",
		"123-456-789", "jane@example.com", "5595551234",
		signed, nil, nil,
		"ACTIVE", now, now,
	)
}

func TestFindConflicting_WithOptionalFields(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresContractsRepository(db)

	signedAfter := time.Date(2026, 5, 30, 0, 0, 0, 0, time.UTC)
	signed := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	columns := append(append([]string{}, contractTestColumns...), "lender_name")
	rows := sqlmock.NewRows(columns).AddRow(
		"c-1", "other-lender", "LN-77",
		"123 MAIN ST", "FRESNO", "CA", "93701",
		"123-456-789", "jane@example.com", "5595551234",
		signed, nil, nil,
		"ACTIVE", signed, signed,
		"Other Lender",
	)

	mock.ExpectQuery(`SELECT .* FROM lsp_contracts c JOIN lsp_lenders l`).
		WithArgs("my-lender", signedAfter, "123 MAIN ST", "93701", "123-456-789", "jane@example.com", "5595551234").
		WillReturnRows(rows)

	matches, err := repo.FindConflicting(context.Background(), ConflictQuery{
		LenderID:      "my-lender",
		APN:           "123-456-789",
		AddressStreet: "123 MAIN ST",
		AddressZip:    "93701",
		Email:         "jane@example.com",
		Phone:         "5595551234",
		SignedAfter:   signedAfter,
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "c-1", matches[0].Contract.ContractID)
	assert.Equal(t, "Other Lender", matches[0].LenderName)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindConflicting_AddressOnlyArgs(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresContractsRepository(db)

	signedAfter := time.Date(2026, 5, 30, 0, 0, 0, 0, time.UTC)

	// Absent optional fields never reach the query.
	columns := append(append([]string{}, contractTestColumns...), "lender_name")
	mock.ExpectQuery(`SELECT .* FROM lsp_contracts c JOIN lsp_lenders l`).
		WithArgs("my-lender", signedAfter, "123 MAIN ST", "93701").
		WillReturnRows(sqlmock.NewRows(columns))

	matches, err := repo.FindConflicting(context.Background(), ConflictQuery{
		LenderID:      "my-lender",
		AddressStreet: "123 MAIN ST",
		AddressZip:    "93701",
		SignedAfter:   signedAfter,
	})
	require.NoError(t, err)
	assert.Empty(t, matches)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithConflicts_CommitsBothInserts(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresContractsRepository(db)

	signed := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	contract := &domain.Contract{
		ContractID:    "b-1",
		LenderID:      "lender-b",
		ExternalID:    "LN-2",
		AddressStreet: "123 MAIN ST",
		AddressCity:   "FRESNO",
		AddressState:  "CA",
		AddressZip:    "93701",
		SignedDate:    signed,
		Status:        domain.ContractStatusActive,
	}
	conflict := &domain.Conflict{
		ConflictID:   "x-1",
		ContractAID:  "a-1",
		ContractBID:  "b-1",
		MatchReasons: []domain.MatchReason{domain.MatchReasonAddress},
		Status:       domain.ConflictStatusOpen,
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO lsp_contracts`).
		WithArgs("b-1", "lender-b", "LN-2", "123 MAIN ST", "FRESNO", "CA", "93701", "", "", "", signed, "ACTIVE").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO lsp_conflicts`).
		WithArgs("x-1", "a-1", "b-1", `["address"]`, "OPEN").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.CreateWithConflicts(context.Background(), contract, []*domain.Conflict{conflict})
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithConflicts_RollsBackOnInsertError(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresContractsRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO lsp_contracts`).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err := repo.CreateWithConflicts(context.Background(), &domain.Contract{
		ContractID: "b-1",
		LenderID:   "lender-b",
	}, nil)
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusAndResolveConflicts_Funded(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresContractsRepository(db)

	signed := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	fundedDate := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM lsp_contracts c WHERE .* FOR UPDATE`).
		WithArgs("b-1", "lender-b").
		WillReturnRows(contractRow(contractTestColumns, "b-1", "lender-b", "LN-2", signed))
	mock.ExpectExec(`UPDATE lsp_contracts SET status = \$2, funded_date`).
		WithArgs("b-1", "FUNDED", fundedDate).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`UPDATE lsp_conflicts SET status = 'RESOLVED'`).
		WithArgs("b-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"conflict_id", "contract_a_id", "contract_b_id", "match_reasons", "created_at"}).
			AddRow("x-1", "a-1", "b-1", []byte(`["address"]`), signed))
	mock.ExpectCommit()

	updated, resolved, err := repo.UpdateStatusAndResolveConflicts(context.Background(), "lender-b", "b-1", domain.ContractStatusFunded, fundedDate)
	require.NoError(t, err)
	assert.Equal(t, domain.ContractStatusFunded, updated.Status)
	require.NotNil(t, updated.FundedDate)
	assert.True(t, updated.FundedDate.Equal(fundedDate))
	require.Len(t, resolved, 1)
	assert.Equal(t, "x-1", resolved[0].ConflictID)
	assert.Equal(t, domain.ConflictStatusResolved, resolved[0].Status)
	assert.Equal(t, []domain.MatchReason{domain.MatchReasonAddress}, resolved[0].MatchReasons)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusAndResolveConflicts_ForeignContract(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresContractsRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM lsp_contracts c WHERE .* FOR UPDATE`).
		WithArgs("b-1", "wrong-lender").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, _, err := repo.UpdateStatusAndResolveConflicts(context.Background(), "wrong-lender", "b-1", domain.ContractStatusFunded, time.Now().UTC())
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusAndResolveConflicts_AlreadyTerminal(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresContractsRepository(db)

	signed := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	now := time.Now().UTC()
	rows := sqlmock.NewRows(contractTestColumns).AddRow(
		"b-1", "lender-b", "LN-2",
		"123 MAIN ST", "FRESNO", "CA", "93701",
		"", "", "",
		signed, now, nil,
		"FUNDED", now, now,
	)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM lsp_contracts c WHERE .* FOR UPDATE`).
		WithArgs("b-1", "lender-b").
		WillReturnRows(rows)
	mock.ExpectRollback()

	_, _, err := repo.UpdateStatusAndResolveConflicts(context.Background(), "lender-b", "b-1", domain.ContractStatusCancelled, time.Now().UTC())
	assert.ErrorIs(t, err, ErrInvalidTransition)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusAndResolveConflicts_RejectsNonTerminalTarget(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresContractsRepository(db)

	// Validation happens before any SQL.
	_, _, err := repo.UpdateStatusAndResolveConflicts(context.Background(), "lender-b", "b-1", domain.ContractStatusActive, time.Now().UTC())
	assert.ErrorIs(t, err, ErrInvalidTransition)

	assert.NoError(t, mock.ExpectationsWereMet())
}
