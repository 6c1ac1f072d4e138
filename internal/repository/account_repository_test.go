package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanzad/portal-api/internal/models"
)

func newAccountMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func accountRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "code", "full_name", "email", "password_hash", "role", "phone", "department_label", "institution_name", "teacher_reg_no", "student_reg_no", "linked_child_name", "linked_child_reg_no", "status", "created_at"}).
		AddRow(1, "0000000001", "Jordan Rivers", "jordan@example.com", "hash", "Student", "", "CS-101", "Acme U", "", "", "", "", "active", time.Now())
}

func TestAccountRepositoryFindByEmail(t *testing.T) {
	db, mock, cleanup := newAccountMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, code, full_name, email, password_hash, role, phone, department_label, institution_name, teacher_reg_no, student_reg_no, linked_child_name, linked_child_reg_no, status, created_at FROM accounts WHERE email = $1 LIMIT 1")).
		WithArgs("jordan@example.com").
		WillReturnRows(accountRows())

	account, err := repo.FindByEmail(context.Background(), "jordan@example.com")
	require.NoError(t, err)
	assert.Equal(t, "0000000001", account.Code)
	assert.Equal(t, models.RoleStudent, account.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepositoryFindByEmailNoRows(t *testing.T) {
	db, mock, cleanup := newAccountMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectQuery("SELECT .+ FROM accounts WHERE email").
		WithArgs("ghost@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByEmail(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestAccountRepositoryLastCode(t *testing.T) {
	db, mock, cleanup := newAccountMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT code FROM accounts ORDER BY id DESC LIMIT 1")).
		WillReturnRows(sqlmock.NewRows([]string{"code"}).AddRow("0000000042"))

	code, err := repo.LastCode(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0000000042", code)
}

func TestAccountRepositoryLastCodeEmptyStore(t *testing.T) {
	db, mock, cleanup := newAccountMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT code FROM accounts ORDER BY id DESC LIMIT 1")).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.LastCode(context.Background())
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestAccountRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newAccountMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectQuery("INSERT INTO accounts").
		WithArgs("0000000001", "Jordan Rivers", "jordan@example.com", "hash", models.RoleStudent, "", "", "", "", "", "", "", models.AccountActive, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	account := &models.Account{
		Code:         "0000000001",
		FullName:     "Jordan Rivers",
		Email:        "jordan@example.com",
		PasswordHash: "hash",
		Role:         models.RoleStudent,
		Status:       models.AccountActive,
	}
	err := repo.Create(context.Background(), account)
	require.NoError(t, err)
	assert.Equal(t, int64(7), account.ID)
	assert.False(t, account.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newAccountMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET status = $2 WHERE id = $1")).
		WithArgs(int64(5), models.AccountBlocked).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rows, err := repo.UpdateStatus(context.Background(), 5, models.AccountBlocked)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)
}

func TestAccountRepositoryUpdateStatusAbsent(t *testing.T) {
	db, mock, cleanup := newAccountMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectExec("UPDATE accounts SET status").
		WithArgs(int64(99), models.AccountBlocked).
		WillReturnResult(sqlmock.NewResult(0, 0))

	rows, err := repo.UpdateStatus(context.Background(), 99, models.AccountBlocked)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)
}

func TestAccountRepositoryListUnfiltered(t *testing.T) {
	db, mock, cleanup := newAccountMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	rows := sqlmock.NewRows([]string{"id", "code", "full_name", "email", "role", "phone", "institution_name", "department_label", "status"}).
		AddRow(1, "0000000001", "Jordan Rivers", "jordan@example.com", "Student", "", "Acme U", "CS-101", "active")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, code, full_name, email, role, phone, institution_name, department_label, status FROM accounts WHERE 1=1 ORDER BY id ASC")).
		WillReturnRows(rows)

	accounts, err := repo.List(context.Background(), models.AccountFilter{})
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}

func TestAccountRepositoryListFiltered(t *testing.T) {
	db, mock, cleanup := newAccountMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	role := models.RoleTeacher
	status := models.AccountActive
	rows := sqlmock.NewRows([]string{"id", "code", "full_name", "email", "role", "phone", "institution_name", "department_label", "status"})
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, code, full_name, email, role, phone, institution_name, department_label, status FROM accounts WHERE 1=1 AND role = $1 AND status = $2 AND institution_name = $3 ORDER BY id ASC")).
		WithArgs(role, status, "Acme U").
		WillReturnRows(rows)

	accounts, err := repo.List(context.Background(), models.AccountFilter{Role: &role, Status: &status, InstitutionName: "Acme U"})
	require.NoError(t, err)
	assert.Empty(t, accounts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepositoryCreateAuditLog(t *testing.T) {
	db, mock, cleanup := newAccountMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectExec("INSERT INTO audit_logs").
		WillReturnResult(sqlmock.NewResult(1, 1))

	accountID := int64(1)
	log := &models.AuditLog{AccountID: &accountID, Action: models.AuditActionRegister, Resource: "accounts"}
	err := repo.CreateAuditLog(context.Background(), log)
	require.NoError(t, err)
	assert.NotEmpty(t, log.ID)
	assert.False(t, log.CreatedAt.IsZero())
}
