package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanzad/portal-api/internal/models"
)

func newInstitutionMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestInstitutionRepositoryApplyCreates(t *testing.T) {
	db, mock, cleanup := newInstitutionMock(t)
	defer cleanup()
	repo := NewInstitutionRepository(db)

	mock.ExpectExec("INSERT INTO institutions").
		WithArgs("Acme U", "", models.InstitutionPending, "US", "Springfield", "").
		WillReturnResult(sqlmock.NewResult(1, 1))

	created, err := repo.Apply(context.Background(), &models.Institution{Name: "Acme U", Country: "US", City: "Springfield"})
	require.NoError(t, err)
	assert.True(t, created)
}

func TestInstitutionRepositoryApplyExistingName(t *testing.T) {
	db, mock, cleanup := newInstitutionMock(t)
	defer cleanup()
	repo := NewInstitutionRepository(db)

	// ON CONFLICT DO NOTHING reports zero rows touched.
	mock.ExpectExec("INSERT INTO institutions").
		WithArgs("Acme U", "", models.InstitutionPending, "", "", "").
		WillReturnResult(sqlmock.NewResult(0, 0))

	created, err := repo.Apply(context.Background(), &models.Institution{Name: "Acme U"})
	require.NoError(t, err)
	assert.False(t, created)
}

func TestInstitutionRepositoryFindByNameNoRows(t *testing.T) {
	db, mock, cleanup := newInstitutionMock(t)
	defer cleanup()
	repo := NewInstitutionRepository(db)

	mock.ExpectQuery("SELECT .+ FROM institutions WHERE name").
		WithArgs("Ghost U").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByName(context.Background(), "Ghost U")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestInstitutionRepositoryApproveWithCode(t *testing.T) {
	db, mock, cleanup := newInstitutionMock(t)
	defer cleanup()
	repo := NewInstitutionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE institutions SET status = $2, code = $3 WHERE name = $1")).
		WithArgs("Acme U", models.InstitutionApproved, "ACME-01").
		WillReturnResult(sqlmock.NewResult(0, 1))

	code := "ACME-01"
	rows, err := repo.Approve(context.Background(), "Acme U", &code)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)
}

func TestInstitutionRepositoryApprovePreservesCode(t *testing.T) {
	db, mock, cleanup := newInstitutionMock(t)
	defer cleanup()
	repo := NewInstitutionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE institutions SET status = $2 WHERE name = $1")).
		WithArgs("Acme U", models.InstitutionApproved).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rows, err := repo.Approve(context.Background(), "Acme U", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstitutionRepositoryDeletePendingOnly(t *testing.T) {
	db, mock, cleanup := newInstitutionMock(t)
	defer cleanup()
	repo := NewInstitutionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM institutions WHERE name = $1 AND status = $2")).
		WithArgs("Acme U", models.InstitutionPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	rows, err := repo.DeletePending(context.Background(), "Acme U")
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)
}

func TestInstitutionRepositoryListByStatus(t *testing.T) {
	db, mock, cleanup := newInstitutionMock(t)
	defer cleanup()
	repo := NewInstitutionRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "code", "status", "country", "city", "details"}).
		AddRow(1, "Acme U", "", "pending", "US", "Springfield", "")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, code, status, country, city, details FROM institutions WHERE status = $1 ORDER BY id ASC")).
		WithArgs(models.InstitutionPending).
		WillReturnRows(rows)

	status := models.InstitutionPending
	institutions, err := repo.List(context.Background(), &status)
	require.NoError(t, err)
	require.Len(t, institutions, 1)
	assert.Equal(t, "Acme U", institutions[0].Name)
}

func TestInstitutionRepositoryListAll(t *testing.T) {
	db, mock, cleanup := newInstitutionMock(t)
	defer cleanup()
	repo := NewInstitutionRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "code", "status", "country", "city", "details"}).
		AddRow(1, "Acme U", "ACME-01", "approved", "", "", "").
		AddRow(2, "Beta College", "", "pending", "", "", "")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, code, status, country, city, details FROM institutions ORDER BY id ASC")).
		WillReturnRows(rows)

	institutions, err := repo.List(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, institutions, 2)
}
