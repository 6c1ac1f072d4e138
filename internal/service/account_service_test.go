package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanzad/portal-api/internal/models"
	appErrors "github.com/sanzad/portal-api/pkg/errors"
)

type mockAccountRepo struct {
	accountsByEmail map[string]*models.Account
	accountsByID    map[int64]*models.Account
	lastCode        string
	lastCodeErr     error
	createErr       error
	created         []*models.Account
	updateRows      int64
	updateErr       error
	updatedStatus   models.AccountStatus
	listResult      []models.AccountSummary
	listFilter      models.AccountFilter
	auditLogs       []*models.AuditLog
}

func (m *mockAccountRepo) Create(ctx context.Context, account *models.Account) error {
	if m.createErr != nil {
		return m.createErr
	}
	account.ID = int64(len(m.created) + 1)
	m.created = append(m.created, account)
	return nil
}

func (m *mockAccountRepo) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	if account, ok := m.accountsByEmail[email]; ok {
		return account, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAccountRepo) FindByID(ctx context.Context, id int64) (*models.Account, error) {
	if account, ok := m.accountsByID[id]; ok {
		return account, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAccountRepo) LastCode(ctx context.Context) (string, error) {
	if m.lastCodeErr != nil {
		return "", m.lastCodeErr
	}
	return m.lastCode, nil
}

func (m *mockAccountRepo) UpdateStatus(ctx context.Context, id int64, status models.AccountStatus) (int64, error) {
	if m.updateErr != nil {
		return 0, m.updateErr
	}
	m.updatedStatus = status
	return m.updateRows, nil
}

func (m *mockAccountRepo) List(ctx context.Context, filter models.AccountFilter) ([]models.AccountSummary, error) {
	m.listFilter = filter
	return m.listResult, nil
}

func (m *mockAccountRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

type mockRevoker struct {
	revoked []int64
}

func (m *mockRevoker) RevokeAccount(ctx context.Context, accountID int64) error {
	m.revoked = append(m.revoked, accountID)
	return nil
}

func validRegisterRequest() RegisterRequest {
	return RegisterRequest{
		FullName: "Jordan Rivers",
		Email:    "jordan@example.com",
		Password: "secret123",
		Role:     models.RoleStudent,
	}
}

func TestAccountServiceRegisterFirstCode(t *testing.T) {
	repo := &mockAccountRepo{lastCodeErr: sql.ErrNoRows}
	svc := NewAccountService(repo, nil, nil, nil)

	account, err := svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)
	assert.Equal(t, "0000000001", account.Code)
	assert.Equal(t, models.AccountActive, account.Status)
	assert.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionRegister, repo.auditLogs[0].Action)
}

func TestAccountServiceRegisterSequentialCode(t *testing.T) {
	repo := &mockAccountRepo{lastCode: "0000000042"}
	svc := NewAccountService(repo, nil, nil, nil)

	account, err := svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)
	assert.Equal(t, "0000000043", account.Code)
}

func TestAccountServiceRegisterPreservesPadding(t *testing.T) {
	repo := &mockAccountRepo{lastCode: "0000000099"}
	svc := NewAccountService(repo, nil, nil, nil)

	account, err := svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)
	assert.Equal(t, "0000000100", account.Code)
	assert.Len(t, account.Code, 10)
}

func TestAccountServiceRegisterNormalizesEmail(t *testing.T) {
	repo := &mockAccountRepo{lastCodeErr: sql.ErrNoRows}
	svc := NewAccountService(repo, nil, nil, nil)

	req := validRegisterRequest()
	req.Email = "  Jordan@Example.COM "
	account, err := svc.Register(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "jordan@example.com", account.Email)
}

func TestAccountServiceRegisterDuplicateEmail(t *testing.T) {
	repo := &mockAccountRepo{
		accountsByEmail: map[string]*models.Account{
			"jordan@example.com": {ID: 7, Email: "jordan@example.com"},
		},
	}
	svc := NewAccountService(repo, nil, nil, nil)

	_, err := svc.Register(context.Background(), validRegisterRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrEmailTaken.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.created)
}

func TestAccountServiceRegisterCorruptLastCode(t *testing.T) {
	repo := &mockAccountRepo{lastCode: "not-a-number"}
	svc := NewAccountService(repo, nil, nil, nil)

	_, err := svc.Register(context.Background(), validRegisterRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCodeCorrupt.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.created)
}

func TestAccountServiceRegisterNeverStoresPlaintext(t *testing.T) {
	repo := &mockAccountRepo{lastCodeErr: sql.ErrNoRows}
	svc := NewAccountService(repo, nil, nil, nil)

	req := validRegisterRequest()
	account, err := svc.Register(context.Background(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, account.PasswordHash)
	assert.NotEqual(t, req.Password, account.PasswordHash)
	assert.NotContains(t, account.PasswordHash, req.Password)
}

func TestAccountServiceRegisterRejectsSuperAdmin(t *testing.T) {
	repo := &mockAccountRepo{lastCodeErr: sql.ErrNoRows}
	svc := NewAccountService(repo, nil, nil, nil)

	req := validRegisterRequest()
	req.Role = models.RoleSuperAdmin
	_, err := svc.Register(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAccountServiceRegisterMapsEmailConstraint(t *testing.T) {
	repo := &mockAccountRepo{
		lastCode:  "0000000005",
		createErr: &pq.Error{Code: "23505", Constraint: "accounts_email_key"},
	}
	svc := NewAccountService(repo, nil, nil, nil)

	_, err := svc.Register(context.Background(), validRegisterRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrEmailTaken.Code, appErrors.FromError(err).Code)
}

func TestAccountServiceRegisterMapsCodeConstraint(t *testing.T) {
	repo := &mockAccountRepo{
		lastCode:  "0000000005",
		createErr: &pq.Error{Code: "23505", Constraint: "accounts_code_key"},
	}
	svc := NewAccountService(repo, nil, nil, nil)

	_, err := svc.Register(context.Background(), validRegisterRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCodeConflict.Code, appErrors.FromError(err).Code)
}

func TestAccountServiceSetStatusNotFound(t *testing.T) {
	repo := &mockAccountRepo{updateRows: 0}
	svc := NewAccountService(repo, nil, nil, nil)

	err := svc.SetStatus(context.Background(), 99, models.AccountBlocked, 1, models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAccountServiceSetStatusUnknownStatus(t *testing.T) {
	repo := &mockAccountRepo{updateRows: 1}
	svc := NewAccountService(repo, nil, nil, nil)

	err := svc.SetStatus(context.Background(), 1, models.AccountStatus("suspended"), 1, models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAccountServiceSetStatusBlockedRevokesSessions(t *testing.T) {
	repo := &mockAccountRepo{updateRows: 1}
	revoker := &mockRevoker{}
	svc := NewAccountService(repo, revoker, nil, nil)

	err := svc.SetStatus(context.Background(), 5, models.AccountBlocked, 1, models.LoginRequest{})
	require.NoError(t, err)
	assert.Equal(t, []int64{5}, revoker.revoked)
	assert.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionStatusChange, repo.auditLogs[0].Action)
}

func TestAccountServiceSetStatusAuditRecordsTarget(t *testing.T) {
	// The actor goes in AccountID, so the audit detail must carry the
	// account whose status changed.
	repo := &mockAccountRepo{updateRows: 1}
	svc := NewAccountService(repo, nil, nil, nil)

	err := svc.SetStatus(context.Background(), 42, models.AccountBlocked, 7, models.LoginRequest{})
	require.NoError(t, err)
	require.Len(t, repo.auditLogs, 1)
	require.NotNil(t, repo.auditLogs[0].AccountID)
	assert.Equal(t, int64(7), *repo.auditLogs[0].AccountID)

	var detail struct {
		AccountID int64                `json:"account_id"`
		Status    models.AccountStatus `json:"status"`
	}
	require.NoError(t, json.Unmarshal(repo.auditLogs[0].Detail, &detail))
	assert.Equal(t, int64(42), detail.AccountID)
	assert.Equal(t, models.AccountBlocked, detail.Status)
}

func TestAccountServiceSetStatusActiveSkipsRevocation(t *testing.T) {
	repo := &mockAccountRepo{updateRows: 1}
	revoker := &mockRevoker{}
	svc := NewAccountService(repo, revoker, nil, nil)

	err := svc.SetStatus(context.Background(), 5, models.AccountActive, 1, models.LoginRequest{})
	require.NoError(t, err)
	assert.Empty(t, revoker.revoked)
}

func TestAccountServiceSetStatusIdempotent(t *testing.T) {
	repo := &mockAccountRepo{updateRows: 1}
	svc := NewAccountService(repo, nil, nil, nil)

	require.NoError(t, svc.SetStatus(context.Background(), 5, models.AccountBlocked, 1, models.LoginRequest{}))
	require.NoError(t, svc.SetStatus(context.Background(), 5, models.AccountBlocked, 1, models.LoginRequest{}))
	assert.Equal(t, models.AccountBlocked, repo.updatedStatus)
}

func TestAccountServiceGetNotFound(t *testing.T) {
	repo := &mockAccountRepo{}
	svc := NewAccountService(repo, nil, nil, nil)

	_, err := svc.Get(context.Background(), 404)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
