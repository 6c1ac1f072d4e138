package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sanzad/portal-api/internal/models"
	appErrors "github.com/sanzad/portal-api/pkg/errors"
)

type mockAuthRepo struct {
	account   *models.Account
	auditLogs []*models.AuditLog
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	if m.account == nil || m.account.Email != email {
		return nil, sql.ErrNoRows
	}
	return m.account, nil
}

func (m *mockAuthRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

func testAuthConfig() AuthConfig {
	return AuthConfig{Secret: "secret", Expiration: time.Hour, Issuer: "sanzad-portal"}
}

func activeAccount(t *testing.T) *models.Account {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.Account{
		ID:           3,
		Code:         "0000000003",
		FullName:     "Jordan Rivers",
		Email:        "jordan@example.com",
		PasswordHash: string(hash),
		Role:         models.RoleStudent,
		Status:       models.AccountActive,
	}
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	repo := &mockAuthRepo{account: activeAccount(t)}
	svc := NewAuthService(repo, nil, nil, nil, testAuthConfig())

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "jordan@example.com", Password: "password"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, "0000000003", res.Account.Code)
	assert.Equal(t, int64(3600), res.ExpiresIn)
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionLogin, repo.auditLogs[0].Action)
}

func TestAuthServiceLoginNormalizesEmail(t *testing.T) {
	repo := &mockAuthRepo{account: activeAccount(t)}
	svc := NewAuthService(repo, nil, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: " Jordan@Example.COM ", Password: "password"})
	require.NoError(t, err)
}

func TestAuthServiceLoginUnknownEmail(t *testing.T) {
	repo := &mockAuthRepo{}
	svc := NewAuthService(repo, nil, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ghost@example.com", Password: "password"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	repo := &mockAuthRepo{account: activeAccount(t)}
	svc := NewAuthService(repo, nil, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "jordan@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginBlockedAccount(t *testing.T) {
	account := activeAccount(t)
	account.Status = models.AccountBlocked
	repo := &mockAuthRepo{account: account}
	svc := NewAuthService(repo, nil, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "jordan@example.com", Password: "password"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAccountBlocked.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.auditLogs)
}

func TestAuthServiceBlockedBeforePasswordCheck(t *testing.T) {
	// A blocked account is rejected even when the credentials are
	// otherwise valid.
	account := activeAccount(t)
	account.Status = models.AccountBlocked
	repo := &mockAuthRepo{account: account}
	svc := NewAuthService(repo, nil, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "jordan@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAccountBlocked.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateTokenRoundTrip(t *testing.T) {
	repo := &mockAuthRepo{account: activeAccount(t)}
	svc := NewAuthService(repo, nil, nil, nil, testAuthConfig())

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "jordan@example.com", Password: "password"})
	require.NoError(t, err)

	claims, err := svc.Authenticate(context.Background(), res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(3), claims.AccountID)
	assert.Equal(t, "0000000003", claims.Code)
	assert.Equal(t, models.RoleStudent, claims.Role)
	assert.Equal(t, "sanzad-portal", claims.Issuer)
}

func TestAuthServiceValidateTokenWrongSecret(t *testing.T) {
	repo := &mockAuthRepo{account: activeAccount(t)}
	svc := NewAuthService(repo, nil, nil, nil, testAuthConfig())

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "jordan@example.com", Password: "password"})
	require.NoError(t, err)

	other := NewAuthService(repo, nil, nil, nil, AuthConfig{Secret: "different", Expiration: time.Hour})
	_, err = other.Authenticate(context.Background(), res.AccessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateTokenGarbage(t *testing.T) {
	svc := NewAuthService(&mockAuthRepo{}, nil, nil, nil, testAuthConfig())

	_, err := svc.Authenticate(context.Background(), "not.a.token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

type stubSessionGate struct {
	revokedAt map[int64]time.Time
}

func newStubSessionGate() *stubSessionGate {
	return &stubSessionGate{revokedAt: map[int64]time.Time{}}
}

func (s *stubSessionGate) RevokeAccount(ctx context.Context, accountID int64) error {
	s.revokedAt[accountID] = time.Now().UTC()
	return nil
}

func (s *stubSessionGate) IsRevoked(ctx context.Context, accountID int64, issuedAt time.Time) bool {
	at, ok := s.revokedAt[accountID]
	return ok && !issuedAt.After(at)
}

func TestAuthServiceAuthenticateRejectsRevokedToken(t *testing.T) {
	repo := &mockAuthRepo{account: activeAccount(t)}
	sessions := newStubSessionGate()
	svc := NewAuthService(repo, sessions, nil, nil, testAuthConfig())

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "jordan@example.com", Password: "password"})
	require.NoError(t, err)

	claims, err := svc.Authenticate(context.Background(), res.AccessToken)
	require.NoError(t, err)

	// Logout revokes everything issued up to now; the token must stop
	// working even though it has not expired.
	require.NoError(t, svc.Logout(context.Background(), claims, models.LoginRequest{}))

	_, err = svc.Authenticate(context.Background(), res.AccessToken)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "revoked")
}

func TestAuthServiceAuthenticateAcceptsTokenIssuedAfterRevocation(t *testing.T) {
	repo := &mockAuthRepo{account: activeAccount(t)}
	sessions := newStubSessionGate()
	svc := NewAuthService(repo, sessions, nil, nil, testAuthConfig())

	require.NoError(t, sessions.RevokeAccount(context.Background(), 3))
	sessions.revokedAt[3] = sessions.revokedAt[3].Add(-time.Minute)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "jordan@example.com", Password: "password"})
	require.NoError(t, err)

	claims, err := svc.Authenticate(context.Background(), res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(3), claims.AccountID)
}

func TestAuthServiceLogoutWritesAudit(t *testing.T) {
	repo := &mockAuthRepo{}
	svc := NewAuthService(repo, nil, nil, nil, testAuthConfig())

	claims := &models.JWTClaims{AccountID: 9}
	err := svc.Logout(context.Background(), claims, models.LoginRequest{IP: "127.0.0.1"})
	require.NoError(t, err)
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionLogout, repo.auditLogs[0].Action)
}
