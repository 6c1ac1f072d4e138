package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/sanzad/portal-api/internal/models"
	appErrors "github.com/sanzad/portal-api/pkg/errors"
)

// firstAccountCode is assigned when the store is empty.
const firstAccountCode = "0000000001"

const pqUniqueViolation = "23505"

type accountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	FindByID(ctx context.Context, id int64) (*models.Account, error)
	LastCode(ctx context.Context) (string, error)
	UpdateStatus(ctx context.Context, id int64, status models.AccountStatus) (int64, error)
	List(ctx context.Context, filter models.AccountFilter) ([]models.AccountSummary, error)
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type sessionRevoker interface {
	RevokeAccount(ctx context.Context, accountID int64) error
}

// RegisterRequest represents the role-specific registration payload.
// Super Admin accounts are seeded operationally and cannot self-register.
type RegisterRequest struct {
	FullName         string             `json:"full_name" validate:"required"`
	Email            string             `json:"email" validate:"required,email"`
	Password         string             `json:"password" validate:"required,min=6"`
	Role             models.AccountRole `json:"role" validate:"required,oneof=Student Teacher Parent Institution"`
	Phone            string             `json:"phone"`
	DepartmentLabel  string             `json:"department_label"`
	InstitutionName  string             `json:"institution_name"`
	TeacherRegNo     string             `json:"teacher_reg_no"`
	StudentRegNo     string             `json:"student_reg_no"`
	LinkedChildName  string             `json:"linked_child_name"`
	LinkedChildRegNo string             `json:"linked_child_reg_no"`
	IP               string             `json:"-"`
	UserAgent        string             `json:"-"`
}

// AccountService handles registration, status changes and directory
// listings for platform accounts.
type AccountService struct {
	repo      accountRepository
	sessions  sessionRevoker
	validator *validator.Validate
	logger    *zap.Logger

	// mu serializes code generation with the insert. Two concurrent
	// registrations reading the same last code would derive the same
	// next code; the unique constraint on accounts.code remains the
	// fail-closed backstop.
	mu sync.Mutex
}

// NewAccountService creates an instance of AccountService. sessions may
// be nil when no revocation backend is configured.
func NewAccountService(repo accountRepository, sessions sessionRevoker, validate *validator.Validate, logger *zap.Logger) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AccountService{repo: repo, sessions: sessions, validator: validate, logger: logger}
}

// Register creates a new account with the next sequential code. Duplicate
// emails and code collisions are expected rejections, not system faults.
func (s *AccountService) Register(ctx context.Context, req RegisterRequest) (*models.Account, error) {
	req = trimRegisterRequest(req)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	if _, err := s.repo.FindByEmail(ctx, req.Email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrEmailTaken, "")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email uniqueness")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	code, err := s.nextCode(ctx)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		Code:             code,
		FullName:         req.FullName,
		Email:            req.Email,
		PasswordHash:     string(passwordHash),
		Role:             req.Role,
		Phone:            req.Phone,
		DepartmentLabel:  req.DepartmentLabel,
		InstitutionName:  req.InstitutionName,
		TeacherRegNo:     req.TeacherRegNo,
		StudentRegNo:     req.StudentRegNo,
		LinkedChildName:  req.LinkedChildName,
		LinkedChildRegNo: req.LinkedChildRegNo,
		Status:           models.AccountActive,
	}

	if err := s.repo.Create(ctx, account); err != nil {
		return nil, mapAccountInsertError(err)
	}

	detail, _ := json.Marshal(map[string]interface{}{"code": account.Code, "email": account.Email, "role": account.Role})
	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		AccountID: &account.ID,
		Action:    models.AuditActionRegister,
		Resource:  "accounts",
		Detail:    detail,
		IPAddress: req.IP,
		UserAgent: req.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record registration audit log", zap.Error(err))
	}

	return account, nil
}

// SetStatus overwrites the account status. Unlike the legacy console it
// reports absent ids instead of pretending success. Blocking an account
// also revokes its outstanding tokens.
func (s *AccountService) SetStatus(ctx context.Context, id int64, status models.AccountStatus, actorID int64, meta models.LoginRequest) error {
	if status != models.AccountActive && status != models.AccountBlocked {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown account status %q", status))
	}

	rows, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update account status")
	}
	if rows == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "account not found")
	}

	if status == models.AccountBlocked && s.sessions != nil {
		if err := s.sessions.RevokeAccount(ctx, id); err != nil {
			s.logger.Warn("failed to revoke sessions for blocked account", zap.Int64("account_id", id), zap.Error(err))
		}
	}

	detail, _ := json.Marshal(map[string]interface{}{"account_id": id, "status": status})
	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		AccountID: &actorID,
		Action:    models.AuditActionStatusChange,
		Resource:  "accounts",
		Detail:    detail,
		IPAddress: meta.IP,
		UserAgent: meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record status change audit log", zap.Error(err))
	}

	return nil
}

// List returns the public account projection matching the filter, in
// creation order.
func (s *AccountService) List(ctx context.Context, filter models.AccountFilter) ([]models.AccountSummary, error) {
	accounts, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list accounts")
	}
	return accounts, nil
}

// Get returns the full account record for the given id.
func (s *AccountService) Get(ctx context.Context, id int64) (*models.Account, error) {
	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load account")
	}
	return account, nil
}

// nextCode derives the next sequential 10-digit code from the most
// recently inserted account. An unparseable stored code is a
// data-integrity fault and aborts the registration.
func (s *AccountService) nextCode(ctx context.Context) (string, error) {
	last, err := s.repo.LastCode(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return firstAccountCode, nil
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read last account code")
	}
	if last == "" {
		return firstAccountCode, nil
	}
	n, err := strconv.ParseInt(last, 10, 64)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrCodeCorrupt.Code, appErrors.ErrCodeCorrupt.Status, fmt.Sprintf("stored account code %q is not numeric", last))
	}
	return fmt.Sprintf("%010d", n+1), nil
}

func mapAccountInsertError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
		switch pqErr.Constraint {
		case "accounts_email_key":
			return appErrors.Clone(appErrors.ErrEmailTaken, "")
		case "accounts_code_key":
			return appErrors.Clone(appErrors.ErrCodeConflict, "")
		default:
			return appErrors.Clone(appErrors.ErrConflict, "account already exists")
		}
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create account")
}

func trimRegisterRequest(req RegisterRequest) RegisterRequest {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	req.DepartmentLabel = strings.TrimSpace(req.DepartmentLabel)
	req.InstitutionName = strings.TrimSpace(req.InstitutionName)
	req.TeacherRegNo = strings.TrimSpace(req.TeacherRegNo)
	req.StudentRegNo = strings.TrimSpace(req.StudentRegNo)
	req.LinkedChildName = strings.TrimSpace(req.LinkedChildName)
	req.LinkedChildRegNo = strings.TrimSpace(req.LinkedChildRegNo)
	return req
}
