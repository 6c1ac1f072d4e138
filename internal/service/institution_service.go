package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sanzad/portal-api/internal/models"
	appErrors "github.com/sanzad/portal-api/pkg/errors"
)

type institutionRepository interface {
	Apply(ctx context.Context, inst *models.Institution) (bool, error)
	FindByName(ctx context.Context, name string) (*models.Institution, error)
	Approve(ctx context.Context, name string, code *string) (int64, error)
	DeletePending(ctx context.Context, name string) (int64, error)
	List(ctx context.Context, status *models.InstitutionStatus) ([]models.Institution, error)
}

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// ApplyRequest is an institution's registration application.
type ApplyRequest struct {
	Name    string `json:"name" validate:"required"`
	Country string `json:"country"`
	City    string `json:"city"`
	Details string `json:"details"`
}

// ApplyResult reports whether the application created a new row. An
// existing application with the same name is left untouched.
type ApplyResult struct {
	Institution *models.Institution `json:"institution"`
	Created     bool                `json:"created"`
}

// InstitutionService manages the pending-to-approved application workflow.
type InstitutionService struct {
	repo      institutionRepository
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewInstitutionService creates an instance of InstitutionService.
func NewInstitutionService(repo institutionRepository, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *InstitutionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &InstitutionService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// Apply submits an application, insert-if-absent by name. The result says
// whether a row was created so callers no longer mistake an ignored
// duplicate for a fresh application.
func (s *InstitutionService) Apply(ctx context.Context, req ApplyRequest) (*ApplyResult, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Country = strings.TrimSpace(req.Country)
	req.City = strings.TrimSpace(req.City)
	req.Details = strings.TrimSpace(req.Details)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid application payload")
	}

	inst := &models.Institution{
		Name:    req.Name,
		Status:  models.InstitutionPending,
		Country: req.Country,
		City:    req.City,
		Details: req.Details,
	}
	created, err := s.repo.Apply(ctx, inst)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit application")
	}
	if !created {
		s.logger.Info("institution application ignored, name already exists", zap.String("name", req.Name))
	}

	stored, err := s.repo.FindByName(ctx, req.Name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}

	return &ApplyResult{Institution: stored, Created: created}, nil
}

// Approve flips a pending application to approved. A non-empty code
// overwrites the stored code; an empty one preserves it. Absent names are
// reported, not silently ignored.
func (s *InstitutionService) Approve(ctx context.Context, name, code string, actorID int64, meta models.LoginRequest) (*models.Institution, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "institution name is required")
	}

	var codeArg *string
	if trimmed := strings.TrimSpace(code); trimmed != "" {
		codeArg = &trimmed
	}

	rows, err := s.repo.Approve(ctx, name, codeArg)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve institution")
	}
	if rows == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "institution not found")
	}

	detail, _ := json.Marshal(map[string]interface{}{"name": name, "code": code})
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		AccountID: &actorID,
		Action:    models.AuditActionInstitutionApprove,
		Resource:  "institutions",
		Detail:    detail,
		IPAddress: meta.IP,
		UserAgent: meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record approval audit log", zap.Error(err))
	}

	stored, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load institution")
	}
	return stored, nil
}

// Delete removes a pending application. Approved institutions cannot be
// deleted through this operation; the row stays and the caller gets a
// conflict.
func (s *InstitutionService) Delete(ctx context.Context, name string, actorID int64, meta models.LoginRequest) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return appErrors.Clone(appErrors.ErrValidation, "institution name is required")
	}

	rows, err := s.repo.DeletePending(ctx, name)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete application")
	}
	if rows == 0 {
		stored, err := s.repo.FindByName(ctx, name)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "institution not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load institution")
		}
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("institution %q is %s and cannot be deleted", stored.Name, stored.Status))
	}

	detail, _ := json.Marshal(map[string]interface{}{"name": name})
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		AccountID: &actorID,
		Action:    models.AuditActionInstitutionDelete,
		Resource:  "institutions",
		Detail:    detail,
		IPAddress: meta.IP,
		UserAgent: meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record deletion audit log", zap.Error(err))
	}

	return nil
}

// List returns institutions, optionally filtered to one status value.
func (s *InstitutionService) List(ctx context.Context, statusRaw string) ([]models.Institution, error) {
	var status *models.InstitutionStatus
	switch statusRaw {
	case "":
	case string(models.InstitutionPending), string(models.InstitutionApproved):
		v := models.InstitutionStatus(statusRaw)
		status = &v
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown institution status %q", statusRaw))
	}

	institutions, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list institutions")
	}
	return institutions, nil
}
