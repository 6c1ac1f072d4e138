package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sanzad/portal-api/internal/models"
	appErrors "github.com/sanzad/portal-api/pkg/errors"
)

type directoryAccountRepository interface {
	List(ctx context.Context, filter models.AccountFilter) ([]models.AccountSummary, error)
}

type directoryInstitutionRepository interface {
	List(ctx context.Context, status *models.InstitutionStatus) ([]models.Institution, error)
}

// DirectoryService is the role-scoped query layer: pure filtering of the
// account and institution collections for dashboard consumption. No
// mutation, no caching; callers always read fresh.
type DirectoryService struct {
	accounts     directoryAccountRepository
	institutions directoryInstitutionRepository
	logger       *zap.Logger
}

// NewDirectoryService creates an instance of DirectoryService.
func NewDirectoryService(accounts directoryAccountRepository, institutions directoryInstitutionRepository, logger *zap.Logger) *DirectoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectoryService{accounts: accounts, institutions: institutions, logger: logger}
}

// AccountsByInstitution lists members of one institution, optionally
// narrowed to a single role.
func (s *DirectoryService) AccountsByInstitution(ctx context.Context, institutionName string, role *models.AccountRole) ([]models.AccountSummary, error) {
	institutionName = strings.TrimSpace(institutionName)
	if institutionName == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "institution name is required")
	}

	accounts, err := s.accounts.List(ctx, models.AccountFilter{InstitutionName: institutionName, Role: role})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list institution accounts")
	}
	return accounts, nil
}

// Roster splits an institution's members into teachers and students the
// way the management console groups them, optionally narrowed to one
// department label.
func (s *DirectoryService) Roster(ctx context.Context, institutionName, departmentLabel string) (*models.DepartmentRoster, error) {
	institutionName = strings.TrimSpace(institutionName)
	if institutionName == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "institution name is required")
	}
	departmentLabel = strings.TrimSpace(departmentLabel)

	accounts, err := s.accounts.List(ctx, models.AccountFilter{InstitutionName: institutionName, DepartmentLabel: departmentLabel})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list institution accounts")
	}

	roster := &models.DepartmentRoster{
		InstitutionName: institutionName,
		DepartmentLabel: departmentLabel,
		Teachers:        []models.AccountSummary{},
		Students:        []models.AccountSummary{},
	}
	for _, account := range accounts {
		switch account.Role {
		case models.RoleTeacher:
			roster.Teachers = append(roster.Teachers, account)
		case models.RoleStudent:
			roster.Students = append(roster.Students, account)
		}
	}
	return roster, nil
}

// PendingInstitutions lists applications awaiting approval.
func (s *DirectoryService) PendingInstitutions(ctx context.Context) ([]models.Institution, error) {
	status := models.InstitutionPending
	institutions, err := s.institutions.List(ctx, &status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending institutions")
	}
	return institutions, nil
}

// ApprovedInstitutions lists institutions visible to registrants.
func (s *DirectoryService) ApprovedInstitutions(ctx context.Context) ([]models.Institution, error) {
	status := models.InstitutionApproved
	institutions, err := s.institutions.List(ctx, &status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list approved institutions")
	}
	return institutions, nil
}
