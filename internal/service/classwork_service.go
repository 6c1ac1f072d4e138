package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sanzad/portal-api/internal/models"
	appErrors "github.com/sanzad/portal-api/pkg/errors"
)

type classworkRepository interface {
	CreateAssignment(ctx context.Context, a *models.Assignment) error
	FindAssignment(ctx context.Context, id int64) (*models.Assignment, error)
	ListAssignmentsByTeacher(ctx context.Context, teacherID int64) ([]models.Assignment, error)
	ListPublishedForStudent(ctx context.Context, institutionName, department string) ([]models.Assignment, error)
	CreateSubmission(ctx context.Context, s *models.Submission) error
	FindSubmissionForTeacher(ctx context.Context, submissionID, teacherID int64) (*models.Submission, error)
	ListSubmissionsForTeacher(ctx context.Context, teacherID int64) ([]models.TeacherSubmissionView, error)
	ListSubmissionsForStudent(ctx context.Context, studentID int64) ([]models.StudentSubmissionView, error)
	CreateGrade(ctx context.Context, g *models.Grade) error
	ListGradesForStudent(ctx context.Context, studentID int64) ([]models.GradeView, error)
}

type classworkAccountRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Account, error)
}

// CreateAssignmentRequest is the teacher's coursework payload.
type CreateAssignmentRequest struct {
	Title       string `json:"title" validate:"required"`
	Subject     string `json:"subject"`
	ClassName   string `json:"class_name"`
	DueDate     string `json:"due_date"`
	MaxPoints   int    `json:"max_points" validate:"gte=0"`
	Status      string `json:"status" validate:"oneof=Draft Published"`
	Description string `json:"description"`
}

// GradeRequest scores a submission.
type GradeRequest struct {
	Score     float64 `json:"score" validate:"gte=0"`
	MaxPoints float64 `json:"max_points" validate:"gt=0"`
}

// ClassworkService covers the teacher/student coursework loop:
// assignments, submissions and grades.
type ClassworkService struct {
	repo      classworkRepository
	accounts  classworkAccountRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassworkService creates an instance of ClassworkService.
func NewClassworkService(repo classworkRepository, accounts classworkAccountRepository, validate *validator.Validate, logger *zap.Logger) *ClassworkService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ClassworkService{repo: repo, accounts: accounts, validator: validate, logger: logger}
}

// CreateAssignment stores new coursework owned by the teacher.
func (s *ClassworkService) CreateAssignment(ctx context.Context, teacherID int64, req CreateAssignmentRequest) (*models.Assignment, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Subject = strings.TrimSpace(req.Subject)
	req.ClassName = strings.TrimSpace(req.ClassName)
	req.Description = strings.TrimSpace(req.Description)
	if req.Status == "" {
		req.Status = models.AssignmentDraft
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	assignment := &models.Assignment{
		TeacherID:   teacherID,
		Title:       req.Title,
		Subject:     req.Subject,
		ClassName:   req.ClassName,
		DueDate:     req.DueDate,
		MaxPoints:   req.MaxPoints,
		Status:      req.Status,
		Description: req.Description,
	}
	if err := s.repo.CreateAssignment(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}
	return assignment, nil
}

// AssignmentsForTeacher returns the teacher's own coursework newest-first.
func (s *ClassworkService) AssignmentsForTeacher(ctx context.Context, teacherID int64) ([]models.Assignment, error) {
	assignments, err := s.repo.ListAssignmentsByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}

// AssignmentsForStudent returns published coursework from teachers of the
// student's institution, narrowed to the student's department label when
// one is set.
func (s *ClassworkService) AssignmentsForStudent(ctx context.Context, studentID int64) ([]models.Assignment, error) {
	student, err := s.accounts.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load account")
	}

	institution := strings.TrimSpace(student.InstitutionName)
	if institution == "" {
		return []models.Assignment{}, nil
	}

	assignments, err := s.repo.ListPublishedForStudent(ctx, institution, strings.TrimSpace(student.DepartmentLabel))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}

// SubmitWork uploads a student's answer against a published assignment.
func (s *ClassworkService) SubmitWork(ctx context.Context, studentID, assignmentID int64, filename string, fileBytes []byte) (*models.Submission, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "filename is required")
	}

	assignment, err := s.repo.FindAssignment(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	if assignment.Status != models.AssignmentPublished {
		return nil, appErrors.Clone(appErrors.ErrConflict, "assignment is not open for submissions")
	}

	submission := &models.Submission{
		AssignmentID: assignmentID,
		StudentID:    studentID,
		Filename:     filename,
		FileBytes:    fileBytes,
	}
	if err := s.repo.CreateSubmission(ctx, submission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store submission")
	}
	return submission, nil
}

// SubmissionsForTeacher lists work received against the teacher's
// assignments.
func (s *ClassworkService) SubmissionsForTeacher(ctx context.Context, teacherID int64) ([]models.TeacherSubmissionView, error) {
	views, err := s.repo.ListSubmissionsForTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	return views, nil
}

// SubmissionsForStudent lists the student's own uploads.
func (s *ClassworkService) SubmissionsForStudent(ctx context.Context, studentID int64) ([]models.StudentSubmissionView, error) {
	views, err := s.repo.ListSubmissionsForStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	return views, nil
}

// GradeSubmission scores a submission. Only the teacher owning the
// underlying assignment may grade it; foreign submissions are reported
// as not found.
func (s *ClassworkService) GradeSubmission(ctx context.Context, teacherID, submissionID int64, req GradeRequest) (*models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	if req.Score > req.MaxPoints {
		return nil, appErrors.Clone(appErrors.ErrValidation, "score cannot exceed max points")
	}

	submission, err := s.repo.FindSubmissionForTeacher(ctx, submissionID, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}

	grade := &models.Grade{
		SubmissionID: submission.ID,
		TeacherID:    teacherID,
		Score:        req.Score,
		MaxPoints:    req.MaxPoints,
	}
	if err := s.repo.CreateGrade(ctx, grade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store grade")
	}
	return grade, nil
}

// GradesForStudent lists the student's grades newest-first.
func (s *ClassworkService) GradesForStudent(ctx context.Context, studentID int64) ([]models.GradeView, error) {
	grades, err := s.repo.ListGradesForStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	return grades, nil
}
