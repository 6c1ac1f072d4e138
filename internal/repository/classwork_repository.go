package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanzad/portal-api/internal/models"
)

// ClassworkRepository provides database access for assignments,
// submissions and grades.
type ClassworkRepository struct {
	db *sqlx.DB
}

// NewClassworkRepository creates a new instance of ClassworkRepository.
func NewClassworkRepository(db *sqlx.DB) *ClassworkRepository {
	return &ClassworkRepository{db: db}
}

// CreateAssignment inserts coursework and fills in the assigned identifier.
func (r *ClassworkRepository) CreateAssignment(ctx context.Context, a *models.Assignment) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO assignments (teacher_id, title, subject, class_name, due_date, max_points, status, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	if err := r.db.GetContext(ctx, &a.ID, query,
		a.TeacherID, a.Title, a.Subject, a.ClassName, a.DueDate, a.MaxPoints, a.Status, a.Description, a.CreatedAt,
	); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// FindAssignment returns one assignment by identifier.
func (r *ClassworkRepository) FindAssignment(ctx context.Context, id int64) (*models.Assignment, error) {
	const query = `SELECT id, teacher_id, title, subject, class_name, due_date, max_points, status, description, created_at FROM assignments WHERE id = $1 LIMIT 1`
	var a models.Assignment
	if err := r.db.GetContext(ctx, &a, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find assignment: %w", err)
	}
	return &a, nil
}

// ListAssignmentsByTeacher returns a teacher's own assignments newest-first.
func (r *ClassworkRepository) ListAssignmentsByTeacher(ctx context.Context, teacherID int64) ([]models.Assignment, error) {
	const query = `SELECT id, teacher_id, title, subject, class_name, due_date, max_points, status, description, created_at
		FROM assignments WHERE teacher_id = $1 ORDER BY created_at DESC`
	assignments := []models.Assignment{}
	if err := r.db.SelectContext(ctx, &assignments, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher assignments: %w", err)
	}
	return assignments, nil
}

// ListPublishedForStudent returns published assignments from teachers of
// the given institution. A non-empty department narrows to that class.
func (r *ClassworkRepository) ListPublishedForStudent(ctx context.Context, institutionName, department string) ([]models.Assignment, error) {
	assignments := []models.Assignment{}
	if department != "" {
		const query = `SELECT a.id, a.teacher_id, a.title, a.subject, a.class_name, a.due_date, a.max_points, a.status, a.description, a.created_at
			FROM assignments a
			JOIN accounts u ON a.teacher_id = u.id
			WHERE u.institution_name = $1 AND a.status = $2 AND a.class_name = $3
			ORDER BY a.created_at DESC`
		if err := r.db.SelectContext(ctx, &assignments, query, institutionName, models.AssignmentPublished, department); err != nil {
			return nil, fmt.Errorf("list student assignments: %w", err)
		}
		return assignments, nil
	}
	const query = `SELECT a.id, a.teacher_id, a.title, a.subject, a.class_name, a.due_date, a.max_points, a.status, a.description, a.created_at
		FROM assignments a
		JOIN accounts u ON a.teacher_id = u.id
		WHERE u.institution_name = $1 AND a.status = $2
		ORDER BY a.created_at DESC`
	if err := r.db.SelectContext(ctx, &assignments, query, institutionName, models.AssignmentPublished); err != nil {
		return nil, fmt.Errorf("list student assignments: %w", err)
	}
	return assignments, nil
}

// CreateSubmission stores a student's uploaded answer.
func (r *ClassworkRepository) CreateSubmission(ctx context.Context, s *models.Submission) error {
	if s.SubmittedAt.IsZero() {
		s.SubmittedAt = time.Now().UTC()
	}
	const query = `INSERT INTO submissions (assignment_id, student_id, filename, file_bytes, submitted_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`
	if err := r.db.GetContext(ctx, &s.ID, query, s.AssignmentID, s.StudentID, s.Filename, s.FileBytes, s.SubmittedAt); err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

// FindSubmissionForTeacher loads a submission only when it belongs to one
// of the teacher's assignments. sql.ErrNoRows signals both absence and
// foreign ownership.
func (r *ClassworkRepository) FindSubmissionForTeacher(ctx context.Context, submissionID, teacherID int64) (*models.Submission, error) {
	const query = `SELECT s.id, s.assignment_id, s.student_id, s.filename, s.file_bytes, s.submitted_at
		FROM submissions s
		JOIN assignments a ON s.assignment_id = a.id
		WHERE s.id = $1 AND a.teacher_id = $2 LIMIT 1`
	var s models.Submission
	if err := r.db.GetContext(ctx, &s, query, submissionID, teacherID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find submission for teacher: %w", err)
	}
	return &s, nil
}

// ListSubmissionsForTeacher returns all submissions against the teacher's
// assignments, newest-first, with student context.
func (r *ClassworkRepository) ListSubmissionsForTeacher(ctx context.Context, teacherID int64) ([]models.TeacherSubmissionView, error) {
	const query = `SELECT s.id, s.assignment_id, s.student_id, s.filename, s.submitted_at,
			a.title AS assignment_title, a.class_name, u.full_name AS student_name
		FROM submissions s
		JOIN assignments a ON s.assignment_id = a.id
		JOIN accounts u ON s.student_id = u.id
		WHERE a.teacher_id = $1
		ORDER BY s.submitted_at DESC`
	views := []models.TeacherSubmissionView{}
	if err := r.db.SelectContext(ctx, &views, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher submissions: %w", err)
	}
	return views, nil
}

// ListSubmissionsForStudent returns the student's own submissions.
func (r *ClassworkRepository) ListSubmissionsForStudent(ctx context.Context, studentID int64) ([]models.StudentSubmissionView, error) {
	const query = `SELECT s.id, s.assignment_id, s.filename, s.submitted_at,
			a.title AS assignment_title, a.subject, a.class_name
		FROM submissions s
		JOIN assignments a ON s.assignment_id = a.id
		WHERE s.student_id = $1
		ORDER BY s.submitted_at DESC`
	views := []models.StudentSubmissionView{}
	if err := r.db.SelectContext(ctx, &views, query, studentID); err != nil {
		return nil, fmt.Errorf("list student submissions: %w", err)
	}
	return views, nil
}

// CreateGrade stores a teacher's score for a submission.
func (r *ClassworkRepository) CreateGrade(ctx context.Context, g *models.Grade) error {
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO grades (submission_id, teacher_id, score, max_points, created_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`
	if err := r.db.GetContext(ctx, &g.ID, query, g.SubmissionID, g.TeacherID, g.Score, g.MaxPoints, g.CreatedAt); err != nil {
		return fmt.Errorf("create grade: %w", err)
	}
	return nil
}

// ListGradesForStudent returns the student's grades newest-first with
// assignment context.
func (r *ClassworkRepository) ListGradesForStudent(ctx context.Context, studentID int64) ([]models.GradeView, error) {
	const query = `SELECT g.id, g.score, g.max_points, g.created_at,
			a.title AS assignment_title, a.subject, a.class_name
		FROM grades g
		JOIN submissions s ON g.submission_id = s.id
		JOIN assignments a ON s.assignment_id = a.id
		WHERE s.student_id = $1
		ORDER BY g.created_at DESC`
	views := []models.GradeView{}
	if err := r.db.SelectContext(ctx, &views, query, studentID); err != nil {
		return nil, fmt.Errorf("list student grades: %w", err)
	}
	return views, nil
}
