package models

import "time"

// Assignment lifecycle statuses. Students only ever see Published work.
const (
	AssignmentDraft     = "Draft"
	AssignmentPublished = "Published"
)

// Assignment is coursework created by a teacher.
type Assignment struct {
	ID          int64     `db:"id" json:"id"`
	TeacherID   int64     `db:"teacher_id" json:"teacher_id"`
	Title       string    `db:"title" json:"title"`
	Subject     string    `db:"subject" json:"subject,omitempty"`
	ClassName   string    `db:"class_name" json:"class_name,omitempty"`
	DueDate     string    `db:"due_date" json:"due_date,omitempty"`
	MaxPoints   int       `db:"max_points" json:"max_points"`
	Status      string    `db:"status" json:"status"`
	Description string    `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Submission is a student's uploaded answer for an assignment. The raw
// bytes live in the row and are never serialized into API responses.
type Submission struct {
	ID           int64     `db:"id" json:"id"`
	AssignmentID int64     `db:"assignment_id" json:"assignment_id"`
	StudentID    int64     `db:"student_id" json:"student_id"`
	Filename     string    `db:"filename" json:"filename"`
	FileBytes    []byte    `db:"file_bytes" json:"-"`
	SubmittedAt  time.Time `db:"submitted_at" json:"submitted_at"`
}

// TeacherSubmissionView joins submission rows with assignment and student
// context for the teacher's inbox.
type TeacherSubmissionView struct {
	ID              int64     `db:"id" json:"id"`
	AssignmentID    int64     `db:"assignment_id" json:"assignment_id"`
	StudentID       int64     `db:"student_id" json:"student_id"`
	Filename        string    `db:"filename" json:"filename"`
	SubmittedAt     time.Time `db:"submitted_at" json:"submitted_at"`
	AssignmentTitle string    `db:"assignment_title" json:"assignment_title"`
	ClassName       string    `db:"class_name" json:"class_name,omitempty"`
	StudentName     string    `db:"student_name" json:"student_name"`
}

// StudentSubmissionView lists a student's own submissions.
type StudentSubmissionView struct {
	ID              int64     `db:"id" json:"id"`
	AssignmentID    int64     `db:"assignment_id" json:"assignment_id"`
	Filename        string    `db:"filename" json:"filename"`
	SubmittedAt     time.Time `db:"submitted_at" json:"submitted_at"`
	AssignmentTitle string    `db:"assignment_title" json:"assignment_title"`
	Subject         string    `db:"subject" json:"subject,omitempty"`
	ClassName       string    `db:"class_name" json:"class_name,omitempty"`
}

// Grade is a teacher's score for one submission.
type Grade struct {
	ID           int64     `db:"id" json:"id"`
	SubmissionID int64     `db:"submission_id" json:"submission_id"`
	TeacherID    int64     `db:"teacher_id" json:"teacher_id"`
	Score        float64   `db:"score" json:"score"`
	MaxPoints    float64   `db:"max_points" json:"max_points"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// GradeView joins grades with assignment context for the student's report.
type GradeView struct {
	ID              int64     `db:"id" json:"id"`
	Score           float64   `db:"score" json:"score"`
	MaxPoints       float64   `db:"max_points" json:"max_points"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	AssignmentTitle string    `db:"assignment_title" json:"assignment_title"`
	Subject         string    `db:"subject" json:"subject,omitempty"`
	ClassName       string    `db:"class_name" json:"class_name,omitempty"`
}
