package models

import "time"

// AccountRole enumerates the platform roles. The labels are stored
// verbatim, including the space in "Super Admin".
type AccountRole string

const (
	RoleStudent     AccountRole = "Student"
	RoleTeacher     AccountRole = "Teacher"
	RoleParent      AccountRole = "Parent"
	RoleInstitution AccountRole = "Institution"
	RoleSuperAdmin  AccountRole = "Super Admin"
)

// AccountStatus gates login. Transitions only between active and blocked,
// and only through an administrative status change.
type AccountStatus string

const (
	AccountActive  AccountStatus = "active"
	AccountBlocked AccountStatus = "blocked"
)

// Account represents one platform user stored in the accounts table.
// The code is the 10-digit public identifier assigned at registration,
// distinct from the internal numeric id.
type Account struct {
	ID               int64         `db:"id" json:"id"`
	Code             string        `db:"code" json:"code"`
	FullName         string        `db:"full_name" json:"full_name"`
	Email            string        `db:"email" json:"email"`
	PasswordHash     string        `db:"password_hash" json:"-"`
	Role             AccountRole   `db:"role" json:"role"`
	Phone            string        `db:"phone" json:"phone,omitempty"`
	DepartmentLabel  string        `db:"department_label" json:"department_label,omitempty"`
	InstitutionName  string        `db:"institution_name" json:"institution_name,omitempty"`
	TeacherRegNo     string        `db:"teacher_reg_no" json:"teacher_reg_no,omitempty"`
	StudentRegNo     string        `db:"student_reg_no" json:"student_reg_no,omitempty"`
	LinkedChildName  string        `db:"linked_child_name" json:"linked_child_name,omitempty"`
	LinkedChildRegNo string        `db:"linked_child_reg_no" json:"linked_child_reg_no,omitempty"`
	Status           AccountStatus `db:"status" json:"status"`
	CreatedAt        time.Time     `db:"created_at" json:"created_at"`
}

// AccountSummary is the public projection returned by directory listings.
// It never carries the password hash.
type AccountSummary struct {
	ID              int64         `db:"id" json:"id"`
	Code            string        `db:"code" json:"code"`
	FullName        string        `db:"full_name" json:"full_name"`
	Email           string        `db:"email" json:"email"`
	Role            AccountRole   `db:"role" json:"role"`
	Phone           string        `db:"phone" json:"phone,omitempty"`
	InstitutionName string        `db:"institution_name" json:"institution_name,omitempty"`
	DepartmentLabel string        `db:"department_label" json:"department_label,omitempty"`
	Status          AccountStatus `db:"status" json:"status"`
}

// AccountFilter captures the role-scoped query criteria for listings.
// Results are always ordered by creation order ascending.
type AccountFilter struct {
	Role            *AccountRole
	Status          *AccountStatus
	InstitutionName string
	DepartmentLabel string
}
