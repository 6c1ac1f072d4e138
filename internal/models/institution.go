package models

// InstitutionStatus is one-way: applications start pending and can only
// be approved. Deletion is permitted while pending only.
type InstitutionStatus string

const (
	InstitutionPending  InstitutionStatus = "pending"
	InstitutionApproved InstitutionStatus = "approved"
)

// Institution represents an organization's registration application.
type Institution struct {
	ID      int64             `db:"id" json:"id"`
	Name    string            `db:"name" json:"name"`
	Code    string            `db:"code" json:"code,omitempty"`
	Status  InstitutionStatus `db:"status" json:"status"`
	Country string            `db:"country" json:"country,omitempty"`
	City    string            `db:"city" json:"city,omitempty"`
	Details string            `db:"details" json:"details,omitempty"`
}
