package models

import (
	"encoding/json"
	"time"
)

// Audit actions recorded by the identity subsystem.
const (
	AuditActionRegister           = "account.register"
	AuditActionLogin              = "auth.login"
	AuditActionLogout             = "auth.logout"
	AuditActionStatusChange       = "account.status_change"
	AuditActionInstitutionApprove = "institution.approve"
	AuditActionInstitutionDelete  = "institution.delete"
)

// AuditLog stores a single audit trail entry.
type AuditLog struct {
	ID        string          `db:"id" json:"id"`
	AccountID *int64          `db:"account_id" json:"account_id,omitempty"`
	Action    string          `db:"action" json:"action"`
	Resource  string          `db:"resource" json:"resource"`
	Detail    json.RawMessage `db:"detail" json:"detail,omitempty"`
	IPAddress string          `db:"ip_address" json:"ip_address,omitempty"`
	UserAgent string          `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}
