package models

// DepartmentRoster groups an institution's members the way the
// management console displays them.
type DepartmentRoster struct {
	InstitutionName string           `json:"institution_name"`
	DepartmentLabel string           `json:"department_label,omitempty"`
	Teachers        []AccountSummary `json:"teachers"`
	Students        []AccountSummary `json:"students"`
}
