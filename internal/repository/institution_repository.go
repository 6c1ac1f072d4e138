package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sanzad/portal-api/internal/models"
)

// InstitutionRepository provides database access for institution
// applications.
type InstitutionRepository struct {
	db *sqlx.DB
}

// NewInstitutionRepository creates a new instance of InstitutionRepository.
func NewInstitutionRepository(db *sqlx.DB) *InstitutionRepository {
	return &InstitutionRepository{db: db}
}

const institutionColumns = `id, name, code, status, country, city, details`

// Apply inserts a pending application unless the name already exists.
// Returns false without error when the name is taken; the existing row
// is left untouched.
func (r *InstitutionRepository) Apply(ctx context.Context, inst *models.Institution) (bool, error) {
	const query = `INSERT INTO institutions (name, code, status, country, city, details)
		VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT (name) DO NOTHING`
	res, err := r.db.ExecContext(ctx, query, inst.Name, inst.Code, models.InstitutionPending, inst.Country, inst.City, inst.Details)
	if err != nil {
		return false, fmt.Errorf("apply institution: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("apply institution rows: %w", err)
	}
	return rows > 0, nil
}

// FindByName returns an institution by its unique name.
func (r *InstitutionRepository) FindByName(ctx context.Context, name string) (*models.Institution, error) {
	query := `SELECT ` + institutionColumns + ` FROM institutions WHERE name = $1 LIMIT 1`
	var inst models.Institution
	if err := r.db.GetContext(ctx, &inst, query, name); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find institution by name: %w", err)
	}
	return &inst, nil
}

// Approve flips the status to approved. A non-nil code overwrites the
// stored code; nil preserves whatever was assigned before.
func (r *InstitutionRepository) Approve(ctx context.Context, name string, code *string) (int64, error) {
	var (
		res sql.Result
		err error
	)
	if code != nil {
		res, err = r.db.ExecContext(ctx, `UPDATE institutions SET status = $2, code = $3 WHERE name = $1`, name, models.InstitutionApproved, *code)
	} else {
		res, err = r.db.ExecContext(ctx, `UPDATE institutions SET status = $2 WHERE name = $1`, name, models.InstitutionApproved)
	}
	if err != nil {
		return 0, fmt.Errorf("approve institution: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("approve institution rows: %w", err)
	}
	return rows, nil
}

// DeletePending removes the row only while it is still pending.
func (r *InstitutionRepository) DeletePending(ctx context.Context, name string) (int64, error) {
	const query = `DELETE FROM institutions WHERE name = $1 AND status = $2`
	res, err := r.db.ExecContext(ctx, query, name, models.InstitutionPending)
	if err != nil {
		return 0, fmt.Errorf("delete pending institution: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete pending institution rows: %w", err)
	}
	return rows, nil
}

// List returns institutions, optionally filtered to one status value,
// in store order.
func (r *InstitutionRepository) List(ctx context.Context, status *models.InstitutionStatus) ([]models.Institution, error) {
	institutions := []models.Institution{}
	if status != nil {
		query := `SELECT ` + institutionColumns + ` FROM institutions WHERE status = $1 ORDER BY id ASC`
		if err := r.db.SelectContext(ctx, &institutions, query, *status); err != nil {
			return nil, fmt.Errorf("list institutions: %w", err)
		}
		return institutions, nil
	}
	query := `SELECT ` + institutionColumns + ` FROM institutions ORDER BY id ASC`
	if err := r.db.SelectContext(ctx, &institutions, query); err != nil {
		return nil, fmt.Errorf("list institutions: %w", err)
	}
	return institutions, nil
}
