package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sanzad/portal-api/internal/models"
)

// AccountRepository provides database access for account records.
type AccountRepository struct {
	db *sqlx.DB
}

// NewAccountRepository creates a new instance of AccountRepository.
func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, code, full_name, email, password_hash, role, phone, department_label, institution_name, teacher_reg_no, student_reg_no, linked_child_name, linked_child_reg_no, status, created_at`

// FindByEmail returns an account by normalized email address.
func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1 LIMIT 1`
	var account models.Account
	if err := r.db.GetContext(ctx, &account, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find account by email: %w", err)
	}
	return &account, nil
}

// FindByID returns an account by internal identifier.
func (r *AccountRepository) FindByID(ctx context.Context, id int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 LIMIT 1`
	var account models.Account
	if err := r.db.GetContext(ctx, &account, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find account by id: %w", err)
	}
	return &account, nil
}

// LastCode returns the code of the most recently inserted account.
// Returns sql.ErrNoRows untouched when the store is empty.
func (r *AccountRepository) LastCode(ctx context.Context) (string, error) {
	const query = `SELECT code FROM accounts ORDER BY id DESC LIMIT 1`
	var code string
	if err := r.db.GetContext(ctx, &code, query); err != nil {
		if err == sql.ErrNoRows {
			return "", err
		}
		return "", fmt.Errorf("last account code: %w", err)
	}
	return code, nil
}

// Create inserts a new account and fills in the assigned identifier.
// Unique violations on email or code are returned untouched so the
// service layer can map them to the right rejection.
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO accounts (code, full_name, email, password_hash, role, phone, department_label, institution_name, teacher_reg_no, student_reg_no, linked_child_name, linked_child_reg_no, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14) RETURNING id`
	if err := r.db.GetContext(ctx, &account.ID, query,
		account.Code,
		account.FullName,
		account.Email,
		account.PasswordHash,
		account.Role,
		account.Phone,
		account.DepartmentLabel,
		account.InstitutionName,
		account.TeacherRegNo,
		account.StudentRegNo,
		account.LinkedChildName,
		account.LinkedChildRegNo,
		account.Status,
		account.CreatedAt,
	); err != nil {
		return err
	}
	return nil
}

// UpdateStatus overwrites the status field, returning the number of rows
// touched so callers can report absent ids.
func (r *AccountRepository) UpdateStatus(ctx context.Context, id int64, status models.AccountStatus) (int64, error) {
	const query = `UPDATE accounts SET status = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return 0, fmt.Errorf("update account status: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update account status rows: %w", err)
	}
	return rows, nil
}

// List returns the public projection of accounts matching the filter,
// ordered by creation order ascending. Full scan by design at demo scale.
func (r *AccountRepository) List(ctx context.Context, filter models.AccountFilter) ([]models.AccountSummary, error) {
	query := `SELECT id, code, full_name, email, role, phone, institution_name, department_label, status FROM accounts WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Role != nil {
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)+1))
		args = append(args, *filter.Role)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.InstitutionName != "" {
		conditions = append(conditions, fmt.Sprintf("institution_name = $%d", len(args)+1))
		args = append(args, filter.InstitutionName)
	}
	if filter.DepartmentLabel != "" {
		conditions = append(conditions, fmt.Sprintf("department_label = $%d", len(args)+1))
		args = append(args, filter.DepartmentLabel)
	}

	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id ASC"

	accounts := []models.AccountSummary{}
	if err := r.db.SelectContext(ctx, &accounts, query, args...); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// CreateAuditLog stores an audit trail entry.
func (r *AccountRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, account_id, action, resource, detail, ip_address, user_agent, created_at) VALUES (:id, :account_id, :action, :resource, :detail, :ip_address, :user_agent, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}
