package accounts

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlas-erp/accounting/internal/platform/db"
)

// ListFilter narrows List results.
type ListFilter struct {
	CompanyID *uuid.UUID
	Category  *Category
	Active    *bool
	Search    string
	Limit     int
	Offset    int
}

// Repository encapsulates DB operations for the chart of accounts.
type Repository interface {
	Insert(ctx context.Context, account Account) (Account, error)
	Get(ctx context.Context, id uuid.UUID) (Account, error)
	List(ctx context.Context, filter ListFilter) ([]Account, int, error)
	ListByCompany(ctx context.Context, companyID uuid.UUID) ([]Account, error)
	Update(ctx context.Context, account Account) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the pgx-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const uqAccountCode = "uq_account_code_per_company"

const accountColumns = `id, company_id, account_code, account_name, account_category, account_type,
parent_account_id, is_control_account, is_inter_company, cost_center_required, is_active, created_at, updated_at`

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.CompanyID, &a.Code, &a.Name, &a.Category, &a.Type,
		&a.ParentAccountID, &a.IsControlAccount, &a.IsInterCompany, &a.CostCenterRequired,
		&a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (r *repository) Insert(ctx context.Context, account Account) (Account, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO accounts
(company_id, account_code, account_name, account_category, account_type, parent_account_id,
 is_control_account, is_inter_company, cost_center_required, is_active)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,true)
RETURNING id, is_active, created_at, updated_at`,
		account.CompanyID, account.Code, account.Name, account.Category, account.Type,
		account.ParentAccountID, account.IsControlAccount, account.IsInterCompany, account.CostCenterRequired)
	if err := row.Scan(&account.ID, &account.IsActive, &account.CreatedAt, &account.UpdatedAt); err != nil {
		if db.IsUniqueViolation(err, uqAccountCode) {
			return Account{}, ErrCodeTaken
		}
		return Account{}, err
	}
	return account, nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (Account, error) {
	a, err := scanAccount(r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	return a, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Account, int, error) {
	// Substring search matches code or name, case-insensitive.
	where := `($1::uuid IS NULL OR company_id=$1)
AND ($2::text IS NULL OR account_category=$2)
AND ($3::boolean IS NULL OR is_active=$3)
AND ($4::text = '' OR account_code ILIKE '%' || $4 || '%' OR account_name ILIKE '%' || $4 || '%')`
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM accounts WHERE `+where,
		filter.CompanyID, filter.Category, filter.Active, filter.Search).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE `+where+
		` ORDER BY account_code ASC LIMIT $5 OFFSET $6`,
		filter.CompanyID, filter.Category, filter.Active, filter.Search, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, 0, err
		}
		accounts = append(accounts, a)
	}
	return accounts, total, rows.Err()
}

func (r *repository) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]Account, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE company_id=$1 ORDER BY account_code ASC`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *repository) Update(ctx context.Context, account Account) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE accounts SET account_code=$2, account_name=$3, account_category=$4,
account_type=$5, parent_account_id=$6, is_control_account=$7, is_inter_company=$8,
cost_center_required=$9, is_active=$10, updated_at=NOW() WHERE id=$1`,
		account.ID, account.Code, account.Name, account.Category, account.Type, account.ParentAccountID,
		account.IsControlAccount, account.IsInterCompany, account.CostCenterRequired, account.IsActive)
	if err != nil {
		if db.IsUniqueViolation(err, uqAccountCode) {
			return ErrCodeTaken
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM accounts WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
