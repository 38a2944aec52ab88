package companies

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlas-erp/accounting/internal/platform/db"
)

// Repository encapsulates DB operations for company and currency master data.
type Repository interface {
	InsertCompany(ctx context.Context, company Company) (Company, error)
	GetCompany(ctx context.Context, id uuid.UUID) (Company, error)
	ListCompanies(ctx context.Context, limit, offset int) ([]Company, int, error)
	UpdateCompany(ctx context.Context, company Company) error
	DeleteCompany(ctx context.Context, id uuid.UUID) error

	InsertCurrency(ctx context.Context, currency Currency) (Currency, error)
	GetCurrency(ctx context.Context, id uuid.UUID) (Currency, error)
	ListCurrencies(ctx context.Context, limit, offset int) ([]Currency, int, error)
	UpdateCurrency(ctx context.Context, currency Currency) error
	DeleteCurrency(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the pgx-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const (
	uqCompanyCode  = "uq_companies_code"
	uqCurrencyCode = "uq_currencies_code"
)

const companyColumns = `id, company_code, company_name, legal_name, parent_company_id, functional_currency_id, tax_id, is_active, created_at, updated_at`
const currencyColumns = `id, currency_code, currency_name, symbol, decimal_places, is_active, created_at, updated_at`

func scanCompany(row pgx.Row) (Company, error) {
	var c Company
	err := row.Scan(&c.ID, &c.Code, &c.Name, &c.LegalName, &c.ParentCompanyID,
		&c.FunctionalCurrencyID, &c.TaxID, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *repository) InsertCompany(ctx context.Context, company Company) (Company, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO companies
(company_code, company_name, legal_name, parent_company_id, functional_currency_id, tax_id, is_active)
VALUES ($1,$2,$3,$4,$5,$6,true)
RETURNING id, is_active, created_at, updated_at`,
		company.Code, company.Name, company.LegalName, company.ParentCompanyID, company.FunctionalCurrencyID, company.TaxID)
	if err := row.Scan(&company.ID, &company.IsActive, &company.CreatedAt, &company.UpdatedAt); err != nil {
		if db.IsUniqueViolation(err, uqCompanyCode) {
			return Company{}, ErrCompanyCodeTaken
		}
		return Company{}, err
	}
	return company, nil
}

func (r *repository) GetCompany(ctx context.Context, id uuid.UUID) (Company, error) {
	c, err := scanCompany(r.pool.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Company{}, ErrCompanyNotFound
		}
		return Company{}, err
	}
	return c, nil
}

func (r *repository) ListCompanies(ctx context.Context, limit, offset int) ([]Company, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM companies`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+companyColumns+` FROM companies ORDER BY company_code ASC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var companies []Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, 0, err
		}
		companies = append(companies, c)
	}
	return companies, total, rows.Err()
}

func (r *repository) UpdateCompany(ctx context.Context, company Company) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE companies SET company_code=$2, company_name=$3, legal_name=$4,
parent_company_id=$5, functional_currency_id=$6, tax_id=$7, is_active=$8, updated_at=NOW() WHERE id=$1`,
		company.ID, company.Code, company.Name, company.LegalName, company.ParentCompanyID,
		company.FunctionalCurrencyID, company.TaxID, company.IsActive)
	if err != nil {
		if db.IsUniqueViolation(err, uqCompanyCode) {
			return ErrCompanyCodeTaken
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrCompanyNotFound
	}
	return nil
}

func (r *repository) DeleteCompany(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM companies WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrCompanyNotFound
	}
	return nil
}

func (r *repository) InsertCurrency(ctx context.Context, currency Currency) (Currency, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO currencies (currency_code, currency_name, symbol, decimal_places, is_active)
VALUES ($1,$2,$3,$4,true) RETURNING id, is_active, created_at, updated_at`,
		currency.Code, currency.Name, currency.Symbol, currency.DecimalPlaces)
	if err := row.Scan(&currency.ID, &currency.IsActive, &currency.CreatedAt, &currency.UpdatedAt); err != nil {
		if db.IsUniqueViolation(err, uqCurrencyCode) {
			return Currency{}, ErrCurrencyCodeTaken
		}
		return Currency{}, err
	}
	return currency, nil
}

func (r *repository) GetCurrency(ctx context.Context, id uuid.UUID) (Currency, error) {
	var c Currency
	err := r.pool.QueryRow(ctx, `SELECT `+currencyColumns+` FROM currencies WHERE id=$1`, id).
		Scan(&c.ID, &c.Code, &c.Name, &c.Symbol, &c.DecimalPlaces, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Currency{}, ErrCurrencyNotFound
		}
		return Currency{}, err
	}
	return c, nil
}

func (r *repository) ListCurrencies(ctx context.Context, limit, offset int) ([]Currency, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM currencies`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+currencyColumns+` FROM currencies ORDER BY currency_code ASC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var currencies []Currency
	for rows.Next() {
		var c Currency
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.Symbol, &c.DecimalPlaces, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		currencies = append(currencies, c)
	}
	return currencies, total, rows.Err()
}

func (r *repository) UpdateCurrency(ctx context.Context, currency Currency) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE currencies SET currency_name=$2, symbol=$3, decimal_places=$4, is_active=$5, updated_at=NOW() WHERE id=$1`,
		currency.ID, currency.Name, currency.Symbol, currency.DecimalPlaces, currency.IsActive)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrCurrencyNotFound
	}
	return nil
}

func (r *repository) DeleteCurrency(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM currencies WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrCurrencyNotFound
	}
	return nil
}
