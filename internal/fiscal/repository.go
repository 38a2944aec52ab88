package fiscal

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository encapsulates DB operations for the fiscal calendar.
type Repository interface {
	InsertYear(ctx context.Context, year FiscalYear) (FiscalYear, error)
	GetYear(ctx context.Context, id uuid.UUID) (FiscalYear, error)
	ListYears(ctx context.Context, companyID *uuid.UUID, limit, offset int) ([]FiscalYear, int, error)
	UpdateYear(ctx context.Context, year FiscalYear) error
	DeleteYear(ctx context.Context, id uuid.UUID) error
	CountOpenPeriods(ctx context.Context, yearID uuid.UUID) (int, error)

	InsertPeriod(ctx context.Context, period FiscalPeriod) (FiscalPeriod, error)
	GetPeriod(ctx context.Context, id uuid.UUID) (FiscalPeriod, error)
	ListPeriods(ctx context.Context, yearID uuid.UUID) ([]FiscalPeriod, error)
	UpdatePeriod(ctx context.Context, period FiscalPeriod) error
	DeletePeriod(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the pgx-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const yearColumns = `id, company_id, year_code, start_date, end_date, is_closed, created_at, updated_at`
const periodColumns = `id, fiscal_year_id, period_number, period_name, start_date, end_date, is_closed, created_at, updated_at`

func (r *repository) InsertYear(ctx context.Context, year FiscalYear) (FiscalYear, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO fiscal_years (company_id, year_code, start_date, end_date, is_closed)
VALUES ($1,$2,$3,$4,false) RETURNING id, is_closed, created_at, updated_at`,
		year.CompanyID, year.YearCode, year.StartDate, year.EndDate)
	if err := row.Scan(&year.ID, &year.IsClosed, &year.CreatedAt, &year.UpdatedAt); err != nil {
		return FiscalYear{}, err
	}
	return year, nil
}

func (r *repository) GetYear(ctx context.Context, id uuid.UUID) (FiscalYear, error) {
	var y FiscalYear
	err := r.pool.QueryRow(ctx, `SELECT `+yearColumns+` FROM fiscal_years WHERE id=$1`, id).
		Scan(&y.ID, &y.CompanyID, &y.YearCode, &y.StartDate, &y.EndDate, &y.IsClosed, &y.CreatedAt, &y.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return FiscalYear{}, ErrYearNotFound
		}
		return FiscalYear{}, err
	}
	return y, nil
}

func (r *repository) ListYears(ctx context.Context, companyID *uuid.UUID, limit, offset int) ([]FiscalYear, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM fiscal_years WHERE ($1::uuid IS NULL OR company_id=$1)`, companyID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+yearColumns+` FROM fiscal_years WHERE ($1::uuid IS NULL OR company_id=$1) ORDER BY start_date DESC LIMIT $2 OFFSET $3`, companyID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var years []FiscalYear
	for rows.Next() {
		var y FiscalYear
		if err := rows.Scan(&y.ID, &y.CompanyID, &y.YearCode, &y.StartDate, &y.EndDate, &y.IsClosed, &y.CreatedAt, &y.UpdatedAt); err != nil {
			return nil, 0, err
		}
		years = append(years, y)
	}
	return years, total, rows.Err()
}

func (r *repository) UpdateYear(ctx context.Context, year FiscalYear) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE fiscal_years SET year_code=$2, start_date=$3, end_date=$4, is_closed=$5, updated_at=NOW() WHERE id=$1`,
		year.ID, year.YearCode, year.StartDate, year.EndDate, year.IsClosed)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrYearNotFound
	}
	return nil
}

func (r *repository) DeleteYear(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM fiscal_years WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrYearNotFound
	}
	return nil
}

func (r *repository) CountOpenPeriods(ctx context.Context, yearID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM fiscal_periods WHERE fiscal_year_id=$1 AND is_closed=false`, yearID).Scan(&count)
	return count, err
}

func (r *repository) InsertPeriod(ctx context.Context, period FiscalPeriod) (FiscalPeriod, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO fiscal_periods (fiscal_year_id, period_number, period_name, start_date, end_date, is_closed)
VALUES ($1,$2,$3,$4,$5,false) RETURNING id, is_closed, created_at, updated_at`,
		period.FiscalYearID, period.PeriodNumber, period.PeriodName, period.StartDate, period.EndDate)
	if err := row.Scan(&period.ID, &period.IsClosed, &period.CreatedAt, &period.UpdatedAt); err != nil {
		return FiscalPeriod{}, err
	}
	return period, nil
}

func (r *repository) GetPeriod(ctx context.Context, id uuid.UUID) (FiscalPeriod, error) {
	var p FiscalPeriod
	err := r.pool.QueryRow(ctx, `SELECT `+periodColumns+` FROM fiscal_periods WHERE id=$1`, id).
		Scan(&p.ID, &p.FiscalYearID, &p.PeriodNumber, &p.PeriodName, &p.StartDate, &p.EndDate, &p.IsClosed, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return FiscalPeriod{}, ErrPeriodNotFound
		}
		return FiscalPeriod{}, err
	}
	return p, nil
}

func (r *repository) ListPeriods(ctx context.Context, yearID uuid.UUID) ([]FiscalPeriod, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+periodColumns+` FROM fiscal_periods WHERE fiscal_year_id=$1 ORDER BY period_number ASC`, yearID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var periods []FiscalPeriod
	for rows.Next() {
		var p FiscalPeriod
		if err := rows.Scan(&p.ID, &p.FiscalYearID, &p.PeriodNumber, &p.PeriodName, &p.StartDate, &p.EndDate, &p.IsClosed, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

func (r *repository) UpdatePeriod(ctx context.Context, period FiscalPeriod) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE fiscal_periods SET period_number=$2, period_name=$3, start_date=$4, end_date=$5, is_closed=$6, updated_at=NOW() WHERE id=$1`,
		period.ID, period.PeriodNumber, period.PeriodName, period.StartDate, period.EndDate, period.IsClosed)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrPeriodNotFound
	}
	return nil
}

func (r *repository) DeletePeriod(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM fiscal_periods WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrPeriodNotFound
	}
	return nil
}
