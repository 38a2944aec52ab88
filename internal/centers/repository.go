package centers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlas-erp/accounting/internal/platform/db"
)

// Repository encapsulates DB operations for cost and profit centers.
type Repository interface {
	InsertCostCenter(ctx context.Context, cc CostCenter) (CostCenter, error)
	GetCostCenter(ctx context.Context, id uuid.UUID) (CostCenter, error)
	ListCostCenters(ctx context.Context, companyID *uuid.UUID, limit, offset int) ([]CostCenter, int, error)
	UpdateCostCenter(ctx context.Context, cc CostCenter) error
	DeleteCostCenter(ctx context.Context, id uuid.UUID) error

	InsertProfitCenter(ctx context.Context, pc ProfitCenter) (ProfitCenter, error)
	GetProfitCenter(ctx context.Context, id uuid.UUID) (ProfitCenter, error)
	ListProfitCenters(ctx context.Context, companyID *uuid.UUID, limit, offset int) ([]ProfitCenter, int, error)
	UpdateProfitCenter(ctx context.Context, pc ProfitCenter) error
	DeleteProfitCenter(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the pgx-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const (
	uqCostCenterCode   = "uq_cost_centers_code"
	uqProfitCenterCode = "uq_profit_centers_code"
)

const costCenterColumns = `id, company_id, cost_center_code, cost_center_name, center_type, parent_cost_center_id, profit_center_id, is_active, created_at, updated_at`
const profitCenterColumns = `id, company_id, profit_center_code, profit_center_name, center_type, parent_profit_center_id, is_active, created_at, updated_at`

func scanCostCenter(row pgx.Row) (CostCenter, error) {
	var cc CostCenter
	err := row.Scan(&cc.ID, &cc.CompanyID, &cc.Code, &cc.Name, &cc.CenterType,
		&cc.ParentCostCenterID, &cc.ProfitCenterID, &cc.IsActive, &cc.CreatedAt, &cc.UpdatedAt)
	return cc, err
}

func scanProfitCenter(row pgx.Row) (ProfitCenter, error) {
	var pc ProfitCenter
	err := row.Scan(&pc.ID, &pc.CompanyID, &pc.Code, &pc.Name, &pc.CenterType,
		&pc.ParentProfitCenterID, &pc.IsActive, &pc.CreatedAt, &pc.UpdatedAt)
	return pc, err
}

func (r *repository) InsertCostCenter(ctx context.Context, cc CostCenter) (CostCenter, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO cost_centers
(company_id, cost_center_code, cost_center_name, center_type, parent_cost_center_id, profit_center_id, is_active)
VALUES ($1,$2,$3,$4,$5,$6,true) RETURNING id, is_active, created_at, updated_at`,
		cc.CompanyID, cc.Code, cc.Name, cc.CenterType, cc.ParentCostCenterID, cc.ProfitCenterID)
	if err := row.Scan(&cc.ID, &cc.IsActive, &cc.CreatedAt, &cc.UpdatedAt); err != nil {
		if db.IsUniqueViolation(err, uqCostCenterCode) {
			return CostCenter{}, ErrCodeTaken
		}
		return CostCenter{}, err
	}
	return cc, nil
}

func (r *repository) GetCostCenter(ctx context.Context, id uuid.UUID) (CostCenter, error) {
	cc, err := scanCostCenter(r.pool.QueryRow(ctx, `SELECT `+costCenterColumns+` FROM cost_centers WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CostCenter{}, ErrCostCenterNotFound
		}
		return CostCenter{}, err
	}
	return cc, nil
}

func (r *repository) ListCostCenters(ctx context.Context, companyID *uuid.UUID, limit, offset int) ([]CostCenter, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM cost_centers WHERE ($1::uuid IS NULL OR company_id=$1)`, companyID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+costCenterColumns+` FROM cost_centers WHERE ($1::uuid IS NULL OR company_id=$1) ORDER BY cost_center_code ASC LIMIT $2 OFFSET $3`, companyID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var ccs []CostCenter
	for rows.Next() {
		cc, err := scanCostCenter(rows)
		if err != nil {
			return nil, 0, err
		}
		ccs = append(ccs, cc)
	}
	return ccs, total, rows.Err()
}

func (r *repository) UpdateCostCenter(ctx context.Context, cc CostCenter) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE cost_centers SET cost_center_code=$2, cost_center_name=$3, center_type=$4,
parent_cost_center_id=$5, profit_center_id=$6, is_active=$7, updated_at=NOW() WHERE id=$1`,
		cc.ID, cc.Code, cc.Name, cc.CenterType, cc.ParentCostCenterID, cc.ProfitCenterID, cc.IsActive)
	if err != nil {
		if db.IsUniqueViolation(err, uqCostCenterCode) {
			return ErrCodeTaken
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrCostCenterNotFound
	}
	return nil
}

func (r *repository) DeleteCostCenter(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM cost_centers WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrCostCenterNotFound
	}
	return nil
}

func (r *repository) InsertProfitCenter(ctx context.Context, pc ProfitCenter) (ProfitCenter, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO profit_centers
(company_id, profit_center_code, profit_center_name, center_type, parent_profit_center_id, is_active)
VALUES ($1,$2,$3,$4,$5,true) RETURNING id, is_active, created_at, updated_at`,
		pc.CompanyID, pc.Code, pc.Name, pc.CenterType, pc.ParentProfitCenterID)
	if err := row.Scan(&pc.ID, &pc.IsActive, &pc.CreatedAt, &pc.UpdatedAt); err != nil {
		if db.IsUniqueViolation(err, uqProfitCenterCode) {
			return ProfitCenter{}, ErrCodeTaken
		}
		return ProfitCenter{}, err
	}
	return pc, nil
}

func (r *repository) GetProfitCenter(ctx context.Context, id uuid.UUID) (ProfitCenter, error) {
	pc, err := scanProfitCenter(r.pool.QueryRow(ctx, `SELECT `+profitCenterColumns+` FROM profit_centers WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ProfitCenter{}, ErrProfitCenterNotFound
		}
		return ProfitCenter{}, err
	}
	return pc, nil
}

func (r *repository) ListProfitCenters(ctx context.Context, companyID *uuid.UUID, limit, offset int) ([]ProfitCenter, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM profit_centers WHERE ($1::uuid IS NULL OR company_id=$1)`, companyID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+profitCenterColumns+` FROM profit_centers WHERE ($1::uuid IS NULL OR company_id=$1) ORDER BY profit_center_code ASC LIMIT $2 OFFSET $3`, companyID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var pcs []ProfitCenter
	for rows.Next() {
		pc, err := scanProfitCenter(rows)
		if err != nil {
			return nil, 0, err
		}
		pcs = append(pcs, pc)
	}
	return pcs, total, rows.Err()
}

func (r *repository) UpdateProfitCenter(ctx context.Context, pc ProfitCenter) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE profit_centers SET profit_center_code=$2, profit_center_name=$3, center_type=$4,
parent_profit_center_id=$5, is_active=$6, updated_at=NOW() WHERE id=$1`,
		pc.ID, pc.Code, pc.Name, pc.CenterType, pc.ParentProfitCenterID, pc.IsActive)
	if err != nil {
		if db.IsUniqueViolation(err, uqProfitCenterCode) {
			return ErrCodeTaken
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrProfitCenterNotFound
	}
	return nil
}

func (r *repository) DeleteProfitCenter(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM profit_centers WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrProfitCenterNotFound
	}
	return nil
}
