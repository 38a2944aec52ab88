package budgets

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlas-erp/accounting/internal/platform/db"
)

// BudgetFilter narrows budget listings.
type BudgetFilter struct {
	CompanyID    *uuid.UUID
	FiscalYearID *uuid.UUID
	Status       *Status
	Limit        int
	Offset       int
}

// Repository encapsulates DB operations for the budgeting hierarchy.
// Child rows (lines, period lines, approvals, allocations, audit log) hang
// off their parents with ON DELETE CASCADE foreign keys, so deleting a
// budget removes the whole subtree in one statement.
type Repository interface {
	InsertBudget(ctx context.Context, b Budget) (Budget, error)
	GetBudget(ctx context.Context, id uuid.UUID) (Budget, error)
	ListBudgets(ctx context.Context, filter BudgetFilter) ([]Budget, int, error)
	UpdateBudget(ctx context.Context, b Budget) error
	DeleteBudget(ctx context.Context, id uuid.UUID) error

	InsertLine(ctx context.Context, line Line) (Line, error)
	GetLine(ctx context.Context, id uuid.UUID) (Line, error)
	ListLines(ctx context.Context, budgetID uuid.UUID) ([]Line, error)
	UpdateLine(ctx context.Context, line Line) error
	DeleteLine(ctx context.Context, id uuid.UUID) error

	InsertPeriodLine(ctx context.Context, pl PeriodLine) (PeriodLine, error)
	GetPeriodLine(ctx context.Context, id uuid.UUID) (PeriodLine, error)
	ListPeriodLines(ctx context.Context, lineID uuid.UUID) ([]PeriodLine, error)
	UpdatePeriodLine(ctx context.Context, pl PeriodLine) error
	DeletePeriodLine(ctx context.Context, id uuid.UUID) error

	InsertApproval(ctx context.Context, a Approval) (Approval, error)
	GetApproval(ctx context.Context, id uuid.UUID) (Approval, error)
	ListApprovals(ctx context.Context, budgetID uuid.UUID) ([]Approval, error)
	UpdateApproval(ctx context.Context, a Approval) error
	DeleteApproval(ctx context.Context, id uuid.UUID) error

	InsertAllocation(ctx context.Context, a Allocation) (Allocation, error)
	GetAllocation(ctx context.Context, id uuid.UUID) (Allocation, error)
	ListAllocations(ctx context.Context, budgetID uuid.UUID) ([]Allocation, error)
	UpdateAllocation(ctx context.Context, a Allocation) error
	DeleteAllocation(ctx context.Context, id uuid.UUID) error

	InsertAllocationLine(ctx context.Context, al AllocationLine) (AllocationLine, error)
	GetAllocationLine(ctx context.Context, id uuid.UUID) (AllocationLine, error)
	ListAllocationLines(ctx context.Context, allocationID uuid.UUID) ([]AllocationLine, error)
	DeleteAllocationLine(ctx context.Context, id uuid.UUID) error

	InsertTemplate(ctx context.Context, t Template) (Template, error)
	GetTemplate(ctx context.Context, id uuid.UUID) (Template, error)
	ListTemplates(ctx context.Context, companyID *uuid.UUID, limit, offset int) ([]Template, int, error)
	UpdateTemplate(ctx context.Context, t Template) error
	DeleteTemplate(ctx context.Context, id uuid.UUID) error

	InsertVariance(ctx context.Context, v Variance) (Variance, error)
	GetVariance(ctx context.Context, id uuid.UUID) (Variance, error)
	ListVariances(ctx context.Context, lineID *uuid.UUID, limit, offset int) ([]Variance, int, error)
	UpdateVariance(ctx context.Context, v Variance) error
	DeleteVariance(ctx context.Context, id uuid.UUID) error

	InsertAudit(ctx context.Context, entry AuditLog) (AuditLog, error)
	ListAudit(ctx context.Context, budgetID uuid.UUID, filter AuditFilter) ([]AuditLog, int, error)
	SummarizeAudit(ctx context.Context, budgetID uuid.UUID) ([]AuditSummary, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the pgx-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const (
	uqBudgetCode   = "uq_budget_code_per_company_year"
	uqTemplateCode = "uq_budget_templates_code_per_company"
)

const budgetColumns = `id, company_id, fiscal_year_id, budget_code, budget_name, budget_type, status,
parent_budget_id, budget_currency_id, start_date, end_date, allocation_method, description, notes, is_locked,
created_at, updated_at`

func scanBudget(row pgx.Row) (Budget, error) {
	var b Budget
	err := row.Scan(&b.ID, &b.CompanyID, &b.FiscalYearID, &b.Code, &b.Name, &b.BudgetType, &b.Status,
		&b.ParentBudgetID, &b.CurrencyID, &b.StartDate, &b.EndDate, &b.AllocationMethod,
		&b.Description, &b.Notes, &b.IsLocked, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func (r *repository) InsertBudget(ctx context.Context, b Budget) (Budget, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO budgets
(company_id, fiscal_year_id, budget_code, budget_name, budget_type, status, parent_budget_id,
 budget_currency_id, start_date, end_date, allocation_method, description, notes, is_locked)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,false)
RETURNING id, status, is_locked, created_at, updated_at`,
		b.CompanyID, b.FiscalYearID, b.Code, b.Name, b.BudgetType, StatusDraft, b.ParentBudgetID,
		b.CurrencyID, b.StartDate, b.EndDate, b.AllocationMethod, b.Description, b.Notes)
	if err := row.Scan(&b.ID, &b.Status, &b.IsLocked, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if db.IsUniqueViolation(err, uqBudgetCode) {
			return Budget{}, ErrCodeTaken
		}
		return Budget{}, err
	}
	return b, nil
}

func (r *repository) GetBudget(ctx context.Context, id uuid.UUID) (Budget, error) {
	b, err := scanBudget(r.pool.QueryRow(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Budget{}, ErrBudgetNotFound
		}
		return Budget{}, err
	}
	return b, nil
}

func (r *repository) ListBudgets(ctx context.Context, filter BudgetFilter) ([]Budget, int, error) {
	where := `($1::uuid IS NULL OR company_id=$1) AND ($2::uuid IS NULL OR fiscal_year_id=$2) AND ($3::text IS NULL OR status=$3)`
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM budgets WHERE `+where,
		filter.CompanyID, filter.FiscalYearID, filter.Status).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE `+where+
		` ORDER BY budget_code ASC LIMIT $4 OFFSET $5`,
		filter.CompanyID, filter.FiscalYearID, filter.Status, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var budgets []Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, 0, err
		}
		budgets = append(budgets, b)
	}
	return budgets, total, rows.Err()
}

func (r *repository) UpdateBudget(ctx context.Context, b Budget) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE budgets SET budget_code=$2, budget_name=$3, budget_type=$4, status=$5,
start_date=$6, end_date=$7, allocation_method=$8, description=$9, notes=$10, is_locked=$11, updated_at=NOW()
WHERE id=$1`,
		b.ID, b.Code, b.Name, b.BudgetType, b.Status, b.StartDate, b.EndDate, b.AllocationMethod,
		b.Description, b.Notes, b.IsLocked)
	if err != nil {
		if db.IsUniqueViolation(err, uqBudgetCode) {
			return ErrCodeTaken
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrBudgetNotFound
	}
	return nil
}

func (r *repository) DeleteBudget(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM budgets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrBudgetNotFound
	}
	return nil
}

const lineColumns = `id, budget_id, line_number, account_id, annual_budget_amount, description, notes, created_at, updated_at`

func scanLine(row pgx.Row) (Line, error) {
	var l Line
	err := row.Scan(&l.ID, &l.BudgetID, &l.LineNumber, &l.AccountID, &l.AnnualAmount,
		&l.Description, &l.Notes, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

func (r *repository) InsertLine(ctx context.Context, line Line) (Line, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO budget_lines
(budget_id, line_number, account_id, annual_budget_amount, description, notes)
VALUES ($1, (SELECT COALESCE(MAX(line_number),0)+1 FROM budget_lines WHERE budget_id=$1), $2, $3, $4, $5)
RETURNING id, line_number, created_at, updated_at`,
		line.BudgetID, line.AccountID, line.AnnualAmount, line.Description, line.Notes)
	if err := row.Scan(&line.ID, &line.LineNumber, &line.CreatedAt, &line.UpdatedAt); err != nil {
		return Line{}, err
	}
	return line, nil
}

func (r *repository) GetLine(ctx context.Context, id uuid.UUID) (Line, error) {
	l, err := scanLine(r.pool.QueryRow(ctx, `SELECT `+lineColumns+` FROM budget_lines WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Line{}, ErrLineNotFound
		}
		return Line{}, err
	}
	return l, nil
}

func (r *repository) ListLines(ctx context.Context, budgetID uuid.UUID) ([]Line, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+lineColumns+` FROM budget_lines WHERE budget_id=$1 ORDER BY line_number ASC`, budgetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []Line
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *repository) UpdateLine(ctx context.Context, line Line) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE budget_lines SET account_id=$2, annual_budget_amount=$3, description=$4, notes=$5, updated_at=NOW() WHERE id=$1`,
		line.ID, line.AccountID, line.AnnualAmount, line.Description, line.Notes)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrLineNotFound
	}
	return nil
}

func (r *repository) DeleteLine(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM budget_lines WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrLineNotFound
	}
	return nil
}

const periodLineColumns = `id, budget_line_id, fiscal_period_id, budget_amount, notes, created_at, updated_at`

func scanPeriodLine(row pgx.Row) (PeriodLine, error) {
	var pl PeriodLine
	err := row.Scan(&pl.ID, &pl.BudgetLineID, &pl.FiscalPeriodID, &pl.Amount, &pl.Notes, &pl.CreatedAt, &pl.UpdatedAt)
	return pl, err
}

func (r *repository) InsertPeriodLine(ctx context.Context, pl PeriodLine) (PeriodLine, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO budget_period_lines (budget_line_id, fiscal_period_id, budget_amount, notes)
VALUES ($1,$2,$3,$4) RETURNING id, created_at, updated_at`,
		pl.BudgetLineID, pl.FiscalPeriodID, pl.Amount, pl.Notes)
	if err := row.Scan(&pl.ID, &pl.CreatedAt, &pl.UpdatedAt); err != nil {
		return PeriodLine{}, err
	}
	return pl, nil
}

func (r *repository) GetPeriodLine(ctx context.Context, id uuid.UUID) (PeriodLine, error) {
	pl, err := scanPeriodLine(r.pool.QueryRow(ctx, `SELECT `+periodLineColumns+` FROM budget_period_lines WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PeriodLine{}, ErrPeriodLineNotFound
		}
		return PeriodLine{}, err
	}
	return pl, nil
}

func (r *repository) ListPeriodLines(ctx context.Context, lineID uuid.UUID) ([]PeriodLine, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+periodLineColumns+` FROM budget_period_lines WHERE budget_line_id=$1 ORDER BY created_at ASC`, lineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var pls []PeriodLine
	for rows.Next() {
		pl, err := scanPeriodLine(rows)
		if err != nil {
			return nil, err
		}
		pls = append(pls, pl)
	}
	return pls, rows.Err()
}

func (r *repository) UpdatePeriodLine(ctx context.Context, pl PeriodLine) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE budget_period_lines SET budget_amount=$2, notes=$3, updated_at=NOW() WHERE id=$1`,
		pl.ID, pl.Amount, pl.Notes)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrPeriodLineNotFound
	}
	return nil
}

func (r *repository) DeletePeriodLine(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM budget_period_lines WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrPeriodLineNotFound
	}
	return nil
}

const approvalColumns = `id, budget_id, approval_level, approver_id, approver_name, approver_role, approval_date, approval_status, comments, created_at, updated_at`

func scanApproval(row pgx.Row) (Approval, error) {
	var a Approval
	err := row.Scan(&a.ID, &a.BudgetID, &a.ApprovalLevel, &a.ApproverID, &a.ApproverName,
		&a.ApproverRole, &a.ApprovalDate, &a.Status, &a.Comments, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (r *repository) InsertApproval(ctx context.Context, a Approval) (Approval, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO budget_approvals
(budget_id, approval_level, approver_id, approver_name, approver_role, approval_status, comments)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id, approval_status, created_at, updated_at`,
		a.BudgetID, a.ApprovalLevel, a.ApproverID, a.ApproverName, a.ApproverRole, ApprovalPending, a.Comments)
	if err := row.Scan(&a.ID, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return Approval{}, err
	}
	return a, nil
}

func (r *repository) GetApproval(ctx context.Context, id uuid.UUID) (Approval, error) {
	a, err := scanApproval(r.pool.QueryRow(ctx, `SELECT `+approvalColumns+` FROM budget_approvals WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Approval{}, ErrApprovalNotFound
		}
		return Approval{}, err
	}
	return a, nil
}

func (r *repository) ListApprovals(ctx context.Context, budgetID uuid.UUID) ([]Approval, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+approvalColumns+` FROM budget_approvals WHERE budget_id=$1 ORDER BY approval_level ASC`, budgetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var approvals []Approval
	for rows.Next() {
		a, err := scanApproval(rows)
		if err != nil {
			return nil, err
		}
		approvals = append(approvals, a)
	}
	return approvals, rows.Err()
}

func (r *repository) UpdateApproval(ctx context.Context, a Approval) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE budget_approvals SET approval_status=$2, approval_date=$3, comments=$4, updated_at=NOW() WHERE id=$1`,
		a.ID, a.Status, a.ApprovalDate, a.Comments)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrApprovalNotFound
	}
	return nil
}

func (r *repository) DeleteApproval(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM budget_approvals WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrApprovalNotFound
	}
	return nil
}

const allocationColumns = `id, budget_id, source_budget_line_id, allocation_name, total_amount_to_allocate, allocation_method, status, description, created_at, updated_at`

func scanAllocation(row pgx.Row) (Allocation, error) {
	var a Allocation
	err := row.Scan(&a.ID, &a.BudgetID, &a.SourceBudgetLineID, &a.Name, &a.TotalAmount,
		&a.Method, &a.Status, &a.Description, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (r *repository) InsertAllocation(ctx context.Context, a Allocation) (Allocation, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO budget_allocations
(budget_id, source_budget_line_id, allocation_name, total_amount_to_allocate, allocation_method, status, description)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id, status, created_at, updated_at`,
		a.BudgetID, a.SourceBudgetLineID, a.Name, a.TotalAmount, a.Method, ApprovalPending, a.Description)
	if err := row.Scan(&a.ID, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return Allocation{}, err
	}
	return a, nil
}

func (r *repository) GetAllocation(ctx context.Context, id uuid.UUID) (Allocation, error) {
	a, err := scanAllocation(r.pool.QueryRow(ctx, `SELECT `+allocationColumns+` FROM budget_allocations WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Allocation{}, ErrAllocationNotFound
		}
		return Allocation{}, err
	}
	return a, nil
}

func (r *repository) ListAllocations(ctx context.Context, budgetID uuid.UUID) ([]Allocation, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+allocationColumns+` FROM budget_allocations WHERE budget_id=$1 ORDER BY created_at ASC`, budgetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var allocations []Allocation
	for rows.Next() {
		a, err := scanAllocation(rows)
		if err != nil {
			return nil, err
		}
		allocations = append(allocations, a)
	}
	return allocations, rows.Err()
}

func (r *repository) UpdateAllocation(ctx context.Context, a Allocation) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE budget_allocations SET allocation_name=$2, total_amount_to_allocate=$3, status=$4, description=$5, updated_at=NOW() WHERE id=$1`,
		a.ID, a.Name, a.TotalAmount, a.Status, a.Description)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAllocationNotFound
	}
	return nil
}

func (r *repository) DeleteAllocation(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM budget_allocations WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAllocationNotFound
	}
	return nil
}

const allocationLineColumns = `id, allocation_id, target_budget_line_id, allocation_percentage, allocated_amount, created_at, updated_at`

func scanAllocationLine(row pgx.Row) (AllocationLine, error) {
	var al AllocationLine
	err := row.Scan(&al.ID, &al.AllocationID, &al.TargetBudgetLineID, &al.Percentage, &al.Amount, &al.CreatedAt, &al.UpdatedAt)
	return al, err
}

func (r *repository) InsertAllocationLine(ctx context.Context, al AllocationLine) (AllocationLine, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO budget_allocation_lines (allocation_id, target_budget_line_id, allocation_percentage, allocated_amount)
VALUES ($1,$2,$3,$4) RETURNING id, created_at, updated_at`,
		al.AllocationID, al.TargetBudgetLineID, al.Percentage, al.Amount)
	if err := row.Scan(&al.ID, &al.CreatedAt, &al.UpdatedAt); err != nil {
		return AllocationLine{}, err
	}
	return al, nil
}

func (r *repository) GetAllocationLine(ctx context.Context, id uuid.UUID) (AllocationLine, error) {
	al, err := scanAllocationLine(r.pool.QueryRow(ctx, `SELECT `+allocationLineColumns+` FROM budget_allocation_lines WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AllocationLine{}, ErrAllocationLineNotFound
		}
		return AllocationLine{}, err
	}
	return al, nil
}

func (r *repository) ListAllocationLines(ctx context.Context, allocationID uuid.UUID) ([]AllocationLine, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+allocationLineColumns+` FROM budget_allocation_lines WHERE allocation_id=$1 ORDER BY created_at ASC`, allocationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var als []AllocationLine
	for rows.Next() {
		al, err := scanAllocationLine(rows)
		if err != nil {
			return nil, err
		}
		als = append(als, al)
	}
	return als, rows.Err()
}

func (r *repository) DeleteAllocationLine(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM budget_allocation_lines WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAllocationLineNotFound
	}
	return nil
}

const templateColumns = `id, company_id, template_code, template_name, budget_type, template_data, description, created_at, updated_at`

func scanTemplate(row pgx.Row) (Template, error) {
	var t Template
	err := row.Scan(&t.ID, &t.CompanyID, &t.Code, &t.Name, &t.BudgetType, &t.TemplateData, &t.Description, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (r *repository) InsertTemplate(ctx context.Context, t Template) (Template, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO budget_templates (company_id, template_code, template_name, budget_type, template_data, description)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING id, created_at, updated_at`,
		t.CompanyID, t.Code, t.Name, t.BudgetType, t.TemplateData, t.Description)
	if err := row.Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if db.IsUniqueViolation(err, uqTemplateCode) {
			return Template{}, ErrTemplateCodeTaken
		}
		return Template{}, err
	}
	return t, nil
}

func (r *repository) GetTemplate(ctx context.Context, id uuid.UUID) (Template, error) {
	t, err := scanTemplate(r.pool.QueryRow(ctx, `SELECT `+templateColumns+` FROM budget_templates WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Template{}, ErrTemplateNotFound
		}
		return Template{}, err
	}
	return t, nil
}

func (r *repository) ListTemplates(ctx context.Context, companyID *uuid.UUID, limit, offset int) ([]Template, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM budget_templates WHERE ($1::uuid IS NULL OR company_id=$1)`, companyID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+templateColumns+` FROM budget_templates WHERE ($1::uuid IS NULL OR company_id=$1) ORDER BY template_code ASC LIMIT $2 OFFSET $3`, companyID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var templates []Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, 0, err
		}
		templates = append(templates, t)
	}
	return templates, total, rows.Err()
}

func (r *repository) UpdateTemplate(ctx context.Context, t Template) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE budget_templates SET template_name=$2, budget_type=$3, template_data=$4, description=$5, updated_at=NOW() WHERE id=$1`,
		t.ID, t.Name, t.BudgetType, t.TemplateData, t.Description)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

func (r *repository) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM budget_templates WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

const varianceColumns = `id, budget_line_id, fiscal_period_id, budget_amount, actual_amount, variance_amount, variance_percentage, variance_type, significance_level, variance_reason, corrective_action, created_at, updated_at`

func scanVariance(row pgx.Row) (Variance, error) {
	var v Variance
	err := row.Scan(&v.ID, &v.BudgetLineID, &v.FiscalPeriodID, &v.BudgetAmount, &v.ActualAmount,
		&v.VarianceAmount, &v.VariancePct, &v.VarianceType, &v.Significance, &v.Reason,
		&v.CorrectiveNotes, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}

func (r *repository) InsertVariance(ctx context.Context, v Variance) (Variance, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO budget_variances
(budget_line_id, fiscal_period_id, budget_amount, actual_amount, variance_amount, variance_percentage,
 variance_type, significance_level, variance_reason, corrective_action)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) RETURNING id, created_at, updated_at`,
		v.BudgetLineID, v.FiscalPeriodID, v.BudgetAmount, v.ActualAmount, v.VarianceAmount,
		v.VariancePct, v.VarianceType, v.Significance, v.Reason, v.CorrectiveNotes)
	if err := row.Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return Variance{}, err
	}
	return v, nil
}

func (r *repository) GetVariance(ctx context.Context, id uuid.UUID) (Variance, error) {
	v, err := scanVariance(r.pool.QueryRow(ctx, `SELECT `+varianceColumns+` FROM budget_variances WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Variance{}, ErrVarianceNotFound
		}
		return Variance{}, err
	}
	return v, nil
}

func (r *repository) ListVariances(ctx context.Context, lineID *uuid.UUID, limit, offset int) ([]Variance, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM budget_variances WHERE ($1::uuid IS NULL OR budget_line_id=$1)`, lineID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+varianceColumns+` FROM budget_variances WHERE ($1::uuid IS NULL OR budget_line_id=$1) ORDER BY created_at DESC LIMIT $2 OFFSET $3`, lineID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var variances []Variance
	for rows.Next() {
		v, err := scanVariance(rows)
		if err != nil {
			return nil, 0, err
		}
		variances = append(variances, v)
	}
	return variances, total, rows.Err()
}

func (r *repository) UpdateVariance(ctx context.Context, v Variance) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE budget_variances SET variance_reason=$2, corrective_action=$3, updated_at=NOW() WHERE id=$1`,
		v.ID, v.Reason, v.CorrectiveNotes)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrVarianceNotFound
	}
	return nil
}

func (r *repository) DeleteVariance(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM budget_variances WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrVarianceNotFound
	}
	return nil
}

func (r *repository) InsertAudit(ctx context.Context, entry AuditLog) (AuditLog, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO budget_audit_log (budget_id, action, performed_by, details)
VALUES ($1,$2,$3,$4) RETURNING id, performed_at`,
		entry.BudgetID, entry.Action, entry.PerformedBy, entry.Details)
	if err := row.Scan(&entry.ID, &entry.PerformedAt); err != nil {
		return AuditLog{}, err
	}
	return entry, nil
}

func (r *repository) ListAudit(ctx context.Context, budgetID uuid.UUID, filter AuditFilter) ([]AuditLog, int, error) {
	where := `budget_id=$1 AND ($2::text = '' OR action=$2) AND ($3::uuid IS NULL OR performed_by=$3)`
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM budget_audit_log WHERE `+where,
		budgetID, filter.Action, filter.PerformedBy).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, budget_id, action, performed_by, performed_at, details FROM budget_audit_log WHERE `+where+
		` ORDER BY performed_at DESC LIMIT $4 OFFSET $5`,
		budgetID, filter.Action, filter.PerformedBy, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var entries []AuditLog
	for rows.Next() {
		var e AuditLog
		if err := rows.Scan(&e.ID, &e.BudgetID, &e.Action, &e.PerformedBy, &e.PerformedAt, &e.Details); err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

func (r *repository) SummarizeAudit(ctx context.Context, budgetID uuid.UUID) ([]AuditSummary, error) {
	rows, err := r.pool.Query(ctx, `SELECT action, COUNT(*) FROM budget_audit_log WHERE budget_id=$1 GROUP BY action ORDER BY action ASC`, budgetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var summary []AuditSummary
	for rows.Next() {
		var s AuditSummary
		if err := rows.Scan(&s.Action, &s.Count); err != nil {
			return nil, err
		}
		summary = append(summary, s)
	}
	return summary, rows.Err()
}
