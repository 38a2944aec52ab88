package budgets

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// BudgetResponse is the API shape of a budget.
type BudgetResponse struct {
	ID               string           `json:"id"`
	CompanyID        string           `json:"company_id"`
	FiscalYearID     string           `json:"fiscal_year_id"`
	Code             string           `json:"code"`
	Name             string           `json:"name"`
	BudgetType       BudgetType       `json:"budget_type"`
	Status           Status           `json:"status"`
	ParentBudgetID   *string          `json:"parent_budget_id,omitempty"`
	CurrencyID       string           `json:"currency_id"`
	StartDate        time.Time        `json:"start_date"`
	EndDate          time.Time        `json:"end_date"`
	AllocationMethod AllocationMethod `json:"allocation_method"`
	Description      string           `json:"description,omitempty"`
	Notes            string           `json:"notes,omitempty"`
	IsLocked         bool             `json:"is_locked"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// LineResponse is the API shape of a budget line.
type LineResponse struct {
	ID           string          `json:"id"`
	BudgetID     string          `json:"budget_id"`
	LineNumber   int             `json:"line_number"`
	AccountID    string          `json:"account_id"`
	AnnualAmount decimal.Decimal `json:"annual_amount"`
	Description  string          `json:"description,omitempty"`
	Notes        string          `json:"notes,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// PeriodLineResponse is the API shape of a period line.
type PeriodLineResponse struct {
	ID             string          `json:"id"`
	BudgetLineID   string          `json:"budget_line_id"`
	FiscalPeriodID string          `json:"fiscal_period_id"`
	Amount         decimal.Decimal `json:"amount"`
	Notes          string          `json:"notes,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ApprovalResponse is the API shape of an approval step.
type ApprovalResponse struct {
	ID            string         `json:"id"`
	BudgetID      string         `json:"budget_id"`
	ApprovalLevel int            `json:"approval_level"`
	ApproverID    string         `json:"approver_id"`
	ApproverName  string         `json:"approver_name"`
	ApproverRole  string         `json:"approver_role,omitempty"`
	ApprovalDate  *time.Time     `json:"approval_date,omitempty"`
	Status        ApprovalStatus `json:"status"`
	Comments      string         `json:"comments,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// AllocationResponse is the API shape of an allocation.
type AllocationResponse struct {
	ID                 string           `json:"id"`
	BudgetID           string           `json:"budget_id"`
	SourceBudgetLineID string           `json:"source_budget_line_id"`
	Name               string           `json:"name"`
	TotalAmount        decimal.Decimal  `json:"total_amount"`
	Method             AllocationMethod `json:"method"`
	Status             ApprovalStatus   `json:"status"`
	Description        string           `json:"description,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// AllocationLineResponse is the API shape of an allocation line.
type AllocationLineResponse struct {
	ID                 string          `json:"id"`
	AllocationID       string          `json:"allocation_id"`
	TargetBudgetLineID string          `json:"target_budget_line_id"`
	Percentage         decimal.Decimal `json:"percentage"`
	Amount             decimal.Decimal `json:"amount"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// TemplateResponse is the API shape of a template.
type TemplateResponse struct {
	ID           string          `json:"id"`
	CompanyID    string          `json:"company_id"`
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	BudgetType   BudgetType      `json:"budget_type"`
	TemplateData json.RawMessage `json:"template_data"`
	Description  string          `json:"description,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// VarianceResponse is the API shape of a variance record.
type VarianceResponse struct {
	ID              string            `json:"id"`
	BudgetLineID    string            `json:"budget_line_id"`
	FiscalPeriodID  string            `json:"fiscal_period_id"`
	BudgetAmount    decimal.Decimal   `json:"budget_amount"`
	ActualAmount    decimal.Decimal   `json:"actual_amount"`
	VarianceAmount  decimal.Decimal   `json:"variance_amount"`
	VariancePct     decimal.Decimal   `json:"variance_percentage"`
	VarianceType    VarianceType      `json:"variance_type"`
	Significance    SignificanceLevel `json:"significance_level"`
	Reason          string            `json:"reason,omitempty"`
	CorrectiveNotes string            `json:"corrective_action,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// AuditLogResponse is the API shape of an audit-log row.
type AuditLogResponse struct {
	ID          string    `json:"id"`
	BudgetID    string    `json:"budget_id"`
	Action      string    `json:"action"`
	PerformedBy string    `json:"performed_by"`
	PerformedAt time.Time `json:"performed_at"`
	Details     string    `json:"details,omitempty"`
}

func toBudgetResponse(b Budget) BudgetResponse {
	resp := BudgetResponse{
		ID:               b.ID.String(),
		CompanyID:        b.CompanyID.String(),
		FiscalYearID:     b.FiscalYearID.String(),
		Code:             b.Code,
		Name:             b.Name,
		BudgetType:       b.BudgetType,
		Status:           b.Status,
		CurrencyID:       b.CurrencyID.String(),
		StartDate:        b.StartDate,
		EndDate:          b.EndDate,
		AllocationMethod: b.AllocationMethod,
		Description:      b.Description,
		Notes:            b.Notes,
		IsLocked:         b.IsLocked,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
	if b.ParentBudgetID != nil {
		parent := b.ParentBudgetID.String()
		resp.ParentBudgetID = &parent
	}
	return resp
}

func toBudgetResponses(budgets []Budget) []BudgetResponse {
	out := make([]BudgetResponse, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, toBudgetResponse(b))
	}
	return out
}

func toLineResponse(l Line) LineResponse {
	return LineResponse{
		ID:           l.ID.String(),
		BudgetID:     l.BudgetID.String(),
		LineNumber:   l.LineNumber,
		AccountID:    l.AccountID.String(),
		AnnualAmount: l.AnnualAmount,
		Description:  l.Description,
		Notes:        l.Notes,
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
	}
}

func toLineResponses(lines []Line) []LineResponse {
	out := make([]LineResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, toLineResponse(l))
	}
	return out
}

func toPeriodLineResponse(pl PeriodLine) PeriodLineResponse {
	return PeriodLineResponse{
		ID:             pl.ID.String(),
		BudgetLineID:   pl.BudgetLineID.String(),
		FiscalPeriodID: pl.FiscalPeriodID.String(),
		Amount:         pl.Amount,
		Notes:          pl.Notes,
		CreatedAt:      pl.CreatedAt,
		UpdatedAt:      pl.UpdatedAt,
	}
}

func toPeriodLineResponses(pls []PeriodLine) []PeriodLineResponse {
	out := make([]PeriodLineResponse, 0, len(pls))
	for _, pl := range pls {
		out = append(out, toPeriodLineResponse(pl))
	}
	return out
}

func toApprovalResponse(a Approval) ApprovalResponse {
	return ApprovalResponse{
		ID:            a.ID.String(),
		BudgetID:      a.BudgetID.String(),
		ApprovalLevel: a.ApprovalLevel,
		ApproverID:    a.ApproverID.String(),
		ApproverName:  a.ApproverName,
		ApproverRole:  a.ApproverRole,
		ApprovalDate:  a.ApprovalDate,
		Status:        a.Status,
		Comments:      a.Comments,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func toApprovalResponses(approvals []Approval) []ApprovalResponse {
	out := make([]ApprovalResponse, 0, len(approvals))
	for _, a := range approvals {
		out = append(out, toApprovalResponse(a))
	}
	return out
}

func toAllocationResponse(a Allocation) AllocationResponse {
	return AllocationResponse{
		ID:                 a.ID.String(),
		BudgetID:           a.BudgetID.String(),
		SourceBudgetLineID: a.SourceBudgetLineID.String(),
		Name:               a.Name,
		TotalAmount:        a.TotalAmount,
		Method:             a.Method,
		Status:             a.Status,
		Description:        a.Description,
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          a.UpdatedAt,
	}
}

func toAllocationResponses(allocations []Allocation) []AllocationResponse {
	out := make([]AllocationResponse, 0, len(allocations))
	for _, a := range allocations {
		out = append(out, toAllocationResponse(a))
	}
	return out
}

func toAllocationLineResponse(al AllocationLine) AllocationLineResponse {
	return AllocationLineResponse{
		ID:                 al.ID.String(),
		AllocationID:       al.AllocationID.String(),
		TargetBudgetLineID: al.TargetBudgetLineID.String(),
		Percentage:         al.Percentage,
		Amount:             al.Amount,
		CreatedAt:          al.CreatedAt,
		UpdatedAt:          al.UpdatedAt,
	}
}

func toAllocationLineResponses(als []AllocationLine) []AllocationLineResponse {
	out := make([]AllocationLineResponse, 0, len(als))
	for _, al := range als {
		out = append(out, toAllocationLineResponse(al))
	}
	return out
}

func toTemplateResponse(t Template) TemplateResponse {
	return TemplateResponse{
		ID:           t.ID.String(),
		CompanyID:    t.CompanyID.String(),
		Code:         t.Code,
		Name:         t.Name,
		BudgetType:   t.BudgetType,
		TemplateData: t.TemplateData,
		Description:  t.Description,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func toTemplateResponses(templates []Template) []TemplateResponse {
	out := make([]TemplateResponse, 0, len(templates))
	for _, t := range templates {
		out = append(out, toTemplateResponse(t))
	}
	return out
}

func toVarianceResponse(v Variance) VarianceResponse {
	return VarianceResponse{
		ID:              v.ID.String(),
		BudgetLineID:    v.BudgetLineID.String(),
		FiscalPeriodID:  v.FiscalPeriodID.String(),
		BudgetAmount:    v.BudgetAmount,
		ActualAmount:    v.ActualAmount,
		VarianceAmount:  v.VarianceAmount,
		VariancePct:     v.VariancePct,
		VarianceType:    v.VarianceType,
		Significance:    v.Significance,
		Reason:          v.Reason,
		CorrectiveNotes: v.CorrectiveNotes,
		CreatedAt:       v.CreatedAt,
		UpdatedAt:       v.UpdatedAt,
	}
}

func toVarianceResponses(variances []Variance) []VarianceResponse {
	out := make([]VarianceResponse, 0, len(variances))
	for _, v := range variances {
		out = append(out, toVarianceResponse(v))
	}
	return out
}

func toAuditLogResponse(e AuditLog) AuditLogResponse {
	return AuditLogResponse{
		ID:          e.ID.String(),
		BudgetID:    e.BudgetID.String(),
		Action:      e.Action,
		PerformedBy: e.PerformedBy.String(),
		PerformedAt: e.PerformedAt,
		Details:     e.Details,
	}
}

func toAuditLogResponses(entries []AuditLog) []AuditLogResponse {
	out := make([]AuditLogResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toAuditLogResponse(e))
	}
	return out
}
