package budgets

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atlas-erp/accounting/internal/shared"
)

// CreateBudgetInput groups the fields for creating a budget.
type CreateBudgetInput struct {
	CompanyID        uuid.UUID        `json:"company_id" validate:"required"`
	FiscalYearID     uuid.UUID        `json:"fiscal_year_id" validate:"required"`
	Code             string           `json:"code" validate:"required,max=50"`
	Name             string           `json:"name" validate:"required,max=200"`
	BudgetType       BudgetType       `json:"budget_type" validate:"required"`
	ParentBudgetID   *uuid.UUID       `json:"parent_budget_id,omitempty"`
	CurrencyID       uuid.UUID        `json:"currency_id" validate:"required"`
	StartDate        time.Time        `json:"start_date" validate:"required"`
	EndDate          time.Time        `json:"end_date" validate:"required"`
	AllocationMethod AllocationMethod `json:"allocation_method,omitempty"`
	Description      string           `json:"description,omitempty"`
	Notes            string           `json:"notes,omitempty"`
}

// Validate applies semantic checks.
func (in CreateBudgetInput) Validate() error {
	if strings.TrimSpace(in.Code) == "" {
		return shared.Validationf("budgets: code is required")
	}
	switch in.BudgetType {
	case TypeOperational, TypeCapital:
	default:
		return shared.Validationf("budgets: unknown budget type %q", in.BudgetType)
	}
	if !in.EndDate.After(in.StartDate) {
		return shared.Validationf("budgets: end date must be after start date")
	}
	return nil
}

// UpdateBudgetInput patches a budget. Nil fields keep current values.
type UpdateBudgetInput struct {
	Code             *string           `json:"code,omitempty" validate:"omitempty,max=50"`
	Name             *string           `json:"name,omitempty" validate:"omitempty,max=200"`
	BudgetType       *BudgetType       `json:"budget_type,omitempty"`
	Status           *Status           `json:"status,omitempty"`
	StartDate        *time.Time        `json:"start_date,omitempty"`
	EndDate          *time.Time        `json:"end_date,omitempty"`
	AllocationMethod *AllocationMethod `json:"allocation_method,omitempty"`
	Description      *string           `json:"description,omitempty"`
	Notes            *string           `json:"notes,omitempty"`
	IsLocked         *bool             `json:"is_locked,omitempty"`
}

// CreateLineInput groups the fields for creating a budget line.
type CreateLineInput struct {
	AccountID    uuid.UUID       `json:"account_id" validate:"required"`
	AnnualAmount decimal.Decimal `json:"annual_amount" validate:"required"`
	Description  string          `json:"description,omitempty"`
	Notes        string          `json:"notes,omitempty"`
}

// UpdateLineInput patches a budget line. Nil fields keep current values.
type UpdateLineInput struct {
	AccountID    *uuid.UUID       `json:"account_id,omitempty"`
	AnnualAmount *decimal.Decimal `json:"annual_amount,omitempty"`
	Description  *string          `json:"description,omitempty"`
	Notes        *string          `json:"notes,omitempty"`
}

// CreatePeriodLineInput groups the fields for creating a period line.
type CreatePeriodLineInput struct {
	FiscalPeriodID uuid.UUID       `json:"fiscal_period_id" validate:"required"`
	Amount         decimal.Decimal `json:"amount" validate:"required"`
	Notes          string          `json:"notes,omitempty"`
}

// UpdatePeriodLineInput patches a period line. Nil fields keep current values.
type UpdatePeriodLineInput struct {
	Amount *decimal.Decimal `json:"amount,omitempty"`
	Notes  *string          `json:"notes,omitempty"`
}

// CreateApprovalInput groups the fields for creating an approval step.
type CreateApprovalInput struct {
	ApprovalLevel int       `json:"approval_level" validate:"required,gt=0"`
	ApproverID    uuid.UUID `json:"approver_id" validate:"required"`
	ApproverName  string    `json:"approver_name" validate:"required,max=200"`
	ApproverRole  string    `json:"approver_role,omitempty" validate:"omitempty,max=100"`
	Comments      string    `json:"comments,omitempty"`
}

// UpdateApprovalInput records the outcome of an approval step.
type UpdateApprovalInput struct {
	Status   *ApprovalStatus `json:"status,omitempty"`
	Comments *string         `json:"comments,omitempty"`
}

// Validate applies semantic checks.
func (in UpdateApprovalInput) Validate() error {
	if in.Status != nil {
		switch *in.Status {
		case ApprovalPending, ApprovalApproved, ApprovalRejected:
		default:
			return shared.Validationf("budgets: unknown approval status %q", *in.Status)
		}
	}
	return nil
}

// CreateAllocationInput groups the fields for creating an allocation.
type CreateAllocationInput struct {
	SourceBudgetLineID uuid.UUID        `json:"source_budget_line_id" validate:"required"`
	Name               string           `json:"name" validate:"required,max=200"`
	TotalAmount        decimal.Decimal  `json:"total_amount" validate:"required"`
	Method             AllocationMethod `json:"method,omitempty"`
	Description        string           `json:"description,omitempty"`
}

// UpdateAllocationInput patches an allocation. Nil fields keep current values.
type UpdateAllocationInput struct {
	Name        *string          `json:"name,omitempty" validate:"omitempty,max=200"`
	TotalAmount *decimal.Decimal `json:"total_amount,omitempty"`
	Status      *ApprovalStatus  `json:"status,omitempty"`
	Description *string          `json:"description,omitempty"`
}

// CreateAllocationLineInput groups the fields for creating an allocation line.
type CreateAllocationLineInput struct {
	TargetBudgetLineID uuid.UUID       `json:"target_budget_line_id" validate:"required"`
	Percentage         decimal.Decimal `json:"percentage" validate:"required"`
	Amount             decimal.Decimal `json:"amount" validate:"required"`
}

// CreateTemplateInput groups the fields for creating a template.
type CreateTemplateInput struct {
	CompanyID    uuid.UUID       `json:"company_id" validate:"required"`
	Code         string          `json:"code" validate:"required,max=50"`
	Name         string          `json:"name" validate:"required,max=200"`
	BudgetType   BudgetType      `json:"budget_type" validate:"required"`
	TemplateData json.RawMessage `json:"template_data" validate:"required"`
	Description  string          `json:"description,omitempty"`
}

// UpdateTemplateInput patches a template. Nil fields keep current values.
type UpdateTemplateInput struct {
	Name         *string         `json:"name,omitempty" validate:"omitempty,max=200"`
	BudgetType   *BudgetType     `json:"budget_type,omitempty"`
	TemplateData json.RawMessage `json:"template_data,omitempty"`
	Description  *string         `json:"description,omitempty"`
}

// CreateVarianceInput groups the fields for recording a variance.
type CreateVarianceInput struct {
	BudgetLineID    uuid.UUID         `json:"budget_line_id" validate:"required"`
	FiscalPeriodID  uuid.UUID         `json:"fiscal_period_id" validate:"required"`
	BudgetAmount    decimal.Decimal   `json:"budget_amount" validate:"required"`
	ActualAmount    decimal.Decimal   `json:"actual_amount" validate:"required"`
	VarianceAmount  decimal.Decimal   `json:"variance_amount" validate:"required"`
	VariancePct     decimal.Decimal   `json:"variance_percentage" validate:"required"`
	VarianceType    VarianceType      `json:"variance_type" validate:"required"`
	Significance    SignificanceLevel `json:"significance_level" validate:"required"`
	Reason          string            `json:"reason,omitempty"`
	CorrectiveNotes string            `json:"corrective_action,omitempty"`
}

// Validate applies semantic checks.
func (in CreateVarianceInput) Validate() error {
	switch in.VarianceType {
	case VarianceFavorable, VarianceUnfavorable:
	default:
		return shared.Validationf("budgets: unknown variance type %q", in.VarianceType)
	}
	switch in.Significance {
	case SignificanceLow, SignificanceMedium, SignificanceHigh:
	default:
		return shared.Validationf("budgets: unknown significance level %q", in.Significance)
	}
	return nil
}

// UpdateVarianceInput patches the narrative fields of a variance record.
type UpdateVarianceInput struct {
	Reason          *string `json:"reason,omitempty"`
	CorrectiveNotes *string `json:"corrective_action,omitempty"`
}

// AuditFilter narrows audit-log listings.
type AuditFilter struct {
	Action      string
	PerformedBy *uuid.UUID
	Limit       int
	Offset      int
}
