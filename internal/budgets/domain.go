// Package budgets manages the budgeting hierarchy: budgets, their lines and
// per-period spreads, approvals, allocations, templates, variance records and
// the audit log. It stores and validates; it computes no variance analytics.
package budgets

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atlas-erp/accounting/internal/shared"
)

// BudgetType distinguishes operating from capital budgets.
type BudgetType string

const (
	TypeOperational BudgetType = "operational"
	TypeCapital     BudgetType = "capital"
)

// Status is the budget lifecycle state.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSubmitted Status = "SUBMITTED"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
)

// ApprovalStatus tracks a single approval step or allocation execution.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
)

// AllocationMethod describes how an allocation spreads amounts.
type AllocationMethod string

const (
	MethodEqual        AllocationMethod = "equal"
	MethodDirect       AllocationMethod = "direct"
	MethodProportional AllocationMethod = "proportional"
)

// VarianceType classifies a variance record.
type VarianceType string

const (
	VarianceFavorable   VarianceType = "favorable"
	VarianceUnfavorable VarianceType = "unfavorable"
)

// SignificanceLevel grades a variance record.
type SignificanceLevel string

const (
	SignificanceLow    SignificanceLevel = "low"
	SignificanceMedium SignificanceLevel = "medium"
	SignificanceHigh   SignificanceLevel = "high"
)

// Budget is the root of the hierarchy. Code is unique per company and
// fiscal year.
type Budget struct {
	ID               uuid.UUID
	CompanyID        uuid.UUID
	FiscalYearID     uuid.UUID
	Code             string
	Name             string
	BudgetType       BudgetType
	Status           Status
	ParentBudgetID   *uuid.UUID
	CurrencyID       uuid.UUID
	StartDate        time.Time
	EndDate          time.Time
	AllocationMethod AllocationMethod
	Description      string
	Notes            string
	IsLocked         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Line budgets an annual amount against one account.
type Line struct {
	ID           uuid.UUID
	BudgetID     uuid.UUID
	LineNumber   int
	AccountID    uuid.UUID
	AnnualAmount decimal.Decimal
	Description  string
	Notes        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PeriodLine spreads a budget line across one fiscal period.
type PeriodLine struct {
	ID             uuid.UUID
	BudgetLineID   uuid.UUID
	FiscalPeriodID uuid.UUID
	Amount         decimal.Decimal
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Approval is one step in a budget's approval chain.
type Approval struct {
	ID            uuid.UUID
	BudgetID      uuid.UUID
	ApprovalLevel int
	ApproverID    uuid.UUID
	ApproverName  string
	ApproverRole  string
	ApprovalDate  *time.Time
	Status        ApprovalStatus
	Comments      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Allocation redistributes a source line's amount onto target lines.
type Allocation struct {
	ID                 uuid.UUID
	BudgetID           uuid.UUID
	SourceBudgetLineID uuid.UUID
	Name               string
	TotalAmount        decimal.Decimal
	Method             AllocationMethod
	Status             ApprovalStatus
	Description        string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// AllocationLine is one target of an allocation. The target line must belong
// to the same budget as the allocation.
type AllocationLine struct {
	ID                 uuid.UUID
	AllocationID       uuid.UUID
	TargetBudgetLineID uuid.UUID
	Percentage         decimal.Decimal
	Amount             decimal.Decimal
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Template is a reusable budget skeleton. Code is unique per company.
type Template struct {
	ID           uuid.UUID
	CompanyID    uuid.UUID
	Code         string
	Name         string
	BudgetType   BudgetType
	TemplateData json.RawMessage
	Description  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Variance records a budget-vs-actual comparison for one line and period.
// The figures arrive precomputed; nothing is derived here.
type Variance struct {
	ID              uuid.UUID
	BudgetLineID    uuid.UUID
	FiscalPeriodID  uuid.UUID
	BudgetAmount    decimal.Decimal
	ActualAmount    decimal.Decimal
	VarianceAmount  decimal.Decimal
	VariancePct     decimal.Decimal
	VarianceType    VarianceType
	Significance    SignificanceLevel
	Reason          string
	CorrectiveNotes string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AuditLog is an append-only trace of budget actions.
type AuditLog struct {
	ID          uuid.UUID
	BudgetID    uuid.UUID
	Action      string
	PerformedBy uuid.UUID
	PerformedAt time.Time
	Details     string
}

// AuditSummary aggregates audit-log rows per action.
type AuditSummary struct {
	Action string `json:"action"`
	Count  int    `json:"count"`
}

var (
	// ErrBudgetNotFound indicates a missing budget.
	ErrBudgetNotFound = fmt.Errorf("budgets: budget %w", shared.ErrNotFound)
	// ErrLineNotFound indicates a missing budget line.
	ErrLineNotFound = fmt.Errorf("budgets: budget line %w", shared.ErrNotFound)
	// ErrPeriodLineNotFound indicates a missing period line.
	ErrPeriodLineNotFound = fmt.Errorf("budgets: period line %w", shared.ErrNotFound)
	// ErrApprovalNotFound indicates a missing approval.
	ErrApprovalNotFound = fmt.Errorf("budgets: approval %w", shared.ErrNotFound)
	// ErrAllocationNotFound indicates a missing allocation.
	ErrAllocationNotFound = fmt.Errorf("budgets: allocation %w", shared.ErrNotFound)
	// ErrAllocationLineNotFound indicates a missing allocation line.
	ErrAllocationLineNotFound = fmt.Errorf("budgets: allocation line %w", shared.ErrNotFound)
	// ErrTemplateNotFound indicates a missing template.
	ErrTemplateNotFound = fmt.Errorf("budgets: template %w", shared.ErrNotFound)
	// ErrVarianceNotFound indicates a missing variance record.
	ErrVarianceNotFound = fmt.Errorf("budgets: variance %w", shared.ErrNotFound)
	// ErrCodeTaken indicates the budget code is already used within the
	// company and fiscal year.
	ErrCodeTaken = fmt.Errorf("budgets: budget code already in use for company and fiscal year: %w", shared.ErrConflict)
	// ErrTemplateCodeTaken indicates the template code is already used.
	ErrTemplateCodeTaken = fmt.Errorf("budgets: template code already in use for company: %w", shared.ErrConflict)
	// ErrLineOutsideBudget rejects a line reference from another budget.
	ErrLineOutsideBudget = fmt.Errorf("budgets: referenced budget line belongs to a different budget: %w", shared.ErrValidation)
	// ErrLocked guards mutation of a locked budget.
	ErrLocked = fmt.Errorf("budgets: budget is locked: %w", shared.ErrValidation)
)
