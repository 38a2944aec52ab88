// Package fiscal manages fiscal years and their periods, and guards every
// mutation behind the closed-state check.
package fiscal

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atlas-erp/accounting/internal/shared"
)

// FiscalYear is an annual accounting window owning 1..N periods.
type FiscalYear struct {
	ID        uuid.UUID
	CompanyID uuid.UUID
	YearCode  string
	StartDate time.Time
	EndDate   time.Time
	IsClosed  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FiscalPeriod is a posting window inside a fiscal year. Once closed it is
// terminal; there is no reopen operation.
type FiscalPeriod struct {
	ID           uuid.UUID
	FiscalYearID uuid.UUID
	PeriodNumber int
	PeriodName   string
	StartDate    time.Time
	EndDate      time.Time
	IsClosed     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateYearInput groups the fields for creating a fiscal year.
type CreateYearInput struct {
	CompanyID uuid.UUID `json:"company_id" validate:"required"`
	YearCode  string    `json:"year_code" validate:"required,max=20"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
}

// Validate applies semantic checks.
func (in CreateYearInput) Validate() error {
	if strings.TrimSpace(in.YearCode) == "" {
		return shared.Validationf("fiscal: year code is required")
	}
	if !in.EndDate.After(in.StartDate) {
		return ErrDateRange
	}
	return nil
}

// UpdateYearInput patches a fiscal year. Nil fields keep current values.
type UpdateYearInput struct {
	YearCode  *string    `json:"year_code,omitempty" validate:"omitempty,max=20"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

// CreatePeriodInput groups the fields for creating a period within a year.
type CreatePeriodInput struct {
	PeriodNumber int       `json:"period_number" validate:"required,gt=0"`
	PeriodName   string    `json:"period_name" validate:"required,max=50"`
	StartDate    time.Time `json:"start_date" validate:"required"`
	EndDate      time.Time `json:"end_date" validate:"required"`
}

// Validate applies semantic checks.
func (in CreatePeriodInput) Validate() error {
	if in.PeriodNumber <= 0 {
		return shared.Validationf("fiscal: period number must be positive")
	}
	if strings.TrimSpace(in.PeriodName) == "" {
		return shared.Validationf("fiscal: period name is required")
	}
	if !in.EndDate.After(in.StartDate) {
		return ErrDateRange
	}
	return nil
}

// UpdatePeriodInput patches a period. Nil fields keep current values.
type UpdatePeriodInput struct {
	PeriodNumber *int       `json:"period_number,omitempty" validate:"omitempty,gt=0"`
	PeriodName   *string    `json:"period_name,omitempty" validate:"omitempty,max=50"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	EndDate      *time.Time `json:"end_date,omitempty"`
}

var (
	// ErrYearNotFound indicates a missing fiscal year.
	ErrYearNotFound = fmt.Errorf("fiscal: fiscal year %w", shared.ErrNotFound)
	// ErrPeriodNotFound indicates a missing fiscal period.
	ErrPeriodNotFound = fmt.Errorf("fiscal: fiscal period %w", shared.ErrNotFound)
	// ErrPeriodClosed guards mutation of a closed period.
	ErrPeriodClosed = fmt.Errorf("fiscal: cannot modify a closed fiscal period: %w", shared.ErrValidation)
	// ErrYearClosed guards mutation of a closed year.
	ErrYearClosed = fmt.Errorf("fiscal: cannot modify a closed fiscal year: %w", shared.ErrValidation)
	// ErrAlreadyClosed rejects closing twice.
	ErrAlreadyClosed = fmt.Errorf("fiscal: already closed: %w", shared.ErrValidation)
	// ErrOpenPeriods rejects closing a year while periods remain open.
	ErrOpenPeriods = fmt.Errorf("fiscal: all periods must be closed before closing the year: %w", shared.ErrValidation)
	// ErrDateRange rejects a window whose end does not follow its start.
	ErrDateRange = fmt.Errorf("fiscal: end date must be after start date: %w", shared.ErrValidation)
)
