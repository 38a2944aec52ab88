// Package companies manages company and currency master data.
package companies

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atlas-erp/accounting/internal/shared"
)

// Company is a legal entity journal entries are scoped to. The group
// structure is a parent-id pointer, resolved by lookup only.
type Company struct {
	ID                   uuid.UUID
	Code                 string
	Name                 string
	LegalName            string
	ParentCompanyID      *uuid.UUID
	FunctionalCurrencyID *uuid.UUID
	TaxID                string
	IsActive             bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Currency is reference data only; no conversion math happens here.
type Currency struct {
	ID            uuid.UUID
	Code          string
	Name          string
	Symbol        string
	DecimalPlaces int
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CreateCompanyInput groups the fields for creating a company.
type CreateCompanyInput struct {
	Code                 string     `json:"code" validate:"required,max=20"`
	Name                 string     `json:"name" validate:"required,max=200"`
	LegalName            string     `json:"legal_name,omitempty" validate:"omitempty,max=200"`
	ParentCompanyID      *uuid.UUID `json:"parent_company_id,omitempty"`
	FunctionalCurrencyID *uuid.UUID `json:"functional_currency_id,omitempty"`
	TaxID                string     `json:"tax_id,omitempty" validate:"omitempty,max=50"`
}

// Validate applies semantic checks.
func (in CreateCompanyInput) Validate() error {
	if strings.TrimSpace(in.Code) == "" {
		return shared.Validationf("companies: code is required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return shared.Validationf("companies: name is required")
	}
	return nil
}

// UpdateCompanyInput patches a company. Nil fields keep current values.
type UpdateCompanyInput struct {
	Code                 *string    `json:"code,omitempty" validate:"omitempty,max=20"`
	Name                 *string    `json:"name,omitempty" validate:"omitempty,max=200"`
	LegalName            *string    `json:"legal_name,omitempty" validate:"omitempty,max=200"`
	ParentCompanyID      *uuid.UUID `json:"parent_company_id,omitempty"`
	FunctionalCurrencyID *uuid.UUID `json:"functional_currency_id,omitempty"`
	TaxID                *string    `json:"tax_id,omitempty" validate:"omitempty,max=50"`
	IsActive             *bool      `json:"is_active,omitempty"`
}

// CreateCurrencyInput groups the fields for creating a currency.
type CreateCurrencyInput struct {
	Code          string `json:"code" validate:"required,len=3,uppercase"`
	Name          string `json:"name" validate:"required,max=100"`
	Symbol        string `json:"symbol,omitempty" validate:"omitempty,max=10"`
	DecimalPlaces int    `json:"decimal_places" validate:"gte=0,lte=6"`
}

// UpdateCurrencyInput patches a currency. Nil fields keep current values.
type UpdateCurrencyInput struct {
	Name          *string `json:"name,omitempty" validate:"omitempty,max=100"`
	Symbol        *string `json:"symbol,omitempty" validate:"omitempty,max=10"`
	DecimalPlaces *int    `json:"decimal_places,omitempty" validate:"omitempty,gte=0,lte=6"`
	IsActive      *bool   `json:"is_active,omitempty"`
}

var (
	// ErrCompanyNotFound indicates a missing company.
	ErrCompanyNotFound = fmt.Errorf("companies: company %w", shared.ErrNotFound)
	// ErrParentNotFound indicates a missing parent company.
	ErrParentNotFound = fmt.Errorf("companies: parent company %w", shared.ErrNotFound)
	// ErrCompanyCodeTaken indicates the company code is already used.
	ErrCompanyCodeTaken = fmt.Errorf("companies: company code already in use: %w", shared.ErrConflict)
	// ErrSelfParent rejects a company pointing at itself.
	ErrSelfParent = fmt.Errorf("companies: company cannot be its own parent: %w", shared.ErrValidation)
	// ErrCurrencyNotFound indicates a missing currency.
	ErrCurrencyNotFound = fmt.Errorf("companies: currency %w", shared.ErrNotFound)
	// ErrCurrencyCodeTaken indicates the ISO code is already registered.
	ErrCurrencyCodeTaken = fmt.Errorf("companies: currency code already in use: %w", shared.ErrConflict)
)
