// Package accounts manages the chart of accounts: a flat table of
// company-scoped accounts with an optional parent pointer.
package accounts

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atlas-erp/accounting/internal/shared"
)

// Category is the top-level classification of an account.
type Category string

const (
	CategoryAssets      Category = "ASSETS"
	CategoryLiabilities Category = "LIABILITIES"
	CategoryEquity      Category = "EQUITY"
	CategoryRevenue     Category = "REVENUE"
	CategoryExpenses    Category = "EXPENSES"
)

// Type refines the category.
type Type string

const (
	TypeCurrentAssets       Type = "CURRENT_ASSETS"
	TypeFixedAssets         Type = "FIXED_ASSETS"
	TypeCurrentLiabilities  Type = "CURRENT_LIABILITIES"
	TypeLongTermLiabilities Type = "LONG_TERM_LIABILITIES"
	TypeShareholdersEquity  Type = "SHAREHOLDERS_EQUITY"
	TypeOperatingRevenue    Type = "OPERATING_REVENUE"
	TypeOtherRevenue        Type = "OTHER_REVENUE"
	TypeOperatingExpenses   Type = "OPERATING_EXPENSES"
	TypeOtherExpenses       Type = "OTHER_EXPENSES"
)

// typesByCategory defines which account types belong to each category.
var typesByCategory = map[Category][]Type{
	CategoryAssets:      {TypeCurrentAssets, TypeFixedAssets},
	CategoryLiabilities: {TypeCurrentLiabilities, TypeLongTermLiabilities},
	CategoryEquity:      {TypeShareholdersEquity},
	CategoryRevenue:     {TypeOperatingRevenue, TypeOtherRevenue},
	CategoryExpenses:    {TypeOperatingExpenses, TypeOtherExpenses},
}

// PairingValid reports whether the type belongs to the category.
func PairingValid(category Category, typ Type) bool {
	for _, t := range typesByCategory[category] {
		if t == typ {
			return true
		}
	}
	return false
}

// Account is a chart-of-accounts node. The tree is a parent-id foreign key,
// never an in-memory graph.
type Account struct {
	ID                 uuid.UUID
	CompanyID          uuid.UUID
	Code               string
	Name               string
	Category           Category
	Type               Type
	ParentAccountID    *uuid.UUID
	IsControlAccount   bool
	IsInterCompany     bool
	CostCenterRequired bool
	IsActive           bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// CreateInput groups the fields for creating an account.
type CreateInput struct {
	CompanyID          uuid.UUID  `json:"company_id" validate:"required"`
	Code               string     `json:"code" validate:"required,max=20"`
	Name               string     `json:"name" validate:"required,max=200"`
	Category           Category   `json:"category" validate:"required"`
	Type               Type       `json:"type" validate:"required"`
	ParentAccountID    *uuid.UUID `json:"parent_account_id,omitempty"`
	IsControlAccount   bool       `json:"is_control_account"`
	IsInterCompany     bool       `json:"is_inter_company"`
	CostCenterRequired bool       `json:"cost_center_required"`
}

// Validate applies semantic checks.
func (in CreateInput) Validate() error {
	if strings.TrimSpace(in.Code) == "" {
		return shared.Validationf("accounts: code is required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return shared.Validationf("accounts: name is required")
	}
	if _, ok := typesByCategory[in.Category]; !ok {
		return shared.Validationf("accounts: unknown category %q", in.Category)
	}
	if !PairingValid(in.Category, in.Type) {
		return ErrTypeMismatch
	}
	return nil
}

// UpdateInput patches an account. Nil fields keep current values.
type UpdateInput struct {
	Code               *string    `json:"code,omitempty" validate:"omitempty,max=20"`
	Name               *string    `json:"name,omitempty" validate:"omitempty,max=200"`
	Category           *Category  `json:"category,omitempty"`
	Type               *Type      `json:"type,omitempty"`
	ParentAccountID    *uuid.UUID `json:"parent_account_id,omitempty"`
	IsControlAccount   *bool      `json:"is_control_account,omitempty"`
	IsInterCompany     *bool      `json:"is_inter_company,omitempty"`
	CostCenterRequired *bool      `json:"cost_center_required,omitempty"`
}

var (
	// ErrNotFound indicates a missing account.
	ErrNotFound = fmt.Errorf("accounts: account %w", shared.ErrNotFound)
	// ErrParentNotFound indicates a missing parent account.
	ErrParentNotFound = fmt.Errorf("accounts: parent account %w", shared.ErrNotFound)
	// ErrCodeTaken indicates the code is already used within the company.
	ErrCodeTaken = fmt.Errorf("accounts: code already in use for company: %w", shared.ErrConflict)
	// ErrTypeMismatch rejects a type outside its category.
	ErrTypeMismatch = fmt.Errorf("accounts: account type does not belong to category: %w", shared.ErrValidation)
	// ErrSelfParent rejects an account pointing at itself.
	ErrSelfParent = fmt.Errorf("accounts: account cannot be its own parent: %w", shared.ErrValidation)
)
