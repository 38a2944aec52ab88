// Package centers manages cost centers and profit centers.
package centers

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atlas-erp/accounting/internal/shared"
)

// CostCenterType classifies a cost center.
type CostCenterType string

const (
	CostTypeProfit     CostCenterType = "PROFIT"
	CostTypeCost       CostCenterType = "COST"
	CostTypeDepartment CostCenterType = "DEPARTMENT"
	CostTypeProject    CostCenterType = "PROJECT"
)

// ProfitCenterType classifies a profit center.
type ProfitCenterType string

const (
	ProfitTypeStandard   ProfitCenterType = "standard"
	ProfitTypeInvestment ProfitCenterType = "investment"
)

// CostCenter groups expenses for allocation. A cost center may roll up to a
// parent and may be attached to a profit center; both are id pointers only.
type CostCenter struct {
	ID                 uuid.UUID
	CompanyID          uuid.UUID
	Code               string
	Name               string
	CenterType         CostCenterType
	ParentCostCenterID *uuid.UUID
	ProfitCenterID     *uuid.UUID
	IsActive           bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ProfitCenter groups revenue-bearing activity.
type ProfitCenter struct {
	ID                   uuid.UUID
	CompanyID            uuid.UUID
	Code                 string
	Name                 string
	CenterType           ProfitCenterType
	ParentProfitCenterID *uuid.UUID
	IsActive             bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// CreateCostCenterInput groups the fields for creating a cost center.
type CreateCostCenterInput struct {
	CompanyID          uuid.UUID      `json:"company_id" validate:"required"`
	Code               string         `json:"code" validate:"required,max=50"`
	Name               string         `json:"name" validate:"required,max=200"`
	CenterType         CostCenterType `json:"center_type" validate:"required"`
	ParentCostCenterID *uuid.UUID     `json:"parent_cost_center_id,omitempty"`
	ProfitCenterID     *uuid.UUID     `json:"profit_center_id,omitempty"`
}

// Validate applies semantic checks.
func (in CreateCostCenterInput) Validate() error {
	if strings.TrimSpace(in.Code) == "" {
		return shared.Validationf("centers: code is required")
	}
	switch in.CenterType {
	case CostTypeProfit, CostTypeCost, CostTypeDepartment, CostTypeProject:
		return nil
	default:
		return shared.Validationf("centers: unknown cost center type %q", in.CenterType)
	}
}

// UpdateCostCenterInput patches a cost center. Nil fields keep current values.
type UpdateCostCenterInput struct {
	Code               *string         `json:"code,omitempty" validate:"omitempty,max=50"`
	Name               *string         `json:"name,omitempty" validate:"omitempty,max=200"`
	CenterType         *CostCenterType `json:"center_type,omitempty"`
	ParentCostCenterID *uuid.UUID      `json:"parent_cost_center_id,omitempty"`
	ProfitCenterID     *uuid.UUID      `json:"profit_center_id,omitempty"`
	IsActive           *bool           `json:"is_active,omitempty"`
}

// CreateProfitCenterInput groups the fields for creating a profit center.
type CreateProfitCenterInput struct {
	CompanyID            uuid.UUID        `json:"company_id" validate:"required"`
	Code                 string           `json:"code" validate:"required,max=50"`
	Name                 string           `json:"name" validate:"required,max=200"`
	CenterType           ProfitCenterType `json:"center_type" validate:"required"`
	ParentProfitCenterID *uuid.UUID       `json:"parent_profit_center_id,omitempty"`
}

// Validate applies semantic checks.
func (in CreateProfitCenterInput) Validate() error {
	if strings.TrimSpace(in.Code) == "" {
		return shared.Validationf("centers: code is required")
	}
	switch in.CenterType {
	case ProfitTypeStandard, ProfitTypeInvestment:
		return nil
	default:
		return shared.Validationf("centers: unknown profit center type %q", in.CenterType)
	}
}

// UpdateProfitCenterInput patches a profit center. Nil fields keep current values.
type UpdateProfitCenterInput struct {
	Code                 *string           `json:"code,omitempty" validate:"omitempty,max=50"`
	Name                 *string           `json:"name,omitempty" validate:"omitempty,max=200"`
	CenterType           *ProfitCenterType `json:"center_type,omitempty"`
	ParentProfitCenterID *uuid.UUID        `json:"parent_profit_center_id,omitempty"`
	IsActive             *bool             `json:"is_active,omitempty"`
}

var (
	// ErrCostCenterNotFound indicates a missing cost center.
	ErrCostCenterNotFound = fmt.Errorf("centers: cost center %w", shared.ErrNotFound)
	// ErrProfitCenterNotFound indicates a missing profit center.
	ErrProfitCenterNotFound = fmt.Errorf("centers: profit center %w", shared.ErrNotFound)
	// ErrParentNotFound indicates a missing parent center.
	ErrParentNotFound = fmt.Errorf("centers: parent center %w", shared.ErrNotFound)
	// ErrSelfParent rejects a center pointing at itself.
	ErrSelfParent = fmt.Errorf("centers: center cannot be its own parent: %w", shared.ErrValidation)
	// ErrCodeTaken indicates the code is already in use.
	ErrCodeTaken = fmt.Errorf("centers: code already in use: %w", shared.ErrConflict)
)
