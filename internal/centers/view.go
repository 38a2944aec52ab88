package centers

import "time"

// CostCenterResponse is the API shape of a cost center.
type CostCenterResponse struct {
	ID                 string         `json:"id"`
	CompanyID          string         `json:"company_id"`
	Code               string         `json:"code"`
	Name               string         `json:"name"`
	CenterType         CostCenterType `json:"center_type"`
	ParentCostCenterID *string        `json:"parent_cost_center_id,omitempty"`
	ProfitCenterID     *string        `json:"profit_center_id,omitempty"`
	IsActive           bool           `json:"is_active"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// ProfitCenterResponse is the API shape of a profit center.
type ProfitCenterResponse struct {
	ID                   string           `json:"id"`
	CompanyID            string           `json:"company_id"`
	Code                 string           `json:"code"`
	Name                 string           `json:"name"`
	CenterType           ProfitCenterType `json:"center_type"`
	ParentProfitCenterID *string          `json:"parent_profit_center_id,omitempty"`
	IsActive             bool             `json:"is_active"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

func toCostCenterResponse(cc CostCenter) CostCenterResponse {
	resp := CostCenterResponse{
		ID:         cc.ID.String(),
		CompanyID:  cc.CompanyID.String(),
		Code:       cc.Code,
		Name:       cc.Name,
		CenterType: cc.CenterType,
		IsActive:   cc.IsActive,
		CreatedAt:  cc.CreatedAt,
		UpdatedAt:  cc.UpdatedAt,
	}
	if cc.ParentCostCenterID != nil {
		parent := cc.ParentCostCenterID.String()
		resp.ParentCostCenterID = &parent
	}
	if cc.ProfitCenterID != nil {
		pc := cc.ProfitCenterID.String()
		resp.ProfitCenterID = &pc
	}
	return resp
}

func toCostCenterResponses(ccs []CostCenter) []CostCenterResponse {
	out := make([]CostCenterResponse, 0, len(ccs))
	for _, cc := range ccs {
		out = append(out, toCostCenterResponse(cc))
	}
	return out
}

func toProfitCenterResponse(pc ProfitCenter) ProfitCenterResponse {
	resp := ProfitCenterResponse{
		ID:         pc.ID.String(),
		CompanyID:  pc.CompanyID.String(),
		Code:       pc.Code,
		Name:       pc.Name,
		CenterType: pc.CenterType,
		IsActive:   pc.IsActive,
		CreatedAt:  pc.CreatedAt,
		UpdatedAt:  pc.UpdatedAt,
	}
	if pc.ParentProfitCenterID != nil {
		parent := pc.ParentProfitCenterID.String()
		resp.ParentProfitCenterID = &parent
	}
	return resp
}

func toProfitCenterResponses(pcs []ProfitCenter) []ProfitCenterResponse {
	out := make([]ProfitCenterResponse, 0, len(pcs))
	for _, pc := range pcs {
		out = append(out, toProfitCenterResponse(pc))
	}
	return out
}
