package accounts

import "time"

// Response is the API shape of an account.
type Response struct {
	ID                 string    `json:"id"`
	CompanyID          string    `json:"company_id"`
	Code               string    `json:"code"`
	Name               string    `json:"name"`
	Category           Category  `json:"category"`
	Type               Type      `json:"type"`
	ParentAccountID    *string   `json:"parent_account_id,omitempty"`
	IsControlAccount   bool      `json:"is_control_account"`
	IsInterCompany     bool      `json:"is_inter_company"`
	CostCenterRequired bool      `json:"cost_center_required"`
	IsActive           bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func toResponse(a Account) Response {
	resp := Response{
		ID:                 a.ID.String(),
		CompanyID:          a.CompanyID.String(),
		Code:               a.Code,
		Name:               a.Name,
		Category:           a.Category,
		Type:               a.Type,
		IsControlAccount:   a.IsControlAccount,
		IsInterCompany:     a.IsInterCompany,
		CostCenterRequired: a.CostCenterRequired,
		IsActive:           a.IsActive,
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          a.UpdatedAt,
	}
	if a.ParentAccountID != nil {
		parent := a.ParentAccountID.String()
		resp.ParentAccountID = &parent
	}
	return resp
}

func toResponses(accounts []Account) []Response {
	out := make([]Response, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toResponse(a))
	}
	return out
}
