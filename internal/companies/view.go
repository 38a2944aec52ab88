package companies

import "time"

// CompanyResponse is the API shape of a company.
type CompanyResponse struct {
	ID                   string    `json:"id"`
	Code                 string    `json:"code"`
	Name                 string    `json:"name"`
	LegalName            string    `json:"legal_name,omitempty"`
	ParentCompanyID      *string   `json:"parent_company_id,omitempty"`
	FunctionalCurrencyID *string   `json:"functional_currency_id,omitempty"`
	TaxID                string    `json:"tax_id,omitempty"`
	IsActive             bool      `json:"is_active"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// CurrencyResponse is the API shape of a currency.
type CurrencyResponse struct {
	ID            string    `json:"id"`
	Code          string    `json:"code"`
	Name          string    `json:"name"`
	Symbol        string    `json:"symbol,omitempty"`
	DecimalPlaces int       `json:"decimal_places"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toCompanyResponse(c Company) CompanyResponse {
	resp := CompanyResponse{
		ID:        c.ID.String(),
		Code:      c.Code,
		Name:      c.Name,
		LegalName: c.LegalName,
		TaxID:     c.TaxID,
		IsActive:  c.IsActive,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if c.ParentCompanyID != nil {
		parent := c.ParentCompanyID.String()
		resp.ParentCompanyID = &parent
	}
	if c.FunctionalCurrencyID != nil {
		currency := c.FunctionalCurrencyID.String()
		resp.FunctionalCurrencyID = &currency
	}
	return resp
}

func toCompanyResponses(companies []Company) []CompanyResponse {
	out := make([]CompanyResponse, 0, len(companies))
	for _, c := range companies {
		out = append(out, toCompanyResponse(c))
	}
	return out
}

func toCurrencyResponse(c Currency) CurrencyResponse {
	return CurrencyResponse{
		ID:            c.ID.String(),
		Code:          c.Code,
		Name:          c.Name,
		Symbol:        c.Symbol,
		DecimalPlaces: c.DecimalPlaces,
		IsActive:      c.IsActive,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func toCurrencyResponses(currencies []Currency) []CurrencyResponse {
	out := make([]CurrencyResponse, 0, len(currencies))
	for _, c := range currencies {
		out = append(out, toCurrencyResponse(c))
	}
	return out
}
