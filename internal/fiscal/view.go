package fiscal

import "time"

// YearResponse is the API shape of a fiscal year.
type YearResponse struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"company_id"`
	YearCode  string    `json:"year_code"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	IsClosed  bool      `json:"is_closed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PeriodResponse is the API shape of a fiscal period.
type PeriodResponse struct {
	ID           string    `json:"id"`
	FiscalYearID string    `json:"fiscal_year_id"`
	PeriodNumber int       `json:"period_number"`
	PeriodName   string    `json:"period_name"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	IsClosed     bool      `json:"is_closed"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toYearResponse(y FiscalYear) YearResponse {
	return YearResponse{
		ID:        y.ID.String(),
		CompanyID: y.CompanyID.String(),
		YearCode:  y.YearCode,
		StartDate: y.StartDate,
		EndDate:   y.EndDate,
		IsClosed:  y.IsClosed,
		CreatedAt: y.CreatedAt,
		UpdatedAt: y.UpdatedAt,
	}
}

func toYearResponses(years []FiscalYear) []YearResponse {
	out := make([]YearResponse, 0, len(years))
	for _, y := range years {
		out = append(out, toYearResponse(y))
	}
	return out
}

func toPeriodResponse(p FiscalPeriod) PeriodResponse {
	return PeriodResponse{
		ID:           p.ID.String(),
		FiscalYearID: p.FiscalYearID.String(),
		PeriodNumber: p.PeriodNumber,
		PeriodName:   p.PeriodName,
		StartDate:    p.StartDate,
		EndDate:      p.EndDate,
		IsClosed:     p.IsClosed,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func toPeriodResponses(periods []FiscalPeriod) []PeriodResponse {
	out := make([]PeriodResponse, 0, len(periods))
	for _, p := range periods {
		out = append(out, toPeriodResponse(p))
	}
	return out
}
