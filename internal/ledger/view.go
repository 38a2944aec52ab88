package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryResponse is the canonical serialized journal entry.
type EntryResponse struct {
	ID             uuid.UUID       `json:"id"`
	CompanyID      uuid.UUID       `json:"company_id"`
	EntryNumber    string          `json:"entry_number"`
	EntryDate      time.Time       `json:"entry_date"`
	FiscalPeriodID uuid.UUID       `json:"fiscal_period_id"`
	Description    string          `json:"description,omitempty"`
	Reference      string          `json:"reference,omitempty"`
	SourceDocument string          `json:"source_document,omitempty"`
	TotalDebit     decimal.Decimal `json:"total_debit"`
	TotalCredit    decimal.Decimal `json:"total_credit"`
	Status         EntryStatus     `json:"status"`
	PostedDate     *time.Time      `json:"posted_date,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Lines          []LineResponse  `json:"lines,omitempty"`
}

// LineResponse is the canonical serialized journal entry line.
type LineResponse struct {
	ID             uuid.UUID       `json:"id"`
	JournalEntryID uuid.UUID       `json:"journal_entry_id"`
	LineNumber     int             `json:"line_number"`
	AccountID      uuid.UUID       `json:"account_id"`
	DebitAmount    decimal.Decimal `json:"debit_amount"`
	CreditAmount   decimal.Decimal `json:"credit_amount"`
	CostCenterID   *uuid.UUID      `json:"cost_center_id,omitempty"`
	ProfitCenterID *uuid.UUID      `json:"profit_center_id,omitempty"`
	Description    string          `json:"description,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func toEntryResponse(entry JournalEntry) EntryResponse {
	resp := EntryResponse{
		ID:             entry.ID,
		CompanyID:      entry.CompanyID,
		EntryNumber:    entry.EntryNumber,
		EntryDate:      entry.EntryDate,
		FiscalPeriodID: entry.FiscalPeriodID,
		Description:    entry.Description,
		Reference:      entry.Reference,
		SourceDocument: entry.SourceDocument,
		TotalDebit:     entry.TotalDebit,
		TotalCredit:    entry.TotalCredit,
		Status:         entry.Status,
		PostedDate:     entry.PostedDate,
		CreatedAt:      entry.CreatedAt,
		UpdatedAt:      entry.UpdatedAt,
	}
	for _, line := range entry.Lines {
		resp.Lines = append(resp.Lines, toLineResponse(line))
	}
	return resp
}

func toLineResponse(line Line) LineResponse {
	return LineResponse{
		ID:             line.ID,
		JournalEntryID: line.JournalEntryID,
		LineNumber:     line.LineNumber,
		AccountID:      line.AccountID,
		DebitAmount:    line.DebitAmount,
		CreditAmount:   line.CreditAmount,
		CostCenterID:   line.CostCenterID,
		ProfitCenterID: line.ProfitCenterID,
		Description:    line.Description,
		CreatedAt:      line.CreatedAt,
		UpdatedAt:      line.UpdatedAt,
	}
}

func toEntryResponses(entries []JournalEntry) []EntryResponse {
	out := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResponse(e))
	}
	return out
}
