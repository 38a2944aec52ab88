package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineInput describes one posting line. Amount is signed: non-negative
// amounts debit the account, negative amounts credit it.
type LineInput struct {
	AccountID      uuid.UUID       `json:"account_id" validate:"required"`
	Amount         decimal.Decimal `json:"amount"`
	Description    string          `json:"description,omitempty"`
	CostCenterID   *uuid.UUID      `json:"cost_center_id,omitempty"`
	ProfitCenterID *uuid.UUID      `json:"profit_center_id,omitempty"`
}

// CreateEntryInput groups the fields required to create a journal entry.
// EntryNumber is optional; when empty the engine allocates the next number
// for the company/day.
type CreateEntryInput struct {
	CompanyID      uuid.UUID   `json:"company_id" validate:"required"`
	FiscalPeriodID uuid.UUID   `json:"fiscal_period_id" validate:"required"`
	EntryDate      time.Time   `json:"entry_date"`
	EntryNumber    string      `json:"entry_number,omitempty" validate:"omitempty,max=50"`
	Description    string      `json:"description,omitempty"`
	Reference      string      `json:"reference,omitempty" validate:"omitempty,max=100"`
	SourceDocument string      `json:"source_document,omitempty" validate:"omitempty,max=100"`
	Lines          []LineInput `json:"lines" validate:"required,min=1,dive"`
}

// Validate applies the semantic checks the engine guarantees before any
// persistence call: at least one line, known accounts per line, and the
// double-entry balance invariant over the derived amounts.
func (in CreateEntryInput) Validate() error {
	return validateLines(in.Lines)
}

// UpdateEntryInput patches a journal entry. Nil fields keep their current
// values; a non-nil Lines replaces the entire line set.
type UpdateEntryInput struct {
	EntryDate      *time.Time  `json:"entry_date,omitempty"`
	Description    *string     `json:"description,omitempty"`
	Reference      *string     `json:"reference,omitempty" validate:"omitempty,max=100"`
	SourceDocument *string     `json:"source_document,omitempty" validate:"omitempty,max=100"`
	Lines          []LineInput `json:"lines,omitempty" validate:"omitempty,min=1,dive"`
}

func validateLines(lines []LineInput) error {
	if len(lines) == 0 {
		return ErrNoLines
	}
	debit, credit := decimal.Zero, decimal.Zero
	for _, line := range lines {
		if line.AccountID == uuid.Nil {
			return ErrAccountNotFound
		}
		d, c := DeriveAmounts(line.Amount)
		debit = debit.Add(d)
		credit = credit.Add(c)
	}
	if !debit.Equal(credit) {
		return ErrUnbalanced
	}
	return nil
}

// buildLines derives debit/credit columns and assigns ascending line
// numbers starting at 1 in input order.
func buildLines(entryID uuid.UUID, inputs []LineInput) []Line {
	lines := make([]Line, 0, len(inputs))
	for idx, in := range inputs {
		debit, credit := DeriveAmounts(in.Amount)
		lines = append(lines, Line{
			JournalEntryID: entryID,
			LineNumber:     idx + 1,
			AccountID:      in.AccountID,
			DebitAmount:    debit,
			CreditAmount:   credit,
			CostCenterID:   in.CostCenterID,
			ProfitCenterID: in.ProfitCenterID,
			Description:    in.Description,
		})
	}
	return lines
}
