// Package ledger owns journal entries and their lines. It allocates entry
// numbers, derives debit/credit columns from signed amounts, and refuses to
// persist an entry whose debits and credits do not balance.
package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryStatus enumerates the journal entry lifecycle.
type EntryStatus string

const (
	StatusDraft     EntryStatus = "DRAFT"
	StatusPosted    EntryStatus = "POSTED"
	StatusCancelled EntryStatus = "CANCELLED"
)

// JournalEntry captures a balanced set of postings inside one fiscal period.
type JournalEntry struct {
	ID             uuid.UUID
	CompanyID      uuid.UUID
	EntryNumber    string
	EntryDate      time.Time
	FiscalPeriodID uuid.UUID
	Description    string
	Reference      string
	SourceDocument string
	TotalDebit     decimal.Decimal
	TotalCredit    decimal.Decimal
	Status         EntryStatus
	PostedDate     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Lines          []Line
}

// Line stores a debit or credit amount against one account. Exactly one of
// DebitAmount/CreditAmount is non-zero for any persisted line.
type Line struct {
	ID             uuid.UUID
	JournalEntryID uuid.UUID
	LineNumber     int
	AccountID      uuid.UUID
	DebitAmount    decimal.Decimal
	CreditAmount   decimal.Decimal
	CostCenterID   *uuid.UUID
	ProfitCenterID *uuid.UUID
	Description    string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PostingAccount is the slice of an account the posting engine needs for
// referential checks.
type PostingAccount struct {
	ID                 uuid.UUID
	Code               string
	IsActive           bool
	CostCenterRequired bool
}

// PostingPeriod is the slice of a fiscal period the posting engine needs.
type PostingPeriod struct {
	ID       uuid.UUID
	IsClosed bool
}

// DeriveAmounts maps a signed amount onto the debit/credit pair. A
// non-negative amount is a debit, a negative amount is a credit of its
// magnitude. Exactly one side carries the value; the other is zero.
func DeriveAmounts(amount decimal.Decimal) (debit, credit decimal.Decimal) {
	if amount.Sign() >= 0 {
		return amount, decimal.Zero
	}
	return decimal.Zero, amount.Neg()
}

// Totals sums the derived debit and credit columns across lines.
func Totals(lines []Line) (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, line := range lines {
		debit = debit.Add(line.DebitAmount)
		credit = credit.Add(line.CreditAmount)
	}
	return debit, credit
}

// Balanced reports whether total debits equal total credits.
func Balanced(lines []Line) bool {
	debit, credit := Totals(lines)
	return debit.Equal(credit)
}
