package ledger

import (
	"fmt"

	"github.com/atlas-erp/accounting/internal/shared"
)

var (
	// ErrUnbalanced indicates sum(debit) != sum(credit).
	ErrUnbalanced = fmt.Errorf("ledger: journal lines must balance: %w", shared.ErrValidation)
	// ErrNoLines indicates an entry without lines.
	ErrNoLines = fmt.Errorf("ledger: journal entry requires at least one line: %w", shared.ErrValidation)
	// ErrEntryNotFound indicates a missing journal entry.
	ErrEntryNotFound = fmt.Errorf("ledger: journal entry %w", shared.ErrNotFound)
	// ErrLineNotFound indicates a missing journal entry line.
	ErrLineNotFound = fmt.Errorf("ledger: journal entry line %w", shared.ErrNotFound)
	// ErrNumberTaken indicates the entry number already exists for the company.
	ErrNumberTaken = fmt.Errorf("ledger: entry number already exists for this company: %w", shared.ErrConflict)
	// ErrPeriodNotFound indicates the referenced fiscal period is absent.
	ErrPeriodNotFound = fmt.Errorf("ledger: fiscal period %w", shared.ErrNotFound)
	// ErrPeriodClosed indicates a posting into a closed fiscal period.
	ErrPeriodClosed = fmt.Errorf("ledger: fiscal period is closed: %w", shared.ErrValidation)
	// ErrAccountNotFound indicates a line references an absent account.
	ErrAccountNotFound = fmt.Errorf("ledger: account %w", shared.ErrNotFound)
	// ErrAccountInactive indicates a line references a deactivated account.
	ErrAccountInactive = fmt.Errorf("ledger: account is inactive: %w", shared.ErrValidation)
	// ErrCostCenterRequired indicates a line on a cost-center-required account without a cost center.
	ErrCostCenterRequired = fmt.Errorf("ledger: account requires a cost center on each line: %w", shared.ErrValidation)
	// ErrEntryPosted indicates a destructive operation on a posted entry.
	ErrEntryPosted = fmt.Errorf("ledger: posted entries cannot be deleted, cancel them instead: %w", shared.ErrValidation)
	// ErrInvalidStatus indicates a lifecycle transition from the wrong state.
	ErrInvalidStatus = fmt.Errorf("ledger: invalid status for this operation: %w", shared.ErrValidation)
	// ErrNotDraft indicates a line-level mutation on a non-draft entry.
	ErrNotDraft = fmt.Errorf("ledger: lines can only be edited on draft entries: %w", shared.ErrValidation)
)
