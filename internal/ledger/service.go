package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/atlas-erp/accounting/internal/events"
)

// numberAllocAttempts bounds the retry loop when concurrent creations race
// on the same company/day sequence. The unique constraint on
// (company_id, entry_number) turns the loser's insert into a conflict that
// is retried with a fresh number.
const numberAllocAttempts = 3

// Service is the ledger posting engine.
type Service struct {
	repo      Repository
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewService constructs the posting engine. The publisher is injected, never
// a process-wide singleton.
func NewService(repo Repository, publisher events.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, publisher: publisher, logger: logger, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create persists a journal entry with its lines as one transaction. The
// entry number is allocated per company/day unless the caller supplied one,
// and the balance invariant is enforced before any write.
func (s *Service) Create(ctx context.Context, in CreateEntryInput) (JournalEntry, error) {
	if err := in.Validate(); err != nil {
		return JournalEntry{}, err
	}
	date := in.EntryDate
	if date.IsZero() {
		date = s.now()
	}

	autoNumber := in.EntryNumber == ""
	attempts := 1
	if autoNumber {
		attempts = numberAllocAttempts
	}

	var entry JournalEntry
	for attempt := 0; attempt < attempts; attempt++ {
		err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			period, err := tx.GetPeriod(ctx, in.FiscalPeriodID)
			if err != nil {
				return err
			}
			if period.IsClosed {
				return ErrPeriodClosed
			}
			if err := checkAccounts(ctx, tx, in.Lines); err != nil {
				return err
			}

			number := in.EntryNumber
			if autoNumber {
				last, err := tx.LatestEntryNumber(ctx, in.CompanyID, EntryNumberPrefix(date))
				if err != nil {
					return err
				}
				number = NextEntryNumber(last, date)
			} else {
				taken, err := tx.EntryNumberExists(ctx, in.CompanyID, number)
				if err != nil {
					return err
				}
				if taken {
					return ErrNumberTaken
				}
			}

			lines := buildLines(uuid.Nil, in.Lines)
			debit, credit := Totals(lines)
			inserted, err := tx.InsertEntry(ctx, JournalEntry{
				CompanyID:      in.CompanyID,
				EntryNumber:    number,
				EntryDate:      date,
				FiscalPeriodID: in.FiscalPeriodID,
				Description:    in.Description,
				Reference:      in.Reference,
				SourceDocument: in.SourceDocument,
				TotalDebit:     debit,
				TotalCredit:    credit,
				Status:         StatusDraft,
			})
			if err != nil {
				return err
			}
			for i := range lines {
				lines[i].JournalEntryID = inserted.ID
			}
			inserted.Lines, err = tx.InsertLines(ctx, lines)
			if err != nil {
				return err
			}
			entry = inserted
			return nil
		})
		if err != nil {
			if autoNumber && errors.Is(err, ErrNumberTaken) && attempt < attempts-1 {
				continue
			}
			return JournalEntry{}, err
		}
		break
	}

	events.Emit(ctx, s.logger, s.publisher, "accounting.journal_entry.created", map[string]any{
		"id":           entry.ID.String(),
		"entry_number": entry.EntryNumber,
		"company_id":   entry.CompanyID.String(),
	})
	return entry, nil
}

// Get returns an entry with its lines.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (JournalEntry, error) {
	return s.repo.GetEntryWithLines(ctx, id)
}

// List returns entries matching the filter plus the unpaged total.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]JournalEntry, int, error) {
	return s.repo.List(ctx, filter)
}

// Update patches scalar fields and, when Lines is present, replaces the
// whole line set and re-validates the balance invariant. Only draft
// entries are mutable; posted figures change via Cancel plus a new entry.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateEntryInput) (JournalEntry, error) {
	if in.Lines != nil {
		if err := validateLines(in.Lines); err != nil {
			return JournalEntry{}, err
		}
	}
	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.Status != StatusDraft {
			return ErrInvalidStatus
		}
		if err := s.ensurePeriodOpen(ctx, tx, current.FiscalPeriodID); err != nil {
			return err
		}
		if in.EntryDate != nil {
			current.EntryDate = *in.EntryDate
		}
		if in.Description != nil {
			current.Description = *in.Description
		}
		if in.Reference != nil {
			current.Reference = *in.Reference
		}
		if in.SourceDocument != nil {
			current.SourceDocument = *in.SourceDocument
		}
		if in.Lines != nil {
			if err := checkAccounts(ctx, tx, in.Lines); err != nil {
				return err
			}
			if err := tx.DeleteLines(ctx, current.ID); err != nil {
				return err
			}
			lines := buildLines(current.ID, in.Lines)
			current.TotalDebit, current.TotalCredit = Totals(lines)
			current.Lines, err = tx.InsertLines(ctx, lines)
			if err != nil {
				return err
			}
		} else if current.Lines, err = tx.GetLines(ctx, current.ID); err != nil {
			return err
		}
		if err := tx.UpdateEntry(ctx, current); err != nil {
			return err
		}
		entry = current
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	events.Emit(ctx, s.logger, s.publisher, "accounting.journal_entry.updated", map[string]any{
		"id":           entry.ID.String(),
		"entry_number": entry.EntryNumber,
		"company_id":   entry.CompanyID.String(),
	})
	return entry, nil
}

// Delete removes an entry and all of its lines in one transaction. Posted
// entries must be cancelled instead.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.Status == StatusPosted {
			return ErrEntryPosted
		}
		if err := s.ensurePeriodOpen(ctx, tx, current.FiscalPeriodID); err != nil {
			return err
		}
		if err := tx.DeleteLines(ctx, current.ID); err != nil {
			return err
		}
		if err := tx.DeleteEntry(ctx, current.ID); err != nil {
			return err
		}
		entry = current
		return nil
	})
	if err != nil {
		return err
	}
	events.Emit(ctx, s.logger, s.publisher, "accounting.journal_entry.deleted", map[string]any{
		"id":           entry.ID.String(),
		"entry_number": entry.EntryNumber,
		"company_id":   entry.CompanyID.String(),
	})
	return nil
}

// Post transitions a draft entry to posted after re-checking the balance
// invariant against the stored lines.
func (s *Service) Post(ctx context.Context, id uuid.UUID) (JournalEntry, error) {
	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.Status != StatusDraft {
			return ErrInvalidStatus
		}
		if err := s.ensurePeriodOpen(ctx, tx, current.FiscalPeriodID); err != nil {
			return err
		}
		lines, err := tx.GetLines(ctx, current.ID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrNoLines
		}
		if !Balanced(lines) {
			return ErrUnbalanced
		}
		current.TotalDebit, current.TotalCredit = Totals(lines)
		current.Status = StatusPosted
		posted := s.now()
		current.PostedDate = &posted
		if err := tx.UpdateEntry(ctx, current); err != nil {
			return err
		}
		current.Lines = lines
		entry = current
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	events.Emit(ctx, s.logger, s.publisher, "accounting.journal_entry.posted", map[string]any{
		"id":           entry.ID.String(),
		"entry_number": entry.EntryNumber,
		"company_id":   entry.CompanyID.String(),
	})
	return entry, nil
}

// Cancel transitions a posted entry to cancelled. The entry and its lines
// are retained for the audit trail.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (JournalEntry, error) {
	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.Status != StatusPosted {
			return ErrInvalidStatus
		}
		if err := s.ensurePeriodOpen(ctx, tx, current.FiscalPeriodID); err != nil {
			return err
		}
		current.Status = StatusCancelled
		if err := tx.UpdateEntry(ctx, current); err != nil {
			return err
		}
		if current.Lines, err = tx.GetLines(ctx, current.ID); err != nil {
			return err
		}
		entry = current
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	events.Emit(ctx, s.logger, s.publisher, "accounting.journal_entry.cancelled", map[string]any{
		"id":           entry.ID.String(),
		"entry_number": entry.EntryNumber,
		"company_id":   entry.CompanyID.String(),
	})
	return entry, nil
}

// GetLine returns a single line of an entry.
func (s *Service) GetLine(ctx context.Context, entryID, lineID uuid.UUID) (Line, error) {
	return s.repo.GetLine(ctx, entryID, lineID)
}

// AddLine appends one line to a draft entry, assigning the next line
// number. The entry balance is re-checked at post time.
func (s *Service) AddLine(ctx context.Context, entryID uuid.UUID, in LineInput) (Line, error) {
	var line Line
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		entry, existing, err := s.draftEntryForLineEdit(ctx, tx, entryID)
		if err != nil {
			return err
		}
		if err := checkAccounts(ctx, tx, []LineInput{in}); err != nil {
			return err
		}
		debit, credit := DeriveAmounts(in.Amount)
		inserted, err := tx.InsertLine(ctx, Line{
			JournalEntryID: entryID,
			LineNumber:     len(existing) + 1,
			AccountID:      in.AccountID,
			DebitAmount:    debit,
			CreditAmount:   credit,
			CostCenterID:   in.CostCenterID,
			ProfitCenterID: in.ProfitCenterID,
			Description:    in.Description,
		})
		if err != nil {
			return err
		}
		line = inserted
		return s.refreshTotals(ctx, tx, entry)
	})
	return line, err
}

// UpdateLine replaces the amount and metadata of one line on a draft entry.
func (s *Service) UpdateLine(ctx context.Context, entryID, lineID uuid.UUID, in LineInput) (Line, error) {
	var line Line
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		entry, existing, err := s.draftEntryForLineEdit(ctx, tx, entryID)
		if err != nil {
			return err
		}
		var current *Line
		for i := range existing {
			if existing[i].ID == lineID {
				current = &existing[i]
				break
			}
		}
		if current == nil {
			return ErrLineNotFound
		}
		if err := checkAccounts(ctx, tx, []LineInput{in}); err != nil {
			return err
		}
		current.AccountID = in.AccountID
		current.DebitAmount, current.CreditAmount = DeriveAmounts(in.Amount)
		current.CostCenterID = in.CostCenterID
		current.ProfitCenterID = in.ProfitCenterID
		current.Description = in.Description
		if err := tx.UpdateLine(ctx, *current); err != nil {
			return err
		}
		line = *current
		return s.refreshTotals(ctx, tx, entry)
	})
	return line, err
}

// DeleteLine removes one line from a draft entry and renumbers the rest.
// The last line cannot be removed; delete the entry instead.
func (s *Service) DeleteLine(ctx context.Context, entryID, lineID uuid.UUID) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		entry, existing, err := s.draftEntryForLineEdit(ctx, tx, entryID)
		if err != nil {
			return err
		}
		found := false
		for _, l := range existing {
			if l.ID == lineID {
				found = true
				break
			}
		}
		if !found {
			return ErrLineNotFound
		}
		if len(existing) == 1 {
			return ErrNoLines
		}
		if err := tx.DeleteLine(ctx, lineID); err != nil {
			return err
		}
		if err := tx.RenumberLines(ctx, entryID); err != nil {
			return err
		}
		return s.refreshTotals(ctx, tx, entry)
	})
}

func (s *Service) draftEntryForLineEdit(ctx context.Context, tx TxRepository, entryID uuid.UUID) (JournalEntry, []Line, error) {
	entry, err := tx.GetEntryForUpdate(ctx, entryID)
	if err != nil {
		return JournalEntry{}, nil, err
	}
	if entry.Status != StatusDraft {
		return JournalEntry{}, nil, ErrNotDraft
	}
	if err := s.ensurePeriodOpen(ctx, tx, entry.FiscalPeriodID); err != nil {
		return JournalEntry{}, nil, err
	}
	lines, err := tx.GetLines(ctx, entryID)
	if err != nil {
		return JournalEntry{}, nil, err
	}
	return entry, lines, nil
}

func (s *Service) refreshTotals(ctx context.Context, tx TxRepository, entry JournalEntry) error {
	lines, err := tx.GetLines(ctx, entry.ID)
	if err != nil {
		return err
	}
	entry.TotalDebit, entry.TotalCredit = Totals(lines)
	return tx.UpdateEntry(ctx, entry)
}

func (s *Service) ensurePeriodOpen(ctx context.Context, tx TxRepository, periodID uuid.UUID) error {
	period, err := tx.GetPeriod(ctx, periodID)
	if err != nil {
		return err
	}
	if period.IsClosed {
		return ErrPeriodClosed
	}
	return nil
}

func checkAccounts(ctx context.Context, tx TxRepository, lines []LineInput) error {
	ids := make([]uuid.UUID, 0, len(lines))
	seen := make(map[uuid.UUID]struct{}, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.AccountID]; ok {
			continue
		}
		seen[line.AccountID] = struct{}{}
		ids = append(ids, line.AccountID)
	}
	accounts, err := tx.GetPostingAccounts(ctx, ids)
	if err != nil {
		return err
	}
	for _, line := range lines {
		account, ok := accounts[line.AccountID]
		if !ok {
			return ErrAccountNotFound
		}
		if !account.IsActive {
			return ErrAccountInactive
		}
		if account.CostCenterRequired && line.CostCenterID == nil {
			return ErrCostCenterRequired
		}
	}
	return nil
}
