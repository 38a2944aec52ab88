package ledger

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas-erp/accounting/internal/shared"
)

type fakeRepo struct {
	periods  map[uuid.UUID]PostingPeriod
	accounts map[uuid.UUID]PostingAccount
	entries  map[uuid.UUID]*JournalEntry
	lines    map[uuid.UUID][]Line

	// conflictOnce makes the next InsertEntry lose the number race: a
	// competing entry with the same number appears and the insert fails.
	conflictOnce bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		periods:  make(map[uuid.UUID]PostingPeriod),
		accounts: make(map[uuid.UUID]PostingAccount),
		entries:  make(map[uuid.UUID]*JournalEntry),
		lines:    make(map[uuid.UUID][]Line),
	}
}

func (f *fakeRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, f)
}

func (f *fakeRepo) GetEntryWithLines(ctx context.Context, id uuid.UUID) (JournalEntry, error) {
	entry, err := f.GetEntryForUpdate(ctx, id)
	if err != nil {
		return JournalEntry{}, err
	}
	entry.Lines, _ = f.GetLines(ctx, id)
	return entry, nil
}

func (f *fakeRepo) List(ctx context.Context, filter ListFilter) ([]JournalEntry, int, error) {
	var out []JournalEntry
	for _, e := range f.entries {
		if filter.CompanyID != nil && e.CompanyID != *filter.CompanyID {
			continue
		}
		if filter.Status != nil && e.Status != *filter.Status {
			continue
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntryNumber > out[j].EntryNumber })
	return out, len(out), nil
}

func (f *fakeRepo) GetLine(ctx context.Context, entryID, lineID uuid.UUID) (Line, error) {
	for _, l := range f.lines[entryID] {
		if l.ID == lineID {
			return l, nil
		}
	}
	return Line{}, ErrLineNotFound
}

func (f *fakeRepo) GetPeriod(ctx context.Context, id uuid.UUID) (PostingPeriod, error) {
	p, ok := f.periods[id]
	if !ok {
		return PostingPeriod{}, ErrPeriodNotFound
	}
	return p, nil
}

func (f *fakeRepo) GetPostingAccounts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]PostingAccount, error) {
	out := make(map[uuid.UUID]PostingAccount, len(ids))
	for _, id := range ids {
		if a, ok := f.accounts[id]; ok {
			out[id] = a
		}
	}
	return out, nil
}

func (f *fakeRepo) LatestEntryNumber(ctx context.Context, companyID uuid.UUID, prefix string) (string, error) {
	latest := ""
	for _, e := range f.entries {
		if e.CompanyID == companyID && strings.HasPrefix(e.EntryNumber, prefix) && e.EntryNumber > latest {
			latest = e.EntryNumber
		}
	}
	return latest, nil
}

func (f *fakeRepo) EntryNumberExists(ctx context.Context, companyID uuid.UUID, number string) (bool, error) {
	for _, e := range f.entries {
		if e.CompanyID == companyID && e.EntryNumber == number {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) InsertEntry(ctx context.Context, entry JournalEntry) (JournalEntry, error) {
	if f.conflictOnce {
		f.conflictOnce = false
		racer := entry
		racer.ID = uuid.New()
		f.entries[racer.ID] = &racer
		return JournalEntry{}, ErrNumberTaken
	}
	if taken, _ := f.EntryNumberExists(ctx, entry.CompanyID, entry.EntryNumber); taken {
		return JournalEntry{}, ErrNumberTaken
	}
	entry.ID = uuid.New()
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = entry.CreatedAt
	stored := entry
	f.entries[entry.ID] = &stored
	return entry, nil
}

func (f *fakeRepo) InsertLines(ctx context.Context, lines []Line) ([]Line, error) {
	out := make([]Line, 0, len(lines))
	for _, line := range lines {
		inserted, err := f.InsertLine(ctx, line)
		if err != nil {
			return nil, err
		}
		out = append(out, inserted)
	}
	return out, nil
}

func (f *fakeRepo) GetEntryForUpdate(ctx context.Context, id uuid.UUID) (JournalEntry, error) {
	e, ok := f.entries[id]
	if !ok {
		return JournalEntry{}, ErrEntryNotFound
	}
	entry := *e
	entry.Lines = nil
	return entry, nil
}

func (f *fakeRepo) GetLines(ctx context.Context, entryID uuid.UUID) ([]Line, error) {
	lines := append([]Line(nil), f.lines[entryID]...)
	sort.Slice(lines, func(i, j int) bool { return lines[i].LineNumber < lines[j].LineNumber })
	return lines, nil
}

func (f *fakeRepo) UpdateEntry(ctx context.Context, entry JournalEntry) error {
	stored, ok := f.entries[entry.ID]
	if !ok {
		return ErrEntryNotFound
	}
	entry.Lines = nil
	entry.CreatedAt = stored.CreatedAt
	*stored = entry
	return nil
}

func (f *fakeRepo) DeleteLines(ctx context.Context, entryID uuid.UUID) error {
	delete(f.lines, entryID)
	return nil
}

func (f *fakeRepo) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.entries[id]; !ok {
		return ErrEntryNotFound
	}
	delete(f.entries, id)
	return nil
}

func (f *fakeRepo) InsertLine(ctx context.Context, line Line) (Line, error) {
	line.ID = uuid.New()
	line.CreatedAt = time.Now()
	line.UpdatedAt = line.CreatedAt
	f.lines[line.JournalEntryID] = append(f.lines[line.JournalEntryID], line)
	return line, nil
}

func (f *fakeRepo) UpdateLine(ctx context.Context, line Line) error {
	lines := f.lines[line.JournalEntryID]
	for i := range lines {
		if lines[i].ID == line.ID {
			line.CreatedAt = lines[i].CreatedAt
			lines[i] = line
			return nil
		}
	}
	return ErrLineNotFound
}

func (f *fakeRepo) DeleteLine(ctx context.Context, lineID uuid.UUID) error {
	for entryID, lines := range f.lines {
		for i := range lines {
			if lines[i].ID == lineID {
				f.lines[entryID] = append(lines[:i], lines[i+1:]...)
				return nil
			}
		}
	}
	return ErrLineNotFound
}

func (f *fakeRepo) RenumberLines(ctx context.Context, entryID uuid.UUID) error {
	lines := f.lines[entryID]
	sort.Slice(lines, func(i, j int) bool { return lines[i].LineNumber < lines[j].LineNumber })
	for i := range lines {
		lines[i].LineNumber = i + 1
	}
	return nil
}

type capturedEvent struct {
	event   string
	payload map[string]any
}

type capturePublisher struct {
	events []capturedEvent
}

func (p *capturePublisher) Publish(_ context.Context, event string, payload map[string]any) error {
	p.events = append(p.events, capturedEvent{event: event, payload: payload})
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type ledgerFixture struct {
	repo      *fakeRepo
	publisher *capturePublisher
	service   *Service
	companyID uuid.UUID
	periodID  uuid.UUID
	cashID    uuid.UUID
	salesID   uuid.UUID
	date      time.Time
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	repo := newFakeRepo()
	publisher := &capturePublisher{}
	service := NewService(repo, publisher, testLogger())

	fx := &ledgerFixture{
		repo:      repo,
		publisher: publisher,
		service:   service,
		companyID: uuid.New(),
		periodID:  uuid.New(),
		cashID:    uuid.New(),
		salesID:   uuid.New(),
		date:      time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	service.WithNow(func() time.Time { return fx.date })
	repo.periods[fx.periodID] = PostingPeriod{ID: fx.periodID}
	repo.accounts[fx.cashID] = PostingAccount{ID: fx.cashID, Code: "1000", IsActive: true}
	repo.accounts[fx.salesID] = PostingAccount{ID: fx.salesID, Code: "4000", IsActive: true}
	return fx
}

func (fx *ledgerFixture) createInput(amount string) CreateEntryInput {
	value := decimal.RequireFromString(amount)
	return CreateEntryInput{
		CompanyID:      fx.companyID,
		FiscalPeriodID: fx.periodID,
		Description:    "cash sale",
		Lines: []LineInput{
			{AccountID: fx.cashID, Amount: value},
			{AccountID: fx.salesID, Amount: value.Neg()},
		},
	}
}

func TestCreateDerivesDebitAndCredit(t *testing.T) {
	fx := newLedgerFixture(t)

	entry, err := fx.service.Create(context.Background(), fx.createInput("150.75"))
	require.NoError(t, err)

	require.Len(t, entry.Lines, 2)
	debitLine, creditLine := entry.Lines[0], entry.Lines[1]
	assert.Equal(t, 1, debitLine.LineNumber)
	assert.True(t, debitLine.DebitAmount.Equal(decimal.RequireFromString("150.75")))
	assert.True(t, debitLine.CreditAmount.IsZero())
	assert.Equal(t, 2, creditLine.LineNumber)
	assert.True(t, creditLine.CreditAmount.Equal(decimal.RequireFromString("150.75")))
	assert.True(t, creditLine.DebitAmount.IsZero())

	assert.True(t, entry.TotalDebit.Equal(entry.TotalCredit))
	assert.Equal(t, StatusDraft, entry.Status)
	assert.Equal(t, "JE-20240301-001", entry.EntryNumber)

	require.Len(t, fx.publisher.events, 1)
	assert.Equal(t, "accounting.journal_entry.created", fx.publisher.events[0].event)
}

func TestCreateAllocatesSequencePerCompanyAndDay(t *testing.T) {
	fx := newLedgerFixture(t)
	ctx := context.Background()

	for i, want := range []string{"JE-20240301-001", "JE-20240301-002", "JE-20240301-003"} {
		entry, err := fx.service.Create(ctx, fx.createInput("100"))
		require.NoError(t, err, "entry %d", i+1)
		assert.Equal(t, want, entry.EntryNumber)
	}

	// Another company starts its own sequence.
	other := fx.createInput("100")
	other.CompanyID = uuid.New()
	entry, err := fx.service.Create(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, "JE-20240301-001", entry.EntryNumber)

	// A different day starts at 001 again.
	nextDay := fx.createInput("100")
	nextDay.EntryDate = fx.date.AddDate(0, 0, 1)
	entry, err = fx.service.Create(ctx, nextDay)
	require.NoError(t, err)
	assert.Equal(t, "JE-20240302-001", entry.EntryNumber)
}

func TestCreateRejectsUnbalancedLines(t *testing.T) {
	fx := newLedgerFixture(t)

	in := fx.createInput("100")
	in.Lines[1].Amount = decimal.RequireFromString("-90")

	_, err := fx.service.Create(context.Background(), in)
	require.ErrorIs(t, err, ErrUnbalanced)
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Empty(t, fx.repo.entries)
	assert.Empty(t, fx.publisher.events)
}

func TestCreateRejectsClosedPeriod(t *testing.T) {
	fx := newLedgerFixture(t)
	fx.repo.periods[fx.periodID] = PostingPeriod{ID: fx.periodID, IsClosed: true}

	_, err := fx.service.Create(context.Background(), fx.createInput("100"))
	require.ErrorIs(t, err, ErrPeriodClosed)
}

func TestCreateExplicitNumberConflict(t *testing.T) {
	fx := newLedgerFixture(t)
	ctx := context.Background()

	in := fx.createInput("100")
	in.EntryNumber = "MANUAL-001"
	_, err := fx.service.Create(ctx, in)
	require.NoError(t, err)

	_, err = fx.service.Create(ctx, in)
	require.ErrorIs(t, err, ErrNumberTaken)
	assert.ErrorIs(t, err, shared.ErrConflict)
}

func TestCreateRetriesLostNumberRace(t *testing.T) {
	fx := newLedgerFixture(t)
	fx.repo.conflictOnce = true

	entry, err := fx.service.Create(context.Background(), fx.createInput("100"))
	require.NoError(t, err)
	// The racer kept 001, the retry picked up the next free number.
	assert.Equal(t, "JE-20240301-002", entry.EntryNumber)
}

func TestCreateRejectsUnknownAndInactiveAccounts(t *testing.T) {
	fx := newLedgerFixture(t)
	ctx := context.Background()

	unknown := fx.createInput("100")
	unknown.Lines[0].AccountID = uuid.New()
	_, err := fx.service.Create(ctx, unknown)
	require.ErrorIs(t, err, ErrAccountNotFound)

	fx.repo.accounts[fx.salesID] = PostingAccount{ID: fx.salesID, Code: "4000", IsActive: false}
	_, err = fx.service.Create(ctx, fx.createInput("100"))
	require.ErrorIs(t, err, ErrAccountInactive)
}

func TestCreateEnforcesCostCenterRequirement(t *testing.T) {
	fx := newLedgerFixture(t)
	fx.repo.accounts[fx.cashID] = PostingAccount{ID: fx.cashID, Code: "1000", IsActive: true, CostCenterRequired: true}

	_, err := fx.service.Create(context.Background(), fx.createInput("100"))
	require.ErrorIs(t, err, ErrCostCenterRequired)

	in := fx.createInput("100")
	costCenter := uuid.New()
	in.Lines[0].CostCenterID = &costCenter
	_, err = fx.service.Create(context.Background(), in)
	require.NoError(t, err)
}

func TestPostLifecycle(t *testing.T) {
	fx := newLedgerFixture(t)
	ctx := context.Background()

	entry, err := fx.service.Create(ctx, fx.createInput("200"))
	require.NoError(t, err)

	posted, err := fx.service.Post(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPosted, posted.Status)
	require.NotNil(t, posted.PostedDate)
	assert.Equal(t, fx.date, *posted.PostedDate)

	// Posting twice is invalid.
	_, err = fx.service.Post(ctx, entry.ID)
	require.ErrorIs(t, err, ErrInvalidStatus)

	// Posted entries cannot be deleted.
	err = fx.service.Delete(ctx, entry.ID)
	require.ErrorIs(t, err, ErrEntryPosted)

	cancelled, err := fx.service.Cancel(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	// Cancelled entries keep their lines for the audit trail.
	got, err := fx.service.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.Len(t, got.Lines, 2)
}

func TestPostRejectsClosedPeriod(t *testing.T) {
	fx := newLedgerFixture(t)
	ctx := context.Background()

	entry, err := fx.service.Create(ctx, fx.createInput("100"))
	require.NoError(t, err)

	fx.repo.periods[fx.periodID] = PostingPeriod{ID: fx.periodID, IsClosed: true}
	_, err = fx.service.Post(ctx, entry.ID)
	require.ErrorIs(t, err, ErrPeriodClosed)
}

func TestCancelRequiresPostedStatus(t *testing.T) {
	fx := newLedgerFixture(t)
	ctx := context.Background()

	entry, err := fx.service.Create(ctx, fx.createInput("100"))
	require.NoError(t, err)

	_, err = fx.service.Cancel(ctx, entry.ID)
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdateReplacesLineSet(t *testing.T) {
	fx := newLedgerFixture(t)
	ctx := context.Background()

	entry, err := fx.service.Create(ctx, fx.createInput("100"))
	require.NoError(t, err)

	amount := decimal.RequireFromString("250")
	updated, err := fx.service.Update(ctx, entry.ID, UpdateEntryInput{
		Lines: []LineInput{
			{AccountID: fx.cashID, Amount: amount},
			{AccountID: fx.salesID, Amount: amount.Neg()},
		},
	})
	require.NoError(t, err)
	assert.True(t, updated.TotalDebit.Equal(amount))
	require.Len(t, updated.Lines, 2)
	assert.Equal(t, 1, updated.Lines[0].LineNumber)

	_, err = fx.service.Update(ctx, entry.ID, UpdateEntryInput{
		Lines: []LineInput{{AccountID: fx.cashID, Amount: amount}},
	})
	require.ErrorIs(t, err, ErrUnbalanced)
}

func TestUpdateRejectsClosedPeriodAndCancelledEntry(t *testing.T) {
	fx := newLedgerFixture(t)
	ctx := context.Background()

	entry, err := fx.service.Create(ctx, fx.createInput("100"))
	require.NoError(t, err)

	fx.repo.periods[fx.periodID] = PostingPeriod{ID: fx.periodID, IsClosed: true}
	desc := "late edit"
	_, err = fx.service.Update(ctx, entry.ID, UpdateEntryInput{Description: &desc})
	require.ErrorIs(t, err, ErrPeriodClosed)

	fx.repo.periods[fx.periodID] = PostingPeriod{ID: fx.periodID}
	fx.repo.entries[entry.ID].Status = StatusCancelled
	_, err = fx.service.Update(ctx, entry.ID, UpdateEntryInput{Description: &desc})
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdateRejectsPostedEntry(t *testing.T) {
	fx := newLedgerFixture(t)
	ctx := context.Background()

	entry, err := fx.service.Create(ctx, fx.createInput("100"))
	require.NoError(t, err)
	_, err = fx.service.Post(ctx, entry.ID)
	require.NoError(t, err)

	desc := "rewrite after posting"
	replacement := decimal.RequireFromString("999")
	_, err = fx.service.Update(ctx, entry.ID, UpdateEntryInput{
		Description: &desc,
		Lines: []LineInput{
			{AccountID: fx.cashID, Amount: replacement},
			{AccountID: fx.salesID, Amount: replacement.Neg()},
		},
	})
	require.ErrorIs(t, err, ErrInvalidStatus)

	// Posted figures must survive untouched.
	stored, err := fx.service.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPosted, stored.Status)
	assert.True(t, stored.TotalDebit.Equal(decimal.RequireFromString("100")))
	assert.Equal(t, "cash sale", stored.Description)
	require.Len(t, stored.Lines, 2)
	assert.True(t, stored.Lines[0].DebitAmount.Equal(decimal.RequireFromString("100")))
}

func TestDeleteRemovesEntryAndLines(t *testing.T) {
	fx := newLedgerFixture(t)
	ctx := context.Background()

	entry, err := fx.service.Create(ctx, fx.createInput("100"))
	require.NoError(t, err)

	require.NoError(t, fx.service.Delete(ctx, entry.ID))
	_, err = fx.service.Get(ctx, entry.ID)
	require.ErrorIs(t, err, ErrEntryNotFound)
	assert.Empty(t, fx.repo.lines[entry.ID])
}

func TestLineEditsOnDraftEntry(t *testing.T) {
	fx := newLedgerFixture(t)
	ctx := context.Background()

	entry, err := fx.service.Create(ctx, fx.createInput("100"))
	require.NoError(t, err)

	taxID := uuid.New()
	fx.repo.accounts[taxID] = PostingAccount{ID: taxID, Code: "2100", IsActive: true}

	added, err := fx.service.AddLine(ctx, entry.ID, LineInput{
		AccountID: taxID,
		Amount:    decimal.RequireFromString("-10"),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, added.LineNumber)
	assert.True(t, added.CreditAmount.Equal(decimal.RequireFromString("10")))

	got, err := fx.service.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.True(t, got.TotalCredit.Equal(decimal.RequireFromString("110")))

	updated, err := fx.service.UpdateLine(ctx, entry.ID, added.ID, LineInput{
		AccountID: taxID,
		Amount:    decimal.RequireFromString("-20"),
	})
	require.NoError(t, err)
	assert.True(t, updated.CreditAmount.Equal(decimal.RequireFromString("20")))

	require.NoError(t, fx.service.DeleteLine(ctx, entry.ID, added.ID))
	got, err = fx.service.Get(ctx, entry.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 2)
	assert.Equal(t, []int{1, 2}, []int{got.Lines[0].LineNumber, got.Lines[1].LineNumber})
}

func TestLineEditsRequireDraftStatus(t *testing.T) {
	fx := newLedgerFixture(t)
	ctx := context.Background()

	entry, err := fx.service.Create(ctx, fx.createInput("100"))
	require.NoError(t, err)
	_, err = fx.service.Post(ctx, entry.ID)
	require.NoError(t, err)

	_, err = fx.service.AddLine(ctx, entry.ID, LineInput{AccountID: fx.cashID, Amount: decimal.New(5, 0)})
	require.ErrorIs(t, err, ErrNotDraft)
}

func TestDeleteLineKeepsAtLeastOne(t *testing.T) {
	fx := newLedgerFixture(t)
	ctx := context.Background()

	entry, err := fx.service.Create(ctx, fx.createInput("100"))
	require.NoError(t, err)
	require.Len(t, entry.Lines, 2)

	require.NoError(t, fx.service.DeleteLine(ctx, entry.ID, entry.Lines[0].ID))
	err = fx.service.DeleteLine(ctx, entry.ID, entry.Lines[1].ID)
	require.ErrorIs(t, err, ErrNoLines)
}

func TestZeroAmountLineIsDebit(t *testing.T) {
	debit, credit := DeriveAmounts(decimal.Zero)
	assert.True(t, debit.IsZero())
	assert.True(t, credit.IsZero())

	debit, credit = DeriveAmounts(decimal.RequireFromString("-0"))
	assert.True(t, debit.IsZero())
	assert.True(t, credit.IsZero())
}
