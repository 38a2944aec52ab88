package budgets

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas-erp/accounting/internal/shared"
)

type fakeRepo struct {
	budgets         map[uuid.UUID]*Budget
	lines           map[uuid.UUID]*Line
	periodLines     map[uuid.UUID]*PeriodLine
	approvals       map[uuid.UUID]*Approval
	allocations     map[uuid.UUID]*Allocation
	allocationLines map[uuid.UUID]*AllocationLine
	templates       map[uuid.UUID]*Template
	variances       map[uuid.UUID]*Variance
	audit           []AuditLog

	auditErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		budgets:         map[uuid.UUID]*Budget{},
		lines:           map[uuid.UUID]*Line{},
		periodLines:     map[uuid.UUID]*PeriodLine{},
		approvals:       map[uuid.UUID]*Approval{},
		allocations:     map[uuid.UUID]*Allocation{},
		allocationLines: map[uuid.UUID]*AllocationLine{},
		templates:       map[uuid.UUID]*Template{},
		variances:       map[uuid.UUID]*Variance{},
	}
}

func (f *fakeRepo) InsertBudget(_ context.Context, b Budget) (Budget, error) {
	for _, other := range f.budgets {
		if other.CompanyID == b.CompanyID && other.FiscalYearID == b.FiscalYearID && other.Code == b.Code {
			return Budget{}, ErrCodeTaken
		}
	}
	b.ID = uuid.New()
	b.Status = StatusDraft
	b.IsLocked = false
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	f.budgets[b.ID] = &b
	return b, nil
}

func (f *fakeRepo) GetBudget(_ context.Context, id uuid.UUID) (Budget, error) {
	b, ok := f.budgets[id]
	if !ok {
		return Budget{}, ErrBudgetNotFound
	}
	return *b, nil
}

func (f *fakeRepo) ListBudgets(_ context.Context, filter BudgetFilter) ([]Budget, int, error) {
	var out []Budget
	for _, b := range f.budgets {
		if filter.CompanyID != nil && b.CompanyID != *filter.CompanyID {
			continue
		}
		if filter.FiscalYearID != nil && b.FiscalYearID != *filter.FiscalYearID {
			continue
		}
		if filter.Status != nil && b.Status != *filter.Status {
			continue
		}
		out = append(out, *b)
	}
	return out, len(out), nil
}

func (f *fakeRepo) UpdateBudget(_ context.Context, b Budget) error {
	if _, ok := f.budgets[b.ID]; !ok {
		return ErrBudgetNotFound
	}
	b.UpdatedAt = time.Now()
	f.budgets[b.ID] = &b
	return nil
}

// DeleteBudget mirrors the cascading foreign keys of the real schema.
func (f *fakeRepo) DeleteBudget(_ context.Context, id uuid.UUID) error {
	if _, ok := f.budgets[id]; !ok {
		return ErrBudgetNotFound
	}
	delete(f.budgets, id)
	for lineID, line := range f.lines {
		if line.BudgetID != id {
			continue
		}
		for plID, pl := range f.periodLines {
			if pl.BudgetLineID == lineID {
				delete(f.periodLines, plID)
			}
		}
		delete(f.lines, lineID)
	}
	for aID, a := range f.approvals {
		if a.BudgetID == id {
			delete(f.approvals, aID)
		}
	}
	for allocID, alloc := range f.allocations {
		if alloc.BudgetID != id {
			continue
		}
		for alID, al := range f.allocationLines {
			if al.AllocationID == allocID {
				delete(f.allocationLines, alID)
			}
		}
		delete(f.allocations, allocID)
	}
	kept := f.audit[:0]
	for _, entry := range f.audit {
		if entry.BudgetID != id {
			kept = append(kept, entry)
		}
	}
	f.audit = kept
	return nil
}

func (f *fakeRepo) InsertLine(_ context.Context, line Line) (Line, error) {
	next := 1
	for _, other := range f.lines {
		if other.BudgetID == line.BudgetID && other.LineNumber >= next {
			next = other.LineNumber + 1
		}
	}
	line.ID = uuid.New()
	line.LineNumber = next
	line.CreatedAt = time.Now()
	line.UpdatedAt = line.CreatedAt
	f.lines[line.ID] = &line
	return line, nil
}

func (f *fakeRepo) GetLine(_ context.Context, id uuid.UUID) (Line, error) {
	l, ok := f.lines[id]
	if !ok {
		return Line{}, ErrLineNotFound
	}
	return *l, nil
}

func (f *fakeRepo) ListLines(_ context.Context, budgetID uuid.UUID) ([]Line, error) {
	var out []Line
	for _, l := range f.lines {
		if l.BudgetID == budgetID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpdateLine(_ context.Context, line Line) error {
	if _, ok := f.lines[line.ID]; !ok {
		return ErrLineNotFound
	}
	f.lines[line.ID] = &line
	return nil
}

func (f *fakeRepo) DeleteLine(_ context.Context, id uuid.UUID) error {
	if _, ok := f.lines[id]; !ok {
		return ErrLineNotFound
	}
	delete(f.lines, id)
	return nil
}

func (f *fakeRepo) InsertPeriodLine(_ context.Context, pl PeriodLine) (PeriodLine, error) {
	pl.ID = uuid.New()
	pl.CreatedAt = time.Now()
	pl.UpdatedAt = pl.CreatedAt
	f.periodLines[pl.ID] = &pl
	return pl, nil
}

func (f *fakeRepo) GetPeriodLine(_ context.Context, id uuid.UUID) (PeriodLine, error) {
	pl, ok := f.periodLines[id]
	if !ok {
		return PeriodLine{}, ErrPeriodLineNotFound
	}
	return *pl, nil
}

func (f *fakeRepo) ListPeriodLines(_ context.Context, lineID uuid.UUID) ([]PeriodLine, error) {
	var out []PeriodLine
	for _, pl := range f.periodLines {
		if pl.BudgetLineID == lineID {
			out = append(out, *pl)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpdatePeriodLine(_ context.Context, pl PeriodLine) error {
	if _, ok := f.periodLines[pl.ID]; !ok {
		return ErrPeriodLineNotFound
	}
	f.periodLines[pl.ID] = &pl
	return nil
}

func (f *fakeRepo) DeletePeriodLine(_ context.Context, id uuid.UUID) error {
	if _, ok := f.periodLines[id]; !ok {
		return ErrPeriodLineNotFound
	}
	delete(f.periodLines, id)
	return nil
}

func (f *fakeRepo) InsertApproval(_ context.Context, a Approval) (Approval, error) {
	a.ID = uuid.New()
	a.Status = ApprovalPending
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	f.approvals[a.ID] = &a
	return a, nil
}

func (f *fakeRepo) GetApproval(_ context.Context, id uuid.UUID) (Approval, error) {
	a, ok := f.approvals[id]
	if !ok {
		return Approval{}, ErrApprovalNotFound
	}
	return *a, nil
}

func (f *fakeRepo) ListApprovals(_ context.Context, budgetID uuid.UUID) ([]Approval, error) {
	var out []Approval
	for _, a := range f.approvals {
		if a.BudgetID == budgetID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpdateApproval(_ context.Context, a Approval) error {
	if _, ok := f.approvals[a.ID]; !ok {
		return ErrApprovalNotFound
	}
	f.approvals[a.ID] = &a
	return nil
}

func (f *fakeRepo) DeleteApproval(_ context.Context, id uuid.UUID) error {
	if _, ok := f.approvals[id]; !ok {
		return ErrApprovalNotFound
	}
	delete(f.approvals, id)
	return nil
}

func (f *fakeRepo) InsertAllocation(_ context.Context, a Allocation) (Allocation, error) {
	a.ID = uuid.New()
	a.Status = ApprovalPending
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	f.allocations[a.ID] = &a
	return a, nil
}

func (f *fakeRepo) GetAllocation(_ context.Context, id uuid.UUID) (Allocation, error) {
	a, ok := f.allocations[id]
	if !ok {
		return Allocation{}, ErrAllocationNotFound
	}
	return *a, nil
}

func (f *fakeRepo) ListAllocations(_ context.Context, budgetID uuid.UUID) ([]Allocation, error) {
	var out []Allocation
	for _, a := range f.allocations {
		if a.BudgetID == budgetID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpdateAllocation(_ context.Context, a Allocation) error {
	if _, ok := f.allocations[a.ID]; !ok {
		return ErrAllocationNotFound
	}
	f.allocations[a.ID] = &a
	return nil
}

func (f *fakeRepo) DeleteAllocation(_ context.Context, id uuid.UUID) error {
	if _, ok := f.allocations[id]; !ok {
		return ErrAllocationNotFound
	}
	delete(f.allocations, id)
	return nil
}

func (f *fakeRepo) InsertAllocationLine(_ context.Context, al AllocationLine) (AllocationLine, error) {
	al.ID = uuid.New()
	al.CreatedAt = time.Now()
	al.UpdatedAt = al.CreatedAt
	f.allocationLines[al.ID] = &al
	return al, nil
}

func (f *fakeRepo) GetAllocationLine(_ context.Context, id uuid.UUID) (AllocationLine, error) {
	al, ok := f.allocationLines[id]
	if !ok {
		return AllocationLine{}, ErrAllocationLineNotFound
	}
	return *al, nil
}

func (f *fakeRepo) ListAllocationLines(_ context.Context, allocationID uuid.UUID) ([]AllocationLine, error) {
	var out []AllocationLine
	for _, al := range f.allocationLines {
		if al.AllocationID == allocationID {
			out = append(out, *al)
		}
	}
	return out, nil
}

func (f *fakeRepo) DeleteAllocationLine(_ context.Context, id uuid.UUID) error {
	if _, ok := f.allocationLines[id]; !ok {
		return ErrAllocationLineNotFound
	}
	delete(f.allocationLines, id)
	return nil
}

func (f *fakeRepo) InsertTemplate(_ context.Context, t Template) (Template, error) {
	for _, other := range f.templates {
		if other.CompanyID == t.CompanyID && other.Code == t.Code {
			return Template{}, ErrTemplateCodeTaken
		}
	}
	t.ID = uuid.New()
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	f.templates[t.ID] = &t
	return t, nil
}

func (f *fakeRepo) GetTemplate(_ context.Context, id uuid.UUID) (Template, error) {
	t, ok := f.templates[id]
	if !ok {
		return Template{}, ErrTemplateNotFound
	}
	return *t, nil
}

func (f *fakeRepo) ListTemplates(_ context.Context, companyID *uuid.UUID, _, _ int) ([]Template, int, error) {
	var out []Template
	for _, t := range f.templates {
		if companyID != nil && t.CompanyID != *companyID {
			continue
		}
		out = append(out, *t)
	}
	return out, len(out), nil
}

func (f *fakeRepo) UpdateTemplate(_ context.Context, t Template) error {
	if _, ok := f.templates[t.ID]; !ok {
		return ErrTemplateNotFound
	}
	f.templates[t.ID] = &t
	return nil
}

func (f *fakeRepo) DeleteTemplate(_ context.Context, id uuid.UUID) error {
	if _, ok := f.templates[id]; !ok {
		return ErrTemplateNotFound
	}
	delete(f.templates, id)
	return nil
}

func (f *fakeRepo) InsertVariance(_ context.Context, v Variance) (Variance, error) {
	v.ID = uuid.New()
	v.CreatedAt = time.Now()
	v.UpdatedAt = v.CreatedAt
	f.variances[v.ID] = &v
	return v, nil
}

func (f *fakeRepo) GetVariance(_ context.Context, id uuid.UUID) (Variance, error) {
	v, ok := f.variances[id]
	if !ok {
		return Variance{}, ErrVarianceNotFound
	}
	return *v, nil
}

func (f *fakeRepo) ListVariances(_ context.Context, lineID *uuid.UUID, _, _ int) ([]Variance, int, error) {
	var out []Variance
	for _, v := range f.variances {
		if lineID != nil && v.BudgetLineID != *lineID {
			continue
		}
		out = append(out, *v)
	}
	return out, len(out), nil
}

func (f *fakeRepo) UpdateVariance(_ context.Context, v Variance) error {
	if _, ok := f.variances[v.ID]; !ok {
		return ErrVarianceNotFound
	}
	f.variances[v.ID] = &v
	return nil
}

func (f *fakeRepo) DeleteVariance(_ context.Context, id uuid.UUID) error {
	if _, ok := f.variances[id]; !ok {
		return ErrVarianceNotFound
	}
	delete(f.variances, id)
	return nil
}

func (f *fakeRepo) InsertAudit(_ context.Context, entry AuditLog) (AuditLog, error) {
	if f.auditErr != nil {
		return AuditLog{}, f.auditErr
	}
	entry.ID = uuid.New()
	entry.PerformedAt = time.Now()
	f.audit = append(f.audit, entry)
	return entry, nil
}

func (f *fakeRepo) ListAudit(_ context.Context, budgetID uuid.UUID, filter AuditFilter) ([]AuditLog, int, error) {
	var out []AuditLog
	for _, entry := range f.audit {
		if entry.BudgetID != budgetID {
			continue
		}
		if filter.Action != "" && entry.Action != filter.Action {
			continue
		}
		if filter.PerformedBy != nil && entry.PerformedBy != *filter.PerformedBy {
			continue
		}
		out = append(out, entry)
	}
	return out, len(out), nil
}

func (f *fakeRepo) SummarizeAudit(_ context.Context, budgetID uuid.UUID) ([]AuditSummary, error) {
	counts := map[string]int{}
	for _, entry := range f.audit {
		if entry.BudgetID == budgetID {
			counts[entry.Action]++
		}
	}
	var out []AuditSummary
	for action, n := range counts {
		out = append(out, AuditSummary{Action: action, Count: n})
	}
	return out, nil
}

type capturePublisher struct {
	events []string
	err    error
}

func (p *capturePublisher) Publish(_ context.Context, event string, _ map[string]any) error {
	p.events = append(p.events, event)
	return p.err
}

type budgetFixture struct {
	ctx     context.Context
	repo    *fakeRepo
	pub     *capturePublisher
	svc     *Service
	actorID uuid.UUID
	budget  Budget
	line    Line
}

func newBudgetFixture(t *testing.T) *budgetFixture {
	t.Helper()
	repo := newFakeRepo()
	pub := &capturePublisher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(repo, pub, logger).WithNow(func() time.Time {
		return time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	})
	actorID := uuid.New()
	ctx := shared.ContextWithActor(context.Background(), actorID)

	budget, err := svc.CreateBudget(ctx, CreateBudgetInput{
		CompanyID:    uuid.New(),
		FiscalYearID: uuid.New(),
		Code:         "OPEX-2024",
		Name:         "Operating Budget 2024",
		BudgetType:   TypeOperational,
		CurrencyID:   uuid.New(),
		StartDate:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	line, err := svc.AddLine(ctx, budget.ID, CreateLineInput{
		AccountID:    uuid.New(),
		AnnualAmount: decimal.NewFromInt(120000),
	})
	require.NoError(t, err)

	return &budgetFixture{ctx: ctx, repo: repo, pub: pub, svc: svc, actorID: actorID, budget: budget, line: line}
}

func (f *budgetFixture) lock(t *testing.T) {
	t.Helper()
	b := f.repo.budgets[f.budget.ID]
	b.IsLocked = true
}

func TestCreateBudgetDefaultsAndValidation(t *testing.T) {
	f := newBudgetFixture(t)

	assert.Equal(t, StatusDraft, f.budget.Status)
	assert.Equal(t, MethodEqual, f.budget.AllocationMethod)
	assert.False(t, f.budget.IsLocked)
	assert.Contains(t, f.pub.events, "accounting.budget.created")

	_, err := f.svc.CreateBudget(f.ctx, CreateBudgetInput{
		CompanyID:    f.budget.CompanyID,
		FiscalYearID: f.budget.FiscalYearID,
		Code:         "BAD",
		Name:         "Inverted dates",
		BudgetType:   TypeCapital,
		CurrencyID:   uuid.New(),
		StartDate:    time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = f.svc.CreateBudget(f.ctx, CreateBudgetInput{
		CompanyID:    f.budget.CompanyID,
		FiscalYearID: f.budget.FiscalYearID,
		Code:         "BAD",
		Name:         "Unknown type",
		BudgetType:   BudgetType("rolling"),
		CurrencyID:   uuid.New(),
		StartDate:    f.budget.StartDate,
		EndDate:      f.budget.EndDate,
	})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateBudgetChecksParentExists(t *testing.T) {
	f := newBudgetFixture(t)

	missing := uuid.New()
	_, err := f.svc.CreateBudget(f.ctx, CreateBudgetInput{
		CompanyID:      f.budget.CompanyID,
		FiscalYearID:   f.budget.FiscalYearID,
		Code:           "OPEX-2024-IT",
		Name:           "IT sub-budget",
		BudgetType:     TypeOperational,
		ParentBudgetID: &missing,
		CurrencyID:     uuid.New(),
		StartDate:      f.budget.StartDate,
		EndDate:        f.budget.EndDate,
	})
	assert.ErrorIs(t, err, ErrBudgetNotFound)

	child, err := f.svc.CreateBudget(f.ctx, CreateBudgetInput{
		CompanyID:      f.budget.CompanyID,
		FiscalYearID:   f.budget.FiscalYearID,
		Code:           "OPEX-2024-IT",
		Name:           "IT sub-budget",
		BudgetType:     TypeOperational,
		ParentBudgetID: &f.budget.ID,
		CurrencyID:     uuid.New(),
		StartDate:      f.budget.StartDate,
		EndDate:        f.budget.EndDate,
	})
	require.NoError(t, err)
	require.NotNil(t, child.ParentBudgetID)
	assert.Equal(t, f.budget.ID, *child.ParentBudgetID)
}

func TestCreateBudgetRejectsDuplicateCode(t *testing.T) {
	f := newBudgetFixture(t)

	_, err := f.svc.CreateBudget(f.ctx, CreateBudgetInput{
		CompanyID:    f.budget.CompanyID,
		FiscalYearID: f.budget.FiscalYearID,
		Code:         f.budget.Code,
		Name:         "Duplicate",
		BudgetType:   TypeOperational,
		CurrencyID:   uuid.New(),
		StartDate:    f.budget.StartDate,
		EndDate:      f.budget.EndDate,
	})
	assert.ErrorIs(t, err, ErrCodeTaken)
	assert.ErrorIs(t, err, shared.ErrConflict)
}

func TestLockedBudgetRejectsMutations(t *testing.T) {
	f := newBudgetFixture(t)
	f.lock(t)

	name := "renamed"
	_, err := f.svc.UpdateBudget(f.ctx, f.budget.ID, UpdateBudgetInput{Name: &name})
	assert.ErrorIs(t, err, ErrLocked)

	_, err = f.svc.AddLine(f.ctx, f.budget.ID, CreateLineInput{AccountID: uuid.New(), AnnualAmount: decimal.NewFromInt(500)})
	assert.ErrorIs(t, err, ErrLocked)

	_, err = f.svc.UpdateLine(f.ctx, f.budget.ID, f.line.ID, UpdateLineInput{})
	assert.ErrorIs(t, err, ErrLocked)

	err = f.svc.DeleteLine(f.ctx, f.budget.ID, f.line.ID)
	assert.ErrorIs(t, err, ErrLocked)

	_, err = f.svc.AddAllocation(f.ctx, f.budget.ID, CreateAllocationInput{
		SourceBudgetLineID: f.line.ID,
		Name:               "spread",
		TotalAmount:        decimal.NewFromInt(1000),
	})
	assert.ErrorIs(t, err, ErrLocked)

	err = f.svc.DeleteBudget(f.ctx, f.budget.ID)
	assert.ErrorIs(t, err, ErrLocked)

	// Reads are unaffected by the lock.
	_, err = f.svc.ListLines(f.ctx, f.budget.ID)
	assert.NoError(t, err)
}

func TestUpdateBudgetUnlockingException(t *testing.T) {
	f := newBudgetFixture(t)
	f.lock(t)

	// Clearing the lock is the one mutation a locked budget accepts.
	unlocked := false
	updated, err := f.svc.UpdateBudget(f.ctx, f.budget.ID, UpdateBudgetInput{IsLocked: &unlocked})
	require.NoError(t, err)
	assert.False(t, updated.IsLocked)

	name := "renamed after unlock"
	updated, err = f.svc.UpdateBudget(f.ctx, f.budget.ID, UpdateBudgetInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
}

func TestUpdateBudgetRevalidatesDateRange(t *testing.T) {
	f := newBudgetFixture(t)

	badEnd := f.budget.StartDate.AddDate(0, 0, -1)
	_, err := f.svc.UpdateBudget(f.ctx, f.budget.ID, UpdateBudgetInput{EndDate: &badEnd})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestDeleteBudgetCascades(t *testing.T) {
	f := newBudgetFixture(t)

	_, err := f.svc.AddPeriodLine(f.ctx, f.budget.ID, f.line.ID, CreatePeriodLineInput{
		FiscalPeriodID: uuid.New(),
		Amount:         decimal.NewFromInt(10000),
	})
	require.NoError(t, err)
	_, err = f.svc.AddApproval(f.ctx, f.budget.ID, CreateApprovalInput{
		ApprovalLevel: 1,
		ApproverID:    uuid.New(),
		ApproverName:  "Controller",
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteBudget(f.ctx, f.budget.ID))

	assert.Empty(t, f.repo.budgets)
	assert.Empty(t, f.repo.lines)
	assert.Empty(t, f.repo.periodLines)
	assert.Empty(t, f.repo.approvals)
	assert.Contains(t, f.pub.events, "accounting.budget.deleted")

	_, err = f.svc.GetBudget(f.ctx, f.budget.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestLineNumbersIncrementPerBudget(t *testing.T) {
	f := newBudgetFixture(t)

	second, err := f.svc.AddLine(f.ctx, f.budget.ID, CreateLineInput{
		AccountID:    uuid.New(),
		AnnualAmount: decimal.NewFromInt(30000),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, f.line.LineNumber)
	assert.Equal(t, 2, second.LineNumber)
}

func TestLineScopeIsEnforced(t *testing.T) {
	f := newBudgetFixture(t)

	other, err := f.svc.CreateBudget(f.ctx, CreateBudgetInput{
		CompanyID:    f.budget.CompanyID,
		FiscalYearID: f.budget.FiscalYearID,
		Code:         "CAPEX-2024",
		Name:         "Capital Budget 2024",
		BudgetType:   TypeCapital,
		CurrencyID:   uuid.New(),
		StartDate:    f.budget.StartDate,
		EndDate:      f.budget.EndDate,
	})
	require.NoError(t, err)

	// The line exists but belongs to the first budget.
	_, err = f.svc.GetLine(f.ctx, other.ID, f.line.ID)
	assert.ErrorIs(t, err, ErrLineNotFound)

	_, err = f.svc.UpdateLine(f.ctx, other.ID, f.line.ID, UpdateLineInput{})
	assert.ErrorIs(t, err, ErrLineNotFound)

	err = f.svc.DeleteLine(f.ctx, other.ID, f.line.ID)
	assert.ErrorIs(t, err, ErrLineNotFound)
}

func TestPeriodLineScopeIsEnforced(t *testing.T) {
	f := newBudgetFixture(t)

	pl, err := f.svc.AddPeriodLine(f.ctx, f.budget.ID, f.line.ID, CreatePeriodLineInput{
		FiscalPeriodID: uuid.New(),
		Amount:         decimal.NewFromInt(10000),
	})
	require.NoError(t, err)

	otherLine, err := f.svc.AddLine(f.ctx, f.budget.ID, CreateLineInput{
		AccountID:    uuid.New(),
		AnnualAmount: decimal.NewFromInt(5000),
	})
	require.NoError(t, err)

	amount := decimal.NewFromInt(9000)
	_, err = f.svc.UpdatePeriodLine(f.ctx, f.budget.ID, otherLine.ID, pl.ID, UpdatePeriodLineInput{Amount: &amount})
	assert.ErrorIs(t, err, ErrPeriodLineNotFound)

	err = f.svc.DeletePeriodLine(f.ctx, f.budget.ID, otherLine.ID, pl.ID)
	assert.ErrorIs(t, err, ErrPeriodLineNotFound)

	updated, err := f.svc.UpdatePeriodLine(f.ctx, f.budget.ID, f.line.ID, pl.ID, UpdatePeriodLineInput{Amount: &amount})
	require.NoError(t, err)
	assert.True(t, updated.Amount.Equal(amount))
}

func TestUpdateApprovalStampsDecisionDate(t *testing.T) {
	f := newBudgetFixture(t)

	approval, err := f.svc.AddApproval(f.ctx, f.budget.ID, CreateApprovalInput{
		ApprovalLevel: 1,
		ApproverID:    uuid.New(),
		ApproverName:  "CFO",
		ApproverRole:  "finance",
	})
	require.NoError(t, err)
	assert.Equal(t, ApprovalPending, approval.Status)
	assert.Nil(t, approval.ApprovalDate)

	status := ApprovalApproved
	comments := "within envelope"
	decided, err := f.svc.UpdateApproval(f.ctx, f.budget.ID, approval.ID, UpdateApprovalInput{
		Status:   &status,
		Comments: &comments,
	})
	require.NoError(t, err)
	assert.Equal(t, ApprovalApproved, decided.Status)
	require.NotNil(t, decided.ApprovalDate)
	assert.Equal(t, time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC), *decided.ApprovalDate)
	assert.Contains(t, f.pub.events, "accounting.budget.approval_updated")

	entries, _, err := f.svc.ListAudit(f.ctx, f.budget.ID, AuditFilter{Action: "approval_APPROVED", Limit: 10})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, f.actorID, entries[0].PerformedBy)

	bad := ApprovalStatus("MAYBE")
	_, err = f.svc.UpdateApproval(f.ctx, f.budget.ID, approval.ID, UpdateApprovalInput{Status: &bad})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestApprovalScopeIsEnforced(t *testing.T) {
	f := newBudgetFixture(t)

	approval, err := f.svc.AddApproval(f.ctx, f.budget.ID, CreateApprovalInput{
		ApprovalLevel: 1,
		ApproverID:    uuid.New(),
		ApproverName:  "CFO",
	})
	require.NoError(t, err)

	otherBudget := uuid.New()
	status := ApprovalRejected
	_, err = f.svc.UpdateApproval(f.ctx, otherBudget, approval.ID, UpdateApprovalInput{Status: &status})
	assert.ErrorIs(t, err, ErrApprovalNotFound)

	err = f.svc.DeleteApproval(f.ctx, otherBudget, approval.ID)
	assert.ErrorIs(t, err, ErrApprovalNotFound)
}

func TestAddAllocationRequiresSourceInBudget(t *testing.T) {
	f := newBudgetFixture(t)

	other, err := f.svc.CreateBudget(f.ctx, CreateBudgetInput{
		CompanyID:    f.budget.CompanyID,
		FiscalYearID: f.budget.FiscalYearID,
		Code:         "CAPEX-2024",
		Name:         "Capital Budget 2024",
		BudgetType:   TypeCapital,
		CurrencyID:   uuid.New(),
		StartDate:    f.budget.StartDate,
		EndDate:      f.budget.EndDate,
	})
	require.NoError(t, err)

	_, err = f.svc.AddAllocation(f.ctx, other.ID, CreateAllocationInput{
		SourceBudgetLineID: f.line.ID,
		Name:               "cross-budget",
		TotalAmount:        decimal.NewFromInt(1000),
	})
	assert.ErrorIs(t, err, ErrLineOutsideBudget)
	assert.ErrorIs(t, err, shared.ErrValidation)

	allocation, err := f.svc.AddAllocation(f.ctx, f.budget.ID, CreateAllocationInput{
		SourceBudgetLineID: f.line.ID,
		Name:               "department spread",
		TotalAmount:        decimal.NewFromInt(120000),
	})
	require.NoError(t, err)
	assert.Equal(t, MethodEqual, allocation.Method)
	assert.Equal(t, ApprovalPending, allocation.Status)
}

func TestAddAllocationLineValidatesTarget(t *testing.T) {
	f := newBudgetFixture(t)

	allocation, err := f.svc.AddAllocation(f.ctx, f.budget.ID, CreateAllocationInput{
		SourceBudgetLineID: f.line.ID,
		Name:               "department spread",
		TotalAmount:        decimal.NewFromInt(120000),
		Method:             MethodProportional,
	})
	require.NoError(t, err)

	_, err = f.svc.AddAllocationLine(f.ctx, f.budget.ID, allocation.ID, CreateAllocationLineInput{
		TargetBudgetLineID: uuid.New(),
		Percentage:         decimal.NewFromInt(50),
		Amount:             decimal.NewFromInt(60000),
	})
	assert.ErrorIs(t, err, shared.ErrValidation)

	other, err := f.svc.CreateBudget(f.ctx, CreateBudgetInput{
		CompanyID:    f.budget.CompanyID,
		FiscalYearID: f.budget.FiscalYearID,
		Code:         "CAPEX-2024",
		Name:         "Capital Budget 2024",
		BudgetType:   TypeCapital,
		CurrencyID:   uuid.New(),
		StartDate:    f.budget.StartDate,
		EndDate:      f.budget.EndDate,
	})
	require.NoError(t, err)
	foreignLine, err := f.svc.AddLine(f.ctx, other.ID, CreateLineInput{
		AccountID:    uuid.New(),
		AnnualAmount: decimal.NewFromInt(99),
	})
	require.NoError(t, err)

	_, err = f.svc.AddAllocationLine(f.ctx, f.budget.ID, allocation.ID, CreateAllocationLineInput{
		TargetBudgetLineID: foreignLine.ID,
		Percentage:         decimal.NewFromInt(50),
		Amount:             decimal.NewFromInt(60000),
	})
	assert.ErrorIs(t, err, ErrLineOutsideBudget)

	target, err := f.svc.AddLine(f.ctx, f.budget.ID, CreateLineInput{
		AccountID:    uuid.New(),
		AnnualAmount: decimal.NewFromInt(60000),
	})
	require.NoError(t, err)

	al, err := f.svc.AddAllocationLine(f.ctx, f.budget.ID, allocation.ID, CreateAllocationLineInput{
		TargetBudgetLineID: target.ID,
		Percentage:         decimal.NewFromInt(50),
		Amount:             decimal.NewFromInt(60000),
	})
	require.NoError(t, err)
	assert.Equal(t, allocation.ID, al.AllocationID)

	lines, err := f.svc.ListAllocationLines(f.ctx, f.budget.ID, allocation.ID)
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}

func TestAuditTrailAttributesActor(t *testing.T) {
	f := newBudgetFixture(t)

	name := "renamed"
	_, err := f.svc.UpdateBudget(f.ctx, f.budget.ID, UpdateBudgetInput{Name: &name})
	require.NoError(t, err)

	entries, total, err := f.svc.ListAudit(f.ctx, f.budget.ID, AuditFilter{Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 3, total) // created, line_added, updated
	for _, entry := range entries {
		assert.Equal(t, f.actorID, entry.PerformedBy)
	}

	entries, _, err = f.svc.ListAudit(f.ctx, f.budget.ID, AuditFilter{Action: "line_added", Limit: 20})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Details, f.line.ID.String())

	summary, err := f.svc.AuditSummary(f.ctx, f.budget.ID)
	require.NoError(t, err)
	byAction := map[string]int{}
	for _, s := range summary {
		byAction[s.Action] = s.Count
	}
	assert.Equal(t, 1, byAction["created"])
	assert.Equal(t, 1, byAction["line_added"])
	assert.Equal(t, 1, byAction["updated"])
}

func TestAuditFailureDoesNotBlockMutation(t *testing.T) {
	f := newBudgetFixture(t)
	f.repo.auditErr = errors.New("audit table unavailable")

	line, err := f.svc.AddLine(f.ctx, f.budget.ID, CreateLineInput{
		AccountID:    uuid.New(),
		AnnualAmount: decimal.NewFromInt(700),
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, line.ID)
}

func TestTemplateCRUD(t *testing.T) {
	f := newBudgetFixture(t)

	tpl, err := f.svc.CreateTemplate(f.ctx, CreateTemplateInput{
		CompanyID:    f.budget.CompanyID,
		Code:         "TPL-OPEX",
		Name:         "Standard operating template",
		BudgetType:   TypeOperational,
		TemplateData: json.RawMessage(`{"lines":[{"account_code":"6000","weight":1}]}`),
	})
	require.NoError(t, err)
	assert.Contains(t, f.pub.events, "accounting.budget_template.created")

	_, err = f.svc.CreateTemplate(f.ctx, CreateTemplateInput{
		CompanyID:    f.budget.CompanyID,
		Code:         "TPL-OPEX",
		Name:         "Duplicate code",
		BudgetType:   TypeOperational,
		TemplateData: json.RawMessage(`{}`),
	})
	assert.ErrorIs(t, err, ErrTemplateCodeTaken)

	name := "Renamed template"
	updated, err := f.svc.UpdateTemplate(f.ctx, tpl.ID, UpdateTemplateInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.JSONEq(t, string(tpl.TemplateData), string(updated.TemplateData))

	require.NoError(t, f.svc.DeleteTemplate(f.ctx, tpl.ID))
	_, err = f.svc.GetTemplate(f.ctx, tpl.ID)
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestCreateVarianceRequiresExistingLine(t *testing.T) {
	f := newBudgetFixture(t)

	in := CreateVarianceInput{
		BudgetLineID:   uuid.New(),
		FiscalPeriodID: uuid.New(),
		BudgetAmount:   decimal.NewFromInt(10000),
		ActualAmount:   decimal.NewFromInt(11000),
		VarianceAmount: decimal.NewFromInt(-1000),
		VariancePct:    decimal.NewFromInt(-10),
		VarianceType:   VarianceUnfavorable,
		Significance:   SignificanceMedium,
	}
	_, err := f.svc.CreateVariance(f.ctx, in)
	assert.ErrorIs(t, err, ErrLineNotFound)

	in.BudgetLineID = f.line.ID
	v, err := f.svc.CreateVariance(f.ctx, in)
	require.NoError(t, err)
	assert.Equal(t, VarianceUnfavorable, v.VarianceType)

	in.VarianceType = VarianceType("neutral")
	_, err = f.svc.CreateVariance(f.ctx, in)
	assert.ErrorIs(t, err, shared.ErrValidation)

	reason := "headcount overrun"
	updated, err := f.svc.UpdateVariance(f.ctx, v.ID, UpdateVarianceInput{Reason: &reason})
	require.NoError(t, err)
	assert.Equal(t, reason, updated.Reason)
}
