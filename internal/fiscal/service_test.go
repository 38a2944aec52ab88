package fiscal

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	years   map[uuid.UUID]*FiscalYear
	periods map[uuid.UUID]*FiscalPeriod
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		years:   make(map[uuid.UUID]*FiscalYear),
		periods: make(map[uuid.UUID]*FiscalPeriod),
	}
}

func (f *fakeRepo) InsertYear(ctx context.Context, year FiscalYear) (FiscalYear, error) {
	year.ID = uuid.New()
	year.CreatedAt = time.Now()
	year.UpdatedAt = year.CreatedAt
	stored := year
	f.years[year.ID] = &stored
	return year, nil
}

func (f *fakeRepo) GetYear(ctx context.Context, id uuid.UUID) (FiscalYear, error) {
	y, ok := f.years[id]
	if !ok {
		return FiscalYear{}, ErrYearNotFound
	}
	return *y, nil
}

func (f *fakeRepo) ListYears(ctx context.Context, companyID *uuid.UUID, limit, offset int) ([]FiscalYear, int, error) {
	var out []FiscalYear
	for _, y := range f.years {
		if companyID != nil && y.CompanyID != *companyID {
			continue
		}
		out = append(out, *y)
	}
	return out, len(out), nil
}

func (f *fakeRepo) UpdateYear(ctx context.Context, year FiscalYear) error {
	stored, ok := f.years[year.ID]
	if !ok {
		return ErrYearNotFound
	}
	*stored = year
	return nil
}

func (f *fakeRepo) DeleteYear(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.years[id]; !ok {
		return ErrYearNotFound
	}
	delete(f.years, id)
	return nil
}

func (f *fakeRepo) CountOpenPeriods(ctx context.Context, yearID uuid.UUID) (int, error) {
	open := 0
	for _, p := range f.periods {
		if p.FiscalYearID == yearID && !p.IsClosed {
			open++
		}
	}
	return open, nil
}

func (f *fakeRepo) InsertPeriod(ctx context.Context, period FiscalPeriod) (FiscalPeriod, error) {
	period.ID = uuid.New()
	period.CreatedAt = time.Now()
	period.UpdatedAt = period.CreatedAt
	stored := period
	f.periods[period.ID] = &stored
	return period, nil
}

func (f *fakeRepo) GetPeriod(ctx context.Context, id uuid.UUID) (FiscalPeriod, error) {
	p, ok := f.periods[id]
	if !ok {
		return FiscalPeriod{}, ErrPeriodNotFound
	}
	return *p, nil
}

func (f *fakeRepo) ListPeriods(ctx context.Context, yearID uuid.UUID) ([]FiscalPeriod, error) {
	var out []FiscalPeriod
	for _, p := range f.periods {
		if p.FiscalYearID == yearID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpdatePeriod(ctx context.Context, period FiscalPeriod) error {
	stored, ok := f.periods[period.ID]
	if !ok {
		return ErrPeriodNotFound
	}
	*stored = period
	return nil
}

func (f *fakeRepo) DeletePeriod(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.periods[id]; !ok {
		return ErrPeriodNotFound
	}
	delete(f.periods, id)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T) (*fakeRepo, *Service, FiscalYear) {
	t.Helper()
	repo := newFakeRepo()
	service := NewService(repo, nil, testLogger())
	year, err := service.CreateYear(context.Background(), CreateYearInput{
		CompanyID: uuid.New(),
		YearCode:  "FY2024",
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return repo, service, year
}

func quarter(n int) CreatePeriodInput {
	start := time.Date(2024, time.Month(3*(n-1)+1), 1, 0, 0, 0, 0, time.UTC)
	return CreatePeriodInput{
		PeriodNumber: n,
		PeriodName:   "Q" + string(rune('0'+n)),
		StartDate:    start,
		EndDate:      start.AddDate(0, 3, -1),
	}
}

func TestCreateYearValidatesDateRange(t *testing.T) {
	repo := newFakeRepo()
	service := NewService(repo, nil, testLogger())

	_, err := service.CreateYear(context.Background(), CreateYearInput{
		CompanyID: uuid.New(),
		YearCode:  "FY2024",
		StartDate: time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.ErrorIs(t, err, ErrDateRange)
}

func TestUpdateYearRejectsClosedYear(t *testing.T) {
	repo, service, year := newFixture(t)
	repo.years[year.ID].IsClosed = true

	code := "FY2024R"
	_, err := service.UpdateYear(context.Background(), year.ID, UpdateYearInput{YearCode: &code})
	require.ErrorIs(t, err, ErrYearClosed)

	err = service.DeleteYear(context.Background(), year.ID)
	require.ErrorIs(t, err, ErrYearClosed)
}

func TestUpdateYearRevalidatesDateRange(t *testing.T) {
	_, service, year := newFixture(t)

	bad := year.StartDate.AddDate(0, 0, -1)
	_, err := service.UpdateYear(context.Background(), year.ID, UpdateYearInput{EndDate: &bad})
	require.ErrorIs(t, err, ErrDateRange)
}

func TestCloseYearRequiresClosedPeriods(t *testing.T) {
	_, service, year := newFixture(t)
	ctx := context.Background()

	p1, err := service.CreatePeriod(ctx, year.ID, quarter(1))
	require.NoError(t, err)
	p2, err := service.CreatePeriod(ctx, year.ID, quarter(2))
	require.NoError(t, err)

	_, err = service.CloseYear(ctx, year.ID)
	require.ErrorIs(t, err, ErrOpenPeriods)

	_, err = service.ClosePeriod(ctx, p1.ID)
	require.NoError(t, err)
	_, err = service.CloseYear(ctx, year.ID)
	require.ErrorIs(t, err, ErrOpenPeriods)

	_, err = service.ClosePeriod(ctx, p2.ID)
	require.NoError(t, err)
	closed, err := service.CloseYear(ctx, year.ID)
	require.NoError(t, err)
	assert.True(t, closed.IsClosed)

	_, err = service.CloseYear(ctx, year.ID)
	require.ErrorIs(t, err, ErrAlreadyClosed)
}

func TestCreatePeriodRejectsClosedYear(t *testing.T) {
	repo, service, year := newFixture(t)
	repo.years[year.ID].IsClosed = true

	_, err := service.CreatePeriod(context.Background(), year.ID, quarter(1))
	require.ErrorIs(t, err, ErrYearClosed)
}

func TestClosedPeriodIsTerminal(t *testing.T) {
	_, service, year := newFixture(t)
	ctx := context.Background()

	period, err := service.CreatePeriod(ctx, year.ID, quarter(1))
	require.NoError(t, err)

	closed, err := service.ClosePeriod(ctx, period.ID)
	require.NoError(t, err)
	assert.True(t, closed.IsClosed)

	_, err = service.ClosePeriod(ctx, period.ID)
	require.ErrorIs(t, err, ErrAlreadyClosed)

	name := "Q1 revised"
	_, err = service.UpdatePeriod(ctx, period.ID, UpdatePeriodInput{PeriodName: &name})
	require.ErrorIs(t, err, ErrPeriodClosed)

	err = service.DeletePeriod(ctx, period.ID)
	require.ErrorIs(t, err, ErrPeriodClosed)
}

func TestListPeriodsRequiresYear(t *testing.T) {
	_, service, _ := newFixture(t)

	_, err := service.ListPeriods(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrYearNotFound)
}
