package fiscal

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/atlas-erp/accounting/internal/events"
)

// Service applies the closed-state guard around the fiscal calendar.
type Service struct {
	repo      Repository
	publisher events.Publisher
	logger    *slog.Logger
}

// NewService constructs the Service.
func NewService(repo Repository, publisher events.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, publisher: publisher, logger: logger}
}

func (s *Service) CreateYear(ctx context.Context, in CreateYearInput) (FiscalYear, error) {
	if err := in.Validate(); err != nil {
		return FiscalYear{}, err
	}
	year, err := s.repo.InsertYear(ctx, FiscalYear{
		CompanyID: in.CompanyID,
		YearCode:  in.YearCode,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
	})
	if err != nil {
		return FiscalYear{}, err
	}
	events.Emit(ctx, s.logger, s.publisher, "accounting.fiscal_year.created", map[string]any{"id": year.ID.String()})
	return year, nil
}

func (s *Service) GetYear(ctx context.Context, id uuid.UUID) (FiscalYear, error) {
	return s.repo.GetYear(ctx, id)
}

func (s *Service) ListYears(ctx context.Context, companyID *uuid.UUID, limit, offset int) ([]FiscalYear, int, error) {
	return s.repo.ListYears(ctx, companyID, limit, offset)
}

func (s *Service) UpdateYear(ctx context.Context, id uuid.UUID, in UpdateYearInput) (FiscalYear, error) {
	year, err := s.repo.GetYear(ctx, id)
	if err != nil {
		return FiscalYear{}, err
	}
	if year.IsClosed {
		return FiscalYear{}, ErrYearClosed
	}
	if in.YearCode != nil {
		year.YearCode = *in.YearCode
	}
	if in.StartDate != nil {
		year.StartDate = *in.StartDate
	}
	if in.EndDate != nil {
		year.EndDate = *in.EndDate
	}
	if !year.EndDate.After(year.StartDate) {
		return FiscalYear{}, ErrDateRange
	}
	if err := s.repo.UpdateYear(ctx, year); err != nil {
		return FiscalYear{}, err
	}
	events.Emit(ctx, s.logger, s.publisher, "accounting.fiscal_year.updated", map[string]any{"id": id.String()})
	return year, nil
}

func (s *Service) DeleteYear(ctx context.Context, id uuid.UUID) error {
	year, err := s.repo.GetYear(ctx, id)
	if err != nil {
		return err
	}
	if year.IsClosed {
		return ErrYearClosed
	}
	if err := s.repo.DeleteYear(ctx, id); err != nil {
		return err
	}
	events.Emit(ctx, s.logger, s.publisher, "accounting.fiscal_year.deleted", map[string]any{"id": id.String()})
	return nil
}

// CloseYear transitions open -> closed. Every period of the year must be
// closed first, and closing twice is an error rather than a no-op.
func (s *Service) CloseYear(ctx context.Context, id uuid.UUID) (FiscalYear, error) {
	year, err := s.repo.GetYear(ctx, id)
	if err != nil {
		return FiscalYear{}, err
	}
	if year.IsClosed {
		return FiscalYear{}, ErrAlreadyClosed
	}
	open, err := s.repo.CountOpenPeriods(ctx, id)
	if err != nil {
		return FiscalYear{}, err
	}
	if open > 0 {
		return FiscalYear{}, ErrOpenPeriods
	}
	year.IsClosed = true
	if err := s.repo.UpdateYear(ctx, year); err != nil {
		return FiscalYear{}, err
	}
	events.Emit(ctx, s.logger, s.publisher, "accounting.fiscal_year.closed", map[string]any{"id": id.String()})
	return year, nil
}

func (s *Service) CreatePeriod(ctx context.Context, yearID uuid.UUID, in CreatePeriodInput) (FiscalPeriod, error) {
	if err := in.Validate(); err != nil {
		return FiscalPeriod{}, err
	}
	year, err := s.repo.GetYear(ctx, yearID)
	if err != nil {
		return FiscalPeriod{}, err
	}
	if year.IsClosed {
		return FiscalPeriod{}, ErrYearClosed
	}
	period, err := s.repo.InsertPeriod(ctx, FiscalPeriod{
		FiscalYearID: yearID,
		PeriodNumber: in.PeriodNumber,
		PeriodName:   in.PeriodName,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
	})
	if err != nil {
		return FiscalPeriod{}, err
	}
	events.Emit(ctx, s.logger, s.publisher, "accounting.fiscal_period.created", map[string]any{
		"id":             period.ID.String(),
		"fiscal_year_id": yearID.String(),
	})
	return period, nil
}

func (s *Service) GetPeriod(ctx context.Context, id uuid.UUID) (FiscalPeriod, error) {
	return s.repo.GetPeriod(ctx, id)
}

func (s *Service) ListPeriods(ctx context.Context, yearID uuid.UUID) ([]FiscalPeriod, error) {
	if _, err := s.repo.GetYear(ctx, yearID); err != nil {
		return nil, err
	}
	return s.repo.ListPeriods(ctx, yearID)
}

func (s *Service) UpdatePeriod(ctx context.Context, id uuid.UUID, in UpdatePeriodInput) (FiscalPeriod, error) {
	period, err := s.repo.GetPeriod(ctx, id)
	if err != nil {
		return FiscalPeriod{}, err
	}
	if period.IsClosed {
		return FiscalPeriod{}, ErrPeriodClosed
	}
	if in.PeriodNumber != nil {
		period.PeriodNumber = *in.PeriodNumber
	}
	if in.PeriodName != nil {
		period.PeriodName = *in.PeriodName
	}
	if in.StartDate != nil {
		period.StartDate = *in.StartDate
	}
	if in.EndDate != nil {
		period.EndDate = *in.EndDate
	}
	if !period.EndDate.After(period.StartDate) {
		return FiscalPeriod{}, ErrDateRange
	}
	if err := s.repo.UpdatePeriod(ctx, period); err != nil {
		return FiscalPeriod{}, err
	}
	events.Emit(ctx, s.logger, s.publisher, "accounting.fiscal_period.updated", map[string]any{"id": id.String()})
	return period, nil
}

func (s *Service) DeletePeriod(ctx context.Context, id uuid.UUID) error {
	period, err := s.repo.GetPeriod(ctx, id)
	if err != nil {
		return err
	}
	if period.IsClosed {
		return ErrPeriodClosed
	}
	if err := s.repo.DeletePeriod(ctx, id); err != nil {
		return err
	}
	events.Emit(ctx, s.logger, s.publisher, "accounting.fiscal_period.deleted", map[string]any{"id": id.String()})
	return nil
}

// ClosePeriod transitions open -> closed; closing an already-closed period
// fails rather than no-oping.
func (s *Service) ClosePeriod(ctx context.Context, id uuid.UUID) (FiscalPeriod, error) {
	period, err := s.repo.GetPeriod(ctx, id)
	if err != nil {
		return FiscalPeriod{}, err
	}
	if period.IsClosed {
		return FiscalPeriod{}, ErrAlreadyClosed
	}
	period.IsClosed = true
	if err := s.repo.UpdatePeriod(ctx, period); err != nil {
		return FiscalPeriod{}, err
	}
	events.Emit(ctx, s.logger, s.publisher, "accounting.fiscal_period.closed", map[string]any{"id": id.String()})
	return period, nil
}
