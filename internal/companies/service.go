package companies

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/atlas-erp/accounting/internal/events"
)

// Service applies master-data rules on top of the Repository.
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

func (s *Service) CreateCompany(ctx context.Context, in CreateCompanyInput) (Company, error) {
	if err := in.Validate(); err != nil {
		return Company{}, err
	}
	if in.ParentCompanyID != nil {
		if _, err := s.repo.GetCompany(ctx, *in.ParentCompanyID); err != nil {
			return Company{}, ErrParentNotFound
		}
	}
	company, err := s.repo.InsertCompany(ctx, Company{
		Code:                 in.Code,
		Name:                 in.Name,
		LegalName:            in.LegalName,
		ParentCompanyID:      in.ParentCompanyID,
		FunctionalCurrencyID: in.FunctionalCurrencyID,
		TaxID:                in.TaxID,
	})
	if err != nil {
		return Company{}, err
	}
	events.Emit(ctx, s.logger, s.publisher, "accounting.company.created", map[string]any{
		"id":   company.ID.String(),
		"code": company.Code,
	})
	return company, nil
}

func (s *Service) GetCompany(ctx context.Context, id uuid.UUID) (Company, error) {
	return s.repo.GetCompany(ctx, id)
}

func (s *Service) ListCompanies(ctx context.Context, limit, offset int) ([]Company, int, error) {
	return s.repo.ListCompanies(ctx, limit, offset)
}

func (s *Service) UpdateCompany(ctx context.Context, id uuid.UUID, in UpdateCompanyInput) (Company, error) {
	company, err := s.repo.GetCompany(ctx, id)
	if err != nil {
		return Company{}, err
	}
	if in.Code != nil {
		company.Code = *in.Code
	}
	if in.Name != nil {
		company.Name = *in.Name
	}
	if in.LegalName != nil {
		company.LegalName = *in.LegalName
	}
	if in.ParentCompanyID != nil {
		if *in.ParentCompanyID == id {
			return Company{}, ErrSelfParent
		}
		if _, err := s.repo.GetCompany(ctx, *in.ParentCompanyID); err != nil {
			return Company{}, ErrParentNotFound
		}
		company.ParentCompanyID = in.ParentCompanyID
	}
	if in.FunctionalCurrencyID != nil {
		company.FunctionalCurrencyID = in.FunctionalCurrencyID
	}
	if in.TaxID != nil {
		company.TaxID = *in.TaxID
	}
	if in.IsActive != nil {
		company.IsActive = *in.IsActive
	}
	if err := s.repo.UpdateCompany(ctx, company); err != nil {
		return Company{}, err
	}
	events.Emit(ctx, s.logger, s.publisher, "accounting.company.updated", map[string]any{"id": id.String()})
	return company, nil
}

func (s *Service) DeleteCompany(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetCompany(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteCompany(ctx, id); err != nil {
		return err
	}
	events.Emit(ctx, s.logger, s.publisher, "accounting.company.deleted", map[string]any{"id": id.String()})
	return nil
}

func (s *Service) CreateCurrency(ctx context.Context, in CreateCurrencyInput) (Currency, error) {
	currency, err := s.repo.InsertCurrency(ctx, Currency{
		Code:          strings.ToUpper(in.Code),
		Name:          in.Name,
		Symbol:        in.Symbol,
		DecimalPlaces: in.DecimalPlaces,
	})
	if err != nil {
		return Currency{}, err
	}
	events.Emit(ctx, s.logger, s.publisher, "accounting.currency.created", map[string]any{
		"id":   currency.ID.String(),
		"code": currency.Code,
	})
	return currency, nil
}

func (s *Service) GetCurrency(ctx context.Context, id uuid.UUID) (Currency, error) {
	return s.repo.GetCurrency(ctx, id)
}

func (s *Service) ListCurrencies(ctx context.Context, limit, offset int) ([]Currency, int, error) {
	return s.repo.ListCurrencies(ctx, limit, offset)
}

func (s *Service) UpdateCurrency(ctx context.Context, id uuid.UUID, in UpdateCurrencyInput) (Currency, error) {
	currency, err := s.repo.GetCurrency(ctx, id)
	if err != nil {
		return Currency{}, err
	}
	if in.Name != nil {
		currency.Name = *in.Name
	}
	if in.Symbol != nil {
		currency.Symbol = *in.Symbol
	}
	if in.DecimalPlaces != nil {
		currency.DecimalPlaces = *in.DecimalPlaces
	}
	if in.IsActive != nil {
		currency.IsActive = *in.IsActive
	}
	if err := s.repo.UpdateCurrency(ctx, currency); err != nil {
		return Currency{}, err
	}
	events.Emit(ctx, s.logger, s.publisher, "accounting.currency.updated", map[string]any{"id": id.String()})
	return currency, nil
}

func (s *Service) DeleteCurrency(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetCurrency(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteCurrency(ctx, id); err != nil {
		return err
	}
	events.Emit(ctx, s.logger, s.publisher, "accounting.currency.deleted", map[string]any{"id": id.String()})
	return nil
}
