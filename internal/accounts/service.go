package accounts

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/atlas-erp/accounting/internal/events"
)

// Service applies chart-of-accounts rules on top of the Repository.
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

func (s *Service) Create(ctx context.Context, in CreateInput) (Account, error) {
	if err := in.Validate(); err != nil {
		return Account{}, err
	}
	if in.ParentAccountID != nil {
		if _, err := s.repo.Get(ctx, *in.ParentAccountID); err != nil {
			return Account{}, ErrParentNotFound
		}
	}
	account, err := s.repo.Insert(ctx, Account{
		CompanyID:          in.CompanyID,
		Code:               in.Code,
		Name:               in.Name,
		Category:           in.Category,
		Type:               in.Type,
		ParentAccountID:    in.ParentAccountID,
		IsControlAccount:   in.IsControlAccount,
		IsInterCompany:     in.IsInterCompany,
		CostCenterRequired: in.CostCenterRequired,
	})
	if err != nil {
		return Account{}, err
	}
	events.Emit(ctx, s.logger, s.publisher, "accounting.account.created", map[string]any{
		"id":   account.ID.String(),
		"code": account.Code,
	})
	return account, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (Account, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Account, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (Account, error) {
	account, err := s.repo.Get(ctx, id)
	if err != nil {
		return Account{}, err
	}
	if in.Code != nil {
		account.Code = *in.Code
	}
	if in.Name != nil {
		account.Name = *in.Name
	}
	if in.Category != nil {
		account.Category = *in.Category
	}
	if in.Type != nil {
		account.Type = *in.Type
	}
	if in.ParentAccountID != nil {
		if *in.ParentAccountID == id {
			return Account{}, ErrSelfParent
		}
		if _, err := s.repo.Get(ctx, *in.ParentAccountID); err != nil {
			return Account{}, ErrParentNotFound
		}
		account.ParentAccountID = in.ParentAccountID
	}
	if in.IsControlAccount != nil {
		account.IsControlAccount = *in.IsControlAccount
	}
	if in.IsInterCompany != nil {
		account.IsInterCompany = *in.IsInterCompany
	}
	if in.CostCenterRequired != nil {
		account.CostCenterRequired = *in.CostCenterRequired
	}
	if !PairingValid(account.Category, account.Type) {
		return Account{}, ErrTypeMismatch
	}
	if err := s.repo.Update(ctx, account); err != nil {
		return Account{}, err
	}
	events.Emit(ctx, s.logger, s.publisher, "accounting.account.updated", map[string]any{"id": id.String()})
	return account, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	events.Emit(ctx, s.logger, s.publisher, "accounting.account.deleted", map[string]any{"id": id.String()})
	return nil
}

// SetActive flips the activation flag; deactivating keeps the row so
// historical journal lines stay resolvable.
func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool) (Account, error) {
	account, err := s.repo.Get(ctx, id)
	if err != nil {
		return Account{}, err
	}
	if account.IsActive == active {
		return account, nil
	}
	account.IsActive = active
	if err := s.repo.Update(ctx, account); err != nil {
		return Account{}, err
	}
	event := "accounting.account.deactivated"
	if active {
		event = "accounting.account.activated"
	}
	events.Emit(ctx, s.logger, s.publisher, event, map[string]any{"id": id.String()})
	return account, nil
}
