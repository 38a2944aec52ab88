package centers

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/atlas-erp/accounting/internal/events"
)

// Service applies center rules on top of the Repository.
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

func (s *Service) CreateCostCenter(ctx context.Context, in CreateCostCenterInput) (CostCenter, error) {
	if err := in.Validate(); err != nil {
		return CostCenter{}, err
	}
	if in.ParentCostCenterID != nil {
		if _, err := s.repo.GetCostCenter(ctx, *in.ParentCostCenterID); err != nil {
			return CostCenter{}, ErrParentNotFound
		}
	}
	if in.ProfitCenterID != nil {
		if _, err := s.repo.GetProfitCenter(ctx, *in.ProfitCenterID); err != nil {
			return CostCenter{}, ErrProfitCenterNotFound
		}
	}
	cc, err := s.repo.InsertCostCenter(ctx, CostCenter{
		CompanyID:          in.CompanyID,
		Code:               in.Code,
		Name:               in.Name,
		CenterType:         in.CenterType,
		ParentCostCenterID: in.ParentCostCenterID,
		ProfitCenterID:     in.ProfitCenterID,
	})
	if err != nil {
		return CostCenter{}, err
	}
	events.Emit(ctx, s.logger, s.publisher, "accounting.cost_center.created", map[string]any{
		"id":   cc.ID.String(),
		"code": cc.Code,
	})
	return cc, nil
}

func (s *Service) GetCostCenter(ctx context.Context, id uuid.UUID) (CostCenter, error) {
	return s.repo.GetCostCenter(ctx, id)
}

func (s *Service) ListCostCenters(ctx context.Context, companyID *uuid.UUID, limit, offset int) ([]CostCenter, int, error) {
	return s.repo.ListCostCenters(ctx, companyID, limit, offset)
}

func (s *Service) UpdateCostCenter(ctx context.Context, id uuid.UUID, in UpdateCostCenterInput) (CostCenter, error) {
	cc, err := s.repo.GetCostCenter(ctx, id)
	if err != nil {
		return CostCenter{}, err
	}
	if in.Code != nil {
		cc.Code = *in.Code
	}
	if in.Name != nil {
		cc.Name = *in.Name
	}
	if in.CenterType != nil {
		cc.CenterType = *in.CenterType
	}
	if in.ParentCostCenterID != nil {
		if *in.ParentCostCenterID == id {
			return CostCenter{}, ErrSelfParent
		}
		if _, err := s.repo.GetCostCenter(ctx, *in.ParentCostCenterID); err != nil {
			return CostCenter{}, ErrParentNotFound
		}
		cc.ParentCostCenterID = in.ParentCostCenterID
	}
	if in.ProfitCenterID != nil {
		if _, err := s.repo.GetProfitCenter(ctx, *in.ProfitCenterID); err != nil {
			return CostCenter{}, ErrProfitCenterNotFound
		}
		cc.ProfitCenterID = in.ProfitCenterID
	}
	if in.IsActive != nil {
		cc.IsActive = *in.IsActive
	}
	if err := s.repo.UpdateCostCenter(ctx, cc); err != nil {
		return CostCenter{}, err
	}
	events.Emit(ctx, s.logger, s.publisher, "accounting.cost_center.updated", map[string]any{"id": id.String()})
	return cc, nil
}

func (s *Service) DeleteCostCenter(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetCostCenter(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteCostCenter(ctx, id); err != nil {
		return err
	}
	events.Emit(ctx, s.logger, s.publisher, "accounting.cost_center.deleted", map[string]any{"id": id.String()})
	return nil
}

func (s *Service) CreateProfitCenter(ctx context.Context, in CreateProfitCenterInput) (ProfitCenter, error) {
	if err := in.Validate(); err != nil {
		return ProfitCenter{}, err
	}
	if in.ParentProfitCenterID != nil {
		if _, err := s.repo.GetProfitCenter(ctx, *in.ParentProfitCenterID); err != nil {
			return ProfitCenter{}, ErrParentNotFound
		}
	}
	pc, err := s.repo.InsertProfitCenter(ctx, ProfitCenter{
		CompanyID:            in.CompanyID,
		Code:                 in.Code,
		Name:                 in.Name,
		CenterType:           in.CenterType,
		ParentProfitCenterID: in.ParentProfitCenterID,
	})
	if err != nil {
		return ProfitCenter{}, err
	}
	events.Emit(ctx, s.logger, s.publisher, "accounting.profit_center.created", map[string]any{
		"id":   pc.ID.String(),
		"code": pc.Code,
	})
	return pc, nil
}

func (s *Service) GetProfitCenter(ctx context.Context, id uuid.UUID) (ProfitCenter, error) {
	return s.repo.GetProfitCenter(ctx, id)
}

func (s *Service) ListProfitCenters(ctx context.Context, companyID *uuid.UUID, limit, offset int) ([]ProfitCenter, int, error) {
	return s.repo.ListProfitCenters(ctx, companyID, limit, offset)
}

func (s *Service) UpdateProfitCenter(ctx context.Context, id uuid.UUID, in UpdateProfitCenterInput) (ProfitCenter, error) {
	pc, err := s.repo.GetProfitCenter(ctx, id)
	if err != nil {
		return ProfitCenter{}, err
	}
	if in.Code != nil {
		pc.Code = *in.Code
	}
	if in.Name != nil {
		pc.Name = *in.Name
	}
	if in.CenterType != nil {
		pc.CenterType = *in.CenterType
	}
	if in.ParentProfitCenterID != nil {
		if *in.ParentProfitCenterID == id {
			return ProfitCenter{}, ErrSelfParent
		}
		if _, err := s.repo.GetProfitCenter(ctx, *in.ParentProfitCenterID); err != nil {
			return ProfitCenter{}, ErrParentNotFound
		}
		pc.ParentProfitCenterID = in.ParentProfitCenterID
	}
	if in.IsActive != nil {
		pc.IsActive = *in.IsActive
	}
	if err := s.repo.UpdateProfitCenter(ctx, pc); err != nil {
		return ProfitCenter{}, err
	}
	events.Emit(ctx, s.logger, s.publisher, "accounting.profit_center.updated", map[string]any{"id": id.String()})
	return pc, nil
}

func (s *Service) DeleteProfitCenter(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetProfitCenter(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteProfitCenter(ctx, id); err != nil {
		return err
	}
	events.Emit(ctx, s.logger, s.publisher, "accounting.profit_center.deleted", map[string]any{"id": id.String()})
	return nil
}
