package budgets

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/atlas-erp/accounting/internal/events"
	"github.com/atlas-erp/accounting/internal/shared"
)

// Service applies budgeting rules on top of the Repository. Every budget
// mutation leaves an audit-log row attributed to the request actor.
type Service struct {
	repo      Repository
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewService constructs the Service.
func NewService(repo Repository, publisher events.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, publisher: publisher, logger: logger, now: time.Now}
}

// WithNow overrides the clock.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) audit(ctx context.Context, budgetID uuid.UUID, action, details string) {
	actor, _ := shared.ActorFromContext(ctx)
	if _, err := s.repo.InsertAudit(ctx, AuditLog{BudgetID: budgetID, Action: action, PerformedBy: actor, Details: details}); err != nil {
		s.logger.Warn("budget audit write failed", slog.String("budget", budgetID.String()), slog.Any("error", err))
	}
}

func (s *Service) CreateBudget(ctx context.Context, in CreateBudgetInput) (Budget, error) {
	if err := in.Validate(); err != nil {
		return Budget{}, err
	}
	if in.ParentBudgetID != nil {
		if _, err := s.repo.GetBudget(ctx, *in.ParentBudgetID); err != nil {
			return Budget{}, err
		}
	}
	method := in.AllocationMethod
	if method == "" {
		method = MethodEqual
	}
	budget, err := s.repo.InsertBudget(ctx, Budget{
		CompanyID:        in.CompanyID,
		FiscalYearID:     in.FiscalYearID,
		Code:             in.Code,
		Name:             in.Name,
		BudgetType:       in.BudgetType,
		ParentBudgetID:   in.ParentBudgetID,
		CurrencyID:       in.CurrencyID,
		StartDate:        in.StartDate,
		EndDate:          in.EndDate,
		AllocationMethod: method,
		Description:      in.Description,
		Notes:            in.Notes,
	})
	if err != nil {
		return Budget{}, err
	}
	s.audit(ctx, budget.ID, "created", "budget "+budget.Code)
	events.Emit(ctx, s.logger, s.publisher, "accounting.budget.created", map[string]any{
		"id":   budget.ID.String(),
		"code": budget.Code,
	})
	return budget, nil
}

func (s *Service) GetBudget(ctx context.Context, id uuid.UUID) (Budget, error) {
	return s.repo.GetBudget(ctx, id)
}

func (s *Service) ListBudgets(ctx context.Context, filter BudgetFilter) ([]Budget, int, error) {
	return s.repo.ListBudgets(ctx, filter)
}

func (s *Service) UpdateBudget(ctx context.Context, id uuid.UUID, in UpdateBudgetInput) (Budget, error) {
	budget, err := s.repo.GetBudget(ctx, id)
	if err != nil {
		return Budget{}, err
	}
	unlocking := in.IsLocked != nil && !*in.IsLocked
	if budget.IsLocked && !unlocking {
		return Budget{}, ErrLocked
	}
	if in.Code != nil {
		budget.Code = *in.Code
	}
	if in.Name != nil {
		budget.Name = *in.Name
	}
	if in.BudgetType != nil {
		budget.BudgetType = *in.BudgetType
	}
	if in.Status != nil {
		budget.Status = *in.Status
	}
	if in.StartDate != nil {
		budget.StartDate = *in.StartDate
	}
	if in.EndDate != nil {
		budget.EndDate = *in.EndDate
	}
	if in.AllocationMethod != nil {
		budget.AllocationMethod = *in.AllocationMethod
	}
	if in.Description != nil {
		budget.Description = *in.Description
	}
	if in.Notes != nil {
		budget.Notes = *in.Notes
	}
	if in.IsLocked != nil {
		budget.IsLocked = *in.IsLocked
	}
	if !budget.EndDate.After(budget.StartDate) {
		return Budget{}, shared.Validationf("budgets: end date must be after start date")
	}
	if err := s.repo.UpdateBudget(ctx, budget); err != nil {
		return Budget{}, err
	}
	s.audit(ctx, id, "updated", "")
	events.Emit(ctx, s.logger, s.publisher, "accounting.budget.updated", map[string]any{"id": id.String()})
	return budget, nil
}

// DeleteBudget removes the budget and, via cascading foreign keys, its
// lines, period lines, approvals, allocations and audit trail.
func (s *Service) DeleteBudget(ctx context.Context, id uuid.UUID) error {
	budget, err := s.repo.GetBudget(ctx, id)
	if err != nil {
		return err
	}
	if budget.IsLocked {
		return ErrLocked
	}
	if err := s.repo.DeleteBudget(ctx, id); err != nil {
		return err
	}
	events.Emit(ctx, s.logger, s.publisher, "accounting.budget.deleted", map[string]any{"id": id.String()})
	return nil
}

func (s *Service) mutableBudget(ctx context.Context, id uuid.UUID) (Budget, error) {
	budget, err := s.repo.GetBudget(ctx, id)
	if err != nil {
		return Budget{}, err
	}
	if budget.IsLocked {
		return Budget{}, ErrLocked
	}
	return budget, nil
}

func (s *Service) AddLine(ctx context.Context, budgetID uuid.UUID, in CreateLineInput) (Line, error) {
	if _, err := s.mutableBudget(ctx, budgetID); err != nil {
		return Line{}, err
	}
	line, err := s.repo.InsertLine(ctx, Line{
		BudgetID:     budgetID,
		AccountID:    in.AccountID,
		AnnualAmount: in.AnnualAmount,
		Description:  in.Description,
		Notes:        in.Notes,
	})
	if err != nil {
		return Line{}, err
	}
	s.audit(ctx, budgetID, "line_added", "line "+line.ID.String())
	return line, nil
}

func (s *Service) GetLine(ctx context.Context, budgetID, lineID uuid.UUID) (Line, error) {
	line, err := s.repo.GetLine(ctx, lineID)
	if err != nil {
		return Line{}, err
	}
	if line.BudgetID != budgetID {
		return Line{}, ErrLineNotFound
	}
	return line, nil
}

func (s *Service) ListLines(ctx context.Context, budgetID uuid.UUID) ([]Line, error) {
	if _, err := s.repo.GetBudget(ctx, budgetID); err != nil {
		return nil, err
	}
	return s.repo.ListLines(ctx, budgetID)
}

func (s *Service) UpdateLine(ctx context.Context, budgetID, lineID uuid.UUID, in UpdateLineInput) (Line, error) {
	if _, err := s.mutableBudget(ctx, budgetID); err != nil {
		return Line{}, err
	}
	line, err := s.GetLine(ctx, budgetID, lineID)
	if err != nil {
		return Line{}, err
	}
	if in.AccountID != nil {
		line.AccountID = *in.AccountID
	}
	if in.AnnualAmount != nil {
		line.AnnualAmount = *in.AnnualAmount
	}
	if in.Description != nil {
		line.Description = *in.Description
	}
	if in.Notes != nil {
		line.Notes = *in.Notes
	}
	if err := s.repo.UpdateLine(ctx, line); err != nil {
		return Line{}, err
	}
	s.audit(ctx, budgetID, "line_updated", "line "+lineID.String())
	return line, nil
}

func (s *Service) DeleteLine(ctx context.Context, budgetID, lineID uuid.UUID) error {
	if _, err := s.mutableBudget(ctx, budgetID); err != nil {
		return err
	}
	if _, err := s.GetLine(ctx, budgetID, lineID); err != nil {
		return err
	}
	if err := s.repo.DeleteLine(ctx, lineID); err != nil {
		return err
	}
	s.audit(ctx, budgetID, "line_deleted", "line "+lineID.String())
	return nil
}

func (s *Service) AddPeriodLine(ctx context.Context, budgetID, lineID uuid.UUID, in CreatePeriodLineInput) (PeriodLine, error) {
	if _, err := s.mutableBudget(ctx, budgetID); err != nil {
		return PeriodLine{}, err
	}
	if _, err := s.GetLine(ctx, budgetID, lineID); err != nil {
		return PeriodLine{}, err
	}
	pl, err := s.repo.InsertPeriodLine(ctx, PeriodLine{
		BudgetLineID:   lineID,
		FiscalPeriodID: in.FiscalPeriodID,
		Amount:         in.Amount,
		Notes:          in.Notes,
	})
	if err != nil {
		return PeriodLine{}, err
	}
	s.audit(ctx, budgetID, "period_line_added", "period line "+pl.ID.String())
	return pl, nil
}

func (s *Service) ListPeriodLines(ctx context.Context, budgetID, lineID uuid.UUID) ([]PeriodLine, error) {
	if _, err := s.GetLine(ctx, budgetID, lineID); err != nil {
		return nil, err
	}
	return s.repo.ListPeriodLines(ctx, lineID)
}

func (s *Service) UpdatePeriodLine(ctx context.Context, budgetID, lineID, periodLineID uuid.UUID, in UpdatePeriodLineInput) (PeriodLine, error) {
	if _, err := s.mutableBudget(ctx, budgetID); err != nil {
		return PeriodLine{}, err
	}
	if _, err := s.GetLine(ctx, budgetID, lineID); err != nil {
		return PeriodLine{}, err
	}
	pl, err := s.repo.GetPeriodLine(ctx, periodLineID)
	if err != nil {
		return PeriodLine{}, err
	}
	if pl.BudgetLineID != lineID {
		return PeriodLine{}, ErrPeriodLineNotFound
	}
	if in.Amount != nil {
		pl.Amount = *in.Amount
	}
	if in.Notes != nil {
		pl.Notes = *in.Notes
	}
	if err := s.repo.UpdatePeriodLine(ctx, pl); err != nil {
		return PeriodLine{}, err
	}
	s.audit(ctx, budgetID, "period_line_updated", "period line "+periodLineID.String())
	return pl, nil
}

func (s *Service) DeletePeriodLine(ctx context.Context, budgetID, lineID, periodLineID uuid.UUID) error {
	if _, err := s.mutableBudget(ctx, budgetID); err != nil {
		return err
	}
	if _, err := s.GetLine(ctx, budgetID, lineID); err != nil {
		return err
	}
	pl, err := s.repo.GetPeriodLine(ctx, periodLineID)
	if err != nil {
		return err
	}
	if pl.BudgetLineID != lineID {
		return ErrPeriodLineNotFound
	}
	if err := s.repo.DeletePeriodLine(ctx, periodLineID); err != nil {
		return err
	}
	s.audit(ctx, budgetID, "period_line_deleted", "period line "+periodLineID.String())
	return nil
}

func (s *Service) AddApproval(ctx context.Context, budgetID uuid.UUID, in CreateApprovalInput) (Approval, error) {
	if _, err := s.repo.GetBudget(ctx, budgetID); err != nil {
		return Approval{}, err
	}
	approval, err := s.repo.InsertApproval(ctx, Approval{
		BudgetID:      budgetID,
		ApprovalLevel: in.ApprovalLevel,
		ApproverID:    in.ApproverID,
		ApproverName:  in.ApproverName,
		ApproverRole:  in.ApproverRole,
		Comments:      in.Comments,
	})
	if err != nil {
		return Approval{}, err
	}
	s.audit(ctx, budgetID, "approval_requested", "approval "+approval.ID.String())
	return approval, nil
}

func (s *Service) ListApprovals(ctx context.Context, budgetID uuid.UUID) ([]Approval, error) {
	if _, err := s.repo.GetBudget(ctx, budgetID); err != nil {
		return nil, err
	}
	return s.repo.ListApprovals(ctx, budgetID)
}

func (s *Service) UpdateApproval(ctx context.Context, budgetID, approvalID uuid.UUID, in UpdateApprovalInput) (Approval, error) {
	if err := in.Validate(); err != nil {
		return Approval{}, err
	}
	approval, err := s.repo.GetApproval(ctx, approvalID)
	if err != nil {
		return Approval{}, err
	}
	if approval.BudgetID != budgetID {
		return Approval{}, ErrApprovalNotFound
	}
	if in.Status != nil {
		approval.Status = *in.Status
		if *in.Status != ApprovalPending {
			decided := s.now().UTC()
			approval.ApprovalDate = &decided
		}
	}
	if in.Comments != nil {
		approval.Comments = *in.Comments
	}
	if err := s.repo.UpdateApproval(ctx, approval); err != nil {
		return Approval{}, err
	}
	s.audit(ctx, budgetID, "approval_"+string(approval.Status), "approval "+approvalID.String())
	events.Emit(ctx, s.logger, s.publisher, "accounting.budget.approval_updated", map[string]any{
		"id":     approvalID.String(),
		"status": string(approval.Status),
	})
	return approval, nil
}

func (s *Service) DeleteApproval(ctx context.Context, budgetID, approvalID uuid.UUID) error {
	approval, err := s.repo.GetApproval(ctx, approvalID)
	if err != nil {
		return err
	}
	if approval.BudgetID != budgetID {
		return ErrApprovalNotFound
	}
	if err := s.repo.DeleteApproval(ctx, approvalID); err != nil {
		return err
	}
	s.audit(ctx, budgetID, "approval_deleted", "approval "+approvalID.String())
	return nil
}

func (s *Service) AddAllocation(ctx context.Context, budgetID uuid.UUID, in CreateAllocationInput) (Allocation, error) {
	if _, err := s.mutableBudget(ctx, budgetID); err != nil {
		return Allocation{}, err
	}
	source, err := s.repo.GetLine(ctx, in.SourceBudgetLineID)
	if err != nil {
		return Allocation{}, err
	}
	if source.BudgetID != budgetID {
		return Allocation{}, ErrLineOutsideBudget
	}
	method := in.Method
	if method == "" {
		method = MethodEqual
	}
	allocation, err := s.repo.InsertAllocation(ctx, Allocation{
		BudgetID:           budgetID,
		SourceBudgetLineID: in.SourceBudgetLineID,
		Name:               in.Name,
		TotalAmount:        in.TotalAmount,
		Method:             method,
		Description:        in.Description,
	})
	if err != nil {
		return Allocation{}, err
	}
	s.audit(ctx, budgetID, "allocation_added", "allocation "+allocation.ID.String())
	return allocation, nil
}

func (s *Service) GetAllocation(ctx context.Context, budgetID, allocationID uuid.UUID) (Allocation, error) {
	allocation, err := s.repo.GetAllocation(ctx, allocationID)
	if err != nil {
		return Allocation{}, err
	}
	if allocation.BudgetID != budgetID {
		return Allocation{}, ErrAllocationNotFound
	}
	return allocation, nil
}

func (s *Service) ListAllocations(ctx context.Context, budgetID uuid.UUID) ([]Allocation, error) {
	if _, err := s.repo.GetBudget(ctx, budgetID); err != nil {
		return nil, err
	}
	return s.repo.ListAllocations(ctx, budgetID)
}

func (s *Service) UpdateAllocation(ctx context.Context, budgetID, allocationID uuid.UUID, in UpdateAllocationInput) (Allocation, error) {
	if _, err := s.mutableBudget(ctx, budgetID); err != nil {
		return Allocation{}, err
	}
	allocation, err := s.GetAllocation(ctx, budgetID, allocationID)
	if err != nil {
		return Allocation{}, err
	}
	if in.Name != nil {
		allocation.Name = *in.Name
	}
	if in.TotalAmount != nil {
		allocation.TotalAmount = *in.TotalAmount
	}
	if in.Status != nil {
		allocation.Status = *in.Status
	}
	if in.Description != nil {
		allocation.Description = *in.Description
	}
	if err := s.repo.UpdateAllocation(ctx, allocation); err != nil {
		return Allocation{}, err
	}
	s.audit(ctx, budgetID, "allocation_updated", "allocation "+allocationID.String())
	return allocation, nil
}

func (s *Service) DeleteAllocation(ctx context.Context, budgetID, allocationID uuid.UUID) error {
	if _, err := s.mutableBudget(ctx, budgetID); err != nil {
		return err
	}
	if _, err := s.GetAllocation(ctx, budgetID, allocationID); err != nil {
		return err
	}
	if err := s.repo.DeleteAllocation(ctx, allocationID); err != nil {
		return err
	}
	s.audit(ctx, budgetID, "allocation_deleted", "allocation "+allocationID.String())
	return nil
}

// AddAllocationLine attaches a target line to an allocation. The target must
// be a line of the same budget the allocation belongs to.
func (s *Service) AddAllocationLine(ctx context.Context, budgetID, allocationID uuid.UUID, in CreateAllocationLineInput) (AllocationLine, error) {
	if _, err := s.mutableBudget(ctx, budgetID); err != nil {
		return AllocationLine{}, err
	}
	allocation, err := s.GetAllocation(ctx, budgetID, allocationID)
	if err != nil {
		return AllocationLine{}, err
	}
	target, err := s.repo.GetLine(ctx, in.TargetBudgetLineID)
	if err != nil {
		return AllocationLine{}, shared.Validationf("budgets: target budget line not found")
	}
	if target.BudgetID != allocation.BudgetID {
		return AllocationLine{}, ErrLineOutsideBudget
	}
	al, err := s.repo.InsertAllocationLine(ctx, AllocationLine{
		AllocationID:       allocationID,
		TargetBudgetLineID: in.TargetBudgetLineID,
		Percentage:         in.Percentage,
		Amount:             in.Amount,
	})
	if err != nil {
		return AllocationLine{}, err
	}
	s.audit(ctx, budgetID, "allocation_line_added", "allocation line "+al.ID.String())
	return al, nil
}

func (s *Service) ListAllocationLines(ctx context.Context, budgetID, allocationID uuid.UUID) ([]AllocationLine, error) {
	if _, err := s.GetAllocation(ctx, budgetID, allocationID); err != nil {
		return nil, err
	}
	return s.repo.ListAllocationLines(ctx, allocationID)
}

func (s *Service) DeleteAllocationLine(ctx context.Context, budgetID, allocationID, lineID uuid.UUID) error {
	if _, err := s.mutableBudget(ctx, budgetID); err != nil {
		return err
	}
	if _, err := s.GetAllocation(ctx, budgetID, allocationID); err != nil {
		return err
	}
	al, err := s.repo.GetAllocationLine(ctx, lineID)
	if err != nil {
		return err
	}
	if al.AllocationID != allocationID {
		return ErrAllocationLineNotFound
	}
	if err := s.repo.DeleteAllocationLine(ctx, lineID); err != nil {
		return err
	}
	s.audit(ctx, budgetID, "allocation_line_deleted", "allocation line "+lineID.String())
	return nil
}

func (s *Service) CreateTemplate(ctx context.Context, in CreateTemplateInput) (Template, error) {
	template, err := s.repo.InsertTemplate(ctx, Template{
		CompanyID:    in.CompanyID,
		Code:         in.Code,
		Name:         in.Name,
		BudgetType:   in.BudgetType,
		TemplateData: in.TemplateData,
		Description:  in.Description,
	})
	if err != nil {
		return Template{}, err
	}
	events.Emit(ctx, s.logger, s.publisher, "accounting.budget_template.created", map[string]any{
		"id":   template.ID.String(),
		"code": template.Code,
	})
	return template, nil
}

func (s *Service) GetTemplate(ctx context.Context, id uuid.UUID) (Template, error) {
	return s.repo.GetTemplate(ctx, id)
}

func (s *Service) ListTemplates(ctx context.Context, companyID *uuid.UUID, limit, offset int) ([]Template, int, error) {
	return s.repo.ListTemplates(ctx, companyID, limit, offset)
}

func (s *Service) UpdateTemplate(ctx context.Context, id uuid.UUID, in UpdateTemplateInput) (Template, error) {
	template, err := s.repo.GetTemplate(ctx, id)
	if err != nil {
		return Template{}, err
	}
	if in.Name != nil {
		template.Name = *in.Name
	}
	if in.BudgetType != nil {
		template.BudgetType = *in.BudgetType
	}
	if in.TemplateData != nil {
		template.TemplateData = in.TemplateData
	}
	if in.Description != nil {
		template.Description = *in.Description
	}
	if err := s.repo.UpdateTemplate(ctx, template); err != nil {
		return Template{}, err
	}
	return template, nil
}

func (s *Service) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetTemplate(ctx, id); err != nil {
		return err
	}
	return s.repo.DeleteTemplate(ctx, id)
}

func (s *Service) CreateVariance(ctx context.Context, in CreateVarianceInput) (Variance, error) {
	if err := in.Validate(); err != nil {
		return Variance{}, err
	}
	if _, err := s.repo.GetLine(ctx, in.BudgetLineID); err != nil {
		return Variance{}, err
	}
	return s.repo.InsertVariance(ctx, Variance{
		BudgetLineID:    in.BudgetLineID,
		FiscalPeriodID:  in.FiscalPeriodID,
		BudgetAmount:    in.BudgetAmount,
		ActualAmount:    in.ActualAmount,
		VarianceAmount:  in.VarianceAmount,
		VariancePct:     in.VariancePct,
		VarianceType:    in.VarianceType,
		Significance:    in.Significance,
		Reason:          in.Reason,
		CorrectiveNotes: in.CorrectiveNotes,
	})
}

func (s *Service) GetVariance(ctx context.Context, id uuid.UUID) (Variance, error) {
	return s.repo.GetVariance(ctx, id)
}

func (s *Service) ListVariances(ctx context.Context, lineID *uuid.UUID, limit, offset int) ([]Variance, int, error) {
	return s.repo.ListVariances(ctx, lineID, limit, offset)
}

func (s *Service) UpdateVariance(ctx context.Context, id uuid.UUID, in UpdateVarianceInput) (Variance, error) {
	variance, err := s.repo.GetVariance(ctx, id)
	if err != nil {
		return Variance{}, err
	}
	if in.Reason != nil {
		variance.Reason = *in.Reason
	}
	if in.CorrectiveNotes != nil {
		variance.CorrectiveNotes = *in.CorrectiveNotes
	}
	if err := s.repo.UpdateVariance(ctx, variance); err != nil {
		return Variance{}, err
	}
	return variance, nil
}

func (s *Service) DeleteVariance(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetVariance(ctx, id); err != nil {
		return err
	}
	return s.repo.DeleteVariance(ctx, id)
}

func (s *Service) ListAudit(ctx context.Context, budgetID uuid.UUID, filter AuditFilter) ([]AuditLog, int, error) {
	if _, err := s.repo.GetBudget(ctx, budgetID); err != nil {
		return nil, 0, err
	}
	return s.repo.ListAudit(ctx, budgetID, filter)
}

func (s *Service) AuditSummary(ctx context.Context, budgetID uuid.UUID) ([]AuditSummary, error) {
	if _, err := s.repo.GetBudget(ctx, budgetID); err != nil {
		return nil, err
	}
	return s.repo.SummarizeAudit(ctx, budgetID)
}
