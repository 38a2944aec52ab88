package budgets

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/atlas-erp/accounting/internal/platform/httpx"
	"github.com/atlas-erp/accounting/internal/shared"
)

// Handler exposes the budgeting hierarchy over REST.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validate: validator.New(validator.WithRequiredStructEnabled())}
}

func (h *Handler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePageParams(r)
	filter := BudgetFilter{Limit: page.Limit, Offset: page.Offset}
	for param, dst := range map[string]**uuid.UUID{
		"company_id":     &filter.CompanyID,
		"fiscal_year_id": &filter.FiscalYearID,
	} {
		if raw := r.URL.Query().Get(param); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid "+param)
				return
			}
			*dst = &id
		}
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := Status(raw)
		filter.Status = &status
	}
	budgets, total, err := h.service.ListBudgets(r.Context(), filter)
	if err != nil {
		h.logger.Error("list budgets", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.List(w, toBudgetResponses(budgets), total)
}

func (h *Handler) CreateBudget(w http.ResponseWriter, r *http.Request) {
	var in CreateBudgetInput
	if !h.decode(w, r, &in) {
		return
	}
	budget, err := h.service.CreateBudget(r.Context(), in)
	if err != nil {
		h.logger.Error("create budget", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toBudgetResponse(budget))
}

func (h *Handler) GetBudget(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	budget, err := h.service.GetBudget(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toBudgetResponse(budget))
}

func (h *Handler) UpdateBudget(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var in UpdateBudgetInput
	if !h.decode(w, r, &in) {
		return
	}
	budget, err := h.service.UpdateBudget(r.Context(), id, in)
	if err != nil {
		h.logger.Error("update budget", slog.String("id", id.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toBudgetResponse(budget))
}

func (h *Handler) DeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteBudget(r.Context(), id); err != nil {
		h.logger.Error("delete budget", slog.String("id", id.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListLines(w http.ResponseWriter, r *http.Request) {
	budgetID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	lines, err := h.service.ListLines(r.Context(), budgetID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.List(w, toLineResponses(lines), len(lines))
}

func (h *Handler) AddLine(w http.ResponseWriter, r *http.Request) {
	budgetID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var in CreateLineInput
	if !h.decode(w, r, &in) {
		return
	}
	line, err := h.service.AddLine(r.Context(), budgetID, in)
	if err != nil {
		h.logger.Error("add budget line", slog.String("budget", budgetID.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toLineResponse(line))
}

func (h *Handler) GetLine(w http.ResponseWriter, r *http.Request) {
	budgetID, lineID, ok := h.linePath(w, r)
	if !ok {
		return
	}
	line, err := h.service.GetLine(r.Context(), budgetID, lineID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toLineResponse(line))
}

func (h *Handler) UpdateLine(w http.ResponseWriter, r *http.Request) {
	budgetID, lineID, ok := h.linePath(w, r)
	if !ok {
		return
	}
	var in UpdateLineInput
	if !h.decode(w, r, &in) {
		return
	}
	line, err := h.service.UpdateLine(r.Context(), budgetID, lineID, in)
	if err != nil {
		h.logger.Error("update budget line", slog.String("line", lineID.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toLineResponse(line))
}

func (h *Handler) DeleteLine(w http.ResponseWriter, r *http.Request) {
	budgetID, lineID, ok := h.linePath(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteLine(r.Context(), budgetID, lineID); err != nil {
		h.logger.Error("delete budget line", slog.String("line", lineID.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListPeriodLines(w http.ResponseWriter, r *http.Request) {
	budgetID, lineID, ok := h.linePath(w, r)
	if !ok {
		return
	}
	pls, err := h.service.ListPeriodLines(r.Context(), budgetID, lineID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.List(w, toPeriodLineResponses(pls), len(pls))
}

func (h *Handler) AddPeriodLine(w http.ResponseWriter, r *http.Request) {
	budgetID, lineID, ok := h.linePath(w, r)
	if !ok {
		return
	}
	var in CreatePeriodLineInput
	if !h.decode(w, r, &in) {
		return
	}
	pl, err := h.service.AddPeriodLine(r.Context(), budgetID, lineID, in)
	if err != nil {
		h.logger.Error("add period line", slog.String("line", lineID.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toPeriodLineResponse(pl))
}

func (h *Handler) UpdatePeriodLine(w http.ResponseWriter, r *http.Request) {
	budgetID, lineID, ok := h.linePath(w, r)
	if !ok {
		return
	}
	periodLineID, ok := h.pathID(w, r, "periodLineID")
	if !ok {
		return
	}
	var in UpdatePeriodLineInput
	if !h.decode(w, r, &in) {
		return
	}
	pl, err := h.service.UpdatePeriodLine(r.Context(), budgetID, lineID, periodLineID, in)
	if err != nil {
		h.logger.Error("update period line", slog.String("period_line", periodLineID.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPeriodLineResponse(pl))
}

func (h *Handler) DeletePeriodLine(w http.ResponseWriter, r *http.Request) {
	budgetID, lineID, ok := h.linePath(w, r)
	if !ok {
		return
	}
	periodLineID, ok := h.pathID(w, r, "periodLineID")
	if !ok {
		return
	}
	if err := h.service.DeletePeriodLine(r.Context(), budgetID, lineID, periodLineID); err != nil {
		h.logger.Error("delete period line", slog.String("period_line", periodLineID.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListApprovals(w http.ResponseWriter, r *http.Request) {
	budgetID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	approvals, err := h.service.ListApprovals(r.Context(), budgetID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.List(w, toApprovalResponses(approvals), len(approvals))
}

func (h *Handler) AddApproval(w http.ResponseWriter, r *http.Request) {
	budgetID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var in CreateApprovalInput
	if !h.decode(w, r, &in) {
		return
	}
	approval, err := h.service.AddApproval(r.Context(), budgetID, in)
	if err != nil {
		h.logger.Error("add budget approval", slog.String("budget", budgetID.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toApprovalResponse(approval))
}

func (h *Handler) UpdateApproval(w http.ResponseWriter, r *http.Request) {
	budgetID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	approvalID, ok := h.pathID(w, r, "approvalID")
	if !ok {
		return
	}
	var in UpdateApprovalInput
	if !h.decode(w, r, &in) {
		return
	}
	approval, err := h.service.UpdateApproval(r.Context(), budgetID, approvalID, in)
	if err != nil {
		h.logger.Error("update budget approval", slog.String("approval", approvalID.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toApprovalResponse(approval))
}

func (h *Handler) DeleteApproval(w http.ResponseWriter, r *http.Request) {
	budgetID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	approvalID, ok := h.pathID(w, r, "approvalID")
	if !ok {
		return
	}
	if err := h.service.DeleteApproval(r.Context(), budgetID, approvalID); err != nil {
		h.logger.Error("delete budget approval", slog.String("approval", approvalID.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListAllocations(w http.ResponseWriter, r *http.Request) {
	budgetID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	allocations, err := h.service.ListAllocations(r.Context(), budgetID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.List(w, toAllocationResponses(allocations), len(allocations))
}

func (h *Handler) AddAllocation(w http.ResponseWriter, r *http.Request) {
	budgetID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var in CreateAllocationInput
	if !h.decode(w, r, &in) {
		return
	}
	allocation, err := h.service.AddAllocation(r.Context(), budgetID, in)
	if err != nil {
		h.logger.Error("add budget allocation", slog.String("budget", budgetID.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toAllocationResponse(allocation))
}

func (h *Handler) GetAllocation(w http.ResponseWriter, r *http.Request) {
	budgetID, allocationID, ok := h.allocationPath(w, r)
	if !ok {
		return
	}
	allocation, err := h.service.GetAllocation(r.Context(), budgetID, allocationID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toAllocationResponse(allocation))
}

func (h *Handler) UpdateAllocation(w http.ResponseWriter, r *http.Request) {
	budgetID, allocationID, ok := h.allocationPath(w, r)
	if !ok {
		return
	}
	var in UpdateAllocationInput
	if !h.decode(w, r, &in) {
		return
	}
	allocation, err := h.service.UpdateAllocation(r.Context(), budgetID, allocationID, in)
	if err != nil {
		h.logger.Error("update budget allocation", slog.String("allocation", allocationID.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toAllocationResponse(allocation))
}

func (h *Handler) DeleteAllocation(w http.ResponseWriter, r *http.Request) {
	budgetID, allocationID, ok := h.allocationPath(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteAllocation(r.Context(), budgetID, allocationID); err != nil {
		h.logger.Error("delete budget allocation", slog.String("allocation", allocationID.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListAllocationLines(w http.ResponseWriter, r *http.Request) {
	budgetID, allocationID, ok := h.allocationPath(w, r)
	if !ok {
		return
	}
	als, err := h.service.ListAllocationLines(r.Context(), budgetID, allocationID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.List(w, toAllocationLineResponses(als), len(als))
}

func (h *Handler) AddAllocationLine(w http.ResponseWriter, r *http.Request) {
	budgetID, allocationID, ok := h.allocationPath(w, r)
	if !ok {
		return
	}
	var in CreateAllocationLineInput
	if !h.decode(w, r, &in) {
		return
	}
	al, err := h.service.AddAllocationLine(r.Context(), budgetID, allocationID, in)
	if err != nil {
		h.logger.Error("add allocation line", slog.String("allocation", allocationID.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toAllocationLineResponse(al))
}

func (h *Handler) DeleteAllocationLine(w http.ResponseWriter, r *http.Request) {
	budgetID, allocationID, ok := h.allocationPath(w, r)
	if !ok {
		return
	}
	lineID, ok := h.pathID(w, r, "allocationLineID")
	if !ok {
		return
	}
	if err := h.service.DeleteAllocationLine(r.Context(), budgetID, allocationID, lineID); err != nil {
		h.logger.Error("delete allocation line", slog.String("allocation_line", lineID.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListAudit(w http.ResponseWriter, r *http.Request) {
	budgetID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	page := shared.ParsePageParams(r)
	filter := AuditFilter{Action: r.URL.Query().Get("action"), Limit: page.Limit, Offset: page.Offset}
	if raw := r.URL.Query().Get("performed_by"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid performed_by")
			return
		}
		filter.PerformedBy = &id
	}
	entries, total, err := h.service.ListAudit(r.Context(), budgetID, filter)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.List(w, toAuditLogResponses(entries), total)
}

func (h *Handler) AuditSummary(w http.ResponseWriter, r *http.Request) {
	budgetID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	summary, err := h.service.AuditSummary(r.Context(), budgetID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePageParams(r)
	var companyID *uuid.UUID
	if raw := r.URL.Query().Get("company_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid company_id")
			return
		}
		companyID = &id
	}
	templates, total, err := h.service.ListTemplates(r.Context(), companyID, page.Limit, page.Offset)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.List(w, toTemplateResponses(templates), total)
}

func (h *Handler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var in CreateTemplateInput
	if !h.decode(w, r, &in) {
		return
	}
	template, err := h.service.CreateTemplate(r.Context(), in)
	if err != nil {
		h.logger.Error("create budget template", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toTemplateResponse(template))
}

func (h *Handler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	template, err := h.service.GetTemplate(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toTemplateResponse(template))
}

func (h *Handler) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var in UpdateTemplateInput
	if !h.decode(w, r, &in) {
		return
	}
	template, err := h.service.UpdateTemplate(r.Context(), id, in)
	if err != nil {
		h.logger.Error("update budget template", slog.String("id", id.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toTemplateResponse(template))
}

func (h *Handler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteTemplate(r.Context(), id); err != nil {
		h.logger.Error("delete budget template", slog.String("id", id.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListVariances(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePageParams(r)
	var lineID *uuid.UUID
	if raw := r.URL.Query().Get("budget_line_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid budget_line_id")
			return
		}
		lineID = &id
	}
	variances, total, err := h.service.ListVariances(r.Context(), lineID, page.Limit, page.Offset)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.List(w, toVarianceResponses(variances), total)
}

func (h *Handler) CreateVariance(w http.ResponseWriter, r *http.Request) {
	var in CreateVarianceInput
	if !h.decode(w, r, &in) {
		return
	}
	variance, err := h.service.CreateVariance(r.Context(), in)
	if err != nil {
		h.logger.Error("create budget variance", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toVarianceResponse(variance))
}

func (h *Handler) GetVariance(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	variance, err := h.service.GetVariance(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toVarianceResponse(variance))
}

func (h *Handler) UpdateVariance(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var in UpdateVarianceInput
	if !h.decode(w, r, &in) {
		return
	}
	variance, err := h.service.UpdateVariance(r.Context(), id, in)
	if err != nil {
		h.logger.Error("update budget variance", slog.String("id", id.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toVarianceResponse(variance))
}

func (h *Handler) DeleteVariance(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteVariance(r.Context(), id); err != nil {
		h.logger.Error("delete budget variance", slog.String("id", id.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed request body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return false
	}
	return true
}

func (h *Handler) linePath(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	budgetID, ok := h.pathID(w, r, "id")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	lineID, ok := h.pathID(w, r, "lineID")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return budgetID, lineID, true
}

func (h *Handler) allocationPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	budgetID, ok := h.pathID(w, r, "id")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	allocationID, ok := h.pathID(w, r, "allocationID")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return budgetID, allocationID, true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid "+param)
		return uuid.Nil, false
	}
	return id, true
}
