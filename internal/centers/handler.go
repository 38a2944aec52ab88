package centers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/atlas-erp/accounting/internal/platform/httpx"
	"github.com/atlas-erp/accounting/internal/shared"
)

// Handler exposes cost and profit centers over REST.
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

func (h *Handler) ListCostCenters(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePageParams(r)
	companyID, ok := h.companyFilter(w, r)
	if !ok {
		return
	}
	ccs, total, err := h.service.ListCostCenters(r.Context(), companyID, page.Limit, page.Offset)
	if err != nil {
		h.logger.Error("list cost centers", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.List(w, toCostCenterResponses(ccs), total)
}

func (h *Handler) CreateCostCenter(w http.ResponseWriter, r *http.Request) {
	var in CreateCostCenterInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed request body")
		return
	}
	if err := h.validate.Struct(in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	cc, err := h.service.CreateCostCenter(r.Context(), in)
	if err != nil {
		h.logger.Error("create cost center", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toCostCenterResponse(cc))
}

func (h *Handler) GetCostCenter(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	cc, err := h.service.GetCostCenter(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toCostCenterResponse(cc))
}

func (h *Handler) UpdateCostCenter(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var in UpdateCostCenterInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed request body")
		return
	}
	if err := h.validate.Struct(in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	cc, err := h.service.UpdateCostCenter(r.Context(), id, in)
	if err != nil {
		h.logger.Error("update cost center", slog.String("id", id.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toCostCenterResponse(cc))
}

func (h *Handler) DeleteCostCenter(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteCostCenter(r.Context(), id); err != nil {
		h.logger.Error("delete cost center", slog.String("id", id.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListProfitCenters(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePageParams(r)
	companyID, ok := h.companyFilter(w, r)
	if !ok {
		return
	}
	pcs, total, err := h.service.ListProfitCenters(r.Context(), companyID, page.Limit, page.Offset)
	if err != nil {
		h.logger.Error("list profit centers", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.List(w, toProfitCenterResponses(pcs), total)
}

func (h *Handler) CreateProfitCenter(w http.ResponseWriter, r *http.Request) {
	var in CreateProfitCenterInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed request body")
		return
	}
	if err := h.validate.Struct(in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	pc, err := h.service.CreateProfitCenter(r.Context(), in)
	if err != nil {
		h.logger.Error("create profit center", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toProfitCenterResponse(pc))
}

func (h *Handler) GetProfitCenter(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	pc, err := h.service.GetProfitCenter(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toProfitCenterResponse(pc))
}

func (h *Handler) UpdateProfitCenter(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var in UpdateProfitCenterInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed request body")
		return
	}
	if err := h.validate.Struct(in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	pc, err := h.service.UpdateProfitCenter(r.Context(), id, in)
	if err != nil {
		h.logger.Error("update profit center", slog.String("id", id.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toProfitCenterResponse(pc))
}

func (h *Handler) DeleteProfitCenter(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteProfitCenter(r.Context(), id); err != nil {
		h.logger.Error("delete profit center", slog.String("id", id.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) companyFilter(w http.ResponseWriter, r *http.Request) (*uuid.UUID, bool) {
	raw := r.URL.Query().Get("company_id")
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid company_id")
		return nil, false
	}
	return &id, true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return uuid.Nil, false
	}
	return id, true
}
