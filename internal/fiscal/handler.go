package fiscal

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/atlas-erp/accounting/internal/platform/httpx"
	"github.com/atlas-erp/accounting/internal/shared"
)

// Handler exposes the fiscal calendar over REST.
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

func (h *Handler) ListYears(w http.ResponseWriter, r *http.Request) {
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
	years, total, err := h.service.ListYears(r.Context(), companyID, page.Limit, page.Offset)
	if err != nil {
		h.logger.Error("list fiscal years", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.List(w, toYearResponses(years), total)
}

func (h *Handler) CreateYear(w http.ResponseWriter, r *http.Request) {
	var in CreateYearInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed request body")
		return
	}
	if err := h.validate.Struct(in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	year, err := h.service.CreateYear(r.Context(), in)
	if err != nil {
		h.logger.Error("create fiscal year", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toYearResponse(year))
}

func (h *Handler) GetYear(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	year, err := h.service.GetYear(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toYearResponse(year))
}

func (h *Handler) UpdateYear(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var in UpdateYearInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed request body")
		return
	}
	if err := h.validate.Struct(in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	year, err := h.service.UpdateYear(r.Context(), id, in)
	if err != nil {
		h.logger.Error("update fiscal year", slog.String("id", id.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toYearResponse(year))
}

func (h *Handler) DeleteYear(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteYear(r.Context(), id); err != nil {
		h.logger.Error("delete fiscal year", slog.String("id", id.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CloseYear(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	year, err := h.service.CloseYear(r.Context(), id)
	if err != nil {
		h.logger.Error("close fiscal year", slog.String("id", id.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toYearResponse(year))
}

func (h *Handler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	yearID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	periods, err := h.service.ListPeriods(r.Context(), yearID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.List(w, toPeriodResponses(periods), len(periods))
}

func (h *Handler) CreatePeriod(w http.ResponseWriter, r *http.Request) {
	yearID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var in CreatePeriodInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed request body")
		return
	}
	if err := h.validate.Struct(in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	period, err := h.service.CreatePeriod(r.Context(), yearID, in)
	if err != nil {
		h.logger.Error("create fiscal period", slog.String("year", yearID.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toPeriodResponse(period))
}

func (h *Handler) GetPeriod(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "periodID")
	if !ok {
		return
	}
	period, err := h.service.GetPeriod(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPeriodResponse(period))
}

func (h *Handler) UpdatePeriod(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "periodID")
	if !ok {
		return
	}
	var in UpdatePeriodInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed request body")
		return
	}
	if err := h.validate.Struct(in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	period, err := h.service.UpdatePeriod(r.Context(), id, in)
	if err != nil {
		h.logger.Error("update fiscal period", slog.String("id", id.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPeriodResponse(period))
}

func (h *Handler) DeletePeriod(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "periodID")
	if !ok {
		return
	}
	if err := h.service.DeletePeriod(r.Context(), id); err != nil {
		h.logger.Error("delete fiscal period", slog.String("id", id.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ClosePeriod(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "periodID")
	if !ok {
		return
	}
	period, err := h.service.ClosePeriod(r.Context(), id)
	if err != nil {
		h.logger.Error("close fiscal period", slog.String("id", id.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPeriodResponse(period))
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid "+param)
		return uuid.Nil, false
	}
	return id, true
}
