package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/atlas-erp/accounting/internal/accounts"
	"github.com/atlas-erp/accounting/internal/authz"
	"github.com/atlas-erp/accounting/internal/budgets"
	"github.com/atlas-erp/accounting/internal/centers"
	"github.com/atlas-erp/accounting/internal/companies"
	"github.com/atlas-erp/accounting/internal/fiscal"
	"github.com/atlas-erp/accounting/internal/jobs"
	"github.com/atlas-erp/accounting/internal/ledger"
	"github.com/atlas-erp/accounting/internal/observability"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Guard            authz.Middleware
	LedgerHandler    *ledger.Handler
	FiscalHandler    *fiscal.Handler
	AccountsHandler  *accounts.Handler
	CompaniesHandler *companies.Handler
	CentersHandler   *centers.Handler
	BudgetsHandler   *budgets.Handler
	JobsHandler      *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with the application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}

	guard := params.Guard
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(guard.Authenticate)

		r.Route("/journal-entries", func(r chi.Router) {
			params.LedgerHandler.MountRoutes(r, guard)
		})
		r.Route("/fiscal-years", func(r chi.Router) {
			params.FiscalHandler.MountRoutes(r, guard)
		})
		r.Route("/accounts", func(r chi.Router) {
			params.AccountsHandler.MountRoutes(r, guard)
		})
		r.Route("/companies", func(r chi.Router) {
			params.CompaniesHandler.MountCompanyRoutes(r, guard)
		})
		r.Route("/currencies", func(r chi.Router) {
			params.CompaniesHandler.MountCurrencyRoutes(r, guard)
		})
		r.Route("/cost-centers", func(r chi.Router) {
			params.CentersHandler.MountCostCenterRoutes(r, guard)
		})
		r.Route("/profit-centers", func(r chi.Router) {
			params.CentersHandler.MountProfitCenterRoutes(r, guard)
		})
		r.Route("/budgets", func(r chi.Router) {
			params.BudgetsHandler.MountRoutes(r, guard)
		})
		r.Route("/budget-templates", func(r chi.Router) {
			params.BudgetsHandler.MountTemplateRoutes(r, guard)
		})
		r.Route("/budget-variances", func(r chi.Router) {
			params.BudgetsHandler.MountVarianceRoutes(r, guard)
		})
	})

	return r
}
