package budgets

import (
	"github.com/go-chi/chi/v5"

	"github.com/atlas-erp/accounting/internal/authz"
)

// MountRoutes attaches the budget routes under the given router.
func (h *Handler) MountRoutes(r chi.Router, guard authz.Middleware) {
	read := guard.Require(authz.PermBudgetRead)
	write := guard.Require(authz.PermBudgetWrite)

	r.With(read).Get("/", h.ListBudgets)
	r.With(write).Post("/", h.CreateBudget)
	r.Route("/{id}", func(r chi.Router) {
		r.With(read).Get("/", h.GetBudget)
		r.With(write).Put("/", h.UpdateBudget)
		r.With(write).Delete("/", h.DeleteBudget)

		r.Route("/lines", func(r chi.Router) {
			r.With(read).Get("/", h.ListLines)
			r.With(write).Post("/", h.AddLine)
			r.Route("/{lineID}", func(r chi.Router) {
				r.With(read).Get("/", h.GetLine)
				r.With(write).Put("/", h.UpdateLine)
				r.With(write).Delete("/", h.DeleteLine)
				r.Route("/period-lines", func(r chi.Router) {
					r.With(read).Get("/", h.ListPeriodLines)
					r.With(write).Post("/", h.AddPeriodLine)
					r.With(write).Put("/{periodLineID}", h.UpdatePeriodLine)
					r.With(write).Delete("/{periodLineID}", h.DeletePeriodLine)
				})
			})
		})

		r.Route("/approvals", func(r chi.Router) {
			r.With(read).Get("/", h.ListApprovals)
			r.With(write).Post("/", h.AddApproval)
			r.With(write).Put("/{approvalID}", h.UpdateApproval)
			r.With(write).Delete("/{approvalID}", h.DeleteApproval)
		})

		r.Route("/allocations", func(r chi.Router) {
			r.With(read).Get("/", h.ListAllocations)
			r.With(write).Post("/", h.AddAllocation)
			r.Route("/{allocationID}", func(r chi.Router) {
				r.With(read).Get("/", h.GetAllocation)
				r.With(write).Put("/", h.UpdateAllocation)
				r.With(write).Delete("/", h.DeleteAllocation)
				r.With(read).Get("/lines", h.ListAllocationLines)
				r.With(write).Post("/lines", h.AddAllocationLine)
				r.With(write).Delete("/lines/{allocationLineID}", h.DeleteAllocationLine)
			})
		})

		r.With(read).Get("/audit-logs", h.ListAudit)
		r.With(read).Get("/audit-summary", h.AuditSummary)
	})
}

// MountTemplateRoutes attaches the budget-template routes.
func (h *Handler) MountTemplateRoutes(r chi.Router, guard authz.Middleware) {
	r.With(guard.Require(authz.PermBudgetRead)).Get("/", h.ListTemplates)
	r.With(guard.Require(authz.PermBudgetWrite)).Post("/", h.CreateTemplate)
	r.With(guard.Require(authz.PermBudgetRead)).Get("/{id}", h.GetTemplate)
	r.With(guard.Require(authz.PermBudgetWrite)).Put("/{id}", h.UpdateTemplate)
	r.With(guard.Require(authz.PermBudgetWrite)).Delete("/{id}", h.DeleteTemplate)
}

// MountVarianceRoutes attaches the budget-variance routes.
func (h *Handler) MountVarianceRoutes(r chi.Router, guard authz.Middleware) {
	r.With(guard.Require(authz.PermBudgetRead)).Get("/", h.ListVariances)
	r.With(guard.Require(authz.PermBudgetWrite)).Post("/", h.CreateVariance)
	r.With(guard.Require(authz.PermBudgetRead)).Get("/{id}", h.GetVariance)
	r.With(guard.Require(authz.PermBudgetWrite)).Put("/{id}", h.UpdateVariance)
	r.With(guard.Require(authz.PermBudgetWrite)).Delete("/{id}", h.DeleteVariance)
}
