package centers

import (
	"github.com/go-chi/chi/v5"

	"github.com/atlas-erp/accounting/internal/authz"
)

// MountCostCenterRoutes attaches the cost-center routes under the given router.
func (h *Handler) MountCostCenterRoutes(r chi.Router, guard authz.Middleware) {
	r.With(guard.Require(authz.PermMasterDataRead)).Get("/", h.ListCostCenters)
	r.With(guard.Require(authz.PermMasterDataWrite)).Post("/", h.CreateCostCenter)
	r.Route("/{id}", func(r chi.Router) {
		r.With(guard.Require(authz.PermMasterDataRead)).Get("/", h.GetCostCenter)
		r.With(guard.Require(authz.PermMasterDataWrite)).Put("/", h.UpdateCostCenter)
		r.With(guard.Require(authz.PermMasterDataWrite)).Delete("/", h.DeleteCostCenter)
	})
}

// MountProfitCenterRoutes attaches the profit-center routes under the given router.
func (h *Handler) MountProfitCenterRoutes(r chi.Router, guard authz.Middleware) {
	r.With(guard.Require(authz.PermMasterDataRead)).Get("/", h.ListProfitCenters)
	r.With(guard.Require(authz.PermMasterDataWrite)).Post("/", h.CreateProfitCenter)
	r.Route("/{id}", func(r chi.Router) {
		r.With(guard.Require(authz.PermMasterDataRead)).Get("/", h.GetProfitCenter)
		r.With(guard.Require(authz.PermMasterDataWrite)).Put("/", h.UpdateProfitCenter)
		r.With(guard.Require(authz.PermMasterDataWrite)).Delete("/", h.DeleteProfitCenter)
	})
}
