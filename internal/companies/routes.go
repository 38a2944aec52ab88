package companies

import (
	"github.com/go-chi/chi/v5"

	"github.com/atlas-erp/accounting/internal/authz"
)

// MountCompanyRoutes attaches the company routes under the given router.
func (h *Handler) MountCompanyRoutes(r chi.Router, guard authz.Middleware) {
	r.With(guard.Require(authz.PermMasterDataRead)).Get("/", h.ListCompanies)
	r.With(guard.Require(authz.PermMasterDataWrite)).Post("/", h.CreateCompany)
	r.Route("/{id}", func(r chi.Router) {
		r.With(guard.Require(authz.PermMasterDataRead)).Get("/", h.GetCompany)
		r.With(guard.Require(authz.PermMasterDataWrite)).Put("/", h.UpdateCompany)
		r.With(guard.Require(authz.PermMasterDataWrite)).Delete("/", h.DeleteCompany)
	})
}

// MountCurrencyRoutes attaches the currency routes under the given router.
func (h *Handler) MountCurrencyRoutes(r chi.Router, guard authz.Middleware) {
	r.With(guard.Require(authz.PermMasterDataRead)).Get("/", h.ListCurrencies)
	r.With(guard.Require(authz.PermMasterDataWrite)).Post("/", h.CreateCurrency)
	r.Route("/{id}", func(r chi.Router) {
		r.With(guard.Require(authz.PermMasterDataRead)).Get("/", h.GetCurrency)
		r.With(guard.Require(authz.PermMasterDataWrite)).Put("/", h.UpdateCurrency)
		r.With(guard.Require(authz.PermMasterDataWrite)).Delete("/", h.DeleteCurrency)
	})
}
