package accounts

import (
	"github.com/go-chi/chi/v5"

	"github.com/atlas-erp/accounting/internal/authz"
)

// MountRoutes attaches the account routes under the given router.
func (h *Handler) MountRoutes(r chi.Router, guard authz.Middleware) {
	r.With(guard.Require(authz.PermAccountsRead)).Get("/", h.List)
	r.With(guard.Require(authz.PermAccountsRead)).Get("/search", h.Search)
	r.With(guard.Require(authz.PermAccountsRead)).Get("/tree", h.Tree)
	r.With(guard.Require(authz.PermAccountsWrite)).Post("/", h.Create)
	r.Route("/{id}", func(r chi.Router) {
		r.With(guard.Require(authz.PermAccountsRead)).Get("/", h.Get)
		r.With(guard.Require(authz.PermAccountsWrite)).Put("/", h.Update)
		r.With(guard.Require(authz.PermAccountsWrite)).Delete("/", h.Delete)
		r.With(guard.Require(authz.PermAccountsWrite)).Post("/activate", h.Activate)
		r.With(guard.Require(authz.PermAccountsWrite)).Post("/deactivate", h.Deactivate)
	})
}
