package fiscal

import (
	"github.com/go-chi/chi/v5"

	"github.com/atlas-erp/accounting/internal/authz"
)

// MountRoutes attaches the fiscal-year routes under the given router.
func (h *Handler) MountRoutes(r chi.Router, guard authz.Middleware) {
	r.With(guard.Require(authz.PermFiscalRead)).Get("/", h.ListYears)
	r.With(guard.Require(authz.PermFiscalWrite)).Post("/", h.CreateYear)
	r.Route("/{id}", func(r chi.Router) {
		r.With(guard.Require(authz.PermFiscalRead)).Get("/", h.GetYear)
		r.With(guard.Require(authz.PermFiscalWrite)).Put("/", h.UpdateYear)
		r.With(guard.Require(authz.PermFiscalWrite)).Delete("/", h.DeleteYear)
		r.With(guard.Require(authz.PermFiscalClose)).Post("/close", h.CloseYear)
		r.Route("/periods", func(r chi.Router) {
			r.With(guard.Require(authz.PermFiscalRead)).Get("/", h.ListPeriods)
			r.With(guard.Require(authz.PermFiscalWrite)).Post("/", h.CreatePeriod)
			r.With(guard.Require(authz.PermFiscalRead)).Get("/{periodID}", h.GetPeriod)
			r.With(guard.Require(authz.PermFiscalWrite)).Put("/{periodID}", h.UpdatePeriod)
			r.With(guard.Require(authz.PermFiscalWrite)).Delete("/{periodID}", h.DeletePeriod)
			r.With(guard.Require(authz.PermFiscalClose)).Post("/{periodID}/close", h.ClosePeriod)
		})
	})
}
