package ledger

import (
	"github.com/go-chi/chi/v5"

	"github.com/atlas-erp/accounting/internal/authz"
)

// MountRoutes attaches the journal-entry routes under the given router.
func (h *Handler) MountRoutes(r chi.Router, guard authz.Middleware) {
	r.With(guard.Require(authz.PermJournalRead)).Get("/", h.List)
	r.With(guard.Require(authz.PermJournalWrite)).Post("/", h.Create)
	r.Route("/{id}", func(r chi.Router) {
		r.With(guard.Require(authz.PermJournalRead)).Get("/", h.Get)
		r.With(guard.Require(authz.PermJournalWrite)).Put("/", h.Update)
		r.With(guard.Require(authz.PermJournalWrite)).Delete("/", h.Delete)
		r.With(guard.Require(authz.PermJournalPost)).Post("/post", h.Post)
		r.With(guard.Require(authz.PermJournalPost)).Post("/cancel", h.Cancel)
		r.Route("/lines", func(r chi.Router) {
			r.With(guard.Require(authz.PermJournalWrite)).Post("/", h.AddLine)
			r.With(guard.Require(authz.PermJournalRead)).Get("/{lineID}", h.GetLine)
			r.With(guard.Require(authz.PermJournalWrite)).Put("/{lineID}", h.UpdateLine)
			r.With(guard.Require(authz.PermJournalWrite)).Delete("/{lineID}", h.DeleteLine)
		})
	})
}
