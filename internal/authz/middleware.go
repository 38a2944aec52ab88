package authz

import (
	"log/slog"
	"net/http"

	"github.com/atlas-erp/accounting/internal/platform/httpx"
	"github.com/atlas-erp/accounting/internal/shared"
)

// APIKeyHeader carries the caller's credentials.
const APIKeyHeader = "X-Api-Key"

// Middleware wires authentication and permission checks into the router.
type Middleware struct {
	Service    *Service
	Authorizer Authorizer
	Logger     *slog.Logger
}

// Authenticate verifies the API key and stores the actor in the request
// context. Requests without a valid key are rejected outright.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(APIKeyHeader)
		if key == "" {
			httpx.RespondError(w, ErrBadCredentials)
			return
		}
		actor, err := m.Service.Authenticate(r.Context(), key)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Warn("authenticate", slog.Any("error", err))
			}
			httpx.RespondError(w, err)
			return
		}
		ctx := shared.ContextWithActor(r.Context(), actor.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Require rejects the request with 403 before the handler runs unless the
// context actor holds the permission.
func (m Middleware) Require(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actorID, ok := shared.ActorFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, ErrBadCredentials)
				return
			}
			if err := m.Authorizer.Authorize(r.Context(), actorID, permission); err != nil {
				if m.Logger != nil {
					m.Logger.Warn("authorize",
						slog.String("actor", actorID.String()),
						slog.String("permission", permission),
						slog.Any("error", err))
				}
				httpx.RespondError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
