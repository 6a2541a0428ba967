package roles

import (
	"log/slog"
	"net/http"

	"github.com/resono-hq/resono/internal/shared"
)

// Middleware wires capability checks for HTTP handlers.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// Require ensures the caller's current role grants the capability. An
// unassigned identity is denied everything except the role-selection flow,
// which mounts with CapCompleteRoleSelection.
func (m Middleware) Require(capability Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := shared.IdentityFromContext(r.Context())
			if !ok {
				shared.RespondJSON(w, http.StatusUnauthorized, shared.ErrorResponse{
					Kind:    shared.KindCredential,
					Message: "missing identity",
				})
				return
			}
			role, err := m.Service.Resolve(r.Context(), id.ID)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("resolve role", slog.Any("error", err))
				}
				shared.RespondError(w, m.Logger, err)
				return
			}
			if !Allows(role, capability) {
				shared.RespondJSON(w, http.StatusForbidden, shared.ErrorResponse{
					Kind:    shared.KindAuthz,
					Message: "capability denied for current role",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
