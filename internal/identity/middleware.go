package identity

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/resono-hq/resono/internal/shared"
)

// Middleware authenticates requests with a bearer identity token and stores
// the resulting identity in the request context.
type Middleware struct {
	Verifier *Verifier
	Logger   *slog.Logger
}

// Require rejects requests without a valid identity token.
func (m Middleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			shared.RespondJSON(w, http.StatusUnauthorized, shared.ErrorResponse{
				Kind:    shared.KindCredential,
				Message: "missing identity token",
			})
			return
		}
		id, err := m.Verifier.Verify(raw)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Warn("identity token rejected", slog.String("path", r.URL.Path))
			}
			shared.RespondJSON(w, http.StatusUnauthorized, shared.ErrorResponse{
				Kind:    shared.KindCredential,
				Message: "invalid identity token",
			})
			return
		}
		ctx := shared.ContextWithIdentity(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
