package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/resono-hq/resono/internal/announcements"
	"github.com/resono-hq/resono/internal/identity"
	"github.com/resono-hq/resono/internal/profiles"
	"github.com/resono-hq/resono/internal/roles"
	"github.com/resono-hq/resono/internal/stats"
	"github.com/resono-hq/resono/internal/storage"
	"github.com/resono-hq/resono/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger               *slog.Logger
	Config               *Config
	Identity             identity.Middleware
	Policy               roles.Middleware
	RolesHandler         *roles.Handler
	AnnouncementsHandler *announcements.Handler
	ProfilesHandler      *profiles.Handler
	UploadsHandler       *storage.Handler
	StatsHandler         *stats.Handler
	JobHandler           *jobs.Handler
}

// NewRouter constructs the chi.Router with Resono defaults. Everything under
// /api requires a verified identity; each handler group layers its own
// capability checks on top, so an unassigned identity can reach only the
// role-selection flow.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(params.Identity.Require)

		r.Route("/roles", params.RolesHandler.MountRoutes)
		r.Route("/announcements", params.AnnouncementsHandler.MountRoutes)
		r.Route("/users", params.ProfilesHandler.MountRoutes)
		r.Route("/uploads", params.UploadsHandler.MountRoutes)
		r.Route("/stats", params.StatsHandler.MountRoutes)

		if params.JobHandler != nil {
			r.Route("/jobs", func(r chi.Router) {
				r.Use(params.Policy.Require(roles.CapPublish))
				params.JobHandler.MountRoutes(r)
			})
		}
	})

	return r
}
