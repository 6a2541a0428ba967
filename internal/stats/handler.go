package stats

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/resono-hq/resono/internal/roles"
	"github.com/resono-hq/resono/internal/shared"
)

// Handler serves the dashboard statistics endpoint.
type Handler struct {
	logger  *slog.Logger
	service *Service
	policy  roles.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, policy roles.Middleware) *Handler {
	return &Handler{logger: logger, service: service, policy: policy}
}

// MountRoutes registers stats routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.policy.Require(roles.CapViewAnnouncements))
		r.Get("/", h.summary)
	})
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		h.logger.Error("stats summary failed", slog.Any("error", err))
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, summary)
}
