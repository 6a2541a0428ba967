package roles

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/resono-hq/resono/internal/shared"
)

// Handler manages role endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

// MountRoutes registers role routes. These are reachable by unassigned
// identities; this is the only surface they may use.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/verify", h.verify)
	r.Get("/me", h.me)
}

type verifyRequest struct {
	RequestedRole string `json:"requested_role" validate:"required,oneof=master admin user"`
	Credential    string `json:"credential"`
}

type verifyResponse struct {
	Success bool   `json:"success"`
	Role    string `json:"role,omitempty"`
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		shared.RespondJSON(w, http.StatusUnauthorized, shared.ErrorResponse{
			Kind:    shared.KindCredential,
			Message: "missing identity",
		})
		return
	}

	var req verifyRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		shared.RespondError(w, h.logger, shared.FieldError("requested_role", "must be one of master, admin, user"))
		return
	}
	requested, err := ParseRole(req.RequestedRole)
	if err != nil {
		shared.RespondError(w, h.logger, shared.FieldError("requested_role", "unknown role"))
		return
	}

	role, err := h.service.Verify(r.Context(), id, requested, req.Credential)
	if err != nil {
		if shared.KindOf(err) == shared.KindCredential {
			// A wrong PIN is an expected outcome for the selection flow,
			// not a transport failure.
			shared.RespondJSON(w, http.StatusUnauthorized, verifyResponse{Success: false})
			return
		}
		shared.RespondError(w, h.logger, err)
		return
	}

	h.logger.Info("role assigned",
		slog.String("identity_id", id.ID),
		slog.String("role", string(role)))
	shared.RespondJSON(w, http.StatusOK, verifyResponse{Success: true, Role: string(role)})
}

type meResponse struct {
	IdentityID string `json:"identity_id"`
	Role       string `json:"role"`
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		shared.RespondJSON(w, http.StatusUnauthorized, shared.ErrorResponse{
			Kind:    shared.KindCredential,
			Message: "missing identity",
		})
		return
	}
	role, err := h.service.Resolve(r.Context(), id.ID)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, meResponse{IdentityID: id.ID, Role: string(role)})
}
