package profiles

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/resono-hq/resono/internal/roles"
	"github.com/resono-hq/resono/internal/shared"
)

// Handler manages profile and user directory endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	policy   roles.Middleware
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, policy roles.Middleware) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		policy:   policy,
		validate: validator.New(),
	}
}

// MountRoutes registers profile routes. Every assigned role may manage its
// own profile; the directory listing is restricted to admins and masters.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.policy.Require(roles.CapViewAnnouncements))
		r.Get("/me", h.getOwn)
		r.Put("/me", h.updateOwn)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.policy.Require(roles.CapViewUsers))
		r.Get("/", h.listDirectory)
	})
}

type updateProfileRequest struct {
	FullName  string `json:"full_name" validate:"required"`
	Email     string `json:"email" validate:"omitempty,email"`
	AvatarURL string `json:"avatar_url" validate:"omitempty,url"`
}

type profileDTO struct {
	IdentityID string    `json:"identity_id"`
	FullName   string    `json:"full_name"`
	Email      string    `json:"email"`
	AvatarURL  string    `json:"avatar_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type directoryEntryDTO struct {
	profileDTO
	Role string `json:"role"`
}

func toProfileDTO(p Profile) profileDTO {
	return profileDTO{
		IdentityID: p.IdentityID,
		FullName:   p.FullName,
		Email:      p.Email,
		AvatarURL:  p.AvatarURL,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func (h *Handler) getOwn(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	p, err := h.service.GetOwn(r.Context(), id)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, toProfileDTO(p))
}

func (h *Handler) updateOwn(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())

	var req updateProfileRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		shared.RespondError(w, h.logger, validationError(err))
		return
	}

	p, err := h.service.UpdateOwn(r.Context(), id, UpdateInput{
		FullName:  req.FullName,
		Email:     req.Email,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, toProfileDTO(p))
}

func (h *Handler) listDirectory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ListDirectory(r.Context())
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	out := make([]directoryEntryDTO, len(entries))
	for i, e := range entries {
		out[i] = directoryEntryDTO{profileDTO: toProfileDTO(e.Profile), Role: string(e.Role)}
	}
	shared.RespondJSON(w, http.StatusOK, out)
}

func validationError(err error) error {
	if fields, ok := err.(validator.ValidationErrors); ok && len(fields) > 0 {
		f := fields[0]
		switch f.Field() {
		case "FullName":
			return shared.FieldError("full_name", "full name is required")
		case "Email":
			return shared.FieldError("email", "must be a valid email address")
		case "AvatarURL":
			return shared.FieldError("avatar_url", "must be a valid URL")
		}
	}
	return shared.NewError(shared.KindValidation, "invalid profile payload")
}
