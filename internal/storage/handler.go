package storage

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/resono-hq/resono/internal/roles"
	"github.com/resono-hq/resono/internal/shared"
)

// maxUploadBytes caps a single attachment at 25 MiB.
const maxUploadBytes = 25 << 20

// Uploader stores a file and returns its public description.
type Uploader interface {
	Upload(ctx context.Context, name, contentType string, size int64, body io.Reader) (StoredObject, error)
}

// Handler manages attachment upload endpoints.
type Handler struct {
	logger   *slog.Logger
	uploader Uploader
	policy   roles.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, uploader Uploader, policy roles.Middleware) *Handler {
	return &Handler{logger: logger, uploader: uploader, policy: policy}
}

// MountRoutes registers upload routes. Uploads are part of authoring, so
// they share the publish capability.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.policy.Require(roles.CapPublish))
		r.Post("/", h.upload)
	})
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		shared.RespondError(w, h.logger, shared.FieldError("file", "multipart body required or too large"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		shared.RespondError(w, h.logger, shared.FieldError("file", "file part is required"))
		return
	}
	defer func() {
		_ = file.Close()
	}()

	stored, err := h.uploader.Upload(r.Context(), header.Filename,
		header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		h.logger.Error("attachment upload", slog.Any("error", err))
		shared.RespondError(w, h.logger, shared.NewError(shared.KindExternalService, "attachment upload failed"))
		return
	}
	shared.RespondJSON(w, http.StatusCreated, stored)
}
