package announcements

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/resono-hq/resono/internal/analyze"
	"github.com/resono-hq/resono/internal/roles"
	"github.com/resono-hq/resono/internal/shared"
)

// SweepEnqueuer submits an out-of-schedule expiry sweep to the job queue.
type SweepEnqueuer interface {
	EnqueueArchiveExpired(ctx context.Context, triggeredBy string) (*asynq.TaskInfo, error)
}

// Handler manages announcement endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	analyzer Analyzer
	enqueue  SweepEnqueuer
	policy   roles.Middleware
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, analyzer Analyzer, enqueue SweepEnqueuer, policy roles.Middleware) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		analyzer: analyzer,
		enqueue:  enqueue,
		policy:   policy,
		validate: validator.New(),
	}
}

// MountRoutes registers announcement routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.policy.Require(roles.CapViewAnnouncements))
		r.Get("/", h.list)
		r.Get("/archived", h.listArchived)
		r.Get("/{id}", h.show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.policy.Require(roles.CapPublish))
		r.Post("/", h.create)
		r.Post("/analyze", h.analyze)
		r.Post("/{id}/archive", h.archive)
		r.Post("/sweep", h.sweep)
	})
}

type attachmentDTO struct {
	Name string `json:"name" validate:"required"`
	URL  string `json:"url" validate:"required,url"`
	Size int64  `json:"size" validate:"gte=0"`
	Type string `json:"type"`
}

type createRequest struct {
	Title       string          `json:"title" validate:"required,max=200"`
	Content     string          `json:"content" validate:"required"`
	Department  string          `json:"department" validate:"required,max=100"`
	Summary     string          `json:"summary"`
	Category    string          `json:"category"`
	Priority    string          `json:"priority" validate:"omitempty,oneof=high medium low"`
	Deadline    *time.Time      `json:"deadline"`
	Attachments []attachmentDTO `json:"attachments" validate:"dive"`
}

type announcementDTO struct {
	ID          string       `json:"id"`
	AuthorID    string       `json:"author_id"`
	Title       string       `json:"title"`
	Content     string       `json:"content"`
	Summary     string       `json:"summary"`
	Category    string       `json:"category"`
	Priority    string       `json:"priority"`
	Department  string       `json:"department"`
	Deadline    *time.Time   `json:"deadline,omitempty"`
	Archived    bool         `json:"archived"`
	Attachments []Attachment `json:"attachments"`
	CreatedAt   time.Time    `json:"created_at"`
}

func toDTO(a Announcement) announcementDTO {
	attachments := a.Attachments
	if attachments == nil {
		attachments = []Attachment{}
	}
	return announcementDTO{
		ID:          a.ID.String(),
		AuthorID:    a.AuthorID,
		Title:       a.Title,
		Content:     a.Content,
		Summary:     a.Summary,
		Category:    a.Category,
		Priority:    string(a.Priority),
		Department:  a.Department,
		Deadline:    a.Deadline,
		Archived:    a.Archived(),
		Attachments: attachments,
		CreatedAt:   a.CreatedAt,
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		shared.RespondJSON(w, http.StatusUnauthorized, shared.ErrorResponse{
			Kind:    shared.KindCredential,
			Message: "missing identity",
		})
		return
	}
	var req createRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		shared.RespondError(w, h.logger, validationError(err))
		return
	}

	input := CreateInput{
		Title:      req.Title,
		Content:    req.Content,
		Department: req.Department,
		Summary:    req.Summary,
		Category:   req.Category,
		Priority:   Priority(req.Priority),
		Deadline:   req.Deadline,
	}
	for _, att := range req.Attachments {
		input.Attachments = append(input.Attachments, Attachment{
			Name: att.Name, URL: att.URL, Size: att.Size, Type: att.Type,
		})
	}

	created, err := h.service.Create(r.Context(), id, input)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondJSON(w, http.StatusCreated, toDTO(created))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r, StatusActive)
}

func (h *Handler) listArchived(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r, StatusArchived)
}

func (h *Handler) respondList(w http.ResponseWriter, r *http.Request, status Status) {
	q := r.URL.Query()
	filter := Filter{
		Query:      q.Get("q"),
		Category:   q.Get("category"),
		Department: q.Get("department"),
		Status:     status,
	}
	if p := q.Get("priority"); p != "" {
		if !ValidPriority(Priority(p)) {
			shared.RespondError(w, h.logger, shared.FieldError("priority", "must be one of high, medium, low"))
			return
		}
		filter.Priority = Priority(p)
	}

	items, err := h.service.List(r.Context(), filter)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	dtos := make([]announcementDTO, 0, len(items))
	for _, a := range items {
		dtos = append(dtos, toDTO(a))
	}
	shared.RespondJSON(w, http.StatusOK, map[string]any{"announcements": dtos})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondError(w, h.logger, shared.FieldError("id", "must be a uuid"))
		return
	}
	a, err := h.service.Get(r.Context(), id)
	if err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, toDTO(a))
}

func (h *Handler) archive(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondError(w, h.logger, shared.FieldError("id", "must be a uuid"))
		return
	}
	if err := h.service.Archive(r.Context(), id); err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, map[string]bool{"archived": true})
}

type analyzeRequest struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content" validate:"required"`
}

func (h *Handler) analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondError(w, h.logger, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		shared.RespondError(w, h.logger, validationError(err))
		return
	}
	result, err := h.analyzer.Analyze(r.Context(), req.Title, req.Content)
	if err != nil {
		shared.RespondError(w, h.logger, analyzeError(err))
		return
	}
	shared.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) sweep(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	if h.enqueue == nil {
		shared.RespondError(w, h.logger, shared.NewError(shared.KindExternalService, "job queue not configured"))
		return
	}
	if _, err := h.enqueue.EnqueueArchiveExpired(r.Context(), id.ID); err != nil {
		shared.RespondError(w, h.logger, shared.NewError(shared.KindExternalService, "enqueue sweep failed"))
		return
	}
	shared.RespondJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		first := fieldErrs[0]
		return shared.FieldError(strings.ToLower(first.Field()), "failed "+first.Tag()+" validation")
	}
	return shared.NewError(shared.KindValidation, "invalid request")
}

func analyzeError(err error) error {
	switch {
	case errors.Is(err, analyze.ErrRateLimited):
		return &shared.Error{Kind: shared.KindRateLimited, Message: "ai gateway rate limited, try again shortly", Err: err}
	case errors.Is(err, analyze.ErrQuotaExceeded):
		return &shared.Error{Kind: shared.KindQuotaExceeded, Message: "ai gateway quota exceeded", Err: err}
	case errors.Is(err, analyze.ErrUnavailable):
		return &shared.Error{Kind: shared.KindExternalService, Message: "ai gateway unavailable", Err: err}
	}
	return err
}
