package handler

//go:generate mockgen -source=handler.go -destination=mocks/handler_mock.go -package=mocks Service

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"profilegate/internal/progressive"
	"profilegate/pkg/platform/httputil"
	"profilegate/pkg/requestcontext"
)

// Service defines the decision operations exposed to the pipeline.
type Service interface {
	PreLogin(ctx context.Context, ic progressive.IdentityContext) (*progressive.Decision, error)
	PostSubmission(ctx context.Context, ic progressive.IdentityContext, raw map[string]any) (*progressive.Decision, error)
}

// Handler serves the pipeline webhook endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a new progressive profiling Handler.
func New(service Service, logger *slog.Logger) *Handler {
	if service == nil {
		panic("progressive handler: service is required")
	}
	return &Handler{service: service, logger: logger}
}

// Register registers the action routes with the chi router. Callers are
// expected to mount it behind pipeline authentication.
func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/actions/pre-login", h.handlePreLogin)
	r.Post("/v1/actions/post-submission", h.handlePostSubmission)
}

func (h *Handler) handlePreLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ActionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	decision, err := h.service.PreLogin(ctx, req.IdentityContext())
	if err != nil {
		h.logger.ErrorContext(ctx, "pre-login decision failed",
			"error", err,
			"client_id", req.Client.ClientID,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toResponse(decision))
}

func (h *Handler) handlePostSubmission(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ActionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	decision, err := h.service.PostSubmission(ctx, req.IdentityContext(), req.Fields)
	if err != nil {
		h.logger.ErrorContext(ctx, "post-submission decision failed",
			"error", err,
			"client_id", req.Client.ClientID,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toResponse(decision))
}
