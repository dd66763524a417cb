package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"notamcore/internal/flight"
	"notamcore/internal/notam/priority"
	"notamcore/internal/notam/service"
	"notamcore/pkg/platform/httputil"
	"notamcore/pkg/requestcontext"
)

// Service defines the interface for NOTAM refresh operations.
type Service interface {
	Refresh(ctx context.Context, req service.RefreshRequest) (*service.RefreshResult, error)
	Evaluate(ctx context.Context, fc flight.Context, inputs []priority.Input) ([]service.ClassifiedNotam, error)
	SetStatus(ctx context.Context, scope, key, status string) error
}

// Handler wires NOTAM endpoints to the refresh service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a NOTAM handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts NOTAM endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/notams/refresh", h.HandleRefresh)
	r.Post("/notams/evaluate", h.HandleEvaluate)
	r.Put("/notams/{scope}/status", h.HandleSetStatus)
}

// HandleRefresh handles POST /notams/refresh requests.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[RefreshRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Refresh(ctx, req.ToDomain())
	if err != nil {
		h.logger.ErrorContext(ctx, "notam refresh failed",
			"request_id", requestID,
			"scope", req.Scope,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "notam refresh served",
		"request_id", requestID,
		"scope", result.Scope,
		"cycle_id", result.CycleID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromRefreshResult(result))
}

// HandleEvaluate handles POST /notams/evaluate requests. Nothing is
// persisted.
func (h *Handler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[EvaluateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	classified, err := h.service.Evaluate(ctx, req.Flight, toInputs(req.Notams))
	if err != nil {
		h.logger.ErrorContext(ctx, "notam evaluation failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromClassified(classified, requestcontext.Now(ctx)))
}

// HandleSetStatus handles PUT /notams/{scope}/status requests.
func (h *Handler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	scope := chi.URLParam(r, "scope")

	req, ok := httputil.DecodeAndPrepare[SetStatusRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.SetStatus(ctx, scope, req.Key, req.Status); err != nil {
		h.logger.ErrorContext(ctx, "notam status update failed",
			"request_id", requestID,
			"scope", scope,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &SetStatusResponse{
		Scope:  scope,
		Key:    req.Key,
		Status: req.Status,
	})
}
