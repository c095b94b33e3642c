package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"reconciler/internal/contact/models"
	dErrors "reconciler/pkg/domain-errors"
	"reconciler/pkg/platform/httputil"
	"reconciler/pkg/requestcontext"
)

// Service defines the identity operations the handler exposes.
type Service interface {
	Resolve(ctx context.Context, email, phone *string) (*models.ClusterView, error)
	Cluster(ctx context.Context, id models.ContactID) (*models.ClusterView, error)
}

// Handler wires contact endpoints to the identity service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a contact handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts contact endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/identify", h.HandleIdentify)
	r.Get("/contacts/{id}/cluster", h.HandleCluster)
}

// HandleIdentify handles POST /identify requests.
func (h *Handler) HandleIdentify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[IdentifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	view, err := h.service.Resolve(ctx, req.Email, req.PhoneNumber.Value)
	if err != nil {
		h.logFailure(ctx, "identify failed", requestID, err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "contact identified",
		"request_id", requestID,
		"primary_contact_id", int64(view.PrimaryContactID),
		"secondaries", len(view.SecondaryContactIDs),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, ContactResponse{Contact: view})
}

// HandleCluster handles GET /contacts/{id}/cluster requests.
func (h *Handler) HandleCluster(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := models.ParseContactID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	view, err := h.service.Cluster(ctx, id)
	if err != nil {
		h.logFailure(ctx, "cluster lookup failed", requestID, err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ContactResponse{Contact: view})
}

// logFailure logs client errors at warn and everything else at error, with
// the underlying cause.
func (h *Handler) logFailure(ctx context.Context, msg, requestID string, err error) {
	status := dErrors.ToHTTPStatus(dErrors.CodeOf(err))
	if status < http.StatusInternalServerError {
		h.logger.WarnContext(ctx, msg, "request_id", requestID, "error", err)
		return
	}
	h.logger.ErrorContext(ctx, msg, "request_id", requestID, "error", err)
}
