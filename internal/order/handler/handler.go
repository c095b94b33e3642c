package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	contactmodels "reconciler/internal/contact/models"
	"reconciler/internal/order/models"
	"reconciler/pkg/platform/httputil"
	"reconciler/pkg/requestcontext"
)

// Service defines the order operations the handler exposes.
type Service interface {
	Create(ctx context.Context, req models.CreateRequest) (*models.Order, error)
	ListByContact(ctx context.Context, id contactmodels.ContactID) ([]*models.Order, error)
}

// Handler wires order endpoints to the order service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts order endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/order", h.HandleCreate)
	r.Get("/contacts/{id}/orders", h.HandleList)
}

// OrdersResponse lists the orders of one cluster.
type OrdersResponse struct {
	Orders []*models.Order `json:"orders"`
}

// HandleCreate handles POST /order requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[CreateOrderRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	order, err := h.service.Create(ctx, req.ToModel())
	if err != nil {
		h.logger.ErrorContext(ctx, "order creation failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "order placed",
		"request_id", requestID,
		"order_id", int64(order.ID),
		"contact_id", int64(order.ContactID),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, order)
}

// HandleList handles GET /contacts/{id}/orders requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := contactmodels.ParseContactID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	orders, err := h.service.ListByContact(ctx, id)
	if err != nil {
		h.logger.WarnContext(ctx, "order listing failed",
			"request_id", requestID,
			"contact_id", int64(id),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, OrdersResponse{Orders: orders})
}
