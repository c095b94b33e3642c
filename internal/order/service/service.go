// Package service places orders against the resolved identity of the buyer.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	contactmodels "reconciler/internal/contact/models"
	"reconciler/internal/order/metrics"
	"reconciler/internal/order/models"
	"reconciler/internal/outbox"
	dErrors "reconciler/pkg/domain-errors"
	"reconciler/pkg/platform/sentinel"
	pstrings "reconciler/pkg/platform/strings"
	"reconciler/pkg/requestcontext"
)

var tracer = otel.Tracer("reconciler/internal/order/service")

// Store persists orders. Inserts join the transaction carried by ctx.
type Store interface {
	Insert(ctx context.Context, order *models.Order) (*models.Order, error)
	ListByContactIDs(ctx context.Context, ids []contactmodels.ContactID) ([]*models.Order, error)
}

// IdentityResolver is the part of the contact service orders depend on.
type IdentityResolver interface {
	ResolveWith(ctx context.Context, email, phone *string, then func(ctx context.Context, view *contactmodels.ClusterView) error) (*contactmodels.ClusterView, error)
	Cluster(ctx context.Context, id contactmodels.ContactID) (*contactmodels.ClusterView, error)
}

// EventSink appends domain events, joining the transaction carried by ctx.
type EventSink interface {
	Append(ctx context.Context, event outbox.Event) error
}

// Service creates and lists orders.
type Service struct {
	orders   Store
	identity IdentityResolver
	events   EventSink
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithEventSink(sink EventSink) Option {
	return func(s *Service) {
		s.events = sink
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func New(orders Store, identity IdentityResolver, opts ...Option) *Service {
	s := &Service{orders: orders, identity: identity, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type orderCreatedPayload struct {
	OrderID     models.OrderID          `json:"orderId"`
	ContactID   contactmodels.ContactID `json:"contactId"`
	ProductName string                  `json:"productName"`
	OrderValue  float64                 `json:"orderValue"`
}

// Create resolves the buyer's identity and attaches a new order to the
// cluster primary, in one transaction.
func (s *Service) Create(ctx context.Context, req models.CreateRequest) (order *models.Order, err error) {
	ctx, span := tracer.Start(ctx, "order.Create")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		}
		span.End()
	}()

	req.Normalize()
	req.Email = pstrings.TrimToNil(req.Email)
	req.PhoneNumber = pstrings.TrimToNil(req.PhoneNumber)
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Email == nil && req.PhoneNumber == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "email or phoneNumber is required to identify the contact")
	}

	_, err = s.identity.ResolveWith(ctx, req.Email, req.PhoneNumber, func(ctx context.Context, view *contactmodels.ClusterView) error {
		created, err := s.orders.Insert(ctx, &models.Order{
			ProductName: req.ProductName,
			OrderValue:  req.OrderValue,
			ContactID:   view.PrimaryContactID,
			CreatedAt:   s.now(),
		})
		if err != nil {
			return err
		}
		if s.events != nil {
			event, err := outbox.NewEvent(outbox.EventOrderCreated, outbox.AggregateOrder, created.ID.String(), orderCreatedPayload{
				OrderID:     created.ID,
				ContactID:   created.ContactID,
				ProductName: created.ProductName,
				OrderValue:  created.OrderValue,
			}, created.CreatedAt)
			if err != nil {
				return err
			}
			if err := s.events.Append(ctx, event); err != nil {
				return err
			}
		}
		order = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveCreated(order.OrderValue)
	span.SetAttributes(
		attribute.Int64("order_id", int64(order.ID)),
		attribute.Int64("contact_id", int64(order.ContactID)),
	)
	if s.logger != nil {
		s.logger.InfoContext(ctx, "order created",
			"request_id", requestcontext.RequestID(ctx),
			"order_id", int64(order.ID),
			"contact_id", int64(order.ContactID),
		)
	}
	return order, nil
}

// ListByContact returns the orders of the whole cluster containing the
// contact, newest first.
func (s *Service) ListByContact(ctx context.Context, id contactmodels.ContactID) ([]*models.Order, error) {
	view, err := s.identity.Cluster(ctx, id)
	if err != nil {
		return nil, err
	}
	ids := append([]contactmodels.ContactID{view.PrimaryContactID}, view.SecondaryContactIDs...)
	orders, err := s.orders.ListByContactIDs(ctx, ids)
	if err != nil {
		if errors.Is(err, sentinel.ErrUnavailable) {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "order store unavailable")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list orders")
	}
	return orders, nil
}
