// Package service implements identity resolution: it folds every observed
// (email, phone) fact into clusters with exactly one primary contact.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"reconciler/internal/contact/metrics"
	"reconciler/internal/contact/models"
	"reconciler/internal/contact/ports"
	"reconciler/internal/platform/config"
	"reconciler/pkg/platform/sentinel"
	pstrings "reconciler/pkg/platform/strings"
	dErrors "reconciler/pkg/domain-errors"
)

var tracer = otel.Tracer("reconciler/internal/contact/service")

const defaultMaxAttempts = 3

// Service orchestrates identity resolution over a Store. It holds no state of
// its own between calls; serialisation is the transaction runner's job.
type Service struct {
	store       ports.Store
	tx          ports.StoreTx
	cache       ports.ClusterCache
	events      ports.EventSink
	logger      *slog.Logger
	metrics     *metrics.Metrics
	expansion   config.ExpansionMode
	maxAttempts int
	now         func() time.Time
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

func WithCache(cache ports.ClusterCache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

func WithEventSink(sink ports.EventSink) Option {
	return func(s *Service) {
		s.events = sink
	}
}

// WithExpansion selects closure (default) or single-hop cluster loading.
func WithExpansion(mode config.ExpansionMode) Option {
	return func(s *Service) {
		s.expansion = mode
	}
}

// WithMaxAttempts bounds how many times a resolve is re-run after losing a
// serialization race.
func WithMaxAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Service. store serves reads outside a transaction; tx
// runs every resolve.
func New(store ports.Store, tx ports.StoreTx, opts ...Option) *Service {
	s := &Service{
		store:       store,
		tx:          tx,
		expansion:   config.ExpansionClosure,
		maxAttempts: defaultMaxAttempts,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve records the supplied contact facts and returns the consolidated
// cluster they belong to.
func (s *Service) Resolve(ctx context.Context, email, phone *string) (*models.ClusterView, error) {
	return s.ResolveWith(ctx, email, phone, nil)
}

// ResolveWith is Resolve with an extra step run in the same transaction once
// the cluster is settled. then may run more than once when the transaction is
// retried, so it must not keep state across calls.
func (s *Service) ResolveWith(ctx context.Context, email, phone *string, then func(ctx context.Context, view *models.ClusterView) error) (view *models.ClusterView, err error) {
	start := time.Now()
	email = pstrings.TrimToNil(email)
	phone = pstrings.TrimToNil(phone)

	ctx, span := tracer.Start(ctx, "contact.Resolve",
		trace.WithAttributes(
			attribute.Bool("email_supplied", email != nil),
			attribute.Bool("phone_supplied", phone != nil),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		}
		span.End()
	}()

	if email == nil && phone == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "either email or phoneNumber must be provided")
	}

	var res *resolution
	for attempt := 1; ; attempt++ {
		res, err = s.runOnce(ctx, email, phone, then)
		if err == nil {
			break
		}
		if !errors.Is(err, sentinel.ErrConflict) || attempt >= s.maxAttempts {
			return nil, s.translate(ctx, err)
		}
		s.metrics.IncrementTxRetry()
		s.logDebug(ctx, "resolve lost a serialization race, retrying", "attempt", attempt)
	}

	s.afterCommit(ctx, res)
	s.metrics.ObserveResolveLatency(time.Since(start))
	span.SetAttributes(
		attribute.Int64("primary_contact_id", int64(res.view.PrimaryContactID)),
		attribute.String("outcome", res.outcome),
		attribute.Int("cluster_size", res.size),
	)
	return res.view, nil
}

func (s *Service) runOnce(ctx context.Context, email, phone *string, then func(context.Context, *models.ClusterView) error) (*resolution, error) {
	var res *resolution
	err := s.tx.RunInTx(ctx, func(ctx context.Context, st ports.Store) error {
		r, err := s.resolveTx(ctx, st, email, phone)
		if err != nil {
			return err
		}
		if then != nil {
			if err := then(ctx, r.view); err != nil {
				return err
			}
		}
		if err := s.appendEvents(ctx, r.events); err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// afterCommit runs the side effects that must only follow a committed
// resolve. Cache failures are logged; the entries expire on their own.
func (s *Service) afterCommit(ctx context.Context, res *resolution) {
	s.metrics.IncrementOutcome(res.outcome)
	s.metrics.AddDemotions(len(res.demoted))
	s.metrics.AddRelinked(len(res.relinked))
	s.metrics.ObserveClusterSize(res.size)

	if s.cache != nil && res.outcome != metrics.OutcomeMatched {
		stale := append([]models.ContactID{res.view.PrimaryContactID}, res.demoted...)
		if err := s.cache.Invalidate(ctx, stale...); err != nil {
			s.logWarn(ctx, "cluster cache invalidation failed", "primary_contact_id", int64(res.view.PrimaryContactID), "error", err)
		}
	}

	if len(res.demoted) > 0 {
		s.logInfo(ctx, "clusters merged",
			"primary_contact_id", int64(res.view.PrimaryContactID),
			"demoted", len(res.demoted),
			"relinked", len(res.relinked),
		)
	}
}

// Cluster returns the cluster containing the given contact.
func (s *Service) Cluster(ctx context.Context, id models.ContactID) (*models.ClusterView, error) {
	contact, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "contact not found")
		}
		return nil, s.translate(ctx, err)
	}

	primaryID := contact.PrimaryID()
	if s.cache != nil {
		view, ok := s.cache.Get(ctx, primaryID)
		s.metrics.IncrementCacheLookup(ok)
		if ok {
			return view, nil
		}
	}

	members, err := s.store.FindByIdsOrLinkedIds(ctx, []models.ContactID{primaryID})
	if err != nil {
		return nil, s.translate(ctx, err)
	}
	if err := models.CheckCluster(members); err != nil {
		s.logError(ctx, "stored cluster violates link invariants", "primary_contact_id", int64(primaryID), "error", err)
		return nil, err
	}

	view := models.BuildClusterView(primaryID, members)
	if s.cache != nil {
		if err := s.cache.Set(ctx, view); err != nil {
			s.logWarn(ctx, "cluster cache write failed", "primary_contact_id", int64(primaryID), "error", err)
		}
	}
	return view, nil
}

// translate maps store failures onto domain codes. Coded errors pass through.
func (s *Service) translate(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "contact store timed out")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "contact store unavailable")
	}
	if _, ok := dErrors.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrConflict):
		s.logWarn(ctx, "resolve retries exhausted", "attempts", s.maxAttempts, "error", err)
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "contact store busy, retry later")
	case errors.Is(err, sentinel.ErrInvalidState), errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeInvariantViolation, "contact links are inconsistent")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve contact")
	}
}
