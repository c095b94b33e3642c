package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	contacthandler "reconciler/internal/contact/handler"
	contactmetrics "reconciler/internal/contact/metrics"
	contactservice "reconciler/internal/contact/service"
	orderhandler "reconciler/internal/order/handler"
	ordermetrics "reconciler/internal/order/metrics"
	orderservice "reconciler/internal/order/service"
	"reconciler/internal/outbox"
	"reconciler/internal/platform/config"
	"reconciler/internal/platform/httpserver"
	"reconciler/internal/platform/logger"
	"reconciler/internal/platform/metrics"
	"reconciler/pkg/platform/httputil"
	"reconciler/pkg/platform/middleware/request"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	infra, err := buildInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer infra.Close()

	contacts := contactservice.New(infra.contactStore, infra.contactTx,
		contactservice.WithLogger(log),
		contactservice.WithMetrics(contactmetrics.New()),
		contactservice.WithCache(infra.cache),
		contactservice.WithEventSink(infra.outbox),
		contactservice.WithExpansion(cfg.Resolve.Expansion),
		contactservice.WithMaxAttempts(cfg.Resolve.MaxAttempts),
	)
	orders := orderservice.New(infra.orderStore, contacts,
		orderservice.WithLogger(log),
		orderservice.WithMetrics(ordermetrics.New()),
		orderservice.WithEventSink(infra.outbox),
	)

	worker := outbox.NewWorker(infra.outbox, infra.publisher, log,
		outbox.WithInterval(cfg.Outbox.PollInterval),
		outbox.WithBatchSize(cfg.Outbox.BatchSize),
		outbox.WithMetrics(outbox.NewMetrics()),
	)

	router := newRouter(log, infra,
		contacthandler.New(contacts, log),
		orderhandler.New(orders, log),
	)
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting reconciler", "addr", cfg.Addr, "storage", infra.backend, "expansion", cfg.Resolve.Expansion)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := worker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("outbox worker: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down", "timeout", cfg.ShutdownTimeout.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})
	return g.Wait()
}

type registrar interface {
	Register(r chi.Router)
}

func newRouter(log *slog.Logger, backends *infra, handlers ...registrar) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Time)
	r.Use(request.Recover(log))
	r.Use(request.AccessLog(log))
	r.Use(metrics.New().Middleware)

	for _, h := range handlers {
		h.Register(r)
	}

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		if err := backends.Health(ctx); err != nil {
			log.WarnContext(ctx, "health check failed", "error", err)
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}
