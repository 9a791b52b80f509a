package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	generationhandler "lexdraft/internal/generation/handler"
	generationmetrics "lexdraft/internal/generation/metrics"
	generationservice "lexdraft/internal/generation/service"
	"lexdraft/internal/platform/config"
	"lexdraft/internal/platform/httpserver"
	"lexdraft/internal/platform/logger"
	"lexdraft/internal/platform/metrics"
	"lexdraft/internal/platform/middleware"
	profilehandler "lexdraft/internal/profile/handler"
	profileservice "lexdraft/internal/profile/service"
	"lexdraft/pkg/platform/audit/publisher"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	infra, err := openInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer infra.Close()

	pub := publisher.NewPublisher(infra.publisherStore(),
		publisher.WithAsyncBuffer(1024),
		publisher.WithLogger(log),
		withStreamSink(infra),
	)
	defer pub.Close()

	appMetrics := metrics.New()
	profiles := profileservice.New(infra.profiles,
		profileservice.WithLogger(log),
		profileservice.WithMetrics(appMetrics),
		profileservice.WithAuditPublisher(pub),
	)
	generation := generationservice.New(profiles, newGenerator(cfg.Generator, profiles, log),
		generationservice.WithLogger(log),
		generationservice.WithMetrics(generationmetrics.New()),
		generationservice.WithAuditPublisher(pub),
		generationservice.WithFormLog(infra.forms),
		generationservice.WithTimeout(cfg.Generator.Timeout),
	)

	r := chi.NewRouter()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Operator)
	r.Use(middleware.Logger(log))
	r.Use(middleware.LatencyMiddleware(appMetrics))
	r.Use(middleware.ContentTypeJSON)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	r.Handle("/metrics", promhttp.Handler())
	profilehandler.New(profiles, log, profilehandler.WithAuditReader(infra.audit)).Register(r)
	generationhandler.New(generation, profiles, log).Register(r)

	srv := httpserver.New(cfg.Addr, r)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting lexdraft", "addr", cfg.Addr, "store", string(cfg.Store), "kafka", cfg.Kafka.Enabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if infra.consumer != nil {
		g.Go(func() error {
			if err := infra.consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	return g.Wait()
}
