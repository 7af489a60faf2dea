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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"profilegate/internal/audit"
	"profilegate/internal/platform/config"
	"profilegate/internal/platform/database"
	"profilegate/internal/platform/health"
	"profilegate/internal/platform/logger"
	"profilegate/internal/platform/privacy"
	"profilegate/internal/platform/tracer"
	"profilegate/internal/progressive"
	progressivehandler "profilegate/internal/progressive/handler"
	progressiveMetrics "profilegate/internal/progressive/metrics"
	httptransport "profilegate/internal/transport/http"
	"profilegate/migrations"
	"profilegate/pkg/platform/middleware/pipeline"
	request "profilegate/pkg/platform/middleware/request"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Decision logic lives in internal/progressive.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	log.Info("initializing profilegate",
		"addr", cfg.Addr,
		"env", cfg.Environment,
		"registry_overlay", cfg.RegistryOverlay != "",
		"audit_postgres", cfg.AuditDatabaseURL != "",
	)

	registry, err := buildRegistry(cfg, log)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	healthHandler := health.New(cfg.Environment)
	healthHandler.RegisterCheck("registry", func(context.Context) error {
		return registry.Validate().Err()
	})

	auditStore, pool, err := buildAuditStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
		healthHandler.RegisterCheck("audit_db", pool.Health)
	}
	publisher := audit.NewPublisher(auditStore,
		audit.WithAsyncBuffer(cfg.AuditBuffer),
		audit.WithPublisherLogger(log),
	)
	defer publisher.Close()

	pseudonyms, err := privacy.NewPseudonymizer([]byte(cfg.PseudonymKey))
	if err != nil {
		return err
	}

	verifier, err := pipeline.NewVerifier(cfg.PipelineSecret)
	if err != nil {
		return err
	}

	service := progressive.New(registry,
		progressive.WithLogger(log),
		progressive.WithMetrics(progressiveMetrics.New(reg)),
		progressive.WithTracer(tracer.NewOTel()),
		progressive.WithAuditor(publisher),
		progressive.WithPseudonymizer(pseudonyms),
	)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:         log,
		Verifier:       verifier,
		Actions:        progressivehandler.New(service, log),
		Health:         healthHandler,
		Gatherer:       reg,
		RequestMetrics: request.NewMetrics(reg),
		RequestTimeout: cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// buildRegistry loads the optional overlay and refuses to start on a
// registry that would deny logins at runtime.
func buildRegistry(cfg config.Server, log *slog.Logger) (*progressive.Registry, error) {
	base := progressive.DefaultRegistry()
	if cfg.RegistryOverlay == "" {
		report := base.Validate()
		for _, w := range report.Warnings {
			log.Warn("registry warning", "warning", w)
		}
		return base, report.Err()
	}

	registry, report, err := progressive.LoadOverlay(cfg.RegistryOverlay, base)
	for _, w := range report.Warnings {
		log.Warn("registry warning", "warning", w)
	}
	if err != nil {
		return nil, err
	}
	log.Info("registry overlay loaded",
		"path", cfg.RegistryOverlay,
		"policies", len(registry.PolicyKeys()),
	)
	return registry, nil
}

func buildAuditStore(ctx context.Context, cfg config.Server, log *slog.Logger) (audit.Store, *database.Pool, error) {
	if cfg.AuditDatabaseURL == "" {
		log.Warn("PP_AUDIT_DATABASE_URL not set, audit events kept in memory")
		return audit.NewInMemoryStore(), nil, nil
	}

	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.AuditDatabaseURL
	pool, err := database.New(dbCfg)
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Migrate(ctx, migrations.FS); err != nil {
		_ = pool.Close()
		return nil, nil, err
	}
	return audit.NewPostgresStore(pool.DB()), pool, nil
}
