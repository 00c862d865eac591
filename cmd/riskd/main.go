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

	"github.com/healthbox/diabetes-risk/internal/application/usecase"
	"github.com/healthbox/diabetes-risk/internal/domain/port"
	"github.com/healthbox/diabetes-risk/internal/domain/service"
	"github.com/healthbox/diabetes-risk/internal/infrastructure/artifact"
	"github.com/healthbox/diabetes-risk/internal/infrastructure/config"
	"github.com/healthbox/diabetes-risk/internal/infrastructure/messaging"
	"github.com/healthbox/diabetes-risk/internal/infrastructure/postgres"
	grpcpresentation "github.com/healthbox/diabetes-risk/internal/presentation/grpc"
	"github.com/healthbox/diabetes-risk/internal/presentation/rest"
	"github.com/healthbox/diabetes-risk/internal/presentation/web"
	"github.com/healthbox/diabetes-risk/pkg/auth"
	"github.com/healthbox/diabetes-risk/pkg/kafka"
	"github.com/healthbox/diabetes-risk/pkg/observability"
	pgpkg "github.com/healthbox/diabetes-risk/pkg/postgres"
)

const serviceName = "diabetes-risk"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := config.Load()

	logger := observability.InitLogger(observability.LogConfig{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: serviceName,
		Environment: cfg.Environment,
	})

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("riskd exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting riskd",
		"version", version,
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
	)

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracingConfig{
		ServiceName:    serviceName,
		ServiceVersion: version,
		Endpoint:       cfg.OTLPEndpoint,
		Insecure:       cfg.OTLPInsecure,
		SampleRatio:    1,
	})
	if err != nil {
		logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
	} else {
		defer func() { _ = shutdownTracer(context.Background()) }()
	}

	meterProvider, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{
		ServiceName:    serviceName,
		ServiceVersion: version,
	})
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	defer func() { _ = meterProvider.Shutdown(context.Background()) }()

	// Artifacts are mandatory; the service never starts without them.
	artifacts, err := artifact.Load(cfg.ArtifactDir)
	if err != nil {
		return fmt.Errorf("load artifacts from %s: %w", cfg.ArtifactDir, err)
	}
	pipeline, err := service.NewRiskPipeline(artifacts)
	if err != nil {
		return err
	}
	logger.Info("artifacts loaded", "dir", cfg.ArtifactDir, "model_version", pipeline.ModelVersion())

	var (
		repo      port.AssessmentRepository
		publisher port.EventPublisher
		checks    []rest.ReadinessCheck
	)

	if cfg.AuditEnabled() {
		if err := pgpkg.RunMigrations(cfg.DatabaseURL, cfg.MigrationsSource()); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}

		dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
		pool, err := pgpkg.NewPool(dbCtx, pgpkg.Config{URL: cfg.DatabaseURL, MaxConns: int32(cfg.DBMaxConns)})
		dbCancel()
		if err != nil {
			return err
		}
		defer pool.Close()

		repo = postgres.NewAssessmentRepository(pool)
		checks = append(checks, rest.ReadinessCheck{
			Name:  "database",
			Check: func(ctx context.Context) error { return pgpkg.HealthCheck(ctx, pool) },
		})
		logger.Info("assessment audit log enabled")
	}

	if cfg.EventsEnabled() {
		producer, err := kafka.NewProducer(kafka.Config{
			ClientID:      serviceName,
			Brokers:       cfg.KafkaBrokers,
			TLS:           cfg.KafkaTLS,
			SASLEnabled:   cfg.KafkaSASLMechanism != "",
			SASLMechanism: cfg.KafkaSASLMechanism,
			SASLUsername:  cfg.KafkaSASLUsername,
			SASLPassword:  cfg.KafkaSASLPassword,
		})
		if err != nil {
			return err
		}
		defer func() { _ = producer.Close() }()

		publisher = messaging.NewKafkaPublisher(producer, cfg.KafkaTopic, logger)
		checks = append(checks, rest.ReadinessCheck{Name: "kafka", Check: producer.Ping})
		logger.Info("assessment events enabled", "topic", cfg.KafkaTopic)
	}

	var jwtService *auth.JWTService
	if cfg.AuthEnabled() {
		jwtService, err = auth.NewJWTService(auth.JWTConfig{
			Secret:       cfg.JWTSecret,
			PublicKeyPEM: cfg.JWTPublicKeyPEM,
			Issuer:       cfg.JWTIssuer,
		})
		if err != nil {
			return fmt.Errorf("init jwt: %w", err)
		}
		logger.Info("API authentication enabled")
	}

	analyzeRisk, err := usecase.NewAnalyzeRisk(pipeline, repo, publisher, logger)
	if err != nil {
		return err
	}
	getAssessment := usecase.NewGetAssessment(repo)
	riskSummary := usecase.NewRiskSummary(repo)

	grpcServer, err := grpcpresentation.NewServer(
		grpcpresentation.NewRiskServiceHandler(analyzeRisk, getAssessment, logger),
		grpcpresentation.ServerConfig{
			Address:     cfg.GRPCAddress(),
			TLSCertFile: cfg.GRPCTLSCertFile,
			TLSKeyFile:  cfg.GRPCTLSKeyFile,
			Reflection:  cfg.GRPCReflection,
			JWT:         jwtService,
		},
		logger,
	)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr: cfg.HTTPAddress(),
		Handler: rest.NewRouter(rest.RouterConfig{
			Logger:       logger,
			ServiceName:  serviceName,
			Health:       rest.NewHealthHandler(serviceName, pipeline.ModelVersion(), logger, checks...),
			Metrics:      metricsHandler,
			Auth:         jwtService,
			RateLimitRPS: cfg.RateLimitRPS,
			Routes: []rest.RouteRegistrar{
				web.NewHandler(analyzeRisk, logger),
				rest.NewAssessmentHandler(analyzeRisk, getAssessment, riskSummary, logger),
			},
		}),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 2)

	go func() {
		if err := grpcServer.Start(); err != nil {
			errCh <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	go func() {
		logger.Info("HTTP server starting", "address", cfg.HTTPAddress())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case serveErr = <-errCh:
		logger.Error("server error", "error", serveErr)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	grpcServer.Stop(shutdownCtx)

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("riskd stopped")
	return serveErr
}
