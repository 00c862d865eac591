package grpc

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/healthbox/diabetes-risk/pkg/auth"
	"github.com/healthbox/diabetes-risk/pkg/tlsutil"
)

// ServerConfig configures the gRPC server.
type ServerConfig struct {
	// JWT enables bearer-token auth and role checks when non-nil.
	JWT         *auth.JWTService
	Address     string
	TLSCertFile string
	TLSKeyFile  string
	Reflection  bool
}

// Server wraps the gRPC server with risk service handlers.
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	logger     *slog.Logger
	address    string
}

// NewServer creates a new gRPC server for the risk service.
func NewServer(handler *RiskServiceHandler, cfg ServerConfig, logger *slog.Logger) (*Server, error) {
	var serverOpts []grpc.ServerOption

	if cfg.JWT != nil {
		serverOpts = append(serverOpts, grpc.ChainUnaryInterceptor(
			auth.UnaryAuthInterceptor(cfg.JWT, []string{healthCheckMethod, healthWatchMethod}),
			auth.RequireRole([]string{MethodAssess}, auth.RoleClinician, auth.RoleService),
			auth.RequireRole([]string{MethodGetAssessment}, auth.RoleClinician, auth.RoleAuditor),
		))
	}

	if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
		creds, err := tlsutil.ServerCredentials(cfg.TLSCertFile, cfg.TLSKeyFile)
		if err != nil {
			return nil, fmt.Errorf("grpc tls: %w", err)
		}
		serverOpts = append(serverOpts, grpc.Creds(creds))
		logger.Info("gRPC TLS enabled", "cert", cfg.TLSCertFile)
	} else {
		logger.Info("gRPC TLS not configured, running without TLS")
	}

	grpcServer := grpc.NewServer(serverOpts...)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	RegisterRiskAssessmentServiceServer(grpcServer, handler)

	if cfg.Reflection {
		reflection.Register(grpcServer)
	}

	return &Server{
		grpcServer: grpcServer,
		health:     healthServer,
		logger:     logger,
		address:    cfg.Address,
	}, nil
}

// Start begins listening and serving gRPC requests.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.address, err)
	}
	return s.Serve(listener)
}

// Serve serves gRPC requests on an existing listener.
func (s *Server) Serve(listener net.Listener) error {
	s.logger.Info("gRPC server starting", slog.String("address", listener.Addr().String()))
	return s.grpcServer.Serve(listener)
}

// Stop marks the service as not serving and drains in-flight calls. Open
// streams, such as health watches, are cut when ctx is done.
func (s *Server) Stop(ctx context.Context) {
	s.logger.Info("gRPC server shutting down")
	s.health.Shutdown()

	drained := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(drained)
	}()

	select {
	case <-drained:
	case <-ctx.Done():
		s.logger.Warn("gRPC graceful stop timed out, closing connections")
		s.grpcServer.Stop()
		<-drained
	}
}
