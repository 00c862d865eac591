package grpc_test

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	grpcpresentation "github.com/healthbox/diabetes-risk/internal/presentation/grpc"
	"github.com/healthbox/diabetes-risk/pkg/auth"
	"github.com/healthbox/diabetes-risk/pkg/tlsutil"
)

func startServer(t *testing.T, cfg grpcpresentation.ServerConfig, clientCreds credentials.TransportCredentials) *grpc.ClientConn {
	t.Helper()

	handler := grpcpresentation.NewRiskServiceHandler(&stubAnalyzer{}, &stubFinder{}, discardLogger())
	srv, err := grpcpresentation.NewServer(handler, cfg, discardLogger())
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Stop(ctx)
	})

	if clientCreds == nil {
		clientCreds = insecure.NewCredentials()
	}
	conn, err := grpc.NewClient("passthrough:///localhost",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(clientCreds),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func withToken(t *testing.T, svc *auth.JWTService, roles ...string) context.Context {
	t.Helper()
	token, err := svc.GenerateToken("caller", roles)
	require.NoError(t, err)
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+token)
}

func TestServer_NoAuth(t *testing.T) {
	conn := startServer(t, grpcpresentation.ServerConfig{}, nil)
	client := grpcpresentation.NewRiskAssessmentServiceClient(conn)

	resp, err := client.Assess(context.Background(), &grpcpresentation.AssessRequest{Glucose: f(150)})
	require.NoError(t, err)
	assert.Equal(t, "High Risk", resp.Assessment.RiskLevel)
	require.NotNil(t, resp.Assessment.AssessedAt)
	assert.Equal(t, time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC), resp.Assessment.AssessedAt.AsTime())

	health, err := healthpb.NewHealthClient(conn).Check(context.Background(),
		&healthpb.HealthCheckRequest{Service: grpcpresentation.ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, health.Status)
}

func TestServer_AuthAndRoles(t *testing.T) {
	svc, err := auth.NewJWTService(auth.JWTConfig{Secret: "grpc-test-secret", Issuer: "diabetes-risk", Expiration: time.Minute})
	require.NoError(t, err)

	conn := startServer(t, grpcpresentation.ServerConfig{JWT: svc}, nil)
	client := grpcpresentation.NewRiskAssessmentServiceClient(conn)
	get := &grpcpresentation.GetAssessmentRequest{ID: uuid.NewString()}

	_, err = client.Assess(context.Background(), &grpcpresentation.AssessRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = client.Assess(withToken(t, svc, auth.RoleAuditor), &grpcpresentation.AssessRequest{})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	_, err = client.Assess(withToken(t, svc, auth.RoleService), &grpcpresentation.AssessRequest{})
	assert.NoError(t, err)

	_, err = client.GetAssessment(withToken(t, svc, auth.RoleService), get)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	_, err = client.GetAssessment(withToken(t, svc, auth.RoleAuditor), get)
	assert.NoError(t, err)

	_, err = healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{})
	assert.NoError(t, err, "health checks skip auth")
}

func TestServer_TLS(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, tlsutil.WriteDevCertificates(dir, "localhost"))

	clientCreds, err := tlsutil.ClientCredentials(filepath.Join(dir, tlsutil.CAFile))
	require.NoError(t, err)

	conn := startServer(t, grpcpresentation.ServerConfig{
		TLSCertFile: filepath.Join(dir, tlsutil.ServerCert),
		TLSKeyFile:  filepath.Join(dir, tlsutil.ServerKeyFile),
	}, clientCreds)

	resp, err := grpcpresentation.NewRiskAssessmentServiceClient(conn).Assess(context.Background(), &grpcpresentation.AssessRequest{})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Assessment.ID)
}

func TestNewServer_BadTLSFiles(t *testing.T) {
	handler := grpcpresentation.NewRiskServiceHandler(&stubAnalyzer{}, &stubFinder{}, discardLogger())
	_, err := grpcpresentation.NewServer(handler, grpcpresentation.ServerConfig{
		TLSCertFile: "/does/not/exist.pem",
		TLSKeyFile:  "/does/not/exist-key.pem",
	}, discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "grpc tls")
}

func TestServer_StopCutsOpenStreams(t *testing.T) {
	handler := grpcpresentation.NewRiskServiceHandler(&stubAnalyzer{}, &stubFinder{}, discardLogger())
	srv, err := grpcpresentation.NewServer(handler, grpcpresentation.ServerConfig{}, discardLogger())
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()

	conn, err := grpc.NewClient("passthrough:///localhost",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	watch, err := healthpb.NewHealthClient(conn).Watch(context.Background(),
		&healthpb.HealthCheckRequest{Service: grpcpresentation.ServiceName})
	require.NoError(t, err)
	first, err := watch.Recv()
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, first.Status)

	stopCtx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		srv.Stop(stopCtx)
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return after its context expired")
	}
}
