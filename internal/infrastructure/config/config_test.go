package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"HTTP_PORT", "GRPC_PORT", "DATABASE_URL", "KAFKA_BROKERS", "JWT_SECRET", "JWT_PUBLIC_KEY", "GRPC_TLS_CERT_FILE", "RATE_LIMIT_RPS", "DB_MAX_CONNS"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}

	cfg := Load()

	assert.Equal(t, ":8501", cfg.HTTPAddress())
	assert.Equal(t, ":9501", cfg.GRPCAddress())
	assert.False(t, cfg.AuditEnabled())
	assert.False(t, cfg.EventsEnabled())
	assert.False(t, cfg.AuthEnabled())
	assert.False(t, cfg.GRPCTLSEnabled())
	assert.Equal(t, 0, cfg.RateLimitRPS)
	assert.Equal(t, 4, cfg.DBMaxConns)
	assert.Equal(t, "diabetes.risk.assessments", cfg.KafkaTopic)
	assert.Equal(t, 15*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("GRPC_PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://risk:risk@db:5432/risk?sslmode=disable")
	t.Setenv("MIGRATIONS_DIR", "/srv/migrations")
	t.Setenv("DB_MAX_CONNS", "12")
	t.Setenv("KAFKA_BROKERS", " kafka-1:9092, kafka-2:9092 ,")
	t.Setenv("KAFKA_TLS", "true")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("GRPC_TLS_CERT_FILE", "/tls/cert.pem")
	t.Setenv("GRPC_TLS_KEY_FILE", "/tls/key.pem")
	t.Setenv("GRPC_REFLECTION", "true")
	t.Setenv("RATE_LIMIT_RPS", "25")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("LOG_FORMAT", "text")

	cfg := Load()

	assert.Equal(t, ":8080", cfg.HTTPAddress())
	assert.Equal(t, ":9090", cfg.GRPCAddress())
	assert.True(t, cfg.AuditEnabled())
	assert.Equal(t, "file:///srv/migrations", cfg.MigrationsSource())
	assert.Equal(t, 12, cfg.DBMaxConns)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.EventsEnabled())
	assert.True(t, cfg.KafkaTLS)
	assert.True(t, cfg.AuthEnabled())
	assert.True(t, cfg.GRPCTLSEnabled())
	assert.True(t, cfg.GRPCReflection)
	assert.Equal(t, 25, cfg.RateLimitRPS)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("RATE_LIMIT_RPS", "lots")
	t.Setenv("SHUTDOWN_TIMEOUT", "soon")
	t.Setenv("KAFKA_TLS", "maybe")

	cfg := Load()

	assert.Equal(t, 0, cfg.RateLimitRPS)
	assert.Equal(t, 15*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.KafkaTLS)
}

func TestMigrationsSource_KeepsExplicitScheme(t *testing.T) {
	cfg := &Config{MigrationsDir: "file:///opt/migrations"}
	assert.Equal(t, "file:///opt/migrations", cfg.MigrationsSource())
}
