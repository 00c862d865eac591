package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the risk service.
type Config struct {
	HTTPPort    string
	GRPCPort    string
	ArtifactDir string

	// Audit store; empty DatabaseURL disables it.
	DatabaseURL   string
	DBMaxConns    int
	MigrationsDir string

	// Event stream; no brokers disables it.
	KafkaBrokers       []string
	KafkaTopic         string
	KafkaTLS           bool
	KafkaSASLMechanism string
	KafkaSASLUsername  string
	KafkaSASLPassword  string

	// API authentication; empty secret and public key disable it.
	JWTSecret       string
	JWTPublicKeyPEM string
	JWTIssuer       string

	GRPCTLSCertFile string
	GRPCTLSKeyFile  string
	GRPCReflection  bool

	OTLPEndpoint string
	OTLPInsecure bool

	RateLimitRPS    int
	ShutdownTimeout time.Duration

	Environment string
	LogLevel    string
	LogFormat   string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		HTTPPort:    getEnv("HTTP_PORT", "8501"),
		GRPCPort:    getEnv("GRPC_PORT", "9501"),
		ArtifactDir: getEnv("ARTIFACT_DIR", "./artifacts"),

		DatabaseURL:   getEnv("DATABASE_URL", ""),
		DBMaxConns:    getEnvInt("DB_MAX_CONNS", 4),
		MigrationsDir: getEnv("MIGRATIONS_DIR", "./migrations"),

		KafkaBrokers:       getEnvList("KAFKA_BROKERS"),
		KafkaTopic:         getEnv("KAFKA_TOPIC", "diabetes.risk.assessments"),
		KafkaTLS:           getEnvBool("KAFKA_TLS", false),
		KafkaSASLMechanism: getEnv("KAFKA_SASL_MECHANISM", ""),
		KafkaSASLUsername:  getEnv("KAFKA_SASL_USERNAME", ""),
		KafkaSASLPassword:  getEnv("KAFKA_SASL_PASSWORD", ""),

		JWTSecret:       getEnv("JWT_SECRET", ""),
		JWTPublicKeyPEM: getEnv("JWT_PUBLIC_KEY", ""),
		JWTIssuer:       getEnv("JWT_ISSUER", "diabetes-risk"),

		GRPCTLSCertFile: getEnv("GRPC_TLS_CERT_FILE", ""),
		GRPCTLSKeyFile:  getEnv("GRPC_TLS_KEY_FILE", ""),
		GRPCReflection:  getEnvBool("GRPC_REFLECTION", false),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTLPInsecure: getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),

		RateLimitRPS:    getEnvInt("RATE_LIMIT_RPS", 0),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second),

		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "json"),
	}
}

// GRPCAddress returns the full gRPC listen address.
func (c *Config) GRPCAddress() string {
	return fmt.Sprintf(":%s", c.GRPCPort)
}

// HTTPAddress returns the full HTTP listen address.
func (c *Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.HTTPPort)
}

// AuditEnabled reports whether assessments are written to Postgres.
func (c *Config) AuditEnabled() bool { return c.DatabaseURL != "" }

// EventsEnabled reports whether domain events are published to Kafka.
func (c *Config) EventsEnabled() bool { return len(c.KafkaBrokers) > 0 }

// AuthEnabled reports whether the JSON and gRPC APIs require a bearer token.
func (c *Config) AuthEnabled() bool { return c.JWTSecret != "" || c.JWTPublicKeyPEM != "" }

// GRPCTLSEnabled reports whether both halves of the gRPC key pair are set.
func (c *Config) GRPCTLSEnabled() bool { return c.GRPCTLSCertFile != "" && c.GRPCTLSKeyFile != "" }

// MigrationsSource returns the golang-migrate source URL for MigrationsDir.
func (c *Config) MigrationsSource() string {
	if strings.Contains(c.MigrationsDir, "://") {
		return c.MigrationsDir
	}
	return "file://" + c.MigrationsDir
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return n
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return b
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return d
	}
	return defaultValue
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
