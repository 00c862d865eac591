package rest

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/healthbox/diabetes-risk/pkg/auth"
)

// APIPrefix is the path prefix guarded by bearer authentication.
const APIPrefix = "/api/v1/"

// RouteRegistrar is implemented by every handler group mounted on the router.
type RouteRegistrar interface {
	RegisterRoutes(mux *http.ServeMux)
}

// RouterConfig collects the handler groups and cross-cutting options of the HTTP server.
type RouterConfig struct {
	Logger  *slog.Logger
	Health  *HealthHandler
	Metrics http.Handler
	// Auth enables bearer-token checks on APIPrefix when non-nil.
	Auth         *auth.JWTService
	ServiceName  string
	Routes       []RouteRegistrar
	RateLimitRPS int
}

// NewRouter builds the HTTP handler. Health and metrics endpoints bypass
// authentication and rate limiting.
func NewRouter(cfg RouterConfig) http.Handler {
	app := http.NewServeMux()
	for _, r := range cfg.Routes {
		r.RegisterRoutes(app)
	}

	var appMiddleware []Middleware
	if cfg.RateLimitRPS > 0 {
		appMiddleware = append(appMiddleware, RateLimitMiddleware(NewRateLimiter(cfg.RateLimitRPS)))
	}
	if cfg.Auth != nil {
		appMiddleware = append(appMiddleware, auth.HTTPMiddleware(cfg.Auth, []string{APIPrefix}))
	}

	root := http.NewServeMux()
	if cfg.Health != nil {
		cfg.Health.RegisterRoutes(root)
	}
	if cfg.Metrics != nil {
		root.Handle("GET /metrics", cfg.Metrics)
	}
	root.Handle("/", Chain(app, appMiddleware...))

	return Chain(root,
		otelhttp.NewMiddleware(cfg.ServiceName),
		LoggingMiddleware(cfg.Logger),
	)
}
