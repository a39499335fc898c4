package api

import (
	"log/slog"
	"net/http"

	"connectrpc.com/connect"
	c "connectrpc.com/cors"
	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"

	statementhandler "github.com/FACorreiaa/yape-insights/internal/domain/statement/handler"
	"github.com/FACorreiaa/yape-insights/pkg/interceptors"
	"github.com/FACorreiaa/yape-insights/pkg/observability"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// SetupRouter configures all routes and returns the HTTP service
func SetupRouter(deps *Dependencies) http.Handler {
	mux := http.NewServeMux()

	tracer := otel.GetTracerProvider().Tracer("yape-insights/api")

	chain := []connect.Interceptor{
		interceptors.NewRequestIDInterceptor(RequestIDHeader),
		interceptors.NewTracingInterceptor(tracer),
		interceptors.NewValidationInterceptor(deps.Validator),
	}
	if deps.Config.Server.RateLimitPerSecond > 0 && deps.Config.Server.RateLimitBurst > 0 {
		limiter := rate.NewLimiter(
			rate.Limit(float64(deps.Config.Server.RateLimitPerSecond)),
			deps.Config.Server.RateLimitBurst,
		)
		chain = append(chain, interceptors.NewRateLimitInterceptor(limiter))
	}
	chain = append(chain,
		interceptors.NewRecoveryInterceptor(deps.Logger),
		interceptors.NewLoggingInterceptor(deps.Logger),
		observability.NewMetricsInterceptor(),
	)

	registerConnectRoutes(mux, deps,
		connect.WithInterceptors(chain...),
		connect.WithReadMaxBytes(deps.Config.Server.ReadMaxBytes()),
	)

	registerUtilityRoutes(mux, deps)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   deps.Config.Server.AllowedOrigins,
		AllowedMethods:   c.AllowedMethods(),
		AllowedHeaders:   append(c.AllowedHeaders(), RequestIDHeader),
		ExposedHeaders:   append(c.ExposedHeaders(), RequestIDHeader),
		AllowCredentials: true,
		MaxAge:           7200,
	})

	return corsHandler.Handler(mux)
}

// registerConnectRoutes registers all Connect RPC services
func registerConnectRoutes(mux *http.ServeMux, deps *Dependencies, opts ...connect.HandlerOption) {
	path, handler := statementhandler.NewStatementServiceHandler(deps.StatementHandler, opts...)
	mux.Handle(path, noStore(handler))
	deps.Logger.Info("registered Connect RPC service", "path", path)
}

func noStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		next.ServeHTTP(w, r)
	})
}

// registerUtilityRoutes registers health check, metrics, and other utility routes
func registerUtilityRoutes(mux *http.ServeMux, deps *Dependencies) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok")); err != nil {
			deps.Logger.Error("failed to write health response", slog.Any("error", err))
		}
	})
	deps.Logger.Info("registered health check", "path", "/health")

	mux.HandleFunc("/health/details", func(w http.ResponseWriter, _ *http.Request) {
		type status struct {
			Status string `json:"status"`
			Detail string `json:"detail,omitempty"`
		}
		result := map[string]status{
			"statement": {Status: "ok", Detail: deps.Config.Location().String()},
			"metrics":   {Status: "ok"},
			"tracing":   {Status: "ok"},
		}
		if !deps.Config.Observability.MetricsEnabled {
			result["metrics"] = status{Status: "disabled"}
		}
		if !deps.Config.Observability.TracingEnabled {
			result["tracing"] = status{Status: "disabled"}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(result); err != nil {
			deps.Logger.Error("failed to encode health details", slog.Any("error", err))
		}
	})
	deps.Logger.Info("registered health details", "path", "/health/details")

	mux.HandleFunc("/ready", func(w http.ResponseWriter, _ *http.Request) {
		if deps.StatementHandler == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ready")); err != nil {
			deps.Logger.Error("failed to write readiness response", slog.Any("error", err))
		}
	})
	deps.Logger.Info("registered readiness check", "path", "/ready")

	if deps.Config.Observability.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		deps.Logger.Info("registered metrics endpoint", "path", "/metrics")
	}
}
