package vkit

import (
	"context"
	"fmt"
	"net/http"

	"github.com/vhttp/vhttp"
	"github.com/vhttp/vhttp/nethttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ServerConfig holds optional configuration for the HTTP server.
type ServerConfig struct {
	// HealthHandler serves the VH_HEALTH_PATH endpoint; defaults to a
	// plain 200.
	HealthHandler vhttp.HandlerFunc
}

// ServerParams holds the dependencies for creating an HTTP server.
type ServerParams struct {
	fx.In

	Env        Environment
	Router     *vhttp.Router
	Logger     *zap.Logger
	TracerProv trace.TracerProvider
	Propagator propagation.TextMapPropagator
}

// NewServer creates an HTTP server with routing, logging and tracing
// configured. The health endpoint is registered first so it wins over any
// application route for the same path; tracing skips it to avoid noisy
// probe traces.
func NewServer(params ServerParams, cfg ServerConfig) (*http.Server, error) {
	// Middleware must be in place before the first route registration.
	if params.Env.strictHeaders() {
		params.Router.Use(strictHeaderMiddleware)
	}

	healthPath := params.Env.healthPath()
	healthHandler := cfg.HealthHandler
	if healthHandler == nil {
		healthHandler = defaultHealthHandler
	}

	if err := params.Router.HandleFunc("GET", healthPath, healthHandler); err != nil {
		return nil, err
	}

	handler := nethttp.Serve(params.Router, newZapCoreLogger(params.Logger))
	handler = withTracing(params.TracerProv, params.Propagator, params.Env.serviceName(), healthPath)(handler)

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", params.Env.port()),
		Handler: handler,
	}, nil
}

// startServerHook registers lifecycle hooks for the HTTP server.
func startServerHook(lc fx.Lifecycle, server *http.Server, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			logger.Info("starting server", zap.String("addr", server.Addr))
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping server")
			return server.Shutdown(ctx)
		},
	})
}

func defaultHealthHandler(c vhttp.Conn) (vhttp.Conn, error) {
	return c.SendResp(http.StatusOK, []byte("ok"))
}

func strictHeaderMiddleware(next vhttp.Handler) vhttp.Handler {
	return vhttp.HandlerFunc(func(c vhttp.Conn) (vhttp.Conn, error) {
		return next.Serve(c.StrictHeaders())
	})
}
