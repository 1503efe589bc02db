// Package devserver is a development FlowTask backend: the REST contract
// the client talks to, served from memory.
package devserver

import (
	"fmt"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/flowtask/flowtask/internal/devserver/docs"

	"github.com/flowtask/flowtask/internal/devserver/backend"
	"github.com/flowtask/flowtask/internal/devserver/handler"
	"github.com/flowtask/flowtask/internal/devserver/middleware"
)

// Options tunes the router. Zero values use the default Prometheus registry.
type Options struct {
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(b *backend.Backend, log zerolog.Logger, opts Options) (*echo.Echo, error) {
	if opts.Registerer == nil {
		opts.Registerer = prometheus.DefaultRegisterer
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	promMW, err := echoprometheus.MiddlewareConfig{
		Namespace:  "flowtask",
		Subsystem:  "devserver",
		Registerer: opts.Registerer,
	}.ToMiddleware()
	if err != nil {
		return nil, fmt.Errorf("prometheus middleware: %w", err)
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(log))
	e.Use(promMW)

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(b)
	userHandler := handler.NewUserHandler(b)
	taskHandler := handler.NewTaskHandler(b)
	healthHandler := handler.NewHealthHandler(b, b)
	requireAuth := middleware.Auth(b)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login-json", authHandler.Login)
	e.GET("/auth/me", authHandler.Me, requireAuth)

	// --- Users ---
	users := e.Group("/users", requireAuth)
	users.GET("/", userHandler.List)
	users.GET("/:id", userHandler.Get)

	// --- Tasks ---
	tasks := e.Group("/tasks", requireAuth)
	tasks.GET("/", taskHandler.List)
	tasks.POST("/", taskHandler.Create)
	tasks.GET("/:id", taskHandler.Get)
	tasks.PUT("/:id", taskHandler.Update)
	tasks.DELETE("/:id", taskHandler.Delete)

	// --- Operations (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: opts.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e, nil
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
