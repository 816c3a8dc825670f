package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/smartsprint/smartsprint/docs"
	"github.com/smartsprint/smartsprint/internal/api/handler"
	"github.com/smartsprint/smartsprint/internal/api/middleware"
	"github.com/smartsprint/smartsprint/internal/core/domain"
	"github.com/smartsprint/smartsprint/internal/core/ports"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Log       zerolog.Logger
	Auth      ports.AuthService
	Users     ports.UserService
	Tokens    ports.TokenVerifier
	Store     middleware.UserLoader
	Readiness map[string]handler.Checker

	// MetricsEnabled mounts the Prometheus middleware and GET /metrics. The
	// middleware registers on the default registry, so enable it once per
	// process.
	MetricsEnabled bool
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	if d.MetricsEnabled {
		e.Use(echoprometheus.NewMiddleware("smartsprint"))
		e.GET("/metrics", echoprometheus.NewHandler())
	}

	authGate := middleware.Auth(d.Tokens, d.Store, d.Log)
	directory := middleware.RequireRole(domain.RoleAdmin, domain.RoleProjectManager)
	adminOnly := middleware.RequireRole(domain.RoleAdmin)

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(d.Auth)
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.GET("/auth/me", authHandler.Me, authGate)

	// --- User management ---
	userHandler := handler.NewUserHandler(d.Users)
	users := e.Group("/users", authGate)
	users.GET("", userHandler.List, directory)
	users.POST("", userHandler.Create, directory)
	users.GET("/:id", userHandler.Get)
	users.PUT("/:id", userHandler.Update)
	users.POST("/:id/change-password", userHandler.ChangePassword)
	users.DELETE("/:id", userHandler.Delete, adminOnly)

	// --- Health probes (no auth required) ---
	e.GET("/health", handler.NewHealthHandler().Liveness)
	e.GET("/health/ready", handler.NewReadinessHandler(d.Readiness, d.Log).Readiness)

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger writes one structured access log line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			switch {
			case v.Status >= 500:
				ev = log.Error().Err(v.Error)
			case v.Error != nil:
				ev = log.Warn().Err(v.Error)
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
