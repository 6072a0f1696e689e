package router

import (
	"github.com/anonto42/nano-midea/notifier/internal/handlers"
	"github.com/anonto42/nano-midea/notifier/internal/metrics"
	"github.com/anonto42/nano-midea/notifier/internal/middleware"
	"github.com/anonto42/nano-midea/notifier/internal/repositories"
	"github.com/anonto42/nano-midea/notifier/internal/services"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Dependencies are the collaborators the HTTP layer is wired with
type Dependencies struct {
	Notifier        services.Notifier
	Notifications   repositories.NotificationRepository
	TokenVerifier   middleware.TokenVerifier
	EventsJWTSecret []byte
	Logger          *zap.SugaredLogger
}

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo, logger *zap.SugaredLogger) {
	e.Use(eMiddleware.RequestLoggerWithConfig(eMiddleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v eMiddleware.RequestLoggerValues) error {
			logger.Debugw("request", "method", v.Method, "uri", v.URI, "status", v.Status)
			return nil
		},
	}))
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	logger.Info("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies.
// The returned EventHandler is drained on shutdown.
func SetupRoutes(e *echo.Echo, deps Dependencies) *handlers.EventHandler {
	e.GET("/health", handlers.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	// --- Service-to-service event intake ---
	eventsGroup := e.Group("/api/v1/events")
	eventsGroup.Use(middleware.ServiceTokenMiddleware(deps.EventsJWTSecret))
	eventHandler := handlers.NewEventHandler(deps.Notifier)
	eventHandler.RegisterEventRoutes(eventsGroup)
	deps.Logger.Info("Event routes configured.")

	// --- Recipient inbox (Firebase ID token) ---
	inbox := e.Group("/api/v1/notifications")
	inbox.Use(middleware.FirebaseAuthMiddleware(deps.TokenVerifier))
	notificationHandler := handlers.NewNotificationHandler(deps.Notifications, deps.Logger)
	notificationHandler.RegisterNotificationRoutes(inbox)
	deps.Logger.Info("Notification routes configured.")

	deps.Logger.Info("All routes configured.")
	return eventHandler
}
