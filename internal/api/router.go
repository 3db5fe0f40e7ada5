package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chidiebere-dev/homefolio/internal/auth"
	"github.com/chidiebere-dev/homefolio/internal/handlers"
	"github.com/chidiebere-dev/homefolio/internal/middleware"
)

// Handlers bundles every HTTP handler mounted by the router.
type Handlers struct {
	Auth          *handlers.AuthHandler
	Security      *handlers.SecurityHandler
	Properties    *handlers.PropertyHandler
	AdminProps    *handlers.AdminPropertyHandler
	Users         *handlers.UserHandler
	Profile       *handlers.ProfileHandler
	Wallet        *handlers.WalletHandler
	Transactions  *handlers.TransactionHandler
	Notifications *handlers.NotificationHandler
	Contact       *handlers.ContactHandler
	Newsletter    *handlers.NewsletterHandler
	Settings      *handlers.SettingsHandler
	Health        *handlers.HealthHandler
}

// Config tunes router-level behaviour.
type Config struct {
	AllowedOrigins  []string
	RateLimit       int
	RateLimitWindow time.Duration
}

// NewRouter assembles the gin engine with the full middleware chain and all
// API routes.
func NewRouter(jwtService *auth.JWTService, h Handlers, cfg Config) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true

	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateLimitWindow)

	router.Use(
		middleware.Recovery(),
		middleware.RequestLogger(),
		middleware.Metrics(),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.AllowedOrigins...),
		limiter.Middleware(),
	)

	router.NoRoute(middleware.NotFoundHandler())
	router.NoMethod(middleware.MethodNotAllowedHandler())

	router.GET("/health", h.Health.Check)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")

	registerAuthRoutes(api, jwtService, h)
	registerPropertyRoutes(api, jwtService, h)
	registerWalletRoutes(api, jwtService, h)
	registerNotificationRoutes(api, jwtService, h)
	registerContactRoutes(api, jwtService, h)
	registerAdminRoutes(api, jwtService, h)

	return router
}
