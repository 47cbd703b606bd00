package http

import (
	"log/slog"
	"net/http"

	"github.com/geocoder89/storefront/internal/config"
	"github.com/geocoder89/storefront/internal/http/handlers"
	"github.com/geocoder89/storefront/internal/http/middlewares"
	"github.com/geocoder89/storefront/internal/observability"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Deps is everything the router needs, built once in main.
type Deps struct {
	Log    *slog.Logger
	Cfg    config.Config
	Users  handlers.UsersService
	Prom   *observability.Prom
	Checks map[string]handlers.Check
}

func NewRouter(d Deps) *gin.Engine {
	if d.Cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	if d.Cfg.OTelEnabled {
		r.Use(otelgin.Middleware(d.Cfg.ServiceName))
	}
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(d.Log))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders(d.Cfg.Env == "prod"))
	r.Use(middlewares.CORSMiddleware(d.Cfg.CORSAllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(d.Cfg.MaxBodyBytes))

	// health
	h := handlers.NewHealthHandler(d.Checks)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if d.Prom != nil {
		r.GET("/metrics", gin.WrapH(d.Prom.Handler()))
	}

	limiter := middlewares.NewRateLimiter(d.Cfg.AuthRateLimit, d.Cfg.AuthRateWindow)
	usersHandler := handlers.NewUsersHandler(d.Users)

	// the web app called these under /api, keep both mounts
	for _, prefix := range []string{"/users", "/api/users"} {
		g := r.Group(prefix)

		g.POST("/register",
			limiter.RateLimiterMiddleware(middlewares.KeyByIP),
			middlewares.RequireJSON(http.StatusBadRequest),
			usersHandler.Register,
		)
		g.POST("/login",
			limiter.RateLimiterMiddleware(middlewares.KeyByIP),
			middlewares.RequireJSON(http.StatusUnauthorized),
			usersHandler.Login,
		)
		g.GET("/:id", usersHandler.GetUserByID)
	}

	return r
}
