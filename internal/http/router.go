package http

import (
	"log/slog"
	"time"

	"github.com/geocoder89/userapi/internal/config"
	"github.com/geocoder89/userapi/internal/db"
	"github.com/geocoder89/userapi/internal/http/handlers"
	"github.com/geocoder89/userapi/internal/http/middlewares"
	"github.com/geocoder89/userapi/internal/observability"
	"github.com/geocoder89/userapi/internal/repo/postgres"
	"github.com/gin-gonic/gin"
)

// NewRouter wires handlers to the pool. prom may be nil, then no metrics are
// recorded and /metrics is not mounted.
func NewRouter(log *slog.Logger, pool *db.Pool, cfg config.Config, prom *observability.Prom) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	useMiddlewares(r, log, cfg, prom)

	// health
	health := handlers.NewHealthHandler(pool.Ping)
	r.GET("/health", health.Health)
	r.GET("/healthz", health.Health)
	r.GET("/readyz", health.Readyz)

	if prom != nil {
		r.GET("/metrics", gin.WrapH(prom.Handler()))
	}

	// wire up repositories and handlers
	usersRepo := postgres.NewUsersRepo(pool, prom)
	usersHandler := handlers.NewUsersHandler(usersRepo, cfg.RequestTimeout)

	createUser := []gin.HandlerFunc{middlewares.RequireJSON()}

	if cfg.RateLimitPerMinute > 0 {
		limiter := middlewares.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
		createUser = append(createUser, limiter.RateLimiterMiddleware(middlewares.KeyByIP))
	}

	r.POST("/users", append(createUser, usersHandler.CreateUser)...)
	r.GET("/users", usersHandler.ListUsers)
	r.GET("/users/:id", usersHandler.GetUserByID)

	return r
}
