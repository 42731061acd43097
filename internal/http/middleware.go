package http

import (
	"log/slog"

	"github.com/geocoder89/userapi/internal/config"
	"github.com/geocoder89/userapi/internal/http/middlewares"
	"github.com/geocoder89/userapi/internal/observability"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const (
	serviceName  = "userapi"
	maxBodyBytes = 1 << 20
)

// useMiddlewares installs the global chain. The span is started before the
// request id is assigned so request log lines carry both.
func useMiddlewares(r *gin.Engine, log *slog.Logger, cfg config.Config, prom *observability.Prom) {
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))

	if prom != nil {
		r.Use(prom.GinHandleMiddleware())
	}

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))
}
