package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	ping func(ctx context.Context) error
}

// ping may be nil, readiness then always passes
func NewHealthHandler(ping func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{ping: ping}
}

// Health is the liveness probe, it never touches the database.
func (h *HealthHandler) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Readyz(ctx *gin.Context) {
	if h.ping != nil {
		pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 1*time.Second)
		defer cancel()

		if err := h.ping(pingCtx); err != nil {
			slog.Default().WarnContext(ctx.Request.Context(), "readiness check failed", "err", err)
			RespondUnavailable(ctx, "Database not ready")
			return
		}
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ready"})
}
