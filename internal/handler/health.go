package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/model"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db pinger
}

func NewHealthHandler(db pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Ping godoc
// @Summary Liveness check
// @Tags health
// @Produce json
// @Success 200 {object} model.PingResponse
// @Router /ping [get]
func (h *HealthHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, model.PingResponse{Message: "pong"})
}

// 루트 엔드포인트
func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, model.RootResponse{
		Status:  "ok",
		Message: "videotube user API is running",
	})
}

// Healthz godoc
// @Summary Readiness check
// @Description Pings MongoDB.
// @Tags health
// @Produce json
// @Success 200 {object} model.HealthResponse
// @Failure 503 {object} model.HealthResponse
// @Router /healthz [get]
func (h *HealthHandler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		logging.FromContext(c.Request.Context()).Warn("mongo ping failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, model.HealthResponse{Status: "degraded", Mongo: "down"})
		return
	}
	c.JSON(http.StatusOK, model.HealthResponse{Status: "ok", Mongo: "up"})
}
