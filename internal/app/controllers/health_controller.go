package controllers

import (
	"context"
	"time"

	"actrec-directory/internal/domain/services/container"
	"actrec-directory/internal/error/code"
	"actrec-directory/internal/error/response"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

// HealthController reports liveness and dependency status
type HealthController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewHealthController creates a health controller
func NewHealthController(ctx *gin.Context, container *container.ServiceContainer) *HealthController {
	return &HealthController{Ctx: ctx, Container: container}
}

// HandleHealthFunc returns a gin handler for the health endpoints
func HandleHealthFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewHealthController(ctx, container)

		switch method {
		case "ping":
			controller.Ping()
		case "ready":
			controller.Ready()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "invalid method")
		}
	}
}

// 1. Ping liveness probe
// @Summary      Liveness probe
// @Tags         Health
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /health [get]
func (h *HealthController) Ping() {
	response.Success(h.Ctx, gin.H{
		"status":  "healthy",
		"message": "pong",
	})
}

// 2. Ready checks the database and, when configured, Redis
// @Summary      Readiness probe
// @Tags         Health
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  ErrorResponse
// @Router       /health/ready [get]
func (h *HealthController) Ready() {
	ctx, cancel := context.WithTimeout(h.Ctx.Request.Context(), 3*time.Second)
	defer cancel()

	checks := gin.H{}
	healthy := true

	if db := h.Container.GetDB(); db != nil {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		checks["database"] = statusOf(err)
		healthy = healthy && err == nil
	}

	if client, ok := h.Container.GetService("redis").(*redis.Client); ok && client != nil {
		err := client.Ping(ctx).Err()
		checks["redis"] = statusOf(err)
		healthy = healthy && err == nil
	}

	if !healthy {
		response.FailWithMessage(h.Ctx, code.ErrServiceUnavailable, "dependency check failed")
		return
	}
	response.Success(h.Ctx, gin.H{"status": "ready", "checks": checks})
}

func statusOf(err error) string {
	if err != nil {
		return "down: " + err.Error()
	}
	return "up"
}
