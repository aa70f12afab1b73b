package handlers

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
)

const healthTimeout = 3 * time.Second

// HealthChecker is satisfied by *database.Context.
type HealthChecker interface {
	Health(ctx context.Context) database.HealthReport
}

type HealthHandler struct {
	db HealthChecker
}

func NewHealthHandler(db HealthChecker) *HealthHandler {
	return &HealthHandler{db: db}
}

// Check always answers; an unhealthy database turns the status code to 503.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
	defer cancel()
	report := h.db.Health(ctx)

	status, code := "ok", fiber.StatusOK
	if !report.Healthy {
		status, code = "degraded", fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(dto.HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Database:  report,
	})
}
