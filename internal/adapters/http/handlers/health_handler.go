package handlers

import (
	"context"
	"time"

	"tikalinvest/internal/adapters/persistence/repositories"
	"tikalinvest/internal/config"
	"tikalinvest/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Version is the API version reported by the info endpoints
const Version = "1.0.0"

// HealthHandler handles health check, info and fee schedule endpoints
type HealthHandler struct {
	repos *repositories.Repositories
	cfg   *config.Config
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(repos *repositories.Repositories, cfg *config.Config) *HealthHandler {
	return &HealthHandler{repos: repos, cfg: cfg}
}

// Root handles root endpoint
// @Summary Root endpoint
// @Description Returns API status
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "running",
		"message": "TikalInvest API v1 is running",
		"mode":    h.cfg.AppMode,
		"docs":    "/swagger/index.html",
	})
}

// HealthCheck handles health check
// @Summary Health check
// @Description Check API and database health
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	status, dbStatus, code := "ok", "healthy", fiber.StatusOK
	if err := h.repos.Ping(ctx); err != nil {
		status, dbStatus, code = "degraded", "unhealthy", fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(fiber.Map{
		"status": status,
		"checks": fiber.Map{
			"api":      "healthy",
			"database": dbStatus,
		},
	})
}

// APIInfo handles API v1 info
// @Summary API v1 Info
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1 [get]
func (h *HealthHandler) APIInfo(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "TikalInvest API v1",
		"version": Version,
	})
}

// Fees publishes the fee schedule the server charges
// @Summary Fee schedule
// @Description Commission and wallet fee rates with deposit and withdrawal limits
// @Tags Fees
// @Produce json
// @Success 200 {object} response.Response{data=fees.Rates}
// @Router /fees [get]
func (h *HealthHandler) Fees(c *fiber.Ctx) error {
	return response.Success(c, "Fee schedule retrieved successfully", h.cfg.Fees)
}
