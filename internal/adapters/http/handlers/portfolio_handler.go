package handlers

import (
	"tikalinvest/internal/core/services"
	"tikalinvest/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// PortfolioHandler handles holdings endpoints
type PortfolioHandler struct {
	portfolioService *services.PortfolioService
}

// NewPortfolioHandler creates a new portfolio handler
func NewPortfolioHandler(portfolioService *services.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{portfolioService: portfolioService}
}

// Positions lists the caller's holdings at current prices
// @Summary My positions
// @Tags Portfolio
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]services.PositionView}
// @Router /portfolio [get]
func (h *PortfolioHandler) Positions(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	positions, err := h.portfolioService.Positions(c.Context(), userID)
	if err != nil {
		return serviceError(c, err, "Failed to get portfolio")
	}
	return response.Success(c, "Portfolio retrieved successfully", positions)
}

// Summary totals the caller's holdings and cash
// @Summary Portfolio summary
// @Tags Portfolio
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=services.PortfolioSummary}
// @Router /portfolio/summary [get]
func (h *PortfolioHandler) Summary(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	summary, err := h.portfolioService.Summary(c.Context(), userID)
	if err != nil {
		return serviceError(c, err, "Failed to get portfolio summary")
	}
	return response.Success(c, "Portfolio summary retrieved successfully", summary)
}
