package handlers

import (
	"tikalinvest/internal/adapters/http/middleware"
	"tikalinvest/internal/core/services"
	"tikalinvest/internal/pkg/pagination"
	"tikalinvest/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// StockHandler handles market and watchlist endpoints
type StockHandler struct {
	marketService *services.MarketService
}

// NewStockHandler creates a new stock handler
func NewStockHandler(marketService *services.MarketService) *StockHandler {
	return &StockHandler{marketService: marketService}
}

// WatchlistToggleRequest represents the watchlist toggle body
type WatchlistToggleRequest struct {
	StockID uint `json:"stock_id" validate:"required"`
}

// ListStocks lists tradable listings
// @Summary List stocks
// @Tags Stocks
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param search query string false "Symbol, name or category"
// @Param market query string false "Market"
// @Param category query string false "Category"
// @Param ordering query string false "Sort field, prefix with - for descending"
// @Success 200 {object} response.Response
// @Router /stocks [get]
func (h *StockHandler) ListStocks(c *fiber.Ctx) error {
	return h.list(c, false)
}

// AdminListStocks lists every listing, inactive ones included
// @Summary List all stocks (Admin)
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param search query string false "Symbol, name or category"
// @Success 200 {object} response.Response
// @Router /admin/stocks [get]
func (h *StockHandler) AdminListStocks(c *fiber.Ctx) error {
	return h.list(c, true)
}

func (h *StockHandler) list(c *fiber.Ctx, includeInactive bool) error {
	params := pagination.GetParams(c)

	stocks, meta, err := h.marketService.ListStocks(c.Context(), &services.ListStocksInput{
		Page:            params.Page,
		Limit:           params.Limit,
		Search:          c.Query("search"),
		Market:          c.Query("market"),
		Category:        c.Query("category"),
		Ordering:        c.Query("ordering"),
		IncludeInactive: includeInactive,
	})
	if err != nil {
		return serviceError(c, err, "Failed to list stocks")
	}

	return response.Paginated(c, "Stocks retrieved successfully", stocks, meta)
}

// GetStock returns one listing
// @Summary Get stock
// @Tags Stocks
// @Produce json
// @Param id path int true "Stock ID"
// @Success 200 {object} response.Response{data=models.Stock}
// @Failure 404 {object} response.Response
// @Router /stocks/{id} [get]
func (h *StockHandler) GetStock(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid stock ID")
	}

	stock, err := h.marketService.GetStock(c.Context(), id, middleware.IsAdmin(c))
	if err != nil {
		return serviceError(c, err, "Failed to get stock")
	}

	return response.Success(c, "Stock retrieved successfully", stock)
}

// History returns the price series of a listing
// @Summary Stock price history
// @Tags Stocks
// @Produce json
// @Param id path int true "Stock ID"
// @Param interval query string false "1d, 1w, 1m, 3m, 1y or all" default(1m)
// @Param limit query int false "Maximum points" default(200)
// @Success 200 {object} response.Response{data=services.StockHistory}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /stocks/{id}/history [get]
func (h *StockHandler) History(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid stock ID")
	}

	history, err := h.marketService.History(c.Context(), id, c.Query("interval"), c.QueryInt("limit"))
	if err != nil {
		return serviceError(c, err, "Failed to get price history")
	}

	return response.Success(c, "Price history retrieved successfully", history)
}

// Trending returns the most traded listings
// @Summary Trending stocks
// @Tags Stocks
// @Produce json
// @Success 200 {object} response.Response
// @Router /stocks/trending [get]
func (h *StockHandler) Trending(c *fiber.Ctx) error {
	stocks, err := h.marketService.Trending(c.Context())
	if err != nil {
		return serviceError(c, err, "Failed to get trending stocks")
	}
	return response.Success(c, "Trending stocks retrieved successfully", stocks)
}

// Gainers returns the largest risers
// @Summary Top gainers
// @Tags Stocks
// @Produce json
// @Success 200 {object} response.Response
// @Router /stocks/gainers [get]
func (h *StockHandler) Gainers(c *fiber.Ctx) error {
	stocks, err := h.marketService.Gainers(c.Context())
	if err != nil {
		return serviceError(c, err, "Failed to get gainers")
	}
	return response.Success(c, "Gainers retrieved successfully", stocks)
}

// Losers returns the largest fallers
// @Summary Top losers
// @Tags Stocks
// @Produce json
// @Success 200 {object} response.Response
// @Router /stocks/losers [get]
func (h *StockHandler) Losers(c *fiber.Ctx) error {
	stocks, err := h.marketService.Losers(c.Context())
	if err != nil {
		return serviceError(c, err, "Failed to get losers")
	}
	return response.Success(c, "Losers retrieved successfully", stocks)
}

// Watchlist lists the caller's followed stocks
// @Summary My watchlist
// @Tags Watchlist
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /watchlist [get]
func (h *StockHandler) Watchlist(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	items, err := h.marketService.Watchlist(c.Context(), userID)
	if err != nil {
		return serviceError(c, err, "Failed to get watchlist")
	}
	return response.Success(c, "Watchlist retrieved successfully", items)
}

// ToggleWatchlist follows or unfollows a stock
// @Summary Toggle watchlist entry
// @Tags Watchlist
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body WatchlistToggleRequest true "Stock to toggle"
// @Success 200 {object} response.Response{data=services.WatchlistToggle}
// @Failure 404 {object} response.Response
// @Router /watchlist/toggle [post]
func (h *StockHandler) ToggleWatchlist(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req WatchlistToggleRequest
	if ok, err := bindJSON(c, &req); !ok {
		return err
	}

	result, err := h.marketService.ToggleWatchlist(c.Context(), userID, req.StockID)
	if err != nil {
		return serviceError(c, err, "Failed to update watchlist")
	}

	message := "Removed from watchlist"
	if result.Watched {
		message = "Added to watchlist"
	}
	return response.Success(c, message, result)
}

// ============================================================
// Admin
// ============================================================

// CreateStock lists a new stock
// @Summary Create stock (Admin)
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateStockInput true "New listing"
// @Success 201 {object} response.Response{data=models.Stock}
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /admin/stocks [post]
func (h *StockHandler) CreateStock(c *fiber.Ctx) error {
	var req services.CreateStockInput
	if ok, err := bindJSON(c, &req); !ok {
		return err
	}

	stock, err := h.marketService.CreateStock(c.Context(), &req)
	if err != nil {
		return serviceError(c, err, "Failed to create stock")
	}

	return response.Created(c, "Stock created successfully", stock)
}

// UpdateStock partially updates a listing
// @Summary Update stock (Admin)
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Stock ID"
// @Param body body services.UpdateStockInput true "Fields to change"
// @Success 200 {object} response.Response{data=models.Stock}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/stocks/{id} [patch]
func (h *StockHandler) UpdateStock(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid stock ID")
	}

	var req services.UpdateStockInput
	if ok, err := bindJSON(c, &req); !ok {
		return err
	}

	stock, err := h.marketService.UpdateStock(c.Context(), id, &req)
	if err != nil {
		return serviceError(c, err, "Failed to update stock")
	}

	return response.Success(c, "Stock updated successfully", stock)
}

// DeleteStock delists a stock
// @Summary Delete stock (Admin)
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Stock ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/stocks/{id} [delete]
func (h *StockHandler) DeleteStock(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid stock ID")
	}

	if err := h.marketService.DeleteStock(c.Context(), id); err != nil {
		return serviceError(c, err, "Failed to delete stock")
	}

	return response.Success(c, "Stock deleted successfully", nil)
}

// ToggleActive flips a listing's active flag
// @Summary Toggle stock active (Admin)
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Stock ID"
// @Success 200 {object} response.Response{data=models.Stock}
// @Failure 404 {object} response.Response
// @Router /admin/stocks/{id}/toggle-active [post]
func (h *StockHandler) ToggleActive(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid stock ID")
	}

	stock, err := h.marketService.ToggleActive(c.Context(), id)
	if err != nil {
		return serviceError(c, err, "Failed to toggle stock")
	}

	return response.Success(c, "Stock updated successfully", stock)
}
