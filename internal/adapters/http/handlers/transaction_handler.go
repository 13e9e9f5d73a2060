package handlers

import (
	"tikalinvest/internal/core/services"
	"tikalinvest/internal/pkg/pagination"
	"tikalinvest/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// TransactionHandler handles trading and ledger endpoints
type TransactionHandler struct {
	tradeService *services.TradeService
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(tradeService *services.TradeService) *TransactionHandler {
	return &TransactionHandler{tradeService: tradeService}
}

// StatusRequest represents an admin status change
type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending completed failed cancelled"`
}

// Create executes a buy or sell
// @Summary Buy or sell shares
// @Tags Transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.TradeInput true "Order"
// @Success 201 {object} response.Response{data=services.TradeResult}
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /transactions [post]
func (h *TransactionHandler) Create(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req services.TradeInput
	if ok, err := bindJSON(c, &req); !ok {
		return err
	}

	result, err := h.tradeService.Execute(c.Context(), userID, &req)
	if err != nil {
		return serviceError(c, err, "Failed to execute trade")
	}

	return response.Created(c, "Trade executed successfully", result)
}

// List lists the caller's ledger
// @Summary My transactions
// @Tags Transactions
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param transaction_type query string false "buy, sell, deposit, withdrawal or referral_bonus"
// @Param status query string false "Status"
// @Param stock query int false "Stock ID"
// @Success 200 {object} response.Response
// @Router /transactions [get]
func (h *TransactionHandler) List(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	input, ok := listInput(c)
	if !ok {
		return response.BadRequest(c, "Invalid stock ID")
	}

	txs, meta, err := h.tradeService.ListTransactions(c.Context(), userID, input)
	if err != nil {
		return serviceError(c, err, "Failed to list transactions")
	}

	return response.Paginated(c, "Transactions retrieved successfully", txs, meta)
}

// Get returns one of the caller's ledger rows
// @Summary Get transaction
// @Tags Transactions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Transaction ID"
// @Success 200 {object} response.Response{data=models.Transaction}
// @Failure 404 {object} response.Response
// @Router /transactions/{id} [get]
func (h *TransactionHandler) Get(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid transaction ID")
	}

	tx, err := h.tradeService.GetTransaction(c.Context(), userID, id)
	if err != nil {
		return serviceError(c, err, "Failed to get transaction")
	}

	return response.Success(c, "Transaction retrieved successfully", tx)
}

// Stats totals the caller's completed ledger
// @Summary Transaction statistics
// @Tags Transactions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=services.TransactionStats}
// @Router /transactions/stats [get]
func (h *TransactionHandler) Stats(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	stats, err := h.tradeService.Stats(c.Context(), userID)
	if err != nil {
		return serviceError(c, err, "Failed to get transaction stats")
	}

	return response.Success(c, "Transaction stats retrieved successfully", stats)
}

// AdminList lists every ledger row
// @Summary List all transactions (Admin)
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param user query int false "User ID"
// @Param transaction_type query string false "Type"
// @Param status query string false "Status"
// @Param stock query int false "Stock ID"
// @Success 200 {object} response.Response
// @Router /admin/transactions [get]
func (h *TransactionHandler) AdminList(c *fiber.Ctx) error {
	userID, ok := queryUint(c, "user")
	if !ok {
		return response.BadRequest(c, "Invalid user ID")
	}
	input, ok := listInput(c)
	if !ok {
		return response.BadRequest(c, "Invalid stock ID")
	}

	txs, meta, err := h.tradeService.ListAllTransactions(c.Context(), userID, input)
	if err != nil {
		return serviceError(c, err, "Failed to list transactions")
	}

	return response.Paginated(c, "Transactions retrieved successfully", txs, meta)
}

// SetStatus changes a ledger row's status
// @Summary Set transaction status (Admin)
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Transaction ID"
// @Param body body StatusRequest true "New status"
// @Success 200 {object} response.Response{data=models.Transaction}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/transactions/{id}/status [put]
func (h *TransactionHandler) SetStatus(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid transaction ID")
	}

	var req StatusRequest
	if ok, err := bindJSON(c, &req); !ok {
		return err
	}

	tx, err := h.tradeService.SetStatus(c.Context(), id, req.Status)
	if err != nil {
		return serviceError(c, err, "Failed to update transaction")
	}

	return response.Success(c, "Transaction updated successfully", tx)
}

func listInput(c *fiber.Ctx) (*services.ListTransactionsInput, bool) {
	stockID, ok := queryUint(c, "stock")
	if !ok {
		return nil, false
	}
	params := pagination.GetParams(c)
	return &services.ListTransactionsInput{
		Page:    params.Page,
		Limit:   params.Limit,
		Type:    c.Query("transaction_type"),
		Status:  c.Query("status"),
		StockID: stockID,
	}, true
}
