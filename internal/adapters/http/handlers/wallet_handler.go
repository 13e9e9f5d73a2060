package handlers

import (
	"tikalinvest/internal/core/services"
	"tikalinvest/internal/pkg/pagination"
	"tikalinvest/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// WalletHandler handles deposit and withdrawal endpoints
type WalletHandler struct {
	walletService *services.WalletService
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(walletService *services.WalletService) *WalletHandler {
	return &WalletHandler{walletService: walletService}
}

// Overview returns the balance, fee schedule and wallet movements
// @Summary My wallet
// @Tags Wallet
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response{data=services.Wallet}
// @Router /wallet [get]
func (h *WalletHandler) Overview(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	params := pagination.GetParams(c)
	wallet, meta, err := h.walletService.Overview(c.Context(), userID, params.Page, params.Limit)
	if err != nil {
		return serviceError(c, err, "Failed to get wallet")
	}
	return response.Paginated(c, "Wallet retrieved successfully", wallet, meta)
}

// Deposit credits the amount less the deposit fee
// @Summary Deposit funds
// @Tags Wallet
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.DepositInput true "Deposit"
// @Success 201 {object} response.Response{data=services.WalletResult}
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /wallet/deposit [post]
func (h *WalletHandler) Deposit(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req services.DepositInput
	if ok, err := bindJSON(c, &req); !ok {
		return err
	}

	result, err := h.walletService.Deposit(c.Context(), userID, &req)
	if err != nil {
		return serviceError(c, err, "Failed to deposit")
	}
	return response.Created(c, "Deposit completed successfully", result)
}

// Withdraw debits the amount plus the withdrawal fee
// @Summary Withdraw funds
// @Tags Wallet
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.WithdrawalInput true "Withdrawal"
// @Success 201 {object} response.Response{data=services.WalletResult}
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /wallet/withdrawal [post]
func (h *WalletHandler) Withdraw(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req services.WithdrawalInput
	if ok, err := bindJSON(c, &req); !ok {
		return err
	}

	result, err := h.walletService.Withdraw(c.Context(), userID, &req)
	if err != nil {
		return serviceError(c, err, "Failed to withdraw")
	}
	return response.Created(c, "Withdrawal completed successfully", result)
}
