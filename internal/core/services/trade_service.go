package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tikalinvest/internal/adapters/persistence/models"
	"tikalinvest/internal/adapters/persistence/repositories"
	"tikalinvest/internal/config"
	"tikalinvest/internal/core/domain"
	"tikalinvest/internal/pkg/fees"
	"tikalinvest/internal/pkg/logger"
	"tikalinvest/internal/pkg/pagination"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const recentTransactions = 5

// TradeService places buy and sell orders and reads the ledger
type TradeService struct {
	repos *repositories.Repositories
	cfg   *config.Config
	log   zerolog.Logger
}

// NewTradeService creates a new trade service
func NewTradeService(repos *repositories.Repositories, cfg *config.Config) *TradeService {
	return &TradeService{
		repos: repos,
		cfg:   cfg,
		log:   logger.Component("trade"),
	}
}

// TradeInput represents a buy or sell order
type TradeInput struct {
	StockID         uint   `json:"stock_id" validate:"required"`
	TransactionType string `json:"transaction_type" validate:"required,oneof=buy sell"`
	Quantity        int64  `json:"quantity" validate:"required,min=1"`
}

// TradeResult is a settled order
type TradeResult struct {
	Transaction *models.Transaction `json:"transaction"`
	NewBalance  decimal.Decimal     `json:"new_balance"`
}

// ListTransactionsInput represents the ledger query
type ListTransactionsInput struct {
	Page    int
	Limit   int
	Type    string
	Status  string
	StockID *uint
	// Wallet narrows the listing to deposits, withdrawals and bonuses
	Wallet bool
}

// TransactionStats totals the user's completed ledger
type TransactionStats struct {
	TotalTransactions  int64                 `json:"total_transactions"`
	TotalInvested      decimal.Decimal       `json:"total_invested"`
	TotalReceived      decimal.Decimal       `json:"total_received"`
	TotalCommission    decimal.Decimal       `json:"total_commission"`
	NetInvestment      decimal.Decimal       `json:"net_investment"`
	TotalDeposited     decimal.Decimal       `json:"total_deposited"`
	TotalWithdrawn     decimal.Decimal       `json:"total_withdrawn"`
	RecentTransactions []*models.Transaction `json:"recent_transactions"`
}

// Execute settles a buy or sell in one database transaction. The user and
// stock rows are locked so concurrent orders cannot overdraw the balance,
// the float or the holding.
func (s *TradeService) Execute(ctx context.Context, userID uint, input *TradeInput) (*TradeResult, error) {
	side := fees.Side(input.TransactionType)
	if !side.Valid() {
		return nil, fmt.Errorf("%w: transaction_type must be buy or sell", domain.ErrInvalidInput)
	}
	if input.Quantity <= 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, fees.ErrInvalidQuantity)
	}

	var result *TradeResult
	err := s.repos.Transaction(ctx, func(tx *repositories.Repositories) error {
		user, err := tx.Users.GetByIDForUpdate(ctx, userID)
		if err != nil {
			return mapNotFound(err, domain.ErrUserNotFound)
		}
		if err := checkCanTrade(user); err != nil {
			return err
		}

		stock, err := tx.Stocks.GetByIDForUpdate(ctx, input.StockID)
		if err != nil {
			return mapNotFound(err, domain.ErrStockNotFound)
		}
		if !stock.Tradable() {
			return domain.ErrStockNotTradable
		}

		quote, err := s.cfg.Fees.QuoteTrade(side, input.Quantity, stock.CurrentPrice)
		if err != nil {
			return fmt.Errorf("%w: %s", domain.ErrInvalidInput, err)
		}

		position, err := tx.Positions.GetForUpdate(ctx, user.ID, stock.ID)
		if err != nil {
			return err
		}

		switch side {
		case fees.Buy:
			err = s.applyBuy(ctx, tx, user, stock, position, quote)
		case fees.Sell:
			err = s.applySell(ctx, tx, stock, position, quote)
		}
		if err != nil {
			return err
		}

		user.Balance = quote.BalanceAfter(user.Balance)
		if err := tx.Users.Update(ctx, user); err != nil {
			return err
		}

		stock.Volume += quote.Quantity
		stock.LastUpdated = time.Now()
		if err := tx.Stocks.Update(ctx, stock); err != nil {
			return err
		}

		record := &models.Transaction{
			UserID:        user.ID,
			StockID:       &stock.ID,
			Type:          string(side),
			Quantity:      quote.Quantity,
			PricePerShare: quote.Price,
			Commission:    quote.Commission,
			TotalAmount:   quote.Total,
			BalanceAfter:  user.Balance,
			Status:        string(domain.TxCompleted),
		}
		if err := tx.Transactions.Create(ctx, record); err != nil {
			return err
		}
		record.Stock = stock

		result = &TradeResult{Transaction: record, NewBalance: user.Balance}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Uint("user_id", userID).
		Str("side", string(side)).
		Str("symbol", result.Transaction.Stock.Symbol).
		Int64("quantity", input.Quantity).
		Str("total", result.Transaction.TotalAmount.StringFixed(fees.Places)).
		Msg("trade executed")

	return result, nil
}

func (s *TradeService) applyBuy(ctx context.Context, tx *repositories.Repositories, user *models.User, stock *models.Stock, position *models.Position, quote fees.TradeQuote) error {
	if quote.Quantity > stock.AvailableQuantity {
		return fmt.Errorf("%w: %d requested, %d available", domain.ErrStockUnavailable, quote.Quantity, stock.AvailableQuantity)
	}
	if err := fees.CheckBuy(quote, user.Balance); err != nil {
		return wrapFeeError(err)
	}

	if position == nil {
		position = &models.Position{UserID: user.ID, StockID: stock.ID}
	}
	position.AverageCost = fees.AverageCost(position.Quantity, position.AverageCost, quote.Quantity, quote.Price)
	position.Quantity += quote.Quantity
	if err := tx.Positions.Save(ctx, position); err != nil {
		return err
	}

	stock.AvailableQuantity -= quote.Quantity
	return nil
}

func (s *TradeService) applySell(ctx context.Context, tx *repositories.Repositories, stock *models.Stock, position *models.Position, quote fees.TradeQuote) error {
	var held int64
	if position != nil {
		held = position.Quantity
	}
	if err := fees.CheckSell(quote.Quantity, held); err != nil {
		return wrapFeeError(err)
	}

	position.Quantity -= quote.Quantity
	if position.Quantity == 0 {
		if err := tx.Positions.Delete(ctx, position.ID); err != nil {
			return err
		}
	} else if err := tx.Positions.Save(ctx, position); err != nil {
		return err
	}

	stock.AvailableQuantity += quote.Quantity
	return nil
}

// ListTransactions lists the user's ledger, newest first
func (s *TradeService) ListTransactions(ctx context.Context, userID uint, input *ListTransactionsInput) ([]*models.Transaction, *pagination.Meta, error) {
	params := pagination.New(input.Page, input.Limit)

	filter := repositories.TransactionFilter{
		UserID:  &userID,
		StockID: input.StockID,
		Status:  input.Status,
	}
	switch {
	case input.Type != "":
		filter.Types = []string{input.Type}
	case input.Wallet:
		filter.Types = domain.WalletTypes
	}

	txs, total, err := s.repos.Transactions.List(ctx, filter, params.Offset, params.Limit)
	if err != nil {
		return nil, nil, err
	}
	return txs, pagination.GetMeta(params, total), nil
}

// GetTransaction returns one of the user's ledger rows
func (s *TradeService) GetTransaction(ctx context.Context, userID, id uint) (*models.Transaction, error) {
	tx, err := s.repos.Transactions.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, domain.ErrTransactionNotFound)
	}
	if tx.UserID != userID {
		return nil, domain.ErrTransactionNotFound
	}
	return tx, nil
}

// Stats totals the user's completed transactions
func (s *TradeService) Stats(ctx context.Context, userID uint) (*TransactionStats, error) {
	txs, err := s.repos.Transactions.ListAll(ctx, repositories.TransactionFilter{
		UserID: &userID,
		Status: string(domain.TxCompleted),
	})
	if err != nil {
		return nil, err
	}

	stats := &TransactionStats{
		TotalTransactions: int64(len(txs)),
		TotalInvested:     decimal.Zero,
		TotalReceived:     decimal.Zero,
		TotalCommission:   decimal.Zero,
		TotalDeposited:    decimal.Zero,
		TotalWithdrawn:    decimal.Zero,
	}
	for _, t := range txs {
		stats.TotalCommission = stats.TotalCommission.Add(t.Commission)
		switch domain.TransactionType(t.Type) {
		case domain.TxBuy:
			stats.TotalInvested = stats.TotalInvested.Add(t.TotalAmount)
		case domain.TxSell:
			stats.TotalReceived = stats.TotalReceived.Add(t.TotalAmount)
		case domain.TxDeposit:
			stats.TotalDeposited = stats.TotalDeposited.Add(t.TotalAmount)
		case domain.TxWithdrawal:
			stats.TotalWithdrawn = stats.TotalWithdrawn.Add(t.TotalAmount)
		}
	}
	stats.NetInvestment = stats.TotalInvested.Sub(stats.TotalReceived)

	// ListAll is oldest first
	stats.RecentTransactions = make([]*models.Transaction, 0, recentTransactions)
	for i := len(txs) - 1; i >= 0 && len(stats.RecentTransactions) < recentTransactions; i-- {
		stats.RecentTransactions = append(stats.RecentTransactions, txs[i])
	}
	return stats, nil
}

// ============================================================
// Admin
// ============================================================

// ListAllTransactions lists every user's ledger (admin)
func (s *TradeService) ListAllTransactions(ctx context.Context, userID *uint, input *ListTransactionsInput) ([]*models.Transaction, *pagination.Meta, error) {
	params := pagination.New(input.Page, input.Limit)

	filter := repositories.TransactionFilter{UserID: userID, StockID: input.StockID, Status: input.Status}
	if input.Type != "" {
		filter.Types = []string{input.Type}
	}

	txs, total, err := s.repos.Transactions.List(ctx, filter, params.Offset, params.Limit)
	if err != nil {
		return nil, nil, err
	}
	return txs, pagination.GetMeta(params, total), nil
}

// SetStatus changes a ledger row's status (admin). Balances are not
// adjusted; reversals are booked as new rows.
func (s *TradeService) SetStatus(ctx context.Context, id uint, status string) (*models.Transaction, error) {
	if !domain.TransactionStatus(status).Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}
	if err := s.repos.Transactions.UpdateStatus(ctx, id, status); err != nil {
		return nil, mapNotFound(err, domain.ErrTransactionNotFound)
	}

	s.log.Info().Uint("transaction_id", id).Str("status", status).Msg("transaction status changed")
	return s.repos.Transactions.GetByID(ctx, id)
}

// checkCanTrade rejects accounts that may not move money
func checkCanTrade(user *models.User) error {
	status := domain.UserStatus(user.Status)
	switch {
	case status == domain.StatusPending:
		return domain.ErrAccountPending
	case !status.CanTrade():
		return domain.ErrAccountDisabled
	}
	return nil
}

// wrapFeeError maps the fee package's rule errors onto domain errors
func wrapFeeError(err error) error {
	switch {
	case errors.Is(err, fees.ErrInsufficientBalance):
		return fmt.Errorf("%w: %s", domain.ErrInsufficientFunds, unwrapDetail(err))
	case errors.Is(err, fees.ErrInsufficientShares):
		return fmt.Errorf("%w: %s", domain.ErrInsufficientShares, unwrapDetail(err))
	default:
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, err)
	}
}

// unwrapDetail drops the sentinel prefix from a wrapped fee error
func unwrapDetail(err error) string {
	msg := err.Error()
	if inner := errors.Unwrap(err); inner != nil {
		prefix := inner.Error() + ": "
		if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
			return msg[len(prefix):]
		}
	}
	return msg
}
