package services

import (
	"context"
	"errors"
	"strings"

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

// Currency is the currency balances are held in
const Currency = "GTQ"

// WalletService moves money in and out of a user's cash balance
type WalletService struct {
	repos  *repositories.Repositories
	cfg    *config.Config
	trades *TradeService
	log    zerolog.Logger
}

// NewWalletService creates a new wallet service
func NewWalletService(repos *repositories.Repositories, cfg *config.Config, trades *TradeService) *WalletService {
	return &WalletService{
		repos:  repos,
		cfg:    cfg,
		trades: trades,
		log:    logger.Component("wallet"),
	}
}

// DepositInput represents a deposit form
type DepositInput struct {
	Amount        decimal.Decimal `json:"amount"`
	BankName      string          `json:"bank_name" validate:"required,max=100"`
	AccountNumber string          `json:"account_number" validate:"max=50"`
}

// WithdrawalInput represents a withdrawal form
type WithdrawalInput struct {
	Amount        decimal.Decimal `json:"amount"`
	BankName      string          `json:"bank_name" validate:"required,max=100"`
	AccountNumber string          `json:"account_number" validate:"required,max=50"`
}

// Wallet is the wallet page: balance, fee schedule and recent movements
type Wallet struct {
	Balance      decimal.Decimal       `json:"balance"`
	Currency     string                `json:"currency"`
	Fees         fees.Rates            `json:"fees"`
	Transactions []*models.Transaction `json:"transactions"`
}

// WalletResult is a settled deposit or withdrawal
type WalletResult struct {
	Transaction *models.Transaction `json:"transaction"`
	Fee         decimal.Decimal     `json:"fee"`
	NewBalance  decimal.Decimal     `json:"new_balance"`
}

// Overview returns the balance and a page of wallet movements
func (s *WalletService) Overview(ctx context.Context, userID uint, page, limit int) (*Wallet, *pagination.Meta, error) {
	user, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, mapNotFound(err, domain.ErrUserNotFound)
	}

	txs, meta, err := s.trades.ListTransactions(ctx, userID, &ListTransactionsInput{
		Page:   page,
		Limit:  limit,
		Wallet: true,
	})
	if err != nil {
		return nil, nil, err
	}

	return &Wallet{
		Balance:      user.Balance,
		Currency:     Currency,
		Fees:         s.cfg.Fees,
		Transactions: txs,
	}, meta, nil
}

// Deposit credits the amount less the deposit fee
func (s *WalletService) Deposit(ctx context.Context, userID uint, input *DepositInput) (*WalletResult, error) {
	quote, err := s.cfg.Fees.QuoteDeposit(input.Amount)
	if err != nil {
		return nil, wrapFeeError(err)
	}

	var result *WalletResult
	err = s.repos.Transaction(ctx, func(tx *repositories.Repositories) error {
		user, err := tx.Users.GetByIDForUpdate(ctx, userID)
		if err != nil {
			return mapNotFound(err, domain.ErrUserNotFound)
		}
		if err := checkCanTrade(user); err != nil {
			return err
		}

		user.Balance = user.Balance.Add(quote.Net)
		if err := tx.Users.Update(ctx, user); err != nil {
			return err
		}

		record := &models.Transaction{
			UserID:        user.ID,
			Type:          string(domain.TxDeposit),
			Commission:    quote.Fee,
			TotalAmount:   quote.Amount,
			BalanceAfter:  user.Balance,
			Status:        string(domain.TxCompleted),
			BankName:      strings.TrimSpace(input.BankName),
			AccountNumber: strings.TrimSpace(input.AccountNumber),
		}
		if err := tx.Transactions.Create(ctx, record); err != nil {
			return err
		}

		result = &WalletResult{Transaction: record, Fee: quote.Fee, NewBalance: user.Balance}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Uint("user_id", userID).Str("amount", quote.Amount.StringFixed(fees.Places)).Msg("deposit completed")
	return result, nil
}

// Withdraw debits the amount plus the withdrawal fee
func (s *WalletService) Withdraw(ctx context.Context, userID uint, input *WithdrawalInput) (*WalletResult, error) {
	var result *WalletResult
	err := s.repos.Transaction(ctx, func(tx *repositories.Repositories) error {
		user, err := tx.Users.GetByIDForUpdate(ctx, userID)
		if err != nil {
			return mapNotFound(err, domain.ErrUserNotFound)
		}
		if err := checkCanTrade(user); err != nil {
			return err
		}

		quote, err := s.cfg.Fees.QuoteWithdrawal(input.Amount, user.Balance)
		if err != nil {
			return wrapFeeError(err)
		}

		user.Balance = user.Balance.Sub(quote.Total)
		if err := tx.Users.Update(ctx, user); err != nil {
			return err
		}

		record := &models.Transaction{
			UserID:        user.ID,
			Type:          string(domain.TxWithdrawal),
			Commission:    quote.Fee,
			TotalAmount:   quote.Total,
			BalanceAfter:  user.Balance,
			Status:        string(domain.TxCompleted),
			BankName:      strings.TrimSpace(input.BankName),
			AccountNumber: strings.TrimSpace(input.AccountNumber),
		}
		if err := tx.Transactions.Create(ctx, record); err != nil {
			return err
		}

		result = &WalletResult{Transaction: record, Fee: quote.Fee, NewBalance: user.Balance}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Uint("user_id", userID).Str("total", result.Transaction.TotalAmount.StringFixed(fees.Places)).Msg("withdrawal completed")
	return result, nil
}

// IsRuleViolation reports whether err is a fee or limit rule failure the
// caller can fix by changing the input
func IsRuleViolation(err error) bool {
	return errors.Is(err, domain.ErrInvalidInput) ||
		errors.Is(err, domain.ErrInsufficientFunds) ||
		errors.Is(err, domain.ErrInsufficientShares) ||
		errors.Is(err, domain.ErrStockUnavailable)
}
