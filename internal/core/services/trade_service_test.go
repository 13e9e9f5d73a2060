package services

import (
	"context"
	"errors"
	"testing"

	"tikalinvest/internal/adapters/persistence/models"
	"tikalinvest/internal/adapters/persistence/repositories"
	"tikalinvest/internal/adapters/persistence/testdb"
	"tikalinvest/internal/core/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func newTradeService(t *testing.T) (*TradeService, *gorm.DB) {
	t.Helper()
	db := testdb.SetupTestDB(t)
	return NewTradeService(repositories.New(db), testdb.Config()), db
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestBuyStock_Success(t *testing.T) {
	s, db := newTradeService(t)
	user := testdb.CreateTestUser(t, db, "buyer", domain.StatusActive, "10000")
	stock := testdb.CreateTestStock(t, db, "AAPL", "150", 1000)

	result, err := s.Execute(context.Background(), user.ID, &TradeInput{
		StockID: stock.ID, TransactionType: "buy", Quantity: 10,
	})
	if err != nil {
		t.Fatalf("Expected trade to succeed, got error: %v", err)
	}

	// 10 x 150 = 1500, commission 0.5% = 7.50
	tx := result.Transaction
	if !tx.Commission.Equal(dec("7.50")) {
		t.Errorf("Expected commission 7.50, got %s", tx.Commission)
	}
	if !tx.TotalAmount.Equal(dec("1507.50")) {
		t.Errorf("Expected total 1507.50, got %s", tx.TotalAmount)
	}
	if !result.NewBalance.Equal(dec("8492.50")) {
		t.Errorf("Expected balance 8492.50, got %s", result.NewBalance)
	}

	if got := testdb.Reload(t, db, user.ID).Balance; !got.Equal(dec("8492.50")) {
		t.Errorf("Expected stored balance 8492.50, got %s", got)
	}

	var position models.Position
	if err := db.Where("user_id = ? AND stock_id = ?", user.ID, stock.ID).First(&position).Error; err != nil {
		t.Fatalf("Failed to query position: %v", err)
	}
	if position.Quantity != 10 || !position.AverageCost.Equal(dec("150")) {
		t.Errorf("Expected 10 @ 150, got %d @ %s", position.Quantity, position.AverageCost)
	}

	var reloaded models.Stock
	db.First(&reloaded, stock.ID)
	if reloaded.AvailableQuantity != 990 {
		t.Errorf("Expected 990 shares available, got %d", reloaded.AvailableQuantity)
	}
}

func TestBuyStock_InsufficientFunds(t *testing.T) {
	s, db := newTradeService(t)
	user := testdb.CreateTestUser(t, db, "pooruser", domain.StatusActive, "100")
	stock := testdb.CreateTestStock(t, db, "MSFT", "150", 1000)

	_, err := s.Execute(context.Background(), user.ID, &TradeInput{
		StockID: stock.ID, TransactionType: "buy", Quantity: 1,
	})
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("Expected ErrInsufficientFunds, got %v", err)
	}

	if got := testdb.Reload(t, db, user.ID).Balance; !got.Equal(dec("100")) {
		t.Errorf("Expected balance unchanged at 100, got %s", got)
	}

	var count int64
	db.Model(&models.Transaction{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 0 {
		t.Errorf("Expected no transactions, got %d", count)
	}
	db.Model(&models.Position{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 0 {
		t.Errorf("Expected no positions, got %d", count)
	}
}

func TestBuyThenSell_AverageCostAndClose(t *testing.T) {
	s, db := newTradeService(t)
	ctx := context.Background()
	user := testdb.CreateTestUser(t, db, "trader", domain.StatusActive, "10000")
	stock := testdb.CreateTestStock(t, db, "KO", "50", 1000)

	if _, err := s.Execute(ctx, user.ID, &TradeInput{StockID: stock.ID, TransactionType: "buy", Quantity: 10}); err != nil {
		t.Fatalf("first buy: %v", err)
	}

	db.Model(&models.Stock{}).Where("id = ?", stock.ID).Update("current_price", dec("70"))

	if _, err := s.Execute(ctx, user.ID, &TradeInput{StockID: stock.ID, TransactionType: "buy", Quantity: 10}); err != nil {
		t.Fatalf("second buy: %v", err)
	}

	var position models.Position
	db.Where("user_id = ?", user.ID).First(&position)
	if position.Quantity != 20 || !position.AverageCost.Equal(dec("60")) {
		t.Fatalf("Expected 20 @ 60, got %d @ %s", position.Quantity, position.AverageCost)
	}

	_, err := s.Execute(ctx, user.ID, &TradeInput{StockID: stock.ID, TransactionType: "sell", Quantity: 21})
	if !errors.Is(err, domain.ErrInsufficientShares) {
		t.Fatalf("Expected ErrInsufficientShares, got %v", err)
	}

	result, err := s.Execute(ctx, user.ID, &TradeInput{StockID: stock.ID, TransactionType: "sell", Quantity: 20})
	if err != nil {
		t.Fatalf("sell: %v", err)
	}
	// 20 x 70 = 1400, commission 7.00
	if !result.Transaction.TotalAmount.Equal(dec("1393")) {
		t.Errorf("Expected sell proceeds 1393, got %s", result.Transaction.TotalAmount)
	}

	var count int64
	db.Model(&models.Position{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 0 {
		t.Errorf("Expected position to be closed, got %d rows", count)
	}
}

func TestSell_WithoutPosition(t *testing.T) {
	s, db := newTradeService(t)
	user := testdb.CreateTestUser(t, db, "seller", domain.StatusActive, "0")
	stock := testdb.CreateTestStock(t, db, "XOM", "100", 1000)

	_, err := s.Execute(context.Background(), user.ID, &TradeInput{StockID: stock.ID, TransactionType: "sell", Quantity: 1})
	if !errors.Is(err, domain.ErrInsufficientShares) {
		t.Errorf("Expected ErrInsufficientShares, got %v", err)
	}
}

func TestTrade_Rules(t *testing.T) {
	s, db := newTradeService(t)
	ctx := context.Background()
	pending := testdb.CreateTestUser(t, db, "pending", domain.StatusPending, "10000")
	active := testdb.CreateTestUser(t, db, "active", domain.StatusActive, "100000")
	stock := testdb.CreateTestStock(t, db, "TSLA", "200", 5)

	if _, err := s.Execute(ctx, pending.ID, &TradeInput{StockID: stock.ID, TransactionType: "buy", Quantity: 1}); !errors.Is(err, domain.ErrAccountPending) {
		t.Errorf("Expected ErrAccountPending, got %v", err)
	}

	if _, err := s.Execute(ctx, active.ID, &TradeInput{StockID: stock.ID, TransactionType: "buy", Quantity: 6}); !errors.Is(err, domain.ErrStockUnavailable) {
		t.Errorf("Expected ErrStockUnavailable, got %v", err)
	}

	if _, err := s.Execute(ctx, active.ID, &TradeInput{StockID: stock.ID, TransactionType: "buy", Quantity: 0}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for zero quantity, got %v", err)
	}

	db.Model(&models.Stock{}).Where("id = ?", stock.ID).Update("is_tradable", false)
	if _, err := s.Execute(ctx, active.ID, &TradeInput{StockID: stock.ID, TransactionType: "buy", Quantity: 1}); !errors.Is(err, domain.ErrStockNotTradable) {
		t.Errorf("Expected ErrStockNotTradable, got %v", err)
	}

	if _, err := s.Execute(ctx, active.ID, &TradeInput{StockID: 999, TransactionType: "buy", Quantity: 1}); !errors.Is(err, domain.ErrStockNotFound) {
		t.Errorf("Expected ErrStockNotFound, got %v", err)
	}
}

func TestStats(t *testing.T) {
	s, db := newTradeService(t)
	ctx := context.Background()
	user := testdb.CreateTestUser(t, db, "stats", domain.StatusActive, "10000")
	stock := testdb.CreateTestStock(t, db, "JPM", "100", 1000)

	s.Execute(ctx, user.ID, &TradeInput{StockID: stock.ID, TransactionType: "buy", Quantity: 10})
	s.Execute(ctx, user.ID, &TradeInput{StockID: stock.ID, TransactionType: "sell", Quantity: 4})

	stats, err := s.Stats(ctx, user.ID)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalTransactions != 2 {
		t.Errorf("Expected 2 transactions, got %d", stats.TotalTransactions)
	}
	// buy 1000 + 5, sell 400 - 2
	if !stats.TotalInvested.Equal(dec("1005")) || !stats.TotalReceived.Equal(dec("398")) {
		t.Errorf("Unexpected totals: invested %s, received %s", stats.TotalInvested, stats.TotalReceived)
	}
	if !stats.TotalCommission.Equal(dec("7")) {
		t.Errorf("Expected commission 7, got %s", stats.TotalCommission)
	}
	if !stats.NetInvestment.Equal(dec("607")) {
		t.Errorf("Expected net investment 607, got %s", stats.NetInvestment)
	}
	if len(stats.RecentTransactions) != 2 || stats.RecentTransactions[0].Type != "sell" {
		t.Errorf("Expected newest first in recent transactions")
	}
}

func TestGetTransaction_OtherUser(t *testing.T) {
	s, db := newTradeService(t)
	ctx := context.Background()
	owner := testdb.CreateTestUser(t, db, "owner", domain.StatusActive, "10000")
	other := testdb.CreateTestUser(t, db, "other", domain.StatusActive, "0")
	stock := testdb.CreateTestStock(t, db, "AMZN", "100", 1000)

	result, err := s.Execute(ctx, owner.ID, &TradeInput{StockID: stock.ID, TransactionType: "buy", Quantity: 1})
	if err != nil {
		t.Fatalf("buy: %v", err)
	}

	if _, err := s.GetTransaction(ctx, other.ID, result.Transaction.ID); !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Errorf("Expected ErrTransactionNotFound, got %v", err)
	}
	tx, err := s.GetTransaction(ctx, owner.ID, result.Transaction.ID)
	if err != nil || tx.Stock == nil || tx.Stock.Symbol != "AMZN" {
		t.Errorf("Expected owner to read the transaction with its stock, got %+v, %v", tx, err)
	}
}
