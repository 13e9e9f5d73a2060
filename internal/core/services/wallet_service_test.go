package services

import (
	"context"
	"errors"
	"testing"

	"tikalinvest/internal/adapters/persistence/repositories"
	"tikalinvest/internal/adapters/persistence/testdb"
	"tikalinvest/internal/core/domain"

	"gorm.io/gorm"
)

func newWalletService(t *testing.T) (*WalletService, *gorm.DB) {
	t.Helper()
	db := testdb.SetupTestDB(t)
	repos := repositories.New(db)
	cfg := testdb.Config()
	return NewWalletService(repos, cfg, NewTradeService(repos, cfg)), db
}

func TestDeposit_DeductsFee(t *testing.T) {
	s, db := newWalletService(t)
	user := testdb.CreateTestUser(t, db, "saver", domain.StatusActive, "0")

	result, err := s.Deposit(context.Background(), user.ID, &DepositInput{Amount: dec("1000"), BankName: "Banco Industrial"})
	if err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if !result.Fee.Equal(dec("15")) {
		t.Errorf("Expected fee 15, got %s", result.Fee)
	}
	if !result.NewBalance.Equal(dec("985")) {
		t.Errorf("Expected balance 985, got %s", result.NewBalance)
	}
	if got := testdb.Reload(t, db, user.ID).Balance; !got.Equal(dec("985")) {
		t.Errorf("Expected stored balance 985, got %s", got)
	}
}

func TestDeposit_Limits(t *testing.T) {
	s, db := newWalletService(t)
	ctx := context.Background()
	user := testdb.CreateTestUser(t, db, "limits", domain.StatusActive, "0")
	pending := testdb.CreateTestUser(t, db, "waiting", domain.StatusPending, "0")

	if _, err := s.Deposit(ctx, user.ID, &DepositInput{Amount: dec("9.99"), BankName: "BI"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("Expected below-minimum deposit to fail, got %v", err)
	}
	if _, err := s.Deposit(ctx, user.ID, &DepositInput{Amount: dec("50000.01"), BankName: "BI"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("Expected above-maximum deposit to fail, got %v", err)
	}
	if _, err := s.Deposit(ctx, pending.ID, &DepositInput{Amount: dec("100"), BankName: "BI"}); !errors.Is(err, domain.ErrAccountPending) {
		t.Errorf("Expected ErrAccountPending, got %v", err)
	}
}

func TestWithdraw_ChargesFeeOnTop(t *testing.T) {
	s, db := newWalletService(t)
	ctx := context.Background()
	user := testdb.CreateTestUser(t, db, "spender", domain.StatusActive, "1000")

	// 1000 requested needs 1020 with the 2% fee
	if _, err := s.Withdraw(ctx, user.ID, &WithdrawalInput{Amount: dec("1000"), BankName: "BI", AccountNumber: "123"}); !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("Expected ErrInsufficientFunds, got %v", err)
	}
	if got := testdb.Reload(t, db, user.ID).Balance; !got.Equal(dec("1000")) {
		t.Fatalf("Expected balance untouched, got %s", got)
	}

	result, err := s.Withdraw(ctx, user.ID, &WithdrawalInput{Amount: dec("500"), BankName: "BI", AccountNumber: "123"})
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if !result.Transaction.TotalAmount.Equal(dec("510")) {
		t.Errorf("Expected debit 510, got %s", result.Transaction.TotalAmount)
	}
	if !result.NewBalance.Equal(dec("490")) {
		t.Errorf("Expected balance 490, got %s", result.NewBalance)
	}
}

func TestOverview_ListsWalletMovementsOnly(t *testing.T) {
	s, db := newWalletService(t)
	ctx := context.Background()
	user := testdb.CreateTestUser(t, db, "mixed", domain.StatusActive, "0")
	stock := testdb.CreateTestStock(t, db, "GOOGL", "10", 100)

	if _, err := s.Deposit(ctx, user.ID, &DepositInput{Amount: dec("1000"), BankName: "BI"}); err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if _, err := s.trades.Execute(ctx, user.ID, &TradeInput{StockID: stock.ID, TransactionType: "buy", Quantity: 1}); err != nil {
		t.Fatalf("buy: %v", err)
	}

	wallet, meta, err := s.Overview(ctx, user.ID, 1, 20)
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if meta.Total != 1 || len(wallet.Transactions) != 1 || wallet.Transactions[0].Type != "deposit" {
		t.Errorf("Expected only the deposit, got %d rows", meta.Total)
	}
	if wallet.Currency != Currency {
		t.Errorf("Expected currency %s, got %s", Currency, wallet.Currency)
	}
}
