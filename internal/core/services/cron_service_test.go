package services

import (
	"context"
	"math/rand"
	"testing"

	"tikalinvest/internal/adapters/persistence/models"
	"tikalinvest/internal/adapters/persistence/repositories"
	"tikalinvest/internal/adapters/persistence/testdb"
)

func TestNextPrice(t *testing.T) {
	floor := dec("1")

	tests := []struct {
		price, step, want string
	}{
		{"100", "0.03", "103"},
		{"100", "-0.03", "97"},
		{"10.01", "0.015", "10.16"},
		{"1.01", "-0.03", "1"},
	}
	for _, tt := range tests {
		got := nextPrice(dec(tt.price), dec(tt.step), floor)
		if !got.Equal(dec(tt.want)) {
			t.Errorf("nextPrice(%s, %s) = %s, want %s", tt.price, tt.step, got, tt.want)
		}
	}
}

func TestTickPrices_RecordsHistory(t *testing.T) {
	db := testdb.SetupTestDB(t)
	repos := repositories.New(db)
	cfg := testdb.Config()
	svc := NewCronService(repos, NewReportService(repos, NewPortfolioService(repos)), cfg.Jobs)
	svc.rng = rand.New(rand.NewSource(1))

	a := testdb.CreateTestStock(t, db, "AAPL", "100", 10)
	testdb.CreateTestStock(t, db, "MSFT", "200", 10)
	db.Model(&models.Stock{}).Where("symbol = ?", "MSFT").Update("is_active", false)

	if err := svc.TickPrices(context.Background()); err != nil {
		t.Fatalf("TickPrices: %v", err)
	}

	var count int64
	db.Model(&models.StockPrice{}).Count(&count)
	if count != 1 {
		t.Fatalf("Expected one price point for the active stock, got %d", count)
	}

	var stock models.Stock
	db.First(&stock, a.ID)
	low, high := dec("97"), dec("103")
	if stock.CurrentPrice.LessThan(low) || stock.CurrentPrice.GreaterThan(high) {
		t.Errorf("Price %s moved more than 3%%", stock.CurrentPrice)
	}
	if want := stock.CurrentPrice.Sub(dec("100")).Round(2); !stock.ChangePercent.Equal(want) {
		t.Errorf("Expected change %s%%, got %s%%", want, stock.ChangePercent)
	}

	if err := svc.RollClose(context.Background()); err != nil {
		t.Fatalf("RollClose: %v", err)
	}
	db.First(&stock, a.ID)
	if !stock.PreviousClose.Equal(stock.CurrentPrice) || !stock.ChangePercent.IsZero() {
		t.Errorf("Expected close rolled, got prev %s cur %s change %s", stock.PreviousClose, stock.CurrentPrice, stock.ChangePercent)
	}
}

func TestStart_RejectsBadSpec(t *testing.T) {
	db := testdb.SetupTestDB(t)
	repos := repositories.New(db)
	cfg := testdb.Config()
	cfg.Jobs.PriceTickSpec = "not a spec"

	svc := NewCronService(repos, NewReportService(repos, NewPortfolioService(repos)), cfg.Jobs)
	if err := svc.Start(); err == nil {
		svc.Stop()
		t.Fatal("Expected an error for an invalid cron spec")
	}
}
