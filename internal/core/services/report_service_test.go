package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"tikalinvest/internal/adapters/persistence/repositories"
	"tikalinvest/internal/adapters/persistence/testdb"
	"tikalinvest/internal/core/domain"
)

func TestReports_RequestAndProcess(t *testing.T) {
	db := testdb.SetupTestDB(t)
	repos := repositories.New(db)
	cfg := testdb.Config()
	trades := NewTradeService(repos, cfg)
	reports := NewReportService(repos, NewPortfolioService(repos))
	ctx := context.Background()

	user := testdb.CreateTestUser(t, db, "reporter", domain.StatusActive, "10000")
	stock := testdb.CreateTestStock(t, db, "AAPL", "100", 1000)
	if _, err := trades.Execute(ctx, user.ID, &TradeInput{StockID: stock.ID, TransactionType: "buy", Quantity: 5}); err != nil {
		t.Fatalf("buy: %v", err)
	}

	today := time.Now().Format("2006-01-02")
	report, err := reports.Request(ctx, user.ID, &ReportInput{
		ReportType: string(domain.ReportTransactionHistory), StartDate: today, EndDate: today,
	})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if report.Status != string(domain.ReportPending) {
		t.Fatalf("Expected pending report, got %s", report.Status)
	}

	n, err := reports.ProcessPending(ctx, 10)
	if err != nil || n != 1 {
		t.Fatalf("ProcessPending: %d, %v", n, err)
	}

	done, err := reports.Get(ctx, user.ID, report.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if done.Status != string(domain.ReportCompleted) || done.CompletedAt == nil {
		t.Fatalf("Expected completed report, got %s (%s)", done.Status, done.Error)
	}

	var content TransactionHistoryReport
	if err := json.Unmarshal([]byte(done.Content), &content); err != nil {
		t.Fatalf("content is not JSON: %v", err)
	}
	if content.Count != 1 || content.Buys != 1 {
		t.Errorf("Expected one buy in report, got %+v", content)
	}

	if n, _ := reports.ProcessPending(ctx, 10); n != 0 {
		t.Errorf("Expected nothing left to process, got %d", n)
	}
}

func TestReports_RejectsBadRangeAndForeignAccess(t *testing.T) {
	db := testdb.SetupTestDB(t)
	repos := repositories.New(db)
	reports := NewReportService(repos, NewPortfolioService(repos))
	ctx := context.Background()
	user := testdb.CreateTestUser(t, db, "owner", domain.StatusActive, "0")
	other := testdb.CreateTestUser(t, db, "other", domain.StatusActive, "0")

	_, err := reports.Request(ctx, user.ID, &ReportInput{
		ReportType: string(domain.ReportProfitLoss), StartDate: "2024-02-01", EndDate: "2024-01-01",
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for reversed range, got %v", err)
	}

	report, err := reports.Request(ctx, user.ID, &ReportInput{
		ReportType: string(domain.ReportPortfolioSummary), StartDate: "2024-01-01", EndDate: "2024-01-31",
	})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if _, err := reports.Get(ctx, other.ID, report.ID); !errors.Is(err, domain.ErrReportNotFound) {
		t.Errorf("Expected ErrReportNotFound, got %v", err)
	}
}
