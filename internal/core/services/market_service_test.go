package services

import (
	"context"
	"errors"
	"testing"

	"tikalinvest/internal/adapters/persistence/models"
	"tikalinvest/internal/adapters/persistence/repositories"
	"tikalinvest/internal/adapters/persistence/testdb"
	"tikalinvest/internal/core/domain"

	"gorm.io/gorm"
)

func newMarketService(t *testing.T) (*MarketService, *gorm.DB) {
	t.Helper()
	db := testdb.SetupTestDB(t)
	return NewMarketService(repositories.New(db)), db
}

func TestToggleWatchlist_AddsThenRemoves(t *testing.T) {
	s, db := newMarketService(t)
	ctx := context.Background()
	user := testdb.CreateTestUser(t, db, "watcher", domain.StatusActive, "0")
	stock := testdb.CreateTestStock(t, db, "AAPL", "150", 100)

	got, err := s.ToggleWatchlist(ctx, user.ID, stock.ID)
	if err != nil {
		t.Fatalf("ToggleWatchlist: %v", err)
	}
	if !got.Watched {
		t.Error("Expected the first toggle to add the stock")
	}

	items, err := s.Watchlist(ctx, user.ID)
	if err != nil {
		t.Fatalf("Watchlist: %v", err)
	}
	if len(items) != 1 || items[0].Stock.Symbol != "AAPL" {
		t.Fatalf("Expected AAPL on the watchlist, got %+v", items)
	}

	got, err = s.ToggleWatchlist(ctx, user.ID, stock.ID)
	if err != nil {
		t.Fatalf("ToggleWatchlist: %v", err)
	}
	if got.Watched {
		t.Error("Expected the second toggle to remove the stock")
	}
	if items, _ := s.Watchlist(ctx, user.ID); len(items) != 0 {
		t.Errorf("Expected an empty watchlist, got %d items", len(items))
	}
}

func TestToggleWatchlist_InactiveStock(t *testing.T) {
	s, db := newMarketService(t)
	user := testdb.CreateTestUser(t, db, "watcher", domain.StatusActive, "0")
	stock := testdb.CreateTestStock(t, db, "OLD", "10", 100)
	db.Model(&models.Stock{}).Where("id = ?", stock.ID).Update("is_active", false)

	if _, err := s.ToggleWatchlist(context.Background(), user.ID, stock.ID); !errors.Is(err, domain.ErrStockNotFound) {
		t.Errorf("Expected ErrStockNotFound, got %v", err)
	}
}

func TestGainersAndLosers(t *testing.T) {
	s, db := newMarketService(t)
	ctx := context.Background()

	moves := map[string]string{"UP1": "2.50", "UP2": "7.00", "FLAT": "0", "DOWN": "-3.25"}
	for symbol, change := range moves {
		stock := testdb.CreateTestStock(t, db, symbol, "100", 10)
		db.Model(&models.Stock{}).Where("id = ?", stock.ID).Update("change_percent", dec(change))
	}
	hidden := testdb.CreateTestStock(t, db, "GONE", "100", 10)
	db.Model(&models.Stock{}).Where("id = ?", hidden.ID).Updates(map[string]interface{}{"change_percent": dec("9"), "is_active": false})

	gainers, err := s.Gainers(ctx)
	if err != nil {
		t.Fatalf("Gainers: %v", err)
	}
	if len(gainers) != 2 || gainers[0].Symbol != "UP2" || gainers[1].Symbol != "UP1" {
		t.Errorf("Expected UP2, UP1, got %v", symbols(gainers))
	}

	losers, err := s.Losers(ctx)
	if err != nil {
		t.Fatalf("Losers: %v", err)
	}
	if len(losers) != 1 || losers[0].Symbol != "DOWN" {
		t.Errorf("Expected DOWN only, got %v", symbols(losers))
	}
}

func TestCreateStock(t *testing.T) {
	s, _ := newMarketService(t)
	ctx := context.Background()

	stock, err := s.CreateStock(ctx, &CreateStockInput{Symbol: " zzz ", Name: "Zeta", CurrentPrice: dec("12.345"), AvailableQuantity: 50})
	if err != nil {
		t.Fatalf("CreateStock: %v", err)
	}
	if stock.Symbol != "ZZZ" || !stock.IsActive || !stock.IsTradable {
		t.Errorf("Unexpected stock %+v", stock)
	}
	if !stock.CurrentPrice.Equal(dec("12.35")) || !stock.PreviousClose.Equal(stock.CurrentPrice) {
		t.Errorf("Expected price and previous close 12.35, got %s/%s", stock.CurrentPrice, stock.PreviousClose)
	}

	history, err := s.History(ctx, stock.ID, "all", 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history.Prices) != 1 {
		t.Errorf("Expected the opening price recorded, got %d points", len(history.Prices))
	}

	if _, err := s.CreateStock(ctx, &CreateStockInput{Symbol: "ZZZ", Name: "Again", CurrentPrice: dec("1")}); !errors.Is(err, domain.ErrStockExists) {
		t.Errorf("Expected ErrStockExists, got %v", err)
	}
	if _, err := s.CreateStock(ctx, &CreateStockInput{Symbol: "NEG", Name: "Bad", CurrentPrice: dec("0")}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for a zero price, got %v", err)
	}
}

func TestCreateStock_RelistsDeletedSymbol(t *testing.T) {
	s, _ := newMarketService(t)
	ctx := context.Background()

	first, err := s.CreateStock(ctx, &CreateStockInput{Symbol: "ZZZ", Name: "Zeta", CurrentPrice: dec("10"), AvailableQuantity: 5})
	if err != nil {
		t.Fatalf("CreateStock: %v", err)
	}
	if err := s.DeleteStock(ctx, first.ID); err != nil {
		t.Fatalf("DeleteStock: %v", err)
	}
	if _, err := s.GetStock(ctx, first.ID, true); !errors.Is(err, domain.ErrStockNotFound) {
		t.Fatalf("Expected deleted stock hidden, got %v", err)
	}

	again, err := s.CreateStock(ctx, &CreateStockInput{Symbol: "zzz", Name: "Zeta Two", CurrentPrice: dec("20"), AvailableQuantity: 8})
	if err != nil {
		t.Fatalf("CreateStock after delete: %v", err)
	}
	if again.ID != first.ID {
		t.Errorf("Expected the old row %d reused, got %d", first.ID, again.ID)
	}

	got, err := s.GetStock(ctx, again.ID, false)
	if err != nil {
		t.Fatalf("GetStock: %v", err)
	}
	if got.Name != "Zeta Two" || !got.CurrentPrice.Equal(dec("20")) || got.AvailableQuantity != 8 {
		t.Errorf("Expected the new listing values, got %+v", got)
	}

	if _, err := s.CreateStock(ctx, &CreateStockInput{Symbol: "ZZZ", Name: "Third", CurrentPrice: dec("1")}); !errors.Is(err, domain.ErrStockExists) {
		t.Errorf("Expected ErrStockExists once relisted, got %v", err)
	}
}

func TestUpdateStock_PriceMovesChangeAndHistory(t *testing.T) {
	s, db := newMarketService(t)
	ctx := context.Background()
	stock := testdb.CreateTestStock(t, db, "AAPL", "100", 10)

	price := dec("110")
	name := "Apple Inc"
	updated, err := s.UpdateStock(ctx, stock.ID, &UpdateStockInput{Name: &name, CurrentPrice: &price})
	if err != nil {
		t.Fatalf("UpdateStock: %v", err)
	}
	if updated.Name != "Apple Inc" || !updated.CurrentPrice.Equal(price) {
		t.Errorf("Unexpected stock %+v", updated)
	}
	if !updated.ChangePercent.Equal(dec("10")) {
		t.Errorf("Expected change_percent 10, got %s", updated.ChangePercent)
	}

	history, err := s.History(ctx, stock.ID, "1d", 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history.Prices) != 1 || !history.Prices[0].Price.Equal(price) {
		t.Errorf("Expected one 110 price point, got %+v", history.Prices)
	}

	// a name-only update records no price
	other := "Apple"
	if _, err := s.UpdateStock(ctx, stock.ID, &UpdateStockInput{Name: &other}); err != nil {
		t.Fatalf("UpdateStock: %v", err)
	}
	if history, _ := s.History(ctx, stock.ID, "all", 0); len(history.Prices) != 1 {
		t.Errorf("Expected still one price point, got %d", len(history.Prices))
	}

	if _, err := s.UpdateStock(ctx, 9999, &UpdateStockInput{Name: &other}); !errors.Is(err, domain.ErrStockNotFound) {
		t.Errorf("Expected ErrStockNotFound, got %v", err)
	}
}

func TestDeleteStock(t *testing.T) {
	s, db := newMarketService(t)
	ctx := context.Background()
	stock := testdb.CreateTestStock(t, db, "DEL", "10", 10)

	if err := s.DeleteStock(ctx, stock.ID); err != nil {
		t.Fatalf("DeleteStock: %v", err)
	}
	if err := s.DeleteStock(ctx, stock.ID); !errors.Is(err, domain.ErrStockNotFound) {
		t.Errorf("Expected ErrStockNotFound on second delete, got %v", err)
	}
	list, meta, err := s.ListStocks(ctx, &ListStocksInput{IncludeInactive: true})
	if err != nil {
		t.Fatalf("ListStocks: %v", err)
	}
	if len(list) != 0 || meta.Total != 0 {
		t.Errorf("Expected deleted stock left out of listings, got %v", symbols(list))
	}
}

func TestToggleActive(t *testing.T) {
	s, db := newMarketService(t)
	ctx := context.Background()
	stock := testdb.CreateTestStock(t, db, "TGL", "10", 10)

	got, err := s.ToggleActive(ctx, stock.ID)
	if err != nil {
		t.Fatalf("ToggleActive: %v", err)
	}
	if got.IsActive {
		t.Error("Expected the stock deactivated")
	}
	if _, err := s.GetStock(ctx, stock.ID, false); !errors.Is(err, domain.ErrStockNotFound) {
		t.Errorf("Expected inactive stock hidden, got %v", err)
	}

	if got, _ := s.ToggleActive(ctx, stock.ID); got == nil || !got.IsActive {
		t.Error("Expected the stock active again")
	}
	if _, err := s.ToggleActive(ctx, 9999); !errors.Is(err, domain.ErrStockNotFound) {
		t.Errorf("Expected ErrStockNotFound, got %v", err)
	}
}

func TestToggleActive_KeepsConcurrentQuantityChange(t *testing.T) {
	s, db := newMarketService(t)
	stock := testdb.CreateTestStock(t, db, "RACE", "10", 100)

	// a buy of 10 shares commits after the toggle has read the row
	afterFirstRead(t, db, "stocks", "UPDATE stocks SET available_quantity = available_quantity - 10 WHERE id = ?", stock.ID)

	if _, err := s.ToggleActive(context.Background(), stock.ID); err != nil {
		t.Fatalf("ToggleActive: %v", err)
	}

	var reloaded models.Stock
	if err := db.First(&reloaded, stock.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.AvailableQuantity != 90 {
		t.Errorf("Expected available quantity 90, got %d", reloaded.AvailableQuantity)
	}
	if reloaded.IsActive {
		t.Error("Expected the stock deactivated")
	}
}

func symbols(stocks []*models.Stock) []string {
	out := make([]string, 0, len(stocks))
	for _, s := range stocks {
		out = append(out, s.Symbol)
	}
	return out
}
