package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tikalinvest/internal/adapters/persistence/models"
	"tikalinvest/internal/adapters/persistence/repositories"
	"tikalinvest/internal/core/domain"
	"tikalinvest/internal/pkg/fees"
	"tikalinvest/internal/pkg/logger"
	"tikalinvest/internal/pkg/pagination"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	moversLimit         = 10
	defaultHistoryLimit = 200
	maxHistoryLimit     = 1000
)

// historyWindows maps the chart interval names to look-back windows
var historyWindows = map[string]time.Duration{
	"1d": 24 * time.Hour,
	"1w": 7 * 24 * time.Hour,
	"1m": 30 * 24 * time.Hour,
	"3m": 90 * 24 * time.Hour,
	"1y": 365 * 24 * time.Hour,
}

// MarketService handles stock browsing, the watchlist and stock admin
type MarketService struct {
	repos *repositories.Repositories
	log   zerolog.Logger
}

// NewMarketService creates a new market service
func NewMarketService(repos *repositories.Repositories) *MarketService {
	return &MarketService{
		repos: repos,
		log:   logger.Component("market"),
	}
}

// ListStocksInput represents the stock listing query
type ListStocksInput struct {
	Page     int
	Limit    int
	Search   string
	Market   string
	Category string
	Ordering string
	// IncludeInactive lists delisted stocks too (admin)
	IncludeInactive bool
}

// CreateStockInput represents a new listing
type CreateStockInput struct {
	Symbol            string          `json:"symbol" validate:"required,max=16"`
	Name              string          `json:"name" validate:"required,max=150"`
	Category          string          `json:"category" validate:"max=60"`
	Market            string          `json:"market" validate:"max=30"`
	CurrentPrice      decimal.Decimal `json:"current_price"`
	AvailableQuantity int64           `json:"available_quantity" validate:"gte=0"`
	IsActive          *bool           `json:"is_active"`
	IsTradable        *bool           `json:"is_tradable"`
}

// UpdateStockInput represents a partial stock update. Nil fields are left
// unchanged.
type UpdateStockInput struct {
	Name              *string          `json:"name" validate:"omitempty,max=150"`
	Category          *string          `json:"category" validate:"omitempty,max=60"`
	Market            *string          `json:"market" validate:"omitempty,max=30"`
	CurrentPrice      *decimal.Decimal `json:"current_price"`
	AvailableQuantity *int64           `json:"available_quantity" validate:"omitempty,gte=0"`
	IsActive          *bool            `json:"is_active"`
	IsTradable        *bool            `json:"is_tradable"`
}

// StockHistory is a stock's price series for one interval
type StockHistory struct {
	StockID  uint                 `json:"stock_id"`
	Symbol   string               `json:"symbol"`
	Interval string               `json:"interval"`
	Prices   []*models.StockPrice `json:"prices"`
}

// WatchlistToggle is the result of toggling a stock on the watchlist
type WatchlistToggle struct {
	StockID uint `json:"stock_id"`
	Watched bool `json:"watched"`
}

// ListStocks lists stocks with pagination
func (s *MarketService) ListStocks(ctx context.Context, input *ListStocksInput) ([]*models.Stock, *pagination.Meta, error) {
	params := pagination.New(input.Page, input.Limit)

	stocks, total, err := s.repos.Stocks.List(ctx, repositories.StockFilter{
		Search:     strings.TrimSpace(input.Search),
		Market:     input.Market,
		Category:   input.Category,
		ActiveOnly: !input.IncludeInactive,
		Ordering:   input.Ordering,
	}, params.Offset, params.Limit)
	if err != nil {
		return nil, nil, err
	}
	return stocks, pagination.GetMeta(params, total), nil
}

// GetStock returns one stock. Inactive stocks are hidden unless
// includeInactive is set.
func (s *MarketService) GetStock(ctx context.Context, id uint, includeInactive bool) (*models.Stock, error) {
	stock, err := s.repos.Stocks.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, domain.ErrStockNotFound)
	}
	if !stock.IsActive && !includeInactive {
		return nil, domain.ErrStockNotFound
	}
	return stock, nil
}

// History returns the price series for interval (1d, 1w, 1m, 3m, 1y, all)
func (s *MarketService) History(ctx context.Context, id uint, interval string, limit int) (*StockHistory, error) {
	stock, err := s.GetStock(ctx, id, false)
	if err != nil {
		return nil, err
	}

	interval = strings.ToLower(strings.TrimSpace(interval))
	if interval == "" {
		interval = "1m"
	}

	var since time.Time
	if interval != "all" {
		window, ok := historyWindows[interval]
		if !ok {
			return nil, fmt.Errorf("%w: unknown interval %q", domain.ErrInvalidInput, interval)
		}
		since = time.Now().Add(-window)
	}

	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	prices, err := s.repos.Stocks.History(ctx, stock.ID, since, limit)
	if err != nil {
		return nil, err
	}

	return &StockHistory{
		StockID:  stock.ID,
		Symbol:   stock.Symbol,
		Interval: interval,
		Prices:   prices,
	}, nil
}

// Trending returns the most traded active stocks
func (s *MarketService) Trending(ctx context.Context) ([]*models.Stock, error) {
	return s.repos.Stocks.TopByVolume(ctx, moversLimit)
}

// Gainers returns the active stocks with the largest rise
func (s *MarketService) Gainers(ctx context.Context) ([]*models.Stock, error) {
	return s.repos.Stocks.TopMovers(ctx, moversLimit, false)
}

// Losers returns the active stocks with the largest fall
func (s *MarketService) Losers(ctx context.Context) ([]*models.Stock, error) {
	return s.repos.Stocks.TopMovers(ctx, moversLimit, true)
}

// ============================================================
// Watchlist
// ============================================================

// Watchlist lists the stocks the user follows
func (s *MarketService) Watchlist(ctx context.Context, userID uint) ([]*models.WatchlistItem, error) {
	return s.repos.Watchlist.ListByUser(ctx, userID)
}

// ToggleWatchlist adds the stock to the watchlist, or removes it when it is
// already there
func (s *MarketService) ToggleWatchlist(ctx context.Context, userID, stockID uint) (*WatchlistToggle, error) {
	item, err := s.repos.Watchlist.Get(ctx, userID, stockID)
	if err == nil {
		if err := s.repos.Watchlist.Delete(ctx, item.ID); err != nil {
			return nil, err
		}
		return &WatchlistToggle{StockID: stockID, Watched: false}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if _, err := s.GetStock(ctx, stockID, false); err != nil {
		return nil, err
	}

	if err := s.repos.Watchlist.Create(ctx, &models.WatchlistItem{UserID: userID, StockID: stockID}); err != nil {
		return nil, err
	}
	return &WatchlistToggle{StockID: stockID, Watched: true}, nil
}

// ============================================================
// Admin
// ============================================================

// CreateStock lists a new stock and records its opening price. A deleted
// symbol is listed again on its old row.
func (s *MarketService) CreateStock(ctx context.Context, input *CreateStockInput) (*models.Stock, error) {
	if !input.CurrentPrice.IsPositive() {
		return nil, fmt.Errorf("%w: current_price must be greater than zero", domain.ErrInvalidInput)
	}

	symbol := strings.ToUpper(strings.TrimSpace(input.Symbol))
	previous, err := s.repos.Stocks.GetBySymbolUnscoped(ctx, symbol)
	switch {
	case err == nil && !previous.DeletedAt.Valid:
		return nil, domain.ErrStockExists
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	now := time.Now()
	price := fees.Round(input.CurrentPrice)
	stock := &models.Stock{
		Symbol:            symbol,
		Name:              strings.TrimSpace(input.Name),
		Category:          strings.TrimSpace(input.Category),
		Market:            strings.TrimSpace(input.Market),
		CurrentPrice:      price,
		PreviousClose:     price,
		AvailableQuantity: input.AvailableQuantity,
		IsActive:          boolOr(input.IsActive, true),
		IsTradable:        boolOr(input.IsTradable, true),
		LastUpdated:       now,
	}

	err = s.repos.Transaction(ctx, func(tx *repositories.Repositories) error {
		if previous != nil {
			stock.ID = previous.ID
			stock.CreatedAt = previous.CreatedAt
			if err := tx.Stocks.Restore(ctx, stock); err != nil {
				return err
			}
		} else if err := tx.Stocks.Create(ctx, stock); err != nil {
			return err
		}
		return tx.Stocks.AddPrice(ctx, &models.StockPrice{StockID: stock.ID, Price: price, RecordedAt: now})
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.ErrStockExists
		}
		return nil, err
	}

	s.log.Info().Str("symbol", stock.Symbol).Bool("relisted", previous != nil).Msg("stock created")
	return stock, nil
}

// UpdateStock applies a partial update. A price change is recorded in the
// history and moves change_percent.
func (s *MarketService) UpdateStock(ctx context.Context, id uint, input *UpdateStockInput) (*models.Stock, error) {
	if input.CurrentPrice != nil && !input.CurrentPrice.IsPositive() {
		return nil, fmt.Errorf("%w: current_price must be greater than zero", domain.ErrInvalidInput)
	}

	var stock *models.Stock
	err := s.repos.Transaction(ctx, func(tx *repositories.Repositories) error {
		var err error
		stock, err = tx.Stocks.GetByIDForUpdate(ctx, id)
		if err != nil {
			return mapNotFound(err, domain.ErrStockNotFound)
		}

		if input.Name != nil {
			stock.Name = strings.TrimSpace(*input.Name)
		}
		if input.Category != nil {
			stock.Category = strings.TrimSpace(*input.Category)
		}
		if input.Market != nil {
			stock.Market = strings.TrimSpace(*input.Market)
		}
		if input.AvailableQuantity != nil {
			stock.AvailableQuantity = *input.AvailableQuantity
		}
		if input.IsActive != nil {
			stock.IsActive = *input.IsActive
		}
		if input.IsTradable != nil {
			stock.IsTradable = *input.IsTradable
		}

		if input.CurrentPrice != nil {
			now := time.Now()
			applyPrice(stock, fees.Round(*input.CurrentPrice), now)
			if err := tx.Stocks.AddPrice(ctx, &models.StockPrice{StockID: stock.ID, Price: stock.CurrentPrice, RecordedAt: now}); err != nil {
				return err
			}
		}

		return tx.Stocks.Update(ctx, stock)
	})
	if err != nil {
		return nil, err
	}
	return stock, nil
}

// DeleteStock delists a stock. Ledger rows keep referring to it.
func (s *MarketService) DeleteStock(ctx context.Context, id uint) error {
	if err := s.repos.Stocks.Delete(ctx, id); err != nil {
		return mapNotFound(err, domain.ErrStockNotFound)
	}
	s.log.Info().Uint("stock_id", id).Msg("stock deleted")
	return nil
}

// ToggleActive flips is_active under a row lock. No other column is written.
func (s *MarketService) ToggleActive(ctx context.Context, id uint) (*models.Stock, error) {
	var stock *models.Stock
	err := s.repos.Transaction(ctx, func(tx *repositories.Repositories) error {
		var err error
		stock, err = tx.Stocks.GetByIDForUpdate(ctx, id)
		if err != nil {
			return mapNotFound(err, domain.ErrStockNotFound)
		}

		stock.IsActive = !stock.IsActive
		return tx.Stocks.UpdateFields(ctx, id, map[string]interface{}{"is_active": stock.IsActive})
	})
	if err != nil {
		return nil, err
	}
	return stock, nil
}

// applyPrice moves a stock to price and recomputes change_percent against
// the previous close
func applyPrice(stock *models.Stock, price decimal.Decimal, at time.Time) {
	stock.CurrentPrice = price
	stock.ChangePercent = fees.ChangePercent(stock.PreviousClose, price)
	stock.LastUpdated = at
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
