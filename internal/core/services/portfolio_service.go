package services

import (
	"context"

	"tikalinvest/internal/adapters/persistence/models"
	"tikalinvest/internal/adapters/persistence/repositories"
	"tikalinvest/internal/core/domain"
	"tikalinvest/internal/pkg/fees"

	"github.com/shopspring/decimal"
)

// PortfolioService values a user's holdings at current prices
type PortfolioService struct {
	repos *repositories.Repositories
}

// NewPortfolioService creates a new portfolio service
func NewPortfolioService(repos *repositories.Repositories) *PortfolioService {
	return &PortfolioService{repos: repos}
}

// PositionView is a holding valued at the stock's current price
type PositionView struct {
	ID                uint            `json:"id"`
	StockID           uint            `json:"stock_id"`
	Symbol            string          `json:"symbol"`
	Name              string          `json:"name"`
	Quantity          int64           `json:"quantity"`
	AverageCost       decimal.Decimal `json:"average_cost"`
	CurrentPrice      decimal.Decimal `json:"current_price"`
	CostBasis         decimal.Decimal `json:"cost_basis"`
	CurrentValue      decimal.Decimal `json:"current_value"`
	ProfitLoss        decimal.Decimal `json:"profit_loss"`
	ProfitLossPercent decimal.Decimal `json:"profit_loss_percent"`
}

// PortfolioSummary totals a user's cash and holdings
type PortfolioSummary struct {
	CashBalance       decimal.Decimal `json:"cash_balance"`
	TotalInvested     decimal.Decimal `json:"total_invested"`
	MarketValue       decimal.Decimal `json:"portfolio_value"`
	TotalValue        decimal.Decimal `json:"total_value"`
	ProfitLoss        decimal.Decimal `json:"total_profit_loss"`
	ProfitLossPercent decimal.Decimal `json:"profit_loss_percent"`
	PositionsCount    int             `json:"positions_count"`
}

// Positions lists the user's holdings
func (s *PortfolioService) Positions(ctx context.Context, userID uint) ([]PositionView, error) {
	positions, err := s.repos.Positions.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return valuePositions(positions), nil
}

// Summary totals the user's portfolio
func (s *PortfolioService) Summary(ctx context.Context, userID uint) (*PortfolioSummary, error) {
	user, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, mapNotFound(err, domain.ErrUserNotFound)
	}

	views, err := s.Positions(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := summarize(user.Balance, views)
	return &summary, nil
}

func valuePositions(positions []*models.Position) []PositionView {
	views := make([]PositionView, 0, len(positions))
	for _, p := range positions {
		qty := decimal.NewFromInt(p.Quantity)
		cost := fees.Round(p.AverageCost.Mul(qty))
		value := fees.Round(p.Stock.CurrentPrice.Mul(qty))
		pl := value.Sub(cost)

		views = append(views, PositionView{
			ID:                p.ID,
			StockID:           p.StockID,
			Symbol:            p.Stock.Symbol,
			Name:              p.Stock.Name,
			Quantity:          p.Quantity,
			AverageCost:       p.AverageCost,
			CurrentPrice:      p.Stock.CurrentPrice,
			CostBasis:         cost,
			CurrentValue:      value,
			ProfitLoss:        pl,
			ProfitLossPercent: percentOf(pl, cost),
		})
	}
	return views
}

func summarize(cash decimal.Decimal, views []PositionView) PortfolioSummary {
	s := PortfolioSummary{
		CashBalance:    cash,
		TotalInvested:  decimal.Zero,
		MarketValue:    decimal.Zero,
		ProfitLoss:     decimal.Zero,
		PositionsCount: len(views),
	}
	for _, v := range views {
		s.TotalInvested = s.TotalInvested.Add(v.CostBasis)
		s.MarketValue = s.MarketValue.Add(v.CurrentValue)
	}
	s.ProfitLoss = s.MarketValue.Sub(s.TotalInvested)
	s.ProfitLossPercent = percentOf(s.ProfitLoss, s.TotalInvested)
	s.TotalValue = cash.Add(s.MarketValue)
	return s
}

func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(decimal.NewFromInt(100)).Round(fees.Places)
}
