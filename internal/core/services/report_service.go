package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tikalinvest/internal/adapters/persistence/models"
	"tikalinvest/internal/adapters/persistence/repositories"
	"tikalinvest/internal/core/domain"
	"tikalinvest/internal/pkg/logger"
	"tikalinvest/internal/pkg/validation"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ReportService queues reports and builds them in the background
type ReportService struct {
	repos     *repositories.Repositories
	portfolio *PortfolioService
	log       zerolog.Logger
}

// NewReportService creates a new report service
func NewReportService(repos *repositories.Repositories, portfolio *PortfolioService) *ReportService {
	return &ReportService{
		repos:     repos,
		portfolio: portfolio,
		log:       logger.Component("reports"),
	}
}

// ReportInput represents a report request
type ReportInput struct {
	ReportType string `json:"report_type" validate:"required,oneof=transaction_history profit_loss portfolio_summary"`
	StartDate  string `json:"start_date" validate:"required,date"`
	EndDate    string `json:"end_date" validate:"required,date"`
}

// TransactionHistoryReport is the content of a transaction_history report
type TransactionHistoryReport struct {
	Count        int                   `json:"count"`
	Buys         int                   `json:"buys"`
	Sells        int                   `json:"sells"`
	Deposits     int                   `json:"deposits"`
	Withdrawals  int                   `json:"withdrawals"`
	Commission   decimal.Decimal       `json:"total_commission"`
	Transactions []*models.Transaction `json:"transactions"`
}

// ProfitLossReport is the content of a profit_loss report
type ProfitLossReport struct {
	TotalBought         decimal.Decimal `json:"total_bought"`
	TotalSold           decimal.Decimal `json:"total_sold"`
	TotalCommission     decimal.Decimal `json:"total_commission"`
	NetCashFlow         decimal.Decimal `json:"net_cash_flow"`
	UnrealizedProfit    decimal.Decimal `json:"unrealized_profit_loss"`
	UnrealizedProfitPct decimal.Decimal `json:"unrealized_profit_loss_percent"`
}

// PortfolioReport is the content of a portfolio_summary report
type PortfolioReport struct {
	Summary   *PortfolioSummary `json:"summary"`
	Positions []PositionView    `json:"positions"`
}

// Request queues a report for the worker
func (s *ReportService) Request(ctx context.Context, userID uint, input *ReportInput) (*models.Report, error) {
	start, end, err := validation.DateRange(input.StartDate, input.EndDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err)
	}

	report := &models.Report{
		UserID:     userID,
		ReportType: input.ReportType,
		StartDate:  start,
		EndDate:    end,
		Status:     string(domain.ReportPending),
	}
	if err := s.repos.Reports.Create(ctx, report); err != nil {
		return nil, err
	}

	s.log.Info().Uint("user_id", userID).Str("type", report.ReportType).Uint("report_id", report.ID).Msg("report requested")
	return report, nil
}

// List lists the user's reports without their content
func (s *ReportService) List(ctx context.Context, userID uint) ([]*models.Report, error) {
	return s.repos.Reports.ListByUser(ctx, userID)
}

// Get returns one of the user's reports
func (s *ReportService) Get(ctx context.Context, userID, id uint) (*models.Report, error) {
	report, err := s.repos.Reports.GetByIDForUser(ctx, id, userID)
	if err != nil {
		return nil, mapNotFound(err, domain.ErrReportNotFound)
	}
	return report, nil
}

// ProcessPending builds up to limit pending reports and returns how many
// were handled
func (s *ReportService) ProcessPending(ctx context.Context, limit int) (int, error) {
	reports, err := s.repos.Reports.ListByStatus(ctx, string(domain.ReportPending), limit)
	if err != nil {
		return 0, err
	}

	for _, report := range reports {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		s.process(ctx, report)
	}
	return len(reports), nil
}

func (s *ReportService) process(ctx context.Context, report *models.Report) {
	report.Status = string(domain.ReportProcessing)
	if err := s.repos.Reports.Update(ctx, report); err != nil {
		s.log.Error().Err(err).Uint("report_id", report.ID).Msg("failed to mark report processing")
		return
	}

	content, err := s.build(ctx, report)
	now := time.Now()
	report.CompletedAt = &now
	if err != nil {
		report.Status = string(domain.ReportFailed)
		report.Error = err.Error()
		s.log.Warn().Err(err).Uint("report_id", report.ID).Msg("report failed")
	} else {
		report.Status = string(domain.ReportCompleted)
		report.Content = string(content)
	}

	if err := s.repos.Reports.Update(ctx, report); err != nil {
		s.log.Error().Err(err).Uint("report_id", report.ID).Msg("failed to save report")
	}
}

func (s *ReportService) build(ctx context.Context, report *models.Report) ([]byte, error) {
	from := localDay(report.StartDate)
	// end_date is inclusive
	to := localDay(report.EndDate).AddDate(0, 0, 1)

	filter := repositories.TransactionFilter{
		UserID: &report.UserID,
		Status: string(domain.TxCompleted),
		From:   &from,
		To:     &to,
	}

	switch domain.ReportType(report.ReportType) {
	case domain.ReportTransactionHistory:
		txs, err := s.repos.Transactions.ListAll(ctx, filter)
		if err != nil {
			return nil, err
		}
		return json.Marshal(transactionHistory(txs))

	case domain.ReportProfitLoss:
		filter.Types = domain.TradeTypes
		txs, err := s.repos.Transactions.ListAll(ctx, filter)
		if err != nil {
			return nil, err
		}
		summary, err := s.portfolio.Summary(ctx, report.UserID)
		if err != nil {
			return nil, err
		}
		return json.Marshal(profitLoss(txs, summary))

	case domain.ReportPortfolioSummary:
		summary, err := s.portfolio.Summary(ctx, report.UserID)
		if err != nil {
			return nil, err
		}
		positions, err := s.portfolio.Positions(ctx, report.UserID)
		if err != nil {
			return nil, err
		}
		return json.Marshal(PortfolioReport{Summary: summary, Positions: positions})
	}

	return nil, fmt.Errorf("unknown report type %q", report.ReportType)
}

func transactionHistory(txs []*models.Transaction) TransactionHistoryReport {
	r := TransactionHistoryReport{
		Count:        len(txs),
		Commission:   decimal.Zero,
		Transactions: txs,
	}
	for _, t := range txs {
		r.Commission = r.Commission.Add(t.Commission)
		switch domain.TransactionType(t.Type) {
		case domain.TxBuy:
			r.Buys++
		case domain.TxSell:
			r.Sells++
		case domain.TxDeposit:
			r.Deposits++
		case domain.TxWithdrawal:
			r.Withdrawals++
		}
	}
	return r
}

func profitLoss(txs []*models.Transaction, summary *PortfolioSummary) ProfitLossReport {
	r := ProfitLossReport{
		TotalBought:         decimal.Zero,
		TotalSold:           decimal.Zero,
		TotalCommission:     decimal.Zero,
		UnrealizedProfit:    summary.ProfitLoss,
		UnrealizedProfitPct: summary.ProfitLossPercent,
	}
	for _, t := range txs {
		r.TotalCommission = r.TotalCommission.Add(t.Commission)
		if t.Type == string(domain.TxBuy) {
			r.TotalBought = r.TotalBought.Add(t.TotalAmount)
		} else {
			r.TotalSold = r.TotalSold.Add(t.TotalAmount)
		}
	}
	r.NetCashFlow = r.TotalSold.Sub(r.TotalBought)
	return r
}

// localDay is midnight, server time, of t's calendar date
func localDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}
