package services

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"tikalinvest/internal/adapters/persistence/models"
	"tikalinvest/internal/adapters/persistence/repositories"
	"tikalinvest/internal/config"
	"tikalinvest/internal/pkg/fees"
	"tikalinvest/internal/pkg/logger"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// CronService runs the market simulation and housekeeping jobs
type CronService struct {
	cron    *cron.Cron
	repos   *repositories.Repositories
	reports *ReportService
	cfg     config.JobsConfig
	log     zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu  sync.Mutex
	rng *rand.Rand
}

// NewCronService creates a new cron service
func NewCronService(repos *repositories.Repositories, reports *ReportService, cfg config.JobsConfig) *CronService {
	log := logger.Component("cron")
	cl := cronLogger{log: log}

	ctx, cancel := context.WithCancel(context.Background())
	return &CronService{
		cron: cron.New(cron.WithChain(
			cron.Recover(cl),
			cron.SkipIfStillRunning(cl),
		), cron.WithLogger(cl)),
		repos:   repos,
		reports: reports,
		cfg:     cfg,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Start registers every job and starts the scheduler
func (s *CronService) Start() error {
	jobs := []struct {
		name string
		spec string
		run  func(context.Context) error
	}{
		{"price-tick", s.cfg.PriceTickSpec, s.TickPrices},
		{"close-roll", s.cfg.CloseRollSpec, s.RollClose},
		{"cleanup", s.cfg.CleanupSpec, s.Cleanup},
		{"reports", s.cfg.ReportSpec, s.ProcessReports},
	}

	for _, job := range jobs {
		job := job
		if _, err := s.cron.AddFunc(job.spec, func() {
			start := time.Now()
			if err := job.run(s.ctx); err != nil {
				s.log.Error().Err(err).Str("job", job.name).Msg("job failed")
				return
			}
			s.log.Debug().Str("job", job.name).Dur("took", time.Since(start)).Msg("job done")
		}); err != nil {
			return err
		}
		s.log.Info().Str("job", job.name).Str("spec", job.spec).Msg("job scheduled")
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits up to 10s for running jobs
func (s *CronService) Stop() {
	done := s.cron.Stop()
	s.cancel()

	select {
	case <-done.Done():
	case <-time.After(10 * time.Second):
		s.log.Warn().Msg("timed out waiting for jobs to finish")
	}
}

// TickPrices moves every active stock by a random step of at most
// PriceMaxStep, never below PriceFloor, and records the new price
func (s *CronService) TickPrices(ctx context.Context) error {
	stocks, err := s.repos.Stocks.ListActive(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, st := range stocks {
		if err := ctx.Err(); err != nil {
			return err
		}

		step := s.randomStep()
		err := s.repos.Transaction(ctx, func(tx *repositories.Repositories) error {
			stock, err := tx.Stocks.GetByIDForUpdate(ctx, st.ID)
			if err != nil {
				return err
			}

			applyPrice(stock, nextPrice(stock.CurrentPrice, step, s.cfg.PriceFloor), now)
			if err := tx.Stocks.Update(ctx, stock); err != nil {
				return err
			}
			return tx.Stocks.AddPrice(ctx, &models.StockPrice{StockID: stock.ID, Price: stock.CurrentPrice, RecordedAt: now})
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// randomStep returns a fraction in [-PriceMaxStep, PriceMaxStep]
func (s *CronService) randomStep() decimal.Decimal {
	s.mu.Lock()
	f := s.rng.Float64()*2 - 1
	s.mu.Unlock()
	return s.cfg.PriceMaxStep.Mul(decimal.NewFromFloat(f))
}

// nextPrice applies step to price, rounded, and clamps at floor
func nextPrice(price, step, floor decimal.Decimal) decimal.Decimal {
	next := fees.Round(price.Mul(decimal.NewFromInt(1).Add(step)))
	if next.LessThan(floor) {
		return floor
	}
	return next
}

// RollClose sets each active stock's previous close to its current price
func (s *CronService) RollClose(ctx context.Context) error {
	n, err := s.repos.Stocks.RollClose(ctx)
	if err != nil {
		return err
	}
	s.log.Info().Int64("stocks", n).Msg("previous close rolled")
	return nil
}

// Cleanup deletes expired or revoked refresh tokens and used reset tokens
func (s *CronService) Cleanup(ctx context.Context) error {
	tokens, err := s.repos.RefreshTokens.DeleteExpired(ctx)
	if err != nil {
		return err
	}
	resets, err := s.repos.PasswordResets.DeleteExpired(ctx)
	if err != nil {
		return err
	}
	if tokens > 0 || resets > 0 {
		s.log.Info().Int64("refresh_tokens", tokens).Int64("password_resets", resets).Msg("expired tokens deleted")
	}
	return nil
}

// ProcessReports builds a batch of pending reports
func (s *CronService) ProcessReports(ctx context.Context) error {
	n, err := s.reports.ProcessPending(ctx, s.cfg.ReportBatchSize)
	if err != nil {
		return err
	}
	if n > 0 {
		s.log.Info().Int("reports", n).Msg("reports processed")
	}
	return nil
}

// cronLogger adapts zerolog to cron.Logger
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
