package config

import (
	"errors"
	"time"

	"tikalinvest/internal/adapters/persistence/models"
	"tikalinvest/internal/core/domain"
	"tikalinvest/internal/pkg/logger"
	"tikalinvest/internal/pkg/password"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db  *gorm.DB
	cfg *Config
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, cfg *Config) *Seeder {
	return &Seeder{db: db, cfg: cfg}
}

// Run executes all seeders. Each seeder is a no-op when its rows exist.
func (s *Seeder) Run() error {
	log := logger.Component("seeder")

	if err := s.seedAdminUser(); err != nil {
		log.Warn().Err(err).Msg("admin seeder skipped")
	}
	if err := s.seedStocks(); err != nil {
		return err
	}

	log.Info().Msg("database seeding completed")
	return nil
}

// seedAdminUser creates the first admin from ADMIN_* settings
func (s *Seeder) seedAdminUser() error {
	var count int64
	if err := s.db.Model(&models.User{}).Where("role = ?", domain.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if s.cfg.Auth.AdminPassword == "" {
		return errors.New("ADMIN_PASSWORD not set")
	}

	hashed, err := password.Hash(s.cfg.Auth.AdminPassword)
	if err != nil {
		return err
	}

	admin := &models.User{
		Email:         s.cfg.Auth.AdminEmail,
		Username:      s.cfg.Auth.AdminUsername,
		Password:      hashed,
		FullName:      "Administrator",
		Role:          string(domain.RoleAdmin),
		Status:        string(domain.StatusActive),
		ReferralCode:  "ADMIN000",
		EmailVerified: true,
	}
	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	logger.Logger.Info().Str("username", admin.Username).Msg("admin user created")
	return nil
}

type seedStock struct {
	symbol, name, category, market, price string
	quantity                              int64
}

var sampleStocks = []seedStock{
	{"AAPL", "Apple Inc.", "Technology", "NASDAQ", "189.50", 100000},
	{"MSFT", "Microsoft Corporation", "Technology", "NASDAQ", "402.10", 80000},
	{"GOOGL", "Alphabet Inc.", "Technology", "NASDAQ", "141.80", 90000},
	{"AMZN", "Amazon.com Inc.", "Consumer", "NASDAQ", "155.20", 90000},
	{"TSLA", "Tesla Inc.", "Automotive", "NASDAQ", "212.40", 70000},
	{"JPM", "JPMorgan Chase & Co.", "Finance", "NYSE", "172.30", 60000},
	{"KO", "The Coca-Cola Company", "Consumer", "NYSE", "59.90", 120000},
	{"XOM", "Exxon Mobil Corporation", "Energy", "NYSE", "104.70", 60000},
}

// seedStocks lists a starter market when the stocks table is empty
func (s *Seeder) seedStocks() error {
	var count int64
	if err := s.db.Model(&models.Stock{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now()
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, st := range sampleStocks {
			price := decimal.RequireFromString(st.price)
			stock := &models.Stock{
				Symbol:            st.symbol,
				Name:              st.name,
				Category:          st.category,
				Market:            st.market,
				CurrentPrice:      price,
				PreviousClose:     price,
				AvailableQuantity: st.quantity,
				IsActive:          true,
				IsTradable:        true,
				LastUpdated:       now,
			}
			if err := tx.Create(stock).Error; err != nil {
				return err
			}
			if err := tx.Create(&models.StockPrice{StockID: stock.ID, Price: price, RecordedAt: now}).Error; err != nil {
				return err
			}
		}
		logger.Logger.Info().Int("stocks", len(sampleStocks)).Msg("sample stocks seeded")
		return nil
	})
}
