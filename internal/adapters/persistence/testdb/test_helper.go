// Package testdb provides an in-memory database and fixtures for tests.
package testdb

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"tikalinvest/internal/adapters/persistence/models"
	"tikalinvest/internal/config"
	"tikalinvest/internal/core/domain"
	"tikalinvest/internal/pkg/fees"
	"tikalinvest/internal/pkg/password"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Password is the plain password of every fixture user
const Password = "secret123"

var seq int64

// SetupTestDB opens a migrated in-memory sqlite database that is closed
// when the test ends
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	password.Cost = bcrypt.MinCost

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	// every connection to :memory: is its own database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

// Config returns a dev configuration suitable for tests
func Config() *config.Config {
	return &config.Config{
		AppMode: "dev",
		Port:    "0",
		Database: config.DatabaseConfig{
			Driver: "sqlite",
			Path:   ":memory:",
		},
		JWT: config.JWTConfig{
			Secret:           "test_secret",
			RefreshSecret:    "test_refresh_secret",
			AccessTokenMins:  15,
			RefreshTokenDays: 7,
		},
		Auth: config.AuthConfig{
			ResetTokenTTL:  time.Hour,
			EchoResetToken: true,
		},
		Fees: fees.DefaultRates(),
		Jobs: config.JobsConfig{
			PriceTickSpec:   "@every 1m",
			CloseRollSpec:   "@daily",
			CleanupSpec:     "@hourly",
			ReportSpec:      "@every 30s",
			PriceMaxStep:    decimal.RequireFromString("0.03"),
			PriceFloor:      decimal.NewFromInt(1),
			ReportBatchSize: 10,
		},
	}
}

// CreateTestUser creates a user with a unique username and returns it
func CreateTestUser(t *testing.T, db *gorm.DB, username string, status domain.UserStatus, balance string) *models.User {
	t.Helper()

	hashed, err := password.Hash(Password)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	n := atomic.AddInt64(&seq, 1)
	user := &models.User{
		Email:        fmt.Sprintf("%s%d@test.com", username, n),
		Username:     fmt.Sprintf("%s%d", username, n),
		Password:     hashed,
		Role:         string(domain.RoleUser),
		Status:       string(status),
		Balance:      decimal.RequireFromString(balance),
		ReferralCode: fmt.Sprintf("REF%05d", n),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

// CreateTestAdmin creates an active admin
func CreateTestAdmin(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	admin := CreateTestUser(t, db, "admin", domain.StatusActive, "0")
	admin.Role = string(domain.RoleAdmin)
	if err := db.Save(admin).Error; err != nil {
		t.Fatalf("Failed to promote admin: %v", err)
	}
	return admin
}

// CreateTestStock creates an active, tradable stock
func CreateTestStock(t *testing.T, db *gorm.DB, symbol, price string, available int64) *models.Stock {
	t.Helper()

	p := decimal.RequireFromString(price)
	stock := &models.Stock{
		Symbol:            symbol,
		Name:              symbol + " Corp",
		Category:          "Technology",
		Market:            "NASDAQ",
		CurrentPrice:      p,
		PreviousClose:     p,
		AvailableQuantity: available,
		IsActive:          true,
		IsTradable:        true,
		LastUpdated:       time.Now(),
	}
	if err := db.Create(stock).Error; err != nil {
		t.Fatalf("Failed to create test stock: %v", err)
	}
	return stock
}

// Reload reads a fresh copy of a user
func Reload(t *testing.T, db *gorm.DB, userID uint) *models.User {
	t.Helper()

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		t.Fatalf("Failed to reload user %d: %v", userID, err)
	}
	return &user
}
