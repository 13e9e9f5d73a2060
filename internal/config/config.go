package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"tikalinvest/internal/pkg/fees"
	"tikalinvest/internal/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all configuration for the application
type Config struct {
	AppMode  string
	Port     string
	LogLevel string
	LogJSON  bool
	Database DatabaseConfig
	JWT      JWTConfig
	Cookie   CookieConfig
	Auth     AuthConfig
	Fees     fees.Rates
	Jobs     JobsConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver   string // mysql, postgres or sqlite
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	// Path is the sqlite file, ":memory:" for an in-process database
	Path string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	RefreshSecret    string
	AccessTokenMins  int
	RefreshTokenDays int
}

// AccessTTL is the lifetime of an access token
func (j JWTConfig) AccessTTL() time.Duration {
	return time.Duration(j.AccessTokenMins) * time.Minute
}

// RefreshTTL is the lifetime of a refresh token
func (j JWTConfig) RefreshTTL() time.Duration {
	return time.Duration(j.RefreshTokenDays) * 24 * time.Hour
}

// CookieConfig holds cookie configuration
type CookieConfig struct {
	Secure   bool
	SameSite string
	Domain   string
}

// AuthConfig holds account lifecycle settings
type AuthConfig struct {
	AutoApproveUsers bool
	ResetTokenTTL    time.Duration
	// EchoResetToken returns the reset token in the forgot-password
	// response. Only ever on in dev mode.
	EchoResetToken bool
	AdminEmail     string
	AdminUsername  string
	AdminPassword  string
}

// JobsConfig holds the scheduled job settings (robfig/cron specs)
type JobsConfig struct {
	Enabled         bool
	PriceTickSpec   string
	CloseRollSpec   string
	CleanupSpec     string
	ReportSpec      string
	PriceMaxStep    decimal.Decimal
	PriceFloor      decimal.Decimal
	ReportBatchSize int
}

// Global config instance
var AppConfig *Config

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		logger.Logger.Warn().Msg(".env file not found, using environment variables")
	}

	// Trim spaces for Windows compatibility
	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	rates, err := loadFees()
	if err != nil {
		return nil, err
	}

	jobs, err := loadJobsConfig()
	if err != nil {
		return nil, err
	}

	config := &Config{
		AppMode:  appMode,
		Port:     getEnv("PORT", "8000"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogJSON:  getBool("LOG_JSON", appMode == "prod"),
		Database: loadDatabaseConfig(appMode),
		JWT:      loadJWTConfig(appMode),
		Cookie:   loadCookieConfig(appMode),
		Auth:     loadAuthConfig(appMode),
		Fees:     rates,
		Jobs:     jobs,
	}

	if config.IsProd() && (config.JWT.Secret == defaultJWTSecret || config.JWT.RefreshSecret == defaultRefreshSecret) {
		return nil, fmt.Errorf("PROD_JWT_SECRET and PROD_JWT_REFRESH_SECRET must be set in prod mode")
	}

	// Set global config
	AppConfig = config

	logger.Logger.Info().Str("mode", appMode).Str("db_driver", config.Database.Driver).Msg("configuration loaded")
	return config, nil
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := modePrefix(mode)

	driver := strings.ToLower(getEnv(prefix+"DB_DRIVER", "mysql"))
	defaultPort := "3306"
	if driver == "postgres" {
		defaultPort = "5432"
	}

	return DatabaseConfig{
		Driver:   driver,
		Host:     getEnv(prefix+"DB_HOST", "localhost"),
		Port:     getEnv(prefix+"DB_PORT", defaultPort),
		User:     getEnv(prefix+"DB_USER", "root"),
		Password: getEnv(prefix+"DB_PASS", ""),
		DBName:   getEnv(prefix+"DB_NAME", "tikalinvest"),
		SSLMode:  getEnv(prefix+"DB_SSLMODE", "disable"),
		Path:     getEnv(prefix+"DB_PATH", "tikalinvest.db"),
	}
}

const (
	defaultJWTSecret     = "default_secret"
	defaultRefreshSecret = "default_refresh_secret"
)

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) JWTConfig {
	prefix := modePrefix(mode)

	return JWTConfig{
		Secret:           getEnv(prefix+"JWT_SECRET", defaultJWTSecret),
		RefreshSecret:    getEnv(prefix+"JWT_REFRESH_SECRET", defaultRefreshSecret),
		AccessTokenMins:  getInt("ACCESS_TOKEN_MINUTES", 15),
		RefreshTokenDays: getInt("REFRESH_TOKEN_DAYS", 7),
	}
}

// loadCookieConfig loads cookie config based on mode
func loadCookieConfig(mode string) CookieConfig {
	prefix := modePrefix(mode)

	return CookieConfig{
		Secure:   getBool(prefix+"COOKIE_SECURE", false),
		SameSite: getEnv("COOKIE_SAMESITE", "lax"),
		Domain:   getEnv("COOKIE_DOMAIN", ""),
	}
}

func loadAuthConfig(mode string) AuthConfig {
	return AuthConfig{
		AutoApproveUsers: getBool("AUTO_APPROVE_USERS", false),
		ResetTokenTTL:    time.Duration(getInt("RESET_TOKEN_MINUTES", 60)) * time.Minute,
		EchoResetToken:   mode == "dev" && getBool("ECHO_RESET_TOKEN", true),
		AdminEmail:       getEnv("ADMIN_EMAIL", "admin@tikalinvest.local"),
		AdminUsername:    getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:    getEnv("ADMIN_PASSWORD", ""),
	}
}

// loadFees reads the fee schedule, falling back to the stock rates
func loadFees() (fees.Rates, error) {
	rates := fees.DefaultRates()

	fields := []struct {
		key string
		dst *decimal.Decimal
	}{
		{"TRADE_COMMISSION_RATE", &rates.TradeCommission},
		{"DEPOSIT_FEE_RATE", &rates.DepositFee},
		{"WITHDRAWAL_FEE_RATE", &rates.WithdrawalFee},
		{"MIN_DEPOSIT", &rates.MinDeposit},
		{"MAX_DEPOSIT", &rates.MaxDeposit},
		{"MIN_WITHDRAWAL", &rates.MinWithdrawal},
		{"REFERRAL_BONUS", &rates.ReferralBonus},
	}
	for _, f := range fields {
		v, err := getDecimal(f.key, *f.dst)
		if err != nil {
			return fees.Rates{}, err
		}
		if v.IsNegative() {
			return fees.Rates{}, fmt.Errorf("%s must not be negative", f.key)
		}
		*f.dst = v
	}
	return rates, nil
}

func loadJobsConfig() (JobsConfig, error) {
	step, err := getDecimal("PRICE_MAX_STEP", decimal.RequireFromString("0.03"))
	if err != nil {
		return JobsConfig{}, err
	}
	floor, err := getDecimal("PRICE_FLOOR", decimal.NewFromInt(1))
	if err != nil {
		return JobsConfig{}, err
	}

	return JobsConfig{
		Enabled:         getBool("JOBS_ENABLED", true),
		PriceTickSpec:   getEnv("PRICE_TICK_SPEC", "@every 1m"),
		CloseRollSpec:   getEnv("CLOSE_ROLL_SPEC", "0 0 * * *"),
		CleanupSpec:     getEnv("CLEANUP_SPEC", "@hourly"),
		ReportSpec:      getEnv("REPORT_SPEC", "@every 30s"),
		PriceMaxStep:    step,
		PriceFloor:      floor,
		ReportBatchSize: getInt("REPORT_BATCH_SIZE", 10),
	}, nil
}

func modePrefix(mode string) string {
	if mode == "prod" {
		return "PROD_"
	}
	return "DEV_"
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getDecimal(key string, defaultValue decimal.Decimal) (decimal.Decimal, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return "https://app.tikalinvest.com"
	}
	return origins
}
