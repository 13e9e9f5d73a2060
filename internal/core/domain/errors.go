package domain

import "errors"

// Common domain errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrDuplicateEntry     = errors.New("duplicate entry")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrTokenRevoked       = errors.New("token revoked")
)

// User errors
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrUserAlreadyExists   = errors.New("user already exists")
	ErrInvalidPassword     = errors.New("invalid password")
	ErrOldPasswordWrong    = errors.New("old password is incorrect")
	ErrInvalidReferralCode = errors.New("invalid referral code")
	ErrAccountPending      = errors.New("account pending approval")
	ErrAccountDisabled     = errors.New("account is suspended or inactive")
	ErrInvalidStatusChange = errors.New("invalid status change")
)

// Market errors
var (
	ErrStockNotFound      = errors.New("stock not found")
	ErrStockExists        = errors.New("stock symbol already exists")
	ErrStockNotTradable   = errors.New("stock is not available for trading")
	ErrStockUnavailable   = errors.New("not enough shares available")
	ErrInsufficientFunds  = errors.New("insufficient balance")
	ErrInsufficientShares = errors.New("insufficient shares")
)

// Ledger and report errors
var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrReportNotFound      = errors.New("report not found")
)
