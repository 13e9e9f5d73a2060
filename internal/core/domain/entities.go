package domain

// Role represents user role in the system
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// UserStatus is the account lifecycle state
type UserStatus string

const (
	StatusPending   UserStatus = "pending"
	StatusActive    UserStatus = "active"
	StatusSuspended UserStatus = "suspended"
	StatusInactive  UserStatus = "inactive"
)

// CanLogin reports whether a user in this state may obtain tokens
func (s UserStatus) CanLogin() bool {
	return s == StatusActive || s == StatusPending
}

// CanTrade reports whether a user in this state may move money or shares
func (s UserStatus) CanTrade() bool {
	return s == StatusActive
}

// TransactionType is the kind of ledger entry
type TransactionType string

const (
	TxBuy           TransactionType = "buy"
	TxSell          TransactionType = "sell"
	TxDeposit       TransactionType = "deposit"
	TxWithdrawal    TransactionType = "withdrawal"
	TxReferralBonus TransactionType = "referral_bonus"
)

// WalletTypes are the ledger entries shown on the wallet page
var WalletTypes = []string{string(TxDeposit), string(TxWithdrawal), string(TxReferralBonus)}

// TradeTypes are the ledger entries that move shares
var TradeTypes = []string{string(TxBuy), string(TxSell)}

// TransactionStatus is the settlement state of a ledger entry
type TransactionStatus string

const (
	TxPending   TransactionStatus = "pending"
	TxCompleted TransactionStatus = "completed"
	TxFailed    TransactionStatus = "failed"
	TxCancelled TransactionStatus = "cancelled"
)

// Valid reports whether s is a known status
func (s TransactionStatus) Valid() bool {
	switch s {
	case TxPending, TxCompleted, TxFailed, TxCancelled:
		return true
	}
	return false
}

// ReportType is the kind of report a user can request
type ReportType string

const (
	ReportTransactionHistory ReportType = "transaction_history"
	ReportProfitLoss         ReportType = "profit_loss"
	ReportPortfolioSummary   ReportType = "portfolio_summary"
)

// ReportStatus is the processing state of a report request
type ReportStatus string

const (
	ReportPending    ReportStatus = "pending"
	ReportProcessing ReportStatus = "processing"
	ReportCompleted  ReportStatus = "completed"
	ReportFailed     ReportStatus = "failed"
)
