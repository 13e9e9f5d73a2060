// Package fees holds the trading and wallet arithmetic shared by the API
// server (authoritative) and the CLI (preview before submit).
package fees

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Places is the number of decimal places money is rounded to.
const Places = 2

var (
	ErrInvalidQuantity     = errors.New("quantity must be greater than zero")
	ErrInvalidPrice        = errors.New("price must be greater than zero")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrBelowMinimum        = errors.New("amount is below the minimum")
	ErrAboveMaximum        = errors.New("amount is above the maximum")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInsufficientShares  = errors.New("insufficient shares")
)

// Side is the direction of a trade.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// Valid reports whether s is a known trade side.
func (s Side) Valid() bool {
	return s == Buy || s == Sell
}

// Rates is the fee schedule published by the server at GET /fees.
type Rates struct {
	TradeCommission decimal.Decimal `json:"trade_commission_rate"`
	DepositFee      decimal.Decimal `json:"deposit_fee_rate"`
	WithdrawalFee   decimal.Decimal `json:"withdrawal_fee_rate"`
	MinDeposit      decimal.Decimal `json:"min_deposit"`
	MaxDeposit      decimal.Decimal `json:"max_deposit"`
	MinWithdrawal   decimal.Decimal `json:"min_withdrawal"`
	ReferralBonus   decimal.Decimal `json:"referral_bonus"`
}

// DefaultRates returns the stock fee schedule.
func DefaultRates() Rates {
	return Rates{
		TradeCommission: decimal.RequireFromString("0.005"),
		DepositFee:      decimal.RequireFromString("0.015"),
		WithdrawalFee:   decimal.RequireFromString("0.02"),
		MinDeposit:      decimal.NewFromInt(10),
		MaxDeposit:      decimal.NewFromInt(50000),
		MinWithdrawal:   decimal.NewFromInt(10),
		ReferralBonus:   decimal.NewFromInt(50),
	}
}

// Round rounds a money amount half away from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// TradeQuote is the cost breakdown of a buy or sell.
type TradeQuote struct {
	Side       Side            `json:"side"`
	Quantity   int64           `json:"quantity"`
	Price      decimal.Decimal `json:"price_per_share"`
	Gross      decimal.Decimal `json:"gross"`
	Commission decimal.Decimal `json:"commission"`
	// Total is debited for a buy and credited for a sell.
	Total decimal.Decimal `json:"total_amount"`
}

// QuoteTrade prices a trade of qty shares at price.
func (r Rates) QuoteTrade(side Side, qty int64, price decimal.Decimal) (TradeQuote, error) {
	if !side.Valid() {
		return TradeQuote{}, fmt.Errorf("unknown trade side %q", side)
	}
	if qty <= 0 {
		return TradeQuote{}, ErrInvalidQuantity
	}
	if !price.IsPositive() {
		return TradeQuote{}, ErrInvalidPrice
	}

	gross := Round(price.Mul(decimal.NewFromInt(qty)))
	commission := Round(gross.Mul(r.TradeCommission))

	total := gross.Add(commission)
	if side == Sell {
		total = gross.Sub(commission)
	}

	return TradeQuote{
		Side:       side,
		Quantity:   qty,
		Price:      price,
		Gross:      gross,
		Commission: commission,
		Total:      total,
	}, nil
}

// BalanceAfter returns the balance once the trade settles.
func (q TradeQuote) BalanceAfter(balance decimal.Decimal) decimal.Decimal {
	if q.Side == Sell {
		return balance.Add(q.Total)
	}
	return balance.Sub(q.Total)
}

// CheckBuy fails when balance cannot cover the quote.
func CheckBuy(q TradeQuote, balance decimal.Decimal) error {
	if q.Total.GreaterThan(balance) {
		return fmt.Errorf("%w: need %s, have %s", ErrInsufficientBalance, q.Total.StringFixed(Places), balance.StringFixed(Places))
	}
	return nil
}

// CheckSell fails when fewer than qty shares are held.
func CheckSell(qty, held int64) error {
	if qty > held {
		return fmt.Errorf("%w: selling %d, holding %d", ErrInsufficientShares, qty, held)
	}
	return nil
}

// DepositQuote is a deposit after the deposit fee is taken out.
type DepositQuote struct {
	Amount decimal.Decimal `json:"amount"`
	Fee    decimal.Decimal `json:"fee"`
	Net    decimal.Decimal `json:"net_amount"`
}

// QuoteDeposit checks the deposit limits and computes the credited amount.
func (r Rates) QuoteDeposit(amount decimal.Decimal) (DepositQuote, error) {
	if !amount.IsPositive() {
		return DepositQuote{}, ErrInvalidAmount
	}
	if amount.LessThan(r.MinDeposit) {
		return DepositQuote{}, fmt.Errorf("%w of %s", ErrBelowMinimum, r.MinDeposit.StringFixed(Places))
	}
	if r.MaxDeposit.IsPositive() && amount.GreaterThan(r.MaxDeposit) {
		return DepositQuote{}, fmt.Errorf("%w of %s", ErrAboveMaximum, r.MaxDeposit.StringFixed(Places))
	}

	amount = Round(amount)
	fee := Round(amount.Mul(r.DepositFee))

	return DepositQuote{
		Amount: amount,
		Fee:    fee,
		Net:    amount.Sub(fee),
	}, nil
}

// WithdrawalQuote is a withdrawal with the fee charged on top.
type WithdrawalQuote struct {
	Amount decimal.Decimal `json:"amount"`
	Fee    decimal.Decimal `json:"fee"`
	Total  decimal.Decimal `json:"total_debit"`
}

// QuoteWithdrawal checks the withdrawal minimum and that balance covers the
// amount plus fee.
func (r Rates) QuoteWithdrawal(amount, balance decimal.Decimal) (WithdrawalQuote, error) {
	if !amount.IsPositive() {
		return WithdrawalQuote{}, ErrInvalidAmount
	}
	if amount.LessThan(r.MinWithdrawal) {
		return WithdrawalQuote{}, fmt.Errorf("%w of %s", ErrBelowMinimum, r.MinWithdrawal.StringFixed(Places))
	}

	amount = Round(amount)
	fee := Round(amount.Mul(r.WithdrawalFee))
	total := amount.Add(fee)

	q := WithdrawalQuote{Amount: amount, Fee: fee, Total: total}
	if total.GreaterThan(balance) {
		return q, fmt.Errorf("%w: need %s (includes fee %s), have %s",
			ErrInsufficientBalance, total.StringFixed(Places), fee.StringFixed(Places), balance.StringFixed(Places))
	}
	return q, nil
}

// AverageCost returns the new average cost per share after buying addQty
// shares at price on top of an existing holding.
func AverageCost(heldQty int64, heldAvg decimal.Decimal, addQty int64, price decimal.Decimal) decimal.Decimal {
	totalQty := heldQty + addQty
	if totalQty <= 0 {
		return decimal.Zero
	}
	cost := heldAvg.Mul(decimal.NewFromInt(heldQty)).Add(price.Mul(decimal.NewFromInt(addQty)))
	return cost.Div(decimal.NewFromInt(totalQty)).Round(4)
}

// ChangePercent is the percentage move from previous to current.
func ChangePercent(previous, current decimal.Decimal) decimal.Decimal {
	if previous.IsZero() {
		return decimal.Zero
	}
	return current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Round(Places)
}
