package cli

import (
	"context"
	"fmt"
	"strconv"

	"tikalinvest/internal/client"
	"tikalinvest/internal/pkg/fees"
	"tikalinvest/internal/pkg/validation"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func validateForm(form interface{}) error {
	return validation.Struct(form)
}

func (a *app) tradeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trade",
		Short: "Buy or sell shares at the current price",
	}
	cmd.AddCommand(a.tradeSideCommand(fees.Buy), a.tradeSideCommand(fees.Sell))
	return cmd
}

func (a *app) tradeSideCommand(side fees.Side) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   string(side) + " <stock> <quantity>",
		Short: "Preview, then " + string(side) + " shares",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			qty, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil || qty <= 0 {
				return fmt.Errorf("quantity must be a positive whole number, got %q", args[1])
			}
			user, err := a.requireUser(ctx)
			if err != nil {
				return err
			}
			stock, err := a.resolveStock(ctx, args[0])
			if err != nil {
				return err
			}
			rates, err := a.api.Fees(ctx)
			if err != nil {
				return err
			}

			quote, err := a.quoteTrade(ctx, *rates, side, stock, qty, user.Balance)
			if err != nil {
				return err
			}
			a.printTradeQuote(stock, quote, user.Balance)

			if !yes {
				fmt.Fprintln(a.out, "\nRun again with --yes to submit.")
				return nil
			}

			result, err := a.api.CreateTransaction(ctx, &client.TradeRequest{
				StockID:         stock.ID,
				TransactionType: string(side),
				Quantity:        qty,
			})
			if err != nil {
				return err
			}
			tx := result.Transaction
			fmt.Fprintf(a.out, "\n%s %d %s at %s. Total %s. New balance %s.\n",
				pastTense(side), tx.Quantity, stock.Symbol, money(tx.PricePerShare), money(tx.TotalAmount), money(result.NewBalance))
			a.afterMutation(ctx)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "submit the order without asking")
	return cmd
}

// quoteTrade prices the order and applies the checks the server will make
func (a *app) quoteTrade(ctx context.Context, rates fees.Rates, side fees.Side, stock *client.Stock, qty int64, balance decimal.Decimal) (fees.TradeQuote, error) {
	if !stock.IsActive || !stock.IsTradable {
		return fees.TradeQuote{}, fmt.Errorf("%s is not available for trading", stock.Symbol)
	}
	quote, err := rates.QuoteTrade(side, qty, stock.CurrentPrice)
	if err != nil {
		return fees.TradeQuote{}, err
	}

	if side == fees.Buy {
		if qty > stock.AvailableQuantity {
			return quote, fmt.Errorf("only %d shares of %s are available", stock.AvailableQuantity, stock.Symbol)
		}
		return quote, fees.CheckBuy(quote, balance)
	}

	positions, err := a.api.Portfolio(ctx)
	if err != nil {
		return quote, err
	}
	var held int64
	for _, p := range positions {
		if p.StockID == stock.ID {
			held = p.Quantity
		}
	}
	return quote, fees.CheckSell(qty, held)
}

func (a *app) printTradeQuote(stock *client.Stock, q fees.TradeQuote, balance decimal.Decimal) {
	tw := table(a.out)
	row(tw, "Order", fmt.Sprintf("%s %d %s", q.Side, q.Quantity, stock.Symbol))
	row(tw, "Price per share", money(q.Price))
	row(tw, "Subtotal", money(q.Gross))
	row(tw, "Commission", money(q.Commission))
	if q.Side == fees.Buy {
		row(tw, "Total cost", money(q.Total))
	} else {
		row(tw, "You receive", money(q.Total))
	}
	row(tw, "Balance after", money(q.BalanceAfter(balance)))
	tw.Flush()
}

func pastTense(side fees.Side) string {
	if side == fees.Sell {
		return "Sold"
	}
	return "Bought"
}
