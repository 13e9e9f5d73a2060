package cli

import (
	"fmt"

	"tikalinvest/internal/client"

	"github.com/spf13/cobra"
)

func (a *app) portfolioCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "portfolio",
		Short: "Your holdings and their value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			positions, err := a.api.Portfolio(cmd.Context())
			if err != nil {
				return err
			}
			summary, err := a.api.PortfolioSummary(cmd.Context())
			if err != nil {
				return err
			}

			printPositions(a.out, positions)
			fmt.Fprintln(a.out)
			tw := table(a.out)
			row(tw, "Invested", money(summary.TotalInvested))
			row(tw, "Market value", money(summary.PortfolioValue))
			row(tw, "Cash", money(summary.CashBalance))
			row(tw, "Total", money(summary.TotalValue))
			row(tw, "Profit/Loss", money(summary.TotalProfitLoss)+" ("+percent(summary.ProfitLossPercent)+")")
			tw.Flush()
			return nil
		},
	}
}

func (a *app) walletCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Deposits and withdrawals",
	}

	var lf listFlags
	show := &cobra.Command{
		Use:   "show",
		Short: "Balance, fees and wallet history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, meta, err := a.api.Wallet(cmd.Context(), lf.params(nil))
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Balance: %s\n", money(w.Balance))
			fmt.Fprintf(a.out, "Deposit fee %s%%, minimum %s, maximum %s\n",
				w.Fees.DepositFee.Shift(2).String(), money(w.Fees.MinDeposit), money(w.Fees.MaxDeposit))
			fmt.Fprintf(a.out, "Withdrawal fee %s%%, minimum %s\n\n",
				w.Fees.WithdrawalFee.Shift(2).String(), money(w.Fees.MinWithdrawal))

			txs := make([]client.Transaction, 0, len(w.Transactions))
			for _, t := range w.Transactions {
				txs = append(txs, *t)
			}
			printTransactions(a.out, txs)
			printMeta(a.out, meta)
			return nil
		},
	}
	lf.bind(show)

	var bank, account string
	var yes bool
	deposit := &cobra.Command{
		Use:   "deposit <amount>",
		Short: "Preview, then deposit funds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			if _, err := a.requireUser(ctx); err != nil {
				return err
			}
			rates, err := a.api.Fees(ctx)
			if err != nil {
				return err
			}
			quote, err := rates.QuoteDeposit(amount)
			if err != nil {
				return err
			}

			tw := table(a.out)
			row(tw, "Deposit", money(quote.Amount))
			row(tw, "Fee", money(quote.Fee))
			row(tw, "Credited", money(quote.Net))
			tw.Flush()
			if !yes {
				fmt.Fprintln(a.out, "\nRun again with --yes to submit.")
				return nil
			}

			req := &client.DepositRequest{Amount: quote.Amount, BankName: bank, AccountNumber: account}
			if err := validateForm(req); err != nil {
				return err
			}
			result, err := a.api.Deposit(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "\nDeposited. New balance %s.\n", money(result.NewBalance))
			a.afterMutation(ctx)
			return nil
		},
	}

	withdraw := &cobra.Command{
		Use:   "withdraw <amount>",
		Short: "Preview, then withdraw funds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			user, err := a.requireUser(ctx)
			if err != nil {
				return err
			}
			rates, err := a.api.Fees(ctx)
			if err != nil {
				return err
			}
			quote, err := rates.QuoteWithdrawal(amount, user.Balance)
			if err != nil {
				return err
			}

			tw := table(a.out)
			row(tw, "Withdraw", money(quote.Amount))
			row(tw, "Fee", money(quote.Fee))
			row(tw, "Debited", money(quote.Total))
			row(tw, "Balance after", money(user.Balance.Sub(quote.Total)))
			tw.Flush()
			if !yes {
				fmt.Fprintln(a.out, "\nRun again with --yes to submit.")
				return nil
			}

			req := &client.WithdrawalRequest{Amount: quote.Amount, BankName: bank, AccountNumber: account}
			if err := validateForm(req); err != nil {
				return err
			}
			result, err := a.api.Withdraw(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "\nWithdrawn. New balance %s.\n", money(result.NewBalance))
			a.afterMutation(ctx)
			return nil
		},
	}

	for _, c := range []*cobra.Command{deposit, withdraw} {
		c.Flags().StringVar(&bank, "bank", "", "bank name")
		c.Flags().StringVar(&account, "account", "", "bank account number")
		c.Flags().BoolVarP(&yes, "yes", "y", false, "submit without asking")
	}

	cmd.AddCommand(show, deposit, withdraw)
	return cmd
}
