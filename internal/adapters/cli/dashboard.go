package cli

import (
	"fmt"

	"tikalinvest/internal/client"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func (a *app) dashboardCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Balance, holdings, recent activity and trending stocks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.requireUser(cmd.Context())
			if err != nil {
				return err
			}

			var (
				stats     *client.DashboardStats
				positions []client.Position
				recent    []client.Transaction
				trending  []client.Stock
			)
			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() (err error) {
				stats, err = a.api.DashboardStats(ctx)
				return err
			})
			g.Go(func() (err error) {
				positions, err = a.api.Portfolio(ctx)
				return err
			})
			g.Go(func() (err error) {
				recent, _, err = a.api.Transactions(ctx, client.ListParams{Limit: 5})
				return err
			})
			g.Go(func() (err error) {
				trending, err = a.api.Trending(ctx)
				return err
			})
			if err := g.Wait(); err != nil {
				return err
			}

			fmt.Fprintf(a.out, "Hello, %s (%s)\n\n", user.Username, stats.Status)
			tw := table(a.out)
			row(tw, "Cash", money(stats.Balance))
			row(tw, "Portfolio", money(stats.PortfolioValue))
			row(tw, "Total", money(stats.TotalValue))
			row(tw, "Profit/Loss", money(stats.TotalProfitLoss)+" ("+percent(stats.ProfitLossPercent)+")")
			row(tw, "Watching", stats.WatchlistCount)
			tw.Flush()

			fmt.Fprintln(a.out, "\nHoldings")
			printPositions(a.out, positions)
			fmt.Fprintln(a.out, "\nRecent transactions")
			printTransactions(a.out, recent)
			fmt.Fprintln(a.out, "\nTrending")
			printStocks(a.out, trending)
			return nil
		},
	}
}
