package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"tikalinvest/internal/client"

	"github.com/spf13/cobra"
)

type listFlags struct {
	page  int
	limit int
}

func (f *listFlags) bind(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.page, "page", 1, "page number")
	cmd.Flags().IntVar(&f.limit, "limit", 20, "rows per page")
}

func (f *listFlags) params(filters map[string]string) client.ListParams {
	return client.ListParams{Page: f.page, Limit: f.limit, Filters: filters}
}

// resolveStock accepts a stock ID or a symbol
func (a *app) resolveStock(ctx context.Context, arg string) (*client.Stock, error) {
	if id, err := strconv.ParseUint(arg, 10, 64); err == nil {
		return a.api.Stock(ctx, uint(id))
	}

	stocks, _, err := a.api.Stocks(ctx, client.ListParams{Limit: 100, Filters: map[string]string{"search": arg}})
	if err != nil {
		return nil, err
	}
	for i := range stocks {
		if strings.EqualFold(stocks[i].Symbol, arg) {
			return &stocks[i], nil
		}
	}
	return nil, fmt.Errorf("no stock with symbol %q", strings.ToUpper(arg))
}

func (a *app) marketCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "market",
		Short: "Browse listed stocks",
	}

	var lf listFlags
	var search, market, category, ordering string
	list := &cobra.Command{
		Use:   "list",
		Short: "List stocks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stocks, meta, err := a.api.Stocks(cmd.Context(), lf.params(map[string]string{
				"search": search, "market": market, "category": category, "ordering": ordering,
			}))
			if err != nil {
				return err
			}
			printStocks(a.out, stocks)
			printMeta(a.out, meta)
			return nil
		},
	}
	lf.bind(list)
	list.Flags().StringVarP(&search, "search", "s", "", "match symbol or name")
	list.Flags().StringVar(&market, "market", "", "filter by market")
	list.Flags().StringVar(&category, "category", "", "filter by category")
	list.Flags().StringVar(&ordering, "ordering", "", "sort field, prefix with - for descending")

	show := &cobra.Command{
		Use:   "show <stock>",
		Short: "Show one stock by ID or symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.resolveStock(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			tw := table(a.out)
			row(tw, "Symbol", s.Symbol)
			row(tw, "Name", s.Name)
			row(tw, "Market", s.Market)
			row(tw, "Category", s.Category)
			row(tw, "Price", money(s.CurrentPrice))
			row(tw, "Previous close", money(s.PreviousClose))
			row(tw, "Change", percent(s.ChangePercent))
			row(tw, "Volume", s.Volume)
			row(tw, "Available", s.AvailableQuantity)
			row(tw, "Tradable", s.IsTradable && s.IsActive)
			row(tw, "Updated", date(s.LastUpdated))
			tw.Flush()
			return nil
		},
	}

	var interval string
	var limit int
	history := &cobra.Command{
		Use:   "history <stock>",
		Short: "Show a stock's price history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.resolveStock(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			h, err := a.api.StockHistory(cmd.Context(), s.ID, interval, limit)
			if err != nil {
				return err
			}
			if len(h.Prices) == 0 {
				fmt.Fprintln(a.out, "No price history yet.")
				return nil
			}
			tw := table(a.out)
			row(tw, "TIME", "PRICE")
			for _, p := range h.Prices {
				row(tw, date(p.RecordedAt), money(p.Price))
			}
			tw.Flush()
			return nil
		},
	}
	history.Flags().StringVar(&interval, "interval", "", "1d, 1w, 1m, 3m, 1y or all")
	history.Flags().IntVar(&limit, "limit", 0, "maximum points")

	cmd.AddCommand(list, show, history,
		a.stockListCommand("trending", "Most traded stocks", (*client.Client).Trending),
		a.stockListCommand("gainers", "Biggest gains today", (*client.Client).Gainers),
		a.stockListCommand("losers", "Biggest losses today", (*client.Client).Losers),
	)
	return cmd
}

// stockListCommand builds a command over one of the ranking endpoints
func (a *app) stockListCommand(use, short string, fetch func(*client.Client, context.Context) ([]client.Stock, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stocks, err := fetch(a.api, cmd.Context())
			if err != nil {
				return err
			}
			printStocks(a.out, stocks)
			return nil
		},
	}
}

func (a *app) watchlistCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watchlist",
		Short: "Stocks you follow",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Show your watchlist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := a.api.Watchlist(cmd.Context())
			if err != nil {
				return err
			}
			stocks := make([]client.Stock, 0, len(items))
			for _, item := range items {
				if item.Stock != nil {
					stocks = append(stocks, *item.Stock)
				}
			}
			printStocks(a.out, stocks)
			return nil
		},
	}

	toggle := &cobra.Command{
		Use:   "toggle <stock>",
		Short: "Add a stock to the watchlist, or remove it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.resolveStock(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			result, err := a.api.ToggleWatchlist(cmd.Context(), s.ID)
			if err != nil {
				return err
			}
			if result.Watched {
				fmt.Fprintf(a.out, "%s added to your watchlist.\n", s.Symbol)
			} else {
				fmt.Fprintf(a.out, "%s removed from your watchlist.\n", s.Symbol)
			}
			return nil
		},
	}

	cmd.AddCommand(list, toggle)
	return cmd
}
