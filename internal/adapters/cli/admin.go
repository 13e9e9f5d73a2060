package cli

import (
	"fmt"

	"tikalinvest/internal/client"

	"github.com/spf13/cobra"
)

type runE func(cmd *cobra.Command, args []string) error

// adminOnly guards fn with a local role check. The server enforces it too.
func (a *app) adminOnly(fn runE) runE {
	return func(cmd *cobra.Command, args []string) error {
		if err := a.requireAdmin(cmd.Context()); err != nil {
			return err
		}
		return fn(cmd, args)
	}
}

func (a *app) adminCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Back-office tools for administrators",
	}
	cmd.AddCommand(
		a.adminUsersCommand(),
		a.adminStocksCommand(),
		a.adminTransactionsCommand(),
		&cobra.Command{
			Use:   "dashboard",
			Short: "System overview",
			Args:  cobra.NoArgs,
			RunE: a.adminOnly(func(cmd *cobra.Command, args []string) error {
				d, err := a.api.AdminDashboard(cmd.Context())
				if err != nil {
					return err
				}
				tw := table(a.out)
				row(tw, "Users", d.TotalUsers)
				row(tw, "Pending approval", d.PendingUsers)
				row(tw, "New this month", d.NewUsersMonth)
				row(tw, "Customer balances", money(d.TotalCustomers))
				row(tw, "Stocks (active)", fmt.Sprintf("%d (%d)", d.TotalStocks, d.ActiveStocks))
				row(tw, "Transactions", d.TotalTransactions)
				row(tw, "Trades this month", d.TradesThisMonth)
				row(tw, "Volume this month", money(d.VolumeThisMonth))
				row(tw, "Commission this month", money(d.CommissionMonth))
				tw.Flush()

				fmt.Fprintln(a.out, "\nRecent transactions")
				txs := make([]client.Transaction, 0, len(d.RecentTransactions))
				for _, t := range d.RecentTransactions {
					txs = append(txs, *t)
				}
				printTransactions(a.out, txs)
				return nil
			}),
		},
	)
	return cmd
}

func (a *app) adminUsersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Review and approve accounts",
	}

	var lf listFlags
	var status, role, search string
	list := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: a.adminOnly(func(cmd *cobra.Command, args []string) error {
			users, meta, err := a.api.AdminUsers(cmd.Context(), lf.params(map[string]string{
				"status": status, "role": role, "search": search,
			}))
			if err != nil {
				return err
			}
			if len(users) == 0 {
				fmt.Fprintln(a.out, "No users found.")
				return nil
			}
			tw := table(a.out)
			row(tw, "ID", "USERNAME", "EMAIL", "ROLE", "STATUS", "BALANCE", "JOINED")
			for _, u := range users {
				row(tw, u.ID, u.Username, u.Email, u.Role, u.Status, money(u.Balance), date(u.CreatedAt))
			}
			tw.Flush()
			printMeta(a.out, meta)
			return nil
		}),
	}
	lf.bind(list)
	list.Flags().StringVar(&status, "status", "", "pending, active or suspended")
	list.Flags().StringVar(&role, "role", "", "user or admin")
	list.Flags().StringVarP(&search, "search", "s", "", "match username, email or name")

	action := func(use, short, done string, call func(*client.Client, *cobra.Command, uint) (*client.User, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <user-id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: a.adminOnly(func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				user, err := call(a.api, cmd, id)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "%s %s, now %s.\n", user.Username, done, user.Status)
				return nil
			}),
		}
	}

	cmd.AddCommand(list,
		action("approve", "Approve a pending account", "approved", func(c *client.Client, cmd *cobra.Command, id uint) (*client.User, error) {
			return c.ApproveUser(cmd.Context(), id)
		}),
		action("suspend", "Suspend an account", "suspended", func(c *client.Client, cmd *cobra.Command, id uint) (*client.User, error) {
			return c.SuspendUser(cmd.Context(), id)
		}),
		action("activate", "Re-activate a suspended account", "activated", func(c *client.Client, cmd *cobra.Command, id uint) (*client.User, error) {
			return c.ActivateUser(cmd.Context(), id)
		}),
	)
	return cmd
}

func (a *app) adminStocksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stocks",
		Short: "Manage listings",
	}

	var lf listFlags
	var search string
	list := &cobra.Command{
		Use:   "list",
		Short: "List every stock, inactive ones included",
		Args:  cobra.NoArgs,
		RunE: a.adminOnly(func(cmd *cobra.Command, args []string) error {
			stocks, meta, err := a.api.AdminStocks(cmd.Context(), lf.params(map[string]string{"search": search}))
			if err != nil {
				return err
			}
			if len(stocks) == 0 {
				fmt.Fprintln(a.out, "No stocks found.")
				return nil
			}
			tw := table(a.out)
			row(tw, "ID", "SYMBOL", "NAME", "PRICE", "AVAILABLE", "ACTIVE", "TRADABLE")
			for _, s := range stocks {
				row(tw, s.ID, s.Symbol, s.Name, money(s.CurrentPrice), s.AvailableQuantity, s.IsActive, s.IsTradable)
			}
			tw.Flush()
			printMeta(a.out, meta)
			return nil
		}),
	}
	lf.bind(list)
	list.Flags().StringVarP(&search, "search", "s", "", "match symbol or name")

	var in client.StockInput
	var price string
	create := &cobra.Command{
		Use:   "create <symbol> <name>",
		Short: "List a new stock",
		Args:  cobra.ExactArgs(2),
		RunE: a.adminOnly(func(cmd *cobra.Command, args []string) error {
			in.Symbol, in.Name = args[0], args[1]
			amount, err := parseAmount(price)
			if err != nil {
				return err
			}
			if !amount.IsPositive() {
				return fmt.Errorf("price must be greater than zero")
			}
			in.CurrentPrice = amount
			if err := validateForm(&in); err != nil {
				return err
			}
			stock, err := a.api.CreateStock(cmd.Context(), &in)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Listed %s (id %d) at %s.\n", stock.Symbol, stock.ID, money(stock.CurrentPrice))
			return nil
		}),
	}
	create.Flags().StringVar(&price, "price", "", "opening price")
	create.Flags().Int64Var(&in.AvailableQuantity, "quantity", 0, "shares available to buy")
	create.Flags().StringVar(&in.Category, "category", "", "category")
	create.Flags().StringVar(&in.Market, "market", "", "market")
	_ = create.MarkFlagRequired("price")

	var upd struct {
		name, category, market, price string
		quantity                      int64
		tradable                      bool
	}
	update := &cobra.Command{
		Use:   "update <stock-id>",
		Short: "Change a listing",
		Args:  cobra.ExactArgs(1),
		RunE: a.adminOnly(func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var in client.StockUpdate
			flags := cmd.Flags()
			if flags.Changed("name") {
				in.Name = &upd.name
			}
			if flags.Changed("category") {
				in.Category = &upd.category
			}
			if flags.Changed("market") {
				in.Market = &upd.market
			}
			if flags.Changed("quantity") {
				in.AvailableQuantity = &upd.quantity
			}
			if flags.Changed("tradable") {
				in.IsTradable = &upd.tradable
			}
			if flags.Changed("price") {
				p, err := parseAmount(upd.price)
				if err != nil {
					return err
				}
				in.CurrentPrice = &p
			}
			if in == (client.StockUpdate{}) {
				return fmt.Errorf("nothing to update, pass at least one field flag")
			}

			stock, err := a.api.UpdateStock(cmd.Context(), id, &in)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Updated %s: %s, %d available.\n", stock.Symbol, money(stock.CurrentPrice), stock.AvailableQuantity)
			return nil
		}),
	}
	update.Flags().StringVar(&upd.name, "name", "", "name")
	update.Flags().StringVar(&upd.category, "category", "", "category")
	update.Flags().StringVar(&upd.market, "market", "", "market")
	update.Flags().StringVar(&upd.price, "price", "", "current price")
	update.Flags().Int64Var(&upd.quantity, "quantity", 0, "shares available")
	update.Flags().BoolVar(&upd.tradable, "tradable", true, "whether the stock can be traded")

	del := &cobra.Command{
		Use:   "delete <stock-id>",
		Short: "Remove a listing",
		Args:  cobra.ExactArgs(1),
		RunE: a.adminOnly(func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.api.DeleteStock(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Stock deleted.")
			return nil
		}),
	}

	toggle := &cobra.Command{
		Use:   "toggle <stock-id>",
		Short: "Activate or deactivate a listing",
		Args:  cobra.ExactArgs(1),
		RunE: a.adminOnly(func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			stock, err := a.api.ToggleStock(cmd.Context(), id)
			if err != nil {
				return err
			}
			state := "inactive"
			if stock.IsActive {
				state = "active"
			}
			fmt.Fprintf(a.out, "%s is now %s.\n", stock.Symbol, state)
			return nil
		}),
	}

	cmd.AddCommand(list, create, update, del, toggle)
	return cmd
}

func (a *app) adminTransactionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "Inspect and correct the ledger",
	}

	var lf listFlags
	var user, txType, status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List all transactions",
		Args:  cobra.NoArgs,
		RunE: a.adminOnly(func(cmd *cobra.Command, args []string) error {
			txs, meta, err := a.api.AdminTransactions(cmd.Context(), lf.params(map[string]string{
				"user": user, "transaction_type": txType, "status": status,
			}))
			if err != nil {
				return err
			}
			printTransactions(a.out, txs)
			printMeta(a.out, meta)
			return nil
		}),
	}
	lf.bind(list)
	list.Flags().StringVar(&user, "user", "", "user ID")
	list.Flags().StringVar(&txType, "type", "", "buy, sell, deposit, withdrawal or referral_bonus")
	list.Flags().StringVar(&status, "status", "", "pending, completed, failed or cancelled")

	setStatus := &cobra.Command{
		Use:   "status <transaction-id> <pending|completed|failed|cancelled>",
		Short: "Set a transaction's status",
		Args:  cobra.ExactArgs(2),
		RunE: a.adminOnly(func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			tx, err := a.api.SetTransactionStatus(cmd.Context(), id, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Transaction %d is now %s.\n", tx.ID, tx.Status)
			return nil
		}),
	}

	cmd.AddCommand(list, setStatus)
	return cmd
}
