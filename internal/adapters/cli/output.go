package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"tikalinvest/internal/client"

	"github.com/shopspring/decimal"
)

const currency = "GTQ"

func money(d decimal.Decimal) string {
	return currency + " " + d.StringFixed(2)
}

func percent(d decimal.Decimal) string {
	sign := ""
	if d.IsPositive() {
		sign = "+"
	}
	return sign + d.StringFixed(2) + "%"
}

func date(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func row(tw *tabwriter.Writer, cols ...interface{}) {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprint(c)
	}
	fmt.Fprintln(tw, strings.Join(parts, "\t"))
}

func printStocks(w io.Writer, stocks []client.Stock) {
	if len(stocks) == 0 {
		fmt.Fprintln(w, "No stocks found.")
		return
	}
	tw := table(w)
	row(tw, "ID", "SYMBOL", "NAME", "MARKET", "PRICE", "CHANGE", "AVAILABLE")
	for _, s := range stocks {
		row(tw, s.ID, s.Symbol, s.Name, s.Market, money(s.CurrentPrice), percent(s.ChangePercent), s.AvailableQuantity)
	}
	tw.Flush()
}

func printTransactions(w io.Writer, txs []client.Transaction) {
	if len(txs) == 0 {
		fmt.Fprintln(w, "No transactions yet.")
		return
	}
	tw := table(w)
	row(tw, "ID", "DATE", "TYPE", "STOCK", "QTY", "PRICE", "FEE", "TOTAL", "STATUS")
	for i := range txs {
		t := &txs[i]
		qty, price := "-", "-"
		if t.Quantity > 0 {
			qty = strconv.FormatInt(t.Quantity, 10)
			price = money(t.PricePerShare)
		}
		row(tw, t.ID, date(t.CreatedAt), t.Type, t.Symbol(), qty, price, money(t.Commission), money(t.TotalAmount), t.Status)
	}
	tw.Flush()
}

func printPositions(w io.Writer, positions []client.Position) {
	if len(positions) == 0 {
		fmt.Fprintln(w, "You have no open positions.")
		return
	}
	tw := table(w)
	row(tw, "SYMBOL", "QTY", "AVG COST", "PRICE", "VALUE", "P/L", "P/L %")
	for _, p := range positions {
		row(tw, p.Symbol, p.Quantity, money(p.AverageCost), money(p.CurrentPrice), money(p.CurrentValue), money(p.ProfitLoss), percent(p.ProfitLossPercent))
	}
	tw.Flush()
}

func printUser(w io.Writer, u *client.User) {
	tw := table(w)
	row(tw, "Username", u.Username)
	row(tw, "Email", u.Email)
	if u.FullName != "" {
		row(tw, "Name", u.FullName)
	}
	row(tw, "Role", u.Role)
	row(tw, "Status", u.Status)
	row(tw, "Balance", money(u.Balance))
	if u.PortfolioValue != nil {
		row(tw, "Portfolio", money(*u.PortfolioValue))
	}
	if u.TotalProfitLoss != nil {
		row(tw, "Profit/Loss", money(*u.TotalProfitLoss))
	}
	row(tw, "Referral code", u.ReferralCode)
	tw.Flush()
}

func printMeta(w io.Writer, meta *client.Meta) {
	if meta == nil || meta.TotalPages <= 1 {
		return
	}
	fmt.Fprintf(w, "Page %d of %d (%d total)\n", meta.Page, meta.TotalPages, meta.Total)
}

// prompt reads one line from r, showing label first
func prompt(w io.Writer, r *bufio.Reader, label string) (string, error) {
	fmt.Fprintf(w, "%s: ", label)
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(line), nil
}

func parseID(arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return uint(id), nil
}

func parseAmount(arg string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(arg))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", arg)
	}
	return amount, nil
}
