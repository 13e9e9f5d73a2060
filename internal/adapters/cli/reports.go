package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"tikalinvest/internal/client"
	"tikalinvest/internal/pkg/validation"

	"github.com/spf13/cobra"
)

func (a *app) reportsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Transaction, profit and portfolio reports",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List your reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reports, err := a.api.Reports(cmd.Context())
			if err != nil {
				return err
			}
			if len(reports) == 0 {
				fmt.Fprintln(a.out, "No reports yet.")
				return nil
			}
			tw := table(a.out)
			row(tw, "ID", "TYPE", "FROM", "TO", "STATUS", "REQUESTED")
			for _, r := range reports {
				row(tw, r.ID, r.ReportType, r.StartDate.Format("2006-01-02"), r.EndDate.Format("2006-01-02"), r.Status, date(r.CreatedAt))
			}
			tw.Flush()
			return nil
		},
	}

	var req client.ReportRequest
	request := &cobra.Command{
		Use:   "request <transaction_history|profit_loss|portfolio_summary>",
		Short: "Queue a report for a date range",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.ReportType = args[0]
			if req.EndDate == "" {
				req.EndDate = time.Now().Format("2006-01-02")
			}
			if req.StartDate == "" {
				req.StartDate = time.Now().AddDate(0, -1, 0).Format("2006-01-02")
			}
			if err := validateForm(&req); err != nil {
				return err
			}
			if _, _, err := validation.DateRange(req.StartDate, req.EndDate); err != nil {
				return err
			}
			report, err := a.api.RequestReport(cmd.Context(), &req)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Report %d queued. Check it with: tikal reports show %d\n", report.ID, report.ID)
			return nil
		},
	}
	request.Flags().StringVar(&req.StartDate, "from", "", "first day, YYYY-MM-DD (default a month ago)")
	request.Flags().StringVar(&req.EndDate, "to", "", "last day, YYYY-MM-DD (default today)")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			r, err := a.api.Report(cmd.Context(), id)
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "%s report, %s to %s: %s\n", r.ReportType,
				r.StartDate.Format("2006-01-02"), r.EndDate.Format("2006-01-02"), r.Status)
			switch {
			case r.Error != "":
				fmt.Fprintln(a.out, "Failed:", r.Error)
			case r.Content != "":
				var pretty bytes.Buffer
				if err := json.Indent(&pretty, []byte(r.Content), "", "  "); err != nil {
					fmt.Fprintln(a.out, r.Content)
				} else {
					fmt.Fprintln(a.out, pretty.String())
				}
			default:
				fmt.Fprintln(a.out, "Not ready yet.")
			}
			return nil
		},
	}

	cmd.AddCommand(list, request, show)
	return cmd
}
