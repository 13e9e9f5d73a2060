package cli

import (
	"fmt"

	"tikalinvest/internal/client"

	"github.com/spf13/cobra"
)

func (a *app) profileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Your account details",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show your profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.api.Me(cmd.Context())
			if err != nil {
				return err
			}
			printUser(a.out, user)
			return a.auth.SetUser(user)
		},
	}

	var email, fullName, phone, address, country string
	update := &cobra.Command{
		Use:   "update",
		Short: "Change profile fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var in client.ProfileUpdate
			flags := cmd.Flags()
			set := func(name string, value string, dst **string) {
				if flags.Changed(name) {
					v := value
					*dst = &v
				}
			}
			set("email", email, &in.Email)
			set("full-name", fullName, &in.FullName)
			set("phone", phone, &in.Phone)
			set("address", address, &in.Address)
			set("country", country, &in.Country)
			if in == (client.ProfileUpdate{}) {
				return fmt.Errorf("nothing to update, pass at least one field flag")
			}
			if err := validateForm(&in); err != nil {
				return err
			}

			user, err := a.api.UpdateProfile(cmd.Context(), &in)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Profile updated.")
			printUser(a.out, user)
			a.afterMutation(cmd.Context())
			return nil
		},
	}
	update.Flags().StringVar(&email, "email", "", "email address")
	update.Flags().StringVar(&fullName, "full-name", "", "full name")
	update.Flags().StringVar(&phone, "phone", "", "phone number")
	update.Flags().StringVar(&address, "address", "", "address")
	update.Flags().StringVar(&country, "country", "", "country")

	var change client.PasswordChange
	password := &cobra.Command{
		Use:   "password",
		Short: "Change your password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if change.OldPassword, err = a.ask("Current password", change.OldPassword); err != nil {
				return err
			}
			if change.NewPassword, err = a.ask("New password", change.NewPassword); err != nil {
				return err
			}
			if change.NewPasswordConfirm, err = a.ask("Confirm new password", change.NewPasswordConfirm); err != nil {
				return err
			}
			if err := validateForm(&change); err != nil {
				return err
			}
			if err := a.api.ChangePassword(cmd.Context(), &change); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Password changed.")
			return nil
		},
	}
	password.Flags().StringVar(&change.OldPassword, "old", "", "current password")
	password.Flags().StringVar(&change.NewPassword, "new", "", "new password")
	password.Flags().StringVar(&change.NewPasswordConfirm, "confirm", "", "new password confirmation")

	referrals := &cobra.Command{
		Use:   "referrals",
		Short: "People who joined with your code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := a.api.Referrals(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Your code: %s\nReferred: %d, bonus earned: %s\n\n",
				summary.ReferralCode, summary.TotalReferred, money(summary.BonusEarned))
			if len(summary.Referrals) == 0 {
				return nil
			}
			tw := table(a.out)
			row(tw, "USERNAME", "STATUS", "BONUS PAID", "JOINED")
			for _, r := range summary.Referrals {
				row(tw, r.Username, r.Status, r.BonusPaid, date(r.JoinedAt))
			}
			tw.Flush()
			return nil
		},
	}

	cmd.AddCommand(show, update, password, referrals)
	return cmd
}
