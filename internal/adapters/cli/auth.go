package cli

import (
	"fmt"

	"tikalinvest/internal/client"

	"github.com/spf13/cobra"
)

func (a *app) loginCommand() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login [email-or-username]",
		Short: "Log in to your account",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var identifier string
			if len(args) == 1 {
				identifier = args[0]
			}
			identifier, err := a.ask("Email or username", identifier)
			if err != nil {
				return err
			}
			if password, err = a.ask("Password", password); err != nil {
				return err
			}

			user, err := a.auth.Login(cmd.Context(), identifier, password)
			if err != nil {
				return err
			}
			name := user.FullName
			if name == "" {
				name = user.Username
			}
			fmt.Fprintf(a.out, "Welcome back, %s. Balance: %s\n", name, money(user.Balance))
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when omitted)")
	return cmd
}

func (a *app) registerCommand() *cobra.Command {
	var in client.RegisterInput
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if in.Email, err = a.ask("Email", in.Email); err != nil {
				return err
			}
			if in.Username, err = a.ask("Username", in.Username); err != nil {
				return err
			}
			if in.Password, err = a.ask("Password", in.Password); err != nil {
				return err
			}
			if in.PasswordConfirm, err = a.ask("Confirm password", in.PasswordConfirm); err != nil {
				return err
			}

			user, err := a.auth.Register(cmd.Context(), &in)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Account %s created.\n", user.Username)
			if user.Status == "pending" {
				fmt.Fprintln(a.out, "An administrator must approve it before you can trade.")
			}
			fmt.Fprintln(a.out, "Log in with: tikal login", user.Username)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.Email, "email", "", "email address")
	f.StringVar(&in.Username, "username", "", "username")
	f.StringVar(&in.Password, "password", "", "password")
	f.StringVar(&in.PasswordConfirm, "confirm", "", "password confirmation")
	f.StringVar(&in.FullName, "full-name", "", "full name")
	f.StringVar(&in.Phone, "phone", "", "phone number")
	f.StringVar(&in.Country, "country", "", "country")
	f.StringVar(&in.ReferralCodeUsed, "referral", "", "referral code of the user who invited you")
	return cmd
}

func (a *app) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and forget the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.auth.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Logged out.")
			return nil
		},
	}
}

func (a *app) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireUser(cmd.Context()); err != nil {
				return err
			}
			user, err := a.auth.RefreshUser(cmd.Context())
			if err != nil {
				return err
			}
			printUser(a.out, user)
			return nil
		},
	}
}

func (a *app) passwordCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Recover a forgotten password",
	}

	forgot := &cobra.Command{
		Use:   "forgot <email>",
		Short: "Request a password reset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := a.api.ForgotPassword(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, "If the email is registered, a reset link is on its way.")
			if token != "" {
				fmt.Fprintln(a.out, "Reset token:", token)
			}
			return nil
		},
	}

	var reset client.PasswordReset
	resetCmd := &cobra.Command{
		Use:   "reset <token>",
		Short: "Set a new password with a reset token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reset.Token = args[0]
			var err error
			if reset.Password, err = a.ask("New password", reset.Password); err != nil {
				return err
			}
			if reset.PasswordConfirm, err = a.ask("Confirm password", reset.PasswordConfirm); err != nil {
				return err
			}
			if err := validateForm(&reset); err != nil {
				return err
			}
			if err := a.api.ResetPassword(cmd.Context(), &reset); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Password reset. Log in with your new password.")
			return nil
		},
	}
	resetCmd.Flags().StringVar(&reset.Password, "password", "", "new password")
	resetCmd.Flags().StringVar(&reset.PasswordConfirm, "confirm", "", "new password confirmation")

	cmd.AddCommand(forgot, resetCmd)
	return cmd
}
