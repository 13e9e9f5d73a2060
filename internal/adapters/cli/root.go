// Package cli is the tikal command line: one command per page of the
// trading app, all talking to the API through a shared session.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"tikalinvest/internal/client"
	"tikalinvest/internal/pkg/logger"
	"tikalinvest/internal/pkg/validation"
	"tikalinvest/internal/session"

	"github.com/spf13/cobra"
)

type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	lines  *bufio.Reader

	cfg   *Config
	store *session.FileStore
	auth  *session.AuthStore
	api   *client.Client

	// set once an error has already been shown to the user
	notified atomic.Bool
}

// Execute runs the CLI with os.Args and returns the process exit code
func Execute() int {
	a := &app{in: os.Stdin, out: os.Stdout, errOut: os.Stderr}
	return a.run(os.Args[1:])
}

func (a *app) run(args []string) int {
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	if err := root.ExecuteContext(context.Background()); err != nil {
		a.report(err)
		return 1
	}
	return 0
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "tikal",
		Short:         "TikalInvest from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.String("api-url", "", "API base URL (default "+client.DefaultBaseURL+")")
	flags.String("session-file", "", "where the session is kept (default ~/.tikal/session.json)")
	flags.String("config", "", "config file (default ~/.tikal/config.yaml)")
	flags.Duration("timeout", 0, "per-request timeout")
	flags.Bool("debug", false, "verbose logging")

	root.AddCommand(
		a.loginCommand(),
		a.registerCommand(),
		a.logoutCommand(),
		a.whoamiCommand(),
		a.dashboardCommand(),
		a.marketCommand(),
		a.watchlistCommand(),
		a.tradeCommand(),
		a.portfolioCommand(),
		a.walletCommand(),
		a.reportsCommand(),
		a.profileCommand(),
		a.passwordCommand(),
		a.adminCommand(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := "warn"
	if cfg.Debug {
		level = "debug"
	}
	logger.Init(level, false)

	store, err := session.Open(cfg.SessionFile)
	if err != nil {
		return err
	}
	a.store = store
	a.api = client.New(cfg.APIURL, store,
		client.WithTimeout(cfg.Timeout),
		client.WithNotifier(client.NotifierFunc(a.toast)),
		client.WithSessionExpired(func() {
			fmt.Fprintln(a.errOut, "Log in again with: tikal login")
		}),
	)
	a.auth = session.NewAuthStore(a.api, store)
	return nil
}

// toast shows an API failure the way the app's notifications would
func (a *app) toast(message string) {
	a.notified.Store(true)
	fmt.Fprintln(a.errOut, "Error:", message)
}

// report prints err unless the client already showed it, then any field
// errors it carries
func (a *app) report(err error) {
	if !a.notified.Load() {
		fmt.Fprintln(a.errOut, "Error:", err)
	}

	var apiErr *client.APIError
	var verrs validation.Errors
	switch {
	case errors.As(err, &apiErr):
		for _, f := range apiErr.Fields {
			fmt.Fprintf(a.errOut, "  %s: %s\n", f.Field, f.Message)
		}
	case errors.As(err, &verrs) && len(verrs) > 1:
		for _, f := range verrs {
			fmt.Fprintf(a.errOut, "  %s: %s\n", f.Field, f.Message)
		}
	}
}

// requireUser returns the session's user, loading it when only tokens are
// cached
func (a *app) requireUser(ctx context.Context) (*client.User, error) {
	if user, err := a.auth.RequireUser(); err == nil {
		return user, nil
	}
	if access, _ := a.store.Tokens(); access == "" {
		return nil, errors.New("not logged in, run: tikal login")
	}
	return a.auth.RefreshUser(ctx)
}

func (a *app) requireAdmin(ctx context.Context) error {
	user, err := a.requireUser(ctx)
	if err != nil {
		return err
	}
	if !user.IsAdmin() {
		return errors.New("this command needs an administrator account")
	}
	return nil
}

// afterMutation re-reads the user so the cached balance stays current
func (a *app) afterMutation(ctx context.Context) {
	if _, err := a.auth.RefreshUser(ctx); err != nil {
		fmt.Fprintln(a.errOut, "Could not refresh your account details.")
	}
}

// ask returns current, or prompts for the value when it is empty
func (a *app) ask(label, current string) (string, error) {
	if current != "" {
		return current, nil
	}
	if a.lines == nil {
		a.lines = bufio.NewReader(a.in)
	}
	return prompt(a.out, a.lines, label)
}
