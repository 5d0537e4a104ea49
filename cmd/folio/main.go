package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/five82/folio/internal/app"
	"github.com/five82/folio/internal/fakeapi"
	"github.com/five82/folio/internal/logtail"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "folio: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var opts app.Options

	root := &cobra.Command{
		Use:           "folio",
		Short:         "Terminal storefront and admin console for the folio bookstore",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShop(cmd.Context(), opts)
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.ConfigPath, "config", "", "override config path (optional)")
	flags.StringVar(&opts.EnvFile, "env-file", "", "dotenv file to load (defaults to ./.env when present)")
	flags.StringVar(&opts.PrefsPath, "prefs", "", "override preferences path (optional)")
	flags.StringVar(&opts.APIURL, "api", "", "server URL for both storefront and admin (optional)")
	root.Flags().IntVar(&opts.PollEvery, "poll", 0, "home feed refresh interval in seconds (optional, defaults to 10s)")

	root.AddCommand(
		newShopCmd(&opts),
		newAdminCmd(&opts),
		newLoginCmd(&opts),
		newWhoamiCmd(&opts),
		newLogoutCmd(&opts),
		newCartCmd(&opts),
		newLogsCmd(&opts),
		newDemoCmd(),
	)
	return root
}

func requireTerminal() error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("the interactive UI needs a terminal")
	}
	return nil
}

func runShop(ctx context.Context, opts app.Options) error {
	if err := requireTerminal(); err != nil {
		return err
	}
	return app.RunShop(ctx, opts)
}

func newShopCmd(opts *app.Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shop",
		Short: "Browse the catalog, manage the cart and place orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShop(cmd.Context(), *opts)
		},
	}
	cmd.Flags().IntVar(&opts.PollEvery, "poll", 0, "home feed refresh interval in seconds (optional, defaults to 10s)")
	return cmd
}

func newAdminCmd(opts *app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "admin",
		Short: "Manage books, categories and users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireTerminal(); err != nil {
				return err
			}
			return app.RunAdmin(cmd.Context(), *opts)
		},
	}
}

func newLogsCmd(opts *app.Options) *cobra.Command {
	var (
		lines int
		grep  string
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the tail of the folio log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := app.Open(*opts)
			if err != nil {
				return err
			}
			defer env.Close()

			got, err := logtail.Read(env.Config.LogPath(), logtail.Options{MaxLines: lines, Grep: grep})
			if err != nil {
				return err
			}
			for _, line := range got {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "number of lines to show (0 for all)")
	cmd.Flags().StringVar(&grep, "grep", "", "only show lines containing this text")
	return cmd
}

func newDemoCmd() *cobra.Command {
	var (
		addr   string
		secret string
	)
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Serve an in-memory bookstore API for trying folio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			srv, err := fakeapi.New(fakeapi.Options{Secret: secret})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Demo API listening on %s\n", addr)
			fmt.Fprintf(out, "  storefront: %s / %s\n", fakeapi.ReaderUsername, fakeapi.ReaderPassword)
			fmt.Fprintf(out, "  admin:      %s / %s\n", fakeapi.AdminUsername, fakeapi.AdminPassword)
			fmt.Fprintf(out, "Run: folio --api http://%s\n", addr)

			errs := make(chan error, 1)
			go func() { errs <- srv.Listen(addr) }()
			select {
			case err := <-errs:
				return err
			case <-cmd.Context().Done():
				return srv.Shutdown()
			}
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&secret, "secret", "", "token signing secret (random when empty)")
	return cmd
}
