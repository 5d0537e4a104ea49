package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/five82/folio/internal/api"
	"github.com/five82/folio/internal/app"
	"github.com/five82/folio/internal/forms"
	"github.com/five82/folio/internal/ui"
)

// prompt reads one trimmed line.
func prompt(out io.Writer, in *bufio.Reader, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// readPassword reads a password with masking when stdin is a terminal.
func readPassword(out io.Writer, in *bufio.Reader, label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return prompt(out, in, label)
	}
	fmt.Fprint(out, label)
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

func newLoginCmd(opts *app.Options) *cobra.Command {
	var (
		admin     bool
		username  string
		captchaID string
		captcha   string
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the storefront (or the admin console with --admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := app.Open(*opts)
			if err != nil {
				return err
			}
			defer env.Close()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			in := bufio.NewReader(cmd.InOrStdin())

			if username == "" {
				if username, err = prompt(out, in, "Username: "); err != nil {
					return err
				}
			}
			password, err := readPassword(out, in, "Password: ")
			if err != nil {
				return err
			}

			if admin {
				if errs := forms.AdminLogin(username, password); !errs.OK() {
					return errs
				}
				_, sess, err := env.Admin()
				if err != nil {
					return err
				}
				user, err := sess.AdminLogin(ctx, username, password)
				if err != nil {
					return errors.New(api.UserMessage(err))
				}
				fmt.Fprintf(out, "Signed in to the admin console as %s\n", user.Username)
				return nil
			}

			client, sess, err := env.Storefront()
			if err != nil {
				return err
			}
			if captchaID == "" {
				c, err := client.Captcha(ctx)
				if err != nil {
					return fmt.Errorf("fetch captcha: %s", api.UserMessage(err))
				}
				captchaID = c.ID
				art, err := ui.CaptchaArt(c.Image)
				if err != nil {
					art = []string{"(captcha image unavailable)"}
				}
				fmt.Fprintln(out, strings.Join(art, "\n"))
			}
			if captcha == "" {
				if captcha, err = prompt(out, in, "Captcha: "); err != nil {
					return err
				}
			}

			req := api.LoginRequest{
				Username:     username,
				Password:     password,
				CaptchaID:    captchaID,
				CaptchaValue: captcha,
			}
			if errs := forms.Login(req); !errs.OK() {
				return errs
			}
			user, err := sess.Login(ctx, req)
			if err != nil {
				return errors.New(api.UserMessage(err))
			}
			fmt.Fprintf(out, "Signed in as %s\n", user.Username)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.BoolVar(&admin, "admin", false, "sign in to the admin console")
	flags.StringVarP(&username, "username", "u", "", "account name (prompted when empty)")
	flags.StringVar(&captchaID, "captcha-id", "", "answer an already fetched captcha")
	flags.StringVar(&captcha, "captcha", "", "captcha answer (prompted when empty)")
	return cmd
}

func newWhoamiCmd(opts *app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in storefront and admin accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := app.Open(*opts)
			if err != nil {
				return err
			}
			defer env.Close()

			out := cmd.OutOrStdout()
			_, shopSess, err := env.Storefront()
			if err != nil {
				return err
			}
			if err := shopSess.Restore(cmd.Context()); err != nil {
				fmt.Fprintf(out, "storefront: signed out (%s)\n", api.UserMessage(err))
			} else if user, ok := shopSess.User(); ok {
				fmt.Fprintf(out, "storefront: %s <%s>\n", user.Username, user.Email)
			} else {
				fmt.Fprintln(out, "storefront: signed out")
			}

			_, adminSess, err := env.Admin()
			if err != nil {
				return err
			}
			if err := adminSess.Restore(cmd.Context()); err != nil {
				fmt.Fprintf(out, "admin:      signed out (%s)\n", api.UserMessage(err))
			} else if user, ok := adminSess.User(); ok {
				fmt.Fprintf(out, "admin:      %s\n", user.Username)
			} else {
				fmt.Fprintln(out, "admin:      signed out")
			}
			return nil
		},
	}
}

func newLogoutCmd(opts *app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out of the storefront and the admin console",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := app.Open(*opts)
			if err != nil {
				return err
			}
			defer env.Close()

			_, shopSess, err := env.Storefront()
			if err != nil {
				return err
			}
			_, adminSess, err := env.Admin()
			if err != nil {
				return err
			}
			// Restore so the server hears about the storefront logout.
			_ = shopSess.Restore(cmd.Context())
			shopSess.Logout(cmd.Context())
			adminSess.ForceLogout()
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}
