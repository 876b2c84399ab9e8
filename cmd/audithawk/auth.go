package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/Veraticus/audithawk/internal/auth"
	"github.com/Veraticus/audithawk/internal/cli"
	"github.com/Veraticus/audithawk/internal/common"
	"github.com/Veraticus/audithawk/internal/config"
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Sign in to the identity service",
		Long: `Sign in, sign up or use Google sign-in against the identity service at
auth.endpoint. The returned token is kept in auth.credentials_path. Auditing
never requires a signed-in user.`,
	}

	cmd.AddCommand(authPasswordCmd("login", "Sign in with email and password"))
	cmd.AddCommand(authPasswordCmd("signup", "Create an account"))
	cmd.AddCommand(authGoogleCmd())
	cmd.AddCommand(authLogoutCmd())
	cmd.AddCommand(authWhoamiCmd())

	return cmd
}

func newAuthClient() (*auth.Client, error) {
	client, err := auth.NewClient(auth.ClientConfig{Endpoint: viper.GetString("auth.endpoint")})
	if err != nil {
		return nil, common.NewUserError("Set auth.endpoint to the identity service URL", err)
	}
	return client, nil
}

func credentialStore() *auth.FileStore {
	return auth.NewFileStore(config.ExpandPath(viper.GetString("auth.credentials_path")))
}

func authPasswordCmd(use, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			client, err := newAuthClient()
			if err != nil {
				return err
			}

			email, _ := cmd.Flags().GetString("email")
			reader := cli.NewLineReader(cmd.InOrStdin())
			if email == "" {
				if email, err = reader.Prompt(ctx, cmd.OutOrStdout(), "Email", ""); err != nil {
					return err
				}
			}
			password, err := readPassword(ctx, cmd, reader)
			if err != nil {
				return err
			}
			if email == "" || password == "" {
				return common.NewUserError("Email and password are required", auth.ErrRejected)
			}

			var payload *auth.AuthPayload
			if use == "signup" {
				payload, err = client.Signup(ctx, email, password)
			} else {
				payload, err = client.Login(ctx, email, password)
			}
			if err != nil {
				return err
			}

			return saveCredentials(cmd.OutOrStdout(), payload)
		},
	}

	cmd.Flags().String("email", "", "Account email (prompted when omitted)")

	return cmd
}

// readPassword reads without echo from a terminal and falls back to a plain
// line for piped input.
func readPassword(ctx context.Context, cmd *cobra.Command, reader *cli.LineReader) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		_, _ = fmt.Fprint(cmd.OutOrStdout(), cli.BoldStyle.Render("Password")+": ")
		raw, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}
	return reader.Prompt(ctx, cmd.OutOrStdout(), "Password", "")
}

func authGoogleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "google",
		Short: "Sign in with a Google account",
		Long: `Open Google's consent page, receive the authorization code on a local
callback and exchange the resulting ID token with the identity service.

Requires auth.google.client_id and auth.google.client_secret.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			client, err := newAuthClient()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			idToken, err := auth.GoogleIDToken(ctx, auth.GoogleConfig{
				ClientID:     viper.GetString("auth.google.client_id"),
				ClientSecret: viper.GetString("auth.google.client_secret"),
				CallbackAddr: viper.GetString("auth.google.callback_addr"),
				Verify:       viper.GetBool("auth.google.verify"),
				OpenURL: func(authURL string) {
					_, _ = fmt.Fprintln(out, cli.FormatInfo("Opening Google sign-in in your browser..."))
					_, _ = fmt.Fprintf(out, "If it does not open, visit:\n%s\n", authURL)
					openBrowser(authURL)
				},
			})
			if err != nil {
				return fmt.Errorf("google sign-in failed: %w", err)
			}

			payload, err := client.GoogleAuth(ctx, idToken)
			if err != nil {
				return err
			}
			return saveCredentials(out, payload)
		},
	}
}

func saveCredentials(w io.Writer, payload *auth.AuthPayload) error {
	store := credentialStore()
	creds, err := store.Save(payload)
	if err != nil {
		return err
	}

	email := "unknown user"
	if creds.User != nil && creds.User.Email != "" {
		email = creds.User.Email
	}
	_, _ = fmt.Fprintln(w, cli.FormatSuccess(fmt.Sprintf("Signed in as %s", email)))
	if payload.Message != "" {
		_, _ = fmt.Fprintln(w, cli.SubtleStyle.Render(payload.Message))
	}
	slog.Debug("Credentials saved", "path", store.Path())
	return nil
}

func authLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := credentialStore().Clear(); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Signed out"))
			return nil
		},
	}
}

func authWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			creds, err := credentialStore().Load()
			if err != nil {
				if errors.Is(err, common.ErrNotLoggedIn) {
					_, _ = fmt.Fprintln(out, cli.FormatWarning("Not signed in"))
					return nil
				}
				return err
			}

			if creds.User != nil {
				_, _ = fmt.Fprintf(out, "Email:    %s\n", creds.User.Email)
				_, _ = fmt.Fprintf(out, "Provider: %s\n", creds.User.Provider)
				_, _ = fmt.Fprintf(out, "User ID:  %s\n", creds.User.ID)
			}

			now := time.Now()
			expiry, ok := auth.TokenExpiry(creds.Token)
			switch {
			case !ok:
				_, _ = fmt.Fprintln(out, "Token:    no expiry")
			case creds.Expired(now):
				_, _ = fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("Token expired %s", expiry.Local().Format(time.RFC1123))))
			default:
				_, _ = fmt.Fprintf(out, "Token:    valid until %s\n", expiry.Local().Format(time.RFC1123))
			}
			return nil
		},
	}
}

func openBrowser(url string) {
	var err error
	switch runtime.GOOS {
	case "linux":
		err = exec.Command("xdg-open", url).Start() //nolint:gosec,forbidigo
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start() //nolint:gosec,forbidigo
	case "darwin":
		err = exec.Command("open", url).Start() //nolint:gosec,forbidigo
	}
	if err != nil {
		slog.Debug("Failed to open browser", "error", err)
	}
}
