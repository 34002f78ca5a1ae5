package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"focusmate/internal/account"
	"focusmate/internal/apiclient"
	"focusmate/internal/tui"
)

var errSessionExpired = errors.New("session expired, run focusmate login")

func newLoginCmd(a *app) *cobra.Command {
	var email, password, server string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to a FocusMate server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if server == "" {
				server = a.cfg.ServerURL
			}
			if server == "" {
				return errors.New("no server configured; set server_url in the client config or pass --server")
			}

			res, err := apiclient.New(server, "").Login(cmd.Context(), email, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			if err := a.accounts.SaveSession(account.Session{Token: res.Token, ServerURL: server}); err != nil {
				return err
			}
			if err := a.accounts.SaveProfile(profileOf(res.User)); err != nil {
				a.log.Warn("caching profile", zap.Error(err))
			}

			a.log.Info("signed in", zap.String("server", server), zap.String("user_id", res.User.ID))
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s <%s>\n", res.User.Name, res.User.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().StringVar(&server, "server", "", "server URL (defaults to the configured one)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the local session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := a.client()
			if signedOut(err) {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
				return nil
			}
			if err != nil {
				return err
			}

			// The cookie is stateless; a failed call still signs out locally.
			if err := client.Logout(cmd.Context()); err != nil {
				a.log.Warn("server logout", zap.Error(err))
			}
			if err := a.accounts.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user and their stats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			client, _, err := a.client()
			if signedOut(err) {
				fmt.Fprintln(out, "Not signed in")
				return nil
			}
			if err != nil {
				return err
			}

			user, err := client.GetUser(cmd.Context())
			switch {
			case apiclient.IsUnauthorized(err):
				_ = a.accounts.Clear()
				return errSessionExpired
			case err != nil:
				a.log.Warn("fetching profile", zap.Error(err))
				cached, cacheErr := a.accounts.LoadProfile()
				if cacheErr != nil {
					return fmt.Errorf("server unavailable: %w", err)
				}
				fmt.Fprintf(out, "%s <%s> (offline, cached)\n", cached.Name, cached.Email)
				return nil
			}

			if err := a.accounts.SaveProfile(profileOf(*user)); err != nil {
				a.log.Warn("caching profile", zap.Error(err))
			}
			fmt.Fprintf(out, "%s <%s>\n", user.Name, user.Email)

			stats, err := client.GetStats(cmd.Context())
			if err != nil {
				a.log.Warn("fetching stats", zap.Error(err))
				return nil
			}
			fmt.Fprintf(out, "Focus time:         %s\n", tui.FormatMinutes(stats.TotalFocusTime))
			fmt.Fprintf(out, "Completed sessions: %d\n", stats.CompletedSessions)
			fmt.Fprintf(out, "Tasks completed:    %d\n", stats.TasksCompleted)
			fmt.Fprintf(out, "Current streak:     %d\n", stats.CurrentStreak)
			return nil
		},
	}
}

func profileOf(u apiclient.User) account.Profile {
	return account.Profile{ID: u.ID, Name: u.Name, Email: u.Email, Image: u.Image}
}
