package cli

import (
	"errors"
	"fmt"

	"github.com/dom/postboard/internal/client/api"
	"github.com/spf13/cobra"
)

type signupOptions struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

func newSignupCommand(app *App) *cobra.Command {
	opts := &signupOptions{}

	cmd := &cobra.Command{
		Use:         "signup",
		Short:       "Create an account and log in",
		Annotations: map[string]string{freshSession: "true"},
		Long: `Create a new account and store the returned credentials locally.

Examples:
  postsctl signup --email ada@example.com --first-name Ada --last-name Lovelace`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := promptPassword(cmd.ErrOrStderr(), opts.Password)
			if err != nil {
				return err
			}

			err = app.Session.Signup(cmd.Context(), api.SignupRequest{
				Email:     opts.Email,
				Password:  pw,
				FirstName: opts.FirstName,
				LastName:  opts.LastName,
			})
			if err != nil {
				return sessionError(app, err)
			}
			return printWelcome(cmd, app)
		},
	}

	cmd.Flags().StringVar(&opts.Email, "email", "", "account email (required)")
	cmd.Flags().StringVar(&opts.FirstName, "first-name", "", "first name (required)")
	cmd.Flags().StringVar(&opts.LastName, "last-name", "", "last name (required)")
	cmd.Flags().StringVar(&opts.Password, "password", "", "password; prompted for when omitted")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("first-name")
	_ = cmd.MarkFlagRequired("last-name")

	return cmd
}

type loginOptions struct {
	Email    string
	Password string
}

func newLoginCommand(app *App) *cobra.Command {
	opts := &loginOptions{}

	cmd := &cobra.Command{
		Use:         "login",
		Short:       "Log in and store the session locally",
		Annotations: map[string]string{freshSession: "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := promptPassword(cmd.ErrOrStderr(), opts.Password)
			if err != nil {
				return err
			}

			if err := app.Session.Login(cmd.Context(), opts.Email, pw); err != nil {
				return sessionError(app, err)
			}
			return printWelcome(cmd, app)
		},
	}

	cmd.Flags().StringVar(&opts.Email, "email", "", "account email (required)")
	cmd.Flags().StringVar(&opts.Password, "password", "", "password; prompted for when omitted")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newLogoutCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Session.Logout(cmd.Context())
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return err
		},
	}
}

func newWhoamiCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user as the server sees it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := app.requireLogin()
			if err != nil {
				return err
			}

			user, err := app.Client.Me(cmd.Context(), snap.Token)
			if err != nil {
				return err
			}
			return RenderUser(cmd.OutOrStdout(), user)
		},
	}
}

func printWelcome(cmd *cobra.Command, app *App) error {
	snap := app.Session.Snapshot()
	if snap.User == nil {
		return errors.New("login did not complete")
	}

	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "Logged in as %s.\n", snap.User.Email); err != nil {
		return err
	}
	// The initial feed refresh only records its failure.
	if snap.LastError != "" {
		_, err := fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", snap.LastError)
		return err
	}
	_, err := fmt.Fprintf(out, "%d posts in the feed.\n", len(snap.Posts))
	return err
}

// sessionError prefers the message the session recorded over the raw error.
func sessionError(app *App, err error) error {
	if msg := app.Session.Snapshot().LastError; msg != "" {
		return errors.New(msg)
	}
	return err
}
