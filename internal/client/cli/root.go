// Package cli implements the postsctl command line client.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dom/postboard/internal/client/api"
	"github.com/dom/postboard/internal/client/session"
	"github.com/dom/postboard/internal/client/storage"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// App is what every command runs against: the API client and a session
// restored from the state database.
type App struct {
	Client  *api.Client
	Session *session.Session
	store   *storage.SQLiteStore
}

func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// requireLogin fails unless the restored session is authenticated.
func (a *App) requireLogin() (session.State, error) {
	snap := a.Session.Snapshot()
	if !snap.Authenticated() {
		return snap, errors.New("not logged in; run `postsctl login` first")
	}
	return snap, nil
}

// freshSession marks commands that replace the stored credentials, so the
// session is not resumed from them first.
const freshSession = "postsctl/fresh-session"

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "postboard-state.db"
	}
	return filepath.Join(dir, "postboard", "state.db")
}

// NewRootCommand creates the root command for postsctl.
func NewRootCommand() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("POSTBOARD")
	v.AutomaticEnv()
	v.SetDefault("api_url", "http://localhost:8080")
	v.SetDefault("state_db", defaultStatePath())

	app := &App{}

	cmd := &cobra.Command{
		Use:           "postsctl",
		Short:         "Command line client for postboard",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if v.GetBool("verbose") {
				level = slog.LevelDebug
			}
			logger := slog.New(tint.NewHandler(cmd.ErrOrStderr(), &tint.Options{Level: level}))

			resume := cmd.Annotations[freshSession] == ""
			return app.open(cmd.Context(), v.GetString("api_url"), v.GetString("state_db"), logger, resume)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.Close()
		},
	}

	cmd.PersistentFlags().String("api-url", "", "server base URL (env POSTBOARD_API_URL)")
	cmd.PersistentFlags().String("state-db", "", "path of the local state database (env POSTBOARD_STATE_DB)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "verbose logging")
	bindFlag(v, "api_url", cmd, "api-url")
	bindFlag(v, "state_db", cmd, "state-db")
	bindFlag(v, "verbose", cmd, "verbose")

	cmd.AddCommand(newSignupCommand(app))
	cmd.AddCommand(newLoginCommand(app))
	cmd.AddCommand(newLogoutCommand(app))
	cmd.AddCommand(newWhoamiCommand(app))
	cmd.AddCommand(newPostsCommand(app))

	return cmd
}

// bindFlag lets an explicitly set flag override the environment and default.
func bindFlag(v *viper.Viper, key string, cmd *cobra.Command, flag string) {
	if err := v.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", flag, err))
	}
}

// open wires the app. With resume set the stored credentials are loaded
// without touching the server; commands fetch what they show.
func (a *App) open(ctx context.Context, apiURL, statePath string, logger *slog.Logger, resume bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if statePath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(statePath), 0o700); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	store, err := storage.Open(ctx, statePath)
	if err != nil {
		return err
	}

	a.store = store
	a.Client = api.New(apiURL)
	a.Session = session.New(a.Client, store, logger)

	if !resume {
		return nil
	}
	if _, err := a.Session.Resume(ctx); err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}
	return nil
}
