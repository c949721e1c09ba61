package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"the-work-standard/internal/bootstrap"
	"the-work-standard/internal/client/remote"
	"the-work-standard/internal/client/workspace"
	"the-work-standard/internal/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app holds what one command invocation needs.
type app struct {
	apiURL      string
	sessionFile string

	cfg     *config.ClientConfig
	logger  *zap.Logger
	client  *remote.Client
	auth    *remote.AuthProvider
	store   *remote.AttendanceStore
	ws      *workspace.Workspace
	started bool
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.LoadClient()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.apiURL != "" {
		cfg.APIURL = a.apiURL
	}
	if a.sessionFile != "" {
		cfg.SessionFile = a.sessionFile
	}
	path, err := sessionPath(cfg.SessionFile)
	if err != nil {
		return err
	}

	logger, err := bootstrap.NewLogger("production", cfg.LogLevel)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.client = remote.NewClient(remote.Config{
		BaseURL:  cfg.APIURL,
		Timezone: cfg.Timezone,
		RetryMax: cfg.RetryMax,
		Tokens:   remote.NewFileTokenStore(path),
		Logger:   logger,
	})
	a.auth = remote.NewAuthProvider(a.client)
	a.store = remote.NewAttendanceStore(a.client)
	a.ws = workspace.New(a.auth, remote.NewProfileStore(a.client), a.store,
		workspace.WithLogger(logger),
		workspace.WithNotesDebounce(cfg.NotesDebounce),
	)
	return nil
}

// start restores the stored session. Commands that only talk to the API
// anonymously never call it.
func (a *app) start(ctx context.Context) error {
	if a.started {
		return nil
	}
	if err := a.ws.Start(ctx); err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	a.started = true
	return nil
}

// requireSession starts the workspace and fails when nobody is signed in.
func (a *app) requireSession(ctx context.Context) error {
	if err := a.start(ctx); err != nil {
		return err
	}
	if !a.ws.Session.View().IsAuthenticated() {
		return fmt.Errorf("not signed in, run `workdesk login` first")
	}
	return nil
}

func (a *app) close(ctx context.Context) error {
	if a.ws == nil {
		return nil
	}
	err := a.ws.Close(ctx)
	_ = a.auth.Close()
	_ = a.logger.Sync()
	return err
}

func sessionPath(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve session file: %w", err)
	}
	return filepath.Join(home, p), nil
}
