// Package cli implements the focusmate terminal client commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"focusmate/internal/account"
	"focusmate/internal/apiclient"
	"focusmate/internal/config"
	"focusmate/internal/localstore"
	"focusmate/internal/logging"
	"focusmate/internal/presence"
	"focusmate/internal/timer"
)

const (
	logFile       = "focusmate.log"
	recordTimeout = 10 * time.Second
)

// app holds what the commands share. It is filled in by the root command's
// PersistentPreRunE.
type app struct {
	configPath string
	dataDir    string

	cfg      config.ClientConfig
	store    *localstore.Store
	accounts *account.Store
	log      *zap.Logger
	clock    clockwork.Clock
	bus      *presence.MemoryBus

	pending sync.WaitGroup
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "focusmate",
		Short:         "FocusMate focus timer and team rooms",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.pending.Wait()
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "client config file (default ~/.config/focusmate/client.yaml)")
	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "directory for local state")

	root.AddCommand(
		newTimerCmd(a),
		newSettingsCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newRoomCmd(a),
	)
	return root
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(&app{}).ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (a *app) setup() error {
	path := a.configPath
	if path == "" {
		var err error
		if path, err = config.DefaultClientConfigPath(); err != nil {
			return fmt.Errorf("locating config: %w", err)
		}
	}
	cfg, err := config.LoadClient(path)
	if err != nil {
		return err
	}
	a.cfg = cfg

	dir := a.dataDir
	if dir == "" {
		dir = cfg.DataDir
	}
	if dir == "" {
		if dir, err = localstore.DefaultDir(); err != nil {
			return fmt.Errorf("locating data directory: %w", err)
		}
	}
	if a.store, err = localstore.Open(dir); err != nil {
		return err
	}
	a.accounts = account.NewStore(a.store)

	// The terminal belongs to the UI, so logs go to a file.
	if a.log == nil {
		if a.log, err = logging.NewFile(filepath.Join(dir, logFile), cfg.LogLevel); err != nil {
			return err
		}
	}
	if a.clock == nil {
		a.clock = clockwork.NewRealClock()
	}
	if a.bus == nil {
		a.bus = presence.NewMemoryBus(a.log, presence.WithMemoryClock(a.clock))
	}
	return nil
}

// client returns an API client for the signed-in session, or
// account.ErrNoSession.
func (a *app) client() (*apiclient.Client, account.Session, error) {
	sess, err := a.accounts.LoadSession()
	if err != nil {
		return nil, sess, err
	}
	server := sess.ServerURL
	if server == "" {
		server = a.cfg.ServerURL
	}
	return apiclient.New(server, sess.Token), sess, nil
}

// recordSessions returns a notifier that reports finished focus periods to
// the server in the background. Nothing is sent when signed out.
func (a *app) recordSessions() timer.Notifier {
	return func(t timer.Transition) {
		if t.From != timer.ModeFocus || t.FocusMinutes == 0 {
			return
		}
		client, _, err := a.client()
		if err != nil {
			return
		}

		a.pending.Add(1)
		go func() {
			defer a.pending.Done()
			ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
			defer cancel()

			if _, err := client.RecordSession(ctx, t.FocusMinutes, 0); err != nil {
				a.log.Warn("recording focus session", zap.Int("minutes", t.FocusMinutes), zap.Error(err))
				return
			}
			a.log.Info("focus session recorded", zap.Int("minutes", t.FocusMinutes))
		}()
	}
}

func signedOut(err error) bool {
	return errors.Is(err, account.ErrNoSession)
}
