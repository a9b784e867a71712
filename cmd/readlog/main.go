// Package main provides readlog, an operator CLI that works directly on the
// ReadTrack store.
//
// Usage:
//
//	readlog user create reader@example.com --name "Reader"
//	readlog --user reader@example.com book add --title Kindred --author "Octavia E. Butler" --pages 264
//	readlog --user reader@example.com session start ub-xxxx
//	readlog --user reader@example.com streak --days 14
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/readtrackapp/readtrack-server/internal/auth"
	"github.com/readtrackapp/readtrack-server/internal/clock"
	"github.com/readtrackapp/readtrack-server/internal/config"
	"github.com/readtrackapp/readtrack-server/internal/di/providers"
	"github.com/readtrackapp/readtrack-server/internal/domain"
	"github.com/readtrackapp/readtrack-server/internal/logger"
	"github.com/readtrackapp/readtrack-server/internal/service"
	"github.com/readtrackapp/readtrack-server/internal/store"
	"github.com/readtrackapp/readtrack-server/internal/validation"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	envFile      string
	dataPath     string
	storeBackend string
	dayTimezone  string
	user         string
	verbose      bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "readlog",
		Short:         "Inspect and edit ReadTrack reading data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&flags.envFile, "env-file", ".env", "path to .env file")
	pf.StringVar(&flags.dataPath, "data-path", "", "directory holding the database (default from config)")
	pf.StringVar(&flags.storeBackend, "store-backend", "", "store backend: sqlite|badger (default from config)")
	pf.StringVar(&flags.dayTimezone, "day-timezone", "", "IANA zone used to split reading days (default from config)")
	pf.StringVar(&flags.user, "user", "", "email of the user to act as")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "log store activity to stderr")

	root.AddCommand(newUserCmd(flags))
	root.AddCommand(newTokenCmd(flags))
	root.AddCommand(newBookCmd(flags))
	root.AddCommand(newSessionCmd(flags))
	root.AddCommand(newPageCmd(flags))
	root.AddCommand(newStreakCmd(flags))
	root.AddCommand(newStatsCmd(flags))
	root.AddCommand(newSeedCmd(flags))
	return root
}

// app holds the store and services for one CLI invocation.
type app struct {
	cfg      *config.Config
	store    store.Store
	logger   *slog.Logger
	calendar clock.Calendar
	clock    clock.Clock

	ledger   *service.SessionLedger
	streaks  *service.StreakEngine
	progress *service.ProgressTracker
	activity *service.ActivityCoordinator
	library  *service.LibraryService
	stats    *service.StatsService
	users    *service.UserService
}

// loadApp reads configuration and opens the store. The caller must Close it.
func loadApp(flags *globalFlags) (*app, error) {
	args := []string{"--env-file", flags.envFile}
	for name, v := range map[string]string{
		"data-path":     flags.dataPath,
		"store-backend": flags.storeBackend,
		"day-timezone":  flags.dayTimezone,
	} {
		if v != "" {
			args = append(args, "--"+name, v)
		}
	}

	cfg, err := config.Load(args, os.Environ())
	if err != nil {
		return nil, err
	}

	var w io.Writer = io.Discard
	if flags.verbose {
		w = os.Stderr
	}
	log := logger.New(logger.Config{
		Writer:      w,
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Environment: cfg.App.Environment,
	})

	if err := os.MkdirAll(cfg.App.DataPath, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	st, err := providers.OpenStore(cfg, log.Logger)
	if err != nil {
		return nil, err
	}

	return newApp(cfg, st, clock.System(), log.Logger), nil
}

// newApp wires services over st with clk. The seed command passes a manual
// clock so it can write history.
func newApp(cfg *config.Config, st store.Store, clk clock.Clock, log *slog.Logger) *app {
	cal := clock.NewCalendar(cfg.DayLocation())
	v := validation.New()

	a := &app{cfg: cfg, store: st, logger: log, calendar: cal, clock: clk}
	a.ledger = service.NewSessionLedger(st, clk, log)
	a.streaks = service.NewStreakEngine(st, clk, cal, log)
	a.progress = service.NewProgressTracker(st, clk, log)
	a.activity = service.NewActivityCoordinator(st, clk, a.ledger, a.streaks, log)
	a.library = service.NewLibraryService(st, clk, v, log)
	a.stats = service.NewStatsService(st, a.streaks, log)
	a.users = service.NewUserService(st, clk, v, log)
	return a
}

func (a *app) Close() error {
	return a.store.Close()
}

// requireUser resolves the --user flag.
func (a *app) requireUser(ctx context.Context, email string) (*domain.User, error) {
	if email == "" {
		return nil, fmt.Errorf("--user is required")
	}
	return a.users.GetByEmail(ctx, email)
}

// withApp opens the app for the duration of fn.
func withApp(flags *globalFlags, fn func(ctx context.Context, a *app) error) error {
	a, err := loadApp(flags)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }() //nolint:errcheck // nothing to do on close failure

	return fn(context.Background(), a)
}

// withUser opens the app and resolves the acting user.
func withUser(flags *globalFlags, fn func(ctx context.Context, a *app, user *domain.User) error) error {
	return withApp(flags, func(ctx context.Context, a *app) error {
		user, err := a.requireUser(ctx, flags.user)
		if err != nil {
			return err
		}
		return fn(ctx, a, user)
	})
}

// issueToken signs an access token with the server's key.
func (a *app) issueToken(user *domain.User) (string, time.Time, error) {
	key, err := auth.LoadOrGenerateKey(a.cfg.App.DataPath)
	if err != nil {
		return "", time.Time{}, err
	}
	tokens, err := auth.NewTokenService(key, a.cfg.Auth.AccessTokenDuration, a.clock)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokens.Issue(user)
}
