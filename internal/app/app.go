// ABOUTME: Startup wiring for persisted client state
// ABOUTME: Opens storage, runs the legacy migration, then initializes the store

package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/2389/skystate/internal/config"
	"github.com/2389/skystate/internal/legacy"
	"github.com/2389/skystate/internal/persisted"
	"github.com/2389/skystate/internal/preferences"
	"github.com/2389/skystate/internal/session"
	"github.com/2389/skystate/internal/store"
)

// App holds the initialized state services.
type App struct {
	Storage     store.Storage
	State       *persisted.Store
	Preferences *preferences.Service
	Session     *session.Service

	// Migration is the outcome of the startup migration. Empty when skipped.
	Migration legacy.Result

	logger    *slog.Logger
	stopWatch context.CancelFunc
	watchDone chan struct{}
}

// Open opens the configured SQLite storage and starts the app on it.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	storage, err := store.NewSQLiteStore(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	a, err := Start(ctx, cfg, storage, logger)
	if err != nil {
		storage.Close()
		return nil, err
	}
	return a, nil
}

// Start migrates and initializes persisted state on an already opened storage.
// The returned App owns storage and closes it in Close.
func Start(ctx context.Context, cfg *config.Config, storage store.Storage, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	defaults := persisted.NewDefaults(cfg.Locale.DeviceLocales)
	state := persisted.NewStore(storage,
		persisted.WithKey(cfg.Storage.StateKey),
		persisted.WithDefaults(defaults),
		persisted.WithLogger(logger),
	)

	a := &App{
		Storage: storage,
		State:   state,
		logger:  logger.With("component", "app"),
	}

	if !cfg.Migration.Skip {
		migrator := legacy.NewMigrator(storage, state,
			legacy.WithLogger(logger),
			legacy.WithDefaults(defaults),
			legacy.WithLegacyKey(cfg.Storage.LegacyKey),
			legacy.WithTimeout(cfg.Migration.Timeout),
		)
		a.Migration = migrator.Migrate(ctx)
	}

	if err := state.Init(ctx); err != nil {
		return nil, fmt.Errorf("initializing persisted state: %w", err)
	}

	a.Preferences = preferences.NewService(state, logger)
	a.Session = session.NewService(state, logger)
	a.watch()

	a.logger.Info("persisted state ready",
		"state_key", state.Key(),
		"migration", string(a.Migration),
	)
	return a, nil
}

// watch logs each state committed through the store until Close.
func (a *App) watch() {
	ctx, cancel := context.WithCancel(context.Background())
	updates, _ := a.State.Subscribe(ctx)
	a.stopWatch = cancel
	a.watchDone = make(chan struct{})

	go func() {
		defer close(a.watchDone)
		for state := range updates {
			current := ""
			if state.Session.CurrentAccount != nil {
				current = state.Session.CurrentAccount.DID
			}
			a.logger.Debug("persisted state: updated",
				"accounts", len(state.Session.Accounts),
				"current_account", current,
				"color_mode", string(state.ColorMode),
			)
		}
	}()
}

// Close releases subscribers and closes storage.
func (a *App) Close() error {
	if a.stopWatch != nil {
		a.stopWatch()
	}
	a.State.Close()
	if a.watchDone != nil {
		<-a.watchDone
	}
	return a.Storage.Close()
}
