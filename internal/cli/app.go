// Package cli wires grove's dependencies for the cobra commands.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/bnema/grove/internal/cli/styles"
	"github.com/bnema/grove/internal/domain/build"
	"github.com/bnema/grove/internal/domain/repository"
	"github.com/bnema/grove/internal/infrastructure/config"
	"github.com/bnema/grove/internal/infrastructure/persistence/sqlite"
	"github.com/bnema/grove/internal/logging"
)

// App holds CLI dependencies.
type App struct {
	Config    *config.Config
	Theme     *styles.Theme
	BuildInfo build.Info
	Trace     *logging.StartupTrace

	Expansions repository.ExpansionRepository
	Views      repository.ViewStateRepository

	manager    *config.Manager
	db         *sqlite.LazyDB
	ctx        context.Context
	logCleanup func()
}

// NewApp loads the configuration and sets up logging and storage. The
// database is opened on first use.
func NewApp() (*App, error) {
	mgr, cfg := loadConfig()

	logLevel := cfg.Logging.Level
	if envLevel := os.Getenv("GROVE_LOG_LEVEL"); envLevel != "" {
		logLevel = envLevel
	}

	// The explorer owns the terminal, so logs only go to the rotating file.
	logger, logCleanup, err := logging.NewWithFile(
		logging.Config{Level: logging.ParseLevel(logLevel), Format: cfg.Logging.Format, TimeFormat: "15:04:05"},
		logging.FileConfig{
			Enabled:    cfg.Logging.EnableFileLog && cfg.Logging.LogDir != "",
			Dir:        cfg.Logging.LogDir,
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAgeDays: cfg.Logging.MaxAgeDays,
			Compress:   cfg.Logging.Compress,
		},
	)
	if err != nil {
		// Fall back to a silent logger rather than writing over the TUI.
		logger = zerolog.Nop()
	}
	ctx := logging.WithContext(context.Background(), logger)

	trace := logging.NewStartupTrace(logLevel, &logger)
	trace.Mark("config_loaded")

	db := sqlite.NewLazyDB(cfg.Database.Path, sqlite.Options{BusyTimeout: cfg.Database.BusyTimeout})
	logger.Debug().Str("db_path", cfg.Database.Path).Msg("database configured")

	return &App{
		Config:     cfg,
		Theme:      styles.NewTheme(),
		Trace:      trace,
		Expansions: sqlite.NewLazyExpansionRepository(db),
		Views:      sqlite.NewLazyViewStateRepository(db),
		manager:    mgr,
		db:         db,
		ctx:        ctx,
		logCleanup: logCleanup,
	}, nil
}

// Ctx returns the application context with logger.
func (a *App) Ctx() context.Context {
	return a.ctx
}

// WatchConfig follows edits of the config file for the life of ctx. Only the
// log level is applied live; the rest takes effect on the next start.
func (a *App) WatchConfig(ctx context.Context) error {
	if a.manager == nil {
		return nil
	}
	a.manager.OnConfigChange(func(cfg *config.Config) {
		lvl := logging.ParseLevel(cfg.Logging.Level)
		zerolog.SetGlobalLevel(lvl)
		logging.FromContext(ctx).Info().Str("level", lvl.String()).Msg("config reloaded")
	})
	if err := a.manager.Watch(ctx); err != nil {
		return fmt.Errorf("watch config: %w", err)
	}
	return nil
}

// Close releases all resources.
func (a *App) Close() error {
	var err error
	if a.db != nil {
		err = a.db.Close()
	}
	if a.logCleanup != nil {
		a.logCleanup()
	}
	return err
}

// loadConfig loads configuration from standard locations, falling back to
// the defaults when the file cannot be read.
func loadConfig() (*config.Manager, *config.Config) {
	mgr, err := config.NewManager()
	if err != nil {
		return nil, withDatabasePath(config.DefaultConfig())
	}
	if err := mgr.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "grove: %v\nusing default configuration\n", err)
		return nil, withDatabasePath(config.DefaultConfig())
	}
	return mgr, mgr.Get()
}

func withDatabasePath(cfg *config.Config) *config.Config {
	if cfg.Database.Path == "" {
		if path, err := config.GetDatabaseFile(); err == nil {
			cfg.Database.Path = path
		}
	}
	return cfg
}
