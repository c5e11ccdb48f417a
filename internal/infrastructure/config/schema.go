package config

import "time"

// Config represents the complete configuration for grove.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging" toml:"logging"`
	// Explorer tunes the tree engine and the filesystem provider.
	Explorer ExplorerConfig `mapstructure:"explorer" yaml:"explorer" toml:"explorer"`
	// Database holds the SQLite store used to remember expanded nodes.
	Database DatabaseConfig `mapstructure:"database" yaml:"database" toml:"database"`
	// Metrics exposes engine metrics over HTTP in Prometheus format.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics" toml:"metrics"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level" toml:"level" jsonschema:"enum=trace,enum=debug,enum=info,enum=warn,enum=error"`
	Format string `mapstructure:"format" yaml:"format" toml:"format" jsonschema:"enum=json,enum=console"`
	// EnableFileLog writes logs to a rotating file. The terminal explorer owns
	// the screen, so this is the only way to see its logs.
	EnableFileLog bool   `mapstructure:"enable_file_log" yaml:"enable_file_log" toml:"enable_file_log"`
	LogDir        string `mapstructure:"log_dir" yaml:"log_dir" toml:"log_dir"`
	MaxSizeMB     int    `mapstructure:"max_size_mb" yaml:"max_size_mb" toml:"max_size_mb"`
	MaxBackups    int    `mapstructure:"max_backups" yaml:"max_backups" toml:"max_backups"`
	MaxAgeDays    int    `mapstructure:"max_age_days" yaml:"max_age_days" toml:"max_age_days"`
	Compress      bool   `mapstructure:"compress" yaml:"compress" toml:"compress"`
}

// ExplorerConfig configures the explorer.
type ExplorerConfig struct {
	// Root is the directory shown at the top of the tree. Empty means the working directory.
	Root string `mapstructure:"root" yaml:"root" toml:"root"`
	// Workers bounds how many directory listings run at once.
	Workers int `mapstructure:"workers" yaml:"workers" toml:"workers" jsonschema:"minimum=1,maximum=64"`
	// PageSize is the number of entries per page; 0 lists whole directories.
	PageSize int `mapstructure:"page_size" yaml:"page_size" toml:"page_size" jsonschema:"minimum=0"`
	// ShowHidden includes dot files.
	ShowHidden bool `mapstructure:"show_hidden" yaml:"show_hidden" toml:"show_hidden"`
	// EagerDepth loads directories down to this depth without expanding them.
	EagerDepth int `mapstructure:"eager_depth" yaml:"eager_depth" toml:"eager_depth" jsonschema:"minimum=0,maximum=8"`
	// FetchTimeout bounds a single listing.
	FetchTimeout time.Duration `mapstructure:"fetch_timeout" yaml:"fetch_timeout" toml:"fetch_timeout"`
	// Watch refreshes loaded directories when they change on disk.
	Watch bool `mapstructure:"watch" yaml:"watch" toml:"watch"`
	// RestoreExpansion re-expands the directories that were open last time.
	RestoreExpansion bool `mapstructure:"restore_expansion" yaml:"restore_expansion" toml:"restore_expansion"`
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	// Path is the SQLite file. Empty means the XDG data directory.
	Path        string        `mapstructure:"path" yaml:"path" toml:"path"`
	BusyTimeout time.Duration `mapstructure:"busy_timeout" yaml:"busy_timeout" toml:"busy_timeout"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled" toml:"enabled"`
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr" toml:"listen_addr"`
}
