package config

import (
	"path/filepath"
	"time"
)

const (
	defaultWorkers      = 4
	defaultPageSize     = 200
	defaultFetchTimeout = 30 * time.Second
	defaultBusyTimeout  = 5 * time.Second
	defaultMetricsAddr  = "127.0.0.1:9464"
)

func getDefaultLogDir() string {
	stateDir, err := GetStateDir()
	if err != nil {
		return ""
	}
	return filepath.Join(stateDir, "logs")
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:         "info",
			Format:        "console",
			EnableFileLog: true,
			LogDir:        getDefaultLogDir(),
			MaxSizeMB:     10,
			MaxBackups:    3,
			MaxAgeDays:    7,
			Compress:      true,
		},
		Explorer: ExplorerConfig{
			Workers:          defaultWorkers,
			PageSize:         defaultPageSize,
			ShowHidden:       false,
			EagerDepth:       0,
			FetchTimeout:     defaultFetchTimeout,
			Watch:            true,
			RestoreExpansion: true,
		},
		Database: DatabaseConfig{
			BusyTimeout: defaultBusyTimeout,
		},
		Metrics: MetricsConfig{
			Enabled:    false,
			ListenAddr: defaultMetricsAddr,
		},
	}
}
