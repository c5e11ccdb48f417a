package config

import (
	"fmt"
	"net"
	"strings"
)

// validateConfig performs comprehensive validation of configuration values
func validateConfig(config *Config) error {
	var validationErrors []string

	validationErrors = append(validationErrors, validateLogging(config)...)
	validationErrors = append(validationErrors, validateExplorer(config)...)
	validationErrors = append(validationErrors, validateDatabase(config)...)
	validationErrors = append(validationErrors, validateMetrics(config)...)

	if len(validationErrors) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(validationErrors, "\n  - "))
	}

	return nil
}

func validateLogging(config *Config) []string {
	var validationErrors []string
	switch config.Logging.Level {
	case "trace", "debug", "info", "warn", "error", "":
	default:
		validationErrors = append(validationErrors, fmt.Sprintf(
			"logging.level must be one of: trace, debug, info, warn, error (got: %s)",
			config.Logging.Level,
		))
	}
	switch config.Logging.Format {
	case "json", "console", "":
	default:
		validationErrors = append(validationErrors, fmt.Sprintf(
			"logging.format must be one of: json, console (got: %s)",
			config.Logging.Format,
		))
	}
	if config.Logging.MaxSizeMB < 0 {
		validationErrors = append(validationErrors, "logging.max_size_mb must be non-negative")
	}
	if config.Logging.MaxBackups < 0 {
		validationErrors = append(validationErrors, "logging.max_backups must be non-negative")
	}
	if config.Logging.MaxAgeDays < 0 {
		validationErrors = append(validationErrors, "logging.max_age_days must be non-negative")
	}
	return validationErrors
}

func validateExplorer(config *Config) []string {
	var validationErrors []string
	if config.Explorer.Workers < 1 || config.Explorer.Workers > 64 {
		validationErrors = append(validationErrors, "explorer.workers must be between 1 and 64")
	}
	if config.Explorer.PageSize < 0 {
		validationErrors = append(validationErrors, "explorer.page_size must be non-negative")
	}
	if config.Explorer.EagerDepth < 0 || config.Explorer.EagerDepth > 8 {
		validationErrors = append(validationErrors, "explorer.eager_depth must be between 0 and 8")
	}
	if config.Explorer.FetchTimeout < 0 {
		validationErrors = append(validationErrors, "explorer.fetch_timeout must be non-negative")
	}
	return validationErrors
}

func validateDatabase(config *Config) []string {
	if config.Database.BusyTimeout < 0 {
		return []string{"database.busy_timeout must be non-negative"}
	}
	return nil
}

func validateMetrics(config *Config) []string {
	if !config.Metrics.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(config.Metrics.ListenAddr); err != nil {
		return []string{fmt.Sprintf("metrics.listen_addr must be host:port (got: %s)", config.Metrics.ListenAddr)}
	}
	return nil
}
