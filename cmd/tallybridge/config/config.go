// Package config builds component configurations from CLI flags and
// environment settings read through viper.
package config

import (
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"tallybridge/internal/dispatch"
	"tallybridge/internal/gateway"
	"tallybridge/pkg/logger"
)

// CreateLoggerConfig derives the logger configuration from the verbosity
// flag and any configured log file
func CreateLoggerConfig(verbose bool) *logger.Config {
	config := logger.DefaultConfig()
	if verbose {
		config = logger.DebugConfig()
	}
	if file := viper.GetString("log-file"); file != "" {
		config.File = file
	}
	return config
}

// CreateClientConfig builds the engine transport configuration
func CreateClientConfig() *gateway.ClientConfig {
	config := gateway.DefaultClientConfig()

	if port := viper.GetInt("port"); port != 0 {
		config.Port = port
	}
	if timeout := viper.GetDuration("request-timeout"); timeout > 0 {
		config.Timeout = timeout
	}
	if gap := viper.GetDuration("request-gap"); gap > 0 {
		config.MinRequestGap = gap
	}
	return config
}

// CreateProfilerConfig builds the volume profiler configuration; the
// profile file lives in the caller's working data directory
func CreateProfilerConfig() *gateway.ProfilerConfig {
	config := gateway.DefaultProfilerConfig()

	if dir := viper.GetString("work-dir"); dir != "" {
		config.ProfilePath = filepath.Join(dir, "volume_profile.json")
	}
	if budget := viper.GetInt("request-budget"); budget > 0 {
		config.SafeRequestBudget = budget
	}
	return config
}

// CreateProcessConfig builds the engine process manager configuration
func CreateProcessConfig() *gateway.ProcessConfig {
	config := gateway.DefaultProcessConfig()

	if name := viper.GetString("engine-process"); name != "" {
		config.ProcessName = name
	}
	if command := viper.GetStringSlice("engine-command"); len(command) > 0 {
		config.StartCommand = command
	}
	return config
}

// CreateDispatcherConfig builds the action dispatcher configuration
func CreateDispatcherConfig() *dispatch.Config {
	config := dispatch.DefaultConfig()

	config.DataDir = viper.GetString("data-dir")
	config.CompanyFallback = viper.GetString("company")
	if ttl := viper.GetDuration("company-cache-ttl"); ttl > 0 {
		config.CompanyCacheTTL = ttl
	}
	if size := viper.GetInt("page-size"); size > 0 {
		config.PageSize = size
	}
	return config
}

// Defaults used by commands that need a bounded wait even without a caller
// context
const (
	// ExecuteTimeout bounds one action end to end, including chunked
	// voucher queries with their inter-request gaps
	ExecuteTimeout = 5 * time.Minute
)
