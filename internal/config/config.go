// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// AppConfig holds all process configuration for oceanrun. It is distinct from
// the model-run configuration documents the core resolves at pipeline time;
// this struct governs the process itself. It is instantiated by NewConfig()
// and passed to components that need it (dependency injection).
type AppConfig struct {
	Log        LogConfig        `mapstructure:"log"`
	Plugins    PluginConfig     `mapstructure:"plugins"`
	Backend    BackendConfig    `mapstructure:"backend"`
	Docker     DockerConfig     `mapstructure:"docker"`
	Datasource DatasourceConfig `mapstructure:"datasource"`
	Temporal   TemporalConfig   `mapstructure:"temporal"`
}

// LogConfig holds comprehensive logging configuration
type LogConfig struct {
	Level    string            `mapstructure:"level"`
	Format   string            `mapstructure:"format"`
	Dir      string            `mapstructure:"dir"` // Deprecated, kept for backward compatibility
	Output   []LogOutputConfig `mapstructure:"output"`
	Levels   map[string]string `mapstructure:"levels"`
	Context  LogContextConfig  `mapstructure:"context"`
	Sampling LogSamplingConfig `mapstructure:"sampling"`
}

// LogOutputConfig defines where logs are written
type LogOutputConfig struct {
	Type    string          `mapstructure:"type"` // "file", "console", "syslog"
	Enabled bool            `mapstructure:"enabled"`
	Path    string          `mapstructure:"path"`   // For file output
	Rotate  LogRotateConfig `mapstructure:"rotate"` // For file output
}

// LogRotateConfig defines log rotation settings
type LogRotateConfig struct {
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	Compress   bool `mapstructure:"compress"`
}

// LogContextConfig defines what context to include in logs
type LogContextConfig struct {
	IncludeCaller     bool   `mapstructure:"include_caller"`
	IncludeTimestamp  bool   `mapstructure:"include_timestamp"`
	IncludeLevel      bool   `mapstructure:"include_level"`
	IncludeStackTrace string `mapstructure:"include_stack_trace"` // Level at which to include stack trace
}

// LogSamplingConfig defines log sampling settings
type LogSamplingConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Initial    uint32        `mapstructure:"initial"`
	Thereafter uint32        `mapstructure:"thereafter"`
	Tick       time.Duration `mapstructure:"tick"`
}

// PluginConfig governs where the Plugin Registry discovers model-config,
// run-backend, postprocessor, pipeline-backend, and data-source plugins.
type PluginConfig struct {
	ManifestPaths []string `mapstructure:"manifest_paths"`
	WatchManifest bool     `mapstructure:"watch_manifest"`
}

// BackendConfig holds defaults shared across all Run Stage backends.
type BackendConfig struct {
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
	GracePeriod    time.Duration `mapstructure:"grace_period"`
	HeartbeatEvery time.Duration `mapstructure:"heartbeat_every"`
}

// DockerConfig holds configuration for the Docker run backend.
type DockerConfig struct {
	Host           string            `mapstructure:"host"`
	DefaultImage   string            `mapstructure:"default_image"`
	NetworkMode    string            `mapstructure:"network_mode"`
	Environment    map[string]string `mapstructure:"environment"`
	ResourceLimits DockerResourceLimits `mapstructure:"resource_limits"`
	StopTimeout    time.Duration     `mapstructure:"stop_timeout"`
}

// DockerResourceLimits defines default container resource limits.
type DockerResourceLimits struct {
	CPUShares int64 `mapstructure:"cpu_shares"`
	MemoryMB  int64 `mapstructure:"memory_mb"`
}

// DatasourceConfig holds configuration for the run-history datasource plugin.
type DatasourceConfig struct {
	Driver   string `mapstructure:"driver"` // "localfs" or "gorm"
	SQL      SQLDatasourceConfig `mapstructure:"sql"`
	LocalDir string `mapstructure:"local_dir"`
}

// SQLDatasourceConfig holds configuration for the gorm datasource variant.
type SQLDatasourceConfig struct {
	Driver   string `mapstructure:"driver"` // "sqlite" or "postgres"
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// TemporalConfig holds Temporal-related configuration for the optional
// durable "temporal" pipeline backend.
type TemporalConfig struct {
	HostPort  string          `mapstructure:"host_port"`
	Namespace string          `mapstructure:"namespace"`
	TaskQueue string          `mapstructure:"task_queue"`
	Worker    WorkerConfig    `mapstructure:"worker"`
	Activity  ActivityOptions `mapstructure:"activity"`
	Workflow  WorkflowOptions `mapstructure:"workflow"`
}

// WorkerConfig holds Temporal worker configuration.
type WorkerConfig struct {
	MaxConcurrentActivityExecutions int     `mapstructure:"max_concurrent_activities"`
	MaxConcurrentWorkflows          int     `mapstructure:"max_concurrent_workflows"`
	ActivitiesPerSecond             float64 `mapstructure:"activities_per_second"`
}

// ActivityOptions holds common activity options.
type ActivityOptions struct {
	StartToCloseTimeout    time.Duration `mapstructure:"start_to_close_timeout"`
	ScheduleToCloseTimeout time.Duration `mapstructure:"schedule_to_close_timeout"`
	HeartbeatTimeout       time.Duration `mapstructure:"heartbeat_timeout"`
	RetryPolicy            RetryPolicy   `mapstructure:"retry_policy"`
}

// RetryPolicy defines retry behavior for activities.
type RetryPolicy struct {
	InitialInterval    time.Duration `mapstructure:"initial_interval"`
	BackoffCoefficient float64       `mapstructure:"backoff_coefficient"`
	MaximumInterval    time.Duration `mapstructure:"maximum_interval"`
	MaximumAttempts    int32         `mapstructure:"maximum_attempts"`
}

// WorkflowOptions holds common workflow options.
type WorkflowOptions struct {
	WorkflowExecutionTimeout time.Duration `mapstructure:"workflow_execution_timeout"`
	WorkflowRunTimeout       time.Duration `mapstructure:"workflow_run_timeout"`
	WorkflowTaskTimeout      time.Duration `mapstructure:"workflow_task_timeout"`
}

// NewConfig creates a new AppConfig by reading from a file, environment variables,
// and applying defaults. This function replaces the global Init().
func NewConfig(configPath string) (*AppConfig, error) {
	// Create a new config struct with default values
	cfg := defaultConfig()

	v := viper.New()

	// Register every default key with viper so AutomaticEnv can match an
	// OCEANRUN_* variable to it during Unmarshal.
	var defaults map[string]any
	if err := mapstructure.Decode(cfg, &defaults); err != nil {
		return nil, fmt.Errorf("failed to register config defaults: %w", err)
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// Set config file if provided, otherwise search in standard locations
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("oceanrun")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/oceanrun/")
		v.AddConfigPath("$HOME/.oceanrun")
	}

	// Configure viper to use environment variables
	v.SetEnvPrefix("OCEANRUN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read the config file. It's okay if it doesn't exist.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal the viper configuration into our config struct.
	// This will overwrite the default values with any values found in the config file or env vars.
	// We use a decoder hook to correctly handle nested structs.
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Expand paths that may contain ~ or environment variables
	cfg.expandPaths()

	// Validate the final configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// defaultConfig returns an AppConfig with default values.
// This is more type-safe than using viper.SetDefault().
func defaultConfig() AppConfig {
	return AppConfig{
		Log: LogConfig{
			Level:  "INFO",
			Format: "console",
			Dir:    "./logs", // Backward compatibility
			Output: []LogOutputConfig{
				{
					Type:    "file",
					Enabled: true,
					Path:    "./logs/oceanrun.log",
					Rotate: LogRotateConfig{
						MaxSizeMB:  100,
						MaxBackups: 7,
						MaxAgeDays: 30,
						Compress:   true,
					},
				},
				{
					Type:    "console",
					Enabled: true,
				},
			},
			Levels: map[string]string{
				"registry":    "INFO",
				"template":    "INFO",
				"resolver":    "INFO",
				"generate":    "INFO",
				"run":         "INFO",
				"container":   "INFO",
				"postprocess": "INFO",
				"pipeline":    "INFO",
				"cli":         "WARN",
				"datasource":  "INFO",
				"temporal":    "WARN",
			},
			Context: LogContextConfig{
				IncludeCaller:     true,
				IncludeTimestamp:  true,
				IncludeLevel:      true,
				IncludeStackTrace: "ERROR",
			},
			Sampling: LogSamplingConfig{
				Enabled:    false,
				Initial:    100,
				Thereafter: 100,
				Tick:       time.Second,
			},
		},
		Plugins: PluginConfig{
			ManifestPaths: []string{"./plugins"},
			WatchManifest: false,
		},
		Backend: BackendConfig{
			DefaultTimeout: 30 * time.Minute,
			GracePeriod:    5 * time.Second,
			HeartbeatEvery: 5 * time.Second,
		},
		Docker: DockerConfig{
			Host:         "unix:///var/run/docker.sock",
			DefaultImage: "ubuntu:22.04",
			NetworkMode:  "bridge",
			ResourceLimits: DockerResourceLimits{
				CPUShares: 1024,
				MemoryMB:  2048,
			},
			StopTimeout: 10 * time.Second,
		},
		Datasource: DatasourceConfig{
			Driver:   "localfs",
			LocalDir: ".oceanrun/history",
			SQL: SQLDatasourceConfig{
				Driver:   "sqlite",
				Database: "oceanrun-history.db",
				Host:     "localhost",
				Port:     5432,
				SSLMode:  "disable",
			},
		},
		Temporal: TemporalConfig{
			HostPort:  "localhost:7233",
			Namespace: "default",
			TaskQueue: "oceanrun-task-queue",
			Worker: WorkerConfig{
				MaxConcurrentActivityExecutions: 10,
				MaxConcurrentWorkflows:          10,
				ActivitiesPerSecond:             1000,
			},
			Activity: ActivityOptions{
				StartToCloseTimeout:    30 * time.Minute,
				ScheduleToCloseTimeout: time.Hour,
				HeartbeatTimeout:       10 * time.Second,
				RetryPolicy: RetryPolicy{
					InitialInterval:    time.Second,
					BackoffCoefficient: 2.0,
					MaximumInterval:    time.Minute,
					MaximumAttempts:    3,
				},
			},
			Workflow: WorkflowOptions{
				WorkflowExecutionTimeout: 6 * time.Hour,
				WorkflowRunTimeout:       6 * time.Hour,
				WorkflowTaskTimeout:      10 * time.Second,
			},
		},
	}
}

// expandPaths expands ~ and environment variables in path configuration values
func (c *AppConfig) expandPaths() {
	if c.Docker.Host != "" {
		c.Docker.Host = expandPath(c.Docker.Host)
	}

	if c.Datasource.LocalDir != "" {
		c.Datasource.LocalDir = expandPath(c.Datasource.LocalDir)
	}

	for i, p := range c.Plugins.ManifestPaths {
		c.Plugins.ManifestPaths[i] = expandPath(p)
	}
}

// expandPath expands ~ to home directory and environment variables
func expandPath(path string) string {
	if path == "" {
		return path
	}

	// Expand ~ to home directory
	if strings.HasPrefix(path, "~") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(homeDir, path[1:])
		}
	}

	// Expand environment variables
	path = os.ExpandEnv(path)

	return path
}

// validate checks if the configuration is valid.
func (c *AppConfig) validate() error {
	validLogLevels := map[string]bool{
		"DEBUG": true, "INFO": true, "WARN": true, "ERROR": true, "FATAL": true, "PANIC": true,
	}
	if !validLogLevels[strings.ToUpper(c.Log.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	if c.Datasource.Driver != "localfs" && c.Datasource.Driver != "gorm" {
		return fmt.Errorf("datasource.driver must be 'localfs' or 'gorm', got: %s", c.Datasource.Driver)
	}

	if c.Datasource.Driver == "gorm" && c.Datasource.SQL.Driver == "" {
		return errors.New("datasource.sql.driver is required when datasource.driver is 'gorm'")
	}

	if c.Backend.GracePeriod <= 0 {
		return errors.New("backend.grace_period must be positive")
	}

	if c.Docker.DefaultImage == "" {
		return errors.New("docker.default_image is required")
	}

	return nil
}

// GetDSN returns the SQL connection string for the gorm datasource variant.
func (sc *SQLDatasourceConfig) GetDSN() string {
	switch sc.Driver {
	case "sqlite":
		dsn := sc.Database
		if dsn == ":memory:" {
			dsn = "file::memory:?cache=shared"
		}
		return dsn
	case "postgres":
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			sc.Host, sc.Port, sc.Username, sc.Password, sc.Database, sc.SSLMode)
	default:
		// Fallback for other drivers that might just use a connection string directly
		return sc.Database
	}
}
