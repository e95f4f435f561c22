// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/oceanrun/oceanrun/internal/config"
)

// levelFormatter renders a zerolog level as the fixed-width "| LEVEL |"
// tag both the console and wrapped-file console writers use, so the
// FormatLevel settings in consoleWriter and createWriters stay in sync.
func levelFormatter(i interface{}) string {
	return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
}

// Manager owns one zerolog.Logger per package name (registry, template,
// pipeline, cli, ...), each derived from a shared set of writers and level
// overrides so every stage of a model run logs through the same sinks. The
// static getters in factory.go (GetPipelineLogger, GetRunLogger, ...) are
// the intended call sites; nothing outside this package should reach for
// NewManager/GetLogger("package-name") directly.
type Manager struct {
	config         *config.LogConfig
	globalLogger   zerolog.Logger
	packageLoggers map[string]zerolog.Logger
	mu             sync.RWMutex
	writers        []io.Writer
}

// NewManager builds a Manager from cfg, opening every configured output
// (console and/or rotated file via lumberjack) and falling back to
// ./logs/oceanrun-fallback.log when cfg lists none, so a misconfigured run
// still has somewhere to put its logs instead of going silent.
func NewManager(cfg *config.LogConfig) (*Manager, error) {
	m := &Manager{
		config:         cfg,
		packageLoggers: make(map[string]zerolog.Logger),
		writers:        make([]io.Writer, 0),
	}

	globalLevel := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(globalLevel)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	writers, err := m.createWriters(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create log writers: %w", err)
	}
	m.writers = writers

	multiWriter, err := m.fanoutWriter(writers)
	if err != nil {
		return nil, err
	}

	m.globalLogger = m.createLogger(multiWriter, globalLevel)

	// The package default logger is left untouched; every oceanrun package
	// pulls its own logger through GetLogger/factory.go instead.
	return m, nil
}

// fanoutWriter combines writers into the single io.Writer the global logger
// writes through, opening the fallback file when writers is empty.
func (m *Manager) fanoutWriter(writers []io.Writer) (io.Writer, error) {
	switch len(writers) {
	case 0:
		defaultPath := "./logs/oceanrun-fallback.log"
		if err := os.MkdirAll(filepath.Dir(defaultPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create fallback log directory: %w", err)
		}
		file, err := os.OpenFile(defaultPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("failed to create fallback log file: %w", err)
		}
		m.writers = append(m.writers, file)
		return file, nil
	case 1:
		return writers[0], nil
	default:
		return io.MultiWriter(writers...), nil
	}
}

// createWriters opens one io.Writer per enabled entry in cfg.Output, in
// order, rotating file outputs through lumberjack when Rotate.MaxSizeMB is
// set.
func (m *Manager) createWriters(cfg *config.LogConfig) ([]io.Writer, error) {
	var writers []io.Writer

	for _, output := range cfg.Output {
		if !output.Enabled {
			continue
		}

		switch output.Type {
		case "console":
			writers = append(writers, m.consoleWriter(cfg.Format))

		case "file":
			w, err := m.fileWriter(output)
			if err != nil {
				return nil, err
			}
			writers = append(writers, w)

		default:
			return nil, fmt.Errorf("unsupported output type: %s", output.Type)
		}
	}

	// File outputs stay raw writers above so rotation/close logic is
	// shared; wrap them for display only once the format calls for it.
	if cfg.Format == "console" && len(writers) > 0 {
		for i, w := range writers {
			if i < len(cfg.Output) && cfg.Output[i].Type == "file" {
				writers[i] = zerolog.ConsoleWriter{
					Out:         w,
					TimeFormat:  "2006-01-02 15:04:05.000",
					FormatLevel: levelFormatter,
				}
			}
		}
	}

	return writers, nil
}

// consoleWriter returns the stderr writer for a "console" output entry,
// wrapped in a zerolog.ConsoleWriter when format asks for colored text.
func (m *Manager) consoleWriter(format string) io.Writer {
	if format != "console" {
		return os.Stderr
	}
	return zerolog.ConsoleWriter{
		Out:              os.Stderr,
		TimeFormat:       "15:04:05.000",
		FormatLevel:      levelFormatter,
		FormatFieldName:  func(i interface{}) string { return fmt.Sprintf("%s:", i) },
		FormatFieldValue: func(i interface{}) string { return fmt.Sprintf("%s", i) },
	}
}

// fileWriter opens a "file" output entry, creating its parent directory
// first and registering the writer with m.writers so Close reaches it.
func (m *Manager) fileWriter(output config.LogOutputConfig) (io.Writer, error) {
	if err := os.MkdirAll(filepath.Dir(output.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	if output.Rotate.MaxSizeMB > 0 {
		w := &lumberjack.Logger{
			Filename:   output.Path,
			MaxSize:    output.Rotate.MaxSizeMB,
			MaxBackups: output.Rotate.MaxBackups,
			MaxAge:     output.Rotate.MaxAgeDays,
			Compress:   output.Rotate.Compress,
		}
		m.writers = append(m.writers, w)
		return w, nil
	}

	file, err := os.OpenFile(output.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", output.Path, err)
	}
	m.writers = append(m.writers, file)
	return file, nil
}

// createLogger derives a zerolog.Logger bound to w and level, applying the
// timestamp/caller/stack/sampling options from m.config.Context and
// m.config.Sampling.
func (m *Manager) createLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	ctx := zerolog.New(w).Level(level)

	if m.config.Context.IncludeTimestamp {
		ctx = ctx.With().Timestamp().Logger()
	}
	if m.config.Context.IncludeCaller {
		ctx = ctx.With().Caller().Logger()
	}
	if m.config.Context.IncludeStackTrace != "" {
		ctx = ctx.With().Stack().Logger()
	}
	if m.config.Sampling.Enabled {
		sampler := &zerolog.BurstSampler{
			Burst:       m.config.Sampling.Initial,
			Period:      m.config.Sampling.Tick,
			NextSampler: &zerolog.BasicSampler{N: m.config.Sampling.Thereafter},
		}
		ctx = ctx.Sample(sampler)
	}

	return ctx
}

// GetLogger returns pkg's logger, deriving and caching it from the global
// logger (with a "pkg" field and pkg's own level override, if configured)
// on first call.
func (m *Manager) GetLogger(pkg string) zerolog.Logger {
	m.mu.RLock()
	if logger, exists := m.packageLoggers[pkg]; exists {
		m.mu.RUnlock()
		return logger
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if logger, exists := m.packageLoggers[pkg]; exists {
		return logger
	}

	level := parseLevel(m.config.Level)
	if pkgLevel, exists := m.config.Levels[pkg]; exists {
		level = parseLevel(pkgLevel)
	}

	logger := m.globalLogger.With().Str("pkg", pkg).Logger().Level(level)
	m.packageLoggers[pkg] = logger

	return logger
}

// SetPackageLevel changes pkg's log level at runtime, updating any logger
// already cached for it.
func (m *Manager) SetPackageLevel(pkg string, level string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	parsedLevel := parseLevel(level)

	if m.config.Levels == nil {
		m.config.Levels = make(map[string]string)
	}
	m.config.Levels[pkg] = level

	if logger, exists := m.packageLoggers[pkg]; exists {
		m.packageLoggers[pkg] = logger.Level(parsedLevel)
	}
}

// Close closes all file writers
func (m *Manager) Close() error {
	for _, w := range m.writers {
		if closer, ok := w.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				return err
			}
		}
	}
	return nil
}

// parseLevel converts string level to zerolog.Level
func parseLevel(level string) zerolog.Level {
	switch strings.ToUpper(level) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	case "FATAL":
		return zerolog.FatalLevel
	case "PANIC":
		return zerolog.PanicLevel
	default:
		return zerolog.InfoLevel
	}
}

// Global manager instance
var globalManager *Manager
var once sync.Once

// Initialize initializes the global logger manager
func Initialize(cfg *config.LogConfig) error {
	var err error
	once.Do(func() {
		globalManager, err = NewManager(cfg)
	})
	return err
}

// GetLogger returns a logger for the specified package
func GetLogger(pkg string) zerolog.Logger {
	if globalManager == nil {
		// Return a discard logger if not initialized to avoid stdout/stderr pollution
		return zerolog.New(io.Discard).With().Timestamp().Logger()
	}
	return globalManager.GetLogger(pkg)
}

// Close closes the global logger manager
func CloseGlobal() error {
	if globalManager != nil {
		return globalManager.Close()
	}
	return nil
}
