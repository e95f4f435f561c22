// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := defaultConfig()
	require.NoError(t, cfg.validate())
	assert.Equal(t, "localfs", cfg.Datasource.Driver)
	assert.Equal(t, 5*time.Second, cfg.Backend.GracePeriod)
	assert.Equal(t, "ubuntu:22.04", cfg.Docker.DefaultImage)
}

func TestAppConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{
			name:    "invalid log level",
			mutate:  func(c *AppConfig) { c.Log.Level = "VERBOSE" },
			wantErr: "invalid log level",
		},
		{
			name:    "invalid datasource driver",
			mutate:  func(c *AppConfig) { c.Datasource.Driver = "redis" },
			wantErr: "datasource.driver must be",
		},
		{
			name: "gorm datasource missing sql driver",
			mutate: func(c *AppConfig) {
				c.Datasource.Driver = "gorm"
				c.Datasource.SQL.Driver = ""
			},
			wantErr: "datasource.sql.driver is required",
		},
		{
			name:    "zero grace period",
			mutate:  func(c *AppConfig) { c.Backend.GracePeriod = 0 },
			wantErr: "grace_period must be positive",
		},
		{
			name:    "missing docker image",
			mutate:  func(c *AppConfig) { c.Docker.DefaultImage = "" },
			wantErr: "docker.default_image is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(&cfg)
			err := cfg.validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSQLDatasourceConfig_GetDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  SQLDatasourceConfig
		want string
	}{
		{
			name: "sqlite file",
			cfg:  SQLDatasourceConfig{Driver: "sqlite", Database: "history.db"},
			want: "history.db",
		},
		{
			name: "sqlite memory",
			cfg:  SQLDatasourceConfig{Driver: "sqlite", Database: ":memory:"},
			want: "file::memory:?cache=shared",
		},
		{
			name: "postgres",
			cfg: SQLDatasourceConfig{
				Driver:   "postgres",
				Host:     "db.internal",
				Port:     5432,
				Username: "oceanrun",
				Password: "secret",
				Database: "runs",
				SSLMode:  "require",
			},
			want: "host=db.internal port=5432 user=oceanrun password=secret dbname=runs sslmode=require",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.GetDSN())
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	os.Setenv("OCEANRUN_TEST_EXPAND_VAR", "injected")
	defer os.Unsetenv("OCEANRUN_TEST_EXPAND_VAR")

	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "empty", path: "", want: ""},
		{name: "tilde", path: "~/data", want: filepath.Join(home, "data")},
		{name: "env var", path: "$OCEANRUN_TEST_EXPAND_VAR/x", want: "injected/x"},
		{name: "plain", path: "/var/lib/oceanrun", want: "/var/lib/oceanrun"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, expandPath(tt.path))
		})
	}
}

func TestNewConfig_EnvOverride(t *testing.T) {
	os.Setenv("OCEANRUN_LOG_LEVEL", "DEBUG")
	defer os.Unsetenv("OCEANRUN_LOG_LEVEL")

	cfg, err := NewConfig("")
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", cfg.Log.Level)
}

func TestNewConfig_ExplicitFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "oceanrun.yaml")
	content := []byte("log:\n  level: WARN\nbackend:\n  grace_period: 10s\n")
	require.NoError(t, os.WriteFile(path, content, 0644))

	cfg, err := NewConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "WARN", cfg.Log.Level)
	assert.Equal(t, 10*time.Second, cfg.Backend.GracePeriod)
}
