// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package dbstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanrun/oceanrun/internal/config"
	"github.com/oceanrun/oceanrun/internal/datasource"
)

func newTestDataSource(t *testing.T) *DataSource {
	t.Helper()
	ds, err := New(config.SQLDatasourceConfig{Driver: "sqlite", Database: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ds.Close() })
	return ds
}

func TestDataSource_SaveAndGetRun(t *testing.T) {
	ds := newTestDataSource(t)
	assert.Equal(t, "gorm", ds.DataSourceType())

	record := datasource.RunRecord{
		RunID:             "run1",
		Success:           true,
		StagesCompleted:   []string{"generate", "run", "postprocess"},
		PostprocessResult: map[string]any{"success": true},
		StartedAt:         time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		FinishedAt:        time.Date(2026, 1, 1, 0, 1, 0, 0, time.UTC),
	}

	require.NoError(t, ds.SaveRun(context.Background(), record))

	got, err := ds.GetRun(context.Background(), "run1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, record.RunID, got.RunID)
	assert.True(t, got.Success)
	assert.Equal(t, record.StagesCompleted, got.StagesCompleted)
	assert.Equal(t, true, got.PostprocessResult["success"])
}

func TestDataSource_GetRun_NotFound(t *testing.T) {
	ds := newTestDataSource(t)
	got, err := ds.GetRun(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDataSource_SaveRun_Upserts(t *testing.T) {
	ds := newTestDataSource(t)
	require.NoError(t, ds.SaveRun(context.Background(), datasource.RunRecord{RunID: "run1", Success: false, Error: "first attempt failed"}))
	require.NoError(t, ds.SaveRun(context.Background(), datasource.RunRecord{RunID: "run1", Success: true}))

	got, err := ds.GetRun(context.Background(), "run1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Success)
}

func TestNew_UnsupportedDriver(t *testing.T) {
	_, err := New(config.SQLDatasourceConfig{Driver: "mysql"})
	require.Error(t, err)
}
