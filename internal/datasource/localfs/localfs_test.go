// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package localfs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanrun/oceanrun/internal/datasource"
)

func TestDataSource_SaveAndGetRun(t *testing.T) {
	root := t.TempDir()
	ds := New(root)
	assert.Equal(t, "localfs", ds.DataSourceType())

	record := datasource.RunRecord{
		RunID:           "run1",
		Success:         true,
		StagesCompleted: []string{"generate", "run", "postprocess"},
		StartedAt:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		FinishedAt:      time.Date(2026, 1, 1, 0, 1, 0, 0, time.UTC),
	}

	require.NoError(t, ds.SaveRun(context.Background(), record))
	assert.FileExists(t, filepath.Join(root, historySubdir, "run1.json"))

	got, err := ds.GetRun(context.Background(), "run1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, record.RunID, got.RunID)
	assert.True(t, got.Success)
	assert.Equal(t, record.StagesCompleted, got.StagesCompleted)
}

func TestDataSource_GetRun_NotFound(t *testing.T) {
	ds := New(t.TempDir())
	got, err := ds.GetRun(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDataSource_SaveRun_CancelledContext(t *testing.T) {
	ds := New(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := ds.SaveRun(ctx, datasource.RunRecord{RunID: "run1"})
	assert.Error(t, err)
}

func TestManifestWatcher_DetectsWrite(t *testing.T) {
	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "manifest.yaml")
	require.NoError(t, os.WriteFile(manifestPath, []byte("plugins: []"), 0o644))

	w, err := WatchManifest(manifestPath)
	require.NoError(t, err)
	defer w.Close()

	changed := make(chan struct{}, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	go w.Run(ctx, func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(manifestPath, []byte("plugins: [noop]"), 0o644))

	select {
	case <-changed:
	case <-time.After(1500 * time.Millisecond):
		t.Fatal("manifest change was not detected")
	}
}
