// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package localfs implements the "localfs" run-history data source: one
// JSON file per run under a history directory, and a plugin-manifest file
// watcher for long-running server mode.
package localfs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/oceanrun/oceanrun/internal/datasource"
	"github.com/oceanrun/oceanrun/internal/logger"
)

const historySubdir = ".oceanrun/history"

// DataSource writes each run's RunRecord as a JSON file under
// root/.oceanrun/history/<run_id>.json.
type DataSource struct {
	historyDir string
}

// New returns a DataSource rooted at root; root is typically a Model-Run
// Container's output_dir.
func New(root string) *DataSource {
	return &DataSource{historyDir: filepath.Join(root, historySubdir)}
}

func (*DataSource) DataSourceType() string { return "localfs" }

func (d *DataSource) recordPath(runID string) string {
	return filepath.Join(d.historyDir, runID+".json")
}

// SaveRun writes record as JSON, creating the history directory if absent.
func (d *DataSource) SaveRun(ctx context.Context, record datasource.RunRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(d.historyDir, 0o755); err != nil {
		return fmt.Errorf("localfs data source: create history dir: %w", err)
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("localfs data source: encode run %s: %w", record.RunID, err)
	}
	if err := os.WriteFile(d.recordPath(record.RunID), data, 0o644); err != nil {
		return fmt.Errorf("localfs data source: write run %s: %w", record.RunID, err)
	}
	return nil
}

// GetRun reads back a previously saved record. A missing file is not an
// error: it returns (nil, nil), matching the teacher's "not found means nil"
// lookup convention.
func (d *DataSource) GetRun(ctx context.Context, runID string) (*datasource.RunRecord, error) {
	data, err := os.ReadFile(d.recordPath(runID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("localfs data source: read run %s: %w", runID, err)
	}
	var record datasource.RunRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("localfs data source: decode run %s: %w", runID, err)
	}
	return &record, nil
}

// Close is a no-op: localfs holds no connection to release.
func (*DataSource) Close() error { return nil }

// ManifestWatcher watches a single plugin-manifest file and invokes onChange
// whenever it is rewritten, for server/long-running mode's
// OCEANRUN_WATCH_PLUGINS hot-reload path. The registry built from a manifest
// is always replaced wholesale on change, never mutated in place.
type ManifestWatcher struct {
	watcher *fsnotify.Watcher
	path    string
}

// WatchManifest starts watching manifestPath and returns a ManifestWatcher;
// callers must call Close when done.
func WatchManifest(manifestPath string) (*ManifestWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("manifest watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(manifestPath)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("manifest watcher: watch %s: %w", manifestPath, err)
	}
	return &ManifestWatcher{watcher: w, path: manifestPath}, nil
}

// Run blocks, calling onChange each time the watched manifest file is
// written, until ctx is cancelled.
func (m *ManifestWatcher) Run(ctx context.Context, onChange func()) {
	log := logger.GetDatasourceLogger()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(m.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				onChange()
			}
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("manifest watcher error")
		}
	}
}

// Close stops the underlying fsnotify watcher.
func (m *ManifestWatcher) Close() error {
	return m.watcher.Close()
}
