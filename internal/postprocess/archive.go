// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package postprocess

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/oceanrun/oceanrun/internal/modelrun"
)

// ArchiveConfig configures the archive processor.
type ArchiveConfig struct {
	// OutputSubdir names the staging-directory subdirectory the archive is
	// written into when ArchivePath is unset. Defaults to "postprocess".
	OutputSubdir string
	// ArchivePath overrides the archive's destination entirely, for callers
	// who want it written to a sink outside the staging directory.
	ArchivePath string
	// Excludes lists staging-relative paths (files or directory prefixes)
	// to leave out of the archive.
	Excludes []string
}

// ArchiveProcessor tars and gzips a run's staging directory outputs into a
// single file.
type ArchiveProcessor struct {
	cfg ArchiveConfig
}

// NewArchiveProcessor constructs an ArchiveProcessor from cfg.
func NewArchiveProcessor(cfg ArchiveConfig) *ArchiveProcessor {
	return &ArchiveProcessor{cfg: cfg}
}

func (p *ArchiveProcessor) ProcessorType() string { return "archive" }

func (p *ArchiveProcessor) destination(staging string) string {
	if p.cfg.ArchivePath != "" {
		return p.cfg.ArchivePath
	}
	subdir := p.cfg.OutputSubdir
	if subdir == "" {
		subdir = "postprocess"
	}
	return filepath.Join(staging, subdir, "outputs.tar.gz")
}

func (p *ArchiveProcessor) excluded(rel string) bool {
	for _, ex := range p.cfg.Excludes {
		if rel == ex || strings.HasPrefix(rel, ex+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (p *ArchiveProcessor) Process(container *modelrun.Container) map[string]any {
	staging := container.StagingDir()
	dest := p.destination(staging)

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return map[string]any{"success": false, "error": fmt.Sprintf("create archive destination: %v", err)}
	}

	out, err := os.Create(dest)
	if err != nil {
		return map[string]any{"success": false, "error": fmt.Sprintf("create archive file: %v", err)}
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)

	walkErr := filepath.WalkDir(staging, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(staging, path)
		if relErr != nil {
			return relErr
		}
		if rel == "." || path == dest {
			return nil
		}
		if p.excluded(rel) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		return addFileToTar(tw, path, rel)
	})

	closeErr := tw.Close()
	gzErr := gz.Close()

	if walkErr != nil {
		return map[string]any{"success": false, "error": fmt.Sprintf("archive outputs: %v", walkErr)}
	}
	if closeErr != nil || gzErr != nil {
		return map[string]any{"success": false, "error": fmt.Sprintf("finalize archive: tar=%v gzip=%v", closeErr, gzErr)}
	}

	info, err := os.Stat(dest)
	if err != nil {
		return map[string]any{"success": false, "error": fmt.Sprintf("stat archive: %v", err)}
	}

	return map[string]any{
		"success":       true,
		"archive_path":  dest,
		"archive_bytes": info.Size(),
	}
}

func addFileToTar(tw *tar.Writer, path, rel string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = rel

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err = io.Copy(tw, f)
	return err
}
