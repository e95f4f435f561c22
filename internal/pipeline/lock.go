// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/oceanrun/oceanrun/internal/errs"
	"github.com/oceanrun/oceanrun/internal/logger"
)

const lockFileName = ".oceanrun.lock"

// stagingLock is the advisory lock held on a staging directory for the
// duration of one pipeline execution.
type stagingLock struct {
	path string
}

// acquireLock creates stagingDir/.oceanrun.lock with O_EXCL, writing the
// current process's PID. If a lock already exists and its owning PID is
// still alive, acquisition fails with RunResourceDenied; a lock left behind
// by a dead process is treated as abandoned, logged, and replaced.
func acquireLock(stagingDir, runID string) (*stagingLock, error) {
	log := logger.GetPipelineLogger()
	path := filepath.Join(stagingDir, lockFileName)

	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return nil, &errs.RunError{Kind: errs.RunBackendUnavailable, Cause: fmt.Errorf("create staging dir for lock: %w", err)}
	}

	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			_, writeErr := f.WriteString(strconv.Itoa(os.Getpid()))
			closeErr := f.Close()
			if writeErr != nil || closeErr != nil {
				_ = os.Remove(path)
				return nil, &errs.RunError{Kind: errs.RunBackendUnavailable, Cause: fmt.Errorf("write lock file: write=%v close=%v", writeErr, closeErr)}
			}
			return &stagingLock{path: path}, nil
		}
		if !os.IsExist(err) {
			return nil, &errs.RunError{Kind: errs.RunBackendUnavailable, Cause: fmt.Errorf("create lock file: %w", err)}
		}

		ownerPID, readErr := readLockPID(path)
		if readErr == nil && pidAlive(ownerPID) {
			return nil, &errs.RunError{Kind: errs.RunResourceDenied, Cause: fmt.Errorf("run %s: staging directory locked by live process %d", runID, ownerPID)}
		}

		log.Warn().Str("run_id", runID).Int("stale_pid", ownerPID).Msg("replacing abandoned staging directory lock")
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, &errs.RunError{Kind: errs.RunBackendUnavailable, Cause: fmt.Errorf("remove stale lock: %w", err)}
		}
	}

	return nil, &errs.RunError{Kind: errs.RunResourceDenied, Cause: fmt.Errorf("run %s: could not acquire staging directory lock", runID)}
}

func readLockPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

// pidAlive reports whether pid refers to a live process, using signal 0 to
// probe without actually sending a signal.
func pidAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}

// release removes the lock file. Safe to call once a pipeline has finished,
// regardless of outcome.
func (l *stagingLock) release() {
	if l == nil {
		return
	}
	_ = os.Remove(l.path)
}

// Lock is the exported handle to an acquired staging-directory lock, for
// pipeline-backend variants (e.g. temporal) that drive stages outside
// Execute and so must acquire/release the lock themselves.
type Lock struct {
	inner *stagingLock
}

// AcquireLock acquires stagingDir's advisory lock on behalf of runID.
func AcquireLock(stagingDir, runID string) (*Lock, error) {
	l, err := acquireLock(stagingDir, runID)
	if err != nil {
		return nil, err
	}
	return &Lock{inner: l}, nil
}

// Release removes the lock file.
func (l *Lock) Release() {
	if l == nil {
		return
	}
	l.inner.release()
}
