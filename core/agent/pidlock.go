// Package agent implements C7, the long-running polling/reconciliation
// loop, per spec.md §4.7. It holds no state of its own beyond the pidfile
// it guards: every decision is recomputed each iteration from core/store
// and core/collstate.
package agent

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"ivxv.ee/collector-admin/core/ivxverr"
)

// PidLock is a single-holder file-based mutex guarding config-apply
// spawns (§4.7 step 4) and per-host log copies (§5 "Mutual exclusion"),
// ported from the original's lib/lockfile.py.
type PidLock struct {
	Path string
}

// Acquire reaps a stale lockfile (PID not present in /proc, or file empty
// or garbled) before attempting to claim the lock; a live holder reports
// LockBusyError.
func (l *PidLock) Acquire() error {
	if err := l.reapIfStale(); err != nil {
		return err
	}
	f, err := os.OpenFile(l.Path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		if os.IsExist(err) {
			return ivxverr.NewLockBusy(l.Path, 1)
		}
		return errors.Wrapf(err, "create pidfile %s", l.Path)
	}
	defer f.Close()
	_, err = fmt.Fprintf(f, "%d", os.Getpid())
	return errors.Wrapf(err, "write pidfile %s", l.Path)
}

// Release removes the pidfile unconditionally. The caller must only call
// this after a successful Acquire.
func (l *PidLock) Release() error {
	if err := os.Remove(l.Path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "remove pidfile %s", l.Path)
	}
	return nil
}

func (l *PidLock) reapIfStale() error {
	b, err := os.ReadFile(l.Path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "read pidfile %s", l.Path)
	}

	pid, perr := strconv.Atoi(strings.TrimSpace(string(b)))
	if perr != nil {
		// Empty or garbled content: reap unconditionally.
		return os.Remove(l.Path)
	}
	if !processAlive(pid) {
		return os.Remove(l.Path)
	}
	return nil
}

func processAlive(pid int) bool {
	_, err := os.Stat(fmt.Sprintf("/proc/%d", pid))
	return err == nil
}
