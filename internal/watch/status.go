// Package watch implements the polling watcher base and the four concrete
// watchers (validation, reload, post-commit, merge). WatcherStatus is the
// on-disk liveness record one watcher process writes per trigger kind, read
// back by `umshook status` and `ResetActiveStatuses` at serve startup.
package watch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/re-cinq/ums-hooks/internal/fileutil"
	"github.com/re-cinq/ums-hooks/internal/trigger"
)

// Lifecycle state names for WatcherStatus.State.
const (
	StateIdle    = "idle"
	StatePending = "pending"
	StateRunning = "running"
	StateFailed  = "failed"
)

// WatcherStatus is the on-disk liveness record for one watcher kind.
type WatcherStatus struct {
	State         string `json:"state"`
	LastTriggerAt string `json:"last_trigger_at,omitempty"`
	LastResultAt  string `json:"last_result_at,omitempty"`
	Error         string `json:"error,omitempty"`
	PID           int    `json:"pid"`
}

func statusDir(repoDir string) string {
	return fileutil.UMSSubdir(repoDir, "status")
}

func statusPath(repoDir string, kind trigger.Kind) string {
	return filepath.Join(statusDir(repoDir), string(kind)+".json")
}

// WriteStatus writes a watcher's status, atomically.
func WriteStatus(repoDir string, kind trigger.Kind, status WatcherStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("encoding watcher status: %w", err)
	}
	return fileutil.AtomicWriteFile(statusPath(repoDir, kind), data, 0o644)
}

// ReadStatus reads a watcher's status, returning nil if none has been
// written yet.
func ReadStatus(repoDir string, kind trigger.Kind) (*WatcherStatus, error) {
	path := statusPath(repoDir, kind)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading watcher status %s: %w", kind, err)
	}
	var status WatcherStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("parsing watcher status %s: %w", kind, err)
	}
	return &status, nil
}

// IsActiveState reports whether state represents a watcher mid-handler.
func IsActiveState(state string) bool {
	return state == StatePending || state == StateRunning
}

// IsProcessAlive checks whether a process with pid is still running.
func IsProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

// ResetActiveStatuses clears any watcher status left in an active state by a
// previous process that was killed mid-handler, marking it Failed. Called
// once at serve startup.
func ResetActiveStatuses(repoDir string, kinds []trigger.Kind) {
	for _, kind := range kinds {
		status, err := ReadStatus(repoDir, kind)
		if err != nil || status == nil {
			continue
		}
		if !IsActiveState(status.State) || IsProcessAlive(status.PID) {
			continue
		}
		staleState := status.State
		status.State = StateFailed
		status.Error = fmt.Sprintf("stale %s state cleared on startup (previous process interrupted)", staleState)
		_ = WriteStatus(repoDir, kind, *status)
	}
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}
