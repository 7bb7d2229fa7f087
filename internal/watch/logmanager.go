package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/re-cinq/ums-hooks/internal/fileutil"
)

// LogManager keeps one append-mode log file per watcher. `umshook logs
// <watcher>` tails the file this writes to.
type LogManager struct {
	mu    sync.Mutex
	files map[string]*os.File
	dir   string
}

// NewLogManager builds a LogManager rooted at <repoDir>/.ums/logs.
func NewLogManager(repoDir string) *LogManager {
	return &LogManager{files: make(map[string]*os.File), dir: fileutil.UMSSubdir(repoDir, "logs")}
}

// LogPath returns the log file path for a watcher name.
func (m *LogManager) LogPath(name string) string {
	return filepath.Join(m.dir, name+".log")
}

func (m *LogManager) getFile(name string) (*os.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if f, ok := m.files[name]; ok {
		return f, nil
	}
	if err := fileutil.EnsureDir(m.dir); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(m.LogPath(name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	m.files[name] = f
	return f, nil
}

// Write appends a timestamped line to the named watcher's log file. Errors
// are swallowed: logging must never be the reason a watcher tick fails.
func (m *LogManager) Write(name, format string, args ...any) {
	f, err := m.getFile(name)
	if err != nil {
		return
	}
	ts := time.Now().UTC().Format(time.RFC3339)
	fmt.Fprintf(f, "%s %s\n", ts, fmt.Sprintf(format, args...))
}

// Close closes every open log file.
func (m *LogManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.files {
		f.Close()
	}
	m.files = make(map[string]*os.File)
}
