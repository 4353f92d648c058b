// Package fdmonitor counts this process's open file descriptors so that a
// leaked handle on file switches shows up in the log.
package fdmonitor

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultWarningThreshold is the FD count that triggers a warning.
	DefaultWarningThreshold = 64
	// MinCheckInterval prevents checking too frequently.
	MinCheckInterval = 2 * time.Second
)

// Monitor rate-limits FD checks.
type Monitor struct {
	mu        sync.Mutex
	logger    *slog.Logger
	threshold int
	interval  time.Duration
	lastCheck time.Time
	lastCount int
}

// New creates a monitor that warns once the FD count reaches threshold.
// A non-positive threshold uses DefaultWarningThreshold.
func New(logger *slog.Logger, threshold int) *Monitor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if threshold <= 0 {
		threshold = DefaultWarningThreshold
	}
	return &Monitor{
		logger:    logger,
		threshold: threshold,
		interval:  MinCheckInterval,
	}
}

// fdDir returns the directory listing this process's descriptors, or "" on
// platforms without one.
func fdDir() string {
	switch runtime.GOOS {
	case "darwin":
		return "/dev/fd"
	case "linux":
		return fmt.Sprintf("/proc/%d/fd", os.Getpid())
	}
	return ""
}

// Count returns the current number of open file descriptors for this process,
// or -1 where that cannot be determined.
func Count() int {
	dir := fdDir()
	if dir == "" {
		return -1
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return -1
	}
	return len(entries)
}

// Check logs a warning if the FD count is at or above the threshold. Checks
// within MinCheckInterval of the previous one return the cached count.
func (m *Monitor) Check(context string) (count int, warned bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.lastCheck.IsZero() && time.Since(m.lastCheck) < m.interval {
		return m.lastCount, false
	}

	count = Count()
	if count < 0 {
		return count, false
	}
	m.lastCheck = time.Now()
	m.lastCount = count

	if count >= m.threshold {
		m.logger.Warn("high FD count", "count", count, "threshold", m.threshold, "context", context, "breakdown", Breakdown())
		return count, true
	}
	m.logger.Debug("FD count", "count", count, "context", context)
	return count, false
}

// Breakdown categorises open descriptors. Returns an empty map where the
// descriptor directory is unavailable.
func Breakdown() map[string]int {
	info := make(map[string]int)

	dir := fdDir()
	if dir == "" {
		return info
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return info
	}

	for _, e := range entries {
		target, err := os.Readlink(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		info[category(target)]++
	}
	return info
}

func category(target string) string {
	switch {
	case strings.Contains(target, "inotify"), strings.Contains(target, "kqueue"):
		return "watch"
	case strings.HasPrefix(target, "pipe:"), target == "anon_inode:[pipe]":
		return "pipe"
	case strings.HasPrefix(target, "socket:"):
		return "socket"
	case strings.HasPrefix(target, "/dev/pts/"), strings.HasPrefix(target, "/dev/tty"):
		return "tty"
	case strings.HasPrefix(target, "anon_inode:"):
		return "anon"
	default:
		return "file"
	}
}
