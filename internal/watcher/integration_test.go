package watcher

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/wilbur182/hexview/internal/pagedfile"
)

// readCountingFile counts disk reads through the accessor's handle.
type readCountingFile struct {
	*os.File
	reads *atomic.Int64
}

func (f readCountingFile) ReadAt(p []byte, off int64) (int, error) {
	f.reads.Add(1)
	return f.File.ReadAt(p, off)
}

func TestWatcher_DrivesAccessorInvalidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	if err := os.WriteFile(path, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	cache := pagedfile.NewPageCache(0)
	w, err := New(cache, WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	t.Cleanup(w.Stop)

	var reads atomic.Int64
	acc := pagedfile.New(cache,
		pagedfile.WithPageSize(64),
		pagedfile.WithWatcher(w),
		pagedfile.WithOpener(func(p string) (pagedfile.File, error) {
			f, err := os.Open(p)
			if err != nil {
				return nil, err
			}
			return readCountingFile{File: f, reads: &reads}, nil
		}))
	t.Cleanup(func() { acc.Close() })

	if _, err := acc.SetActivePath(path); err != nil {
		t.Fatalf("SetActivePath() failed: %v", err)
	}
	if w.Dir() != filepath.Dir(path) {
		t.Fatalf("Dir() = %q, want %q", w.Dir(), filepath.Dir(path))
	}

	read := func() string {
		t.Helper()
		out := make([]byte, 5)
		n, err := acc.ReadRange(0, 5, out)
		if err != nil {
			t.Fatalf("ReadRange() failed: %v", err)
		}
		return string(out[:n])
	}

	if got := read(); got != "hello" {
		t.Fatalf("first read = %q", got)
	}
	w.Handle(fsnotify.Event{Name: path, Op: fsnotify.Chmod})
	if got := read(); got != "hello" {
		t.Fatalf("read after chmod = %q", got)
	}
	if got := reads.Load(); got != 1 {
		t.Errorf("disk reads after chmod = %d, want 1", got)
	}

	if err := os.WriteFile(path, []byte("HELLO"), 0644); err != nil {
		t.Fatal(err)
	}
	waitChanged(t, w)

	if got := read(); got != "HELLO" {
		t.Errorf("read after write = %q, want %q", got, "HELLO")
	}
	if got := reads.Load(); got != 2 {
		t.Errorf("disk reads after write = %d, want 2", got)
	}
}
