package watcher

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

type countingInvalidator struct {
	clears atomic.Int64
}

func (c *countingInvalidator) Clear() { c.clears.Add(1) }

func newTestWatcher(t *testing.T) (*Watcher, *countingInvalidator) {
	t.Helper()
	inv := &countingInvalidator{}
	w, err := New(inv, WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	t.Cleanup(w.Stop)
	return w, inv
}

func waitChanged(t *testing.T, w *Watcher) {
	t.Helper()
	select {
	case <-w.Changed():
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for change signal")
	}
}

func TestRelevant(t *testing.T) {
	tests := []struct {
		op   fsnotify.Op
		want bool
	}{
		{fsnotify.Create, true},
		{fsnotify.Write, true},
		{fsnotify.Remove, true},
		{fsnotify.Rename, true},
		{fsnotify.Write | fsnotify.Chmod, true},
		{0, true},
		{fsnotify.Chmod, false},
	}
	for _, tt := range tests {
		if got := Relevant(tt.op); got != tt.want {
			t.Errorf("Relevant(%v) = %v, want %v", tt.op, got, tt.want)
		}
	}
}

func TestHandle_SyntheticEvents(t *testing.T) {
	w, inv := newTestWatcher(t)

	w.Handle(fsnotify.Event{Name: "/x/data.bin", Op: fsnotify.Chmod})
	if got := inv.clears.Load(); got != 0 {
		t.Fatalf("clears after Chmod = %d, want 0", got)
	}

	w.Handle(fsnotify.Event{Name: "/x/data.bin", Op: fsnotify.Write})
	if got := inv.clears.Load(); got != 1 {
		t.Fatalf("clears after Write = %d, want 1", got)
	}
	waitChanged(t, w)
}

func TestNew_Unwatched(t *testing.T) {
	w, _ := newTestWatcher(t)
	if w.Dir() != "" {
		t.Errorf("Dir() = %q, want empty", w.Dir())
	}
	if w.fsWatcher == nil {
		t.Error("fsWatcher not initialized")
	}
	if w.Changed() == nil {
		t.Error("Changed() returned nil channel")
	}
}

func TestWatch_InvalidDirectory(t *testing.T) {
	w, _ := newTestWatcher(t)

	if err := w.Watch("/nonexistent/path/that/does/not/exist"); err == nil {
		t.Error("Watch() should error for non-existent directory")
	}
	if w.Dir() != "" {
		t.Errorf("Dir() = %q after failed watch", w.Dir())
	}
}

func TestWatch_FileWriteInvalidates(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "data.bin")
	if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	w, inv := newTestWatcher(t)
	if err := w.Watch(tmpDir); err != nil {
		t.Fatalf("Watch() failed: %v", err)
	}

	time.Sleep(50 * time.Millisecond) // Wait for file system to settle
	if err := os.WriteFile(testFile, []byte("modified"), 0644); err != nil {
		t.Fatalf("failed to modify test file: %v", err)
	}

	waitChanged(t, w)
	if inv.clears.Load() == 0 {
		t.Error("write did not clear the cache")
	}
}

func TestWatch_DeleteAndRecreate(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "data.bin")
	if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
		t.Fatal(err)
	}

	w, inv := newTestWatcher(t)
	if err := w.Watch(tmpDir); err != nil {
		t.Fatal(err)
	}

	if err := os.Remove(testFile); err != nil {
		t.Fatal(err)
	}
	waitChanged(t, w)
	afterRemove := inv.clears.Load()
	if afterRemove == 0 {
		t.Fatal("remove did not clear the cache")
	}

	if err := os.WriteFile(testFile, []byte("again"), 0644); err != nil {
		t.Fatal(err)
	}
	waitChanged(t, w)
	if inv.clears.Load() <= afterRemove {
		t.Error("recreate did not clear the cache")
	}
}

func TestWatch_RenameOver(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "data.bin")
	tmp := filepath.Join(tmpDir, "data.bin.tmp")
	if err := os.WriteFile(target, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}

	w, inv := newTestWatcher(t)
	if err := w.Watch(tmpDir); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(tmp, []byte("new"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, target); err != nil {
		t.Fatal(err)
	}
	waitChanged(t, w)
	if inv.clears.Load() == 0 {
		t.Error("rename did not clear the cache")
	}
}

func TestWatch_SupersedesPreviousDirectory(t *testing.T) {
	dirA, dirB := t.TempDir(), t.TempDir()

	w, inv := newTestWatcher(t)
	if err := w.Watch(dirA); err != nil {
		t.Fatal(err)
	}
	if err := w.Watch(dirB); err != nil {
		t.Fatal(err)
	}
	if w.Dir() != dirB {
		t.Fatalf("Dir() = %q, want %q", w.Dir(), dirB)
	}

	if err := os.WriteFile(filepath.Join(dirA, "a.bin"), []byte("a"), 0644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-w.Changed():
		t.Fatal("event from superseded directory")
	case <-time.After(200 * time.Millisecond):
	}
	if inv.clears.Load() != 0 {
		t.Errorf("clears = %d from superseded directory", inv.clears.Load())
	}

	if err := os.WriteFile(filepath.Join(dirB, "b.bin"), []byte("b"), 0644); err != nil {
		t.Fatal(err)
	}
	waitChanged(t, w)
}

func TestWatch_SameDirectoryIsNoop(t *testing.T) {
	dir := t.TempDir()
	w, _ := newTestWatcher(t)
	if err := w.Watch(dir); err != nil {
		t.Fatal(err)
	}
	if err := w.Watch(dir + "/"); err != nil {
		t.Fatalf("re-watch failed: %v", err)
	}
	if w.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", w.Dir(), dir)
	}
}

func TestWatcher_Debounce(t *testing.T) {
	tmpDir := t.TempDir()
	w, inv := newTestWatcher(t)
	if err := w.Watch(tmpDir); err != nil {
		t.Fatal(err)
	}

	for i := range 3 {
		name := filepath.Join(tmpDir, "f"+string(rune('0'+i)))
		if err := os.WriteFile(name, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	waitChanged(t, w)
	signals := 1
	timeout := time.After(300 * time.Millisecond)
loop:
	for {
		select {
		case <-w.Changed():
			signals++
		case <-timeout:
			break loop
		}
	}

	// Every event clears, but signals are coalesced.
	if clears := inv.clears.Load(); clears < 3 {
		t.Errorf("clears = %d, want at least 3", clears)
	}
	if signals >= int(inv.clears.Load()) {
		t.Errorf("signals = %d not coalesced (clears = %d)", signals, inv.clears.Load())
	}
}

func TestWatcher_Stop(t *testing.T) {
	tmpDir := t.TempDir()

	w, err := New(&countingInvalidator{})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Watch(tmpDir); err != nil {
		t.Fatal(err)
	}

	w.Stop()
	w.Stop() // second Stop must not panic

	if err := w.Watch(tmpDir); err != ErrStopped {
		t.Errorf("Watch() after Stop err = %v, want ErrStopped", err)
	}

	select {
	case _, ok := <-w.Changed():
		if ok {
			t.Error("received event after watcher stopped")
		}
	case <-time.After(200 * time.Millisecond):
		t.Error("Changed() not closed after Stop")
	}
}
