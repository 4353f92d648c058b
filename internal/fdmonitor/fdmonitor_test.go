package fdmonitor

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestCount(t *testing.T) {
	count := Count()
	// Negative is OK on unsupported platforms or sandboxed environments.
	t.Logf("Current FD count: %d", count)
}

func TestCount_SeesOpenedFile(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("needs /proc")
	}
	before := Count()
	if before < 0 {
		t.Skip("fd directory unavailable")
	}

	f, err := os.Create(filepath.Join(t.TempDir(), "x"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if after := Count(); after <= before {
		t.Errorf("Count() = %d after open, was %d", after, before)
	}
}

func TestMonitor_RateLimited(t *testing.T) {
	m := New(nil, 1)
	count, warned := m.Check("first")
	if count < 0 {
		t.Skip("fd directory unavailable")
	}
	if !warned {
		t.Errorf("threshold 1 should warn, count = %d", count)
	}

	count2, warned2 := m.Check("second")
	if warned2 {
		t.Error("second immediate check should be rate limited")
	}
	if count2 != count {
		t.Errorf("rate-limited count = %d, want cached %d", count2, count)
	}
}

func TestCategory(t *testing.T) {
	tests := map[string]string{
		"anon_inode:inotify":     "watch",
		"pipe:[1234]":            "pipe",
		"socket:[99]":            "socket",
		"/dev/pts/3":             "tty",
		"anon_inode:[eventpoll]": "anon",
		"/home/u/core.bin":       "file",
	}
	for target, want := range tests {
		if got := category(target); got != want {
			t.Errorf("category(%q) = %q, want %q", target, got, want)
		}
	}
}
