// Package pagedfile serves bounded byte-range reads out of a possibly large
// file through a page cache, without loading the whole file into memory.
//
// Reads are always confined to one page. The cache is shared with a change
// watcher that clears it when the file changes on disk; the accessor notices
// the clear on its next call and reopens the path if the file was replaced.
package pagedfile

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// File is the read handle the accessor works against.
type File interface {
	io.ReaderAt
	io.Closer
	Stat() (os.FileInfo, error)
}

// Opener opens path for reading.
type Opener func(path string) (File, error)

// DirWatcher registers a non-recursive watch on a directory, replacing any
// previous one.
type DirWatcher interface {
	Watch(dir string) error
}

// Option configures an Accessor.
type Option func(*Accessor)

// WithPageSize sets the page size in bytes. Non-positive values are ignored.
func WithPageSize(n int64) Option {
	return func(a *Accessor) {
		if n > 0 {
			a.pageSize = n
		}
	}
}

// WithWatcher registers the active file's directory with w on every switch.
func WithWatcher(w DirWatcher) Option {
	return func(a *Accessor) { a.watcher = w }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Accessor) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithOpener replaces os.Open.
func WithOpener(open Opener) Option {
	return func(a *Accessor) {
		if open != nil {
			a.open = open
		}
	}
}

func openOS(path string) (File, error) {
	return os.Open(path)
}

// Accessor reads page-aligned ranges from the active file.
type Accessor struct {
	switchMu sync.Mutex // serialises SetActivePath

	mu      sync.Mutex // guards path, file, seenGen and all handle I/O
	path    string
	file    File
	seenGen uint64

	cache    *PageCache
	pageSize int64
	watcher  DirWatcher
	open     Opener
	logger   *slog.Logger
}

// New creates an accessor with no active file. cache is shared with whatever
// invalidates it; pass NewPageCache(0) for an unbounded private cache.
func New(cache *PageCache, opts ...Option) *Accessor {
	if cache == nil {
		cache = NewPageCache(0)
	}
	a := &Accessor{
		cache:    cache,
		pageSize: int64(os.Getpagesize()),
		open:     openOS,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SetActivePath expands raw, checks it names a regular file, opens it and
// makes it the active file, clearing the page cache. On failure the previous
// file stays active and nothing changes.
//
// If the switch succeeds but the directory watch cannot be registered, the
// canonical path is returned together with a *WatchError; reads work but the
// cache will not be invalidated by changes on disk.
func (a *Accessor) SetActivePath(raw string) (string, error) {
	a.switchMu.Lock()
	defer a.switchMu.Unlock()

	path, err := ExpandPath(raw)
	if err != nil {
		return "", err
	}
	if _, err := statRegular(path); err != nil {
		return "", err
	}
	f, err := a.open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrOpenFailed, path, err)
	}
	// The path may have been replaced between the stat and the open.
	if info, err := f.Stat(); err != nil || !info.Mode().IsRegular() {
		f.Close()
		return "", fmt.Errorf("%w: %s is no longer a regular file", ErrOpenFailed, path)
	}

	a.mu.Lock()
	old := a.file
	a.file = f
	a.path = path
	a.cache.Clear()
	a.seenGen = a.cache.Generation()
	a.mu.Unlock()

	if old != nil {
		if err := old.Close(); err != nil {
			a.logger.Debug("close previous file", "err", err)
		}
	}
	a.logger.Debug("active file changed", "path", path, "pageSize", a.pageSize)

	if a.watcher == nil {
		return path, nil
	}
	dir := filepath.Dir(path)
	if err := a.watcher.Watch(dir); err != nil {
		a.logger.Debug("live reload unavailable", "dir", dir, "err", err)
		return path, &WatchError{Path: dir, Err: err}
	}
	return path, nil
}

// Path returns the canonical path of the active file, or "" if none.
func (a *Accessor) Path() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.path
}

// PageSize returns the fixed page size.
func (a *Accessor) PageSize() int64 {
	return a.pageSize
}

// PageOf returns the index of the page containing offset.
func (a *Accessor) PageOf(offset int64) int64 {
	return offset / a.pageSize
}

// FileLength returns the active file's current size, or 0 if there is no
// active file or its metadata cannot be read.
func (a *Accessor) FileLength() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.refreshLocked()
	return a.lengthLocked()
}

// ReadRange copies the bytes in [start, end) into out and returns how many
// were written. Near end of file fewer bytes than requested are returned
// without error.
//
// The range must lie within one page: with p = start/PageSize, end must
// satisfy end <= (p+1)*PageSize, so end may equal the following page
// boundary. Checks run in order: start < 0 or start > end is ErrOutOfRange,
// a range past the page is ErrCrossPage, start >= FileLength is ErrOutOfRange,
// and a short out is ErrBufferTooSmall.
func (a *Accessor) ReadRange(start, end int64, out []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if start < 0 || start > end {
		return 0, fmt.Errorf("%w: [%d, %d)", ErrOutOfRange, start, end)
	}
	idx := start / a.pageSize
	base := idx * a.pageSize
	startOff, endOff := start-base, end-base
	if endOff > a.pageSize {
		return 0, fmt.Errorf("%w: [%d, %d) with page size %d", ErrCrossPage, start, end, a.pageSize)
	}

	a.refreshLocked()
	length := a.lengthLocked()
	if start >= length {
		return 0, fmt.Errorf("%w: [%d, %d) with length %d", ErrOutOfRange, start, end, length)
	}

	pageLen := min(a.pageSize, length-base)
	want := max(0, min(pageLen, endOff)-startOff)
	if int64(len(out)) < want {
		return 0, fmt.Errorf("%w: need %d, have %d", ErrBufferTooSmall, want, len(out))
	}
	if want == 0 {
		return 0, nil
	}

	data, err := a.cache.GetOrLoad(idx, func() ([]byte, error) {
		return a.loadPageLocked(idx)
	})
	if err != nil {
		return 0, err
	}

	// The page may be shorter than the size reported by Stat if the file
	// shrank in between.
	n := max(0, min(int64(len(data)), endOff)-startOff)
	n = min(n, want)
	return copy(out, data[startOff:startOff+n]), nil
}

// Close releases the active file handle.
func (a *Accessor) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file == nil {
		return nil
	}
	err := a.file.Close()
	a.file = nil
	a.path = ""
	a.cache.Clear()
	a.seenGen = a.cache.Generation()
	return err
}

func (a *Accessor) lengthLocked() int64 {
	if a.file == nil {
		return 0
	}
	info, err := a.file.Stat()
	if err != nil {
		a.logger.Debug("stat active file", "path", a.path, "err", err)
		return 0
	}
	return info.Size()
}

// loadPageLocked reads page idx from the handle. Runs under both the accessor
// and the cache lock.
func (a *Accessor) loadPageLocked(idx int64) ([]byte, error) {
	buf := make([]byte, a.pageSize)
	n, err := a.file.ReadAt(buf, idx*a.pageSize)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: page %d of %s: %v", ErrIO, idx, a.path, err)
	}
	a.logger.Debug("page loaded", "page", idx, "bytes", n)
	return buf[:n:n], nil
}

// refreshLocked reopens the active path after a cache clear if the path now
// names a different file than the open handle, as happens when an editor
// replaces a file by rename. A failed reopen keeps the old handle.
func (a *Accessor) refreshLocked() {
	if a.file == nil {
		return
	}
	gen := a.cache.Generation()
	if gen == a.seenGen {
		return
	}
	a.seenGen = gen

	onDisk, err := os.Stat(a.path)
	if err != nil || !onDisk.Mode().IsRegular() {
		return
	}
	if cur, err := a.file.Stat(); err == nil && os.SameFile(onDisk, cur) {
		return
	}

	f, err := a.open(a.path)
	if err != nil {
		a.logger.Debug("reopen replaced file", "path", a.path, "err", err)
		return
	}
	old := a.file
	a.file = f
	if err := old.Close(); err != nil {
		a.logger.Debug("close replaced file", "err", err)
	}
	a.cache.Clear()
	a.seenGen = a.cache.Generation()
	a.logger.Debug("reopened replaced file", "path", a.path)
}
