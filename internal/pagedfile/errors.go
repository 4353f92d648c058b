package pagedfile

import (
	"errors"
	"fmt"
)

var (
	// ErrPathInvalid means the path could not be expanded, does not exist,
	// or is not a regular file.
	ErrPathInvalid = errors.New("pagedfile: invalid path")
	// ErrOpenFailed means the file exists but could not be opened.
	ErrOpenFailed = errors.New("pagedfile: open failed")
	// ErrWatchRegistration means live reload is unavailable for the path.
	// The file switch that reported it still succeeded.
	ErrWatchRegistration = errors.New("pagedfile: watch registration failed")
	// ErrCrossPage means the requested range spans two pages.
	ErrCrossPage = errors.New("pagedfile: range crosses a page boundary")
	// ErrOutOfRange means start is at or past end of file, or start > end.
	ErrOutOfRange = errors.New("pagedfile: range out of bounds")
	// ErrBufferTooSmall means the output buffer cannot hold the result.
	ErrBufferTooSmall = errors.New("pagedfile: output buffer too small")
	// ErrIO means reading a page from disk failed. Nothing was cached.
	ErrIO = errors.New("pagedfile: read failed")
)

// WatchError reports a failed directory watch registration.
type WatchError struct {
	Path string
	Err  error
}

func (e *WatchError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrWatchRegistration, e.Path, e.Err)
}

// Unwrap exposes both the sentinel and the cause to errors.Is / errors.As.
func (e *WatchError) Unwrap() []error {
	return []error{ErrWatchRegistration, e.Err}
}
