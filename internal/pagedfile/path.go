package pagedfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath resolves user shorthand in raw: a leading "~" or "~/" becomes the
// home directory, then $VAR / ${VAR} are substituted from the environment.
// Variable values are not tilde-expanded.
// An unset variable is an error rather than an empty substitution. The result
// is absolute and cleaned.
func ExpandPath(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty path", ErrPathInvalid)
	}

	var prefix string
	if raw == "~" || strings.HasPrefix(raw, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrPathInvalid, err)
		}
		prefix, raw = home, strings.TrimPrefix(raw, "~")
	}

	var missing []string
	expanded := os.Expand(raw, func(name string) string {
		v, ok := os.LookupEnv(name)
		if !ok {
			missing = append(missing, name)
		}
		return v
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: undefined variable %s in %q", ErrPathInvalid, missing[0], raw)
	}

	if prefix != "" {
		expanded = filepath.Join(prefix, expanded)
	}

	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPathInvalid, err)
	}
	return abs, nil
}

// statRegular returns the file info for path if it names a regular file.
func statRegular(path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPathInvalid, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", ErrPathInvalid, path)
	}
	return info, nil
}
