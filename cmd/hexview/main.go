package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/wilbur182/hexview/internal/config"
	"github.com/wilbur182/hexview/internal/fdmonitor"
	"github.com/wilbur182/hexview/internal/pagedfile"
	"github.com/wilbur182/hexview/internal/styles"
	"github.com/wilbur182/hexview/internal/viewer"
	"github.com/wilbur182/hexview/internal/watcher"
)

// Version is set at build time via ldflags
var Version = ""

var (
	configPath   = flag.String("config", "", "path to config file")
	debugFlag    = flag.Bool("debug", false, "enable debug logging")
	versionFlag  = flag.Bool("version", false, "print version and exit")
	shortVersion = flag.Bool("v", false, "print version and exit (short)")
	pageSize     = flag.Int64("page-size", 0, "bytes per cached page (overrides config)")
	writeConfig  = flag.Bool("write-config", false, "write the effective config and exit")
)

func main() {
	flag.Parse()

	if *versionFlag || *shortVersion {
		fmt.Printf("hexview version %s\n", effectiveVersion(Version))
		os.Exit(0)
	}

	// The alt screen owns the terminal, so logs go to a file and only with -debug.
	logger := slog.New(slog.DiscardHandler)
	if *debugFlag {
		f, err := openDebugLog()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open debug log: %v\n", err)
			os.Exit(1)
		}
		logger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *pageSize > 0 {
		cfg.Reader.PageSize = *pageSize
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid -page-size: %v\n", err)
			os.Exit(1)
		}
	}

	if *writeConfig {
		if err := saveConfig(cfg, *configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write config: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "hexview needs an interactive terminal")
		os.Exit(1)
	}

	os.Exit(run(cfg, logger, flag.Arg(0)))
}

// run wires the cache, watcher, accessor and viewer together and blocks
// until the program exits. It returns the process exit code.
func run(cfg *config.Config, logger *slog.Logger, initialPath string) int {
	if !styles.IsValidTheme(cfg.UI.Theme.Name) {
		logger.Warn("unknown theme, using default", "theme", cfg.UI.Theme.Name)
	}
	styles.ApplyThemeWithOverrides(cfg.UI.Theme.Name, cfg.UI.Theme.Overrides)
	logger.Debug("theme applied", "theme", styles.GetCurrentThemeName())

	cache := pagedfile.NewPageCache(cfg.Reader.MaxCachedPages)

	accOpts := []pagedfile.Option{
		pagedfile.WithPageSize(cfg.Reader.PageSize),
		pagedfile.WithLogger(logger),
	}
	var changed <-chan struct{}
	if cfg.Watch.Enabled {
		w, err := watcher.New(cache,
			watcher.WithLogger(logger),
			watcher.WithDebounce(cfg.Watch.Debounce))
		if err != nil {
			// Viewing still works without live reload.
			logger.Warn("file watcher unavailable", "err", err)
		} else {
			defer w.Stop()
			accOpts = append(accOpts, pagedfile.WithWatcher(w))
			changed = w.Changed()
		}
	}

	acc := pagedfile.New(cache, accOpts...)
	defer acc.Close()

	model := viewer.New(viewer.Options{
		Source:        acc,
		Cache:         cache,
		Changed:       changed,
		RowWidth:      cfg.Reader.RowWidth,
		ShowScrollbar: cfg.UI.ShowScrollbar,
		ShowFooter:    cfg.UI.ShowFooter,
		KeyOverrides:  cfg.Keymap.Overrides,
		Logger:        logger,
		FDMonitor:     fdmonitor.New(logger, fdmonitor.DefaultWarningThreshold),
	})
	if initialPath != "" {
		model.Open(initialPath)
	}

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running application: %v\n", err)
		return 1
	}
	return 0
}

// openDebugLog opens config.LogPath for appending, creating its directory.
func openDebugLog() (*os.File, error) {
	path := config.LogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

func saveConfig(cfg *config.Config, path string) error {
	if path != "" {
		return config.SaveTo(cfg, path)
	}
	return config.Save(cfg)
}

// effectiveVersion returns the version string, with fallback to build info.
func effectiveVersion(v string) string {
	if v != "" {
		return v
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}

	var revision string
	var dirty bool
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}

	if revision != "" {
		ver := "devel+" + revision
		if len(ver) > 20 {
			ver = ver[:20]
		}
		if dirty {
			ver += "+dirty"
		}
		return ver
	}
	return "devel"
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: hexview [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "A terminal hex viewer that reloads when the file changes on disk.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nThemes (ui.theme.name): %s\n", strings.Join(styles.ListThemes(), ", "))
		fmt.Fprintf(os.Stderr, "Debug log (-debug): %s\n", config.LogPath())
	}
}
