// Package viewer is the terminal front end: a path prompt above a hex grid
// that reads one row per visible line from the paged accessor on every redraw.
package viewer

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/wilbur182/hexview/internal/fdmonitor"
	"github.com/wilbur182/hexview/internal/hexfmt"
	"github.com/wilbur182/hexview/internal/keymap"
	"github.com/wilbur182/hexview/internal/pagedfile"
)

// Source is the accessor the viewer reads from.
type Source interface {
	SetActivePath(raw string) (string, error)
	Path() string
	FileLength() int64
	ReadRange(start, end int64, out []byte) (int, error)
}

// FileChangedMsg is sent after the watcher invalidated the cache.
type FileChangedMsg struct{}

// Options configures a Model.
type Options struct {
	Source        Source
	Cache         *pagedfile.PageCache // optional, for the status line
	Changed       <-chan struct{}      // optional, from watcher.Changed
	RowWidth      int
	ShowScrollbar bool
	ShowFooter    bool
	KeyOverrides  map[string]string // key -> command ID
	Logger        *slog.Logger
	FDMonitor     *fdmonitor.Monitor
}

// Model is the bubbletea model for the hex viewer.
type Model struct {
	src      Source
	cache    *pagedfile.PageCache
	changed  <-chan struct{}
	rows     *hexfmt.RowCache
	rowWidth int
	buf      []byte

	input   textinput.Model
	editing bool
	keys    *keymap.Registry

	firstRow int64
	cursor   int64
	width    int
	height   int

	status  string
	warning string
	errMsg  string

	showScrollbar bool
	showFooter    bool

	logger         *slog.Logger
	fd             *fdmonitor.Monitor
	clipboardWrite func(string) error
}

// New creates the model. It does not open anything; call Open or let the
// user enter a path.
func New(opts Options) *Model {
	width := opts.RowWidth
	if width <= 0 {
		width = hexfmt.DefaultWidth
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	ti := textinput.New()
	ti.Prompt = "Open: "
	ti.Placeholder = "path to file (~ and $VAR are expanded)"
	ti.CharLimit = 4096

	m := &Model{
		src:            opts.Source,
		cache:          opts.Cache,
		changed:        opts.Changed,
		rows:           hexfmt.NewRowCache(width),
		rowWidth:       width,
		buf:            make([]byte, width),
		input:          ti,
		showScrollbar:  opts.ShowScrollbar,
		showFooter:     opts.ShowFooter,
		logger:         logger,
		fd:             opts.FDMonitor,
		clipboardWrite: clipboard.WriteAll,
		width:          80,
		height:         24,
	}
	m.keys = m.newKeymap(opts.KeyOverrides)
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	if m.src.Path() == "" {
		return tea.Batch(m.startEditing(), m.listenForChanges())
	}
	return m.listenForChanges()
}

// listenForChanges waits for the next invalidation signal. Exactly one
// listener is outstanding: Init starts it and each FileChangedMsg re-arms it.
func (m *Model) listenForChanges() tea.Cmd {
	if m.changed == nil {
		return nil
	}
	ch := m.changed
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return FileChangedMsg{}
	}
}

// Open switches the viewed file. Failures are shown in the status line and
// leave the current file in place.
func (m *Model) Open(raw string) {
	path, err := m.src.SetActivePath(raw)
	switch {
	case err == nil:
		m.warning = ""
	case errors.Is(err, pagedfile.ErrWatchRegistration):
		m.warning = "live reload unavailable"
	default:
		m.errMsg = err.Error()
		m.logger.Debug("open failed", "path", raw, "err", err)
		return
	}

	m.errMsg = ""
	m.firstRow, m.cursor = 0, 0
	m.status = "opened " + path
	if m.fd != nil {
		m.fd.Check("open " + path)
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.clampScroll()
		return m, nil

	case FileChangedMsg:
		m.status = "file changed on disk"
		m.clampScroll()
		return m, m.listenForChanges()

	case tea.KeyMsg:
		if m.editing {
			return m.handleInputKey(msg)
		}
		cmd, _ := m.keys.Handle(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) startEditing() tea.Cmd {
	m.editing = true
	m.input.SetValue("")
	return m.input.Focus()
}

func (m *Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.editing = false
		m.input.Blur()
		m.Open(m.input.Value())
		return m, nil
	case "esc":
		m.editing = false
		m.input.Blur()
		return m, nil
	case "ctrl+c":
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) totalRows() int64 {
	return hexfmt.RowCount(m.src.FileLength(), m.rowWidth)
}

// visibleRows is the number of grid rows that fit between the prompt and
// column header above and the footer below.
func (m *Model) visibleRows() int {
	chrome := 2
	if m.showFooter {
		chrome++
	}
	return max(m.height-chrome, 1)
}

func (m *Model) moveCursor(delta int64) {
	last := max(m.totalRows()-1, 0)
	m.cursor = min(max(m.cursor+delta, 0), last)
	m.ensureCursorVisible()
}

func (m *Model) ensureCursorVisible() {
	visible := int64(m.visibleRows())
	if m.cursor < m.firstRow {
		m.firstRow = m.cursor
	}
	if m.cursor >= m.firstRow+visible {
		m.firstRow = m.cursor - visible + 1
	}
	m.clampScroll()
}

// clampScroll keeps cursor and scroll offset inside the file, which can
// shrink underneath us.
func (m *Model) clampScroll() {
	total := m.totalRows()
	visible := int64(m.visibleRows())
	m.cursor = min(max(m.cursor, 0), max(total-1, 0))
	m.firstRow = min(max(m.firstRow, 0), max(total-visible, 0))
	if m.cursor < m.firstRow {
		m.firstRow = m.cursor
	}
}

// readRow reads row r into m.buf and returns the filled prefix.
func (m *Model) readRow(r int64) ([]byte, error) {
	start := r * int64(m.rowWidth)
	n, err := m.src.ReadRange(start, start+int64(m.rowWidth), m.buf)
	if err != nil {
		return nil, err
	}
	return m.buf[:n], nil
}

func (m *Model) copyCursorRow() {
	row, err := m.readRow(m.cursor)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	text := hexfmt.HexString(row)
	if err := m.clipboardWrite(text); err != nil {
		m.errMsg = fmt.Sprintf("copy failed: %v", err)
		return
	}
	m.errMsg = ""
	m.status = fmt.Sprintf("copied row %08x", m.cursor*int64(m.rowWidth))
}
