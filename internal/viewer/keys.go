package viewer

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/wilbur182/hexview/internal/keymap"
)

// Command IDs, usable as targets in keymap overrides.
const (
	CmdQuit     = "quit"
	CmdOpen     = "open"
	CmdDown     = "down"
	CmdUp       = "up"
	CmdPageDown = "page-down"
	CmdPageUp   = "page-up"
	CmdTop      = "top"
	CmdBottom   = "bottom"
	CmdCopyRow  = "copy-row"
)

var defaultBindings = []keymap.Binding{
	{Key: "q", Command: CmdQuit},
	{Key: "ctrl+c", Command: CmdQuit},
	{Key: "o", Command: CmdOpen},
	{Key: "/", Command: CmdOpen},
	{Key: "j", Command: CmdDown},
	{Key: "down", Command: CmdDown},
	{Key: "k", Command: CmdUp},
	{Key: "up", Command: CmdUp},
	{Key: "pgdown", Command: CmdPageDown},
	{Key: "ctrl+f", Command: CmdPageDown},
	{Key: "space", Command: CmdPageDown},
	{Key: "pgup", Command: CmdPageUp},
	{Key: "ctrl+b", Command: CmdPageUp},
	{Key: "g", Command: CmdTop},
	{Key: "home", Command: CmdTop},
	{Key: "G", Command: CmdBottom},
	{Key: "end", Command: CmdBottom},
	{Key: "y", Command: CmdCopyRow},
}

// newKeymap registers the viewer's commands against m and applies user
// overrides on top of the default bindings.
func (m *Model) newKeymap(overrides map[string]string) *keymap.Registry {
	r := keymap.NewRegistry()

	do := func(f func()) func() tea.Cmd {
		return func() tea.Cmd {
			f()
			return nil
		}
	}
	page := func() int64 { return int64(max(m.visibleRows()-1, 1)) }

	for _, c := range []keymap.Command{
		{ID: CmdQuit, Name: "Quit", Handler: func() tea.Cmd { return tea.Quit }},
		{ID: CmdOpen, Name: "Open file", Handler: m.startEditing},
		{ID: CmdDown, Name: "Down", Handler: do(func() { m.moveCursor(1) })},
		{ID: CmdUp, Name: "Up", Handler: do(func() { m.moveCursor(-1) })},
		{ID: CmdPageDown, Name: "Page down", Handler: do(func() { m.moveCursor(page()) })},
		{ID: CmdPageUp, Name: "Page up", Handler: do(func() { m.moveCursor(-page()) })},
		{ID: CmdTop, Name: "Top", Handler: do(func() {
			m.cursor = 0
			m.ensureCursorVisible()
		})},
		{ID: CmdBottom, Name: "Bottom", Handler: do(func() {
			m.cursor = max(m.totalRows()-1, 0)
			m.ensureCursorVisible()
		})},
		{ID: CmdCopyRow, Name: "Copy row", Handler: do(m.copyCursorRow)},
	} {
		r.RegisterCommand(c)
	}
	for _, b := range defaultBindings {
		r.Bind(b.Key, b.Command)
	}
	for key, cmdID := range overrides {
		r.SetUserOverride(key, cmdID)
	}
	return r
}
