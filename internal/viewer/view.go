package viewer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"

	"github.com/wilbur182/hexview/internal/hexfmt"
	"github.com/wilbur182/hexview/internal/pagedfile"
	"github.com/wilbur182/hexview/internal/styles"
	"github.com/wilbur182/hexview/internal/ui"
)

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderPrompt())
	b.WriteString("\n")

	gridWidth := m.width
	if m.showScrollbar {
		gridWidth--
	}
	b.WriteString(ansi.Truncate(styles.Header.Render(hexfmt.Header(m.rowWidth)), gridWidth, ""))
	b.WriteString("\n")

	grid := m.renderGrid(gridWidth)
	if m.showScrollbar {
		bar := ui.RenderScrollbar(ui.ScrollbarParams{
			TotalRows:   m.totalRows(),
			FirstRow:    m.firstRow,
			VisibleRows: m.visibleRows(),
			TrackHeight: m.visibleRows(),
		})
		grid = lipgloss.JoinHorizontal(lipgloss.Top,
			lipgloss.NewStyle().Width(gridWidth).Render(grid), bar)
	}
	b.WriteString(grid)

	if m.showFooter {
		b.WriteString("\n")
		b.WriteString(m.renderFooter())
	}
	return b.String()
}

func (m *Model) renderPrompt() string {
	if m.editing {
		return m.input.View()
	}
	path := m.src.Path()
	if path == "" {
		path = "No Active File"
		if keys := m.keys.KeysFor(CmdOpen); len(keys) > 0 {
			path += fmt.Sprintf(" (%s to open)", keys[0])
		}
	}
	prefix := styles.Prompt.Render("File: ")
	return prefix + truncateLeft(path, max(m.width-lipgloss.Width(prefix), 1))
}

// renderGrid reads and formats every visible row. Reads past end of file
// stop the grid; other read errors render in place of the row.
func (m *Model) renderGrid(width int) string {
	visible := m.visibleRows()
	lines := make([]string, 0, visible)

	for i := range visible {
		r := m.firstRow + int64(i)
		row, err := m.readRow(r)
		if errors.Is(err, pagedfile.ErrOutOfRange) {
			break
		}
		var line string
		if err != nil {
			line = styles.ErrorText.Render(fmt.Sprintf("%08x | %v", r*int64(m.rowWidth), err))
		} else {
			line = m.rows.Format(r*int64(m.rowWidth), row)
		}
		line = ansi.Truncate(line, width, "")
		if r == m.cursor {
			line = styles.CursorRow.Render(line)
		} else if err == nil {
			line = colorizeRow(line)
		}
		lines = append(lines, line)
	}

	for len(lines) < visible {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderFooter() string {
	parts := []string{
		fmt.Sprintf("%d bytes", m.src.FileLength()),
		fmt.Sprintf("row %d/%d", m.cursor+1, m.totalRows()),
	}
	if m.cache != nil {
		s := m.cache.Stats()
		parts = append(parts, fmt.Sprintf("pages %d (hit %d, miss %d)", m.cache.Len(), s.Hits, s.Misses))
	}
	if m.keys.HasPending() {
		parts = append(parts, "key sequence pending")
	}
	if m.status != "" {
		parts = append(parts, m.status)
	}

	line := styles.Footer.Render(strings.Join(parts, " · "))
	if m.warning != "" {
		line += " " + styles.WarningText.Render(m.warning)
	}
	if m.errMsg != "" {
		line += " " + styles.ErrorText.Render(m.errMsg)
	}
	return ansi.Truncate(line, m.width, "…")
}

// colorizeRow styles the address and ascii columns of a formatted row.
func colorizeRow(line string) string {
	addrEnd := strings.Index(line, " | ")
	asciiStart := strings.LastIndex(line, "| ")
	if addrEnd < 0 || asciiStart <= addrEnd {
		return styles.Address.Render(line)
	}
	return styles.Address.Render(line[:addrEnd]) +
		line[addrEnd:asciiStart+2] +
		styles.Ascii.Render(line[asciiStart+2:])
}

// truncateLeft keeps the tail of s, which for paths is the informative end.
func truncateLeft(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= 1 {
		return "…"
	}
	runes := []rune(s)
	w := 0
	i := len(runes)
	for i > 0 {
		rw := runewidth.RuneWidth(runes[i-1])
		if w+rw > width-1 {
			break
		}
		w += rw
		i--
	}
	return "…" + string(runes[i:])
}
