package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wilbur182/hexview/internal/styles"
)

// ScrollbarParams configures a vertical scrollbar rendering. Row counts are
// int64 because a hex view of a large file has more rows than an int32 holds.
type ScrollbarParams struct {
	TotalRows   int64 // Total rows in the document
	FirstRow    int64 // Index of first visible row
	VisibleRows int   // Number of rows that fit in the viewport
	TrackHeight int   // Height of the scrollbar track in terminal rows
}

// RenderScrollbar returns a single-column string (newline-separated)
// representing a vertical scrollbar track. Returns a column of spaces
// if all content is visible, to reserve the width and prevent layout jitter.
// Output has exactly TrackHeight lines, each 1 character wide.
func RenderScrollbar(params ScrollbarParams) string {
	if params.TrackHeight < 1 {
		return ""
	}

	lines := make([]string, params.TrackHeight)
	if params.TotalRows <= int64(params.VisibleRows) {
		for i := range lines {
			lines[i] = " "
		}
		return strings.Join(lines, "\n")
	}

	thumbPos, thumbSize := ThumbExtent(params)

	trackChar := lipgloss.NewStyle().Foreground(styles.ScrollbarTrack).Render("│")
	thumbChar := lipgloss.NewStyle().Foreground(styles.ScrollbarThumb).Render("┃")
	for i := range lines {
		if i >= thumbPos && i < thumbPos+thumbSize {
			lines[i] = thumbChar
		} else {
			lines[i] = trackChar
		}
	}
	return strings.Join(lines, "\n")
}

// ThumbExtent returns the thumb's first track row and its height.
func ThumbExtent(params ScrollbarParams) (pos, size int) {
	track := params.TrackHeight
	if track < 1 || params.TotalRows <= 0 {
		return 0, 0
	}

	// Float math: TotalRows * TrackHeight can overflow int64 for huge files.
	total := float64(params.TotalRows)
	size = int(float64(params.VisibleRows) * float64(track) / total)
	size = min(max(size, 1), track)

	maxFirst := max(total-float64(params.VisibleRows), 1)
	pos = int(float64(params.FirstRow) * float64(track-size) / maxFirst)
	pos = min(max(pos, 0), track-size)
	return pos, size
}
