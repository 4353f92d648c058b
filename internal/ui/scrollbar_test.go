package ui

import (
	"strings"
	"testing"
)

func TestRenderScrollbar_AllVisible(t *testing.T) {
	got := RenderScrollbar(ScrollbarParams{TotalRows: 5, VisibleRows: 10, TrackHeight: 3})
	if got != " \n \n " {
		t.Errorf("RenderScrollbar() = %q, want spacer column", got)
	}
}

func TestRenderScrollbar_Height(t *testing.T) {
	got := RenderScrollbar(ScrollbarParams{TotalRows: 1000, FirstRow: 500, VisibleRows: 10, TrackHeight: 8})
	if n := len(strings.Split(got, "\n")); n != 8 {
		t.Errorf("lines = %d, want 8", n)
	}
	if RenderScrollbar(ScrollbarParams{TrackHeight: 0}) != "" {
		t.Error("zero track height should render nothing")
	}
}

func TestThumbExtent(t *testing.T) {
	tests := []struct {
		name     string
		params   ScrollbarParams
		pos, siz int
	}{
		{"top", ScrollbarParams{TotalRows: 100, FirstRow: 0, VisibleRows: 10, TrackHeight: 10}, 0, 1},
		{"bottom", ScrollbarParams{TotalRows: 100, FirstRow: 90, VisibleRows: 10, TrackHeight: 10}, 9, 1},
		{"half visible", ScrollbarParams{TotalRows: 20, FirstRow: 10, VisibleRows: 10, TrackHeight: 10}, 5, 5},
		{"huge file", ScrollbarParams{TotalRows: 1 << 58, FirstRow: 1 << 57, VisibleRows: 40, TrackHeight: 40}, 19, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, size := ThumbExtent(tt.params)
			if pos != tt.pos || size != tt.siz {
				t.Errorf("ThumbExtent() = (%d, %d), want (%d, %d)", pos, size, tt.pos, tt.siz)
			}
		})
	}
}
