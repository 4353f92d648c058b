package keymap

import (
	"slices"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestRegistry(calls *[]string) *Registry {
	r := NewRegistry()
	for _, id := range []string{"down", "top", "quit", "mark"} {
		r.RegisterCommand(Command{ID: id, Handler: func() tea.Cmd {
			*calls = append(*calls, id)
			return nil
		}})
	}
	r.Bind("j", "down")
	r.Bind("down", "down")
	r.Bind("g", "top")
	r.Bind("q", "quit")
	return r
}

func TestHandle_Bindings(t *testing.T) {
	var calls []string
	r := newTestRegistry(&calls)

	r.Handle(runes("j"))
	r.Handle(tea.KeyMsg{Type: tea.KeyDown})
	r.Handle(runes("g"))
	if _, ok := r.Handle(runes("z")); ok {
		t.Error("unbound key should not be handled")
	}

	want := []string{"down", "down", "top"}
	if !slices.Equal(calls, want) {
		t.Errorf("calls = %v, want %v", calls, want)
	}
}

func TestHandle_UserOverrideWins(t *testing.T) {
	var calls []string
	r := newTestRegistry(&calls)
	r.SetUserOverride("q", "mark")
	r.SetUserOverride("x", "nonexistent")

	r.Handle(runes("q"))
	if _, ok := r.Handle(runes("x")); ok {
		t.Error("override to unknown command should not be handled")
	}
	if !slices.Equal(calls, []string{"mark"}) {
		t.Errorf("calls = %v", calls)
	}
}

func TestHandle_Sequence(t *testing.T) {
	var calls []string
	r := newTestRegistry(&calls)
	r.SetUserOverride("m m", "mark")

	now := time.Unix(1000, 0)
	r.now = func() time.Time { return now }

	if cmd, ok := r.Handle(runes("m")); !ok || cmd != nil {
		t.Fatal("sequence start should be consumed without a command")
	}
	if !r.HasPending() {
		t.Error("expected a pending sequence")
	}
	r.Handle(runes("m"))
	if !slices.Equal(calls, []string{"mark"}) {
		t.Errorf("calls = %v", calls)
	}

	// A mismatched second key falls back to its own binding.
	calls = nil
	r.Handle(runes("m"))
	r.Handle(runes("j"))
	if !slices.Equal(calls, []string{"down"}) {
		t.Errorf("calls = %v", calls)
	}

	// A stale prefix is dropped.
	calls = nil
	r.Handle(runes("m"))
	now = now.Add(sequenceTimeout)
	if r.HasPending() {
		t.Error("pending sequence should have expired")
	}
	r.Handle(runes("j"))
	if !slices.Equal(calls, []string{"down"}) {
		t.Errorf("calls = %v", calls)
	}
}

func TestKeysFor(t *testing.T) {
	var calls []string
	r := newTestRegistry(&calls)
	r.SetUserOverride("J", "down")

	got := r.KeysFor("down")
	want := []string{"J", "down", "j"}
	if !slices.Equal(got, want) {
		t.Errorf("KeysFor(down) = %v, want %v", got, want)
	}
}

func TestKeyToString(t *testing.T) {
	tests := []struct {
		msg  tea.KeyMsg
		want string
	}{
		{tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}, "space"},
		{tea.KeyMsg{Type: tea.KeyCtrlF}, "ctrl+f"},
		{tea.KeyMsg{Type: tea.KeyPgDown}, "pgdown"},
		{runes("G"), "G"},
	}
	for _, tt := range tests {
		if got := keyToString(tt.msg); got != tt.want {
			t.Errorf("keyToString(%v) = %q, want %q", tt.msg, got, tt.want)
		}
	}
}
