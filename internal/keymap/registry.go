// Package keymap dispatches key presses to named commands, with user
// overrides taking precedence over the built-in bindings.
package keymap

import (
	"slices"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const sequenceTimeout = 500 * time.Millisecond

// Command represents a registered command handler.
type Command struct {
	ID      string
	Name    string
	Handler func() tea.Cmd
}

// Binding maps a key or key sequence to a command.
type Binding struct {
	Key     string // e.g., "j", "ctrl+f", "g g"
	Command string // Command ID
}

// Registry manages key bindings and command dispatch.
type Registry struct {
	commands      map[string]Command // ID -> Command
	bindings      []Binding
	userOverrides map[string]string // key -> command ID
	pendingKey    string
	pendingTime   time.Time
	now           func() time.Time
	mu            sync.Mutex
}

// NewRegistry creates a new keymap registry.
func NewRegistry() *Registry {
	return &Registry{
		commands:      make(map[string]Command),
		userOverrides: make(map[string]string),
		now:           time.Now,
	}
}

// RegisterCommand adds a command to the registry.
func (r *Registry) RegisterCommand(cmd Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[cmd.ID] = cmd
}

// Bind adds a key binding for a command.
func (r *Registry) Bind(key, commandID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings = append(r.bindings, Binding{Key: key, Command: commandID})
}

// SetUserOverride sets a user-configured key override.
func (r *Registry) SetUserOverride(key, commandID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.userOverrides[key] = commandID
}

// Handle dispatches a key event. The bool reports whether the key was
// consumed, either by a command or as the start of a sequence.
func (r *Registry) Handle(key tea.KeyMsg) (tea.Cmd, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	keyStr := keyToString(key)
	now := r.now()

	if r.pendingKey != "" {
		seq := r.pendingKey + " " + keyStr
		fresh := now.Sub(r.pendingTime) < sequenceTimeout
		r.pendingKey = ""
		if fresh {
			if cmd, ok := r.lookup(seq); ok {
				return cmd.Handler(), true
			}
			// Sequence didn't match, try just the new key
		}
	}

	if r.isSequenceStart(keyStr) {
		r.pendingKey = keyStr
		r.pendingTime = now
		return nil, true
	}

	if cmd, ok := r.lookup(keyStr); ok {
		return cmd.Handler(), true
	}
	return nil, false
}

// lookup finds the command for key. User overrides win over bindings.
func (r *Registry) lookup(key string) (Command, bool) {
	if cmdID, ok := r.userOverrides[key]; ok {
		if cmd, ok := r.commands[cmdID]; ok && cmd.Handler != nil {
			return cmd, true
		}
	}
	for _, b := range r.bindings {
		if b.Key != key {
			continue
		}
		if cmd, ok := r.commands[b.Command]; ok && cmd.Handler != nil {
			return cmd, true
		}
	}
	return Command{}, false
}

func (r *Registry) isSequenceStart(key string) bool {
	prefix := key + " "
	for _, b := range r.bindings {
		if strings.HasPrefix(b.Key, prefix) {
			return true
		}
	}
	for k := range r.userOverrides {
		if strings.HasPrefix(k, prefix) {
			return true
		}
	}
	return false
}

// KeysFor returns every key bound to commandID, overrides first, sorted
// within each group.
func (r *Registry) KeysFor(commandID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var overrides, bound []string
	for k, id := range r.userOverrides {
		if id == commandID {
			overrides = append(overrides, k)
		}
	}
	for _, b := range r.bindings {
		if b.Command == commandID {
			bound = append(bound, b.Key)
		}
	}
	slices.Sort(overrides)
	slices.Sort(bound)
	return append(overrides, bound...)
}

// HasPending returns true if there's a pending key sequence.
func (r *Registry) HasPending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pendingKey != "" && r.now().Sub(r.pendingTime) < sequenceTimeout
}

// keyToString converts a tea.KeyMsg to the form used in bindings.
func keyToString(key tea.KeyMsg) string {
	switch key.Type {
	case tea.KeySpace:
		return "space"
	case tea.KeyRunes:
		return string(key.Runes)
	default:
		return key.String()
	}
}
