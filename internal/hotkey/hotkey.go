// Package hotkey provides a global hotkey listener using gohook.
// Each binding maps a key combo to a light action; every key-down of a
// combo emits that action.
package hotkey

import (
	"fmt"
	"strings"
	"sync"

	hook "github.com/robotn/gohook"
)

// Action is what a key combo asks the light to do.
type Action string

const (
	ActionToggle         Action = "toggle"
	ActionBrightnessUp   Action = "brightness_up"
	ActionBrightnessDown Action = "brightness_down"
	ActionNextScene      Action = "next_scene"
)

// Binding ties a key combo to an action.
// Keys are lowercase gohook key names (e.g., ["ctrl", "shift", "l"]).
type Binding struct {
	Keys   []string
	Action Action
}

func (b Binding) String() string {
	return fmt.Sprintf("%s=%s", strings.Join(b.Keys, "+"), b.Action)
}

// Validate rejects empty combos and combos bound twice.
func Validate(bindings []Binding) error {
	seen := make(map[string]Action, len(bindings))
	for _, b := range bindings {
		if len(b.Keys) == 0 {
			return fmt.Errorf("hotkey for %s has no keys", b.Action)
		}
		combo := strings.ToLower(strings.Join(b.Keys, "+"))
		if prev, ok := seen[combo]; ok {
			return fmt.Errorf("hotkey %s is bound to both %s and %s", combo, prev, b.Action)
		}
		seen[combo] = b.Action
	}
	return nil
}

// Listener watches the global hotkeys and emits their actions.
type Listener struct {
	bindings []Binding
	ch       chan Action
	done     chan struct{}
	once     sync.Once
}

// NewListener creates a Listener for bindings.
func NewListener(bindings []Binding) *Listener {
	return &Listener{
		bindings: bindings,
		ch:       make(chan Action, 16),
		done:     make(chan struct{}),
	}
}

// Actions returns the channel that receives triggered actions.
// The channel is closed when the listener stops.
func (l *Listener) Actions() <-chan Action {
	return l.ch
}

// Start begins listening for the global hotkeys.
// This function blocks until Stop is called. Run it in a goroutine.
func (l *Listener) Start() {
	for _, b := range l.bindings {
		action := b.Action
		hook.Register(hook.KeyDown, b.Keys, func(e hook.Event) {
			l.emit(action)
		})
	}

	evChan := hook.Start()
	go func() {
		<-l.done
		hook.End()
	}()
	<-hook.Process(evChan)
	close(l.ch)
}

// emit drops the action if the consumer has fallen behind; key repeat
// will produce another one.
func (l *Listener) emit(a Action) {
	select {
	case l.ch <- a:
	default:
	}
}

// Stop terminates the hotkey listener.
// It is safe to call multiple times.
func (l *Listener) Stop() {
	l.once.Do(func() {
		close(l.done)
	})
}
