// Package hotkey listens for the global record-toggle chord.
package hotkey

import (
	"log/slog"
	"sync"
	"time"

	hook "github.com/robotn/gohook"
)

// debounce suppresses key-repeat storms; a held chord fires once.
const debounce = 500 * time.Millisecond

// DefaultChord is the record toggle: Ctrl+Shift+R.
var DefaultChord = []string{"r", "ctrl", "shift"}

// Listener turns a global keyboard chord into payload-free toggle events.
// It carries no recording logic; consumers decide what a toggle means in
// the current state.
type Listener struct {
	chord   []string
	toggles chan struct{}

	mu      sync.Mutex
	running bool
}

// NewListener creates a listener for the given chord, or DefaultChord
// when nil.
func NewListener(chord []string) *Listener {
	if len(chord) == 0 {
		chord = DefaultChord
	}
	return &Listener{
		chord: chord,
		// Capacity one: a toggle that arrives while one is already
		// pending is dropped, matching the debounce semantics.
		toggles: make(chan struct{}, 1),
	}
}

// Toggles returns the channel delivering toggle events.
func (l *Listener) Toggles() <-chan struct{} {
	return l.toggles
}

// Start registers the chord with the OS event hook and runs the event
// loop on a background goroutine.
func (l *Listener) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return
	}
	l.running = true

	var last time.Time
	hook.Register(hook.KeyDown, l.chord, func(e hook.Event) {
		if time.Since(last) < debounce {
			return
		}
		last = time.Now()
		select {
		case l.toggles <- struct{}{}:
		default:
			slog.Debug("toggle dropped, previous toggle still pending")
		}
	})

	go func() {
		s := hook.Start()
		<-hook.Process(s)
	}()

	slog.Info("hotkey registered", "chord", l.chord)
}

// Stop unregisters the hook and ends the event loop.
func (l *Listener) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.running {
		return
	}
	l.running = false
	hook.End()
}
