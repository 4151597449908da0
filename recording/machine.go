// Package recording implements the shared recording lifecycle observed by
// the trigger, capture and render threads.
package recording

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// State enumerates the recording lifecycle.
type State uint8

const (
	Idle State = iota
	Recording
	Transcribing
	Result
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Transcribing:
		return "transcribing"
	case Result:
		return "result"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// ErrInvalidTransition is returned when a transition is attempted from a
// state that no longer matches. Duplicate or racing triggers produce this
// as an expected outcome; callers log it at most and never escalate.
var ErrInvalidTransition = errors.New("invalid state transition")

const stateBits = 8

// Machine holds the lifecycle state and a generation counter packed into
// one atomic word (generation<<8 | state). Every transition is a single
// compare-and-swap keyed on the expected prior word, so when two triggers
// race, exactly one wins and the loser fails fast without corrupting
// shared state. No transition ever blocks on another thread.
//
// The generation increments on each Recording→Transcribing transition.
// A transcription completion carries the generation it was started with
// and is applied only while that generation is still current, so a stale
// network response arriving after the user has moved on is discarded.
type Machine struct {
	word atomic.Uint64

	// payload is the side channel for result text and error reasons.
	// It is versioned by generation: readers accept it only when its
	// generation matches the state word, so a snapshot never mixes the
	// text of one recording with the state of another.
	payload struct {
		mu     sync.Mutex
		gen    uint64
		text   string
		reason string
	}
}

// NewMachine returns a machine in the Idle state.
func NewMachine() *Machine {
	return &Machine{}
}

func pack(s State, gen uint64) uint64 {
	return gen<<stateBits | uint64(s)
}

func unpack(w uint64) (State, uint64) {
	return State(w & 0xff), w >> stateBits
}

// Snapshot returns the current state and generation as one consistent,
// tear-free read. Safe to poll from any thread without locking.
func (m *Machine) Snapshot() (State, uint64) {
	return unpack(m.word.Load())
}

// State returns the current state.
func (m *Machine) State() State {
	s, _ := m.Snapshot()
	return s
}

// Generation returns the current generation counter.
func (m *Machine) Generation() uint64 {
	_, gen := m.Snapshot()
	return gen
}

// StartRecording attempts Idle → Recording. When two toggles fire at the
// same instant, exactly one call succeeds.
func (m *Machine) StartRecording() error {
	return m.transition(Idle, Recording)
}

// StopRecording attempts Recording → Transcribing and increments the
// generation. The returned generation is the token the transcription
// collaborator must carry back.
func (m *Machine) StopRecording() (uint64, error) {
	w := m.word.Load()
	s, gen := unpack(w)
	if s != Recording {
		return 0, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, Transcribing)
	}
	gen++
	if !m.word.CompareAndSwap(w, pack(Transcribing, gen)) {
		return 0, fmt.Errorf("%w: lost %s -> %s race", ErrInvalidTransition, Recording, Transcribing)
	}
	return gen, nil
}

// Complete applies a successful transcription carrying the given
// generation. It reports false when the generation is stale or the
// machine has already left Transcribing; the result is then discarded
// and current state is untouched.
func (m *Machine) Complete(gen uint64, text string) bool {
	w := m.word.Load()
	s, cur := unpack(w)
	if s != Transcribing || cur != gen {
		return false
	}
	if !m.word.CompareAndSwap(w, pack(Result, gen)) {
		return false
	}
	m.setPayload(gen, text, "")
	return true
}

// Fail applies a failed transcription carrying the given generation,
// with the same fencing rules as Complete.
func (m *Machine) Fail(gen uint64, reason error) bool {
	w := m.word.Load()
	s, cur := unpack(w)
	if s != Transcribing || cur != gen {
		return false
	}
	if !m.word.CompareAndSwap(w, pack(Error, gen)) {
		return false
	}
	msg := ""
	if reason != nil {
		msg = reason.Error()
	}
	m.setPayload(gen, "", msg)
	return true
}

// Abort moves Recording → Error when the capture session itself fails
// (device lost, permission revoked). The machine is never left silently
// in Recording after a device error.
func (m *Machine) Abort(reason error) error {
	w := m.word.Load()
	s, gen := unpack(w)
	if s != Recording {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, Error)
	}
	if !m.word.CompareAndSwap(w, pack(Error, gen)) {
		return fmt.Errorf("%w: lost %s -> %s race", ErrInvalidTransition, Recording, Error)
	}
	msg := ""
	if reason != nil {
		msg = reason.Error()
	}
	m.setPayload(gen, "", msg)
	return nil
}

// ClearResult handles the fade-timeout trigger: Result → Idle. Accepted
// from any thread.
func (m *Machine) ClearResult() error {
	return m.transition(Result, Idle)
}

// ClearError handles the acknowledge/timeout trigger: Error → Idle.
func (m *Machine) ClearError() error {
	return m.transition(Error, Idle)
}

// ResultText returns the transcription text once the machine is in
// Result and the payload for the current generation has landed.
func (m *Machine) ResultText() (string, bool) {
	m.payload.mu.Lock()
	gen, text := m.payload.gen, m.payload.text
	m.payload.mu.Unlock()

	s, cur := m.Snapshot()
	if s != Result || cur != gen {
		return "", false
	}
	return text, true
}

// ErrorReason returns the failure reason once the machine is in Error
// and the payload for the current generation has landed.
func (m *Machine) ErrorReason() (string, bool) {
	m.payload.mu.Lock()
	gen, reason := m.payload.gen, m.payload.reason
	m.payload.mu.Unlock()

	s, cur := m.Snapshot()
	if s != Error || cur != gen {
		return "", false
	}
	return reason, true
}

// transition performs a single CAS from one expected state to another,
// preserving the generation.
func (m *Machine) transition(from, to State) error {
	w := m.word.Load()
	s, gen := unpack(w)
	if s != from {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, to)
	}
	if !m.word.CompareAndSwap(w, pack(to, gen)) {
		return fmt.Errorf("%w: lost %s -> %s race", ErrInvalidTransition, from, to)
	}
	return nil
}

// setPayload records the side-channel payload for a generation. Only the
// winner of the corresponding CAS calls this, so a newer generation can
// never be overwritten by an older one.
func (m *Machine) setPayload(gen uint64, text, reason string) {
	m.payload.mu.Lock()
	defer m.payload.mu.Unlock()
	if gen < m.payload.gen {
		return
	}
	m.payload.gen = gen
	m.payload.text = text
	m.payload.reason = reason
}
