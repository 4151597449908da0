// Package app wires audio capture, transcription, and pasting behind a
// single toggle-driven recording lifecycle.
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/murmurapp/murmur/audio"
	"github.com/murmurapp/murmur/recording"
)

const (
	defaultResultHold = 6 * time.Second
	defaultErrorHold  = 3 * time.Second
)

// CaptureSource produces raw audio frames between Start and Stop.
type CaptureSource interface {
	Start(format audio.DeviceFormat) error
	Stop() (*audio.FrameBuffer, error)
	Waveform(n int) []float32
}

// Transcriber converts an encoded WAV payload into text.
type Transcriber interface {
	Transcribe(ctx context.Context, wav []byte) (string, error)
}

// Negotiator reports the capture format of the default input device.
type Negotiator func() (audio.DeviceFormat, error)

// Paster delivers transcribed text to the focused application.
type Paster func(text string) error

// Options configures an App. Negotiate, Capture, and Transcribe are
// required; the rest are optional.
type Options struct {
	Negotiate  Negotiator
	Capture    CaptureSource
	Transcribe Transcriber
	Paste      Paster

	// OnResult is called after a successful transcription, before the
	// result display window expires.
	OnResult func(text string, audioSeconds float64)

	// ResultHold is how long a result stays visible before the state
	// returns to idle. ErrorHold is the equivalent for errors.
	ResultHold time.Duration
	ErrorHold  time.Duration
}

// App owns the recording state machine and drives one capture and
// transcription cycle per toggle pair. All methods are safe for
// concurrent use.
type App struct {
	machine *recording.Machine
	opts    Options
}

// Snapshot is a point-in-time view of the recording lifecycle for
// status displays.
type Snapshot struct {
	State      recording.State
	Generation uint64
	Waveform   []float32
	ResultText string
	ErrReason  string
}

// New creates an App from opts, applying hold-time defaults.
func New(opts Options) *App {
	if opts.ResultHold <= 0 {
		opts.ResultHold = defaultResultHold
	}
	if opts.ErrorHold <= 0 {
		opts.ErrorHold = defaultErrorHold
	}
	return &App{
		machine: recording.NewMachine(),
		opts:    opts,
	}
}

// Toggle starts recording when idle and stops it when recording. Calls
// in any other state are ignored, as are calls that lose the race with
// a concurrent toggle.
func (a *App) Toggle() {
	if err := a.machine.StartRecording(); err == nil {
		a.beginCapture()
		return
	}

	gen, err := a.machine.StopRecording()
	if err != nil {
		slog.Debug("toggle ignored", "state", a.machine.State())
		return
	}
	a.finishCapture(gen)
}

func (a *App) beginCapture() {
	format, err := a.opts.Negotiate()
	if err != nil {
		a.abort("negotiate input device", err)
		return
	}

	if err := a.opts.Capture.Start(format); err != nil {
		a.abort("start capture", err)
		return
	}

	slog.Info("recording started",
		"sample_rate", format.SampleRate,
		"channels", format.Channels,
		"layout", format.Layout)
}

func (a *App) finishCapture(gen uint64) {
	buf, err := a.opts.Capture.Stop()
	if err != nil {
		if a.machine.Fail(gen, err) {
			a.scheduleErrorClear()
		}
		return
	}

	mono := audio.Downmix(buf)
	if len(mono) == 0 {
		slog.Info("recording empty, nothing to transcribe")
		if a.machine.Complete(gen, "") {
			a.scheduleResultClear()
		}
		return
	}

	resampled := audio.Resample(mono, buf.Format.SampleRate, audio.TargetSampleRate)
	wav := audio.EncodeWAV(resampled)
	seconds := float64(len(resampled)) / audio.TargetSampleRate

	slog.Info("recording stopped",
		"samples", len(resampled),
		"seconds", seconds)

	go a.transcribe(gen, wav, seconds)
}

func (a *App) transcribe(gen uint64, wav []byte, seconds float64) {
	text, err := a.opts.Transcribe.Transcribe(context.Background(), wav)
	if err != nil {
		if !a.machine.Fail(gen, err) {
			slog.Debug("stale transcription error discarded", "generation", gen)
			return
		}
		slog.Error("transcription failed", "error", err)
		a.scheduleErrorClear()
		return
	}

	if !a.machine.Complete(gen, text) {
		slog.Debug("stale transcription result discarded", "generation", gen)
		return
	}

	if text != "" {
		if a.opts.Paste != nil {
			if err := a.opts.Paste(text); err != nil {
				slog.Error("paste failed", "error", err)
			}
		}
		if a.opts.OnResult != nil {
			a.opts.OnResult(text, seconds)
		}
	}
	a.scheduleResultClear()
}

// abort moves a live recording into the error state, for device
// failures that happen outside the normal stop path.
func (a *App) abort(op string, err error) {
	slog.Error(op, "error", err)
	if a.machine.Abort(err) == nil {
		a.scheduleErrorClear()
	}
}

func (a *App) scheduleResultClear() {
	gen := a.machine.Generation()
	time.AfterFunc(a.opts.ResultHold, func() {
		if a.machine.Generation() == gen {
			_ = a.machine.ClearResult()
		}
	})
}

func (a *App) scheduleErrorClear() {
	gen := a.machine.Generation()
	time.AfterFunc(a.opts.ErrorHold, func() {
		if a.machine.Generation() == gen {
			_ = a.machine.ClearError()
		}
	})
}

// Snapshot returns the current lifecycle state with any associated
// payload and the most recent waveform window.
func (a *App) Snapshot() Snapshot {
	state, gen := a.machine.Snapshot()
	snap := Snapshot{State: state, Generation: gen}

	switch state {
	case recording.Recording:
		snap.Waveform = a.opts.Capture.Waveform(audio.WaveformWindow)
	case recording.Result:
		snap.ResultText, _ = a.machine.ResultText()
	case recording.Error:
		snap.ErrReason, _ = a.machine.ErrorReason()
	}
	return snap
}

// State returns the current lifecycle state.
func (a *App) State() recording.State {
	return a.machine.State()
}

// Run consumes toggle events until ctx is canceled.
func (a *App) Run(ctx context.Context, toggles <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-toggles:
			if !ok {
				return
			}
			a.Toggle()
		}
	}
}
