package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/murmurapp/murmur/audio"
	"github.com/murmurapp/murmur/recording"
)

type fakeCapture struct {
	mu       sync.Mutex
	format   audio.DeviceFormat
	buf      *audio.FrameBuffer
	startErr error
	stopErr  error
	started  bool
}

func (c *fakeCapture) Start(format audio.DeviceFormat) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.startErr != nil {
		return c.startErr
	}
	c.format = format
	c.started = true
	return nil
}

func (c *fakeCapture) Stop() (*audio.FrameBuffer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started = false
	if c.stopErr != nil {
		return nil, c.stopErr
	}
	return c.buf, nil
}

func (c *fakeCapture) Waveform(n int) []float32 {
	return make([]float32, n)
}

type fakeTranscriber struct {
	mu     sync.Mutex
	text   string
	err    error
	gotWAV []byte
	block  chan struct{}
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, wav []byte) (string, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	f.gotWAV = append([]byte(nil), wav...)
	f.mu.Unlock()
	return f.text, f.err
}

func (f *fakeTranscriber) wav() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gotWAV
}

type pasteRecorder struct {
	mu    sync.Mutex
	texts []string
}

func (p *pasteRecorder) paste(text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.texts = append(p.texts, text)
	return nil
}

func (p *pasteRecorder) pasted() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.texts...)
}

// stereoBuffer builds two seconds of interleaved 48 kHz stereo audio.
func stereoBuffer() *audio.FrameBuffer {
	format := audio.DeviceFormat{SampleRate: 48000, Channels: 2, Layout: audio.LayoutFloat32}
	buf := audio.NewFrameBuffer(format)
	samples := make([]float32, 192000)
	for i := range samples {
		samples[i] = 0.25
	}
	buf.AppendFloat32(samples)
	return buf
}

func negotiate48kStereo() (audio.DeviceFormat, error) {
	return audio.DeviceFormat{SampleRate: 48000, Channels: 2, Layout: audio.LayoutFloat32}, nil
}

func waitForState(t *testing.T, a *App, want recording.State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if a.State() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for state %s, at %s", want, a.State())
}

func TestToggleCycleTranscribesAndPastes(t *testing.T) {
	capture := &fakeCapture{buf: stereoBuffer()}
	transcriber := &fakeTranscriber{text: "hello there"}
	paster := &pasteRecorder{}

	seconds := make(chan float64, 1)
	a := New(Options{
		Negotiate:  negotiate48kStereo,
		Capture:    capture,
		Transcribe: transcriber,
		Paste:      paster.paste,
		OnResult:   func(_ string, s float64) { seconds <- s },
		ResultHold: 20 * time.Millisecond,
	})

	a.Toggle()
	if got := a.State(); got != recording.Recording {
		t.Fatalf("state after first toggle = %s, want recording", got)
	}

	a.Toggle()
	waitForState(t, a, recording.Result)

	snap := a.Snapshot()
	if snap.ResultText != "hello there" {
		t.Errorf("ResultText = %q", snap.ResultText)
	}

	select {
	case got := <-seconds:
		if got != 2.0 {
			t.Errorf("OnResult seconds = %v, want 2.0", got)
		}
	case <-time.After(time.Second):
		t.Fatal("OnResult was not called")
	}

	if got := paster.pasted(); len(got) != 1 || got[0] != "hello there" {
		t.Errorf("pasted = %v, want [hello there]", got)
	}

	// 192000 interleaved stereo samples at 48 kHz downmix to 96000 mono
	// and resample to 32000 at 16 kHz: two seconds of audio.
	info, err := audio.DecodeWAVInfo(transcriber.wav())
	if err != nil {
		t.Fatalf("DecodeWAVInfo: %v", err)
	}
	if info.Samples() != 32000 {
		t.Errorf("wav samples = %d, want 32000", info.Samples())
	}

	waitForState(t, a, recording.Idle)
}

func TestDeviceFailureOnStartEntersError(t *testing.T) {
	capture := &fakeCapture{startErr: errors.New("device busy")}
	a := New(Options{
		Negotiate:  negotiate48kStereo,
		Capture:    capture,
		Transcribe: &fakeTranscriber{},
		ErrorHold:  20 * time.Millisecond,
	})

	a.Toggle()
	waitForState(t, a, recording.Error)

	snap := a.Snapshot()
	if snap.ErrReason != "device busy" {
		t.Errorf("ErrReason = %q", snap.ErrReason)
	}

	waitForState(t, a, recording.Idle)
}

func TestStopFailureEntersError(t *testing.T) {
	capture := &fakeCapture{stopErr: errors.New("stream lost")}
	a := New(Options{
		Negotiate:  negotiate48kStereo,
		Capture:    capture,
		Transcribe: &fakeTranscriber{},
		ErrorHold:  time.Minute,
	})

	a.Toggle()
	a.Toggle()
	waitForState(t, a, recording.Error)

	if reason := a.Snapshot().ErrReason; reason != "stream lost" {
		t.Errorf("ErrReason = %q", reason)
	}
}

func TestEmptyCaptureSkipsTranscriptionAndPaste(t *testing.T) {
	format := audio.DeviceFormat{SampleRate: 48000, Channels: 2, Layout: audio.LayoutFloat32}
	capture := &fakeCapture{buf: audio.NewFrameBuffer(format)}
	paster := &pasteRecorder{}
	a := New(Options{
		Negotiate:  negotiate48kStereo,
		Capture:    capture,
		Transcribe: &fakeTranscriber{text: "should not be called"},
		Paste:      paster.paste,
		ResultHold: 20 * time.Millisecond,
	})

	a.Toggle()
	a.Toggle()
	waitForState(t, a, recording.Result)

	if text, ok := a.machine.ResultText(); !ok || text != "" {
		t.Errorf("ResultText = %q, %v; want empty, true", text, ok)
	}
	if got := paster.pasted(); len(got) != 0 {
		t.Errorf("pasted %v, want nothing", got)
	}

	waitForState(t, a, recording.Idle)
}

func TestTranscriptionFailureEntersError(t *testing.T) {
	a := New(Options{
		Negotiate:  negotiate48kStereo,
		Capture:    &fakeCapture{buf: stereoBuffer()},
		Transcribe: &fakeTranscriber{err: errors.New("API error 401: bad key")},
		ErrorHold:  time.Minute,
	})

	a.Toggle()
	a.Toggle()
	waitForState(t, a, recording.Error)

	if reason := a.Snapshot().ErrReason; reason != "API error 401: bad key" {
		t.Errorf("ErrReason = %q", reason)
	}
}

func TestToggleIgnoredWhileTranscribing(t *testing.T) {
	block := make(chan struct{})
	transcriber := &fakeTranscriber{text: "slow result", block: block}
	a := New(Options{
		Negotiate:  negotiate48kStereo,
		Capture:    &fakeCapture{buf: stereoBuffer()},
		Transcribe: transcriber,
		ResultHold: time.Minute,
	})

	a.Toggle()
	a.Toggle()
	if got := a.State(); got != recording.Transcribing {
		t.Fatalf("state = %s, want transcribing", got)
	}

	// Toggles in transcribing must not start a new recording.
	a.Toggle()
	if got := a.State(); got != recording.Transcribing {
		t.Errorf("state after extra toggle = %s, want transcribing", got)
	}

	close(block)
	waitForState(t, a, recording.Result)
}

func TestSnapshotWhileRecordingCarriesWaveform(t *testing.T) {
	a := New(Options{
		Negotiate:  negotiate48kStereo,
		Capture:    &fakeCapture{buf: stereoBuffer()},
		Transcribe: &fakeTranscriber{},
	})

	a.Toggle()
	snap := a.Snapshot()
	if snap.State != recording.Recording {
		t.Fatalf("state = %s", snap.State)
	}
	if len(snap.Waveform) != audio.WaveformWindow {
		t.Errorf("waveform length = %d, want %d", len(snap.Waveform), audio.WaveformWindow)
	}
}

func TestRunConsumesToggles(t *testing.T) {
	a := New(Options{
		Negotiate:  negotiate48kStereo,
		Capture:    &fakeCapture{buf: stereoBuffer()},
		Transcribe: &fakeTranscriber{text: "via run"},
		ResultHold: time.Minute,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	toggles := make(chan struct{})
	done := make(chan struct{})
	go func() {
		a.Run(ctx, toggles)
		close(done)
	}()

	toggles <- struct{}{}
	waitForState(t, a, recording.Recording)
	toggles <- struct{}{}
	waitForState(t, a, recording.Result)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
