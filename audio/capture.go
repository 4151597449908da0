package audio

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// FrameBuffer holds interleaved samples in the device's native layout.
// It is append-only while a capture session is active and owned
// exclusively by the capture side until Stop hands it to the caller.
type FrameBuffer struct {
	Format DeviceFormat

	int16s   []int16
	int32s   []int32
	float32s []float32
}

// NewFrameBuffer creates an empty buffer for the given format.
func NewFrameBuffer(format DeviceFormat) *FrameBuffer {
	return &FrameBuffer{Format: format}
}

// AppendInt16 appends interleaved int16 samples.
func (b *FrameBuffer) AppendInt16(samples []int16) {
	b.int16s = append(b.int16s, samples...)
}

// AppendInt32 appends interleaved int32 samples.
func (b *FrameBuffer) AppendInt32(samples []int32) {
	b.int32s = append(b.int32s, samples...)
}

// AppendFloat32 appends interleaved float32 samples.
func (b *FrameBuffer) AppendFloat32(samples []float32) {
	b.float32s = append(b.float32s, samples...)
}

// Frames returns the number of complete frames captured so far.
func (b *FrameBuffer) Frames() int {
	if b.Format.Channels < 1 {
		return 0
	}
	switch b.Format.Layout {
	case LayoutInt16:
		return len(b.int16s) / b.Format.Channels
	case LayoutInt32:
		return len(b.int32s) / b.Format.Channels
	default:
		return len(b.float32s) / b.Format.Channels
	}
}

// Recorder captures microphone audio in the device's native format.
// Frames delivered by the device callback accumulate in an internal
// FrameBuffer with no backpressure; recordings are short, user-gated
// utterances, so the buffer is bounded by session length.
type Recorder struct {
	mu     sync.Mutex
	stream *portaudio.Stream

	bufMu sync.Mutex
	buf   *FrameBuffer

	waveform *Ring
}

// NewRecorder creates a recorder with a waveform window for display.
func NewRecorder() *Recorder {
	return &Recorder{waveform: NewRing(WaveformWindow)}
}

// Start opens a capture stream in the given native format and begins
// accumulating frames. Fails with ErrSessionActive if a session is
// already running.
func (r *Recorder) Start(format DeviceFormat) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stream != nil {
		return ErrSessionActive
	}

	info, err := portaudio.DefaultInputDevice()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoInputDevice, err)
	}

	params := portaudio.HighLatencyParameters(info, nil)
	params.Input.Channels = format.Channels
	params.SampleRate = float64(format.SampleRate)

	buf := NewFrameBuffer(format)

	var stream *portaudio.Stream
	switch format.Layout {
	case LayoutInt16:
		stream, err = portaudio.OpenStream(params, func(in []int16) {
			r.bufMu.Lock()
			if r.buf != nil {
				r.buf.AppendInt16(in)
			}
			r.bufMu.Unlock()
			r.waveform.Write(downmixInt16(in, format.Channels))
		})
	case LayoutInt32:
		stream, err = portaudio.OpenStream(params, func(in []int32) {
			r.bufMu.Lock()
			if r.buf != nil {
				r.buf.AppendInt32(in)
			}
			r.bufMu.Unlock()
			r.waveform.Write(downmixInt32(in, format.Channels))
		})
	default:
		stream, err = portaudio.OpenStream(params, func(in []float32) {
			r.bufMu.Lock()
			if r.buf != nil {
				r.buf.AppendFloat32(in)
			}
			r.bufMu.Unlock()
			r.waveform.Write(downmixFloat32(in, format.Channels))
		})
	}
	if err != nil {
		return classifyStreamErr(err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return classifyStreamErr(err)
	}

	r.bufMu.Lock()
	r.buf = buf
	r.bufMu.Unlock()
	r.waveform.Clear()
	r.stream = stream
	return nil
}

// Stop ends the capture session and hands the frame buffer to the caller.
// The recorder keeps no reference to the returned buffer. Calling Stop
// without an active session fails with ErrNoActiveSession.
func (r *Recorder) Stop() (*FrameBuffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stream == nil {
		return nil, ErrNoActiveSession
	}

	stopErr := r.stream.Stop()
	closeErr := r.stream.Close()
	r.stream = nil

	r.bufMu.Lock()
	buf := r.buf
	r.buf = nil
	r.bufMu.Unlock()

	if stopErr == nil {
		stopErr = closeErr
	}
	if stopErr != nil {
		return buf, fmt.Errorf("stop capture stream: %w", stopErr)
	}
	return buf, nil
}

// Waveform returns up to n trailing mono samples for display.
func (r *Recorder) Waveform(n int) []float32 {
	return r.waveform.Read(n)
}

// classifyStreamErr maps host API failures onto the capture error
// taxonomy where the failure mode is recognizable.
func classifyStreamErr(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "busy") || strings.Contains(msg, "unavailable"):
		return fmt.Errorf("%w: %v", ErrDeviceBusy, err)
	case strings.Contains(msg, "denied") || strings.Contains(msg, "permission"):
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	default:
		return fmt.Errorf("open capture stream: %w", err)
	}
}
