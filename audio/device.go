// Package audio implements the microphone acquisition and conversion
// pipeline: device negotiation, capture in the device's native format,
// multi-channel downmix, linear-interpolation resampling to 16 kHz and
// 16-bit PCM WAV encoding.
package audio

import (
	"errors"
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// TargetSampleRate is the rate the transcription service expects.
const TargetSampleRate = 16000

// ErrNoInputDevice is returned when no usable input device exists.
var ErrNoInputDevice = errors.New("no input device found")

// ErrDeviceBusy is returned when the input device cannot be opened because
// another session holds it.
var ErrDeviceBusy = errors.New("input device busy")

// ErrPermissionDenied is returned when the OS denies microphone access.
var ErrPermissionDenied = errors.New("microphone permission denied")

// ErrNoActiveSession is returned when Stop is called without a running
// capture session.
var ErrNoActiveSession = errors.New("no active capture session")

// ErrSessionActive is returned when Start is called while a capture
// session is already running.
var ErrSessionActive = errors.New("capture session already active")

// SampleLayout identifies the native sample encoding of a capture device.
type SampleLayout int

const (
	LayoutInt16 SampleLayout = iota
	LayoutInt32
	LayoutFloat32
)

func (l SampleLayout) String() string {
	switch l {
	case LayoutInt16:
		return "int16"
	case LayoutInt32:
		return "int32"
	case LayoutFloat32:
		return "float32"
	default:
		return fmt.Sprintf("layout(%d)", int(l))
	}
}

// DeviceFormat describes the negotiated capture format. Immutable once
// queried for a session.
type DeviceFormat struct {
	SampleRate int
	Channels   int
	Layout     SampleLayout
}

// Initialize prepares the host audio API. Must be called once before
// Negotiate or Recorder.Start, paired with Terminate at shutdown.
func Initialize() error {
	return portaudio.Initialize()
}

// Terminate releases the host audio API.
func Terminate() {
	portaudio.Terminate()
}

// Negotiate queries the default input device and returns its native
// format. It never requests a specific rate or channel count from the OS;
// forcing an unsupported format fails hard on common hardware, while
// capturing natively and converting in software works everywhere.
func Negotiate() (DeviceFormat, error) {
	info, err := portaudio.DefaultInputDevice()
	if err != nil {
		return DeviceFormat{}, fmt.Errorf("%w: %v", ErrNoInputDevice, err)
	}
	if info.MaxInputChannels < 1 {
		return DeviceFormat{}, ErrNoInputDevice
	}

	// Multi-channel interfaces report every physical input here; two
	// channels is already more than a voice recording needs.
	channels := info.MaxInputChannels
	if channels > 2 {
		channels = 2
	}

	return DeviceFormat{
		SampleRate: int(info.DefaultSampleRate),
		Channels:   channels,
		Layout:     LayoutFloat32,
	}, nil
}
