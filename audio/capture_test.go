package audio

import (
	"errors"
	"testing"
)

func TestStopWithoutStart(t *testing.T) {
	r := NewRecorder()
	if _, err := r.Stop(); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
}

func TestFrameBufferFrames(t *testing.T) {
	tests := []struct {
		name   string
		format DeviceFormat
		fill   func(*FrameBuffer)
		want   int
	}{
		{
			name:   "stereo_float32",
			format: DeviceFormat{SampleRate: 48000, Channels: 2, Layout: LayoutFloat32},
			fill:   func(b *FrameBuffer) { b.AppendFloat32(make([]float32, 10)) },
			want:   5,
		},
		{
			name:   "mono_int16",
			format: DeviceFormat{SampleRate: 44100, Channels: 1, Layout: LayoutInt16},
			fill:   func(b *FrameBuffer) { b.AppendInt16(make([]int16, 7)) },
			want:   7,
		},
		{
			name:   "quad_int32_partial_frame",
			format: DeviceFormat{SampleRate: 96000, Channels: 4, Layout: LayoutInt32},
			fill:   func(b *FrameBuffer) { b.AppendInt32(make([]int32, 9)) },
			want:   2,
		},
		{
			name:   "empty",
			format: DeviceFormat{SampleRate: 48000, Channels: 2, Layout: LayoutFloat32},
			fill:   func(*FrameBuffer) {},
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := NewFrameBuffer(tt.format)
			tt.fill(buf)
			if got := buf.Frames(); got != tt.want {
				t.Errorf("Frames() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSampleLayoutString(t *testing.T) {
	if LayoutInt16.String() != "int16" || LayoutFloat32.String() != "float32" {
		t.Fatal("unexpected layout names")
	}
}
