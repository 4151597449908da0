package audio

import "math"

// Downmix converts interleaved native-layout frames to normalized mono
// float samples, one per frame, by averaging the channels of each frame.
// Single-channel buffers pass through unchanged apart from normalization.
func Downmix(buf *FrameBuffer) []float32 {
	if buf == nil || buf.Frames() == 0 {
		return nil
	}
	switch buf.Format.Layout {
	case LayoutInt16:
		return downmixInt16(buf.int16s, buf.Format.Channels)
	case LayoutInt32:
		return downmixInt32(buf.int32s, buf.Format.Channels)
	default:
		return downmixFloat32(buf.float32s, buf.Format.Channels)
	}
}

func downmixInt16(in []int16, channels int) []float32 {
	if channels < 1 {
		return nil
	}
	frames := len(in) / channels
	out := make([]float32, frames)
	for f := 0; f < frames; f++ {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += float32(in[f*channels+c]) / 32768.0
		}
		out[f] = sum / float32(channels)
	}
	return out
}

func downmixInt32(in []int32, channels int) []float32 {
	if channels < 1 {
		return nil
	}
	frames := len(in) / channels
	out := make([]float32, frames)
	for f := 0; f < frames; f++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(in[f*channels+c]) / 2147483648.0
		}
		out[f] = float32(sum / float64(channels))
	}
	return out
}

func downmixFloat32(in []float32, channels int) []float32 {
	if channels < 1 {
		return nil
	}
	frames := len(in) / channels
	out := make([]float32, frames)
	for f := 0; f < frames; f++ {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += in[f*channels+c]
		}
		out[f] = sum / float32(channels)
	}
	return out
}

// Resample converts mono samples from srcRate to dstRate using linear
// interpolation. For each output index i the source position is
// i*srcRate/dstRate; the sample is the weighted average of its two
// nearest neighbors, with the last input sample replicated past the end.
// Equal rates flow through the same path and come out as an identity
// copy. Empty input produces empty output.
func Resample(in []float32, srcRate, dstRate int) []float32 {
	if len(in) == 0 || srcRate <= 0 || dstRate <= 0 {
		return nil
	}

	outLen := int(math.Ceil(float64(len(in)) * float64(dstRate) / float64(srcRate)))
	out := make([]float32, outLen)
	ratio := float64(srcRate) / float64(dstRate)

	for i := range out {
		t := float64(i) * ratio
		i0 := int(t)
		if i0 >= len(in)-1 {
			out[i] = in[len(in)-1]
			continue
		}
		frac := float32(t - float64(i0))
		out[i] = in[i0]*(1-frac) + in[i0+1]*frac
	}
	return out
}
