package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// EncodeWAV serializes mono samples as a 16-bit PCM WAV container at
// TargetSampleRate. Each sample is scaled and clamped to the signed
// 16-bit range; clamping rather than wrapping keeps clipped audio from
// turning into corrupt samples. The result is an in-memory buffer; no
// file or network access happens here.
func EncodeWAV(samples []float32) []byte {
	dataSize := len(samples) * 2

	buf := bytes.NewBuffer(make([]byte, 0, 44+dataSize))

	// RIFF header
	buf.WriteString("RIFF")
	writeUint32LE(buf, uint32(36+dataSize))
	buf.WriteString("WAVE")

	// fmt chunk
	buf.WriteString("fmt ")
	writeUint32LE(buf, 16)                         // chunk size
	writeUint16LE(buf, 1)                          // PCM
	writeUint16LE(buf, 1)                          // mono
	writeUint32LE(buf, uint32(TargetSampleRate))   // sample rate
	writeUint32LE(buf, uint32(TargetSampleRate*2)) // byte rate
	writeUint16LE(buf, 2)                          // block align
	writeUint16LE(buf, 16)                         // bits per sample

	// data chunk
	buf.WriteString("data")
	writeUint32LE(buf, uint32(dataSize))

	for _, s := range samples {
		if s > 1.0 {
			s = 1.0
		} else if s < -1.0 {
			s = -1.0
		}
		writeInt16LE(buf, int16(s*32767))
	}

	return buf.Bytes()
}

// WAVInfo describes the header of an encoded WAV buffer.
type WAVInfo struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
	DataSize      int
}

// Samples returns the number of PCM samples declared by the header.
func (i WAVInfo) Samples() int {
	bytesPerSample := i.BitsPerSample / 8
	if bytesPerSample == 0 {
		return 0
	}
	return i.DataSize / bytesPerSample
}

// Seconds returns the audio duration declared by the header.
func (i WAVInfo) Seconds() float64 {
	if i.SampleRate == 0 {
		return 0
	}
	return float64(i.Samples()) / float64(i.SampleRate)
}

// DecodeWAVInfo parses and validates the 44-byte canonical WAV header.
func DecodeWAVInfo(data []byte) (WAVInfo, error) {
	if len(data) < 44 {
		return WAVInfo{}, fmt.Errorf("wav data too short: %d bytes", len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return WAVInfo{}, fmt.Errorf("not a RIFF/WAVE container")
	}
	if string(data[12:16]) != "fmt " {
		return WAVInfo{}, fmt.Errorf("missing fmt chunk")
	}
	if string(data[36:40]) != "data" {
		return WAVInfo{}, fmt.Errorf("missing data chunk")
	}
	if format := binary.LittleEndian.Uint16(data[20:22]); format != 1 {
		return WAVInfo{}, fmt.Errorf("unsupported audio format %d, want PCM", format)
	}

	return WAVInfo{
		Channels:      int(binary.LittleEndian.Uint16(data[22:24])),
		SampleRate:    int(binary.LittleEndian.Uint32(data[24:28])),
		BitsPerSample: int(binary.LittleEndian.Uint16(data[34:36])),
		DataSize:      int(binary.LittleEndian.Uint32(data[40:44])),
	}, nil
}

func writeUint16LE(w *bytes.Buffer, v uint16) {
	w.WriteByte(byte(v))
	w.WriteByte(byte(v >> 8))
}

func writeUint32LE(w *bytes.Buffer, v uint32) {
	w.WriteByte(byte(v))
	w.WriteByte(byte(v >> 8))
	w.WriteByte(byte(v >> 16))
	w.WriteByte(byte(v >> 24))
}

func writeInt16LE(w *bytes.Buffer, v int16) {
	w.WriteByte(byte(v))
	w.WriteByte(byte(v >> 8))
}
