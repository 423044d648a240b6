package resampler

import (
	"fmt"

	"github.com/haivivi/mediaforge/pkg/audio/pcm"
	resampling "github.com/tphakala/go-audio-resampling"
)

// UnsupportedFormatError is returned for layouts other than 16-bit mono or
// stereo.
type UnsupportedFormatError struct {
	Format pcm.Format
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("resampler: unsupported format %s", e.Format)
}

func checkFormat(f pcm.Format) error {
	if !f.IsValid() || f.Depth() != 16 || f.Channels() > 2 {
		return &UnsupportedFormatError{Format: f}
	}
	return nil
}

// Convert returns data, laid out as from, converted to the layout of to. A
// trailing partial frame is dropped. When the layouts are equal the input is
// returned unchanged.
func Convert(data []byte, from, to pcm.Format) ([]byte, error) {
	if err := checkFormat(from); err != nil {
		return nil, err
	}
	if err := checkFormat(to); err != nil {
		return nil, err
	}
	if from == to {
		return data, nil
	}

	frames := len(data) / from.BlockAlign()
	buf := make([]byte, frames*from.BlockAlign(), frames*max(from.BlockAlign(), to.BlockAlign()))
	copy(buf, data)

	switch {
	case from.Channels() == 2 && to.Channels() == 1:
		buf = buf[:stereoToMono(buf)]
	case from.Channels() == 1 && to.Channels() == 2:
		buf = buf[:frames*4]
		buf = buf[:monoToStereo(buf)]
	}
	if from.SampleRate() == to.SampleRate() {
		return buf, nil
	}

	r, err := resampling.New(&resampling.Config{
		InputRate:  float64(from.SampleRate()),
		OutputRate: float64(to.SampleRate()),
		Channels:   to.Channels(),
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("resampler: create: %w", err)
	}
	output, err := r.Process(toFloat(buf))
	if err != nil {
		return nil, fmt.Errorf("resampler: process: %w", err)
	}
	out := fromFloat(output)
	return out[:len(out)/to.BlockAlign()*to.BlockAlign()], nil
}

// toFloat decodes little-endian int16 samples into [-1, 1).
func toFloat(b []byte) []float64 {
	out := make([]float64, len(b)/2)
	for i := range out {
		s := int16(b[i*2]) | int16(b[i*2+1])<<8
		out[i] = float64(s) / 32768.0
	}
	return out
}

// fromFloat encodes samples as little-endian int16, clamping out-of-range
// values.
func fromFloat(samples []float64) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		var v int16
		switch {
		case s > 1.0:
			v = 32767
		case s < -1.0:
			v = -32768
		default:
			v = int16(s * 32767.0)
		}
		out[i*2] = byte(v)
		out[i*2+1] = byte(v >> 8)
	}
	return out
}

// stereoToMono averages L and R in place and returns the mono length.
func stereoToMono(b []byte) int {
	numFrames := len(b) / 4
	for i := range numFrames {
		j := i * 4
		k := i * 2
		l := int16(b[j]) | int16(b[j+1])<<8
		r := int16(b[j+2]) | int16(b[j+3])<<8
		m := int16((int32(l) + int32(r)) / 2)
		b[k] = byte(m)
		b[k+1] = byte(m >> 8)
	}
	return numFrames * 2
}

// monoToStereo duplicates each sample in place. The mono samples occupy the
// first half of b.
func monoToStereo(b []byte) int {
	numSamples := len(b) / 4
	for i := numSamples - 1; i >= 0; i-- {
		s0, s1 := b[i*2], b[i*2+1]
		j := i * 4
		b[j], b[j+1] = s0, s1
		b[j+2], b[j+3] = s0, s1
	}
	return numSamples * 4
}
