package pcm

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Defaults applied when a raw PCM MIME type omits a parameter.
const (
	DefaultSampleRate = 24000
	DefaultChannels   = 1
	DefaultDepth      = 16
)

var (
	// L16Mono16K is audio/L16; rate=16000; channels=1
	L16Mono16K = Format{rate: 16000, channels: 1, depth: 16}
	// L16Mono24K is audio/L16; rate=24000; channels=1
	L16Mono24K = Format{rate: 24000, channels: 1, depth: 16}
	// L16Mono48K is audio/L16; rate=48000; channels=1
	L16Mono48K = Format{rate: 48000, channels: 1, depth: 16}
)

// Format is a linear PCM layout. The zero value is not valid; use NewFormat,
// ParseMIME or one of the predefined formats.
type Format struct {
	rate     int
	channels int
	depth    int
}

// NewFormat returns a format with the given sample rate in Hz, channel count
// and bits per sample. Non-positive values fall back to the package defaults.
func NewFormat(rate, channels, depth int) Format {
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	if channels <= 0 {
		channels = DefaultChannels
	}
	if depth <= 0 {
		depth = DefaultDepth
	}
	return Format{rate: rate, channels: channels, depth: depth}
}

// IsRaw reports whether mimeType labels headerless PCM samples: an "L" plus
// bit depth subtype (audio/L16, audio/L24) or an explicit audio/pcm.
func IsRaw(mimeType string) bool {
	_, ok := ParseMIME(mimeType)
	return ok
}

// ParseMIME parses a raw PCM MIME type. The channel count is always
// DefaultChannels, the sample rate comes from a rate= parameter and the bit
// depth from the numeric suffix of an L subtype. ok is false for any type that
// is not raw PCM.
func ParseMIME(mimeType string) (f Format, ok bool) {
	parts := strings.Split(mimeType, ";")
	typ, sub, found := strings.Cut(strings.TrimSpace(parts[0]), "/")
	if !found || !strings.EqualFold(typ, "audio") {
		return Format{}, false
	}

	f = Format{rate: DefaultSampleRate, channels: DefaultChannels, depth: DefaultDepth}
	switch {
	case strings.EqualFold(sub, "pcm"):
	case len(sub) > 1 && (sub[0] == 'L' || sub[0] == 'l'):
		bits, err := strconv.Atoi(sub[1:])
		if err != nil {
			return Format{}, false
		}
		if bits > 0 {
			f.depth = bits
		}
	default:
		return Format{}, false
	}

	for _, p := range parts[1:] {
		key, value, _ := strings.Cut(p, "=")
		if !strings.EqualFold(strings.TrimSpace(key), "rate") {
			continue
		}
		if rate, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && rate > 0 {
			f.rate = rate
		}
	}
	return f, true
}

// SampleRate returns the sample rate in Hz.
func (f Format) SampleRate() int { return f.rate }

// Channels returns the number of interleaved channels.
func (f Format) Channels() int { return f.channels }

// Depth returns the bits per sample.
func (f Format) Depth() int { return f.depth }

// IsValid reports whether every field is set.
func (f Format) IsValid() bool {
	return f.rate > 0 && f.channels > 0 && f.depth > 0
}

// WithSampleRate returns a copy of f at a different sample rate.
func (f Format) WithSampleRate(rate int) Format {
	f.rate = rate
	return f
}

// BlockAlign returns the size in bytes of one frame (one sample for every
// channel).
func (f Format) BlockAlign() int {
	return f.channels * f.depth / 8
}

// BitsRate returns the bit rate of the audio data.
func (f Format) BitsRate() int {
	return f.rate * f.channels * f.depth
}

// BytesRate returns the byte rate of the audio data.
func (f Format) BytesRate() int {
	return f.BitsRate() / 8
}

// Samples returns the number of frames in the given number of bytes.
func (f Format) Samples(bytes int64) int64 {
	return bytes * 8 / int64(f.channels) / int64(f.depth)
}

// SamplesInDuration returns the number of frames in the given duration.
func (f Format) SamplesInDuration(d time.Duration) int64 {
	return int64(time.Duration(f.rate) * d / time.Second)
}

// BytesInDuration returns the number of bytes in the given duration.
func (f Format) BytesInDuration(d time.Duration) int64 {
	return f.SamplesInDuration(d) * int64(f.BlockAlign())
}

// Duration returns the playback length of the given number of bytes.
func (f Format) Duration(bytes int64) time.Duration {
	return time.Duration(f.Samples(bytes)) * time.Second / time.Duration(f.rate)
}

// String returns the format as a MIME type.
func (f Format) String() string {
	return fmt.Sprintf("audio/L%d; rate=%d; channels=%d", f.depth, f.rate, f.channels)
}
