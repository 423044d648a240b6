// Package wav reassembles streamed speech fragments into one playable
// resource.
//
// Raw PCM fragments are concatenated and given a canonical 44-byte RIFF/WAVE
// header. Already containerized audio (mp3, ogg, wav) is concatenated
// verbatim under its own MIME type.
package wav

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/haivivi/mediaforge/pkg/audio/pcm"
	"github.com/haivivi/mediaforge/pkg/audio/resampler"
)

// MIMEType is the MIME type of a synthesized container.
const MIMEType = "audio/wav"

// HeaderSize is the size of a canonical PCM WAVE header.
const HeaderSize = 44

// ErrNoFragments is returned by Assemble for an empty fragment list.
var ErrNoFragments = errors.New("wav: no audio fragments")

// Header returns the canonical 44-byte header for dataLen bytes of PCM in
// format f.
func Header(f pcm.Format, dataLen int) []byte {
	h := make([]byte, HeaderSize)
	copy(h[0:4], "RIFF")
	binary.LittleEndian.PutUint32(h[4:8], uint32(36+dataLen))
	copy(h[8:12], "WAVE")
	copy(h[12:16], "fmt ")
	binary.LittleEndian.PutUint32(h[16:20], 16)
	binary.LittleEndian.PutUint16(h[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(h[22:24], uint16(f.Channels()))
	binary.LittleEndian.PutUint32(h[24:28], uint32(f.SampleRate()))
	binary.LittleEndian.PutUint32(h[28:32], uint32(f.BytesRate()))
	binary.LittleEndian.PutUint16(h[32:34], uint16(f.BlockAlign()))
	binary.LittleEndian.PutUint16(h[34:36], uint16(f.Depth()))
	copy(h[36:40], "data")
	binary.LittleEndian.PutUint32(h[40:44], uint32(dataLen))
	return h
}

// Encode prepends a header to raw PCM samples.
func Encode(f pcm.Format, samples []byte) []byte {
	out := make([]byte, 0, HeaderSize+len(samples))
	out = append(out, Header(f, len(samples))...)
	return append(out, samples...)
}

// Option configures Assemble.
type Option func(*options)

type options struct {
	sampleRate int
}

// WithSampleRate resamples raw PCM to rate before the header is written.
// Containerized audio is not affected.
func WithSampleRate(rate int) Option {
	return func(o *options) {
		o.sampleRate = rate
	}
}

// Assemble joins fragments in order. mimeType is the MIME type of the first
// fragment and is assumed for all of them. It returns the playable bytes and
// their MIME type.
func Assemble(mimeType string, fragments [][]byte, opts ...Option) ([]byte, string, error) {
	if len(fragments) == 0 {
		return nil, "", ErrNoFragments
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	size := 0
	for _, frag := range fragments {
		size += len(frag)
	}
	buf := make([]byte, 0, size)
	for _, frag := range fragments {
		buf = append(buf, frag...)
	}

	f, raw := pcm.ParseMIME(mimeType)
	if !raw {
		return buf, mimeType, nil
	}
	if o.sampleRate > 0 && o.sampleRate != f.SampleRate() {
		to := f.WithSampleRate(o.sampleRate)
		converted, err := resampler.Convert(buf, f, to)
		if err != nil {
			return nil, "", fmt.Errorf("wav: %w", err)
		}
		return Encode(to, converted), MIMEType, nil
	}
	return Encode(f, buf), MIMEType, nil
}
