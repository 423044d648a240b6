// Package audio groups the audio helpers used for speech output.
//
//   - pcm: PCM formats, parsed from MIME types such as audio/L16;rate=24000
//   - wav: reassembly of streamed fragments into one playable file
//   - resampler: sample-rate conversion of 16-bit PCM
//
// Example usage:
//
//	import "github.com/haivivi/mediaforge/pkg/audio/wav"
//
//	data, mime, err := wav.Assemble("audio/L16;rate=24000", fragments)
package audio
