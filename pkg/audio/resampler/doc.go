// Package resampler converts 16-bit PCM between sample rates and channel
// layouts.
//
// It supports:
//   - Sample rate conversion (e.g., 24000Hz to 48000Hz)
//   - Channel conversion (mono to stereo or stereo to mono)
//
// Speech output is reassembled in memory, so conversion works on whole
// buffers. Rate conversion uses the pure Go go-audio-resampling library at
// high quality.
//
// Example usage:
//
//	out, err := resampler.Convert(samples, pcm.L16Mono24K, pcm.L16Mono48K)
//	if err != nil {
//	    return err
//	}
package resampler
