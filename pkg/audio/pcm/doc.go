// Package pcm describes linear PCM audio formats.
//
// Speech backends return raw samples labelled only by a MIME type such as
// "audio/L16;codec=pcm;rate=24000". ParseMIME turns that label into a Format
// that knows its sample rate, channel count and bit depth.
//
// Example usage:
//
//	f, ok := pcm.ParseMIME("audio/L16;rate=16000")
//	if !ok {
//	    // containerized audio, pass through untouched
//	}
//	perSecond := f.BytesRate()                      // 32000
//	d := f.Duration(int64(len(samples)))            // playback length
//	n := f.BytesInDuration(20 * time.Millisecond)   // 640
package pcm
