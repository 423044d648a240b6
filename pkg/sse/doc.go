// Package sse decodes the "data:" framed event streams returned by
// OpenAI-compatible chat completion endpoints.
//
// A stream is a sequence of newline-delimited lines. Lines that do not start
// with "data:" are ignored. The literal payload "[DONE]" terminates the stream
// even when more bytes follow. Every other payload is a JSON chunk whose
// choices[0].delta.content carries the next text fragment, either as a plain
// string or as a list of typed segments.
//
// Basic usage:
//
//	err := sse.ReadDeltas(resp.Body, func(text string) {
//	    fmt.Print(text)
//	})
//
// Or as an iterator:
//
//	for text, err := range sse.Deltas(resp.Body) {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Print(text)
//	}
//
// A payload that fails to parse is logged and skipped; it never aborts the
// stream. An error object reported inside the stream is returned as a
// *StreamError.
package sse
