package sse

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

var (
	dataPrefix = []byte("data:")
	doneMarker = []byte("[DONE]")
)

// Scanner reads data payloads from an event stream line by line.
//
// Partial lines are buffered across reads. A final line without a trailing
// newline is still processed when the underlying reader reaches EOF.
type Scanner struct {
	reader *bufio.Reader
	data   []byte
	done   bool
	err    error
}

// NewScanner creates a Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{reader: bufio.NewReader(r)}
}

// Next advances to the next data payload. It returns false when the stream
// ends, either on the [DONE] marker, on EOF, or on a read error.
func (s *Scanner) Next() bool {
	if s.done {
		return false
	}
	for {
		line, err := s.reader.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			s.err = err
			s.done = true
			return false
		}
		eof := err != nil

		line = bytes.TrimSpace(line)
		if bytes.HasPrefix(line, dataPrefix) {
			payload := bytes.TrimSpace(line[len(dataPrefix):])
			if bytes.Equal(payload, doneMarker) {
				s.done = true
				return false
			}
			s.data = payload
			if eof {
				s.done = true
			}
			return true
		}

		if eof {
			s.done = true
			return false
		}
	}
}

// Data returns the current payload with the "data:" prefix stripped. The
// slice is only valid until the next call to Next.
func (s *Scanner) Data() []byte {
	return s.data
}

// Err returns the read error that stopped the scanner, if any.
func (s *Scanner) Err() error {
	return s.err
}
