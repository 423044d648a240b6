package sse

import (
	"errors"
	"io"
	"slices"
	"strings"
	"testing"
	"testing/iotest"
)

// chunkedReader returns the input in fixed-size reads so that lines are split
// across reads.
type chunkedReader struct {
	data []byte
	size int
}

func (r *chunkedReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	n := min(r.size, len(r.data), len(p))
	copy(p, r.data[:n])
	r.data = r.data[n:]
	return n, nil
}

func collect(t *testing.T, r io.Reader) ([]string, error) {
	t.Helper()
	var got []string
	err := ReadDeltas(r, func(s string) {
		got = append(got, s)
	})
	return got, err
}

func TestReadDeltas_OrderAndDone(t *testing.T) {
	stream := strings.Join([]string{
		`: keep-alive`,
		`data: {"choices":[{"delta":{"content":"Hel"}}]}`,
		``,
		`data: {"choices":[{"delta":{"content":"lo, "}}]}`,
		`event: message`,
		`data: {"choices":[{"delta":{"content":[{"type":"output_text","text":"wor"},{"type":"reasoning","text":"skip"},{"type":"output_text","text":"ld"}]}}]}`,
		`data: [DONE]`,
		`data: {"choices":[{"delta":{"content":"after done"}}]}`,
		``,
	}, "\n")

	for _, size := range []int{1, 3, 7, 64, 4096} {
		got, err := collect(t, &chunkedReader{data: []byte(stream), size: size})
		if err != nil {
			t.Fatalf("size=%d: ReadDeltas() error = %v", size, err)
		}
		want := []string{"Hel", "lo, ", "wor", "ld"}
		if !slices.Equal(got, want) {
			t.Errorf("size=%d: got %q, want %q", size, got, want)
		}
	}
}

func TestReadDeltas_StopsAtDoneWithoutReadingRest(t *testing.T) {
	head := "data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\ndata: [DONE]\n"
	r := io.MultiReader(strings.NewReader(head), iotest.ErrReader(errors.New("must not be read")))

	got, err := collect(t, r)
	if err != nil {
		t.Fatalf("ReadDeltas() error = %v", err)
	}
	if !slices.Equal(got, []string{"a"}) {
		t.Errorf("got %q", got)
	}
}

func TestReadDeltas_MalformedFrameSkipped(t *testing.T) {
	stream := "data: {\"choices\":[{\"delta\":{\"content\":\"before\"}}]}\n" +
		"data: {not json\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":42}}]}\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"after\"}}]}\n" +
		"data: [DONE]\n"

	got, err := collect(t, strings.NewReader(stream))
	if err != nil {
		t.Fatalf("ReadDeltas() error = %v", err)
	}
	if want := []string{"before", "after"}; !slices.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestReadDeltas_TrailingLineWithoutNewline(t *testing.T) {
	stream := "data: {\"choices\":[{\"delta\":{\"content\":\"x\"}}]}\ndata: {\"choices\":[{\"delta\":{\"content\":\"y\"}}]}"
	got, err := collect(t, strings.NewReader(stream))
	if err != nil {
		t.Fatalf("ReadDeltas() error = %v", err)
	}
	if want := []string{"x", "y"}; !slices.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestReadDeltas_ReadErrorKeepsDelivered(t *testing.T) {
	readErr := errors.New("connection reset")
	r := io.MultiReader(
		strings.NewReader("data: {\"choices\":[{\"delta\":{\"content\":\"partial\"}}]}\n"),
		iotest.ErrReader(readErr),
	)

	got, err := collect(t, r)
	if !errors.Is(err, readErr) {
		t.Fatalf("ReadDeltas() error = %v, want %v", err, readErr)
	}
	if !slices.Equal(got, []string{"partial"}) {
		t.Errorf("got %q", got)
	}
}

func TestReadDeltas_StreamError(t *testing.T) {
	stream := "data: {\"error\":{\"code\":502,\"message\":\"upstream overloaded\"}}\n"
	_, err := collect(t, strings.NewReader(stream))
	var se *StreamError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *StreamError", err)
	}
	if se.Message != "upstream overloaded" {
		t.Errorf("Message = %q", se.Message)
	}
}

func TestParseDelta(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    []string
		wantErr bool
	}{
		{"string", `{"choices":[{"delta":{"content":"hi"}}]}`, []string{"hi"}, false},
		{"empty string", `{"choices":[{"delta":{"content":""}}]}`, nil, false},
		{"null content", `{"choices":[{"delta":{"content":null}}]}`, nil, false},
		{"role only", `{"choices":[{"delta":{"role":"assistant"}}]}`, nil, false},
		{"no choices", `{"id":"gen-1","choices":[]}`, nil, false},
		{"segments", `{"choices":[{"delta":{"content":[{"type":"text","text":"a"},{"type":"output_text","text":"b"}]}}]}`, []string{"a", "b"}, false},
		{"bad json", `{"choices":`, nil, true},
		{"number content", `{"choices":[{"delta":{"content":1}}]}`, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDelta([]byte(tt.payload))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDelta() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrMalformedFrame) {
				t.Errorf("error = %v, want ErrMalformedFrame", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeltas_EarlyBreak(t *testing.T) {
	stream := "data: {\"choices\":[{\"delta\":{\"content\":\"1\"}}]}\ndata: {\"choices\":[{\"delta\":{\"content\":\"2\"}}]}\n"
	var got []string
	for text, err := range Deltas(strings.NewReader(stream)) {
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, text)
		break
	}
	if !slices.Equal(got, []string{"1"}) {
		t.Errorf("got %q", got)
	}
}
