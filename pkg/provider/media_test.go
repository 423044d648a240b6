package provider

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWithKey(t *testing.T) {
	tests := []struct {
		uri, key, want string
	}{
		{"https://host/files/a:download?alt=media", "k1", "https://host/files/a:download?alt=media&key=k1"},
		{"https://host/files/a", "k1", "https://host/files/a?key=k1"},
		{"https://host/files/a?x=1", "a b", "https://host/files/a?x=1&key=a+b"},
	}
	for _, tt := range tests {
		if got := withKey(tt.uri, tt.key); got != tt.want {
			t.Errorf("withKey(%q, %q) = %q, want %q", tt.uri, tt.key, got, tt.want)
		}
	}
}

func TestDataURI(t *testing.T) {
	uri := DataURI("image/png", []byte("hello"))
	if uri != "data:image/png;base64,aGVsbG8=" {
		t.Fatalf("DataURI() = %q", uri)
	}
	mime, data, ok := ParseDataURI(uri)
	if !ok || mime != "image/png" || string(data) != "hello" {
		t.Errorf("ParseDataURI() = %q, %q, %v", mime, data, ok)
	}
	if _, _, ok := ParseDataURI("https://example.com/a.png"); ok {
		t.Error("ParseDataURI accepted a remote URL")
	}
	if _, _, ok := ParseDataURI("data:image/png;base64,@@@"); ok {
		t.Error("ParseDataURI accepted invalid base64")
	}
}

func TestWaitJob_CancelStopsWaiting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()
	_, err := waitJob(ctx, "test", jobState[int]{}, time.Hour, func(context.Context) (jobState[int], error) {
		calls++
		return jobState[int]{}, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if calls != 0 {
		t.Errorf("calls = %d, want 0", calls)
	}
}

func TestWaitJob_CheckError(t *testing.T) {
	boom := errors.New("boom")
	_, err := waitJob(context.Background(), "test", jobState[int]{}, time.Millisecond, func(context.Context) (jobState[int], error) {
		return jobState[int]{}, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want %v", err, boom)
	}
}

func TestStrictSchema(t *testing.T) {
	s := strictSchema(ScriptSchema())
	if s.AdditionalProperties == nil {
		t.Fatal("root object allows additional properties")
	}
	item := s.Properties["scenes"].Items
	if item.AdditionalProperties == nil {
		t.Fatal("scene object allows additional properties")
	}
	if ScriptSchema().AdditionalProperties != nil {
		t.Error("strictSchema modified its input")
	}
}
