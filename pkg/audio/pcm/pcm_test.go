package pcm

import (
	"testing"
	"time"
)

func TestParseMIME(t *testing.T) {
	tests := []struct {
		mime   string
		wantOK bool
		rate   int
		depth  int
	}{
		{"audio/L16;rate=16000", true, 16000, 16},
		{"audio/L16;codec=pcm;rate=24000", true, 24000, 16},
		{"audio/l24; rate = 48000", true, 48000, 24},
		{"audio/L16", true, DefaultSampleRate, 16},
		{"audio/pcm", true, DefaultSampleRate, DefaultDepth},
		{"audio/PCM;rate=8000", true, 8000, DefaultDepth},
		{"audio/L16;rate=abc", true, DefaultSampleRate, 16},
		{"audio/mpeg", false, 0, 0},
		{"audio/wav", false, 0, 0},
		{"audio/Lxx", false, 0, 0},
		{"video/L16", false, 0, 0},
		{"", false, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			f, ok := ParseMIME(tt.mime)
			if ok != tt.wantOK {
				t.Fatalf("ParseMIME(%q) ok = %v, want %v", tt.mime, ok, tt.wantOK)
			}
			if IsRaw(tt.mime) != tt.wantOK {
				t.Errorf("IsRaw(%q) = %v", tt.mime, !tt.wantOK)
			}
			if !ok {
				return
			}
			if f.SampleRate() != tt.rate || f.Depth() != tt.depth || f.Channels() != 1 {
				t.Errorf("ParseMIME(%q) = %v", tt.mime, f)
			}
		})
	}
}

func TestFormat_Rates(t *testing.T) {
	f, _ := ParseMIME("audio/L16;rate=16000")
	if got := f.BytesRate(); got != 32000 {
		t.Errorf("BytesRate() = %d, want 32000", got)
	}
	if got := f.BlockAlign(); got != 2 {
		t.Errorf("BlockAlign() = %d, want 2", got)
	}
	if got := f.BytesInDuration(20 * time.Millisecond); got != 640 {
		t.Errorf("BytesInDuration(20ms) = %d, want 640", got)
	}
	if got := f.Duration(32000); got != time.Second {
		t.Errorf("Duration(32000) = %v, want 1s", got)
	}
	if f != L16Mono16K {
		t.Errorf("parsed format %v != L16Mono16K", f)
	}
}

func TestNewFormat_Defaults(t *testing.T) {
	f := NewFormat(0, 0, 0)
	if f != L16Mono24K {
		t.Errorf("NewFormat(0, 0, 0) = %v, want %v", f, L16Mono24K)
	}
	if !f.IsValid() || (Format{}).IsValid() {
		t.Error("IsValid mismatch")
	}
	if got := f.WithSampleRate(48000); got != L16Mono48K {
		t.Errorf("WithSampleRate(48000) = %v", got)
	}
	if got := L16Mono48K.String(); got != "audio/L16; rate=48000; channels=1" {
		t.Errorf("String() = %q", got)
	}
}
