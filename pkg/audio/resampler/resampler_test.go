package resampler

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/haivivi/mediaforge/pkg/audio/pcm"
)

func TestConvert_SameFormat(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5}
	out, err := Convert(data, pcm.L16Mono24K, pcm.L16Mono24K)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, data) {
		t.Errorf("Convert() = %v, want input unchanged", out)
	}
}

func TestConvert_Channels(t *testing.T) {
	mono := pcm.NewFormat(16000, 1, 16)
	stereo := pcm.NewFormat(16000, 2, 16)

	tests := []struct {
		name     string
		in       []byte
		from, to pcm.Format
		want     []byte
	}{
		{
			name: "mono to stereo",
			in:   []byte{1, 2, 3, 4, 9},
			from: mono,
			to:   stereo,
			want: []byte{1, 2, 1, 2, 3, 4, 3, 4},
		},
		{
			name: "stereo to mono",
			// L=100, R=300 then L=-2, R=2
			in:   []byte{100, 0, 44, 1, 0xfe, 0xff, 2, 0},
			from: stereo,
			to:   mono,
			want: []byte{200, 0, 0, 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Convert(tt.in, tt.from, tt.to)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Convert() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConvert_SampleRate(t *testing.T) {
	from := pcm.L16Mono48K
	to := pcm.L16Mono16K

	// one second of a 440Hz tone
	in := make([]byte, from.BytesRate())
	for i := 0; i < len(in)/2; i++ {
		v := int16(8000 * math.Sin(2*math.Pi*440*float64(i)/48000))
		in[i*2] = byte(v)
		in[i*2+1] = byte(v >> 8)
	}

	out, err := Convert(in, from, to)
	if err != nil {
		t.Fatal(err)
	}
	if len(out)%to.BlockAlign() != 0 {
		t.Errorf("len(out) = %d, not frame aligned", len(out))
	}
	if len(out) == 0 || len(out) > to.BytesRate()+64 {
		t.Errorf("len(out) = %d, want about %d", len(out), to.BytesRate())
	}
}

func TestConvert_Unsupported(t *testing.T) {
	tests := []struct {
		name     string
		from, to pcm.Format
	}{
		{"24-bit source", pcm.NewFormat(24000, 1, 24), pcm.L16Mono24K},
		{"zero target", pcm.L16Mono24K, pcm.Format{}},
		{"surround", pcm.NewFormat(48000, 6, 16), pcm.L16Mono48K},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Convert([]byte{0, 0}, tt.from, tt.to)
			var ufe *UnsupportedFormatError
			if !errors.As(err, &ufe) {
				t.Fatalf("error = %v, want *UnsupportedFormatError", err)
			}
		})
	}
}
