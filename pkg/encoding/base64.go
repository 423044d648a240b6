// Package encoding provides the media payload types exchanged as JSON by the
// console API and CLI request files.
package encoding

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Base64 is a byte slice that marshals to standard base64. It unmarshals
// from plain base64 or from a base64 data URI, whose media type is dropped.
type Base64 []byte

func (b Base64) MarshalText() ([]byte, error) {
	return []byte(base64.StdEncoding.EncodeToString(b)), nil
}

func (b *Base64) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if strings.HasPrefix(s, "data:") {
		_, data, ok := ParseDataURI(s)
		if !ok {
			return errors.New("encoding: invalid data uri")
		}
		*b = data
		return nil
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return fmt.Errorf("encoding: invalid base64: %w", err)
	}
	*b = data
	return nil
}

// MarshalJSON and UnmarshalJSON keep null distinct from "".
func (b Base64) MarshalJSON() ([]byte, error) {
	if b == nil {
		return []byte("null"), nil
	}
	return []byte(`"` + base64.StdEncoding.EncodeToString(b) + `"`), nil
}

func (b *Base64) UnmarshalJSON(data []byte) error {
	switch {
	case string(data) == "null":
		return nil
	case len(data) >= 2 && data[0] == '"' && data[len(data)-1] == '"':
		return b.UnmarshalText(data[1 : len(data)-1])
	default:
		return fmt.Errorf("encoding: base64 must be a string, got %s", data)
	}
}

func (b Base64) String() string {
	return base64.StdEncoding.EncodeToString(b)
}

// Media is a typed payload.
type Media struct {
	MIMEType string `json:"mimeType" yaml:"mime_type"`
	Data     Base64 `json:"data" yaml:"data"`
}

// DataURI returns m as a data URI.
func (m Media) DataURI() string {
	return DataURI(m.MIMEType, m.Data)
}

// MediaFromDataURI parses a data URI into a Media.
func MediaFromDataURI(uri string) (Media, bool) {
	mt, data, ok := ParseDataURI(uri)
	if !ok {
		return Media{}, false
	}
	return Media{MIMEType: mt, Data: data}, true
}

// DataURI encodes data as a base64 data URI.
func DataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseDataURI splits a data URI into its media type and payload. Both
// base64 and percent-encoded payloads are accepted.
func ParseDataURI(uri string) (mimeType string, data []byte, ok bool) {
	rest, found := strings.CutPrefix(uri, "data:")
	if !found {
		return "", nil, false
	}
	meta, payload, found := strings.Cut(rest, ",")
	if !found {
		return "", nil, false
	}
	mimeType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		s, err := url.PathUnescape(payload)
		if err != nil {
			return "", nil, false
		}
		return mimeType, []byte(s), true
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, false
	}
	return mimeType, data, true
}
