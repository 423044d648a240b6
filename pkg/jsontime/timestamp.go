package jsontime

import (
	"encoding/json"
	"fmt"
	"time"
)

// Layouts accepted for timestamp columns. Postgres renders timestamptz with a
// numeric zone and plain timestamp without one.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z07",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02 15:04:05.999999999",
}

// Timestamp is a time.Time that serializes to/from a PostgREST timestamp
// string. Values without a zone are read as UTC.
type Timestamp time.Time

// ParseTimestamp parses s using the accepted timestamp layouts.
func ParseTimestamp(s string) (Timestamp, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp(t), nil
		}
	}
	return Timestamp{}, fmt.Errorf("jsontime: invalid timestamp %q", s)
}

// Time returns the underlying time.Time value.
func (ts Timestamp) Time() time.Time {
	return time.Time(ts)
}

// IsZero reports whether ts represents the zero time instant.
func (ts Timestamp) IsZero() bool {
	return time.Time(ts).IsZero()
}

// Before reports whether ts is before t.
func (ts Timestamp) Before(t Timestamp) bool {
	return time.Time(ts).Before(time.Time(t))
}

// String formats ts as RFC 3339 with fractional seconds.
func (ts Timestamp) String() string {
	return time.Time(ts).Format(time.RFC3339Nano)
}

// UnmarshalJSON implements json.Unmarshaler.
func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*ts = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*ts = Timestamp{}
		return nil
	}
	v, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*ts = v
	return nil
}

// MarshalJSON implements json.Marshaler. The zero value encodes as null.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.String())
}

// MarshalText implements encoding.TextMarshaler for YAML output.
func (ts Timestamp) MarshalText() ([]byte, error) {
	if ts.IsZero() {
		return nil, nil
	}
	return []byte(ts.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (ts *Timestamp) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*ts = Timestamp{}
		return nil
	}
	v, err := ParseTimestamp(string(b))
	if err != nil {
		return err
	}
	*ts = v
	return nil
}
