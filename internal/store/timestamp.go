package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TimestampLayout renders UTC times with microseconds and a literal Z.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// Timestamp is a UTC instant serialized as [TimestampLayout].
//
// The zero Timestamp encodes as JSON null.
type Timestamp struct {
	time.Time
}

// NewTimestamp converts t to UTC and truncates it to microseconds so that
// it survives a round trip through its JSON form unchanged.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC().Truncate(time.Microsecond)}
}

// String returns the timestamp in [TimestampLayout], or "" when zero.
func (t Timestamp) String() string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimestampLayout)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.String())
}

// UnmarshalJSON implements json.Unmarshaler.
//
// Any RFC 3339 time is accepted, with or without fractional seconds.
// null and "" decode to the zero Timestamp.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*t = Timestamp{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("last_updated must be a string: %w", err)
	}
	if strings.TrimSpace(s) == "" {
		*t = Timestamp{}
		return nil
	}

	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("invalid last_updated %q: %w", s, err)
	}
	*t = NewTimestamp(parsed)
	return nil
}
