// Package models contains the entities returned by the QualityLink aggregator API.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FlexibleID is an external identifier that the aggregator serialises either
// as a JSON number or as a JSON string (ETER ids are both, depending on the endpoint).
type FlexibleID string

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("invalid identifier: %w", err)
		}
		*f = FlexibleID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid identifier: %w", err)
	}
	*f = FlexibleID(n.String())
	return nil
}

// MarshalJSON implements json.Marshaler. Numeric identifiers are written back as numbers.
func (f FlexibleID) MarshalJSON() ([]byte, error) {
	if f == "" {
		return []byte("null"), nil
	}
	if _, err := strconv.ParseInt(string(f), 10, 64); err == nil {
		return []byte(f), nil
	}
	return json.Marshal(string(f))
}

// String returns the identifier as text
func (f FlexibleID) String() string {
	return string(f)
}

// timestampLayouts are the formats the aggregator emits. Python's isoformat()
// omits the zone for naive datetimes, which are UTC on the server.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Timestamp is a point in time as serialised by the aggregator.
// The zero value means the field was null or absent.
type Timestamp struct {
	time.Time
}

// ParseTimestamp parses any of the aggregator's timestamp formats
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// UnmarshalJSON implements json.Unmarshaler
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalJSON implements json.Marshaler
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339Nano))
}

// DisplayDate formats the timestamp the way the dashboard shows dates (e.g. "20 Sep 2025")
func (t Timestamp) DisplayDate() string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2 Jan 2006")
}

// DisplayDateTime formats the timestamp with minutes (e.g. "20 Sep 2025, 14:05")
func (t Timestamp) DisplayDateTime() string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2 Jan 2006, 15:04")
}
