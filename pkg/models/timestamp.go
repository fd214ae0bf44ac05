package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// The backend writes naive UTC timestamps ("2024-01-01T10:20:30.123456").
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	DateLayout,
}

// Timestamp is a record timestamp. Values without a zone are read as UTC.
// Unparseable values decode to the zero Timestamp.
type Timestamp struct {
	time.Time
}

// ParseTimestamp parses s with the layouts the backend is known to emit.
func ParseTimestamp(s string) (Timestamp, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return Timestamp{t}, true
		}
	}
	return Timestamp{}, false
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.UTC().Format(time.RFC3339Nano))
}

func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	*ts = Timestamp{}
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return nil
	}
	*ts, _ = ParseTimestamp(s)
	return nil
}
