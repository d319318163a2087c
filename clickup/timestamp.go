package clickup

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Timestamp is a wire timestamp in Unix epoch milliseconds.
//
// It decodes from a JSON string or number. 0, "0", "" and null decode to
// the zero Timestamp, meaning absent. It encodes as a string of
// milliseconds, or null when absent.
type Timestamp struct {
	time.Time
}

// NewTimestamp truncates t to millisecond precision.
func NewTimestamp(t time.Time) Timestamp {
	if t.IsZero() {
		return Timestamp{}
	}
	return Timestamp{Time: time.UnixMilli(t.UnixMilli()).UTC()}
}

// TimestampFromMillis returns the Timestamp for ms; 0 is absent.
func TimestampFromMillis(ms int64) Timestamp {
	if ms == 0 {
		return Timestamp{}
	}
	return Timestamp{Time: time.UnixMilli(ms).UTC()}
}

// Millis returns the epoch milliseconds, or 0 when absent.
func (t Timestamp) Millis() int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// Ptr returns a pointer to t, or nil when t is absent.
func (t Timestamp) Ptr() *Timestamp {
	if t.IsZero() {
		return nil
	}
	return &t
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + strconv.FormatInt(t.UnixMilli(), 10) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	raw := string(data)

	if raw == "null" {
		*t = Timestamp{}
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("clickup: timestamp %s: %w", data, err)
		}
		raw = strings.TrimSpace(raw)
	}

	ms, err := parseMillis(raw)
	if err != nil {
		return fmt.Errorf("clickup: timestamp %s: %w", data, err)
	}
	*t = TimestampFromMillis(ms)
	return nil
}

func parseMillis(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ms, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}
