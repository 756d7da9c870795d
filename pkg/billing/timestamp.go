package billing

import (
	"errors"
	"time"
)

// ErrInvalidTimestamp is returned when a timestamp matches none of the known layouts.
var ErrInvalidTimestamp = errors.New("billing: invalid timestamp")

// Timestamp is an ISO-8601 timestamp kept verbatim as received.
// The billing API emits both RFC 3339 and naive (zone-less) forms, so the raw
// text is preserved for round-tripping and parsed on demand.
type Timestamp string

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	time.DateOnly,
}

// Time parses the timestamp. Zone-less values are interpreted as UTC.
func (t Timestamp) Time() (time.Time, error) {
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, string(t)); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, errors.Join(ErrInvalidTimestamp, errors.New(string(t)))
}

// IsZero reports whether no timestamp was sent.
func (t Timestamp) IsZero() bool {
	return t == ""
}

// NewTimestamp formats tm as an RFC 3339 timestamp in UTC.
func NewTimestamp(tm time.Time) Timestamp {
	return Timestamp(tm.UTC().Format(time.RFC3339Nano))
}
