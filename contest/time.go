package contest

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// CanonicalTimezone is the single zone all contest times are normalized to
// for display and comparison.
const CanonicalTimezone = "Asia/Kolkata"

var (
	loc     *time.Location
	locOnce sync.Once
)

// Location returns the canonical timezone, falling back to UTC on systems
// without tzdata.
func Location() *time.Location {
	locOnce.Do(func() {
		var err error
		if loc, err = time.LoadLocation(CanonicalTimezone); err != nil {
			loc = time.UTC
		}
	})
	return loc
}

// MalformedTimestampError marks a single unparseable timestamp. Fetchers
// treat it as a per-contest failure: the record is skipped, the batch
// survives.
type MalformedTimestampError struct {
	Raw string
}

func (e MalformedTimestampError) Error() string {
	return fmt.Sprintf("malformed timestamp %q", e.Raw)
}

// FromUnix normalizes an epoch-seconds value.
func FromUnix(secs int64) time.Time {
	return time.Unix(secs, 0).In(Location())
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05-0700",
}

// ParseTime normalizes a platform supplied timestamp string: ISO-8601 with
// or without an offset, or plain epoch seconds. Values without an offset
// are taken as UTC.
func ParseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, MalformedTimestampError{Raw: raw}
	}
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return FromUnix(secs), nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.In(Location()), nil
		}
	}
	return time.Time{}, MalformedTimestampError{Raw: raw}
}

// FormatTime renders an instant in the canonical timezone.
func FormatTime(t time.Time) string {
	return t.In(Location()).Format("2006-01-02 15:04 MST")
}
