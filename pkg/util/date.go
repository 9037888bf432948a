package util

import (
	"strconv"
	"time"
)

// ParseTime tries RFC3339, RFC3339Nano, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// FromUnixMillis converts a millisecond timestamp as found in market-chart payloads.
func FromUnixMillis(ms float64) time.Time {
	return time.UnixMilli(int64(ms)).UTC()
}

// ReportStamp formats t for report file names, e.g. 20250105_143000.
func ReportStamp(t time.Time) string {
	return t.UTC().Format("20060102_150405")
}
