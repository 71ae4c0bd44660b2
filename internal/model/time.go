package model

import "time"

// TimestampLayout is RFC 3339 in UTC with a fixed nine-digit fraction, so
// formatted timestamps sort lexically in time order.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// CompareTimestamps orders two stored timestamps, returning -1, 0 or +1.
// Values that do not parse as RFC 3339 fall back to string order.
func CompareTimestamps(a, b string) int {
	ta, errA := time.Parse(time.RFC3339Nano, a)
	tb, errB := time.Parse(time.RFC3339Nano, b)
	if errA == nil && errB == nil {
		return ta.Compare(tb)
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
