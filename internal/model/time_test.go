package model

import (
	"testing"
	"time"
)

func TestFormatTimestampIsFixedWidthUTC(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	whole := FormatTimestamp(time.Date(2026, 3, 1, 15, 0, 0, 0, loc))
	fraction := FormatTimestamp(time.Date(2026, 3, 1, 15, 0, 0, 100_000_000, loc))

	if whole != "2026-03-01T13:00:00.000000000Z" {
		t.Fatalf("unexpected timestamp: %s", whole)
	}
	if len(whole) != len(fraction) {
		t.Fatalf("expected fixed width, got %q and %q", whole, fraction)
	}
	if !(whole < fraction) {
		t.Fatalf("expected lexical order to follow time order: %q, %q", whole, fraction)
	}
}

func TestCompareTimestamps(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{a: "2026-03-01T13:00:00.15Z", b: "2026-03-01T13:00:00.1Z", want: 1},
		{a: "2026-03-01T13:00:00.1Z", b: "2026-03-01T13:00:00.100000000Z", want: 0},
		{a: "2026-03-01T13:00:00Z", b: "2026-03-01T13:00:00.5Z", want: -1},
		{a: "b", b: "a", want: 1},
		{a: "", b: "", want: 0},
	}
	for _, tc := range cases {
		if got := CompareTimestamps(tc.a, tc.b); got != tc.want {
			t.Fatalf("CompareTimestamps(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestRunRecordReached(t *testing.T) {
	if !(RunRecord{Outcome: "reached"}).Reached() {
		t.Fatal("expected reached record")
	}
	if (RunRecord{Outcome: "dead_end"}).Reached() {
		t.Fatal("dead end must not count as reached")
	}
}
