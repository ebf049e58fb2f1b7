package util

import (
	"testing"
	"time"
)

func TestParseDay(t *testing.T) {
	got, ok := ParseDay("2024-06-15")
	if !ok {
		t.Fatalf("expected ok")
	}
	if Day(got) != "2024-06-15" {
		t.Fatalf("unexpected day %v", got)
	}
}

func TestParseDayInvalid(t *testing.T) {
	for _, s := range []string{"", "15/06/2024", "2024-6-15", "not-a-date"} {
		if _, ok := ParseDay(s); ok {
			t.Fatalf("expected parse failure for %q", s)
		}
	}
}

func TestPeriodStart(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		period string
		want   string
	}{
		{"1m", "2025-05-15"},
		{"3m", "2025-03-15"},
		{"6m", "2024-12-15"},
		{"1y", "2024-06-15"},
		{"2y", "2023-06-15"},
		{"bogus", "2025-05-15"},
	}
	for _, tc := range cases {
		if got := Day(PeriodStart(tc.period, now)); got != tc.want {
			t.Fatalf("period %s: got %s want %s", tc.period, got, tc.want)
		}
	}
}
