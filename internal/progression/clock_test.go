package progression

import (
	"testing"
	"time"
)

func TestSameLocalDay(t *testing.T) {
	morning := time.Date(2026, 3, 10, 0, 5, 0, 0, time.Local)
	night := time.Date(2026, 3, 10, 23, 55, 0, 0, time.Local)
	nextDay := time.Date(2026, 3, 11, 0, 5, 0, 0, time.Local)

	if !sameLocalDay(morning, night) {
		t.Error("same calendar day not recognized")
	}
	if sameLocalDay(night, nextDay) {
		t.Error("ten minutes apart across midnight is not the same day")
	}
}

func TestDaysBetweenLocal(t *testing.T) {
	base := time.Date(2026, 3, 10, 23, 50, 0, 0, time.Local)

	tests := []struct {
		later time.Time
		want  int
	}{
		{time.Date(2026, 3, 10, 23, 59, 0, 0, time.Local), 0},
		// A "day" is a calendar boundary, not a 24h window.
		{time.Date(2026, 3, 11, 0, 10, 0, 0, time.Local), 1},
		{time.Date(2026, 3, 12, 12, 0, 0, 0, time.Local), 2},
		{time.Date(2026, 3, 15, 6, 0, 0, 0, time.Local), 5},
	}

	for _, tt := range tests {
		if got := daysBetweenLocal(base, tt.later); got != tt.want {
			t.Errorf("daysBetweenLocal(%v, %v) = %d, want %d", base, tt.later, got, tt.want)
		}
	}
}

func TestDaysBetweenLocalAcrossDSTTransitions(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("zone database unavailable: %v", err)
	}
	restore := time.Local
	time.Local = loc
	defer func() { time.Local = restore }()

	tests := []struct {
		name           string
		earlier, later time.Time
		want           int
	}{
		// 2026-03-08 02:00 EST jumps to 03:00 EDT: a 23-hour local day.
		// Duration arithmetic between midnights would truncate it away.
		{"adjacent days across spring forward",
			time.Date(2026, 3, 8, 20, 0, 0, 0, loc), time.Date(2026, 3, 9, 20, 0, 0, 0, loc), 1},
		{"short day inside a two-day span",
			time.Date(2026, 3, 7, 20, 0, 0, 0, loc), time.Date(2026, 3, 9, 20, 0, 0, 0, loc), 2},
		// 2026-11-01 is the 25-hour fall-back day.
		{"adjacent days across fall back",
			time.Date(2026, 10, 31, 20, 0, 0, 0, loc), time.Date(2026, 11, 1, 20, 0, 0, 0, loc), 1},
		{"long day inside a two-day span",
			time.Date(2026, 10, 31, 20, 0, 0, 0, loc), time.Date(2026, 11, 2, 20, 0, 0, 0, loc), 2},
	}

	for _, tt := range tests {
		if got := daysBetweenLocal(tt.earlier, tt.later); got != tt.want {
			t.Errorf("%s: daysBetweenLocal = %d, want %d", tt.name, got, tt.want)
		}
	}
}
