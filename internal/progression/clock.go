package progression

import "time"

// Clock abstracts wall-clock time so day-boundary logic is testable.
// All calendar math is done in the clock's local timezone: a "day" is a
// local calendar day, never a rolling 24h window.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// RealClock returns the process-local wall clock.
func RealClock() Clock { return realClock{} }

// sameLocalDay reports whether a and b fall on the same local calendar day.
func sameLocalDay(a, b time.Time) bool {
	ay, am, ad := a.Local().Date()
	by, bm, bd := b.Local().Date()
	return ay == by && am == bm && ad == bd
}

// daysBetweenLocal returns the number of local calendar-day boundaries
// crossed going from earlier to later (0 = same day, 1 = adjacent days).
// The local dates are re-anchored in UTC before subtracting so that a DST
// transition (a 23h or 25h local day) cannot skew the count.
func daysBetweenLocal(earlier, later time.Time) int {
	ey, em, ed := earlier.Local().Date()
	ly, lm, ld := later.Local().Date()
	e := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)
	l := time.Date(ly, lm, ld, 0, 0, 0, 0, time.UTC)
	return int(l.Sub(e) / (24 * time.Hour))
}
