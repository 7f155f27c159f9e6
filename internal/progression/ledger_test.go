package progression

import "testing"

func TestApplyExpDelta(t *testing.T) {
	tests := []struct {
		name        string
		level, exp  int
		delta       int
		wantLevel   int
		wantExp     int
		wantChanged int
	}{
		// +250 from (1,0): 100 to reach 2, 150 to reach 3, 0 left over.
		{"double level up", 1, 0, 250, 3, 0, 2},
		// -100 from (2,10): borrow ExpNeeded(1)=100 going down.
		{"level down", 2, 10, -100, 1, 10, -1},
		{"no delta", 5, 100, 0, 5, 100, 0},
		{"partial gain", 1, 0, 99, 1, 99, 0},
		{"exact level up", 1, 0, 100, 2, 0, 1},
		// -250 from (3,0): through level 2 (150) and level 1 (100).
		{"double level down", 3, 0, -250, 1, 0, -2},
		// Floor: penalties never push below (1, 0).
		{"clamp at floor", 1, 50, -200, 1, 0, 0},
		{"clamp deep penalty", 2, 0, -100000, 1, 0, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, exp, changed := ApplyExpDelta(tt.level, tt.exp, tt.delta)
			if level != tt.wantLevel || exp != tt.wantExp || changed != tt.wantChanged {
				t.Errorf("ApplyExpDelta(%d, %d, %d) = (%d, %d, %d), want (%d, %d, %d)",
					tt.level, tt.exp, tt.delta,
					level, exp, changed,
					tt.wantLevel, tt.wantExp, tt.wantChanged)
			}
		})
	}
}

func TestApplyExpDeltaRoundTrip(t *testing.T) {
	// Gaining then losing the same amount lands back where it started,
	// as long as the floor never clips the loss.
	level, exp, _ := ApplyExpDelta(4, 120, 730)
	level, exp, _ = ApplyExpDelta(level, exp, -730)
	if level != 4 || exp != 120 {
		t.Errorf("round trip landed at (%d, %d), want (4, 120)", level, exp)
	}
}

func TestApplyExpDeltaNormalizesResult(t *testing.T) {
	for _, delta := range []int{0, 1, 99, 100, 5000, 100000, -1, -99, -5000} {
		level, exp, _ := ApplyExpDelta(6, 40, delta)
		if level < 1 {
			t.Errorf("delta %d: level %d < 1", delta, level)
		}
		if exp < 0 || exp >= ExpNeeded(level) {
			t.Errorf("delta %d: exp %d outside [0, %d)", delta, exp, ExpNeeded(level))
		}
	}
}
