package progression

import "testing"

func TestExpNeededLinearRegion(t *testing.T) {
	tests := []struct {
		level int
		want  int
	}{
		{1, 100},
		{2, 150},
		{5, 300},
		{9, 500},
		{10, 550},
	}

	for _, tt := range tests {
		got := ExpNeeded(tt.level)
		if got != tt.want {
			t.Errorf("ExpNeeded(%d) = %d, want %d", tt.level, got, tt.want)
		}
	}
}

func TestExpNeededStrictlyIncreasing(t *testing.T) {
	prev := ExpNeeded(1)
	for level := 2; level <= 80; level++ {
		got := ExpNeeded(level)
		if got <= prev {
			t.Fatalf("ExpNeeded(%d) = %d, not greater than ExpNeeded(%d) = %d",
				level, got, level-1, prev)
		}
		prev = got
	}
}

func TestExpNeededKnee(t *testing.T) {
	// Past the knee the per-level step outgrows the linear 50.
	step := ExpNeeded(12) - ExpNeeded(11)
	if step <= 50 {
		t.Errorf("post-knee step = %d, want > 50", step)
	}
}

func TestExpNeededClampsBelowOne(t *testing.T) {
	if ExpNeeded(0) != ExpNeeded(1) {
		t.Errorf("ExpNeeded(0) = %d, want %d", ExpNeeded(0), ExpNeeded(1))
	}
	if ExpNeeded(-3) != ExpNeeded(1) {
		t.Errorf("ExpNeeded(-3) = %d, want %d", ExpNeeded(-3), ExpNeeded(1))
	}
}
