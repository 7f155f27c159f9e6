package progression

import (
	"errors"
	"testing"
	"time"
)

func TestNewBattleScalesTarget(t *testing.T) {
	boss := Bosses["iron_fist"]
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.Local)

	tests := []struct {
		defeats    int
		wantTarget int
	}{
		{0, 100},
		{1, 125},
		{4, 200},
	}

	for _, tt := range tests {
		b := newBattle(7, boss, tt.defeats, now)
		if b.TargetCount != tt.wantTarget {
			t.Errorf("defeats %d: target = %d, want %d", tt.defeats, b.TargetCount, tt.wantTarget)
		}
		if !b.EndTime.Equal(now.Add(boss.TimeLimit)) {
			t.Errorf("defeats %d: end time = %v, want %v", tt.defeats, b.EndTime, now.Add(boss.TimeLimit))
		}
		if b.PenaltyApplied {
			t.Error("new battle must not have the penalty flag set")
		}
	}
}

func TestApplyBattleProgressActive(t *testing.T) {
	boss := Bosses["iron_fist"]
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.Local)
	b := newBattle(7, boss, 0, now)

	outcome, exp, gold := applyBattleProgress(&b, boss, 0, 40, false, now.Add(10*time.Minute))
	if outcome != battleActive {
		t.Fatalf("outcome = %s, want active", outcome)
	}
	if b.CurrentCount != 40 {
		t.Errorf("count = %d, want 40", b.CurrentCount)
	}
	if exp != 0 || gold != 0 {
		t.Errorf("active battle granted rewards: %d exp, %d gold", exp, gold)
	}
}

func TestApplyBattleProgressVictory(t *testing.T) {
	boss := Bosses["iron_fist"]
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.Local)
	b := newBattle(7, boss, 2, now)

	outcome, exp, gold := applyBattleProgress(&b, boss, 2, 0, true, now.Add(30*time.Minute))
	if outcome != battleVictory {
		t.Fatalf("outcome = %s, want victory", outcome)
	}
	// Two prior defeats: 150+2*50 exp, 75+2*25 gold.
	if exp != 250 || gold != 125 {
		t.Errorf("rewards = (%d, %d), want (250, 125)", exp, gold)
	}
}

func TestApplyBattleProgressTimeoutBeatsCompletion(t *testing.T) {
	boss := Bosses["iron_fist"]
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.Local)
	b := newBattle(7, boss, 0, now)

	// Past the deadline even a complete report is a timeout.
	late := now.Add(boss.TimeLimit + time.Minute)
	outcome, exp, gold := applyBattleProgress(&b, boss, 0, 0, true, late)
	if outcome != battleTimeout {
		t.Fatalf("outcome = %s, want timeout", outcome)
	}
	if exp != 0 || gold != 0 {
		t.Errorf("timeout granted rewards: %d exp, %d gold", exp, gold)
	}
}

func TestApplyBattleProgressExactDeadline(t *testing.T) {
	boss := Bosses["iron_fist"]
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.Local)
	b := newBattle(7, boss, 0, now)

	// The deadline instant itself still counts.
	outcome, _, _ := applyBattleProgress(&b, boss, 0, 0, true, b.EndTime)
	if outcome != battleVictory {
		t.Errorf("outcome at deadline = %s, want victory", outcome)
	}
}

func TestBossByID(t *testing.T) {
	if _, err := bossByID("iron_fist"); err != nil {
		t.Errorf("known boss: unexpected error %v", err)
	}
	if _, err := bossByID("paper_tiger"); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown boss: got err %v, want ErrValidation", err)
	}
}

func TestBattleOutcomeString(t *testing.T) {
	tests := []struct {
		o    battleOutcome
		want string
	}{
		{battleActive, "active"},
		{battleVictory, "victory"},
		{battleTimeout, "timeout"},
	}
	for _, tt := range tests {
		if got := tt.o.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
