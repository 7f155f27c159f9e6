package progression

import (
	"testing"
	"time"

	"github.com/hunterpath/backend/internal/models"
)

// localDay returns hour o'clock local time, offset days days from a fixed base.
func localDay(days, hour int) time.Time {
	return time.Date(2026, 3, 10+days, hour, 0, 0, 0, time.Local)
}

func completedDailies(at time.Time) []models.Quest {
	return []models.Quest{
		{Kind: models.QuestDaily, Title: "Train", TargetCount: 30, CurrentCount: 30, Completed: true, LastCompletion: &at},
		{Kind: models.QuestDaily, Title: "Hydrate", TargetCount: 8, CurrentCount: 8, Completed: true, LastCompletion: &at},
	}
}

func incompleteDailies() []models.Quest {
	return []models.Quest{
		{Kind: models.QuestDaily, Title: "Train", TargetCount: 30, CurrentCount: 12},
		{Kind: models.QuestDaily, Title: "Hydrate", TargetCount: 8, CurrentCount: 8, Completed: true},
	}
}

func TestDailyCycleStreakExtends(t *testing.T) {
	yesterday := localDay(-1, 20)
	now := localDay(0, 21)
	p := models.PlayerProgress{Streak: 5, LastDailyCompletion: &yesterday}

	d := evaluateDailyCycle(p, completedDailies(now), false, now)
	if d.Skip {
		t.Fatal("evaluation should not skip")
	}
	if d.NewStreak != 6 || !d.StreakChanged {
		t.Errorf("streak = %d (changed %v), want 6 (changed)", d.NewStreak, d.StreakChanged)
	}
	if !d.StampCompletion {
		t.Error("completion day should be stamped")
	}
	if d.ResetQuests {
		t.Error("a fully completed board must not be reset")
	}
}

func TestDailyCycleSecondCheckSameDaySkips(t *testing.T) {
	// After the first successful evaluation, state carries today's stamps.
	// A second invocation the same day must change nothing.
	now := localDay(0, 21)
	later := localDay(0, 23)
	p := models.PlayerProgress{
		Streak:              6,
		LastDailyCheck:      &now,
		LastDailyCompletion: &now,
	}

	d := evaluateDailyCycle(p, completedDailies(now), false, later)
	if !d.Skip {
		t.Fatal("second evaluation the same day should skip")
	}
	if d.NewStreak != 6 {
		t.Errorf("streak = %d, want unchanged 6", d.NewStreak)
	}
}

func TestDailyCycleCatchUpAfterMorningCheck(t *testing.T) {
	// Checked this morning with an incomplete board, board finished by
	// evening: the day-after-completion catch-up lets the streak bank.
	yesterday := localDay(-1, 20)
	morning := localDay(0, 8)
	evening := localDay(0, 21)
	p := models.PlayerProgress{
		Streak:              3,
		LastDailyCheck:      &morning,
		LastDailyCompletion: &yesterday,
	}

	d := evaluateDailyCycle(p, completedDailies(evening), false, evening)
	if d.Skip {
		t.Fatal("catch-up evaluation should not skip")
	}
	if d.NewStreak != 4 {
		t.Errorf("streak = %d, want 4", d.NewStreak)
	}
}

func TestDailyCycleFirstCompletionStartsStreak(t *testing.T) {
	now := localDay(0, 21)
	p := models.PlayerProgress{}

	d := evaluateDailyCycle(p, completedDailies(now), false, now)
	if d.NewStreak != 1 || !d.StreakChanged {
		t.Errorf("streak = %d (changed %v), want 1 (changed)", d.NewStreak, d.StreakChanged)
	}
}

func TestDailyCycleGapResetsStreak(t *testing.T) {
	threeDaysAgo := localDay(-3, 20)
	now := localDay(0, 21)
	p := models.PlayerProgress{Streak: 9, LastDailyCompletion: &threeDaysAgo}

	d := evaluateDailyCycle(p, completedDailies(now), false, now)
	if d.NewStreak != 1 {
		t.Errorf("streak after 3-day gap = %d, want 1", d.NewStreak)
	}
}

func TestDailyCycleShieldBridgesTwoDayGap(t *testing.T) {
	twoDaysAgo := localDay(-2, 20)
	now := localDay(0, 21)
	p := models.PlayerProgress{Streak: 9, LastDailyCompletion: &twoDaysAgo}

	d := evaluateDailyCycle(p, completedDailies(now), true, now)
	if d.NewStreak != 10 {
		t.Errorf("shielded streak = %d, want 10", d.NewStreak)
	}
	if !d.ConsumeShield {
		t.Error("shield should be consumed")
	}
}

func TestDailyCycleShieldDoesNotBridgeLongerGap(t *testing.T) {
	fourDaysAgo := localDay(-4, 20)
	now := localDay(0, 21)
	p := models.PlayerProgress{Streak: 9, LastDailyCompletion: &fourDaysAgo}

	d := evaluateDailyCycle(p, completedDailies(now), true, now)
	if d.NewStreak != 1 {
		t.Errorf("streak after 4-day gap = %d, want 1", d.NewStreak)
	}
	if d.ConsumeShield {
		t.Error("shield must not be consumed for an unbridgeable gap")
	}
}

func TestDailyCycleIncompleteBoardResetsAndLosesStreak(t *testing.T) {
	twoDaysAgo := localDay(-2, 20)
	now := localDay(0, 9)
	p := models.PlayerProgress{Streak: 9, LastDailyCompletion: &twoDaysAgo}

	d := evaluateDailyCycle(p, incompleteDailies(), false, now)
	if !d.ResetQuests {
		t.Error("incomplete board should be reset on a new day")
	}
	if d.NewStreak != 0 || !d.StreakChanged {
		t.Errorf("streak = %d (changed %v), want 0 (changed)", d.NewStreak, d.StreakChanged)
	}
}

func TestDailyCycleIncompleteBoardShieldPreservesStreak(t *testing.T) {
	twoDaysAgo := localDay(-2, 20)
	now := localDay(0, 9)
	p := models.PlayerProgress{Streak: 9, LastDailyCompletion: &twoDaysAgo}

	d := evaluateDailyCycle(p, incompleteDailies(), true, now)
	if d.NewStreak != 9 || d.StreakChanged {
		t.Errorf("streak = %d (changed %v), want 9 (unchanged)", d.NewStreak, d.StreakChanged)
	}
	if !d.ConsumeShield {
		t.Error("shield should be consumed to hold the streak")
	}
	if !d.BridgeCompletion {
		t.Error("shield consumption should backdate the completion stamp")
	}
}

func TestDailyCycleShieldDayCompletionBanksStreak(t *testing.T) {
	// The shield absorbed the missed day at the morning check; finishing
	// the board that evening must extend the streak, not evaluate as a
	// same-day skip and lose it the next morning.
	twoDaysAgo := localDay(-2, 20)
	morning := localDay(0, 9)
	evening := localDay(0, 21)
	p := models.PlayerProgress{Streak: 9, LastDailyCompletion: &twoDaysAgo}

	d := evaluateDailyCycle(p, incompleteDailies(), true, morning)
	if !d.ConsumeShield || !d.BridgeCompletion {
		t.Fatalf("consume = %v bridge = %v, want both", d.ConsumeShield, d.BridgeCompletion)
	}

	// Apply the morning decision the way the transaction does.
	bridged := morning.AddDate(0, 0, -1)
	p.LastDailyCheck = &morning
	p.LastDailyCompletion = &bridged

	d = evaluateDailyCycle(p, completedDailies(evening), false, evening)
	if d.Skip {
		t.Fatal("completion on the shield day should re-enter as a catch-up")
	}
	if d.NewStreak != 10 || !d.StreakChanged {
		t.Errorf("streak = %d (changed %v), want 10 (changed)", d.NewStreak, d.StreakChanged)
	}
	if !d.StampCompletion {
		t.Error("completion day should be stamped")
	}
}

func TestDailyCycleStreakExtendsAcrossSpringForward(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("zone database unavailable: %v", err)
	}
	restore := time.Local
	time.Local = loc
	defer func() { time.Local = restore }()

	// 2026-03-08 is the 23-hour spring-forward day in this zone. A board
	// completed the evening after it is still exactly one day later.
	yesterday := time.Date(2026, 3, 8, 20, 0, 0, 0, loc)
	now := time.Date(2026, 3, 9, 20, 0, 0, 0, loc)
	p := models.PlayerProgress{Streak: 5, LastDailyCompletion: &yesterday}

	d := evaluateDailyCycle(p, completedDailies(now), false, now)
	if d.Skip {
		t.Fatal("evaluation should not skip")
	}
	if d.NewStreak != 6 || !d.StreakChanged {
		t.Errorf("streak = %d (changed %v), want 6 (changed)", d.NewStreak, d.StreakChanged)
	}
	if !d.StampCompletion {
		t.Error("completion day should be stamped")
	}
}

func TestDailyCycleYesterdayIncompleteKeepsGrace(t *testing.T) {
	// One-day grace: an incomplete board the day after the last completion
	// does not yet break the streak.
	yesterday := localDay(-1, 20)
	now := localDay(0, 9)
	p := models.PlayerProgress{Streak: 9, LastDailyCompletion: &yesterday}

	d := evaluateDailyCycle(p, incompleteDailies(), false, now)
	if d.NewStreak != 9 || d.StreakChanged {
		t.Errorf("streak = %d (changed %v), want 9 (unchanged)", d.NewStreak, d.StreakChanged)
	}
}

func TestDailyCycleEmptyBoardNeverCompletes(t *testing.T) {
	now := localDay(0, 21)
	d := evaluateDailyCycle(models.PlayerProgress{}, nil, false, now)
	if d.AllCompleted {
		t.Error("an empty board must not count as completed")
	}
}

func TestEvaluateWaterReset(t *testing.T) {
	now := localDay(0, 9)

	// Same day: nothing to do.
	p := models.PlayerProgress{WaterCurrent: 5, WaterLastReset: localDay(0, 1), WaterStreakDays: 3}
	if d := evaluateWaterReset(p, now); d.Reset {
		t.Error("same-day tracker should not reset")
	}

	// New day, goal missed yesterday: counter and day streak reset.
	p = models.PlayerProgress{WaterCurrent: 5, WaterLastReset: localDay(-1, 9), WaterStreakDays: 3}
	d := evaluateWaterReset(p, now)
	if !d.Reset || d.NewStreakDays != 0 {
		t.Errorf("reset = %v streak = %d, want reset with streak 0", d.Reset, d.NewStreakDays)
	}

	// New day, goal hit yesterday: day streak survives the rollover.
	p = models.PlayerProgress{WaterCurrent: 14, WaterLastReset: localDay(-1, 9), WaterStreakDays: 3}
	d = evaluateWaterReset(p, now)
	if !d.Reset || d.NewStreakDays != 3 {
		t.Errorf("reset = %v streak = %d, want reset with streak 3", d.Reset, d.NewStreakDays)
	}
}

func TestShieldUsableAt(t *testing.T) {
	now := localDay(0, 9)
	expired := localDay(-1, 9)
	future := localDay(1, 9)

	if shieldUsableAt(models.InventoryItem{Used: true}, now) {
		t.Error("used shield should not be usable")
	}
	if shieldUsableAt(models.InventoryItem{ExpiresAt: &expired}, now) {
		t.Error("expired shield should not be usable")
	}
	if !shieldUsableAt(models.InventoryItem{}, now) {
		t.Error("fresh shield should be usable")
	}
	if !shieldUsableAt(models.InventoryItem{ExpiresAt: &future}, now) {
		t.Error("unexpired shield should be usable")
	}
}
