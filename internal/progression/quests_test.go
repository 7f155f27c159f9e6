package progression

import (
	"errors"
	"testing"
	"time"

	"github.com/hunterpath/backend/internal/models"
)

func TestApplyQuestProgressPartial(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.Local)
	q := &models.Quest{Kind: models.QuestNormal, Title: "Run", TargetCount: 10, Difficulty: 1}

	out, err := applyQuestProgress(q, 4, false, 1, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Completed || q.Completed {
		t.Error("partial progress should not complete the quest")
	}
	if q.CurrentCount != 4 {
		t.Errorf("current count = %d, want 4", q.CurrentCount)
	}
	if out.Exp != 0 || out.Gold != 0 {
		t.Errorf("partial progress granted rewards: %d exp, %d gold", out.Exp, out.Gold)
	}
}

func TestApplyQuestProgressClamps(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.Local)
	q := &models.Quest{Kind: models.QuestNormal, Title: "Run", TargetCount: 10, CurrentCount: 3}

	if _, err := applyQuestProgress(q, -100, false, 1, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.CurrentCount != 0 {
		t.Errorf("negative progress clamped to %d, want 0", q.CurrentCount)
	}
}

func TestApplyQuestProgressNormalCompletion(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.Local)
	q := &models.Quest{Kind: models.QuestNormal, Title: "Run", TargetCount: 10, CurrentCount: 8, Difficulty: 2}

	out, err := applyQuestProgress(q, 5, false, 1, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Completed {
		t.Fatal("quest should be completed")
	}
	if q.CurrentCount != 10 {
		t.Errorf("overshoot not clamped: count = %d, want 10", q.CurrentCount)
	}
	// Difficulty 2 doubles the 25/15 base.
	if out.Exp != 50 || out.Gold != 30 {
		t.Errorf("rewards = (%d, %d), want (50, 30)", out.Exp, out.Gold)
	}
	if !out.Delete {
		t.Error("completed normal quest should be deleted")
	}
	if out.Boosted {
		t.Error("no boost active, outcome should not be boosted")
	}
}

func TestApplyQuestProgressBoost(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.Local)
	q := &models.Quest{Kind: models.QuestNormal, Title: "Run", TargetCount: 5, Difficulty: 1}

	out, err := applyQuestProgress(q, 0, true, 2, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Exp != 50 || out.Gold != 30 {
		t.Errorf("boosted rewards = (%d, %d), want (50, 30)", out.Exp, out.Gold)
	}
	if !out.Boosted {
		t.Error("outcome should be marked boosted")
	}
}

func TestApplyQuestProgressDailyCompletion(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.Local)
	q := &models.Quest{Kind: models.QuestDaily, Title: "Hydrate", TargetCount: 8, CurrentCount: 7}

	out, err := applyQuestProgress(q, 1, false, 2, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Daily quests pay flat and ignore boosts.
	if out.Exp != 50 || out.Gold != 25 {
		t.Errorf("daily rewards = (%d, %d), want (50, 25)", out.Exp, out.Gold)
	}
	if out.Delete {
		t.Error("daily quests survive completion for the next reset")
	}
	if q.LastCompletion == nil || !q.LastCompletion.Equal(now) {
		t.Error("completion timestamp not stamped")
	}
}

func TestApplyQuestProgressDailyIdempotent(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.Local)
	q := &models.Quest{Kind: models.QuestDaily, Title: "Hydrate", TargetCount: 8, CurrentCount: 7}

	if _, err := applyQuestProgress(q, 1, false, 1, now); err != nil {
		t.Fatalf("first completion failed: %v", err)
	}

	// Second completion attempt the same day grants nothing.
	later := now.Add(2 * time.Hour)
	out, err := applyQuestProgress(q, 1, false, 1, later)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("second completion: got err %v, want ErrConflict", err)
	}
	if out.Exp != 0 || out.Gold != 0 {
		t.Errorf("second completion granted rewards: %d exp, %d gold", out.Exp, out.Gold)
	}
}

func TestApplyQuestProgressCompletedNormalConflicts(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.Local)
	done := now.Add(-time.Hour)
	q := &models.Quest{
		Kind: models.QuestNormal, Title: "Run", TargetCount: 5, CurrentCount: 5,
		Completed: true, LastCompletion: &done,
	}

	if _, err := applyQuestProgress(q, 1, false, 1, now); !errors.Is(err, ErrConflict) {
		t.Errorf("got err %v, want ErrConflict", err)
	}
}

func TestValidateNewQuest(t *testing.T) {
	tests := []struct {
		name    string
		req     models.CreateQuestRequest
		wantErr bool
	}{
		{"valid", models.CreateQuestRequest{Kind: models.QuestNormal, Title: "Run", TargetCount: 5, Difficulty: 1}, false},
		{"valid daily", models.CreateQuestRequest{Kind: models.QuestDaily, Title: "Hydrate", TargetCount: 8}, false},
		{"bad kind", models.CreateQuestRequest{Kind: "weekly", Title: "Run", TargetCount: 5}, true},
		{"empty title", models.CreateQuestRequest{Kind: models.QuestNormal, TargetCount: 5}, true},
		{"zero target", models.CreateQuestRequest{Kind: models.QuestNormal, Title: "Run"}, true},
		{"difficulty too high", models.CreateQuestRequest{Kind: models.QuestNormal, Title: "Run", TargetCount: 5, Difficulty: 4}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateNewQuest(tt.req)
			if tt.wantErr && !errors.Is(err, ErrValidation) {
				t.Errorf("got err %v, want ErrValidation", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
