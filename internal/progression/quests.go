package progression

import (
	"fmt"
	"time"

	"github.com/hunterpath/backend/internal/models"
)

// questOutcome describes what a single progress report did to a quest.
type questOutcome struct {
	Completed bool
	Exp       int
	Gold      int
	Boosted   bool
	// Delete is set for normal quests, which are destroyed on completion.
	Delete bool
}

// applyQuestProgress mutates the quest in memory and returns the outcome.
// boostMultiplier is 1 when no reward boost is active. Callers persist the
// quest and apply rewards inside the same transaction.
//
// Idempotency: a quest already completed is a precondition conflict, not a
// second grant. For daily quests the conflict message distinguishes
// "already completed today" (lastCompletion inside the current local
// calendar day); a completed daily from a previous day means the daily
// reset has not run yet and is also refused rather than re-granted.
func applyQuestProgress(q *models.Quest, amount int, complete bool, boostMultiplier int, now time.Time) (questOutcome, error) {
	if q.Completed {
		if q.Kind == models.QuestDaily && q.LastCompletion != nil && sameLocalDay(*q.LastCompletion, now) {
			return questOutcome{}, fmt.Errorf("quest %q already completed today: %w", q.Title, ErrConflict)
		}
		return questOutcome{}, fmt.Errorf("quest %q already completed: %w", q.Title, ErrConflict)
	}

	next := q.CurrentCount + amount
	if complete {
		next = q.TargetCount
	}
	if next < 0 {
		next = 0
	}
	if next > q.TargetCount {
		next = q.TargetCount
	}
	q.CurrentCount = next

	if next < q.TargetCount {
		return questOutcome{}, nil
	}

	q.Completed = true
	completedAt := now
	q.LastCompletion = &completedAt

	out := questOutcome{Completed: true}
	switch q.Kind {
	case models.QuestDaily:
		out.Exp = dailyQuestExp
		out.Gold = dailyQuestGold
	default:
		mult := difficultyMultiplier(q.Difficulty)
		out.Exp = normalQuestExp * mult
		out.Gold = normalQuestGold * mult
		if boostMultiplier > 1 {
			out.Exp *= boostMultiplier
			out.Gold *= boostMultiplier
			out.Boosted = true
		}
		out.Delete = true
	}
	return out, nil
}

// validateNewQuest checks a creation request against the data-model
// invariants before anything is written.
func validateNewQuest(req models.CreateQuestRequest) error {
	if !req.Kind.IsValid() {
		return fmt.Errorf("unknown quest kind %q: %w", req.Kind, ErrValidation)
	}
	if req.Title == "" {
		return fmt.Errorf("title is required: %w", ErrValidation)
	}
	if req.TargetCount <= 0 {
		return fmt.Errorf("target_count must be positive: %w", ErrValidation)
	}
	if req.Difficulty < 0 || req.Difficulty > 3 {
		return fmt.Errorf("difficulty must be 0-3: %w", ErrValidation)
	}
	return nil
}
