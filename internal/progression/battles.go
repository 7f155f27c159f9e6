package progression

import (
	"fmt"
	"time"

	"github.com/hunterpath/backend/internal/models"
)

// battleOutcome classifies the result of a progress report or sweep.
type battleOutcome int

const (
	battleActive battleOutcome = iota
	battleVictory
	battleTimeout
)

func (o battleOutcome) String() string {
	switch o {
	case battleVictory:
		return "victory"
	case battleTimeout:
		return "timeout"
	default:
		return "active"
	}
}

// newBattle builds the ActiveBattle document for a challenge start,
// scaling the target by the player's prior defeat count for this boss.
func newBattle(userID int64, boss BossDef, defeats int, now time.Time) models.ActiveBattle {
	return models.ActiveBattle{
		UserID:       userID,
		BossID:       boss.ID,
		CurrentCount: 0,
		TargetCount:  boss.Target(defeats),
		StartTime:    now,
		EndTime:      now.Add(boss.TimeLimit),
	}
}

// applyBattleProgress mutates the battle in memory. A report arriving past
// endTime routes to timeout no matter how much progress it carries —
// victory cannot be claimed retroactively. On victory the returned rewards
// are scaled by the prior defeat count.
func applyBattleProgress(b *models.ActiveBattle, boss BossDef, defeats, amount int, complete bool, now time.Time) (battleOutcome, int, int) {
	if now.After(b.EndTime) {
		return battleTimeout, 0, 0
	}

	next := b.CurrentCount + amount
	if complete {
		next = b.TargetCount
	}
	if next < 0 {
		next = 0
	}
	if next > b.TargetCount {
		next = b.TargetCount
	}
	b.CurrentCount = next

	if next < b.TargetCount {
		return battleActive, 0, 0
	}
	exp, gold := boss.Rewards(defeats)
	return battleVictory, exp, gold
}

// bossByID resolves the static catalog entry or reports a validation error.
func bossByID(id string) (BossDef, error) {
	boss, ok := Bosses[id]
	if !ok {
		return BossDef{}, fmt.Errorf("unknown boss %q: %w", id, ErrValidation)
	}
	return boss, nil
}
