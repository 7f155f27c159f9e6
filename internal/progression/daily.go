package progression

import (
	"time"

	"github.com/hunterpath/backend/internal/models"
)

// dailyDecision is the outcome of one streak evaluation. The service
// applies it inside the same transaction that read the inputs.
type dailyDecision struct {
	Skip          bool
	ResetQuests   bool
	AllCompleted  bool
	NewStreak     int
	StreakChanged bool
	ConsumeShield bool
	// StampCompletion records lastDailyCompletion = now alongside the check stamp.
	StampCompletion bool
	// BridgeCompletion backdates lastDailyCompletion to the day before now.
	// Set when a shield absorbs a missed day on a still-incomplete board, so
	// finishing the board later that day re-enters as a normal catch-up.
	BridgeCompletion bool
}

// evaluateDailyCycle implements the day-boundary streak rules.
//
// The check runs at most once per local calendar day: a check stamped
// today short-circuits, unless today is the day after the last full
// completion — that forces a catch-up pass so a board finished later in
// the day can still bank its streak.
//
// Grace policy (unified for gain and loss): the streak survives as long as
// the last all-complete day was yesterday or today. A gap of exactly two
// days can be bridged once by consuming a streak shield; anything longer,
// or a gap without a shield, resets the streak. Consuming the shield on a
// still-incomplete board also backdates the completion stamp to yesterday,
// so finishing the board later that day banks the streak like any other
// catch-up.
func evaluateDailyCycle(p models.PlayerProgress, dailies []models.Quest, hasShield bool, now time.Time) dailyDecision {
	var d dailyDecision

	checkedToday := p.LastDailyCheck != nil && sameLocalDay(*p.LastDailyCheck, now)
	catchUp := p.LastDailyCompletion != nil && daysBetweenLocal(*p.LastDailyCompletion, now) == 1
	if checkedToday && !catchUp {
		d.Skip = true
		d.NewStreak = p.Streak
		return d
	}

	d.AllCompleted = len(dailies) > 0
	for _, q := range dailies {
		if !q.Completed || q.LastCompletion == nil || !sameLocalDay(*q.LastCompletion, now) {
			d.AllCompleted = false
			break
		}
	}

	// First check after midnight recycles the board, unless today's board
	// is already fully complete (completing before the first check of the
	// day must not hand the quests back).
	d.ResetQuests = !checkedToday && !d.AllCompleted

	gap := -1
	if p.LastDailyCompletion != nil {
		gap = daysBetweenLocal(*p.LastDailyCompletion, now)
	}

	d.NewStreak = p.Streak
	switch {
	case d.AllCompleted && gap != 0:
		// New completion day.
		switch {
		case gap == 1:
			d.NewStreak = p.Streak + 1
		case gap == 2 && hasShield && p.Streak > 0:
			d.NewStreak = p.Streak + 1
			d.ConsumeShield = true
		default:
			d.NewStreak = 1
		}
		d.StreakChanged = d.NewStreak != p.Streak
		d.StampCompletion = true

	case !d.AllCompleted && gap > 1 && p.Streak > 0:
		// Grace period exhausted.
		if gap == 2 && hasShield {
			d.ConsumeShield = true
			d.BridgeCompletion = true
		} else {
			d.NewStreak = 0
			d.StreakChanged = true
		}
	}

	return d
}

// waterDecision describes a pending water-tracker day rollover.
type waterDecision struct {
	Reset         bool
	NewStreakDays int
}

// evaluateWaterReset rolls the water tracker over at the first look on a
// new local day. streakDays survives only when the prior day hit the
// 14-glass goal; the increment itself happens in AddWaterGlass when the
// goal is first reached.
func evaluateWaterReset(p models.PlayerProgress, now time.Time) waterDecision {
	if sameLocalDay(p.WaterLastReset, now) {
		return waterDecision{}
	}
	d := waterDecision{Reset: true, NewStreakDays: p.WaterStreakDays}
	if p.WaterCurrent < waterGoalGlasses {
		d.NewStreakDays = 0
	}
	return d
}

// shieldUsableAt reports whether an inventory instance can still bridge a
// streak gap: unused and, if it carries an expiry window, not past it.
func shieldUsableAt(item models.InventoryItem, now time.Time) bool {
	if item.Used {
		return false
	}
	if item.ExpiresAt != nil && item.ExpiresAt.Before(now) {
		return false
	}
	return true
}
