package progression

import (
	"fmt"

	"github.com/hunterpath/backend/internal/models"
)

// AchievementKind is a closed set of progress sources. Each kind knows how
// to extract its progress value from the stats snapshot, so evaluation
// cannot fall out of sync with a stringly-typed dispatch table.
type AchievementKind int

const (
	KindLevel AchievementKind = iota
	KindQuestsCompleted
	KindStreak
	KindGold
	KindBattlesWon
	KindRankOrdinal
)

// StatsSnapshot is the read-only view of player state that achievement
// progress is computed from.
type StatsSnapshot struct {
	Level           int
	QuestsCompleted int
	Streak          int
	Gold            int
	BattlesWon      int
	RankOrdinal     int
}

func (k AchievementKind) progress(s StatsSnapshot) float64 {
	switch k {
	case KindLevel:
		return float64(s.Level)
	case KindQuestsCompleted:
		return float64(s.QuestsCompleted)
	case KindStreak:
		return float64(s.Streak)
	case KindGold:
		return float64(s.Gold)
	case KindBattlesWon:
		return float64(s.BattlesWon)
	case KindRankOrdinal:
		return float64(s.RankOrdinal)
	}
	return 0
}

// AchievementTier is one rank of an achievement: a requirement on the
// kind's progress value and the reward granted when it is first reached.
type AchievementTier struct {
	Requirement float64
	Exp         int
	Gold        int
}

type AchievementDef struct {
	ID          string
	Name        string
	Description string
	Kind        AchievementKind
	Tiers       []AchievementTier // monotonically increasing requirements
}

func (d AchievementDef) MaxRank() int { return len(d.Tiers) }

// Achievements is the static catalog, ordered for deterministic evaluation.
var Achievements = []AchievementDef{
	{
		ID: "seasoned_hunter", Name: "Seasoned Hunter",
		Description: "Reach higher levels", Kind: KindLevel,
		Tiers: []AchievementTier{
			{5, 50, 25}, {10, 100, 50}, {20, 200, 100}, {35, 400, 200}, {50, 800, 400},
		},
	},
	{
		ID: "quest_grinder", Name: "Quest Grinder",
		Description: "Complete quests", Kind: KindQuestsCompleted,
		Tiers: []AchievementTier{
			{10, 30, 15}, {50, 75, 40}, {150, 150, 80}, {400, 300, 160}, {1000, 600, 320},
		},
	},
	{
		ID: "unbroken", Name: "Unbroken",
		Description: "Keep your daily streak alive", Kind: KindStreak,
		Tiers: []AchievementTier{
			{3, 25, 10}, {7, 60, 30}, {14, 120, 60}, {30, 250, 125}, {100, 1000, 500},
		},
	},
	{
		ID: "gold_hoarder", Name: "Gold Hoarder",
		Description: "Accumulate gold", Kind: KindGold,
		Tiers: []AchievementTier{
			{500, 50, 0}, {2000, 150, 0}, {10000, 500, 0},
		},
	},
	{
		ID: "boss_slayer", Name: "Boss Slayer",
		Description: "Defeat bosses", Kind: KindBattlesWon,
		Tiers: []AchievementTier{
			{1, 50, 25}, {5, 150, 75}, {15, 400, 200}, {40, 1000, 500},
		},
	},
	{
		ID: "rank_climber", Name: "Rank Climber",
		Description: "Ascend the hunter ranks", Kind: KindRankOrdinal,
		Tiers: []AchievementTier{
			{1, 50, 50}, {2, 100, 100}, {3, 200, 200}, {4, 400, 400}, {5, 800, 800},
		},
	},
}

// AchievementByID returns the catalog definition, if any.
func AchievementByID(id string) (AchievementDef, bool) {
	for _, d := range Achievements {
		if d.ID == id {
			return d, true
		}
	}
	return AchievementDef{}, false
}

// NotifyKey dedupes unlock notifications per (achievement, rank) pair.
func NotifyKey(achievementID string, rank int) string {
	return fmt.Sprintf("%s_%d", achievementID, rank)
}

// AchievementUnlock describes a single newly reached rank.
type AchievementUnlock struct {
	AchievementID string
	Name          string
	Rank          int
	Exp           int
	Gold          int
}

// AchievementOutcome is the result of one evaluation pass. Exp and Gold
// accumulate every newly unlocked tier; the caller applies them through
// the ledger as a single delta.
type AchievementOutcome struct {
	Exp        int
	Gold       int
	Updated    []models.AchievementState
	Unlocks    []AchievementUnlock
	NotifyKeys []string
}

// EvaluateAchievements walks every definition not yet at max rank and
// unlocks as many consecutive tiers as the snapshot supports. Unlock
// notifications are emitted at most once per (id, rank): tiers whose
// notify key is already present contribute no unlock entry, which makes
// re-evaluation after a transaction retry safe.
func EvaluateAchievements(s StatsSnapshot, states map[string]models.AchievementState, notified map[string]bool) AchievementOutcome {
	var out AchievementOutcome

	for _, def := range Achievements {
		st := states[def.ID]
		st.AchievementID = def.ID
		st.Progress = def.Kind.progress(s)

		changed := st.Progress != states[def.ID].Progress
		for st.CurrentRank < def.MaxRank() {
			tier := def.Tiers[st.CurrentRank]
			if st.Progress < tier.Requirement {
				break
			}
			st.CurrentRank++
			changed = true

			key := NotifyKey(def.ID, st.CurrentRank)
			if notified[key] {
				continue
			}
			out.Exp += tier.Exp
			out.Gold += tier.Gold
			out.Unlocks = append(out.Unlocks, AchievementUnlock{
				AchievementID: def.ID,
				Name:          def.Name,
				Rank:          st.CurrentRank,
				Exp:           tier.Exp,
				Gold:          tier.Gold,
			})
			out.NotifyKeys = append(out.NotifyKeys, key)
		}

		if changed {
			out.Updated = append(out.Updated, st)
		}
	}

	return out
}

// TotalUnlockedRanks sums current ranks across all achievements; hunter
// rank promotion gates on it.
func TotalUnlockedRanks(states map[string]models.AchievementState) int {
	total := 0
	for _, st := range states {
		total += st.CurrentRank
	}
	return total
}

// ── Hunter Rank Promotion ─────────────────────────────────

type rankRequirement struct {
	Level           int
	QuestsCompleted int
	UnlockedRanks   int
}

var rankLadder = []models.HunterRank{
	models.RankE, models.RankD, models.RankC, models.RankB, models.RankA, models.RankS,
}

var rankRequirements = map[models.HunterRank]rankRequirement{
	models.RankD: {Level: 5, QuestsCompleted: 10, UnlockedRanks: 2},
	models.RankC: {Level: 10, QuestsCompleted: 30, UnlockedRanks: 5},
	models.RankB: {Level: 20, QuestsCompleted: 75, UnlockedRanks: 9},
	models.RankA: {Level: 35, QuestsCompleted: 150, UnlockedRanks: 14},
	models.RankS: {Level: 50, QuestsCompleted: 300, UnlockedRanks: 20},
}

// Gold granted on every rank promotion.
const rankPromotionGold = 200

// NextRankPromotion checks promotion to the immediate next rank only.
// One promotion per evaluation cycle: a player qualifying for two ranks at
// once takes the second on the next evaluation. Ranks never move down.
func NextRankPromotion(current models.HunterRank, level, questsCompleted, unlockedRanks int) (models.HunterRank, bool) {
	idx := current.Ordinal()
	if idx >= len(rankLadder)-1 {
		return current, false
	}
	next := rankLadder[idx+1]
	req := rankRequirements[next]
	if level >= req.Level && questsCompleted >= req.QuestsCompleted && unlockedRanks >= req.UnlockedRanks {
		return next, true
	}
	return current, false
}
