package progression

import (
	"sort"
	"time"
)

// ── Boss Catalog ──────────────────────────────────────────

// BossDef is a static boss definition. Targets and rewards scale with the
// player's prior defeat count for that boss.
type BossDef struct {
	ID            string
	Name          string
	Metric        string
	BaseTarget    int
	TargetScaling int
	TimeLimit     time.Duration
	BaseExp       int
	ExpScaling    int
	BaseGold      int
	GoldScaling   int
	RewardTitle   string
}

// Target returns the scaled goal for the given prior defeat count.
func (b BossDef) Target(defeats int) int {
	return b.BaseTarget + defeats*b.TargetScaling
}

// Rewards returns the scaled exp/gold grant for the given defeat count.
func (b BossDef) Rewards(defeats int) (exp, gold int) {
	return b.BaseExp + defeats*b.ExpScaling, b.BaseGold + defeats*b.GoldScaling
}

var Bosses = map[string]BossDef{
	"iron_fist": {
		ID: "iron_fist", Name: "Iron Fist", Metric: "push-ups",
		BaseTarget: 100, TargetScaling: 25, TimeLimit: time.Hour,
		BaseExp: 150, ExpScaling: 50, BaseGold: 75, GoldScaling: 25,
		RewardTitle: "Iron-Willed",
	},
	"stone_sentinel": {
		ID: "stone_sentinel", Name: "Stone Sentinel", Metric: "squats",
		BaseTarget: 150, TargetScaling: 50, TimeLimit: 90 * time.Minute,
		BaseExp: 200, ExpScaling: 75, BaseGold: 100, GoldScaling: 40,
		RewardTitle: "Unmovable",
	},
	"night_stalker": {
		ID: "night_stalker", Name: "Night Stalker", Metric: "minutes running",
		BaseTarget: 30, TargetScaling: 10, TimeLimit: 2 * time.Hour,
		BaseExp: 250, ExpScaling: 100, BaseGold: 125, GoldScaling: 50,
		RewardTitle: "Shadow Runner",
	},
}

// Boss battle timeout penalty, applied exactly once per battle.
const (
	battlePenaltyExp  = 100
	battlePenaltyGold = 50
)

// ── Item Catalog ──────────────────────────────────────────

type ItemEffect string

const (
	// EffectRewardBoost doubles quest rewards while the item is active.
	EffectRewardBoost ItemEffect = "reward_boost"
	// EffectStreakShield preserves a streak that would otherwise reset.
	EffectStreakShield ItemEffect = "streak_shield"
	// EffectExpPotion grants a flat XP amount when used.
	EffectExpPotion ItemEffect = "exp_potion"
)

type ItemDef struct {
	ID       string
	Name     string
	Effect   ItemEffect
	Price    int
	Duration time.Duration // 0 = single-use, no time window
	Power    int           // effect-specific magnitude
}

var Items = map[string]ItemDef{
	"blessing_rune": {
		ID: "blessing_rune", Name: "Blessing Rune",
		Effect: EffectRewardBoost, Price: 100, Duration: 24 * time.Hour, Power: 2,
	},
	"streak_shield": {
		ID: "streak_shield", Name: "Streak Shield",
		Effect: EffectStreakShield, Price: 150,
	},
	"exp_potion": {
		ID: "exp_potion", Name: "Potion of Insight",
		Effect: EffectExpPotion, Price: 80, Power: 50,
	},
}

// ShopItem is the storefront view of an item definition.
type ShopItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Effect      string `json:"effect"`
	Price       int    `json:"price"`
	DurationSec int    `json:"duration_sec,omitempty"`
}

// ShopCatalog lists every purchasable item in a stable order.
func ShopCatalog() []ShopItem {
	ids := make([]string, 0, len(Items))
	for id := range Items {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]ShopItem, 0, len(ids))
	for _, id := range ids {
		def := Items[id]
		out = append(out, ShopItem{
			ID:          def.ID,
			Name:        def.Name,
			Effect:      string(def.Effect),
			Price:       def.Price,
			DurationSec: int(def.Duration.Seconds()),
		})
	}
	return out
}

// ── Quest Reward Constants ────────────────────────────────

const (
	dailyQuestExp  = 50
	dailyQuestGold = 25

	normalQuestExp  = 25
	normalQuestGold = 15

	waterGoalGlasses = 14
	waterGoalExp     = 25
	waterGoalGold    = 10
)

// difficultyMultiplier scales normal-quest rewards. Daily quests pay flat.
func difficultyMultiplier(difficulty int) int {
	switch {
	case difficulty >= 3:
		return 3
	case difficulty == 2:
		return 2
	default:
		return 1
	}
}

// defaultDailyQuests seeds a player's daily board the first time the daily
// cycle runs with no daily quests present.
var defaultDailyQuests = []struct {
	Title  string
	Metric string
	Target int
}{
	{"Morning training", "push-ups", 30},
	{"Stay hydrated", "glasses of water", 8},
	{"Clear your mind", "minutes of reading", 20},
}
