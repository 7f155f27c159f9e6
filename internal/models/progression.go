package models

import "time"

// ── Core Progression Documents ────────────────────────────

// HunterRank is the coarse player tier, E (lowest) through S.
type HunterRank string

const (
	RankE HunterRank = "E"
	RankD HunterRank = "D"
	RankC HunterRank = "C"
	RankB HunterRank = "B"
	RankA HunterRank = "A"
	RankS HunterRank = "S"
)

// Ordinal returns the rank's position in the E..S ladder, E being 0.
func (r HunterRank) Ordinal() int {
	switch r {
	case RankD:
		return 1
	case RankC:
		return 2
	case RankB:
		return 3
	case RankA:
		return 4
	case RankS:
		return 5
	default:
		return 0
	}
}

// PlayerProgress is the root aggregate: one row per user. Level/exp/gold,
// hunter rank, streak state and water tracking all live here; quests,
// battles and achievement state hang off it in child tables.
type PlayerProgress struct {
	UserID              int64      `json:"user_id"`
	Level               int        `json:"level"`
	Exp                 int        `json:"exp"`
	Gold                int        `json:"gold"`
	Rank                HunterRank `json:"rank"`
	Title               string     `json:"title,omitempty"`
	QuestsCompleted     int        `json:"quests_completed"`
	Streak              int        `json:"streak"`
	LastDailyCheck      *time.Time `json:"last_daily_check,omitempty"`
	LastDailyCompletion *time.Time `json:"last_daily_completion,omitempty"`
	WaterCurrent        int        `json:"water_current"`
	WaterLastReset      time.Time  `json:"water_last_reset"`
	WaterStreakDays     int        `json:"water_streak_days"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

type QuestKind string

const (
	QuestNormal QuestKind = "normal"
	QuestDaily  QuestKind = "daily"
)

func (k QuestKind) IsValid() bool {
	return k == QuestNormal || k == QuestDaily
}

type Quest struct {
	ID             int64      `json:"id"`
	UserID         int64      `json:"user_id"`
	Kind           QuestKind  `json:"kind"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	Metric         string     `json:"metric"`
	TargetCount    int        `json:"target_count"`
	CurrentCount   int        `json:"current_count"`
	Difficulty     int        `json:"difficulty"`
	Completed      bool       `json:"completed"`
	LastCompletion *time.Time `json:"last_completion,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ActiveBattle is a time-boxed boss challenge. At most one per (user, boss).
type ActiveBattle struct {
	UserID         int64     `json:"user_id"`
	BossID         string    `json:"boss_id"`
	CurrentCount   int       `json:"current_count"`
	TargetCount    int       `json:"target_count"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	PenaltyApplied bool      `json:"penalty_applied"`
}

type AchievementState struct {
	AchievementID string  `json:"achievement_id"`
	CurrentRank   int     `json:"current_rank"`
	Progress      float64 `json:"progress"`
}

type InventoryItem struct {
	InstanceID string     `json:"instance_id"`
	UserID     int64      `json:"user_id"`
	ItemID     string     `json:"item_id"`
	Used       bool       `json:"used"`
	AcquiredAt time.Time  `json:"acquired_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// ── Request Types ─────────────────────────────────────────

type CreateQuestRequest struct {
	Kind        QuestKind `json:"kind"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Metric      string    `json:"metric"`
	TargetCount int       `json:"target_count"`
	Difficulty  int       `json:"difficulty"`
}

// QuestProgressRequest reports progress toward a quest. Complete short-cuts
// straight to the target count.
type QuestProgressRequest struct {
	Amount   int  `json:"amount"`
	Complete bool `json:"complete"`
}

type BattleProgressRequest struct {
	Amount   int  `json:"amount"`
	Complete bool `json:"complete"`
}

type BuyItemRequest struct {
	ItemID string `json:"item_id"`
}

// ── Response Types ────────────────────────────────────────

// ProgressSummary is the status-bar projection: everything the
// presentation layer needs to redraw player state.
type ProgressSummary struct {
	Level           int        `json:"level"`
	Exp             int        `json:"exp"`
	ExpNeeded       int        `json:"exp_needed"`
	Gold            int        `json:"gold"`
	Rank            HunterRank `json:"rank"`
	Title           string     `json:"title,omitempty"`
	QuestsCompleted int        `json:"quests_completed"`
	Streak          int        `json:"streak"`
	WaterCurrent    int        `json:"water_current"`
	WaterStreakDays int        `json:"water_streak_days"`
}

type RewardBreakdown struct {
	Exp           int  `json:"exp"`
	Gold          int  `json:"gold"`
	LevelsChanged int  `json:"levels_changed"`
	Boosted       bool `json:"boosted"`
}

type QuestProgressResponse struct {
	Quest   *Quest           `json:"quest,omitempty"`
	Deleted bool             `json:"deleted"`
	Reward  *RewardBreakdown `json:"reward,omitempty"`
	Summary ProgressSummary  `json:"summary"`
}

type CompleteAllResponse struct {
	CompletedCount int             `json:"completed_count"`
	Reward         RewardBreakdown `json:"reward"`
	Summary        ProgressSummary `json:"summary"`
}

type BattleResponse struct {
	Battle  *ActiveBattle    `json:"battle,omitempty"`
	Outcome string           `json:"outcome"` // "active", "victory", "timeout"
	Reward  *RewardBreakdown `json:"reward,omitempty"`
	Summary ProgressSummary  `json:"summary"`
}

type DailyCheckResponse struct {
	Streak         int             `json:"streak"`
	AllCompleted   bool            `json:"all_completed"`
	StreakChanged  bool            `json:"streak_changed"`
	QuestsReset    bool            `json:"quests_reset"`
	ShieldConsumed bool            `json:"shield_consumed"`
	Summary        ProgressSummary `json:"summary"`
}

type WaterResponse struct {
	Current    int             `json:"current"`
	Goal       int             `json:"goal"`
	GoalMet    bool            `json:"goal_met"`
	StreakDays int             `json:"streak_days"`
	Summary    ProgressSummary `json:"summary"`
}

type AchievementView struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	CurrentRank int     `json:"current_rank"`
	MaxRank     int     `json:"max_rank"`
	Progress    float64 `json:"progress"`
	NextTarget  float64 `json:"next_target,omitempty"`
}
