package progression

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/hunterpath/backend/internal/models"
)

// Signals is the one-way channel to the presentation layer: refresh hints
// for the status bar and windows. Implementations must not block; the
// engine never waits on them.
type Signals interface {
	StatusChanged(userID int64)
	QuestsChanged(userID int64)
	BattlesChanged(userID int64)
}

type noopSignals struct{}

func (noopSignals) StatusChanged(int64)  {}
func (noopSignals) QuestsChanged(int64)  {}
func (noopSignals) BattlesChanged(int64) {}

// Service orchestrates all progression operations. Every mutation runs as
// one serializable transaction through the store's coordinator; the
// in-memory summary cache is refreshed only after a successful commit,
// never speculatively.
type Service struct {
	store   *Store
	clock   Clock
	signals Signals

	mu    sync.RWMutex
	cache map[int64]models.ProgressSummary
}

func NewService(store *Store, clock Clock) *Service {
	return &Service{
		store:   store,
		clock:   clock,
		signals: noopSignals{},
		cache:   make(map[int64]models.ProgressSummary),
	}
}

// SetSignals installs the presentation hook. Call before serving traffic.
func (s *Service) SetSignals(sig Signals) {
	if sig != nil {
		s.signals = sig
	}
}

// ── Summary Projection ──────────────────────────────────

func summaryOf(p *models.PlayerProgress) models.ProgressSummary {
	return models.ProgressSummary{
		Level:           p.Level,
		Exp:             p.Exp,
		ExpNeeded:       ExpNeeded(p.Level),
		Gold:            p.Gold,
		Rank:            p.Rank,
		Title:           p.Title,
		QuestsCompleted: p.QuestsCompleted,
		Streak:          p.Streak,
		WaterCurrent:    p.WaterCurrent,
		WaterStreakDays: p.WaterStreakDays,
	}
}

// commitSummary refreshes the projection after a successful transaction
// and pings the status bar.
func (s *Service) commitSummary(userID int64, sum models.ProgressSummary) {
	s.mu.Lock()
	s.cache[userID] = sum
	s.mu.Unlock()
	s.signals.StatusChanged(userID)
}

// CachedSummary returns the last committed projection without touching the
// store. Presentation code woken by Signals reads it to redraw cheaply.
func (s *Service) CachedSummary(userID int64) (models.ProgressSummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum, ok := s.cache[userID]
	return sum, ok
}

// Summary reads authoritative player state and refreshes the projection.
func (s *Service) Summary(ctx context.Context, userID int64) (models.ProgressSummary, error) {
	p, err := s.store.GetOrCreatePlayer(ctx, s.store.DB(), userID)
	if err != nil {
		return models.ProgressSummary{}, err
	}
	sum := summaryOf(p)
	s.mu.Lock()
	s.cache[userID] = sum
	s.mu.Unlock()
	return sum, nil
}

// ── Reward Plumbing ─────────────────────────────────────

// grantRewards applies a signed exp delta through the ledger plus a gold
// delta, emitting level-up/level-down notifications. Gold never drops
// below zero.
func (s *Service) grantRewards(ctx context.Context, tx *sql.Tx, p *models.PlayerProgress, exp, gold int) (int, error) {
	newLevel, newExp, levelsChanged := ApplyExpDelta(p.Level, p.Exp, exp)
	p.Level, p.Exp = newLevel, newExp
	p.Gold += gold
	if p.Gold < 0 {
		p.Gold = 0
	}

	if levelsChanged > 0 {
		err := s.store.InsertNotification(ctx, tx, models.Notification{
			UserID:  p.UserID,
			Title:   "Level Up!",
			Message: fmt.Sprintf("You reached level %d", p.Level),
			Type:    "level_up",
		})
		if err != nil {
			return 0, err
		}
	} else if levelsChanged < 0 {
		err := s.store.InsertNotification(ctx, tx, models.Notification{
			UserID:  p.UserID,
			Title:   "Level Lost",
			Message: fmt.Sprintf("You dropped to level %d", p.Level),
			Type:    "level_down",
		})
		if err != nil {
			return 0, err
		}
	}
	return levelsChanged, nil
}

// evaluateProgression runs the achievement and rank evaluators against the
// player's current state and applies their accumulated rewards as a
// single ledger call, all inside the caller's transaction. Notification
// dedupe keys make re-evaluation after a retry safe.
func (s *Service) evaluateProgression(ctx context.Context, tx *sql.Tx, p *models.PlayerProgress) error {
	states, err := s.store.GetAchievementStates(ctx, tx, p.UserID)
	if err != nil {
		return err
	}
	notified, err := s.store.GetNotifiedKeys(ctx, tx, p.UserID)
	if err != nil {
		return err
	}
	battlesWon, err := s.store.TotalDefeats(ctx, tx, p.UserID)
	if err != nil {
		return err
	}

	snap := StatsSnapshot{
		Level:           p.Level,
		QuestsCompleted: p.QuestsCompleted,
		Streak:          p.Streak,
		Gold:            p.Gold,
		BattlesWon:      battlesWon,
		RankOrdinal:     p.Rank.Ordinal(),
	}
	out := EvaluateAchievements(snap, states, notified)

	for _, st := range out.Updated {
		if err := s.store.UpsertAchievementState(ctx, tx, p.UserID, st); err != nil {
			return err
		}
		states[st.AchievementID] = st
	}
	for i, unlock := range out.Unlocks {
		if err := s.store.InsertNotifiedKey(ctx, tx, p.UserID, out.NotifyKeys[i]); err != nil {
			return err
		}
		err := s.store.InsertNotification(ctx, tx, models.Notification{
			UserID:  p.UserID,
			Title:   "Achievement Unlocked",
			Message: fmt.Sprintf("%s — rank %d (+%d XP, +%d gold)",
				unlock.Name, unlock.Rank, unlock.Exp, unlock.Gold),
			Type: "achievement",
		})
		if err != nil {
			return err
		}
	}

	if out.Exp != 0 || out.Gold != 0 {
		if _, err := s.grantRewards(ctx, tx, p, out.Exp, out.Gold); err != nil {
			return err
		}
	}

	// Rank promotion: single step per evaluation cycle.
	next, promoted := NextRankPromotion(p.Rank, p.Level, p.QuestsCompleted, TotalUnlockedRanks(states))
	if promoted {
		p.Rank = next
		p.Gold += rankPromotionGold
		err := s.store.InsertNotification(ctx, tx, models.Notification{
			UserID:  p.UserID,
			Title:   "Rank Promotion",
			Message: fmt.Sprintf("You are now a rank %s hunter (+%d gold)", next, rankPromotionGold),
			Type:    "rank_up",
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// ── Quests ──────────────────────────────────────────────

func (s *Service) CreateQuest(ctx context.Context, userID int64, req models.CreateQuestRequest) (*models.Quest, error) {
	if err := validateNewQuest(req); err != nil {
		return nil, err
	}
	quest := &models.Quest{
		UserID:      userID,
		Kind:        req.Kind,
		Title:       req.Title,
		Description: req.Description,
		Metric:      req.Metric,
		TargetCount: req.TargetCount,
		Difficulty:  req.Difficulty,
	}
	if err := s.store.InsertQuest(ctx, s.store.DB(), quest); err != nil {
		return nil, err
	}
	s.signals.QuestsChanged(userID)
	return quest, nil
}

func (s *Service) ListQuests(ctx context.Context, userID int64, kind models.QuestKind) ([]models.Quest, error) {
	if kind != "" && !kind.IsValid() {
		return nil, fmt.Errorf("unknown quest kind %q: %w", kind, ErrValidation)
	}
	return s.store.ListQuests(ctx, s.store.DB(), userID, kind)
}

// UpdateQuestProgress reports progress (or forces completion) on a quest.
// Quest mutation, reward grant and achievement evaluation are one atomic
// transaction: a concurrent duplicate either loses the serialization race
// and retries into the already-completed guard, or observes the quest gone.
func (s *Service) UpdateQuestProgress(ctx context.Context, userID, questID int64, req models.QuestProgressRequest) (*models.QuestProgressResponse, error) {
	var resp models.QuestProgressResponse
	now := s.clock.Now()

	err := s.store.RunInTx(ctx, func(tx *sql.Tx) error {
		quest, err := s.store.GetQuest(ctx, tx, userID, questID)
		if err != nil {
			return err
		}
		p, err := s.store.GetOrCreatePlayer(ctx, tx, userID)
		if err != nil {
			return err
		}
		boost, err := s.store.ActiveBoostMultiplier(ctx, tx, userID, now)
		if err != nil {
			return err
		}

		out, err := applyQuestProgress(quest, req.Amount, req.Complete, boost, now)
		if err != nil {
			return err
		}

		if out.Delete {
			if err := s.store.DeleteQuest(ctx, tx, userID, quest.ID); err != nil {
				return err
			}
		} else if err := s.store.UpdateQuest(ctx, tx, quest); err != nil {
			return err
		}

		resp = models.QuestProgressResponse{Deleted: out.Delete}
		if !out.Delete {
			resp.Quest = quest
		}

		if out.Completed {
			p.QuestsCompleted++
			levels, err := s.grantRewards(ctx, tx, p, out.Exp, out.Gold)
			if err != nil {
				return err
			}
			resp.Reward = &models.RewardBreakdown{
				Exp: out.Exp, Gold: out.Gold, LevelsChanged: levels, Boosted: out.Boosted,
			}
			if err := s.evaluateProgression(ctx, tx, p); err != nil {
				return err
			}
		}

		if err := s.store.UpdatePlayer(ctx, tx, p); err != nil {
			return err
		}
		resp.Summary = summaryOf(p)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.commitSummary(userID, resp.Summary)
	s.signals.QuestsChanged(userID)
	return &resp, nil
}

// CompleteQuest is progress shorthand: jump straight to the target.
func (s *Service) CompleteQuest(ctx context.Context, userID, questID int64) (*models.QuestProgressResponse, error) {
	return s.UpdateQuestProgress(ctx, userID, questID, models.QuestProgressRequest{Complete: true})
}

func (s *Service) DeleteQuest(ctx context.Context, userID, questID int64) error {
	if err := s.store.DeleteQuest(ctx, s.store.DB(), userID, questID); err != nil {
		return err
	}
	s.signals.QuestsChanged(userID)
	return nil
}

// CompleteAllQuests batches completion over every currently-incomplete
// quest of the given kind, in one transaction.
func (s *Service) CompleteAllQuests(ctx context.Context, userID int64, kind models.QuestKind) (*models.CompleteAllResponse, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("unknown quest kind %q: %w", kind, ErrValidation)
	}

	var resp models.CompleteAllResponse
	now := s.clock.Now()

	err := s.store.RunInTx(ctx, func(tx *sql.Tx) error {
		resp = models.CompleteAllResponse{}

		quests, err := s.store.ListQuests(ctx, tx, userID, kind)
		if err != nil {
			return err
		}
		p, err := s.store.GetOrCreatePlayer(ctx, tx, userID)
		if err != nil {
			return err
		}
		boost, err := s.store.ActiveBoostMultiplier(ctx, tx, userID, now)
		if err != nil {
			return err
		}

		totalExp, totalGold := 0, 0
		boosted := false
		for i := range quests {
			quest := &quests[i]
			if quest.Completed {
				continue
			}
			out, err := applyQuestProgress(quest, 0, true, boost, now)
			if err != nil {
				return err
			}
			if out.Delete {
				if err := s.store.DeleteQuest(ctx, tx, userID, quest.ID); err != nil {
					return err
				}
			} else if err := s.store.UpdateQuest(ctx, tx, quest); err != nil {
				return err
			}
			totalExp += out.Exp
			totalGold += out.Gold
			boosted = boosted || out.Boosted
			p.QuestsCompleted++
			resp.CompletedCount++
		}

		if resp.CompletedCount > 0 {
			levels, err := s.grantRewards(ctx, tx, p, totalExp, totalGold)
			if err != nil {
				return err
			}
			resp.Reward = models.RewardBreakdown{
				Exp: totalExp, Gold: totalGold, LevelsChanged: levels, Boosted: boosted,
			}
			if err := s.evaluateProgression(ctx, tx, p); err != nil {
				return err
			}
		}

		if err := s.store.UpdatePlayer(ctx, tx, p); err != nil {
			return err
		}
		resp.Summary = summaryOf(p)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.commitSummary(userID, resp.Summary)
	s.signals.QuestsChanged(userID)
	return &resp, nil
}

// ── Battles ─────────────────────────────────────────────

func (s *Service) ListBattles(ctx context.Context, userID int64) ([]models.ActiveBattle, error) {
	return s.store.ListBattles(ctx, s.store.DB(), userID)
}

// StartBattle creates the challenge unless one is already active for this
// boss. The existing battle is never mutated by a duplicate start.
func (s *Service) StartBattle(ctx context.Context, userID int64, bossID string) (*models.ActiveBattle, error) {
	boss, err := bossByID(bossID)
	if err != nil {
		return nil, err
	}

	var battle models.ActiveBattle
	now := s.clock.Now()

	err = s.store.RunInTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.store.GetBattle(ctx, tx, userID, bossID); err == nil {
			return fmt.Errorf("battle against %s already active: %w", boss.Name, ErrConflict)
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		defeats, err := s.store.GetDefeats(ctx, tx, userID, bossID)
		if err != nil {
			return err
		}
		battle = newBattle(userID, boss, defeats, now)
		return s.store.InsertBattle(ctx, tx, &battle)
	})
	if err != nil {
		return nil, err
	}
	s.signals.BattlesChanged(userID)
	return &battle, nil
}

// ReportBattleProgress advances an active battle. Reports after the
// deadline route to timeout handling even if the count would have met the
// target.
func (s *Service) ReportBattleProgress(ctx context.Context, userID int64, bossID string, req models.BattleProgressRequest) (*models.BattleResponse, error) {
	boss, err := bossByID(bossID)
	if err != nil {
		return nil, err
	}

	var resp models.BattleResponse
	now := s.clock.Now()

	err = s.store.RunInTx(ctx, func(tx *sql.Tx) error {
		battle, err := s.store.GetBattle(ctx, tx, userID, bossID)
		if err != nil {
			return err
		}
		defeats, err := s.store.GetDefeats(ctx, tx, userID, bossID)
		if err != nil {
			return err
		}
		p, err := s.store.GetOrCreatePlayer(ctx, tx, userID)
		if err != nil {
			return err
		}

		outcome, exp, gold := applyBattleProgress(battle, boss, defeats, req.Amount, req.Complete, now)
		resp = models.BattleResponse{Outcome: outcome.String()}

		switch outcome {
		case battleActive:
			if err := s.store.UpdateBattle(ctx, tx, battle); err != nil {
				return err
			}
			resp.Battle = battle

		case battleVictory:
			if err := s.store.IncrementDefeats(ctx, tx, userID, bossID); err != nil {
				return err
			}
			p.Title = boss.RewardTitle
			levels, err := s.grantRewards(ctx, tx, p, exp, gold)
			if err != nil {
				return err
			}
			resp.Reward = &models.RewardBreakdown{Exp: exp, Gold: gold, LevelsChanged: levels}
			err = s.store.InsertNotification(ctx, tx, models.Notification{
				UserID:  userID,
				Title:   "Boss Defeated",
				Message: fmt.Sprintf("%s has fallen! +%d XP, +%d gold, title %q",
					boss.Name, exp, gold, boss.RewardTitle),
				Type: "battle_victory",
			})
			if err != nil {
				return err
			}
			if err := s.store.DeleteBattle(ctx, tx, userID, bossID); err != nil {
				return err
			}
			if err := s.evaluateProgression(ctx, tx, p); err != nil {
				return err
			}

		case battleTimeout:
			if err := s.applyTimeoutTx(ctx, tx, battle, boss, p); err != nil {
				return err
			}
		}

		if err := s.store.UpdatePlayer(ctx, tx, p); err != nil {
			return err
		}
		resp.Summary = summaryOf(p)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.commitSummary(userID, resp.Summary)
	s.signals.BattlesChanged(userID)
	return &resp, nil
}

// applyTimeoutTx applies the fixed timeout penalty exactly once. The
// penaltyApplied flag plus serializable isolation means concurrent timer
// ticks either see the flag set or the battle already deleted.
func (s *Service) applyTimeoutTx(ctx context.Context, tx *sql.Tx, battle *models.ActiveBattle, boss BossDef, p *models.PlayerProgress) error {
	if battle.PenaltyApplied {
		return nil
	}
	battle.PenaltyApplied = true
	if err := s.store.UpdateBattle(ctx, tx, battle); err != nil {
		return err
	}
	if _, err := s.grantRewards(ctx, tx, p, -battlePenaltyExp, -battlePenaltyGold); err != nil {
		return err
	}
	err := s.store.InsertNotification(ctx, tx, models.Notification{
		UserID:  battle.UserID,
		Title:   "Battle Lost",
		Message: fmt.Sprintf("Time ran out against %s. -%d XP, -%d gold",
			boss.Name, battlePenaltyExp, battlePenaltyGold),
		Type: "battle_timeout",
	})
	if err != nil {
		return err
	}
	return s.store.DeleteBattle(ctx, tx, battle.UserID, battle.BossID)
}

// SweepExpiredBattles applies timeout penalties for every expired battle.
// Each battle gets its own transaction so one failure cannot hold up the
// rest; a battle already handled concurrently is skipped.
func (s *Service) SweepExpiredBattles(ctx context.Context) {
	now := s.clock.Now()
	expired, err := s.store.ListExpiredBattles(ctx, now)
	if err != nil {
		log.Printf("[progression] battle sweep: list: %v", err)
		return
	}

	for _, stale := range expired {
		boss, ok := Bosses[stale.BossID]
		if !ok {
			continue
		}
		userID, bossID := stale.UserID, stale.BossID

		var sum models.ProgressSummary
		err := s.store.RunInTx(ctx, func(tx *sql.Tx) error {
			battle, err := s.store.GetBattle(ctx, tx, userID, bossID)
			if err != nil {
				return err
			}
			p, err := s.store.GetOrCreatePlayer(ctx, tx, userID)
			if err != nil {
				return err
			}
			if err := s.applyTimeoutTx(ctx, tx, battle, boss, p); err != nil {
				return err
			}
			if err := s.store.UpdatePlayer(ctx, tx, p); err != nil {
				return err
			}
			sum = summaryOf(p)
			return nil
		})
		if errors.Is(err, ErrNotFound) {
			continue // resolved concurrently
		}
		if err != nil {
			log.Printf("[progression] battle sweep: user %d boss %s: %v", userID, bossID, err)
			continue
		}
		s.commitSummary(userID, sum)
		s.signals.BattlesChanged(userID)
	}
}

// ── Daily Cycle ─────────────────────────────────────────

// CheckDailyStreak runs the day-boundary evaluation for one player: seed
// the daily board when empty, reset it on a new day, and move the streak.
func (s *Service) CheckDailyStreak(ctx context.Context, userID int64) (*models.DailyCheckResponse, error) {
	var resp models.DailyCheckResponse
	now := s.clock.Now()

	err := s.store.RunInTx(ctx, func(tx *sql.Tx) error {
		p, err := s.store.GetOrCreatePlayer(ctx, tx, userID)
		if err != nil {
			return err
		}
		dailies, err := s.store.ListQuests(ctx, tx, userID, models.QuestDaily)
		if err != nil {
			return err
		}

		if len(dailies) == 0 {
			for _, d := range defaultDailyQuests {
				quest := &models.Quest{
					UserID: userID, Kind: models.QuestDaily,
					Title: d.Title, Metric: d.Metric, TargetCount: d.Target,
				}
				if err := s.store.InsertQuest(ctx, tx, quest); err != nil {
					return err
				}
				dailies = append(dailies, *quest)
			}
		}

		shield, err := s.store.FindUsableShield(ctx, tx, userID, now)
		if err != nil {
			return err
		}

		d := evaluateDailyCycle(*p, dailies, shield != nil, now)
		resp = models.DailyCheckResponse{
			Streak:        d.NewStreak,
			AllCompleted:  d.AllCompleted,
			StreakChanged: d.StreakChanged,
			QuestsReset:   d.ResetQuests,
		}
		if d.Skip {
			resp.Summary = summaryOf(p)
			return nil
		}

		if d.ResetQuests {
			for i := range dailies {
				dailies[i].CurrentCount = 0
				dailies[i].Completed = false
				if err := s.store.UpdateQuest(ctx, tx, &dailies[i]); err != nil {
					return err
				}
			}
		}

		if d.ConsumeShield && shield != nil {
			shield.Used = true
			if err := s.store.UpdateItem(ctx, tx, shield); err != nil {
				return err
			}
			resp.ShieldConsumed = true
			err = s.store.InsertNotification(ctx, tx, models.Notification{
				UserID:  userID,
				Title:   "Streak Shield Consumed",
				Message: "A streak shield absorbed the missed day",
				Type:    "streak_shield",
			})
			if err != nil {
				return err
			}
		}

		if d.StreakChanged {
			p.Streak = d.NewStreak
			title, msg := "Streak Continued", fmt.Sprintf("Daily streak is now %d", d.NewStreak)
			if d.NewStreak == 0 {
				title, msg = "Streak Lost", "Your daily streak has reset"
			}
			err = s.store.InsertNotification(ctx, tx, models.Notification{
				UserID: userID, Title: title, Message: msg, Type: "streak",
			})
			if err != nil {
				return err
			}
		}

		check := now
		p.LastDailyCheck = &check
		if d.StampCompletion {
			done := now
			p.LastDailyCompletion = &done
		} else if d.BridgeCompletion {
			bridged := now.AddDate(0, 0, -1)
			p.LastDailyCompletion = &bridged
		}

		if d.StreakChanged && d.NewStreak > 0 {
			if err := s.evaluateProgression(ctx, tx, p); err != nil {
				return err
			}
		}
		if err := s.store.UpdatePlayer(ctx, tx, p); err != nil {
			return err
		}
		resp.Streak = p.Streak
		resp.Summary = summaryOf(p)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.commitSummary(userID, resp.Summary)
	if resp.QuestsReset {
		s.signals.QuestsChanged(userID)
	}
	return &resp, nil
}

// RunDailyChecks sweeps the streak evaluation across every known player.
func (s *Service) RunDailyChecks(ctx context.Context) {
	ids, err := s.store.ListPlayerIDs(ctx)
	if err != nil {
		log.Printf("[progression] daily sweep: list players: %v", err)
		return
	}
	for _, id := range ids {
		if _, err := s.CheckDailyStreak(ctx, id); err != nil {
			log.Printf("[progression] daily sweep: user %d: %v", id, err)
		}
	}
}

// ── Water Tracking ──────────────────────────────────────

// AddWaterGlass logs one glass, rolling the tracker over first when the
// last reset was on a previous day. Hitting the daily goal grants a small
// bonus exactly once per day (the counter passes the goal only once).
func (s *Service) AddWaterGlass(ctx context.Context, userID int64) (*models.WaterResponse, error) {
	var resp models.WaterResponse
	now := s.clock.Now()

	err := s.store.RunInTx(ctx, func(tx *sql.Tx) error {
		p, err := s.store.GetOrCreatePlayer(ctx, tx, userID)
		if err != nil {
			return err
		}

		if w := evaluateWaterReset(*p, now); w.Reset {
			p.WaterCurrent = 0
			p.WaterStreakDays = w.NewStreakDays
			p.WaterLastReset = now
		}

		p.WaterCurrent++
		if p.WaterCurrent == waterGoalGlasses {
			p.WaterStreakDays++
			if _, err := s.grantRewards(ctx, tx, p, waterGoalExp, waterGoalGold); err != nil {
				return err
			}
			err = s.store.InsertNotification(ctx, tx, models.Notification{
				UserID:  userID,
				Title:   "Hydration Goal",
				Message: fmt.Sprintf("%d glasses today — %d day water streak", waterGoalGlasses, p.WaterStreakDays),
				Type:    "water",
			})
			if err != nil {
				return err
			}
		}

		if err := s.store.UpdatePlayer(ctx, tx, p); err != nil {
			return err
		}
		resp = models.WaterResponse{
			Current:    p.WaterCurrent,
			Goal:       waterGoalGlasses,
			GoalMet:    p.WaterCurrent >= waterGoalGlasses,
			StreakDays: p.WaterStreakDays,
			Summary:    summaryOf(p),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.commitSummary(userID, resp.Summary)
	return &resp, nil
}

// RunWaterResets rolls the water tracker over for players who have not
// touched it today.
func (s *Service) RunWaterResets(ctx context.Context) {
	ids, err := s.store.ListPlayerIDs(ctx)
	if err != nil {
		log.Printf("[progression] water sweep: list players: %v", err)
		return
	}
	now := s.clock.Now()

	for _, id := range ids {
		userID := id
		err := s.store.RunInTx(ctx, func(tx *sql.Tx) error {
			p, err := s.store.GetOrCreatePlayer(ctx, tx, userID)
			if err != nil {
				return err
			}
			w := evaluateWaterReset(*p, now)
			if !w.Reset {
				return nil
			}
			p.WaterCurrent = 0
			p.WaterStreakDays = w.NewStreakDays
			p.WaterLastReset = now
			return s.store.UpdatePlayer(ctx, tx, p)
		})
		if err != nil {
			log.Printf("[progression] water sweep: user %d: %v", userID, err)
		}
	}
}

// ── Inventory & Shop ────────────────────────────────────

func (s *Service) ListInventory(ctx context.Context, userID int64) ([]models.InventoryItem, error) {
	return s.store.ListItems(ctx, s.store.DB(), userID)
}

func (s *Service) BuyItem(ctx context.Context, userID int64, itemID string) (*models.InventoryItem, error) {
	def, ok := Items[itemID]
	if !ok {
		return nil, fmt.Errorf("unknown item %q: %w", itemID, ErrValidation)
	}

	var item models.InventoryItem
	var sum models.ProgressSummary
	now := s.clock.Now()

	err := s.store.RunInTx(ctx, func(tx *sql.Tx) error {
		p, err := s.store.GetOrCreatePlayer(ctx, tx, userID)
		if err != nil {
			return err
		}
		if p.Gold < def.Price {
			return fmt.Errorf("not enough gold for %s (need %d, have %d): %w",
				def.Name, def.Price, p.Gold, ErrConflict)
		}
		p.Gold -= def.Price

		item = models.InventoryItem{
			InstanceID: uuid.NewString(),
			UserID:     userID,
			ItemID:     def.ID,
			AcquiredAt: now,
		}
		if err := s.store.InsertItem(ctx, tx, &item); err != nil {
			return err
		}
		if err := s.store.UpdatePlayer(ctx, tx, p); err != nil {
			return err
		}
		sum = summaryOf(p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.commitSummary(userID, sum)
	return &item, nil
}

// UseItem consumes an inventory instance and applies its effect. A used
// instance is a precondition conflict; streak shields are consumed
// automatically by the daily cycle and cannot be used by hand.
func (s *Service) UseItem(ctx context.Context, userID int64, instanceID string) (*models.InventoryItem, error) {
	var item *models.InventoryItem
	var sum *models.ProgressSummary
	now := s.clock.Now()

	err := s.store.RunInTx(ctx, func(tx *sql.Tx) error {
		it, err := s.store.GetItem(ctx, tx, userID, instanceID)
		if err != nil {
			return err
		}
		if it.Used {
			return fmt.Errorf("item already used: %w", ErrConflict)
		}
		def, ok := Items[it.ItemID]
		if !ok {
			return fmt.Errorf("unknown item %q: %w", it.ItemID, ErrValidation)
		}

		switch def.Effect {
		case EffectRewardBoost:
			it.Used = true
			until := now.Add(def.Duration)
			it.ExpiresAt = &until
		case EffectExpPotion:
			it.Used = true
			p, err := s.store.GetOrCreatePlayer(ctx, tx, userID)
			if err != nil {
				return err
			}
			if _, err := s.grantRewards(ctx, tx, p, def.Power, 0); err != nil {
				return err
			}
			if err := s.store.UpdatePlayer(ctx, tx, p); err != nil {
				return err
			}
			statusSum := summaryOf(p)
			sum = &statusSum
		case EffectStreakShield:
			return fmt.Errorf("streak shields activate automatically: %w", ErrValidation)
		}

		if err := s.store.UpdateItem(ctx, tx, it); err != nil {
			return err
		}
		item = it
		return nil
	})
	if err != nil {
		return nil, err
	}
	if sum != nil {
		s.commitSummary(userID, *sum)
	}
	return item, nil
}

// ── Views ───────────────────────────────────────────────

// BossStatus is the battle-window projection for one boss: catalog data
// scaled to the player's defeat count, plus whether a challenge is live.
type BossStatus struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Metric       string `json:"metric"`
	Target       int    `json:"target"`
	TimeLimitSec int    `json:"time_limit_sec"`
	ExpReward    int    `json:"exp_reward"`
	GoldReward   int    `json:"gold_reward"`
	RewardTitle  string `json:"reward_title"`
	Defeats      int    `json:"defeats"`
	BattleActive bool   `json:"battle_active"`
}

func (s *Service) BossStatuses(ctx context.Context, userID int64) ([]BossStatus, error) {
	battles, err := s.store.ListBattles(ctx, s.store.DB(), userID)
	if err != nil {
		return nil, err
	}
	active := make(map[string]bool, len(battles))
	for _, b := range battles {
		active[b.BossID] = true
	}

	ids := make([]string, 0, len(Bosses))
	for id := range Bosses {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]BossStatus, 0, len(ids))
	for _, id := range ids {
		boss := Bosses[id]
		defeats, err := s.store.GetDefeats(ctx, s.store.DB(), userID, id)
		if err != nil {
			return nil, err
		}
		exp, gold := boss.Rewards(defeats)
		out = append(out, BossStatus{
			ID:           boss.ID,
			Name:         boss.Name,
			Metric:       boss.Metric,
			Target:       boss.Target(defeats),
			TimeLimitSec: int(boss.TimeLimit.Seconds()),
			ExpReward:    exp,
			GoldReward:   gold,
			RewardTitle:  boss.RewardTitle,
			Defeats:      defeats,
			BattleActive: active[id],
		})
	}
	return out, nil
}

// Achievements returns the catalog joined with the player's progress.
func (s *Service) Achievements(ctx context.Context, userID int64) ([]models.AchievementView, error) {
	states, err := s.store.GetAchievementStates(ctx, s.store.DB(), userID)
	if err != nil {
		return nil, err
	}

	views := make([]models.AchievementView, 0, len(Achievements))
	for _, def := range Achievements {
		st := states[def.ID]
		v := models.AchievementView{
			ID:          def.ID,
			Name:        def.Name,
			Description: def.Description,
			CurrentRank: st.CurrentRank,
			MaxRank:     def.MaxRank(),
			Progress:    st.Progress,
		}
		if st.CurrentRank < def.MaxRank() {
			v.NextTarget = def.Tiers[st.CurrentRank].Requirement
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *Service) Notifications(ctx context.Context, userID int64, unreadOnly bool) ([]models.Notification, error) {
	return s.store.ListNotifications(ctx, userID, unreadOnly)
}

func (s *Service) MarkNotificationRead(ctx context.Context, userID, id int64) error {
	return s.store.MarkNotificationRead(ctx, userID, id)
}
