package progression

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hunterpath/backend/internal/models"
)

// Store is the SQL persistence layer for the progression engine. Methods
// take a querier so they run identically inside and outside transactions;
// every multi-document mutation goes through RunInTx.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (s *Store) DB() querier { return s.db }

// ── Transaction Coordinator ─────────────────────────────

const txMaxAttempts = 5

// RunInTx executes fn inside a serializable transaction, retrying the
// whole read-compute-write unit on serialization or deadlock failure.
// There is no partial retry: fn must re-read everything it depends on.
func (s *Store) RunInTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return withRetry(txMaxAttempts, func() error {
		tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		if err := fn(tx); err != nil {
			_ = tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}

// withRetry re-runs fn up to maxAttempts times while it keeps failing with
// a retryable store conflict. Exhaustion surfaces as ErrTransient so the
// caller can tell "re-issue the action" apart from a hard failure.
func withRetry(maxAttempts int, fn func() error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = fn()
		if err == nil || !isRetryableTxError(err) {
			return err
		}
	}
	return fmt.Errorf("transaction conflict persisted after %d attempts: %w", maxAttempts, ErrTransient)
}

// isRetryableTxError matches Postgres serialization_failure (40001) and
// deadlock_detected (40P01).
func isRetryableTxError(err error) bool {
	var pqErr *pq.Error
	if !asPQError(err, &pqErr) {
		return false
	}
	return pqErr.Code == "40001" || pqErr.Code == "40P01"
}

// isUniqueViolation matches Postgres unique_violation (23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if !asPQError(err, &pqErr) {
		return false
	}
	return pqErr.Code == "23505"
}

func asPQError(err error, target **pq.Error) bool {
	for err != nil {
		if pe, ok := err.(*pq.Error); ok {
			*target = pe
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// ── Player Aggregate ────────────────────────────────────

func (s *Store) GetOrCreatePlayer(ctx context.Context, q querier, userID int64) (*models.PlayerProgress, error) {
	_, err := q.ExecContext(ctx,
		`INSERT INTO player_progress (user_id) VALUES ($1)
		 ON CONFLICT (user_id) DO NOTHING`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert player: %w", err)
	}

	var p models.PlayerProgress
	err = q.QueryRowContext(ctx,
		`SELECT user_id, level, exp, gold, rank, title, quests_completed,
		        streak, last_daily_check, last_daily_completion,
		        water_current, water_last_reset, water_streak_days,
		        created_at, updated_at
		 FROM player_progress WHERE user_id = $1`,
		userID,
	).Scan(&p.UserID, &p.Level, &p.Exp, &p.Gold, &p.Rank, &p.Title, &p.QuestsCompleted,
		&p.Streak, &p.LastDailyCheck, &p.LastDailyCompletion,
		&p.WaterCurrent, &p.WaterLastReset, &p.WaterStreakDays,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get player: %w", err)
	}
	return &p, nil
}

func (s *Store) UpdatePlayer(ctx context.Context, q querier, p *models.PlayerProgress) error {
	_, err := q.ExecContext(ctx,
		`UPDATE player_progress SET
		    level = $2, exp = $3, gold = $4, rank = $5, title = $6,
		    quests_completed = $7, streak = $8,
		    last_daily_check = $9, last_daily_completion = $10,
		    water_current = $11, water_last_reset = $12, water_streak_days = $13,
		    updated_at = NOW()
		 WHERE user_id = $1`,
		p.UserID, p.Level, p.Exp, p.Gold, p.Rank, p.Title,
		p.QuestsCompleted, p.Streak,
		p.LastDailyCheck, p.LastDailyCompletion,
		p.WaterCurrent, p.WaterLastReset, p.WaterStreakDays,
	)
	if err != nil {
		return fmt.Errorf("update player: %w", err)
	}
	return nil
}

// ListPlayerIDs feeds the background sweeps.
func (s *Store) ListPlayerIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id FROM player_progress`)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ── Quests ──────────────────────────────────────────────

const questColumns = `id, user_id, kind, title, description, metric,
	target_count, current_count, difficulty, completed, last_completion, created_at`

func scanQuest(row interface{ Scan(...interface{}) error }) (*models.Quest, error) {
	var q models.Quest
	err := row.Scan(&q.ID, &q.UserID, &q.Kind, &q.Title, &q.Description, &q.Metric,
		&q.TargetCount, &q.CurrentCount, &q.Difficulty, &q.Completed, &q.LastCompletion, &q.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (s *Store) GetQuest(ctx context.Context, q querier, userID, questID int64) (*models.Quest, error) {
	quest, err := scanQuest(q.QueryRowContext(ctx,
		`SELECT `+questColumns+` FROM quests WHERE id = $1 AND user_id = $2`,
		questID, userID,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("quest %d: %w", questID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get quest: %w", err)
	}
	return quest, nil
}

func (s *Store) ListQuests(ctx context.Context, q querier, userID int64, kind models.QuestKind) ([]models.Quest, error) {
	query := `SELECT ` + questColumns + ` FROM quests WHERE user_id = $1`
	args := []interface{}{userID}
	if kind != "" {
		query += ` AND kind = $2`
		args = append(args, kind)
	}
	query += ` ORDER BY created_at, id`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list quests: %w", err)
	}
	defer rows.Close()

	var quests []models.Quest
	for rows.Next() {
		quest, err := scanQuest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quest: %w", err)
		}
		quests = append(quests, *quest)
	}
	return quests, rows.Err()
}

func (s *Store) InsertQuest(ctx context.Context, q querier, quest *models.Quest) error {
	err := q.QueryRowContext(ctx,
		`INSERT INTO quests (user_id, kind, title, description, metric,
		    target_count, current_count, difficulty, completed)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, false)
		 RETURNING id, created_at`,
		quest.UserID, quest.Kind, quest.Title, quest.Description, quest.Metric,
		quest.TargetCount, quest.CurrentCount, quest.Difficulty,
	).Scan(&quest.ID, &quest.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert quest: %w", err)
	}
	return nil
}

func (s *Store) UpdateQuest(ctx context.Context, q querier, quest *models.Quest) error {
	_, err := q.ExecContext(ctx,
		`UPDATE quests SET current_count = $3, completed = $4, last_completion = $5
		 WHERE id = $1 AND user_id = $2`,
		quest.ID, quest.UserID, quest.CurrentCount, quest.Completed, quest.LastCompletion,
	)
	if err != nil {
		return fmt.Errorf("update quest: %w", err)
	}
	return nil
}

func (s *Store) DeleteQuest(ctx context.Context, q querier, userID, questID int64) error {
	res, err := q.ExecContext(ctx,
		`DELETE FROM quests WHERE id = $1 AND user_id = $2`, questID, userID,
	)
	if err != nil {
		return fmt.Errorf("delete quest: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("quest %d: %w", questID, ErrNotFound)
	}
	return nil
}

// ── Battles ─────────────────────────────────────────────

const battleColumns = `user_id, boss_id, current_count, target_count,
	start_time, end_time, penalty_applied`

func scanBattle(row interface{ Scan(...interface{}) error }) (*models.ActiveBattle, error) {
	var b models.ActiveBattle
	err := row.Scan(&b.UserID, &b.BossID, &b.CurrentCount, &b.TargetCount,
		&b.StartTime, &b.EndTime, &b.PenaltyApplied)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Store) GetBattle(ctx context.Context, q querier, userID int64, bossID string) (*models.ActiveBattle, error) {
	b, err := scanBattle(q.QueryRowContext(ctx,
		`SELECT `+battleColumns+` FROM active_battles WHERE user_id = $1 AND boss_id = $2`,
		userID, bossID,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("battle %s: %w", bossID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get battle: %w", err)
	}
	return b, nil
}

func (s *Store) ListBattles(ctx context.Context, q querier, userID int64) ([]models.ActiveBattle, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+battleColumns+` FROM active_battles WHERE user_id = $1 ORDER BY start_time`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list battles: %w", err)
	}
	defer rows.Close()

	var battles []models.ActiveBattle
	for rows.Next() {
		b, err := scanBattle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan battle: %w", err)
		}
		battles = append(battles, *b)
	}
	return battles, rows.Err()
}

// ListExpiredBattles returns battles past their deadline that have not had
// the timeout penalty applied, across all players, for the sweep worker.
func (s *Store) ListExpiredBattles(ctx context.Context, now time.Time) ([]models.ActiveBattle, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+battleColumns+` FROM active_battles
		 WHERE end_time < $1 AND penalty_applied = false`,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("list expired battles: %w", err)
	}
	defer rows.Close()

	var battles []models.ActiveBattle
	for rows.Next() {
		b, err := scanBattle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan battle: %w", err)
		}
		battles = append(battles, *b)
	}
	return battles, rows.Err()
}

func (s *Store) InsertBattle(ctx context.Context, q querier, b *models.ActiveBattle) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO active_battles (user_id, boss_id, current_count, target_count,
		    start_time, end_time, penalty_applied)
		 VALUES ($1, $2, $3, $4, $5, $6, false)`,
		b.UserID, b.BossID, b.CurrentCount, b.TargetCount, b.StartTime, b.EndTime,
	)
	if err != nil {
		// Two concurrent starts race on the (user_id, boss_id) key; the
		// loser is a precondition conflict, not a server fault.
		if isUniqueViolation(err) {
			return fmt.Errorf("battle already active: %w", ErrConflict)
		}
		return fmt.Errorf("insert battle: %w", err)
	}
	return nil
}

func (s *Store) UpdateBattle(ctx context.Context, q querier, b *models.ActiveBattle) error {
	_, err := q.ExecContext(ctx,
		`UPDATE active_battles SET current_count = $3, penalty_applied = $4
		 WHERE user_id = $1 AND boss_id = $2`,
		b.UserID, b.BossID, b.CurrentCount, b.PenaltyApplied,
	)
	if err != nil {
		return fmt.Errorf("update battle: %w", err)
	}
	return nil
}

func (s *Store) DeleteBattle(ctx context.Context, q querier, userID int64, bossID string) error {
	_, err := q.ExecContext(ctx,
		`DELETE FROM active_battles WHERE user_id = $1 AND boss_id = $2`,
		userID, bossID,
	)
	if err != nil {
		return fmt.Errorf("delete battle: %w", err)
	}
	return nil
}

// ── Boss Defeat Counters ────────────────────────────────

func (s *Store) GetDefeats(ctx context.Context, q querier, userID int64, bossID string) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COALESCE((SELECT defeats FROM boss_defeats WHERE user_id = $1 AND boss_id = $2), 0)`,
		userID, bossID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("get defeats: %w", err)
	}
	return n, nil
}

func (s *Store) IncrementDefeats(ctx context.Context, q querier, userID int64, bossID string) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO boss_defeats (user_id, boss_id, defeats) VALUES ($1, $2, 1)
		 ON CONFLICT (user_id, boss_id) DO UPDATE SET defeats = boss_defeats.defeats + 1`,
		userID, bossID,
	)
	if err != nil {
		return fmt.Errorf("increment defeats: %w", err)
	}
	return nil
}

func (s *Store) TotalDefeats(ctx context.Context, q querier, userID int64) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(defeats), 0) FROM boss_defeats WHERE user_id = $1`,
		userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("total defeats: %w", err)
	}
	return n, nil
}

// ── Achievement State ───────────────────────────────────

func (s *Store) GetAchievementStates(ctx context.Context, q querier, userID int64) (map[string]models.AchievementState, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT achievement_id, current_rank, progress
		 FROM achievement_state WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("get achievement states: %w", err)
	}
	defer rows.Close()

	states := make(map[string]models.AchievementState)
	for rows.Next() {
		var st models.AchievementState
		if err := rows.Scan(&st.AchievementID, &st.CurrentRank, &st.Progress); err != nil {
			return nil, err
		}
		states[st.AchievementID] = st
	}
	return states, rows.Err()
}

func (s *Store) UpsertAchievementState(ctx context.Context, q querier, userID int64, st models.AchievementState) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO achievement_state (user_id, achievement_id, current_rank, progress)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, achievement_id)
		 DO UPDATE SET current_rank = $3, progress = $4`,
		userID, st.AchievementID, st.CurrentRank, st.Progress,
	)
	if err != nil {
		return fmt.Errorf("upsert achievement state: %w", err)
	}
	return nil
}

func (s *Store) GetNotifiedKeys(ctx context.Context, q querier, userID int64) (map[string]bool, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT notify_key FROM notified_achievements WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("get notified keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[string]bool)
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys[k] = true
	}
	return keys, rows.Err()
}

// InsertNotifiedKey is append-only and idempotent.
func (s *Store) InsertNotifiedKey(ctx context.Context, q querier, userID int64, key string) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO notified_achievements (user_id, notify_key) VALUES ($1, $2)
		 ON CONFLICT (user_id, notify_key) DO NOTHING`,
		userID, key,
	)
	if err != nil {
		return fmt.Errorf("insert notified key: %w", err)
	}
	return nil
}

// ── Notifications ───────────────────────────────────────

func (s *Store) InsertNotification(ctx context.Context, q querier, n models.Notification) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO notifications (user_id, title, message, type)
		 VALUES ($1, $2, $3, $4)`,
		n.UserID, n.Title, n.Message, n.Type,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *Store) ListNotifications(ctx context.Context, userID int64, unreadOnly bool) ([]models.Notification, error) {
	query := `SELECT id, user_id, title, message, type, read, created_at
	          FROM notifications WHERE user_id = $1`
	if unreadOnly {
		query += ` AND read = false`
	}
	query += ` ORDER BY created_at DESC LIMIT 100`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) MarkNotificationRead(ctx context.Context, userID, notificationID int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET read = true WHERE id = $1 AND user_id = $2`,
		notificationID, userID,
	)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("notification %d: %w", notificationID, ErrNotFound)
	}
	return nil
}

// ── Inventory ───────────────────────────────────────────

const itemColumns = `instance_id, user_id, item_id, used, acquired_at, expires_at`

func scanItem(row interface{ Scan(...interface{}) error }) (*models.InventoryItem, error) {
	var it models.InventoryItem
	err := row.Scan(&it.InstanceID, &it.UserID, &it.ItemID, &it.Used, &it.AcquiredAt, &it.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (s *Store) InsertItem(ctx context.Context, q querier, it *models.InventoryItem) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO inventory_items (instance_id, user_id, item_id, used, acquired_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		it.InstanceID, it.UserID, it.ItemID, it.Used, it.AcquiredAt, it.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

func (s *Store) GetItem(ctx context.Context, q querier, userID int64, instanceID string) (*models.InventoryItem, error) {
	it, err := scanItem(q.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM inventory_items WHERE instance_id = $1 AND user_id = $2`,
		instanceID, userID,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("item %s: %w", instanceID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

func (s *Store) ListItems(ctx context.Context, q querier, userID int64) ([]models.InventoryItem, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM inventory_items WHERE user_id = $1 ORDER BY acquired_at, instance_id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []models.InventoryItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

func (s *Store) UpdateItem(ctx context.Context, q querier, it *models.InventoryItem) error {
	_, err := q.ExecContext(ctx,
		`UPDATE inventory_items SET used = $3, expires_at = $4
		 WHERE instance_id = $1 AND user_id = $2`,
		it.InstanceID, it.UserID, it.Used, it.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// ActiveBoostMultiplier returns the strongest unexpired reward-boost in
// effect for the user, or 1 when none is active.
func (s *Store) ActiveBoostMultiplier(ctx context.Context, q querier, userID int64, now time.Time) (int, error) {
	items, err := s.ListItems(ctx, q, userID)
	if err != nil {
		return 1, err
	}
	mult := 1
	for _, it := range items {
		def, ok := Items[it.ItemID]
		if !ok || def.Effect != EffectRewardBoost || !it.Used {
			continue
		}
		if it.ExpiresAt == nil || it.ExpiresAt.Before(now) {
			continue
		}
		if def.Power > mult {
			mult = def.Power
		}
	}
	return mult, nil
}

// FindUsableShield returns the oldest unused streak shield, if any.
func (s *Store) FindUsableShield(ctx context.Context, q querier, userID int64, now time.Time) (*models.InventoryItem, error) {
	items, err := s.ListItems(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	for i := range items {
		def, ok := Items[items[i].ItemID]
		if ok && def.Effect == EffectStreakShield && shieldUsableAt(items[i], now) {
			return &items[i], nil
		}
	}
	return nil, nil
}
