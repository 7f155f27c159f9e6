package progression

import (
	"context"
	"log"
	"time"
)

// ── Background Workers ──────────────────────────────────

const (
	battleSweepInterval = 10 * time.Second
	dailySweepInterval  = time.Minute
)

// StartBattleSweepWorker applies timeout penalties for battles whose
// deadline passed without the player reporting. Runs until ctx is done.
func (s *Service) StartBattleSweepWorker(ctx context.Context) {
	ticker := time.NewTicker(battleSweepInterval)
	defer ticker.Stop()

	log.Println("[progression] Battle sweep worker started")

	for {
		select {
		case <-ctx.Done():
			log.Println("[progression] Battle sweep worker shutting down")
			return
		case <-ticker.C:
			s.SweepExpiredBattles(ctx)
		}
	}
}

// StartDailyCycleWorker runs the streak evaluation and water rollover for
// every player once a minute. Both sweeps are idempotent within a day, so
// the tight interval only matters right after a midnight boundary.
func (s *Service) StartDailyCycleWorker(ctx context.Context) {
	ticker := time.NewTicker(dailySweepInterval)
	defer ticker.Stop()

	log.Println("[progression] Daily cycle worker started")

	for {
		select {
		case <-ctx.Done():
			log.Println("[progression] Daily cycle worker shutting down")
			return
		case <-ticker.C:
			s.RunDailyChecks(ctx)
			s.RunWaterResets(ctx)
		}
	}
}
