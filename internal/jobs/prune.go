// Package jobs runs the scheduled maintenance work: pruning classification
// history rows past their retention window.
package jobs

import (
	"database/sql"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"guestdesk/internal/storage/sqlite"
)

// StartHistoryPruner starts a cron-based scheduler that deletes history
// rows older than retentionDays. The schedule is a standard 5-field cron
// expression (minute hour day-of-month month day-of-week), e.g.
// "30 3 * * *" for daily at 03:30.
func StartHistoryPruner(db *sql.DB, schedule string, retentionDays int, logger *zap.Logger) {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		logger.Info("history pruning disabled (no schedule set)")
		return
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		logger.Warn("invalid prune schedule, pruning disabled",
			zap.String("schedule", schedule), zap.Error(err))
		return
	}

	logger.Info("history pruning scheduled",
		zap.String("schedule", schedule),
		zap.Int("retention_days", retentionDays))

	go func() {
		for {
			now := time.Now()
			next := sched.Next(now)
			time.Sleep(next.Sub(now))

			cutoff := time.Now().AddDate(0, 0, -retentionDays)
			removed, err := sqlite.PruneHistory(db, cutoff)
			if err != nil {
				logger.Error("history prune failed", zap.Error(err))
				continue
			}
			logger.Info("history prune complete",
				zap.Int64("removed", removed),
				zap.Time("cutoff", cutoff))
		}
	}()
}
