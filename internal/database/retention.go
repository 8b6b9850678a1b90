package database

import (
	"context"
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"gorm.io/gorm"
)

// RetentionService prunes identity records for players who have not been
// seen within the retention window. Session state is in-memory only, so the
// players table is the single growing table worth pruning.
type RetentionService struct {
	db              *gorm.DB
	logger          *pterm.Logger
	retentionDays   int
	checkInterval   time.Duration
	cleanupTime     string
	vacuumEnabled   bool
	stopChan        chan struct{}
	running         bool
	lastRunTime     time.Time
	recordsDeleted  int64
	cleanupDuration time.Duration
}

// RetentionStats holds statistics about retention runs.
type RetentionStats struct {
	LastRunTime      time.Time
	RecordsDeleted   int64
	CleanupDuration  time.Duration
	NextScheduledRun time.Time
}

func NewRetentionService(db *gorm.DB, logger *pterm.Logger, retentionDays int, checkInterval time.Duration, cleanupTime string, vacuumEnabled bool) *RetentionService {
	return &RetentionService{
		db:            db,
		logger:        logger,
		retentionDays: retentionDays,
		checkInterval: checkInterval,
		cleanupTime:   cleanupTime,
		vacuumEnabled: vacuumEnabled,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the retention service.
func (s *RetentionService) Start() {
	if s.retentionDays <= 0 {
		s.logger.Info("Player retention disabled (DB_RETENTION_DAYS=0), retention service not started")
		return
	}

	s.running = true
	s.logger.Info("Starting player retention service",
		s.logger.Args(
			"retention_days", s.retentionDays,
			"cleanup_time", s.cleanupTime,
			"vacuum_enabled", s.vacuumEnabled,
		))

	go s.scheduledLoop()
}

// Stop stops the retention service.
func (s *RetentionService) Stop() {
	if !s.running {
		return
	}

	s.logger.Info("Stopping player retention service")
	close(s.stopChan)
	s.running = false
}

// scheduledLoop runs the prune at the configured time daily.
func (s *RetentionService) scheduledLoop() {
	// Run initial check after 1 minute
	select {
	case <-s.stopChan:
		return
	case <-time.After(1 * time.Minute):
	}

	for {
		select {
		case <-s.stopChan:
			return
		default:
			now := time.Now()
			targetTime := s.parseCleanupTime(now)

			// If target time has passed today, schedule for tomorrow
			if now.After(targetTime) {
				targetTime = targetTime.Add(24 * time.Hour)
			}

			waitDuration := time.Until(targetTime)
			s.logger.Debug("Next retention run scheduled",
				s.logger.Args("next_run", targetTime.Format("2006-01-02 15:04:05"), "wait_duration", waitDuration.Round(time.Minute)))

			select {
			case <-s.stopChan:
				return
			case <-time.After(minDuration(waitDuration, s.checkInterval)):
				if time.Now().After(targetTime.Add(-1 * time.Minute)) {
					s.runPrune()
				}
			}
		}
	}
}

// parseCleanupTime parses the cleanup time string (HH:MM) and returns today's time
func (s *RetentionService) parseCleanupTime(baseTime time.Time) time.Time {
	cleanupTime, err := time.Parse("15:04", s.cleanupTime)
	if err != nil {
		s.logger.Warn("Invalid cleanup time format, using 02:00",
			s.logger.Args("configured", s.cleanupTime, "error", err))
		cleanupTime, _ = time.Parse("15:04", "02:00")
	}

	return time.Date(
		baseTime.Year(), baseTime.Month(), baseTime.Day(),
		cleanupTime.Hour(), cleanupTime.Minute(), 0, 0,
		baseTime.Location(),
	)
}

// runPrune deletes stale player rows and optionally vacuums.
func (s *RetentionService) runPrune() {
	s.logger.Info("Starting scheduled player retention run",
		s.logger.Args("retention_days", s.retentionDays))

	startTime := time.Now()
	cutoffDate := time.Now().AddDate(0, 0, -s.retentionDays)

	totalDeleted, err := s.deleteStalePlayers(cutoffDate)
	if err != nil {
		s.logger.WithCaller().Error("Failed to delete stale players",
			s.logger.Args("error", err, "cutoff_date", cutoffDate.Format("2006-01-02")))
		return
	}

	cleanupDuration := time.Since(startTime)
	s.lastRunTime = startTime
	s.recordsDeleted = totalDeleted
	s.cleanupDuration = cleanupDuration

	s.logger.Info("Retention run completed",
		s.logger.Args(
			"records_deleted", totalDeleted,
			"duration", cleanupDuration.Round(time.Second),
			"cutoff_date", cutoffDate.Format("2006-01-02"),
		))

	if s.vacuumEnabled && totalDeleted > 0 {
		s.runVacuum()
	}
}

// deleteStalePlayers deletes rows older than the cutoff in batches to avoid
// long write locks.
func (s *RetentionService) deleteStalePlayers(cutoffDate time.Time) (int64, error) {
	const batchSize = 1000
	totalDeleted := int64(0)

	for {
		result := s.db.Exec(`
			DELETE FROM players
			WHERE id IN (
				SELECT id FROM players
				WHERE last_seen_at < ?
				LIMIT ?
			)
		`, cutoffDate, batchSize)

		if result.Error != nil {
			return totalDeleted, result.Error
		}

		deleted := result.RowsAffected
		totalDeleted += deleted

		if deleted == 0 {
			break
		}

		s.logger.Trace("Deleted batch",
			s.logger.Args("batch_deleted", deleted, "total_deleted", totalDeleted))

		// Small pause between batches to avoid hogging the database
		time.Sleep(100 * time.Millisecond)
	}

	return totalDeleted, nil
}

// runVacuum reclaims disk space after a large prune.
func (s *RetentionService) runVacuum() {
	s.logger.Info("Running VACUUM to reclaim disk space")

	vacuumStart := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := s.db.WithContext(ctx).Exec("VACUUM").Error; err != nil {
		s.logger.WithCaller().Error("Failed to run VACUUM",
			s.logger.Args("error", err))
		return
	}

	s.logger.Info("VACUUM completed",
		s.logger.Args("duration", time.Since(vacuumStart).Round(time.Second)))
}

// GetStats returns retention statistics.
func (s *RetentionService) GetStats() *RetentionStats {
	now := time.Now()
	targetTime := s.parseCleanupTime(now)
	if now.After(targetTime) {
		targetTime = targetTime.Add(24 * time.Hour)
	}

	return &RetentionStats{
		LastRunTime:      s.lastRunTime,
		RecordsDeleted:   s.recordsDeleted,
		CleanupDuration:  s.cleanupDuration,
		NextScheduledRun: targetTime,
	}
}

// ManualPrune triggers a retention run immediately.
func (s *RetentionService) ManualPrune() error {
	if s.retentionDays <= 0 {
		return fmt.Errorf("retention disabled (DB_RETENTION_DAYS=0)")
	}

	s.logger.Info("Manual retention run triggered")
	go s.runPrune()
	return nil
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
