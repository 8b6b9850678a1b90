package repositories

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"deadwatch/internal/database/models"
)

type LogSourceRepository interface {
	FindOrCreate(sourceKey, guildID, serverID string) (*models.LogSource, error)
	UpdateCursor(sourceKey string, lineCount int64, coldStartDone bool) error
	Reset(sourceKey string) error
	ResetAll() error
	FindAll() ([]*models.LogSource, error)
}

type logSourceRepo struct {
	db *gorm.DB
}

func NewLogSourceRepository(db *gorm.DB) LogSourceRepository {
	return &logSourceRepo{db: db}
}

func (r *logSourceRepo) FindOrCreate(sourceKey, guildID, serverID string) (*models.LogSource, error) {
	source := models.LogSource{
		SourceKey: sourceKey,
		GuildID:   guildID,
		ServerID:  serverID,
	}
	err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&source).Error
	if err != nil {
		return nil, err
	}
	var found models.LogSource
	if err := r.db.Where("source_key = ?", sourceKey).First(&found).Error; err != nil {
		return nil, err
	}
	return &found, nil
}

// UpdateCursor persists the new cursor position. Direct SQL keeps the
// per-scan hot path to a single statement.
func (r *logSourceRepo) UpdateCursor(sourceKey string, lineCount int64, coldStartDone bool) error {
	now := time.Now()
	return r.db.Exec(
		"UPDATE log_sources SET line_count = ?, cold_start_done = ?, last_scan_at = ?, updated_at = ? WHERE source_key = ?",
		lineCount, coldStartDone, now, now, sourceKey,
	).Error
}

// Reset zeroes one cursor so the next scan treats the source as brand new
// (cold start suppression included).
func (r *logSourceRepo) Reset(sourceKey string) error {
	return r.db.Exec(
		"UPDATE log_sources SET line_count = 0, cold_start_done = 0, updated_at = ? WHERE source_key = ?",
		time.Now(), sourceKey,
	).Error
}

func (r *logSourceRepo) ResetAll() error {
	return r.db.Exec(
		"UPDATE log_sources SET line_count = 0, cold_start_done = 0, updated_at = ?",
		time.Now(),
	).Error
}

func (r *logSourceRepo) FindAll() ([]*models.LogSource, error) {
	var sources []*models.LogSource
	err := r.db.Find(&sources).Error
	return sources, err
}
