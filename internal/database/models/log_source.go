package models

import (
	"time"
)

// LogSource tracks the scan cursor for one (guild, server) log file. The
// cursor counts lines, not bytes: the upstream host rewrites the file on
// rotation, so a shrinking line count is the rotation signal.
type LogSource struct {
	SourceKey     string `gorm:"primaryKey"` // "<guild_id>_<server_id>"
	GuildID       string `gorm:"not null;index"`
	ServerID      string `gorm:"not null;index"`
	LineCount     int64  `gorm:"default:0"`
	ColdStartDone bool   `gorm:"default:false"`
	LastScanAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (LogSource) TableName() string {
	return "log_sources"
}
