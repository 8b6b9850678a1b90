package models

import (
	"time"
)

// GuildConfig is the per-(guild, server) configuration row: where the log
// lives, how to reach it, which channels receive notifications, and the
// server metadata extracted from the log itself during cold start.
type GuildConfig struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	GuildID  string `gorm:"not null;uniqueIndex:idx_guild_server"`
	ServerID string `gorm:"not null;uniqueIndex:idx_guild_server"`

	// Server metadata, refreshed from configuration lines in the log.
	ServerName string
	MaxPlayers int `gorm:"default:60"`

	// Remote log access. Host empty means local-only source.
	Host     string
	Port     int `gorm:"default:22"`
	Username string
	Password string
	LogPath  string `gorm:"not null"`

	// Delivery targets, opaque channel identifiers for the notifier.
	ConnectionsChannel string
	EventsChannel      string
	VoiceChannel       string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (GuildConfig) TableName() string {
	return "guild_configs"
}

// SourceKey returns the cursor-store key for this scope.
func (c *GuildConfig) SourceKey() string {
	return c.GuildID + "_" + c.ServerID
}
