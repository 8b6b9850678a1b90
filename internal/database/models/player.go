package models

import (
	"time"
)

// Player is the durable identity record mapping a platform identifier to the
// last known display name. Records are scoped per guild: the same platform
// account can appear under different guilds with independent rows.
type Player struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	GuildID    string `gorm:"not null;uniqueIndex:idx_guild_player"`
	PlayerID   string `gorm:"not null;uniqueIndex:idx_guild_player;index:idx_player_prefix"`
	Name       string `gorm:"not null"`
	Platform   string
	LastSeenAt time.Time `gorm:"index:idx_last_seen"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (Player) TableName() string {
	return "players"
}
