package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"deadwatch/internal/database/models"
)

type PlayerRepository interface {
	FindExact(guildID, playerID string) (*models.Player, error)
	FindByPrefix(guildID, prefix string, limit int) ([]*models.Player, error)
	FindRecent(guildID string, since time.Time, limit int) ([]*models.Player, error)
	Upsert(guildID, playerID, name, platform string) error
	UpdateIdentifier(guildID, oldID, newID string) error
	DeleteSeenBefore(cutoff time.Time) (int64, error)
}

type playerRepo struct {
	db *gorm.DB
}

func NewPlayerRepository(db *gorm.DB) PlayerRepository {
	return &playerRepo{db: db}
}

// FindExact returns the record for the full identifier, or nil when the
// player has never been stored.
func (r *playerRepo) FindExact(guildID, playerID string) (*models.Player, error) {
	var player models.Player
	err := r.db.Where("guild_id = ? AND player_id = ?", guildID, playerID).First(&player).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &player, nil
}

// FindByPrefix matches identifiers sharing a leading fragment, most recently
// seen first. Used when logs truncate the EOS identifier.
func (r *playerRepo) FindByPrefix(guildID, prefix string, limit int) ([]*models.Player, error) {
	var players []*models.Player
	err := r.db.
		Where("guild_id = ? AND player_id LIKE ?", guildID, prefix+"%").
		Order("last_seen_at DESC").
		Limit(limit).
		Find(&players).Error
	return players, err
}

func (r *playerRepo) FindRecent(guildID string, since time.Time, limit int) ([]*models.Player, error) {
	var players []*models.Player
	err := r.db.
		Where("guild_id = ? AND last_seen_at >= ?", guildID, since).
		Order("last_seen_at DESC").
		Limit(limit).
		Find(&players).Error
	return players, err
}

// Upsert records the current name and platform for a player and bumps the
// activity timestamp.
func (r *playerRepo) Upsert(guildID, playerID, name, platform string) error {
	now := time.Now()
	player := models.Player{
		GuildID:    guildID,
		PlayerID:   playerID,
		Name:       name,
		Platform:   platform,
		LastSeenAt: now,
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "guild_id"}, {Name: "player_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "platform", "last_seen_at", "updated_at"}),
	}).Create(&player).Error
}

// UpdateIdentifier migrates a row keyed by a truncated identifier to the full
// one observed later. Best effort: a conflict with an existing full-id row
// leaves both rows in place.
func (r *playerRepo) UpdateIdentifier(guildID, oldID, newID string) error {
	return r.db.Exec(
		"UPDATE players SET player_id = ?, updated_at = ? WHERE guild_id = ? AND player_id = ? AND NOT EXISTS (SELECT 1 FROM players p2 WHERE p2.guild_id = ? AND p2.player_id = ?)",
		newID, time.Now(), guildID, oldID, guildID, newID,
	).Error
}

// DeleteSeenBefore prunes identity rows not seen since cutoff.
func (r *playerRepo) DeleteSeenBefore(cutoff time.Time) (int64, error) {
	result := r.db.Where("last_seen_at < ?", cutoff).Delete(&models.Player{})
	return result.RowsAffected, result.Error
}
