package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"deadwatch/internal/database/models"
)

type GuildConfigRepository interface {
	Create(config *models.GuildConfig) error
	FindAll() ([]*models.GuildConfig, error)
	FindByScope(guildID, serverID string) (*models.GuildConfig, error)
	UpdateServerInfo(guildID, serverID, serverName string, maxPlayers int) error
	Count() (int64, error)
}

type guildConfigRepo struct {
	db *gorm.DB
}

func NewGuildConfigRepository(db *gorm.DB) GuildConfigRepository {
	return &guildConfigRepo{db: db}
}

func (r *guildConfigRepo) Create(config *models.GuildConfig) error {
	return r.db.Create(config).Error
}

func (r *guildConfigRepo) FindAll() ([]*models.GuildConfig, error) {
	var configs []*models.GuildConfig
	err := r.db.Find(&configs).Error
	return configs, err
}

func (r *guildConfigRepo) FindByScope(guildID, serverID string) (*models.GuildConfig, error) {
	var config models.GuildConfig
	err := r.db.Where("guild_id = ? AND server_id = ?", guildID, serverID).First(&config).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &config, nil
}

// UpdateServerInfo stores metadata extracted from the log's configuration
// lines. Zero values leave the stored column untouched.
func (r *guildConfigRepo) UpdateServerInfo(guildID, serverID, serverName string, maxPlayers int) error {
	updates := map[string]any{"updated_at": time.Now()}
	if serverName != "" {
		updates["server_name"] = serverName
	}
	if maxPlayers > 0 {
		updates["max_players"] = maxPlayers
	}
	return r.db.Model(&models.GuildConfig{}).
		Where("guild_id = ? AND server_id = ?", guildID, serverID).
		Updates(updates).Error
}

func (r *guildConfigRepo) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.GuildConfig{}).Count(&count).Error
	return count, err
}
