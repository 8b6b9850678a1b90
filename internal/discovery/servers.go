package discovery

import (
	"fmt"

	"github.com/pterm/pterm"

	"deadwatch/internal/config"
	"deadwatch/internal/database/models"
	"deadwatch/internal/database/repositories"
)

// Seeder populates an empty source config table from the environment, so a
// single-server deployment needs nothing beyond a .env file to start
// scanning. A non-empty table is left alone: runtime additions through the
// database win over the seed.
type Seeder struct {
	configRepo repositories.GuildConfigRepository
	logger     *pterm.Logger
}

func NewSeeder(configRepo repositories.GuildConfigRepository, logger *pterm.Logger) *Seeder {
	return &Seeder{configRepo: configRepo, logger: logger}
}

// Run seeds the configured source if the table is empty. Returns the number
// of sources seeded.
func (s *Seeder) Run(seed config.SeedConfig) (int, error) {
	if seed.GuildID == "" {
		s.logger.Debug("No seed source configured, skipping")
		return 0, nil
	}

	count, err := s.configRepo.Count()
	if err != nil {
		return 0, fmt.Errorf("count source configs: %w", err)
	}
	if count > 0 {
		s.logger.Debug("Source configs already present, seed skipped",
			s.logger.Args("existing", count))
		return 0, nil
	}

	cfg := &models.GuildConfig{
		GuildID:            seed.GuildID,
		ServerID:           seed.ServerID,
		ServerName:         seed.ServerName,
		Host:               seed.Host,
		Port:               seed.Port,
		Username:           seed.Username,
		Password:           seed.Password,
		LogPath:            seed.LogPath,
		ConnectionsChannel: seed.ConnectionsChannel,
		EventsChannel:      seed.EventsChannel,
		VoiceChannel:       seed.VoiceChannel,
	}
	if err := s.configRepo.Create(cfg); err != nil {
		return 0, fmt.Errorf("seed source config: %w", err)
	}

	s.logger.Info("Seeded source from environment",
		s.logger.Args(
			"guild", seed.GuildID,
			"server", seed.ServerID,
			"remote", seed.Host != "",
			"log_path", seed.LogPath,
		))
	return 1, nil
}
