package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Database Configuration
	Database DatabaseConfig

	// Log configuration
	LogLevel string

	// Scan Configuration
	Scan ScanConfig

	// SFTP Transport Configuration
	SFTP SFTPConfig

	// Seed Source Configuration
	Seed SeedConfig

	// Server Configuration
	Server ServerConfig
}

// DatabaseConfig contains database-related settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLife     time.Duration
	RetentionDays   int           // Days to retain idle player records (0 = unlimited)
	CleanupInterval time.Duration // How often to check for cleanup (default: 1 hour)
	CleanupTime     string        // Time of day to run cleanup (24-hour format, e.g., "02:00")
	VacuumEnabled   bool          // Run VACUUM after cleanup to reclaim space
}

// ScanConfig contains scan cycle settings
type ScanConfig struct {
	Interval      time.Duration // Poll interval between full scan cycles
	WatchEnabled  bool          // fsnotify watches on local log files
	SampleEnabled bool          // Synthesize a sample log when a local file is missing
}

// SFTPConfig contains remote transport settings
type SFTPConfig struct {
	DialTimeout time.Duration
	MaxRetries  int
}

// SeedConfig describes one source seeded into an empty config table at
// startup. Leave SeedGuildID empty to skip seeding.
type SeedConfig struct {
	GuildID            string
	ServerID           string
	ServerName         string
	Host               string
	Port               int
	Username           string
	Password           string
	LogPath            string
	ConnectionsChannel string
	EventsChannel      string
	VoiceChannel       string
}

// ServerConfig contains web server settings
type ServerConfig struct {
	Host       string
	Port       int
	Production bool
}

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Database: DatabaseConfig{
			Path:            getEnv("DB_PATH", "deadwatch.db"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 3),
			ConnMaxLife:     getEnvAsDuration("DB_CONN_MAX_LIFE", time.Hour),
			RetentionDays:   getEnvAsInt("DB_RETENTION_DAYS", 90),
			CleanupInterval: getEnvAsDuration("DB_CLEANUP_INTERVAL", 1*time.Hour),
			CleanupTime:     getEnv("DB_CLEANUP_TIME", "02:00"),
			VacuumEnabled:   getEnvAsBool("DB_VACUUM_ENABLED", true),
		},
		Scan: ScanConfig{
			Interval:      getEnvAsDuration("SCAN_INTERVAL", 3*time.Minute),
			WatchEnabled:  getEnvAsBool("SCAN_WATCH_ENABLED", true),
			SampleEnabled: getEnvAsBool("SCAN_SAMPLE_ENABLED", false),
		},
		SFTP: SFTPConfig{
			DialTimeout: getEnvAsDuration("SFTP_DIAL_TIMEOUT", 30*time.Second),
			MaxRetries:  getEnvAsInt("SFTP_MAX_RETRIES", 3),
		},
		Seed: SeedConfig{
			GuildID:            getEnv("SEED_GUILD_ID", ""),
			ServerID:           getEnv("SEED_SERVER_ID", "default"),
			ServerName:         getEnv("SEED_SERVER_NAME", ""),
			Host:               getEnv("SEED_SFTP_HOST", ""),
			Port:               getEnvAsInt("SEED_SFTP_PORT", 22),
			Username:           getEnv("SEED_SFTP_USERNAME", ""),
			Password:           getEnv("SEED_SFTP_PASSWORD", ""),
			LogPath:            getEnv("SEED_LOG_PATH", "logs/Deadside.log"),
			ConnectionsChannel: getEnv("SEED_CONNECTIONS_CHANNEL", ""),
			EventsChannel:      getEnv("SEED_EVENTS_CHANNEL", ""),
			VoiceChannel:       getEnv("SEED_VOICE_CHANNEL", ""),
		},
		Server: ServerConfig{
			Host:       getEnv("SERVER_HOST", "0.0.0.0"),
			Port:       getEnvAsInt("SERVER_PORT", 8080),
			Production: getEnvAsBool("SERVER_PRODUCTION", false),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

// Helper functions to read environment variables with defaults

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
