package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pterm/pterm"

	"deadwatch/internal/api"
	"deadwatch/internal/api/handlers"
	"deadwatch/internal/banner"
	"deadwatch/internal/config"
	"deadwatch/internal/database"
	"deadwatch/internal/database/repositories"
	"deadwatch/internal/discovery"
	"deadwatch/internal/identity"
	"deadwatch/internal/ingestion"
	"deadwatch/internal/notify"
	"deadwatch/internal/parser/deadside"
	"deadwatch/internal/transport"
)

func main() {
	// Initialize logger with INFO level as a sensible default; the level is
	// reconfigured after loading the configuration (LOG_LEVEL)
	logger := pterm.DefaultLogger.WithLevel(pterm.LogLevelInfo)

	// Print banner
	banner.Print()

	logger.Info("Initializing DeadWatch - Deadside Server Log Watcher...")

	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		logger.WithCaller().Fatal("Failed to load configuration", logger.Args("error", err))
	}

	// Apply configured log level from environment variable LOG_LEVEL (default: info)
	// Supported values: trace, debug, info, warn, error, fatal
	lvl := strings.ToLower(cfg.LogLevel)
	var ptermLevel pterm.LogLevel
	switch lvl {
	case "trace":
		ptermLevel = pterm.LogLevelTrace
	case "debug":
		ptermLevel = pterm.LogLevelDebug
	case "info":
		ptermLevel = pterm.LogLevelInfo
	case "warn", "warning":
		ptermLevel = pterm.LogLevelWarn
	case "error":
		ptermLevel = pterm.LogLevelError
	case "fatal":
		ptermLevel = pterm.LogLevelFatal
	default:
		ptermLevel = pterm.LogLevelInfo
	}
	logger = pterm.DefaultLogger.WithLevel(ptermLevel)
	logger.Debug("Log level set", logger.Args("level", lvl))

	logger.Debug("Configuration loaded",
		logger.Args(
			"db_path", cfg.Database.Path,
			"server_port", cfg.Server.Port,
			"scan_interval", cfg.Scan.Interval.String(),
		))

	// Initialize database connection with configured settings
	db, err := database.NewConnection(&database.Config{
		Path:         cfg.Database.Path,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		ConnMaxLife:  cfg.Database.ConnMaxLife,
	}, logger)
	if err != nil {
		logger.WithCaller().Fatal("Failed to connect to database", logger.Args("error", err))
	}

	// Initialize repositories
	logger.Debug("Initializing repositories...")
	sourceRepo := repositories.NewLogSourceRepository(db)
	playerRepo := repositories.NewPlayerRepository(db)
	configRepo := repositories.NewGuildConfigRepository(db)

	// Seed the source table from the environment on first run
	logger.Debug("Running source seeder...")
	seeder := discovery.NewSeeder(configRepo, logger)
	if _, err := seeder.Run(cfg.Seed); err != nil {
		logger.WithCaller().Warn("Source seeding failed", logger.Args("error", err))
	}

	// Initialize player retention service
	logger.Debug("Initializing player retention service...")
	retentionService := database.NewRetentionService(
		db,
		logger,
		cfg.Database.RetentionDays,
		cfg.Database.CleanupInterval,
		cfg.Database.CleanupTime,
		cfg.Database.VacuumEnabled,
	)
	retentionService.Start()

	// Identity resolution and live session state
	logger.Debug("Initializing identity resolver and session state...")
	state := ingestion.NewStateStore()
	resolver := identity.NewResolver(playerRepo, logger)
	resolver.SetSessionView(state)

	// Notifications go to the structured log; consumers that want push
	// delivery read the API instead.
	notifier := notify.NewLogSink(logger)

	// Scanner and transports
	logger.Debug("Initializing scanner and transports...")
	parser := deadside.NewParser(logger)
	scanner := ingestion.NewScanner(sourceRepo, configRepo, state, resolver, parser, notifier, logger)

	sftpFetcher := transport.NewSFTPFetcher(logger, cfg.SFTP.DialTimeout, cfg.SFTP.MaxRetries)
	localFetcher := transport.NewLocalFetcher(logger, cfg.Scan.SampleEnabled)
	fetcher := transport.Chain(sftpFetcher, localFetcher)

	// Scan coordinator
	logger.Info("Starting scan coordinator...")
	coordinator := ingestion.NewCoordinator(configRepo, fetcher, scanner, logger, cfg.Scan.Interval)
	if err := coordinator.Start(); err != nil {
		logger.WithCaller().Fatal("Failed to start scan coordinator", logger.Args("error", err))
	}

	// Watch local log files so scans fire on write instead of on the tick
	var watcher *transport.Watcher
	if cfg.Scan.WatchEnabled {
		watcher, err = transport.NewWatcher(logger, coordinator)
		if err != nil {
			logger.Warn("File watcher unavailable, falling back to polling only",
				logger.Args("error", err))
		} else if configs, err := configRepo.FindAll(); err == nil {
			for _, c := range configs {
				if c.Host != "" {
					continue // remote sources poll
				}
				if err := watcher.Add(c.SourceKey(), c.LogPath); err != nil {
					logger.Warn("Failed to watch log file",
						logger.Args("source", c.SourceKey(), "error", err))
				}
			}
		}
	}

	// Initialize web server with configured settings
	logger.Info("Initializing web server...")
	statusHandler := handlers.NewStatusHandler(coordinator, scanner, state, sourceRepo, configRepo, logger)
	webServer := api.NewServer(&api.Config{
		Host:       cfg.Server.Host,
		Port:       cfg.Server.Port,
		Production: cfg.Server.Production,
	}, statusHandler, logger)

	// Start web server in goroutine
	go func() {
		if err := webServer.Run(); err != nil {
			logger.WithCaller().Error("Web server error", logger.Args("error", err))
		}
	}()

	logger.Info("💀 DeadWatch is running",
		logger.Args(
			"url", pterm.Sprintf("http://localhost:%d", cfg.Server.Port),
			"scan_interval", cfg.Scan.Interval.String(),
		))

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Wait for shutdown signal
	<-sigChan

	logger.Info("Shutdown signal received, stopping services...")

	// Stop the watcher first so no new scans get kicked
	if watcher != nil {
		logger.Debug("Stopping file watcher...")
		watcher.Close()
	}

	// Stop the coordinator (waits for in-flight scans)
	logger.Debug("Stopping scan coordinator...")
	coordinator.Stop()

	// Cancel pending delayed re-resolutions
	logger.Debug("Closing identity resolver...")
	resolver.Close()

	// Stop retention service
	logger.Debug("Stopping retention service...")
	retentionService.Stop()

	// Close cached SFTP connections
	logger.Debug("Closing SFTP connections...")
	sftpFetcher.Close()

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop web server
	logger.Debug("Stopping web server...")
	if err := webServer.Shutdown(shutdownCtx); err != nil {
		logger.WithCaller().Error("Web server shutdown error", logger.Args("error", err))
	} else {
		logger.Info("Web server stopped successfully")
	}

	logger.Info("DeadWatch stopped gracefully")
}
