package ingestion

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pterm/pterm"

	"deadwatch/internal/database/models"
	"deadwatch/internal/database/repositories"
	"deadwatch/internal/transport"
)

// Coordinator drives the scan cycle for every configured source: a shared
// ticker plus on-demand kicks from the file watcher. Scans for a source
// already in flight are skipped, not queued.
type Coordinator struct {
	configRepo repositories.GuildConfigRepository
	fetcher    transport.Fetcher
	scanner    *Scanner
	logger     *pterm.Logger
	interval   time.Duration

	kicks    chan string
	stopChan chan struct{}
	wg       sync.WaitGroup

	mu          sync.RWMutex
	isRunning   bool
	inFlight    map[string]bool
	lastResults map[string]*ScanResult
	lastErrors  map[string]string
	lastScanAt  map[string]time.Time
}

// SourceStatus is the externally visible state of one source.
type SourceStatus struct {
	SourceKey  string     `json:"source_key"`
	GuildID    string     `json:"guild_id"`
	ServerID   string     `json:"server_id"`
	InFlight   bool       `json:"in_flight"`
	LastScanAt *time.Time `json:"last_scan_at,omitempty"`
	LastError  string     `json:"last_error,omitempty"`
	NewLines   int        `json:"new_lines"`
	Events     int        `json:"events"`
}

func NewCoordinator(
	configRepo repositories.GuildConfigRepository,
	fetcher transport.Fetcher,
	scanner *Scanner,
	logger *pterm.Logger,
	interval time.Duration,
) *Coordinator {
	if interval <= 0 {
		interval = 3 * time.Minute
	}
	return &Coordinator{
		configRepo:  configRepo,
		fetcher:     fetcher,
		scanner:     scanner,
		logger:      logger,
		interval:    interval,
		kicks:       make(chan string, 64),
		stopChan:    make(chan struct{}),
		inFlight:    make(map[string]bool),
		lastResults: make(map[string]*ScanResult),
		lastErrors:  make(map[string]string),
		lastScanAt:  make(map[string]time.Time),
	}
}

// Start launches the scan loop.
func (c *Coordinator) Start() error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		c.logger.Warn("Coordinator already running, skipping start")
		return nil
	}
	c.isRunning = true
	c.stopChan = make(chan struct{})
	c.mu.Unlock()

	configs, err := c.configRepo.FindAll()
	if err != nil {
		return fmt.Errorf("load source configs: %w", err)
	}

	if len(configs) == 0 {
		c.logger.Warn("No sources configured. Coordinator will run in standby mode, waiting for sources to be added.")
	} else {
		c.logger.Info("Starting scan coordinator",
			c.logger.Args("sources", len(configs), "interval", c.interval.String()))
	}

	c.wg.Add(1)
	go c.loop()
	return nil
}

// Stop halts the loop and waits for in-flight scans to finish.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		c.logger.Debug("Coordinator not running, skipping stop")
		return
	}
	c.isRunning = false
	close(c.stopChan)
	c.mu.Unlock()

	c.wg.Wait()
	c.logger.Info("Scan coordinator stopped")
}

// IsRunning reports whether the loop is active.
func (c *Coordinator) IsRunning() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isRunning
}

// Kick requests an immediate scan of one source, ahead of its next tick.
// Non-blocking: a full kick queue falls back to the ticker.
func (c *Coordinator) Kick(sourceKey string) {
	select {
	case c.kicks <- sourceKey:
	default:
		c.logger.Debug("Kick queue full, deferring to next tick",
			c.logger.Args("source", sourceKey))
	}
}

// ScanNow runs one synchronous scan cycle over all sources. Used at startup
// and by the admin API.
func (c *Coordinator) ScanNow(ctx context.Context) {
	c.scanAll(ctx)
}

func (c *Coordinator) loop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	// Initial pass so a fresh start does not wait a whole interval.
	c.scanAll(context.Background())

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.scanAll(context.Background())
		case key := <-c.kicks:
			c.scanByKey(context.Background(), key)
		}
	}
}

// scanAll reloads the config table and scans every source. Sources added at
// runtime are picked up on the next cycle without a restart.
func (c *Coordinator) scanAll(ctx context.Context) {
	configs, err := c.configRepo.FindAll()
	if err != nil {
		c.logger.WithCaller().Error("Failed to load source configs",
			c.logger.Args("error", err))
		return
	}

	var wg sync.WaitGroup
	for _, config := range configs {
		wg.Add(1)
		go func(cfg *models.GuildConfig) {
			defer wg.Done()
			c.scanSource(ctx, cfg)
		}(config)
	}
	wg.Wait()
}

func (c *Coordinator) scanByKey(ctx context.Context, sourceKey string) {
	configs, err := c.configRepo.FindAll()
	if err != nil {
		c.logger.WithCaller().Error("Failed to load source configs",
			c.logger.Args("error", err))
		return
	}
	for _, config := range configs {
		if config.SourceKey() == sourceKey {
			c.scanSource(ctx, config)
			return
		}
	}
	c.logger.Debug("Kick for unknown source ignored", c.logger.Args("source", sourceKey))
}

func (c *Coordinator) scanSource(ctx context.Context, config *models.GuildConfig) {
	key := config.SourceKey()

	c.mu.Lock()
	if c.inFlight[key] {
		c.mu.Unlock()
		c.logger.Debug("Scan already in flight, skipping", c.logger.Args("source", key))
		return
	}
	c.inFlight[key] = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inFlight[key] = false
		c.mu.Unlock()
	}()

	desc := transport.SourceDescriptor{
		GuildID:  config.GuildID,
		ServerID: config.ServerID,
		Host:     config.Host,
		Port:     config.Port,
		Username: config.Username,
		Password: config.Password,
		LogPath:  config.LogPath,
	}

	content, err := c.fetcher.Fetch(ctx, desc)
	if err != nil {
		if errors.Is(err, transport.ErrNoContent) {
			c.logger.Debug("No log content yet", c.logger.Args("source", key))
		} else {
			c.logger.Warn("Fetch failed", c.logger.Args("source", key, "error", err))
		}
		c.recordError(key, err)
		return
	}

	result, err := c.scanner.Scan(ctx, config.GuildID, config.ServerID, content)
	if err != nil {
		c.logger.WithCaller().Error("Scan failed",
			c.logger.Args("source", key, "error", err))
		c.recordError(key, err)
		return
	}

	c.recordResult(key, result)

	if result.NewLines > 0 {
		c.logger.Debug("Scan complete",
			c.logger.Args(
				"source", key,
				"new_lines", result.NewLines,
				"events", result.Events,
				"notifications", result.Notifications,
				"cold_start", result.ColdStart,
			))
	}
}

func (c *Coordinator) recordResult(key string, result *ScanResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastResults[key] = result
	c.lastScanAt[key] = time.Now()
	delete(c.lastErrors, key)
}

func (c *Coordinator) recordError(key string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErrors[key] = err.Error()
	c.lastScanAt[key] = time.Now()
}

// Status returns a snapshot for every known source.
func (c *Coordinator) Status() []SourceStatus {
	configs, err := c.configRepo.FindAll()
	if err != nil {
		c.logger.Warn("Failed to load source configs for status",
			c.logger.Args("error", err))
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	statuses := make([]SourceStatus, 0, len(configs))
	for _, config := range configs {
		key := config.SourceKey()
		status := SourceStatus{
			SourceKey: key,
			GuildID:   config.GuildID,
			ServerID:  config.ServerID,
			InFlight:  c.inFlight[key],
			LastError: c.lastErrors[key],
		}
		if t, ok := c.lastScanAt[key]; ok {
			ts := t
			status.LastScanAt = &ts
		}
		if result, ok := c.lastResults[key]; ok {
			status.NewLines = result.NewLines
			status.Events = result.Events
		}
		statuses = append(statuses, status)
	}
	return statuses
}
