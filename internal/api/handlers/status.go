package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pterm/pterm"

	"deadwatch/internal/database/repositories"
	"deadwatch/internal/ingestion"
	"deadwatch/internal/notify"
)

// StatusHandler serves the read side of the API: coordinator status, live
// sessions, occupancy and cursors.
type StatusHandler struct {
	coordinator *ingestion.Coordinator
	scanner     *ingestion.Scanner
	state       *ingestion.StateStore
	sourceRepo  repositories.LogSourceRepository
	configRepo  repositories.GuildConfigRepository
	logger      *pterm.Logger
}

func NewStatusHandler(
	coordinator *ingestion.Coordinator,
	scanner *ingestion.Scanner,
	state *ingestion.StateStore,
	sourceRepo repositories.LogSourceRepository,
	configRepo repositories.GuildConfigRepository,
	logger *pterm.Logger,
) *StatusHandler {
	return &StatusHandler{
		coordinator: coordinator,
		scanner:     scanner,
		state:       state,
		sourceRepo:  sourceRepo,
		configRepo:  configRepo,
		logger:      logger,
	}
}

// GetStatus returns the coordinator and per-source scan state.
func (h *StatusHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"running": h.coordinator.IsRunning(),
		"sources": h.coordinator.Status(),
	})
}

// GetSessions returns the live sessions for one scope.
func (h *StatusHandler) GetSessions(c *gin.Context) {
	guildID := c.Param("guild")
	serverID := c.Param("server")

	sessions := h.state.Sessions(guildID, serverID)
	c.JSON(http.StatusOK, gin.H{
		"guild_id":  guildID,
		"server_id": serverID,
		"sessions":  sessions,
		"online":    h.state.OnlineCount(guildID, serverID),
		"queued":    h.state.QueuedCount(guildID, serverID),
		"vehicles":  h.state.VehicleCount(guildID, serverID),
	})
}

// GetOccupancy returns the population snapshot and its display label.
func (h *StatusHandler) GetOccupancy(c *gin.Context) {
	guildID := c.Param("guild")
	serverID := c.Param("server")

	occ := notify.Occupancy{
		GuildID:    guildID,
		ServerID:   serverID,
		MaxPlayers: 60,
		Online:     h.state.OnlineCount(guildID, serverID),
		Queued:     h.state.QueuedCount(guildID, serverID),
	}

	config, err := h.configRepo.FindByScope(guildID, serverID)
	if err != nil {
		h.logger.Warn("Failed to load scope config", h.logger.Args("error", err))
	} else if config != nil {
		occ.ServerName = config.ServerName
		if config.MaxPlayers > 0 {
			occ.MaxPlayers = config.MaxPlayers
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"occupancy": occ,
		"label":     occ.Label(),
	})
}

// GetCursors returns the persisted scan cursors.
func (h *StatusHandler) GetCursors(c *gin.Context) {
	sources, err := h.sourceRepo.FindAll()
	if err != nil {
		h.logger.WithCaller().Error("Failed to load cursors", h.logger.Args("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load cursors"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cursors": sources})
}

// ResetScope clears the cursor and live state for one scope. The next scan
// re-reads the file as a cold start.
func (h *StatusHandler) ResetScope(c *gin.Context) {
	guildID := c.Param("guild")
	serverID := c.Param("server")

	if err := h.scanner.Reset(guildID, serverID); err != nil {
		h.logger.WithCaller().Error("Scope reset failed",
			h.logger.Args("guild", guildID, "server", serverID, "error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reset failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reset": guildID + "_" + serverID})
}

// ResetAll clears every cursor and all live state.
func (h *StatusHandler) ResetAll(c *gin.Context) {
	if err := h.scanner.ResetAll(); err != nil {
		h.logger.WithCaller().Error("Full reset failed", h.logger.Args("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reset failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reset": "all"})
}

// TriggerScan kicks an immediate scan of one source.
func (h *StatusHandler) TriggerScan(c *gin.Context) {
	guildID := c.Param("guild")
	serverID := c.Param("server")

	h.coordinator.Kick(guildID + "_" + serverID)
	c.JSON(http.StatusAccepted, gin.H{"kicked": guildID + "_" + serverID})
}
