package ingestion

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/pterm/pterm"

	"deadwatch/internal/database/repositories"
	"deadwatch/internal/identity"
	"deadwatch/internal/notify"
	"deadwatch/internal/parser/deadside"
)

// Scanner turns the full content of a source's log file into state changes
// and notifications, advancing the persisted line cursor as it goes.
//
// Delivery is at-most-once: the cursor is persisted before any notification
// goes out, so a crash mid-scan drops that slice's notifications instead of
// duplicating them on the retry.
type Scanner struct {
	sourceRepo repositories.LogSourceRepository
	configRepo repositories.GuildConfigRepository
	state      *StateStore
	resolver   *identity.Resolver
	parser     *deadside.Parser
	notifier   notify.Notifier
	logger     *pterm.Logger

	mu      sync.Mutex
	sources map[string]*sync.Mutex
}

// ScanResult summarizes one scan invocation.
type ScanResult struct {
	SourceKey     string
	NewLines      int
	Events        int
	Notifications int
	ColdStart     bool
	Rotated       bool
}

func NewScanner(
	sourceRepo repositories.LogSourceRepository,
	configRepo repositories.GuildConfigRepository,
	state *StateStore,
	resolver *identity.Resolver,
	parser *deadside.Parser,
	notifier notify.Notifier,
	logger *pterm.Logger,
) *Scanner {
	return &Scanner{
		sourceRepo: sourceRepo,
		configRepo: configRepo,
		state:      state,
		resolver:   resolver,
		parser:     parser,
		notifier:   notifier,
		logger:     logger,
		sources:    make(map[string]*sync.Mutex),
	}
}

// sourceLock returns the mutex serializing scans for one source.
func (s *Scanner) sourceLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.sources[key]
	if !ok {
		lock = &sync.Mutex{}
		s.sources[key] = lock
	}
	return lock
}

// Scan processes the current full content of a source's log. Scans for the
// same source are serialized; distinct sources run concurrently.
func (s *Scanner) Scan(ctx context.Context, guildID, serverID, content string) (*ScanResult, error) {
	key := guildID + "_" + serverID
	lock := s.sourceLock(key)
	lock.Lock()
	defer lock.Unlock()

	lines := splitLines(content)

	source, err := s.sourceRepo.FindOrCreate(key, guildID, serverID)
	if err != nil {
		return nil, fmt.Errorf("load cursor for %s: %w", key, err)
	}

	cursor := source.LineCount
	coldStart := !source.ColdStartDone
	rotated := false

	// A shrinking line count means the host rewrote the file: the server
	// restarted and everyone is offline. Drop the scope's state and read
	// the new file from the top.
	if int64(len(lines)) < cursor {
		s.logger.Info("Log rotation detected, resetting scope state",
			s.logger.Args("source", key, "old_lines", cursor, "new_lines", len(lines)))
		s.state.Reset(guildID, serverID)
		cursor = 0
		rotated = true
	}

	newLines := lines[cursor:]
	result := &ScanResult{
		SourceKey: key,
		NewLines:  len(newLines),
		ColdStart: coldStart,
		Rotated:   rotated,
	}

	// No growth on an already-tracked source: nothing to do, and the stored
	// cursor is left alone rather than rewritten with the same value.
	if len(newLines) == 0 && !coldStart && !rotated {
		s.logger.Trace("No new lines", s.logger.Args("source", key))
		return result, nil
	}

	// Persist the cursor before applying anything. A failure here aborts
	// the scan with no state touched, so the slice is retried next cycle.
	if err := s.sourceRepo.UpdateCursor(key, int64(len(lines)), true); err != nil {
		return nil, fmt.Errorf("persist cursor for %s: %w", key, err)
	}

	if len(newLines) == 0 {
		return result, nil
	}

	events := s.parseLines(newLines)
	result.Events = len(events)

	batch, identityApplied := s.apply(guildID, serverID, events)
	result.Notifications = len(batch)

	if coldStart {
		// First contact with this source: the whole backlog is history.
		// State is now current, but nothing is announced.
		s.logger.Info("Cold start scan complete, notifications suppressed",
			s.logger.Args("source", key, "lines", len(newLines), "events", len(events), "suppressed", len(batch)))
		result.Notifications = 0
	} else if len(batch) > 0 {
		if err := s.notifier.Deliver(ctx, guildID, serverID, batch); err != nil {
			// Cursor already advanced: log and move on rather than replay.
			s.logger.WithCaller().Error("Notification delivery failed",
				s.logger.Args("source", key, "count", len(batch), "error", err))
		}
	}

	// The population only moves when an identity event landed; world events
	// alone never trigger an occupancy update.
	if identityApplied {
		s.publishOccupancy(ctx, guildID, serverID)
	}
	return result, nil
}

// parseLines matches every line, preserving file order.
func (s *Scanner) parseLines(lines []string) []deadside.RawEvent {
	var events []deadside.RawEvent
	for _, line := range lines {
		events = append(events, s.parser.Match(line)...)
	}
	return events
}

// apply runs the two-pass application: identity events in timestamp order
// first, then world events in file order. Returns the notification batch in
// application order and whether any identity event actually changed session
// state (dropped dangling disconnects do not count).
func (s *Scanner) apply(guildID, serverID string, events []deadside.RawEvent) ([]notify.Notification, bool) {
	var identityEvents, worldEvents []deadside.RawEvent
	for _, ev := range events {
		if ev.Kind.IsIdentity() {
			identityEvents = append(identityEvents, ev)
		} else {
			worldEvents = append(worldEvents, ev)
		}
	}

	// Identity events are sorted by their timestamp token so that a
	// disconnect written late in the file never lands before the join it
	// follows. The sort is stable and untimestamped lines keep file order
	// at the front.
	sort.SliceStable(identityEvents, func(i, j int) bool {
		return identityEvents[i].Timestamp < identityEvents[j].Timestamp
	})

	var batch []notify.Notification
	identityApplied := false
	for _, ev := range identityEvents {
		n, applied := s.applyIdentity(guildID, serverID, ev)
		if applied {
			identityApplied = true
		}
		if n != nil {
			batch = append(batch, *n)
		}
	}
	for _, ev := range worldEvents {
		if n := s.applyWorld(guildID, serverID, ev); n != nil {
			batch = append(batch, *n)
		}
	}
	return batch, identityApplied
}

func (s *Scanner) applyIdentity(guildID, serverID string, ev deadside.RawEvent) (*notify.Notification, bool) {
	playerID := ev.Fields["player_id"]

	switch ev.Kind {
	case deadside.EventConnectIntent:
		s.resolver.RecordName(guildID, playerID, ev.Fields["name"], ev.Fields["platform"])
		s.state.Queue(guildID, serverID, playerID, identity.NormalizeName(ev.Fields["name"]), ev.Fields["platform"])
		s.logger.Debug("Player queued",
			s.logger.Args("guild", guildID, "server", serverID, "player", playerID))
		return nil, true

	case deadside.EventConnectConfirm:
		resolved := s.resolver.Resolve(guildID, playerID)
		session, hadIntent := s.state.Confirm(guildID, serverID, playerID, resolved)

		name := session.Name
		if !identity.Acceptable(name) {
			name = resolved
			s.state.Rename(guildID, serverID, playerID, name)
		}
		if !hadIntent {
			s.logger.Debug("Connect confirmed without prior intent",
				s.logger.Args("guild", guildID, "server", serverID, "player", playerID, "name", name))
		}
		if !identity.Acceptable(name) {
			// Placeholder went out; the join request carrying the real
			// name often trails. Fix the live session when it lands.
			s.resolver.ScheduleReresolve(guildID, playerID, func(better string) {
				s.state.Rename(guildID, serverID, playerID, better)
			})
		}

		return &notify.Notification{
			Kind:      notify.KindPlayerConnected,
			Timestamp: ev.Timestamp,
			Fields: map[string]string{
				"name":     name,
				"platform": session.Platform,
			},
		}, true

	case deadside.EventDisconnect:
		session, wasOnline := s.state.Disconnect(guildID, serverID, playerID)
		if !wasOnline {
			// Dangling disconnect: never saw this player come online in
			// the tracked window. Dropped, not announced.
			s.logger.Debug("Dropping dangling disconnect",
				s.logger.Args("guild", guildID, "server", serverID, "player", playerID))
			return nil, false
		}
		return &notify.Notification{
			Kind:      notify.KindPlayerDisconnected,
			Timestamp: ev.Timestamp,
			Fields: map[string]string{
				"name":     session.Name,
				"platform": session.Platform,
			},
		}, true
	}
	return nil, false
}

func (s *Scanner) applyWorld(guildID, serverID string, ev deadside.RawEvent) *notify.Notification {
	switch ev.Kind {
	case deadside.EventMissionState:
		missionID := ev.Fields["mission_id"]
		state := strings.ToUpper(ev.Fields["state"])
		level := deadside.MissionLevel(missionID)
		if state != "READY" || level < 3 {
			s.logger.Debug("Mission state change",
				s.logger.Args("mission", missionID, "state", state, "level", level))
			return nil
		}
		return &notify.Notification{
			Kind:      notify.KindMissionReady,
			Timestamp: ev.Timestamp,
			Fields: map[string]string{
				"mission": deadside.MissionName(missionID),
				"level":   strconv.Itoa(level),
			},
		}

	case deadside.EventMissionRespawn:
		s.logger.Debug("Mission respawn scheduled",
			s.logger.Args("mission", ev.Fields["mission_id"], "seconds", ev.Fields["seconds"]))
		return nil

	case deadside.EventAirdropActive:
		return &notify.Notification{Kind: notify.KindAirdrop, Timestamp: ev.Timestamp,
			Fields: map[string]string{"status": "inbound"}}
	case deadside.EventHelicrashActive:
		return &notify.Notification{Kind: notify.KindHelicrash, Timestamp: ev.Timestamp,
			Fields: map[string]string{"status": "crashed"}}
	case deadside.EventTraderActive:
		return &notify.Notification{Kind: notify.KindTrader, Timestamp: ev.Timestamp,
			Fields: map[string]string{"status": "arrived"}}

	case deadside.EventAirdropAnnounced, deadside.EventHelicrashAnnounced, deadside.EventTraderAnnounced:
		// Announced sub-states fire long before anything is visible
		// in-game; only the active sub-state is worth a ping.
		s.logger.Debug("World event announced", s.logger.Args("kind", string(ev.Kind)))
		return nil

	case deadside.EventVehicleSpawn:
		s.state.VehicleAdd(guildID, serverID)
		return nil
	case deadside.EventVehicleDel:
		s.state.VehicleDel(guildID, serverID)
		return nil

	case deadside.EventMaxPlayerCount:
		if v, err := strconv.Atoi(ev.Fields["value"]); err == nil && v > 0 {
			s.updateServerInfo(guildID, serverID, "", v)
		}
		return nil
	case deadside.EventServerName:
		s.updateServerInfo(guildID, serverID, ev.Fields["value"], 0)
		return nil
	}
	return nil
}

func (s *Scanner) updateServerInfo(guildID, serverID, serverName string, maxPlayers int) {
	if err := s.configRepo.UpdateServerInfo(guildID, serverID, serverName, maxPlayers); err != nil {
		s.logger.Warn("Failed to update server info",
			s.logger.Args("guild", guildID, "server", serverID, "error", err))
	}
}

// publishOccupancy recounts and publishes the population snapshot, once per
// scan, after every event of the scan has been applied.
func (s *Scanner) publishOccupancy(ctx context.Context, guildID, serverID string) {
	occ := notify.Occupancy{
		GuildID:    guildID,
		ServerID:   serverID,
		MaxPlayers: 60,
		Online:     s.state.OnlineCount(guildID, serverID),
		Queued:     s.state.QueuedCount(guildID, serverID),
	}

	config, err := s.configRepo.FindByScope(guildID, serverID)
	if err != nil {
		s.logger.Warn("Failed to load scope config for occupancy",
			s.logger.Args("guild", guildID, "server", serverID, "error", err))
	} else if config != nil {
		occ.ServerName = config.ServerName
		if config.MaxPlayers > 0 {
			occ.MaxPlayers = config.MaxPlayers
		}
	}

	if err := s.notifier.PublishOccupancy(ctx, occ); err != nil {
		s.logger.Warn("Failed to publish occupancy",
			s.logger.Args("guild", guildID, "server", serverID, "error", err))
	}
}

// Reset clears the cursor and state for one scope. The next scan behaves
// like a cold start.
func (s *Scanner) Reset(guildID, serverID string) error {
	key := guildID + "_" + serverID
	lock := s.sourceLock(key)
	lock.Lock()
	defer lock.Unlock()

	if err := s.sourceRepo.Reset(key); err != nil {
		return fmt.Errorf("reset cursor for %s: %w", key, err)
	}
	for _, session := range s.state.Sessions(guildID, serverID) {
		s.resolver.Forget(guildID, session.PlayerID)
	}
	s.state.Reset(guildID, serverID)
	s.logger.Info("Scope reset", s.logger.Args("source", key))
	return nil
}

// ResetAll clears every cursor and all state.
func (s *Scanner) ResetAll() error {
	if err := s.sourceRepo.ResetAll(); err != nil {
		return fmt.Errorf("reset all cursors: %w", err)
	}
	s.state.ResetAll()
	s.resolver.Clear()
	s.logger.Info("All scopes reset")
	return nil
}

// splitLines splits file content into lines, tolerating CRLF endings. A
// trailing newline does not produce a final empty line, so the count of a
// byte-identical file is stable across scans.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
