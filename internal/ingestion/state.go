package ingestion

import (
	"strings"
	"sync"
	"time"
)

// SessionState is the lifecycle stage of one player on one server.
type SessionState string

const (
	StateQueued  SessionState = "queued"
	StateOnline  SessionState = "online"
	StateOffline SessionState = "offline"
)

// Session is the record for a player who has been seen on a server: queued,
// online, or offline. Offline sessions are retained until the scope is reset
// so name and platform survive for later lookups and reconnects.
type Session struct {
	PlayerID  string
	Name      string
	Platform  string
	State     SessionState
	UpdatedAt time.Time
}

// StateStore holds all per-scope runtime state: player sessions and the
// vehicle population. State is in-memory only; a restart rebuilds nothing
// and relies on cold start suppression to avoid replaying history.
//
// A scope is one (guild, server) pair. All methods are safe for concurrent
// use across scopes; the scanner serializes access within a scope.
type StateStore struct {
	mu       sync.RWMutex
	sessions map[string]map[string]*Session // scopeKey -> playerID -> session
	vehicles map[string]int                 // scopeKey -> live vehicle count
}

func NewStateStore() *StateStore {
	return &StateStore{
		sessions: make(map[string]map[string]*Session),
		vehicles: make(map[string]int),
	}
}

func scopeKey(guildID, serverID string) string {
	return guildID + "_" + serverID
}

// Queue records a connection intent: the player enters the queue with the
// name and platform the join request carried. An already-online player is
// left online, only the name is refreshed; an offline player re-enters the
// queue.
func (s *StateStore) Queue(guildID, serverID, playerID, name, platform string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	scope := s.scope(guildID, serverID)
	if session, ok := scope[playerID]; ok {
		if name != "" {
			session.Name = name
		}
		if platform != "" {
			session.Platform = platform
		}
		if session.State == StateOffline {
			session.State = StateQueued
		}
		session.UpdatedAt = time.Now()
		return
	}
	scope[playerID] = &Session{
		PlayerID:  playerID,
		Name:      name,
		Platform:  platform,
		State:     StateQueued,
		UpdatedAt: time.Now(),
	}
}

// Confirm promotes a player to online. When no intent was seen (mid-file
// truncation, rotation) a session is created anyway; the caller supplies the
// resolved name. Returns the session and whether an intent preceded it.
func (s *StateStore) Confirm(guildID, serverID, playerID, fallbackName string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	scope := s.scope(guildID, serverID)
	session, hadIntent := scope[playerID]
	if !hadIntent {
		session = &Session{
			PlayerID: playerID,
			Name:     fallbackName,
			Platform: "Unknown",
		}
		scope[playerID] = session
	}
	session.State = StateOnline
	session.UpdatedAt = time.Now()

	copied := *session
	return &copied, hadIntent
}

// Disconnect marks an online player's session offline, keeping the record
// around for later name lookups and reconnects. Returns the session and
// whether the player was actually online; a disconnect with no session, or
// for a still-queued player, reports false, changes nothing and produces no
// notification upstream.
func (s *StateStore) Disconnect(guildID, serverID, playerID string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	scope := s.scope(guildID, serverID)
	session, ok := scope[playerID]
	if !ok {
		return nil, false
	}
	if session.State != StateOnline {
		copied := *session
		return &copied, false
	}
	session.State = StateOffline
	session.UpdatedAt = time.Now()

	copied := *session
	return &copied, true
}

// OnlineCount returns the number of online players for a scope.
func (s *StateStore) OnlineCount(guildID, serverID string) int {
	return s.countByState(guildID, serverID, StateOnline)
}

// QueuedCount returns the number of players waiting in the join queue.
func (s *StateStore) QueuedCount(guildID, serverID string) int {
	return s.countByState(guildID, serverID, StateQueued)
}

func (s *StateStore) countByState(guildID, serverID string, state SessionState) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, session := range s.sessions[scopeKey(guildID, serverID)] {
		if session.State == state {
			count++
		}
	}
	return count
}

// Sessions returns a snapshot of all sessions for a scope.
func (s *StateStore) Sessions(guildID, serverID string) []Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scope := s.sessions[scopeKey(guildID, serverID)]
	out := make([]Session, 0, len(scope))
	for _, session := range scope {
		out = append(out, *session)
	}
	return out
}

// Rename updates the display name of a live session, if one still exists.
// Used by delayed re-resolution.
func (s *StateStore) Rename(guildID, serverID, playerID, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[scopeKey(guildID, serverID)][playerID]
	if !ok {
		return false
	}
	session.Name = name
	session.UpdatedAt = time.Now()
	return true
}

// VehicleAdd increments the live vehicle count for a scope.
func (s *StateStore) VehicleAdd(guildID, serverID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vehicles[scopeKey(guildID, serverID)]++
}

// VehicleDel decrements the live vehicle count, never below zero.
func (s *StateStore) VehicleDel(guildID, serverID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := scopeKey(guildID, serverID)
	if s.vehicles[key] > 0 {
		s.vehicles[key]--
	}
}

// VehicleCount returns the live vehicle count for a scope.
func (s *StateStore) VehicleCount(guildID, serverID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vehicles[scopeKey(guildID, serverID)]
}

// Reset clears all state for one scope.
func (s *StateStore) Reset(guildID, serverID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := scopeKey(guildID, serverID)
	delete(s.sessions, key)
	delete(s.vehicles, key)
}

// ResetAll clears every scope.
func (s *StateStore) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]map[string]*Session)
	s.vehicles = make(map[string]int)
}

// LifecycleName returns the live name for a player anywhere in the guild,
// or "". Satisfies the identity resolver's session view.
func (s *StateStore) LifecycleName(guildID, playerID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := guildID + "_"
	for key, scope := range s.sessions {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if session, ok := scope[playerID]; ok && session.Name != "" {
			return session.Name
		}
	}
	return ""
}

// OnlineSessions returns playerID to name for every online session in the
// guild, across all of its servers.
func (s *StateStore) OnlineSessions(guildID string) map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string)
	prefix := guildID + "_"
	for key, scope := range s.sessions {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		for id, session := range scope {
			if session.State == StateOnline {
				out[id] = session.Name
			}
		}
	}
	return out
}

// scope returns the session map for a scope, creating it on first use.
// Caller must hold the write lock.
func (s *StateStore) scope(guildID, serverID string) map[string]*Session {
	key := scopeKey(guildID, serverID)
	scope, ok := s.sessions[key]
	if !ok {
		scope = make(map[string]*Session)
		s.sessions[key] = scope
	}
	return scope
}
