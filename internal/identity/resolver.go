package identity

import (
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/pterm/pterm"

	"deadwatch/internal/database/models"
)

// PlayerStore is the subset of the player repository the resolver needs.
type PlayerStore interface {
	FindExact(guildID, playerID string) (*models.Player, error)
	FindByPrefix(guildID, prefix string, limit int) ([]*models.Player, error)
	FindRecent(guildID string, since time.Time, limit int) ([]*models.Player, error)
	Upsert(guildID, playerID, name, platform string) error
	UpdateIdentifier(guildID, oldID, newID string) error
}

// SessionView exposes the live session state the resolver consults before
// falling back to the durable store. Implemented by the ingestion state.
type SessionView interface {
	LifecycleName(guildID, playerID string) string
	OnlineSessions(guildID string) map[string]string
}

// placeholderRe matches the synthetic names the resolver generates when no
// real name can be found. Placeholders are never treated as known names.
var placeholderRe = regexp.MustCompile(`^Player[0-9A-F]{4,8}$`)

// nameCharRe keeps word characters, whitespace and a small set of clan-tag
// punctuation; everything else is stripped during normalization.
var nameCharRe = regexp.MustCompile(`[^\w\s\-_\[\]().]`)

const (
	recentWindow      = 7 * 24 * time.Hour
	recentLimit       = 100
	minCommonPrefix   = 8
	defaultRetryDelay = 30 * time.Second
)

// prefixLengths are tried longest-first when the log carries a truncated
// identifier whose full form is already stored.
var prefixLengths = []int{12, 8, 6, 4}

// Resolver maps platform identifiers to display names using a fixed strategy
// order: in-memory cache, live lifecycle state, exact store lookup, shrinking
// prefix lookups, recent-activity common prefix, other online sessions, and
// finally a deterministic placeholder. Placeholder results are scheduled for
// delayed re-resolution.
type Resolver struct {
	store  PlayerStore
	logger *pterm.Logger

	mu       sync.Mutex
	cache    map[string]string
	sessions SessionView
	timers   map[string]*time.Timer
	closed   bool

	retryDelay time.Duration
}

func NewResolver(store PlayerStore, logger *pterm.Logger) *Resolver {
	return &Resolver{
		store:      store,
		logger:     logger,
		cache:      make(map[string]string),
		timers:     make(map[string]*time.Timer),
		retryDelay: defaultRetryDelay,
	}
}

// SetSessionView wires the live session state in after construction. The
// ingestion state needs the resolver and the resolver needs the state, so
// one side binds late.
func (r *Resolver) SetSessionView(view SessionView) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = view
}

// SetRetryDelay overrides the delayed re-resolution interval.
func (r *Resolver) SetRetryDelay(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d > 0 {
		r.retryDelay = d
	}
}

// Acceptable reports whether name is a real display name rather than empty,
// the engine's unknown marker, or one of our own placeholders.
func Acceptable(name string) bool {
	if name == "" || name == "Unknown Player" {
		return false
	}
	return !placeholderRe.MatchString(name)
}

// NormalizeName repairs names that arrive percent-encoded, sometimes more
// than once. Decoding stops after three rounds or when a round is a no-op.
func NormalizeName(name string) string {
	decoded := strings.ReplaceAll(name, "+", " ")
	for i := 0; i < 3; i++ {
		if !strings.Contains(decoded, "%") {
			break
		}
		next, err := url.PathUnescape(decoded)
		if err != nil || next == decoded {
			break
		}
		decoded = next
	}
	decoded = nameCharRe.ReplaceAllString(decoded, "")
	decoded = strings.Join(strings.Fields(decoded), " ")
	return strings.TrimSpace(decoded)
}

// Placeholder derives the deterministic fallback name for an identifier,
// e.g. "PlayerABC16874" style: the first and last four hex characters,
// uppercased.
func Placeholder(playerID string) string {
	id := strings.ToUpper(playerID)
	if len(id) <= 8 {
		return "Player" + id
	}
	return "Player" + id[:4] + id[len(id)-4:]
}

// RecordName stores a freshly observed name for a player: cache plus durable
// upsert. Called on connect intents, where the log itself carries the name.
func (r *Resolver) RecordName(guildID, playerID, name, platform string) {
	normalized := NormalizeName(name)
	if !Acceptable(normalized) {
		return
	}

	r.mu.Lock()
	r.cache[cacheKey(guildID, playerID)] = normalized
	r.mu.Unlock()

	if err := r.store.Upsert(guildID, playerID, normalized, platform); err != nil {
		r.logger.Warn("Failed to persist player name",
			r.logger.Args("guild", guildID, "player", playerID, "error", err))
	}
}

// Resolve returns the best display name for the identifier. It never returns
// an empty string: when every strategy fails it returns a placeholder.
func (r *Resolver) Resolve(guildID, playerID string) string {
	if name, ok := r.fromCache(guildID, playerID); ok {
		return name
	}

	strategies := []func(string, string) string{
		r.fromLifecycle,
		r.fromStoreExact,
		r.fromStorePrefix,
		r.fromRecentActivity,
		r.fromOnlineSessions,
	}

	for _, strategy := range strategies {
		if name := strategy(guildID, playerID); Acceptable(name) {
			r.mu.Lock()
			if !r.closed {
				r.cache[cacheKey(guildID, playerID)] = name
			}
			r.mu.Unlock()
			return name
		}
	}

	// The placeholder is cached like any other result, but the cache lookup
	// never short-circuits on it, so a real name can still supersede it.
	placeholder := Placeholder(playerID)
	r.mu.Lock()
	if !r.closed {
		r.cache[cacheKey(guildID, playerID)] = placeholder
	}
	r.mu.Unlock()
	return placeholder
}

// ScheduleReresolve retries resolution after a delay and invokes apply with
// the improved name. Used when a connection event had to go out with a
// placeholder: the intent line carrying the real name often trails by a few
// seconds.
func (r *Resolver) ScheduleReresolve(guildID, playerID string, apply func(name string)) {
	key := cacheKey(guildID, playerID)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	if existing, ok := r.timers[key]; ok {
		existing.Stop()
	}
	delay := r.retryDelay
	timer := time.AfterFunc(delay, func() {
		r.mu.Lock()
		delete(r.timers, key)
		closed := r.closed
		r.mu.Unlock()
		if closed {
			return
		}

		name := r.Resolve(guildID, playerID)
		if !Acceptable(name) {
			return
		}
		r.logger.Debug("Delayed re-resolution succeeded",
			r.logger.Args("guild", guildID, "player", playerID, "name", name))
		apply(name)
	})
	r.timers[key] = timer
	r.mu.Unlock()
}

// Forget drops the cached name for a player. Called when state for a scope
// is reset.
func (r *Resolver) Forget(guildID, playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cache, cacheKey(guildID, playerID))
}

// Clear drops every cached name. Called on a full reset.
func (r *Resolver) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string]string)
}

// Close cancels all pending re-resolution timers.
func (r *Resolver) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	for key, timer := range r.timers {
		timer.Stop()
		delete(r.timers, key)
	}
}

func (r *Resolver) fromCache(guildID, playerID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name, ok := r.cache[cacheKey(guildID, playerID)]
	if !ok || !Acceptable(name) {
		return "", false
	}
	return name, true
}

func (r *Resolver) fromLifecycle(guildID, playerID string) string {
	r.mu.Lock()
	view := r.sessions
	r.mu.Unlock()
	if view == nil {
		return ""
	}
	return NormalizeName(view.LifecycleName(guildID, playerID))
}

func (r *Resolver) fromStoreExact(guildID, playerID string) string {
	player, err := r.store.FindExact(guildID, playerID)
	if err != nil {
		r.logger.Warn("Player lookup failed",
			r.logger.Args("guild", guildID, "player", playerID, "error", err))
		return ""
	}
	if player == nil {
		return ""
	}
	return player.Name
}

// fromStorePrefix tries shrinking prefixes of the identifier against the
// store. A hit on a truncated row also migrates that row to the full
// identifier, best effort.
func (r *Resolver) fromStorePrefix(guildID, playerID string) string {
	for _, length := range prefixLengths {
		if len(playerID) <= length {
			continue
		}
		players, err := r.store.FindByPrefix(guildID, playerID[:length], 5)
		if err != nil {
			r.logger.Warn("Prefix lookup failed",
				r.logger.Args("guild", guildID, "prefix_len", length, "error", err))
			continue
		}
		for _, player := range players {
			if !Acceptable(player.Name) {
				continue
			}
			if player.PlayerID != playerID && len(player.PlayerID) < len(playerID) {
				oldID := player.PlayerID
				go func() {
					if err := r.store.UpdateIdentifier(guildID, oldID, playerID); err != nil {
						r.logger.Debug("Identifier migration skipped",
							r.logger.Args("guild", guildID, "old", oldID, "error", err))
					}
				}()
			}
			return player.Name
		}
	}
	return ""
}

// fromRecentActivity scans recently active players for a long shared prefix.
// Catches the case where the log truncates identifiers at a different length
// than the one stored.
func (r *Resolver) fromRecentActivity(guildID, playerID string) string {
	players, err := r.store.FindRecent(guildID, time.Now().Add(-recentWindow), recentLimit)
	if err != nil {
		r.logger.Warn("Recent activity lookup failed",
			r.logger.Args("guild", guildID, "error", err))
		return ""
	}

	bestLen := 0
	bestName := ""
	for _, player := range players {
		if !Acceptable(player.Name) {
			continue
		}
		if l := commonPrefixLen(player.PlayerID, playerID); l > bestLen {
			bestLen = l
			bestName = player.Name
		}
	}
	if bestLen >= minCommonPrefix {
		return bestName
	}
	return ""
}

// fromOnlineSessions matches against players currently online in the same
// guild, using the first eight identifier characters.
func (r *Resolver) fromOnlineSessions(guildID, playerID string) string {
	r.mu.Lock()
	view := r.sessions
	r.mu.Unlock()
	if view == nil || len(playerID) < minCommonPrefix {
		return ""
	}

	for id, name := range view.OnlineSessions(guildID) {
		if id == playerID {
			continue
		}
		if len(id) >= minCommonPrefix && id[:minCommonPrefix] == playerID[:minCommonPrefix] && Acceptable(name) {
			return name
		}
	}
	return ""
}

func commonPrefixLen(a, b string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

func cacheKey(guildID, playerID string) string {
	return guildID + "_" + playerID
}
