package identity

import (
	"sync"
	"testing"
	"time"

	"github.com/pterm/pterm"

	"deadwatch/internal/database/models"
)

type fakePlayerStore struct {
	mu      sync.Mutex
	players map[string]*models.Player // guildID_playerID
}

func newFakePlayerStore() *fakePlayerStore {
	return &fakePlayerStore{players: make(map[string]*models.Player)}
}

func (s *fakePlayerStore) add(guildID, playerID, name string, seen time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[guildID+"_"+playerID] = &models.Player{
		GuildID:    guildID,
		PlayerID:   playerID,
		Name:       name,
		LastSeenAt: seen,
	}
}

func (s *fakePlayerStore) FindExact(guildID, playerID string) (*models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.players[guildID+"_"+playerID]; ok {
		return p, nil
	}
	return nil, nil
}

func (s *fakePlayerStore) FindByPrefix(guildID, prefix string, limit int) ([]*models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Player
	for _, p := range s.players {
		if p.GuildID != guildID {
			continue
		}
		if len(p.PlayerID) >= len(prefix) && p.PlayerID[:len(prefix)] == prefix {
			out = append(out, p)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (s *fakePlayerStore) FindRecent(guildID string, since time.Time, limit int) ([]*models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Player
	for _, p := range s.players {
		if p.GuildID == guildID && p.LastSeenAt.After(since) {
			out = append(out, p)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (s *fakePlayerStore) Upsert(guildID, playerID, name, platform string) error {
	s.add(guildID, playerID, name, time.Now())
	return nil
}

func (s *fakePlayerStore) UpdateIdentifier(guildID, oldID, newID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.players[guildID+"_"+oldID]; ok {
		delete(s.players, guildID+"_"+oldID)
		p.PlayerID = newID
		s.players[guildID+"_"+newID] = p
	}
	return nil
}

type fakeSessionView struct {
	lifecycles map[string]string // guildID_playerID -> name
	online     map[string]map[string]string
}

func (v *fakeSessionView) LifecycleName(guildID, playerID string) string {
	return v.lifecycles[guildID+"_"+playerID]
}

func (v *fakeSessionView) OnlineSessions(guildID string) map[string]string {
	return v.online[guildID]
}

func testResolver(store PlayerStore) *Resolver {
	logger := pterm.DefaultLogger.WithLevel(pterm.LogLevelTrace)
	return NewResolver(store, logger)
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"TestPlayer", "TestPlayer"},
		{"Cool%20Guy", "Cool Guy"},
		{"Double%2520Encoded", "Double Encoded"},
		{"Plus+Separated", "Plus Separated"},
		{"[EU]Tag_Name-01", "[EU]Tag_Name-01"},
		{"Bad\x00Chars<>!", "BadChars"},
		{"  spaced   out  ", "spaced out"},
	}

	for _, tc := range tests {
		if got := NormalizeName(tc.in); got != tc.want {
			t.Errorf("NormalizeName(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestAcceptable(t *testing.T) {
	if Acceptable("") {
		t.Error("Empty name should not be acceptable")
	}
	if Acceptable("Unknown Player") {
		t.Error("'Unknown Player' should not be acceptable")
	}
	if Acceptable("PlayerABC1DEF2") {
		t.Error("Placeholder name should not be acceptable")
	}
	if !Acceptable("RealName") {
		t.Error("Real name should be acceptable")
	}
}

func TestPlaceholder(t *testing.T) {
	if got := Placeholder("abc123def456"); got != "PlayerABC1F456" {
		t.Errorf("Expected 'PlayerABC1F456', got %q", got)
	}
	if got := Placeholder("abcd"); got != "PlayerABCD" {
		t.Errorf("Expected 'PlayerABCD', got %q", got)
	}
	if !placeholderRe.MatchString(Placeholder("abc123def456")) {
		t.Error("Generated placeholder should match the placeholder pattern")
	}
}

func TestResolver_ExactStoreHit(t *testing.T) {
	store := newFakePlayerStore()
	store.add("g1", "abc123def456", "StoredName", time.Now())
	resolver := testResolver(store)
	defer resolver.Close()

	if got := resolver.Resolve("g1", "abc123def456"); got != "StoredName" {
		t.Errorf("Expected 'StoredName', got %q", got)
	}
}

func TestResolver_LifecycleBeatsStore(t *testing.T) {
	store := newFakePlayerStore()
	store.add("g1", "abc123def456", "OldStored", time.Now())
	resolver := testResolver(store)
	defer resolver.Close()

	resolver.SetSessionView(&fakeSessionView{
		lifecycles: map[string]string{"g1_abc123def456": "Live%20Name"},
	})

	if got := resolver.Resolve("g1", "abc123def456"); got != "Live Name" {
		t.Errorf("Expected 'Live Name', got %q", got)
	}
}

func TestResolver_PrefixFallback(t *testing.T) {
	store := newFakePlayerStore()
	// Stored under a truncated identifier; the log now carries the full one.
	store.add("g1", "abc123def456", "PrefixName", time.Now())
	resolver := testResolver(store)
	defer resolver.Close()

	if got := resolver.Resolve("g1", "abc123def456789012"); got != "PrefixName" {
		t.Errorf("Expected 'PrefixName', got %q", got)
	}
}

func TestResolver_OnlineSessionFallback(t *testing.T) {
	store := newFakePlayerStore()
	resolver := testResolver(store)
	defer resolver.Close()

	resolver.SetSessionView(&fakeSessionView{
		online: map[string]map[string]string{
			"g1": {"ffaa1122bbcc": "OnlineBuddy"},
		},
	})

	if got := resolver.Resolve("g1", "ffaa1122dddd"); got != "OnlineBuddy" {
		t.Errorf("Expected 'OnlineBuddy', got %q", got)
	}
}

func TestResolver_PlaceholderFallback(t *testing.T) {
	store := newFakePlayerStore()
	resolver := testResolver(store)
	defer resolver.Close()

	got := resolver.Resolve("g1", "abc123def456")
	if got != "PlayerABC1F456" {
		t.Errorf("Expected placeholder 'PlayerABC1F456', got %q", got)
	}

	// Placeholder results must be stable across calls.
	if again := resolver.Resolve("g1", "abc123def456"); again != got {
		t.Errorf("Expected stable placeholder, got %q then %q", got, again)
	}
}

func TestResolver_PlaceholderSuperseded(t *testing.T) {
	store := newFakePlayerStore()
	resolver := testResolver(store)
	defer resolver.Close()

	if got := resolver.Resolve("g1", "abc123def456"); !placeholderRe.MatchString(got) {
		t.Fatalf("Expected placeholder, got %q", got)
	}
	resolver.mu.Lock()
	cached := resolver.cache[cacheKey("g1", "abc123def456")]
	resolver.mu.Unlock()
	if !placeholderRe.MatchString(cached) {
		t.Errorf("Expected placeholder in cache, got %q", cached)
	}

	// The cached placeholder never short-circuits: once the real name lands
	// in the store, resolution must pick it up and overwrite the cache.
	store.add("g1", "abc123def456", "LateName", time.Now())
	if got := resolver.Resolve("g1", "abc123def456"); got != "LateName" {
		t.Errorf("Expected 'LateName' after store update, got %q", got)
	}
}

func TestResolver_RecordName(t *testing.T) {
	store := newFakePlayerStore()
	resolver := testResolver(store)
	defer resolver.Close()

	resolver.RecordName("g1", "abc123def456", "Fresh%20Name", "PS5")

	if got := resolver.Resolve("g1", "abc123def456"); got != "Fresh Name" {
		t.Errorf("Expected 'Fresh Name', got %q", got)
	}

	stored, _ := store.FindExact("g1", "abc123def456")
	if stored == nil || stored.Name != "Fresh Name" {
		t.Errorf("Expected persisted name 'Fresh Name', got %+v", stored)
	}
}

func TestResolver_RecordName_RejectsPlaceholder(t *testing.T) {
	store := newFakePlayerStore()
	resolver := testResolver(store)
	defer resolver.Close()

	resolver.RecordName("g1", "abc123def456", "PlayerABC1F456", "PS5")

	stored, _ := store.FindExact("g1", "abc123def456")
	if stored != nil {
		t.Errorf("Placeholder must not be persisted, got %+v", stored)
	}
}

func TestResolver_ScheduleReresolve(t *testing.T) {
	store := newFakePlayerStore()
	resolver := testResolver(store)
	defer resolver.Close()
	resolver.SetRetryDelay(10 * time.Millisecond)

	applied := make(chan string, 1)
	resolver.ScheduleReresolve("g1", "abc123def456", func(name string) {
		applied <- name
	})

	// The real name arrives between the placeholder event and the retry.
	store.add("g1", "abc123def456", "LateArrival", time.Now())

	select {
	case name := <-applied:
		if name != "LateArrival" {
			t.Errorf("Expected 'LateArrival', got %q", name)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for delayed re-resolution")
	}
}

func TestResolver_CloseCancelsTimers(t *testing.T) {
	store := newFakePlayerStore()
	resolver := testResolver(store)
	resolver.SetRetryDelay(10 * time.Millisecond)

	applied := make(chan string, 1)
	resolver.ScheduleReresolve("g1", "abc123def456", func(name string) {
		applied <- name
	})
	resolver.Close()
	store.add("g1", "abc123def456", "TooLate", time.Now())

	select {
	case name := <-applied:
		t.Errorf("Expected no callback after Close, got %q", name)
	case <-time.After(100 * time.Millisecond):
	}
}
