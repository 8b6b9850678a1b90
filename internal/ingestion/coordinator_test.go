package ingestion

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pterm/pterm"

	"deadwatch/internal/database/models"
	"deadwatch/internal/transport"
)

type fakeFetcher struct {
	mu      sync.Mutex
	content map[string]string // source key -> content
	fetches int
}

func (f *fakeFetcher) Fetch(_ context.Context, desc transport.SourceDescriptor) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if content, ok := f.content[desc.Key()]; ok {
		return content, nil
	}
	return "", transport.ErrNoContent
}

func (f *fakeFetcher) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func newCoordinatorFixture(t *testing.T) (*Coordinator, *fixture, *fakeFetcher) {
	t.Helper()
	f := newFixture(t)
	logger := pterm.DefaultLogger.WithLevel(pterm.LogLevelTrace)
	fetcher := &fakeFetcher{content: make(map[string]string)}
	coordinator := NewCoordinator(f.configs, fetcher, f.scanner, logger, time.Hour)
	return coordinator, f, fetcher
}

func TestCoordinator_ScanNow(t *testing.T) {
	coordinator, f, fetcher := newCoordinatorFixture(t)

	f.configs.Create(&models.GuildConfig{GuildID: "g1", ServerID: "s1", LogPath: "a.log"})
	fetcher.content["g1_s1"] = intentLine + "\n" + confirmLine + "\n"

	coordinator.ScanNow(context.Background())

	// First pass is a cold start: state built, nothing announced.
	if online := f.state.OnlineCount("g1", "s1"); online != 1 {
		t.Errorf("Expected 1 online after scan, got %d", online)
	}
	if len(f.notifier.all()) != 0 {
		t.Errorf("Expected suppressed cold start, got %d notifications", len(f.notifier.all()))
	}

	statuses := coordinator.Status()
	if len(statuses) != 1 {
		t.Fatalf("Expected 1 source status, got %d", len(statuses))
	}
	if statuses[0].SourceKey != "g1_s1" {
		t.Errorf("Unexpected source key %q", statuses[0].SourceKey)
	}
	if statuses[0].NewLines != 2 {
		t.Errorf("Expected 2 new lines in status, got %d", statuses[0].NewLines)
	}
}

func TestCoordinator_FetchFailureRecorded(t *testing.T) {
	coordinator, f, _ := newCoordinatorFixture(t)

	f.configs.Create(&models.GuildConfig{GuildID: "g1", ServerID: "s1", LogPath: "a.log"})

	coordinator.ScanNow(context.Background())

	statuses := coordinator.Status()
	if len(statuses) != 1 {
		t.Fatalf("Expected 1 source status, got %d", len(statuses))
	}
	if statuses[0].LastError == "" {
		t.Error("Expected fetch failure to be recorded in status")
	}
}

func TestCoordinator_StartStop(t *testing.T) {
	coordinator, f, fetcher := newCoordinatorFixture(t)

	f.configs.Create(&models.GuildConfig{GuildID: "g1", ServerID: "s1", LogPath: "a.log"})
	fetcher.content["g1_s1"] = intentLine + "\n"

	if err := coordinator.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !coordinator.IsRunning() {
		t.Error("Expected coordinator to report running")
	}

	// The initial pass runs synchronously inside the loop goroutine.
	deadline := time.After(2 * time.Second)
	for fetcher.fetchCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("Timed out waiting for initial scan pass")
		case <-time.After(10 * time.Millisecond):
		}
	}

	coordinator.Stop()
	if coordinator.IsRunning() {
		t.Error("Expected coordinator to report stopped")
	}
}

func TestCoordinator_KickScansSource(t *testing.T) {
	coordinator, f, fetcher := newCoordinatorFixture(t)

	f.configs.Create(&models.GuildConfig{GuildID: "g1", ServerID: "s1", LogPath: "a.log"})
	fetcher.content["g1_s1"] = intentLine + "\n"

	if err := coordinator.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer coordinator.Stop()

	deadline := time.After(2 * time.Second)
	for fetcher.fetchCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("Timed out waiting for initial pass")
		case <-time.After(10 * time.Millisecond):
		}
	}
	initial := fetcher.fetchCount()

	coordinator.Kick("g1_s1")

	deadline = time.After(2 * time.Second)
	for fetcher.fetchCount() == initial {
		select {
		case <-deadline:
			t.Fatal("Timed out waiting for kicked scan")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
