package transport

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pterm/pterm"
)

type stubFetcher struct {
	content string
	err     error
}

func (s *stubFetcher) Fetch(_ context.Context, _ SourceDescriptor) (string, error) {
	return s.content, s.err
}

func TestChain_FirstSuccessWins(t *testing.T) {
	chain := Chain(
		&stubFetcher{err: errors.New("remote down")},
		&stubFetcher{content: "local content"},
	)

	content, err := chain.Fetch(context.Background(), SourceDescriptor{})
	if err != nil {
		t.Fatalf("Expected fallback to succeed, got %v", err)
	}
	if content != "local content" {
		t.Errorf("Expected 'local content', got %q", content)
	}
}

func TestChain_AllFail(t *testing.T) {
	wantErr := errors.New("nope")
	chain := Chain(&stubFetcher{err: errors.New("first")}, &stubFetcher{err: wantErr})

	_, err := chain.Fetch(context.Background(), SourceDescriptor{})
	if !errors.Is(err, wantErr) {
		t.Errorf("Expected last error surfaced, got %v", err)
	}
}

func TestLocalFetcher_ReadsFile(t *testing.T) {
	logger := pterm.DefaultLogger.WithLevel(pterm.LogLevelTrace)
	dir := t.TempDir()
	path := filepath.Join(dir, "Deadside.log")
	if err := os.WriteFile(path, []byte("line one\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	fetcher := NewLocalFetcher(logger, false)
	content, err := fetcher.Fetch(context.Background(), SourceDescriptor{
		GuildID: "g1", ServerID: "s1", LogPath: path,
	})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if content != "line one\n" {
		t.Errorf("Unexpected content: %q", content)
	}
}

func TestLocalFetcher_MissingWithoutSample(t *testing.T) {
	logger := pterm.DefaultLogger.WithLevel(pterm.LogLevelTrace)
	fetcher := NewLocalFetcher(logger, false)

	_, err := fetcher.Fetch(context.Background(), SourceDescriptor{
		GuildID: "g1", ServerID: "s1",
		LogPath: filepath.Join(t.TempDir(), "missing.log"),
	})
	if !errors.Is(err, ErrNoContent) {
		t.Errorf("Expected ErrNoContent, got %v", err)
	}
}

func TestLocalFetcher_SampleSynthesis(t *testing.T) {
	logger := pterm.DefaultLogger.WithLevel(pterm.LogLevelTrace)
	fetcher := NewLocalFetcher(logger, true)
	path := filepath.Join(t.TempDir(), "logs", "Deadside.log")

	content, err := fetcher.Fetch(context.Background(), SourceDescriptor{
		GuildID: "g1", ServerID: "s1", LogPath: path,
	})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if content != SampleLog() {
		t.Error("Expected synthesized sample content")
	}

	// The sample is persisted so the next scan sees a stable file.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected sample to be written to disk: %v", err)
	}
	if string(data) != SampleLog() {
		t.Error("Persisted sample differs from returned content")
	}
}

func TestSourceDescriptor_Key(t *testing.T) {
	desc := SourceDescriptor{GuildID: "g1", ServerID: "s1"}
	if desc.Key() != "g1_s1" {
		t.Errorf("Expected 'g1_s1', got %q", desc.Key())
	}
	if desc.Remote() {
		t.Error("Descriptor without host must not be remote")
	}
	desc.Host = "example.com"
	if !desc.Remote() {
		t.Error("Descriptor with host must be remote")
	}
}
