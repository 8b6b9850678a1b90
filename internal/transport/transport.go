package transport

import (
	"context"
	"errors"
	"fmt"
)

// SourceDescriptor identifies one log file to fetch: the scope it belongs to
// plus where the file lives. Host empty means the path is local.
type SourceDescriptor struct {
	GuildID  string
	ServerID string
	Host     string
	Port     int
	Username string
	Password string
	LogPath  string
}

// Key returns the scope key used by the cursor store and the scanner.
func (d SourceDescriptor) Key() string {
	return d.GuildID + "_" + d.ServerID
}

// Remote reports whether the descriptor points at an SFTP host.
func (d SourceDescriptor) Remote() bool {
	return d.Host != ""
}

// ErrNoContent signals that the fetcher could not produce any log content.
// Callers skip the scan cycle instead of treating it as a failure.
var ErrNoContent = errors.New("no log content available")

// Error wraps a transport failure with the source it belongs to.
type Error struct {
	Source string
	Op     string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transport %s for %s: %v", e.Op, e.Source, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Fetcher retrieves the full current content of a source's log file. The
// returned content is the whole file: the scanner derives the new slice from
// its own cursor.
type Fetcher interface {
	Fetch(ctx context.Context, desc SourceDescriptor) (string, error)
}

// Chain tries each fetcher in order, returning the first successful content.
// Typical wiring is SFTP first, local fallback second.
func Chain(fetchers ...Fetcher) Fetcher {
	return chainFetcher(fetchers)
}

type chainFetcher []Fetcher

func (c chainFetcher) Fetch(ctx context.Context, desc SourceDescriptor) (string, error) {
	var lastErr error
	for _, f := range c {
		content, err := f.Fetch(ctx, desc)
		if err == nil {
			return content, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = ErrNoContent
	}
	return "", lastErr
}
