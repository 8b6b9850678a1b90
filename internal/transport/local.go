package transport

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pterm/pterm"
)

// LocalFetcher reads the log straight from the filesystem. It backs local
// deployments and doubles as the development fallback when the SFTP host is
// unreachable: with sample synthesis enabled, a missing file is seeded with a
// small realistic log so the pipeline can be exercised end to end.
type LocalFetcher struct {
	logger        *pterm.Logger
	sampleEnabled bool
}

func NewLocalFetcher(logger *pterm.Logger, sampleEnabled bool) *LocalFetcher {
	return &LocalFetcher{logger: logger, sampleEnabled: sampleEnabled}
}

func (f *LocalFetcher) Fetch(_ context.Context, desc SourceDescriptor) (string, error) {
	data, err := os.ReadFile(desc.LogPath)
	if err == nil {
		return string(data), nil
	}

	if !os.IsNotExist(err) {
		return "", &Error{Source: desc.Key(), Op: "read", Err: err}
	}

	if !f.sampleEnabled {
		return "", &Error{Source: desc.Key(), Op: "read", Err: ErrNoContent}
	}

	f.logger.Warn("Log file missing, synthesizing sample content",
		f.logger.Args("source", desc.Key(), "path", desc.LogPath))

	content := SampleLog()
	if dir := filepath.Dir(desc.LogPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err == nil {
			// Best effort: persisting the sample makes subsequent scans
			// observe a stable, growing file instead of a fresh one.
			_ = os.WriteFile(desc.LogPath, []byte(content), 0o644)
		}
	}
	return content, nil
}

// SampleLog returns a small synthetic server log covering the event kinds
// the pipeline extracts: connection lifecycle, missions, world events,
// vehicles and server configuration.
func SampleLog() string {
	return `[2025.05.30-12.00.00:000] LogInit: ServerName=DevServer, MaxPlayerCount=60
[2025.05.30-12.10.00:000] LogSFPS: [ASFPSGameMode::NewVehicle_Add] Add vehicle BP_SFPSVehicle_Car_Sedan_01 at X=1200 Y=3400
[2025.05.30-12.20.15:000] LogNet: Join request: /Game/Maps/world_1/World_1?eosid=|abc123def456&Name=TestPlayer&platformid=PS5:3566759921101398874
[2025.05.30-12.20.45:000] LogOnline: Warning: Player |abc123def456 successfully registered!
[2025.05.30-12.30.00:000] LogSFPS: Mission GA_Military_02_Mis1 switched to READY
[2025.05.30-12.35.00:000] LogSFPS: Mission GA_Sawmill_01_Mis1 switched to READY
[2025.05.30-12.40.00:000] LogSFPS: AirDrop switched to Flying
[2025.05.30-12.45.00:000] LogSFPS: Mission GA_Military_02_Mis1 will respawn in 1800
[2025.05.30-13.05.02:500] UChannel::Close: Sending CloseBunch. ChIndex == 0. UniqueId: EOS:|abc123def456
`
}
