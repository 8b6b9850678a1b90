package notify

import (
	"context"

	"github.com/pterm/pterm"
)

// LogSink is a Notifier that writes every notification to the structured
// logger. It is the default sink for development and for deployments that
// consume events through the HTTP API instead of a push channel.
type LogSink struct {
	logger *pterm.Logger
}

// NewLogSink creates a log-backed notifier.
func NewLogSink(logger *pterm.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Deliver logs each notification in batch order.
func (s *LogSink) Deliver(_ context.Context, guildID, serverID string, batch []Notification) error {
	for _, n := range batch {
		args := []any{"guild", guildID, "server", serverID, "kind", string(n.Kind)}
		if n.Timestamp != "" {
			args = append(args, "at", n.Timestamp)
		}
		for k, v := range n.Fields {
			args = append(args, k, v)
		}
		s.logger.Info("Event", s.logger.Args(args...))
	}
	return nil
}

// PublishOccupancy logs the occupancy label.
func (s *LogSink) PublishOccupancy(_ context.Context, occ Occupancy) error {
	s.logger.Info("Occupancy", s.logger.Args(
		"guild", occ.GuildID,
		"server", occ.ServerID,
		"label", occ.Label()))
	return nil
}
