package notify

import (
	"context"
	"fmt"
)

// Kind classifies an outbound notification.
type Kind string

const (
	KindPlayerConnected    Kind = "player_connected"
	KindPlayerDisconnected Kind = "player_disconnected"
	KindMissionReady       Kind = "mission_ready"
	KindAirdrop            Kind = "airdrop"
	KindHelicrash          Kind = "helicrash"
	KindTrader             Kind = "trader"
)

// Notification is one user-visible event produced by a scan. Fields carry the
// kind-specific payload: player name and platform for connection events,
// mission name and level for mission events, a location hint for world events.
type Notification struct {
	Kind      Kind
	Timestamp string
	Fields    map[string]string
}

// Occupancy is the per-server population snapshot published at most once per
// scan, after all events of that scan have been applied.
type Occupancy struct {
	GuildID    string
	ServerID   string
	ServerName string
	Online     int
	Queued     int
	MaxPlayers int
}

// Label renders the occupancy as a channel-name style status string,
// e.g. "Emerald EU | 42/60 | 3 in Queue". The queue segment is omitted
// when nobody is waiting.
func (o Occupancy) Label() string {
	name := o.ServerName
	if name == "" {
		name = o.ServerID
	}
	label := fmt.Sprintf("%s | %d/%d", name, o.Online, o.MaxPlayers)
	if o.Queued > 0 {
		label += fmt.Sprintf(" | %d in Queue", o.Queued)
	}
	return label
}

// Notifier receives the ordered notification batch for one scan. Delivery
// happens strictly after the source cursor has been persisted: a crash
// between persist and delivery loses notifications rather than duplicating
// them on the next scan.
type Notifier interface {
	Deliver(ctx context.Context, guildID, serverID string, batch []Notification) error
	PublishOccupancy(ctx context.Context, occ Occupancy) error
}
