package deadside

// EventKind identifies one class of domain event extracted from the server log.
type EventKind string

const (
	// Identity / session events (timestamp-ordered before application).
	EventConnectIntent  EventKind = "connect_intent"
	EventConnectConfirm EventKind = "connect_confirm"
	EventDisconnect     EventKind = "disconnect"

	// Mission lifecycle events.
	EventMissionState   EventKind = "mission_state"
	EventMissionRespawn EventKind = "mission_respawn"

	// World events, each with an announced and an active sub-state.
	EventAirdropAnnounced   EventKind = "airdrop_announced"
	EventAirdropActive      EventKind = "airdrop_active"
	EventHelicrashAnnounced EventKind = "helicrash_announced"
	EventHelicrashActive    EventKind = "helicrash_active"
	EventTraderAnnounced    EventKind = "trader_announced"
	EventTraderActive       EventKind = "trader_active"

	// Vehicle pool events (tracked, never notified).
	EventVehicleSpawn EventKind = "vehicle_spawn"
	EventVehicleDel   EventKind = "vehicle_del"

	// Server configuration lines (extracted during cold start).
	EventMaxPlayerCount EventKind = "max_player_count"
	EventServerName     EventKind = "server_name"
)

// IsIdentity reports whether the kind affects player lifecycle state and
// therefore must be applied in chronological order.
func (k EventKind) IsIdentity() bool {
	switch k {
	case EventConnectIntent, EventConnectConfirm, EventDisconnect:
		return true
	}
	return false
}

// RawEvent is the intermediate record produced by pattern matching.
// It lives only within a single scan invocation and is never persisted.
type RawEvent struct {
	Kind   EventKind
	Fields map[string]string
	Line   string
	// Timestamp is the sortable fixed-width token extracted from the line,
	// empty when the line carries none. Used only for ordering.
	Timestamp string
}
