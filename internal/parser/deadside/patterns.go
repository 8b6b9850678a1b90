package deadside

import "regexp"

// pattern binds one event kind to its compiled matcher and the names of its
// capture groups, in group order. Patterns are evaluated uniformly per line;
// a non-matching line simply yields nothing for that kind.
type pattern struct {
	kind     EventKind
	re       *regexp.Regexp
	captures []string
}

// Connection patterns follow the engine's LogNet/LogOnline wire format. The
// join request carries the EOS identifier, the URL-encoded player name and an
// optional platformid token ("PS5:3566..." style, truncated at the first
// colon during capture post-processing).
var patternTable = []pattern{
	{
		kind:     EventConnectIntent,
		re:       regexp.MustCompile(`(?i)LogNet: Join request: /Game/Maps/world_\d+/World_\d+\?.*?eosid=\|([a-f0-9]+).*?Name=([^&?\s]+)(?:.*?platformid=([^&?\s]+))?`),
		captures: []string{"player_id", "name", "platform"},
	},
	{
		kind:     EventConnectConfirm,
		re:       regexp.MustCompile(`(?i)LogOnline: Warning: Player \|([a-f0-9]+) successfully registered!`),
		captures: []string{"player_id"},
	},
	{
		kind:     EventDisconnect,
		re:       regexp.MustCompile(`(?i)UChannel::Close: Sending CloseBunch.*?UniqueId: EOS:\|([a-f0-9]+)`),
		captures: []string{"player_id"},
	},
	{
		kind:     EventMissionState,
		re:       regexp.MustCompile(`(?i)LogSFPS: Mission (GA_[A-Za-z0-9_]+) switched to ([A-Z_]+)`),
		captures: []string{"mission_id", "state"},
	},
	{
		kind:     EventMissionRespawn,
		re:       regexp.MustCompile(`(?i)LogSFPS: Mission (GA_[A-Za-z0-9_]+) will respawn in (\d+)`),
		captures: []string{"mission_id", "seconds"},
	},
	{
		kind: EventAirdropAnnounced,
		re:   regexp.MustCompile(`(?i)LogSFPS:.*airdrop.*spawn`),
	},
	{
		kind: EventAirdropActive,
		re:   regexp.MustCompile(`(?i)LogSFPS:.*airdrop.*flying`),
	},
	{
		kind: EventHelicrashAnnounced,
		re:   regexp.MustCompile(`(?i)LogSFPS:.*helicrash.*spawn`),
	},
	{
		kind: EventHelicrashActive,
		re:   regexp.MustCompile(`(?i)LogSFPS:.*helicopter.*crash`),
	},
	{
		kind: EventTraderAnnounced,
		re:   regexp.MustCompile(`(?i)LogSFPS:.*trader.*spawn`),
	},
	{
		kind: EventTraderActive,
		re:   regexp.MustCompile(`(?i)LogSFPS:.*trader.*arrived`),
	},
	{
		kind:     EventVehicleSpawn,
		re:       regexp.MustCompile(`(?i)LogSFPS: \[ASFPSGameMode::NewVehicle_Add\] Add vehicle (BP_SFPSVehicle_[A-Za-z0-9_]+)`),
		captures: []string{"vehicle"},
	},
	{
		kind:     EventVehicleDel,
		re:       regexp.MustCompile(`(?i)LogSFPS: \[ASFPSGameMode::NewVehicle_Del\] Del vehicle (BP_SFPSVehicle_[A-Za-z0-9_]+)`),
		captures: []string{"vehicle"},
	},
	{
		kind:     EventMaxPlayerCount,
		re:       regexp.MustCompile(`(?i)MaxPlayerCount=(\d+)`),
		captures: []string{"value"},
	},
	{
		kind:     EventServerName,
		re:       regexp.MustCompile(`(?i)ServerName=([^,\s]+)`),
		captures: []string{"value"},
	},
}

// timestampRe extracts the engine's fixed-width timestamp prefix,
// e.g. [2025.05.30-12.20.15:000]. The raw token sorts lexicographically
// in chronological order, so it is used as an ordering key verbatim.
var timestampRe = regexp.MustCompile(`\[(\d{4}\.\d{2}\.\d{2}-\d{2}\.\d{2}\.\d{2}:\d{3})\]`)
