package deadside

import (
	"net/url"
	"strings"

	"github.com/pterm/pterm"
)

// Parser matches Deadside server log lines against the declarative pattern
// table. Matching is case-insensitive and never fails: a line that matches
// nothing yields an empty result, a line that matches a kind's keyword but
// produces a malformed capture is skipped for that kind only.
type Parser struct {
	logger *pterm.Logger
}

// NewParser creates a new Deadside log parser. Patterns are compiled once at
// package init.
func NewParser(logger *pterm.Logger) *Parser {
	return &Parser{logger: logger}
}

// Name returns the parser identifier.
func (p *Parser) Name() string {
	return "deadside"
}

// Timestamp extracts the sortable timestamp token from a line, or "" when
// the line carries none.
func (p *Parser) Timestamp(line string) string {
	if m := timestampRe.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	return ""
}

// Match evaluates every pattern against the line and returns all raw events
// it produces. Domain patterns are mutually near-exclusive so most lines
// yield zero or one event.
func (p *Parser) Match(line string) []RawEvent {
	if line == "" {
		return nil
	}

	var events []RawEvent
	ts := p.Timestamp(line)

	for _, pat := range patternTable {
		m := pat.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		fields := make(map[string]string, len(pat.captures))
		for i, name := range pat.captures {
			if i+1 < len(m) {
				fields[name] = m[i+1]
			}
		}

		ev := RawEvent{
			Kind:      pat.kind,
			Fields:    fields,
			Line:      line,
			Timestamp: ts,
		}
		if !p.refine(&ev) {
			p.logger.Debug("Skipping malformed capture",
				p.logger.Args("kind", string(pat.kind), "line_preview", preview(line, 120)))
			continue
		}
		events = append(events, ev)
	}

	return events
}

// refine post-processes captured fields per kind. Returning false drops the
// event as a parse anomaly without aborting the batch.
func (p *Parser) refine(ev *RawEvent) bool {
	switch ev.Kind {
	case EventConnectIntent:
		if ev.Fields["player_id"] == "" {
			return false
		}
		ev.Fields["name"] = decodeName(ev.Fields["name"])
		ev.Fields["platform"] = platformToken(ev.Fields["platform"])
	case EventConnectConfirm, EventDisconnect:
		if ev.Fields["player_id"] == "" {
			return false
		}
	case EventMissionState:
		if ev.Fields["mission_id"] == "" || ev.Fields["state"] == "" {
			return false
		}
	case EventMissionRespawn:
		if ev.Fields["mission_id"] == "" {
			return false
		}
	case EventMaxPlayerCount, EventServerName:
		if ev.Fields["value"] == "" {
			return false
		}
	}
	return true
}

// decodeName applies one round of percent-decoding and space normalization
// to a captured player name. Deeper decoding (multi-encoded names) is the
// identity resolver's job.
func decodeName(name string) string {
	decoded, err := url.PathUnescape(name)
	if err != nil {
		decoded = name
	}
	decoded = strings.TrimSpace(strings.ReplaceAll(decoded, "+", " "))
	if decoded == "" {
		return strings.TrimSpace(name)
	}
	return decoded
}

// platformToken truncates a platformid capture at its first delimiter,
// e.g. "PS5:3566759921101398874" becomes "PS5". Empty captures map to
// "Unknown".
func platformToken(platform string) string {
	if platform == "" {
		return "Unknown"
	}
	if idx := strings.Index(platform, ":"); idx != -1 {
		platform = platform[:idx]
	}
	if platform == "" {
		return "Unknown"
	}
	return platform
}

// preview truncates a line for log output.
func preview(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
