package deadside

import (
	"fmt"
	"strings"
)

// missionNames maps mission identifiers to their human-readable labels.
// Unmapped identifiers fall back to a generated label (see MissionName).
var missionNames = map[string]string{
	"GA_Airport_mis_01_SFPSACMission": "Airport Mission #1",
	"GA_Airport_mis_02_SFPSACMission": "Airport Mission #2",
	"GA_Airport_mis_03_SFPSACMission": "Airport Mission #3",
	"GA_Airport_mis_04_SFPSACMission": "Airport Mission #4",
	"GA_Military_02_Mis1":             "Military Base Mission #2",
	"GA_Military_03_Mis_01":           "Military Base Mission #3",
	"GA_Military_04_Mis1":             "Military Base Mission #4",
	"GA_Beregovoy_Mis1":               "Beregovoy Settlement Mission",
	"GA_Settle_05_ChernyLog_Mis1":     "Cherny Log Settlement Mission",
	"GA_Ind_01_m1":                    "Industrial Zone Mission #1",
	"GA_Ind_02_Mis_1":                 "Industrial Zone Mission #2",
	"GA_KhimMash_Mis_01":              "Chemical Plant Mission #1",
	"GA_KhimMash_Mis_02":              "Chemical Plant Mission #2",
	"GA_Bunker_01_Mis1":               "Underground Bunker Mission",
	"GA_Sawmill_01_Mis1":              "Sawmill Mission #1",
	"GA_Settle_09_Mis_1":              "Settlement Mission #9",
	"GA_Military_04_Mis_2":            "Military Base Mission #4B",
	"GA_PromZone_6_Mis_1":             "Industrial Zone Mission #6",
	"GA_PromZone_Mis_01":              "Industrial Zone Mission A",
	"GA_PromZone_Mis_02":              "Industrial Zone Mission B",
	"GA_Kamensk_Ind_3_Mis_1":          "Kamensk Industrial Mission",
	"GA_Kamensk_Mis_1":                "Kamensk City Mission #1",
	"GA_Kamensk_Mis_2":                "Kamensk City Mission #2",
	"GA_Kamensk_Mis_3":                "Kamensk City Mission #3",
	"GA_Krasnoe_Mis_1":                "Krasnoe City Mission",
	"GA_Vostok_Mis_1":                 "Vostok City Mission",
	"GA_Lighthouse_02_Mis1":           "Lighthouse Mission #2",
	"GA_Elevator_Mis_1":               "Elevator Complex Mission #1",
	"GA_Elevator_Mis_2":               "Elevator Complex Mission #2",
	"GA_Sawmill_02_1_Mis1":            "Sawmill Mission #2A",
	"GA_Sawmill_03_Mis_01":            "Sawmill Mission #3",
	"GA_Bochki_Mis_1":                 "Barrel Storage Mission",
	"GA_Dubovoe_0_Mis_1":              "Dubovoe Resource Mission",
}

// MissionName converts a mission identifier to a readable label. Unknown
// identifiers get a label derived from recognizable substrings so that new
// missions added server-side still render sensibly.
func MissionName(missionID string) string {
	if name, ok := missionNames[missionID]; ok {
		return name
	}

	suffix := missionID
	if idx := strings.LastIndex(missionID, "_"); idx != -1 {
		suffix = missionID[idx+1:]
	}

	switch {
	case strings.Contains(missionID, "_Airport_"):
		return fmt.Sprintf("Airport Sector (%s)", suffix)
	case strings.Contains(missionID, "_Military_"):
		return fmt.Sprintf("Military Operation (%s)", suffix)
	case strings.Contains(missionID, "_Ind_"), strings.Contains(missionID, "_PromZone_"):
		return fmt.Sprintf("Industrial Raid (%s)", suffix)
	case strings.Contains(missionID, "_KhimMash_"):
		return fmt.Sprintf("Chemical Plant (%s)", suffix)
	case strings.Contains(missionID, "_Bunker_"):
		return fmt.Sprintf("Bunker Complex (%s)", suffix)
	case strings.Contains(missionID, "_Sawmill_"):
		return fmt.Sprintf("Sawmill Operation (%s)", suffix)
	}

	// Extract readable alphabetic parts from the identifier.
	trimmed := strings.ReplaceAll(missionID, "GA_", "")
	trimmed = strings.ReplaceAll(trimmed, "_Mis", "")
	trimmed = strings.ReplaceAll(trimmed, "_mis", "")
	var readable []string
	for _, part := range strings.Split(trimmed, "_") {
		if part != "" && isAlpha(part) {
			readable = append(readable, capitalize(part))
		}
	}
	if len(readable) > 0 {
		return strings.Join(readable, " ") + " Operation"
	}
	return "Operation " + suffix
}

// MissionLevel returns the difficulty tier (1 low to 5 high) for a mission
// identifier, keyed off location keywords. Unknown locations default to 1.
func MissionLevel(missionID string) int {
	lower := strings.ToLower(missionID)
	switch {
	case containsAny(lower, "military", "bunker", "khimmash"):
		return 5
	case containsAny(lower, "airport", "promzone", "kamensk"):
		return 4
	case containsAny(lower, "ind_", "industrial"):
		return 3
	case containsAny(lower, "sawmill", "lighthouse", "elevator"):
		return 2
	}
	return 1
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

func isAlpha(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
