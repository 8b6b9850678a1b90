package deadside

import "testing"

func TestMissionName_Known(t *testing.T) {
	tests := []struct {
		id   string
		name string
	}{
		{"GA_Airport_mis_01_SFPSACMission", "Airport Mission #1"},
		{"GA_Military_02_Mis1", "Military Base Mission #2"},
		{"GA_KhimMash_Mis_02", "Chemical Plant Mission #2"},
		{"GA_Bunker_01_Mis1", "Underground Bunker Mission"},
		{"GA_Dubovoe_0_Mis_1", "Dubovoe Resource Mission"},
	}

	for _, tc := range tests {
		if got := MissionName(tc.id); got != tc.name {
			t.Errorf("MissionName(%s): expected %q, got %q", tc.id, tc.name, got)
		}
	}
}

func TestMissionName_FallbackByLocation(t *testing.T) {
	tests := []struct {
		id   string
		name string
	}{
		{"GA_Airport_mis_99_SFPSACMission", "Airport Sector (SFPSACMission)"},
		{"GA_Military_99_Mis1", "Military Operation (Mis1)"},
		{"GA_PromZone_Mis_99", "Industrial Raid (99)"},
		{"GA_KhimMash_Mis_99", "Chemical Plant (99)"},
		{"GA_Bunker_99_Mis1", "Bunker Complex (Mis1)"},
		{"GA_Sawmill_99_Mis1", "Sawmill Operation (Mis1)"},
	}

	for _, tc := range tests {
		if got := MissionName(tc.id); got != tc.name {
			t.Errorf("MissionName(%s): expected %q, got %q", tc.id, tc.name, got)
		}
	}
}

func TestMissionName_FallbackReadable(t *testing.T) {
	if got := MissionName("GA_Novaya_Mis_1"); got != "Novaya Operation" {
		t.Errorf("Expected 'Novaya Operation', got %q", got)
	}
}

func TestMissionLevel(t *testing.T) {
	tests := []struct {
		id    string
		level int
	}{
		{"GA_Military_02_Mis1", 5},
		{"GA_Bunker_01_Mis1", 5},
		{"GA_KhimMash_Mis_01", 5},
		{"GA_Airport_mis_01_SFPSACMission", 4},
		{"GA_PromZone_Mis_01", 4},
		{"GA_Kamensk_Mis_1", 4},
		{"GA_Ind_01_m1", 3},
		{"GA_Sawmill_01_Mis1", 2},
		{"GA_Lighthouse_02_Mis1", 2},
		{"GA_Elevator_Mis_1", 2},
		{"GA_Beregovoy_Mis1", 1},
		{"GA_Bochki_Mis_1", 1},
	}

	for _, tc := range tests {
		if got := MissionLevel(tc.id); got != tc.level {
			t.Errorf("MissionLevel(%s): expected %d, got %d", tc.id, tc.level, got)
		}
	}
}
