package notify

import "testing"

func TestOccupancy_Label(t *testing.T) {
	occ := Occupancy{
		ServerName: "Emerald EU",
		Online:     42,
		MaxPlayers: 60,
	}
	if got := occ.Label(); got != "Emerald EU | 42/60" {
		t.Errorf("Expected 'Emerald EU | 42/60', got %q", got)
	}
}

func TestOccupancy_Label_WithQueue(t *testing.T) {
	occ := Occupancy{
		ServerName: "Emerald EU",
		Online:     60,
		Queued:     3,
		MaxPlayers: 60,
	}
	if got := occ.Label(); got != "Emerald EU | 60/60 | 3 in Queue" {
		t.Errorf("Expected queue segment, got %q", got)
	}
}

func TestOccupancy_Label_FallsBackToServerID(t *testing.T) {
	occ := Occupancy{
		ServerID:   "srv-1",
		Online:     5,
		MaxPlayers: 50,
	}
	if got := occ.Label(); got != "srv-1 | 5/50" {
		t.Errorf("Expected server ID fallback, got %q", got)
	}
}
