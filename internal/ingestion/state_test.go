package ingestion

import "testing"

func TestStateStore_QueueConfirmDisconnect(t *testing.T) {
	s := NewStateStore()

	s.Queue("g1", "s1", "p1", "Alice", "PS5")
	if q := s.QueuedCount("g1", "s1"); q != 1 {
		t.Errorf("Expected 1 queued, got %d", q)
	}
	if o := s.OnlineCount("g1", "s1"); o != 0 {
		t.Errorf("Expected 0 online, got %d", o)
	}

	session, hadIntent := s.Confirm("g1", "s1", "p1", "fallback")
	if !hadIntent {
		t.Error("Expected intent to precede confirm")
	}
	if session.Name != "Alice" {
		t.Errorf("Expected intent name 'Alice', got %q", session.Name)
	}
	if o := s.OnlineCount("g1", "s1"); o != 1 {
		t.Errorf("Expected 1 online, got %d", o)
	}
	if q := s.QueuedCount("g1", "s1"); q != 0 {
		t.Errorf("Expected 0 queued after confirm, got %d", q)
	}

	session, wasOnline := s.Disconnect("g1", "s1", "p1")
	if !wasOnline {
		t.Error("Expected online disconnect")
	}
	if session.Name != "Alice" {
		t.Errorf("Expected disconnected name 'Alice', got %q", session.Name)
	}
	if o := s.OnlineCount("g1", "s1"); o != 0 {
		t.Errorf("Expected 0 online after disconnect, got %d", o)
	}
}

func TestStateStore_DisconnectRetainsSession(t *testing.T) {
	s := NewStateStore()

	s.Queue("g1", "s1", "p1", "Foo", "PS5")
	s.Confirm("g1", "s1", "p1", "")
	s.Disconnect("g1", "s1", "p1")

	// The offline record keeps the name for later lookups.
	if name := s.LifecycleName("g1", "p1"); name != "Foo" {
		t.Errorf("Expected retained name 'Foo', got %q", name)
	}
	if online := s.OnlineSessions("g1"); len(online) != 0 {
		t.Errorf("Offline session must not count as online, got %v", online)
	}

	sessions := s.Sessions("g1", "s1")
	if len(sessions) != 1 {
		t.Fatalf("Expected 1 retained session, got %d", len(sessions))
	}
	if sessions[0].State != StateOffline {
		t.Errorf("Expected offline state, got %q", sessions[0].State)
	}
}

func TestStateStore_ReconnectKeepsIdentity(t *testing.T) {
	s := NewStateStore()

	s.Queue("g1", "s1", "p1", "Foo", "PS5")
	s.Confirm("g1", "s1", "p1", "")
	s.Disconnect("g1", "s1", "p1")

	session, _ := s.Confirm("g1", "s1", "p1", "fallback")
	if session.Name != "Foo" {
		t.Errorf("Expected reconnect to keep name 'Foo', got %q", session.Name)
	}
	if session.Platform != "PS5" {
		t.Errorf("Expected reconnect to keep platform 'PS5', got %q", session.Platform)
	}
	if o := s.OnlineCount("g1", "s1"); o != 1 {
		t.Errorf("Expected 1 online after reconnect, got %d", o)
	}
}

func TestStateStore_ConfirmWithoutIntent(t *testing.T) {
	s := NewStateStore()

	session, hadIntent := s.Confirm("g1", "s1", "p1", "Fallback")
	if hadIntent {
		t.Error("Expected no prior intent")
	}
	if session.Name != "Fallback" {
		t.Errorf("Expected fallback name, got %q", session.Name)
	}
	if session.Platform != "Unknown" {
		t.Errorf("Expected platform 'Unknown', got %q", session.Platform)
	}
}

func TestStateStore_QueuedDisconnectNotOnline(t *testing.T) {
	s := NewStateStore()

	s.Queue("g1", "s1", "p1", "Alice", "PS5")
	_, wasOnline := s.Disconnect("g1", "s1", "p1")
	if wasOnline {
		t.Error("Disconnect of a queued player must not count as online")
	}
	// The stray disconnect changes nothing: the queue entry stays.
	if q := s.QueuedCount("g1", "s1"); q != 1 {
		t.Errorf("Expected queue entry to survive stray disconnect, got %d", q)
	}
}

func TestStateStore_ScopeIsolation(t *testing.T) {
	s := NewStateStore()

	s.Queue("g1", "s1", "p1", "Alice", "PS5")
	s.Confirm("g1", "s1", "p1", "")
	s.Queue("g1", "s2", "p2", "Bob", "XSX")

	if o := s.OnlineCount("g1", "s1"); o != 1 {
		t.Errorf("Expected 1 online on s1, got %d", o)
	}
	if o := s.OnlineCount("g1", "s2"); o != 0 {
		t.Errorf("Expected 0 online on s2, got %d", o)
	}

	s.Reset("g1", "s1")
	if o := s.OnlineCount("g1", "s1"); o != 0 {
		t.Errorf("Expected 0 online after reset, got %d", o)
	}
	if q := s.QueuedCount("g1", "s2"); q != 1 {
		t.Errorf("Reset of s1 must not touch s2, got %d queued", q)
	}
}

func TestStateStore_OnlineSessionsAcrossServers(t *testing.T) {
	s := NewStateStore()

	s.Queue("g1", "s1", "p1", "Alice", "PS5")
	s.Confirm("g1", "s1", "p1", "")
	s.Queue("g1", "s2", "p2", "Bob", "XSX")
	s.Confirm("g1", "s2", "p2", "")
	s.Queue("g2", "s1", "p3", "Carol", "PC")
	s.Confirm("g2", "s1", "p3", "")

	online := s.OnlineSessions("g1")
	if len(online) != 2 {
		t.Fatalf("Expected 2 online sessions in g1, got %d", len(online))
	}
	if online["p1"] != "Alice" || online["p2"] != "Bob" {
		t.Errorf("Unexpected online sessions: %v", online)
	}

	if name := s.LifecycleName("g1", "p2"); name != "Bob" {
		t.Errorf("Expected lifecycle name 'Bob', got %q", name)
	}
	if name := s.LifecycleName("g1", "p3"); name != "" {
		t.Errorf("Expected no cross-guild lifecycle name, got %q", name)
	}
}

func TestStateStore_VehicleFloor(t *testing.T) {
	s := NewStateStore()

	s.VehicleDel("g1", "s1")
	if c := s.VehicleCount("g1", "s1"); c != 0 {
		t.Errorf("Vehicle count must not go negative, got %d", c)
	}

	s.VehicleAdd("g1", "s1")
	s.VehicleAdd("g1", "s1")
	s.VehicleDel("g1", "s1")
	if c := s.VehicleCount("g1", "s1"); c != 1 {
		t.Errorf("Expected vehicle count 1, got %d", c)
	}
}

func TestStateStore_Rename(t *testing.T) {
	s := NewStateStore()

	s.Queue("g1", "s1", "p1", "PlayerAAAA1111", "PS5")
	s.Confirm("g1", "s1", "p1", "")

	if !s.Rename("g1", "s1", "p1", "RealName") {
		t.Error("Expected rename of live session to succeed")
	}
	if name := s.LifecycleName("g1", "p1"); name != "RealName" {
		t.Errorf("Expected 'RealName', got %q", name)
	}
	if s.Rename("g1", "s1", "ghost", "X") {
		t.Error("Rename of missing session must report false")
	}
}
