// Copyright 2026 The Till Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"encoding/json"
	"testing"
)

func TestParseUserID(t *testing.T) {
	valid := []string{"@maria:till.local", "@a:b", "@shop/admin:matrix.example.com:8448"}
	for _, raw := range valid {
		if _, err := ParseUserID(raw); err != nil {
			t.Errorf("ParseUserID(%q) failed: %v", raw, err)
		}
	}

	invalid := []string{"", "maria:till.local", "@:till.local", "@maria", "@maria:"}
	for _, raw := range invalid {
		if _, err := ParseUserID(raw); err == nil {
			t.Errorf("ParseUserID(%q) should have failed", raw)
		}
	}
}

func TestUserIDParts(t *testing.T) {
	u := MustParseUserID("@maria:till.local")
	if u.Localpart() != "maria" {
		t.Errorf("Localpart = %q, want %q", u.Localpart(), "maria")
	}
	if u.Server() != "till.local" {
		t.Errorf("Server = %q, want %q", u.Server(), "till.local")
	}
}

func TestParseRoomID(t *testing.T) {
	if _, err := ParseRoomID("!abc:till.local"); err != nil {
		t.Fatalf("ParseRoomID failed: %v", err)
	}
	for _, raw := range []string{"", "abc:till.local", "!:till.local", "!abc", "!abc:"} {
		if _, err := ParseRoomID(raw); err == nil {
			t.Errorf("ParseRoomID(%q) should have failed", raw)
		}
	}
}

func TestParseRoomAlias(t *testing.T) {
	a, err := ParseRoomAlias("#loja:till.local")
	if err != nil {
		t.Fatalf("ParseRoomAlias failed: %v", err)
	}
	if a.Localpart() != "loja" || a.Server() != "till.local" {
		t.Errorf("parts = (%q, %q)", a.Localpart(), a.Server())
	}
	for _, raw := range []string{"", "loja", "#loja", "#:till.local"} {
		if _, err := ParseRoomAlias(raw); err == nil {
			t.Errorf("ParseRoomAlias(%q) should have failed", raw)
		}
	}
}

func TestParseEventID(t *testing.T) {
	if _, err := ParseEventID("$abc123"); err != nil {
		t.Fatalf("ParseEventID failed: %v", err)
	}
	for _, raw := range []string{"", "$", "abc"} {
		if _, err := ParseEventID(raw); err == nil {
			t.Errorf("ParseEventID(%q) should have failed", raw)
		}
	}
}

func TestJSONRoundTrip(t *testing.T) {
	type doc struct {
		User  UserID    `json:"user"`
		Room  RoomID    `json:"room"`
		Alias RoomAlias `json:"alias"`
	}
	original := doc{
		User:  MustParseUserID("@maria:till.local"),
		Room:  MustParseRoomID("!cart1:till.local"),
		Alias: MustParseRoomAlias("#loja:till.local"),
	}
	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded doc
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded != original {
		t.Errorf("round trip mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestRoomIDMapKey(t *testing.T) {
	// /sync responses decode room IDs as JSON object keys; the
	// TextUnmarshaler must validate them in that position too.
	var section map[RoomID]int
	if err := json.Unmarshal([]byte(`{"!a:till.local": 1}`), &section); err != nil {
		t.Fatalf("unmarshal map: %v", err)
	}
	if section[MustParseRoomID("!a:till.local")] != 1 {
		t.Error("room ID map key not decoded")
	}
}
