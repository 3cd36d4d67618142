// Copyright 2026 The Till Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
)

const validYAML = `
homeserver_url: http://localhost:6167
server_name: till.local
user_id: "@loja:till.local"
store_room_alias: "#loja:till.local"
data_dir: /var/lib/till
socket_path: /run/till/till.sock
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "till.yaml")
	if err := os.WriteFile(path, []byte(contents), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.UserID.String() != "@loja:till.local" {
		t.Errorf("user_id = %q", cfg.UserID)
	}
	if cfg.StoreRoomAlias.Localpart() != "loja" {
		t.Errorf("store_room_alias localpart = %q", cfg.StoreRoomAlias.Localpart())
	}
	if got := cfg.StorePath(); got != filepath.Join("/var/lib/till", "store.json") {
		t.Errorf("StorePath = %q", got)
	}
}

func TestLoadFileRejectsIncomplete(t *testing.T) {
	_, err := LoadFile(writeConfig(t, "homeserver_url: http://localhost:6167\n"))
	if err == nil {
		t.Fatal("expected validation error for incomplete config")
	}
}

func TestLoadFileRejectsBadUserID(t *testing.T) {
	bad := `
homeserver_url: http://localhost:6167
server_name: till.local
user_id: "loja-without-sigil"
store_room_alias: "#loja:till.local"
data_dir: /var/lib/till
`
	if _, err := LoadFile(writeConfig(t, bad)); err == nil {
		t.Fatal("expected parse error for malformed user_id")
	}
}

func TestLoadRequiresEnv(t *testing.T) {
	os.Unsetenv("TILL_CONFIG")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when TILL_CONFIG is unset")
	}
}
