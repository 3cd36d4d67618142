// Copyright 2026 The Till Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/tillworks/till/lib/ref"
)

// Config is the master configuration for the Till storefront service.
type Config struct {
	// HomeserverURL is the base URL of the Matrix homeserver
	// (e.g., "http://localhost:6167").
	HomeserverURL string `yaml:"homeserver_url"`

	// ServerName is the Matrix server name used to construct
	// identifiers (e.g., "till.local").
	ServerName string `yaml:"server_name"`

	// UserID is the fully-qualified Matrix user ID the service
	// authenticates as (e.g., "@loja:till.local").
	UserID ref.UserID `yaml:"user_id"`

	// StoreRoomAlias is the alias of the storefront room the service
	// watches for commands (e.g., "#loja:till.local"). Resolved to a
	// room ID once at startup.
	StoreRoomAlias ref.RoomAlias `yaml:"store_room_alias"`

	// DataDir is where the service keeps durable state. The store
	// database lives at <data_dir>/store.json.
	DataDir string `yaml:"data_dir"`

	// SocketPath is the Unix socket for the CBOR diagnostics
	// protocol. Empty disables the socket.
	SocketPath string `yaml:"socket_path"`
}

// Load loads configuration from the TILL_CONFIG environment variable.
//
// This is the only way to load configuration without an explicit path.
// There are no fallbacks or defaults — if TILL_CONFIG is not set, this
// fails. This ensures deterministic, auditable configuration with no
// hidden overrides.
func Load() (*Config, error) {
	configPath := os.Getenv("TILL_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("TILL_CONFIG environment variable not set; " +
			"set it to the path of your till.yaml config file, or use --config flag")
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. Environment variables
// do not override config values (the access token is a secret, not
// configuration, and is handled separately).
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config from %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.HomeserverURL == "" {
		errs = append(errs, fmt.Errorf("homeserver_url is required"))
	}
	if c.ServerName == "" {
		errs = append(errs, fmt.Errorf("server_name is required"))
	}
	if c.UserID.IsZero() {
		errs = append(errs, fmt.Errorf("user_id is required"))
	}
	if c.StoreRoomAlias.IsZero() {
		errs = append(errs, fmt.Errorf("store_room_alias is required"))
	}
	if c.DataDir == "" {
		errs = append(errs, fmt.Errorf("data_dir is required"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// StorePath returns the path of the store database file.
func (c *Config) StorePath() string {
	return filepath.Join(c.DataDir, "store.json")
}

// EnsurePaths creates the data directory if it doesn't exist.
func (c *Config) EnsurePaths() error {
	if err := os.MkdirAll(c.DataDir, 0700); err != nil {
		return fmt.Errorf("creating %s: %w", c.DataDir, err)
	}
	return nil
}
