// Copyright 2026 The Trustmesh Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/trustmesh-foundation/trustmesh/lib/ref"
)

// Config is the ledger assembly configuration.
type Config struct {
	// Substrate selects and parametrizes the key-value substrate.
	Substrate SubstrateConfig `json:"substrate"`

	// Events selects the event sinks. Absent sections mean the sink
	// is not wired; with no sections at all the ledger still runs,
	// events simply go nowhere durable.
	Events EventsConfig `json:"events"`

	// Governance holds the bootstrap state for the reputation
	// ledger.
	Governance GovernanceConfig `json:"governance"`
}

// SubstrateConfig selects the key-value substrate.
type SubstrateConfig struct {
	// Driver is "memory" or "sqlite".
	Driver string `json:"driver"`

	// Path is the SQLite database file. Required for the sqlite
	// driver, ignored for memory.
	Path string `json:"path"`

	// PoolSize is the SQLite connection pool size. Zero means the
	// pool default.
	PoolSize int `json:"pool_size"`
}

// EventsConfig selects event sinks. Each non-nil section wires one
// sink; sections combine freely.
type EventsConfig struct {
	SQLite *SQLiteSinkConfig `json:"sqlite,omitempty"`
	File   *FileSinkConfig   `json:"file,omitempty"`
	NATS   *NATSSinkConfig   `json:"nats,omitempty"`
}

// SQLiteSinkConfig parametrizes the SQLite event sink.
type SQLiteSinkConfig struct {
	// Path is the event database file. May be the substrate file;
	// the sink keeps its own tables.
	Path string `json:"path"`
}

// FileSinkConfig parametrizes the segmented file sink.
type FileSinkConfig struct {
	// Dir is the segment directory.
	Dir string `json:"dir"`

	// SegmentBytes seals the active segment once it exceeds this
	// size. Zero means the sink default.
	SegmentBytes int64 `json:"segment_bytes"`
}

// NATSSinkConfig parametrizes the NATS publisher sink.
type NATSSinkConfig struct {
	// URL is the NATS server URL.
	URL string `json:"url"`

	// SubjectPrefix overrides the default subject prefix.
	SubjectPrefix string `json:"subject_prefix"`
}

// GovernanceConfig holds reputation governance bootstrap state.
type GovernanceConfig struct {
	// Admin is the initial governance admin address, hex. Used only
	// on first open of a fresh substrate; afterwards the stored
	// admin wins.
	Admin string `json:"admin"`
}

// Load reads configuration from the file named by TRUSTMESH_CONFIG.
func Load() (*Config, error) {
	path := os.Getenv("TRUSTMESH_CONFIG")
	if path == "" {
		return nil, fmt.Errorf("TRUSTMESH_CONFIG environment variable not set; " +
			"set it to the path of your trustmesh.jsonc config file")
	}
	return LoadFile(path)
}

// LoadFile reads configuration from path. The file is JSONC:
// comments and trailing commas are allowed, everything else is plain
// JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := json.Unmarshal(jsonc.ToJSON(data), cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks cross-field requirements. LoadFile calls it;
// hand-built configs should too.
func (c *Config) Validate() error {
	switch c.Substrate.Driver {
	case "memory":
	case "sqlite":
		if c.Substrate.Path == "" {
			return fmt.Errorf("substrate.path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown substrate.driver %q (want memory or sqlite)", c.Substrate.Driver)
	}
	if c.Substrate.PoolSize < 0 {
		return fmt.Errorf("substrate.pool_size must not be negative")
	}

	if c.Events.SQLite != nil && c.Events.SQLite.Path == "" {
		return fmt.Errorf("events.sqlite.path is required")
	}
	if c.Events.File != nil && c.Events.File.Dir == "" {
		return fmt.Errorf("events.file.dir is required")
	}
	if c.Events.File != nil && c.Events.File.SegmentBytes < 0 {
		return fmt.Errorf("events.file.segment_bytes must not be negative")
	}
	if c.Events.NATS != nil && c.Events.NATS.URL == "" {
		return fmt.Errorf("events.nats.url is required")
	}

	if c.Governance.Admin == "" {
		return fmt.Errorf("governance.admin is required")
	}
	if _, err := ref.ParseAddress(c.Governance.Admin); err != nil {
		return fmt.Errorf("governance.admin: %w", err)
	}
	return nil
}

// AdminAddress returns the parsed governance admin. Call after
// Validate.
func (c *Config) AdminAddress() (ref.Address, error) {
	return ref.ParseAddress(c.Governance.Admin)
}
