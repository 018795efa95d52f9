// Copyright 2025 Certen Protocol
//
// CoreConfig is the single immutable configuration object a sumeragi-core
// replica is built from: the options of spec.md §6's Configuration table.
//
// Grounded on the teacher's config.go Load()/Validate() shape (env-backed
// defaults, fail-fast on missing required fields) and its anchor config's
// YAML-file loading (gopkg.in/yaml.v3), generalized from the teacher's
// cross-chain option set to spec.md §6's much smaller one.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// PeerConfig is one entry of the `peers[]` configuration option.
type PeerConfig struct {
	Address   string `yaml:"ip"`
	PublicKey string `yaml:"public_key"` // hex-encoded Ed25519 public key
}

// SelfConfig is the `me` configuration option: this replica's own identity
// and signing key.
type SelfConfig struct {
	Address    string `yaml:"ip"`
	PublicKey  string `yaml:"public_key"`  // hex-encoded Ed25519 public key
	PrivateKey string `yaml:"private_key"` // hex-encoded Ed25519 32-byte seed or 64-byte private key
}

// CoreConfig holds every recognized option from spec.md §6, built once at
// startup and passed by pointer — replacing the source's global config
// singleton (spec.md §9).
type CoreConfig struct {
	// MaxFaultyPeers overrides f; nil means "derive f = N/3" (spec default).
	MaxFaultyPeers *int `yaml:"max_faulty_peers,omitempty"`
	// Concurrency is the event-intake worker-pool size.
	Concurrency int `yaml:"concurrency"`
	// PoolWorkerQueueSize is the max queued events before submission blocks.
	PoolWorkerQueueSize int `yaml:"pool_worker_queue_size"`
	// PanicTimeoutMS is the per-event panic timer, in milliseconds.
	PanicTimeoutMS int `yaml:"panic_timeout_ms"`
	// DatabasePath is the storage directory for world state and the Merkle tree.
	DatabasePath string `yaml:"database_path"`
	// Peers is the initial peer set.
	Peers []PeerConfig `yaml:"peers"`
	// Me is this replica's own identity.
	Me SelfConfig `yaml:"me"`
}

const (
	defaultConcurrency         = 1
	defaultPoolWorkerQueueSize = 1024
	defaultPanicTimeoutMS      = 3000
	defaultDatabasePath        = "/tmp/iroha"
)

// defaults returns a CoreConfig populated with spec.md §6's documented
// defaults; callers layer a YAML file and environment overrides on top.
func defaults() *CoreConfig {
	return &CoreConfig{
		Concurrency:         defaultConcurrency,
		PoolWorkerQueueSize: defaultPoolWorkerQueueSize,
		PanicTimeoutMS:      defaultPanicTimeoutMS,
		DatabasePath:        defaultDatabasePath,
	}
}

// Load reads a YAML configuration file at path (peers[] and me are
// required there — see Validate) and layers environment variable
// overrides for the scalar options on top, matching the teacher's
// YAML-plus-env-substitution pattern.
func Load(path string) (*CoreConfig, error) {
	cfg := defaults()

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides lets operators override scalar options without editing
// the YAML file, the same SUMERAGI_* convention the teacher uses for its
// own service config.
func applyEnvOverrides(cfg *CoreConfig) {
	if v := os.Getenv("SUMERAGI_MAX_FAULTY_PEERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxFaultyPeers = &n
		}
	}
	if v := os.Getenv("SUMERAGI_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Concurrency = n
		}
	}
	if v := os.Getenv("SUMERAGI_POOL_WORKER_QUEUE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.PoolWorkerQueueSize = n
		}
	}
	if v := os.Getenv("SUMERAGI_PANIC_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.PanicTimeoutMS = n
		}
	}
	if v := os.Getenv("SUMERAGI_DATABASE_PATH"); v != "" {
		cfg.DatabasePath = v
	}
}

// Validate checks that all required configuration is present (spec.md §6:
// peers[] and me have no default, both are required).
func (c *CoreConfig) Validate() error {
	var errs []string

	if c.Concurrency <= 0 {
		errs = append(errs, "concurrency must be positive")
	}
	if c.PoolWorkerQueueSize <= 0 {
		errs = append(errs, "pool_worker_queue_size must be positive")
	}
	if c.PanicTimeoutMS <= 0 {
		errs = append(errs, "panic_timeout_ms must be positive")
	}
	if c.DatabasePath == "" {
		errs = append(errs, "database_path must not be empty")
	}
	if len(c.Peers) == 0 {
		errs = append(errs, "peers[] is required and must not be empty")
	}
	for i, p := range c.Peers {
		if p.Address == "" {
			errs = append(errs, fmt.Sprintf("peers[%d].ip is required", i))
		}
		if p.PublicKey == "" {
			errs = append(errs, fmt.Sprintf("peers[%d].public_key is required", i))
		}
	}
	if c.Me.PublicKey == "" {
		errs = append(errs, "me.public_key is required")
	}
	if c.Me.PrivateKey == "" {
		errs = append(errs, "me.private_key is required")
	}
	if c.MaxFaultyPeers != nil && *c.MaxFaultyPeers < 0 {
		errs = append(errs, "max_faulty_peers must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
