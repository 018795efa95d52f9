package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `
concurrency: 4
pool_worker_queue_size: 2048
panic_timeout_ms: 1500
database_path: /var/lib/sumeragi
peers:
  - ip: "10.0.0.1:7000"
    public_key: "aa"
  - ip: "10.0.0.2:7000"
    public_key: "bb"
me:
  ip: "10.0.0.1:7000"
  public_key: "aa"
  private_key: "deadbeef"
`

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "sumeragi.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeTempConfig(t, `
peers:
  - ip: "10.0.0.1:7000"
    public_key: "aa"
me:
  public_key: "aa"
  private_key: "deadbeef"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Concurrency != defaultConcurrency {
		t.Fatalf("concurrency = %d, want default %d", cfg.Concurrency, defaultConcurrency)
	}
	if cfg.PoolWorkerQueueSize != defaultPoolWorkerQueueSize {
		t.Fatalf("pool_worker_queue_size = %d, want default %d", cfg.PoolWorkerQueueSize, defaultPoolWorkerQueueSize)
	}
	if cfg.DatabasePath != defaultDatabasePath {
		t.Fatalf("database_path = %q, want default %q", cfg.DatabasePath, defaultDatabasePath)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeTempConfig(t, sampleYAML)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Concurrency != 4 {
		t.Fatalf("concurrency = %d, want 4", cfg.Concurrency)
	}
	if len(cfg.Peers) != 2 {
		t.Fatalf("peers = %d, want 2", len(cfg.Peers))
	}
	if cfg.Me.PublicKey != "aa" {
		t.Fatalf("me.public_key = %q, want aa", cfg.Me.PublicKey)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestEnvOverride(t *testing.T) {
	path := writeTempConfig(t, sampleYAML)
	t.Setenv("SUMERAGI_CONCURRENCY", "8")
	t.Setenv("SUMERAGI_DATABASE_PATH", "/mnt/sumeragi")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Concurrency != 8 {
		t.Fatalf("concurrency = %d, want env override 8", cfg.Concurrency)
	}
	if cfg.DatabasePath != "/mnt/sumeragi" {
		t.Fatalf("database_path = %q, want env override", cfg.DatabasePath)
	}
}

func TestValidateRejectsMissingPeers(t *testing.T) {
	cfg := defaults()
	cfg.Me = SelfConfig{PublicKey: "aa", PrivateKey: "bb"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty peers[]")
	}
}

func TestValidateRejectsMissingSelf(t *testing.T) {
	cfg := defaults()
	cfg.Peers = []PeerConfig{{Address: "10.0.0.1:7000", PublicKey: "aa"}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing me")
	}
}

func TestValidateAcceptsMaxFaultyPeersOverride(t *testing.T) {
	cfg := defaults()
	cfg.Peers = []PeerConfig{{Address: "10.0.0.1:7000", PublicKey: "aa"}}
	cfg.Me = SelfConfig{PublicKey: "aa", PrivateKey: "bb"}
	n := 1
	cfg.MaxFaultyPeers = &n
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config with max_faulty_peers override, got %v", err)
	}
}
