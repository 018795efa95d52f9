// Copyright 2025 Certen Protocol
//
// Command sumeragid runs a single Sumeragi BFT replica: it loads the
// replica's configuration, opens durable storage, and starts the consensus
// engine behind the event intake pool (spec §4/§5/§6).
package main

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/certen/sumeragi-core/pkg/config"
	"github.com/certen/sumeragi-core/pkg/crypto"
	"github.com/certen/sumeragi-core/pkg/intake"
	"github.com/certen/sumeragi-core/pkg/merkle"
	"github.com/certen/sumeragi-core/pkg/peerdir"
	"github.com/certen/sumeragi-core/pkg/sumeragi"
	"github.com/certen/sumeragi-core/pkg/wire"
	"github.com/certen/sumeragi-core/pkg/worldstate"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the replica's YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sumeragid: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "sumeragid: %v\n", err)
		os.Exit(1)
	}

	logger := log.New(os.Stderr, "[sumeragid] ", log.LstdFlags)

	self, err := loadSelf(cfg)
	if err != nil {
		logger.Fatalf("load identity: %v", err)
	}

	kv, err := worldstate.OpenGoLevelDB("sumeragi", cfg.DatabasePath)
	if err != nil {
		logger.Fatalf("open database at %s: %v", cfg.DatabasePath, err)
	}
	store := worldstate.NewStore(kv)
	tree := merkle.New(kv)

	peers, err := loadPeers(cfg)
	if err != nil {
		logger.Fatalf("load peers: %v", err)
	}
	dir := peerdir.NewDirectory(peers, cfg.MaxFaultyPeers)

	// transport is an external collaborator (spec §1, §6): sumeragid wires
	// its contract but carries no on-wire RPC implementation of its own.
	// A production deployment substitutes a real Transport here.
	transport := newLogTransport(logger)

	engine := sumeragi.New(sumeragi.Config{
		Self:         self,
		Store:        store,
		Tree:         tree,
		Peers:        dir,
		Transport:    transport,
		PanicTimeout: time.Duration(cfg.PanicTimeoutMS) * time.Millisecond,
		Logger:       logger,
	})
	defer engine.Shutdown()

	pool := intake.New(cfg.Concurrency, cfg.PoolWorkerQueueSize, func(ctx context.Context, ev *wire.ConsensusEvent) {
		if err := engine.HandleEvent(ctx, ev); err != nil {
			logger.Printf("handle event: %v", err)
		}
	})
	defer pool.Shutdown()

	decodeAndSubmit := func(senderPublicKey, msg []byte) {
		var ev wire.ConsensusEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			logger.Printf("decode inbound event from %s: %v", crypto.EncodeBase64(senderPublicKey), err)
			return
		}
		if err := pool.Submit(context.Background(), &ev); err != nil {
			logger.Printf("submit inbound event: %v", err)
		}
	}
	transport.Subscribe(sumeragi.KindTxIngest, decodeAndSubmit)
	transport.Subscribe(sumeragi.KindConsensus, decodeAndSubmit)

	snapshot := dir.Load()
	logger.Printf("replica %s started: %d peers, f=%d, leader=%s",
		crypto.EncodeBase64(self.Public), len(snapshot.Peers), snapshot.F, crypto.EncodeBase64(snapshot.Leader().PublicKey))

	select {}
}

// loadSelf derives this replica's Ed25519 identity from the configured
// private key: a 32-byte hex seed, or a full 64-byte expanded private key.
func loadSelf(cfg *config.CoreConfig) (*crypto.Keypair, error) {
	raw, err := hex.DecodeString(cfg.Me.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("me.private_key is not valid hex: %w", err)
	}
	switch len(raw) {
	case ed25519.SeedSize:
		return crypto.KeypairFromSeed(raw)
	case ed25519.PrivateKeySize:
		priv := ed25519.PrivateKey(raw)
		return &crypto.Keypair{Public: priv.Public().(ed25519.PublicKey), Private: priv}, nil
	default:
		return nil, fmt.Errorf("me.private_key must be %d or %d bytes, got %d", ed25519.SeedSize, ed25519.PrivateKeySize, len(raw))
	}
}

// loadPeers decodes the configured peers[] into the directory's Peer shape.
// Trust scores are not a configuration option (spec §6); every peer starts
// at the same score, so ordering falls back to the deterministic
// ascending-public-key tiebreak.
func loadPeers(cfg *config.CoreConfig) ([]peerdir.Peer, error) {
	peers := make([]peerdir.Peer, len(cfg.Peers))
	for i, p := range cfg.Peers {
		pub, err := hex.DecodeString(p.PublicKey)
		if err != nil {
			return nil, fmt.Errorf("peers[%d].public_key is not valid hex: %w", i, err)
		}
		peers[i] = peerdir.Peer{PublicKey: pub, Address: p.Address, IsLive: true}
	}
	return peers, nil
}
