// Copyright 2025 Certen Protocol
//
// Package sumeragi implements the consensus engine of spec §4.1: event
// validation and local signing, leader-assigned chain ordering, quorum
// decision, commit, and panic-driven widening of the validator range on
// round timeout.
//
// Grounded on pkg/consensus/abci_validator.go's struct shape (a logger, a
// sync.RWMutex-guarded set of in-flight items, explicit height/commit
// tracking) generalized from CometBFT block application to Sumeragi's own
// event lifecycle, and pkg/batch/scheduler.go's timer-goroutine lifecycle
// for the panic subsystem (see panic_timer.go).
package sumeragi

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/certen/sumeragi-core/pkg/crypto"
	"github.com/certen/sumeragi-core/pkg/intake"
	"github.com/certen/sumeragi-core/pkg/merkle"
	"github.com/certen/sumeragi-core/pkg/peerdir"
	"github.com/certen/sumeragi-core/pkg/txexec"
	"github.com/certen/sumeragi-core/pkg/validation"
	"github.com/certen/sumeragi-core/pkg/wire"
	"github.com/certen/sumeragi-core/pkg/worldstate"
	"github.com/prometheus/client_golang/prometheus"
)

// traceField renders the intake-assigned correlation ID for ctx (see
// pkg/intake.TraceID), or "" when ctx carries none (e.g. a directly
// delivered event that never passed through the worker pool).
func traceField(ctx context.Context) string {
	if id, ok := intake.TraceID(ctx); ok {
		return "[" + id.String() + "] "
	}
	return ""
}

// Config bundles an Engine's collaborators, all of them spec §6's consumed
// interfaces or the packages adapting spec §4's sibling components.
type Config struct {
	Self         *crypto.Keypair
	Store        *worldstate.Store
	Tree         *merkle.Tree
	Peers        *peerdir.Directory
	Transport    Transport
	PanicTimeout time.Duration
	Registry     prometheus.Registerer // nil uses prometheus.DefaultRegisterer
	Logger       *log.Logger
}

// Engine runs the event lifecycle and commit path of spec §4.1. Commits are
// serialized by commitMu (the "world-state write lock" of spec §5); event
// validation/signing ahead of commit is not serialized — the worker pool in
// pkg/intake runs many events through HandleEvent concurrently.
type Engine struct {
	self         *crypto.Keypair
	store        *worldstate.Store
	tree         *merkle.Tree
	peers        *peerdir.Directory
	transport    Transport
	validator    *validation.Validator
	executor     *txexec.Executor
	timers       *PanicTimer
	seen         *seenCommits
	panicTimeout time.Duration
	metrics      *metrics
	logger       *log.Logger

	commitMu sync.Mutex // the world-state write lock of spec §5

	orderMu      sync.Mutex // serializes next_order assignment on the leader
	nextOrderCtr uint64

	stateMu     sync.Mutex // guards pending and panicCounts below
	pending     map[string]*wire.ConsensusEvent
	panicCounts map[string]int
}

// New builds an Engine from cfg. The panic timer's callback is wired back
// into the engine's own panic-broadcast logic.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "[Sumeragi] ", log.LstdFlags)
	}
	e := &Engine{
		self:         cfg.Self,
		store:        cfg.Store,
		tree:         cfg.Tree,
		peers:        cfg.Peers,
		transport:    cfg.Transport,
		validator:    validation.New(),
		executor:     txexec.New(),
		seen:         newSeenCommits(),
		panicTimeout: cfg.PanicTimeout,
		metrics:      newMetrics(cfg.Registry),
		logger:       logger,
		pending:      make(map[string]*wire.ConsensusEvent),
		panicCounts:  make(map[string]int),
	}
	if n, err := cfg.Tree.LeafCount(); err == nil {
		e.nextOrderCtr = n
	}
	e.timers = NewPanicTimer(e.onPanicFire)
	return e
}

// Shutdown stops the panic timer goroutine. The engine holds no other
// background goroutines of its own (event processing runs on pkg/intake's
// pool, owned by the caller).
func (e *Engine) Shutdown() {
	e.timers.Stop()
}

// HandleEvent dispatches an inbound ConsensusEvent per its status (spec
// §4.1's two receipt rules).
func (e *Engine) HandleEvent(ctx context.Context, ev *wire.ConsensusEvent) error {
	switch ev.Status {
	case wire.StatusUncommitted:
		return e.handleUncommitted(ctx, ev)
	case wire.StatusCommitted:
		return e.handleCommitted(ctx, ev)
	default:
		return fmt.Errorf("sumeragi: unknown event status %d", ev.Status)
	}
}

// handleUncommitted runs the four numbered steps of spec §4.1's event
// lifecycle for an UNCOMMITTED event.
func (e *Engine) handleUncommitted(ctx context.Context, ev *wire.ConsensusEvent) error {
	hash, err := ev.Transaction.Hash()
	if err != nil {
		return fmt.Errorf("sumeragi: hash transaction: %w", err)
	}
	key := hex.EncodeToString(hash[:])

	if e.seen.Has(key) {
		return nil // already committed elsewhere; drop the stale forward
	}

	// 1. Validate: every existing signature verifies, and the transaction
	// clears the command validator against a throwaway read of the current
	// world state (commit re-validates under the write lock regardless,
	// since state may move between intake and commit — see DESIGN.md).
	for _, sig := range ev.EventSignatures {
		if !crypto.Verify(sig.PublicKey, hash[:], sig.Signature) {
			return ErrBadSignature
		}
	}
	if err := e.validateAgainstCurrentState(ev.Transaction); err != nil {
		return fmt.Errorf("sumeragi: drop event: %w", err)
	}

	// 2. Sign locally, unless already present.
	wasEmpty := len(ev.EventSignatures) == 0
	if !ev.HasSignatureFrom(e.self.Public) {
		ev.EventSignatures = append(ev.EventSignatures, wire.EventSignature{
			PublicKey: e.self.Public,
			Signature: e.self.Sign(hash[:]),
		})
	}

	snapshot := e.peers.Load()

	// 3. Ordering: only the first signer, if it is the leader, assigns order.
	if wasEmpty && snapshot.IsLeader(e.self.Public) {
		ev.Order = e.nextOrder()
	}

	e.stateMu.Lock()
	e.pending[key] = ev
	e.stateMu.Unlock()

	// 4. Decision.
	if countValidSignatures(ev, snapshot) >= snapshot.Quorum() {
		return e.commitAndBroadcast(ctx, ev)
	}
	return e.forward(ctx, ev, snapshot, key)
}

// handleCommitted runs spec §4.1's idempotent commit rule for a COMMITTED
// event received directly (e.g. forwarded by another replica's commit
// broadcast rather than reached via local quorum).
func (e *Engine) handleCommitted(ctx context.Context, ev *wire.ConsensusEvent) error {
	hash, err := ev.Transaction.Hash()
	if err != nil {
		return fmt.Errorf("sumeragi: hash transaction: %w", err)
	}
	key := hex.EncodeToString(hash[:])
	if e.seen.Has(key) {
		return nil
	}
	return e.commit(key, ev.Transaction)
}

// countValidSignatures counts distinct known-peer public keys with a
// verifying signature over the event's transaction hash.
func countValidSignatures(ev *wire.ConsensusEvent, snapshot *peerdir.Snapshot) int {
	hash, err := ev.Transaction.Hash()
	if err != nil {
		return 0
	}
	counted := make(map[string]bool, len(ev.EventSignatures))
	n := 0
	for _, sig := range ev.EventSignatures {
		k := string(sig.PublicKey)
		if counted[k] {
			continue
		}
		if snapshot.IndexOf(sig.PublicKey) < 0 {
			continue // not a known peer (spec §4.1 step 1's drop-on-unknown-origin)
		}
		if !crypto.Verify(sig.PublicKey, hash[:], sig.Signature) {
			continue
		}
		counted[k] = true
		n++
	}
	return n
}

// nextOrder assigns the leader's monotonic next_order = last_committed_leaf_order + 1.
// Reserved from an in-memory counter rather than re-reading the Merkle leaf
// count, since several events may be assigned an order concurrently while
// still awaiting quorum, ahead of any of them actually reaching commit
// (spec §5 "Safety": "enforced by monotonic next_order on the leader").
func (e *Engine) nextOrder() uint64 {
	e.orderMu.Lock()
	defer e.orderMu.Unlock()
	order := e.nextOrderCtr
	e.nextOrderCtr++
	return order
}

// commitAndBroadcast runs the commit path then broadcasts the committed
// event to every peer (spec §4.1 step 4, "if quorum: commit; broadcast").
func (e *Engine) commitAndBroadcast(ctx context.Context, ev *wire.ConsensusEvent) error {
	ev.Status = wire.StatusCommitted
	hash, err := ev.Transaction.Hash()
	if err != nil {
		return err
	}
	key := hex.EncodeToString(hash[:])
	if err := e.commit(key, ev.Transaction); err != nil {
		return err
	}
	msg, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("sumeragi: marshal committed event: %w", err)
	}
	if err := e.transport.BroadcastAll(ctx, msg); err != nil {
		e.logger.Printf("%sbroadcast commit for %s failed: %v", traceField(ctx), key, err)
	}
	return nil
}

// forward implements spec §4.1 step 4's "else forward" branch: proxy tail
// broadcasts to everyone, anyone else sends only to the proxy tail, and a
// panic timer is armed either way.
func (e *Engine) forward(ctx context.Context, ev *wire.ConsensusEvent, snapshot *peerdir.Snapshot, key string) error {
	msg, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("sumeragi: marshal event: %w", err)
	}

	if snapshot.IsProxyTail(e.self.Public) {
		if err := e.transport.BroadcastAll(ctx, msg); err != nil {
			e.logger.Printf("%sforward broadcast for %s failed: %v", traceField(ctx), key, err)
		}
	} else {
		tail := snapshot.ProxyTail()
		if err := e.transport.Send(ctx, tail.Address, msg); err != nil {
			e.logger.Printf("%sforward send to proxy tail for %s failed: %v", traceField(ctx), key, err)
		}
	}

	e.timers.Arm(key, e.panicTimeout)
	return nil
}

// commit runs the four-step commit path of spec §4.1 under the world-state
// write lock, idempotently: a second commit of the same hash is a no-op.
func (e *Engine) commit(key string, t *wire.Transaction) error {
	e.commitMu.Lock()
	defer e.commitMu.Unlock()

	if e.seen.Has(key) {
		return nil
	}

	tx := e.store.Begin()
	if err := e.validator.ValidateTransaction(tx, t); err != nil {
		tx.Discard()
		return fmt.Errorf("sumeragi: commit validation: %w", err)
	}
	if err := e.executor.ExecuteTransaction(tx, t); err != nil {
		tx.Discard()
		return fmt.Errorf("sumeragi: commit execution: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sumeragi: commit world state: %w", err)
	}
	e.reconcilePeers(t)

	payload, err := t.CanonicalBytes()
	if err != nil {
		return fmt.Errorf("sumeragi: encode committed leaf: %w", err)
	}
	var hash [32]byte
	raw, err := hex.DecodeString(key)
	if err != nil {
		return fmt.Errorf("sumeragi: decode tx hash: %w", err)
	}
	copy(hash[:], raw)
	if _, err := e.tree.Append(hash, payload); err != nil {
		return fmt.Errorf("sumeragi: append merkle leaf: %w", err)
	}

	e.seen.Insert(key)
	e.metrics.committedCount.Inc()
	e.timers.Cancel(key)

	e.stateMu.Lock()
	delete(e.pending, key)
	delete(e.panicCounts, key)
	e.stateMu.Unlock()
	return nil
}

// reconcilePeers applies any AddPeer commands in a just-committed transaction
// to the in-memory peer directory, so f/leader/proxy_tail reflect the new
// peer starting with the next event (spec §4.3, §4.5). Called from commit,
// under commitMu, so the directory update stays ordered with the write that
// produced it.
func (e *Engine) reconcilePeers(t *wire.Transaction) {
	for _, cmd := range t.Commands {
		ap, ok := cmd.(wire.AddPeer)
		if !ok {
			continue
		}
		if e.peers.Load().IndexOf(ap.PublicKey) >= 0 {
			continue
		}
		e.peers.AddPeer(peerdir.Peer{
			PublicKey: ap.PublicKey,
			Address:   ap.Address,
			IsLive:    true,
		})
	}
}

// validateAgainstCurrentState runs the command validator over a throwaway
// read of the live world state, so an obviously-invalid transaction is
// dropped before this replica spends a signature on it (spec §4.1 step 1).
// The commit path (under the write lock) re-validates regardless, since
// state may have moved between intake and commit.
func (e *Engine) validateAgainstCurrentState(t *wire.Transaction) error {
	tx := e.store.Begin()
	defer tx.Discard()
	return e.validator.ValidateTransaction(tx, t)
}

// onPanicFire is the PanicTimer callback: spec §4.1's panic/reconfiguration
// rule. It re-checks commit status (a commit may have landed between arming
// and firing), widens the broadcast range by f peers per round, and rearms
// for the next round.
func (e *Engine) onPanicFire(key string) {
	if e.seen.Has(key) {
		return
	}

	e.stateMu.Lock()
	ev, ok := e.pending[key]
	if ok {
		e.panicCounts[key]++
	}
	count := e.panicCounts[key]
	e.stateMu.Unlock()
	if !ok {
		return
	}
	e.metrics.panicCount.Inc()

	snapshot := e.peers.Load()
	start, end := snapshot.BroadcastRange(count)

	msg, err := json.Marshal(ev)
	if err != nil {
		e.logger.Printf("panic broadcast for %s: marshal failed: %v", key, err)
		return
	}
	ctx := context.Background()
	for i := start; i <= end && i < len(snapshot.Peers); i++ {
		peer := snapshot.Peers[i]
		if err := e.transport.Send(ctx, peer.Address, msg); err != nil {
			e.logger.Printf("panic broadcast to %s for %s failed: %v", peer.Address, key, err)
		}
	}

	e.timers.Arm(key, e.panicTimeout)
}
