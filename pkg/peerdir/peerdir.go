// Copyright 2025 Certen Protocol
//
// Package peerdir is the peer directory of spec §3/§4.5: an ordered set of
// validators that defines the chain order consensus walks, with lock-free
// reads over a copy-on-write snapshot (RCU), matching spec §5's peer
// directory concurrency policy.
//
// Grounded on pkg/batch/peer_manager.go's RWMutex-guarded peer slice/map
// shape, reworked into an atomic snapshot so readers never block writers.
package peerdir

import (
	"bytes"
	"sort"
	"sync/atomic"
)

// Peer is a validator entry (spec §3).
type Peer struct {
	PublicKey  []byte
	Address    string
	TrustScore float64
	IsLive     bool
}

// Snapshot is an immutable, ordered view of the peer set plus its derived
// consensus parameters (spec §3: f, leader, proxy_tail).
type Snapshot struct {
	Peers          []Peer
	ByPublicKey    map[string]int // hex-less raw-key index, see keyOf
	F              int
	ProxyTailIndex int
	LeaderIndex    int
}

// Leader returns the peer at index 0 of the deterministic order.
func (s *Snapshot) Leader() Peer {
	return s.Peers[s.LeaderIndex]
}

// ProxyTail returns the peer responsible for broadcasting fully signed events.
func (s *Snapshot) ProxyTail() Peer {
	return s.Peers[s.ProxyTailIndex]
}

// IndexOf returns the ordered position of a public key, or -1 if absent.
func (s *Snapshot) IndexOf(publicKey []byte) int {
	if idx, ok := s.ByPublicKey[keyOf(publicKey)]; ok {
		return idx
	}
	return -1
}

// IsLeader reports whether publicKey is the peer at index 0.
func (s *Snapshot) IsLeader(publicKey []byte) bool {
	return bytes.Equal(s.Peers[s.LeaderIndex].PublicKey, publicKey)
}

// IsProxyTail reports whether publicKey is the proxy tail.
func (s *Snapshot) IsProxyTail(publicKey []byte) bool {
	return bytes.Equal(s.Peers[s.ProxyTailIndex].PublicKey, publicKey)
}

// Directory holds the live peer set behind an atomic snapshot pointer.
// Writes only happen through Set/AddPeer, always under the caller's
// world-state write lock (spec §4.5); reads never block.
type Directory struct {
	snapshot  atomic.Value // *Snapshot
	maxFaulty *int         // optional override for f (spec §6 max_faulty_peers)
}

// NewDirectory builds a directory from an initial peer set.
func NewDirectory(peers []Peer, maxFaultyOverride *int) *Directory {
	d := &Directory{maxFaulty: maxFaultyOverride}
	d.Set(peers)
	return d
}

// Load returns the current snapshot. Safe for concurrent use without locking.
func (d *Directory) Load() *Snapshot {
	return d.snapshot.Load().(*Snapshot)
}

// Set installs a new ordered peer set, recomputing f/leader/proxy_tail.
// Callers must hold the world-state write lock (spec §4.5, §5).
func (d *Directory) Set(peers []Peer) {
	ordered := orderPeers(peers)
	d.snapshot.Store(buildSnapshot(ordered, d.maxFaulty))
}

// AddPeer appends a peer to the directory and re-derives the order
// (spec §4.3 AddPeer executor rule).
func (d *Directory) AddPeer(p Peer) {
	cur := d.Load()
	next := make([]Peer, len(cur.Peers), len(cur.Peers)+1)
	copy(next, cur.Peers)
	next = append(next, p)
	d.Set(next)
}

// orderPeers sorts descending by trust score, ties broken by ascending
// public key (spec §3: "the validator order is a deterministic total order").
func orderPeers(peers []Peer) []Peer {
	ordered := make([]Peer, len(peers))
	copy(ordered, peers)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].TrustScore != ordered[j].TrustScore {
			return ordered[i].TrustScore > ordered[j].TrustScore
		}
		return bytes.Compare(ordered[i].PublicKey, ordered[j].PublicKey) < 0
	})
	return ordered
}

func buildSnapshot(ordered []Peer, maxFaultyOverride *int) *Snapshot {
	n := len(ordered)
	byKey := make(map[string]int, n)
	for i, p := range ordered {
		byKey[keyOf(p.PublicKey)] = i
	}

	f := n / 3
	if maxFaultyOverride != nil {
		f = *maxFaultyOverride
	}

	proxyTail := 2 * f
	if n == 0 {
		proxyTail = 0
	} else if proxyTail > n-1 {
		proxyTail = n - 1
	}

	return &Snapshot{
		Peers:          ordered,
		ByPublicKey:    byKey,
		F:              f,
		ProxyTailIndex: proxyTail,
		LeaderIndex:    0,
	}
}

func keyOf(publicKey []byte) string {
	return string(publicKey)
}

// Quorum returns the BFT signature quorum 2f+1 (spec glossary).
func (s *Snapshot) Quorum() int {
	return 2*s.F + 1
}

// BroadcastRange computes the panic-widened validator range (spec §4.1).
// panicCount is 1 for the round just fired (it has already been
// incremented per spec's "increment panic_count" step); the first round
// therefore contributes no additional widening beyond the base quorum:
//
//	broadcast_start = 2f + 1 + f*(panicCount-1)
//	broadcast_end   = broadcast_start + f
//
// both clamped to [0, N-1].
func (s *Snapshot) BroadcastRange(panicCount int) (start, end int) {
	n := len(s.Peers)
	if n == 0 {
		return 0, 0
	}
	start = s.Quorum() + s.F*(panicCount-1)
	end = start + s.F
	if start > n-1 {
		start = n - 1
	}
	if start < 0 {
		start = 0
	}
	if end > n-1 {
		end = n - 1
	}
	if end < start {
		end = start
	}
	return start, end
}
