package merkle

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/certen/sumeragi-core/pkg/crypto"
)

// Tree is the persisted, incremental, append-only Merkle transaction
// repository of spec §4.4. Unlike the teacher's tree.go (which rebuilds a
// full `levels [][][]byte` array from every leaf on each call), Tree
// maintains a "frontier" of complete subtree peaks and updates only the
// O(log n) nodes affected by each append, persisting every node it touches
// through the KV/Batch contract instead of holding the tree in memory.
//
// Append either completes the previous-rightmost parent's open slot by
// merging the new leaf with an equal-height peak (spec's "install as its
// right child" case), or, when no peak of that height exists yet, starts a
// new one (spec's "create a new right-leaning subtree" case). A cascading
// merge (several same-height peaks completing in sequence) is the natural
// generalization of that single-step rule to repeated carries; see
// DESIGN.md's Open Question entry for this package.
type Tree struct {
	mu sync.Mutex
	kv KV
}

// New wraps kv as a Merkle repository. kv may be the same physical store
// worldstate's Store uses, under a disjoint key namespace (spec §3:
// separate ownership, one database_path).
func New(kv KV) *Tree {
	return &Tree{kv: kv}
}

// Append adds a new leaf recording txHash (the canonical hash of the
// transaction) and its serialized payload, and returns the tree's new root.
// Leaf hash = SHA3-256(canonical_serialize(tx)); Append does not compute
// it — callers pass the already-hashed value (see wire.Transaction.Hash).
func (t *Tree) Append(txHash [32]byte, payload []byte) ([32]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	hash := txHash[:]
	if existing, err := t.kv.Get(leafKey(hash)); err != nil {
		return [32]byte{}, err
	} else if existing != nil {
		return [32]byte{}, ErrLeafExists
	}

	peaks, err := t.loadPeaks()
	if err != nil {
		return [32]byte{}, err
	}

	batch := t.kv.NewBatch()
	batch.Put(leafKey(hash), payload)
	if err := t.putNode(batch, nodeRecord{Hash: hash}); err != nil {
		return [32]byte{}, err
	}

	// rightKids are the children of the newest peak (nil for the new leaf);
	// that peak's record is staged in this batch, not yet readable from kv.
	var rightKids [2][]byte
	peaks = append(peaks, peakEntry{Height: 0, Hash: hash})
	for len(peaks) >= 2 && peaks[len(peaks)-1].Height == peaks[len(peaks)-2].Height {
		right := peaks[len(peaks)-1]
		left := peaks[len(peaks)-2]
		parentHash := crypto.HashConcat(left.Hash, right.Hash)

		if err := t.putNode(batch, nodeRecord{Hash: parentHash[:], Left: left.Hash, Right: right.Hash}); err != nil {
			return [32]byte{}, err
		}
		if err := t.setParent(batch, left.Hash, parentHash[:]); err != nil {
			return [32]byte{}, err
		}
		if err := t.putNode(batch, nodeRecord{Hash: right.Hash, Parent: parentHash[:], Left: rightKids[0], Right: rightKids[1]}); err != nil {
			return [32]byte{}, err
		}

		peaks = peaks[:len(peaks)-2]
		peaks = append(peaks, peakEntry{Height: left.Height + 1, Hash: parentHash[:]})
		rightKids = [2][]byte{left.Hash, right.Hash}
	}

	if err := t.putPeaks(batch, peaks); err != nil {
		return [32]byte{}, err
	}

	count, err := t.leafCount()
	if err != nil {
		return [32]byte{}, err
	}
	countBuf := make([]byte, 8)
	binary.BigEndian.PutUint64(countBuf, count+1)
	batch.Put(keyLeafCtr, countBuf)

	if err := batch.Commit(); err != nil {
		return [32]byte{}, fmt.Errorf("merkle: commit append: %w", err)
	}

	return bagPeaks(peaks)
}

// Contains reports whether txHash has been appended.
func (t *Tree) Contains(txHash [32]byte) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, err := t.kv.Get(leafKey(txHash[:]))
	if err != nil {
		return false, err
	}
	return v != nil, nil
}

// GetLeaf returns the serialized payload appended under txHash.
func (t *Tree) GetLeaf(txHash [32]byte) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, err := t.kv.Get(leafKey(txHash[:]))
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, ErrLeafNotFound
	}
	return v, nil
}

// Root returns the tree's current root hash, combining the frontier's
// peaks left-to-right (a single peak is the root outright). Deterministic
// given the same append sequence, so independently-computed replica roots
// are bit-identical (spec §8).
func (t *Tree) Root() ([32]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	peaks, err := t.loadPeaks()
	if err != nil {
		return [32]byte{}, err
	}
	return bagPeaks(peaks)
}

// LeafCount returns the number of leaves appended so far.
func (t *Tree) LeafCount() (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.leafCount()
}

func (t *Tree) leafCount() (uint64, error) {
	raw, err := t.kv.Get(keyLeafCtr)
	if err != nil {
		return 0, err
	}
	if raw == nil {
		return 0, nil
	}
	return binary.BigEndian.Uint64(raw), nil
}

func bagPeaks(peaks []peakEntry) ([32]byte, error) {
	if len(peaks) == 0 {
		return [32]byte{}, ErrEmptyTree
	}
	acc := peaks[0].Hash
	for i := 1; i < len(peaks); i++ {
		combined := crypto.HashConcat(acc, peaks[i].Hash)
		acc = combined[:]
	}
	var out [32]byte
	copy(out[:], acc)
	return out, nil
}
