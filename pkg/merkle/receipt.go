package merkle

import (
	"bytes"
	"fmt"

	"github.com/certen/sumeragi-core/pkg/crypto"
)

// Receipt is a portable Merkle inclusion proof: the sibling hashes walked
// from a leaf up to a root, independently re-verifiable without trusting
// the node that produced it.
//
// Grounded on the teacher's receipt.go Receipt/ReceiptEntry shape, adapted
// to walk the persisted parent/left/right node records this package
// maintains instead of a proof computed against an in-memory leaf array.
type Receipt struct {
	Leaf    [32]byte       `json:"leaf"`
	Root    [32]byte       `json:"root"`
	Entries []ReceiptEntry `json:"entries"`
}

// ReceiptEntry is a single step of the proof path: the sibling hash and
// whether it sits on the right of the current node (so the next hash is
// SHA3-256(current || sibling)) or on the left (SHA3-256(sibling || current)).
type ReceiptEntry struct {
	Hash  [32]byte `json:"hash"`
	Right bool     `json:"right"`
}

// MerklePath builds a Receipt proving txHash is included under the tree's
// current root, by walking persisted node records from the leaf to the
// root via each node's Parent pointer.
func (t *Tree) MerklePath(txHash [32]byte) (*Receipt, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	hash := txHash[:]
	if v, err := t.kv.Get(leafKey(hash)); err != nil {
		return nil, err
	} else if v == nil {
		return nil, ErrLeafNotFound
	}

	peaks, err := t.loadPeaks()
	if err != nil {
		return nil, err
	}
	root, err := bagPeaks(peaks)
	if err != nil {
		return nil, err
	}

	receipt := &Receipt{Leaf: txHash, Root: root}
	current := hash
	for {
		node, err := t.getNode(current)
		if err != nil {
			return nil, err
		}
		if node == nil || len(node.Parent) == 0 {
			break
		}
		parent, err := t.getNode(node.Parent)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, fmt.Errorf("merkle: missing parent node record for %x", node.Parent)
		}
		switch {
		case bytes.Equal(parent.Left, current):
			var sib [32]byte
			copy(sib[:], parent.Right)
			receipt.Entries = append(receipt.Entries, ReceiptEntry{Hash: sib, Right: true})
		case bytes.Equal(parent.Right, current):
			var sib [32]byte
			copy(sib[:], parent.Left)
			receipt.Entries = append(receipt.Entries, ReceiptEntry{Hash: sib, Right: false})
		default:
			return nil, fmt.Errorf("merkle: node %x is not a child of its recorded parent", current)
		}
		current = node.Parent
	}

	// current is now the hash of the peak that originally contained txHash;
	// bagging folds peaks left-to-right, so the bag of the peaks to its left
	// is one "sibling on the left" step, and each peak to its right is an
	// additional "sibling on the right" step up to the bagged root.
	idx := -1
	for i, p := range peaks {
		if bytes.Equal(p.Hash, current) {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, fmt.Errorf("merkle: leaf's peak not found in current frontier")
	}
	if idx > 0 {
		leftBag, err := bagPeaks(peaks[:idx])
		if err != nil {
			return nil, err
		}
		receipt.Entries = append(receipt.Entries, ReceiptEntry{Hash: leftBag, Right: false})
	}
	for i := idx + 1; i < len(peaks); i++ {
		var sib [32]byte
		copy(sib[:], peaks[i].Hash)
		receipt.Entries = append(receipt.Entries, ReceiptEntry{Hash: sib, Right: true})
	}

	return receipt, nil
}

// VerifyReceipt independently recomputes the root from leaf and the
// receipt's proof path and reports whether it matches expectedRoot,
// without requiring access to the tree itself.
func VerifyReceipt(leaf [32]byte, r *Receipt, expectedRoot [32]byte) bool {
	current := leaf
	for _, entry := range r.Entries {
		if entry.Right {
			current = crypto.HashConcat(current[:], entry.Hash[:])
		} else {
			current = crypto.HashConcat(entry.Hash[:], current[:])
		}
	}
	return bytes.Equal(current[:], expectedRoot[:])
}
