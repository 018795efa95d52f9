package merkle

import (
	"testing"

	"github.com/certen/sumeragi-core/pkg/crypto"
	"github.com/certen/sumeragi-core/pkg/worldstate"
)

func leafHash(payload []byte) [32]byte {
	return crypto.Hash(payload)
}

// get_leaf(append(tx)) == tx (spec §8 round-trip property).
func TestAppendGetLeafRoundTrip(t *testing.T) {
	tree := New(worldstate.NewMemKV())
	payload := []byte("transaction-1")
	h := leafHash(payload)

	if _, err := tree.Append(h, payload); err != nil {
		t.Fatal(err)
	}

	got, err := tree.GetLeaf(h)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(payload) {
		t.Fatalf("got leaf %q, want %q", got, payload)
	}

	ok, err := tree.Contains(h)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected tree to contain appended leaf")
	}
}

func TestAppendDuplicateRejected(t *testing.T) {
	tree := New(worldstate.NewMemKV())
	payload := []byte("transaction-1")
	h := leafHash(payload)

	if _, err := tree.Append(h, payload); err != nil {
		t.Fatal(err)
	}
	if _, err := tree.Append(h, payload); err != ErrLeafExists {
		t.Fatalf("expected ErrLeafExists, got %v", err)
	}
}

func TestRootDeterministicAcrossReplicas(t *testing.T) {
	payloads := [][]byte{
		[]byte("tx-a"), []byte("tx-b"), []byte("tx-c"), []byte("tx-d"), []byte("tx-e"),
	}

	treeA := New(worldstate.NewMemKV())
	treeB := New(worldstate.NewMemKV())

	var rootA, rootB [32]byte
	var err error
	for _, p := range payloads {
		h := leafHash(p)
		rootA, err = treeA.Append(h, p)
		if err != nil {
			t.Fatal(err)
		}
		rootB, err = treeB.Append(h, p)
		if err != nil {
			t.Fatal(err)
		}
	}

	if rootA != rootB {
		t.Fatalf("replica roots diverged: %x != %x", rootA, rootB)
	}

	persisted, err := treeA.Root()
	if err != nil {
		t.Fatal(err)
	}
	if persisted != rootA {
		t.Fatalf("Root() = %x, want last Append result %x", persisted, rootA)
	}
}

func TestRootEmptyTree(t *testing.T) {
	tree := New(worldstate.NewMemKV())
	if _, err := tree.Root(); err != ErrEmptyTree {
		t.Fatalf("expected ErrEmptyTree, got %v", err)
	}
}

func TestGetLeafUnknownHash(t *testing.T) {
	tree := New(worldstate.NewMemKV())
	unknown := crypto.Hash([]byte("never appended"))
	if _, err := tree.GetLeaf(unknown); err != ErrLeafNotFound {
		t.Fatalf("expected ErrLeafNotFound, got %v", err)
	}
}

func TestMerklePathVerifies(t *testing.T) {
	tree := New(worldstate.NewMemKV())
	payloads := [][]byte{[]byte("tx-1"), []byte("tx-2"), []byte("tx-3"), []byte("tx-4"), []byte("tx-5")}

	var root [32]byte
	var err error
	hashes := make([][32]byte, len(payloads))
	for i, p := range payloads {
		hashes[i] = leafHash(p)
		root, err = tree.Append(hashes[i], p)
		if err != nil {
			t.Fatal(err)
		}
	}

	for i, h := range hashes {
		receipt, err := tree.MerklePath(h)
		if err != nil {
			t.Fatalf("leaf %d: %v", i, err)
		}
		if !VerifyReceipt(h, receipt, root) {
			t.Fatalf("leaf %d: receipt failed to verify against root %x", i, root)
		}
	}
}

func TestLeafCount(t *testing.T) {
	tree := New(worldstate.NewMemKV())
	for i := 0; i < 4; i++ {
		if _, err := tree.Append(leafHash([]byte{byte(i)}), []byte{byte(i)}); err != nil {
			t.Fatal(err)
		}
	}
	n, err := tree.LeafCount()
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Fatalf("LeafCount() = %d, want 4", n)
	}
}
