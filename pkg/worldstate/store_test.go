package worldstate

import (
	"testing"

	"github.com/certen/sumeragi-core/pkg/amount"
)

func TestAccountRoundTrip(t *testing.T) {
	store := NewStore(NewMemKV())

	tx := store.Begin()
	acc := &Account{ID: "alice@x", DomainID: "x", Quorum: 1, JSONData: "{}", Signatories: []string{"ab"}}
	if err := tx.PutAccount(acc); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetAccount("alice@x")
	if err != nil {
		t.Fatal(err)
	}
	if got.DomainID != "x" || got.Quorum != 1 {
		t.Fatalf("unexpected account: %+v", got)
	}
}

// World state is bit-identical before and after a discarded transaction
// (spec §8).
func TestDiscardLeavesStateUntouched(t *testing.T) {
	store := NewStore(NewMemKV())

	seed := store.Begin()
	if err := seed.PutAccount(&Account{ID: "alice@x", DomainID: "x", Quorum: 1}); err != nil {
		t.Fatal(err)
	}
	if err := seed.Commit(); err != nil {
		t.Fatal(err)
	}

	tx := store.Begin()
	if err := tx.PutAccount(&Account{ID: "bob@x", DomainID: "x", Quorum: 1}); err != nil {
		t.Fatal(err)
	}
	tx.Discard()

	if _, err := store.GetAccount("bob@x"); err != ErrNotFound {
		t.Fatalf("expected discarded write to be absent, got err=%v", err)
	}
	if _, err := store.GetAccount("alice@x"); err != nil {
		t.Fatalf("seed account should still exist: %v", err)
	}
}

func TestSignatoryLifecycle(t *testing.T) {
	store := NewStore(NewMemKV())
	pk1 := []byte{1, 2, 3}
	pk2 := []byte{4, 5, 6}

	tx := store.Begin()
	if err := tx.AddSignatory("alice@x", pk1); err != nil {
		t.Fatal(err)
	}
	if err := tx.AddSignatory("bob@x", pk1); err != nil {
		t.Fatal(err)
	}
	if err := tx.AddSignatory("alice@x", pk2); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}

	tx = store.Begin()
	// removing from alice should NOT delete the global signatory record
	// for pk1, since bob still references it.
	if err := tx.RemoveSignatory("alice@x", pk1); err != nil {
		t.Fatal(err)
	}
	stillGlobal, err := tx.rawHas(signatoryKey(hexKey(pk1)))
	if err != nil {
		t.Fatal(err)
	}
	if !stillGlobal {
		t.Fatal("signatory record should survive while bob references it")
	}

	// removing pk2 from alice (the only referencer) should drop the record.
	if err := tx.RemoveSignatory("alice@x", pk2); err != nil {
		t.Fatal(err)
	}
	gone, err := tx.rawHas(signatoryKey(hexKey(pk2)))
	if err != nil {
		t.Fatal(err)
	}
	if gone {
		t.Fatal("signatory record for pk2 should be removed, no remaining references")
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}
}

func TestAccountAssetBalance(t *testing.T) {
	store := NewStore(NewMemKV())
	bal, err := amount.FromString("15000", 2)
	if err != nil {
		t.Fatal(err)
	}

	tx := store.Begin()
	if err := tx.PutAccountAsset(&AccountAsset{AccountID: "alice@x", AssetID: "coin#x", Balance: bal}); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}

	tx = store.Begin()
	got, err := tx.GetAccountAsset("alice@x", "coin#x")
	if err != nil {
		t.Fatal(err)
	}
	if got.Balance.String() != "15000" {
		t.Fatalf("balance = %s, want 15000", got.Balance)
	}
	tx.Discard()
}
