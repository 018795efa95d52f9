package txexec

import (
	"errors"
	"testing"

	"github.com/certen/sumeragi-core/pkg/amount"
	"github.com/certen/sumeragi-core/pkg/wire"
	"github.com/certen/sumeragi-core/pkg/worldstate"
)

func newStore() *worldstate.Store {
	return worldstate.NewStore(worldstate.NewMemKV())
}

func TestTransferAssetHappyPath(t *testing.T) {
	store := newStore()
	bal, err := amount.FromString("10000", 2)
	if err != nil {
		t.Fatal(err)
	}
	seed := store.Begin()
	if err := seed.PutAsset(&worldstate.Asset{ID: "coin#x", DomainID: "x", Precision: 2}); err != nil {
		t.Fatal(err)
	}
	if err := seed.PutAccountAsset(&worldstate.AccountAsset{AccountID: "alice@x", AssetID: "coin#x", Balance: bal}); err != nil {
		t.Fatal(err)
	}
	if err := seed.Commit(); err != nil {
		t.Fatal(err)
	}

	amt, err := amount.FromString("2500", 2)
	if err != nil {
		t.Fatal(err)
	}
	cmd := wire.TransferAsset{SrcAccountID: "alice@x", DstAccountID: "bob@x", AssetID: "coin#x", Amount: amt}

	e := New()
	tx := store.Begin()
	if err := e.ExecuteCommand(tx, "alice@x", cmd); err != nil {
		t.Fatalf("transfer should succeed, got %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}

	tx = store.Begin()
	srcWallet, err := tx.GetAccountAsset("alice@x", "coin#x")
	if err != nil {
		t.Fatal(err)
	}
	if srcWallet.Balance.String() != "7500" {
		t.Fatalf("src balance = %s, want 7500", srcWallet.Balance)
	}
	dstWallet, err := tx.GetAccountAsset("bob@x", "coin#x")
	if err != nil {
		t.Fatal(err)
	}
	if dstWallet.Balance.String() != "2500" {
		t.Fatalf("dst balance = %s, want 2500", dstWallet.Balance)
	}
	tx.Discard()
}

func TestTransferAssetInsufficientBalanceLeavesStateUntouched(t *testing.T) {
	store := newStore()
	bal, err := amount.FromString("100", 2)
	if err != nil {
		t.Fatal(err)
	}
	seed := store.Begin()
	if err := seed.PutAsset(&worldstate.Asset{ID: "coin#x", DomainID: "x", Precision: 2}); err != nil {
		t.Fatal(err)
	}
	if err := seed.PutAccountAsset(&worldstate.AccountAsset{AccountID: "alice@x", AssetID: "coin#x", Balance: bal}); err != nil {
		t.Fatal(err)
	}
	if err := seed.Commit(); err != nil {
		t.Fatal(err)
	}

	amt, err := amount.FromString("2500", 2)
	if err != nil {
		t.Fatal(err)
	}
	cmd := wire.TransferAsset{SrcAccountID: "alice@x", DstAccountID: "bob@x", AssetID: "coin#x", Amount: amt}

	e := New()
	tx := store.Begin()
	if err := e.ExecuteCommand(tx, "alice@x", cmd); !errors.Is(err, amount.ErrUnderflow) {
		t.Fatalf("expected amount.ErrUnderflow, got %v", err)
	}
	tx.Discard()

	tx = store.Begin()
	defer tx.Discard()
	if _, err := tx.GetAccountAsset("bob@x", "coin#x"); !errors.Is(err, worldstate.ErrNotFound) {
		t.Fatalf("dst wallet should not have been created, got err=%v", err)
	}
	srcWallet, err := tx.GetAccountAsset("alice@x", "coin#x")
	if err != nil {
		t.Fatal(err)
	}
	if srcWallet.Balance.String() != "100" {
		t.Fatalf("src balance should be untouched, got %s", srcWallet.Balance)
	}
}

func TestSetQuorumExecutesDirectly(t *testing.T) {
	store := newStore()
	seed := store.Begin()
	if err := seed.PutAccount(&worldstate.Account{ID: "alice@x", DomainID: "x", Quorum: 1}); err != nil {
		t.Fatal(err)
	}
	if err := seed.Commit(); err != nil {
		t.Fatal(err)
	}

	e := New()
	tx := store.Begin()
	if err := e.ExecuteCommand(tx, "alice@x", wire.SetQuorum{AccountID: "alice@x", Quorum: 3}); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetAccount("alice@x")
	if err != nil {
		t.Fatal(err)
	}
	if got.Quorum != 3 {
		t.Fatalf("quorum = %d, want 3", got.Quorum)
	}
}

func TestCreateAccountBindsDefaultRole(t *testing.T) {
	store := newStore()
	seed := store.Begin()
	if err := seed.PutDomain(&worldstate.Domain{ID: "x", DefaultRole: "user"}); err != nil {
		t.Fatal(err)
	}
	if err := seed.Commit(); err != nil {
		t.Fatal(err)
	}

	e := New()
	tx := store.Begin()
	cmd := wire.CreateAccount{Name: "alice", DomainID: "x", PublicKey: []byte("alice-key")}
	if err := e.ExecuteCommand(tx, genesisCreatorID, cmd); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}

	account, err := store.GetAccount("alice@x")
	if err != nil {
		t.Fatal(err)
	}
	if account.Quorum != 1 || account.JSONData != "{}" {
		t.Fatalf("unexpected account defaults: %+v", account)
	}
	if !account.HasRole("user") {
		t.Fatalf("expected default role user, got %v", account.Roles)
	}
}

func TestSetAccountDetailAttributesToGenesis(t *testing.T) {
	store := newStore()
	seed := store.Begin()
	if err := seed.PutAccount(&worldstate.Account{ID: "alice@x", DomainID: "x", Quorum: 1, JSONData: "{}"}); err != nil {
		t.Fatal(err)
	}
	if err := seed.Commit(); err != nil {
		t.Fatal(err)
	}

	e := New()
	tx := store.Begin()
	cmd := wire.SetAccountDetail{AccountID: "alice@x", Key: "email", Value: "alice@example.com"}
	if err := e.ExecuteCommand(tx, genesisCreatorID, cmd); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}

	account, err := store.GetAccount("alice@x")
	if err != nil {
		t.Fatal(err)
	}
	if account.JSONData != `{"genesis":{"email":"alice@example.com"}}` {
		t.Fatalf("unexpected json_data: %s", account.JSONData)
	}
}

func TestExecuteTransactionAbortsOnFirstFailure(t *testing.T) {
	store := newStore()
	seed := store.Begin()
	if err := seed.PutAccount(&worldstate.Account{ID: "alice@x", DomainID: "x", Quorum: 1}); err != nil {
		t.Fatal(err)
	}
	if err := seed.Commit(); err != nil {
		t.Fatal(err)
	}

	tx := store.Begin()
	txn := &wire.Transaction{
		CreatorPublicKey: nil,
		Commands: []wire.Command{
			wire.SetQuorum{AccountID: "alice@x", Quorum: 2},
			wire.SetQuorum{AccountID: "missing@x", Quorum: 2},
		},
	}
	e := New()
	if err := e.ExecuteTransaction(tx, txn); err == nil {
		t.Fatal("expected failure on unknown account")
	}
	tx.Discard()

	// Since nothing was committed, alice's quorum must be untouched.
	got, err := store.GetAccount("alice@x")
	if err != nil {
		t.Fatal(err)
	}
	if got.Quorum != 1 {
		t.Fatalf("quorum = %d, want unchanged 1", got.Quorum)
	}
}
