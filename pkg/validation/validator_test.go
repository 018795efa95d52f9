package validation

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/certen/sumeragi-core/pkg/amount"
	"github.com/certen/sumeragi-core/pkg/wire"
	"github.com/certen/sumeragi-core/pkg/worldstate"
)

func newStore(t *testing.T) *worldstate.Store {
	t.Helper()
	return worldstate.NewStore(worldstate.NewMemKV())
}

// seedAccount creates an account bound to pubkey, with the given roles and
// quorum, committing the setup so later test transactions see it.
func seedAccount(t *testing.T, store *worldstate.Store, id, domain string, pubkey []byte, roles []string, quorum uint8) {
	t.Helper()
	tx := store.Begin()
	if err := tx.AddSignatory(id, pubkey); err != nil {
		t.Fatal(err)
	}
	if err := tx.PutAccount(&worldstate.Account{
		ID: id, DomainID: domain, Quorum: quorum, JSONData: "{}",
		Signatories: []string{hex.EncodeToString(pubkey)}, Roles: roles,
	}); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}
}

func seedRole(t *testing.T, store *worldstate.Store, name string, perms ...string) {
	t.Helper()
	tx := store.Begin()
	if err := tx.PutRole(&worldstate.Role{Name: name, Permissions: perms}); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}
}

func seedAsset(t *testing.T, store *worldstate.Store, id, domain string, precision uint8) {
	t.Helper()
	tx := store.Begin()
	if err := tx.PutAsset(&worldstate.Asset{ID: id, DomainID: domain, Precision: precision}); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}
}

func seedWallet(t *testing.T, store *worldstate.Store, accountID, assetID, balance string, precision uint8) {
	t.Helper()
	bal, err := amount.FromString(balance, precision)
	if err != nil {
		t.Fatal(err)
	}
	tx := store.Begin()
	if err := tx.PutAccountAsset(&worldstate.AccountAsset{AccountID: accountID, AssetID: assetID, Balance: bal}); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}
}

func TestTransferHappyPath(t *testing.T) {
	store := newStore(t)
	alicePK, bobPK := []byte("alice-key"), []byte("bob-key")
	seedRole(t, store, "sender", "transfer")
	seedRole(t, store, "receiver", "can_receive")
	seedAccount(t, store, "alice@x", "x", alicePK, []string{"sender"}, 1)
	seedAccount(t, store, "bob@x", "x", bobPK, []string{"receiver"}, 1)
	seedAsset(t, store, "coin#x", "x", 2)
	seedWallet(t, store, "alice@x", "coin#x", "10000", 2)

	amt, err := amount.FromString("2500", 2)
	if err != nil {
		t.Fatal(err)
	}
	cmd := wire.TransferAsset{SrcAccountID: "alice@x", DstAccountID: "bob@x", AssetID: "coin#x", Amount: amt}

	tx := store.Begin()
	defer tx.Discard()
	v := New()
	creator, err := ResolveCreator(tx, alicePK)
	if err != nil {
		t.Fatal(err)
	}
	if err := v.ValidateCommand(tx, creator, cmd); err != nil {
		t.Fatalf("expected transfer to validate, got %v", err)
	}
}

func TestTransferRejectsOverdraft(t *testing.T) {
	store := newStore(t)
	alicePK, bobPK := []byte("alice-key"), []byte("bob-key")
	seedRole(t, store, "sender", "transfer")
	seedRole(t, store, "receiver", "can_receive")
	seedAccount(t, store, "alice@x", "x", alicePK, []string{"sender"}, 1)
	seedAccount(t, store, "bob@x", "x", bobPK, []string{"receiver"}, 1)
	seedAsset(t, store, "coin#x", "x", 2)
	seedWallet(t, store, "alice@x", "coin#x", "100", 2)

	amt, err := amount.FromString("2500", 2)
	if err != nil {
		t.Fatal(err)
	}
	cmd := wire.TransferAsset{SrcAccountID: "alice@x", DstAccountID: "bob@x", AssetID: "coin#x", Amount: amt}

	tx := store.Begin()
	defer tx.Discard()
	v := New()
	creator, err := ResolveCreator(tx, alicePK)
	if err != nil {
		t.Fatal(err)
	}
	if err := v.ValidateCommand(tx, creator, cmd); !errors.Is(err, ErrInfeasible) {
		t.Fatalf("expected ErrInfeasible for insufficient balance, got %v", err)
	}
}

func TestTransferRejectsMissingCanReceive(t *testing.T) {
	store := newStore(t)
	alicePK, bobPK := []byte("alice-key"), []byte("bob-key")
	seedRole(t, store, "sender", "transfer")
	seedAccount(t, store, "alice@x", "x", alicePK, []string{"sender"}, 1)
	seedAccount(t, store, "bob@x", "x", bobPK, nil, 1)
	seedAsset(t, store, "coin#x", "x", 2)
	seedWallet(t, store, "alice@x", "coin#x", "10000", 2)

	amt, _ := amount.FromString("100", 2)
	cmd := wire.TransferAsset{SrcAccountID: "alice@x", DstAccountID: "bob@x", AssetID: "coin#x", Amount: amt}

	tx := store.Begin()
	defer tx.Discard()
	v := New()
	creator, err := ResolveCreator(tx, alicePK)
	if err != nil {
		t.Fatal(err)
	}
	if err := v.ValidateCommand(tx, creator, cmd); !errors.Is(err, ErrNoPermission) {
		t.Fatalf("expected ErrNoPermission, got %v", err)
	}
}

func TestRemoveSignatoryRejectsQuorumUnderflow(t *testing.T) {
	store := newStore(t)
	pk := []byte("alice-key")
	seedRole(t, store, "admin", "remove_signatory")
	seedAccount(t, store, "alice@x", "x", pk, []string{"admin"}, 1)

	cmd := wire.RemoveSignatory{AccountID: "alice@x", PublicKey: pk}

	tx := store.Begin()
	defer tx.Discard()
	v := New()
	creator, err := ResolveCreator(tx, pk)
	if err != nil {
		t.Fatal(err)
	}
	if err := v.ValidateCommand(tx, creator, cmd); !errors.Is(err, ErrInfeasible) {
		t.Fatalf("expected ErrInfeasible: removing the sole signatory drops below quorum 1, got %v", err)
	}
}

func TestAppendRoleRejectsSupersetPermissions(t *testing.T) {
	store := newStore(t)
	pk := []byte("alice-key")
	seedRole(t, store, "limited", "append_role")
	seedRole(t, store, "powerful", "append_role", "create_role", "add_peer")
	seedAccount(t, store, "alice@x", "x", pk, []string{"limited"}, 1)

	cmd := wire.AppendRole{AccountID: "alice@x", Role: "powerful"}

	tx := store.Begin()
	defer tx.Discard()
	v := New()
	creator, err := ResolveCreator(tx, pk)
	if err != nil {
		t.Fatal(err)
	}
	if err := v.ValidateCommand(tx, creator, cmd); !errors.Is(err, ErrInfeasible) {
		t.Fatalf("expected ErrInfeasible: powerful grants permissions alice lacks, got %v", err)
	}
}

func TestAppendRoleAcceptsSubsetPermissions(t *testing.T) {
	store := newStore(t)
	pk := []byte("alice-key")
	seedRole(t, store, "admin", "append_role", "create_role", "add_peer")
	seedRole(t, store, "limited", "append_role")
	seedAccount(t, store, "alice@x", "x", pk, []string{"admin"}, 1)

	cmd := wire.AppendRole{AccountID: "alice@x", Role: "limited"}

	tx := store.Begin()
	defer tx.Discard()
	v := New()
	creator, err := ResolveCreator(tx, pk)
	if err != nil {
		t.Fatal(err)
	}
	if err := v.ValidateCommand(tx, creator, cmd); err != nil {
		t.Fatalf("expected append_role to validate, got %v", err)
	}
}

func TestSetQuorumRejectsOutOfRange(t *testing.T) {
	store := newStore(t)
	pk := []byte("alice-key")
	seedRole(t, store, "admin", "set_quorum")
	seedAccount(t, store, "alice@x", "x", pk, []string{"admin"}, 1)

	cmd := wire.SetQuorum{AccountID: "alice@x", Quorum: 0}

	tx := store.Begin()
	defer tx.Discard()
	v := New()
	creator, err := ResolveCreator(tx, pk)
	if err != nil {
		t.Fatal(err)
	}
	if err := v.ValidateCommand(tx, creator, cmd); !errors.Is(err, ErrInfeasible) {
		t.Fatalf("expected ErrInfeasible for quorum 0, got %v", err)
	}
}

func TestSetQuorumRejectsMissingRoleOnOtherAccount(t *testing.T) {
	store := newStore(t)
	alicePK, bobPK := []byte("alice-key"), []byte("bob-key")
	seedAccount(t, store, "alice@x", "x", alicePK, nil, 1)
	seedAccount(t, store, "bob@x", "x", bobPK, nil, 1)

	cmd := wire.SetQuorum{AccountID: "bob@x", Quorum: 1}

	tx := store.Begin()
	defer tx.Discard()
	v := New()
	creator, err := ResolveCreator(tx, alicePK)
	if err != nil {
		t.Fatal(err)
	}
	if err := v.ValidateCommand(tx, creator, cmd); !errors.Is(err, ErrNoPermission) {
		t.Fatalf("expected ErrNoPermission: alice has neither the role nor a grant from bob, got %v", err)
	}
}

func TestSetQuorumAcceptsGrantableFromTarget(t *testing.T) {
	store := newStore(t)
	alicePK, bobPK := []byte("alice-key"), []byte("bob-key")
	seedAccount(t, store, "alice@x", "x", alicePK, nil, 1)
	seedAccount(t, store, "bob@x", "x", bobPK, nil, 1)

	tx := store.Begin()
	if err := tx.GrantPermission("alice@x", "bob@x", "set_my_quorum"); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}

	cmd := wire.SetQuorum{AccountID: "bob@x", Quorum: 1}

	tx = store.Begin()
	defer tx.Discard()
	v := New()
	creator, err := ResolveCreator(tx, alicePK)
	if err != nil {
		t.Fatal(err)
	}
	if err := v.ValidateCommand(tx, creator, cmd); err != nil {
		t.Fatalf("expected grantable set_my_quorum to authorize, got %v", err)
	}
}

func TestResolveCreatorRejectsUnknownKey(t *testing.T) {
	store := newStore(t)
	tx := store.Begin()
	defer tx.Discard()
	if _, err := ResolveCreator(tx, []byte("ghost-key")); !errors.Is(err, ErrUnknownCreator) {
		t.Fatalf("expected ErrUnknownCreator, got %v", err)
	}
}

func TestGrantPermissionRequiresMatchingRole(t *testing.T) {
	store := newStore(t)
	pk := []byte("alice-key")
	seedAccount(t, store, "alice@x", "x", pk, nil, 1)

	cmd := wire.GrantPermission{AccountID: "bob@x", Permission: "set_my_quorum"}

	tx := store.Begin()
	defer tx.Discard()
	v := New()
	creator, err := ResolveCreator(tx, pk)
	if err != nil {
		t.Fatal(err)
	}
	if err := v.ValidateCommand(tx, creator, cmd); !errors.Is(err, ErrNoPermission) {
		t.Fatalf("expected ErrNoPermission: alice lacks set_quorum, got %v", err)
	}
}

func TestAddAssetQuantityRejectsNonPositive(t *testing.T) {
	store := newStore(t)
	pk := []byte("alice-key")
	seedRole(t, store, "minter", "add_asset_qty")
	seedAccount(t, store, "alice@x", "x", pk, []string{"minter"}, 1)
	seedAsset(t, store, "coin#x", "x", 2)

	cmd := wire.AddAssetQuantity{AssetID: "coin#x", Amount: amount.Zero(2)}

	tx := store.Begin()
	defer tx.Discard()
	v := New()
	creator, err := ResolveCreator(tx, pk)
	if err != nil {
		t.Fatal(err)
	}
	if err := v.ValidateCommand(tx, creator, cmd); !errors.Is(err, ErrInfeasible) {
		t.Fatalf("expected ErrInfeasible for zero amount, got %v", err)
	}
}
