package worldstate

import (
	"encoding/json"
	"fmt"

	"github.com/certen/sumeragi-core/pkg/amount"
)

// ====== Account ======

func (tx *WriteTx) GetAccount(id string) (*Account, error) {
	b, err := tx.rawGet(accountKey(id))
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrNotFound
	}
	var a Account
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, fmt.Errorf("worldstate: decode account %s: %w", id, err)
	}
	return &a, nil
}

func (tx *WriteTx) PutAccount(a *Account) error {
	b, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("worldstate: encode account %s: %w", a.ID, err)
	}
	tx.rawPut(accountKey(a.ID), b)
	return nil
}

func (tx *WriteTx) AccountExists(id string) (bool, error) {
	return tx.rawHas(accountKey(id))
}

// ====== Asset ======

func (tx *WriteTx) GetAsset(id string) (*Asset, error) {
	b, err := tx.rawGet(assetKey(id))
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrNotFound
	}
	var a Asset
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, fmt.Errorf("worldstate: decode asset %s: %w", id, err)
	}
	return &a, nil
}

func (tx *WriteTx) PutAsset(a *Asset) error {
	b, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("worldstate: encode asset %s: %w", a.ID, err)
	}
	tx.rawPut(assetKey(a.ID), b)
	return nil
}

func (tx *WriteTx) AssetExists(id string) (bool, error) {
	return tx.rawHas(assetKey(id))
}

// ====== Domain ======

func (tx *WriteTx) GetDomain(id string) (*Domain, error) {
	b, err := tx.rawGet(domainKey(id))
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrNotFound
	}
	var d Domain
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("worldstate: decode domain %s: %w", id, err)
	}
	return &d, nil
}

func (tx *WriteTx) PutDomain(d *Domain) error {
	b, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("worldstate: encode domain %s: %w", d.ID, err)
	}
	tx.rawPut(domainKey(d.ID), b)
	return nil
}

func (tx *WriteTx) DomainExists(id string) (bool, error) {
	return tx.rawHas(domainKey(id))
}

// ====== Role ======

func (tx *WriteTx) GetRole(name string) (*Role, error) {
	b, err := tx.rawGet(roleKey(name))
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrNotFound
	}
	var r Role
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("worldstate: decode role %s: %w", name, err)
	}
	return &r, nil
}

func (tx *WriteTx) PutRole(r *Role) error {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("worldstate: encode role %s: %w", r.Name, err)
	}
	tx.rawPut(roleKey(r.Name), b)
	return nil
}

func (tx *WriteTx) RoleExists(name string) (bool, error) {
	return tx.rawHas(roleKey(name))
}

// ====== AccountAsset ======

func (tx *WriteTx) GetAccountAsset(accountID, assetID string) (*AccountAsset, error) {
	b, err := tx.rawGet(accountAssetKey(accountID, assetID))
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrNotFound
	}
	var aa AccountAsset
	if err := json.Unmarshal(b, &aa); err != nil {
		return nil, fmt.Errorf("worldstate: decode account-asset %s/%s: %w", accountID, assetID, err)
	}
	return &aa, nil
}

func (tx *WriteTx) PutAccountAsset(aa *AccountAsset) error {
	b, err := json.Marshal(aa)
	if err != nil {
		return fmt.Errorf("worldstate: encode account-asset: %w", err)
	}
	tx.rawPut(accountAssetKey(aa.AccountID, aa.AssetID), b)
	return nil
}

// NewAccountAssetWallet creates a zero-balance wallet at the asset's precision.
func NewAccountAssetWallet(accountID, assetID string, precision uint8) *AccountAsset {
	return &AccountAsset{AccountID: accountID, AssetID: assetID, Balance: amount.Zero(precision)}
}

// ====== Signatories ======

// AddSignatory binds pubkey to accountID (spec §4.3 AddSignatory/CreateAccount).
// Maintains the forward account->signatory list, the reverse signatory->account
// index used by RemoveSignatory's refcount check, and the global Signatory record.
func (tx *WriteTx) AddSignatory(accountID string, pubkey []byte) error {
	keyHex := hexKey(pubkey)
	tx.rawPut(accountSignatoryKey(accountID, keyHex), []byte{1})
	tx.rawPut(signatoryAccountKey(keyHex, accountID), []byte{1})
	if ok, err := tx.rawHas(signatoryKey(keyHex)); err != nil {
		return err
	} else if !ok {
		tx.rawPut(signatoryKey(keyHex), pubkey)
	}
	return nil
}

// RemoveSignatory unbinds pubkey from accountID and, if no other account
// references it, removes the global Signatory record (spec §4.3:
// "remove the signatory record itself if no other account references it").
func (tx *WriteTx) RemoveSignatory(accountID string, pubkey []byte) error {
	keyHex := hexKey(pubkey)
	tx.rawDelete(accountSignatoryKey(accountID, keyHex))
	tx.rawDelete(signatoryAccountKey(keyHex, accountID))

	remaining, err := tx.rawPrefixScan(signatoryAccountPrefix(keyHex))
	if err != nil {
		return err
	}
	if len(remaining) == 0 {
		tx.rawDelete(signatoryKey(keyHex))
	}
	return nil
}

// HasSignatory reports whether pubkey is bound to accountID.
func (tx *WriteTx) HasSignatory(accountID string, pubkey []byte) (bool, error) {
	return tx.rawHas(accountSignatoryKey(accountID, hexKey(pubkey)))
}

// AccountsForSignatory returns every account that lists pubkey as a
// signatory, via the reverse index RemoveSignatory's refcount check also
// uses. Command validation (§4.2) resolves a transaction's creator account
// this way, since a creator is identified on the wire only by public key.
func (tx *WriteTx) AccountsForSignatory(pubkey []byte) ([]string, error) {
	entries, err := tx.rawPrefixScanKeys(signatoryAccountPrefix(hexKey(pubkey)))
	if err != nil {
		return nil, err
	}
	accounts := make([]string, 0, len(entries))
	prefix := signatoryAccountPrefix(hexKey(pubkey))
	for _, k := range entries {
		accounts = append(accounts, k[len(prefix):])
	}
	return accounts, nil
}

// ====== Grantable permissions ======

func (tx *WriteTx) GrantPermission(grantee, grantor, perm string) error {
	tx.rawPut(grantableKey(grantee, grantor, perm), []byte{1})
	return nil
}

func (tx *WriteTx) RevokePermission(grantee, grantor, perm string) error {
	tx.rawDelete(grantableKey(grantee, grantor, perm))
	return nil
}

func (tx *WriteTx) HasGrantable(grantee, grantor, perm string) (bool, error) {
	return tx.rawHas(grantableKey(grantee, grantor, perm))
}

// ====== Peer directory persistence ======

func (tx *WriteTx) GetPeers() ([]Peer, error) {
	b, err := tx.rawGet(keyPeers)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, nil
	}
	var peers []Peer
	if err := json.Unmarshal(b, &peers); err != nil {
		return nil, fmt.Errorf("worldstate: decode peers: %w", err)
	}
	return peers, nil
}

func (tx *WriteTx) PutPeers(peers []Peer) error {
	b, err := json.Marshal(peers)
	if err != nil {
		return fmt.Errorf("worldstate: encode peers: %w", err)
	}
	tx.rawPut(keyPeers, b)
	return nil
}
