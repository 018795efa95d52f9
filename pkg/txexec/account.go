package txexec

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/certen/sumeragi-core/pkg/wire"
	"github.com/certen/sumeragi-core/pkg/worldstate"
)

// executeCreateAccount inserts the signatory, then an account with
// quorum=1 and json_data="{}", bound to the domain's default role
// (spec §4.3).
func executeCreateAccount(tx *worldstate.WriteTx, c wire.CreateAccount) error {
	domain, err := tx.GetDomain(c.DomainID)
	if err != nil {
		return err
	}
	id := c.Name + "@" + c.DomainID
	if err := tx.AddSignatory(id, c.PublicKey); err != nil {
		return err
	}
	account := &worldstate.Account{
		ID:          id,
		DomainID:    c.DomainID,
		Quorum:      1,
		JSONData:    "{}",
		Signatories: []string{hex.EncodeToString(c.PublicKey)},
	}
	if domain.DefaultRole != "" {
		account.Roles = []string{domain.DefaultRole}
	}
	return tx.PutAccount(account)
}

// accountDetails is the per-writer key/value document stored in
// Account.JSONData: each writer (an account ID, or "genesis") owns its own
// key namespace, matching spec §4.3's SetAccountDetail attribution rule.
type accountDetails map[string]map[string]string

// executeSetAccountDetail credits the detail to "genesis" when creatorID is
// the synthetic genesis creator, otherwise to the resolved creator account
// (spec §4.3).
func executeSetAccountDetail(tx *worldstate.WriteTx, creatorID string, c wire.SetAccountDetail) error {
	account, err := tx.GetAccount(c.AccountID)
	if err != nil {
		return err
	}
	details := accountDetails{}
	if account.JSONData != "" {
		if err := json.Unmarshal([]byte(account.JSONData), &details); err != nil {
			return fmt.Errorf("txexec: decode account detail for %s: %w", c.AccountID, err)
		}
	}
	if details[creatorID] == nil {
		details[creatorID] = map[string]string{}
	}
	details[creatorID][c.Key] = c.Value

	b, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("txexec: encode account detail for %s: %w", c.AccountID, err)
	}
	account.JSONData = string(b)
	return tx.PutAccount(account)
}

func executeSetQuorum(tx *worldstate.WriteTx, c wire.SetQuorum) error {
	account, err := tx.GetAccount(c.AccountID)
	if err != nil {
		return err
	}
	account.Quorum = c.Quorum
	return tx.PutAccount(account)
}

func executeAddSignatory(tx *worldstate.WriteTx, c wire.AddSignatory) error {
	if err := tx.AddSignatory(c.AccountID, c.PublicKey); err != nil {
		return err
	}
	account, err := tx.GetAccount(c.AccountID)
	if err != nil {
		return err
	}
	keyHex := hex.EncodeToString(c.PublicKey)
	for _, s := range account.Signatories {
		if s == keyHex {
			return nil
		}
	}
	account.Signatories = append(account.Signatories, keyHex)
	return tx.PutAccount(account)
}

// executeRemoveSignatory unbinds the key and drops the global signatory
// record if nothing else references it (spec §4.3; the latter half is
// handled by worldstate.RemoveSignatory's own refcount check).
func executeRemoveSignatory(tx *worldstate.WriteTx, c wire.RemoveSignatory) error {
	if err := tx.RemoveSignatory(c.AccountID, c.PublicKey); err != nil {
		return err
	}
	account, err := tx.GetAccount(c.AccountID)
	if err != nil {
		return err
	}
	keyHex := hex.EncodeToString(c.PublicKey)
	kept := account.Signatories[:0]
	for _, s := range account.Signatories {
		if s != keyHex {
			kept = append(kept, s)
		}
	}
	account.Signatories = kept
	return tx.PutAccount(account)
}

func executeCreateDomain(tx *worldstate.WriteTx, c wire.CreateDomain) error {
	return tx.PutDomain(&worldstate.Domain{ID: c.DomainID, DefaultRole: c.DefaultRole})
}

func executeCreateRole(tx *worldstate.WriteTx, c wire.CreateRole) error {
	return tx.PutRole(&worldstate.Role{Name: c.Name, Permissions: c.Permissions})
}

func executeAppendRole(tx *worldstate.WriteTx, c wire.AppendRole) error {
	account, err := tx.GetAccount(c.AccountID)
	if err != nil {
		return err
	}
	if account.HasRole(c.Role) {
		return nil
	}
	account.Roles = append(account.Roles, c.Role)
	return tx.PutAccount(account)
}

func executeDetachRole(tx *worldstate.WriteTx, c wire.DetachRole) error {
	account, err := tx.GetAccount(c.AccountID)
	if err != nil {
		return err
	}
	kept := account.Roles[:0]
	for _, r := range account.Roles {
		if r != c.Role {
			kept = append(kept, r)
		}
	}
	account.Roles = kept
	return tx.PutAccount(account)
}

func executeGrantPermission(tx *worldstate.WriteTx, creatorID string, c wire.GrantPermission) error {
	return tx.GrantPermission(c.AccountID, creatorID, c.Permission)
}

func executeRevokePermission(tx *worldstate.WriteTx, creatorID string, c wire.RevokePermission) error {
	return tx.RevokePermission(c.AccountID, creatorID, c.Permission)
}
