// Copyright 2025 Certen Protocol
//
// Package txexec implements the command executor of spec §4.3: sixteen
// total, deterministic functions over the world state. Execution of a
// transaction is all-or-nothing — every command runs against the same
// worldstate.WriteTx, and the caller discards it on the first error,
// leaving state untouched.
package txexec

import (
	"fmt"
	"sort"

	"github.com/certen/sumeragi-core/pkg/wire"
	"github.com/certen/sumeragi-core/pkg/worldstate"
)

// genesisCreatorID is the synthetic creator attributed to commands carrying
// no creator public key (spec §4.3 SetAccountDetail: "when called with no
// creator context (genesis), credit the detail to 'genesis'").
const genesisCreatorID = "genesis"

// Executor runs commands against an open world-state transaction. It holds
// no state of its own.
type Executor struct{}

// New returns an Executor.
func New() *Executor {
	return &Executor{}
}

// ExecuteTransaction runs every command of t against tx in array order
// (spec §5: "within a transaction, command effects are applied sequentially
// in array order"), stopping at the first failure.
func (e *Executor) ExecuteTransaction(tx *worldstate.WriteTx, t *wire.Transaction) error {
	creatorID, err := resolveCreatorID(tx, t.CreatorPublicKey)
	if err != nil {
		return err
	}
	for i, cmd := range t.Commands {
		if err := e.ExecuteCommand(tx, creatorID, cmd); err != nil {
			return fmt.Errorf("txexec: command %d (%s): %w", i, cmd.Kind(), err)
		}
	}
	return nil
}

// ExecuteCommand runs a single command against tx under an already-resolved
// creator account ID.
func (e *Executor) ExecuteCommand(tx *worldstate.WriteTx, creatorID string, cmd wire.Command) error {
	switch c := cmd.(type) {
	case wire.AddAssetQuantity:
		return executeAddAssetQuantity(tx, creatorID, c)
	case wire.SubtractAssetQuantity:
		return executeSubtractAssetQuantity(tx, creatorID, c)
	case wire.TransferAsset:
		return executeTransferAsset(tx, c)
	case wire.CreateAccount:
		return executeCreateAccount(tx, c)
	case wire.SetAccountDetail:
		return executeSetAccountDetail(tx, creatorID, c)
	case wire.SetQuorum:
		return executeSetQuorum(tx, c)
	case wire.AddSignatory:
		return executeAddSignatory(tx, c)
	case wire.RemoveSignatory:
		return executeRemoveSignatory(tx, c)
	case wire.CreateAsset:
		return executeCreateAsset(tx, c)
	case wire.CreateDomain:
		return executeCreateDomain(tx, c)
	case wire.CreateRole:
		return executeCreateRole(tx, c)
	case wire.AppendRole:
		return executeAppendRole(tx, c)
	case wire.DetachRole:
		return executeDetachRole(tx, c)
	case wire.GrantPermission:
		return executeGrantPermission(tx, creatorID, c)
	case wire.RevokePermission:
		return executeRevokePermission(tx, creatorID, c)
	case wire.AddPeer:
		return executeAddPeer(tx, c)
	default:
		return fmt.Errorf("txexec: unknown command kind %T", cmd)
	}
}

// resolveCreatorID mirrors pkg/validation's ResolveCreator: an empty public
// key (genesis transactions, which predate any account to bind a key to)
// resolves to the synthetic "genesis" creator rather than failing the
// lookup. A key bound to several accounts resolves to the lexicographically
// first account ID here, where ResolveCreator rejects it.
func resolveCreatorID(tx *worldstate.WriteTx, pubkey []byte) (string, error) {
	if len(pubkey) == 0 {
		return genesisCreatorID, nil
	}
	ids, err := tx.AccountsForSignatory(pubkey)
	if err != nil {
		return "", fmt.Errorf("txexec: resolve creator: %w", err)
	}
	if len(ids) == 0 {
		return "", fmt.Errorf("txexec: creator public key is not bound to any account")
	}
	sort.Strings(ids)
	return ids[0], nil
}
