// Copyright 2025 Certen Protocol
//
// Package wire defines the tagged Command variant, Transaction,
// ConsensusEvent and BlockCommit payloads of spec §3 and §6, plus their
// canonical (deterministic) encoding used for hashing and signing.
//
// Grounded on pkg/consensus/validator_block.go's deterministic JSON struct
// tagging; spec §9 asks for a sum type dispatched by exhaustive match in
// place of the source's class hierarchy + manual tagged union.
package wire

import "github.com/certen/sumeragi-core/pkg/amount"

// CommandKind tags the 16 command variants of spec §3.
type CommandKind string

const (
	KindAddAssetQuantity      CommandKind = "AddAssetQuantity"
	KindSubtractAssetQuantity CommandKind = "SubtractAssetQuantity"
	KindTransferAsset         CommandKind = "TransferAsset"
	KindCreateAccount         CommandKind = "CreateAccount"
	KindSetAccountDetail      CommandKind = "SetAccountDetail"
	KindSetQuorum             CommandKind = "SetQuorum"
	KindAddSignatory          CommandKind = "AddSignatory"
	KindRemoveSignatory       CommandKind = "RemoveSignatory"
	KindCreateAsset           CommandKind = "CreateAsset"
	KindCreateDomain          CommandKind = "CreateDomain"
	KindCreateRole            CommandKind = "CreateRole"
	KindAppendRole            CommandKind = "AppendRole"
	KindDetachRole            CommandKind = "DetachRole"
	KindGrantPermission       CommandKind = "GrantPermission"
	KindRevokePermission      CommandKind = "RevokePermission"
	KindAddPeer               CommandKind = "AddPeer"
)

// Command is implemented by every command variant. Exhaustive switches over
// Kind() are the sum-type dispatch spec §9 asks for, eliminating the
// dynamic allocation and virtual dispatch of the source's class hierarchy.
type Command interface {
	Kind() CommandKind
}

type AddAssetQuantity struct {
	AssetID string        `json:"asset_id"`
	Amount  amount.Amount `json:"amount"`
}

func (AddAssetQuantity) Kind() CommandKind { return KindAddAssetQuantity }

type SubtractAssetQuantity struct {
	AssetID string        `json:"asset_id"`
	Amount  amount.Amount `json:"amount"`
}

func (SubtractAssetQuantity) Kind() CommandKind { return KindSubtractAssetQuantity }

type TransferAsset struct {
	SrcAccountID string        `json:"src_account_id"`
	DstAccountID string        `json:"dst_account_id"`
	AssetID      string        `json:"asset_id"`
	Amount       amount.Amount `json:"amount"`
	Description  string        `json:"description"`
}

func (TransferAsset) Kind() CommandKind { return KindTransferAsset }

type CreateAccount struct {
	Name      string `json:"name"`
	DomainID  string `json:"domain_id"`
	PublicKey []byte `json:"public_key"`
}

func (CreateAccount) Kind() CommandKind { return KindCreateAccount }

type SetAccountDetail struct {
	AccountID string `json:"account_id"`
	Key       string `json:"key"`
	Value     string `json:"value"`
}

func (SetAccountDetail) Kind() CommandKind { return KindSetAccountDetail }

type SetQuorum struct {
	AccountID string `json:"account_id"`
	Quorum    uint8  `json:"quorum"`
}

func (SetQuorum) Kind() CommandKind { return KindSetQuorum }

type AddSignatory struct {
	AccountID string `json:"account_id"`
	PublicKey []byte `json:"public_key"`
}

func (AddSignatory) Kind() CommandKind { return KindAddSignatory }

type RemoveSignatory struct {
	AccountID string `json:"account_id"`
	PublicKey []byte `json:"public_key"`
}

func (RemoveSignatory) Kind() CommandKind { return KindRemoveSignatory }

type CreateAsset struct {
	Name      string `json:"name"`
	DomainID  string `json:"domain_id"`
	Precision uint8  `json:"precision"`
}

func (CreateAsset) Kind() CommandKind { return KindCreateAsset }

type CreateDomain struct {
	DomainID    string `json:"domain_id"`
	DefaultRole string `json:"default_role"`
}

func (CreateDomain) Kind() CommandKind { return KindCreateDomain }

type CreateRole struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

func (CreateRole) Kind() CommandKind { return KindCreateRole }

type AppendRole struct {
	AccountID string `json:"account_id"`
	Role      string `json:"role"`
}

func (AppendRole) Kind() CommandKind { return KindAppendRole }

type DetachRole struct {
	AccountID string `json:"account_id"`
	Role      string `json:"role"`
}

func (DetachRole) Kind() CommandKind { return KindDetachRole }

type GrantPermission struct {
	AccountID  string `json:"account_id"`
	Permission string `json:"permission"`
}

func (GrantPermission) Kind() CommandKind { return KindGrantPermission }

type RevokePermission struct {
	AccountID  string `json:"account_id"`
	Permission string `json:"permission"`
}

func (RevokePermission) Kind() CommandKind { return KindRevokePermission }

type AddPeer struct {
	Address   string `json:"address"`
	PublicKey []byte `json:"public_key"`
}

func (AddPeer) Kind() CommandKind { return KindAddPeer }
