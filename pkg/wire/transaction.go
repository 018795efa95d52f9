package wire

import (
	"encoding/json"
	"fmt"

	cryptox "github.com/certen/sumeragi-core/pkg/crypto"
)

// TxSignature is a transaction signature over the transaction hash (spec §3).
type TxSignature struct {
	PublicKey []byte `json:"public_key"`
	Signature []byte `json:"signature"`
}

// Transaction carries a creator, a monotonically increasing timestamp, an
// ordered list of commands, and zero or more signatures (spec §3).
// Transactions are immutable once hashed.
type Transaction struct {
	CreatorPublicKey []byte        `json:"creator_pubkey"`
	CreatedTime      uint64        `json:"created_time"` // unix-ms
	Commands         []Command     `json:"commands"`
	Signatures       []TxSignature `json:"tx_signatures,omitempty"`
}

// taggedCommand is the canonical on-the-wire shape for a Command: a kind tag
// plus its own (fixed field order) JSON payload. This is what spec §9 calls
// a sum type dispatched by exhaustive match, serialized deterministically.
type taggedCommand struct {
	Kind    CommandKind     `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// MarshalCommand renders a Command to its tagged canonical form.
func MarshalCommand(c Command) (json.RawMessage, error) {
	payload, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("wire: marshal command payload: %w", err)
	}
	return json.Marshal(taggedCommand{Kind: c.Kind(), Payload: payload})
}

// UnmarshalCommand parses a tagged canonical command back into its concrete type.
func UnmarshalCommand(raw json.RawMessage) (Command, error) {
	var tagged taggedCommand
	if err := json.Unmarshal(raw, &tagged); err != nil {
		return nil, fmt.Errorf("wire: unmarshal tagged command: %w", err)
	}
	return decodePayload(tagged.Kind, tagged.Payload)
}

func decodePayload(kind CommandKind, payload json.RawMessage) (Command, error) {
	switch kind {
	case KindAddAssetQuantity:
		var v AddAssetQuantity
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, err
		}
		return v, nil
	case KindSubtractAssetQuantity:
		var v SubtractAssetQuantity
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, err
		}
		return v, nil
	case KindTransferAsset:
		var v TransferAsset
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, err
		}
		return v, nil
	case KindCreateAccount:
		var v CreateAccount
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, err
		}
		return v, nil
	case KindSetAccountDetail:
		var v SetAccountDetail
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, err
		}
		return v, nil
	case KindSetQuorum:
		var v SetQuorum
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, err
		}
		return v, nil
	case KindAddSignatory:
		var v AddSignatory
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, err
		}
		return v, nil
	case KindRemoveSignatory:
		var v RemoveSignatory
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, err
		}
		return v, nil
	case KindCreateAsset:
		var v CreateAsset
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, err
		}
		return v, nil
	case KindCreateDomain:
		var v CreateDomain
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, err
		}
		return v, nil
	case KindCreateRole:
		var v CreateRole
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, err
		}
		return v, nil
	case KindAppendRole:
		var v AppendRole
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, err
		}
		return v, nil
	case KindDetachRole:
		var v DetachRole
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, err
		}
		return v, nil
	case KindGrantPermission:
		var v GrantPermission
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, err
		}
		return v, nil
	case KindRevokePermission:
		var v RevokePermission
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, err
		}
		return v, nil
	case KindAddPeer:
		var v AddPeer
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, fmt.Errorf("wire: unknown command kind %q", kind)
	}
}

// wireTransaction is Transaction's on-the-wire shape: Commands is encoded as
// tagged canonical commands (taggedCommand) rather than the bare interface
// slice encoding/json would otherwise attempt (and fail to round-trip).
type wireTransaction struct {
	CreatorPublicKey []byte            `json:"creator_pubkey"`
	CreatedTime      uint64            `json:"created_time"`
	Commands         []json.RawMessage `json:"commands"`
	Signatures       []TxSignature     `json:"tx_signatures,omitempty"`
}

// MarshalJSON implements the wire encoding of spec §6: a transaction travels
// as {creator_pubkey, created_time, commands[], tx_signatures[]} with each
// command in its tagged canonical form.
func (t *Transaction) MarshalJSON() ([]byte, error) {
	cmds := make([]json.RawMessage, len(t.Commands))
	for i, c := range t.Commands {
		raw, err := MarshalCommand(c)
		if err != nil {
			return nil, err
		}
		cmds[i] = raw
	}
	return json.Marshal(wireTransaction{
		CreatorPublicKey: t.CreatorPublicKey,
		CreatedTime:      t.CreatedTime,
		Commands:         cmds,
		Signatures:       t.Signatures,
	})
}

// UnmarshalJSON decodes the wire encoding produced by MarshalJSON, resolving
// each tagged command back to its concrete Command implementation.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var w wireTransaction
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("wire: unmarshal transaction: %w", err)
	}
	cmds := make([]Command, len(w.Commands))
	for i, raw := range w.Commands {
		cmd, err := UnmarshalCommand(raw)
		if err != nil {
			return err
		}
		cmds[i] = cmd
	}
	t.CreatorPublicKey = w.CreatorPublicKey
	t.CreatedTime = w.CreatedTime
	t.Commands = cmds
	t.Signatures = w.Signatures
	return nil
}

// canonicalTxPayload is the (creator, timestamp, commands) tuple hashed per spec §3.
type canonicalTxPayload struct {
	Creator   []byte            `json:"creator"`
	Timestamp uint64            `json:"timestamp"`
	Commands  []json.RawMessage `json:"commands"`
}

// CanonicalBytes renders the deterministic serialization of
// (creator, timestamp, commands) that the transaction hash is computed over
// (spec §3). Signatures are excluded: they are computed over this digest.
func (t *Transaction) CanonicalBytes() ([]byte, error) {
	cmds := make([]json.RawMessage, len(t.Commands))
	for i, c := range t.Commands {
		raw, err := MarshalCommand(c)
		if err != nil {
			return nil, err
		}
		cmds[i] = raw
	}
	return json.Marshal(canonicalTxPayload{
		Creator:   t.CreatorPublicKey,
		Timestamp: t.CreatedTime,
		Commands:  cmds,
	})
}

// Hash computes the deterministic SHA3-256 digest of the canonical
// serialization (spec §3). Transactions are immutable once hashed.
func (t *Transaction) Hash() ([32]byte, error) {
	b, err := t.CanonicalBytes()
	if err != nil {
		return [32]byte{}, err
	}
	return cryptox.Hash(b), nil
}
