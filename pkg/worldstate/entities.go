package worldstate

import "github.com/certen/sumeragi-core/pkg/amount"

// Account is keyed by "name@domain" (spec §3 table).
type Account struct {
	ID          string   `json:"id"`
	DomainID    string   `json:"domain_id"`
	Quorum      uint8    `json:"quorum"`
	JSONData    string   `json:"json_data"`
	Signatories []string `json:"signatories"` // hex-encoded public keys
	Roles       []string `json:"roles"`
}

// HasRole reports whether the account has been appended the named role.
func (a *Account) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Asset is keyed by "name#domain" (spec §3 table).
type Asset struct {
	ID        string `json:"id"`
	DomainID  string `json:"domain_id"`
	Precision uint8  `json:"precision"`
}

// Domain is keyed by domain_id (spec §3 table).
type Domain struct {
	ID          string `json:"id"`
	DefaultRole string `json:"default_role"`
}

// Role is keyed by role_name (spec §3 table).
type Role struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// HasPermission reports whether the role grants the named permission.
func (r *Role) HasPermission(perm string) bool {
	for _, p := range r.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// AccountAsset is keyed by (account_id, asset_id) (spec §3 table).
type AccountAsset struct {
	AccountID string        `json:"account_id"`
	AssetID   string        `json:"asset_id"`
	Balance   amount.Amount `json:"balance"`
}

// Peer mirrors peerdir.Peer for durable storage in the world state
// (spec §4.3: AddPeer inserts into the peer directory, which the engine
// snapshots on its next round).
type Peer struct {
	PublicKey  []byte  `json:"public_key"`
	Address    string  `json:"address"`
	TrustScore float64 `json:"trust_score"`
	IsLive     bool    `json:"is_live"`
}
