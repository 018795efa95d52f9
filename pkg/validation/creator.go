package validation

import (
	"fmt"
	"sort"

	"github.com/certen/sumeragi-core/pkg/worldstate"
)

// genesisCreatorID is the synthetic creator attributed to commands carrying
// no creator public key (spec §4.3 SetAccountDetail: "when called with no
// creator context (genesis), credit the detail to 'genesis'"), mirroring
// pkg/txexec's resolveCreatorID.
const genesisCreatorID = "genesis"

// genesisAccount stands in for a resolved creator account on a genesis
// transaction, which predates any account a key could be bound to.
var genesisAccount = &worldstate.Account{ID: genesisCreatorID}

// ResolveCreator resolves a transaction's creator account from its public
// key via the world state's signatory reverse index (spec §4.2): the wire
// Transaction carries only CreatorPublicKey, not an account ID, so the
// validator must look up the account(s) bound to that key. An empty public
// key resolves to the synthetic genesis account rather than failing, the
// same carve-out pkg/txexec's resolveCreatorID already makes.
//
// A key bound to more than one account is rejected rather than guessed at;
// spec.md does not address multi-account signatories acting as a single
// transaction creator, so this is treated as an ambiguous request.
func ResolveCreator(tx *worldstate.WriteTx, pubkey []byte) (*worldstate.Account, error) {
	if len(pubkey) == 0 {
		return genesisAccount, nil
	}
	ids, err := tx.AccountsForSignatory(pubkey)
	if err != nil {
		return nil, fmt.Errorf("validation: resolve creator: %w", err)
	}
	if len(ids) == 0 {
		return nil, ErrUnknownCreator
	}
	if len(ids) > 1 {
		sort.Strings(ids)
		return nil, fmt.Errorf("%w: bound to %v", ErrAmbiguousCreator, ids)
	}
	account, err := tx.GetAccount(ids[0])
	if err != nil {
		return nil, fmt.Errorf("validation: load creator account %s: %w", ids[0], err)
	}
	return account, nil
}
