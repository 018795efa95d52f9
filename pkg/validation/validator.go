package validation

import (
	"fmt"

	"github.com/certen/sumeragi-core/pkg/wire"
	"github.com/certen/sumeragi-core/pkg/worldstate"
)

// Validator runs spec §4.2's two gates — hasPermissions then isValid — for
// every command of a transaction, against an already-open world-state
// transaction. Both gates are pure: nothing here mutates tx.
type Validator struct{}

// New returns a Validator. It carries no state of its own; every check
// reads through the WriteTx passed to ValidateTransaction.
func New() *Validator {
	return &Validator{}
}

// ValidateTransaction resolves the transaction's creator account and runs
// every command through hasPermissions and isValid, in that order, failing
// fast on the first command that does not clear both gates (spec §4.2:
// "Both gates must pass before execute"). A genesis transaction (empty
// CreatorPublicKey) carries no creator to check roles or grantables
// against, so both gates are skipped for it (spec §4.3's genesis
// carve-out), matching pkg/txexec's unconditional execution of genesis
// commands.
func (v *Validator) ValidateTransaction(tx *worldstate.WriteTx, t *wire.Transaction) error {
	creator, err := ResolveCreator(tx, t.CreatorPublicKey)
	if err != nil {
		return err
	}
	if creator.ID == genesisCreatorID {
		return nil
	}
	for i, cmd := range t.Commands {
		if err := v.ValidateCommand(tx, creator, cmd); err != nil {
			return fmt.Errorf("validation: command %d (%s): %w", i, cmd.Kind(), err)
		}
	}
	return nil
}

// ValidateCommand runs a single command through both gates against an
// already-resolved creator account.
func (v *Validator) ValidateCommand(tx *worldstate.WriteTx, creator *worldstate.Account, cmd wire.Command) error {
	if err := hasPermissions(tx, creator, cmd); err != nil {
		return err
	}
	return isValid(tx, creator, cmd)
}
