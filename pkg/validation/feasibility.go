package validation

import (
	"errors"
	"fmt"

	"github.com/certen/sumeragi-core/pkg/wire"
	"github.com/certen/sumeragi-core/pkg/worldstate"
)

// wrapIfNotFound turns a worldstate.ErrNotFound into an ErrInfeasible
// carrying a domain-specific message; any other error passes through
// unchanged (e.g. a KV backend failure, which is not a validation verdict).
func wrapIfNotFound(err error, msg string) error {
	if errors.Is(err, worldstate.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrInfeasible, msg)
	}
	return err
}

// isValid is spec §4.2's stateful feasibility check: does cmd stand a
// chance of succeeding against the current world state, independent of
// whether creator is authorized to submit it. Like hasPermissions, this
// never mutates state.
func isValid(tx *worldstate.WriteTx, creator *worldstate.Account, cmd wire.Command) error {
	switch c := cmd.(type) {
	case wire.AppendRole:
		return requireSubsetOfCreatorPermissions(tx, creator, c.Role)
	case wire.CreateRole:
		return validateCreateRole(tx, creator, c)
	case wire.RemoveSignatory:
		return validateRemoveSignatory(tx, c)
	case wire.SetQuorum:
		return validateSetQuorum(tx, c)
	case wire.TransferAsset:
		return validateTransferAsset(tx, c)
	case wire.AddAssetQuantity:
		return validateAddAssetQuantity(tx, c)
	case wire.SubtractAssetQuantity:
		return validateSubtractAssetQuantity(tx, creator, c)
	default:
		return nil
	}
}

func validateCreateRole(tx *worldstate.WriteTx, creator *worldstate.Account, c wire.CreateRole) error {
	creatorPerms, err := rolePermissions(tx, creator)
	if err != nil {
		return err
	}
	for _, p := range c.Permissions {
		if !creatorPerms[p] {
			return fmt.Errorf("%w: creator does not hold permission %s granted by new role %s", ErrInfeasible, p, c.Name)
		}
	}
	return nil
}

func validateRemoveSignatory(tx *worldstate.WriteTx, c wire.RemoveSignatory) error {
	account, err := tx.GetAccount(c.AccountID)
	if err != nil {
		return wrapIfNotFound(err, fmt.Sprintf("account %s does not exist", c.AccountID))
	}
	if len(account.Signatories)-1 < int(account.Quorum) {
		return fmt.Errorf("%w: removing a signatory would leave %d, below quorum %d", ErrInfeasible, len(account.Signatories)-1, account.Quorum)
	}
	return nil
}

func validateSetQuorum(tx *worldstate.WriteTx, c wire.SetQuorum) error {
	if c.Quorum < 1 || c.Quorum > 9 {
		return fmt.Errorf("%w: quorum %d out of range [1,9]", ErrInfeasible, c.Quorum)
	}
	account, err := tx.GetAccount(c.AccountID)
	if err != nil {
		return wrapIfNotFound(err, fmt.Sprintf("account %s does not exist", c.AccountID))
	}
	if len(account.Signatories) < int(c.Quorum) {
		return fmt.Errorf("%w: account has %d signatories, fewer than requested quorum %d", ErrInfeasible, len(account.Signatories), c.Quorum)
	}
	return nil
}

func validateTransferAsset(tx *worldstate.WriteTx, c wire.TransferAsset) error {
	asset, err := tx.GetAsset(c.AssetID)
	if err != nil {
		return wrapIfNotFound(err, fmt.Sprintf("asset %s does not exist", c.AssetID))
	}
	if c.Amount.Precision > asset.Precision {
		return fmt.Errorf("%w: amount precision %d exceeds asset precision %d", ErrInfeasible, c.Amount.Precision, asset.Precision)
	}
	if _, err := tx.GetAccount(c.DstAccountID); err != nil {
		return wrapIfNotFound(err, fmt.Sprintf("dst account %s does not exist", c.DstAccountID))
	}
	srcWallet, err := tx.GetAccountAsset(c.SrcAccountID, c.AssetID)
	if err != nil {
		return wrapIfNotFound(err, fmt.Sprintf("%s does not hold asset %s", c.SrcAccountID, c.AssetID))
	}
	amt, err := c.Amount.AtPrecision(srcWallet.Balance.Precision)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInfeasible, err)
	}
	if srcWallet.Balance.Cmp(amt) < 0 {
		return fmt.Errorf("%w: %s balance is insufficient for the transfer", ErrInfeasible, c.SrcAccountID)
	}
	return nil
}

func validateAddAssetQuantity(tx *worldstate.WriteTx, c wire.AddAssetQuantity) error {
	asset, err := tx.GetAsset(c.AssetID)
	if err != nil {
		return wrapIfNotFound(err, fmt.Sprintf("asset %s does not exist", c.AssetID))
	}
	if c.Amount.Precision > asset.Precision {
		return fmt.Errorf("%w: amount precision %d exceeds asset precision %d", ErrInfeasible, c.Amount.Precision, asset.Precision)
	}
	if !c.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInfeasible)
	}
	return nil
}

func validateSubtractAssetQuantity(tx *worldstate.WriteTx, creator *worldstate.Account, c wire.SubtractAssetQuantity) error {
	asset, err := tx.GetAsset(c.AssetID)
	if err != nil {
		return wrapIfNotFound(err, fmt.Sprintf("asset %s does not exist", c.AssetID))
	}
	if c.Amount.Precision > asset.Precision {
		return fmt.Errorf("%w: amount precision %d exceeds asset precision %d", ErrInfeasible, c.Amount.Precision, asset.Precision)
	}
	if !c.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInfeasible)
	}
	wallet, err := tx.GetAccountAsset(creator.ID, c.AssetID)
	if err != nil {
		return wrapIfNotFound(err, fmt.Sprintf("%s does not hold asset %s", creator.ID, c.AssetID))
	}
	amt, err := c.Amount.AtPrecision(wallet.Balance.Precision)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInfeasible, err)
	}
	if wallet.Balance.Cmp(amt) < 0 {
		return fmt.Errorf("%w: %s balance is insufficient to subtract", ErrInfeasible, creator.ID)
	}
	return nil
}
