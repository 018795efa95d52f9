package txexec

import (
	"errors"
	"fmt"

	"github.com/certen/sumeragi-core/pkg/wire"
	"github.com/certen/sumeragi-core/pkg/worldstate"
)

// executeAddAssetQuantity upserts AccountAsset(creator, asset): creates a
// wallet at the command's amount if none exists, else adds to the existing
// balance. Overflow aborts the command (spec §4.3). A freshly created
// wallet's balance is rescaled to the asset's own declared precision (spec
// §3: "balance.precision = asset.precision"), since isValid only requires
// the command's amount precision not exceed it, not equal it.
func executeAddAssetQuantity(tx *worldstate.WriteTx, creatorID string, c wire.AddAssetQuantity) error {
	wallet, err := tx.GetAccountAsset(creatorID, c.AssetID)
	if err != nil {
		if !errors.Is(err, worldstate.ErrNotFound) {
			return err
		}
		asset, err := tx.GetAsset(c.AssetID)
		if err != nil {
			return err
		}
		balance, err := c.Amount.AtPrecision(asset.Precision)
		if err != nil {
			return fmt.Errorf("txexec: add_asset_quantity: %w", err)
		}
		return tx.PutAccountAsset(&worldstate.AccountAsset{
			AccountID: creatorID, AssetID: c.AssetID, Balance: balance,
		})
	}
	amt, err := c.Amount.AtPrecision(wallet.Balance.Precision)
	if err != nil {
		return fmt.Errorf("txexec: add_asset_quantity: %w", err)
	}
	newBalance, err := wallet.Balance.Add(amt)
	if err != nil {
		return fmt.Errorf("txexec: add_asset_quantity: %w", err)
	}
	wallet.Balance = newBalance
	return tx.PutAccountAsset(wallet)
}

// executeSubtractAssetQuantity requires an existing wallet; underflow
// aborts the command (spec §4.3).
func executeSubtractAssetQuantity(tx *worldstate.WriteTx, creatorID string, c wire.SubtractAssetQuantity) error {
	wallet, err := tx.GetAccountAsset(creatorID, c.AssetID)
	if err != nil {
		return err
	}
	amt, err := c.Amount.AtPrecision(wallet.Balance.Precision)
	if err != nil {
		return fmt.Errorf("txexec: subtract_asset_quantity: %w", err)
	}
	newBalance, err := wallet.Balance.Sub(amt)
	if err != nil {
		return fmt.Errorf("txexec: subtract_asset_quantity: %w", err)
	}
	wallet.Balance = newBalance
	return tx.PutAccountAsset(wallet)
}

// executeTransferAsset debits src and credits dst atomically within the
// same WriteTx, creating dst's wallet if it does not yet hold the asset
// (spec §4.3). Both wallets' balances stay at the asset's own declared
// precision (spec §3), regardless of what precision the command itself
// was submitted at.
func executeTransferAsset(tx *worldstate.WriteTx, c wire.TransferAsset) error {
	asset, err := tx.GetAsset(c.AssetID)
	if err != nil {
		return err
	}
	amt, err := c.Amount.AtPrecision(asset.Precision)
	if err != nil {
		return fmt.Errorf("txexec: transfer_asset: %w", err)
	}

	src, err := tx.GetAccountAsset(c.SrcAccountID, c.AssetID)
	if err != nil {
		return err
	}
	srcNew, err := src.Balance.Sub(amt)
	if err != nil {
		return fmt.Errorf("txexec: transfer_asset: %w", err)
	}

	dst, err := tx.GetAccountAsset(c.DstAccountID, c.AssetID)
	if err != nil {
		if !errors.Is(err, worldstate.ErrNotFound) {
			return err
		}
		dst = worldstate.NewAccountAssetWallet(c.DstAccountID, c.AssetID, asset.Precision)
	}
	dstNew, err := dst.Balance.Add(amt)
	if err != nil {
		return fmt.Errorf("txexec: transfer_asset: %w", err)
	}

	src.Balance = srcNew
	if err := tx.PutAccountAsset(src); err != nil {
		return err
	}
	dst.Balance = dstNew
	return tx.PutAccountAsset(dst)
}

func executeCreateAsset(tx *worldstate.WriteTx, c wire.CreateAsset) error {
	return tx.PutAsset(&worldstate.Asset{
		ID:        c.Name + "#" + c.DomainID,
		DomainID:  c.DomainID,
		Precision: c.Precision,
	})
}
