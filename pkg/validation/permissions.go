package validation

import (
	"fmt"

	"github.com/certen/sumeragi-core/pkg/permission"
	"github.com/certen/sumeragi-core/pkg/wire"
	"github.com/certen/sumeragi-core/pkg/worldstate"
)

// hasPermissions is spec §4.2's authority table: a pure decision of whether
// creator may submit cmd, checked before isValid.
func hasPermissions(tx *worldstate.WriteTx, creator *worldstate.Account, cmd wire.Command) error {
	switch c := cmd.(type) {
	case wire.AddAssetQuantity:
		return requireRole(tx, creator, permission.AddAssetQuantity)
	case wire.SubtractAssetQuantity:
		return requireRole(tx, creator, permission.SubtractAssetQuantity)
	case wire.AddSignatory:
		return requireOwnOrGrantable(tx, creator, c.AccountID, permission.AddSignatory, permission.AddMySignatory)
	case wire.RemoveSignatory:
		return requireOwnOrGrantable(tx, creator, c.AccountID, permission.RemoveSignatory, permission.RemoveMySignatory)
	case wire.SetQuorum:
		return requireOwnOrGrantable(tx, creator, c.AccountID, permission.SetQuorum, permission.SetMyQuorum)
	case wire.SetAccountDetail:
		return requireOwnOrGrantable(tx, creator, c.AccountID, permission.SetDetail, permission.SetMyAccountDetail)
	case wire.TransferAsset:
		return hasTransferPermission(tx, creator, c)
	case wire.AddPeer:
		return requireRole(tx, creator, permission.AddPeer)
	case wire.CreateAccount:
		return requireRole(tx, creator, permission.CreateAccount)
	case wire.CreateAsset:
		return requireRole(tx, creator, permission.CreateAsset)
	case wire.CreateDomain:
		return requireRole(tx, creator, permission.CreateDomain)
	case wire.CreateRole:
		return requireRole(tx, creator, permission.CreateRole)
	case wire.DetachRole:
		return requireRole(tx, creator, permission.DetachRole)
	case wire.AppendRole:
		return hasAppendRolePermission(tx, creator, c)
	case wire.GrantPermission:
		return hasGrantPermissionAuthority(tx, creator, c)
	case wire.RevokePermission:
		return hasRevokePermissionAuthority(tx, creator, c)
	default:
		return fmt.Errorf("validation: unknown command kind %T", cmd)
	}
}

// rolePermissions returns the union of every permission granted by account's
// bound roles.
func rolePermissions(tx *worldstate.WriteTx, account *worldstate.Account) (map[string]bool, error) {
	perms := make(map[string]bool)
	for _, roleName := range account.Roles {
		role, err := tx.GetRole(roleName)
		if err != nil {
			return nil, wrapIfNotFound(err, fmt.Sprintf("role %s bound to %s no longer exists", roleName, account.ID))
		}
		for _, p := range role.Permissions {
			perms[p] = true
		}
	}
	return perms, nil
}

func hasRolePermission(tx *worldstate.WriteTx, account *worldstate.Account, perm permission.RolePermission) (bool, error) {
	perms, err := rolePermissions(tx, account)
	if err != nil {
		return false, err
	}
	return perms[string(perm)], nil
}

func requireRole(tx *worldstate.WriteTx, creator *worldstate.Account, perm permission.RolePermission) error {
	ok, err := hasRolePermission(tx, creator, perm)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: missing role permission %s", ErrNoPermission, perm)
	}
	return nil
}

// requireOwnOrGrantable is spec §4.2's recurring "role on own account, else
// grantable X from target" rule.
func requireOwnOrGrantable(tx *worldstate.WriteTx, creator *worldstate.Account, target string, rolePerm permission.RolePermission, grantable permission.Grantable) error {
	if target == creator.ID {
		return requireRole(tx, creator, rolePerm)
	}
	ok, err := tx.HasGrantable(creator.ID, target, string(grantable))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: missing grantable %s from %s", ErrNoPermission, grantable, target)
	}
	return nil
}

// hasTransferPermission implements the two-sided TransferAsset rule: the
// destination account must be willing to receive, and the creator must
// hold authority over the source account.
func hasTransferPermission(tx *worldstate.WriteTx, creator *worldstate.Account, c wire.TransferAsset) error {
	dst, err := tx.GetAccount(c.DstAccountID)
	if err != nil {
		return wrapIfNotFound(err, fmt.Sprintf("dst account %s does not exist", c.DstAccountID))
	}
	canReceive, err := hasRolePermission(tx, dst, permission.CanReceive)
	if err != nil {
		return err
	}
	if !canReceive {
		return fmt.Errorf("%w: dst account %s lacks can_receive", ErrNoPermission, c.DstAccountID)
	}

	if c.SrcAccountID == creator.ID {
		ok, err := hasRolePermission(tx, creator, permission.Transfer)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	granted, err := tx.HasGrantable(creator.ID, c.SrcAccountID, string(permission.TransferMyAssets))
	if err != nil {
		return err
	}
	if !granted {
		return fmt.Errorf("%w: creator may not transfer assets from %s", ErrNoPermission, c.SrcAccountID)
	}
	return nil
}

func hasAppendRolePermission(tx *worldstate.WriteTx, creator *worldstate.Account, c wire.AppendRole) error {
	if err := requireRole(tx, creator, permission.AppendRole); err != nil {
		return err
	}
	return requireSubsetOfCreatorPermissions(tx, creator, c.Role)
}

// requireSubsetOfCreatorPermissions backs both AppendRole's authority check
// and its isValid feasibility check, which spec §4.2 states identically in
// both places: a role may only be appended if everything it grants is
// already held by the creator.
func requireSubsetOfCreatorPermissions(tx *worldstate.WriteTx, creator *worldstate.Account, roleName string) error {
	role, err := tx.GetRole(roleName)
	if err != nil {
		return wrapIfNotFound(err, fmt.Sprintf("role %s does not exist", roleName))
	}
	creatorPerms, err := rolePermissions(tx, creator)
	if err != nil {
		return err
	}
	for _, p := range role.Permissions {
		if !creatorPerms[p] {
			return fmt.Errorf("%w: role %s grants %s which creator does not hold", ErrInfeasible, roleName, p)
		}
	}
	return nil
}

func hasGrantPermissionAuthority(tx *worldstate.WriteTx, creator *worldstate.Account, c wire.GrantPermission) error {
	rolePerm, ok := permission.RoleForGrantable(permission.Grantable(c.Permission))
	if !ok {
		return fmt.Errorf("%w: %q is not a grantable permission", ErrInfeasible, c.Permission)
	}
	return requireRole(tx, creator, rolePerm)
}

func hasRevokePermissionAuthority(tx *worldstate.WriteTx, creator *worldstate.Account, c wire.RevokePermission) error {
	held, err := tx.HasGrantable(c.AccountID, creator.ID, c.Permission)
	if err != nil {
		return err
	}
	if !held {
		return fmt.Errorf("%w: %s does not hold grantable %s from creator", ErrNoPermission, c.AccountID, c.Permission)
	}
	return nil
}
