// Copyright 2025 Certen Protocol
//
// Package validation implements the command validator of spec §4.2:
// hasPermissions (role/grantable authority) and isValid (stateful
// feasibility), both pure functions over an open world-state transaction.
package validation

import "errors"

// Sentinel errors for validation operations.
var (
	// ErrNoPermission is returned when the creator lacks the role or
	// grantable authority a command requires.
	ErrNoPermission = errors.New("validation: creator lacks required authority")

	// ErrInfeasible is returned when a command cannot succeed against the
	// current world state regardless of authority (quorum, balance, precision).
	ErrInfeasible = errors.New("validation: command not feasible against current world state")

	// ErrUnknownCreator is returned when the transaction's public key is not
	// bound as a signatory to any account.
	ErrUnknownCreator = errors.New("validation: creator public key is not bound to any account")

	// ErrAmbiguousCreator is returned when the transaction's public key is
	// bound to more than one account, so the creator account cannot be
	// resolved unambiguously.
	ErrAmbiguousCreator = errors.New("validation: creator public key is bound to more than one account")
)
