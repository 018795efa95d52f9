// Copyright 2025 Certen Protocol
//
// Package merkle is the Merkle transaction repository of spec §4.4: a
// binary Merkle tree indexed by append order, exposing leaf existence, the
// current root, and leaf retrieval. It exclusively owns the tree's node
// and leaf records (spec §3 "ownership"), sharing only the underlying
// storage contract with worldstate so both owners can share one
// database_path under disjoint key namespaces.
//
// Grounded on pkg/merkle/tree.go + pkg/merkle/receipt.go's hash-pair
// convention and persisted-proof shape; the append algorithm itself is new
// (see DESIGN.md) since the teacher's tree is a full rebuild-from-leaves
// batch structure, not an incremental single-leaf append.
package merkle

import "github.com/certen/sumeragi-core/pkg/worldstate"

// KV and Batch are aliases onto worldstate's storage contract: the Merkle
// repository is a second owner of the same kind of backing store, not a
// different storage technology.
type KV = worldstate.KV
type Batch = worldstate.Batch
