package merkle

import "errors"

var (
	// ErrLeafExists is returned by Append when the transaction hash is
	// already present in the tree (the repository is append-only).
	ErrLeafExists = errors.New("merkle: leaf already present")
	// ErrLeafNotFound is returned by GetLeaf/MerklePath for an unknown hash.
	ErrLeafNotFound = errors.New("merkle: leaf not found")
	// ErrEmptyTree is returned by Root on a tree with no appended leaves.
	ErrEmptyTree = errors.New("merkle: tree is empty")
)
