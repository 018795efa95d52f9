// Copyright 2025 Certen Protocol
//
// Package crypto provides the Ed25519 signing and SHA3-256 hashing
// primitives consumed as pure functions throughout the core (spec §6).
package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// PublicKeySize and SignatureSize match the wire contract (spec §6):
// public keys and signatures are fixed 32-byte and 64-byte Ed25519 blobs.
const (
	PublicKeySize  = ed25519.PublicKeySize
	PrivateKeySize = ed25519.PrivateKeySize
	SignatureSize  = ed25519.SignatureSize
	HashSize       = 32
)

var (
	// ErrInvalidKeySize is returned when a key does not match the Ed25519 fixed size.
	ErrInvalidKeySize = errors.New("crypto: invalid key size")
	// ErrInvalidSignatureSize is returned when a signature does not match the Ed25519 fixed size.
	ErrInvalidSignatureSize = errors.New("crypto: invalid signature size")
)

// Keypair wraps an Ed25519 key pair used as a replica's identity.
type Keypair struct {
	Public  ed25519.PublicKey
	Private ed25519.PrivateKey
}

// GenerateKeypair creates a new random Ed25519 key pair.
func GenerateKeypair() (*Keypair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("crypto: generate keypair: %w", err)
	}
	return &Keypair{Public: pub, Private: priv}, nil
}

// KeypairFromSeed derives a key pair from a 32-byte seed, e.g. loaded from
// the "me" config entry (spec §6 Configuration table).
func KeypairFromSeed(seed []byte) (*Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("%w: seed must be %d bytes, got %d", ErrInvalidKeySize, ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &Keypair{Public: priv.Public().(ed25519.PublicKey), Private: priv}, nil
}

// Sign signs digest (expected to be a Hash) with the private key.
func (k *Keypair) Sign(digest []byte) []byte {
	return ed25519.Sign(k.Private, digest)
}

// Hash computes the SHA3-256 digest of data, as required for transaction
// hashes, Merkle leaf/node hashes, and the payload signed at commit (spec §3, §4.4).
func Hash(data []byte) [HashSize]byte {
	return sha3.Sum256(data)
}

// HashConcat hashes the concatenation of left and right, used for Merkle
// internal node hashes (spec §4.4): SHA3-256(left_child_hash || right_child_hash).
func HashConcat(left, right []byte) [HashSize]byte {
	h := sha3.New256()
	h.Write(left)
	h.Write(right)
	var out [HashSize]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Verify checks that sig is a valid Ed25519 signature over digest under pub.
func Verify(pub, digest, sig []byte) bool {
	if len(pub) != PublicKeySize || len(sig) != SignatureSize {
		return false
	}
	return ed25519.Verify(pub, digest, sig)
}

// EncodeBase64 and DecodeBase64 are the Base64 helpers named in spec §1 as
// consumed pure functions (keys and signatures are rendered as base64 in logs).
func EncodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

func DecodeBase64(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}
