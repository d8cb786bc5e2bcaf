// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of shinobi-auth.
//
// shinobi-auth is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package keygen

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"
)

// SDK errors.
var (
	// ErrInvalidSeed is returned when the seed is not 32 bytes of hex.
	ErrInvalidSeed = errors.New("seed must be 32 bytes of hex")

	// ErrInvalidMnemonic is returned when a seed phrase fails checksum or
	// wordlist validation.
	ErrInvalidMnemonic = errors.New("invalid seed phrase")
)

// Ed25519SDK is the default SDK implementation: the 32-byte seed is encoded
// as a 24-word BIP39 mnemonic and expanded into an ed25519 identity keypair.
// The mnemonic encodes the seed itself, so restore is exact rather than a
// re-derivation.
type Ed25519SDK struct{}

// NewEd25519SDK creates the default seed-phrase SDK.
func NewEd25519SDK() *Ed25519SDK {
	return &Ed25519SDK{}
}

// GenerateFromSeed expands a 32-byte hex seed into an ed25519 keypair and a
// 24-word mnemonic.
func (s *Ed25519SDK) GenerateFromSeed(hexSeed string) (*Result, error) {
	seed, err := decodeSeed(hexSeed)
	if err != nil {
		return nil, err
	}

	mnemonic, err := bip39.NewMnemonic(seed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}

	pair := pairFromSeed(seed)
	return &Result{
		SeedPhrase: mnemonic,
		KeyPair:    *pair,
	}, nil
}

// RestoreFromMnemonic reconstructs the ed25519 keypair from a mnemonic
// produced by GenerateFromSeed.
func (s *Ed25519SDK) RestoreFromMnemonic(seedPhrase string) (*KeyPair, error) {
	phrase := strings.Join(strings.Fields(seedPhrase), " ")
	entropy, err := bip39.EntropyFromMnemonic(phrase)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMnemonic, err)
	}
	if len(entropy) != ed25519.SeedSize {
		return nil, fmt.Errorf("%w: %d-byte entropy", ErrInvalidMnemonic, len(entropy))
	}
	return pairFromSeed(entropy), nil
}

func decodeSeed(hexSeed string) ([]byte, error) {
	cleaned := strings.TrimPrefix(strings.TrimSpace(hexSeed), "0x")
	seed, err := hex.DecodeString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidSeed, len(seed))
	}
	return seed, nil
}

func pairFromSeed(seed []byte) *KeyPair {
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	return &KeyPair{
		PublicKey:  append([]byte(nil), pub...),
		PrivateKey: append([]byte(nil), priv...),
		Address:    addressFromPublicKey(pub),
	}
}

// addressFromPublicKey derives a printable identity address from the public
// key: the last 20 bytes of its SHA-256 digest, hex-encoded.
func addressFromPublicKey(pub []byte) string {
	digest := sha256.Sum256(pub)
	return "0x" + hex.EncodeToString(digest[len(digest)-20:])
}
