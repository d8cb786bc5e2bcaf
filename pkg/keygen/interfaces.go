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

// Package keygen defines the seed-phrase SDK contract used to expand a
// derived seed into a long-term identity keypair, together with a default
// ed25519 implementation. The shielded-pool SDK ships its own implementation
// of the same contract; this package keeps the protocol core independent of
// it.
package keygen

// KeyPair is a long-term identity keypair reconstructed from a seed phrase.
type KeyPair struct {
	// PublicKey is the identity public key.
	PublicKey []byte `json:"public_key"`

	// PrivateKey is the identity private key. Never persisted in clear.
	PrivateKey []byte `json:"-"`

	// Address is the derived identity address.
	Address string `json:"address"`
}

// Result is the outcome of expanding a seed into a full identity: the
// keypair plus the human-recoverable seed phrase that reproduces it.
type Result struct {
	// SeedPhrase is the recovery phrase. Held only transiently during
	// account setup; persisted only inside the encrypted account payload.
	SeedPhrase string `json:"seed_phrase"`

	// KeyPair is the identity keypair expanded from the seed.
	KeyPair KeyPair `json:"key_pair"`
}

// SDK expands seeds into identity keypairs and reconstructs keypairs from
// seed phrases. Implementations must be deterministic: the same seed always
// yields the same phrase and keypair, and restoring the phrase yields the
// keypair that generation produced.
type SDK interface {
	// GenerateFromSeed expands a 32-byte hex seed into a keypair and a
	// seed phrase that reproduces it.
	GenerateFromSeed(hexSeed string) (*Result, error)

	// RestoreFromMnemonic reconstructs the identity keypair from a seed
	// phrase previously produced by GenerateFromSeed.
	RestoreFromMnemonic(seedPhrase string) (*KeyPair, error)
}

// Zero overwrites the private key material of a keypair.
func (k *KeyPair) Zero() {
	for i := range k.PrivateKey {
		k.PrivateKey[i] = 0
	}
}
