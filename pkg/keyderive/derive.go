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

// Package keyderive converts a wallet signature into two domain-separated
// secrets using HKDF-SHA256 (RFC 5869).
//
// The signature bytes are hashed with SHA-256 before use as input key
// material; ECDSA signatures are not uniformly random and must never be used
// directly as key material. The HKDF salt binds the derived keys to a
// protocol version, a chain id, and a wallet address, so a signature valid on
// one chain never yields usable keys on another. The two outputs are derived
// with distinct info strings, which makes them computationally independent
// even though they share salt and key material.
package keyderive

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

const (
	// saltPrefix versions the derivation. Changing it invalidates every
	// previously derived key.
	saltPrefix = "shinobi-wallet-auth-v1"

	infoKeyGen     = "shinobi-keygen"
	infoEncryption = "shinobi-encryption"

	// KeySize is the length in bytes of each derived secret.
	KeySize = 32

	// minSignatureSize is the smallest raw signature accepted as input key
	// material. A secp256k1 ECDSA signature is 64 or 65 bytes.
	minSignatureSize = 64
)

// Keys holds the two secrets derived from a single wallet signature.
type Keys struct {
	// KeyGenSeed seeds long-term identity key generation.
	KeyGenSeed []byte

	// EncryptionKey encrypts the account payload at rest.
	EncryptionKey []byte
}

// Zero overwrites both secrets. Callers should zero transient key material
// once it has been consumed.
func (k *Keys) Zero() {
	for i := range k.KeyGenSeed {
		k.KeyGenSeed[i] = 0
	}
	for i := range k.EncryptionKey {
		k.EncryptionKey[i] = 0
	}
}

// DeriveKeys derives the key-generation seed and the at-rest encryption key
// from a hex-encoded wallet signature. The function is pure and
// deterministic; identical inputs always yield identical outputs. It performs
// no I/O and fails only on malformed input.
func DeriveKeys(signatureHex string, chainID uint64, walletAddress string) (*Keys, error) {
	if strings.TrimSpace(walletAddress) == "" {
		return nil, ErrEmptyAddress
	}

	raw, err := decodeSignature(signatureHex)
	if err != nil {
		return nil, err
	}

	// Condense the non-uniform signature into uniform input key material.
	digest := sha256.Sum256(raw)

	salt := Salt(chainID, walletAddress)

	keyGenSeed, err := expand(digest[:], salt, infoKeyGen)
	if err != nil {
		return nil, fmt.Errorf("keyderive: expand keygen seed: %w", err)
	}
	encryptionKey, err := expand(digest[:], salt, infoEncryption)
	if err != nil {
		return nil, fmt.Errorf("keyderive: expand encryption key: %w", err)
	}

	return &Keys{
		KeyGenSeed:    keyGenSeed,
		EncryptionKey: encryptionKey,
	}, nil
}

// Salt builds the HKDF salt binding derived keys to the protocol version, a
// chain, and a wallet address. Addresses are lowercased so checksummed and
// plain hex forms of the same address derive identical keys.
func Salt(chainID uint64, walletAddress string) []byte {
	return []byte(fmt.Sprintf("%s:chain-%d:%s", saltPrefix, chainID, strings.ToLower(walletAddress)))
}

func decodeSignature(signatureHex string) ([]byte, error) {
	s := strings.TrimSpace(signatureHex)
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	if s == "" {
		return nil, ErrMalformedSignature
	}

	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}
	if len(raw) < minSignatureSize {
		return nil, fmt.Errorf("%w: %d bytes (minimum %d)", ErrShortSignature, len(raw), minSignatureSize)
	}
	return raw, nil
}

func expand(ikm, salt []byte, info string) ([]byte, error) {
	kdf := hkdf.New(sha256.New, ikm, salt, []byte(info))
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, err
	}
	return key, nil
}
