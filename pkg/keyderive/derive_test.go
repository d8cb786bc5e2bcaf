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

package keyderive

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAddress = "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B"
	testChainID = uint64(1)
)

// testSignature returns a synthetic 65-byte signature in hex.
func testSignature() string {
	raw := make([]byte, 65)
	for i := range raw {
		raw[i] = byte(i * 3)
	}
	return "0x" + hex.EncodeToString(raw)
}

func TestDeriveKeys_Deterministic(t *testing.T) {
	sig := testSignature()

	first, err := DeriveKeys(sig, testChainID, testAddress)
	require.NoError(t, err)
	second, err := DeriveKeys(sig, testChainID, testAddress)
	require.NoError(t, err)

	assert.Equal(t, first.KeyGenSeed, second.KeyGenSeed)
	assert.Equal(t, first.EncryptionKey, second.EncryptionKey)
	assert.Len(t, first.KeyGenSeed, KeySize)
	assert.Len(t, first.EncryptionKey, KeySize)
}

func TestDeriveKeys_DomainSeparation(t *testing.T) {
	keys, err := DeriveKeys(testSignature(), testChainID, testAddress)
	require.NoError(t, err)

	assert.NotEqual(t, keys.KeyGenSeed, keys.EncryptionKey,
		"keygen seed and encryption key must be independent")
}

func TestDeriveKeys_ChainBinding(t *testing.T) {
	sig := testSignature()

	mainnet, err := DeriveKeys(sig, 1, testAddress)
	require.NoError(t, err)
	optimism, err := DeriveKeys(sig, 10, testAddress)
	require.NoError(t, err)
	arbitrum, err := DeriveKeys(sig, 42161, testAddress)
	require.NoError(t, err)

	assert.NotEqual(t, mainnet.EncryptionKey, optimism.EncryptionKey)
	assert.NotEqual(t, mainnet.EncryptionKey, arbitrum.EncryptionKey)
	assert.NotEqual(t, optimism.EncryptionKey, arbitrum.EncryptionKey)
	assert.NotEqual(t, mainnet.KeyGenSeed, arbitrum.KeyGenSeed)
}

func TestDeriveKeys_AddressBinding(t *testing.T) {
	sig := testSignature()
	other := "0x00000000219ab540356cBB839Cbe05303d7705Fa"

	a, err := DeriveKeys(sig, testChainID, testAddress)
	require.NoError(t, err)
	b, err := DeriveKeys(sig, testChainID, other)
	require.NoError(t, err)

	assert.NotEqual(t, a.KeyGenSeed, b.KeyGenSeed)
	assert.NotEqual(t, a.EncryptionKey, b.EncryptionKey)
}

func TestDeriveKeys_AddressCaseInsensitive(t *testing.T) {
	sig := testSignature()

	checksummed, err := DeriveKeys(sig, testChainID, testAddress)
	require.NoError(t, err)
	lowered, err := DeriveKeys(sig, testChainID, strings.ToLower(testAddress))
	require.NoError(t, err)

	assert.Equal(t, checksummed.EncryptionKey, lowered.EncryptionKey)
	assert.Equal(t, checksummed.KeyGenSeed, lowered.KeyGenSeed)
}

func TestDeriveKeys_PrefixOptional(t *testing.T) {
	sig := testSignature()

	withPrefix, err := DeriveKeys(sig, testChainID, testAddress)
	require.NoError(t, err)
	withoutPrefix, err := DeriveKeys(strings.TrimPrefix(sig, "0x"), testChainID, testAddress)
	require.NoError(t, err)

	assert.Equal(t, withPrefix.EncryptionKey, withoutPrefix.EncryptionKey)
}

func TestDeriveKeys_SignatureBinding(t *testing.T) {
	raw := make([]byte, 65)
	for i := range raw {
		raw[i] = byte(i * 3)
	}
	sigA := "0x" + hex.EncodeToString(raw)
	raw[0] ^= 0x01
	sigB := "0x" + hex.EncodeToString(raw)

	a, err := DeriveKeys(sigA, testChainID, testAddress)
	require.NoError(t, err)
	b, err := DeriveKeys(sigB, testChainID, testAddress)
	require.NoError(t, err)

	assert.NotEqual(t, a.KeyGenSeed, b.KeyGenSeed)
	assert.NotEqual(t, a.EncryptionKey, b.EncryptionKey)
}

func TestDeriveKeys_InvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		sig     string
		address string
		wantErr error
	}{
		{
			name:    "empty signature",
			sig:     "",
			address: testAddress,
			wantErr: ErrMalformedSignature,
		},
		{
			name:    "bare prefix",
			sig:     "0x",
			address: testAddress,
			wantErr: ErrMalformedSignature,
		},
		{
			name:    "non-hex signature",
			sig:     "0xnothexnothexnothexnothexnothexnothexnothexnothexnothexnothexnothex",
			address: testAddress,
			wantErr: ErrMalformedSignature,
		},
		{
			name:    "odd length",
			sig:     "0xabc",
			address: testAddress,
			wantErr: ErrMalformedSignature,
		},
		{
			name:    "too short",
			sig:     "0xdeadbeef",
			address: testAddress,
			wantErr: ErrShortSignature,
		},
		{
			name:    "empty address",
			sig:     testSignature(),
			address: "   ",
			wantErr: ErrEmptyAddress,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys, err := DeriveKeys(tt.sig, testChainID, tt.address)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, keys)
		})
	}
}

func TestSalt(t *testing.T) {
	salt := Salt(42161, testAddress)
	assert.Equal(t,
		"shinobi-wallet-auth-v1:chain-42161:"+strings.ToLower(testAddress),
		string(salt))
}

func TestKeys_Zero(t *testing.T) {
	keys, err := DeriveKeys(testSignature(), testChainID, testAddress)
	require.NoError(t, err)

	keys.Zero()
	assert.Equal(t, make([]byte, KeySize), keys.KeyGenSeed)
	assert.Equal(t, make([]byte, KeySize), keys.EncryptionKey)
}
