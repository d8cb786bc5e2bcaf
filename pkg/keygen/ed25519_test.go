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
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSeedHex() string {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(i + 1)
	}
	return hex.EncodeToString(seed)
}

func TestEd25519SDK_GenerateFromSeed(t *testing.T) {
	sdk := NewEd25519SDK()

	result, err := sdk.GenerateFromSeed(testSeedHex())
	require.NoError(t, err)

	assert.Len(t, strings.Fields(result.SeedPhrase), 24)
	assert.Len(t, result.KeyPair.PublicKey, ed25519.PublicKeySize)
	assert.Len(t, result.KeyPair.PrivateKey, ed25519.PrivateKeySize)
	assert.True(t, strings.HasPrefix(result.KeyPair.Address, "0x"))
	assert.Len(t, result.KeyPair.Address, 42)
}

func TestEd25519SDK_Deterministic(t *testing.T) {
	sdk := NewEd25519SDK()

	first, err := sdk.GenerateFromSeed(testSeedHex())
	require.NoError(t, err)
	second, err := sdk.GenerateFromSeed(testSeedHex())
	require.NoError(t, err)

	assert.Equal(t, first.SeedPhrase, second.SeedPhrase)
	assert.Equal(t, first.KeyPair, second.KeyPair)
}

func TestEd25519SDK_RoundTrip(t *testing.T) {
	sdk := NewEd25519SDK()

	generated, err := sdk.GenerateFromSeed(testSeedHex())
	require.NoError(t, err)

	restored, err := sdk.RestoreFromMnemonic(generated.SeedPhrase)
	require.NoError(t, err)

	assert.Equal(t, generated.KeyPair.PublicKey, restored.PublicKey)
	assert.Equal(t, generated.KeyPair.PrivateKey, restored.PrivateKey)
	assert.Equal(t, generated.KeyPair.Address, restored.Address)
}

func TestEd25519SDK_RestoreNormalizesWhitespace(t *testing.T) {
	sdk := NewEd25519SDK()

	generated, err := sdk.GenerateFromSeed(testSeedHex())
	require.NoError(t, err)

	messy := "  " + strings.ReplaceAll(generated.SeedPhrase, " ", "   ") + "\n"
	restored, err := sdk.RestoreFromMnemonic(messy)
	require.NoError(t, err)
	assert.Equal(t, generated.KeyPair.PublicKey, restored.PublicKey)
}

func TestEd25519SDK_GenerateFromSeed_Invalid(t *testing.T) {
	sdk := NewEd25519SDK()

	tests := []struct {
		name string
		seed string
	}{
		{"empty", ""},
		{"not hex", "zz"},
		{"too short", "deadbeef"},
		{"too long", strings.Repeat("ab", 33)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := sdk.GenerateFromSeed(tt.seed)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidSeed)
			assert.Nil(t, result)
		})
	}
}

func TestEd25519SDK_RestoreFromMnemonic_Invalid(t *testing.T) {
	sdk := NewEd25519SDK()

	tests := []struct {
		name   string
		phrase string
	}{
		{"empty", ""},
		{"not words", "definitely not a bip39 phrase"},
		{"bad checksum", strings.Repeat("abandon ", 23) + "abandon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pair, err := sdk.RestoreFromMnemonic(tt.phrase)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidMnemonic)
			assert.Nil(t, pair)
		})
	}
}

func TestKeyPair_Zero(t *testing.T) {
	sdk := NewEd25519SDK()
	result, err := sdk.GenerateFromSeed(testSeedHex())
	require.NoError(t, err)

	pair := result.KeyPair
	pair.Zero()
	assert.Equal(t, make([]byte, ed25519.PrivateKeySize), pair.PrivateKey)
}
