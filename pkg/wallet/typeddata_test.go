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

package wallet

import (
	"context"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAddress = "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B"

func TestAuthMessage(t *testing.T) {
	data := AuthMessage(1, testAddress)

	assert.Equal(t, "Shinobi Wallet Authentication", data.Domain.Name)
	assert.Equal(t, "1", data.Domain.Version)
	assert.Equal(t, uint64(1), data.Domain.ChainID)
	assert.Equal(t, "Authentication", data.PrimaryType)
	assert.Contains(t, data.Types, "EIP712Domain")
	assert.Contains(t, data.Types, "Authentication")
	assert.Equal(t, strings.ToLower(testAddress), data.Message["wallet"])
}

func TestTypedData_EncodeStable(t *testing.T) {
	a, err := AuthMessage(1, testAddress).Encode()
	require.NoError(t, err)
	b, err := AuthMessage(1, testAddress).Encode()
	require.NoError(t, err)

	assert.Equal(t, a, b, "encoding must be canonical")
}

func TestTypedData_EncodeChainDistinct(t *testing.T) {
	a, err := AuthMessage(1, testAddress).Encode()
	require.NoError(t, err)
	b, err := AuthMessage(10, testAddress).Encode()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestMockProvider_SignDeterministic(t *testing.T) {
	ctx := context.Background()
	provider := NewMockProvider(testAddress, 1, []byte("secret"))

	msg := AuthMessage(1, testAddress)
	first, err := provider.SignTypedData(ctx, msg)
	require.NoError(t, err)
	second, err := provider.SignTypedData(ctx, msg)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.True(t, strings.HasPrefix(first, "0x"))
	assert.Len(t, first, 2+65*2)
	assert.Equal(t, 2, provider.SignCalls)

	raw, err := hex.DecodeString(strings.TrimPrefix(first, "0x"))
	require.NoError(t, err)
	require.Len(t, raw, 65)
	assert.Equal(t, byte(0x1b), raw[64], "recovery id byte")
}

func TestMockProvider_Disconnected(t *testing.T) {
	ctx := context.Background()
	provider := NewMockProvider(testAddress, 1, []byte("secret"))
	provider.Connected = false

	_, err := provider.Address(ctx)
	assert.ErrorIs(t, err, ErrNoWallet)
	_, err = provider.ChainID(ctx)
	assert.ErrorIs(t, err, ErrNoWallet)
	_, err = provider.SignTypedData(ctx, AuthMessage(1, testAddress))
	assert.ErrorIs(t, err, ErrNoWallet)
}

func TestMockProvider_Rejection(t *testing.T) {
	ctx := context.Background()
	provider := NewMockProvider(testAddress, 1, []byte("secret"))
	provider.RejectSignatures = true

	_, err := provider.SignTypedData(ctx, AuthMessage(1, testAddress))
	require.Error(t, err)
	assert.True(t, IsRejected(err))
	assert.Equal(t, 1, provider.SignCalls)
}

func TestMockProvider_Failure(t *testing.T) {
	ctx := context.Background()
	provider := NewMockProvider(testAddress, 1, []byte("secret"))
	provider.FailSignatures = true

	_, err := provider.SignTypedData(ctx, AuthMessage(1, testAddress))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSignatureFailed)
	assert.False(t, IsRejected(err))
}

func TestWalletError_Wrapping(t *testing.T) {
	err := WrapError("sign", ErrSignatureRejected)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSignatureRejected)
	assert.Contains(t, err.Error(), "sign")

	assert.NoError(t, WrapError("sign", nil))
}
