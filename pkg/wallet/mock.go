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
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"sync"
)

// recoveryID is the fixed v byte appended to mock signatures, matching the
// pre-EIP-155 value real wallets emit.
const recoveryID = 0x1b

// MockProvider simulates a connected wallet for tests and demos. Signatures
// are deterministic per (secret, message): a 64-byte HMAC-SHA512 over the
// canonical typed-data encoding plus a recovery id byte, matching the 65-byte
// secp256k1 signature shape.
type MockProvider struct {
	mu sync.Mutex

	address string
	chainID uint64
	secret  []byte

	// Connected controls whether the provider reports a wallet.
	Connected bool

	// RejectSignatures makes every signing request fail as user-rejected.
	RejectSignatures bool

	// FailSignatures makes every signing request fail as a generic
	// signing failure.
	FailSignatures bool

	// SignCalls counts signature requests, including rejected ones.
	SignCalls int
}

// NewMockProvider creates a mock wallet for the given address and chain.
// The secret seeds deterministic signatures; use a fixed secret to reproduce
// the same signatures across processes.
func NewMockProvider(address string, chainID uint64, secret []byte) *MockProvider {
	return &MockProvider{
		address:   address,
		chainID:   chainID,
		secret:    append([]byte(nil), secret...),
		Connected: true,
	}
}

// Address returns the connected account address.
func (m *MockProvider) Address(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.Connected {
		return "", ErrNoWallet
	}
	return m.address, nil
}

// ChainID returns the connected chain.
func (m *MockProvider) ChainID(ctx context.Context) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.Connected {
		return 0, ErrNoWallet
	}
	return m.chainID, nil
}

// SwitchChain moves the mock wallet to another chain.
func (m *MockProvider) SwitchChain(chainID uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chainID = chainID
}

// SignTypedData produces a deterministic 65-byte signature over the typed
// data.
func (m *MockProvider) SignTypedData(ctx context.Context, data *TypedData) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.Connected {
		return "", ErrNoWallet
	}

	m.SignCalls++
	if m.RejectSignatures {
		return "", ErrSignatureRejected
	}
	if m.FailSignatures {
		return "", fmt.Errorf("%w: authenticator unavailable", ErrSignatureFailed)
	}
	if err := ctx.Err(); err != nil {
		return "", WrapError("sign typed data", err)
	}

	encoded, err := data.Encode()
	if err != nil {
		return "", WrapError("sign typed data", err)
	}

	// Domain-separate the mock key from the message digest. The 64-byte
	// digest stands in for r||s; a fixed recovery id makes up the 65th
	// byte of the secp256k1 wire shape.
	keyMac := hmac.New(sha256.New, m.secret)
	keyMac.Write([]byte("mock-wallet-signing-key"))
	mac := hmac.New(sha512.New, keyMac.Sum(nil))
	mac.Write(encoded)
	sig := append(mac.Sum(nil), recoveryID)

	return "0x" + hex.EncodeToString(sig), nil
}
