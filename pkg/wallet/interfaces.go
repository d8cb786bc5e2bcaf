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

// Package wallet defines the blockchain wallet provider contract and the
// EIP-712 typed-data message used for wallet authentication. The actual
// provider (browser extension, hardware bridge, RPC signer) is implemented
// elsewhere; this package only owns the contract and the message layout.
package wallet

import "context"

// Provider exposes the connected wallet account and its typed-data signer.
type Provider interface {
	// Address returns the connected account address.
	// Returns ErrNoWallet if no wallet is connected.
	Address(ctx context.Context) (string, error)

	// ChainID returns the chain the wallet is currently connected to.
	// Returns ErrNoWallet if no wallet is connected.
	ChainID(ctx context.Context) (uint64, error)

	// SignTypedData requests an EIP-712 signature over the given typed
	// data and returns the hex-encoded signature.
	// Returns ErrSignatureRejected if the user declines, or
	// ErrSignatureFailed for any other signing failure.
	SignTypedData(ctx context.Context, data *TypedData) (string, error)
}
