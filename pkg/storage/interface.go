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

// Package storage persists encrypted wallet accounts, platform credential
// bindings, and resumable session metadata. Account payloads are sealed with
// XChaCha20-Poly1305 under a per-account symmetric key; the store never sees
// the key except through the active session.
package storage

import "context"

// Manager is the encrypted storage contract consumed by the authentication
// protocol. The store is a single-writer-at-a-time resource per logical
// account; SetupWalletAccountTransaction is the only multi-step write that
// must be atomic.
type Manager interface {
	// AccountExists reports whether an account payload is stored under
	// the id.
	AccountExists(ctx context.Context, id string) (bool, error)

	// GetAccountData loads and decrypts the payload of the active session
	// account. Returns nil when the account has no stored payload.
	// Requires an initialized session.
	GetAccountData(ctx context.Context) (*AccountPayload, error)

	// StoreAccountData seals and stores the payload under the active
	// session account. Requires an initialized session.
	StoreAccountData(ctx context.Context, payload *AccountPayload) error

	// InitializeAccountSession activates a session for a
	// platform-credential account with its symmetric key.
	InitializeAccountSession(ctx context.Context, name string, symmetricKey []byte) error

	// InitializeWalletAccountSession activates a session for a wallet
	// account with its derived encryption key.
	InitializeWalletAccountSession(ctx context.Context, id string, encryptionKey []byte) error

	// SetupWalletAccountTransaction atomically initializes the wallet
	// account session and stores its sealed payload. On failure no
	// partial state remains: no session key without decryptable data and
	// vice versa.
	SetupWalletAccountTransaction(ctx context.Context, id string, encryptionKey []byte, payload *AccountPayload) error

	// PasskeyExists reports whether a credential binding is stored for
	// the account name.
	PasskeyExists(ctx context.Context, name string) (bool, error)

	// StorePasskeyData stores a credential binding. Returns
	// ErrPasskeyExists if a binding is already stored for the account.
	StorePasskeyData(ctx context.Context, binding *CredentialBinding) error

	// GetPasskeyData returns the credential binding for the account name,
	// or nil when none is stored.
	GetPasskeyData(ctx context.Context, name string) (*CredentialBinding, error)

	// ListAccountNames returns the ids of all stored accounts, sorted.
	ListAccountNames(ctx context.Context) ([]string, error)

	// GetSessionMetadata returns the persisted resume metadata, or nil
	// when no session is recorded.
	GetSessionMetadata(ctx context.Context) (*SessionMetadata, error)

	// StoreSessionMetadata persists resume metadata.
	StoreSessionMetadata(ctx context.Context, meta *SessionMetadata) error

	// ClearSession deactivates the session: the in-memory symmetric key
	// is zeroed and persisted resume metadata is removed. Stored account
	// payloads are untouched.
	ClearSession(ctx context.Context) error
}
