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

package storage

import "time"

// AuthMethod identifies how an account authenticates.
type AuthMethod string

const (
	// AuthMethodPasskey marks accounts protected by a platform credential.
	AuthMethodPasskey AuthMethod = "passkey"

	// AuthMethodWallet marks accounts derived from a wallet signature.
	AuthMethodWallet AuthMethod = "wallet"
)

// AccountPayload is the secret account material. It is only ever persisted
// sealed under the account's symmetric key.
type AccountPayload struct {
	// AccountID is the account name for passkey accounts or the
	// lowercased wallet address plus chain id for wallet accounts.
	AccountID string `json:"account_id"`

	// AuthMethod records which credential source created the account.
	AuthMethod AuthMethod `json:"auth_method"`

	// SeedPhrase is the BIP39 mnemonic the identity keys derive from.
	SeedPhrase string `json:"seed_phrase"`

	// PublicKey is the account's identity public key.
	PublicKey []byte `json:"public_key"`

	// CreatedAt is when the account was first set up.
	CreatedAt time.Time `json:"created_at"`
}

// CredentialBinding links an account name to its platform credential. The
// binding holds no secrets and is stored in the clear; the PRF-derived
// symmetric key exists only inside a ceremony.
type CredentialBinding struct {
	// AccountID is the user-chosen account name.
	AccountID string `json:"account_id"`

	// CredentialID identifies the platform credential to assert against.
	CredentialID []byte `json:"credential_id"`

	// UserHandle is the WebAuthn user handle registered with the
	// credential.
	UserHandle []byte `json:"user_handle"`

	// CreatedAt is when the credential was registered.
	CreatedAt time.Time `json:"created_at"`
}

// SessionMetadata records the last authenticated account so a later process
// can offer to resume it. It holds no key material; resuming a passkey
// session always requires a fresh PRF assertion.
type SessionMetadata struct {
	// AccountID is the account the session belongs to.
	AccountID string `json:"account_id"`

	// AuthMethod is the account's credential source. Only passkey
	// sessions are resumable.
	AuthMethod AuthMethod `json:"auth_method"`

	// CredentialID is the credential to assert with on resume. Empty for
	// wallet sessions.
	CredentialID []byte `json:"credential_id,omitempty"`

	// SavedAt is when the session was recorded.
	SavedAt time.Time `json:"saved_at"`
}
