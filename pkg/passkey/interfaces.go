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

package passkey

import (
	"context"

	"github.com/go-webauthn/webauthn/protocol"
)

// Provider drives platform credential ceremonies for the auth layer.
type Provider interface {
	// Supported reports whether a platform authenticator capable of the
	// PRF extension is available.
	Supported(ctx context.Context) bool

	// CreateCredential registers a new platform credential for the
	// account and returns the credential identifier.
	// Fails with ErrCancelled, ErrPRFUnsupported, ErrCeremonyPending or
	// ErrCeremonyFailed.
	CreateCredential(ctx context.Context, accountName string, userHandle []byte) ([]byte, error)

	// DeriveKey re-derives the 32-byte symmetric key bound to an existing
	// credential via a PRF assertion. Same failure modes as
	// CreateCredential.
	DeriveKey(ctx context.Context, accountName string, credentialID []byte) ([]byte, error)
}

// Authenticator is the platform bridge performing the actual WebAuthn
// ceremonies. Implementations wrap a browser, an OS keystore, or the
// in-process SoftwareAuthenticator.
type Authenticator interface {
	// Available reports whether the authenticator can perform ceremonies.
	Available(ctx context.Context) bool

	// Create performs a credential creation ceremony.
	Create(ctx context.Context, options *protocol.PublicKeyCredentialCreationOptions) (*CreationResult, error)

	// Assert performs an assertion ceremony against an existing
	// credential.
	Assert(ctx context.Context, options *protocol.PublicKeyCredentialRequestOptions) (*AssertionResult, error)
}

// CreationResult is the outcome of a credential creation ceremony.
type CreationResult struct {
	// CredentialID is the identifier assigned by the authenticator.
	CredentialID []byte

	// PRFEnabled reports whether the authenticator enabled the PRF
	// extension for the new credential.
	PRFEnabled bool
}

// AssertionResult is the outcome of an assertion ceremony.
type AssertionResult struct {
	// CredentialID identifies the credential that signed the assertion.
	CredentialID []byte

	// UserHandle is the user handle the credential was registered with.
	UserHandle []byte

	// PRFOutput is the 32-byte PRF evaluation, or nil if the extension
	// was not evaluated.
	PRFOutput []byte
}
