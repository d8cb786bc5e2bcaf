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

package auth

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jeremyhahn/shinobi-auth/pkg/keygen"
	"github.com/jeremyhahn/shinobi-auth/pkg/logging"
	"github.com/jeremyhahn/shinobi-auth/pkg/passkey"
	"github.com/jeremyhahn/shinobi-auth/pkg/storage"
)

// Baseliner initializes the note-sync baseline for a freshly created
// account. Setup treats baseline failures as non-fatal; sync recovers on
// the next full run.
type Baseliner interface {
	InitializeBaseline(ctx context.Context, accountID string) error
}

// PasskeyServiceParams contains the dependencies for creating a
// PasskeyService.
type PasskeyServiceParams struct {
	Store    storage.Manager
	Passkeys passkey.Provider
	SDK      keygen.SDK
	Logger   *logging.Logger

	// Baseliner is optional.
	Baseliner Baseliner
}

// PasskeyService authenticates accounts with platform credentials. It is
// stateless: operations return identity key material or fail, and never
// touch the process-wide Session.
type PasskeyService struct {
	store     storage.Manager
	passkeys  passkey.Provider
	sdk       keygen.SDK
	logger    *logging.Logger
	baseliner Baseliner
}

// NewPasskeyService creates a platform-credential authentication service.
func NewPasskeyService(params PasskeyServiceParams) (*PasskeyService, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("storage manager is required")
	}
	if params.Passkeys == nil {
		return nil, fmt.Errorf("passkey provider is required")
	}
	if params.SDK == nil {
		return nil, fmt.Errorf("keygen SDK is required")
	}
	if params.Logger == nil {
		params.Logger = logging.DefaultLogger()
	}
	return &PasskeyService{
		store:     params.Store,
		passkeys:  params.Passkeys,
		sdk:       params.SDK,
		logger:    params.Logger,
		baseliner: params.Baseliner,
	}, nil
}

// Supported reports whether platform credentials can be used on this
// device.
func (s *PasskeyService) Supported(ctx context.Context) bool {
	return s.passkeys.Supported(ctx)
}

// Login authenticates an existing account by account name. The credential
// binding resolves the name to a credential, a PRF assertion re-derives the
// symmetric key, and the decrypted payload's seed phrase reconstructs the
// identity keypair. Persists resume metadata on success.
func (s *PasskeyService) Login(ctx context.Context, accountName string) (*keygen.KeyPair, error) {
	name := strings.TrimSpace(accountName)
	if name == "" {
		return nil, WrapError("passkey login", ErrAccountNotFound)
	}

	binding, err := s.store.GetPasskeyData(ctx, name)
	if err != nil {
		return nil, WrapError("passkey login", err)
	}
	if binding == nil {
		return nil, WrapError("passkey login", ErrAccountNotFound)
	}

	symmetricKey, err := s.passkeys.DeriveKey(ctx, name, binding.CredentialID)
	if err != nil {
		return nil, WrapError("passkey login", err)
	}

	if err := s.store.InitializeAccountSession(ctx, name, symmetricKey); err != nil {
		return nil, WrapError("passkey login", err)
	}
	payload, err := s.store.GetAccountData(ctx)
	if err != nil {
		return nil, WrapError("passkey login", err)
	}
	if payload == nil {
		return nil, WrapError("passkey login", ErrAccountDataMissing)
	}

	pair, err := s.sdk.RestoreFromMnemonic(payload.SeedPhrase)
	if err != nil {
		return nil, WrapError("passkey login", err)
	}

	if err := s.store.StoreSessionMetadata(ctx, &storage.SessionMetadata{
		AccountID:    name,
		AuthMethod:   storage.AuthMethodPasskey,
		CredentialID: binding.CredentialID,
		SavedAt:      time.Now().UTC(),
	}); err != nil {
		return nil, WrapError("passkey login", err)
	}

	s.logger.Infof("passkey login succeeded for account %s", name)
	return pair, nil
}

// Setup binds a new platform credential to freshly generated identity keys
// and stores the encrypted account payload. The user handle is derived from
// the identity public key so re-registering the same identity reuses the
// same handle.
func (s *PasskeyService) Setup(ctx context.Context, accountName string, generated *keygen.Result) error {
	name := strings.TrimSpace(accountName)
	if name == "" {
		return WrapError("passkey setup", fmt.Errorf("account name is required"))
	}
	if generated == nil {
		return WrapError("passkey setup", ErrNoGeneratedKeys)
	}

	exists, err := s.store.PasskeyExists(ctx, name)
	if err != nil {
		return WrapError("passkey setup", err)
	}
	if exists {
		return WrapError("passkey setup", ErrAccountExists)
	}

	handle := userHandle(generated.KeyPair.PublicKey)
	credentialID, err := s.passkeys.CreateCredential(ctx, name, handle)
	if err != nil {
		return WrapError("passkey setup", err)
	}

	symmetricKey, err := s.passkeys.DeriveKey(ctx, name, credentialID)
	if err != nil {
		return WrapError("passkey setup", err)
	}

	if err := s.store.InitializeAccountSession(ctx, name, symmetricKey); err != nil {
		return WrapError("passkey setup", err)
	}
	if err := s.store.StoreAccountData(ctx, &storage.AccountPayload{
		AccountID:  name,
		AuthMethod: storage.AuthMethodPasskey,
		SeedPhrase: generated.SeedPhrase,
		PublicKey:  generated.KeyPair.PublicKey,
		CreatedAt:  time.Now().UTC(),
	}); err != nil {
		return WrapError("passkey setup", err)
	}

	if err := s.store.StorePasskeyData(ctx, &storage.CredentialBinding{
		AccountID:    name,
		CredentialID: credentialID,
		UserHandle:   handle,
		CreatedAt:    time.Now().UTC(),
	}); err != nil {
		if errors.Is(err, storage.ErrPasskeyExists) {
			return WrapError("passkey setup", ErrAccountExists)
		}
		return WrapError("passkey setup", err)
	}

	if err := s.store.StoreSessionMetadata(ctx, &storage.SessionMetadata{
		AccountID:    name,
		AuthMethod:   storage.AuthMethodPasskey,
		CredentialID: credentialID,
		SavedAt:      time.Now().UTC(),
	}); err != nil {
		return WrapError("passkey setup", err)
	}

	s.initBaseline(ctx, name)
	s.logger.Infof("passkey account %s created", name)
	return nil
}

func (s *PasskeyService) initBaseline(ctx context.Context, accountID string) {
	if s.baseliner == nil {
		return
	}
	if err := s.baseliner.InitializeBaseline(ctx, accountID); err != nil {
		// Setup already committed; the next full sync rebuilds the
		// baseline.
		s.logger.Warnf("baseline initialization failed for %s: %v", accountID, err)
	}
}

// userHandle derives a stable WebAuthn user handle from the identity
// public key.
func userHandle(publicKey []byte) []byte {
	digest := sha256.Sum256(publicKey)
	return digest[:]
}
