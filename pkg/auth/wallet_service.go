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
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/jeremyhahn/shinobi-auth/pkg/keyderive"
	"github.com/jeremyhahn/shinobi-auth/pkg/keygen"
	"github.com/jeremyhahn/shinobi-auth/pkg/logging"
	"github.com/jeremyhahn/shinobi-auth/pkg/storage"
	"github.com/jeremyhahn/shinobi-auth/pkg/wallet"
)

// WalletAccountID builds the storage id for a wallet-backed account. The
// address is lowercased so checksum casing never splits one wallet into two
// accounts.
func WalletAccountID(walletAddress string, chainID uint64) string {
	return fmt.Sprintf("%s:%d", strings.ToLower(walletAddress), chainID)
}

// GeneratedKeys carries everything produced from a single wallet signature:
// the identity keys plus the encryption key and wallet binding needed to
// commit account setup.
type GeneratedKeys struct {
	// Keys is the generated identity with its seed phrase.
	Keys *keygen.Result

	// EncryptionKey protects the account payload at rest.
	EncryptionKey []byte

	// WalletAddress is the signing wallet, as reported by the provider.
	WalletAddress string

	// ChainID is the chain the signature was bound to.
	ChainID uint64
}

// Zero wipes the secret material.
func (g *GeneratedKeys) Zero() {
	if g == nil {
		return
	}
	if g.Keys != nil {
		g.Keys.KeyPair.Zero()
		g.Keys.SeedPhrase = ""
	}
	for i := range g.EncryptionKey {
		g.EncryptionKey[i] = 0
	}
}

// WalletServiceParams contains the dependencies for creating a
// WalletService.
type WalletServiceParams struct {
	Store    storage.Manager
	Provider wallet.Provider
	SDK      keygen.SDK
	Logger   *logging.Logger

	// Baseliner is optional.
	Baseliner Baseliner
}

// WalletService authenticates accounts with a wallet signature over a
// deterministic typed-data message. Because the message contains no nonce
// or timestamp, the same wallet on the same chain always produces the same
// signature, and therefore the same keys; that determinism is what makes
// wallet accounts recoverable.
type WalletService struct {
	store     storage.Manager
	provider  wallet.Provider
	sdk       keygen.SDK
	logger    *logging.Logger
	baseliner Baseliner
}

// NewWalletService creates a wallet-signature authentication service.
func NewWalletService(params WalletServiceParams) (*WalletService, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("storage manager is required")
	}
	if params.Provider == nil {
		return nil, fmt.Errorf("wallet provider is required")
	}
	if params.SDK == nil {
		return nil, fmt.Errorf("keygen SDK is required")
	}
	if params.Logger == nil {
		params.Logger = logging.DefaultLogger()
	}
	return &WalletService{
		store:     params.Store,
		provider:  params.Provider,
		sdk:       params.SDK,
		logger:    params.Logger,
		baseliner: params.Baseliner,
	}, nil
}

// AccountExists probes for a stored account bound to the connected wallet
// without requesting a signature.
func (s *WalletService) AccountExists(ctx context.Context) (bool, string, uint64, error) {
	address, err := s.provider.Address(ctx)
	if err != nil {
		return false, "", 0, WrapError("wallet account exists", err)
	}
	chainID, err := s.provider.ChainID(ctx)
	if err != nil {
		return false, "", 0, WrapError("wallet account exists", err)
	}
	exists, err := s.store.AccountExists(ctx, WalletAccountID(address, chainID))
	if err != nil {
		return false, "", 0, WrapError("wallet account exists", err)
	}
	return exists, address, chainID, nil
}

// Sign requests the one authentication signature from the wallet.
func (s *WalletService) Sign(ctx context.Context, walletAddress string, chainID uint64) (string, error) {
	signature, err := s.provider.SignTypedData(ctx, wallet.AuthMessage(chainID, walletAddress))
	if err != nil {
		return "", WrapError("wallet sign", err)
	}
	return signature, nil
}

// Login authenticates with an already obtained signature. Returns
// (nil, nil) when no account exists for the wallet, signalling the caller
// to run setup instead. An account whose payload cannot be decrypted is
// treated the same way, with a warning, rather than locking the user out.
func (s *WalletService) Login(ctx context.Context, signatureHex, walletAddress string, chainID uint64) (*keygen.KeyPair, error) {
	keys, err := keyderive.DeriveKeys(signatureHex, chainID, walletAddress)
	if err != nil {
		return nil, WrapError("wallet login", err)
	}
	defer keys.Zero()

	id := WalletAccountID(walletAddress, chainID)
	exists, err := s.store.AccountExists(ctx, id)
	if err != nil {
		return nil, WrapError("wallet login", err)
	}
	if !exists {
		return nil, nil
	}

	if err := s.store.InitializeWalletAccountSession(ctx, id, keys.EncryptionKey); err != nil {
		return nil, WrapError("wallet login", err)
	}
	payload, err := s.store.GetAccountData(ctx)
	if err != nil {
		s.logger.Warnf("stored payload for %s unreadable, treating as new account: %v", id, err)
		return nil, nil
	}
	if payload == nil {
		s.logger.Warnf("account %s exists without payload, treating as new account", id)
		return nil, nil
	}

	pair, err := s.sdk.RestoreFromMnemonic(payload.SeedPhrase)
	if err != nil {
		return nil, WrapError("wallet login", err)
	}

	if err := s.store.StoreSessionMetadata(ctx, &storage.SessionMetadata{
		AccountID:  id,
		AuthMethod: storage.AuthMethodWallet,
		SavedAt:    time.Now().UTC(),
	}); err != nil {
		return nil, WrapError("wallet login", err)
	}

	s.logger.Infof("wallet login succeeded for account %s", id)
	return pair, nil
}

// GenerateKeysFromSignature derives the identity and encryption keys from
// an already obtained signature, so a login attempt that found no account
// can continue into setup without a second wallet prompt.
func (s *WalletService) GenerateKeysFromSignature(signatureHex, walletAddress string, chainID uint64) (*GeneratedKeys, error) {
	keys, err := keyderive.DeriveKeys(signatureHex, chainID, walletAddress)
	if err != nil {
		return nil, WrapError("wallet generate keys", err)
	}
	defer keys.Zero()

	result, err := s.sdk.GenerateFromSeed(hex.EncodeToString(keys.KeyGenSeed))
	if err != nil {
		return nil, WrapError("wallet generate keys", err)
	}

	return &GeneratedKeys{
		Keys:          result,
		EncryptionKey: append([]byte(nil), keys.EncryptionKey...),
		WalletAddress: walletAddress,
		ChainID:       chainID,
	}, nil
}

// GenerateKeys requests one signature from the connected wallet and derives
// the identity and encryption keys from it.
func (s *WalletService) GenerateKeys(ctx context.Context) (*GeneratedKeys, error) {
	address, err := s.provider.Address(ctx)
	if err != nil {
		return nil, WrapError("wallet generate keys", err)
	}
	chainID, err := s.provider.ChainID(ctx)
	if err != nil {
		return nil, WrapError("wallet generate keys", err)
	}
	signature, err := s.Sign(ctx, address, chainID)
	if err != nil {
		return nil, WrapError("wallet generate keys", err)
	}
	return s.GenerateKeysFromSignature(signature, address, chainID)
}

// SetupAccount commits a wallet account: the sealed payload and the active
// session land together or not at all.
func (s *WalletService) SetupAccount(ctx context.Context, generated *GeneratedKeys) error {
	if generated == nil || generated.Keys == nil {
		return WrapError("wallet setup", ErrNoGeneratedKeys)
	}

	id := WalletAccountID(generated.WalletAddress, generated.ChainID)
	if err := s.store.SetupWalletAccountTransaction(ctx, id, generated.EncryptionKey, &storage.AccountPayload{
		AccountID:  id,
		AuthMethod: storage.AuthMethodWallet,
		SeedPhrase: generated.Keys.SeedPhrase,
		PublicKey:  generated.Keys.KeyPair.PublicKey,
		CreatedAt:  time.Now().UTC(),
	}); err != nil {
		return WrapError("wallet setup", err)
	}

	if err := s.store.StoreSessionMetadata(ctx, &storage.SessionMetadata{
		AccountID:  id,
		AuthMethod: storage.AuthMethodWallet,
		SavedAt:    time.Now().UTC(),
	}); err != nil {
		return WrapError("wallet setup", err)
	}

	if s.baseliner != nil {
		if err := s.baseliner.InitializeBaseline(ctx, id); err != nil {
			s.logger.Warnf("baseline initialization failed for %s: %v", id, err)
		}
	}

	s.logger.Infof("wallet account %s created", id)
	return nil
}

// Authenticate runs the whole wallet flow with at most one signature
// prompt: probe for an existing account, sign once, then either restore the
// identity or hand back generated keys for setup. Exactly one of the two
// results is non-nil on success.
func (s *WalletService) Authenticate(ctx context.Context) (*keygen.KeyPair, *GeneratedKeys, error) {
	exists, address, chainID, err := s.AccountExists(ctx)
	if err != nil {
		return nil, nil, err
	}

	signature, err := s.Sign(ctx, address, chainID)
	if err != nil {
		return nil, nil, err
	}

	if exists {
		pair, err := s.Login(ctx, signature, address, chainID)
		if err != nil {
			return nil, nil, err
		}
		if pair != nil {
			return pair, nil, nil
		}
		// Existing id with unreadable payload; fall through to setup
		// with the signature already in hand.
	}

	generated, err := s.GenerateKeysFromSignature(signature, address, chainID)
	if err != nil {
		return nil, nil, err
	}
	return nil, generated, nil
}
