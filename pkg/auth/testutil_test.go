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
	"testing"

	"github.com/jeremyhahn/shinobi-auth/pkg/keygen"
	"github.com/jeremyhahn/shinobi-auth/pkg/logging"
	"github.com/jeremyhahn/shinobi-auth/pkg/passkey"
	"github.com/jeremyhahn/shinobi-auth/pkg/storage"
	"github.com/jeremyhahn/shinobi-auth/pkg/wallet"
	"github.com/stretchr/testify/require"
)

const (
	testWalletAddress = "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B"
	testChainID       = uint64(1)
	testSeedHex       = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
)

// testEnv wires the real in-memory store, the software authenticator and
// the default SDK into one harness.
type testEnv struct {
	store         *storage.MemoryStore
	authenticator *passkey.SoftwareAuthenticator
	passkeys      *passkey.Service
	sdk           *keygen.Ed25519SDK
	logger        *logging.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	authenticator, err := passkey.NewSoftwareAuthenticator()
	require.NoError(t, err)

	passkeys, err := passkey.NewService(passkey.ServiceParams{
		Config: &passkey.Config{
			RPID:          "wallet.local",
			RPDisplayName: "Shinobi Wallet",
		},
		Authenticator: authenticator,
	})
	require.NoError(t, err)

	return &testEnv{
		store:         storage.NewMemoryStore(),
		authenticator: authenticator,
		passkeys:      passkeys,
		sdk:           keygen.NewEd25519SDK(),
		logger:        logging.NewLogger(false),
	}
}

func (e *testEnv) passkeyService(t *testing.T, baseliner Baseliner) *PasskeyService {
	t.Helper()
	svc, err := NewPasskeyService(PasskeyServiceParams{
		Store:     e.store,
		Passkeys:  e.passkeys,
		SDK:       e.sdk,
		Logger:    e.logger,
		Baseliner: baseliner,
	})
	require.NoError(t, err)
	return svc
}

func (e *testEnv) walletService(t *testing.T, provider wallet.Provider) *WalletService {
	t.Helper()
	svc, err := NewWalletService(WalletServiceParams{
		Store:    e.store,
		Provider: provider,
		SDK:      e.sdk,
		Logger:   e.logger,
	})
	require.NoError(t, err)
	return svc
}

func (e *testEnv) sessionManager(t *testing.T, session *Session) *SessionManager {
	t.Helper()
	mgr, err := NewSessionManager(SessionManagerParams{
		Session:  session,
		Store:    e.store,
		Passkeys: e.passkeys,
		SDK:      e.sdk,
		Logger:   e.logger,
	})
	require.NoError(t, err)
	return mgr
}

func (e *testEnv) controller(t *testing.T, syncer NoteSyncer) *Controller {
	t.Helper()
	ctrl, err := NewController(ControllerParams{
		Sessions: e.sessionManager(t, NewSession()),
		Passkeys: e.passkeys,
		Logger:   e.logger,
		Syncer:   syncer,
	})
	require.NoError(t, err)
	return ctrl
}

func (e *testEnv) generated(t *testing.T) *keygen.Result {
	t.Helper()
	result, err := e.sdk.GenerateFromSeed(testSeedHex)
	require.NoError(t, err)
	return result
}

func testMockWallet() *wallet.MockProvider {
	return wallet.NewMockProvider(testWalletAddress, testChainID, []byte("test wallet secret"))
}

// fakeSyncer records sync runs and fails with a configurable error.
type fakeSyncer struct {
	calls    int
	accounts []string
	err      error
}

func (f *fakeSyncer) Sync(ctx context.Context, accountID string) error {
	f.calls++
	f.accounts = append(f.accounts, accountID)
	return f.err
}

// fakeBaseliner records baseline initializations.
type fakeBaseliner struct {
	calls int
	err   error
}

func (f *fakeBaseliner) InitializeBaseline(ctx context.Context, accountID string) error {
	f.calls++
	return f.err
}
