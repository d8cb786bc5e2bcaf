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

	"github.com/jeremyhahn/shinobi-auth/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionManager_RestoreWithoutMetadata(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	session := NewSession()
	mgr := env.sessionManager(t, session)

	require.NoError(t, mgr.Restore(ctx))
	assert.False(t, session.IsAuthenticated())
	assert.False(t, session.IsRestoring())
}

func TestSessionManager_RestorePasskeySession(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	// Create the account; setup persists resume metadata.
	generated := env.generated(t)
	require.NoError(t, env.passkeyService(t, nil).Setup(ctx, "alice", generated))

	// A fresh manager stands in for a process restart.
	session := NewSession()
	mgr := env.sessionManager(t, session)
	require.NoError(t, mgr.Restore(ctx))

	assert.True(t, session.IsAuthenticated())
	assert.Equal(t, "alice", session.AccountID())
	assert.Equal(t, storage.AuthMethodPasskey, session.Method())
	assert.Equal(t, generated.KeyPair.PublicKey, session.PublicKey())
}

func TestSessionManager_RestoreRunsOnce(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	require.NoError(t, env.passkeyService(t, nil).Setup(ctx, "alice", env.generated(t)))

	session := NewSession()
	mgr := env.sessionManager(t, session)
	require.NoError(t, mgr.Restore(ctx))

	// Break the authenticator; a second Restore must not run another
	// ceremony and must return the first outcome.
	env.authenticator.CancelCeremonies = true
	require.NoError(t, mgr.Restore(ctx))
	assert.True(t, session.IsAuthenticated())
}

func TestSessionManager_WalletSessionNotResumable(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	provider := testMockWallet()
	svc := env.walletService(t, provider)

	_, generated, err := svc.Authenticate(ctx)
	require.NoError(t, err)
	require.NoError(t, svc.SetupAccount(ctx, generated))

	// Wallet metadata is persisted but never resumed silently; the user
	// must sign again.
	session := NewSession()
	mgr := env.sessionManager(t, session)
	require.NoError(t, mgr.Restore(ctx))
	assert.False(t, session.IsAuthenticated())

	meta, err := env.store.GetSessionMetadata(ctx)
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, storage.AuthMethodWallet, meta.AuthMethod)
}

func TestSessionManager_RestoreFailureClearsSession(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	require.NoError(t, env.passkeyService(t, nil).Setup(ctx, "alice", env.generated(t)))

	env.authenticator.CancelCeremonies = true
	session := NewSession()
	mgr := env.sessionManager(t, session)

	err := mgr.Restore(ctx)
	require.Error(t, err)
	assert.True(t, IsSessionRestore(err))
	assert.False(t, session.IsAuthenticated())

	// The broken persisted session is gone, so the next start goes
	// through the interactive flow instead of failing again.
	meta, storeErr := env.store.GetSessionMetadata(ctx)
	require.NoError(t, storeErr)
	assert.Nil(t, meta)
}

func TestSessionManager_PendingCeremonyKeepsSession(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	require.NoError(t, env.passkeyService(t, nil).Setup(ctx, "alice", env.generated(t)))

	// Raise the in-flight latch so the restore assertion collides.
	env.authenticator.HoldCeremonies = true
	_, err := env.passkeys.DeriveKey(ctx, "alice", nil)
	require.Error(t, err)

	session := NewSession()
	mgr := env.sessionManager(t, session)
	err = mgr.Restore(ctx)
	require.Error(t, err)
	assert.False(t, IsSessionRestore(err), "a pending ceremony is not a restore failure")

	// The persisted session survives; the in-flight request may still
	// succeed.
	meta, storeErr := env.store.GetSessionMetadata(ctx)
	require.NoError(t, storeErr)
	assert.NotNil(t, meta)
}

func TestSessionManager_Logout(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	require.NoError(t, env.passkeyService(t, nil).Setup(ctx, "alice", env.generated(t)))

	session := NewSession()
	mgr := env.sessionManager(t, session)
	require.NoError(t, mgr.Restore(ctx))
	require.True(t, session.IsAuthenticated())

	require.NoError(t, mgr.Logout(ctx))
	assert.False(t, session.IsAuthenticated())
	assert.Empty(t, session.AccountID())
	assert.Empty(t, session.PublicKey())

	// Logout removes only the session; account and binding survive.
	exists, err := env.store.PasskeyExists(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, exists)
	meta, err := env.store.GetSessionMetadata(ctx)
	require.NoError(t, err)
	assert.Nil(t, meta)
}

func TestSessionManager_ListAccounts(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	mgr := env.sessionManager(t, NewSession())

	names, err := mgr.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, env.passkeyService(t, nil).Setup(ctx, "alice", env.generated(t)))

	names, err = mgr.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, names)

	hasPasskey, err := mgr.HasPasskeyAccounts(ctx)
	require.NoError(t, err)
	assert.True(t, hasPasskey)
}

func TestSession_ClearWipesKeys(t *testing.T) {
	env := newTestEnv(t)
	session := NewSession()

	generated := env.generated(t)
	session.authenticate("alice", storage.AuthMethodPasskey, &generated.KeyPair)
	require.True(t, session.IsAuthenticated())
	assert.Equal(t, generated.KeyPair.PublicKey, session.PublicKey())
	assert.Equal(t, generated.KeyPair.PrivateKey, session.PrivateKey())
	assert.Equal(t, generated.KeyPair.Address, session.Address())

	session.clear()
	assert.False(t, session.IsAuthenticated())
	assert.Empty(t, session.AccountID())
	assert.Empty(t, session.PublicKey())
	assert.Empty(t, session.PrivateKey())
	assert.Empty(t, session.Address())
}
