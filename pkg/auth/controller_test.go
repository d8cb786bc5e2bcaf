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

func TestController_StartWithNoAccounts(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	ctrl := env.controller(t, nil)

	require.NoError(t, ctrl.Start(ctx))
	state := ctrl.State()
	assert.Equal(t, StepCreateKeys, state.Step)
	assert.False(t, state.HasExistingAccounts)
}

func TestController_StartWithExistingAccounts(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	require.NoError(t, env.passkeyService(t, nil).Setup(ctx, "alice", env.generated(t)))
	require.NoError(t, env.store.ClearSession(ctx))

	ctrl := env.controller(t, nil)
	require.NoError(t, ctrl.Start(ctx))

	state := ctrl.State()
	assert.Equal(t, StepLoginConvenient, state.Step)
	assert.True(t, state.HasExistingAccounts)
	assert.True(t, state.HasPasskeyAccounts)
}

func TestController_StartResumesSession(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	require.NoError(t, env.passkeyService(t, nil).Setup(ctx, "alice", env.generated(t)))

	// Setup left resume metadata behind; Start lands directly on
	// authenticated without any interactive step.
	ctrl := env.controller(t, nil)
	require.NoError(t, ctrl.Start(ctx))

	assert.Equal(t, StepAuthenticated, ctrl.State().Step)
	assert.True(t, ctrl.Session().IsAuthenticated())
	assert.Equal(t, "alice", ctrl.Session().AccountID())
}

func TestController_PasskeyLoginFlow(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := env.passkeyService(t, nil)
	generated := env.generated(t)
	require.NoError(t, svc.Setup(ctx, "alice", generated))
	require.NoError(t, env.store.ClearSession(ctx))

	syncer := &fakeSyncer{}
	ctrl := env.controller(t, syncer)
	require.NoError(t, ctrl.Start(ctx))
	require.Equal(t, StepLoginConvenient, ctrl.State().Step)

	pair, err := svc.Login(ctx, "alice")
	require.NoError(t, err)
	require.NoError(t, ctrl.Handle(ctx, PlatformLoginSuccess{AccountID: "alice", Keys: pair}))
	assert.Equal(t, StepSyncingNotes, ctrl.State().Step)
	assert.True(t, ctrl.Session().IsAuthenticated())

	require.NoError(t, ctrl.RunSync(ctx))
	assert.Equal(t, StepAuthenticated, ctrl.State().Step)
	assert.Equal(t, []string{"alice"}, syncer.accounts)
}

func TestController_WalletCreateFlowWithPasskeySetup(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	walletSvc := env.walletService(t, testMockWallet())

	ctrl := env.controller(t, &fakeSyncer{})
	require.NoError(t, ctrl.Start(ctx))
	require.Equal(t, StepCreateKeys, ctrl.State().Step)

	_, generated, err := walletSvc.Authenticate(ctx)
	require.NoError(t, err)
	require.NoError(t, ctrl.Handle(ctx, KeyGenerationComplete{Generated: generated}))

	// A platform authenticator is available, so the flow offers binding
	// the new keys to a credential.
	require.Equal(t, StepSetupConvenient, ctrl.State().Step)
	assert.False(t, ctrl.Session().IsAuthenticated())

	accountID := WalletAccountID(generated.WalletAddress, generated.ChainID)
	require.NoError(t, walletSvc.SetupAccount(ctx, ctrl.Generated()))
	require.NoError(t, ctrl.Handle(ctx, AccountSetupComplete{}))
	assert.Equal(t, StepSyncingNotes, ctrl.State().Step)
	assert.True(t, ctrl.Session().IsAuthenticated())
	assert.Equal(t, accountID, ctrl.Session().AccountID())
	assert.Nil(t, ctrl.Generated(), "keys are wiped once the session holds them")

	require.NoError(t, ctrl.RunSync(ctx))
	assert.Equal(t, StepAuthenticated, ctrl.State().Step)
}

func TestController_SkipSetup(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	walletSvc := env.walletService(t, testMockWallet())

	ctrl := env.controller(t, nil)
	require.NoError(t, ctrl.Start(ctx))

	_, generated, err := walletSvc.Authenticate(ctx)
	require.NoError(t, err)
	require.NoError(t, ctrl.Handle(ctx, KeyGenerationComplete{Generated: generated}))
	require.Equal(t, StepSetupConvenient, ctrl.State().Step)

	require.NoError(t, ctrl.Handle(ctx, SkipSetup{}))
	assert.Equal(t, StepAuthenticated, ctrl.State().Step)
	assert.True(t, ctrl.Session().IsAuthenticated())

	// Nothing was persisted: no payload, no resume metadata.
	names, err := env.store.ListAccountNames(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)
	meta, err := env.store.GetSessionMetadata(ctx)
	require.NoError(t, err)
	assert.Nil(t, meta)
}

func TestController_KeyGenerationWithoutPasskeySupport(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.authenticator.Unavailable = true
	walletSvc := env.walletService(t, testMockWallet())

	ctrl := env.controller(t, nil)
	require.NoError(t, ctrl.Start(ctx))

	_, generated, err := walletSvc.Authenticate(ctx)
	require.NoError(t, err)
	require.NoError(t, ctrl.Handle(ctx, KeyGenerationComplete{Generated: generated}))

	// No platform authenticator: convenience setup is skipped entirely.
	assert.Equal(t, StepSyncingNotes, ctrl.State().Step)
	assert.True(t, ctrl.Session().IsAuthenticated())
}

func TestController_BackFromSetup(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	walletSvc := env.walletService(t, testMockWallet())

	ctrl := env.controller(t, nil)
	require.NoError(t, ctrl.Start(ctx))

	_, generated, err := walletSvc.Authenticate(ctx)
	require.NoError(t, err)
	require.NoError(t, ctrl.Handle(ctx, KeyGenerationComplete{Generated: generated}))
	require.Equal(t, StepSetupConvenient, ctrl.State().Step)

	require.NoError(t, ctrl.Handle(ctx, Back{}))
	assert.Equal(t, StepCreateKeys, ctrl.State().Step)
	assert.Nil(t, ctrl.Generated())
	assert.False(t, ctrl.Session().IsAuthenticated())
}

func TestController_ChoiceNavigation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	require.NoError(t, env.passkeyService(t, nil).Setup(ctx, "alice", env.generated(t)))
	require.NoError(t, env.store.ClearSession(ctx))

	ctrl := env.controller(t, nil)
	require.NoError(t, ctrl.Start(ctx))
	require.Equal(t, StepLoginConvenient, ctrl.State().Step)

	require.NoError(t, ctrl.Handle(ctx, CreateChoice{}))
	assert.Equal(t, StepCreateKeys, ctrl.State().Step)

	require.NoError(t, ctrl.Handle(ctx, LoginChoice{}))
	assert.Equal(t, StepLoginConvenient, ctrl.State().Step)
}

func TestController_InvalidTransitions(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	ctrl := env.controller(t, nil)
	require.NoError(t, ctrl.Start(ctx))
	require.Equal(t, StepCreateKeys, ctrl.State().Step)

	tests := []struct {
		name  string
		event Event
	}{
		{"setup before generation", AccountSetupComplete{}},
		{"skip before generation", SkipSetup{}},
		{"sync completion outside syncing", SyncingComplete{}},
		{"back outside setup", Back{}},
		{"login choice without accounts", LoginChoice{}},
		{"platform login outside login step", PlatformLoginSuccess{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ctrl.Handle(ctx, tt.event)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidTransition)
			assert.Equal(t, StepCreateKeys, ctrl.State().Step, "state must not change")
			assert.Error(t, ctrl.State().LastError)
		})
	}
}

func TestController_RunSyncFailureAllowsRetry(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.authenticator.Unavailable = true
	walletSvc := env.walletService(t, testMockWallet())
	syncer := &fakeSyncer{err: assert.AnError}

	ctrl := env.controller(t, syncer)
	require.NoError(t, ctrl.Start(ctx))
	_, generated, err := walletSvc.Authenticate(ctx)
	require.NoError(t, err)
	require.NoError(t, ctrl.Handle(ctx, KeyGenerationComplete{Generated: generated}))
	require.Equal(t, StepSyncingNotes, ctrl.State().Step)

	err = ctrl.RunSync(ctx)
	require.Error(t, err)
	assert.Equal(t, StepSyncingNotes, ctrl.State().Step, "failed sync stays retryable")
	assert.Error(t, ctrl.State().LastError)

	syncer.err = nil
	require.NoError(t, ctrl.RunSync(ctx))
	assert.Equal(t, StepAuthenticated, ctrl.State().Step)
	assert.Nil(t, ctrl.State().LastError)
	assert.Equal(t, 2, syncer.calls)
}

func TestController_RunSyncCancellationIsNotFailure(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.authenticator.Unavailable = true
	walletSvc := env.walletService(t, testMockWallet())
	syncer := &fakeSyncer{err: context.Canceled}

	ctrl := env.controller(t, syncer)
	require.NoError(t, ctrl.Start(ctx))
	_, generated, err := walletSvc.Authenticate(ctx)
	require.NoError(t, err)
	require.NoError(t, ctrl.Handle(ctx, KeyGenerationComplete{Generated: generated}))

	require.NoError(t, ctrl.RunSync(ctx))
	assert.Equal(t, StepSyncingNotes, ctrl.State().Step, "cancelled sync does not complete the flow")
}

func TestController_RunSyncOutsideSyncingStep(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	ctrl := env.controller(t, nil)
	require.NoError(t, ctrl.Start(ctx))

	err := ctrl.RunSync(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestController_StartRunsOnce(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	ctrl := env.controller(t, nil)

	require.NoError(t, ctrl.Start(ctx))
	require.NoError(t, ctrl.Handle(ctx, KeyGenerationComplete{Generated: mustGenerated(t, env)}))

	// A second Start must not rewind the flow.
	require.NoError(t, ctrl.Start(ctx))
	assert.NotEqual(t, StepCheckingAccounts, ctrl.State().Step)
	assert.Equal(t, StepSetupConvenient, ctrl.State().Step)
}

func TestController_ReportError(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	ctrl := env.controller(t, nil)
	require.NoError(t, ctrl.Start(ctx))

	ctrl.ReportError(assert.AnError)
	assert.ErrorIs(t, ctrl.State().LastError, assert.AnError)

	// The next successful transition clears the error.
	require.NoError(t, ctrl.Handle(ctx, KeyGenerationComplete{Generated: mustGenerated(t, env)}))
	assert.Nil(t, ctrl.State().LastError)
}

func mustGenerated(t *testing.T, env *testEnv) *GeneratedKeys {
	t.Helper()
	svc := env.walletService(t, testMockWallet())
	generated, err := svc.GenerateKeys(context.Background())
	require.NoError(t, err)
	return generated
}

func TestController_SessionMethodAfterWalletLogin(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	walletSvc := env.walletService(t, testMockWallet())

	// Create the account first, then clear the session to force a fresh
	// interactive login.
	_, generated, err := walletSvc.Authenticate(ctx)
	require.NoError(t, err)
	require.NoError(t, walletSvc.SetupAccount(ctx, generated))
	require.NoError(t, env.store.ClearSession(ctx))

	ctrl := env.controller(t, &fakeSyncer{})
	require.NoError(t, ctrl.Start(ctx))
	require.Equal(t, StepLoginConvenient, ctrl.State().Step)

	pair, regenerated, err := walletSvc.Authenticate(ctx)
	require.NoError(t, err)
	require.Nil(t, regenerated)
	accountID := WalletAccountID(testWalletAddress, testChainID)
	require.NoError(t, ctrl.Handle(ctx, WalletLoginSuccess{AccountID: accountID, Keys: pair}))

	assert.Equal(t, storage.AuthMethodWallet, ctrl.Session().Method())
	assert.Equal(t, accountID, ctrl.Session().AccountID())
}
