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
	"errors"
	"fmt"
	"sync"

	"github.com/jeremyhahn/shinobi-auth/pkg/keygen"
	"github.com/jeremyhahn/shinobi-auth/pkg/logging"
	"github.com/jeremyhahn/shinobi-auth/pkg/passkey"
	"github.com/jeremyhahn/shinobi-auth/pkg/storage"
)

// SessionManagerParams contains the dependencies for creating a
// SessionManager.
type SessionManagerParams struct {
	Session  *Session
	Store    storage.Manager
	Passkeys passkey.Provider
	SDK      keygen.SDK
	Logger   *logging.Logger
}

// SessionManager restores a persisted session across process restarts and
// owns logout. Restore runs at most once per process; concurrent and
// repeated invocations observe the first run's outcome.
type SessionManager struct {
	session  *Session
	store    storage.Manager
	passkeys passkey.Provider
	sdk      keygen.SDK
	logger   *logging.Logger

	restoreOnce sync.Once
	restoreErr  error
}

// NewSessionManager creates a session manager.
func NewSessionManager(params SessionManagerParams) (*SessionManager, error) {
	if params.Session == nil {
		return nil, fmt.Errorf("session is required")
	}
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
	return &SessionManager{
		session:  params.Session,
		store:    params.Store,
		passkeys: params.Passkeys,
		sdk:      params.SDK,
		logger:   params.Logger,
	}, nil
}

// Session returns the session this manager mutates.
func (m *SessionManager) Session() *Session {
	return m.session
}

// Restore attempts a silent resume from persisted session metadata. Only
// platform-credential sessions are resumable; wallet sessions always
// re-authenticate. The first call performs the work, every later call
// returns the same result.
func (m *SessionManager) Restore(ctx context.Context) error {
	m.restoreOnce.Do(func() {
		m.restoreErr = m.restore(ctx)
	})
	return m.restoreErr
}

func (m *SessionManager) restore(ctx context.Context) error {
	m.session.setRestoring(true)
	defer m.session.setRestoring(false)

	meta, err := m.store.GetSessionMetadata(ctx)
	if err != nil {
		return m.fail(ctx, "restore session", err)
	}
	if meta == nil {
		m.logger.Debug("no persisted session to restore")
		return nil
	}
	if meta.AuthMethod != storage.AuthMethodPasskey || len(meta.CredentialID) == 0 {
		// Wallet sessions carry no resumable credential.
		m.logger.Debugf("persisted session for %s uses %s, not resumable",
			meta.AccountID, meta.AuthMethod)
		return nil
	}

	m.logger.Infof("restoring session for account %s", meta.AccountID)
	symmetricKey, err := m.passkeys.DeriveKey(ctx, meta.AccountID, meta.CredentialID)
	if err != nil {
		if passkey.IsPending(err) {
			// An in-flight ceremony may still succeed; leave the
			// persisted session alone so a retry can pick it up.
			m.logger.Warnf("session restore blocked by pending ceremony: %v", err)
			return WrapError("restore session", err)
		}
		return m.fail(ctx, "restore session", err)
	}

	pair, err := m.resumeWithPasskey(ctx, meta.AccountID, symmetricKey)
	if err != nil {
		return m.fail(ctx, "restore session", err)
	}

	m.session.authenticate(meta.AccountID, storage.AuthMethodPasskey, pair)
	pair.Zero()
	m.logger.Infof("session restored for account %s", meta.AccountID)
	return nil
}

// fail clears both persisted and in-memory session state before reporting,
// so a broken resume never leaves a half-open session behind.
func (m *SessionManager) fail(ctx context.Context, op string, cause error) error {
	if err := m.store.ClearSession(ctx); err != nil {
		m.logger.Warnf("clearing session after failed restore: %v", err)
	}
	m.session.clear()
	return WrapError(op, fmt.Errorf("%w: %v", ErrSessionRestore, cause))
}

func (m *SessionManager) resumeWithPasskey(ctx context.Context, accountID string, symmetricKey []byte) (*keygen.KeyPair, error) {
	if err := m.store.InitializeAccountSession(ctx, accountID, symmetricKey); err != nil {
		return nil, err
	}
	payload, err := m.store.GetAccountData(ctx)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, ErrAccountDataMissing
	}
	return m.sdk.RestoreFromMnemonic(payload.SeedPhrase)
}

// Logout clears the persisted session and the in-memory session. Account
// payloads and credential bindings are untouched.
func (m *SessionManager) Logout(ctx context.Context) error {
	if err := m.store.ClearSession(ctx); err != nil {
		return WrapError("logout", err)
	}
	m.session.clear()
	m.logger.Info("logged out")
	return nil
}

// ListAccounts returns the ids of all stored accounts, sorted.
func (m *SessionManager) ListAccounts(ctx context.Context) ([]string, error) {
	names, err := m.store.ListAccountNames(ctx)
	if err != nil {
		return nil, WrapError("list accounts", err)
	}
	return names, nil
}

// HasPasskeyAccounts reports whether any stored account has a platform
// credential bound to it.
func (m *SessionManager) HasPasskeyAccounts(ctx context.Context) (bool, error) {
	names, err := m.store.ListAccountNames(ctx)
	if err != nil {
		return false, WrapError("has passkey accounts", err)
	}
	for _, name := range names {
		exists, err := m.store.PasskeyExists(ctx, name)
		if err != nil {
			return false, WrapError("has passkey accounts", err)
		}
		if exists {
			return true, nil
		}
	}
	return false, nil
}

// IsSessionRestore returns true if the error came from a failed resume.
func IsSessionRestore(err error) bool {
	return errors.Is(err, ErrSessionRestore)
}
