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

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Manager for tests and ephemeral sessions.
// Payloads are sealed exactly as in the file store, so decryption failures
// are observable in tests.
type MemoryStore struct {
	mu sync.RWMutex

	accounts map[string][]byte
	passkeys map[string]*CredentialBinding
	metadata *SessionMetadata

	activeID  string
	activeKey []byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[string][]byte),
		passkeys: make(map[string]*CredentialBinding),
	}
}

// AccountExists reports whether an account payload is stored under the id.
func (s *MemoryStore) AccountExists(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.accounts[id]
	return ok, nil
}

// GetAccountData loads and decrypts the active account's payload.
func (s *MemoryStore) GetAccountData(ctx context.Context) (*AccountPayload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.activeID == "" {
		return nil, WrapError("get account data", ErrNoSession)
	}
	blob, ok := s.accounts[s.activeID]
	if !ok {
		return nil, nil
	}
	payload, err := openPayload(s.activeKey, blob, s.activeID)
	if err != nil {
		return nil, WrapError("get account data", err)
	}
	return payload, nil
}

// StoreAccountData seals and stores the payload under the active account.
func (s *MemoryStore) StoreAccountData(ctx context.Context, payload *AccountPayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeID == "" {
		return WrapError("store account data", ErrNoSession)
	}
	blob, err := sealPayload(s.activeKey, payload, s.activeID)
	if err != nil {
		return WrapError("store account data", err)
	}
	s.accounts[s.activeID] = blob
	return nil
}

// InitializeAccountSession activates a platform-credential account session.
func (s *MemoryStore) InitializeAccountSession(ctx context.Context, name string, symmetricKey []byte) error {
	return s.initSession(name, symmetricKey)
}

// InitializeWalletAccountSession activates a wallet account session.
func (s *MemoryStore) InitializeWalletAccountSession(ctx context.Context, id string, encryptionKey []byte) error {
	return s.initSession(id, encryptionKey)
}

func (s *MemoryStore) initSession(id string, key []byte) error {
	if len(key) != 32 {
		return WrapError("initialize session", ErrInvalidKeySize)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	zeroKey(s.activeKey)
	s.activeID = id
	s.activeKey = append([]byte(nil), key...)
	return nil
}

// SetupWalletAccountTransaction atomically activates the wallet session and
// stores the sealed payload. The seal happens before any state mutation, so
// a failure leaves the store untouched.
func (s *MemoryStore) SetupWalletAccountTransaction(ctx context.Context, id string, encryptionKey []byte, payload *AccountPayload) error {
	blob, err := sealPayload(encryptionKey, payload, id)
	if err != nil {
		return WrapError("setup wallet account", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	zeroKey(s.activeKey)
	s.accounts[id] = blob
	s.activeID = id
	s.activeKey = append([]byte(nil), encryptionKey...)
	return nil
}

// PasskeyExists reports whether a credential binding exists for the name.
func (s *MemoryStore) PasskeyExists(ctx context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.passkeys[name]
	return ok, nil
}

// StorePasskeyData stores a credential binding, rejecting duplicates.
func (s *MemoryStore) StorePasskeyData(ctx context.Context, binding *CredentialBinding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.passkeys[binding.AccountID]; ok {
		return WrapError("store passkey data", ErrPasskeyExists)
	}
	s.passkeys[binding.AccountID] = binding
	return nil
}

// GetPasskeyData returns the credential binding for the name, or nil.
func (s *MemoryStore) GetPasskeyData(ctx context.Context, name string) (*CredentialBinding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.passkeys[name], nil
}

// ListAccountNames returns the ids of all stored accounts, sorted.
func (s *MemoryStore) ListAccountNames(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.accounts))
	for id := range s.accounts {
		names = append(names, id)
	}
	sort.Strings(names)
	return names, nil
}

// GetSessionMetadata returns the persisted resume metadata, or nil.
func (s *MemoryStore) GetSessionMetadata(ctx context.Context) (*SessionMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metadata, nil
}

// StoreSessionMetadata persists resume metadata.
func (s *MemoryStore) StoreSessionMetadata(ctx context.Context, meta *SessionMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metadata = meta
	return nil
}

// ClearSession deactivates the session and removes resume metadata.
func (s *MemoryStore) ClearSession(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	zeroKey(s.activeKey)
	s.activeID = ""
	s.activeKey = nil
	s.metadata = nil
	return nil
}
