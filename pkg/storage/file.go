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
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

const (
	accountsDir  = "accounts"
	passkeysFile = "passkeys.json"
	sessionFile  = "session.json"

	dirPerm  = 0o700
	filePerm = 0o600
)

// FileStore is a file-backed Manager. Sealed account payloads live under
// accounts/, one file per account named by the SHA-256 of the account id.
// Credential bindings and session metadata are public data and stored as
// plain JSON. All writes go through a temp file and rename so readers never
// observe a partial file.
type FileStore struct {
	mu sync.Mutex

	root string

	activeID  string
	activeKey []byte

	passkeys map[string]*CredentialBinding
}

// NewFileStore opens (or creates) a file store rooted at the given
// directory.
func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Join(root, accountsDir), dirPerm); err != nil {
		return nil, WrapError("open file store", err)
	}

	s := &FileStore{
		root:     root,
		passkeys: make(map[string]*CredentialBinding),
	}
	if err := s.loadPasskeys(); err != nil {
		return nil, WrapError("open file store", err)
	}
	return s, nil
}

func (s *FileStore) accountPath(id string) string {
	digest := sha256.Sum256([]byte(id))
	return filepath.Join(s.root, accountsDir, hex.EncodeToString(digest[:])+".enc")
}

// AccountExists reports whether an account payload is stored under the id.
func (s *FileStore) AccountExists(ctx context.Context, id string) (bool, error) {
	if _, err := os.Stat(s.accountPath(id)); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, WrapError("account exists", err)
	}
	return true, nil
}

// GetAccountData loads and decrypts the active account's payload.
func (s *FileStore) GetAccountData(ctx context.Context) (*AccountPayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeID == "" {
		return nil, WrapError("get account data", ErrNoSession)
	}
	blob, err := os.ReadFile(s.accountPath(s.activeID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, WrapError("get account data", err)
	}
	payload, err := openPayload(s.activeKey, blob, s.activeID)
	if err != nil {
		return nil, WrapError("get account data", err)
	}
	return payload, nil
}

// StoreAccountData seals and stores the payload under the active account.
func (s *FileStore) StoreAccountData(ctx context.Context, payload *AccountPayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeID == "" {
		return WrapError("store account data", ErrNoSession)
	}
	blob, err := sealPayload(s.activeKey, payload, s.activeID)
	if err != nil {
		return WrapError("store account data", err)
	}
	if err := atomicWrite(s.accountPath(s.activeID), blob); err != nil {
		return WrapError("store account data", err)
	}
	if err := s.saveIndexEntry(s.activeID); err != nil {
		return WrapError("store account data", err)
	}
	return nil
}

// InitializeAccountSession activates a platform-credential account session.
func (s *FileStore) InitializeAccountSession(ctx context.Context, name string, symmetricKey []byte) error {
	return s.initSession(name, symmetricKey)
}

// InitializeWalletAccountSession activates a wallet account session.
func (s *FileStore) InitializeWalletAccountSession(ctx context.Context, id string, encryptionKey []byte) error {
	return s.initSession(id, encryptionKey)
}

func (s *FileStore) initSession(id string, key []byte) error {
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
// stores the sealed payload. The payload is sealed and written before any
// session state changes; the rename is the commit point.
func (s *FileStore) SetupWalletAccountTransaction(ctx context.Context, id string, encryptionKey []byte, payload *AccountPayload) error {
	blob, err := sealPayload(encryptionKey, payload, id)
	if err != nil {
		return WrapError("setup wallet account", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := atomicWrite(s.accountPath(id), blob); err != nil {
		return WrapError("setup wallet account", err)
	}
	if err := s.saveIndexEntry(id); err != nil {
		// Roll the payload back so no partial state remains.
		_ = os.Remove(s.accountPath(id))
		return WrapError("setup wallet account", err)
	}
	zeroKey(s.activeKey)
	s.activeID = id
	s.activeKey = append([]byte(nil), encryptionKey...)
	return nil
}

// PasskeyExists reports whether a credential binding exists for the name.
func (s *FileStore) PasskeyExists(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.passkeys[name]
	return ok, nil
}

// StorePasskeyData stores a credential binding, rejecting duplicates.
func (s *FileStore) StorePasskeyData(ctx context.Context, binding *CredentialBinding) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.passkeys[binding.AccountID]; ok {
		return WrapError("store passkey data", ErrPasskeyExists)
	}
	s.passkeys[binding.AccountID] = binding
	if err := s.savePasskeys(); err != nil {
		delete(s.passkeys, binding.AccountID)
		return WrapError("store passkey data", err)
	}
	return nil
}

// GetPasskeyData returns the credential binding for the name, or nil.
func (s *FileStore) GetPasskeyData(ctx context.Context, name string) (*CredentialBinding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.passkeys[name], nil
}

// ListAccountNames returns the ids of all stored accounts, sorted. File
// names are hashes, so ids are recovered from the passkey bindings and the
// account index kept alongside the payloads.
func (s *FileStore) ListAccountNames(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, err := s.loadIndex()
	if err != nil {
		return nil, WrapError("list account names", err)
	}
	names := make([]string, 0, len(index))
	for id := range index {
		names = append(names, id)
	}
	sort.Strings(names)
	return names, nil
}

// GetSessionMetadata returns the persisted resume metadata, or nil.
func (s *FileStore) GetSessionMetadata(ctx context.Context) (*SessionMetadata, error) {
	raw, err := os.ReadFile(filepath.Join(s.root, sessionFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, WrapError("get session metadata", err)
	}

	var meta SessionMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, WrapError("get session metadata", err)
	}
	return &meta, nil
}

// StoreSessionMetadata persists resume metadata.
func (s *FileStore) StoreSessionMetadata(ctx context.Context, meta *SessionMetadata) error {
	raw, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return WrapError("store session metadata", err)
	}
	if err := atomicWrite(filepath.Join(s.root, sessionFile), raw); err != nil {
		return WrapError("store session metadata", err)
	}
	return nil
}

// ClearSession deactivates the session and removes resume metadata.
func (s *FileStore) ClearSession(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	zeroKey(s.activeKey)
	s.activeID = ""
	s.activeKey = nil

	if err := os.Remove(filepath.Join(s.root, sessionFile)); err != nil && !os.IsNotExist(err) {
		return WrapError("clear session", err)
	}
	return nil
}

// index maps account ids to their payload file names so ListAccountNames can
// report ids rather than hashes. The index holds no secrets.
const indexFile = "index.json"

func (s *FileStore) loadIndex() (map[string]string, error) {
	raw, err := os.ReadFile(filepath.Join(s.root, indexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	index := make(map[string]string)
	if err := json.Unmarshal(raw, &index); err != nil {
		return nil, err
	}
	return index, nil
}

func (s *FileStore) saveIndexEntry(id string) error {
	index, err := s.loadIndex()
	if err != nil {
		return err
	}
	index[id] = filepath.Base(s.accountPath(id))
	raw, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return err
	}
	return atomicWrite(filepath.Join(s.root, indexFile), raw)
}

func (s *FileStore) loadPasskeys() error {
	raw, err := os.ReadFile(filepath.Join(s.root, passkeysFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return json.Unmarshal(raw, &s.passkeys)
}

func (s *FileStore) savePasskeys() error {
	raw, err := json.MarshalIndent(s.passkeys, "", "  ")
	if err != nil {
		return err
	}
	return atomicWrite(filepath.Join(s.root, passkeysFile), raw)
}

// atomicWrite writes data to a temp file and renames it into place.
func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, filePerm); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("commit %s: %w", filepath.Base(path), err)
	}
	return nil
}
