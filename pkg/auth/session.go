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
	"sync"

	"github.com/jeremyhahn/shinobi-auth/pkg/keygen"
	"github.com/jeremyhahn/shinobi-auth/pkg/storage"
)

// Session is the process-wide authentication state. All mutation goes
// through unexported methods so only this package can flip it; consumers
// read a consistent snapshot through the accessors.
type Session struct {
	mu sync.RWMutex

	authenticated bool
	restoring     bool
	accountID     string
	method        storage.AuthMethod
	publicKey     []byte
	privateKey    []byte
	address       string
}

// NewSession returns an unauthenticated session.
func NewSession() *Session {
	return &Session{}
}

// IsAuthenticated reports whether the session is authenticated.
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// IsRestoring reports whether a silent resume is in progress.
func (s *Session) IsRestoring() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.restoring
}

// AccountID returns the authenticated account id, or "".
func (s *Session) AccountID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accountID
}

// Method returns the method the session authenticated with.
func (s *Session) Method() storage.AuthMethod {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.method
}

// PublicKey returns a copy of the identity public key.
func (s *Session) PublicKey() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]byte(nil), s.publicKey...)
}

// PrivateKey returns a copy of the identity private key.
func (s *Session) PrivateKey() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]byte(nil), s.privateKey...)
}

// Address returns the identity address, or "".
func (s *Session) Address() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.address
}

func (s *Session) authenticate(accountID string, method storage.AuthMethod, pair *keygen.KeyPair) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.authenticated = true
	s.accountID = accountID
	s.method = method
	s.publicKey = append([]byte(nil), pair.PublicKey...)
	s.privateKey = append([]byte(nil), pair.PrivateKey...)
	s.address = pair.Address
}

func (s *Session) setRestoring(restoring bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restoring = restoring
}

func (s *Session) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.privateKey {
		s.privateKey[i] = 0
	}
	s.authenticated = false
	s.accountID = ""
	s.method = ""
	s.publicKey = nil
	s.privateKey = nil
	s.address = ""
}
