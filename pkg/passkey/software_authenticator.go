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
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/google/uuid"
)

// SoftwareAuthenticator is an in-process Authenticator with PRF support. It
// backs the CLI in environments without a platform authenticator and serves
// as the test double for ceremony failure modes. Credential secrets never
// leave the process unless a state path is configured, in which case they are
// persisted as JSON for reuse across runs.
//
// Like real platforms, it allows only one ceremony at a time; overlapping
// requests fail with ErrCeremonyPending.
type SoftwareAuthenticator struct {
	mu       sync.Mutex
	inFlight bool

	credentials map[string]*softwareCredential
	statePath   string

	// Unavailable makes Available report false.
	Unavailable bool

	// DisablePRF simulates an authenticator without the PRF extension.
	DisablePRF bool

	// CancelCeremonies makes every ceremony fail as user-cancelled.
	CancelCeremonies bool

	// HoldCeremonies keeps the in-flight flag raised after a ceremony
	// completes, so the next request collides. Tests use this to exercise
	// the do-not-clear-session path.
	HoldCeremonies bool
}

type softwareCredential struct {
	ID         []byte    `json:"id"`
	Secret     []byte    `json:"secret"`
	UserHandle []byte    `json:"user_handle"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
}

// SoftwareAuthenticatorOption configures a SoftwareAuthenticator.
type SoftwareAuthenticatorOption func(*SoftwareAuthenticator)

// WithStatePath persists credential secrets to the given JSON file.
func WithStatePath(path string) SoftwareAuthenticatorOption {
	return func(a *SoftwareAuthenticator) {
		a.statePath = path
	}
}

// WithoutPRF disables the PRF extension.
func WithoutPRF() SoftwareAuthenticatorOption {
	return func(a *SoftwareAuthenticator) {
		a.DisablePRF = true
	}
}

// NewSoftwareAuthenticator creates a software authenticator. If a state path
// is configured and the file exists, previously created credentials are
// loaded from it.
func NewSoftwareAuthenticator(opts ...SoftwareAuthenticatorOption) (*SoftwareAuthenticator, error) {
	a := &SoftwareAuthenticator{
		credentials: make(map[string]*softwareCredential),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.statePath != "" {
		if err := a.load(); err != nil {
			return nil, fmt.Errorf("load authenticator state: %w", err)
		}
	}
	return a, nil
}

// Available reports whether the authenticator can perform ceremonies.
func (a *SoftwareAuthenticator) Available(ctx context.Context) bool {
	return !a.Unavailable
}

// Create performs a credential creation ceremony.
func (a *SoftwareAuthenticator) Create(ctx context.Context, options *protocol.PublicKeyCredentialCreationOptions) (*CreationResult, error) {
	release, err := a.begin()
	if err != nil {
		return nil, err
	}
	defer release()

	if a.CancelCeremonies {
		return nil, ErrCancelled
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCeremonyFailed, err)
	}
	if len(options.Challenge) == 0 {
		return nil, fmt.Errorf("%w: empty challenge", ErrCeremonyFailed)
	}

	userHandle, ok := options.User.ID.([]byte)
	if !ok || len(userHandle) == 0 {
		return nil, fmt.Errorf("%w: missing user handle", ErrCeremonyFailed)
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCeremonyFailed, err)
	}

	id := uuid.New()
	cred := &softwareCredential{
		ID:         id[:],
		Secret:     secret,
		UserHandle: append([]byte(nil), userHandle...),
		Name:       options.User.Name,
		CreatedAt:  time.Now().UTC(),
	}

	a.mu.Lock()
	a.credentials[credentialKey(cred.ID)] = cred
	a.mu.Unlock()

	if err := a.persist(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCeremonyFailed, err)
	}

	return &CreationResult{
		CredentialID: append([]byte(nil), cred.ID...),
		PRFEnabled:   !a.DisablePRF && hasPRFExtension(options.Extensions),
	}, nil
}

// Assert performs an assertion ceremony against an existing credential.
func (a *SoftwareAuthenticator) Assert(ctx context.Context, options *protocol.PublicKeyCredentialRequestOptions) (*AssertionResult, error) {
	release, err := a.begin()
	if err != nil {
		return nil, err
	}
	defer release()

	if a.CancelCeremonies {
		return nil, ErrCancelled
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCeremonyFailed, err)
	}

	cred, err := a.lookup(options.AllowedCredentials)
	if err != nil {
		return nil, err
	}

	result := &AssertionResult{
		CredentialID: append([]byte(nil), cred.ID...),
		UserHandle:   append([]byte(nil), cred.UserHandle...),
	}

	if !a.DisablePRF {
		if salt := prfEvalInput(options.Extensions); salt != nil {
			mac := hmac.New(sha256.New, cred.Secret)
			mac.Write(salt)
			result.PRFOutput = mac.Sum(nil)
		}
	}

	return result, nil
}

// begin raises the single-ceremony latch and returns its release func.
func (a *SoftwareAuthenticator) begin() (func(), error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.inFlight {
		return nil, ErrCeremonyPending
	}
	a.inFlight = true
	return func() {
		if a.HoldCeremonies {
			return
		}
		a.mu.Lock()
		a.inFlight = false
		a.mu.Unlock()
	}, nil
}

// ReleaseHeldCeremony lowers the latch raised by HoldCeremonies.
func (a *SoftwareAuthenticator) ReleaseHeldCeremony() {
	a.mu.Lock()
	a.inFlight = false
	a.mu.Unlock()
}

func (a *SoftwareAuthenticator) lookup(allowed []protocol.CredentialDescriptor) (*softwareCredential, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, desc := range allowed {
		if cred, ok := a.credentials[credentialKey(desc.CredentialID)]; ok {
			return cred, nil
		}
	}
	return nil, ErrCredentialNotFound
}

func (a *SoftwareAuthenticator) persist() error {
	if a.statePath == "" {
		return nil
	}

	a.mu.Lock()
	creds := make([]*softwareCredential, 0, len(a.credentials))
	for _, c := range a.credentials {
		creds = append(creds, c)
	}
	a.mu.Unlock()

	raw, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(a.statePath), 0o700); err != nil {
		return err
	}
	tmp := a.statePath + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, a.statePath)
}

func (a *SoftwareAuthenticator) load() error {
	raw, err := os.ReadFile(a.statePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var creds []*softwareCredential
	if err := json.Unmarshal(raw, &creds); err != nil {
		return err
	}
	for _, c := range creds {
		a.credentials[credentialKey(c.ID)] = c
	}
	return nil
}

func credentialKey(id []byte) string {
	return base64.RawURLEncoding.EncodeToString(id)
}

func hasPRFExtension(ext protocol.AuthenticationExtensions) bool {
	_, ok := ext["prf"]
	return ok
}

// prfEvalInput extracts the "first" PRF evaluation salt from the extension
// map, or nil when the extension was not requested.
func prfEvalInput(ext protocol.AuthenticationExtensions) []byte {
	prf, ok := ext["prf"].(map[string]any)
	if !ok {
		return nil
	}
	eval, ok := prf["eval"].(map[string]any)
	if !ok {
		return nil
	}
	salt, ok := eval["first"].([]byte)
	if !ok {
		return nil
	}
	return salt
}
