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
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/protocol/webauthncose"

	"github.com/jeremyhahn/shinobi-auth/pkg/logging"
)

// prfSaltLabel versions the PRF evaluation context. The PRF salt is fixed per
// protocol version so that every assertion against the same credential
// re-derives the same symmetric key.
const prfSaltLabel = "shinobi-passkey-prf-v1"

// prfSalt returns the PRF evaluation input.
func prfSalt() []byte {
	digest := sha256.Sum256([]byte(prfSaltLabel))
	return digest[:]
}

// Service implements Provider on top of a platform Authenticator using
// go-webauthn protocol types with the PRF extension.
type Service struct {
	config        *Config
	authenticator Authenticator
	logger        *logging.Logger
}

// ServiceParams contains dependencies for creating a passkey service.
type ServiceParams struct {
	// Config is the provider configuration (required).
	Config *Config

	// Authenticator is the platform ceremony bridge (required).
	Authenticator Authenticator

	// Logger is optional; DefaultLogger is used when nil.
	Logger *logging.Logger
}

// NewService creates a new platform credential service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if params.Authenticator == nil {
		return nil, fmt.Errorf("authenticator is required")
	}

	params.Config.SetDefaults()
	if err := params.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := params.Logger
	if logger == nil {
		logger = logging.DefaultLogger()
	}

	return &Service{
		config:        params.Config,
		authenticator: params.Authenticator,
		logger:        logger,
	}, nil
}

// Supported reports whether a platform authenticator is available.
func (s *Service) Supported(ctx context.Context) bool {
	return s.authenticator.Available(ctx)
}

// CreateCredential registers a new platform credential bound to the account
// name and user handle, with the PRF extension enabled.
func (s *Service) CreateCredential(ctx context.Context, accountName string, userHandle []byte) ([]byte, error) {
	if !s.authenticator.Available(ctx) {
		return nil, ErrNotSupported
	}

	name := strings.TrimSpace(accountName)
	challenge, err := protocol.CreateChallenge()
	if err != nil {
		return nil, WrapError("create challenge", err)
	}

	rrk := true
	options := &protocol.PublicKeyCredentialCreationOptions{
		Challenge: challenge,
		RelyingParty: protocol.RelyingPartyEntity{
			CredentialEntity: protocol.CredentialEntity{Name: s.config.RPDisplayName},
			ID:               s.config.RPID,
		},
		User: protocol.UserEntity{
			CredentialEntity: protocol.CredentialEntity{Name: name},
			DisplayName:      name,
			ID:               userHandle,
		},
		Parameters: []protocol.CredentialParameter{
			{Type: protocol.PublicKeyCredentialType, Algorithm: webauthncose.AlgES256},
			{Type: protocol.PublicKeyCredentialType, Algorithm: webauthncose.AlgEdDSA},
		},
		AuthenticatorSelection: protocol.AuthenticatorSelection{
			AuthenticatorAttachment: protocol.Platform,
			RequireResidentKey:      &rrk,
			ResidentKey:             protocol.ResidentKeyRequirementRequired,
			UserVerification:        s.userVerification(),
		},
		Attestation: protocol.PreferNoAttestation,
		Timeout:     int(s.config.Timeout.Milliseconds()),
		Extensions:  s.prfExtension(),
	}

	result, err := s.authenticator.Create(ctx, options)
	if err != nil {
		return nil, WrapError("create credential", err)
	}
	if !result.PRFEnabled {
		return nil, WrapError("create credential", ErrPRFUnsupported)
	}

	s.logger.Debug("platform credential created", "account", name)
	return result.CredentialID, nil
}

// DeriveKey re-derives the symmetric key bound to an existing credential by
// evaluating the PRF extension during an assertion ceremony.
func (s *Service) DeriveKey(ctx context.Context, accountName string, credentialID []byte) ([]byte, error) {
	if !s.authenticator.Available(ctx) {
		return nil, ErrNotSupported
	}

	challenge, err := protocol.CreateChallenge()
	if err != nil {
		return nil, WrapError("create challenge", err)
	}

	options := &protocol.PublicKeyCredentialRequestOptions{
		Challenge:      challenge,
		RelyingPartyID: s.config.RPID,
		AllowedCredentials: []protocol.CredentialDescriptor{
			{
				Type:         protocol.PublicKeyCredentialType,
				CredentialID: credentialID,
			},
		},
		UserVerification: s.userVerification(),
		Timeout:          int(s.config.Timeout.Milliseconds()),
		Extensions:       s.prfExtension(),
	}

	result, err := s.authenticator.Assert(ctx, options)
	if err != nil {
		return nil, WrapError("derive key", err)
	}
	if len(result.PRFOutput) != 32 {
		return nil, WrapError("derive key", ErrPRFUnsupported)
	}

	s.logger.Debug("symmetric key derived from platform credential",
		"account", strings.TrimSpace(accountName))
	return result.PRFOutput, nil
}

func (s *Service) prfExtension() protocol.AuthenticationExtensions {
	return protocol.AuthenticationExtensions{
		"prf": map[string]any{
			"eval": map[string]any{
				"first": prfSalt(),
			},
		},
	}
}

func (s *Service) userVerification() protocol.UserVerificationRequirement {
	switch s.config.UserVerification {
	case "preferred":
		return protocol.VerificationPreferred
	case "discouraged":
		return protocol.VerificationDiscouraged
	default:
		return protocol.VerificationRequired
	}
}
