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

package wallet

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TypedData is an EIP-712 typed-data signing request. The layout mirrors the
// eth_signTypedData_v4 JSON payload so providers can forward it unchanged.
type TypedData struct {
	Domain      TypedDataDomain             `json:"domain"`
	PrimaryType string                      `json:"primaryType"`
	Types       map[string][]TypedDataField `json:"types"`
	Message     map[string]any              `json:"message"`
}

// TypedDataDomain is the EIP-712 signing domain.
type TypedDataDomain struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	ChainID uint64 `json:"chainId"`
}

// TypedDataField is a single field of an EIP-712 struct type.
type TypedDataField struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

const (
	// authDomainName identifies the wallet-auth signing domain. The same
	// signature must always be reproducible for a given account and chain,
	// so the message carries no nonce or timestamp.
	authDomainName    = "Shinobi Wallet Authentication"
	authDomainVersion = "1"
	authPrimaryType   = "Authentication"
)

// AuthMessage builds the EIP-712 authentication request for the given
// account. Signing this message is deterministic per (wallet, chain), which
// is what makes the derived keys recoverable on a fresh device.
func AuthMessage(chainID uint64, walletAddress string) *TypedData {
	return &TypedData{
		Domain: TypedDataDomain{
			Name:    authDomainName,
			Version: authDomainVersion,
			ChainID: chainID,
		},
		PrimaryType: authPrimaryType,
		Types: map[string][]TypedDataField{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
			},
			authPrimaryType: {
				{Name: "statement", Type: "string"},
				{Name: "wallet", Type: "address"},
			},
		},
		Message: map[string]any{
			"statement": "Authenticate with your Shinobi wallet account. This signature derives your account keys and never leaves your device.",
			"wallet":    strings.ToLower(walletAddress),
		},
	}
}

// Encode returns the canonical JSON encoding of the typed data. Map keys are
// sorted by encoding/json, so the encoding is stable for a given message.
func (d *TypedData) Encode() ([]byte, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode typed data: %w", err)
	}
	return raw, nil
}
