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

package keyderive

import "errors"

// Validation errors for key derivation input.
var (
	// ErrMalformedSignature is returned when the signature is not valid hex.
	ErrMalformedSignature = errors.New("malformed signature hex")

	// ErrShortSignature is returned when the decoded signature is shorter
	// than a minimal ECDSA signature.
	ErrShortSignature = errors.New("signature too short")

	// ErrEmptyAddress is returned when the wallet address is empty.
	ErrEmptyAddress = errors.New("wallet address is empty")
)
