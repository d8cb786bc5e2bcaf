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
	"errors"
	"fmt"
)

// Sentinel errors for wallet provider operations.
var (
	// ErrNoWallet is returned when no wallet is connected.
	ErrNoWallet = errors.New("no wallet connected")

	// ErrSignatureRejected is returned when the user rejects the
	// signature request.
	ErrSignatureRejected = errors.New("signature request rejected")

	// ErrSignatureFailed is returned when the signature request fails for
	// any other reason.
	ErrSignatureFailed = errors.New("signature request failed")
)

// WalletError wraps an error with the operation that produced it.
type WalletError struct {
	Op  string // Operation that failed
	Err error  // Underlying error
}

// Error returns the error message.
func (e *WalletError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *WalletError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches.
func (e *WalletError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapError wraps an error with an operation name if it's not nil.
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &WalletError{Op: op, Err: err}
}

// IsRejected returns true if the error indicates the user declined to sign.
func IsRejected(err error) bool {
	return errors.Is(err, ErrSignatureRejected)
}
