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
	"errors"
	"fmt"
)

// Sentinel errors for authentication operations.
var (
	// ErrAccountNotFound is returned when no account exists under the
	// given name.
	ErrAccountNotFound = errors.New("account not found")

	// ErrAccountExists is returned when attempting to set up an account
	// that already exists.
	ErrAccountExists = errors.New("account already exists")

	// ErrAccountDataMissing is returned when an account session opens but
	// no payload is stored for it.
	ErrAccountDataMissing = errors.New("account data missing")

	// ErrSessionRestore is returned when a persisted session cannot be
	// resumed.
	ErrSessionRestore = errors.New("session restore failed")

	// ErrInvalidTransition is returned when a flow event is not valid in
	// the current step.
	ErrInvalidTransition = errors.New("invalid flow transition")

	// ErrNoGeneratedKeys is returned when account setup is requested
	// before key generation completed.
	ErrNoGeneratedKeys = errors.New("no generated keys available")
)

// AuthError wraps an error with the operation that produced it.
type AuthError struct {
	Op  string // Operation that failed
	Err error  // Underlying error
}

// Error returns the error message.
func (e *AuthError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *AuthError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches.
func (e *AuthError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapError wraps an error with an operation name if it's not nil.
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &AuthError{Op: op, Err: err}
}

// IsAccountNotFound returns true if the error indicates a missing account.
func IsAccountNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound)
}

// IsAccountExists returns true if the error indicates a duplicate account.
func IsAccountExists(err error) bool {
	return errors.Is(err, ErrAccountExists)
}
