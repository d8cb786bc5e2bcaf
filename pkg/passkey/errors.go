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
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for platform credential ceremonies.
var (
	// ErrPRFUnsupported is returned when the authenticator cannot
	// evaluate the PRF extension.
	ErrPRFUnsupported = errors.New("authenticator does not support the PRF extension")

	// ErrCancelled is returned when the user cancels the ceremony.
	ErrCancelled = errors.New("credential ceremony cancelled")

	// ErrCeremonyFailed is returned when the ceremony fails for any other
	// reason.
	ErrCeremonyFailed = errors.New("credential ceremony failed")

	// ErrCeremonyPending is returned when another ceremony is already in
	// flight. The platform allows only one outstanding request.
	ErrCeremonyPending = errors.New("a credential ceremony is already pending")

	// ErrCredentialNotFound is returned when an assertion references an
	// unknown credential.
	ErrCredentialNotFound = errors.New("credential not found")

	// ErrNotSupported is returned when no platform authenticator is
	// available.
	ErrNotSupported = errors.New("platform credentials not supported")
)

// PasskeyError wraps an error with the ceremony operation that produced it.
type PasskeyError struct {
	Op  string // Operation that failed
	Err error  // Underlying error
}

// Error returns the error message.
func (e *PasskeyError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *PasskeyError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches.
func (e *PasskeyError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapError wraps an error with an operation name if it's not nil.
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PasskeyError{Op: op, Err: err}
}

// IsCancelled returns true if the error indicates the user cancelled the
// ceremony.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// IsPending returns true if the error indicates a ceremony collision. Browser
// implementations surface collisions only through the error message, so the
// message content is inspected in addition to the sentinel.
func IsPending(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrCeremonyPending) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already pending") ||
		strings.Contains(msg, "request is pending") ||
		strings.Contains(msg, "pending request")
}
