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

// Package passkey provides platform credential operations for the wallet
// authentication protocol.
//
// A platform credential is a device-bound, hardware-backed WebAuthn
// credential (Touch ID, Windows Hello, a passkey) that supports the PRF
// extension. The PRF extension evaluates a pseudo-random function inside the
// authenticator, which lets the wallet derive a stable 32-byte symmetric key
// from the credential without the key ever existing outside the secure
// hardware.
//
// The package separates two concerns:
//
//   - Provider drives the create/assert ceremonies and owns the PRF
//     evaluation contract. It is what the auth layer consumes.
//   - Authenticator is the platform bridge that actually performs a
//     ceremony. Browsers, OS keystores, and the in-process
//     SoftwareAuthenticator all satisfy it.
//
// Platforms allow only one outstanding ceremony at a time; a second request
// while one is in flight fails with ErrCeremonyPending. Callers must treat
// that error as "retry later", not as a failed credential.
package passkey
