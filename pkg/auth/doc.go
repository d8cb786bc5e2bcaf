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

// Package auth implements the wallet authentication and session protocol.
//
// Two credential sources produce the symmetric key that protects an account
// at rest: a platform credential (PasskeyService) or a blockchain wallet
// signature (WalletService). Both are stateless with respect to the
// process-wide Session; they return key material or fail, and never mutate
// global state.
//
// The Controller is the top-level state machine. It owns the flow state,
// routes user choices into the credential services' results, and is the only
// component that marks the Session authenticated. The SessionManager handles
// silent resume across process restarts and guarantees the restore side
// effect runs at most once per process.
package auth
