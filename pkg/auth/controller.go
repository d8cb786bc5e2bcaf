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
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jeremyhahn/shinobi-auth/pkg/keygen"
	"github.com/jeremyhahn/shinobi-auth/pkg/logging"
	"github.com/jeremyhahn/shinobi-auth/pkg/passkey"
	"github.com/jeremyhahn/shinobi-auth/pkg/storage"
)

// Step identifies a stage of the authentication flow.
type Step string

// Authentication flow steps.
const (
	StepCheckingAccounts Step = "checking-accounts"
	StepLoginConvenient  Step = "login-convenient"
	StepCreateKeys       Step = "create-keys"
	StepSetupConvenient  Step = "setup-convenient"
	StepSyncingNotes     Step = "syncing-notes"
	StepAuthenticated    Step = "authenticated"
)

// Event is a flow input: either a user choice or the result of a
// credential operation performed by the frontend.
type Event interface {
	isEvent()
}

// LoginChoice selects the existing-account login path.
type LoginChoice struct{}

// CreateChoice selects the new-account path.
type CreateChoice struct{}

// PlatformLoginSuccess reports a completed platform-credential login.
type PlatformLoginSuccess struct {
	AccountID string
	Keys      *keygen.KeyPair
}

// WalletLoginSuccess reports a completed wallet-signature login.
type WalletLoginSuccess struct {
	AccountID string
	Keys      *keygen.KeyPair
}

// KeyGenerationComplete reports freshly generated identity keys.
type KeyGenerationComplete struct {
	Generated *GeneratedKeys
}

// AccountSetupComplete reports that account setup committed. AccountID and
// Method identify the stored account; when empty, the account is assumed to
// be the wallet-bound one implied by the generated keys.
type AccountSetupComplete struct {
	AccountID string
	Method    storage.AuthMethod
}

// SkipSetup declines persistent setup; the session stays in memory only.
type SkipSetup struct{}

// SyncingComplete reports that the initial note sync finished.
type SyncingComplete struct{}

// Back returns from convenience setup to key generation.
type Back struct{}

func (LoginChoice) isEvent()           {}
func (CreateChoice) isEvent()          {}
func (PlatformLoginSuccess) isEvent()  {}
func (WalletLoginSuccess) isEvent()    {}
func (KeyGenerationComplete) isEvent() {}
func (AccountSetupComplete) isEvent()  {}
func (SkipSetup) isEvent()             {}
func (SyncingComplete) isEvent()       {}
func (Back) isEvent()                  {}

// FlowState is a snapshot of the controller's externally visible state.
type FlowState struct {
	// Step is the current flow stage.
	Step Step

	// HasExistingAccounts reports whether any account is stored locally.
	HasExistingAccounts bool

	// HasPasskeyAccounts reports whether any stored account has a
	// platform credential bound.
	HasPasskeyAccounts bool

	// LastError is the most recent flow error, cleared by the next
	// successful transition.
	LastError error
}

// NoteSyncer performs the initial note synchronization for an account.
type NoteSyncer interface {
	Sync(ctx context.Context, accountID string) error
}

// ControllerParams contains the dependencies for creating a Controller.
type ControllerParams struct {
	Sessions *SessionManager
	Passkeys passkey.Provider
	Logger   *logging.Logger

	// Syncer is optional; without one, sync completes immediately.
	Syncer NoteSyncer
}

// Controller is the authentication flow state machine. The frontend runs
// the credential ceremonies through PasskeyService and WalletService and
// feeds the results in as events; the controller decides what comes next
// and is the only component that marks the session authenticated.
type Controller struct {
	mu sync.Mutex

	sessions *SessionManager
	passkeys passkey.Provider
	syncer   NoteSyncer
	logger   *logging.Logger

	state     FlowState
	generated *GeneratedKeys

	startOnce sync.Once
	startErr  error

	syncCancel context.CancelFunc
}

// NewController creates an authentication flow controller.
func NewController(params ControllerParams) (*Controller, error) {
	if params.Sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Passkeys == nil {
		return nil, fmt.Errorf("passkey provider is required")
	}
	if params.Logger == nil {
		params.Logger = logging.DefaultLogger()
	}
	return &Controller{
		sessions: params.Sessions,
		passkeys: params.Passkeys,
		syncer:   params.Syncer,
		logger:   params.Logger,
		state:    FlowState{Step: StepCheckingAccounts},
	}, nil
}

// State returns a snapshot of the flow state.
func (c *Controller) State() FlowState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Generated returns the keys held between generation and setup, or nil.
func (c *Controller) Generated() *GeneratedKeys {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generated
}

// Session returns the session the controller authenticates.
func (c *Controller) Session() *Session {
	return c.sessions.Session()
}

// Start initializes the flow: it waits for session restore to finish, then
// probes stored accounts exactly once and lands on the first interactive
// step. Calling Start again returns the first run's outcome.
func (c *Controller) Start(ctx context.Context) error {
	c.startOnce.Do(func() {
		c.startErr = c.start(ctx)
	})
	return c.startErr
}

func (c *Controller) start(ctx context.Context) error {
	// The account probe must not race the restore; a resumed session
	// skips the interactive flow entirely.
	restoreErr := c.sessions.Restore(ctx)
	if restoreErr != nil {
		c.logger.Warnf("session restore: %v", restoreErr)
	}

	if c.sessions.Session().IsAuthenticated() {
		c.setStep(StepAuthenticated)
		return nil
	}

	hasAccounts, err := c.probe(ctx)
	if err != nil {
		c.setError(err)
		return err
	}
	if hasAccounts {
		c.setStep(StepLoginConvenient)
	} else {
		c.setStep(StepCreateKeys)
	}
	// A failed restore fell back to the interactive flow; keep the cause
	// visible for the frontend.
	if restoreErr != nil {
		c.setError(restoreErr)
	}
	return nil
}

func (c *Controller) probe(ctx context.Context) (bool, error) {
	names, err := c.sessions.ListAccounts(ctx)
	if err != nil {
		return false, WrapError("check accounts", err)
	}
	hasPasskey, err := c.sessions.HasPasskeyAccounts(ctx)
	if err != nil {
		return false, WrapError("check accounts", err)
	}

	c.mu.Lock()
	c.state.HasExistingAccounts = len(names) > 0
	c.state.HasPasskeyAccounts = hasPasskey
	c.mu.Unlock()
	return len(names) > 0, nil
}

// Handle applies a flow event. Events that are not valid in the current
// step fail with ErrInvalidTransition and leave the state unchanged.
func (c *Controller) Handle(ctx context.Context, event Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch ev := event.(type) {
	case LoginChoice:
		if c.state.Step != StepCreateKeys || !c.state.HasExistingAccounts {
			return c.invalid("login choice")
		}
		c.wipeGenerated()
		c.transition(StepLoginConvenient)

	case CreateChoice:
		if c.state.Step != StepLoginConvenient {
			return c.invalid("create choice")
		}
		c.transition(StepCreateKeys)

	case PlatformLoginSuccess:
		if c.state.Step != StepLoginConvenient {
			return c.invalid("platform login")
		}
		c.authenticate(ev.AccountID, storage.AuthMethodPasskey, ev.Keys)
		c.transition(StepSyncingNotes)

	case WalletLoginSuccess:
		if c.state.Step != StepLoginConvenient {
			return c.invalid("wallet login")
		}
		c.authenticate(ev.AccountID, storage.AuthMethodWallet, ev.Keys)
		c.transition(StepSyncingNotes)

	case KeyGenerationComplete:
		if c.state.Step != StepCreateKeys {
			return c.invalid("key generation")
		}
		if ev.Generated == nil || ev.Generated.Keys == nil {
			return c.fail("key generation", ErrNoGeneratedKeys)
		}
		c.generated = ev.Generated
		if c.passkeys.Supported(ctx) {
			// Offer binding the new keys to a platform credential.
			c.transition(StepSetupConvenient)
		} else {
			c.authenticateGeneratedLocked()
			c.transition(StepSyncingNotes)
		}

	case AccountSetupComplete:
		if c.state.Step != StepSetupConvenient {
			return c.invalid("account setup")
		}
		if c.generated == nil {
			return c.fail("account setup", ErrNoGeneratedKeys)
		}
		id := ev.AccountID
		if id == "" {
			id = WalletAccountID(c.generated.WalletAddress, c.generated.ChainID)
		}
		method := ev.Method
		if method == "" {
			method = storage.AuthMethodWallet
		}
		c.authenticate(id, method, &c.generated.Keys.KeyPair)
		c.wipeGenerated()
		c.transition(StepSyncingNotes)

	case SkipSetup:
		if c.state.Step != StepSetupConvenient {
			return c.invalid("skip setup")
		}
		if c.generated == nil {
			return c.fail("skip setup", ErrNoGeneratedKeys)
		}
		// Session only; nothing is persisted, so nothing resumes after
		// restart and the initial sync is skipped with it.
		c.authenticateGeneratedLocked()
		c.transition(StepAuthenticated)

	case SyncingComplete:
		if c.state.Step != StepSyncingNotes {
			return c.invalid("syncing complete")
		}
		c.transition(StepAuthenticated)

	case Back:
		if c.state.Step != StepSetupConvenient {
			return c.invalid("back")
		}
		c.wipeGenerated()
		c.transition(StepCreateKeys)

	default:
		return c.invalid(fmt.Sprintf("%T", event))
	}
	return nil
}

// RunSync executes the initial note sync for the authenticated account. A
// retry cancels the previous run first so two syncs never race; a
// cancelled run is not a failure.
func (c *Controller) RunSync(ctx context.Context) error {
	c.mu.Lock()
	if c.state.Step != StepSyncingNotes {
		c.mu.Unlock()
		return WrapError("run sync", ErrInvalidTransition)
	}
	if c.syncCancel != nil {
		c.syncCancel()
	}
	syncCtx, cancel := context.WithCancel(ctx)
	c.syncCancel = cancel
	syncer := c.syncer
	accountID := c.sessions.Session().AccountID()
	c.mu.Unlock()

	if syncer != nil {
		if err := syncer.Sync(syncCtx, accountID); err != nil {
			if errors.Is(err, context.Canceled) {
				c.logger.Debugf("note sync for %s cancelled", accountID)
				return nil
			}
			wrapped := WrapError("run sync", err)
			c.setError(wrapped)
			return wrapped
		}
	}
	return c.Handle(ctx, SyncingComplete{})
}

// CancelSync aborts an in-flight note sync, if any.
func (c *Controller) CancelSync() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.syncCancel != nil {
		c.syncCancel()
		c.syncCancel = nil
	}
}

// ReportError records a credential operation failure in the flow state
// without changing the step, so the frontend can surface it and retry.
func (c *Controller) ReportError(err error) {
	if err == nil {
		return
	}
	c.setError(err)
}

func (c *Controller) authenticate(accountID string, method storage.AuthMethod, pair *keygen.KeyPair) {
	c.sessions.Session().authenticate(accountID, method, pair)
	c.logger.Infof("session authenticated for %s via %s", accountID, method)
}

// authenticateGeneratedLocked promotes held generated keys into the
// session and wipes them. Caller holds c.mu.
func (c *Controller) authenticateGeneratedLocked() {
	id := WalletAccountID(c.generated.WalletAddress, c.generated.ChainID)
	c.authenticate(id, storage.AuthMethodWallet, &c.generated.Keys.KeyPair)
	c.wipeGenerated()
}

func (c *Controller) wipeGenerated() {
	if c.generated != nil {
		c.generated.Zero()
		c.generated = nil
	}
}

func (c *Controller) transition(step Step) {
	c.logger.Debugf("flow %s -> %s", c.state.Step, step)
	c.state.Step = step
	c.state.LastError = nil
}

func (c *Controller) invalid(what string) error {
	err := WrapError(what, ErrInvalidTransition)
	c.state.LastError = err
	return err
}

func (c *Controller) fail(what string, cause error) error {
	err := WrapError(what, cause)
	c.state.LastError = err
	return err
}

func (c *Controller) setStep(step Step) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transition(step)
}

func (c *Controller) setError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.LastError = err
}
