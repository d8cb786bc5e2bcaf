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

package cli

import (
	"os"
	"path/filepath"

	"github.com/jeremyhahn/shinobi-auth/internal/config"
	"github.com/jeremyhahn/shinobi-auth/pkg/auth"
	"github.com/jeremyhahn/shinobi-auth/pkg/keygen"
	"github.com/jeremyhahn/shinobi-auth/pkg/logging"
	"github.com/jeremyhahn/shinobi-auth/pkg/passkey"
	"github.com/jeremyhahn/shinobi-auth/pkg/storage"
	"github.com/jeremyhahn/shinobi-auth/pkg/wallet"
)

// App wires the configured storage, credential providers and auth services
// for one CLI invocation.
type App struct {
	Config     *config.Config
	Logger     *logging.Logger
	Store      storage.Manager
	Passkeys   *passkey.Service
	Wallet     *wallet.MockProvider
	PasskeySvc *auth.PasskeyService
	WalletSvc  *auth.WalletService
	Sessions   *auth.SessionManager
	Controller *auth.Controller
}

// newApp builds the application from global flags and configuration.
func newApp() (*App, error) {
	path := configFile
	if path == "" {
		// Use the conventional location only when it exists.
		if _, err := os.Stat(config.DefaultConfigPath()); err == nil {
			path = config.DefaultConfigPath()
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if storageDir != "" {
		cfg.Storage.Path = storageDir
	}
	if debug {
		cfg.Logging.Level = "debug"
	}

	logger := logging.NewLogger(cfg.Debug())

	store, err := newStore(cfg)
	if err != nil {
		return nil, err
	}

	authenticator, err := newAuthenticator(cfg)
	if err != nil {
		return nil, err
	}
	passkeys, err := passkey.NewService(passkey.ServiceParams{
		Config:        &cfg.Passkey,
		Authenticator: authenticator,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}

	provider := wallet.NewMockProvider(cfg.Wallet.Address, cfg.Wallet.ChainID,
		[]byte(cfg.Wallet.Secret))
	sdk := keygen.NewEd25519SDK()

	passkeySvc, err := auth.NewPasskeyService(auth.PasskeyServiceParams{
		Store:    store,
		Passkeys: passkeys,
		SDK:      sdk,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}
	walletSvc, err := auth.NewWalletService(auth.WalletServiceParams{
		Store:    store,
		Provider: provider,
		SDK:      sdk,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	sessions, err := auth.NewSessionManager(auth.SessionManagerParams{
		Session:  auth.NewSession(),
		Store:    store,
		Passkeys: passkeys,
		SDK:      sdk,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	controller, err := auth.NewController(auth.ControllerParams{
		Sessions: sessions,
		Passkeys: passkeys,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	return &App{
		Config:     cfg,
		Logger:     logger,
		Store:      store,
		Passkeys:   passkeys,
		Wallet:     provider,
		PasskeySvc: passkeySvc,
		WalletSvc:  walletSvc,
		Sessions:   sessions,
		Controller: controller,
	}, nil
}

func newStore(cfg *config.Config) (storage.Manager, error) {
	switch cfg.Storage.Backend {
	case "memory":
		return storage.NewMemoryStore(), nil
	default:
		return storage.NewFileStore(cfg.Storage.Path)
	}
}

// newAuthenticator creates the software authenticator. Credentials persist
// next to the account data so passkeys survive process restarts.
func newAuthenticator(cfg *config.Config) (*passkey.SoftwareAuthenticator, error) {
	if cfg.Storage.Backend == "memory" {
		return passkey.NewSoftwareAuthenticator()
	}
	return passkey.NewSoftwareAuthenticator(
		passkey.WithStatePath(filepath.Join(cfg.Storage.Path, "authenticator.json")))
}
