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
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/shinobi-auth/pkg/auth"
	"github.com/jeremyhahn/shinobi-auth/pkg/storage"
)

var (
	setupAccount   string
	setupEphemeral bool
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create a new account from a wallet signature",
	Long: `Create a new account. One wallet signature derives both the
identity keys and the storage encryption key; the same wallet on the
same chain always reproduces them.

With --account, the new identity is additionally bound to a passkey so
later logins need neither the wallet nor the seed phrase. With
--ephemeral, nothing is persisted and the session lives only until the
process exits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		if err := app.Controller.Start(ctx); err != nil {
			return err
		}
		session := app.Controller.Session()
		if app.Controller.State().Step == auth.StepAuthenticated {
			fmt.Printf("Already authenticated as %s\n", session.AccountID())
			return nil
		}
		if app.Controller.State().Step == auth.StepLoginConvenient {
			if err := app.Controller.Handle(ctx, auth.CreateChoice{}); err != nil {
				return err
			}
		}

		pair, generated, err := app.WalletSvc.Authenticate(ctx)
		if err != nil {
			app.Controller.ReportError(err)
			return err
		}
		if pair != nil {
			return fmt.Errorf("an account already exists for wallet %s on chain %d; run 'shinobi login'",
				app.Config.Wallet.Address, app.Config.Wallet.ChainID)
		}

		// The seed phrase is wiped once the session takes the keys; keep a
		// copy so it can be shown for backup.
		seedPhrase := generated.Keys.SeedPhrase

		if !setupEphemeral {
			if err := app.WalletSvc.SetupAccount(ctx, generated); err != nil {
				app.Controller.ReportError(err)
				return err
			}
		}
		if err := app.Controller.Handle(ctx, auth.KeyGenerationComplete{Generated: generated}); err != nil {
			return err
		}

		if app.Controller.State().Step == auth.StepSetupConvenient {
			switch {
			case setupEphemeral:
				if err := app.Controller.Handle(ctx, auth.SkipSetup{}); err != nil {
					return err
				}
			case setupAccount != "":
				name := strings.TrimSpace(setupAccount)
				if err := app.PasskeySvc.Setup(ctx, name, generated.Keys); err != nil {
					app.Controller.ReportError(err)
					return err
				}
				if err := app.Controller.Handle(ctx, auth.AccountSetupComplete{
					AccountID: name,
					Method:    storage.AuthMethodPasskey,
				}); err != nil {
					return err
				}
			default:
				if err := app.Controller.Handle(ctx, auth.AccountSetupComplete{}); err != nil {
					return err
				}
			}
		}

		if app.Controller.State().Step == auth.StepSyncingNotes {
			if err := app.Controller.RunSync(ctx); err != nil {
				return err
			}
		}

		fmt.Printf("Account %s created\n", session.AccountID())
		fmt.Println("\nRecovery phrase (write it down, it is shown only once):")
		fmt.Printf("  %s\n", seedPhrase)
		return nil
	},
}

func init() {
	setupCmd.Flags().StringVarP(&setupAccount, "account", "a", "",
		"account name to bind a passkey to")
	setupCmd.Flags().BoolVar(&setupEphemeral, "ephemeral", false,
		"do not persist the account; session only")
}
