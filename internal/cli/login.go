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
)

var loginAccount string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with a passkey or wallet signature",
	Long: `Authenticate against a stored account.

With --account, the named account's passkey re-derives the decryption
key through a PRF assertion. Without it, the connected wallet signs the
authentication message and the signature re-derives the keys.`,
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
		if app.Controller.State().Step != auth.StepLoginConvenient {
			return fmt.Errorf("no stored accounts; run 'shinobi setup' first")
		}

		if loginAccount != "" {
			name := strings.TrimSpace(loginAccount)
			pair, err := app.PasskeySvc.Login(ctx, name)
			if err != nil {
				app.Controller.ReportError(err)
				return err
			}
			if err := app.Controller.Handle(ctx, auth.PlatformLoginSuccess{
				AccountID: name,
				Keys:      pair,
			}); err != nil {
				return err
			}
		} else {
			pair, _, err := app.WalletSvc.Authenticate(ctx)
			if err != nil {
				app.Controller.ReportError(err)
				return err
			}
			if pair == nil {
				return fmt.Errorf("no account for wallet %s on chain %d; run 'shinobi setup'",
					app.Config.Wallet.Address, app.Config.Wallet.ChainID)
			}
			if err := app.Controller.Handle(ctx, auth.WalletLoginSuccess{
				AccountID: auth.WalletAccountID(app.Config.Wallet.Address, app.Config.Wallet.ChainID),
				Keys:      pair,
			}); err != nil {
				return err
			}
		}

		if app.Controller.State().Step == auth.StepSyncingNotes {
			if err := app.Controller.RunSync(ctx); err != nil {
				return err
			}
		}

		fmt.Printf("Authenticated as %s (%s)\n", session.AccountID(), session.Method())
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginAccount, "account", "a", "",
		"account name for passkey login (omit for wallet login)")
}
