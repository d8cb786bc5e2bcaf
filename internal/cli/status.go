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

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show authentication status",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		if err := app.Controller.Start(ctx); err != nil {
			return err
		}
		state := app.Controller.State()
		session := app.Controller.Session()

		fmt.Printf("Step:          %s\n", state.Step)
		fmt.Printf("Wallet:        %s (chain %d)\n",
			app.Config.Wallet.Address, app.Config.Wallet.ChainID)
		fmt.Printf("Passkeys:      %v\n", app.Passkeys.Supported(ctx))
		if session.IsAuthenticated() {
			fmt.Printf("Authenticated: yes\n")
			fmt.Printf("Account:       %s\n", session.AccountID())
			fmt.Printf("Method:        %s\n", session.Method())
			fmt.Printf("Address:       %s\n", session.Address())
		} else {
			fmt.Printf("Authenticated: no\n")
		}
		if state.LastError != nil {
			fmt.Printf("Last error:    %v\n", state.LastError)
		}
		return nil
	},
}
