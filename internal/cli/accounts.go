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

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List stored accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		names, err := app.Sessions.ListAccounts(ctx)
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Println("No accounts stored")
			return nil
		}

		for _, name := range names {
			bound, err := app.Store.PasskeyExists(ctx, name)
			if err != nil {
				return err
			}
			if bound {
				fmt.Printf("%s (passkey)\n", name)
			} else {
				fmt.Printf("%s (wallet)\n", name)
			}
		}
		return nil
	},
}
