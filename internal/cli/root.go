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

// Package cli implements the shinobi command line interface.
package cli

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	storageDir string
	debug      bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "shinobi",
	Short: "shinobi CLI - Privacy-preserving wallet authentication",
	Long: `shinobi CLI manages wallet accounts protected by platform
credentials (passkeys) or blockchain wallet signatures.

Account data is encrypted at rest with a key that only a passkey
assertion or a wallet signature can re-derive; no password ever
exists to steal.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file (default is $HOME/.shinobi/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&storageDir, "storage-dir", "",
		"data directory for encrypted account storage")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false,
		"debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(accountsCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(logoutCmd)
}
