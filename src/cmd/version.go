// backend/src/cmd/version.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Set at build time via -ldflags "-X .../src/cmd.version=... -X .../src/cmd.commit=...".
var (
	version = "dev"
	commit  = "none"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the ledgerlink version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ledgerlink %s (commit %s)\n", version, commit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
