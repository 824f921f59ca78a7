// backend/src/cmd/root.go

// Package cmd wires the ledgerlink CLI: `serve` runs the HTTP API,
// `reconcile` runs an offline matching pass over two local files, and
// `version` prints build information.
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/username/ledgerlink/backend/src/config"
	"github.com/username/ledgerlink/backend/src/logger"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "ledgerlink",
	Short: "LedgerLink invoice reconciliation backend",
	Long: `LedgerLink reconciles two parties' invoice ledgers: it matches invoice
pairs across heterogeneous exports, flags mismatches and reports totals and
variance. Run 'serve' for the API server or 'reconcile' for a one-off local run.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			config.LoadConfig(cfgFile)
		} else {
			config.LoadConfig()
		}
		if verbose {
			config.Cfg.LogLevel = "debug"
		}
		logger.InitLogger(config.Cfg.LogLevel)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to an env file (defaults to .env in the working directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the CLI. Errors are already reported by cobra; the exit code
// is all that is left to set.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
