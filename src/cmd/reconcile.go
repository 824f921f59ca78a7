// backend/src/cmd/reconcile.go
package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/username/ledgerlink/backend/src/matching"
	"github.com/username/ledgerlink/backend/src/models"
	"github.com/username/ledgerlink/backend/src/parsers"
	"github.com/username/ledgerlink/backend/src/reports"
)

var (
	reconcileDateFormat1 string
	reconcileDateFormat2 string
	reconcileHistorical  string
	reconcileProfile     string
	reconcileOutput      string
	reconcileCSV         bool
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile <ledger-file> <counterparty-file>",
	Short: "Run a one-off reconciliation over two local ledger files",
	Long: `Parses two local ledger exports (CSV or XLSX), matches their invoice
records and writes the result document to stdout or a file. No database or
server is involved.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReconcile(args[0], args[1])
	},
}

func init() {
	reconcileCmd.Flags().StringVar(&reconcileDateFormat1, "format1", matching.DefaultDateFormat, "date format of the first file (e.g. DD/MM/YYYY)")
	reconcileCmd.Flags().StringVar(&reconcileDateFormat2, "format2", matching.DefaultDateFormat, "date format of the second file")
	reconcileCmd.Flags().StringVar(&reconcileHistorical, "historical", "", "optional file of settled invoices used for insights")
	reconcileCmd.Flags().StringVar(&reconcileProfile, "profile", "", "optional matching profile YAML (defaults to built-in profile)")
	reconcileCmd.Flags().StringVarP(&reconcileOutput, "output", "o", "", "write the result to this file instead of stdout")
	reconcileCmd.Flags().BoolVar(&reconcileCSV, "csv", false, "emit the mismatch report as CSV instead of the JSON result document")
	rootCmd.AddCommand(reconcileCmd)
}

func parseLocalFile(path string) ([]models.RawRecord, error) {
	parser, err := parsers.GetParserForFilename(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return parser.Parse(f)
}

func runReconcile(ledgerPath, counterpartyPath string) error {
	profile := matching.DefaultProfile()
	if reconcileProfile != "" {
		var err error
		profile, err = matching.LoadProfile(reconcileProfile)
		if err != nil {
			return fmt.Errorf("failed to load matching profile: %w", err)
		}
	}
	engine := matching.NewEngine(profile)

	data1, err := parseLocalFile(ledgerPath)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", ledgerPath, err)
	}
	data2, err := parseLocalFile(counterpartyPath)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", counterpartyPath, err)
	}

	var historical []models.RawRecord
	if reconcileHistorical != "" {
		historical, err = parseLocalFile(reconcileHistorical)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", reconcileHistorical, err)
		}
	}

	result, err := engine.MatchRecords(data1, data2, reconcileDateFormat1, reconcileDateFormat2, historical)
	if err != nil {
		return err
	}

	out := os.Stdout
	if reconcileOutput != "" {
		out, err = os.Create(reconcileOutput)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", reconcileOutput, err)
		}
		defer out.Close()
	}

	if reconcileCSV {
		if err := reports.WriteCSV(out, result); err != nil {
			return err
		}
	} else {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	}

	summary := reports.BuildSummary(result)
	fmt.Fprintf(os.Stderr, "matched %d, mismatched %d, unmatched %d/%d, match rate %.1f%%\n",
		summary.PerfectMatchCount, summary.MismatchCount,
		summary.UnmatchedCompany1, summary.UnmatchedCompany2, summary.MatchRate)
	return nil
}
