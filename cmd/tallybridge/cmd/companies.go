package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tallybridge/internal/gateway"
	"tallybridge/internal/reports"
)

// companiesCmd lists the accounting books found in the engine's data
// directory without needing the engine to be running
var companiesCmd = &cobra.Command{
	Use:   "companies",
	Short: "List the company books in the engine's data directory",
	Long: `Companies scans the engine's data directory on disk and lists every
accounting book found there, with its size, file count and engine version.
Display names are only known for books the engine has loaded at least once;
a local cache fills in what has been discovered so far.

This works while the engine is offline.

Examples:
  tallybridge companies --data-dir /opt/tally/data`,

	RunE: runCompanies,
}

func init() {
	rootCmd.AddCommand(companiesCmd)
}

func runCompanies(cmd *cobra.Command, args []string) error {
	handler := NewCLIErrorHandler()

	dataDir := viper.GetString("data-dir")
	if dataDir == "" {
		return fmt.Errorf("data-dir is required (flag --data-dir or TALLYBRIDGE_DATA_DIR)")
	}

	companies, err := reports.ListCompanies(dataDir, gateway.NewCompanyNameCache(dataDir))
	if err != nil {
		os.Exit(handler.HandleError(err))
	}

	if len(companies) == 0 {
		fmt.Println("No company books found.")
		return nil
	}

	for _, c := range companies {
		fmt.Printf("%-20s %-30s %-12s %8.1f MB %6d files\n",
			c.ID, c.Label(), c.TallyVersion, c.SizeMB, c.FileCount)
	}
	return nil
}
