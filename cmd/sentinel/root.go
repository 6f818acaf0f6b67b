// sentinel runs listing trust investigations from the command line.
//
// Usage:
//
//	sentinel investigate <query> [--json] [--keyword-mode] [--no-save]
//	sentinel history [--limit=<n>] [--verdict=<level>]
//	sentinel score --file=<evidence.yaml|json> [--keyword-mode]
//	sentinel scenarios
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"listing-trust-eval/internal/config"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	dbPath  string
	envFile string
}

var rootCmd = &cobra.Command{
	Use:   "sentinel",
	Short: "Trust scoring for local business listings",
	Long:  "Sentinel investigates a business listing, audits it against the content policy\nand reports a 0-100 trust score with the deductions that produced it.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if rootFlags.envFile != "" {
			if err := config.LoadDotEnv(rootFlags.envFile); err != nil {
				return err
			}
		} else if err := config.LoadDotEnv(); err != nil {
			return err
		}
		settings, err := config.FromEnv()
		if err != nil {
			return err
		}
		return config.ConfigureLogging(settings.LogLevel, settings.LogFormat)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.dbPath, "db", "", "SQLite history path (default $SENTINEL_DB_PATH or data/sentinel.db)")
	pf.StringVar(&rootFlags.envFile, "env-file", "", "Load environment from this file instead of .env")

	rootCmd.AddCommand(investigateCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(scenariosCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
