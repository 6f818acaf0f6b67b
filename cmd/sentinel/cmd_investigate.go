package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"listing-trust-eval/internal/investigate"
	"listing-trust-eval/internal/store"
)

var investigateFlags struct {
	jsonOut     bool
	keywordMode bool
	noSave      bool
}

var investigateCmd = &cobra.Command{
	Use:   "investigate <query>",
	Short: "Investigate a business listing and print its trust score",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runInvestigate,
}

func init() {
	f := investigateCmd.Flags()
	f.BoolVar(&investigateFlags.jsonOut, "json", false, "Print the full report as JSON")
	f.BoolVar(&investigateFlags.keywordMode, "keyword-mode", false, "Score by phrase matching over the audit narrative")
	f.BoolVar(&investigateFlags.noSave, "no-save", false, "Do not record the investigation in history")
}

func runInvestigate(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	catalog, err := settings.Catalog()
	if err != nil {
		return err
	}
	mode := settings.ScoreMode
	if investigateFlags.keywordMode {
		mode = investigate.ModeKeyword
	}
	svc, err := buildService(settings, catalog, mode)
	if err != nil {
		return err
	}

	report, err := svc.Run(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return err
	}

	if !investigateFlags.noSave {
		db, err := openStore(settings)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.SaveInvestigation(store.NewInvestigation(report)); err != nil {
			return fmt.Errorf("save investigation: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	if investigateFlags.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	for _, line := range investigate.Lines(report.Logs) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Business:   %s\n", report.Listing.Name)
	fmt.Fprintf(out, "Address:    %s\n", report.Listing.Address)
	fmt.Fprintf(out, "Verdict:    %s\n", report.Verdict.Level)
	if report.Verdict.Action != "" {
		fmt.Fprintf(out, "Action:     %s\n", report.Verdict.Action)
	}
	fmt.Fprintf(out, "Trust:      %d/100\n", report.Score)
	fmt.Fprintf(out, "Recommend:  %s\n", report.Recommendation)
	for _, line := range report.Breakdown {
		fmt.Fprintf(out, "  %s\n", line)
	}
	fmt.Fprintf(out, "ID:         %s\n", report.ID)
	return nil
}
