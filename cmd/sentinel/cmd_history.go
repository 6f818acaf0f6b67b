package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"listing-trust-eval/internal/store"
)

var historyFlags struct {
	limit   int
	verdict string
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent investigations",
	RunE:  runHistory,
}

func init() {
	f := historyCmd.Flags()
	f.IntVar(&historyFlags.limit, "limit", 20, "Maximum rows to show")
	f.StringVar(&historyFlags.verdict, "verdict", "", "Only show this verdict level (low, medium, high)")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	db, err := openStore(settings)
	if err != nil {
		return err
	}
	defer db.Close()

	rows, total, err := db.ListInvestigations(store.InvestigationQuery{Verdict: historyFlags.verdict, Limit: historyFlags.limit})
	if err != nil {
		return fmt.Errorf("list investigations: %w", err)
	}
	out := cmd.OutOrStdout()
	if total == 0 {
		fmt.Fprintln(out, "No investigations recorded.")
		return nil
	}
	for _, row := range rows {
		fmt.Fprintf(out, "%s  %3d  %-7s %s\n", row.CreatedAt.Format("2006-01-02 15:04"), row.Score, row.VerdictLevel, row.Name)
	}
	fmt.Fprintf(out, "(%d of %d)\n", len(rows), total)
	return nil
}
