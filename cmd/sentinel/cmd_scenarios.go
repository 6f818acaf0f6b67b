package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List the demo scenarios served when provider keys are missing",
	RunE:  runScenarios,
}

func runScenarios(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	catalog, err := settings.Catalog()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, name := range catalog.Names() {
		sc, _ := catalog.Scenario(name)
		fmt.Fprintf(out, "%-22s %-28s keywords: %s\n", sc.Name, sc.Listing.Name, strings.Join(sc.Keywords, ", "))
	}
	return nil
}
