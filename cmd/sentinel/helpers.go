package main

import (
	"fmt"
	"os"
	"path/filepath"

	"listing-trust-eval/internal/config"
	"listing-trust-eval/internal/demo"
	"listing-trust-eval/internal/investigate"
	"listing-trust-eval/internal/store"
)

func loadSettings() (config.Settings, error) {
	settings, err := config.FromEnv()
	if err != nil {
		return config.Settings{}, err
	}
	if rootFlags.dbPath != "" {
		settings.DBPath = rootFlags.dbPath
	}
	return settings, nil
}

func openStore(settings config.Settings) (*store.Database, error) {
	if dir := filepath.Dir(settings.DBPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}
	return store.Open(settings.DBPath, true)
}

func buildService(settings config.Settings, catalog *demo.Catalog, mode investigate.ScoreMode) (*investigate.Service, error) {
	service, _, err := investigate.Wire(investigate.WiringConfig{
		Catalog:   catalog,
		Maps:      settings.Maps,
		Serp:      settings.Serp,
		AI:        settings.AI,
		DisableAI: settings.DisableAI,
		Mode:      mode,
	})
	return service, err
}
