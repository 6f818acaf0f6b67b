package main

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"listing-trust-eval/internal/api"
	"listing-trust-eval/internal/config"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		logrus.Fatalf("load .env: %v", err)
	}
	settings, err := config.FromEnv()
	if err != nil {
		logrus.Fatalf("read configuration: %v", err)
	}
	if err := config.ConfigureLogging(settings.LogLevel, settings.LogFormat); err != nil {
		logrus.Fatalf("configure logging: %v", err)
	}

	if dir := filepath.Dir(settings.DBPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logrus.Fatalf("create data directory: %v", err)
		}
	}

	catalog, err := settings.Catalog()
	if err != nil {
		logrus.Fatalf("load scenarios: %v", err)
	}

	server, err := api.NewServer(api.Config{
		DBPath:         settings.DBPath,
		AllowedOrigins: settings.AllowedOrigins,
		Catalog:        catalog,
		MapsConfig:     settings.Maps,
		SerpConfig:     settings.Serp,
		AIConfig:       settings.AI,
		DisableAI:      settings.DisableAI,
		ScoreMode:      settings.ScoreMode,
	})
	if err != nil {
		logrus.Fatalf("create server: %v", err)
	}
	defer server.Close()

	router, err := server.Router()
	if err != nil {
		logrus.Fatalf("configure router: %v", err)
	}

	logrus.WithFields(logrus.Fields{
		"port":       settings.Port,
		"db":         settings.DBPath,
		"score_mode": settings.ScoreMode,
	}).Info("starting listing trust backend")
	if err := router.Run(":" + settings.Port); err != nil {
		logrus.Fatalf("server exited: %v", err)
	}
}
