package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"listing-trust-eval/internal/ai"
	"listing-trust-eval/internal/demo"
	"listing-trust-eval/internal/investigate"
	"listing-trust-eval/internal/maps"
	"listing-trust-eval/internal/serp"
)

// Settings is the process configuration read from the environment.
type Settings struct {
	Port           string
	DBPath         string
	ScenariosPath  string
	AllowedOrigins []string
	DisableAI      bool
	ScoreMode      investigate.ScoreMode
	LogLevel       string
	LogFormat      string
	Maps           maps.Config
	Serp           serp.Config
	AI             ai.Config
}

// Getenv looks up one variable. os.Getenv satisfies it.
type Getenv func(string) string

// LoadDotEnv loads the given .env files (default ".env") without overriding variables that are
// already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}

// FromEnv reads Settings from the process environment.
func FromEnv() (Settings, error) {
	return Parse(os.Getenv)
}

// Parse reads Settings through getenv. Malformed numbers and durations are errors.
func Parse(getenv Getenv) (Settings, error) {
	s := Settings{
		Port:          firstNonEmpty(getenv("PORT"), "2000"),
		DBPath:        firstNonEmpty(getenv("SENTINEL_DB_PATH"), "data/sentinel.db"),
		ScenariosPath: strings.TrimSpace(getenv("SCENARIOS_PATH")),
		DisableAI:     strings.EqualFold(strings.TrimSpace(getenv("DISABLE_AI")), "true"),
		LogLevel:      firstNonEmpty(getenv("LOG_LEVEL"), "info"),
		LogFormat:     strings.ToLower(strings.TrimSpace(getenv("LOG_FORMAT"))),
	}
	for _, origin := range strings.Split(getenv("ALLOWED_ORIGINS"), ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			s.AllowedOrigins = append(s.AllowedOrigins, trimmed)
		}
	}

	mode, err := investigate.ParseScoreMode(getenv("SCORE_MODE"))
	if err != nil {
		return Settings{}, err
	}
	s.ScoreMode = mode

	timeout, err := parseDuration(getenv, "PROVIDER_TIMEOUT")
	if err != nil {
		return Settings{}, err
	}
	cacheTTL, err := parseDuration(getenv, "MAPS_CACHE_TTL")
	if err != nil {
		return Settings{}, err
	}
	rps := 0.0
	if v := strings.TrimSpace(getenv("PROVIDER_RPS")); v != "" {
		if rps, err = strconv.ParseFloat(v, 64); err != nil {
			return Settings{}, fmt.Errorf("PROVIDER_RPS: %w", err)
		}
	}

	s.Maps = maps.Config{
		APIKey:   strings.TrimSpace(getenv("GOOGLE_MAPS_API_KEY")),
		BaseURL:  strings.TrimSpace(getenv("MAPS_BASE_URL")),
		Timeout:  timeout,
		CacheTTL: cacheTTL,
		RPS:      rps,
	}
	s.Serp = serp.Config{
		APIKey:  strings.TrimSpace(getenv("SERPAPI_KEY")),
		BaseURL: strings.TrimSpace(getenv("SERPAPI_BASE_URL")),
		Timeout: timeout,
		RPS:     rps,
	}
	s.AI = ai.Config{
		APIKey:  strings.TrimSpace(getenv("GEMINI_API_KEY")),
		Model:   strings.TrimSpace(getenv("GEMINI_MODEL")),
		BaseURL: strings.TrimSpace(getenv("GEMINI_BASE_URL")),
		Timeout: timeout,
		RPS:     rps,
	}
	if temp := strings.TrimSpace(getenv("GEMINI_TEMPERATURE")); temp != "" {
		if v, err := strconv.ParseFloat(temp, 64); err == nil {
			s.AI.Temperature = v
		}
	}
	if maxTokens := strings.TrimSpace(getenv("GEMINI_MAX_TOKENS")); maxTokens != "" {
		if v, err := strconv.Atoi(maxTokens); err == nil {
			s.AI.MaxTokens = v
		}
	}
	return s, nil
}

// Catalog loads the scenario override file, or the embedded catalog when none is set.
func (s Settings) Catalog() (*demo.Catalog, error) {
	if s.ScenariosPath == "" {
		return demo.Default(), nil
	}
	return demo.Load(s.ScenariosPath)
}

// ConfigureLogging applies the level and format to the standard logrus logger.
func ConfigureLogging(level, format string) error {
	parsed, err := logrus.ParseLevel(firstNonEmpty(level, "info"))
	if err != nil {
		return err
	}
	logrus.SetLevel(parsed)
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}

func parseDuration(getenv Getenv, key string) (time.Duration, error) {
	value := strings.TrimSpace(getenv(key))
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
