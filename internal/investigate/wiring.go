package investigate

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"listing-trust-eval/internal/ai"
	"listing-trust-eval/internal/demo"
	"listing-trust-eval/internal/maps"
	"listing-trust-eval/internal/metrics"
	"listing-trust-eval/internal/scoring"
	"listing-trust-eval/internal/serp"
)

// WiringConfig is the provider configuration both binaries build a Service from.
type WiringConfig struct {
	Catalog   *demo.Catalog
	Maps      maps.Config
	Serp      serp.Config
	AI        ai.Config
	DisableAI bool
	Mode      ScoreMode
	Metrics   *metrics.Recorder
	Observer  Observer
}

// Providers are the concrete collaborators behind a wired Service.
type Providers struct {
	Maps          *maps.Client
	Serp          *serp.Client
	Auditor       ai.Auditor
	AuditorSource string
	Metrics       *metrics.Recorder
}

// Wire builds the places and search clients, the auditor chain and the Service on top of them.
// Without a Gemini key, or with DisableAI set, the heuristic auditor is used alone.
func Wire(cfg WiringConfig) (*Service, Providers, error) {
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = demo.Default()
	}
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.New()
	}

	mapsCfg := cfg.Maps
	mapsCfg.Catalog = catalog
	mapsCfg.Metrics = recorder
	mapsClient := maps.NewClient(mapsCfg)
	if !mapsClient.Live() {
		logrus.Debug("maps lookup in demo mode - no API key configured")
	}

	serpCfg := cfg.Serp
	serpCfg.Catalog = catalog
	serpCfg.Metrics = recorder
	serpClient := serp.NewClient(serpCfg)
	if !serpClient.Live() {
		logrus.Debug("footprint search in demo mode - no API key configured")
	}

	auditor, source, err := wireAuditor(cfg.AI, cfg.DisableAI, recorder)
	if err != nil {
		return nil, Providers{}, err
	}

	service, err := NewService(Config{
		Listings:   mapsClient,
		Footprints: serpClient,
		Auditor:    auditor,
		Policies:   catalog.Policies(),
		LeadGen:    scoring.NewLeadGenScorer(catalog.LeadGenTerms()),
		Mode:       cfg.Mode,
		Metrics:    recorder,
		Observer:   cfg.Observer,
	})
	if err != nil {
		return nil, Providers{}, fmt.Errorf("investigation service: %w", err)
	}

	return service, Providers{
		Maps:          mapsClient,
		Serp:          serpClient,
		Auditor:       auditor,
		AuditorSource: source,
		Metrics:       recorder,
	}, nil
}

func wireAuditor(cfg ai.Config, disabled bool, recorder *metrics.Recorder) (ai.Auditor, string, error) {
	fallback := ai.NewFallbackAuditor()
	if disabled {
		logrus.Debug("policy auditor disabled via configuration")
		return fallback, ai.SourceFallback, nil
	}

	cfg.Metrics = recorder
	client, err := ai.NewClient(cfg)
	switch {
	case err == nil:
		logrus.WithField("model", cfg.Model).Debug("policy auditor enabled")
		return ai.WithFallback(client, fallback), ai.SourceGemini, nil
	case errors.Is(err, ai.ErrDisabled):
		logrus.Debug("policy auditor using heuristic fallback - no API key configured")
		return fallback, ai.SourceFallback, nil
	default:
		return nil, "", fmt.Errorf("ai client: %w", err)
	}
}
