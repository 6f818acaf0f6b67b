package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"listing-trust-eval/internal/ai"
	"listing-trust-eval/internal/listing"
	"listing-trust-eval/internal/scoring"
)

// evidence is the input document for offline scoring. YAML is a superset of JSON, so both parse.
type evidence struct {
	Listing   listing.Listing   `yaml:"listing"`
	Footprint listing.Footprint `yaml:"footprint"`
	Narrative string            `yaml:"narrative"`
	Verdict   *scoring.Verdict  `yaml:"verdict"`
}

var scoreFlags struct {
	file        string
	keywordMode bool
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a listing from an evidence file without calling any provider",
	RunE:  runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.StringVarP(&scoreFlags.file, "file", "f", "", "Evidence file, YAML or JSON (required)")
	f.BoolVar(&scoreFlags.keywordMode, "keyword-mode", false, "Classify the narrative by phrase matching")
	_ = scoreCmd.MarkFlagRequired("file")
}

func runScore(cmd *cobra.Command, _ []string) error {
	data, err := os.ReadFile(filepath.Clean(scoreFlags.file))
	if err != nil {
		return fmt.Errorf("read evidence: %w", err)
	}
	var ev evidence
	if err := yaml.Unmarshal(data, &ev); err != nil {
		return fmt.Errorf("parse evidence: %w", err)
	}

	var result scoring.TrustResult
	switch {
	case ev.Verdict != nil:
		result = scoring.ScoreVerdict(ev.Listing, ev.Footprint, *ev.Verdict)
	case scoreFlags.keywordMode:
		score, breakdown := scoring.Score(ev.Listing, ev.Footprint, ev.Narrative)
		result = scoring.TrustResult{Score: score, Breakdown: breakdown, Verdict: scoring.ClassifyNarrative(ev.Narrative)}
	default:
		result = scoring.ScoreVerdict(ev.Listing, ev.Footprint, ai.ParseVerdict(ev.Narrative))
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Score     int           `json:"score"`
		Breakdown []string      `json:"breakdown"`
		Verdict   scoring.Level `json:"verdict"`
	}{result.Score, result.Breakdown, result.Verdict})
}
