package scoring

import (
	"sort"

	"listing-trust-eval/internal/listing"
)

// BurstWindow is the span, in seconds, the three most recent reviews must fall within to count
// as a burst.
const BurstWindow int64 = 86400

// burstSample is how many of the most recent reviews the window check looks at.
const burstSample = 3

// BurstStatus classifies the outcome of the review velocity check.
type BurstStatus string

const (
	BurstInsufficient BurstStatus = "insufficient"
	BurstInvalid      BurstStatus = "invalid"
	BurstClear        BurstStatus = "clear"
	BurstDetected     BurstStatus = "detected"
)

// BurstResult captures review velocity detection output.
type BurstResult struct {
	Status  BurstStatus `json:"status"`
	Gap     int64       `json:"gap_seconds"`
	Samples int         `json:"samples"`
}

// Flagged reports whether the reviews should be penalised as a velocity spike.
func (r BurstResult) Flagged() bool {
	return r.Status == BurstDetected
}

// DetectBurst checks whether the three most recent reviews were posted within BurstWindow.
//
// Reviews without a time count as 0, so several untimed reviews read as a burst. Only the first
// and third most recent timestamps are compared; older reviews never change the outcome.
func DetectBurst(reviews []listing.Review) BurstResult {
	result := BurstResult{Samples: len(reviews)}
	if len(reviews) < burstSample {
		result.Status = BurstInsufficient
		return result
	}

	timestamps := make([]int64, 0, len(reviews))
	for _, review := range reviews {
		if review.Time.Malformed() {
			result.Status = BurstInvalid
			return result
		}
		timestamps = append(timestamps, review.Time.Unix)
	}
	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i] > timestamps[j] })

	result.Gap = timestamps[0] - timestamps[burstSample-1]
	if result.Gap < BurstWindow {
		result.Status = BurstDetected
	} else {
		result.Status = BurstClear
	}
	return result
}
