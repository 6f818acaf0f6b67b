package scoring

import "listing-trust-eval/internal/listing"

// Deduction messages appended to the breakdown, in evaluation order.
const (
	MsgNoWebsite     = "-10: No Website listed"
	MsgNoPhone       = "-20: No Phone Number"
	MsgWeakFootprint = "-15: Weak Digital Footprint (< 2 external sources)"
	MsgReviewBurst   = "-30: Review Velocity Spike (Potential Bot Farm)"
	MsgAuditHigh     = "-50: Policy Auditor detected High Risk/Violation"
	MsgAuditMedium   = "-25: Policy Auditor detected Medium Risk"
)

const (
	maxTrustScore     = 100
	minFootprintCount = 2
)

// Rule identifies a heuristic that contributed a deduction.
type Rule string

const (
	RuleNoWebsite     Rule = "no_website"
	RuleNoPhone       Rule = "no_phone"
	RuleWeakFootprint Rule = "weak_footprint"
	RuleReviewBurst   Rule = "review_burst"
	RuleAuditHigh     Rule = "audit_high"
	RuleAuditMedium   Rule = "audit_medium"
)

// Deduction is one applied penalty.
type Deduction struct {
	Rule    Rule   `json:"rule"`
	Points  int    `json:"points"`
	Message string `json:"message"`
}

// TrustResult is the trust engine output for one listing.
type TrustResult struct {
	Score      int         `json:"score"`
	Breakdown  []string    `json:"breakdown"`
	Deductions []Deduction `json:"deductions"`
	Burst      BurstResult `json:"burst"`
	Verdict    Level       `json:"verdict"`
}

// ScoreVerdict computes the 0-100 trust score from the listing, its footprint and a structured
// audit verdict. Deductions accumulate unclamped and the total is clamped once at the end.
func ScoreVerdict(l listing.Listing, footprint listing.Footprint, verdict Verdict) TrustResult {
	result := TrustResult{
		Breakdown:  []string{},
		Deductions: []Deduction{},
		Verdict:    verdict.Level,
	}
	score := maxTrustScore
	deduct := func(rule Rule, points int, message string) {
		score -= points
		result.Breakdown = append(result.Breakdown, message)
		result.Deductions = append(result.Deductions, Deduction{Rule: rule, Points: points, Message: message})
	}

	if !l.HasWebsite() {
		deduct(RuleNoWebsite, 10, MsgNoWebsite)
	}
	if !l.HasPhone() {
		deduct(RuleNoPhone, 20, MsgNoPhone)
	}
	if len(footprint) < minFootprintCount {
		deduct(RuleWeakFootprint, 15, MsgWeakFootprint)
	}

	result.Burst = DetectBurst(l.Reviews)
	if result.Burst.Flagged() {
		deduct(RuleReviewBurst, 30, MsgReviewBurst)
	}

	switch verdict.Level {
	case LevelHigh:
		deduct(RuleAuditHigh, 50, MsgAuditHigh)
	case LevelMedium:
		deduct(RuleAuditMedium, 25, MsgAuditMedium)
	}

	result.Score = clampInt(score, 0, maxTrustScore)
	return result
}

// Score is the keyword-compatibility entry point: the audit narrative is classified by phrase
// matching and the result scored as a structured verdict.
func Score(l listing.Listing, footprint listing.Footprint, narrative string) (int, []string) {
	result := ScoreVerdict(l, footprint, Verdict{Level: ClassifyNarrative(narrative)})
	return result.Score, result.Breakdown
}

func clampInt(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
