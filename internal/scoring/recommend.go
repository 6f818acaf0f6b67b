package scoring

// Recommendation is the moderation action suggested for a scored listing.
type Recommendation string

const (
	RecommendNoAction    Recommendation = "NO_ACTION"
	RecommendVideoVerify Recommendation = "VIDEO_VERIFY"
	RecommendSuspend     Recommendation = "SUSPEND"
)

const (
	suspendBelow = 40
	verifyBelow  = 70
)

// Recommend maps a trust result onto an action. A High verdict or a score under 40 suspends;
// a Medium verdict or a score under 70 asks for video verification.
func Recommend(result TrustResult) Recommendation {
	switch {
	case result.Verdict == LevelHigh || result.Score < suspendBelow:
		return RecommendSuspend
	case result.Verdict == LevelMedium || result.Score < verifyBelow:
		return RecommendVideoVerify
	default:
		return RecommendNoAction
	}
}
