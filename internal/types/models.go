package types

// AnalysisRequest is one uploaded call: the raw recording plus the
// human-written context (participants, details, call types).
type AnalysisRequest struct {
	Audio   []byte `json:"-"`
	Context string `json:"context"`
}

// StagePartial is the normalized output of one analysis stage.
// A completed stage always yields a non-nil map, empty on failure.
type StagePartial map[string]any

// Enumerated values used on the wire.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"

	ObjectionPrice       = "price"
	ObjectionTiming      = "timing"
	ObjectionIntegration = "integration"
	ObjectionSecurity    = "security"
	ObjectionOther       = "other"

	QualityGood     = "good"
	QualityAdequate = "adequate"
	QualityWeak     = "weak"

	OwnerRep      = "rep"
	OwnerProspect = "prospect"
	OwnerBoth     = "both"

	SpeakerRep      = "rep"
	SpeakerCustomer = "customer"
)

// StagePartial keys.
const (
	KeySummary          = "summary"
	KeyMetrics          = "metrics"
	KeyStrengths        = "strengths"
	KeyAreasToImprove   = "areas_to_improve"
	KeyObjections       = "customer_objections"
	KeyQuotes           = "notable_quotes"
	KeyImprovementAreas = "improvement_areas"
	KeyNextSteps        = "next_steps"
	KeyCoachingTips     = "coaching_tips"
)

// Metrics keys inside the "metrics" object.
const (
	KeySentiment          = "overall_sentiment"
	KeySentimentRationale = "sentiment_rationale"
	KeyRepTalkRatio       = "rep_talk_ratio_percent"
	KeyCustomerTalkRatio  = "customer_talk_ratio_percent"
	KeyQuestionsAsked     = "questions_asked_by_rep"
	KeyObjectionsDetected = "objections_detected"
	KeyFollowupsCommitted = "followups_committed"
)
