// internal/types/kpi_models.go
package types

import "strings"

// --------------------------------------------
// FINAL output delivered to frontend
// --------------------------------------------
type FinalResult struct {
	Summary            string        `json:"summary"`
	Metrics            Metrics       `json:"metrics"`
	Strengths          []string      `json:"strengths"`
	ImprovementAreas   []string      `json:"improvement_areas"`
	CustomerObjections []Objection   `json:"customer_objections"`
	NextSteps          []NextStep    `json:"next_steps"`
	CoachingTips       []CoachingTip `json:"coaching_tips"`
	NotableQuotes      []Quote       `json:"notable_quotes"`
	ProcessingTime     float64       `json:"processing_time"` // seconds
	Cached             bool          `json:"cached"`
}

// --------------------------------------------
// Metrics block
// --------------------------------------------
type Metrics struct {
	OverallSentiment         string `json:"overall_sentiment"`
	SentimentRationale       string `json:"sentiment_rationale"`
	RepTalkRatioPercent      int    `json:"rep_talk_ratio_percent"`      // 0–100
	CustomerTalkRatioPercent int    `json:"customer_talk_ratio_percent"` // 0–100
	QuestionsAskedByRep      int    `json:"questions_asked_by_rep"`
	ObjectionsDetected       int    `json:"objections_detected"`
	FollowupsCommitted       int    `json:"followups_committed"`
}

// --------------------------------------------
// Objection raised by the customer
// --------------------------------------------
type Objection struct {
	Category          string `json:"objection"`
	Quote             string `json:"moment_quote"`
	ResponseQuality   string `json:"rep_response_quality"`
	SuggestedResponse string `json:"suggested_response"`
}

// --------------------------------------------
// Committed follow-up
// --------------------------------------------
type NextStep struct {
	Owner           string `json:"owner"`
	Action          string `json:"action"`
	DueBy           string `json:"due_by"`
	SuccessCriteria string `json:"success_criteria"`
}

type CoachingTip struct {
	Skill string `json:"skill"`
	Tip   string `json:"tip"`
}

type Quote struct {
	Speaker      string `json:"speaker"`
	Quote        string `json:"quote"`
	WhyItMatters string `json:"why_it_matters"`
}

// DefaultMetrics is used when the metrics stage produced nothing usable.
func DefaultMetrics() Metrics {
	return Metrics{
		OverallSentiment:         SentimentNeutral,
		SentimentRationale:       "No explicit sentiment detected",
		RepTalkRatioPercent:      50,
		CustomerTalkRatioPercent: 50,
	}
}

// EmptyResult returns a schema-complete result with every list non-nil.
func EmptyResult() FinalResult {
	return FinalResult{
		Metrics:            DefaultMetrics(),
		Strengths:          []string{},
		ImprovementAreas:   []string{},
		CustomerObjections: []Objection{},
		NextSteps:          []NextStep{},
		CoachingTips:       []CoachingTip{},
		NotableQuotes:      []Quote{},
	}
}

// AnalysisErrorPrefix marks the summary of a result produced after the
// orchestration itself failed.
const AnalysisErrorPrefix = "Error in analysis: "

// IsFallback reports whether r came from a failed orchestration.
func (r FinalResult) IsFallback() bool {
	return strings.HasPrefix(r.Summary, AnalysisErrorPrefix)
}

// FallbackResult is returned when analysis could not run at all.
// summary carries the error marker shown to the user.
func FallbackResult(summary string) FinalResult {
	res := EmptyResult()
	res.Summary = summary
	res.Metrics.SentimentRationale = ""
	return res
}

// Clone returns a deep copy so callers never share slices with the cache.
func (r FinalResult) Clone() FinalResult {
	out := r
	out.Strengths = append(make([]string, 0, len(r.Strengths)), r.Strengths...)
	out.ImprovementAreas = append(make([]string, 0, len(r.ImprovementAreas)), r.ImprovementAreas...)
	out.CustomerObjections = append(make([]Objection, 0, len(r.CustomerObjections)), r.CustomerObjections...)
	out.NextSteps = append(make([]NextStep, 0, len(r.NextSteps)), r.NextSteps...)
	out.CoachingTips = append(make([]CoachingTip, 0, len(r.CoachingTips)), r.CoachingTips...)
	out.NotableQuotes = append(make([]Quote, 0, len(r.NotableQuotes)), r.NotableQuotes...)
	return out
}
