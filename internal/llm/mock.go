package llm

import (
	"context"
	"fmt"
)

// Mock returns deterministic responses per stage. Enabled with USE_MOCK_LLM=true
// for offline demos.
type Mock struct{}

func (Mock) Generate(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	switch req.Stage {
	case StageSummary:
		return mockSummary, nil
	case StageMetrics:
		return mockMetrics, nil
	case StageCoaching:
		return mockCoaching, nil
	}
	return "", fmt.Errorf("%w: mock has no fixture for stage %q", ErrRejected, req.Stage)
}

const mockSummary = `The rep opened a discovery call with the prospect to review their current CRM setup and reporting pain. ` +
	`The prospect explained that pipeline reviews take two days each month because data lives in spreadsheets. ` +
	`Budget was raised as a concern, with the prospect noting a ceiling of $20,000 for this fiscal year. ` +
	`The rep walked through the forecasting module and tied it to the reporting delay. ` +
	`Integration with the existing ERP was flagged as a requirement before any decision. ` +
	`The rep asked several qualifying questions but moved to pricing before confirming the decision process. ` +
	`The call ended positively, with the prospect agreeing to a technical demo. ` +
	`The rep committed to sending a pricing breakdown and booking the demo for next Tuesday.`

// fenced with a trailing comma, as models often return it
const mockMetrics = "```json\n" + `{
  "metrics": {
    "overall_sentiment": "positive",
    "sentiment_rationale": "Prospect said \"this would save us days every month\"",
    "rep_talk_ratio_percent": 58,
    "customer_talk_ratio_percent": 42,
    "questions_asked_by_rep": 9,
    "objections_detected": 2,
    "followups_committed": 2
  },
  "strengths": ["Tied the forecasting module to the stated reporting pain", "Secured a concrete next meeting"],
  "areas_to_improve": ["Confirm the decision process before discussing price"],
  "customer_objections": [
    {"objection": "price", "moment_quote": "We can't go above twenty thousand this year.", "rep_response_quality": "adequate", "suggested_response": "Break the cost down against the two days saved each month."},
    {"objection": "integration", "moment_quote": "It has to talk to our ERP.", "rep_response_quality": "good", "suggested_response": "Offer the ERP connector reference customer."},
  ],
  "notable_quotes": [
    {"speaker": "customer", "quote": "This would save us days every month.", "why_it_matters": "Quantified value the rep can anchor on."}
  ]
}` + "\n```"

const mockCoaching = `{
  "improvement_areas": [
    {"skill": "Qualification", "issue_observed": "Pricing came up before the buying process was mapped", "behavior_change": "Map decision makers and timeline before quoting"}
  ],
  "next_steps": [
    {"owner": "rep", "action": "Send pricing breakdown", "due_by": "Friday", "success_criteria": "Prospect confirms budget fit"},
    {"owner": "both", "action": "Technical demo with ERP team", "due_by": "Next Tuesday", "success_criteria": "Integration questions resolved"}
  ],
  "coaching_tips": [
    {"skill": "Objection Handling", "tip": "Reframe price against the time saved on monthly pipeline reviews."},
    {"skill": "Next-Step Control", "tip": "Confirm attendees and agenda for the demo before hanging up."}
  ]
}`
