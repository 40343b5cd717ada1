package actionable

import (
	"fmt"

	"salessense-go/internal/types"
)

// TalkRatioThreshold is the rep share above which the call counts as a monologue.
const TalkRatioThreshold = 65

type ActionCard struct {
	Insight string `json:"insight"`
	Action  string `json:"action"`
	Impact  string `json:"impact"`
}

// Generate picks the single most pressing coaching insight for the rep.
func Generate(res types.FinalResult) ActionCard {
	m := res.Metrics
	if m.RepTalkRatioPercent > TalkRatioThreshold {
		return ActionCard{
			Insight: fmt.Sprintf("Rep dominated the conversation (%d%% talk time)", m.RepTalkRatioPercent),
			Action:  "Ask open discovery questions and pause after each answer; target under 60% talk time",
			Impact:  "More buyer signal and fewer missed objections",
		}
	}

	weak := 0
	var first types.Objection
	for _, o := range res.CustomerObjections {
		if o.ResponseQuality == types.QualityWeak {
			if weak == 0 {
				first = o
			}
			weak++
		}
	}
	if weak > 0 {
		action := "Rehearse a response framework for " + first.Category + " objections"
		if first.SuggestedResponse != "" {
			action = "Next time try: " + first.SuggestedResponse
		}
		return ActionCard{
			Insight: fmt.Sprintf("%d objection(s) handled weakly, starting with %s", weak, first.Category),
			Action:  action,
			Impact:  "Protect deal momentum when the buyer pushes back",
		}
	}

	if len(res.NextSteps) == 0 {
		return ActionCard{
			Insight: "Call ended without a committed next step",
			Action:  "Close every call with an owner, a date and a success criterion",
			Impact:  "Fewer stalled opportunities",
		}
	}

	if m.OverallSentiment == types.SentimentNegative {
		return ActionCard{
			Insight: "Buyer sentiment was negative",
			Action:  "Follow up within 24 hours to acknowledge concerns and restate value",
			Impact:  "Recover trust before the deal goes cold",
		}
	}

	return ActionCard{
		Insight: "No strong coaching gap detected",
		Action:  "Reinforce what worked and share the call as an example",
		Impact:  "Low immediate intervention",
	}
}
