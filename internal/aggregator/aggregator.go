package aggregator

import (
	"strings"

	"salessense-go/internal/types"
)

// Merge combines the three stage partials into one schema-complete result.
// Any partial may be empty; every field then takes its default.
func Merge(summary, metrics, coaching types.StagePartial) types.FinalResult {
	res := types.EmptyResult()
	res.Summary = types.ToString(summary[types.KeySummary])

	res.Strengths = stringList(metrics[types.KeyStrengths])
	res.CustomerObjections = objections(metrics[types.KeyObjections])
	res.NotableQuotes = quotes(metrics[types.KeyQuotes])
	res.NextSteps = nextSteps(coaching[types.KeyNextSteps])
	res.CoachingTips = tips(coaching[types.KeyCoachingTips])

	res.ImprovementAreas = improvementAreas(coaching[types.KeyImprovementAreas])
	if len(res.ImprovementAreas) == 0 {
		res.ImprovementAreas = stringList(metrics[types.KeyAreasToImprove])
	}

	m, _ := metrics[types.KeyMetrics].(map[string]any)
	res.Metrics = mergeMetrics(m, len(res.CustomerObjections), len(res.NextSteps))
	return res
}

func mergeMetrics(m map[string]any, objectionCount, nextStepCount int) types.Metrics {
	out := types.DefaultMetrics()
	if m == nil {
		out.ObjectionsDetected = objectionCount
		out.FollowupsCommitted = nextStepCount
		return out
	}

	out.OverallSentiment = types.NormalizeEnum(m[types.KeySentiment], types.SentimentNeutral,
		types.SentimentPositive, types.SentimentNeutral, types.SentimentNegative)
	if r := types.ToString(m[types.KeySentimentRationale]); r != "" {
		out.SentimentRationale = r
	}
	out.RepTalkRatioPercent, out.CustomerTalkRatioPercent =
		types.NormalizeTalkRatio(m[types.KeyRepTalkRatio], m[types.KeyCustomerTalkRatio])
	out.QuestionsAskedByRep = count(m[types.KeyQuestionsAsked], 0)
	out.ObjectionsDetected = count(m[types.KeyObjectionsDetected], objectionCount)
	out.FollowupsCommitted = count(m[types.KeyFollowupsCommitted], nextStepCount)
	return out
}

// count reads a non-negative integer, falling back to def when absent or unreadable.
func count(v any, def int) int {
	if v == nil {
		return def
	}
	n, ok := types.ToInt(v)
	if !ok {
		return def
	}
	return max(n, 0)
}

func stringList(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s := types.ToString(it); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// improvementAreas accepts plain strings or {skill, issue_observed,
// behavior_change} objects and renders each as one line.
func improvementAreas(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, it := range items {
		obj, ok := it.(map[string]any)
		if !ok {
			if s := types.ToString(it); s != "" {
				out = append(out, s)
			}
			continue
		}
		skill := types.ToString(obj["skill"])
		issue := strings.TrimSuffix(types.ToString(obj["issue_observed"]), ".")
		change := types.ToString(obj["behavior_change"])

		var b strings.Builder
		if skill != "" {
			b.WriteString(skill)
			if issue != "" || change != "" {
				b.WriteString(": ")
			}
		}
		if issue != "" {
			b.WriteString(issue)
			if change != "" {
				b.WriteString(". ")
			}
		}
		b.WriteString(change)
		if line := strings.TrimSpace(b.String()); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func objects(v any) []map[string]any {
	items, _ := v.([]any)
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		if obj, ok := it.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

func objections(v any) []types.Objection {
	objs := objects(v)
	out := make([]types.Objection, 0, len(objs))
	for _, o := range objs {
		out = append(out, types.Objection{
			Category: types.NormalizeEnum(o["objection"], types.ObjectionOther,
				types.ObjectionPrice, types.ObjectionTiming, types.ObjectionIntegration, types.ObjectionSecurity, types.ObjectionOther),
			Quote: types.ToString(o["moment_quote"]),
			ResponseQuality: types.NormalizeEnum(o["rep_response_quality"], types.QualityAdequate,
				types.QualityGood, types.QualityAdequate, types.QualityWeak),
			SuggestedResponse: types.ToString(o["suggested_response"]),
		})
	}
	return out
}

func quotes(v any) []types.Quote {
	objs := objects(v)
	out := make([]types.Quote, 0, len(objs))
	for _, o := range objs {
		text := types.ToString(o["quote"])
		if text == "" {
			continue
		}
		out = append(out, types.Quote{
			Speaker:      speaker(o["speaker"]),
			Quote:        text,
			WhyItMatters: types.ToString(o["why_it_matters"]),
		})
	}
	return out
}

func speaker(v any) string {
	switch strings.ToLower(types.ToString(v)) {
	case "rep", "agent", "seller", "sales":
		return types.SpeakerRep
	default:
		return types.SpeakerCustomer
	}
}

func nextSteps(v any) []types.NextStep {
	objs := objects(v)
	out := make([]types.NextStep, 0, len(objs))
	for _, o := range objs {
		action := types.ToString(o["action"])
		if action == "" {
			continue
		}
		out = append(out, types.NextStep{
			Owner:           types.NormalizeEnum(o["owner"], types.OwnerRep, types.OwnerRep, types.OwnerProspect, types.OwnerBoth),
			Action:          action,
			DueBy:           types.ToString(o["due_by"]),
			SuccessCriteria: types.ToString(o["success_criteria"]),
		})
	}
	return out
}

func tips(v any) []types.CoachingTip {
	items, _ := v.([]any)
	out := make([]types.CoachingTip, 0, len(items))
	for _, it := range items {
		switch t := it.(type) {
		case map[string]any:
			tip := types.ToString(t["tip"])
			if tip == "" {
				continue
			}
			out = append(out, types.CoachingTip{Skill: types.ToString(t["skill"]), Tip: tip})
		case string:
			if s := strings.TrimSpace(t); s != "" {
				out = append(out, types.CoachingTip{Tip: s})
			}
		}
	}
	return out
}
