package extractor

import (
	"context"
	"fmt"
	"strings"

	"salessense-go/internal/llm"
	"salessense-go/internal/types"
)

// Summarizer produces the plain-text call summary.
type Summarizer struct {
	Gen      llm.Generator
	Settings Settings
}

func (s *Summarizer) Name() string { return "Summary Agent" }

func (s *Summarizer) Run(ctx context.Context, in Inputs) (types.StagePartial, error) {
	prompt := BuildSummaryPrompt(in.Context, types.CapRunes(in.Transcript, SummaryTranscriptBudget))
	text, err := generate(ctx, s.Gen, s.Settings, llm.StageSummary, prompt)
	if err != nil {
		return nil, fmt.Errorf("summary generation: %w", err)
	}
	return types.StagePartial{types.KeySummary: strings.TrimSpace(text)}, nil
}

// MetricsExtractor produces metrics, strengths, objections and quotes.
type MetricsExtractor struct {
	Gen      llm.Generator
	Settings Settings
	// RepairRetry allows one extra call asking the model to fix unparseable JSON.
	RepairRetry bool
}

func (m *MetricsExtractor) Name() string { return "Analysis Agent" }

func (m *MetricsExtractor) Run(ctx context.Context, in Inputs) (types.StagePartial, error) {
	log := in.logger()
	prompt := BuildMetricsPrompt(in.Context, types.CapRunes(in.Transcript, MetricsTranscriptBudget))
	text, err := generate(ctx, m.Gen, m.Settings, llm.StageMetrics, prompt)
	if err != nil {
		return nil, fmt.Errorf("metrics generation: %w", err)
	}

	data := RepairObject(text, log)
	if len(data) == 0 && strings.TrimSpace(text) != "" && m.RepairRetry {
		log.Info("retrying with JSON repair prompt")
		fixed, err := generate(ctx, m.Gen, m.Settings, llm.StageMetrics, BuildJSONRepairPrompt(text))
		if err != nil {
			log.WithField("error", err.Error()).Warn("JSON repair prompt failed")
		} else {
			data = RepairObject(fixed, log)
		}
	}
	return NormalizeMetricsPartial(data), nil
}

// NormalizeMetricsPartial fills every expected key of the metrics stage and
// enforces the talk-ratio invariant. objections_detected and
// followups_committed stay absent when the model omitted them so the merge
// can derive them from list lengths.
func NormalizeMetricsPartial(data map[string]any) types.StagePartial {
	out := types.StagePartial(data)
	if out == nil {
		out = types.StagePartial{}
	}

	metrics, ok := out[types.KeyMetrics].(map[string]any)
	if !ok {
		metrics = map[string]any{}
	}
	def := types.DefaultMetrics()
	setDefault(metrics, types.KeySentiment, def.OverallSentiment)
	setDefault(metrics, types.KeySentimentRationale, def.SentimentRationale)
	setDefault(metrics, types.KeyQuestionsAsked, 0)
	rep, cust := types.NormalizeTalkRatio(metrics[types.KeyRepTalkRatio], metrics[types.KeyCustomerTalkRatio])
	metrics[types.KeyRepTalkRatio] = rep
	metrics[types.KeyCustomerTalkRatio] = cust
	out[types.KeyMetrics] = metrics

	for _, k := range []string{types.KeyStrengths, types.KeyAreasToImprove, types.KeyObjections, types.KeyQuotes} {
		ensureList(out, k)
	}
	return out
}

// Coach produces improvement areas, next steps and coaching tips from the summary.
type Coach struct {
	Gen      llm.Generator
	Settings Settings
}

func (c *Coach) Name() string { return "Coaching Agent" }

func (c *Coach) Run(ctx context.Context, in Inputs) (types.StagePartial, error) {
	text, err := generate(ctx, c.Gen, c.Settings, llm.StageCoaching, BuildCoachingPrompt(in.Context, in.Summary))
	if err != nil {
		return nil, fmt.Errorf("coaching generation: %w", err)
	}
	out := types.StagePartial(RepairObject(text, in.logger()))
	for _, k := range []string{types.KeyImprovementAreas, types.KeyNextSteps, types.KeyCoachingTips} {
		ensureList(out, k)
	}
	return out, nil
}

func setDefault(m map[string]any, key string, v any) {
	if cur, ok := m[key]; !ok || cur == nil {
		m[key] = v
	}
}

func ensureList(m types.StagePartial, key string) {
	if _, ok := m[key].([]any); !ok {
		m[key] = []any{}
	}
}
