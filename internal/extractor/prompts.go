package extractor

import "fmt"

// BuildSummaryPrompt builds the executive summary prompt (plain-text answer).
func BuildSummaryPrompt(context, transcript string) string {
	prompt := `Role: You are a sales call analyst writing summaries for sales leadership.

Task: Summarize the call below in one factual paragraph.

CALL CONTEXT:
%s

TRANSCRIPT:
%s

GUIDELINES:
1. Write 8-10 sentences in a single paragraph. No bullets, no headings.
2. Cover why the call happened, the customer's pains and buying criteria, how the rep performed,
   the outcome, and any explicit next steps.
3. Quote concrete figures (amounts, dates, headcounts) exactly as they appear in the transcript.
4. Stay neutral and use only facts present in the transcript.
`
	return fmt.Sprintf(prompt, context, transcript)
}

// BuildMetricsPrompt builds the metrics/strengths/objections prompt (JSON answer).
func BuildMetricsPrompt(context, transcript string) string {
	prompt := `Role: You are a sales call analyst who quantifies rep behaviour and call outcomes.

Task: Return ONE valid JSON object matching the schema below. No commentary, no markdown.

CALL CONTEXT:
%s

TRANSCRIPT:
%s

----------------------------------------------------------------------
SCHEMA (STRICT - RETURN ONLY JSON)
{
  "metrics": {
    "overall_sentiment": "positive|neutral|negative",
    "sentiment_rationale": "evidence, quoting the transcript",
    "rep_talk_ratio_percent": 0,
    "customer_talk_ratio_percent": 0,
    "questions_asked_by_rep": 0,
    "objections_detected": 0,
    "followups_committed": 0
  },
  "strengths": ["what the rep did well"],
  "areas_to_improve": ["what the rep should do differently"],
  "customer_objections": [
    {
      "objection": "price|timing|integration|security|other",
      "moment_quote": "verbatim customer line",
      "rep_response_quality": "good|adequate|weak",
      "suggested_response": "a better response for this context"
    }
  ],
  "notable_quotes": [
    {
      "speaker": "rep|customer",
      "quote": "verbatim line",
      "why_it_matters": "what it reveals"
    }
  ]
}
----------------------------------------------------------------------

GUIDELINES:
1. rep_talk_ratio_percent + customer_talk_ratio_percent must equal 100.
2. Count rep questions, customer objections and follow-ups the rep committed to.
3. Use [] or 0 when there is no evidence. Do not invent facts.
`
	return fmt.Sprintf(prompt, context, transcript)
}

// BuildCoachingPrompt builds the coaching prompt from the call summary (JSON answer).
func BuildCoachingPrompt(context, summary string) string {
	prompt := `Role: You are a senior B2B sales coach giving a rep specific, actionable feedback.

Task: Return ONE valid JSON object matching the schema below. No commentary, no markdown.

CALL CONTEXT:
%s

CALL SUMMARY:
%s

----------------------------------------------------------------------
SCHEMA (STRICT - RETURN ONLY JSON)
{
  "improvement_areas": [
    {
      "skill": "Discovery|Qualification|Value Framing|Objection Handling|Closing|Next-Step Control",
      "issue_observed": "gap grounded in the summary",
      "behavior_change": "exact behaviour to adopt"
    }
  ],
  "next_steps": [
    {
      "owner": "rep|prospect|both",
      "action": "specific follow-up",
      "due_by": "timeframe",
      "success_criteria": "observable outcome"
    }
  ],
  "coaching_tips": [
    {
      "skill": "skill name",
      "tip": "one high-leverage piece of advice"
    }
  ]
}
----------------------------------------------------------------------

GUIDELINES:
1. Base every item on the summary and context only.
2. Prefer concrete wording the rep can reuse on the next call.
3. Use [] when there is nothing to say.
`
	return fmt.Sprintf(prompt, context, summary)
}

// BuildJSONRepairPrompt asks the model to rewrite a broken answer as valid JSON.
func BuildJSONRepairPrompt(broken string) string {
	return fmt.Sprintf(`The text below was supposed to be a single JSON object but it does not parse.
Rewrite it as valid JSON, keeping every key and value. Return ONLY the JSON.

%s
`, broken)
}
