package report

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"salessense-go/internal/actionable"
	"salessense-go/internal/types"
)

// Sheet names, in workbook order.
const (
	SheetOverview   = "Overview"
	SheetObjections = "Objections"
	SheetNextSteps  = "Next Steps"
	SheetCoaching   = "Coaching"
	SheetQuotes     = "Quotes"
)

// ContentType is the MIME type of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type sheet struct {
	name   string
	header []any
	rows   [][]any
	widths []float64
}

// Build renders one analysis as a workbook. The caller owns the file and
// must Close it.
func Build(res types.FinalResult) (*excelize.File, error) {
	card := actionable.Generate(res)
	m := res.Metrics

	overview := sheet{
		name:   SheetOverview,
		header: []any{"Field", "Value"},
		widths: []float64{28, 100},
		rows: [][]any{
			{"Summary", res.Summary},
			{"Overall sentiment", m.OverallSentiment},
			{"Sentiment rationale", m.SentimentRationale},
			{"Rep talk ratio %", m.RepTalkRatioPercent},
			{"Customer talk ratio %", m.CustomerTalkRatioPercent},
			{"Questions asked by rep", m.QuestionsAskedByRep},
			{"Objections detected", m.ObjectionsDetected},
			{"Follow-ups committed", m.FollowupsCommitted},
			{"Strengths", strings.Join(res.Strengths, "\n")},
			{"Improvement areas", strings.Join(res.ImprovementAreas, "\n")},
			{"Key insight", card.Insight},
			{"Recommended action", card.Action},
			{"Expected impact", card.Impact},
			{"Processing time (s)", res.ProcessingTime},
			{"Cached", res.Cached},
		},
	}

	objections := sheet{
		name:   SheetObjections,
		header: []any{"Objection", "Customer quote", "Rep response quality", "Suggested response"},
		widths: []float64{16, 60, 22, 60},
	}
	for _, o := range res.CustomerObjections {
		objections.rows = append(objections.rows, []any{o.Category, o.Quote, o.ResponseQuality, o.SuggestedResponse})
	}

	steps := sheet{
		name:   SheetNextSteps,
		header: []any{"Owner", "Action", "Due by", "Success criteria"},
		widths: []float64{12, 60, 20, 50},
	}
	for _, s := range res.NextSteps {
		steps.rows = append(steps.rows, []any{s.Owner, s.Action, s.DueBy, s.SuccessCriteria})
	}

	coaching := sheet{
		name:   SheetCoaching,
		header: []any{"Skill", "Tip"},
		widths: []float64{24, 100},
	}
	for _, c := range res.CoachingTips {
		coaching.rows = append(coaching.rows, []any{c.Skill, c.Tip})
	}

	quotes := sheet{
		name:   SheetQuotes,
		header: []any{"Speaker", "Quote", "Why it matters"},
		widths: []float64{12, 70, 60},
	}
	for _, q := range res.NotableQuotes {
		quotes.rows = append(quotes.rows, []any{q.Speaker, q.Quote, q.WhyItMatters})
	}

	f := excelize.NewFile()
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("header style: %w", err)
	}
	wrap, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("wrap style: %w", err)
	}

	for i, s := range []sheet{overview, objections, steps, coaching, quotes} {
		if err := writeSheet(f, i == 0, s, bold, wrap); err != nil {
			f.Close()
			return nil, fmt.Errorf("sheet %s: %w", s.name, err)
		}
	}
	return f, nil
}

func writeSheet(f *excelize.File, first bool, s sheet, headerStyle, bodyStyle int) error {
	if first {
		if err := f.SetSheetName(f.GetSheetName(0), s.name); err != nil {
			return err
		}
	} else if _, err := f.NewSheet(s.name); err != nil {
		return err
	}

	if err := f.SetSheetRow(s.name, "A1", &s.header); err != nil {
		return err
	}
	if err := f.SetRowStyle(s.name, 1, 1, headerStyle); err != nil {
		return err
	}
	for i, row := range s.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(s.name, cell, &row); err != nil {
			return err
		}
	}
	if len(s.rows) > 0 {
		if err := f.SetRowStyle(s.name, 2, len(s.rows)+1, bodyStyle); err != nil {
			return err
		}
	}
	for i, w := range s.widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(s.name, col, col, w); err != nil {
			return err
		}
	}
	return nil
}
