package extractor

import (
	"context"
	"fmt"
	"io"
	"runtime/debug"
	"time"

	"github.com/sirupsen/logrus"
	"salessense-go/internal/llm"
	"salessense-go/internal/types"
)

// Transcript budgets per stage, in characters.
const (
	SummaryTranscriptBudget = 3000
	MetricsTranscriptBudget = 3500
)

// Inputs are shared by all stages of one analysis.
type Inputs struct {
	Context    string
	Transcript string
	Summary    string
	// Log is the run-scoped entry; RunIsolated tags it with the stage name.
	Log *logrus.Entry
}

func (in Inputs) logger() *logrus.Entry {
	if in.Log != nil {
		return in.Log
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// Settings are the generation parameters every stage sends.
type Settings struct {
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// DefaultSettings mirrors the production model configuration.
func DefaultSettings() Settings {
	return Settings{MaxTokens: 800, Temperature: 0.2, Timeout: 45 * time.Second}
}

// Stage is one model-backed unit of work.
type Stage interface {
	Name() string
	Run(ctx context.Context, in Inputs) (types.StagePartial, error)
}

// RunIsolated executes a stage and never lets its failure escape: errors and
// panics become an empty partial. Elapsed time is logged either way.
func RunIsolated(ctx context.Context, s Stage, in Inputs, log *logrus.Entry) (out types.StagePartial) {
	start := time.Now()
	log = log.WithField("stage", s.Name())
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(logrus.Fields{
				"elapsed_ms": time.Since(start).Milliseconds(),
				"panic":      fmt.Sprint(r),
				"stack":      string(debug.Stack()),
			}).Error("stage panicked")
			out = types.StagePartial{}
		}
	}()

	in.Log = log
	partial, err := s.Run(ctx, in)
	elapsed := time.Since(start)
	if err != nil {
		log.WithFields(logrus.Fields{
			"elapsed_ms": elapsed.Milliseconds(),
			"class":      llm.Class(err),
			"error":      err.Error(),
		}).Warn("stage failed")
		return types.StagePartial{}
	}
	if partial == nil {
		partial = types.StagePartial{}
	}
	log.WithField("elapsed_ms", elapsed.Milliseconds()).Info("stage completed")
	return partial
}

func generate(ctx context.Context, gen llm.Generator, set Settings, stage, prompt string) (string, error) {
	return gen.Generate(ctx, llm.Request{
		Stage:       stage,
		Prompt:      prompt,
		MaxTokens:   set.MaxTokens,
		Temperature: set.Temperature,
		Timeout:     set.Timeout,
	})
}
