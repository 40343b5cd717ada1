// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"salessense-go/internal/aggregator"
	"salessense-go/internal/extractor"
	"salessense-go/internal/llm"
	"salessense-go/internal/types"
)

// MaxTranscriptRunes bounds the transcript handed to the stages.
const MaxTranscriptRunes = 5000

const truncationMarker = "... [truncated]"

// Orchestrator runs the three analysis stages for one call and merges them.
type Orchestrator struct {
	summarizer extractor.Stage
	metrics    extractor.Stage
	coach      extractor.Stage
	workers    int
	log        *logrus.Entry
}

// New wires the default stages around one generator.
func New(gen llm.Generator, set extractor.Settings, workers int, repairRetry bool, log *logrus.Entry) *Orchestrator {
	return NewWithStages(
		&extractor.Summarizer{Gen: gen, Settings: set},
		&extractor.MetricsExtractor{Gen: gen, Settings: set, RepairRetry: repairRetry},
		&extractor.Coach{Gen: gen, Settings: set},
		workers, log,
	)
}

// NewWithStages lets callers substitute individual stages.
func NewWithStages(summarizer, metrics, coach extractor.Stage, workers int, log *logrus.Entry) *Orchestrator {
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{summarizer: summarizer, metrics: metrics, coach: coach, workers: workers, log: log}
}

// Run analyses one transcript. It never fails: stage failures degrade to
// defaults and an unexpected panic yields a fallback result. Stages are
// detached from ctx cancellation and bounded only by their own model timeout.
func (o *Orchestrator) Run(ctx context.Context, callContext, transcript string) (res types.FinalResult) {
	start := time.Now()
	log := o.log.WithField("run_id", uuid.NewString())

	defer func() {
		if r := recover(); r != nil {
			log.WithFields(logrus.Fields{
				"panic": fmt.Sprint(r),
				"stack": string(debug.Stack()),
			}).Error("analysis orchestration failed")
			res = types.FallbackResult(fmt.Sprintf("%s%v", types.AnalysisErrorPrefix, r))
		}
		res.ProcessingTime = time.Since(start).Seconds()
		res.Cached = false
	}()

	stageCtx := context.WithoutCancel(ctx)
	in := extractor.Inputs{Context: callContext, Transcript: Truncate(transcript, MaxTranscriptRunes)}
	log.WithField("transcript_chars", len([]rune(in.Transcript))).Info("analysis started")

	var summary, metrics, coaching types.StagePartial
	summaryCh := make(chan string, 1)

	// Launch order matters when workers < 3: the coach is queued last so it
	// never holds a slot the summarizer needs.
	g := new(errgroup.Group)
	g.SetLimit(o.workers)
	g.Go(func() error {
		defer func() { summaryCh <- types.ToString(summary[types.KeySummary]) }()
		summary = extractor.RunIsolated(stageCtx, o.summarizer, in, log)
		return nil
	})
	g.Go(func() error {
		metrics = extractor.RunIsolated(stageCtx, o.metrics, in, log)
		return nil
	})
	g.Go(func() error {
		coachIn := in
		coachIn.Summary = <-summaryCh
		coaching = extractor.RunIsolated(stageCtx, o.coach, coachIn, log)
		return nil
	})
	_ = g.Wait()

	res = aggregator.Merge(summary, metrics, coaching)
	log.WithField("elapsed_ms", time.Since(start).Milliseconds()).Info("analysis completed")
	return res
}

// Truncate caps s at n characters, marking the cut.
func Truncate(s string, n int) string {
	capped := types.CapRunes(s, n)
	if len(capped) == len(s) {
		return s
	}
	return capped + truncationMarker
}
