package processor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"salessense-go/internal/cache"
	"salessense-go/internal/transcription"
	"salessense-go/internal/types"
)

// Analyzer runs the full analysis for one transcript.
type Analyzer interface {
	Run(ctx context.Context, callContext, transcript string) types.FinalResult
}

// Service is the entry point used by the HTTP layer: cache in front of
// transcription and analysis.
type Service struct {
	analyzer    Analyzer
	transcriber transcription.Transcriber
	cache       *cache.Cache
	log         *logrus.Entry
}

func New(analyzer Analyzer, transcriber transcription.Transcriber, c *cache.Cache, log *logrus.Entry) *Service {
	return &Service{analyzer: analyzer, transcriber: transcriber, cache: c, log: log}
}

// Analyze is the cold path: no cache lookup or store.
func (s *Service) Analyze(ctx context.Context, callContext, transcript string) types.FinalResult {
	return s.analyzer.Run(ctx, callContext, transcript)
}

// AnalyzeWithCache returns the cached result for (audio, callContext) when
// present, otherwise analyzes transcript and stores the result.
func (s *Service) AnalyzeWithCache(ctx context.Context, audio []byte, callContext, transcript string) types.FinalResult {
	key := cache.ComputeKey(audio, callContext)
	if res, ok := s.lookup(key); ok {
		return res
	}
	return s.analyzeAndStore(ctx, key, callContext, transcript)
}

// AnalyzeRecording checks the cache before transcribing, so a repeated upload
// skips the speech-to-text round trip too.
func (s *Service) AnalyzeRecording(ctx context.Context, audio []byte, callContext string) (types.FinalResult, error) {
	key := cache.ComputeKey(audio, callContext)
	if res, ok := s.lookup(key); ok {
		return res, nil
	}
	transcript, err := s.Transcribe(ctx, audio)
	if err != nil {
		return types.FinalResult{}, err
	}
	return s.analyzeAndStore(ctx, key, callContext, transcript), nil
}

// Transcribe runs speech-to-text only.
func (s *Service) Transcribe(ctx context.Context, audio []byte) (string, error) {
	start := time.Now()
	transcript, err := s.transcriber.Transcribe(ctx, audio)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"audio_bytes": len(audio),
			"elapsed_ms":  time.Since(start).Milliseconds(),
			"error":       err.Error(),
		}).Error("transcription failed")
		return "", fmt.Errorf("transcribe: %w", err)
	}
	s.log.WithFields(logrus.Fields{
		"audio_bytes":      len(audio),
		"transcript_chars": len(transcript),
		"elapsed_ms":       time.Since(start).Milliseconds(),
	}).Info("transcription done")
	return transcript, nil
}

func (s *Service) CacheStats() cache.Stats { return s.cache.Stats() }

func (s *Service) CacheClear() {
	s.cache.Clear()
	s.log.Info("result cache cleared")
}

func (s *Service) lookup(key cache.Key) (types.FinalResult, bool) {
	start := time.Now()
	res, ok := s.cache.Get(key)
	if !ok {
		return res, false
	}
	res.Cached = true
	res.ProcessingTime = time.Since(start).Seconds()
	s.log.WithField("cache_key", string(key)[:12]).Info("cache hit")
	return res, true
}

func (s *Service) analyzeAndStore(ctx context.Context, key cache.Key, callContext, transcript string) types.FinalResult {
	res := s.analyzer.Run(ctx, callContext, transcript)
	if err := ctx.Err(); err != nil || res.IsFallback() {
		fields := logrus.Fields{"cache_key": string(key)[:12]}
		if err != nil {
			fields["error"] = err.Error()
		}
		s.log.WithFields(fields).Warn("analysis not cached")
		return res
	}
	s.cache.Put(key, res)
	s.log.WithFields(logrus.Fields{
		"cache_key":       string(key)[:12],
		"processing_time": res.ProcessingTime,
	}).Info("analysis cached")
	return res
}

// BuildContext renders the form fields into the context block sent to every stage.
func BuildContext(participants, details string, callTypes []string) string {
	return fmt.Sprintf("Participants: %s\nCall details: %s\nCall types: %s",
		strings.TrimSpace(participants), strings.TrimSpace(details), strings.Join(callTypes, ", "))
}
