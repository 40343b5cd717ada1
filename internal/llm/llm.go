package llm

import (
	"context"
	"errors"
	"time"
)

// Stage tags carried on every request; used for logging and by Mock.
const (
	StageSummary  = "summary"
	StageMetrics  = "metrics"
	StageCoaching = "coaching"
)

// Failure classes returned (wrapped) by Generator implementations.
var (
	ErrNotConfigured   = errors.New("llm gateway not configured")
	ErrTimeout         = errors.New("llm call timed out")
	ErrRateLimited     = errors.New("llm rate limited")
	ErrUpstream        = errors.New("llm upstream error")
	ErrRejected        = errors.New("llm request rejected")
	ErrInvalidResponse = errors.New("llm response invalid")
	ErrEmptyResponse   = errors.New("llm response empty")
)

// Request is one text-generation call.
type Request struct {
	Stage       string
	Prompt      string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// Generator turns a prompt into response text. A nil error means Text is the
// model output; otherwise the error wraps one of the failure classes above.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Class names the failure class of err for log fields.
func Class(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, ErrRejected):
		return "rejected"
	case errors.Is(err, ErrInvalidResponse):
		return "invalid_response"
	case errors.Is(err, ErrEmptyResponse):
		return "empty_response"
	case errors.Is(err, ErrUpstream):
		return "upstream"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "unknown"
	}
}
