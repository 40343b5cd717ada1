package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"salessense-go/internal/types"
)

// Options configures the OpenAI-compatible gateway client.
type Options struct {
	GatewayURL string
	APIKey     string
	Model      string
	Timeout    time.Duration
	// MaxRetries is the number of retries after the first attempt (0 = single call).
	MaxRetries uint64
}

// Client calls an OpenAI-compatible /chat/completions endpoint.
type Client struct {
	url        string
	apiKey     string
	model      string
	maxRetries uint64
	hc         *http.Client
	log        *logrus.Entry
}

// NewClient validates opts and returns a gateway client.
func NewClient(opts Options, log *logrus.Entry) (*Client, error) {
	if opts.GatewayURL == "" || opts.APIKey == "" {
		return nil, ErrNotConfigured
	}
	if opts.Model == "" {
		opts.Model = "gpt-3.5-turbo"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 45 * time.Second
	}
	return &Client{
		url:        opts.GatewayURL,
		apiKey:     opts.APIKey,
		model:      opts.Model,
		maxRetries: opts.MaxRetries,
		hc:         &http.Client{Timeout: opts.Timeout},
		log:        log,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate performs the chat completion. req.Timeout bounds the whole call,
// retries included.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}
	log := c.log.WithField("stage", req.Stage)

	data, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: req.Prompt}},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	log.WithField("payload_len", len(data)).Debug("llm request")

	op := func() (string, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
		if err != nil {
			return "", backoff.Permanent(fmt.Errorf("new request: %w", err))
		}
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.hc.Do(httpReq)
		if err != nil {
			if ctx.Err() != nil {
				return "", backoff.Permanent(ctx.Err())
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				return "", backoff.Permanent(fmt.Errorf("%w: %v", ErrTimeout, err))
			}
			log.WithField("error", err.Error()).Warn("llm request failed")
			return "", fmt.Errorf("%w: %v", ErrUpstream, err)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		log.WithField("http_status", resp.StatusCode).Debug("llm raw:\n" + string(body))

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return "", ErrRateLimited
		case resp.StatusCode >= 500:
			return "", fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, snippet(body))
		case resp.StatusCode >= 400:
			// Permanent: don't retry on client errors
			return "", backoff.Permanent(fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode, snippet(body)))
		}

		var parsed chatResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return "", backoff.Permanent(fmt.Errorf("%w: %v", ErrInvalidResponse, err))
		}
		if len(parsed.Choices) == 0 {
			return "", backoff.Permanent(fmt.Errorf("%w: no choices", ErrInvalidResponse))
		}
		content := strings.TrimSpace(parsed.Choices[0].Message.Content)
		if content == "" {
			return "", backoff.Permanent(ErrEmptyResponse)
		}
		return content, nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)
	text, err := backoff.RetryWithData(op, b)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrTimeout) {
			err = fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return "", err
	}
	return text, nil
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if capped := types.CapRunes(s, 200); len(capped) < len(s) {
		return capped + "..."
	}
	return s
}
