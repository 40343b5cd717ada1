package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"salessense-go/internal/types"
)

// Transcriber turns a call recording into speaker-labelled text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

var (
	ErrNotConfigured = errors.New("transcription service not configured")
	ErrFailed        = errors.New("transcription failed")
	ErrTimeout       = errors.New("transcription timed out")
)

const noSpeech = "No speech detected"

type uploadResponse struct {
	UploadURL string `json:"upload_url"`
}

type transcriptRequest struct {
	AudioURL          string `json:"audio_url"`
	SpeakerLabels     bool   `json:"speaker_labels"`
	FormatText        bool   `json:"format_text"`
	Punctuate         bool   `json:"punctuate"`
	LanguageDetection bool   `json:"language_detection"`
}

type utterance struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

type transcriptResponse struct {
	ID         string      `json:"id"`
	Status     string      `json:"status"` // queued, processing, completed, error
	Text       string      `json:"text"`
	Error      string      `json:"error"`
	Utterances []utterance `json:"utterances"`
}

// Options configures the speech-to-text client.
type Options struct {
	BaseURL      string
	APIKey       string
	Timeout      time.Duration
	PollInterval time.Duration
}

// Client talks to an AssemblyAI-compatible REST API: upload, create a
// transcript job with speaker labels, poll until it settles.
type Client struct {
	baseURL      string
	apiKey       string
	timeout      time.Duration
	pollInterval time.Duration
	hc           *http.Client
	log          *logrus.Entry
}

func NewClient(opts Options, log *logrus.Entry) (*Client, error) {
	if opts.BaseURL == "" || opts.APIKey == "" {
		return nil, ErrNotConfigured
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Minute
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 1500 * time.Millisecond
	}
	return &Client{
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		apiKey:       opts.APIKey,
		timeout:      opts.Timeout,
		pollInterval: opts.PollInterval,
		hc:           &http.Client{Timeout: 60 * time.Second},
		log:          log,
	}, nil
}

// Transcribe uploads audio and returns "Speaker X: text" lines.
func (c *Client) Transcribe(ctx context.Context, audio []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	start := time.Now()

	uploadURL, err := c.upload(ctx, audio)
	if err != nil {
		return "", err
	}
	id, err := c.submit(ctx, uploadURL)
	if err != nil {
		return "", err
	}
	c.log.WithField("transcript_id", id).Info("transcription submitted")

	tr, err := c.poll(ctx, id)
	if err != nil {
		return "", err
	}
	c.log.WithFields(logrus.Fields{
		"transcript_id": id,
		"utterances":    len(tr.Utterances),
		"elapsed_ms":    time.Since(start).Milliseconds(),
	}).Info("transcription completed")
	return format(tr.Utterances, tr.Text), nil
}

func (c *Client) upload(ctx context.Context, audio []byte) (string, error) {
	var resp uploadResponse
	err := c.doJSON(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", bytes.NewReader(audio))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/octet-stream")
		return req, nil
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("upload audio: %w", err)
	}
	if resp.UploadURL == "" {
		return "", fmt.Errorf("%w: upload returned no url", ErrFailed)
	}
	return resp.UploadURL, nil
}

func (c *Client) submit(ctx context.Context, audioURL string) (string, error) {
	body, err := json.Marshal(transcriptRequest{
		AudioURL:          audioURL,
		SpeakerLabels:     true,
		FormatText:        true,
		Punctuate:         true,
		LanguageDetection: true,
	})
	if err != nil {
		return "", err
	}
	var resp transcriptResponse
	err = c.doJSON(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcript", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("create transcript: %w", err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("%w: no transcript id returned", ErrFailed)
	}
	return resp.ID, nil
}

func (c *Client) poll(ctx context.Context, id string) (transcriptResponse, error) {
	endpoint := c.baseURL + "/transcript/" + id
	for {
		var tr transcriptResponse
		err := c.doJSON(ctx, func() (*http.Request, error) {
			return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		}, &tr)
		if err != nil {
			if ctx.Err() != nil {
				return tr, fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
			}
			return tr, fmt.Errorf("poll transcript: %w", err)
		}

		switch tr.Status {
		case "completed":
			return tr, nil
		case "error":
			return tr, fmt.Errorf("%w: %s", ErrFailed, tr.Error)
		}
		c.log.WithFields(logrus.Fields{"transcript_id": id, "status": tr.Status}).Debug("transcription pending")

		select {
		case <-ctx.Done():
			return tr, fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
		case <-time.After(c.pollInterval):
		}
	}
}

// doJSON sends the request built by newReq, retrying transport errors and 5xx
// responses with exponential backoff. 4xx responses are not retried.
func (c *Client) doJSON(ctx context.Context, newReq func() (*http.Request, error), target any) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 12 * time.Second

	op := func() error {
		req, err := newReq()
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", c.apiKey)
		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)

		switch {
		case resp.StatusCode >= 500:
			return fmt.Errorf("server error %d: %s", resp.StatusCode, snippet(body))
		case resp.StatusCode >= 400:
			return backoff.Permanent(fmt.Errorf("%w: status %d: %s", ErrFailed, resp.StatusCode, snippet(body)))
		case len(body) == 0:
			return fmt.Errorf("empty body")
		}
		if err := json.Unmarshal(body, target); err != nil {
			return backoff.Permanent(fmt.Errorf("json decode error: %v body=%s", err, snippet(body)))
		}
		return nil
	}
	return backoff.Retry(op, backoff.WithContext(bo, ctx))
}

// format renders diarized utterances one per line, falling back to the plain
// text and then to a fixed marker when nothing was recognised.
func format(utterances []utterance, text string) string {
	if len(utterances) > 0 {
		lines := make([]string, 0, len(utterances))
		for _, u := range utterances {
			lines = append(lines, fmt.Sprintf("Speaker %s: %s", u.Speaker, u.Text))
		}
		return strings.Join(lines, "\n")
	}
	if strings.TrimSpace(text) != "" {
		return text
	}
	return noSpeech
}

func snippet(b []byte) string {
	s := string(b)
	if capped := types.CapRunes(s, 200); len(capped) < len(s) {
		return capped + "..."
	}
	return s
}

// Mock returns a fixed two-speaker transcript. Enabled with USE_MOCK_TRANSCRIBE=true.
type Mock struct{}

func (Mock) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return mockTranscript, nil
}

const mockTranscript = `Speaker A: Thanks for making time today. I'd love to understand how you run pipeline reviews right now.
Speaker B: Honestly it's painful. Everything lives in spreadsheets and it takes us two days every month.
Speaker A: Two days is a lot. What happens if the forecast is off?
Speaker B: We miss hiring plans. But I have to be upfront, we can't go above twenty thousand this year.
Speaker A: Understood. Our forecasting module usually pays for itself in saved review time.
Speaker B: It also has to talk to our ERP, otherwise it's a non-starter.
Speaker A: We have a native connector. Let me send pricing by Friday and set up a technical demo next Tuesday.
Speaker B: That works. This would save us days every month.`
