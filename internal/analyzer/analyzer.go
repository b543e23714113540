// Package analyzer sends invoice text to a language model and returns the
// model's raw reply.
package analyzer

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/BerylCAtieno/invoice-analyzer-api/internal/utils"
)

type CompletionRequest struct {
	System      string
	User        string
	Temperature float64
}

// Provider performs a single completion call against one model backend.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

type Analyzer interface {
	Analyze(ctx context.Context, text string) (string, error)
	Configured() bool
}

// Observer receives one call per provider attempt.
type Observer interface {
	ObserveAICall(provider, result string, elapsed time.Duration)
}

type Options struct {
	Retry         RetryPolicy
	Temperature   float64
	MaxInputChars int
	Logger        *utils.Logger
	Observer      Observer
	Sleep         func(ctx context.Context, d time.Duration) error
}

type Client struct {
	provider      Provider
	policy        RetryPolicy
	temperature   float64
	maxInputChars int
	logger        *utils.Logger
	observer      Observer
	sleep         func(ctx context.Context, d time.Duration) error
}

// NewClient wraps provider with the retry policy. A nil provider yields a
// client whose Analyze always fails with KindConfiguration.
func NewClient(provider Provider, opts Options) *Client {
	c := &Client{
		provider:      provider,
		policy:        opts.Retry.normalize(),
		temperature:   opts.Temperature,
		maxInputChars: opts.MaxInputChars,
		logger:        opts.Logger,
		observer:      opts.Observer,
		sleep:         opts.Sleep,
	}
	if c.logger == nil {
		c.logger = utils.NewNopLogger()
	}
	if c.sleep == nil {
		c.sleep = utils.Sleep
	}
	return c
}

func (c *Client) Configured() bool {
	return c.provider != nil
}

func (c *Client) Analyze(ctx context.Context, text string) (string, error) {
	if c.provider == nil {
		return "", utils.NewAppError(utils.KindConfiguration, ErrNotConfigured.Error(), ErrNotConfigured)
	}

	req := CompletionRequest{
		System:      SystemPrompt,
		User:        truncate(text, c.maxInputChars),
		Temperature: c.temperature,
	}
	reqID := utils.RequestIDFromContext(ctx)
	start := time.Now()

	var content string
	err := c.retry(ctx, func(ctx context.Context, attempt int) error {
		c.logger.Info("ai.analyze.attempt",
			"req_id", reqID,
			"provider", c.provider.Name(),
			"attempt", attempt,
			"input_chars", utf8.RuneCountInString(req.User),
		)

		callStart := time.Now()
		out, err := c.provider.Complete(ctx, req)
		if err == nil && strings.TrimSpace(out) == "" {
			err = ErrEmptyResponse
		}
		c.observe(err, time.Since(callStart))
		if err != nil {
			return err
		}

		content = out
		return nil
	})
	if err != nil {
		kind := Classify(err)
		c.logger.Error("ai.analyze.failed",
			"req_id", reqID,
			"provider", c.provider.Name(),
			"kind", kind,
			"elapsed_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return "", utils.NewAppError(kind, err.Error(), err)
	}

	c.logger.Info("ai.analyze.done",
		"req_id", reqID,
		"provider", c.provider.Name(),
		"elapsed_ms", time.Since(start).Milliseconds(),
		"output_chars", len(content),
	)
	return content, nil
}

func (c *Client) observe(err error, elapsed time.Duration) {
	if c.observer == nil {
		return
	}
	result := "success"
	if err != nil {
		result = string(Classify(err))
	}
	c.observer.ObserveAICall(c.provider.Name(), result, elapsed)
}

// truncate keeps the first limit runes of text. limit <= 0 disables it.
func truncate(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit]) + "..."
}
