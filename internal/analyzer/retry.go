package analyzer

import (
	"context"
	"time"

	"github.com/BerylCAtieno/invoice-analyzer-api/internal/utils"
)

type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	Multiplier     float64
}

// DefaultRetryPolicy allows three attempts, waiting 1s then 2s between them.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: time.Second,
		Multiplier:     2,
	}
}

func (p RetryPolicy) normalize() RetryPolicy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.InitialBackoff < 0 {
		p.InitialBackoff = 0
	}
	if p.Multiplier < 1 {
		p.Multiplier = 2
	}
	return p
}

// retry runs op until it succeeds, fails with something other than a rate
// limit, or runs out of attempts. No wait follows the final attempt.
func (c *Client) retry(ctx context.Context, op func(ctx context.Context, attempt int) error) error {
	policy := c.policy
	backoff := policy.InitialBackoff

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		err := op(ctx, attempt)
		if err == nil {
			return nil
		}

		if Classify(err) != utils.KindRateLimit || attempt == policy.MaxAttempts {
			return err
		}

		c.logger.Warn("ai.analyze.retry",
			"req_id", utils.RequestIDFromContext(ctx),
			"provider", c.provider.Name(),
			"attempt", attempt,
			"max_attempts", policy.MaxAttempts,
			"backoff_ms", backoff.Milliseconds(),
			"error", err,
		)

		if sleepErr := c.sleep(ctx, backoff); sleepErr != nil {
			return err
		}
		backoff = time.Duration(float64(backoff) * policy.Multiplier)
	}

	return ErrMaxRetries
}
