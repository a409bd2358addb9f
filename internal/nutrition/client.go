package nutrition

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"
)

// RetryPolicy configures the backoff applied to overloaded model calls.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// BackoffBase is the base of the exponential delay: the wait after
	// attempt n is BackoffBase * 2^n (2s, 4s, 8s for the 2s default).
	BackoffBase time.Duration
}

// DefaultRetryPolicy returns the production retry policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BackoffBase: 2 * time.Second,
	}
}

// Client wraps generative-model invocation with retry and backoff. All five
// pipelines share one Client; it is safe for concurrent use and each backoff
// sleep suspends only the requesting goroutine.
type Client struct {
	g       *genkit.Genkit
	model   ai.Model
	policy  RetryPolicy
	limiter *rate.Limiter
	logger  *slog.Logger

	// sleep is replaceable in tests to avoid wall-clock waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a generate client. The limiter gates every attempt,
// retries included; pass nil to use the default of 10 requests/sec sustained
// with a burst of 30.
func NewClient(g *genkit.Genkit, model ai.Model, policy RetryPolicy, limiter *rate.Limiter, logger *slog.Logger) *Client {
	if policy.MaxAttempts < 1 {
		policy = DefaultRetryPolicy()
	}
	if limiter == nil {
		limiter = rate.NewLimiter(10, 30)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		g:       g,
		model:   model,
		policy:  policy,
		limiter: limiter,
		logger:  logger,
		sleep:   sleepCtx,
	}
}

// Generate invokes the model with the given prompt and returns the response
// text verbatim.
//
// Failure policy:
//   - transient overload: wait BackoffBase*2^attempt and retry, up to
//     MaxAttempts total; the final attempt returns ErrOverloaded without a
//     further sleep
//   - any other server-side error: fail immediately with ErrServerFailure
//   - anything else: fail immediately with ErrUnknown
//
// The backoff sleep aborts cleanly between attempts when ctx is canceled.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()

	for attempt := 0; attempt < c.policy.MaxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("%w: rate limit wait: %v", ErrUnknown, err)
		}

		resp, err := genkit.Generate(ctx, c.g,
			ai.WithModel(c.model),
			ai.WithPrompt(prompt),
		)
		if err == nil {
			c.logger.Debug("generate succeeded",
				"attempts", attempt+1,
				"elapsed", time.Since(start))
			return resp.Text(), nil
		}

		switch {
		case overloadedError(err):
			if attempt == c.policy.MaxAttempts-1 {
				return "", fmt.Errorf("%w: after %d attempts: %v", ErrOverloaded, c.policy.MaxAttempts, err)
			}
			delay := c.policy.BackoffBase << attempt
			c.logger.Warn("model overloaded, retrying",
				"attempt", attempt+1,
				"max_attempts", c.policy.MaxAttempts,
				"delay", delay,
				"error", err)
			if sleepErr := c.sleep(ctx, delay); sleepErr != nil {
				return "", fmt.Errorf("%w: canceled during retry: %v", ErrUnknown, sleepErr)
			}

		case serverError(err):
			return "", fmt.Errorf("%w: %v", ErrServerFailure, err)

		default:
			return "", fmt.Errorf("%w: %v", ErrUnknown, err)
		}
	}

	// Unreachable: the final overload attempt returns above.
	return "", ErrOverloaded
}

// sleepCtx waits for d or until ctx is canceled, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
