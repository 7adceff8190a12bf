package llm

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"golang.org/x/time/rate"

	"onomast/internal/logger"
)

// Middleware decorates a Client with a cross-cutting concern.
type Middleware func(Client) Client

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner Client, mws ...Middleware) Client {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// -------- Rate limiting --------

// RateLimit throttles calls to rps with the given burst. rps <= 0 disables it.
func RateLimit(rps float64, burst int) Middleware {
	return func(next Client) Client {
		if rps <= 0 {
			return next
		}
		if burst < 1 {
			burst = 1
		}
		return &rateLimited{next: next, rl: rate.NewLimiter(rate.Limit(rps), burst)}
	}
}

type rateLimited struct {
	next Client
	rl   *rate.Limiter
}

func (c *rateLimited) Name() string { return c.next.Name() }
func (c *rateLimited) Close() error { return c.next.Close() }
func (c *rateLimited) GenerateJSON(ctx context.Context, prompt string, schema *Schema) (json.RawMessage, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}
	return c.next.GenerateJSON(ctx, prompt, schema)
}

// -------- Retry with exponential backoff --------

// Retry retries GenerateJSON up to maxAttempts with exponential backoff
// starting at baseDelay. Permanent errors and context cancellation stop it.
func Retry(maxAttempts int, baseDelay time.Duration) Middleware {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 300 * time.Millisecond
	}
	return func(next Client) Client {
		return &retrying{next: next, max: maxAttempts, base: baseDelay}
	}
}

type retrying struct {
	next Client
	max  int
	base time.Duration
}

func (r *retrying) Name() string { return r.next.Name() }
func (r *retrying) Close() error { return r.next.Close() }
func (r *retrying) GenerateJSON(ctx context.Context, prompt string, schema *Schema) (json.RawMessage, error) {
	var last error
	for i := 0; i < r.max; i++ {
		resp, err := r.next.GenerateJSON(ctx, prompt, schema)
		if err == nil {
			return resp, nil
		}
		var pErr *PermanentError
		if errors.As(err, &pErr) {
			return nil, err
		}
		last = err
		if i == r.max-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.base * time.Duration(1<<i)):
		}
	}
	return nil, last
}

// -------- Timeout --------

// Timeout bounds each call. d <= 0 disables it.
func Timeout(d time.Duration) Middleware {
	return func(next Client) Client {
		if d <= 0 {
			return next
		}
		return &timed{next: next, d: d}
	}
}

type timed struct {
	next Client
	d    time.Duration
}

func (t *timed) Name() string { return t.next.Name() }
func (t *timed) Close() error { return t.next.Close() }
func (t *timed) GenerateJSON(ctx context.Context, prompt string, schema *Schema) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.next.GenerateJSON(ctx, prompt, schema)
}

// -------- Logging --------

// WithLogging logs request size, latency and errors.
func WithLogging(log *logger.Logger) Middleware {
	log = logger.OrNop(log)
	return func(next Client) Client {
		return &logging{next: next, log: log}
	}
}

type logging struct {
	next Client
	log  *logger.Logger
}

func (l *logging) Name() string { return l.next.Name() }
func (l *logging) Close() error { return l.next.Close() }
func (l *logging) GenerateJSON(ctx context.Context, prompt string, schema *Schema) (json.RawMessage, error) {
	start := time.Now()
	raw, err := l.next.GenerateJSON(ctx, prompt, schema)
	if err != nil {
		l.log.Warn("llm request failed", "client", l.next.Name(), "prompt_bytes", len(prompt), "elapsed", time.Since(start), "error", err)
		return raw, err
	}
	l.log.Debug("llm request", "client", l.next.Name(), "prompt_bytes", len(prompt), "response_bytes", len(raw), "elapsed", time.Since(start))
	return raw, nil
}
