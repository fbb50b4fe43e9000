// Package slack is the client for the remote conversation service. It speaks
// the Slack Web API wire shapes: cursor-paginated history and replies, full
// channel and user enumeration, and the tagged {ok, error} envelope.
package slack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"loom/internal/faults"
	"loom/internal/ratelimit"
)

const defaultBaseURL = "https://slack.com/api"

// Client calls the remote service. All methods are safe for concurrent use.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	limiter *ratelimit.Limiter
	log     zerolog.Logger

	// Outbound pacing, sized for the service's conversation-read tier.
	paceLimit  int
	paceWindow time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a non-default API root (tests, proxies).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(u, "/") }
}

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithPacing overrides the outbound sliding-window budget.
func WithPacing(limit int, window time.Duration) Option {
	return func(c *Client) {
		c.paceLimit = limit
		c.paceWindow = window
	}
}

// WithLogger attaches a logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

func New(token string, opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		token:   strings.TrimSpace(token),
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter:    ratelimit.NewLimiter(),
		log:        zerolog.Nop(),
		paceLimit:  45,
		paceWindow: time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the common response wrapper. Every payload carries ok and,
// on failure, a short error code.
type envelope struct {
	OK       bool   `json:"ok"`
	Error    string `json:"error,omitempty"`
	Metadata struct {
		NextCursor string `json:"next_cursor,omitempty"`
	} `json:"response_metadata,omitempty"`
}

// call performs one GET against method, retrying rate_limited responses with
// exponential backoff. Non-retryable error codes fail immediately.
func (c *Client) call(ctx context.Context, method string, params url.Values, out any) error {
	var hint time.Duration
	op := func() error {
		if err := c.limiter.Wait(ctx, method, c.paceLimit, c.paceWindow); err != nil {
			return backoff.Permanent(err)
		}
		err := c.doOnce(ctx, method, params, out)
		if err == nil {
			return nil
		}
		if faults.Retryable(err) {
			hint = 0
			var ra *retryAfterError
			if errors.As(err, &ra) {
				hint = ra.wait
			}
			c.log.Debug().Str("method", method).Dur("retry_after", hint).Msg("rate limited, backing off")
			return err
		}
		return backoff.Permanent(err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxElapsedTime = 2 * time.Minute
	hinted := &hintedBackOff{next: b, hint: &hint}
	return backoff.Retry(op, backoff.WithContext(hinted, ctx))
}

// retryAfterError tags a 429 with the server's requested pause. The wait is
// consumed by the retry policy, never slept inline.
type retryAfterError struct {
	err  error
	wait time.Duration
}

func (e *retryAfterError) Error() string { return e.err.Error() }
func (e *retryAfterError) Unwrap() error { return e.err }

// hintedBackOff defers to the wrapped policy but never waits less than the
// most recent Retry-After hint. The hint is cleared once used so a later
// attempt without one falls back to the exponential schedule.
type hintedBackOff struct {
	next backoff.BackOff
	hint *time.Duration
}

func (h *hintedBackOff) NextBackOff() time.Duration {
	d := h.next.NextBackOff()
	if d != backoff.Stop && *h.hint > d {
		d = *h.hint
	}
	*h.hint = 0
	return d
}

func (h *hintedBackOff) Reset() { h.next.Reset() }

func (c *Client) doOnce(ctx context.Context, method string, params url.Values, out any) error {
	u := c.baseURL + "/" + method
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return faults.Wrap(faults.CodeUnavailable, err, "call %s", method)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return &retryAfterError{
			err:  faults.RateLimited("%s returned http 429", method),
			wait: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}
	if resp.StatusCode >= 400 {
		return faults.Wrap(faults.CodeFatal, fmt.Errorf("http %d", resp.StatusCode), "call %s", method)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	return nil
}

// checkEnvelope maps the tagged error field to the fault taxonomy.
func checkEnvelope(method string, env envelope) error {
	if env.OK {
		return nil
	}
	switch env.Error {
	case "rate_limited", "ratelimited":
		return faults.RateLimited("%s: %s", method, env.Error)
	case "channel_not_found", "thread_not_found", "user_not_found":
		return faults.NotFound("%s: %s", method, env.Error)
	case "":
		return faults.Fatal("%s: not ok", method)
	default:
		return faults.Fatal("%s: %s", method, env.Error)
	}
}

func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
