package rest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"chatapp-client/internal/async"
	"chatapp-client/internal/config"
	"chatapp-client/internal/metrics"
)

const (
	// the platform allows 50 requests per second across all routes
	globalRate  = 50
	globalBurst = 50

	retryBackoff = 250 * time.Millisecond
)

// bucket tracks the rate limit of one route as reported by the platform.
type bucket struct {
	blockedUntil time.Time
}

// Client is the HTTP Transport. It authenticates every call, keeps the
// global and per-route rate limits and retries rate limited and failed
// calls. Timeouts come from the http.Client.
type Client struct {
	baseURL    string
	token      string
	userAgent  string
	maxRetries int
	httpClient *http.Client
	executor   async.Executor
	sugar      *zap.SugaredLogger

	global *rate.Limiter

	mutex         sync.Mutex
	buckets       map[string]*bucket
	globalBlocked time.Time
}

func NewClient(cfg config.Api, executor async.Executor, sugar *zap.SugaredLogger) *Client {
	if executor == nil {
		executor = async.Goroutines{}
	}
	if sugar == nil {
		sugar = zap.NewNop().Sugar()
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		token:      cfg.Token,
		userAgent:  cfg.UserAgent,
		maxRetries: cfg.MaxRetries,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		executor: executor,
		sugar:    sugar,
		global:   rate.NewLimiter(rate.Limit(globalRate), globalBurst),
		buckets:  make(map[string]*bucket),
	}
}

// Send runs req on the executor. Cancelling ctx after Send returned does not
// stop the call.
func (c *Client) Send(ctx context.Context, req Request) *async.Future[Reply] {
	ctx = context.WithoutCancel(ctx)
	return async.Run(c.executor, func() (Reply, error) {
		return c.do(ctx, req)
	})
}

func (c *Client) do(ctx context.Context, req Request) (Reply, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.wait(ctx, req.bucket()); err != nil {
			return Reply{}, err
		}

		reply, err := c.roundTrip(ctx, req)
		if err != nil {
			lastErr = err
			c.sugar.Warnf("%s %s failed (attempt %d): %v", req.Method, req.Path, attempt+1, err)
			metrics.RestRequests.WithLabelValues(req.bucket(), "error").Inc()
			c.backoff(ctx, attempt)
			continue
		}

		metrics.RestRequests.WithLabelValues(req.bucket(), strconv.Itoa(reply.Status)).Inc()
		c.updateBucket(req.bucket(), reply.Header)

		switch {
		case reply.Status == http.StatusTooManyRequests:
			lastErr = c.rateLimited(req, reply)
			continue
		case reply.Status == http.StatusBadGateway:
			lastErr = newError(req, reply)
			c.backoff(ctx, attempt)
			continue
		case reply.Status >= 400:
			return reply, newError(req, reply)
		}

		return reply, nil
	}

	return Reply{}, lastErr
}

func (c *Client) roundTrip(ctx context.Context, req Request) (Reply, error) {
	var body io.Reader = http.NoBody
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, body)
	if err != nil {
		return Reply{}, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bot "+c.token)
	httpReq.Header.Set("User-Agent", c.userAgent)
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.Reason != "" {
		httpReq.Header.Set("X-Audit-Log-Reason", url.PathEscape(req.Reason))
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Reply{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Reply{}, err
	}

	return Reply{Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

func newError(req Request, reply Reply) *Error {
	e := &Error{}
	// a body that is not an error object still gives a usable error
	_ = json.Unmarshal(reply.Body, e)
	e.Status = reply.Status
	e.Route = req.Method + " " + req.Path
	return e
}

// wait blocks until both the global limit and the route's bucket allow
// another call.
func (c *Client) wait(ctx context.Context, key string) error {
	if err := c.global.Wait(ctx); err != nil {
		return err
	}

	c.mutex.Lock()
	until := c.globalBlocked
	if b, ok := c.buckets[key]; ok && b.blockedUntil.After(until) {
		until = b.blockedUntil
	}
	c.mutex.Unlock()

	if d := time.Until(until); d > 0 {
		c.sugar.Debugf("Waiting %s for rate limit of %s", d, key)
		return sleep(ctx, d)
	}
	return nil
}

func (c *Client) updateBucket(key string, header http.Header) {
	remaining := header.Get("X-RateLimit-Remaining")
	resetAfter := header.Get("X-RateLimit-Reset-After")
	if remaining == "" || resetAfter == "" {
		return
	}

	seconds, err := strconv.ParseFloat(resetAfter, 64)
	if err != nil {
		c.sugar.Warnf("Malformed X-RateLimit-Reset-After %q", resetAfter)
		return
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	b, ok := c.buckets[key]
	if !ok {
		b = &bucket{}
		c.buckets[key] = b
	}
	if remaining == "0" {
		b.blockedUntil = time.Now().Add(time.Duration(seconds * float64(time.Second)))
	} else {
		b.blockedUntil = time.Time{}
	}
}

func (c *Client) rateLimited(req Request, reply Reply) error {
	var body struct {
		RetryAfter float64 `json:"retry_after"`
		Global     bool    `json:"global"`
	}
	_ = json.Unmarshal(reply.Body, &body)

	retryAfter := body.RetryAfter
	if header := reply.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.ParseFloat(header, 64); err == nil {
			retryAfter = seconds
		}
	}
	until := time.Now().Add(time.Duration(retryAfter * float64(time.Second)))

	global := body.Global || reply.Header.Get("X-RateLimit-Global") == "true"
	scope := "route"
	if global {
		scope = "global"
	}
	metrics.RestRateLimited.WithLabelValues(scope).Inc()
	c.sugar.Warnf("Rate limited on %s (%s) for %.3fs", req.bucket(), scope, retryAfter)

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if global {
		c.globalBlocked = until
	} else {
		b, ok := c.buckets[req.bucket()]
		if !ok {
			b = &bucket{}
			c.buckets[req.bucket()] = b
		}
		b.blockedUntil = until
	}

	return newError(req, reply)
}

// backoff waits before the next attempt unless attempt was the last one.
func (c *Client) backoff(ctx context.Context, attempt int) {
	if attempt < c.maxRetries {
		_ = sleep(ctx, retryBackoff<<attempt)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsStatus reports whether err is a rejection with the given status.
func IsStatus(err error, status int) bool {
	var restErr *Error
	return errors.As(err, &restErr) && restErr.Status == status
}
