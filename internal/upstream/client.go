// Package upstream wraps outbound HTTP calls to third-party services with a
// circuit breaker and latency metrics. Every call is a single attempt.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/flood-risk/pkg/logger"
)

var (
	ErrServerError  = errors.New("server error")
	ErrRateLimited  = errors.New("rate limited")
	ErrUnexpected   = errors.New("unexpected status code")
	ErrCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
)

// Observer records per-upstream request outcomes.
type Observer interface {
	ObserveUpstream(upstream, outcome string, elapsed time.Duration)
}

// Client is a named HTTP client guarded by its own circuit breaker.
type Client struct {
	name     string
	client   *http.Client
	circuit  *gobreaker.CircuitBreaker
	observer Observer
}

// New creates a Client. The breaker opens after five consecutive failures
// and probes again after timeout. Calls cancelled by their caller are not
// held against the upstream.
func New(name string, client *http.Client, observer Observer, l *logger.Logger) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    1 * time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: isSuccessful,
		OnStateChange: func(name string, from, to gobreaker.State) {
			if l != nil {
				l.Warning("circuit breaker state changed", map[string]any{
					"upstream": name,
					"from":     from.String(),
					"to":       to.String(),
				})
			}
		},
	})

	return &Client{
		name:     name,
		client:   client,
		circuit:  cb,
		observer: observer,
	}
}

func isSuccessful(err error) bool {
	return err == nil || errors.Is(err, context.Canceled)
}

func (c *Client) Name() string {
	return c.name
}

// Do executes req once. Any response outside 2xx is turned into an error and
// its body is closed; on success the caller owns the body.
// Only transport errors, 429 and 5xx count against the breaker.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.client == nil {
		return nil, errNoHTTPClient
	}

	start := time.Now()

	result, err := c.circuit.Execute(func() (interface{}, error) {
		resp, execErr := c.client.Do(req)
		if execErr != nil {
			return nil, execErr
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			drain(resp)
			return nil, ErrRateLimited
		}
		if resp.StatusCode >= 500 {
			drain(resp)
			return nil, fmt.Errorf("%w: %d", ErrServerError, resp.StatusCode)
		}

		return resp, nil
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.observe("circuit_open", start)
			return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}
		if errors.Is(err, context.Canceled) {
			c.observe("canceled", start)
			return nil, err
		}
		c.observe("error", start)
		return nil, err
	}

	resp, ok := result.(*http.Response)
	if !ok {
		c.observe("error", start)
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		drain(resp)
		c.observe("error", start)
		return nil, fmt.Errorf("%w: %d", ErrUnexpected, resp.StatusCode)
	}

	c.observe("success", start)
	return resp, nil
}

func (c *Client) observe(outcome string, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveUpstream(c.name, outcome, time.Since(start))
	}
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
