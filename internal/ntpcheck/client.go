// Package ntpcheck cross-checks the GNSS-disciplined clock against public
// NTP servers. The receiver stays the time source of record; NTP only
// provides an independent sanity bound on the derived UTC.
package ntpcheck

import (
	"context"
	"fmt"
	"time"

	"github.com/beevik/ntp"

	"github.com/batuhanky/gnss-timesync/pkg/logger"
)

// Querier performs a single NTP query.
type Querier interface {
	Query(ctx context.Context, server string) (*Response, error)
}

// Response represents an NTP query response
type Response struct {
	Server  string
	Offset  time.Duration
	RTT     time.Duration
	Stratum uint8
	Time    time.Time
}

// Client is a rate-limited NTP client
type Client struct {
	timeout     time.Duration
	version     int
	rateLimiter *RateLimiter
}

// NewClient creates a new NTP client without rate limiting
func NewClient(timeout time.Duration, version int) *Client {
	return &Client{
		timeout:     timeout,
		version:     version,
		rateLimiter: nil,
	}
}

// NewClientWithRateLimit creates a new NTP client with rate limiting enabled
func NewClientWithRateLimit(timeout time.Duration, version, queriesPerMinute, burstSize int) *Client {
	var limiter *RateLimiter
	if queriesPerMinute > 0 {
		limiter = NewRateLimiter(queriesPerMinute, burstSize)
	}

	return &Client{
		timeout:     timeout,
		version:     version,
		rateLimiter: limiter,
	}
}

// Query performs a single NTP query to the specified server
func (c *Client) Query(ctx context.Context, server string) (*Response, error) {
	// Apply rate limiting if enabled
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx, server); err != nil {
			return nil, fmt.Errorf("rate limit exceeded: %w", err)
		}
	}

	opts := ntp.QueryOptions{
		Timeout: c.timeout,
		Version: c.version,
	}

	// Structure to encapsulate the result
	type queryResult struct {
		response *ntp.Response
		err      error
	}

	// Buffered channel to prevent goroutine leak
	resultChan := make(chan queryResult, 1)

	go func() {
		resp, err := ntp.QueryWithOptions(server, opts)
		// Non-blocking write thanks to buffer
		resultChan <- queryResult{response: resp, err: err}
	}()

	select {
	case <-ctx.Done():
		// The goroutine will finish and write to the buffered channel
		return nil, fmt.Errorf("query context cancelled: %w", ctx.Err())
	case result := <-resultChan:
		if result.err != nil {
			logger.DebugFields("ntpcheck", "NTP query failed", map[string]interface{}{
				"server": server,
				"error":  result.err.Error(),
			})
			return nil, fmt.Errorf("ntp query to %s failed: %w", server, result.err)
		}

		if err := result.response.Validate(); err != nil {
			logger.WarnFields("ntpcheck", "NTP response validation failed", map[string]interface{}{
				"server": server,
				"error":  err.Error(),
			})
		}

		resp := &Response{
			Server:  server,
			Offset:  result.response.ClockOffset,
			RTT:     result.response.RTT,
			Stratum: result.response.Stratum,
			Time:    result.response.Time,
		}

		logger.DebugFields("ntpcheck", "NTP query successful", map[string]interface{}{
			"server":  server,
			"offset":  resp.Offset.Seconds(),
			"rtt":     resp.RTT.Seconds(),
			"stratum": resp.Stratum,
		})

		return resp, nil
	}
}
