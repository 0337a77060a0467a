// Package gateway handles all communication with the accounting engine's
// local XML interface: the paced HTTP transport, XML escaping and date
// conversion, the restricted response scanner, the daily-volume profiler
// used to size date-range chunks, and the persisted company-name cache.
//
// The engine is a single-threaded local process; the transport enforces a
// minimum gap between requests so overlapping callers cannot overwhelm it.
// One Client serves one accounting-book session and owns that pacing state.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	bridgeerrors "tallybridge/pkg/errors"
	"tallybridge/pkg/logger"
)

// ClientConfig holds configuration for the engine transport
type ClientConfig struct {
	// Port the engine's XML server listens on
	Port int
	// Timeout for one request/response exchange
	Timeout time.Duration
	// MinRequestGap is the minimum delay between the starts of two
	// consecutive requests
	MinRequestGap time.Duration
}

// DefaultClientConfig returns a configuration with the engine's defaults
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		Port:          9000,
		Timeout:       30 * time.Second,
		MinRequestGap: 1500 * time.Millisecond,
	}
}

// Validate validates the client configuration
func (c *ClientConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid engine port: %d", c.Port)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MinRequestGap < 0 {
		return fmt.Errorf("minimum request gap cannot be negative")
	}
	return nil
}

// Client delivers XML payloads to the engine and returns raw response text.
// It owns the last-request timestamp; pacing is instance state so that one
// process can serve several books, each through its own Client.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	log        logger.Logger

	mu          sync.Mutex
	lastRequest time.Time
}

// NewClient creates a new engine transport client
func NewClient(config *ClientConfig) (*Client, error) {
	if config == nil {
		config = DefaultClientConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, bridgeerrors.ConfigurationError(
			bridgeerrors.CodeInvalidConfig, "client", config, err)
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		log: logger.GetGlobalLogger().WithComponent("gateway"),
	}, nil
}

// Endpoint returns the engine URL this client posts to
func (c *Client) Endpoint() string {
	return fmt.Sprintf("http://localhost:%d", c.config.Port)
}

// Post delivers an XML payload to the engine and returns the response body.
// It first awaits the minimum inter-request gap, measured from the start of
// the previous request, sleeping the caller if the gap has not elapsed.
// Transport failures come back as typed errors; classification into
// user-facing categories is the dispatcher's job.
func (c *Client) Post(ctx context.Context, payload string) (string, error) {
	c.awaitGap(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(),
		strings.NewReader(payload))
	if err != nil {
		return "", bridgeerrors.InternalError(
			bridgeerrors.CodeUnexpectedError, "building engine request", err)
	}
	req.Header.Set("Content-Type", "text/xml;charset=utf-8")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", c.transportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", c.transportError(err)
	}

	c.log.WithFields(logger.Fields{
		"status":   resp.StatusCode,
		"bytes":    len(body),
		"duration": time.Since(started).String(),
	}).Debug("engine request completed")

	if resp.StatusCode != http.StatusOK {
		return "", bridgeerrors.TransportError(
			bridgeerrors.CodeConnectionFailed, c.Endpoint(),
			fmt.Errorf("engine returned HTTP %d", resp.StatusCode))
	}

	return string(body), nil
}

// awaitGap sleeps until the minimum gap since the previous request start
// has elapsed, then records this request's start time
func (c *Client) awaitGap(ctx context.Context) {
	c.mu.Lock()
	wait := c.config.MinRequestGap - time.Since(c.lastRequest)
	if wait > 0 {
		c.mu.Unlock()
		select {
		case <-time.After(wait):
		case <-ctx.Done():
		}
		c.mu.Lock()
	}
	c.lastRequest = time.Now()
	c.mu.Unlock()
}

// transportError maps a raw HTTP client failure to a typed transport error.
// Refused and reset connections are reported as connection_failed here; the
// dispatcher refines them into not-running vs busy using a process probe.
func (c *Client) transportError(err error) error {
	endpoint := c.Endpoint()

	if isTimeout(err) {
		return bridgeerrors.TransportError(bridgeerrors.CodeEngineTimeout, endpoint, err)
	}
	return bridgeerrors.TransportError(bridgeerrors.CodeConnectionFailed, endpoint, err)
}

// isTimeout reports whether the failure is a deadline rather than a refusal
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return strings.Contains(err.Error(), "Client.Timeout exceeded")
}

// IsConnectionRefused reports whether a transport failure was a refused or
// reset connection, as opposed to a timeout or protocol problem
func IsConnectionRefused(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset")
}
