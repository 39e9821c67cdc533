// Package airs is a client for the Palo Alto Networks AI Runtime Security
// synchronous scan API. It submits prompts for threat classification,
// retries transient failures with exponential backoff, and normalizes the
// service's loosely typed response into a scanner.Outcome.
package airs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/promptgate/promptgate/pkg/logging"
	"github.com/promptgate/promptgate/pkg/scanner"
)

const (
	// DefaultEndpoint is the production scan service endpoint.
	DefaultEndpoint = "https://service.api.aisecurity.paloaltonetworks.com"

	// DefaultMaxRetries is how many additional attempts follow a transient
	// failure before the transport gives up.
	DefaultMaxRetries = 3

	// DefaultBaseBackoff is the wait before the first retry; each further
	// retry doubles it.
	DefaultBaseBackoff = time.Second

	// DefaultTimeout bounds each individual scan attempt.
	DefaultTimeout = 30 * time.Second

	scanPath  = "/v1/scan/sync/request"
	userAgent = "promptgate/1.0.0"
)

// Client talks to the AI Runtime Security scan API. It is immutable after
// construction and safe for concurrent use; each scan carries its own
// transaction ID and no state is shared between calls.
type Client struct {
	HTTPClient *http.Client

	endpoint    string
	apiKey      string
	profileName string
	maxRetries  int
	baseBackoff time.Duration
	logger      logging.Logger
}

// Option represents an option for configuring the scan client
type Option func(*Client)

// WithEndpoint overrides the scan service base URL
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.endpoint = strings.TrimRight(endpoint, "/")
	}
}

// WithHTTPClient sets the HTTP client used for scan attempts. Its timeout
// bounds each attempt individually, not the whole retried call.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.HTTPClient = httpClient
	}
}

// WithMaxRetries sets how many additional attempts follow a transient failure
func WithMaxRetries(maxRetries int) Option {
	return func(c *Client) {
		if maxRetries >= 0 {
			c.maxRetries = maxRetries
		}
	}
}

// WithBaseBackoff sets the wait before the first retry; retry n waits
// base * 2^(n-1)
func WithBaseBackoff(base time.Duration) Option {
	return func(c *Client) {
		if base > 0 {
			c.baseBackoff = base
		}
	}
}

// WithLogger sets the logger for the scan client
func WithLogger(logger logging.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a scan client for the given API key and AI security
// profile name.
func NewClient(apiKey, profileName string, options ...Option) *Client {
	client := &Client{
		HTTPClient:  &http.Client{Timeout: DefaultTimeout},
		endpoint:    DefaultEndpoint,
		apiKey:      apiKey,
		profileName: profileName,
		maxRetries:  DefaultMaxRetries,
		baseBackoff: DefaultBaseBackoff,
		logger:      logging.New(),
	}

	for _, option := range options {
		option(client)
	}

	return client
}

// ProfileName returns the AI security profile the client scans against.
func (c *Client) ProfileName() string {
	return c.profileName
}

// Name returns the name of the scanning provider.
func (c *Client) Name() string {
	return "airs"
}

// Scan submits one prompt for synchronous classification and returns the
// normalized outcome. The recorded scan latency spans the whole call,
// backoff waits included. A non-nil error is always a *TransportError (or a
// context error if ctx ended first); a partial result is never returned.
func (c *Client) Scan(ctx context.Context, prompt string) (*scanner.Outcome, error) {
	start := time.Now()

	raw, err := c.ScanRaw(ctx, prompt)
	if err != nil {
		return nil, err
	}

	outcome := Interpret(raw)
	outcome.ScanLatency = time.Since(start)
	return outcome, nil
}

// ScanRaw performs the scan round-trip and returns the service's response
// as-is, retried per the client's budget but not yet interpreted. Transient
// failures retry with exponential backoff; credential and unknown-profile
// failures surface immediately without consuming the retry budget.
func (c *Client) ScanRaw(ctx context.Context, prompt string) (*RawScanResult, error) {
	transactionID := uuid.NewString()
	ctx = logging.WithTransactionID(ctx, transactionID)

	body, err := json.Marshal(scanRequest{
		TransactionID: transactionID,
		AIProfile:     aiProfile{ProfileName: c.profileName},
		Contents:      []scanContent{{Prompt: prompt}},
	})
	if err != nil {
		return nil, &TransportError{Class: FailureTransient, Err: fmt.Errorf("failed to marshal scan request: %w", err)}
	}

	c.logger.Debug(ctx, "Submitting prompt for security scan", map[string]interface{}{
		"profile_name":  c.profileName,
		"prompt_length": len(prompt),
	})

	var result *RawScanResult
	attempt := 0

	operation := func() error {
		attempt++
		raw, err := c.scanOnce(ctx, body)
		if err != nil {
			terr, ok := AsTransportError(err)
			if ok && !terr.Retriable() {
				c.logger.Error(ctx, "Scan failed with non-retriable error", map[string]interface{}{
					"class":   string(terr.Class),
					"attempt": attempt,
					"error":   err.Error(),
				})
				return backoff.Permanent(err)
			}
			return err
		}
		result = raw
		return nil
	}

	notify := func(err error, wait time.Duration) {
		c.logger.Warn(ctx, "Scan attempt failed, retrying", map[string]interface{}{
			"attempt":     attempt,
			"max_retries": c.maxRetries,
			"wait":        wait.String(),
			"error":       err.Error(),
		})
	}

	err = backoff.RetryNotify(operation, c.backOff(ctx), notify)
	if err != nil {
		if terr, ok := AsTransportError(err); ok && terr.Retriable() {
			// The budget ran out; surface the exhaustion, carrying the last
			// failure for callers that want the underlying cause.
			err = &TransportError{Class: FailureRetriesExhausted, StatusCode: terr.StatusCode, Err: terr}
		}
		c.logger.Error(ctx, "Security scan failed", map[string]interface{}{
			"attempts": attempt,
			"error":    err.Error(),
		})
		return nil, err
	}

	if result.TransactionID == "" {
		result.TransactionID = transactionID
	}

	c.logger.Info(ctx, "Security scan completed", map[string]interface{}{
		"attempts": attempt,
		"category": result.Category,
		"action":   result.Action,
	})
	return result, nil
}

// backOff builds the geometric retry schedule: retry n waits
// baseBackoff * 2^(n-1), with no jitter and no overall time cap beyond the
// attempt budget and the caller's context.
func (c *Client) backOff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.baseBackoff
	eb.Multiplier = 2.0
	eb.RandomizationFactor = 0
	eb.MaxInterval = time.Hour
	eb.MaxElapsedTime = 0

	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(c.maxRetries)), ctx)
}

// scanOnce performs exactly one network call. Failures come back classified;
// the caller never inspects status codes.
func (c *Client) scanOnce(ctx context.Context, body []byte) (*RawScanResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+scanPath, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Class: FailureTransient, Err: fmt.Errorf("failed to create scan request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-pan-token", c.apiKey)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &TransportError{Class: FailureTransient, Err: fmt.Errorf("scan request failed: %w", err)}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &TransportError{
			Class:      classifyStatus(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("scan service returned %s: %s", resp.Status, strings.TrimSpace(string(snippet))),
		}
	}

	var result RawScanResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &TransportError{
			Class:      FailureTransient,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("failed to decode scan response: %w", err),
		}
	}

	return &result, nil
}
