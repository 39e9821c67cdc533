package airs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptgate/promptgate/pkg/logging"
	"github.com/promptgate/promptgate/pkg/scanner"
)

func newTestClient(serverURL string, options ...Option) *Client {
	base := []Option{
		WithEndpoint(serverURL),
		WithLogger(logging.Noop()),
		WithBaseBackoff(time.Millisecond),
	}
	return NewClient("test-api-key", "test-profile", append(base, options...)...)
}

func TestScanRequestShape(t *testing.T) {
	var captured scanRequest
	var headers http.Header

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/scan/sync/request", r.URL.Path)
		headers = r.Header.Clone()

		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"category": "benign",
			"action":   "allow",
			"tr_id":    captured.TransactionID,
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	outcome, err := client.Scan(context.Background(), "hello there")
	require.NoError(t, err)

	assert.Equal(t, "application/json", headers.Get("Content-Type"))
	assert.Equal(t, "application/json", headers.Get("Accept"))
	assert.Equal(t, "test-api-key", headers.Get("x-pan-token"))
	assert.Equal(t, userAgent, headers.Get("User-Agent"))

	assert.Equal(t, "test-profile", captured.AIProfile.ProfileName)
	require.Len(t, captured.Contents, 1)
	assert.Equal(t, "hello there", captured.Contents[0].Prompt)

	_, err = uuid.Parse(captured.TransactionID)
	assert.NoError(t, err, "tr_id should be a valid UUID")

	assert.Equal(t, scanner.CategoryBenign, outcome.Category)
	assert.Equal(t, scanner.ActionAllow, outcome.Action)
	assert.Equal(t, captured.TransactionID, outcome.TransactionID)
}

func TestScanRetriesTransientFailures(t *testing.T) {
	var attempts atomic.Int32
	var mu sync.Mutex
	var transactionIDs []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req scanRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		mu.Lock()
		transactionIDs = append(transactionIDs, req.TransactionID)
		mu.Unlock()

		if attempts.Add(1) <= 2 {
			http.Error(w, "upstream unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"category":"benign","action":"allow"}`))
	}))
	defer server.Close()

	start := time.Now()
	client := newTestClient(server.URL, WithMaxRetries(3), WithBaseBackoff(10*time.Millisecond))
	outcome, err := client.Scan(context.Background(), "retry me")
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, scanner.CategoryBenign, outcome.Category)
	assert.Equal(t, int32(3), attempts.Load())

	// Waits double: 10ms before the second attempt, 20ms before the third.
	assert.GreaterOrEqual(t, elapsed, 30*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, transactionIDs, 3)
	assert.Equal(t, transactionIDs[0], transactionIDs[1], "retries should reuse the transaction ID")
	assert.Equal(t, transactionIDs[0], transactionIDs[2], "retries should reuse the transaction ID")
}

func TestScanAuthFailureDoesNotRetry(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		http.Error(w, "invalid token", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(server.URL, WithMaxRetries(3))
	_, err := client.Scan(context.Background(), "who am i")
	require.Error(t, err)

	terr, ok := AsTransportError(err)
	require.True(t, ok)
	assert.Equal(t, FailureAuth, terr.Class)
	assert.Equal(t, http.StatusUnauthorized, terr.StatusCode)
	assert.False(t, terr.Retriable())
	assert.Equal(t, int32(1), attempts.Load(), "credential failures should not be retried")
}

func TestScanUnknownProfileDoesNotRetry(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		http.Error(w, "profile not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server.URL, WithMaxRetries(3))
	_, err := client.Scan(context.Background(), "anything")
	require.Error(t, err)

	terr, ok := AsTransportError(err)
	require.True(t, ok)
	assert.Equal(t, FailureProfileNotFound, terr.Class)
	assert.Equal(t, int32(1), attempts.Load(), "unknown-profile failures should not be retried")
}

func TestScanExhaustsRetryBudget(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		http.Error(w, "still broken", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL, WithMaxRetries(2))
	_, err := client.Scan(context.Background(), "doomed")
	require.Error(t, err)

	terr, ok := AsTransportError(err)
	require.True(t, ok)
	assert.Equal(t, FailureRetriesExhausted, terr.Class)
	assert.Equal(t, http.StatusInternalServerError, terr.StatusCode)
	assert.Equal(t, int32(3), attempts.Load(), "two retries means three attempts")

	// The exhaustion error carries the last transient failure.
	last, ok := AsTransportError(terr.Err)
	require.True(t, ok)
	assert.Equal(t, FailureTransient, last.Class)
}

func TestScanRetriesMalformedResponse(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if attempts.Add(1) == 1 {
			_, _ = w.Write([]byte(`{"category": "ben`))
			return
		}
		_, _ = w.Write([]byte(`{"category":"benign","action":"allow"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, WithMaxRetries(3))
	outcome, err := client.Scan(context.Background(), "truncated once")
	require.NoError(t, err)
	assert.Equal(t, scanner.CategoryBenign, outcome.Category)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestScanContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "try later", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	client := newTestClient(server.URL, WithMaxRetries(10), WithBaseBackoff(time.Second))
	start := time.Now()
	_, err := client.Scan(ctx, "cancelled mid-backoff")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second, "cancellation should cut the backoff wait short")
}

func TestScanBackfillsTransactionID(t *testing.T) {
	var sent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req scanRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		sent = req.TransactionID

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"category":"benign","action":"allow"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	outcome, err := client.Scan(context.Background(), "no echo")
	require.NoError(t, err)
	assert.Equal(t, sent, outcome.TransactionID, "outcome should carry the submitted transaction ID when the service omits it")
}

func TestScanRecordsLatency(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(5 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"category":"benign","action":"allow"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	outcome, err := client.Scan(context.Background(), "time me")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, outcome.ScanLatency, 5*time.Millisecond)
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient("key", "profile")
	assert.Equal(t, DefaultEndpoint, client.endpoint)
	assert.Equal(t, DefaultMaxRetries, client.maxRetries)
	assert.Equal(t, DefaultBaseBackoff, client.baseBackoff)
	assert.Equal(t, DefaultTimeout, client.HTTPClient.Timeout)
	assert.Equal(t, "profile", client.ProfileName())
	assert.Equal(t, "airs", client.Name())
}
