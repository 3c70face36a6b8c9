// Package backend is the client for the external analysis service's
// POST /analyze contract.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"guardian/internal/analyzer"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:8000"

// AnalyzePath is the endpoint path appended to the base URL.
const AnalyzePath = "/analyze"

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 1 << 20

// Config configures a Client.
type Config struct {
	BaseURL    string        // Empty means DefaultBaseURL
	Timeout    time.Duration // Zero means no client-side timeout
	RateLimit  float64       // Requests per second, zero means unlimited
	HTTPClient *http.Client  // Optional, replaces the default client
	Logger     *zap.Logger
}

// Client sends analysis requests. It implements analyzer.Scorer.
type Client struct {
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
	logger   *zap.Logger
}

var _ analyzer.Scorer = (*Client)(nil)

// New creates a client for the configured service.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	return &Client{
		endpoint: ResolveBaseURL(cfg.BaseURL) + AnalyzePath,
		client:   httpClient,
		limiter:  limiter,
		logger:   logger,
	}
}

// ResolveBaseURL applies the local-development fallback and trims trailing
// slashes so the endpoint path can be appended.
func ResolveBaseURL(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		base = DefaultBaseURL
	}
	return strings.TrimRight(base, "/")
}

// Endpoint returns the full URL requests are sent to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Analyze posts text to the service and decodes the assessment.
// Failures are returned as *analyzer.TransportError, *analyzer.StatusError or
// *analyzer.MalformedError.
func (c *Client) Analyze(ctx context.Context, text string) (*analyzer.Result, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &analyzer.TransportError{Err: fmt.Errorf("rate limit wait: %w", err)}
		}
	}

	body, err := json.Marshal(analyzeRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	logger := c.logger
	if id, ok := analyzer.AttemptIDFromContext(ctx); ok {
		req.Header.Set("X-Request-ID", id)
		logger = logger.With(zap.String("attempt_id", id))
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		logger.Warn("analyze request failed", zap.Error(err))
		return nil, &analyzer.TransportError{Err: err}
	}
	defer resp.Body.Close()

	logger.Debug("analyze response",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// The body is not part of the failure contract; drain it for reuse.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, &analyzer.StatusError{Code: resp.StatusCode}
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &analyzer.TransportError{Err: fmt.Errorf("failed to read response: %w", err)}
	}

	result, err := decodeResult(resp.StatusCode, payload)
	if err != nil {
		logger.Warn("malformed analyze response", zap.Error(err))
		return nil, err
	}

	if !analyzer.InRange(result.PlagiarismScore) || !analyzer.InRange(result.FakeNewsScore) {
		logger.Warn("score outside 0..1",
			zap.Float64("plagiarism_score", result.PlagiarismScore),
			zap.Float64("fake_news_score", result.FakeNewsScore))
	}
	return result, nil
}

// =============================================================================
// API TYPES
// =============================================================================

type analyzeRequest struct {
	Text string `json:"text"`
}
