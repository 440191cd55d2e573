// Package client provides the upstream HTTP client for the chat-completion API.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"scene-proxy-go/internal/config"
	"scene-proxy-go/internal/metrics"
	"scene-proxy-go/internal/model"
)

const userAgent = "scene-proxy-go/1.0"

// maxResponseBytes bounds how much of an upstream body is read into memory.
const maxResponseBytes = 32 * 1024 * 1024

// OpenAIClient posts chat-completion payloads to the upstream API.
type OpenAIClient struct {
	httpClient *http.Client
	url        string
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewOpenAIClient creates an OpenAIClient with connection pooling and the
// configured request timeout. The timeout bounds the whole call including
// reading the body; on expiry Post returns an error rather than hanging.
// The metrics parameter is optional; pass nil to disable upstream metrics recording.
func NewOpenAIClient(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *OpenAIClient {
	transport := &http.Transport{
		MaxIdleConns:        cfg.Upstream.IdleConnections,
		MaxIdleConnsPerHost: cfg.Upstream.IdleConnections,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &OpenAIClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second,
		},
		url:     cfg.Upstream.URL,
		logger:  logger.With("component", "openai_client"),
		metrics: m,
	}
}

// Post sends payload as a JSON POST with bearer auth and returns the
// fully-read response. A non-2xx status is not an error here; the caller
// classifies it. The apiKey is placed in the Authorization header only and
// never logged.
func (c *OpenAIClient) Post(ctx context.Context, apiKey string, payload []byte) (*model.UpstreamResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug("upstream request", "url", c.url, "bytes", len(payload))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start).Seconds()

	if err != nil {
		if c.metrics != nil {
			c.metrics.UpstreamDuration.WithLabelValues("error").Observe(duration)
		}
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if c.metrics != nil {
		c.metrics.UpstreamDuration.WithLabelValues("ok").Observe(duration)
		c.metrics.UpstreamResponses.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read upstream response: %w", err)
	}

	return &model.UpstreamResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}
