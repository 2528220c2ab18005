// Package similarity is the HTTP client for the external image-similarity
// service that ranks report images against an uploaded photo.
package similarity

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pawdex/pawdex/internal/config"
	"github.com/pawdex/pawdex/internal/domain"
	"github.com/pawdex/pawdex/internal/metrics"
)

// apiKeyHeader is the auth header the similarity service expects.
const apiKeyHeader = "API_KEY"

// Client talks to the similarity service. Every failure wraps
// domain.ErrExternalService so callers can degrade uniformly.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New creates a similarity client with a hard per-request timeout.
func New(cfg config.SimilarityConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSec) * time.Second,
		},
	}
}

type reverseSearchRequest struct {
	Image string   `json:"image"`
	IDs   []string `json:"ids"`
}

type reverseSearchResponse struct {
	Data []string `json:"data"`
}

type saveFeatureRequest struct {
	Filename string `json:"filename"`
}

type removeFeaturesRequest struct {
	IDs []string `json:"ids"`
}

// ReverseSearch ranks candidate report IDs by visual similarity to image.
// The returned slice preserves the service's ranking order.
func (c *Client) ReverseSearch(ctx context.Context, image []byte, ids []string) ([]string, error) {
	var out reverseSearchResponse
	err := c.call(ctx, http.MethodPost, "/reverse-search", reverseSearchRequest{
		Image: base64.StdEncoding.EncodeToString(image),
		IDs:   ids,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Data, nil
}

// SaveFeature asks the service to extract and store the feature vector of a
// report's stored image. The service keys the feature by the value of the
// filename field and ReverseSearch looks candidates up by the same key, so
// the report id is sent.
func (c *Client) SaveFeature(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodPost, "/save-feature", saveFeatureRequest{Filename: id}, nil)
}

// RemoveFeatures drops the stored feature vectors of the given reports.
func (c *Client) RemoveFeatures(ctx context.Context, ids []string) error {
	return c.call(ctx, http.MethodDelete, "/remove-features", removeFeaturesRequest{IDs: ids}, nil)
}

func (c *Client) call(ctx context.Context, method, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%w: marshal %s request: %w", domain.ErrExternalService, path, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build %s request: %w", domain.ErrExternalService, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apiKeyHeader, c.apiKey)

	timer := prometheus.NewTimer(metrics.SimilarityRequestDuration.WithLabelValues(path))
	resp, err := c.http.Do(req)
	timer.ObserveDuration()
	if err != nil {
		metrics.SimilarityRequestsTotal.WithLabelValues(path, "error").Inc()
		return fmt.Errorf("%w: %s: %w", domain.ErrExternalService, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.SimilarityRequestsTotal.WithLabelValues(path, "error").Inc()
		return fmt.Errorf("%w: %s returned status %d", domain.ErrExternalService, path, resp.StatusCode)
	}

	if out != nil {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			metrics.SimilarityRequestsTotal.WithLabelValues(path, "error").Inc()
			return fmt.Errorf("%w: read %s response: %w", domain.ErrExternalService, path, err)
		}
		if err := json.Unmarshal(data, out); err != nil {
			metrics.SimilarityRequestsTotal.WithLabelValues(path, "error").Inc()
			return fmt.Errorf("%w: decode %s response: %w", domain.ErrExternalService, path, err)
		}
	}

	metrics.SimilarityRequestsTotal.WithLabelValues(path, "success").Inc()
	return nil
}
