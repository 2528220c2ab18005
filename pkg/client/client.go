// Package client is a Go client for the pawdex HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// Client talks to a pawdex API server.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// New creates a Client for the given base URL (scheme://host[:port]).
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("pawdex: base URL required")
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Point is a geographic coordinate pair in degrees.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Images holds the derived rendition filenames of a report.
type Images struct {
	Thumbnail string `json:"thumbnail"`
	Medium    string `json:"medium"`
	Large     string `json:"large"`
}

// Report is one lost/found pet report as returned by the API.
type Report struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	City        string    `json:"city"`
	Description string    `json:"description"`
	Phone       string    `json:"phone"`
	GPSLocation Point     `json:"gpsLocation"`
	Images      Images    `json:"images"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Pagination is the listing page envelope.
type Pagination struct {
	Total   int  `json:"total"`
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	Pages   int  `json:"pages"`
	HasNext bool `json:"hasNext"`
	HasPrev bool `json:"hasPrev"`
	Showing int  `json:"showing"`
}

// CreateReportRequest is the ingest payload.
type CreateReportRequest struct {
	City        string
	Description string
	Phone       string
	Type        string // LOST or FOUND
	GPSLocation Point
	Image       []byte
}

// CreateReportResponse is the ingest outcome.
type CreateReportResponse struct {
	Search             Report   `json:"search"`
	PossibleDuplicates []Report `json:"possibleDuplicates"`
}

// ListParams filter a report listing. Zero values are omitted.
type ListParams struct {
	City      string
	Type      string
	DateFrom  time.Time
	DateTo    time.Time
	Page      int
	Limit     int
	SortOrder string // asc or desc
}

// ListResponse is one listing page.
type ListResponse struct {
	Searches   []Report   `json:"searches"`
	Pagination Pagination `json:"pagination"`
}

// ReverseSearchResponse is a reverse image search outcome. SearchMethod is
// "ai_similarity" when the similarity service ranked the page and
// "city_fallback" when the server degraded to a plain city listing.
type ReverseSearchResponse struct {
	Searches     []Report   `json:"searches"`
	Pagination   Pagination `json:"pagination"`
	SearchMethod string     `json:"searchMethod"`
	HasAIResults bool       `json:"hasAIResults"`
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pawdex: %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// CreateReport submits a new lost/found report with its photo.
func (c *Client) CreateReport(ctx context.Context, req CreateReportRequest) (CreateReportResponse, error) {
	gps, err := json.Marshal(req.GPSLocation)
	if err != nil {
		return CreateReportResponse{}, fmt.Errorf("pawdex: encode gpsLocation: %w", err)
	}

	fields := map[string]string{
		"city":        req.City,
		"description": req.Description,
		"phone":       req.Phone,
		"type":        req.Type,
		"gpsLocation": string(gps),
	}
	body, contentType, err := multipartBody(fields, req.Image)
	if err != nil {
		return CreateReportResponse{}, err
	}

	var resp CreateReportResponse
	if err := c.do(ctx, http.MethodPost, "/api/search", contentType, body, &resp); err != nil {
		return CreateReportResponse{}, err
	}
	return resp, nil
}

// ListReports fetches one page of the report listing.
func (c *Client) ListReports(ctx context.Context, params ListParams) (ListResponse, error) {
	q := url.Values{}
	if params.City != "" {
		q.Set("city", params.City)
	}
	if params.Type != "" {
		q.Set("type", params.Type)
	}
	if !params.DateFrom.IsZero() {
		q.Set("dateFrom", params.DateFrom.UTC().Format(time.RFC3339))
	}
	if !params.DateTo.IsZero() {
		q.Set("dateTo", params.DateTo.UTC().Format(time.RFC3339))
	}
	if params.Page > 0 {
		q.Set("page", strconv.Itoa(params.Page))
	}
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.SortOrder != "" {
		q.Set("sortOrder", params.SortOrder)
	}

	path := "/api/search"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp ListResponse
	if err := c.do(ctx, http.MethodGet, path, "", nil, &resp); err != nil {
		return ListResponse{}, err
	}
	return resp, nil
}

// ReverseSearch finds reports visually similar to the given photo within a city.
func (c *Client) ReverseSearch(ctx context.Context, city string, image []byte) (ReverseSearchResponse, error) {
	body, contentType, err := multipartBody(map[string]string{"city": city}, image)
	if err != nil {
		return ReverseSearchResponse{}, err
	}

	var resp ReverseSearchResponse
	if err := c.do(ctx, http.MethodPost, "/api/search/reverse-search", contentType, body, &resp); err != nil {
		return ReverseSearchResponse{}, err
	}
	return resp, nil
}

func multipartBody(fields map[string]string, image []byte) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("pawdex: write field %s: %w", k, err)
		}
	}
	if image != nil {
		fw, err := w.CreateFormFile("image", "image.jpg")
		if err != nil {
			return nil, "", fmt.Errorf("pawdex: create image part: %w", err)
		}
		if _, err := fw.Write(image); err != nil {
			return nil, "", fmt.Errorf("pawdex: write image part: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("pawdex: close multipart body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body *bytes.Buffer, out any) error {
	var reader io.Reader
	if body != nil {
		reader = body
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("pawdex: build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("pawdex: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("pawdex: decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || json.Unmarshal(data, apiErr) != nil || apiErr.Code == "" {
		apiErr.Code = "unknown"
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
