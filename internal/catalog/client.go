package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pantherale0/Dispatcharr/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "Dispatcharr/1.0"

	logosPath = "/api/channels/logos/"
)

// Client implements domain.CatalogClient over the catalog service's REST API
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new catalog API client
func NewClient(baseURL, token string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

// doRequest performs an authenticated HTTP request and returns the body
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) ([]byte, error) {
	reqURL := fmt.Sprintf("%s%s", c.baseURL, path)
	if len(query) > 0 {
		reqURL = fmt.Sprintf("%s?%s", reqURL, query.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("catalog request", "method", method, "url", reqURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("catalog request failed", "error", err)
		return nil, domain.ErrServerOffline
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return nil, domain.ErrAuthFailed
	case http.StatusNotFound:
		return nil, domain.ErrLogoNotFound
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		c.logger.Error("catalog request error", "status", resp.StatusCode, "body", string(respBody))
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return respBody, nil
}

// filterQuery returns the query parameters for a list filter
func filterQuery(filter domain.ListFilter) url.Values {
	query := url.Values{}
	switch filter {
	case domain.FilterUsed:
		query.Set("used", "true")
	case domain.FilterChannelAssignable:
		query.Set("channel_assignable", "true")
	}
	return query
}

// List returns one page of logos matching the filter.
// Returns (items, totalCount, error).
func (c *Client) List(ctx context.Context, filter domain.ListFilter, offset, limit int) ([]domain.Logo, int, error) {
	query := filterQuery(filter)
	if limit > 0 {
		query.Set("page", strconv.Itoa(offset/limit+1))
		query.Set("page_size", strconv.Itoa(limit))
	}

	body, err := c.doRequest(ctx, http.MethodGet, logosPath, query, nil)
	if err != nil {
		return nil, 0, err
	}

	var page pageDTO
	if err := json.Unmarshal(body, &page); err != nil {
		c.logger.Error("JSON parse error", "error", err, "bodyLen", len(body))
		return nil, 0, fmt.Errorf("failed to parse response: %w", err)
	}

	return mapLogos(page.Results), page.Count, nil
}

// ListAll returns every logo matching the filter in one unpaginated call
func (c *Client) ListAll(ctx context.Context, filter domain.ListFilter) ([]domain.Logo, error) {
	query := filterQuery(filter)
	query.Set("no_pagination", "true")

	body, err := c.doRequest(ctx, http.MethodGet, logosPath, query, nil)
	if err != nil {
		return nil, err
	}

	// Unpaginated responses are a bare array
	var dtos []logoDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		c.logger.Error("JSON parse error", "error", err, "bodyLen", len(body))
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return mapLogos(dtos), nil
}

// GetByIDs returns the subset of the given ids that exist server-side
func (c *Client) GetByIDs(ctx context.Context, ids []int64) ([]domain.Logo, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}

	query := url.Values{}
	query.Set("ids", strings.Join(parts, ","))
	query.Set("no_pagination", "true")

	body, err := c.doRequest(ctx, http.MethodGet, logosPath, query, nil)
	if err != nil {
		return nil, err
	}

	var dtos []logoDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return mapLogos(dtos), nil
}

// Create creates a logo; the server assigns the ID
func (c *Client) Create(ctx context.Context, name, logoURL string) (*domain.Logo, error) {
	payload, err := json.Marshal(createDTO{Name: name, URL: logoURL})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	body, err := c.doRequest(ctx, http.MethodPost, logosPath, nil, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	var dto logoDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	logo := mapLogo(dto)
	return &logo, nil
}

// Update applies a partial update and returns the updated record
func (c *Client) Update(ctx context.Context, id int64, update domain.LogoUpdate) (*domain.Logo, error) {
	payload, err := json.Marshal(update)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	path := fmt.Sprintf("%s%d/", logosPath, id)
	body, err := c.doRequest(ctx, http.MethodPatch, path, nil, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	var dto logoDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	logo := mapLogo(dto)
	return &logo, nil
}

// Delete removes a logo from the catalog
func (c *Client) Delete(ctx context.Context, id int64) error {
	path := fmt.Sprintf("%s%d/", logosPath, id)
	_, err := c.doRequest(ctx, http.MethodDelete, path, nil, nil)
	return err
}
