package hourcastsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Hourcast HTTP API client.
type Client struct {
	BaseURL     string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Version represents the API forecast version model (partial).
type Version struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	VersionNumber int    `json:"version_number"`
	IsCurrent     bool   `json:"is_current"`
	CreatedAt     string `json:"created_at"`
}

// Forecast represents the API forecast model (partial). Hours are decimal
// strings to avoid float drift.
type Forecast struct {
	ID              string `json:"id"`
	VersionID       string `json:"version_id"`
	AssignmentID    string `json:"assignment_id"`
	Year            int    `json:"year"`
	Month           int    `json:"month"`
	ForecastedHours string `json:"forecasted_hours"`
	Status          string `json:"status"`
	RowVersion      int64  `json:"row_version"`
}

// HistoryItem represents one change trail entry.
type HistoryItem struct {
	ID         string `json:"id"`
	ChangeType string `json:"change_type"`
	ChangedBy  string `json:"changed_by"`
	ChangedAt  string `json:"changed_at"`
	Comment    string `json:"comment,omitempty"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// PaginatedForecasts wraps list responses with cursors.
type PaginatedForecasts struct {
	Items      []Forecast `json:"items"`
	NextCursor string     `json:"next_cursor"`
}

// CreateVersion creates a what-if version.
func (c *Client) CreateVersion(ctx context.Context, name, versionType string) (Version, error) {
	body := map[string]any{
		"name": name,
		"type": versionType,
	}
	var resp Version
	err := c.do(ctx, http.MethodPost, "forecast-versions", body, &resp)
	return resp, err
}

// CurrentVersion returns the current version, creating a default one server-side if needed.
func (c *Client) CurrentVersion(ctx context.Context) (Version, error) {
	var resp Version
	err := c.do(ctx, http.MethodGet, "forecast-versions/current", nil, &resp)
	return resp, err
}

// PromoteVersion makes a version the current one.
func (c *Client) PromoteVersion(ctx context.Context, id string) (Version, error) {
	var resp Version
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("forecast-versions/%s/promote", url.PathEscape(id)), nil, &resp)
	return resp, err
}

// CreateForecast creates a draft forecast.
func (c *Client) CreateForecast(ctx context.Context, versionID, assignmentID string, year, month int, hours float64) (Forecast, error) {
	body := map[string]any{
		"version_id":       versionID,
		"assignment_id":    assignmentID,
		"year":             year,
		"month":            month,
		"forecasted_hours": hours,
	}
	var resp Forecast
	err := c.do(ctx, http.MethodPost, "forecasts", body, &resp)
	return resp, err
}

// SubmitForecast moves a draft into the approval queue.
func (c *Client) SubmitForecast(ctx context.Context, id string) (Forecast, error) {
	var resp Forecast
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("forecasts/%s/submit", url.PathEscape(id)), nil, &resp)
	return resp, err
}

// ApproveForecast approves a submitted forecast.
func (c *Client) ApproveForecast(ctx context.Context, id, comment string) (Forecast, error) {
	body := map[string]any{"comment": comment}
	var resp Forecast
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("forecasts/%s/approve", url.PathEscape(id)), body, &resp)
	return resp, err
}

// Forecasts returns one page of forecasts for a version.
func (c *Client) Forecasts(ctx context.Context, versionID string, limit int, cursor string) (PaginatedForecasts, error) {
	endpoint := "forecasts?version_id=" + url.QueryEscape(versionID)
	if limit > 0 {
		endpoint = fmt.Sprintf("%s&limit=%d", endpoint, limit)
	}
	if cursor != "" {
		endpoint = fmt.Sprintf("%s&cursor=%s", endpoint, url.QueryEscape(cursor))
	}
	var resp PaginatedForecasts
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// History returns the change trail for a forecast.
func (c *Client) History(ctx context.Context, forecastID string) ([]HistoryItem, error) {
	var resp []HistoryItem
	endpoint := fmt.Sprintf("forecasts/%s/history", url.PathEscape(forecastID))
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/api/v1/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
