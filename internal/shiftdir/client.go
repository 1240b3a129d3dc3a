package shiftdir

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Client is the contract for the shift-assignment directory, the
// authoritative mapping of employee and date to assigned shifts.
type Client interface {
	GetShifts(ctx context.Context, businessID, employeeID, date string) ([]string, error)
}

// assignmentResponse is the directory's JSON reply.
type assignmentResponse struct {
	ShiftIDs []string `json:"shiftIds"`
}

// HTTPClient talks to the shift directory over HTTP.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// NewHTTPClient builds a directory client with a bounded request timeout.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
	}
}

// GetShifts fetches the shift ids assigned to an employee for a date.
// Errors here are expected to be caught by the caller, which falls back to
// tenant-wide active shifts.
func (c *HTTPClient) GetShifts(ctx context.Context, businessID, employeeID, date string) ([]string, error) {
	q := url.Values{}
	q.Set("businessId", businessID)
	q.Set("employeeId", employeeID)
	q.Set("date", date)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/assignments?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create shift directory request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call shift directory: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("shift directory returned non-successful status code: %d", resp.StatusCode)
	}

	var body assignmentResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode shift directory response: %w", err)
	}

	return body.ShiftIDs, nil
}
