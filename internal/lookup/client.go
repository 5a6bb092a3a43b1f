// Package lookup resolves a ZIP code to the user's elected officials via the
// civic-data collaborator.
package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"civicpost/internal/models"
)

// OfficialSet is the lookup result: one house representative plus both
// senators for the district.
type OfficialSet struct {
	Representative models.Recipient   `json:"representative"`
	Senators       []models.Recipient `json:"senators"`
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *Client) OfficialsByZip(ctx context.Context, zip string) (*OfficialSet, error) {
	u := fmt.Sprintf("%s/v1/officials?zip=%s", c.baseURL, url.QueryEscape(zip))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lookup request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lookup service returned %d", resp.StatusCode)
	}

	var set OfficialSet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return nil, fmt.Errorf("failed to decode lookup response: %w", err)
	}
	return &set, nil
}
