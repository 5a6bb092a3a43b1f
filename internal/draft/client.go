// Package draft generates a first pass of the user's message through the AI
// drafting collaborator. The user always reviews and edits before paying.
package draft

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		// drafting is the slowest collaborator, give it room
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

type completeRequest struct {
	Prompt    string `json:"prompt"`
	MaxLength int    `json:"max_length"`
}

type completeResponse struct {
	Text string `json:"text"`
}

func (c *Client) Complete(ctx context.Context, prompt string, maxLength int) (string, error) {
	body, err := json.Marshal(completeRequest{Prompt: prompt, MaxLength: maxLength})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/complete", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("draft request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("draft service returned %d", resp.StatusCode)
	}

	var out completeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode draft response: %w", err)
	}
	return out.Text, nil
}
