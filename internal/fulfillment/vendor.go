package fulfillment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// AddressBlock is the four printed lines: name, street, city, state+zip.
type AddressBlock struct {
	Name     string `json:"name"`
	Street   string `json:"street"`
	City     string `json:"city"`
	StateZip string `json:"state_zip"`
}

// PostcardRequest is the exact payload the mail vendor requires. UID is a
// client-chosen unique id the vendor uses for idempotency tracking, and the
// metadata fields come back on the delivery webhook so completions can be
// correlated to a user email.
type PostcardRequest struct {
	Font       string       `json:"font"`
	Message    string       `json:"message"`
	Background string       `json:"background"`
	Recipient  AddressBlock `json:"recipient"`
	Sender     AddressBlock `json:"sender"`
	UID        string       `json:"uid"`
	Metadata   struct {
		RecipientType string `json:"recipient_type"`
		OfficialID    string `json:"official_id"`
	} `json:"metadata"`
}

// Vendor is the postcard-fulfillment boundary. CreatePostcard returns the
// vendor-side order id.
type Vendor interface {
	CreatePostcard(ctx context.Context, req PostcardRequest) (string, error)
}

type httpVendor struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewHTTPVendor(baseURL, apiKey string) Vendor {
	return &httpVendor{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (v *httpVendor) CreatePostcard(ctx context.Context, req PostcardRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+"/v1/postcards", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if v.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+v.apiKey)
	}

	resp, err := v.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("vendor request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("vendor returned %d", resp.StatusCode)
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode vendor response: %w", err)
	}
	return out.ID, nil
}
