package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var ErrSessionNotFound = errors.New("checkout session not found")

// SessionRequest is what we send the hosted-checkout provider to open a
// session. Metadata values are size-bounded by the caller.
type SessionRequest struct {
	CustomerID  string            `json:"customer_id"`
	AmountCents int64             `json:"amount_cents"`
	Currency    string            `json:"currency"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type SessionResponse struct {
	SessionID    string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

// SessionState is the provider's view of a session after the redirect back.
// PaymentStatus and Status are the provider's raw strings; both must match
// their terminal values for a payment to count as captured.
type SessionState struct {
	PaymentStatus string            `json:"payment_status"`
	Status        string            `json:"status"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

const (
	paymentStatusPaid = "paid"
	sessionComplete   = "complete"
)

// Provider is the hosted payment/checkout boundary.
type Provider interface {
	CreateCustomer(ctx context.Context, email, name string) (string, error)
	CreateSession(ctx context.Context, req SessionRequest) (*SessionResponse, error)
	GetSession(ctx context.Context, sessionID string) (*SessionState, error)
	Refund(ctx context.Context, sessionID string) error
}

type httpProvider struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewHTTPProvider(baseURL, apiKey string) Provider {
	return &httpProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *httpProvider) do(ctx context.Context, method, path string, in, out any) error {
	var body *bytes.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return fmt.Errorf("payment provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrSessionNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("payment provider returned %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode provider response: %w", err)
	}
	return nil
}

func (p *httpProvider) CreateCustomer(ctx context.Context, email, name string) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	err := p.do(ctx, http.MethodPost, "/v1/customers", map[string]string{"email": email, "name": name}, &out)
	if err != nil {
		return "", err
	}
	return out.ID, nil
}

func (p *httpProvider) CreateSession(ctx context.Context, req SessionRequest) (*SessionResponse, error) {
	var out SessionResponse
	if err := p.do(ctx, http.MethodPost, "/v1/checkout/sessions", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *httpProvider) GetSession(ctx context.Context, sessionID string) (*SessionState, error) {
	var out SessionState
	if err := p.do(ctx, http.MethodGet, "/v1/checkout/sessions/"+sessionID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *httpProvider) Refund(ctx context.Context, sessionID string) error {
	return p.do(ctx, http.MethodPost, "/v1/checkout/sessions/"+sessionID+"/refund", nil, nil)
}
