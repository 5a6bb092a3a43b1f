package models

import "time"

type SessionStatus string

const (
	SessionCreated SessionStatus = "created"
	SessionPaid    SessionStatus = "paid"
	SessionFailed  SessionStatus = "failed"
)

// PaymentSession mirrors a hosted-checkout session at the provider.
// Status transitions to "paid" only through verification, never client-side.
type PaymentSession struct {
	SessionID    string        `json:"session_id"`
	ClientSecret string        `json:"client_secret"`
	CustomerID   string        `json:"customer_id"`
	AmountCents  int64         `json:"amount_cents"`
	Status       SessionStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
}

// Verification is the outcome of looking a session up after the redirect
// back from the hosted payment page. Raw provider statuses ride along for
// diagnostics when Verified is false.
type Verification struct {
	Verified      bool   `json:"verified"`
	PaymentStatus string `json:"payment_status"`
	SessionState  string `json:"session_state"`
	PendingOrder  *Order `json:"pending_order,omitempty"`
}
