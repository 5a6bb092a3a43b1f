package models

type FulfillmentStatus string

const (
	FulfillmentSuccess FulfillmentStatus = "success"
	FulfillmentError   FulfillmentStatus = "error"
)

// FulfillmentResult is one recipient's outcome within one submission
// attempt. Not persisted beyond the attempt; drives the UI and retry logic.
type FulfillmentResult struct {
	RecipientRef  string            `json:"recipient_ref"`
	RecipientType string            `json:"recipient_type"` // "representative" | "senator"
	VendorOrderID string            `json:"vendor_order_id,omitempty"`
	Status        FulfillmentStatus `json:"status"`
	ErrorDetail   string            `json:"error_detail,omitempty"`
}

// BatchResult aggregates per-recipient results for one submission attempt.
// Success is true only when every recipient succeeded.
type BatchResult struct {
	Results   []FulfillmentResult `json:"results"`
	Succeeded int                 `json:"succeeded"`
	Failed    int                 `json:"failed"`
	Success   bool                `json:"success"`
	Reason    string              `json:"reason,omitempty"` // set when no requests were attempted
}
