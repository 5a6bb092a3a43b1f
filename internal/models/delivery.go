package models

import "time"

// DeliveryEvent is published to Kafka when the fulfillment vendor reports
// progress on a postcard. The uid is the client-chosen id sent with the
// original vendor order; email and official fields come from the stored
// postcard row, not from the vendor payload.
type DeliveryEvent struct {
	UID           string    `json:"uid"`
	Event         string    `json:"event"` // e.g. "postcard.delivered"
	Email         string    `json:"email"`
	OfficialID    string    `json:"official_id"`
	RecipientType string    `json:"recipient_type"`
	OccurredAt    time.Time `json:"occurred_at"`
}
