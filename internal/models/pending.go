package models

import "time"

// PendingOrderSchemaVersion guards rows written by older builds. A row with
// a different version fails validation on read instead of resuming with
// half-understood fields.
const PendingOrderSchemaVersion = 2

type PendingOrderStatus string

const (
	PendingCreated   PendingOrderStatus = "created"
	PendingSubmitted PendingOrderStatus = "submitted"
	PendingRefunded  PendingOrderStatus = "refunded"
)

// PendingOrder is the durable record bridging the redirect boundary: written
// before the user leaves for the hosted payment page, read back on return.
type PendingOrder struct {
	SchemaVersion int                `json:"schema_version"`
	SessionID     string             `json:"session_id"`
	Order         Order              `json:"order"`
	Status        PendingOrderStatus `json:"status"`
	CreatedAt     time.Time          `json:"created_at"`
}
