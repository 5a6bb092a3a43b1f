// Package store is the durable side of the checkout flow: billing customers,
// pending orders written before the payment redirect, and submitted postcards
// kept for delivery-webhook correlation.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"civicpost/internal/models"
)

var (
	ErrNotFound = errors.New("store: not found")

	// ErrSchemaVersion means a pending order was written by a different
	// build and must not be resumed.
	ErrSchemaVersion = errors.New("store: pending order schema version mismatch")
)

type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS customers (
	email       TEXT PRIMARY KEY,
	customer_id TEXT NOT NULL,
	name        TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS pending_orders (
	session_id     TEXT PRIMARY KEY,
	schema_version INTEGER NOT NULL,
	payload        TEXT NOT NULL,
	status         TEXT NOT NULL,
	created_at     TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS postcards (
	uid             TEXT PRIMARY KEY,
	session_id      TEXT NOT NULL DEFAULT '',
	email           TEXT NOT NULL,
	official_id     TEXT NOT NULL,
	recipient_type  TEXT NOT NULL,
	vendor_order_id TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMP NOT NULL
);
`

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	// modernc sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent handlers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// CustomerID returns the billing customer id for email, or ErrNotFound.
func (s *Store) CustomerID(ctx context.Context, email string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT customer_id FROM customers WHERE email = ?`, email).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to load customer: %w", err)
	}
	return id, nil
}

func (s *Store) SaveCustomer(ctx context.Context, email, customerID, name string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO customers (email, customer_id, name, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(email) DO UPDATE SET customer_id = excluded.customer_id, name = excluded.name`,
		email, customerID, name, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save customer: %w", err)
	}
	return nil
}

// SavePendingOrder writes the durable record that bridges the payment
// redirect. The order payload is stored as JSON at the current schema
// version.
func (s *Store) SavePendingOrder(ctx context.Context, sessionID string, order models.Order) error {
	payload, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to encode pending order: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO pending_orders (session_id, schema_version, payload, status, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sessionID, models.PendingOrderSchemaVersion, string(payload), string(models.PendingCreated), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save pending order: %w", err)
	}
	return nil
}

// PendingOrder loads and validates the record for sessionID. A schema
// version other than the current one, or an undecodable payload, is reported
// as a typed error so the caller treats it as corrupted state rather than
// resuming on garbage.
func (s *Store) PendingOrder(ctx context.Context, sessionID string) (*models.PendingOrder, error) {
	var (
		version   int
		payload   string
		status    string
		createdAt time.Time
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT schema_version, payload, status, created_at FROM pending_orders WHERE session_id = ?`,
		sessionID).Scan(&version, &payload, &status, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load pending order: %w", err)
	}
	if version != models.PendingOrderSchemaVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrSchemaVersion, version, models.PendingOrderSchemaVersion)
	}

	var order models.Order
	if err := json.Unmarshal([]byte(payload), &order); err != nil {
		return nil, fmt.Errorf("failed to decode pending order: %w", err)
	}

	return &models.PendingOrder{
		SchemaVersion: version,
		SessionID:     sessionID,
		Order:         order,
		Status:        models.PendingOrderStatus(status),
		CreatedAt:     createdAt,
	}, nil
}

func (s *Store) SetPendingOrderStatus(ctx context.Context, sessionID string, status models.PendingOrderStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE pending_orders SET status = ? WHERE session_id = ?`, string(status), sessionID)
	if err != nil {
		return fmt.Errorf("failed to update pending order: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Postcard is the correlation row consulted by the delivery webhook.
type Postcard struct {
	UID           string
	SessionID     string
	Email         string
	OfficialID    string
	RecipientType string
	VendorOrderID string
}

func (s *Store) SavePostcard(ctx context.Context, p Postcard) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO postcards (uid, session_id, email, official_id, recipient_type, vendor_order_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.UID, p.SessionID, p.Email, p.OfficialID, p.RecipientType, p.VendorOrderID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save postcard: %w", err)
	}
	return nil
}

func (s *Store) PostcardByUID(ctx context.Context, uid string) (*Postcard, error) {
	p := Postcard{UID: uid}
	err := s.db.QueryRowContext(ctx,
		`SELECT session_id, email, official_id, recipient_type, vendor_order_id FROM postcards WHERE uid = ?`,
		uid).Scan(&p.SessionID, &p.Email, &p.OfficialID, &p.RecipientType, &p.VendorOrderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load postcard: %w", err)
	}
	return &p, nil
}
