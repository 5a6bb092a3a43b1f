// Package config reads service configuration from the environment with code
// defaults, one getenv helper per knob.
package config

import "os"

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func ListenAddr() string    { return getenv("LISTEN_ADDR", ":8080") }
func KafkaBroker() string   { return getenv("KAFKA_BROKER", "localhost:9092") }
func DBPath() string        { return getenv("DB_PATH", "civicpost.db") }
func OTLPEndpoint() string  { return getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317") }
func DeliveryTopic() string { return getenv("DELIVERY_TOPIC", "deliveries") }

// External collaborators. Keys default empty; the clients send them only
// when set, which keeps local runs against stubs simple.

func CivicAPIBaseURL() string { return getenv("CIVIC_API_URL", "https://civic.example.com") }
func CivicAPIKey() string     { return getenv("CIVIC_API_KEY", "") }

func DraftAPIBaseURL() string { return getenv("DRAFT_API_URL", "https://draft.example.com") }
func DraftAPIKey() string     { return getenv("DRAFT_API_KEY", "") }

func PaymentAPIBaseURL() string { return getenv("PAYMENT_API_URL", "https://pay.example.com") }
func PaymentAPIKey() string     { return getenv("PAYMENT_API_KEY", "") }

func VendorAPIBaseURL() string { return getenv("VENDOR_API_URL", "https://mail.example.com") }
func VendorAPIKey() string     { return getenv("VENDOR_API_KEY", "") }

func EmailAPIBaseURL() string { return getenv("EMAIL_API_URL", "https://email.example.com") }
func EmailAPIKey() string     { return getenv("EMAIL_API_KEY", "") }
