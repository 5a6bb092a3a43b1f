package telemetry

import (
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	SessionsCreated  metric.Int64Counter
	PaymentsVerified metric.Int64Counter
	RefundsIssued    metric.Int64Counter

	PostcardsSubmitted metric.Int64Counter
	SubmitAttempts     metric.Int64Counter
	SubmitDuration     metric.Float64Histogram
	OrderValueCents    metric.Int64Histogram

	DeliveriesPublished metric.Int64Counter
	EmailsSent          metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	sessions, err := meter.Int64Counter("checkout_sessions_created_total",
		metric.WithDescription("Total hosted-checkout sessions created"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, err
	}

	verified, err := meter.Int64Counter("payments_verified_total",
		metric.WithDescription("Total payment verification attempts"),
		metric.WithUnit("{verification}"),
	)
	if err != nil {
		return nil, err
	}

	refunds, err := meter.Int64Counter("refunds_issued_total",
		metric.WithDescription("Total refunds issued after fulfillment failure"),
		metric.WithUnit("{refund}"),
	)
	if err != nil {
		return nil, err
	}

	postcards, err := meter.Int64Counter("postcards_submitted_total",
		metric.WithDescription("Total per-recipient postcard orders sent to the vendor"),
		metric.WithUnit("{postcard}"),
	)
	if err != nil {
		return nil, err
	}

	attempts, err := meter.Int64Counter("submit_attempts_total",
		metric.WithDescription("Total order submission attempts, including retries"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	submitDur, err := meter.Float64Histogram("submit_duration_seconds",
		metric.WithDescription("Duration of one full submission batch"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, err
	}

	orderValue, err := meter.Int64Histogram("order_value_cents",
		metric.WithDescription("Charged order value in cents"),
		metric.WithUnit("cents"),
		metric.WithExplicitBucketBoundaries(500, 1000, 1200),
	)
	if err != nil {
		return nil, err
	}

	deliveries, err := meter.Int64Counter("deliveries_published_total",
		metric.WithDescription("Delivery events published to Kafka"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	emails, err := meter.Int64Counter("emails_sent_total",
		metric.WithDescription("Delivery notification emails sent"),
		metric.WithUnit("{email}"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		SessionsCreated:     sessions,
		PaymentsVerified:    verified,
		RefundsIssued:       refunds,
		PostcardsSubmitted:  postcards,
		SubmitAttempts:      attempts,
		SubmitDuration:      submitDur,
		OrderValueCents:     orderValue,
		DeliveriesPublished: deliveries,
		EmailsSent:          emails,
	}, nil
}
