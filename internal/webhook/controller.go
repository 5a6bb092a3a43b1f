// Package webhook receives delivery notifications from the mail vendor and
// turns them into Kafka events for the delivery worker.
package webhook

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"civicpost/internal/kafka"
	"civicpost/internal/models"
	"civicpost/internal/store"
	"civicpost/internal/telemetry"
)

type Controller struct {
	store    *store.Store
	producer *kafka.Producer
	metrics  *telemetry.Metrics
	log      *zap.Logger
	tracer   trace.Tracer
}

func NewController(st *store.Store, producer *kafka.Producer, metrics *telemetry.Metrics, log *zap.Logger, tracer trace.Tracer) *Controller {
	return &Controller{store: st, producer: producer, metrics: metrics, log: log, tracer: tracer}
}

type vendorEvent struct {
	UID      string `json:"uid"`
	Event    string `json:"event"`
	Metadata struct {
		RecipientType string `json:"recipient_type"`
		OfficialID    string `json:"official_id"`
	} `json:"metadata"`
}

// Deliver correlates the vendor's uid back to the stored postcard row and
// publishes a delivery event. Unknown uids are acked and dropped: the vendor
// retrying them would never resolve anything.
func (ct *Controller) Deliver(c *fiber.Ctx) error {
	ctx, span := ct.tracer.Start(c.UserContext(), "Controller.DeliveryWebhook",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	var ev vendorEvent
	if err := c.BodyParser(&ev); err != nil {
		span.SetStatus(codes.Error, "invalid body")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if ev.UID == "" || ev.Event == "" {
		span.SetStatus(codes.Error, "uid and event are required")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "uid and event are required"})
	}
	span.SetAttributes(
		attribute.String("webhook.uid", ev.UID),
		attribute.String("webhook.event", ev.Event),
	)

	card, err := ct.store.PostcardByUID(ctx, ev.UID)
	if errors.Is(err, store.ErrNotFound) {
		span.SetStatus(codes.Error, "unknown uid")
		ct.log.Warn("delivery webhook for unknown postcard", zap.String("uid", ev.UID))
		return c.SendStatus(fiber.StatusOK)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		ct.log.Error("failed to load postcard for webhook", zap.String("uid", ev.UID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}

	event := models.DeliveryEvent{
		UID:           ev.UID,
		Event:         ev.Event,
		Email:         card.Email,
		OfficialID:    card.OfficialID,
		RecipientType: card.RecipientType,
		OccurredAt:    time.Now(),
	}
	if err := ct.producer.Publish(ctx, ev.UID, event); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		ct.log.Error("failed to publish delivery event", zap.String("uid", ev.UID), zap.Error(err))
		// 500 so the vendor retries the webhook
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}

	ct.metrics.DeliveriesPublished.Add(ctx, 1, metric.WithAttributes(attribute.String("event", ev.Event)))
	span.SetStatus(codes.Ok, "")
	return c.SendStatus(fiber.StatusOK)
}
