package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"civicpost/internal/config"
	"civicpost/internal/email"
	"civicpost/internal/kafka"
	"civicpost/internal/models"
	"civicpost/internal/telemetry"
)

const groupID = "delivery-notifier"

var (
	log     *zap.Logger
	tracer  trace.Tracer
	metrics *telemetry.Metrics
	sender  email.Sender
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		meter    metric.Meter
		shutdown func(context.Context)
		err      error
	)

	log, tracer, meter, shutdown, err = telemetry.Setup(ctx, "delivery-worker")
	if err != nil {
		panic("failed to initialize telemetry: " + err.Error())
	}
	defer shutdown(context.Background())

	metrics, err = telemetry.NewMetrics(meter)
	if err != nil {
		panic("failed to create metrics: " + err.Error())
	}

	sender = email.NewHTTPSender(config.EmailAPIBaseURL(), config.EmailAPIKey())

	broker := config.KafkaBroker()
	topic := config.DeliveryTopic()
	if err := kafka.CreateTopic(ctx, broker, topic, 3, 1); err != nil {
		log.Warn("failed to create delivery topic (may already exist)", zap.Error(err))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutting down delivery-worker...")
		cancel()
	}()

	consumer := kafka.NewConsumer([]string{broker}, topic, groupID)
	defer consumer.Close()

	log.Info("delivery-worker started", zap.String("topic", topic))

	if err := consumer.Listen(ctx, processDelivery); err != nil {
		log.Error("consumer error", zap.Error(err))
	}
}

func processDelivery(ctx context.Context, key, value []byte) error {
	ctx, span := tracer.Start(ctx, "ProcessDelivery",
		trace.WithSpanKind(trace.SpanKindConsumer),
	)
	defer span.End()

	var ev models.DeliveryEvent
	if err := json.Unmarshal(value, &ev); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to unmarshal delivery event")
		// malformed events never heal: log and commit
		log.Error("dropping malformed delivery event", zap.ByteString("value", value), zap.Error(err))
		return nil
	}

	span.SetAttributes(
		attribute.String("delivery.uid", ev.UID),
		attribute.String("delivery.event", ev.Event),
		attribute.String("delivery.recipient_type", ev.RecipientType),
	)

	if ev.Email == "" {
		span.SetStatus(codes.Ok, "")
		log.Warn("delivery event without email, nothing to notify", zap.String("uid", ev.UID))
		return nil
	}

	msg := email.Message{
		To:      ev.Email,
		Subject: subjectFor(ev),
		Body: fmt.Sprintf("Good news! Your postcard to your %s was %s on %s.",
			ev.RecipientType, verbFor(ev.Event), ev.OccurredAt.Format("January 2, 2006")),
	}
	if err := sender.Send(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	metrics.EmailsSent.Add(ctx, 1, metric.WithAttributes(attribute.String("event", ev.Event)))
	span.SetStatus(codes.Ok, "")
	log.Info("delivery notification sent",
		zap.String("uid", ev.UID),
		zap.String("event", ev.Event),
	)
	return nil
}

func subjectFor(ev models.DeliveryEvent) string {
	if ev.Event == "postcard.delivered" {
		return "Your postcard was delivered"
	}
	return "An update on your postcard"
}

func verbFor(event string) string {
	switch event {
	case "postcard.delivered":
		return "delivered"
	case "postcard.mailed":
		return "mailed"
	default:
		return "updated"
	}
}
