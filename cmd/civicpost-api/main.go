package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"civicpost/internal/checkout"
	"civicpost/internal/config"
	"civicpost/internal/draft"
	"civicpost/internal/flow"
	"civicpost/internal/fulfillment"
	"civicpost/internal/kafka"
	"civicpost/internal/lookup"
	"civicpost/internal/store"
	"civicpost/internal/telemetry"
	"civicpost/internal/webhook"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log, tracer, meter, shutdown, err := telemetry.Setup(ctx, "civicpost-api")
	if err != nil {
		panic("failed to initialize telemetry: " + err.Error())
	}
	defer shutdown(context.Background())

	metrics, err := telemetry.NewMetrics(meter)
	if err != nil {
		panic("failed to create metrics: " + err.Error())
	}

	st, err := store.Open(config.DBPath())
	if err != nil {
		log.Fatal("failed to open store", zap.Error(err))
	}
	defer st.Close()

	broker := config.KafkaBroker()
	topic := config.DeliveryTopic()
	if err := kafka.CreateTopic(ctx, broker, topic, 3, 1); err != nil {
		log.Warn("failed to create delivery topic (may already exist)", zap.Error(err))
	}

	producer := kafka.NewProducer([]string{broker}, topic)
	defer producer.Close()

	lookupCtrl := lookup.NewController(
		lookup.NewClient(config.CivicAPIBaseURL(), config.CivicAPIKey()), log, tracer)
	draftCtrl := draft.NewController(
		draft.NewClient(config.DraftAPIBaseURL(), config.DraftAPIKey()), log, tracer)

	provider := checkout.NewHTTPProvider(config.PaymentAPIBaseURL(), config.PaymentAPIKey())
	checkoutUC := checkout.NewUseCase(provider, st, metrics, log, tracer)
	checkoutCtrl := checkout.NewController(checkoutUC, log, tracer)

	vendor := fulfillment.NewHTTPVendor(config.VendorAPIBaseURL(), config.VendorAPIKey())
	fulfillUC := fulfillment.NewUseCase(vendor, st, metrics, log, tracer)
	fulfillCtrl := fulfillment.NewController(fulfillUC, log, tracer)

	runner := flow.NewRunner(checkoutUC, fulfillUC, log, tracer)
	flowCtrl := flow.NewController(runner, log, tracer)

	webhookCtrl := webhook.NewController(st, producer, metrics, log, tracer)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(otelfiber.Middleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/representatives", lookupCtrl.ByZip)
	app.Post("/drafts", draftCtrl.Create)
	app.Post("/checkout/sessions", checkoutCtrl.Create)
	app.Get("/checkout/sessions/:id/verify", checkoutCtrl.Verify)
	app.Post("/checkout/sessions/:id/resume", flowCtrl.Resume)
	app.Post("/checkout/sessions/:id/refund", checkoutCtrl.Refund)
	app.Post("/orders/submit", fulfillCtrl.Submit)
	app.Post("/webhooks/delivery", webhookCtrl.Deliver)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutting down civicpost-api...")
		_ = app.Shutdown()
		cancel()
	}()

	addr := config.ListenAddr()
	log.Info("civicpost-api listening", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Error("server error", zap.Error(err))
	}
}
