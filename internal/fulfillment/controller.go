package fulfillment

import (
	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"civicpost/internal/models"
)

type Controller struct {
	useCase *UseCase
	log     *zap.Logger
	tracer  trace.Tracer
}

func NewController(useCase *UseCase, log *zap.Logger, tracer trace.Tracer) *Controller {
	return &Controller{useCase: useCase, log: log, tracer: tracer}
}

type submitRequest struct {
	SessionID string       `json:"session_id"`
	Order     models.Order `json:"order"`
}

// Submit runs one submission attempt and returns the full per-recipient
// batch. A partial failure is a 200 with success=false, not an error
// status: the client decides whether to retry or refund.
func (ct *Controller) Submit(c *fiber.Ctx) error {
	ctx, span := ct.tracer.Start(c.UserContext(), "Controller.SubmitOrder",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	var req submitRequest
	if err := c.BodyParser(&req); err != nil {
		span.SetStatus(codes.Error, "invalid body")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if req.SessionID == "" {
		span.SetStatus(codes.Error, "session_id is required")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "session_id is required"})
	}

	batch := ct.useCase.Submit(ctx, req.SessionID, req.Order)
	if batch.Reason != "" {
		span.SetStatus(codes.Error, batch.Reason)
		return c.Status(fiber.StatusUnprocessableEntity).JSON(batch)
	}

	span.SetStatus(codes.Ok, "")
	return c.JSON(batch)
}
