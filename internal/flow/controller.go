package flow

import (
	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Controller struct {
	runner *Runner
	log    *zap.Logger
	tracer trace.Tracer
}

func NewController(runner *Runner, log *zap.Logger, tracer trace.Tracer) *Controller {
	return &Controller{runner: runner, log: log, tracer: tracer}
}

// Resume is hit when the user returns from the hosted payment page.
func (ct *Controller) Resume(c *fiber.Ctx) error {
	ctx, span := ct.tracer.Start(c.UserContext(), "Controller.ResumeCheckout",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	sessionID := c.Params("id")
	if sessionID == "" {
		span.SetStatus(codes.Error, "missing session id")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "session id is required"})
	}

	result, err := ct.runner.Resume(ctx, sessionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		ct.log.Error("resume failed", zap.String("session_id", sessionID), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "could not resume checkout, contact support"})
	}

	span.SetStatus(codes.Ok, "")
	return c.JSON(result)
}
