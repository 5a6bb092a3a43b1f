package lookup

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"civicpost/internal/address"
)

// Source is what the controller needs from the civic-data client.
type Source interface {
	OfficialsByZip(ctx context.Context, zip string) (*OfficialSet, error)
}

type Controller struct {
	source Source
	log    *zap.Logger
	tracer trace.Tracer
}

func NewController(source Source, log *zap.Logger, tracer trace.Tracer) *Controller {
	return &Controller{source: source, log: log, tracer: tracer}
}

func (ct *Controller) ByZip(c *fiber.Ctx) error {
	ctx, span := ct.tracer.Start(c.UserContext(), "Controller.LookupOfficials",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	zip := c.Query("zip")
	if !address.ValidZip(zip) {
		span.SetStatus(codes.Error, "invalid zip")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "zip must be 5 digits"})
	}
	span.SetAttributes(attribute.String("lookup.zip", zip))

	set, err := ct.source.OfficialsByZip(ctx, zip)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		ct.log.Error("officials lookup failed", zap.String("zip", zip), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "could not look up representatives right now"})
	}

	span.SetStatus(codes.Ok, "")
	return c.JSON(set)
}
