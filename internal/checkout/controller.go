package checkout

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"civicpost/internal/models"
	"civicpost/internal/pricing"
)

type Controller struct {
	useCase *UseCase
	log     *zap.Logger
	tracer  trace.Tracer
}

func NewController(useCase *UseCase, log *zap.Logger, tracer trace.Tracer) *Controller {
	return &Controller{useCase: useCase, log: log, tracer: tracer}
}

type createSessionRequest struct {
	Email    string       `json:"email"`
	FullName string       `json:"full_name"`
	Order    models.Order `json:"order"`
}

func (ct *Controller) Create(c *fiber.Ctx) error {
	ctx, span := ct.tracer.Start(c.UserContext(), "Controller.CreateSession",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	var req createSessionRequest
	if err := c.BodyParser(&req); err != nil {
		span.SetStatus(codes.Error, "invalid body")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if req.Email == "" || req.FullName == "" {
		span.SetStatus(codes.Error, "missing required fields")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "email and full_name are required"})
	}
	req.Order.Email = req.Email
	req.Order.SenderName = req.FullName

	session, err := ct.useCase.CreateSession(ctx, CreateSessionInput{
		Email:    req.Email,
		FullName: req.FullName,
		Order:    req.Order,
	})
	if err != nil {
		if errors.Is(err, pricing.ErrUnknownSendOption) {
			span.SetStatus(codes.Error, "unknown send option")
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown send option"})
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		ct.log.Error("failed to create checkout session", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "payment is unavailable right now"})
	}

	span.SetStatus(codes.Ok, "")
	return c.Status(fiber.StatusCreated).JSON(session)
}

func (ct *Controller) Verify(c *fiber.Ctx) error {
	ctx, span := ct.tracer.Start(c.UserContext(), "Controller.VerifySession",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	sessionID := c.Params("id")
	if sessionID == "" {
		span.SetStatus(codes.Error, "missing session id")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "session id is required"})
	}

	v, err := ct.useCase.Verify(ctx, sessionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		ct.log.Error("failed to verify session", zap.String("session_id", sessionID), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "could not verify payment"})
	}

	span.SetStatus(codes.Ok, "")
	return c.JSON(v)
}

func (ct *Controller) Refund(c *fiber.Ctx) error {
	ctx, span := ct.tracer.Start(c.UserContext(), "Controller.RefundSession",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	sessionID := c.Params("id")
	if sessionID == "" {
		span.SetStatus(codes.Error, "missing session id")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "session id is required"})
	}

	if err := ct.useCase.Refund(ctx, sessionID); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			span.SetStatus(codes.Error, "session not found")
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session not found"})
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		ct.log.Error("failed to refund session", zap.String("session_id", sessionID), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "refund failed, contact support"})
	}

	span.SetStatus(codes.Ok, "")
	return c.JSON(fiber.Map{"refunded": true})
}
