package draft

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// MaxMessageLength bounds what fits on a physical postcard.
const MaxMessageLength = 1200

type Completer interface {
	Complete(ctx context.Context, prompt string, maxLength int) (string, error)
}

type Controller struct {
	completer Completer
	log       *zap.Logger
	tracer    trace.Tracer
}

func NewController(completer Completer, log *zap.Logger, tracer trace.Tracer) *Controller {
	return &Controller{completer: completer, log: log, tracer: tracer}
}

type draftRequest struct {
	Topic         string `json:"topic"`
	Stance        string `json:"stance"`
	RecipientName string `json:"recipient_name"`
}

func (ct *Controller) Create(c *fiber.Ctx) error {
	ctx, span := ct.tracer.Start(c.UserContext(), "Controller.CreateDraft",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	var req draftRequest
	if err := c.BodyParser(&req); err != nil {
		span.SetStatus(codes.Error, "invalid body")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Topic) == "" {
		span.SetStatus(codes.Error, "topic is required")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "topic is required"})
	}

	prompt := buildPrompt(req)
	text, err := ct.completer.Complete(ctx, prompt, MaxMessageLength)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		ct.log.Error("draft generation failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "could not generate a draft right now"})
	}

	if len(text) > MaxMessageLength {
		text = text[:MaxMessageLength]
	}

	span.SetStatus(codes.Ok, "")
	return c.JSON(fiber.Map{"message": text})
}

func buildPrompt(req draftRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a short, respectful postcard message to an elected official about: %s.", req.Topic)
	if req.Stance != "" {
		fmt.Fprintf(&b, " The sender's position: %s.", req.Stance)
	}
	if req.RecipientName != "" {
		fmt.Fprintf(&b, " Address the official as %s.", req.RecipientName)
	}
	fmt.Fprintf(&b, " Keep it under %d characters.", MaxMessageLength)
	return b.String()
}
